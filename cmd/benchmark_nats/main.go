package main

import (
	"context"
	"flag"
	"log"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	nats_wrapper "github.com/joripage/matchbook/pkg/infra/nats"
	"github.com/joripage/matchbook/pkg/oms"
	"github.com/joripage/matchbook/pkg/oms/model"
	"github.com/joripage/matchbook/pkg/orderbook"
)

// Publishes executions produced by a crossing flow through the NATS recorder
// and reports throughput.
func main() {
	var (
		url     string
		total   int
		workers int
	)
	flag.StringVar(&url, "url", "", "NATS url")
	flag.IntVar(&total, "orders", 100_000, "Orders to submit")
	flag.IntVar(&workers, "workers", 8, "Concurrent publishers")
	flag.Parse()

	cfg := &nats_wrapper.NatsConfig{
		URL:        url,
		Stream:     "BENCH_EXECUTIONS",
		Subject:    "bench.executions",
		MaxPending: 65536,
	}
	nc, js, err := nats_wrapper.Connect(cfg)
	if err != nil {
		log.Fatal(err)
	}
	defer nc.Close()

	recorder := oms.NewNATSRecorder(js, cfg.Subject)
	books := orderbook.NewOrderBookManager(&orderbook.OrderBookManagerConfig{})
	pair := orderbook.NewPair(orderbook.BTC, orderbook.USD)

	execs := make(chan *model.Execution, 1024)
	var wg sync.WaitGroup
	var failed int64
	var mu sync.Mutex
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for exec := range execs {
				if err := recorder.Record(context.Background(), exec); err != nil {
					mu.Lock()
					failed++
					mu.Unlock()
				}
			}
		}()
	}

	start := time.Now()
	for i := 0; i < total; i++ {
		side := orderbook.Bid
		if i%2 == 1 {
			side = orderbook.Ask
		}
		o := orderbook.NewLimitOrder(uuid.NewString(), "bench", pair, side, decimal.NewFromInt(100), decimal.NewFromInt(1))
		if exec := model.NewSubmitExecution(o, books.ProcessOrder(o), time.Now()); exec != nil {
			execs <- exec
		}
	}
	close(execs)
	wg.Wait()

	elapsed := time.Since(start)
	log.Printf("published %d executions in %s (%.0f/s), failed=%d", total, elapsed, float64(total)/elapsed.Seconds(), failed)
}
