package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"math/rand"
	"sync"
	"time"

	"github.com/shopspring/decimal"

	redis_wrapper "github.com/joripage/matchbook/pkg/infra/redis"
	"github.com/joripage/matchbook/pkg/oms/marketdata"
	"github.com/joripage/matchbook/pkg/orderbook"
)

var ctx = context.Background()

// Writes book depth through the depth cache from several goroutines, one
// pair each, and reads it back once at the end.
func main() {
	var (
		url     string
		updates int
	)
	flag.StringVar(&url, "url", "redis://localhost:6379/0", "Redis url")
	flag.IntVar(&updates, "updates", 10_000, "Depth updates per pair")
	flag.Parse()

	rdb, err := redis_wrapper.InitRedis(ctx, &redis_wrapper.RedisConfig{ConnectionURL: url, PoolSize: 32})
	if err != nil {
		log.Fatal(err)
	}
	defer rdb.Close() // nolint

	cache := marketdata.NewDepthCache(rdb, "bench:", time.Minute)
	pairs := []orderbook.Pair{
		orderbook.NewPair(orderbook.BTC, orderbook.USD),
		orderbook.NewPair(orderbook.ETH, orderbook.USD),
		orderbook.NewPair(orderbook.ADA, orderbook.USD),
		orderbook.NewPair(orderbook.DOT, orderbook.BTC),
	}

	start := time.Now()
	var wg sync.WaitGroup
	for _, pair := range pairs {
		wg.Add(1)
		go func(pair orderbook.Pair) {
			defer wg.Done()
			books := orderbook.NewOrderBookManager(&orderbook.OrderBookManagerConfig{})
			r := rand.New(rand.NewSource(time.Now().UnixNano()))
			for i := 0; i < updates; i++ {
				side := orderbook.Bid
				price := decimal.NewFromInt(int64(90 + r.Intn(10)))
				if r.Intn(2) == 0 {
					side = orderbook.Ask
					price = decimal.NewFromInt(int64(101 + r.Intn(10)))
				}
				books.ProcessOrder(orderbook.NewLimitOrder(fmt.Sprintf("%s-%d", pair, i), "bench", pair, side, price, decimal.NewFromInt(1)))
				if err := cache.Publish(ctx, books.Depth(pair, 10)); err != nil {
					log.Println("publish", err)
				}
			}
		}(pair)
	}
	wg.Wait()
	elapsed := time.Since(start)

	total := updates * len(pairs)
	log.Printf("wrote %d depth snapshots in %s (%.0f/s)", total, elapsed, float64(total)/elapsed.Seconds())

	for _, pair := range pairs {
		depth, at, err := cache.Load(ctx, pair)
		if err != nil {
			log.Println("load", pair, err)
			continue
		}
		bid, _ := depth.BestBid()
		ask, _ := depth.BestAsk()
		log.Printf("%s bid=%s ask=%s at=%s", pair, bid.Price, ask.Price, at.Format(time.RFC3339Nano))
	}
}
