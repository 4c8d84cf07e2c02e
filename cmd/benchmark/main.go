package main

import (
	"flag"
	"fmt"
	"math/rand"
	"time"

	"github.com/shopspring/decimal"

	"github.com/joripage/matchbook/pkg/orderbook"
)

const (
	minPrice = 100.0
	maxPrice = 200.0
	minQty   = 1
	maxQty   = 100
)

var pair = orderbook.NewPair(orderbook.BTC, orderbook.USD)

func randomOrder(r *rand.Rand, id int) *orderbook.Order {
	side := orderbook.Bid
	if r.Intn(2) == 0 {
		side = orderbook.Ask
	}
	qty := decimal.NewFromInt(int64(r.Intn(maxQty-minQty+1) + minQty))
	orderID := fmt.Sprintf("ORD-%07d", id)

	if r.Intn(20) == 0 {
		return orderbook.NewMarketOrder(orderID, "bench", pair, side, qty)
	}
	price := decimal.NewFromFloat(minPrice + r.Float64()*(maxPrice-minPrice)).Round(2)
	return orderbook.NewLimitOrder(orderID, "bench", pair, side, price, qty)
}

func main() {
	var (
		numOrders int
		seed      int64
		checks    bool
	)
	flag.IntVar(&numOrders, "orders", 1_000_000, "Number of orders to submit")
	flag.Int64Var(&seed, "seed", time.Now().UnixNano(), "Random seed")
	flag.BoolVar(&checks, "check-invariants", false, "Verify book invariants after every order")
	flag.Parse()

	r := rand.New(rand.NewSource(seed))
	obm := orderbook.NewOrderBookManager(&orderbook.OrderBookManagerConfig{
		CheckInvariants: checks,
	})

	// orders are submitted from this goroutine only, so the callback
	// never runs concurrently with itself
	var totalTrades, failed int
	totalQty := decimal.Zero
	obm.RegisterResultCallback(func(res *orderbook.ProcessingResult) {
		trades := res.Trades()
		totalTrades += len(trades)
		for _, t := range trades {
			totalQty = totalQty.Add(t.Qty)
		}
		if !res.Succeeded() {
			failed++
		}
	})

	start := time.Now()
	for i := 0; i < numOrders; i++ {
		obm.ProcessOrder(randomOrder(r, i+1))
	}
	elapsed := time.Since(start)

	depth := obm.Depth(pair, 1)
	fmt.Println("--------")
	fmt.Printf("Seed              : %d\n", seed)
	fmt.Printf("Total Orders      : %d\n", numOrders)
	fmt.Printf("Total Trades      : %d\n", totalTrades)
	fmt.Printf("Total Matched Qty : %s\n", totalQty)
	fmt.Printf("Failed            : %d\n", failed)
	fmt.Printf("Resting           : %d\n", obm.RestingOrders(pair))
	if bid, ok := depth.BestBid(); ok {
		fmt.Printf("Best Bid          : %s x %s\n", bid.Price, bid.Qty)
	}
	if ask, ok := depth.BestAsk(); ok {
		fmt.Printf("Best Ask          : %s x %s\n", ask.Price, ask.Qty)
	}
	fmt.Printf("Time Taken        : %s (%.0f orders/s)\n", elapsed, float64(numOrders)/elapsed.Seconds())
}
