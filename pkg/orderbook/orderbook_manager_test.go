package orderbook

import (
	"fmt"
	"sync"
	"testing"
)

func TestManagerPartitionsByPair(t *testing.T) {
	m := NewOrderBookManager(&OrderBookManagerConfig{CheckInvariants: true})
	ethUSD := NewPair(ETH, USD)

	m.ProcessOrder(limitOrder("S1", Ask, "100", "1"))
	o := NewLimitOrder("B1", "u", ethUSD, Bid, dec("100"), dec("1"))
	res := m.ProcessOrder(o)

	if len(res.Trades()) != 0 {
		t.Fatalf("orders on different pairs must not match, got %+v", res.Trades())
	}
	if n := len(m.Pairs()); n != 2 {
		t.Fatalf("expected 2 books, got %d", n)
	}
	if m.RestingOrders(testPair) != 1 || m.RestingOrders(ethUSD) != 1 {
		t.Fatalf("expected one resting order per book")
	}
}

func TestManagerRejectsMalformedOrder(t *testing.T) {
	m := NewOrderBookManager(nil)

	o := limitOrder("B1", Bid, "100", "0")
	res := m.ProcessOrder(o)
	e := terminal(t, res)
	if e.Kind != EntryFailed || e.Reason != FailureValidationError {
		t.Fatalf("expected validation failure, got %+v", e)
	}
	if len(m.Pairs()) != 0 {
		t.Fatalf("rejected order must not create a book")
	}

	bad := marketOrder("B2", Bid, "1")
	bad.Price.Valid = true
	if e := terminal(t, m.ProcessOrder(bad)); e.Reason != FailureValidationError {
		t.Fatalf("market order with price should be rejected, got %+v", e)
	}
}

func TestManagerCallbacksRunAfterUnlock(t *testing.T) {
	m := NewOrderBookManager(nil)

	var got []*ProcessingResult
	m.RegisterResultCallback(func(res *ProcessingResult) {
		// would deadlock if the book lock were still held
		m.Depth(res.Pair, 1)
		got = append(got, res)
	})

	m.ProcessOrder(limitOrder("S1", Ask, "100", "1"))
	m.CancelOrder(testPair, "S1")

	if len(got) != 2 {
		t.Fatalf("expected 2 callbacks, got %d", len(got))
	}
	if e := terminal(t, got[1]); e.Kind != EntryCancelled {
		t.Fatalf("expected cancel result, got %+v", e)
	}
}

func TestManagerDepth(t *testing.T) {
	m := NewOrderBookManager(nil)

	m.ProcessOrder(limitOrder("B1", Bid, "99", "1"))
	m.ProcessOrder(limitOrder("B2", Bid, "99", "2"))
	m.ProcessOrder(limitOrder("B3", Bid, "98", "4"))
	m.ProcessOrder(limitOrder("S1", Ask, "101", "5"))

	d := m.Depth(testPair, 1)
	if len(d.Bids) != 1 || len(d.Asks) != 1 {
		t.Fatalf("expected one level per side, got %+v", d)
	}
	best, _ := d.BestBid()
	if !best.Price.Equal(dec("99")) || !best.Qty.Equal(dec("3")) || best.Orders != 2 {
		t.Fatalf("unexpected best bid %+v", best)
	}

	all := m.Depth(testPair, 0)
	if len(all.Bids) != 2 || !all.Bids[1].Price.Equal(dec("98")) {
		t.Fatalf("expected bids best first, got %+v", all.Bids)
	}

	if empty := m.Depth(NewPair(DOT, USD), 5); len(empty.Bids)+len(empty.Asks) != 0 {
		t.Fatalf("unknown pair should have empty depth")
	}
}

func TestManagerConcurrentPairs(t *testing.T) {
	m := NewOrderBookManager(nil)
	pairs := []Pair{NewPair(BTC, USD), NewPair(ETH, USD), NewPair(ADA, USD), NewPair(GRIN, BTC)}

	var wg sync.WaitGroup
	for _, p := range pairs {
		for side, s := range []Side{Bid, Ask} {
			wg.Add(1)
			go func(p Pair, s Side, side int) {
				defer wg.Done()
				for i := 0; i < 200; i++ {
					id := fmt.Sprintf("%s-%d-%d", p, side, i)
					m.ProcessOrder(NewLimitOrder(id, "u", p, s, dec("10"), dec("1")))
				}
			}(p, s, side)
		}
	}
	wg.Wait()

	for _, p := range pairs {
		if n := m.RestingOrders(p); n != 0 {
			t.Errorf("%s: expected empty book, got %d resting", p, n)
		}
	}
}
