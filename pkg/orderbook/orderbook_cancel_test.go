package orderbook

import "testing"

func TestCancelOrder(t *testing.T) {
	ob := newOrderBook(testPair)

	ob.processOrder(limitOrder("1", Bid, "100", "10"))

	res := ob.cancelOrder("1")
	e := terminal(t, res)
	if e.Kind != EntryCancelled || !e.CancelledQty.Equal(dec("10")) {
		t.Fatalf("expected cancel success, got %+v", e)
	}
	if _, ok := ob.index["1"]; ok {
		t.Fatalf("order should be removed from index")
	}
	if ob.bestBid() != nil {
		t.Fatalf("empty level should be removed")
	}
	assertConsistent(t, ob)
}

func TestCancelUnknownOrder(t *testing.T) {
	ob := newOrderBook(testPair)

	res := ob.cancelOrder("missing")
	e := terminal(t, res)
	if e.Kind != EntryFailed || e.Reason != FailureOrderNotFound || e.Err() != ErrOrderNotFound {
		t.Fatalf("expected order not found, got %+v", e)
	}
}

func TestCancelFilledOrder(t *testing.T) {
	ob := newOrderBook(testPair)

	ob.processOrder(limitOrder("S1", Ask, "100", "1"))
	ob.processOrder(limitOrder("B1", Bid, "100", "1"))

	if e := terminal(t, ob.cancelOrder("S1")); e.Reason != FailureOrderNotFound {
		t.Fatalf("filled order must not be cancellable, got %+v", e)
	}
}

func TestCancelMiddleOfLevelKeepsFIFO(t *testing.T) {
	ob := newOrderBook(testPair)

	for _, id := range []string{"S1", "S2", "S3"} {
		ob.processOrder(limitOrder(id, Ask, "100", "1"))
	}
	if e := terminal(t, ob.cancelOrder("S2")); e.Kind != EntryCancelled {
		t.Fatalf("expected cancel success, got %+v", e)
	}
	assertConsistent(t, ob)

	res := ob.processOrder(limitOrder("B1", Bid, "100", "2"))
	trades := res.Trades()
	if len(trades) != 2 || trades[0].MakerOrderID != "S1" || trades[1].MakerOrderID != "S3" {
		t.Fatalf("expected S1 then S3, got %+v", trades)
	}
}

func TestCancelPartiallyFilledOrder(t *testing.T) {
	ob := newOrderBook(testPair)

	ob.processOrder(limitOrder("S1", Ask, "100", "5"))
	ob.processOrder(limitOrder("B1", Bid, "100", "2"))

	e := terminal(t, ob.cancelOrder("S1"))
	if e.Kind != EntryCancelled || !e.CancelledQty.Equal(dec("3")) || !e.FilledQty.Equal(dec("2")) {
		t.Fatalf("expected 3 cancelled after 2 filled, got %+v", e)
	}
	assertConsistent(t, ob)
}

func TestCancelDropsOnlyItsLevel(t *testing.T) {
	ob := newOrderBook(testPair)

	ob.processOrder(limitOrder("B1", Bid, "99", "1"))
	ob.processOrder(limitOrder("B2", Bid, "100", "1"))
	ob.processOrder(limitOrder("B3", Bid, "98", "1"))

	ob.cancelOrder("B2")
	if best := ob.bestBid(); best == nil || !best.Price.Equal(dec("99")) {
		t.Fatalf("expected 99 to become best bid, got %+v", best)
	}
	ob.cancelOrder("B1")
	if best := ob.bestBid(); best == nil || !best.Price.Equal(dec("98")) {
		t.Fatalf("expected 98 to become best bid, got %+v", best)
	}
	assertConsistent(t, ob)
}
