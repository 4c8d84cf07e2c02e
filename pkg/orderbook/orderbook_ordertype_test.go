package orderbook

import (
	"testing"
)

func TestLimitRestsOnEmptyBook(t *testing.T) {
	ob := newOrderBook(testPair)

	res := ob.processOrder(limitOrder("B1", Bid, "100", "2"))
	if len(res.Entries) != 1 {
		t.Fatalf("expected a single entry, got %+v", res.Entries)
	}
	e := terminal(t, res)
	if e.Kind != EntryAccepted || !e.LeavesQty.Equal(dec("2")) {
		t.Fatalf("expected accepted with 2 resting, got %+v", e)
	}
	bid := ob.bestBid()
	if bid == nil || !bid.Price.Equal(dec("100")) || !bid.Volume().Equal(dec("2")) || bid.Len() != 1 {
		t.Fatalf("expected one bid resting at 100 qty 2, got %+v", bid)
	}
	assertConsistent(t, ob)
}

func TestLimitPartialFillRestsRemainder(t *testing.T) {
	ob := newOrderBook(testPair)

	ob.processOrder(limitOrder("S1", Ask, "100", "1"))
	if s := ob.bestAsk().Front().Sequence; s != 1 {
		t.Fatalf("expected first resting order to get sequence 1, got %d", s)
	}

	res := ob.processOrder(limitOrder("B1", Bid, "100", "2"))
	if len(res.Entries) != 2 {
		t.Fatalf("expected trade + terminal, got %+v", res.Entries)
	}
	tr := res.Entries[0]
	if tr.Kind != EntryTrade || !tr.Trade.Qty.Equal(dec("1")) || !tr.Trade.Price.Equal(dec("100")) {
		t.Fatalf("expected trade 1 @ 100, got %+v", tr)
	}
	e := terminal(t, res)
	if e.Kind != EntryPartiallyFilled || !e.LeavesQty.Equal(dec("1")) {
		t.Fatalf("expected 1 resting as new bid, got %+v", e)
	}
	if ob.bestAsk() != nil || len(ob.asks.levels) != 0 {
		t.Fatalf("ask level should be removed")
	}
	bid := ob.bestBid()
	if bid == nil || !bid.Volume().Equal(dec("1")) {
		t.Fatalf("expected remaining bid of 1, got %+v", bid)
	}
	if seq := bid.Front().Sequence; seq <= 1 {
		t.Fatalf("remainder should rest with a fresh sequence, got %d", seq)
	}
	assertConsistent(t, ob)
}

func TestMarketOrderNoLiquidity(t *testing.T) {
	ob := newOrderBook(testPair)

	res := ob.processOrder(marketOrder("B1", Bid, "5"))
	e := terminal(t, res)
	if e.Kind != EntryFailed || e.Reason != FailureNoLiquidity {
		t.Fatalf("expected no liquidity, got %+v", e)
	}
	if e.Err() != ErrNoLiquidity {
		t.Fatalf("expected ErrNoLiquidity, got %v", e.Err())
	}
	if ob.restingCount() != 0 || ob.bestBid() != nil {
		t.Fatalf("market order must not rest")
	}
}

func TestMarketOrderTakesBestPriceFirst(t *testing.T) {
	ob := newOrderBook(testPair)

	ob.processOrder(limitOrder("S1", Ask, "100", "1"))
	ob.processOrder(limitOrder("S2", Ask, "99", "1"))

	res := ob.processOrder(marketOrder("B1", Bid, "2"))
	trades := res.Trades()
	if len(trades) != 2 {
		t.Fatalf("expected two trades, got %+v", trades)
	}
	if trades[0].MakerOrderID != "S2" || !trades[0].Price.Equal(dec("99")) {
		t.Errorf("expected 99 first, got %+v", trades[0])
	}
	if trades[1].MakerOrderID != "S1" || !trades[1].Price.Equal(dec("100")) {
		t.Errorf("expected 100 second, got %+v", trades[1])
	}
	if e := terminal(t, res); e.Kind != EntryFilled || !e.FilledQty.Equal(dec("2")) {
		t.Fatalf("expected filled 2, got %+v", e)
	}
	if ob.restingCount() != 0 {
		t.Fatalf("nothing should rest, got %d", ob.restingCount())
	}
}

func TestMarketOrderRemainderIsCancelled(t *testing.T) {
	ob := newOrderBook(testPair)

	ob.processOrder(limitOrder("B1", Bid, "100", "3"))
	res := ob.processOrder(marketOrder("S1", Ask, "5"))

	e := terminal(t, res)
	if e.Kind != EntryPartiallyFilled || e.Rested {
		t.Fatalf("expected non-resting partial fill, got %+v", e)
	}
	if !e.FilledQty.Equal(dec("3")) || !e.CancelledQty.Equal(dec("2")) || e.Note == "" {
		t.Fatalf("expected 3 filled and 2 cancelled with a note, got %+v", e)
	}
	if ob.restingCount() != 0 {
		t.Fatalf("market remainder must not rest")
	}
}

func TestAskLimitDoesNotTradeBelowItsPrice(t *testing.T) {
	ob := newOrderBook(testPair)

	ob.processOrder(limitOrder("B1", Bid, "101", "1"))
	ob.processOrder(limitOrder("B2", Bid, "99", "1"))

	res := ob.processOrder(limitOrder("S1", Ask, "100", "2"))
	trades := res.Trades()
	if len(trades) != 1 || trades[0].MakerOrderID != "B1" || !trades[0].Price.Equal(dec("101")) {
		t.Fatalf("expected one trade with B1 at 101, got %+v", trades)
	}
	ask := ob.bestAsk()
	if ask == nil || !ask.Price.Equal(dec("100")) || !ask.Volume().Equal(dec("1")) {
		t.Fatalf("expected 1 resting at 100, got %+v", ask)
	}
	assertConsistent(t, ob)
}

func TestTakerOrderNotSharedWithBook(t *testing.T) {
	ob := newOrderBook(testPair)

	o := limitOrder("B1", Bid, "100", "2")
	ob.processOrder(o)
	o.Qty = dec("999")

	if v := ob.bestBid().Volume(); !v.Equal(dec("2")) {
		t.Fatalf("book should own its copy, volume is %s", v)
	}
}
