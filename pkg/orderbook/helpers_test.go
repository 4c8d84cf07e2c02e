package orderbook

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
)

var testPair = NewPair(BTC, USD)

func fixedNow() time.Time {
	return time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC)
}

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func limitOrder(id string, side Side, price, qty string) *Order {
	return NewLimitOrder(id, "owner-"+id, testPair, side, dec(price), dec(qty))
}

func marketOrder(id string, side Side, qty string) *Order {
	return NewMarketOrder(id, "owner-"+id, testPair, side, dec(qty))
}

// assertConsistent walks the whole book and checks the structural
// invariants that checkInvariants only samples.
func assertConsistent(t testing.TB, ob *orderBook) {
	t.Helper()

	seen := 0
	for _, side := range []*bookSide{ob.bids, ob.asks} {
		if len(side.levels) != side.prices.Len() {
			t.Fatalf("%s: %d levels but %d heap prices", side.side, len(side.levels), side.prices.Len())
		}
		for key, l := range side.levels {
			if l.Len() == 0 {
				t.Fatalf("%s: empty level %s left in book", side.side, key)
			}
			sum := decimal.Zero
			var last uint64
			for _, o := range l.Orders() {
				if !o.Qty.IsPositive() {
					t.Fatalf("%s: order %s rests with qty %s", side.side, o.ID, o.Qty)
				}
				if o.Sequence <= last {
					t.Fatalf("%s: level %s out of sequence order at %s", side.side, key, o.ID)
				}
				last = o.Sequence
				loc, ok := ob.index[o.ID]
				if !ok || loc.side != side.side || !loc.price.Equal(l.Price) || loc.sequence != o.Sequence {
					t.Fatalf("%s: index entry for %s is %+v", side.side, o.ID, loc)
				}
				sum = sum.Add(o.Qty)
				seen++
			}
			if !sum.Equal(l.Volume()) {
				t.Fatalf("%s: level %s volume %s, orders sum to %s", side.side, key, l.Volume(), sum)
			}
		}
	}
	if seen != len(ob.index) {
		t.Fatalf("index holds %d orders, book holds %d", len(ob.index), seen)
	}
	if bid, ask := ob.bestBid(), ob.bestAsk(); bid != nil && ask != nil && !bid.Price.LessThan(ask.Price) {
		t.Fatalf("book crossed: bid %s ask %s", bid.Price, ask.Price)
	}
}

func terminal(t testing.TB, res *ProcessingResult) Entry {
	t.Helper()
	e, ok := res.Terminal()
	if !ok {
		t.Fatalf("empty result for %s", res.OrderID)
	}
	return e
}
