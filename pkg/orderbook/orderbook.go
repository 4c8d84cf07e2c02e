// file: pkg/orderbook/orderbook.go

package orderbook

import (
	"fmt"
	"sync"
	"time"

	"github.com/shopspring/decimal"
)

type orderBookConfig struct {
	CheckInvariants bool
}

type locator struct {
	side     Side
	price    decimal.Decimal
	sequence uint64
}

// orderBook is the state of one pair. The unexported primitives assume mu
// is held; processOrder and cancelOrder take it.
type orderBook struct {
	pair Pair
	cfg  orderBookConfig

	bids *bookSide
	asks *bookSide

	index    map[string]locator
	seq      uint64
	tradeSeq uint64

	now func() time.Time

	mu sync.Mutex
}

func newOrderBook(pair Pair) *orderBook {
	return &orderBook{
		pair:  pair,
		cfg:   orderBookConfig{CheckInvariants: true},
		bids:  newBookSide(Bid),
		asks:  newBookSide(Ask),
		index: make(map[string]locator),
		now:   time.Now,
	}
}

func (ob *orderBook) sideOf(side Side) *bookSide {
	if side == Bid {
		return ob.bids
	}
	return ob.asks
}

func (ob *orderBook) processOrder(order *Order) *ProcessingResult {
	ob.mu.Lock()
	defer ob.mu.Unlock()

	if _, dup := ob.index[order.ID]; dup {
		return Rejected(order, fmt.Errorf("%w: %s", ErrDuplicateOrderID, order.ID))
	}
	res := ob.process(order)
	if ob.cfg.CheckInvariants {
		ob.checkInvariants()
	}
	return res
}

func (ob *orderBook) cancelOrder(orderID string) *ProcessingResult {
	ob.mu.Lock()
	defer ob.mu.Unlock()

	o, err := ob.cancel(orderID)
	if err != nil {
		res := &ProcessingResult{OrderID: orderID, Pair: ob.pair}
		res.finish(Entry{Kind: EntryFailed, Reason: FailureOrderNotFound})
		return res
	}

	res := newProcessingResult(o)
	res.finish(Entry{
		Kind:         EntryCancelled,
		FilledQty:    o.FilledQty(),
		CancelledQty: o.Qty,
	})
	if ob.cfg.CheckInvariants {
		ob.checkInvariants()
	}
	return res
}

func (ob *orderBook) snapshot(levels int) Depth {
	ob.mu.Lock()
	defer ob.mu.Unlock()
	return ob.depth(levels)
}

// insert rests order at the back of its price level.
func (ob *orderBook) insert(order *Order) {
	if _, dup := ob.index[order.ID]; dup {
		panic(fmt.Errorf("%w: order %s inserted twice", ErrInvariantViolation, order.ID))
	}
	ob.seq++
	order.Sequence = ob.seq

	level := ob.sideOf(order.Side).levelFor(order.Price.Decimal)
	level.pushBack(order)
	ob.index[order.ID] = locator{side: order.Side, price: level.Price, sequence: order.Sequence}
}

func (ob *orderBook) bestBid() *PriceLevel {
	return ob.bids.best()
}

func (ob *orderBook) bestAsk() *PriceLevel {
	return ob.asks.best()
}

// removeFrontOf pops the oldest order at level and drops the level once it
// is empty.
func (ob *orderBook) removeFrontOf(side *bookSide, level *PriceLevel) *Order {
	o := level.popFront()
	delete(ob.index, o.ID)
	if level.Len() == 0 {
		side.deleteLevel(level)
	}
	return o
}

func (ob *orderBook) cancel(orderID string) (*Order, error) {
	loc, ok := ob.index[orderID]
	if !ok {
		return nil, ErrOrderNotFound
	}
	side := ob.sideOf(loc.side)
	level := side.level(loc.price)
	if level == nil {
		panic(fmt.Errorf("%w: order %s indexed at missing level %s", ErrInvariantViolation, orderID, loc.price))
	}
	o, ok := level.remove(loc.sequence)
	if !ok {
		panic(fmt.Errorf("%w: order %s missing from level %s", ErrInvariantViolation, orderID, loc.price))
	}
	delete(ob.index, orderID)
	if level.Len() == 0 {
		side.deleteLevel(level)
	}
	return o, nil
}

func (ob *orderBook) restingCount() int {
	return len(ob.index)
}

// checkInvariants panics when the book is crossed or the best levels hold a
// non-positive quantity.
func (ob *orderBook) checkInvariants() {
	bid, ask := ob.bestBid(), ob.bestAsk()
	if bid != nil && ask != nil && bid.Price.GreaterThanOrEqual(ask.Price) {
		panic(fmt.Errorf("%w: %s crossed, bid %s >= ask %s", ErrInvariantViolation, ob.pair, bid.Price, ask.Price))
	}
	for _, l := range []*PriceLevel{bid, ask} {
		if l == nil {
			continue
		}
		if l.Len() == 0 || !l.Front().Qty.IsPositive() || !l.Volume().IsPositive() {
			panic(fmt.Errorf("%w: %s level %s holds non-positive quantity", ErrInvariantViolation, ob.pair, l.Price))
		}
	}
}
