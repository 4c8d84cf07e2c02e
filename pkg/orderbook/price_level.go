package orderbook

import (
	"sort"

	"github.com/gammazero/deque"
	"github.com/shopspring/decimal"
)

// PriceLevel holds the resting orders at one price in arrival order.
type PriceLevel struct {
	Price  decimal.Decimal
	orders deque.Deque[*Order]
	volume decimal.Decimal
}

func newPriceLevel(price decimal.Decimal) *PriceLevel {
	return &PriceLevel{Price: price, volume: decimal.Zero}
}

func (l *PriceLevel) Len() int {
	return l.orders.Len()
}

// Volume is the summed remaining quantity of the level.
func (l *PriceLevel) Volume() decimal.Decimal {
	return l.volume
}

func (l *PriceLevel) Front() *Order {
	if l.orders.Len() == 0 {
		return nil
	}
	return l.orders.Front()
}

func (l *PriceLevel) pushBack(o *Order) {
	l.orders.PushBack(o)
	l.volume = l.volume.Add(o.Qty)
}

func (l *PriceLevel) popFront() *Order {
	o := l.orders.PopFront()
	l.volume = l.volume.Sub(o.Qty)
	return o
}

// fillFront takes qty off the oldest order and returns what it has left.
func (l *PriceLevel) fillFront(qty decimal.Decimal) decimal.Decimal {
	o := l.orders.Front()
	o.Qty = o.Qty.Sub(qty)
	l.volume = l.volume.Sub(qty)
	return o.Qty
}

// remove takes the order with the given sequence out of the level. Orders
// are appended with increasing sequence, so the deque is sorted by it.
func (l *PriceLevel) remove(seq uint64) (*Order, bool) {
	n := l.orders.Len()
	i := sort.Search(n, func(i int) bool { return l.orders.At(i).Sequence >= seq })
	if i == n || l.orders.At(i).Sequence != seq {
		return nil, false
	}
	o := l.orders.Remove(i)
	l.volume = l.volume.Sub(o.Qty)
	return o, true
}

// Orders copies the level front to back.
func (l *PriceLevel) Orders() []Order {
	out := make([]Order, 0, l.orders.Len())
	for i := 0; i < l.orders.Len(); i++ {
		out = append(out, *l.orders.At(i))
	}
	return out
}
