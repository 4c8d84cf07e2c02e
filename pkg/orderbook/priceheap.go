package orderbook

import (
	"container/heap"

	"github.com/shopspring/decimal"
)

// PriceHeap implements heap.Interface over distinct price levels. pos tracks
// where each price sits so a level can be dropped in O(log n).
type PriceHeap struct {
	prices []decimal.Decimal
	less   func(i, j decimal.Decimal) bool
	pos    map[string]int
}

func NewPriceHeap(less func(i, j decimal.Decimal) bool) *PriceHeap {
	return &PriceHeap{
		prices: []decimal.Decimal{},
		less:   less,
		pos:    make(map[string]int),
	}
}

func newBidHeap() *PriceHeap {
	return NewPriceHeap(func(i, j decimal.Decimal) bool { return i.GreaterThan(j) }) // max-heap
}

func newAskHeap() *PriceHeap {
	return NewPriceHeap(func(i, j decimal.Decimal) bool { return i.LessThan(j) }) // min-heap
}

func (h PriceHeap) Len() int {
	return len(h.prices)
}

func (h PriceHeap) Less(i, j int) bool {
	return h.less(h.prices[i], h.prices[j])
}

func (h PriceHeap) Swap(i, j int) {
	h.prices[i], h.prices[j] = h.prices[j], h.prices[i]
	h.pos[priceKey(h.prices[i])] = i
	h.pos[priceKey(h.prices[j])] = j
}

func (h *PriceHeap) Push(x any) {
	price := x.(decimal.Decimal)
	h.pos[priceKey(price)] = len(h.prices)
	h.prices = append(h.prices, price)
}

func (h *PriceHeap) Pop() any {
	n := len(h.prices)
	price := h.prices[n-1]
	h.prices = h.prices[:n-1]
	delete(h.pos, priceKey(price))
	return price
}

func (h *PriceHeap) Peek() (decimal.Decimal, bool) {
	if len(h.prices) == 0 {
		return decimal.Zero, false
	}
	return h.prices[0], true
}

// Add pushes price unless it is already present.
func (h *PriceHeap) Add(price decimal.Decimal) {
	if h.Contains(price) {
		return
	}
	heap.Push(h, price)
}

// Remove drops price from anywhere in the heap.
func (h *PriceHeap) Remove(price decimal.Decimal) bool {
	i, ok := h.pos[priceKey(price)]
	if !ok {
		return false
	}
	heap.Remove(h, i)
	return true
}

func (h *PriceHeap) Contains(price decimal.Decimal) bool {
	_, ok := h.pos[priceKey(price)]
	return ok
}

// priceKey is the canonical map key for a price. String trims trailing
// zeros, so 100 and 100.00 share a level.
func priceKey(price decimal.Decimal) string {
	return price.String()
}
