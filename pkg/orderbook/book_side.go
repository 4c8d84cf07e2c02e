package orderbook

import (
	"sort"

	"github.com/shopspring/decimal"
)

// bookSide is one half of a book: levels by price key plus a heap that
// yields the best price first.
type bookSide struct {
	side   Side
	levels map[string]*PriceLevel
	prices *PriceHeap
}

func newBookSide(side Side) *bookSide {
	prices := newAskHeap()
	if side == Bid {
		prices = newBidHeap()
	}
	return &bookSide{
		side:   side,
		levels: make(map[string]*PriceLevel),
		prices: prices,
	}
}

func (s *bookSide) best() *PriceLevel {
	price, ok := s.prices.Peek()
	if !ok {
		return nil
	}
	return s.levels[priceKey(price)]
}

func (s *bookSide) level(price decimal.Decimal) *PriceLevel {
	return s.levels[priceKey(price)]
}

// levelFor returns the level at price, creating it if needed.
func (s *bookSide) levelFor(price decimal.Decimal) *PriceLevel {
	key := priceKey(price)
	if l, ok := s.levels[key]; ok {
		return l
	}
	l := newPriceLevel(price)
	s.levels[key] = l
	s.prices.Add(price)
	return l
}

func (s *bookSide) deleteLevel(l *PriceLevel) {
	delete(s.levels, priceKey(l.Price))
	s.prices.Remove(l.Price)
}

func (s *bookSide) empty() bool {
	return len(s.levels) == 0
}

// sortedLevels returns levels best first.
func (s *bookSide) sortedLevels() []*PriceLevel {
	out := make([]*PriceLevel, 0, len(s.levels))
	for _, l := range s.levels {
		out = append(out, l)
	}
	sort.Slice(out, func(i, j int) bool { return s.prices.less(out[i].Price, out[j].Price) })
	return out
}
