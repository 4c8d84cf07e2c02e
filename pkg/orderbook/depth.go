package orderbook

import (
	"github.com/shopspring/decimal"
)

type DepthLevel struct {
	Price  decimal.Decimal `json:"price"`
	Qty    decimal.Decimal `json:"qty"`
	Orders int             `json:"orders"`
}

// Depth is an aggregated view of the best levels of a book, best first.
type Depth struct {
	Pair Pair         `json:"pair"`
	Bids []DepthLevel `json:"bids"`
	Asks []DepthLevel `json:"asks"`
}

func (d Depth) BestBid() (DepthLevel, bool) {
	if len(d.Bids) == 0 {
		return DepthLevel{}, false
	}
	return d.Bids[0], true
}

func (d Depth) BestAsk() (DepthLevel, bool) {
	if len(d.Asks) == 0 {
		return DepthLevel{}, false
	}
	return d.Asks[0], true
}

// depth aggregates up to n levels per side; n <= 0 means all of them.
func (ob *orderBook) depth(n int) Depth {
	return Depth{
		Pair: ob.pair,
		Bids: aggregate(ob.bids, n),
		Asks: aggregate(ob.asks, n),
	}
}

func aggregate(s *bookSide, n int) []DepthLevel {
	levels := s.sortedLevels()
	if n > 0 && len(levels) > n {
		levels = levels[:n]
	}
	out := make([]DepthLevel, 0, len(levels))
	for _, l := range levels {
		out = append(out, DepthLevel{Price: l.Price, Qty: l.Volume(), Orders: l.Len()})
	}
	return out
}
