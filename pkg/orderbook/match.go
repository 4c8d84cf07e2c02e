package orderbook

import (
	"time"

	"github.com/shopspring/decimal"
)

// Trade is one fill between a resting maker and an incoming taker. Price is
// always the maker's resting price.
type Trade struct {
	Seq          uint64          `json:"seq"`
	Pair         Pair            `json:"pair"`
	MakerOrderID string          `json:"maker_order_id"`
	TakerOrderID string          `json:"taker_order_id"`
	TakerSide    Side            `json:"taker_side"`
	Price        decimal.Decimal `json:"price"`
	Qty          decimal.Decimal `json:"qty"`
	Timestamp    time.Time       `json:"timestamp"`
}

func (t Trade) Notional() decimal.Decimal {
	return t.Price.Mul(t.Qty)
}

// BidOrderID returns whichever side of the trade was buying.
func (t Trade) BidOrderID() string {
	if t.TakerSide == Bid {
		return t.TakerOrderID
	}
	return t.MakerOrderID
}

func (t Trade) AskOrderID() string {
	if t.TakerSide == Ask {
		return t.TakerOrderID
	}
	return t.MakerOrderID
}
