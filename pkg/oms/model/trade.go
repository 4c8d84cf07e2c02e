package model

import (
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/joripage/matchbook/pkg/orderbook"
)

type Trade struct {
	ID           string          `gorm:"primaryKey;type:uuid" json:"id"`
	Pair         string          `gorm:"index;not null" json:"pair"`
	MakerOrderID string          `gorm:"type:uuid;index;not null" json:"maker_order_id"`
	TakerOrderID string          `gorm:"type:uuid;index;not null" json:"taker_order_id"`
	TakerSide    orderbook.Side  `gorm:"not null" json:"taker_side"`
	Price        decimal.Decimal `gorm:"type:numeric;not null" json:"price"`
	Quantity     decimal.Decimal `gorm:"type:numeric;not null" json:"quantity"`
	ExecutedAt   time.Time       `gorm:"not null" json:"executed_at"`
}

func (Trade) TableName() string {
	return "trades"
}

// TradeID derives a stable id from the taker and the trade's sequence in its
// book, so replaying the same execution yields the same row.
func TradeID(takerOrderID string, seq uint64) string {
	return uuid.NewSHA1(uuid.NameSpaceOID, []byte(fmt.Sprintf("matchbook/trade/%s/%d", takerOrderID, seq))).String()
}

func newTradeRow(t orderbook.Trade) Trade {
	return Trade{
		ID:           TradeID(t.TakerOrderID, t.Seq),
		Pair:         t.Pair.String(),
		MakerOrderID: t.MakerOrderID,
		TakerOrderID: t.TakerOrderID,
		TakerSide:    t.TakerSide,
		Price:        t.Price,
		Quantity:     t.Qty,
		ExecutedAt:   t.Timestamp,
	}
}
