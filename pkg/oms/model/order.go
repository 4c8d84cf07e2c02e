package model

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/joripage/matchbook/pkg/orderbook"
)

type OrderStatus string

const (
	OrderStatusOpened          OrderStatus = "opened"
	OrderStatusPartiallyFilled OrderStatus = "partiallyfilled"
	OrderStatusFilled          OrderStatus = "filled"
	OrderStatusCancelled       OrderStatus = "cancelled"
)

// Live reports whether an order in this status can still rest in a book.
func (s OrderStatus) Live() bool {
	return s == OrderStatusOpened || s == OrderStatusPartiallyFilled
}

// Order is the persisted state of one submitted order.
type Order struct {
	ID             string              `gorm:"primaryKey;type:uuid" json:"id"`
	UserID         string              `gorm:"column:user_id;index;not null" json:"user_id"`
	OrderAsset     string              `gorm:"not null" json:"order_asset"`
	PriceAsset     string              `gorm:"not null" json:"price_asset"`
	Price          decimal.NullDecimal `gorm:"type:numeric" json:"price"`
	Quantity       decimal.Decimal     `gorm:"type:numeric;not null" json:"quantity"`
	CumQuantity    decimal.Decimal     `gorm:"type:numeric;not null" json:"cum_quantity"`
	LeavesQuantity decimal.Decimal     `gorm:"type:numeric;not null" json:"leaves_quantity"`
	OrderType      orderbook.OrderType `gorm:"not null" json:"order_type"`
	Side           orderbook.Side      `gorm:"not null" json:"side"`
	Status         OrderStatus         `gorm:"index;not null" json:"status"`
	CreatedAt      time.Time           `json:"created_at"`
	UpdatedAt      time.Time           `json:"updated_at"`
}

func (Order) TableName() string {
	return "orders"
}

// StatusOf maps the terminal entry of a submission onto the stored status.
// A market order that stops short of its quantity is cancelled for the rest.
func StatusOf(e orderbook.Entry) OrderStatus {
	switch e.Kind {
	case orderbook.EntryAccepted:
		return OrderStatusOpened
	case orderbook.EntryPartiallyFilled:
		if e.Rested {
			return OrderStatusPartiallyFilled
		}
		return OrderStatusCancelled
	case orderbook.EntryFilled:
		return OrderStatusFilled
	}
	return OrderStatusCancelled
}

func newOrderRow(o *orderbook.Order, res *orderbook.ProcessingResult, now time.Time) *Order {
	terminal, _ := res.Terminal()
	return &Order{
		ID:             o.ID,
		UserID:         o.Owner,
		OrderAsset:     o.Pair.Base.String(),
		PriceAsset:     o.Pair.Quote.String(),
		Price:          o.Price,
		Quantity:       o.OrigQty,
		CumQuantity:    res.FilledQty(),
		LeavesQuantity: res.LeavesQty(),
		OrderType:      o.Type,
		Side:           o.Side,
		Status:         StatusOf(terminal),
		CreatedAt:      o.CreatedAt,
		UpdatedAt:      now,
	}
}
