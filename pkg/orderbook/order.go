package orderbook

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

type Side string

const (
	Bid Side = "bid"
	Ask Side = "ask"
)

func (s Side) Opposite() Side {
	if s == Bid {
		return Ask
	}
	return Bid
}

func (s Side) Valid() bool {
	return s == Bid || s == Ask
}

type OrderType string

const (
	Market OrderType = "market"
	Limit  OrderType = "limit"
)

func (t OrderType) Valid() bool {
	return t == Market || t == Limit
}

type Order struct {
	ID    string
	Owner string // audit only, never consulted when matching
	Pair  Pair
	Side  Side
	Type  OrderType

	// Price is set for limit orders only.
	Price decimal.NullDecimal

	OrigQty decimal.Decimal
	Qty     decimal.Decimal // remaining

	// Sequence is assigned by the book when the order starts resting.
	Sequence  uint64
	CreatedAt time.Time
}

// NewLimitOrder builds a limit order with Qty and OrigQty set to qty.
func NewLimitOrder(id, owner string, pair Pair, side Side, price, qty decimal.Decimal) *Order {
	return &Order{
		ID:        id,
		Owner:     owner,
		Pair:      pair,
		Side:      side,
		Type:      Limit,
		Price:     decimal.NullDecimal{Decimal: price, Valid: true},
		OrigQty:   qty,
		Qty:       qty,
		CreatedAt: time.Now(),
	}
}

func NewMarketOrder(id, owner string, pair Pair, side Side, qty decimal.Decimal) *Order {
	return &Order{
		ID:        id,
		Owner:     owner,
		Pair:      pair,
		Side:      side,
		Type:      Market,
		OrigQty:   qty,
		Qty:       qty,
		CreatedAt: time.Now(),
	}
}

// LimitPrice returns the limit price, or zero for market orders.
func (o *Order) LimitPrice() decimal.Decimal {
	if !o.Price.Valid {
		return decimal.Zero
	}
	return o.Price.Decimal
}

func (o *Order) FilledQty() decimal.Decimal {
	return o.OrigQty.Sub(o.Qty)
}

// crosses reports whether a resting level at price is acceptable to o.
func (o *Order) crosses(price decimal.Decimal) bool {
	if o.Type == Market {
		return true
	}
	switch o.Side {
	case Bid:
		return price.LessThanOrEqual(o.Price.Decimal)
	case Ask:
		return price.GreaterThanOrEqual(o.Price.Decimal)
	}
	return false
}

func (o *Order) validate() error {
	if o == nil {
		return fmt.Errorf("%w: nil order", errInvalidOrderQty)
	}
	if err := o.Pair.Validate(); err != nil {
		return err
	}
	if !o.Side.Valid() {
		return fmt.Errorf("%w: %q", errInvalidSide, o.Side)
	}
	if !o.Qty.IsPositive() {
		return fmt.Errorf("%w: %s", errInvalidOrderQty, o.Qty)
	}
	switch o.Type {
	case Limit:
		if !o.Price.Valid || !o.Price.Decimal.IsPositive() {
			return fmt.Errorf("%w: limit order needs a positive price", errInvalidOrderPrice)
		}
	case Market:
		if o.Price.Valid {
			return fmt.Errorf("%w: market order carries a price", errInvalidOrderPrice)
		}
	default:
		return fmt.Errorf("%w: %q", errInvalidOrderType, o.Type)
	}
	return nil
}
