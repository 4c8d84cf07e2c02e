package fixgateway

import (
	"time"

	"github.com/quickfixgo/enum"
	"github.com/quickfixgo/quickfix"
	"github.com/shopspring/decimal"
)

type NewOrderSingle struct {
	SessionID quickfix.SessionID

	Account      string
	ClOrdID      string
	Symbol       string
	OrdType      enum.OrdType
	Price        decimal.Decimal
	Side         enum.Side
	TransactTime time.Time
	OrderQty     decimal.Decimal
}

// orderRoute remembers where reports for a live order go. It is only
// touched while handling messages of the order's pair, which the
// dispatcher serializes whatever the symbol's spelling.
type orderRoute struct {
	sessionID quickfix.SessionID
	clOrdID   string
	account   string
	symbol    string
	side      enum.Side
	ordType   enum.OrdType
	orderQty  decimal.Decimal
	price     decimal.Decimal

	cumQty   decimal.Decimal
	notional decimal.Decimal
}

func (r *orderRoute) fill(price, qty decimal.Decimal) {
	r.cumQty = r.cumQty.Add(qty)
	r.notional = r.notional.Add(price.Mul(qty))
}

func (r *orderRoute) leaves() decimal.Decimal {
	return r.orderQty.Sub(r.cumQty)
}

func (r *orderRoute) avgPx() decimal.Decimal {
	if r.cumQty.IsZero() {
		return decimal.Zero
	}
	return r.notional.DivRound(r.cumQty, reportScale)
}
