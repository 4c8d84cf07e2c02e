package model

import (
	"github.com/shopspring/decimal"

	"github.com/joripage/matchbook/pkg/orderbook"
)

// OrderUpdate changes a previously recorded order: a resting maker that was
// filled, or an order that was cancelled. LeavesQuantity is absolute, so the
// same update applied twice leaves the order as applying it once.
type OrderUpdate struct {
	OrderID        string          `json:"order_id"`
	FillQuantity   decimal.Decimal `json:"fill_quantity"` // size of this fill only
	LeavesQuantity decimal.Decimal `json:"leaves_quantity"`
	Status         OrderStatus     `json:"status"`
}

// Apply moves o forward by u and reports whether u was current. Leaves only
// shrink while an order is live, so an update with more leaves than o is
// stale, and a final order takes no further updates.
func (o *Order) Apply(u OrderUpdate) bool {
	if !o.Status.Live() || u.LeavesQuantity.GreaterThan(o.LeavesQuantity) {
		return false
	}
	if u.Status != OrderStatusCancelled {
		o.CumQuantity = o.Quantity.Sub(u.LeavesQuantity)
	}
	o.LeavesQuantity = u.LeavesQuantity
	o.Status = u.Status
	return true
}

func makerUpdate(e orderbook.Entry) OrderUpdate {
	status := OrderStatusPartiallyFilled
	if e.MakerLeavesQty.IsZero() {
		status = OrderStatusFilled
	}
	return OrderUpdate{
		OrderID:        e.Trade.MakerOrderID,
		FillQuantity:   e.Trade.Qty,
		LeavesQuantity: e.MakerLeavesQty,
		Status:         status,
	}
}
