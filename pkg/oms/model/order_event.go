package model

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"github.com/joripage/matchbook/pkg/orderbook"
)

type ExecutionKind string

const (
	ExecutionSubmit ExecutionKind = "submit"
	ExecutionCancel ExecutionKind = "cancel"
)

// Execution is everything one book operation changed, in the form recorders
// persist or publish. It is produced after the book lock is released.
type Execution struct {
	EventID   string        `json:"event_id"`
	Kind      ExecutionKind `json:"kind"`
	OrderID   string        `json:"order_id"`
	Pair      string        `json:"pair"`
	Order     *Order        `json:"order,omitempty"`
	Updates   []OrderUpdate `json:"updates,omitempty"`
	Trades    []Trade       `json:"trades,omitempty"`
	Timestamp time.Time     `json:"timestamp"`
}

func NewEventID(orderID string, status OrderStatus) string {
	return fmt.Sprintf("%s-%s", orderID, status)
}

// NewSubmitExecution builds the execution for a processed submission. It
// returns nil for a submission rejected before reaching the book.
func NewSubmitExecution(o *orderbook.Order, res *orderbook.ProcessingResult, now time.Time) *Execution {
	terminal, ok := res.Terminal()
	if !ok || terminal.Reason == orderbook.FailureValidationError {
		return nil
	}

	row := newOrderRow(o, res, now)
	exec := &Execution{
		EventID:   NewEventID(o.ID, row.Status),
		Kind:      ExecutionSubmit,
		OrderID:   o.ID,
		Pair:      o.Pair.String(),
		Order:     row,
		Timestamp: now,
	}
	for _, e := range res.Entries {
		if e.Kind != orderbook.EntryTrade {
			continue
		}
		exec.Updates = append(exec.Updates, makerUpdate(e))
		exec.Trades = append(exec.Trades, newTradeRow(*e.Trade))
	}
	return exec
}

// NewCancelExecution builds the execution for a successful cancellation and
// nil for any other result.
func NewCancelExecution(res *orderbook.ProcessingResult, now time.Time) *Execution {
	terminal, ok := res.Terminal()
	if !ok || terminal.Kind != orderbook.EntryCancelled {
		return nil
	}
	return &Execution{
		EventID: NewEventID(res.OrderID, OrderStatusCancelled),
		Kind:    ExecutionCancel,
		OrderID: res.OrderID,
		Pair:    res.Pair.String(),
		Updates: []OrderUpdate{{
			OrderID:        res.OrderID,
			FillQuantity:   decimal.Zero,
			LeavesQuantity: decimal.Zero,
			Status:         OrderStatusCancelled,
		}},
		Timestamp: now,
	}
}
