package orderbook

import (
	"encoding/json"
	"errors"

	"github.com/shopspring/decimal"
)

type EntryKind string

const (
	EntryTrade           EntryKind = "trade"
	EntryAccepted        EntryKind = "accepted"
	EntryPartiallyFilled EntryKind = "partially_filled"
	EntryFilled          EntryKind = "filled"
	EntryCancelled       EntryKind = "cancelled"
	EntryFailed          EntryKind = "failed"
)

type FailureReason string

const (
	FailureNoLiquidity     FailureReason = "no_liquidity"
	FailureOrderNotFound   FailureReason = "order_not_found"
	FailureValidationError FailureReason = "validation_error"
)

const noteMarketRemainder = "remaining quantity cancelled, market orders never rest"

// Entry is one step of a ProcessingResult. Which fields are meaningful
// depends on Kind.
type Entry struct {
	Kind    EntryKind
	OrderID string

	// trade
	Trade          *Trade
	MakerLeavesQty decimal.Decimal

	// terminal
	FilledQty    decimal.Decimal
	LeavesQty    decimal.Decimal // resting in the book
	CancelledQty decimal.Decimal // discarded, never rests
	Rested       bool

	// failed
	Reason FailureReason
	Note   string
}

func (e Entry) Succeeded() bool {
	return e.Kind != EntryFailed
}

func (e Entry) terminal() bool {
	return e.Kind != EntryTrade
}

// Err maps a failed entry back to its sentinel error.
func (e Entry) Err() error {
	if e.Kind != EntryFailed {
		return nil
	}
	switch e.Reason {
	case FailureNoLiquidity:
		return ErrNoLiquidity
	case FailureOrderNotFound:
		return ErrOrderNotFound
	}
	if e.Note != "" {
		return errors.New(e.Note)
	}
	return errors.New(string(e.Reason))
}

func (e Entry) MarshalJSON() ([]byte, error) {
	type wire struct {
		Kind           EntryKind        `json:"kind"`
		OrderID        string           `json:"order_id,omitempty"`
		Trade          *Trade           `json:"trade,omitempty"`
		MakerLeavesQty *decimal.Decimal `json:"maker_leaves_qty,omitempty"`
		FilledQty      *decimal.Decimal `json:"filled_qty,omitempty"`
		LeavesQty      *decimal.Decimal `json:"leaves_qty,omitempty"`
		CancelledQty   *decimal.Decimal `json:"cancelled_qty,omitempty"`
		Rested         bool             `json:"rested,omitempty"`
		Reason         FailureReason    `json:"reason,omitempty"`
		Note           string           `json:"note,omitempty"`
	}
	w := wire{
		Kind:    e.Kind,
		OrderID: e.OrderID,
		Trade:   e.Trade,
		Rested:  e.Rested,
		Reason:  e.Reason,
		Note:    e.Note,
	}
	if e.Kind == EntryTrade {
		w.MakerLeavesQty = &e.MakerLeavesQty
	} else {
		w.FilledQty = nonZero(e.FilledQty)
		w.LeavesQty = nonZero(e.LeavesQty)
		w.CancelledQty = nonZero(e.CancelledQty)
	}
	return json.Marshal(w)
}

func nonZero(d decimal.Decimal) *decimal.Decimal {
	if d.IsZero() {
		return nil
	}
	return &d
}

// ProcessingResult is the ordered trace of one operation against a book:
// zero or more trade entries followed by exactly one terminal entry.
type ProcessingResult struct {
	OrderID string          `json:"order_id"`
	Pair    Pair            `json:"pair"`
	Side    Side            `json:"side,omitempty"`
	Type    OrderType       `json:"type,omitempty"`
	OrigQty decimal.Decimal `json:"orig_qty"`
	Entries []Entry         `json:"entries"`
}

func newProcessingResult(order *Order) *ProcessingResult {
	return &ProcessingResult{
		OrderID: order.ID,
		Pair:    order.Pair,
		Side:    order.Side,
		Type:    order.Type,
		OrigQty: order.OrigQty,
	}
}

// Rejected builds the trace for an order refused before it reached a book.
// order may be nil when the request could not be turned into one.
func Rejected(order *Order, err error) *ProcessingResult {
	res := &ProcessingResult{}
	if order != nil {
		res = newProcessingResult(order)
	}
	res.Entries = append(res.Entries, Entry{
		Kind:    EntryFailed,
		OrderID: res.OrderID,
		Reason:  FailureValidationError,
		Note:    err.Error(),
	})
	return res
}

func (r *ProcessingResult) addTrade(trade Trade, makerLeaves decimal.Decimal) {
	t := trade
	r.Entries = append(r.Entries, Entry{
		Kind:           EntryTrade,
		OrderID:        trade.TakerOrderID,
		Trade:          &t,
		MakerLeavesQty: makerLeaves,
	})
}

func (r *ProcessingResult) finish(e Entry) {
	e.OrderID = r.OrderID
	r.Entries = append(r.Entries, e)
}

// Terminal returns the final entry. ok is false for an empty trace.
func (r *ProcessingResult) Terminal() (Entry, bool) {
	if len(r.Entries) == 0 {
		return Entry{}, false
	}
	return r.Entries[len(r.Entries)-1], true
}

func (r *ProcessingResult) Succeeded() bool {
	e, ok := r.Terminal()
	return ok && e.Succeeded()
}

func (r *ProcessingResult) Trades() []Trade {
	var trades []Trade
	for _, e := range r.Entries {
		if e.Kind == EntryTrade {
			trades = append(trades, *e.Trade)
		}
	}
	return trades
}

func (r *ProcessingResult) FilledQty() decimal.Decimal {
	filled := decimal.Zero
	for _, e := range r.Entries {
		if e.Kind == EntryTrade {
			filled = filled.Add(e.Trade.Qty)
		}
	}
	return filled
}

// LeavesQty is what the order left resting in the book.
func (r *ProcessingResult) LeavesQty() decimal.Decimal {
	e, ok := r.Terminal()
	if !ok {
		return decimal.Zero
	}
	return e.LeavesQty
}

func (r *ProcessingResult) CancelledQty() decimal.Decimal {
	e, ok := r.Terminal()
	if !ok {
		return decimal.Zero
	}
	return e.CancelledQty
}
