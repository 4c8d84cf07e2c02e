package orderbook

import (
	"github.com/shopspring/decimal"
)

// process matches order against the opposite side at maker prices, walking
// levels best to worst and each level oldest first. A limit remainder rests
// as a new order; a market remainder is discarded. Caller holds mu.
func (ob *orderBook) process(order *Order) *ProcessingResult {
	res := newProcessingResult(order)
	counter := ob.sideOf(order.Side.Opposite())

	for order.Qty.IsPositive() {
		level := counter.best()
		if level == nil || !order.crosses(level.Price) {
			break
		}

		maker := level.Front()
		qty := decimal.Min(order.Qty, maker.Qty)
		order.Qty = order.Qty.Sub(qty)
		makerLeaves := level.fillFront(qty)

		ob.tradeSeq++
		res.addTrade(Trade{
			Seq:          ob.tradeSeq,
			Pair:         ob.pair,
			MakerOrderID: maker.ID,
			TakerOrderID: order.ID,
			TakerSide:    order.Side,
			Price:        level.Price,
			Qty:          qty,
			Timestamp:    ob.now(),
		}, makerLeaves)

		if makerLeaves.IsZero() {
			ob.removeFrontOf(counter, level)
		}
	}

	filled := order.FilledQty()
	switch order.Type {
	case Limit:
		if !order.Qty.IsPositive() {
			res.finish(Entry{Kind: EntryFilled, FilledQty: filled})
			break
		}
		// rest a copy so the caller's order is never shared with the book
		rest := *order
		ob.insert(&rest)
		order.Sequence = rest.Sequence
		if filled.IsZero() {
			res.finish(Entry{Kind: EntryAccepted, LeavesQty: rest.Qty, Rested: true})
		} else {
			res.finish(Entry{Kind: EntryPartiallyFilled, FilledQty: filled, LeavesQty: rest.Qty, Rested: true})
		}
	case Market:
		switch {
		case !order.Qty.IsPositive():
			res.finish(Entry{Kind: EntryFilled, FilledQty: filled})
		case filled.IsZero():
			res.finish(Entry{Kind: EntryFailed, Reason: FailureNoLiquidity, CancelledQty: order.Qty})
		default:
			res.finish(Entry{
				Kind:         EntryPartiallyFilled,
				FilledQty:    filled,
				CancelledQty: order.Qty,
				Note:         noteMarketRemainder,
			})
		}
	}
	return res
}
