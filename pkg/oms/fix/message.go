package fixgateway

import (
	"errors"
	"strings"

	"github.com/quickfixgo/enum"
	"github.com/quickfixgo/field"
	"github.com/quickfixgo/fix44/businessmessagereject"
	"github.com/quickfixgo/fix44/executionreport"
	"github.com/quickfixgo/quickfix"
	"github.com/quickfixgo/tag"
	"github.com/shopspring/decimal"

	"github.com/joripage/matchbook/pkg/normalizer"
	"github.com/joripage/matchbook/pkg/oms/model"
	"github.com/joripage/matchbook/pkg/orderbook"
)

const reportScale = 8

var errUnsupportedOrdType = errors.New("only LIMIT and MARKET orders are supported")

type outbound struct {
	sessionID quickfix.SessionID
	report    executionreport.ExecutionReport
}

// toOrderRequest maps a NewOrderSingle onto the normalizer's input. Sides
// other than BUY and SELL pass through untouched so the normalizer rejects
// them.
func toOrderRequest(m *NewOrderSingle) (*normalizer.OrderRequest, error) {
	base, quote, _ := strings.Cut(m.Symbol, "/")
	req := &normalizer.OrderRequest{
		OrderAsset: base,
		PriceAsset: quote,
		Side:       fixSide(m.Side),
		Qty:        m.OrderQty.InexactFloat64(),
	}
	switch m.OrdType {
	case enum.OrdType_LIMIT:
		price := m.Price.InexactFloat64()
		req.Price = &price
	case enum.OrdType_MARKET:
	default:
		return nil, errUnsupportedOrdType
	}
	return req, nil
}

func fixSide(s enum.Side) string {
	switch s {
	case enum.Side_BUY:
		return string(orderbook.Bid)
	case enum.Side_SELL:
		return string(orderbook.Ask)
	}
	return string(s)
}

func newRoute(m *NewOrderSingle) *orderRoute {
	return &orderRoute{
		sessionID: m.SessionID,
		clOrdID:   m.ClOrdID,
		account:   m.Account,
		symbol:    m.Symbol,
		side:      m.Side,
		ordType:   m.OrdType,
		orderQty:  m.OrderQty,
		price:     m.Price,
	}
}

// buildReports turns one processing trace into execution reports for the
// taker and every maker it touched. makers returns the route of a resting
// order, or false for an order that did not come through this gateway.
func buildReports(orderID string, taker *orderRoute, res *orderbook.ProcessingResult, makers func(string) (*orderRoute, bool)) []outbound {
	var out []outbound
	for _, e := range res.Entries {
		switch e.Kind {
		case orderbook.EntryTrade:
			t := e.Trade
			execID := model.TradeID(t.TakerOrderID, t.Seq)

			taker.fill(t.Price, t.Qty)
			status := enum.OrdStatus_PARTIALLY_FILLED
			if taker.leaves().IsZero() {
				status = enum.OrdStatus_FILLED
			}
			out = append(out, outbound{taker.sessionID, tradeReport(orderID, execID, taker, status, t)})

			maker, ok := makers(t.MakerOrderID)
			if !ok {
				continue
			}
			maker.fill(t.Price, t.Qty)
			status = enum.OrdStatus_PARTIALLY_FILLED
			if e.MakerLeavesQty.IsZero() {
				status = enum.OrdStatus_FILLED
			}
			out = append(out, outbound{maker.sessionID, tradeReport(t.MakerOrderID, execID, maker, status, t)})

		case orderbook.EntryAccepted:
			r := newReport(orderID, orderID+"-new", enum.ExecType_NEW, enum.OrdStatus_NEW, taker, taker.leaves())
			out = append(out, outbound{taker.sessionID, r})

		case orderbook.EntryPartiallyFilled:
			if e.Rested {
				continue
			}
			r := newReport(orderID, orderID+"-canceled", enum.ExecType_CANCELED, enum.OrdStatus_CANCELED, taker, decimal.Zero)
			r.SetText(e.Note)
			out = append(out, outbound{taker.sessionID, r})

		case orderbook.EntryFailed:
			out = append(out, outbound{taker.sessionID, rejectReport(orderID, taker, failureText(e))})
		}
	}
	return out
}

func failureText(e orderbook.Entry) string {
	if e.Note != "" {
		return e.Note
	}
	return strings.ReplaceAll(string(e.Reason), "_", " ")
}

func rejectReport(orderID string, route *orderRoute, text string) executionreport.ExecutionReport {
	if orderID == "" {
		orderID = "NONE"
	}
	r := newReport(orderID, route.clOrdID+"-rejected", enum.ExecType_REJECTED, enum.OrdStatus_REJECTED, route, decimal.Zero)
	r.SetText(text)
	return r
}

func tradeReport(orderID, execID string, route *orderRoute, status enum.OrdStatus, t *orderbook.Trade) executionreport.ExecutionReport {
	r := newReport(orderID, execID, enum.ExecType_TRADE, status, route, route.leaves())
	r.SetLastQty(t.Qty, reportScale)
	r.SetLastPx(t.Price, reportScale)
	r.SetTransactTime(t.Timestamp)
	return r
}

func newReport(orderID, execID string, execType enum.ExecType, status enum.OrdStatus, route *orderRoute, leaves decimal.Decimal) executionreport.ExecutionReport {
	r := executionreport.New(
		field.NewOrderID(orderID),
		field.NewExecID(execID),
		field.NewExecType(execType),
		field.NewOrdStatus(status),
		field.NewSide(route.side),
		field.NewLeavesQty(leaves, reportScale),
		field.NewCumQty(route.cumQty, reportScale),
		field.NewAvgPx(route.avgPx(), reportScale),
	)
	r.SetClOrdID(route.clOrdID)
	r.SetSymbol(route.symbol)
	r.SetOrderQty(route.orderQty, reportScale)
	r.SetOrdType(route.ordType)
	if route.ordType == enum.OrdType_LIMIT {
		r.SetPrice(route.price, reportScale)
	}
	if route.account != "" {
		r.SetAccount(route.account)
	}
	return r
}

// rejectMessage answers an application message the router could not handle.
func rejectMessage(msg *quickfix.Message, reject quickfix.MessageRejectError) businessmessagereject.BusinessMessageReject {
	msgType, _ := msg.Header.GetString(tag.MsgType)
	r := businessmessagereject.New(
		field.NewRefMsgType(msgType),
		field.NewBusinessRejectReason(enum.BusinessRejectReason_UNSUPPORTED_MESSAGE_TYPE),
	)
	if seqNum, err := msg.Header.GetInt(tag.MsgSeqNum); err == nil {
		r.SetRefSeqNum(seqNum)
	}
	r.SetText(reject.Error())
	return r
}
