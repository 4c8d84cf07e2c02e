package fixgateway

import (
	"context"
	"testing"

	"github.com/quickfixgo/enum"
	"github.com/quickfixgo/fix44/executionreport"
	"github.com/quickfixgo/quickfix"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/joripage/matchbook/pkg/oms"
	"github.com/joripage/matchbook/pkg/orderbook"
)

func d(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func session(counterparty string) quickfix.SessionID {
	return quickfix.SessionID{BeginString: "FIX.4.4", SenderCompID: "MATCHBOOK", TargetCompID: counterparty}
}

func nos(counterparty, clOrdID string, side enum.Side, ordType enum.OrdType, price, qty string) *NewOrderSingle {
	m := &NewOrderSingle{
		SessionID: session(counterparty),
		ClOrdID:   clOrdID,
		Symbol:    "BTC/USD",
		Side:      side,
		OrdType:   ordType,
		OrderQty:  d(qty),
	}
	if price != "" {
		m.Price = d(price)
	}
	return m
}

type sent struct {
	sessionID quickfix.SessionID
	report    executionreport.ExecutionReport
}

func newTestGateway() (*FixGateway, *[]sent) {
	service := oms.NewOMS(oms.Config{}, orderbook.NewOrderBookManager(nil), nil)
	g := NewFixGateway(&FixGatewayConfig{}, service, nil)
	var out []sent
	g.send = func(m quickfix.Messagable, sessionID quickfix.SessionID) error {
		out = append(out, sent{sessionID, m.(executionreport.ExecutionReport)})
		return nil
	}
	return g, &out
}

func status(t *testing.T, r executionreport.ExecutionReport) (enum.ExecType, enum.OrdStatus) {
	t.Helper()
	execType, err := r.GetExecType()
	require.Nil(t, err)
	ordStatus, err := r.GetOrdStatus()
	require.Nil(t, err)
	return execType, ordStatus
}

func TestToOrderRequest(t *testing.T) {
	req, err := toOrderRequest(nos("A", "1", enum.Side_BUY, enum.OrdType_LIMIT, "100.5", "2"))
	require.NoError(t, err)
	assert.Equal(t, "BTC", req.OrderAsset)
	assert.Equal(t, "USD", req.PriceAsset)
	assert.Equal(t, "bid", req.Side)
	require.NotNil(t, req.Price)
	assert.Equal(t, 100.5, *req.Price)
	assert.Equal(t, 2.0, req.Qty)

	req, err = toOrderRequest(nos("A", "2", enum.Side_SELL, enum.OrdType_MARKET, "100", "1"))
	require.NoError(t, err)
	assert.Equal(t, "ask", req.Side)
	assert.Nil(t, req.Price)

	_, err = toOrderRequest(nos("A", "3", enum.Side_BUY, enum.OrdType_STOP, "", "1"))
	assert.ErrorIs(t, err, errUnsupportedOrdType)
}

func TestAddOrderReportsBothSides(t *testing.T) {
	g, out := newTestGateway()
	ctx := context.Background()

	g.AddOrder(ctx, nos("MAKER", "m1", enum.Side_SELL, enum.OrdType_LIMIT, "100", "3"))
	require.Len(t, *out, 1)
	execType, ordStatus := status(t, (*out)[0].report)
	assert.Equal(t, enum.ExecType_NEW, execType)
	assert.Equal(t, enum.OrdStatus_NEW, ordStatus)

	*out = nil
	g.AddOrder(ctx, nos("TAKER", "t1", enum.Side_BUY, enum.OrdType_LIMIT, "100", "1"))
	require.Len(t, *out, 2)

	taker, maker := (*out)[0], (*out)[1]
	assert.Equal(t, "TAKER", taker.sessionID.TargetCompID)
	assert.Equal(t, "MAKER", maker.sessionID.TargetCompID)

	execType, ordStatus = status(t, taker.report)
	assert.Equal(t, enum.ExecType_TRADE, execType)
	assert.Equal(t, enum.OrdStatus_FILLED, ordStatus)

	_, ordStatus = status(t, maker.report)
	assert.Equal(t, enum.OrdStatus_PARTIALLY_FILLED, ordStatus)
	leaves, err := maker.report.GetLeavesQty()
	require.Nil(t, err)
	assert.True(t, leaves.Equal(d("2")))
	clOrdID, err := maker.report.GetClOrdID()
	require.Nil(t, err)
	assert.Equal(t, "m1", clOrdID)
}

func TestAddOrderForgetsFilledMakers(t *testing.T) {
	g, out := newTestGateway()
	ctx := context.Background()

	g.AddOrder(ctx, nos("MAKER", "m1", enum.Side_SELL, enum.OrdType_LIMIT, "100", "1"))
	g.AddOrder(ctx, nos("TAKER", "t1", enum.Side_BUY, enum.OrdType_LIMIT, "100", "1"))

	count := 0
	g.routes.Range(func(_, _ any) bool {
		count++
		return true
	})
	assert.Zero(t, count)
	assert.Len(t, *out, 3)
}

func TestMarketRemainderIsCanceled(t *testing.T) {
	g, out := newTestGateway()
	ctx := context.Background()

	g.AddOrder(ctx, nos("MAKER", "m1", enum.Side_SELL, enum.OrdType_LIMIT, "100", "1"))
	*out = nil
	g.AddOrder(ctx, nos("TAKER", "t1", enum.Side_BUY, enum.OrdType_MARKET, "", "3"))

	require.Len(t, *out, 3)
	last := (*out)[2].report
	execType, ordStatus := status(t, last)
	assert.Equal(t, enum.ExecType_CANCELED, execType)
	assert.Equal(t, enum.OrdStatus_CANCELED, ordStatus)
	text, err := last.GetText()
	require.Nil(t, err)
	assert.NotEmpty(t, text)
}

func TestRejections(t *testing.T) {
	g, out := newTestGateway()
	ctx := context.Background()

	g.AddOrder(ctx, &NewOrderSingle{
		SessionID: session("A"),
		ClOrdID:   "bad",
		Symbol:    "DOGE/USD",
		Side:      enum.Side_BUY,
		OrdType:   enum.OrdType_LIMIT,
		Price:     d("1"),
		OrderQty:  d("1"),
	})
	g.AddOrder(ctx, nos("A", "nl", enum.Side_BUY, enum.OrdType_MARKET, "", "1"))
	g.AddOrder(ctx, nos("A", "stop", enum.Side_BUY, enum.OrdType_STOP, "", "1"))

	require.Len(t, *out, 3)
	for i, want := range []string{"invalid asset: DOGE", "no liquidity", errUnsupportedOrdType.Error()} {
		execType, ordStatus := status(t, (*out)[i].report)
		assert.Equal(t, enum.ExecType_REJECTED, execType)
		assert.Equal(t, enum.OrdStatus_REJECTED, ordStatus)
		text, err := (*out)[i].report.GetText()
		require.Nil(t, err)
		assert.Equal(t, want, text)
	}
}
