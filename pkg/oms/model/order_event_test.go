package model

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/joripage/matchbook/pkg/orderbook"
)

var (
	btcUSD = orderbook.NewPair(orderbook.BTC, orderbook.USD)
	now    = time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
)

func d(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func TestSubmitExecutionCarriesTradesAndMakerUpdates(t *testing.T) {
	books := orderbook.NewOrderBookManager(nil)
	books.ProcessOrder(orderbook.NewLimitOrder("11111111-1111-1111-1111-111111111111", "maker1", btcUSD, orderbook.Ask, d("100"), d("1")))
	books.ProcessOrder(orderbook.NewLimitOrder("22222222-2222-2222-2222-222222222222", "maker2", btcUSD, orderbook.Ask, d("101"), d("3")))

	taker := orderbook.NewLimitOrder("33333333-3333-3333-3333-333333333333", "taker", btcUSD, orderbook.Bid, d("101"), d("2"))
	res := books.ProcessOrder(taker)

	exec := NewSubmitExecution(taker, res, now)
	require.NotNil(t, exec)

	assert.Equal(t, ExecutionSubmit, exec.Kind)
	assert.Equal(t, "33333333-3333-3333-3333-333333333333-filled", exec.EventID)
	assert.Equal(t, "BTC/USD", exec.Pair)

	row := exec.Order
	require.NotNil(t, row)
	assert.Equal(t, "taker", row.UserID)
	assert.Equal(t, "BTC", row.OrderAsset)
	assert.Equal(t, "USD", row.PriceAsset)
	assert.Equal(t, OrderStatusFilled, row.Status)
	assert.True(t, row.CumQuantity.Equal(d("2")))
	assert.True(t, row.LeavesQuantity.IsZero())

	require.Len(t, exec.Trades, 2)
	assert.Equal(t, TradeID(taker.ID, res.Trades()[0].Seq), exec.Trades[0].ID)
	assert.True(t, exec.Trades[1].Price.Equal(d("101")))

	require.Len(t, exec.Updates, 2)
	assert.Equal(t, OrderStatusFilled, exec.Updates[0].Status)
	assert.Equal(t, OrderStatusPartiallyFilled, exec.Updates[1].Status)
	assert.True(t, exec.Updates[1].LeavesQuantity.Equal(d("2")))
}

func TestSubmitExecutionStatuses(t *testing.T) {
	books := orderbook.NewOrderBookManager(nil)

	resting := orderbook.NewLimitOrder("a", "u", btcUSD, orderbook.Bid, d("90"), d("1"))
	assert.Equal(t, OrderStatusOpened, NewSubmitExecution(resting, books.ProcessOrder(resting), now).Order.Status)

	noLiquidity := orderbook.NewMarketOrder("b", "u", btcUSD, orderbook.Bid, d("1"))
	exec := NewSubmitExecution(noLiquidity, books.ProcessOrder(noLiquidity), now)
	assert.Equal(t, OrderStatusCancelled, exec.Order.Status)
	assert.False(t, exec.Order.Price.Valid)

	partialMarket := orderbook.NewMarketOrder("c", "u", btcUSD, orderbook.Ask, d("5"))
	exec = NewSubmitExecution(partialMarket, books.ProcessOrder(partialMarket), now)
	assert.Equal(t, OrderStatusCancelled, exec.Order.Status)
	assert.True(t, exec.Order.CumQuantity.Equal(d("1")))

	rejected := orderbook.NewLimitOrder("e", "u", btcUSD, orderbook.Bid, d("90"), d("0"))
	assert.Nil(t, NewSubmitExecution(rejected, books.ProcessOrder(rejected), now))
}

func TestCancelExecution(t *testing.T) {
	books := orderbook.NewOrderBookManager(nil)
	books.ProcessOrder(orderbook.NewLimitOrder("x", "u", btcUSD, orderbook.Bid, d("90"), d("1")))

	exec := NewCancelExecution(books.CancelOrder(btcUSD, "x"), now)
	require.NotNil(t, exec)
	assert.Equal(t, "x-cancelled", exec.EventID)
	require.Len(t, exec.Updates, 1)
	assert.Equal(t, OrderStatusCancelled, exec.Updates[0].Status)

	assert.Nil(t, NewCancelExecution(books.CancelOrder(btcUSD, "x"), now))
}

func TestTradeIDIsStable(t *testing.T) {
	assert.Equal(t, TradeID("o", 1), TradeID("o", 1))
	assert.NotEqual(t, TradeID("o", 1), TradeID("o", 2))
	assert.Len(t, TradeID("o", 1), 36)
}

func TestExecutionJSONRoundTrip(t *testing.T) {
	books := orderbook.NewOrderBookManager(nil)
	o := orderbook.NewLimitOrder("r", "u", btcUSD, orderbook.Bid, d("90.5"), d("1.25"))
	exec := NewSubmitExecution(o, books.ProcessOrder(o), now)

	b, err := json.Marshal(exec)
	require.NoError(t, err)

	var back Execution
	require.NoError(t, json.Unmarshal(b, &back))
	assert.Equal(t, exec.EventID, back.EventID)
	assert.True(t, back.Order.Price.Valid)
	assert.True(t, back.Order.Price.Decimal.Equal(d("90.5")))
	assert.Equal(t, orderbook.Limit, back.Order.OrderType)
}

func TestOrderApplyIsReplaySafe(t *testing.T) {
	maker := &Order{ID: "m", Quantity: d("3"), CumQuantity: decimal.Zero, LeavesQuantity: d("3"), Status: OrderStatusOpened}
	first := OrderUpdate{OrderID: "m", FillQuantity: d("1"), LeavesQuantity: d("2"), Status: OrderStatusPartiallyFilled}
	second := OrderUpdate{OrderID: "m", FillQuantity: d("1"), LeavesQuantity: d("1"), Status: OrderStatusPartiallyFilled}

	for _, u := range []OrderUpdate{first, second, first, second} {
		maker.Apply(u)
	}
	assert.True(t, maker.CumQuantity.Equal(d("2")), "cum %s", maker.CumQuantity)
	assert.True(t, maker.LeavesQuantity.Equal(d("1")))
	assert.Equal(t, OrderStatusPartiallyFilled, maker.Status)

	assert.True(t, maker.Apply(OrderUpdate{OrderID: "m", LeavesQuantity: decimal.Zero, Status: OrderStatusCancelled}))
	assert.True(t, maker.CumQuantity.Equal(d("2")), "cancel keeps what traded")
	assert.False(t, maker.Apply(second), "final order takes no updates")
}
