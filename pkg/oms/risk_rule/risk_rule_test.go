package riskrule

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"gopkg.in/yaml.v3"

	"github.com/joripage/matchbook/pkg/orderbook"
)

var btcUSD = orderbook.NewPair(orderbook.BTC, orderbook.USD)

func limit(price string) *orderbook.Order {
	return orderbook.NewLimitOrder("o", "u", btcUSD, orderbook.Bid, decimal.RequireFromString(price), decimal.NewFromInt(1))
}

func TestRulesFromYAML(t *testing.T) {
	var cfg Config
	err := yaml.Unmarshal([]byte(`
price_bands:
  BTC/USD: {floor: "100", ceil: "200"}
tick_sizes:
  BTC/USD:
    - {max_price: "150", step: "0.5"}
    - {step: "1"}
`), &cfg)
	assert.NoError(t, err)

	rules := cfg.Rules()
	assert.Len(t, rules, 2)

	check := func(price string) error {
		for _, r := range rules {
			if err := r.Check(limit(price)); err != nil {
				return err
			}
		}
		return nil
	}

	assert.NoError(t, check("120.5"))
	assert.NoError(t, check("160"))
	assert.ErrorIs(t, check("160.5"), ErrTickSize)
	assert.ErrorIs(t, check("120.25"), ErrTickSize)
	assert.ErrorIs(t, check("99.5"), ErrPriceLimit)
	assert.ErrorIs(t, check("201"), ErrPriceLimit)
}

func TestRulesIgnoreMarketOrdersAndOtherPairs(t *testing.T) {
	rule := NewLimitPriceRule(map[string]PriceBand{"BTC/USD": {Ceil: decimal.NewFromInt(1)}})

	market := orderbook.NewMarketOrder("m", "u", btcUSD, orderbook.Ask, decimal.NewFromInt(1))
	assert.NoError(t, rule.Check(market))

	other := orderbook.NewLimitOrder("e", "u", orderbook.NewPair(orderbook.ETH, orderbook.USD), orderbook.Bid, decimal.NewFromInt(5), decimal.NewFromInt(1))
	assert.NoError(t, rule.Check(other))

	var nilCfg *Config
	assert.Empty(t, nilCfg.Rules())
}
