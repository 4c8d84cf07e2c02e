package riskrule

import (
	"errors"

	"github.com/joripage/matchbook/pkg/orderbook"
)

var (
	ErrPriceLimit = errors.New("price limit violation")
	ErrTickSize   = errors.New("invalid tick size")
)

// RiskRule is checked after an order is normalized and before it reaches
// its book. Market orders carry no price and pass price rules.
type RiskRule interface {
	Check(order *orderbook.Order) error
}

// Config holds per pair rules keyed by "BASE/QUOTE".
type Config struct {
	PriceBands map[string]PriceBand  `yaml:"price_bands"`
	TickSizes  map[string][]TickSize `yaml:"tick_sizes"`
}

// Rules builds the configured rules, skipping empty sections.
func (c *Config) Rules() []RiskRule {
	if c == nil {
		return nil
	}
	var rules []RiskRule
	if len(c.PriceBands) > 0 {
		rules = append(rules, NewLimitPriceRule(c.PriceBands))
	}
	if len(c.TickSizes) > 0 {
		rules = append(rules, NewTickSizeRule(c.TickSizes))
	}
	return rules
}
