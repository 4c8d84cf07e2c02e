package riskrule

import (
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/joripage/matchbook/pkg/orderbook"
)

// TickSize applies Step to prices up to MaxPrice. Tiers are checked in
// order; a zero MaxPrice means no upper bound.
type TickSize struct {
	MaxPrice decimal.Decimal `yaml:"max_price"`
	Step     decimal.Decimal `yaml:"step"`
}

type TickSizeRule struct {
	tiers map[string][]TickSize
}

func NewTickSizeRule(tiers map[string][]TickSize) *TickSizeRule {
	return &TickSizeRule{tiers: tiers}
}

func (r *TickSizeRule) Check(order *orderbook.Order) error {
	if !order.Price.Valid {
		return nil
	}
	price := order.Price.Decimal
	tiers, ok := r.tiers[order.Pair.String()]
	if !ok { // no config -> no rule
		return nil
	}

	for _, tier := range tiers {
		if !tier.MaxPrice.IsZero() && price.GreaterThan(tier.MaxPrice) {
			continue
		}
		if tier.Step.IsPositive() && !price.Mod(tier.Step).IsZero() {
			return fmt.Errorf("%w: %s is not a multiple of %s", ErrTickSize, price, tier.Step)
		}
		return nil
	}
	return nil
}
