package riskrule

import (
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/joripage/matchbook/pkg/orderbook"
)

// PriceBand bounds limit prices; a zero bound is open.
type PriceBand struct {
	Floor decimal.Decimal `yaml:"floor"`
	Ceil  decimal.Decimal `yaml:"ceil"`
}

type LimitPriceRule struct {
	bands map[string]PriceBand
}

func NewLimitPriceRule(bands map[string]PriceBand) *LimitPriceRule {
	return &LimitPriceRule{bands: bands}
}

func (r *LimitPriceRule) Check(order *orderbook.Order) error {
	if !order.Price.Valid {
		return nil
	}
	price := order.Price.Decimal
	band, ok := r.bands[order.Pair.String()]
	if !ok {
		return nil
	}
	if !band.Ceil.IsZero() && price.GreaterThan(band.Ceil) {
		return fmt.Errorf("%w: %s above %s", ErrPriceLimit, price, band.Ceil)
	}
	if !band.Floor.IsZero() && price.LessThan(band.Floor) {
		return fmt.Errorf("%w: %s below %s", ErrPriceLimit, price, band.Floor)
	}
	return nil
}
