// Package normalizer turns loosely typed order requests into validated
// orderbook orders. Floats are converted to exact decimals here and any loss
// of precision is an error.
package normalizer

import (
	"errors"
	"math"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/joripage/matchbook/pkg/orderbook"
)

const (
	DefaultMaxScale = 8

	// maxExact is the largest magnitude a float64 carries without gaps.
	maxExact = 1 << 53
)

type OrderRequest struct {
	OrderAsset string   `json:"order_asset" validate:"required,min=3,max=7"`
	PriceAsset string   `json:"price_asset" validate:"required,min=3,max=7"`
	Side       string   `json:"side" validate:"required"`
	Price      *float64 `json:"price,omitempty"`
	Qty        float64  `json:"qty"`
}

type Config struct {
	// MaxScale bounds the fractional digits of prices and quantities.
	MaxScale int32 `yaml:"max_scale"`
}

type Normalizer struct {
	validate *validator.Validate
	maxScale int32

	newID func() string
	now   func() time.Time
}

func New(cfg Config) *Normalizer {
	if cfg.MaxScale <= 0 {
		cfg.MaxScale = DefaultMaxScale
	}
	return &Normalizer{
		validate: validator.New(),
		maxScale: cfg.MaxScale,
		newID:    uuid.NewString,
		now:      time.Now,
	}
}

// Normalize validates req and builds the order submitted by owner. The
// order type is limit when a price is given and market otherwise.
func (n *Normalizer) Normalize(owner string, req *OrderRequest) (*orderbook.Order, error) {
	if strings.TrimSpace(owner) == "" {
		return nil, ErrMissingOwner
	}
	if err := n.validate.Struct(req); err != nil {
		return nil, translate(req, err)
	}

	pair, err := n.pair(req)
	if err != nil {
		return nil, err
	}
	side, err := ParseSide(req.Side)
	if err != nil {
		return nil, err
	}
	qty, err := n.toDecimal("qty", req.Qty)
	if err != nil {
		return nil, err
	}

	order := &orderbook.Order{
		ID:        n.newID(),
		Owner:     owner,
		Pair:      pair,
		Side:      side,
		Type:      orderbook.Market,
		OrigQty:   qty,
		Qty:       qty,
		CreatedAt: n.now(),
	}
	if req.Price != nil {
		price, err := n.toDecimal("price", *req.Price)
		if err != nil {
			return nil, err
		}
		order.Type = orderbook.Limit
		order.Price = decimal.NullDecimal{Decimal: price, Valid: true}
	}
	return order, nil
}

func (n *Normalizer) pair(req *OrderRequest) (orderbook.Pair, error) {
	base, err := orderbook.ParseAsset(req.OrderAsset)
	if err != nil {
		return orderbook.Pair{}, &InvalidAssetError{Asset: req.OrderAsset}
	}
	quote, err := orderbook.ParseAsset(req.PriceAsset)
	if err != nil {
		return orderbook.Pair{}, &InvalidAssetError{Asset: req.PriceAsset}
	}
	if base == quote {
		return orderbook.Pair{}, &InvalidAssetError{Asset: req.PriceAsset}
	}
	return orderbook.NewPair(base, quote), nil
}

// ParseSide accepts "bid" or "ask" in any case.
func ParseSide(s string) (orderbook.Side, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case string(orderbook.Bid):
		return orderbook.Bid, nil
	case string(orderbook.Ask):
		return orderbook.Ask, nil
	}
	return "", &InvalidSideError{Side: s}
}

func (n *Normalizer) toDecimal(field string, f float64) (decimal.Decimal, error) {
	fail := func(reason string) (decimal.Decimal, error) {
		return decimal.Zero, &NumericConversionError{Field: field, Value: f, Reason: reason}
	}

	switch {
	case math.IsNaN(f):
		return fail("not a number")
	case math.IsInf(f, 0):
		return fail("infinite")
	case f < 0:
		return fail("negative")
	case f == 0:
		return fail("must be positive")
	case f > maxExact:
		return fail("too large to represent exactly")
	}

	d := decimal.NewFromFloat(f)
	if d.Exponent() < -n.maxScale {
		return fail("too many decimal places")
	}
	if d.InexactFloat64() != f {
		return fail("not exactly representable")
	}
	return d, nil
}

// translate maps struct tag failures onto the typed errors callers match on.
func translate(req *OrderRequest, err error) error {
	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) || len(fieldErrs) == 0 {
		return err
	}
	switch fieldErrs[0].StructField() {
	case "OrderAsset":
		return &InvalidAssetError{Asset: req.OrderAsset}
	case "PriceAsset":
		return &InvalidAssetError{Asset: req.PriceAsset}
	case "Side":
		return &InvalidSideError{Side: req.Side}
	}
	return err
}
