package orderbook

import "errors"

var (
	ErrOrderNotFound = errors.New("order not found")
	ErrNoLiquidity   = errors.New("no liquidity")
	ErrUnknownAsset  = errors.New("invalid asset")
	ErrInvalidPair   = errors.New("invalid asset pair")

	// ErrDuplicateOrderID rejects an order whose id is already resting.
	ErrDuplicateOrderID = errors.New("duplicate order id")

	errInvalidOrderPrice = errors.New("invalid order price")
	errInvalidOrderQty   = errors.New("invalid order quantity")
	errInvalidSide       = errors.New("invalid order side")
	errInvalidOrderType  = errors.New("invalid order type")

	// ErrInvariantViolation marks a defect in the book itself. It is only
	// ever raised through panic.
	ErrInvariantViolation = errors.New("order book invariant violated")
)
