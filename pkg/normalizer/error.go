package normalizer

import (
	"errors"
	"fmt"
)

var ErrMissingOwner = errors.New("order owner is required")

type InvalidAssetError struct {
	Asset string
}

func (e *InvalidAssetError) Error() string {
	return fmt.Sprintf("invalid asset: %s", e.Asset)
}

type InvalidSideError struct {
	Side string
}

func (e *InvalidSideError) Error() string {
	return "side must be bid or ask"
}

// NumericConversionError reports a price or quantity that cannot be carried
// as an exact positive decimal.
type NumericConversionError struct {
	Field  string
	Value  float64
	Reason string
}

func (e *NumericConversionError) Error() string {
	return fmt.Sprintf("invalid %s %v: %s", e.Field, e.Value, e.Reason)
}

// IsValidationError reports whether err was produced by Normalize.
func IsValidationError(err error) bool {
	var (
		assetErr *InvalidAssetError
		sideErr  *InvalidSideError
		numErr   *NumericConversionError
	)
	return errors.As(err, &assetErr) ||
		errors.As(err, &sideErr) ||
		errors.As(err, &numErr) ||
		errors.Is(err, ErrMissingOwner)
}
