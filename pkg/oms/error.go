package oms

import "errors"

var (
	// ErrRecordFailed wraps recorder errors. The book has already applied the
	// operation when it is returned.
	ErrRecordFailed = errors.New("record execution failed")

	errNilRequest = errors.New("nil order request")
)
