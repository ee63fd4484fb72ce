package discardable

import "errors"

var (
	// ErrInvalidSize is returned by Pool.Create for negative sizes.
	ErrInvalidSize = errors.New("discardable: invalid size")

	// ErrClosed is returned by Pool.Create after the pool was closed.
	ErrClosed = errors.New("discardable: pool closed")
)
