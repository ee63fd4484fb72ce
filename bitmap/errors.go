package bitmap

import "errors"

var (
	// ErrAllocFailed is returned when an Allocator cannot provide storage.
	ErrAllocFailed = errors.New("bitmap: allocation failed")

	// ErrInvalidDimensions is returned for negative sizes or an unknown format.
	ErrInvalidDimensions = errors.New("bitmap: invalid dimensions")
)
