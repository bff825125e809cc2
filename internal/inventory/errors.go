package inventory

import "errors"

var (
	// ErrInvalidBatch is returned when a batch has a non-positive unit size or unit count,
	// or when its quantity does not fit in an int.
	ErrInvalidBatch = errors.New("batch unit size and unit count must be positive integers")
	// ErrUnknownBatch is returned when a batch id is outside the catalog.
	ErrUnknownBatch = errors.New("batch id is not part of the catalog")
)
