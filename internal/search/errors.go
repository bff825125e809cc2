package search

import "errors"

var (
	// ErrInvalidTarget is returned when the target is not positive or exceeds the catalog supply.
	ErrInvalidTarget = errors.New("target must be positive and no larger than the available quantity")
	// ErrInvalidWindow is returned when the pruning window is negative.
	ErrInvalidWindow = errors.New("window must be a non-negative integer")
	// ErrCanceled is returned when the context ends between two batch steps.
	ErrCanceled = errors.New("search canceled")
)
