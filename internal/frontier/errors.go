package frontier

import "errors"

var (
	// ErrEmptyFrontier is returned when the frontier is queried with no members. It can only
	// happen if pruning removed the maximum, which is a bug.
	ErrEmptyFrontier = errors.New("frontier has no members")
	// ErrArenaFull is returned when a selection node cannot be addressed by a Handle.
	ErrArenaFull = errors.New("selection arena is full")
)
