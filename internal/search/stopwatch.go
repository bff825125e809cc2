package search

import "time"

// Stopwatch measures time elapsed since its last reset.
type Stopwatch interface {
	Elapsed() time.Duration
	Reset()
}

type wallStopwatch struct {
	start time.Time
}

// NewStopwatch returns a Stopwatch backed by the monotonic wall clock, started now.
func NewStopwatch() Stopwatch {
	return &wallStopwatch{start: time.Now()}
}

func (s *wallStopwatch) Elapsed() time.Duration {
	return time.Since(s.start)
}

func (s *wallStopwatch) Reset() {
	s.start = time.Now()
}
