package search

import (
	"time"

	"github.com/eugenenazirov/batch-picker/internal/frontier"
)

// Outcome is the terminal status of a search.
type Outcome int

const (
	// Exhausted means every batch was processed without an exact match inside the window.
	Exhausted Outcome = iota
	// Found means a selection summing exactly to the target was reached.
	Found
)

func (o Outcome) String() string {
	switch o {
	case Found:
		return "found"
	case Exhausted:
		return "exhausted"
	default:
		return "unknown"
	}
}

// Stats are the counters and timings accumulated by one search.
type Stats struct {
	Batches      int           `json:"batches"`
	Expansions   int64         `json:"expansions"`
	Insertions   int64         `json:"insertions"`
	Prunes       int           `json:"prunes"`
	Pruned       int64         `json:"pruned"`
	PeakFrontier int           `json:"peakFrontier"`
	ExpandTime   time.Duration `json:"expandTime"`
	PruneTime    time.Duration `json:"pruneTime"`
	Elapsed      time.Duration `json:"elapsed"`
}

// Result describes how a search ended.
type Result struct {
	Outcome Outcome
	Target  int
	Window  int
	// Selection is set only when Outcome is Found, in batch processing order.
	Selection []frontier.Pick
	// BestQuantity is the target when found, otherwise the largest quantity still held.
	BestQuantity int
	Stats        Stats
}

// Found reports whether the search matched the target exactly.
func (r Result) Found() bool {
	return r.Outcome == Found
}

// StepInfo summarises one processed batch.
type StepInfo struct {
	BatchID      int
	MaxBefore    int
	MaxAfter     int
	FirstCount   int
	LastCount    int
	Pruned       int
	FrontierSize int
}
