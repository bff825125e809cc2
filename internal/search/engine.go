package search

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/eugenenazirov/batch-picker/internal/frontier"
	"github.com/eugenenazirov/batch-picker/internal/inventory"
)

// DefaultWindow is the pruning window used when callers have no better value.
const DefaultWindow = 500

// Engine runs frontier searches. It holds no per-search state and is safe for
// concurrent use.
type Engine struct {
	logger       *zap.Logger
	newStopwatch func() Stopwatch
	onStep       func(StepInfo)
}

// Option configures an Engine.
type Option func(*Engine)

// WithLogger sets the logger used for progress and outcome messages.
func WithLogger(logger *zap.Logger) Option {
	return func(e *Engine) {
		if logger != nil {
			e.logger = logger
		}
	}
}

// WithStopwatch overrides the time source, primarily for tests.
func WithStopwatch(factory func() Stopwatch) Option {
	return func(e *Engine) {
		if factory != nil {
			e.newStopwatch = factory
		}
	}
}

// WithStepHook registers fn to be called after every fully processed batch.
func WithStepHook(fn func(StepInfo)) Option {
	return func(e *Engine) {
		e.onStep = fn
	}
}

// New constructs an Engine.
func New(opts ...Option) *Engine {
	e := &Engine{
		logger:       zap.NewNop(),
		newStopwatch: NewStopwatch,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Search looks for a selection of package counts from catalog summing exactly to target.
// Batches are processed in catalog order and frontier members more than window below the
// best total are dropped after every batch. The context is only checked between batches.
func (e *Engine) Search(ctx context.Context, catalog *inventory.Catalog, target, window int) (Result, error) {
	if window < 0 {
		return Result{}, fmt.Errorf("window %d: %w", window, ErrInvalidWindow)
	}
	if target <= 0 || target > catalog.TotalQuantity() {
		return Result{}, fmt.Errorf("target %d with %d available: %w", target, catalog.TotalQuantity(), ErrInvalidTarget)
	}

	r := newRun(target, window)
	total := e.newStopwatch()
	phase := e.newStopwatch()

	for _, b := range catalog.Batches() {
		if err := ctx.Err(); err != nil {
			r.stats.Elapsed = total.Elapsed()
			res, _ := r.exhausted()
			return res, fmt.Errorf("%w after %d batches: %w", ErrCanceled, r.stats.Batches, err)
		}

		maxBefore, err := r.frontier.MaxQuantity()
		if err != nil {
			return Result{}, err
		}
		e.logger.Debug("processing batch",
			zap.Int("batch", b.ID),
			zap.Duration("elapsed", total.Elapsed()),
			zap.Int("current_max", maxBefore),
		)

		phase.Reset()
		hit, found, err := r.expand(b)
		r.stats.ExpandTime += phase.Elapsed()
		r.stats.Batches++
		if err != nil {
			return Result{}, err
		}
		if found {
			r.stats.Elapsed = total.Elapsed()
			res := r.found(hit)
			e.logger.Info("search finished",
				zap.Stringer("outcome", res.Outcome),
				zap.Int("target", target),
				zap.Int("batches", r.stats.Batches),
				zap.Int64("expansions", r.stats.Expansions),
				zap.Duration("elapsed", r.stats.Elapsed),
			)
			return res, nil
		}

		phase.Reset()
		pruned, err := r.prune()
		r.stats.PruneTime += phase.Elapsed()
		if err != nil {
			return Result{}, err
		}

		if e.onStep != nil {
			maxAfter, _ := r.frontier.MaxQuantity()
			lo, hi := candidateRange(b, maxBefore, target, window)
			e.onStep(StepInfo{
				BatchID:      b.ID,
				MaxBefore:    maxBefore,
				MaxAfter:     maxAfter,
				FirstCount:   lo,
				LastCount:    hi,
				Pruned:       pruned,
				FrontierSize: r.frontier.Len(),
			})
		}
	}

	r.stats.Elapsed = total.Elapsed()
	res, err := r.exhausted()
	if err != nil {
		return Result{}, err
	}
	e.logger.Info("search finished",
		zap.Stringer("outcome", res.Outcome),
		zap.Int("target", target),
		zap.Int("best_quantity", res.BestQuantity),
		zap.Int64("expansions", r.stats.Expansions),
		zap.Duration("elapsed", r.stats.Elapsed),
	)
	return res, nil
}

// candidateRange returns the inclusive range of package counts tried for b.
func candidateRange(b inventory.Batch, curMax, target, window int) (lo, hi int) {
	hi = target / b.UnitSize
	if target%b.UnitSize != 0 {
		hi++
	}
	hi = min(hi, b.UnitCount)
	lo = 1

	// Small counts of a batch larger than the window only produce totals the next prune
	// removes, unless the whole batch already overshoots the target.
	batchTotal := b.TotalQuantity()
	if batchTotal > window && curMax+batchTotal < target {
		lo = max(1, (batchTotal-window)/b.UnitSize)
	}
	return lo, hi
}

// run is the mutable state of one search.
type run struct {
	target   int
	window   int
	frontier *frontier.Frontier
	arena    *frontier.Arena
	scratch  []frontier.State
	stats    Stats
}

func newRun(target, window int) *run {
	return &run{
		target:   target,
		window:   window,
		frontier: frontier.New(),
		arena:    frontier.NewArena(64),
		stats:    Stats{PeakFrontier: 1},
	}
}

// expand folds batch b into the frontier. It returns the selection handle of an exact
// match when one is reached.
func (r *run) expand(b inventory.Batch) (frontier.Handle, bool, error) {
	curMax, err := r.frontier.MaxQuantity()
	if err != nil {
		return frontier.Root, false, err
	}
	lo, hi := candidateRange(b, curMax, r.target, r.window)
	if lo > hi {
		return frontier.Root, false, nil
	}

	// Every insertion is larger than the member it extends, so it would never be visited
	// by a live descending scan either.
	limit := min(curMax, r.target)
	r.scratch = r.scratch[:0]
	r.frontier.DescendFrom(r.target, func(s frontier.State) bool {
		if limit-s.Quantity > r.window {
			return false
		}
		r.scratch = append(r.scratch, s)
		return true
	})

	for _, member := range r.scratch {
		for count := lo; count <= hi; count++ {
			quantity := member.Quantity + count*b.UnitSize
			if quantity == r.target {
				h, err := r.arena.Extend(member.Selection, b.ID, count)
				if err != nil {
					return frontier.Root, false, err
				}
				return h, true, nil
			}

			r.stats.Expansions++
			if r.frontier.Contains(quantity) {
				continue
			}
			h, err := r.arena.Extend(member.Selection, b.ID, count)
			if err != nil {
				return frontier.Root, false, err
			}
			r.frontier.Insert(frontier.State{Quantity: quantity, Selection: h})
			r.stats.Insertions++
		}
	}

	r.stats.PeakFrontier = max(r.stats.PeakFrontier, r.frontier.Len())
	return frontier.Root, false, nil
}

func (r *run) prune() (int, error) {
	removed, err := r.frontier.Prune(r.window)
	if err != nil {
		return 0, err
	}
	r.stats.Prunes++
	r.stats.Pruned += int64(removed)
	return removed, nil
}

func (r *run) found(h frontier.Handle) Result {
	return Result{
		Outcome:      Found,
		Target:       r.target,
		Window:       r.window,
		Selection:    r.arena.Selection(h),
		BestQuantity: r.target,
		Stats:        r.stats,
	}
}

func (r *run) exhausted() (Result, error) {
	best, err := r.frontier.MaxQuantity()
	if err != nil {
		return Result{}, err
	}
	return Result{
		Outcome:      Exhausted,
		Target:       r.target,
		Window:       r.window,
		BestQuantity: best,
		Stats:        r.stats,
	}, nil
}
