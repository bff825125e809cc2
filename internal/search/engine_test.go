package search

import (
	"context"
	"errors"
	"math"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
	"go.uber.org/zap/zaptest"

	"github.com/eugenenazirov/batch-picker/internal/frontier"
	"github.com/eugenenazirov/batch-picker/internal/inventory"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

// demoInventory is the 19-batch stock used to size the default window.
var demoInventory = []inventory.Spec{
	{UnitSize: 12, UnitCount: 117}, {UnitSize: 17, UnitCount: 81}, {UnitSize: 29, UnitCount: 77},
	{UnitSize: 37, UnitCount: 73}, {UnitSize: 7, UnitCount: 17}, {UnitSize: 3, UnitCount: 184},
	{UnitSize: 55, UnitCount: 99}, {UnitSize: 40, UnitCount: 78}, {UnitSize: 77, UnitCount: 53},
	{UnitSize: 6, UnitCount: 375}, {UnitSize: 13, UnitCount: 175}, {UnitSize: 29, UnitCount: 113},
	{UnitSize: 17, UnitCount: 100}, {UnitSize: 37, UnitCount: 100}, {UnitSize: 7, UnitCount: 100},
	{UnitSize: 3, UnitCount: 100}, {UnitSize: 77, UnitCount: 20}, {UnitSize: 40, UnitCount: 50},
	{UnitSize: 55, UnitCount: 200},
}

type fakeStopwatch struct {
	step time.Duration
	now  time.Duration
}

func (f *fakeStopwatch) Elapsed() time.Duration {
	f.now += f.step
	return f.now
}

func (f *fakeStopwatch) Reset() {
	f.now = 0
}

func newTestEngine(t *testing.T, opts ...Option) *Engine {
	t.Helper()
	opts = append([]Option{WithLogger(zaptest.NewLogger(t))}, opts...)
	return New(opts...)
}

func assertValidSelection(t *testing.T, catalog *inventory.Catalog, res Result) {
	t.Helper()

	seen := make(map[int]bool, len(res.Selection))
	sum := 0
	for _, pick := range res.Selection {
		b, err := catalog.Batch(pick.BatchID)
		require.NoError(t, err)
		assert.False(t, seen[pick.BatchID], "batch %d used twice", pick.BatchID)
		seen[pick.BatchID] = true
		assert.Greater(t, pick.Count, 0)
		assert.LessOrEqual(t, pick.Count, b.UnitCount)
		sum += pick.Count * b.UnitSize
	}
	assert.Equal(t, res.Target, sum)
}

func TestSearchScenarios(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		specs   []inventory.Spec
		target  int
		window  int
		want    Outcome
		wantSel []frontier.Pick
		best    int
		wantErr error
	}{
		{
			name:    "ExactMatchAcrossTwoBatches",
			specs:   []inventory.Spec{{UnitSize: 2, UnitCount: 3}, {UnitSize: 5, UnitCount: 2}},
			target:  9,
			window:  10,
			want:    Found,
			wantSel: []frontier.Pick{{BatchID: 0, Count: 2}, {BatchID: 1, Count: 1}},
			best:    9,
		},
		{
			name:    "TargetAboveSupply",
			specs:   []inventory.Spec{{UnitSize: 2, UnitCount: 1}},
			target:  5,
			window:  10,
			wantErr: ErrInvalidTarget,
		},
		{
			name:    "ZeroTarget",
			specs:   []inventory.Spec{{UnitSize: 2, UnitCount: 1}},
			target:  0,
			wantErr: ErrInvalidTarget,
		},
		{
			name:    "EmptyCatalog",
			target:  1,
			wantErr: ErrInvalidTarget,
		},
		{
			name:    "NegativeWindow",
			specs:   []inventory.Spec{{UnitSize: 2, UnitCount: 1}},
			target:  2,
			window:  -1,
			wantErr: ErrInvalidWindow,
		},
		{
			// The zero window raises the first count of batch 0 to 2, so the total 3 the
			// match needs is never generated.
			name:   "ZeroWindowLosesIntermediateTotal",
			specs:  []inventory.Spec{{UnitSize: 3, UnitCount: 2}, {UnitSize: 4, UnitCount: 2}},
			target: 11,
			window: 0,
			want:   Exhausted,
			best:   14,
		},
		{
			name:    "WideWindowFindsIntermediateTotal",
			specs:   []inventory.Spec{{UnitSize: 3, UnitCount: 2}, {UnitSize: 4, UnitCount: 2}},
			target:  11,
			window:  10,
			want:    Found,
			wantSel: []frontier.Pick{{BatchID: 0, Count: 1}, {BatchID: 1, Count: 2}},
			best:    11,
		},
		{
			name:    "SingleBatchWholeSupply",
			specs:   []inventory.Spec{{UnitSize: 7, UnitCount: 3}},
			target:  21,
			window:  0,
			want:    Found,
			wantSel: []frontier.Pick{{BatchID: 0, Count: 3}},
			best:    21,
		},
		{
			name:   "UnreachableParity",
			specs:  []inventory.Spec{{UnitSize: 2, UnitCount: 5}, {UnitSize: 4, UnitCount: 5}},
			target: 15,
			window: 100,
			want:   Exhausted,
			// batch 1 is capped at ceil(15/4) packages
			best: 26,
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			catalog := inventory.MustLoad(tc.specs)
			res, err := newTestEngine(t).Search(context.Background(), catalog, tc.target, tc.window)
			if tc.wantErr != nil {
				require.ErrorIs(t, err, tc.wantErr)
				return
			}
			require.NoError(t, err)

			assert.Equal(t, tc.want, res.Outcome)
			assert.Equal(t, tc.best, res.BestQuantity)
			if diff := cmp.Diff(tc.wantSel, res.Selection); diff != "" {
				t.Fatalf("unexpected selection (-want +got):\n%s", diff)
			}
			if res.Found() {
				assertValidSelection(t, catalog, res)
			}
		})
	}
}

func TestSearchDemoInventory(t *testing.T) {
	t.Parallel()

	catalog := inventory.MustLoad(demoInventory)
	res, err := newTestEngine(t).Search(context.Background(), catalog, 48000, DefaultWindow)
	require.NoError(t, err)
	require.True(t, res.Found())
	assertValidSelection(t, catalog, res)
	assert.Positive(t, res.Stats.Expansions)
	assert.Positive(t, res.Stats.Batches)
}

func TestSearchInvariantsPerStep(t *testing.T) {
	t.Parallel()

	catalog := inventory.MustLoad(demoInventory)
	for _, window := range []int{0, 1, 37, DefaultWindow} {
		var steps []StepInfo
		engine := newTestEngine(t, WithStepHook(func(info StepInfo) {
			steps = append(steps, info)
		}))

		// an odd target near the supply keeps most batches in play
		res, err := engine.Search(context.Background(), catalog, catalog.TotalQuantity()-1, window)
		require.NoError(t, err)
		if res.Found() {
			assertValidSelection(t, catalog, res)
		}

		prevMax := 0
		for _, step := range steps {
			assert.GreaterOrEqual(t, step.MaxBefore, prevMax, "window %d batch %d", window, step.BatchID)
			assert.GreaterOrEqual(t, step.MaxAfter, step.MaxBefore, "window %d batch %d", window, step.BatchID)
			assert.GreaterOrEqual(t, step.FirstCount, 1)
			assert.Positive(t, step.FrontierSize)
			if window == 0 {
				assert.Equal(t, 1, step.FrontierSize)
			}
			prevMax = step.MaxAfter
		}
	}
}

func TestSearchZeroWindowTerminates(t *testing.T) {
	t.Parallel()

	catalog := inventory.MustLoad(demoInventory)
	for _, target := range []int{1, 3, 500, 48000, catalog.TotalQuantity()} {
		res, err := newTestEngine(t).Search(context.Background(), catalog, target, 0)
		require.NoError(t, err, "target %d", target)
		if res.Found() {
			assertValidSelection(t, catalog, res)
		}
	}
}

func TestExpandKeepsFirstSelectionForTiedQuantity(t *testing.T) {
	t.Parallel()

	// batch 0 reaches 4 with two packages, batch 1 reaches 4 again with its single package
	catalog := inventory.MustLoad([]inventory.Spec{
		{UnitSize: 2, UnitCount: 2},
		{UnitSize: 4, UnitCount: 1},
		{UnitSize: 100, UnitCount: 1},
	})
	r := newRun(107, 1000)

	for id := 0; id < 2; id++ {
		b, err := catalog.Batch(id)
		require.NoError(t, err)
		_, found, err := r.expand(b)
		require.NoError(t, err)
		require.False(t, found)
		_, err = r.prune()
		require.NoError(t, err)
	}

	var tied []frontier.State
	r.frontier.Descend(func(s frontier.State) bool {
		if s.Quantity == 4 {
			tied = append(tied, s)
		}
		return true
	})
	require.Len(t, tied, 1)
	assert.Equal(t, []frontier.Pick{{BatchID: 0, Count: 2}}, r.arena.Selection(tied[0].Selection))

	res, err := newTestEngine(t).Search(context.Background(), catalog, 107, 1000)
	require.NoError(t, err)
	assert.Equal(t, Exhausted, res.Outcome)
	assert.Equal(t, 108, res.BestQuantity)
}

func TestExpandFrontierNeverHoldsDuplicates(t *testing.T) {
	t.Parallel()

	catalog := inventory.MustLoad(demoInventory[:8])
	r := newRun(catalog.TotalQuantity()-1, 200)
	for _, b := range catalog.Batches() {
		_, found, err := r.expand(b)
		require.NoError(t, err)
		if found {
			break
		}

		seen := map[int]bool{}
		prev := -1
		r.frontier.Descend(func(s frontier.State) bool {
			assert.False(t, seen[s.Quantity])
			seen[s.Quantity] = true
			if prev >= 0 {
				assert.Less(t, s.Quantity, prev)
			}
			prev = s.Quantity
			return true
		})

		_, err = r.prune()
		require.NoError(t, err)
	}
}

func TestCandidateRange(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name           string
		batch          inventory.Batch
		curMax, target int
		window         int
		lo, hi         int
	}{
		{name: "CappedByAvailable", batch: inventory.Batch{UnitSize: 2, UnitCount: 3}, target: 9, window: 10, lo: 1, hi: 3},
		{name: "CappedByTarget", batch: inventory.Batch{UnitSize: 5, UnitCount: 20}, target: 9, window: 100, lo: 1, hi: 2},
		{name: "OversizedBatchSkipsLowCounts", batch: inventory.Batch{UnitSize: 12, UnitCount: 117}, target: 48000, window: 500, lo: 75, hi: 117},
		{name: "OversizedButOvershoots", batch: inventory.Batch{UnitSize: 12, UnitCount: 117}, curMax: 47000, target: 48000, window: 500, lo: 1, hi: 117},
		{name: "FloorAtOne", batch: inventory.Batch{UnitSize: 10, UnitCount: 3}, target: 100, window: 25, lo: 1, hi: 3},
		{name: "ExactDivision", batch: inventory.Batch{UnitSize: 5, UnitCount: 20}, target: 10, window: 100, lo: 1, hi: 2},
		{name: "HugeSizeDoesNotWrap", batch: inventory.Batch{UnitSize: math.MaxInt/2 + 1, UnitCount: 1}, target: math.MaxInt, window: 10, lo: 1, hi: 1},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			lo, hi := candidateRange(tc.batch, tc.curMax, tc.target, tc.window)
			assert.Equal(t, tc.lo, lo)
			assert.Equal(t, tc.hi, hi)
		})
	}
}

func TestSearchWholeSupplyAtMaxInt(t *testing.T) {
	t.Parallel()

	half := math.MaxInt/2 + 1
	catalog := inventory.MustLoad([]inventory.Spec{
		{UnitSize: half, UnitCount: 1},
		{UnitSize: math.MaxInt - half, UnitCount: 1},
	})

	res, err := newTestEngine(t).Search(context.Background(), catalog, math.MaxInt, 10)
	require.NoError(t, err)
	require.Equal(t, Found, res.Outcome)
	assert.Equal(t, []frontier.Pick{{BatchID: 0, Count: 1}, {BatchID: 1, Count: 1}}, res.Selection)
}

func TestSearchStatsUseInjectedStopwatch(t *testing.T) {
	t.Parallel()

	engine := newTestEngine(t, WithStopwatch(func() Stopwatch {
		return &fakeStopwatch{step: time.Millisecond}
	}))
	catalog := inventory.MustLoad([]inventory.Spec{{UnitSize: 2, UnitCount: 3}, {UnitSize: 5, UnitCount: 2}})

	res, err := engine.Search(context.Background(), catalog, 9, 10)
	require.NoError(t, err)
	assert.Equal(t, 2, res.Stats.Batches)
	assert.Equal(t, 1, res.Stats.Prunes)
	assert.Equal(t, 2*time.Millisecond, res.Stats.ExpandTime)
	assert.Equal(t, time.Millisecond, res.Stats.PruneTime)
	assert.Positive(t, res.Stats.Elapsed)
	// batch 0 inserts 2, 4, 6; batch 1 inserts 11 and 16 from 6 before 4+5 hits
	assert.Equal(t, int64(5), res.Stats.Expansions)
	assert.Equal(t, int64(5), res.Stats.Insertions)
}

func TestSearchCanceledBetweenBatches(t *testing.T) {
	t.Parallel()

	ctx, cancel := context.WithCancel(context.Background())
	engine := newTestEngine(t, WithStepHook(func(StepInfo) {
		cancel()
	}))
	catalog := inventory.MustLoad([]inventory.Spec{{UnitSize: 2, UnitCount: 2}, {UnitSize: 2, UnitCount: 2}, {UnitSize: 2, UnitCount: 2}})

	res, err := engine.Search(ctx, catalog, 11, 10)
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrCanceled))
	assert.True(t, errors.Is(err, context.Canceled))
	assert.Equal(t, 1, res.Stats.Batches)
	assert.Equal(t, 4, res.BestQuantity)
}

func TestOutcomeString(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "found", Found.String())
	assert.Equal(t, "exhausted", Exhausted.String())
	assert.Equal(t, "unknown", Outcome(42).String())
}

func TestWallStopwatch(t *testing.T) {
	t.Parallel()

	sw := NewStopwatch()
	first := sw.Elapsed()
	assert.GreaterOrEqual(t, sw.Elapsed(), first)
	sw.Reset()
	assert.GreaterOrEqual(t, sw.Elapsed(), time.Duration(0))
}
