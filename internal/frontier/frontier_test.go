package frontier

import (
	"math"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func quantities(f *Frontier) []int {
	var out []int
	f.Descend(func(s State) bool {
		out = append(out, s.Quantity)
		return true
	})
	return out
}

func TestNewSeedsEmptyState(t *testing.T) {
	t.Parallel()

	f := New()
	require.Equal(t, 1, f.Len())

	top, err := f.MaxQuantity()
	require.NoError(t, err)
	assert.Zero(t, top)

	seed, ok := f.Get(0)
	require.True(t, ok)
	assert.Equal(t, Root, seed.Selection)
}

func TestInsertFirstWriterWins(t *testing.T) {
	t.Parallel()

	f := New()
	assert.True(t, f.Insert(State{Quantity: 4, Selection: 7}))
	assert.False(t, f.Insert(State{Quantity: 4, Selection: 9}))

	got, ok := f.Get(4)
	require.True(t, ok)
	assert.Equal(t, Handle(7), got.Selection)
	assert.Equal(t, 2, f.Len())
}

func TestDescendOrderIsStrictlyDecreasing(t *testing.T) {
	t.Parallel()

	f := New()
	for _, q := range []int{5, 12, 3, 12, 8, 5} {
		f.Insert(State{Quantity: q, Selection: Root})
	}

	assert.Equal(t, []int{12, 8, 5, 3, 0}, quantities(f))
	// restartable
	assert.Equal(t, []int{12, 8, 5, 3, 0}, quantities(f))
}

func TestDescendFromPivot(t *testing.T) {
	t.Parallel()

	f := New()
	for _, q := range []int{2, 4, 6, 11} {
		f.Insert(State{Quantity: q, Selection: Root})
	}

	var got []int
	f.DescendFrom(9, func(s State) bool {
		got = append(got, s.Quantity)
		return s.Quantity > 4
	})
	assert.Equal(t, []int{6, 4}, got)
}

func TestPrune(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name        string
		inserted    []int
		window      int
		want        []int
		wantRemoved int
	}{
		{name: "KeepsWithinWindow", inserted: []int{2, 4, 6}, window: 10, want: []int{6, 4, 2, 0}},
		{name: "RemovesBelowWindow", inserted: []int{3, 9, 10}, window: 2, want: []int{10, 9}, wantRemoved: 2},
		{name: "BoundaryIsKept", inserted: []int{5, 10}, window: 5, want: []int{10, 5}, wantRemoved: 1},
		{name: "ZeroWindowKeepsOnlyMax", inserted: []int{1, 2, 3}, window: 0, want: []int{3}, wantRemoved: 3},
		{name: "SeedOnly", window: 0, want: []int{0}},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			f := New()
			for _, q := range tc.inserted {
				f.Insert(State{Quantity: q, Selection: Root})
			}

			removed, err := f.Prune(tc.window)
			require.NoError(t, err)
			assert.Equal(t, tc.wantRemoved, removed)
			if diff := cmp.Diff(tc.want, quantities(f)); diff != "" {
				t.Fatalf("unexpected members (-want +got):\n%s", diff)
			}
		})
	}
}

func TestEmptyFrontier(t *testing.T) {
	t.Parallel()

	f := &Frontier{tree: New().tree.Clone()}
	f.tree.Clear(false)

	_, err := f.MaxQuantity()
	assert.ErrorIs(t, err, ErrEmptyFrontier)

	_, err = f.Prune(10)
	assert.ErrorIs(t, err, ErrEmptyFrontier)

	f.Init()
	assert.Equal(t, 1, f.Len())
}

func TestArenaSelection(t *testing.T) {
	t.Parallel()

	a := NewArena(4)
	assert.Empty(t, a.Selection(Root))

	first, err := a.Extend(Root, 0, 2)
	require.NoError(t, err)
	second, err := a.Extend(first, 1, 1)
	require.NoError(t, err)
	sibling, err := a.Extend(first, 2, 5)
	require.NoError(t, err)

	want := []Pick{{BatchID: 0, Count: 2}, {BatchID: 1, Count: 1}}
	if diff := cmp.Diff(want, a.Selection(second)); diff != "" {
		t.Fatalf("unexpected selection (-want +got):\n%s", diff)
	}
	assert.Equal(t, []Pick{{BatchID: 0, Count: 2}, {BatchID: 2, Count: 5}}, a.Selection(sibling))
	assert.Equal(t, 3, a.Len())
}

func TestArenaExtendStopsAtHandleLimit(t *testing.T) {
	t.Parallel()

	a := NewArena(2)
	assert.Equal(t, math.MaxInt32, a.limit)

	a.limit = 2
	first, err := a.Extend(Root, 0, 1)
	require.NoError(t, err)
	_, err = a.Extend(first, 1, 1)
	require.NoError(t, err)

	h, err := a.Extend(first, 2, 1)
	require.ErrorIs(t, err, ErrArenaFull)
	assert.Equal(t, Root, h)
	assert.Equal(t, 2, a.Len())
}
