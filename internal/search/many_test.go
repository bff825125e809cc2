package search

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/eugenenazirov/batch-picker/internal/inventory"
)

func TestSearchManyKeepsTargetOrder(t *testing.T) {
	t.Parallel()

	catalog := inventory.MustLoad([]inventory.Spec{{UnitSize: 2, UnitCount: 3}, {UnitSize: 5, UnitCount: 2}})
	targets := []int{9, 16, 1, 4}

	results, err := newTestEngine(t).SearchMany(context.Background(), catalog, targets, 10, 2)
	require.NoError(t, err)
	require.Len(t, results, len(targets))

	for i, res := range results {
		assert.Equal(t, targets[i], res.Target)
	}
	assert.True(t, results[0].Found())
	assert.True(t, results[1].Found())
	assert.False(t, results[2].Found())
	assert.True(t, results[3].Found())
}

func TestSearchManyFailsOnInvalidTarget(t *testing.T) {
	t.Parallel()

	catalog := inventory.MustLoad([]inventory.Spec{{UnitSize: 2, UnitCount: 3}})

	results, err := newTestEngine(t).SearchMany(context.Background(), catalog, []int{2, 100}, 10, 0)
	require.ErrorIs(t, err, ErrInvalidTarget)
	assert.Nil(t, results)
}

func TestSearchManyEmpty(t *testing.T) {
	t.Parallel()

	results, err := New().SearchMany(context.Background(), inventory.MustLoad(nil), nil, 0, 1)
	require.NoError(t, err)
	assert.Empty(t, results)
}
