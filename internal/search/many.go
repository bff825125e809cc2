package search

import (
	"context"
	"fmt"

	"golang.org/x/sync/errgroup"

	"github.com/eugenenazirov/batch-picker/internal/inventory"
)

// SearchMany runs one independent search per target, at most limit at a time (no limit
// when limit <= 0). Results are returned in target order. The first failing search
// cancels the rest.
func (e *Engine) SearchMany(ctx context.Context, catalog *inventory.Catalog, targets []int, window, limit int) ([]Result, error) {
	results := make([]Result, len(targets))

	g, gctx := errgroup.WithContext(ctx)
	if limit > 0 {
		g.SetLimit(limit)
	}
	for i, target := range targets {
		g.Go(func() error {
			res, err := e.Search(gctx, catalog, target, window)
			if err != nil {
				return fmt.Errorf("target %d: %w", target, err)
			}
			results[i] = res
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}
	return results, nil
}
