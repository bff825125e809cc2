package inventory

import (
	"fmt"
	"math"
)

// Spec describes a batch before it is cataloged.
type Spec struct {
	UnitSize  int `json:"unitSize" yaml:"unit_size"`
	UnitCount int `json:"unitCount" yaml:"unit_count"`
}

// Batch is one lot of inventory: UnitCount packages of UnitSize each.
type Batch struct {
	ID        int
	UnitSize  int
	UnitCount int
}

// TotalQuantity returns the quantity held by the whole batch.
func (b Batch) TotalQuantity() int {
	return b.UnitSize * b.UnitCount
}

// Catalog is an ordered, immutable collection of batches.
type Catalog struct {
	batches []Batch
	total   int
}

// Load validates specs and assigns ids 0..n-1 in input order.
func Load(specs []Spec) (*Catalog, error) {
	batches := make([]Batch, 0, len(specs))
	total := 0
	for i, spec := range specs {
		if spec.UnitSize <= 0 || spec.UnitCount <= 0 {
			return nil, fmt.Errorf("batch %d (size %d, count %d): %w", i, spec.UnitSize, spec.UnitCount, ErrInvalidBatch)
		}
		// Every quantity the search forms is bounded by the catalog total, so keeping the
		// total representable keeps all of them representable.
		if spec.UnitSize > math.MaxInt/spec.UnitCount {
			return nil, fmt.Errorf("batch %d (size %d, count %d) overflows its total: %w", i, spec.UnitSize, spec.UnitCount, ErrInvalidBatch)
		}
		batchTotal := spec.UnitSize * spec.UnitCount
		if batchTotal > math.MaxInt-total {
			return nil, fmt.Errorf("batch %d pushes the inventory total past %d: %w", i, math.MaxInt, ErrInvalidBatch)
		}
		batches = append(batches, Batch{
			ID:        i,
			UnitSize:  spec.UnitSize,
			UnitCount: spec.UnitCount,
		})
		total += batchTotal
	}

	return &Catalog{batches: batches, total: total}, nil
}

// MustLoad is Load for static inventories; it panics on invalid input.
func MustLoad(specs []Spec) *Catalog {
	c, err := Load(specs)
	if err != nil {
		panic(err)
	}
	return c
}

// Len returns the number of batches.
func (c *Catalog) Len() int {
	return len(c.batches)
}

// Batch returns the batch with the given id.
func (c *Catalog) Batch(id int) (Batch, error) {
	if id < 0 || id >= len(c.batches) {
		return Batch{}, fmt.Errorf("batch %d: %w", id, ErrUnknownBatch)
	}
	return c.batches[id], nil
}

// Batches returns a copy of the batches in load order.
func (c *Catalog) Batches() []Batch {
	out := make([]Batch, len(c.batches))
	copy(out, c.batches)
	return out
}

// Each calls fn for every batch in load order until fn returns false.
func (c *Catalog) Each(fn func(Batch) bool) {
	for _, b := range c.batches {
		if !fn(b) {
			return
		}
	}
}

// TotalQuantity returns the combined quantity of every batch.
func (c *Catalog) TotalQuantity() int {
	return c.total
}
