package storage

import (
	"errors"
	"fmt"
	"sync"

	"github.com/eugenenazirov/batch-picker/internal/inventory"
)

const maxBatches = 256

var (
	// ErrInvalidBatches indicates the provided batches violate validation rules.
	ErrInvalidBatches = errors.New("batches must contain between 1 and 256 entries with positive unit size and count")
)

var defaultBatches = []inventory.Spec{
	{UnitSize: 12, UnitCount: 117},
	{UnitSize: 17, UnitCount: 81},
	{UnitSize: 29, UnitCount: 77},
	{UnitSize: 37, UnitCount: 73},
	{UnitSize: 7, UnitCount: 17},
	{UnitSize: 3, UnitCount: 184},
	{UnitSize: 55, UnitCount: 99},
	{UnitSize: 40, UnitCount: 78},
	{UnitSize: 77, UnitCount: 53},
	{UnitSize: 6, UnitCount: 375},
	{UnitSize: 13, UnitCount: 175},
	{UnitSize: 29, UnitCount: 113},
	{UnitSize: 17, UnitCount: 100},
	{UnitSize: 37, UnitCount: 100},
	{UnitSize: 7, UnitCount: 100},
	{UnitSize: 3, UnitCount: 100},
	{UnitSize: 77, UnitCount: 20},
	{UnitSize: 40, UnitCount: 50},
	{UnitSize: 55, UnitCount: 200},
}

// Storage provides access to the inventory searched by the engine.
type Storage interface {
	GetCatalog() (*inventory.Catalog, error)
	SetBatches(specs []inventory.Spec) error
}

// MemoryStorage keeps the current catalog in-memory and guards access with a RWMutex.
// Catalogs are immutable, so readers share the stored instance.
type MemoryStorage struct {
	mu      sync.RWMutex
	catalog *inventory.Catalog
}

// NewMemoryStorage initialises storage with the default inventory.
func NewMemoryStorage() *MemoryStorage {
	return &MemoryStorage{
		catalog: inventory.MustLoad(defaultBatches),
	}
}

// DefaultBatches returns a copy of the default inventory.
func DefaultBatches() []inventory.Spec {
	out := make([]inventory.Spec, len(defaultBatches))
	copy(out, defaultBatches)
	return out
}

// GetCatalog returns the current catalog.
func (s *MemoryStorage) GetCatalog() (*inventory.Catalog, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return s.catalog, nil
}

// SetBatches validates the batches and replaces the catalog. Input order is kept.
func (s *MemoryStorage) SetBatches(specs []inventory.Spec) error {
	if len(specs) == 0 || len(specs) > maxBatches {
		return ErrInvalidBatches
	}

	catalog, err := inventory.Load(specs)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidBatches, err)
	}

	s.mu.Lock()
	s.catalog = catalog
	s.mu.Unlock()

	return nil
}
