package cache

import (
	"context"
	"sync"

	"github.com/erp/invoice/internal/domain/billing"
)

// InMemoryProductPlantStore keeps product-plant lookups for the process lifetime.
// Entries are never evicted.
type InMemoryProductPlantStore struct {
	mu      sync.RWMutex
	entries map[string]*billing.ProductPlant
}

// NewInMemoryProductPlantStore creates an empty store
func NewInMemoryProductPlantStore() *InMemoryProductPlantStore {
	return &InMemoryProductPlantStore{
		entries: make(map[string]*billing.ProductPlant),
	}
}

// Get returns the cached record for key
func (s *InMemoryProductPlantStore) Get(_ context.Context, key billing.ProductPlantKey) (*billing.ProductPlant, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	rec, ok := s.entries[key.String()]
	if !ok || rec == nil {
		return nil, ok, nil
	}
	cp := *rec
	return &cp, true, nil
}

// Put stores record (nil for a negative entry)
func (s *InMemoryProductPlantStore) Put(_ context.Context, key billing.ProductPlantKey, record *billing.ProductPlant) error {
	var stored *billing.ProductPlant
	if record != nil {
		cp := *record
		stored = &cp
	}
	s.mu.Lock()
	s.entries[key.String()] = stored
	s.mu.Unlock()
	return nil
}

// Len returns the number of cached keys
func (s *InMemoryProductPlantStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.entries)
}

var _ billing.ProductPlantStore = (*InMemoryProductPlantStore)(nil)
