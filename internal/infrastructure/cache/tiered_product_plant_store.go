package cache

import (
	"context"
	"sync/atomic"

	"go.uber.org/zap"

	"github.com/erp/invoice/internal/domain/billing"
)

// TieredProductPlantStore reads through a local L1 store to a shared L2 store.
// L2 failures degrade to L1-only behaviour and are logged.
type TieredProductPlantStore struct {
	l1     *InMemoryProductPlantStore
	l2     billing.ProductPlantStore
	logger *zap.Logger

	l1Hits atomic.Int64
	l2Hits atomic.Int64
	misses atomic.Int64
}

// TieredStats is a snapshot of hit counters
type TieredStats struct {
	L1Hits int64
	L2Hits int64
	Misses int64
}

// NewTieredProductPlantStore creates a two-tier store
func NewTieredProductPlantStore(l1 *InMemoryProductPlantStore, l2 billing.ProductPlantStore, logger *zap.Logger) *TieredProductPlantStore {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &TieredProductPlantStore{l1: l1, l2: l2, logger: logger}
}

// Get checks L1, then L2, promoting L2 hits into L1
func (s *TieredProductPlantStore) Get(ctx context.Context, key billing.ProductPlantKey) (*billing.ProductPlant, bool, error) {
	if rec, ok, _ := s.l1.Get(ctx, key); ok {
		s.l1Hits.Add(1)
		return rec, true, nil
	}

	rec, ok, err := s.l2.Get(ctx, key)
	if err != nil {
		s.logger.Warn("L2 product plant lookup failed", zap.String("key", key.String()), zap.Error(err))
		s.misses.Add(1)
		return nil, false, nil
	}
	if !ok {
		s.misses.Add(1)
		return nil, false, nil
	}

	s.l2Hits.Add(1)
	_ = s.l1.Put(ctx, key, rec)
	return rec, true, nil
}

// Put writes to both tiers
func (s *TieredProductPlantStore) Put(ctx context.Context, key billing.ProductPlantKey, record *billing.ProductPlant) error {
	_ = s.l1.Put(ctx, key, record)
	if err := s.l2.Put(ctx, key, record); err != nil {
		s.logger.Warn("L2 product plant write failed", zap.String("key", key.String()), zap.Error(err))
	}
	return nil
}

// Stats returns the hit counters
func (s *TieredProductPlantStore) Stats() TieredStats {
	return TieredStats{
		L1Hits: s.l1Hits.Load(),
		L2Hits: s.l2Hits.Load(),
		Misses: s.misses.Load(),
	}
}

// Close logs the hit counters and closes the L2 store when it holds resources
func (s *TieredProductPlantStore) Close() error {
	stats := s.Stats()
	s.logger.Info("product plant cache closed",
		zap.Int64("l1_hits", stats.L1Hits),
		zap.Int64("l2_hits", stats.L2Hits),
		zap.Int64("misses", stats.Misses),
	)
	if c, ok := s.l2.(interface{ Close() error }); ok {
		return c.Close()
	}
	return nil
}

var _ billing.ProductPlantStore = (*TieredProductPlantStore)(nil)
