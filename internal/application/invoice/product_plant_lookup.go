package invoice

import (
	"context"
	"errors"
	"time"

	"github.com/erp/invoice/internal/domain/billing"
	"github.com/erp/invoice/internal/infrastructure/odata"
	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"
)

// DefaultSharedFetchTimeout bounds a product-plant fetch that is shared between callers.
const DefaultSharedFetchTimeout = 60 * time.Second

// ProductPlantLookup resolves product-plant records through the store, falling back to the
// product-plant source on a miss. Concurrent misses for one key share a single fetch,
// which runs detached from any one caller's cancellation.
type ProductPlantLookup struct {
	gateway      Gateway
	store        billing.ProductPlantStore
	group        singleflight.Group
	logger       *zap.Logger
	metrics      Metrics
	fetchTimeout time.Duration
}

// NewProductPlantLookup creates a lookup backed by store.
func NewProductPlantLookup(gateway Gateway, store billing.ProductPlantStore, logger *zap.Logger, metrics Metrics) *ProductPlantLookup {
	if logger == nil {
		logger = zap.NewNop()
	}
	if metrics == nil {
		metrics = nopMetrics{}
	}
	return &ProductPlantLookup{
		gateway:      gateway,
		store:        store,
		logger:       logger,
		metrics:      metrics,
		fetchTimeout: DefaultSharedFetchTimeout,
	}
}

// Get returns the record for product at plant, or nil when none exists.
// Not-found results are cached; transport failures are returned and not cached.
func (l *ProductPlantLookup) Get(ctx context.Context, product, plant string) (*billing.ProductPlant, error) {
	key := billing.ProductPlantKey{Product: product, Plant: plant}
	if !key.Valid() {
		return nil, nil
	}

	rec, found, err := l.store.Get(ctx, key)
	switch {
	case err != nil:
		l.logger.Warn("product plant cache read failed", zap.String("key", key.String()), zap.Error(err))
	case found && rec == nil:
		l.metrics.ObserveLookup(LookupNegativeHit)
		return nil, nil
	case found:
		l.metrics.ObserveLookup(LookupHit)
		return rec, nil
	}
	l.metrics.ObserveLookup(LookupMiss)

	ch := l.group.DoChan(key.String(), func() (any, error) {
		fetchCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), l.fetchTimeout)
		defer cancel()

		fetched, cacheable, err := l.fetch(fetchCtx, key)
		if err != nil {
			return nil, err
		}
		if cacheable {
			if err := l.store.Put(fetchCtx, key, fetched); err != nil {
				l.logger.Warn("product plant cache write failed", zap.String("key", key.String()), zap.Error(err))
			}
		}
		return fetched, nil
	})

	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case res := <-ch:
		if res.Err != nil {
			return nil, res.Err
		}
		out, _ := res.Val.(*billing.ProductPlant)
		return out, nil
	}
}

// fetch tries the entity key first and the filter query second.
func (l *ProductPlantLookup) fetch(ctx context.Context, key billing.ProductPlantKey) (*billing.ProductPlant, bool, error) {
	payload, err := l.gateway.Fetch(ctx, productPlantKeyQuery(key.Product, key.Plant))
	switch {
	case errors.Is(err, odata.ErrSourceNotConfigured):
		return nil, false, nil
	case err == nil:
		if rec, ok := payload.First(); ok && isProductPlant(rec) {
			return toProductPlant(rec, key), true, nil
		}
	default:
		l.logger.Debug("product plant key lookup failed",
			zap.String("product", key.Product),
			zap.String("plant", key.Plant),
			zap.Error(err),
		)
	}

	payload, err = l.gateway.Fetch(ctx, productPlantFilterQuery(key.Product, key.Plant))
	if err != nil {
		if errors.Is(err, odata.ErrNotFound) {
			return nil, true, nil
		}
		return nil, false, err
	}
	rec, ok := payload.First()
	if !ok || (payload.IsSingle() && !isProductPlant(rec)) {
		return nil, true, nil
	}
	return toProductPlant(rec, key), true, nil
}
