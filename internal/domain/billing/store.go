package billing

import "context"

// ProductPlantStore memoizes product-plant lookups by ProductPlantKey.
// A found entry with a nil record is a cached negative result.
type ProductPlantStore interface {
	// Get returns the cached record and whether the key was present.
	Get(ctx context.Context, key ProductPlantKey) (*ProductPlant, bool, error)

	// Put caches record, which may be nil to remember a miss.
	Put(ctx context.Context, key ProductPlantKey, record *ProductPlant) error
}
