package cache

import (
	"fmt"

	"github.com/erp/invoice/internal/domain/billing"
	"github.com/erp/invoice/internal/infrastructure/config"
	"go.uber.org/zap"
)

// Store backends
const (
	BackendMemory = "memory"
	BackendRedis  = "redis"
	BackendTiered = "tiered"
)

// ProductPlantStoreFactory creates product-plant stores based on configuration
type ProductPlantStoreFactory struct {
	cacheConfig config.CacheConfig
	redisConfig config.RedisConfig
	logger      *zap.Logger
}

// FactoryOption is a functional option for configuring the factory
type FactoryOption func(*ProductPlantStoreFactory)

// WithLogger sets the logger for the factory
func WithLogger(logger *zap.Logger) FactoryOption {
	return func(f *ProductPlantStoreFactory) {
		f.logger = logger
	}
}

// NewProductPlantStoreFactory creates a new factory
func NewProductPlantStoreFactory(cacheCfg config.CacheConfig, redisCfg config.RedisConfig, opts ...FactoryOption) *ProductPlantStoreFactory {
	f := &ProductPlantStoreFactory{
		cacheConfig: cacheCfg,
		redisConfig: redisCfg,
		logger:      zap.NewNop(),
	}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

// CreateRedisStore creates a Redis-backed store
func (f *ProductPlantStoreFactory) CreateRedisStore() (*RedisProductPlantStore, error) {
	store, err := NewRedisProductPlantStore(RedisConfig{
		Host:      f.redisConfig.Host,
		Port:      f.redisConfig.Port,
		Password:  f.redisConfig.Password,
		DB:        f.redisConfig.DB,
		KeyPrefix: f.redisConfig.KeyPrefix,
		TTL:       f.redisConfig.TTL,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create Redis product plant store: %w", err)
	}
	return store, nil
}

// CreateStore creates the configured store. When Redis is unreachable and fallback is
// allowed, an in-memory store is returned instead.
func (f *ProductPlantStoreFactory) CreateStore() (billing.ProductPlantStore, error) {
	backend := f.cacheConfig.Backend
	if backend == "" || backend == BackendMemory {
		f.logger.Info("using in-memory product plant cache")
		return NewInMemoryProductPlantStore(), nil
	}
	if backend != BackendRedis && backend != BackendTiered {
		return nil, fmt.Errorf("unknown cache backend %q", backend)
	}

	redisStore, err := f.CreateRedisStore()
	if err != nil {
		if !f.cacheConfig.AllowInMemoryFallback {
			return nil, fmt.Errorf("Redis required for product plant cache but unavailable: %w", err)
		}
		f.logger.Warn("Redis unavailable, falling back to in-memory product plant cache", zap.Error(err))
		return NewInMemoryProductPlantStore(), nil
	}

	if backend == BackendTiered {
		f.logger.Info("using tiered product plant cache")
		return NewTieredProductPlantStore(NewInMemoryProductPlantStore(), redisStore, f.logger), nil
	}
	f.logger.Info("using Redis product plant cache")
	return redisStore, nil
}
