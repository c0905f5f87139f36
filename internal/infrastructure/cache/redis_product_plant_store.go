package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/erp/invoice/internal/domain/billing"
)

const defaultProductPlantKeyPrefix = "invoice:product-plant:"

// negativeEntry marks a cached miss.
const negativeEntry = "null"

// RedisConfig holds Redis connection configuration
type RedisConfig struct {
	Host      string
	Port      int
	Password  string
	DB        int
	KeyPrefix string
	// TTL of each entry; zero keeps entries forever.
	TTL time.Duration
}

// RedisProductPlantStore shares product-plant lookups across instances
type RedisProductPlantStore struct {
	client    *redis.Client
	keyPrefix string
	ttl       time.Duration
}

// NewRedisProductPlantStore connects to Redis and verifies the connection
func NewRedisProductPlantStore(cfg RedisConfig) (*RedisProductPlantStore, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     fmt.Sprintf("%s:%d", cfg.Host, cfg.Port),
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}

	return NewRedisProductPlantStoreWithClient(client, cfg.KeyPrefix, cfg.TTL), nil
}

// NewRedisProductPlantStoreWithClient creates a store with an existing Redis client
func NewRedisProductPlantStoreWithClient(client *redis.Client, keyPrefix string, ttl time.Duration) *RedisProductPlantStore {
	if keyPrefix == "" {
		keyPrefix = defaultProductPlantKeyPrefix
	}
	return &RedisProductPlantStore{
		client:    client,
		keyPrefix: keyPrefix,
		ttl:       ttl,
	}
}

// Get returns the cached record for key
func (s *RedisProductPlantStore) Get(ctx context.Context, key billing.ProductPlantKey) (*billing.ProductPlant, bool, error) {
	raw, err := s.client.Get(ctx, s.keyPrefix+key.String()).Result()
	if errors.Is(err, redis.Nil) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("failed to read product plant %s: %w", key, err)
	}
	if raw == negativeEntry {
		return nil, true, nil
	}

	var rec billing.ProductPlant
	if err := json.Unmarshal([]byte(raw), &rec); err != nil {
		return nil, false, fmt.Errorf("failed to decode product plant %s: %w", key, err)
	}
	return &rec, true, nil
}

// Put stores record (nil for a negative entry)
func (s *RedisProductPlantStore) Put(ctx context.Context, key billing.ProductPlantKey, record *billing.ProductPlant) error {
	value := negativeEntry
	if record != nil {
		data, err := json.Marshal(record)
		if err != nil {
			return fmt.Errorf("failed to encode product plant %s: %w", key, err)
		}
		value = string(data)
	}
	if err := s.client.Set(ctx, s.keyPrefix+key.String(), value, s.ttl).Err(); err != nil {
		return fmt.Errorf("failed to write product plant %s: %w", key, err)
	}
	return nil
}

// Close closes the Redis client
func (s *RedisProductPlantStore) Close() error {
	return s.client.Close()
}

var _ billing.ProductPlantStore = (*RedisProductPlantStore)(nil)
