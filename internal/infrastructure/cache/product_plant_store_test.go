package cache

import (
	"context"
	"strconv"
	"sync"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"github.com/erp/invoice/internal/domain/billing"
	"github.com/erp/invoice/internal/infrastructure/config"
)

func newMiniredisStore(t *testing.T, ttl time.Duration) (*RedisProductPlantStore, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return NewRedisProductPlantStoreWithClient(client, "", ttl), mr
}

func TestInMemoryProductPlantStore(t *testing.T) {
	ctx := context.Background()
	store := NewInMemoryProductPlantStore()
	key := billing.ProductPlantKey{Product: "P-1", Plant: "1000"}

	t.Run("miss", func(t *testing.T) {
		rec, ok, err := store.Get(ctx, key)
		require.NoError(t, err)
		assert.False(t, ok)
		assert.Nil(t, rec)
	})

	t.Run("stores a copy of the record", func(t *testing.T) {
		in := &billing.ProductPlant{Product: "P-1", Plant: "1000", TaxControlCode: "8471"}
		require.NoError(t, store.Put(ctx, key, in))
		in.TaxControlCode = "changed"

		rec, ok, err := store.Get(ctx, key)
		require.NoError(t, err)
		assert.True(t, ok)
		assert.Equal(t, "8471", rec.TaxControlCode)
	})

	t.Run("negative entry", func(t *testing.T) {
		neg := billing.ProductPlantKey{Product: "P-2", Plant: "1000"}
		require.NoError(t, store.Put(ctx, neg, nil))

		rec, ok, err := store.Get(ctx, neg)
		require.NoError(t, err)
		assert.True(t, ok)
		assert.Nil(t, rec)
		assert.Equal(t, 2, store.Len())
	})

	t.Run("concurrent access", func(t *testing.T) {
		var wg sync.WaitGroup
		for i := 0; i < 50; i++ {
			wg.Add(1)
			go func() {
				defer wg.Done()
				_ = store.Put(ctx, key, &billing.ProductPlant{Product: "P-1", Plant: "1000"})
				_, _, _ = store.Get(ctx, key)
			}()
		}
		wg.Wait()
	})
}

func TestRedisProductPlantStore(t *testing.T) {
	ctx := context.Background()
	key := billing.ProductPlantKey{Product: "P-1", Plant: "1000"}

	t.Run("round trip with prefix", func(t *testing.T) {
		store, mr := newMiniredisStore(t, 0)
		require.NoError(t, store.Put(ctx, key, &billing.ProductPlant{Product: "P-1", Plant: "1000", TaxControlCode: "8471"}))
		assert.True(t, mr.Exists("invoice:product-plant:P-1/1000"))

		rec, ok, err := store.Get(ctx, key)
		require.NoError(t, err)
		assert.True(t, ok)
		assert.Equal(t, "8471", rec.TaxControlCode)
	})

	t.Run("negative entry", func(t *testing.T) {
		store, _ := newMiniredisStore(t, 0)
		require.NoError(t, store.Put(ctx, key, nil))

		rec, ok, err := store.Get(ctx, key)
		require.NoError(t, err)
		assert.True(t, ok)
		assert.Nil(t, rec)
	})

	t.Run("ttl expires entries", func(t *testing.T) {
		store, mr := newMiniredisStore(t, time.Minute)
		require.NoError(t, store.Put(ctx, key, nil))
		mr.FastForward(2 * time.Minute)

		_, ok, err := store.Get(ctx, key)
		require.NoError(t, err)
		assert.False(t, ok)
	})

	t.Run("corrupt entry is an error", func(t *testing.T) {
		store, mr := newMiniredisStore(t, 0)
		require.NoError(t, mr.Set("invoice:product-plant:P-1/1000", "{not json"))

		_, _, err := store.Get(ctx, key)
		assert.Error(t, err)
	})
}

func TestTieredProductPlantStore(t *testing.T) {
	ctx := context.Background()
	key := billing.ProductPlantKey{Product: "P-1", Plant: "1000"}

	t.Run("promotes L2 hits into L1", func(t *testing.T) {
		l2, _ := newMiniredisStore(t, 0)
		require.NoError(t, l2.Put(ctx, key, &billing.ProductPlant{Product: "P-1", Plant: "1000", TaxControlCode: "8471"}))
		l1 := NewInMemoryProductPlantStore()
		store := NewTieredProductPlantStore(l1, l2, nil)

		rec, ok, err := store.Get(ctx, key)
		require.NoError(t, err)
		require.True(t, ok)
		assert.Equal(t, "8471", rec.TaxControlCode)
		assert.Equal(t, 1, l1.Len())

		_, ok, _ = store.Get(ctx, key)
		assert.True(t, ok)
		assert.Equal(t, TieredStats{L1Hits: 1, L2Hits: 1}, store.Stats())
	})

	t.Run("close logs hit counters", func(t *testing.T) {
		l2, _ := newMiniredisStore(t, 0)
		core, logs := observer.New(zapcore.InfoLevel)
		store := NewTieredProductPlantStore(NewInMemoryProductPlantStore(), l2, zap.New(core))

		_, ok, err := store.Get(ctx, key)
		require.NoError(t, err)
		assert.False(t, ok)
		require.NoError(t, store.Close())

		entries := logs.FilterMessage("product plant cache closed").All()
		require.Len(t, entries, 1)
		fields := entries[0].ContextMap()
		assert.Equal(t, int64(1), fields["misses"])
		assert.Equal(t, int64(0), fields["l1_hits"])
	})

	t.Run("L2 outage degrades to L1", func(t *testing.T) {
		l2, mr := newMiniredisStore(t, 0)
		store := NewTieredProductPlantStore(NewInMemoryProductPlantStore(), l2, nil)
		mr.Close()

		require.NoError(t, store.Put(ctx, key, nil))
		_, ok, err := store.Get(ctx, key)
		require.NoError(t, err)
		assert.True(t, ok)

		_, ok, err = store.Get(ctx, billing.ProductPlantKey{Product: "P-9", Plant: "1000"})
		require.NoError(t, err)
		assert.False(t, ok)
	})
}

func TestProductPlantStoreFactory_CreateStore(t *testing.T) {
	t.Run("memory backend", func(t *testing.T) {
		f := NewProductPlantStoreFactory(config.CacheConfig{Backend: BackendMemory}, config.RedisConfig{})
		store, err := f.CreateStore()
		require.NoError(t, err)
		assert.IsType(t, &InMemoryProductPlantStore{}, store)
	})

	t.Run("redis backend", func(t *testing.T) {
		mr := miniredis.RunT(t)
		f := NewProductPlantStoreFactory(config.CacheConfig{Backend: BackendRedis},
			config.RedisConfig{Host: mr.Host(), Port: mustPort(t, mr)})
		store, err := f.CreateStore()
		require.NoError(t, err)
		assert.IsType(t, &RedisProductPlantStore{}, store)
		_ = store.(*RedisProductPlantStore).Close()
	})

	t.Run("tiered backend", func(t *testing.T) {
		mr := miniredis.RunT(t)
		f := NewProductPlantStoreFactory(config.CacheConfig{Backend: BackendTiered},
			config.RedisConfig{Host: mr.Host(), Port: mustPort(t, mr)})
		store, err := f.CreateStore()
		require.NoError(t, err)
		assert.IsType(t, &TieredProductPlantStore{}, store)
		_ = store.(*TieredProductPlantStore).Close()
	})

	t.Run("falls back to memory when redis is down", func(t *testing.T) {
		f := NewProductPlantStoreFactory(config.CacheConfig{Backend: BackendRedis, AllowInMemoryFallback: true},
			config.RedisConfig{Host: "127.0.0.1", Port: 1})
		store, err := f.CreateStore()
		require.NoError(t, err)
		assert.IsType(t, &InMemoryProductPlantStore{}, store)
	})

	t.Run("fails without fallback", func(t *testing.T) {
		f := NewProductPlantStoreFactory(config.CacheConfig{Backend: BackendRedis},
			config.RedisConfig{Host: "127.0.0.1", Port: 1})
		_, err := f.CreateStore()
		assert.Error(t, err)
	})

	t.Run("unknown backend", func(t *testing.T) {
		f := NewProductPlantStoreFactory(config.CacheConfig{Backend: "memcached"}, config.RedisConfig{})
		_, err := f.CreateStore()
		assert.Error(t, err)
	})
}

func mustPort(t *testing.T, mr *miniredis.Miniredis) int {
	t.Helper()
	port, err := strconv.Atoi(mr.Port())
	require.NoError(t, err)
	return port
}
