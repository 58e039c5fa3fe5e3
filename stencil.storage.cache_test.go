package stencil

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

// countingStorage counts Get calls reaching the wrapped storage.
type countingStorage struct {
	TemplateStorage
	gets atomic.Int32
}

func (s *countingStorage) Get(ctx context.Context, name string) (*StoredTemplate, error) {
	s.gets.Add(1)
	return s.TemplateStorage.Get(ctx, name)
}

func newCountingStorage(t *testing.T, templates map[string]string) *countingStorage {
	t.Helper()
	mem := NewMemoryStorage()
	for name, src := range templates {
		require.NoError(t, mem.Save(context.Background(), &StoredTemplate{Name: name, Source: src}))
	}
	return &countingStorage{TemplateStorage: mem}
}

func TestCachedStorage(t *testing.T) {
	testStorageConformance(t, func(t *testing.T) TemplateStorage {
		return NewCachedStorage(NewMemoryStorage(), DefaultCacheConfig(), nil)
	})
}

func TestCachedStorage_Hit(t *testing.T) {
	ctx := context.Background()
	core, logs := observer.New(zapcore.DebugLevel)
	inner := newCountingStorage(t, map[string]string{"a": "A"})
	cache := NewCachedStorage(inner, DefaultCacheConfig(), zap.New(core))

	for i := 0; i < 3; i++ {
		got, err := cache.Get(ctx, "a")
		require.NoError(t, err)
		assert.Equal(t, "A", got.Source)
	}
	assert.Equal(t, int32(1), inner.gets.Load())
	assert.Equal(t, 1, logs.FilterMessage(LogMsgCacheMiss).Len())
	assert.Equal(t, 2, logs.FilterMessage(LogMsgCacheHit).Len())
}

func TestCachedStorage_TTL(t *testing.T) {
	ctx := context.Background()
	inner := newCountingStorage(t, map[string]string{"a": "A"})
	cache := NewCachedStorage(inner, CacheConfig{TTL: time.Millisecond}, nil)

	_, err := cache.Get(ctx, "a")
	require.NoError(t, err)
	time.Sleep(5 * time.Millisecond)
	_, err = cache.Get(ctx, "a")
	require.NoError(t, err)
	assert.Equal(t, int32(2), inner.gets.Load())
}

func TestCachedStorage_NegativeCaching(t *testing.T) {
	ctx := context.Background()

	t.Run("enabled", func(t *testing.T) {
		inner := newCountingStorage(t, nil)
		cache := NewCachedStorage(inner, DefaultCacheConfig(), nil)
		for i := 0; i < 2; i++ {
			_, err := cache.Get(ctx, "missing")
			assert.True(t, IsNotFound(err))
		}
		assert.Equal(t, int32(1), inner.gets.Load())
		assert.Equal(t, 1, cache.Stats().NegativeEntries)

		exists, err := cache.Exists(ctx, "missing")
		require.NoError(t, err)
		assert.False(t, exists)
	})

	t.Run("disabled", func(t *testing.T) {
		inner := newCountingStorage(t, nil)
		cache := NewCachedStorage(inner, CacheConfig{NegativeCacheTTL: 0}, nil)
		for i := 0; i < 2; i++ {
			_, _ = cache.Get(ctx, "missing")
		}
		assert.Equal(t, int32(2), inner.gets.Load())
	})

	t.Run("save clears negative entry", func(t *testing.T) {
		cache := NewCachedStorage(NewMemoryStorage(), DefaultCacheConfig(), nil)
		_, err := cache.Get(ctx, "late")
		require.True(t, IsNotFound(err))

		require.NoError(t, cache.Save(ctx, &StoredTemplate{Name: "late", Source: "here"}))
		got, err := cache.Get(ctx, "late")
		require.NoError(t, err)
		assert.Equal(t, "here", got.Source)
	})
}

func TestCachedStorage_Eviction(t *testing.T) {
	ctx := context.Background()
	core, logs := observer.New(zapcore.DebugLevel)
	inner := newCountingStorage(t, map[string]string{"a": "A", "b": "B", "c": "C"})
	cache := NewCachedStorage(inner, CacheConfig{MaxEntries: 2}, zap.New(core))

	for _, name := range []string{"a", "b", "c"} {
		_, err := cache.Get(ctx, name)
		require.NoError(t, err)
		time.Sleep(time.Millisecond)
	}
	assert.Equal(t, 2, cache.Stats().Entries)
	assert.Equal(t, 1, logs.FilterMessage(LogMsgCacheEvict).Len())

	_, err := cache.Get(ctx, "a")
	require.NoError(t, err)
	assert.Equal(t, int32(4), inner.gets.Load())
}

func TestCachedStorage_Invalidate(t *testing.T) {
	ctx := context.Background()
	inner := newCountingStorage(t, map[string]string{"a": "A", "b": "B"})
	cache := NewCachedStorage(inner, DefaultCacheConfig(), nil)

	_, _ = cache.Get(ctx, "a")
	_, _ = cache.Get(ctx, "b")
	cache.Invalidate("a")
	assert.Equal(t, 1, cache.Stats().Entries)

	cache.InvalidateAll()
	assert.Equal(t, 0, cache.Stats().Entries)
	assert.Same(t, inner, cache.Unwrap())
}
