package stencil

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"
)

// CacheConfig configures CachedStorage.
type CacheConfig struct {
	// TTL is how long cached entries remain valid. Default: 5 minutes.
	TTL time.Duration

	// MaxEntries bounds the cache; the least recently read entry is evicted
	// first. Default: 1000.
	MaxEntries int

	// NegativeCacheTTL is how long "not found" results are cached.
	// 0 disables negative caching. Default: 30 seconds.
	NegativeCacheTTL time.Duration
}

// DefaultCacheConfig returns the default caching configuration.
func DefaultCacheConfig() CacheConfig {
	return CacheConfig{
		TTL:              DefaultCacheTTL,
		MaxEntries:       DefaultCacheMaxEntries,
		NegativeCacheTTL: DefaultNegativeCacheTTL,
	}
}

// CacheStats is a snapshot of cache occupancy.
type CacheStats struct {
	Entries         int
	ValidEntries    int
	NegativeEntries int
}

// CachedStorage wraps any TemplateStorage with an in-memory read cache.
// Writes through the wrapper invalidate the affected name.
type CachedStorage struct {
	storage TemplateStorage
	config  CacheConfig
	logger  *zap.Logger

	mu     sync.Mutex
	cache  map[string]*cacheEntry
	closed bool
}

type cacheEntry struct {
	template   *StoredTemplate
	notFound   bool
	cachedAt   time.Time
	accessedAt time.Time
}

// NewCachedStorage wraps storage with caching. Zero TTL and MaxEntries take
// the defaults.
func NewCachedStorage(storage TemplateStorage, config CacheConfig, logger *zap.Logger) *CachedStorage {
	if config.TTL == 0 {
		config.TTL = DefaultCacheTTL
	}
	if config.MaxEntries == 0 {
		config.MaxEntries = DefaultCacheMaxEntries
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &CachedStorage{
		storage: storage,
		config:  config,
		logger:  logger,
		cache:   make(map[string]*cacheEntry),
	}
}

// Unwrap returns the underlying storage.
func (s *CachedStorage) Unwrap() TemplateStorage {
	return s.storage
}

// Get retrieves a template, serving it from the cache when fresh.
func (s *CachedStorage) Get(ctx context.Context, name string) (*StoredTemplate, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return nil, NewStorageClosedError()
	}
	if entry, ok := s.cache[name]; ok && s.isValid(entry) {
		entry.accessedAt = time.Now()
		s.mu.Unlock()

		s.logger.Debug(LogMsgCacheHit, zap.String(LogFieldTemplate, name))
		if entry.notFound {
			return nil, NewTemplateNotFoundError(name)
		}
		return copyStoredTemplate(entry.template), nil
	}
	s.mu.Unlock()

	s.logger.Debug(LogMsgCacheMiss, zap.String(LogFieldTemplate, name))
	tmpl, err := s.storage.Get(ctx, name)

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return nil, NewStorageClosedError()
	}
	if err != nil {
		if IsNotFound(err) && s.config.NegativeCacheTTL > 0 {
			s.addEntry(name, nil, true)
		}
		return nil, err
	}
	s.addEntry(name, tmpl, false)
	return copyStoredTemplate(tmpl), nil
}

// Save stores a template and invalidates its cache entry.
func (s *CachedStorage) Save(ctx context.Context, tmpl *StoredTemplate) error {
	if err := s.storage.Save(ctx, tmpl); err != nil {
		return err
	}
	s.Invalidate(tmpl.Name)
	return nil
}

// Delete removes a template and invalidates its cache entry.
func (s *CachedStorage) Delete(ctx context.Context, name string) error {
	if err := s.storage.Delete(ctx, name); err != nil {
		return err
	}
	s.Invalidate(name)
	return nil
}

// List bypasses the cache.
func (s *CachedStorage) List(ctx context.Context, query *TemplateQuery) ([]*StoredTemplate, error) {
	return s.storage.List(ctx, query)
}

// Exists answers from the cache when it holds a fresh entry.
func (s *CachedStorage) Exists(ctx context.Context, name string) (bool, error) {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return false, NewStorageClosedError()
	}
	if entry, ok := s.cache[name]; ok && s.isValid(entry) {
		s.mu.Unlock()
		return !entry.notFound, nil
	}
	s.mu.Unlock()

	return s.storage.Exists(ctx, name)
}

// Close drops the cache and closes the underlying storage.
func (s *CachedStorage) Close() error {
	s.mu.Lock()
	s.closed = true
	s.cache = nil
	s.mu.Unlock()

	return s.storage.Close()
}

// Invalidate removes one name from the cache.
func (s *CachedStorage) Invalidate(name string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.cache[name]; ok {
		delete(s.cache, name)
		s.logger.Debug(LogMsgCacheInvalidate, zap.String(LogFieldTemplate, name))
	}
}

// InvalidateAll clears the cache.
func (s *CachedStorage) InvalidateAll() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return
	}
	s.cache = make(map[string]*cacheEntry)
	s.logger.Debug(LogMsgCacheInvalidate)
}

// Stats returns cache statistics.
func (s *CachedStorage) Stats() CacheStats {
	s.mu.Lock()
	defer s.mu.Unlock()

	stats := CacheStats{Entries: len(s.cache)}
	for _, entry := range s.cache {
		if !s.isValid(entry) {
			continue
		}
		if entry.notFound {
			stats.NegativeEntries++
		} else {
			stats.ValidEntries++
		}
	}
	return stats
}

func (s *CachedStorage) isValid(entry *cacheEntry) bool {
	ttl := s.config.TTL
	if entry.notFound {
		ttl = s.config.NegativeCacheTTL
	}
	return time.Since(entry.cachedAt) < ttl
}

// addEntry caches a result, evicting first when full. Caller holds mu.
func (s *CachedStorage) addEntry(name string, tmpl *StoredTemplate, notFound bool) {
	if _, exists := s.cache[name]; !exists && len(s.cache) >= s.config.MaxEntries {
		s.evictOldest()
	}
	now := time.Now()
	s.cache[name] = &cacheEntry{
		template:   tmpl,
		notFound:   notFound,
		cachedAt:   now,
		accessedAt: now,
	}
}

// evictOldest removes the least recently read entry. Caller holds mu.
func (s *CachedStorage) evictOldest() {
	var (
		oldestName string
		oldest     *cacheEntry
	)
	for name, entry := range s.cache {
		if oldest == nil || entry.accessedAt.Before(oldest.accessedAt) {
			oldestName, oldest = name, entry
		}
	}
	if oldest != nil {
		delete(s.cache, oldestName)
		s.logger.Debug(LogMsgCacheEvict,
			zap.String(LogFieldTemplate, oldestName),
			zap.Int(LogFieldEntries, len(s.cache)))
	}
}
