package stencil

import (
	"go.uber.org/zap"
)

// Option is a functional option for configuring template compilation and engines.
type Option func(*config)

// config holds the settings shared by Compile and Engine.
type config struct {
	name         string
	loader       Loader
	filters      FilterMap
	defaultValue any
	maxDepth     int
	tags         *TagRegistry
	storage      TemplateStorage
	cache        CacheConfig
	logger       *zap.Logger
}

// defaultConfig returns the default configuration.
func defaultConfig() *config {
	return &config{
		filters:  DefaultFilters(),
		maxDepth: DefaultMaxDepth,
		cache:    DefaultCacheConfig(),
	}
}

func newConfig(opts []Option) *config {
	cfg := defaultConfig()
	for _, opt := range opts {
		opt(cfg)
	}
	if cfg.logger == nil {
		cfg.logger = zap.NewNop()
	}
	if cfg.tags == nil {
		cfg.tags = DefaultTagRegistry()
	}
	if cfg.filters == nil {
		cfg.filters = FilterMap{}
	}
	return cfg
}

// WithName names the template in logs and error metadata.
func WithName(name string) Option {
	return func(c *config) {
		c.name = name
	}
}

// WithLoader binds the loader used by include tags. Templates using include
// cannot be compiled without one.
func WithLoader(loader Loader) Option {
	return func(c *config) {
		c.loader = loader
	}
}

// WithFilters replaces the filter map used when rendering from plain data.
// Default: DefaultFilters()
func WithFilters(filters FilterMap) Option {
	return func(c *config) {
		c.filters = filters
	}
}

// WithDefault sets the value an unresolvable expression evaluates to.
// Default: nil, which renders as the empty string.
func WithDefault(value any) Option {
	return func(c *config) {
		c.defaultValue = value
	}
}

// WithMaxDepth bounds include nesting. Use 0 for unlimited depth.
// Default: 16
func WithMaxDepth(depth int) Option {
	return func(c *config) {
		c.maxDepth = depth
	}
}

// WithTagRegistry compiles against the given tag registry instead of the
// process-wide default.
func WithTagRegistry(tags *TagRegistry) Option {
	return func(c *config) {
		c.tags = tags
	}
}

// WithStorage sets the template source storage used by an Engine.
// Default: a new MemoryStorage.
func WithStorage(storage TemplateStorage) Option {
	return func(c *config) {
		c.storage = storage
	}
}

// WithCacheConfig configures an Engine's compiled template cache.
// Default: DefaultCacheConfig()
func WithCacheConfig(cache CacheConfig) Option {
	return func(c *config) {
		c.cache = cache
	}
}

// WithLogger sets the logger.
// Default: nil (no logging)
func WithLogger(logger *zap.Logger) Option {
	return func(c *config) {
		c.logger = logger
	}
}
