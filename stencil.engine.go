package stencil

import (
	"context"
	"io"
	"sync"

	"go.uber.org/zap"
)

// Engine loads template sources from a TemplateStorage, compiles them and
// renders them by name. It is the Loader for every template it compiles, so
// include tags resolve against the same storage.
//
// Sources are read through a CachedStorage; compiled templates are memoized
// per name while the stored source is unchanged.
type Engine struct {
	config  *config
	storage *CachedStorage
	logger  *zap.Logger

	mu       sync.RWMutex
	compiled map[string]*compiledEntry
}

type compiledEntry struct {
	template *Template
	source   string
}

// NewEngine creates an Engine. Without WithStorage templates live in a new
// MemoryStorage.
func NewEngine(opts ...Option) (*Engine, error) {
	cfg := newConfig(opts)
	storage := cfg.storage
	if storage == nil {
		storage = NewMemoryStorage()
	}

	e := &Engine{
		config:   cfg,
		storage:  NewCachedStorage(storage, cfg.cache, cfg.logger),
		logger:   cfg.logger,
		compiled: make(map[string]*compiledEntry),
	}
	cfg.loader = e

	e.logger.Debug(LogMsgEngineCreated,
		zap.Int(LogFieldDepth, cfg.maxDepth),
		zap.Int(LogFieldEntries, e.storage.config.MaxEntries))
	return e, nil
}

// MustNewEngine is like NewEngine but panics on error.
func MustNewEngine(opts ...Option) *Engine {
	e, err := NewEngine(opts...)
	if err != nil {
		panic(err)
	}
	return e
}

// NewFilesystemEngine creates an Engine reading templates from an ordered
// list of directories; earlier directories shadow later ones.
func NewFilesystemEngine(paths []string, opts ...Option) (*Engine, error) {
	storage, err := NewFilesystemStorage(paths...)
	if err != nil {
		return nil, err
	}
	return NewEngine(append(opts, WithStorage(storage))...)
}

// Load returns the compiled template stored under name. It implements Loader.
func (e *Engine) Load(ctx context.Context, name string) (*Template, error) {
	stored, err := e.storage.Get(ctx, name)
	if err != nil {
		return nil, err
	}

	e.mu.RLock()
	entry, ok := e.compiled[name]
	e.mu.RUnlock()
	if ok && entry.source == stored.Source {
		return entry.template, nil
	}

	tmpl, err := compile(name, stored.Source, e.config)
	if err != nil {
		return nil, err
	}

	e.mu.Lock()
	if _, exists := e.compiled[name]; !exists && len(e.compiled) >= e.storage.config.MaxEntries {
		for evict := range e.compiled {
			delete(e.compiled, evict)
			break
		}
	}
	e.compiled[name] = &compiledEntry{template: tmpl, source: stored.Source}
	e.mu.Unlock()
	return tmpl, nil
}

// Compile compiles an anonymous template with the engine's configuration.
// Its include tags load from the engine.
func (e *Engine) Compile(source string) (*Template, error) {
	return compile(StringValueEmpty, source, e.config)
}

// Render loads the named template and renders it against data.
func (e *Engine) Render(ctx context.Context, name string, data map[string]any) (string, error) {
	tmpl, err := e.Load(ctx, name)
	if err != nil {
		return StringValueEmpty, err
	}
	return tmpl.Render(ctx, data)
}

// Execute loads the named template and renders it against data into w.
func (e *Engine) Execute(ctx context.Context, w io.Writer, name string, data map[string]any) error {
	tmpl, err := e.Load(ctx, name)
	if err != nil {
		return err
	}
	return tmpl.Execute(ctx, w, data)
}

// Save compiles tmpl.Source and stores it when it compiles. Version and
// timestamps are written back to tmpl.
func (e *Engine) Save(ctx context.Context, tmpl *StoredTemplate) error {
	if _, err := compile(tmpl.Name, tmpl.Source, e.config); err != nil {
		return err
	}
	if err := e.storage.Save(ctx, tmpl); err != nil {
		return err
	}
	e.forget(tmpl.Name)

	e.logger.Debug(LogMsgStorageSave,
		zap.String(LogFieldTemplate, tmpl.Name),
		zap.Int(LogFieldVersion, tmpl.Version))
	return nil
}

// Put is shorthand for Save with only a name and source.
func (e *Engine) Put(ctx context.Context, name, source string) error {
	return e.Save(ctx, &StoredTemplate{Name: name, Source: source})
}

// Get returns the stored source of a template.
func (e *Engine) Get(ctx context.Context, name string) (*StoredTemplate, error) {
	return e.storage.Get(ctx, name)
}

// Delete removes a template from storage and the caches.
func (e *Engine) Delete(ctx context.Context, name string) error {
	if err := e.storage.Delete(ctx, name); err != nil {
		return err
	}
	e.forget(name)

	e.logger.Debug(LogMsgStorageDelete, zap.String(LogFieldTemplate, name))
	return nil
}

// List returns stored templates matching query.
func (e *Engine) List(ctx context.Context, query *TemplateQuery) ([]*StoredTemplate, error) {
	return e.storage.List(ctx, query)
}

// Invalidate drops one name from the source and compiled caches, e.g. after
// the backing storage was changed by another process.
func (e *Engine) Invalidate(name string) {
	e.storage.Invalidate(name)
	e.forget(name)
}

// InvalidateAll clears the source and compiled caches.
func (e *Engine) InvalidateAll() {
	e.storage.InvalidateAll()

	e.mu.Lock()
	e.compiled = make(map[string]*compiledEntry)
	e.mu.Unlock()
}

// CacheStats reports the source cache occupancy.
func (e *Engine) CacheStats() CacheStats {
	return e.storage.Stats()
}

// Storage returns the underlying, uncached storage.
func (e *Engine) Storage() TemplateStorage {
	return e.storage.Unwrap()
}

// Filters returns the filters templates compiled by the engine render with.
func (e *Engine) Filters() FilterMap {
	return e.config.filters
}

// Tags returns the tag registry the engine compiles against.
func (e *Engine) Tags() *TagRegistry {
	return e.config.tags
}

// Close closes the storage.
func (e *Engine) Close() error {
	e.mu.Lock()
	e.compiled = make(map[string]*compiledEntry)
	e.mu.Unlock()

	err := e.storage.Close()
	e.logger.Debug(LogMsgStorageClosed)
	return err
}

func (e *Engine) forget(name string) {
	e.mu.Lock()
	delete(e.compiled, name)
	e.mu.Unlock()
}
