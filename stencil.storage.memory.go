package stencil

import (
	"context"
	"sort"
	"sync"
	"time"
)

// MemoryStorage keeps templates in a map. Useful for tests and for
// registering templates programmatically.
type MemoryStorage struct {
	mu        sync.RWMutex
	templates map[string]*StoredTemplate
	closed    bool
}

// MemoryStorageDriver creates MemoryStorage instances.
type MemoryStorageDriver struct{}

func init() {
	RegisterStorageDriver(StorageDriverNameMemory, &MemoryStorageDriver{})
}

// Open creates a new MemoryStorage. The connection string is ignored.
func (d *MemoryStorageDriver) Open(string) (TemplateStorage, error) {
	return NewMemoryStorage(), nil
}

// NewMemoryStorage creates an empty in-memory storage.
func NewMemoryStorage() *MemoryStorage {
	return &MemoryStorage{templates: make(map[string]*StoredTemplate)}
}

// Get retrieves a template by name.
func (s *MemoryStorage) Get(ctx context.Context, name string) (*StoredTemplate, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.closed {
		return nil, NewStorageClosedError()
	}
	tmpl, ok := s.templates[name]
	if !ok {
		return nil, NewTemplateNotFoundError(name)
	}
	return copyStoredTemplate(tmpl), nil
}

// Save creates or replaces a template.
func (s *MemoryStorage) Save(ctx context.Context, tmpl *StoredTemplate) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := ValidateTemplateName(tmpl.Name); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return NewStorageClosedError()
	}

	now := time.Now()
	stored := copyStoredTemplate(tmpl)
	stored.Version = 1
	stored.CreatedAt = now
	stored.UpdatedAt = now
	if prev, ok := s.templates[tmpl.Name]; ok {
		stored.Version = prev.Version + 1
		stored.CreatedAt = prev.CreatedAt
	}
	s.templates[tmpl.Name] = stored

	tmpl.Version = stored.Version
	tmpl.CreatedAt = stored.CreatedAt
	tmpl.UpdatedAt = stored.UpdatedAt
	return nil
}

// Delete removes a template.
func (s *MemoryStorage) Delete(ctx context.Context, name string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return NewStorageClosedError()
	}
	if _, ok := s.templates[name]; !ok {
		return NewTemplateNotFoundError(name)
	}
	delete(s.templates, name)
	return nil
}

// List returns templates matching the query ordered by name.
func (s *MemoryStorage) List(ctx context.Context, query *TemplateQuery) ([]*StoredTemplate, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.closed {
		return nil, NewStorageClosedError()
	}

	result := make([]*StoredTemplate, 0, len(s.templates))
	for _, tmpl := range s.templates {
		result = append(result, copyStoredTemplate(tmpl))
	}
	sort.Slice(result, func(i, j int) bool { return result[i].Name < result[j].Name })
	return applyQuery(result, query), nil
}

// Exists reports whether the template exists.
func (s *MemoryStorage) Exists(ctx context.Context, name string) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.closed {
		return false, NewStorageClosedError()
	}
	_, ok := s.templates[name]
	return ok, nil
}

// Close marks the storage closed and drops its contents.
func (s *MemoryStorage) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.closed = true
	s.templates = nil
	return nil
}
