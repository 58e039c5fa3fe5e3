package stencil

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"
	"unicode/utf8"
)

// Storage driver names
const (
	StorageDriverNameMemory     = "memory"
	StorageDriverNameFilesystem = "filesystem"
	StorageDriverNameSQLite     = "sqlite"
	StorageDriverNamePostgres   = "postgres"
)

// MaxTemplateNameLength bounds template names in every storage.
const MaxTemplateNameLength = 255

// Template name validation reasons
const (
	ReasonEmptyName       = "name cannot be empty"
	ReasonNameTooLong     = "name is too long"
	ReasonPathTraversal   = "name cannot contain '..'"
	ReasonAbsolutePath    = "name cannot start with '/'"
	ReasonInvalidChars    = "name contains invalid characters"
	ReasonInvalidEncoding = "name is not valid UTF-8"
)

// invalidNameChars may not appear in template names.
const invalidNameChars = "\\:*?\"<>|\x00"

// StoredTemplate is template source held by a storage backend.
type StoredTemplate struct {
	// Name is the lookup key, e.g. "partials/header.html".
	Name string `json:"name" yaml:"name"`

	// Source is the raw template source.
	Source string `json:"source" yaml:"source"`

	// Version counts saves under this name, starting at 1.
	Version int `json:"version" yaml:"version"`

	// Metadata holds arbitrary user-defined key-value pairs.
	Metadata map[string]string `json:"metadata,omitempty" yaml:"metadata,omitempty"`

	// CreatedAt is when the name was first saved.
	CreatedAt time.Time `json:"created_at" yaml:"created_at"`

	// UpdatedAt is when the source was last saved.
	UpdatedAt time.Time `json:"updated_at" yaml:"updated_at"`
}

// TemplateQuery filters List results.
type TemplateQuery struct {
	// NamePrefix keeps names starting with this prefix.
	NamePrefix string

	// Limit is the maximum number of results (0 = no limit).
	Limit int

	// Offset is the number of results to skip.
	Offset int
}

// TemplateStorage is the interface for template source backends.
// Implementations must be safe for concurrent use.
type TemplateStorage interface {
	// Get retrieves a template by name. Returns ErrTemplateNotFound if absent.
	Get(ctx context.Context, name string) (*StoredTemplate, error)

	// Save creates or replaces a template. Version, CreatedAt and UpdatedAt
	// are set by the storage and written back to tmpl.
	Save(ctx context.Context, tmpl *StoredTemplate) error

	// Delete removes a template. Returns ErrTemplateNotFound if absent.
	Delete(ctx context.Context, name string) error

	// List returns templates matching the query ordered by name.
	List(ctx context.Context, query *TemplateQuery) ([]*StoredTemplate, error)

	// Exists reports whether a template with the given name exists.
	Exists(ctx context.Context, name string) (bool, error)

	// Close releases resources. The storage must not be used afterwards.
	Close() error
}

// StorageDriver is a factory for storage instances, registered by name.
type StorageDriver interface {
	// Open creates a storage from a driver-specific connection string.
	Open(connectionString string) (TemplateStorage, error)
}

// Storage driver registry
var (
	storageDriversMu sync.RWMutex
	storageDrivers   = make(map[string]StorageDriver)
)

// RegisterStorageDriver registers a storage driver by name, typically from
// an init function. Panics if the driver is nil or the name is taken.
func RegisterStorageDriver(name string, driver StorageDriver) {
	storageDriversMu.Lock()
	defer storageDriversMu.Unlock()

	if driver == nil {
		panic(ErrMsgNilStorageDriver)
	}
	if _, exists := storageDrivers[name]; exists {
		panic(ErrMsgDriverAlreadyRegistered + ": " + name)
	}
	storageDrivers[name] = driver
}

// ErrMsgDriverAlreadyRegistered is the panic message for duplicate drivers.
const ErrMsgDriverAlreadyRegistered = "storage driver already registered"

// OpenStorage opens a storage using the named driver.
//
//	storage, err := stencil.OpenStorage("memory", "")
//	storage, err := stencil.OpenStorage("filesystem", "./templates:./shared")
//	storage, err := stencil.OpenStorage("sqlite", "file:templates.db")
func OpenStorage(driverName, connectionString string) (TemplateStorage, error) {
	storageDriversMu.RLock()
	driver, ok := storageDrivers[driverName]
	storageDriversMu.RUnlock()

	if !ok {
		return nil, NewStorageDriverNotFoundError(driverName, ListStorageDrivers())
	}
	return driver.Open(connectionString)
}

// ListStorageDrivers returns the registered driver names in sorted order.
func ListStorageDrivers() []string {
	storageDriversMu.RLock()
	defer storageDriversMu.RUnlock()

	names := make([]string, 0, len(storageDrivers))
	for name := range storageDrivers {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// ValidateTemplateName checks a name is safe for every storage, including
// filesystem paths: non-empty, bounded, valid UTF-8, relative and free of
// path traversal and reserved characters.
func ValidateTemplateName(name string) error {
	switch {
	case name == StringValueEmpty:
		return NewInvalidTemplateNameError(name, ReasonEmptyName)
	case len(name) > MaxTemplateNameLength:
		return NewInvalidTemplateNameError(name, ReasonNameTooLong)
	case !utf8.ValidString(name):
		return NewInvalidTemplateNameError(name, ReasonInvalidEncoding)
	case strings.HasPrefix(name, "/"):
		return NewInvalidTemplateNameError(name, ReasonAbsolutePath)
	case strings.Contains(name, ".."):
		return NewInvalidTemplateNameError(name, ReasonPathTraversal)
	case strings.ContainsAny(name, invalidNameChars):
		return NewInvalidTemplateNameError(name, ReasonInvalidChars)
	}
	return nil
}

// applyQuery filters a name-ordered list by prefix, offset and limit.
func applyQuery(templates []*StoredTemplate, query *TemplateQuery) []*StoredTemplate {
	if query == nil {
		return templates
	}
	filtered := templates[:0:0]
	for _, t := range templates {
		if strings.HasPrefix(t.Name, query.NamePrefix) {
			filtered = append(filtered, t)
		}
	}
	if query.Offset > 0 {
		if query.Offset >= len(filtered) {
			return []*StoredTemplate{}
		}
		filtered = filtered[query.Offset:]
	}
	if query.Limit > 0 && len(filtered) > query.Limit {
		filtered = filtered[:query.Limit]
	}
	return filtered
}

// copyStoredTemplate returns a deep copy so callers cannot mutate storage state.
func copyStoredTemplate(tmpl *StoredTemplate) *StoredTemplate {
	if tmpl == nil {
		return nil
	}
	cp := *tmpl
	if tmpl.Metadata != nil {
		cp.Metadata = make(map[string]string, len(tmpl.Metadata))
		for k, v := range tmpl.Metadata {
			cp.Metadata[k] = v
		}
	}
	return &cp
}
