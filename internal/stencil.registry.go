package internal

import (
	"fmt"
	"sort"
	"sync"

	"go.uber.org/zap"
)

// Registry is a named, thread-safe table of entries with last-registration-wins
// semantics. It backs the tag, extension and storage driver tables.
type Registry[T any] struct {
	kind    string
	entries map[string]T
	mu      sync.RWMutex
	logger  *zap.Logger
}

// NewRegistry creates an empty registry. kind names the registry in logs and errors.
func NewRegistry[T any](kind string, logger *zap.Logger) *Registry[T] {
	if logger == nil {
		logger = zap.NewNop()
	}
	logger.Debug(LogMsgRegistryCreated, zap.String(LogFieldRegistry, kind))
	return &Registry[T]{
		kind:    kind,
		entries: make(map[string]T),
		logger:  logger,
	}
}

// Register binds entry to name, replacing any earlier binding.
// It returns true when an existing entry was replaced.
func (r *Registry[T]) Register(name string, entry T) (bool, error) {
	if name == "" {
		return false, NewRegistryError(ErrMsgEmptyName, r.kind, "")
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	_, replaced := r.entries[name]
	r.entries[name] = entry
	if replaced {
		r.logger.Debug(LogMsgEntryReplaced,
			zap.String(LogFieldRegistry, r.kind),
			zap.String(LogFieldName, name))
	} else {
		r.logger.Debug(LogMsgEntryRegistered,
			zap.String(LogFieldRegistry, r.kind),
			zap.String(LogFieldName, name))
	}
	return replaced, nil
}

// MustRegister binds entry to name and panics if the name is invalid.
// Use this for built-ins that must always be available.
func (r *Registry[T]) MustRegister(name string, entry T) {
	if _, err := r.Register(name, entry); err != nil {
		panic(err)
	}
}

// Get retrieves an entry by name.
func (r *Registry[T]) Get(name string) (T, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	entry, ok := r.entries[name]
	return entry, ok
}

// Has checks if an entry is registered under name.
func (r *Registry[T]) Has(name string) bool {
	_, ok := r.Get(name)
	return ok
}

// List returns all registered names in sorted order.
func (r *Registry[T]) List() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	names := make([]string, 0, len(r.entries))
	for name := range r.entries {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Count returns the number of registered entries.
func (r *Registry[T]) Count() int {
	r.mu.RLock()
	defer r.mu.RUnlock()

	return len(r.entries)
}

// Clone returns an independent copy of the registry.
func (r *Registry[T]) Clone() *Registry[T] {
	r.mu.RLock()
	defer r.mu.RUnlock()

	clone := &Registry[T]{
		kind:    r.kind,
		entries: make(map[string]T, len(r.entries)),
		logger:  r.logger,
	}
	for name, entry := range r.entries {
		clone.entries[name] = entry
	}
	return clone
}

// RegistryError represents a registry operation error
type RegistryError struct {
	Message string
	Kind    string
	Name    string
}

// NewRegistryError creates a new registry error
func NewRegistryError(message, kind, name string) *RegistryError {
	return &RegistryError{
		Message: message,
		Kind:    kind,
		Name:    name,
	}
}

// Error implements the error interface
func (e *RegistryError) Error() string {
	if e.Name != StringValueEmpty {
		return fmt.Sprintf("%s registry: %s: %s", e.Kind, e.Message, e.Name)
	}
	return fmt.Sprintf("%s registry: %s", e.Kind, e.Message)
}

// Registry error message constants
const (
	ErrMsgEmptyName = "name cannot be empty"
)
