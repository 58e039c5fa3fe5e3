package stencil

import (
	"sort"

	"github.com/itsatony/go-stencil/internal"
)

// Filter is a named unary function applied in an expression's filter chain.
type Filter func(value any) (any, error)

// FilterMap maps filter names to filters.
type FilterMap map[string]Filter

// DefaultFilters returns a fresh map of the built-in filters: upper, lower,
// title, capitalize, trim, reverse, length, first, last, join, sort, escape,
// urlencode, json, yaml and string.
func DefaultFilters() FilterMap {
	builtins := internal.BuiltinFilters()
	filters := make(FilterMap, len(builtins))
	for name, fn := range builtins {
		filters[name] = Filter(fn)
	}
	return filters
}

// Names returns the filter names in sorted order.
func (m FilterMap) Names() []string {
	names := make([]string, 0, len(m))
	for name := range m {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Merge returns a new map holding m's filters overridden by other's.
func (m FilterMap) Merge(other FilterMap) FilterMap {
	merged := make(FilterMap, len(m)+len(other))
	for name, fn := range m {
		merged[name] = fn
	}
	for name, fn := range other {
		merged[name] = fn
	}
	return merged
}
