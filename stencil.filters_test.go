package stencil

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultFilters(t *testing.T) {
	filters := DefaultFilters()
	assert.Equal(t, []string{
		"capitalize", "escape", "first", "join", "json", "last", "length", "lower",
		"reverse", "sort", "string", "title", "trim", "upper", "urlencode", "yaml",
	}, filters.Names())

	delete(filters, "upper")
	assert.Contains(t, DefaultFilters(), "upper")
}

func TestFilterMap_Merge(t *testing.T) {
	base := FilterMap{"a": func(v any) (any, error) { return "a", nil }}
	over := FilterMap{
		"a": func(v any) (any, error) { return "override", nil },
		"b": func(v any) (any, error) { return "b", nil },
	}

	merged := base.Merge(over)
	require.Len(t, merged, 2)
	got, err := merged["a"](nil)
	require.NoError(t, err)
	assert.Equal(t, "override", got)
	assert.Len(t, base, 1)
}

func TestRender_BuiltinFilters(t *testing.T) {
	data := map[string]any{
		"name":  "ada lovelace",
		"nums":  []any{3, "b", 1, "a"},
		"tags":  []string{"x", "y"},
		"query": "a b&c",
		"obj":   map[string]any{"k": 1},
	}

	tests := []struct {
		expr string
		want string
	}{
		{"name|title", "Ada Lovelace"},
		{"name|length", "12"},
		{"nums|sort|join", "1, 3, a, b"},
		{"tags|first", "x"},
		{"tags|last|upper", "Y"},
		{"query|urlencode", "a+b%26c"},
		{"obj|json", `{"k":1}`},
		{"obj|yaml", "k: 1"},
		{"missing|first", ""},
	}

	for _, tt := range tests {
		t.Run(tt.expr, func(t *testing.T) {
			assert.Equal(t, tt.want, render(t, "{{ "+tt.expr+" }}", data))
		})
	}
}
