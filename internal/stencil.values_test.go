package internal

import (
	"errors"
	"iter"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStringify(t *testing.T) {
	tests := []struct {
		name     string
		value    any
		expected string
	}{
		{"nil is empty", nil, ""},
		{"string", "abc", "abc"},
		{"bytes", []byte("raw"), "raw"},
		{"int", 42, "42"},
		{"int64", int64(-7), "-7"},
		{"float", 1.5, "1.5"},
		{"whole float", 2.0, "2"},
		{"float32", float32(0.25), "0.25"},
		{"bool", true, "true"},
		{"error", errors.New("bad"), "bad"},
		{"stringer", time.Duration(0), "0s"},
		{"slice", []int{1, 2}, "[1 2]"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, Stringify(tt.value))
		})
	}
}

func TestTruthy(t *testing.T) {
	var nilPtr *int
	one := 1

	tests := []struct {
		name     string
		value    any
		expected bool
	}{
		{"nil", nil, false},
		{"true", true, true},
		{"false", false, false},
		{"empty string", "", false},
		{"string", "x", true},
		{"zero int", 0, false},
		{"int", 3, true},
		{"zero uint", uint8(0), false},
		{"zero float", 0.0, false},
		{"float", 0.1, true},
		{"empty slice", []int{}, false},
		{"slice", []int{1}, true},
		{"empty map", map[string]any{}, false},
		{"nil pointer", nilPtr, false},
		{"pointer", &one, true},
		{"struct", struct{}{}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, Truthy(tt.value))
		})
	}
}

func drain(seq iter.Seq[any]) []any {
	var out []any
	for v := range seq {
		out = append(out, v)
	}
	return out
}

func TestIterate(t *testing.T) {
	tests := []struct {
		name     string
		value    any
		expected []any
	}{
		{"nil is empty", nil, nil},
		{"any slice", []any{1, "a"}, []any{1, "a"}},
		{"typed slice", []int{10, 20}, []any{10, 20}},
		{"array", [2]string{"x", "y"}, []any{"x", "y"}},
		{"string by character", "hé", []any{"h", "é"}},
		{"map by sorted key", map[string]int{"b": 2, "a": 1}, []any{"a", "b"}},
		{"pointer to slice", &[]int{1}, []any{1}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			seq, ok := Iterate(tt.value)
			require.True(t, ok)
			assert.Equal(t, tt.expected, drain(seq))
		})
	}

	t.Run("sequence passes through", func(t *testing.T) {
		var src iter.Seq[any] = func(yield func(any) bool) {
			for i := 0; i < 3; i++ {
				if !yield(i) {
					return
				}
			}
		}
		seq, ok := Iterate(src)
		require.True(t, ok)
		assert.Equal(t, []any{0, 1, 2}, drain(seq))
	})

	t.Run("early stop", func(t *testing.T) {
		seq, _ := Iterate([]int{1, 2, 3})
		var seen []any
		for v := range seq {
			seen = append(seen, v)
			break
		}
		assert.Equal(t, []any{1}, seen)
	})

	t.Run("not iterable", func(t *testing.T) {
		_, ok := Iterate(42)
		assert.False(t, ok)
	})
}
