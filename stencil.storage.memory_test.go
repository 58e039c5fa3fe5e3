package stencil

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryStorage(t *testing.T) {
	testStorageConformance(t, func(t *testing.T) TemplateStorage {
		return NewMemoryStorage()
	})
}

func TestMemoryStorage_GetReturnsCopy(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStorage()
	require.NoError(t, s.Save(ctx, &StoredTemplate{Name: "x", Source: "a", Metadata: map[string]string{"k": "v"}}))

	got, err := s.Get(ctx, "x")
	require.NoError(t, err)
	got.Source = "mutated"
	got.Metadata["k"] = "mutated"

	again, err := s.Get(ctx, "x")
	require.NoError(t, err)
	assert.Equal(t, "a", again.Source)
	assert.Equal(t, "v", again.Metadata["k"])
}
