package stencil

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// testStorageConformance runs the behaviour every TemplateStorage shares.
func testStorageConformance(t *testing.T, open func(t *testing.T) TemplateStorage) {
	t.Helper()
	ctx := context.Background()

	t.Run("save and get", func(t *testing.T) {
		s := open(t)
		tmpl := &StoredTemplate{Name: "greeting", Source: "Hi {{ name }}!", Metadata: map[string]string{"author": "amy"}}
		require.NoError(t, s.Save(ctx, tmpl))
		assert.Equal(t, 1, tmpl.Version)
		assert.False(t, tmpl.CreatedAt.IsZero())

		got, err := s.Get(ctx, "greeting")
		require.NoError(t, err)
		assert.Equal(t, "greeting", got.Name)
		assert.Equal(t, "Hi {{ name }}!", got.Source)
		assert.Equal(t, 1, got.Version)
		assert.Equal(t, "amy", got.Metadata["author"])
	})

	t.Run("save twice bumps version", func(t *testing.T) {
		s := open(t)
		first := &StoredTemplate{Name: "page", Source: "v1"}
		require.NoError(t, s.Save(ctx, first))
		second := &StoredTemplate{Name: "page", Source: "v2"}
		require.NoError(t, s.Save(ctx, second))

		assert.Equal(t, 2, second.Version)
		assert.Equal(t, first.CreatedAt.Unix(), second.CreatedAt.Unix())

		got, err := s.Get(ctx, "page")
		require.NoError(t, err)
		assert.Equal(t, "v2", got.Source)
		assert.Equal(t, 2, got.Version)
	})

	t.Run("nested names", func(t *testing.T) {
		s := open(t)
		require.NoError(t, s.Save(ctx, &StoredTemplate{Name: "partials/header.html", Source: "<h1>"}))
		got, err := s.Get(ctx, "partials/header.html")
		require.NoError(t, err)
		assert.Equal(t, "<h1>", got.Source)
	})

	t.Run("get missing", func(t *testing.T) {
		s := open(t)
		_, err := s.Get(ctx, "nope")
		require.Error(t, err)
		assert.True(t, errors.Is(err, ErrTemplateNotFound))
		assert.True(t, IsNotFound(err))
		assert.True(t, IsStorageError(err))
	})

	t.Run("delete", func(t *testing.T) {
		s := open(t)
		require.NoError(t, s.Save(ctx, &StoredTemplate{Name: "gone", Source: "x"}))
		require.NoError(t, s.Delete(ctx, "gone"))

		exists, err := s.Exists(ctx, "gone")
		require.NoError(t, err)
		assert.False(t, exists)

		err = s.Delete(ctx, "gone")
		assert.True(t, IsNotFound(err))
	})

	t.Run("exists", func(t *testing.T) {
		s := open(t)
		require.NoError(t, s.Save(ctx, &StoredTemplate{Name: "here", Source: "x"}))
		exists, err := s.Exists(ctx, "here")
		require.NoError(t, err)
		assert.True(t, exists)
	})

	t.Run("list with query", func(t *testing.T) {
		s := open(t)
		for _, name := range []string{"b", "a", "mail/welcome", "mail/reset", "c"} {
			require.NoError(t, s.Save(ctx, &StoredTemplate{Name: name, Source: name}))
		}

		all, err := s.List(ctx, nil)
		require.NoError(t, err)
		assert.Equal(t, []string{"a", "b", "c", "mail/reset", "mail/welcome"}, storedNames(all))

		mail, err := s.List(ctx, &TemplateQuery{NamePrefix: "mail/"})
		require.NoError(t, err)
		assert.Equal(t, []string{"mail/reset", "mail/welcome"}, storedNames(mail))

		page, err := s.List(ctx, &TemplateQuery{Limit: 2, Offset: 1})
		require.NoError(t, err)
		assert.Equal(t, []string{"b", "c"}, storedNames(page))

		tail, err := s.List(ctx, &TemplateQuery{Offset: 4})
		require.NoError(t, err)
		assert.Equal(t, []string{"mail/welcome"}, storedNames(tail))
	})

	t.Run("invalid names", func(t *testing.T) {
		s := open(t)
		for _, name := range []string{"", "../escape", "/abs", "a:b"} {
			err := s.Save(ctx, &StoredTemplate{Name: name, Source: "x"})
			assert.True(t, errors.Is(err, ErrInvalidTemplateName), "name %q", name)
		}
	})

	t.Run("cancelled context", func(t *testing.T) {
		s := open(t)
		cctx, cancel := context.WithCancel(ctx)
		cancel()
		_, err := s.Get(cctx, "x")
		assert.ErrorIs(t, err, context.Canceled)
	})

	t.Run("closed", func(t *testing.T) {
		s := open(t)
		require.NoError(t, s.Close())
		_, err := s.Get(ctx, "x")
		assert.True(t, errors.Is(err, ErrStorageClosed))
		err = s.Save(ctx, &StoredTemplate{Name: "x", Source: "x"})
		assert.True(t, errors.Is(err, ErrStorageClosed))
	})

	t.Run("concurrent saves", func(t *testing.T) {
		s := open(t)
		var wg sync.WaitGroup
		for i := 0; i < 10; i++ {
			wg.Add(1)
			go func(i int) {
				defer wg.Done()
				assert.NoError(t, s.Save(ctx, &StoredTemplate{Name: "shared", Source: fmt.Sprintf("v%d", i)}))
			}(i)
		}
		wg.Wait()

		got, err := s.Get(ctx, "shared")
		require.NoError(t, err)
		assert.Equal(t, 10, got.Version)
		assert.True(t, strings.HasPrefix(got.Source, "v"))
	})
}

func storedNames(templates []*StoredTemplate) []string {
	names := make([]string, len(templates))
	for i, tmpl := range templates {
		names[i] = tmpl.Name
	}
	return names
}

func TestValidateTemplateName(t *testing.T) {
	tests := []struct {
		name   string
		input  string
		reason string
	}{
		{"simple", "greeting", ""},
		{"nested", "mail/welcome.txt", ""},
		{"unicode", "grüße", ""},
		{"empty", "", ReasonEmptyName},
		{"too long", strings.Repeat("a", MaxTemplateNameLength+1), ReasonNameTooLong},
		{"absolute", "/etc/passwd", ReasonAbsolutePath},
		{"traversal", "a/../../b", ReasonPathTraversal},
		{"backslash", `a\b`, ReasonInvalidChars},
		{"nul", "a\x00b", ReasonInvalidChars},
		{"bad utf8", "a\xffb", ReasonInvalidEncoding},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateTemplateName(tt.input)
			if tt.reason == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.True(t, errors.Is(err, ErrInvalidTemplateName))
			assert.Contains(t, err.Error(), tt.reason)
		})
	}
}

func TestStorageDriverRegistry(t *testing.T) {
	drivers := ListStorageDrivers()
	for _, name := range []string{StorageDriverNameMemory, StorageDriverNameFilesystem, StorageDriverNameSQLite, StorageDriverNamePostgres} {
		assert.Contains(t, drivers, name)
	}

	t.Run("open memory", func(t *testing.T) {
		s, err := OpenStorage(StorageDriverNameMemory, "")
		require.NoError(t, err)
		assert.IsType(t, &MemoryStorage{}, s)
		require.NoError(t, s.Close())
	})

	t.Run("unknown driver suggests", func(t *testing.T) {
		_, err := OpenStorage("memroy", "")
		require.Error(t, err)
		assert.True(t, errors.Is(err, ErrStorageDriverNotFound))
		assert.Contains(t, err.Error(), "memory")
	})

	t.Run("duplicate panics", func(t *testing.T) {
		assert.Panics(t, func() {
			RegisterStorageDriver(StorageDriverNameMemory, &MemoryStorageDriver{})
		})
	})

	t.Run("nil panics", func(t *testing.T) {
		assert.Panics(t, func() {
			RegisterStorageDriver("nil-driver", nil)
		})
	})
}

func TestApplyQuery(t *testing.T) {
	list := []*StoredTemplate{{Name: "a"}, {Name: "ab"}, {Name: "b"}}

	assert.Len(t, applyQuery(list, nil), 3)
	assert.Equal(t, []string{"a", "ab"}, storedNames(applyQuery(list, &TemplateQuery{NamePrefix: "a"})))
	assert.Empty(t, applyQuery(list, &TemplateQuery{Offset: 5}))
	assert.Equal(t, []string{"a"}, storedNames(applyQuery(list, &TemplateQuery{Limit: 1})))
}

func TestCopyStoredTemplate(t *testing.T) {
	assert.Nil(t, copyStoredTemplate(nil))

	orig := &StoredTemplate{Name: "x", Metadata: map[string]string{"k": "v"}}
	cp := copyStoredTemplate(orig)
	cp.Metadata["k"] = "changed"
	assert.Equal(t, "v", orig.Metadata["k"])
}
