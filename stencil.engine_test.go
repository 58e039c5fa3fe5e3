package stencil

import (
	"bytes"
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func TestEngine_RenderByName(t *testing.T) {
	ctx := context.Background()
	engine := MustNewEngine()
	defer engine.Close()

	require.NoError(t, engine.Put(ctx, "greet", "Hi {{ name }}{% if show %}!{% endif %}"))
	out, err := engine.Render(ctx, "greet", map[string]any{"name": "Amy", "show": true})
	require.NoError(t, err)
	assert.Equal(t, "Hi Amy!", out)

	var buf bytes.Buffer
	require.NoError(t, engine.Execute(ctx, &buf, "greet", map[string]any{"name": "Amy"}))
	assert.Equal(t, "Hi Amy", buf.String())
}

func TestEngine_IncludesFromStorage(t *testing.T) {
	ctx := context.Background()
	engine := MustNewEngine()
	require.NoError(t, engine.Put(ctx, "row", "{{ loopcounter }}:{{ n }};"))
	require.NoError(t, engine.Put(ctx, "list", "{% for n in nums %}{% include row %}{% endfor %}"))

	out, err := engine.Render(ctx, "list", map[string]any{"nums": []int{10, 20}})
	require.NoError(t, err)
	assert.Equal(t, "0:10;1:20;", out)
}

func TestEngine_SaveValidates(t *testing.T) {
	ctx := context.Background()
	engine := MustNewEngine()

	err := engine.Put(ctx, "bad", "{% for x in xs %}")
	assert.True(t, errors.Is(err, ErrUnterminatedBlock))

	_, err = engine.Get(ctx, "bad")
	assert.True(t, IsNotFound(err))
}

func TestEngine_SaveRecompiles(t *testing.T) {
	ctx := context.Background()
	engine := MustNewEngine()

	require.NoError(t, engine.Put(ctx, "v", "one"))
	first, err := engine.Load(ctx, "v")
	require.NoError(t, err)
	again, err := engine.Load(ctx, "v")
	require.NoError(t, err)
	assert.Same(t, first, again)

	tmpl := &StoredTemplate{Name: "v", Source: "two"}
	require.NoError(t, engine.Save(ctx, tmpl))
	assert.Equal(t, 2, tmpl.Version)

	out, err := engine.Render(ctx, "v", nil)
	require.NoError(t, err)
	assert.Equal(t, "two", out)
}

func TestEngine_ExternalChangeNeedsInvalidate(t *testing.T) {
	ctx := context.Background()
	storage := NewMemoryStorage()
	engine := MustNewEngine(WithStorage(storage))

	require.NoError(t, engine.Put(ctx, "x", "old"))
	out, err := engine.Render(ctx, "x", nil)
	require.NoError(t, err)
	assert.Equal(t, "old", out)

	require.NoError(t, storage.Save(ctx, &StoredTemplate{Name: "x", Source: "new"}))
	out, _ = engine.Render(ctx, "x", nil)
	assert.Equal(t, "old", out)

	engine.Invalidate("x")
	out, err = engine.Render(ctx, "x", nil)
	require.NoError(t, err)
	assert.Equal(t, "new", out)
}

func TestEngine_Delete(t *testing.T) {
	ctx := context.Background()
	engine := MustNewEngine()
	require.NoError(t, engine.Put(ctx, "gone", "x"))
	_, err := engine.Render(ctx, "gone", nil)
	require.NoError(t, err)

	require.NoError(t, engine.Delete(ctx, "gone"))
	_, err = engine.Render(ctx, "gone", nil)
	assert.True(t, errors.Is(err, ErrTemplateNotFound))
}

func TestEngine_ListAndStorage(t *testing.T) {
	ctx := context.Background()
	storage := NewMemoryStorage()
	engine := MustNewEngine(WithStorage(storage))
	require.NoError(t, engine.Put(ctx, "b", "b"))
	require.NoError(t, engine.Put(ctx, "a", "a"))

	list, err := engine.List(ctx, nil)
	require.NoError(t, err)
	assert.Equal(t, []string{"a", "b"}, storedNames(list))
	assert.Same(t, storage, engine.Storage())
}

func TestEngine_Options(t *testing.T) {
	ctx := context.Background()
	filters := DefaultFilters().Merge(FilterMap{
		"shout": func(v any) (any, error) { return v.(string) + "!", nil },
	})
	tags := DefaultTagRegistry().Clone()
	require.NoError(t, tags.RegisterExtension("now", func(*Context) (string, error) { return "NOW", nil }))

	engine := MustNewEngine(
		WithFilters(filters),
		WithTagRegistry(tags),
		WithDefault("-"),
		WithMaxDepth(2),
	)
	require.NoError(t, engine.Put(ctx, "t", "{{ word|shout }} {{ nope }} {% load now %}"))
	out, err := engine.Render(ctx, "t", map[string]any{"word": "hey"})
	require.NoError(t, err)
	assert.Equal(t, "hey! - NOW", out)

	require.NoError(t, engine.Put(ctx, "loop", "{% include loop %}"))
	_, err = engine.Render(ctx, "loop", nil)
	assert.True(t, errors.Is(err, ErrMaxDepthExceeded))

	assert.Same(t, tags, engine.Tags())
	assert.Contains(t, engine.Filters(), "shout")
}

func TestEngine_Compile(t *testing.T) {
	ctx := context.Background()
	engine := MustNewEngine()
	require.NoError(t, engine.Put(ctx, "part", "[{{ x }}]"))

	tmpl, err := engine.Compile("{% include part %}{% include part isolate %}")
	require.NoError(t, err)
	out, err := tmpl.Render(ctx, map[string]any{"x": 1})
	require.NoError(t, err)
	assert.Equal(t, "[1][]", out)
}

func TestEngine_CacheLogging(t *testing.T) {
	ctx := context.Background()
	core, logs := observer.New(zapcore.DebugLevel)
	engine := MustNewEngine(WithLogger(zap.New(core)))
	require.NoError(t, engine.Put(ctx, "a", "A"))

	for i := 0; i < 3; i++ {
		_, err := engine.Render(ctx, "a", nil)
		require.NoError(t, err)
	}
	// one compile validating the Put, one on the first load
	assert.Equal(t, 2, logs.FilterMessage(LogMsgCompileDone).Len())
	assert.Equal(t, 2, logs.FilterMessage(LogMsgCacheHit).Len())
	assert.Equal(t, 1, logs.FilterMessage(LogMsgStorageSave).Len())
	assert.Equal(t, 1, engine.CacheStats().ValidEntries)
}

func TestNewFilesystemEngine(t *testing.T) {
	ctx := context.Background()
	first, second := t.TempDir(), t.TempDir()
	writeTemplateFile(t, second, "layout.html", "<{% include body.html %}>")
	writeTemplateFile(t, first, "body.html", "{{ msg }}")

	engine, err := NewFilesystemEngine([]string{first, second})
	require.NoError(t, err)
	defer engine.Close()

	out, err := engine.Render(ctx, "layout.html", map[string]any{"msg": "hi"})
	require.NoError(t, err)
	assert.Equal(t, "<hi>", out)

	_, err = NewFilesystemEngine(nil)
	assert.True(t, IsStorageError(err))
}
