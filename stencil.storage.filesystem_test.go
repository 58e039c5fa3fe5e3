package stencil

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFilesystemStorage(t *testing.T) {
	testStorageConformance(t, func(t *testing.T) TemplateStorage {
		s, err := NewFilesystemStorage(t.TempDir())
		require.NoError(t, err)
		return s
	})
}

func writeTemplateFile(t *testing.T, dir, name, content string) {
	t.Helper()
	path := filepath.Join(dir, filepath.FromSlash(name))
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
}

func TestFilesystemStorage_SearchOrder(t *testing.T) {
	ctx := context.Background()
	first, second := t.TempDir(), t.TempDir()
	writeTemplateFile(t, first, "header.html", "first header")
	writeTemplateFile(t, second, "header.html", "second header")
	writeTemplateFile(t, second, "footer.html", "second footer")

	s, err := NewFilesystemStorage(first, second)
	require.NoError(t, err)

	header, err := s.Get(ctx, "header.html")
	require.NoError(t, err)
	assert.Equal(t, "first header", header.Source)

	footer, err := s.Get(ctx, "footer.html")
	require.NoError(t, err)
	assert.Equal(t, "second footer", footer.Source)
	assert.Equal(t, 1, footer.Version)

	list, err := s.List(ctx, nil)
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, "first header", list[1].Source)
}

func TestFilesystemStorage_WritesToFirstPath(t *testing.T) {
	ctx := context.Background()
	first, second := t.TempDir(), t.TempDir()
	s, err := NewFilesystemStorage(first, second)
	require.NoError(t, err)

	require.NoError(t, s.Save(ctx, &StoredTemplate{Name: "mail/welcome.txt", Source: "welcome"}))

	data, err := os.ReadFile(filepath.Join(first, "mail", "welcome.txt"))
	require.NoError(t, err)
	assert.Equal(t, "welcome", string(data))
	_, err = os.Stat(filepath.Join(second, "mail", "welcome.txt"))
	assert.True(t, os.IsNotExist(err))
}

func TestFilesystemStorage_SidecarHidden(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()
	s, err := NewFilesystemStorage(dir)
	require.NoError(t, err)
	require.NoError(t, s.Save(ctx, &StoredTemplate{Name: "a", Source: "x", Metadata: map[string]string{"k": "v"}}))

	_, err = os.Stat(filepath.Join(dir, FilesystemMetaDir, "a"+FilesystemMetaSuffix))
	require.NoError(t, err)

	list, err := s.List(ctx, nil)
	require.NoError(t, err)
	assert.Equal(t, []string{"a"}, storedNames(list))
	assert.Equal(t, "v", list[0].Metadata["k"])
}

func TestFilesystemStorage_DirectoryIsNotTemplate(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(dir, "partials"), 0o755))
	s, err := NewFilesystemStorage(dir)
	require.NoError(t, err)

	_, err = s.Get(context.Background(), "partials")
	assert.True(t, IsNotFound(err))
}

func TestFilesystemStorage_NoPaths(t *testing.T) {
	_, err := NewFilesystemStorage()
	require.Error(t, err)
	assert.Contains(t, err.Error(), ErrMsgNoSearchPaths)

	_, err = NewFilesystemStorage("", "")
	require.Error(t, err)
}

func TestFilesystemStorageDriver_PathList(t *testing.T) {
	first, second := t.TempDir(), t.TempDir()
	s, err := OpenStorage(StorageDriverNameFilesystem, strings.Join([]string{first, second}, string(os.PathListSeparator)))
	require.NoError(t, err)

	fs, ok := s.(*FilesystemStorage)
	require.True(t, ok)
	assert.Equal(t, []string{first, second}, fs.Paths())
}
