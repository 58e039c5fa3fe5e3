package stencil

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"sync"
	"time"

	"github.com/natefinch/atomic"
)

// Filesystem storage constants
const (
	FilesystemDirPermissions = 0o755
	FilesystemMetaDir        = ".stencil"
	FilesystemMetaSuffix     = ".json"
)

// Filesystem storage error messages
const (
	ErrMsgNoSearchPaths   = "at least one search path is required"
	ErrMsgCreateDir       = "failed to create directory"
	ErrMsgReadTemplate    = "failed to read template file"
	ErrMsgWriteTemplate   = "failed to write template file"
	ErrMsgDeleteTemplate  = "failed to delete template file"
	ErrMsgWalkSearchPath  = "failed to list search path"
	ErrMsgMarshalMetadata = "failed to encode template metadata"
)

// FilesystemStorage reads templates from an ordered list of directories.
// A name resolves to the first directory holding a file at that relative
// path, so earlier directories shadow later ones. Writes go to the first
// directory and replace files atomically.
//
// Template files hold only the source. Version, timestamps and metadata are
// kept in a sidecar file under <dir>/.stencil/<name>.json.
type FilesystemStorage struct {
	mu     sync.RWMutex
	paths  []string
	closed bool
}

// filesystemMeta is the sidecar content for one template.
type filesystemMeta struct {
	Version   int               `json:"version"`
	Metadata  map[string]string `json:"metadata,omitempty"`
	CreatedAt time.Time         `json:"created_at"`
}

// FilesystemStorageDriver creates FilesystemStorage instances.
type FilesystemStorageDriver struct{}

func init() {
	RegisterStorageDriver(StorageDriverNameFilesystem, &FilesystemStorageDriver{})
}

// Open creates a FilesystemStorage. The connection string is a list of
// directories separated by the OS path list separator.
func (d *FilesystemStorageDriver) Open(connectionString string) (TemplateStorage, error) {
	return NewFilesystemStorage(filepath.SplitList(connectionString)...)
}

// NewFilesystemStorage creates a storage searching paths in order. The first
// path is created if missing.
func NewFilesystemStorage(paths ...string) (*FilesystemStorage, error) {
	clean := make([]string, 0, len(paths))
	for _, p := range paths {
		if p == StringValueEmpty {
			continue
		}
		abs, err := filepath.Abs(p)
		if err != nil {
			return nil, NewStorageError(ErrMsgStorageOpenFailed, err)
		}
		clean = append(clean, abs)
	}
	if len(clean) == 0 {
		return nil, NewStorageError(ErrMsgNoSearchPaths, nil)
	}
	if err := os.MkdirAll(clean[0], FilesystemDirPermissions); err != nil {
		return nil, NewStorageError(ErrMsgCreateDir, err)
	}
	return &FilesystemStorage{paths: clean}, nil
}

// Paths returns the absolute search paths in order.
func (s *FilesystemStorage) Paths() []string {
	out := make([]string, len(s.paths))
	copy(out, s.paths)
	return out
}

// Get reads a template from the first search path holding it.
func (s *FilesystemStorage) Get(ctx context.Context, name string) (*StoredTemplate, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if err := ValidateTemplateName(name); err != nil {
		return nil, err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.closed {
		return nil, NewStorageClosedError()
	}
	for _, root := range s.paths {
		tmpl, err := s.read(root, name)
		if errors.Is(err, fs.ErrNotExist) {
			continue
		}
		return tmpl, err
	}
	return nil, NewTemplateNotFoundError(name)
}

// Save writes a template into the first search path.
func (s *FilesystemStorage) Save(ctx context.Context, tmpl *StoredTemplate) error {
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

	root := s.paths[0]
	now := time.Now()
	meta := filesystemMeta{Version: 1, CreatedAt: now, Metadata: tmpl.Metadata}
	if prev, err := s.readMeta(root, tmpl.Name); err == nil {
		meta.Version = prev.Version + 1
		meta.CreatedAt = prev.CreatedAt
	}

	if err := writeFileAtomic(s.templatePath(root, tmpl.Name), []byte(tmpl.Source)); err != nil {
		return err
	}
	data, err := json.MarshalIndent(meta, "", "  ")
	if err != nil {
		return NewStorageError(ErrMsgMarshalMetadata, err)
	}
	if err := writeFileAtomic(s.metaPath(root, tmpl.Name), data); err != nil {
		return err
	}

	tmpl.Version = meta.Version
	tmpl.CreatedAt = meta.CreatedAt
	tmpl.UpdatedAt = now
	return nil
}

// Delete removes the template from every search path holding it.
func (s *FilesystemStorage) Delete(ctx context.Context, name string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := ValidateTemplateName(name); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return NewStorageClosedError()
	}

	found := false
	for _, root := range s.paths {
		err := os.Remove(s.templatePath(root, name))
		if errors.Is(err, fs.ErrNotExist) {
			continue
		}
		if err != nil {
			return NewStorageError(ErrMsgDeleteTemplate, err)
		}
		found = true
		_ = os.Remove(s.metaPath(root, name))
	}
	if !found {
		return NewTemplateNotFoundError(name)
	}
	return nil
}

// List returns every visible template ordered by name. A name present in
// several search paths is listed once, from the first path.
func (s *FilesystemStorage) List(ctx context.Context, query *TemplateQuery) ([]*StoredTemplate, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.closed {
		return nil, NewStorageClosedError()
	}

	seen := make(map[string]struct{})
	var result []*StoredTemplate
	for _, root := range s.paths {
		names, err := listTemplateFiles(root)
		if err != nil {
			return nil, err
		}
		for _, name := range names {
			if _, dup := seen[name]; dup {
				continue
			}
			seen[name] = struct{}{}
			tmpl, err := s.read(root, name)
			if err != nil {
				return nil, err
			}
			result = append(result, tmpl)
		}
	}
	sort.Slice(result, func(i, j int) bool { return result[i].Name < result[j].Name })
	return applyQuery(result, query), nil
}

// Exists reports whether any search path holds the template.
func (s *FilesystemStorage) Exists(ctx context.Context, name string) (bool, error) {
	_, err := s.Get(ctx, name)
	if IsNotFound(err) {
		return false, nil
	}
	return err == nil, err
}

// Close marks the storage closed.
func (s *FilesystemStorage) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.closed = true
	return nil
}

func (s *FilesystemStorage) templatePath(root, name string) string {
	return filepath.Join(root, filepath.FromSlash(name))
}

func (s *FilesystemStorage) metaPath(root, name string) string {
	return filepath.Join(root, FilesystemMetaDir, filepath.FromSlash(name)+FilesystemMetaSuffix)
}

// read loads one template from root. A missing file yields fs.ErrNotExist.
func (s *FilesystemStorage) read(root, name string) (*StoredTemplate, error) {
	path := s.templatePath(root, name)
	info, err := os.Stat(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, err
		}
		return nil, NewStorageError(ErrMsgReadTemplate, err)
	}
	if !info.Mode().IsRegular() {
		return nil, fs.ErrNotExist
	}
	source, err := os.ReadFile(path)
	if err != nil {
		return nil, NewStorageError(ErrMsgReadTemplate, err)
	}

	tmpl := &StoredTemplate{
		Name:      name,
		Source:    string(source),
		Version:   1,
		CreatedAt: info.ModTime(),
		UpdatedAt: info.ModTime(),
	}
	if meta, err := s.readMeta(root, name); err == nil {
		tmpl.Version = meta.Version
		tmpl.Metadata = meta.Metadata
		tmpl.CreatedAt = meta.CreatedAt
	}
	return tmpl, nil
}

func (s *FilesystemStorage) readMeta(root, name string) (*filesystemMeta, error) {
	data, err := os.ReadFile(s.metaPath(root, name))
	if err != nil {
		return nil, err
	}
	var meta filesystemMeta
	if err := json.Unmarshal(data, &meta); err != nil {
		return nil, err
	}
	return &meta, nil
}

// listTemplateFiles returns slash-separated relative names of the regular
// files under root, skipping the sidecar directory. A missing root is empty.
func listTemplateFiles(root string) ([]string, error) {
	var names []string
	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			if errors.Is(err, fs.ErrNotExist) && path == root {
				return filepath.SkipDir
			}
			return err
		}
		if d.IsDir() {
			if d.Name() == FilesystemMetaDir {
				return filepath.SkipDir
			}
			return nil
		}
		if !d.Type().IsRegular() {
			return nil
		}
		rel, err := filepath.Rel(root, path)
		if err != nil {
			return err
		}
		names = append(names, filepath.ToSlash(rel))
		return nil
	})
	if err != nil {
		return nil, NewStorageError(ErrMsgWalkSearchPath, err)
	}
	return names, nil
}

func writeFileAtomic(path string, data []byte) error {
	if err := os.MkdirAll(filepath.Dir(path), FilesystemDirPermissions); err != nil {
		return NewStorageError(ErrMsgCreateDir, err)
	}
	if err := atomic.WriteFile(path, bytes.NewReader(data)); err != nil {
		return NewStorageError(ErrMsgWriteTemplate, err)
	}
	return nil
}
