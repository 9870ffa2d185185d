// Package writer persists rendered documents.
package writer

import (
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"github.com/pkg/errors"
)

// Writer creates directories and files for a generated skill
type Writer interface {
	Mkdir(path string) error
	WriteFile(path, content string) error
}

// Cleaner is implemented by writers that can inspect and clear an existing
// output directory
type Cleaner interface {
	Exists(path string) (bool, error)
	RemoveAll(path string) error
}

// FileSystem writes to the local disk
type FileSystem struct{}

var (
	_ Writer  = FileSystem{}
	_ Cleaner = FileSystem{}
)

// Mkdir creates path and any missing parents
func (FileSystem) Mkdir(path string) error {
	if err := os.MkdirAll(path, 0o755); err != nil {
		return errors.Wrapf(err, "failed to create directory %s", path)
	}
	return nil
}

// WriteFile writes content to path
func (FileSystem) WriteFile(path, content string) error {
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		return errors.Wrapf(err, "failed to write %s", path)
	}
	return nil
}

// Exists reports whether path exists on disk
func (FileSystem) Exists(path string) (bool, error) {
	_, err := os.Stat(path)
	if err == nil {
		return true, nil
	}
	if errors.Is(err, os.ErrNotExist) {
		return false, nil
	}
	return false, errors.Wrapf(err, "failed to stat %s", path)
}

// RemoveAll deletes path and everything below it
func (FileSystem) RemoveAll(path string) error {
	if err := os.RemoveAll(path); err != nil {
		return errors.Wrapf(err, "failed to remove %s", path)
	}
	return nil
}

// Memory keeps files in memory. It is safe for concurrent use.
type Memory struct {
	mu    sync.Mutex
	dirs  map[string]struct{}
	files map[string]string
}

var (
	_ Writer  = (*Memory)(nil)
	_ Cleaner = (*Memory)(nil)
)

// NewMemory creates an empty in-memory writer
func NewMemory() *Memory {
	return &Memory{
		dirs:  map[string]struct{}{},
		files: map[string]string{},
	}
}

// Mkdir records path and its parents
func (m *Memory) Mkdir(path string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for p := filepath.Clean(path); ; p = filepath.Dir(p) {
		m.dirs[p] = struct{}{}
		if parent := filepath.Dir(p); parent == p {
			break
		}
	}
	return nil
}

// WriteFile stores content. The parent directory must have been created.
func (m *Memory) WriteFile(path, content string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	path = filepath.Clean(path)
	if _, ok := m.dirs[filepath.Dir(path)]; !ok {
		return errors.Errorf("failed to write %s: parent directory does not exist", path)
	}
	m.files[path] = content
	return nil
}

// Exists reports whether path was created as a directory or written as a file
func (m *Memory) Exists(path string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	path = filepath.Clean(path)
	_, dir := m.dirs[path]
	_, file := m.files[path]
	return dir || file, nil
}

// RemoveAll forgets path and everything below it
func (m *Memory) RemoveAll(path string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	path = filepath.Clean(path)
	prefix := path + string(filepath.Separator)
	for p := range m.dirs {
		if p == path || strings.HasPrefix(p, prefix) {
			delete(m.dirs, p)
		}
	}
	for p := range m.files {
		if p == path || strings.HasPrefix(p, prefix) {
			delete(m.files, p)
		}
	}
	return nil
}

// File returns the content written to path
func (m *Memory) File(path string) (string, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	content, ok := m.files[filepath.Clean(path)]
	return content, ok
}

// Files returns the written paths in lexical order
func (m *Memory) Files() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]string, 0, len(m.files))
	for p := range m.files {
		out = append(out, p)
	}
	sort.Strings(out)
	return out
}

// HasDir reports whether path was created
func (m *Memory) HasDir(path string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	_, ok := m.dirs[filepath.Clean(path)]
	return ok
}

// Under returns the written paths below dir, relative to it
func (m *Memory) Under(dir string) []string {
	dir = filepath.Clean(dir)
	var out []string
	for _, p := range m.Files() {
		if rel, err := filepath.Rel(dir, p); err == nil && !strings.HasPrefix(rel, "..") {
			out = append(out, filepath.ToSlash(rel))
		}
	}
	return out
}
