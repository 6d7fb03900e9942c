package vfs

import (
	"context"
	"fmt"
	"path"
	"strings"
	"sync"
	"time"

	"github.com/tidwall/btree"
)

// MemoryFS is an in-memory FileSystem. It backs tests and transient
// project sessions; the B-tree keeps paths ordered so listings and
// walks are deterministic.
type MemoryFS struct {
	mu    sync.RWMutex
	files *btree.Map[string, *memoryFile]
	dirs  map[string]struct{}
}

type memoryFile struct {
	content []byte
	modTime time.Time
}

func NewMemoryFS() *MemoryFS {
	return &MemoryFS{
		files: btree.NewMap[string, *memoryFile](0),
		dirs:  map[string]struct{}{"/": {}},
	}
}

// Resolve always fails: memory files have no physical location.
func (m *MemoryFS) Resolve(virtualPath string) (string, error) {
	return "", fmt.Errorf("%w: %s", ErrNotResolvable, virtualPath)
}

func (m *MemoryFS) Exists(ctx context.Context, p string) (bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	p = cleanMemoryPath(p)
	if _, exists := m.files.Get(p); exists {
		return true, nil
	}
	_, exists := m.dirs[p]
	return exists, nil
}

func (m *MemoryFS) Stat(ctx context.Context, p string) (*FileInfo, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	p = cleanMemoryPath(p)

	if file, exists := m.files.Get(p); exists {
		return &FileInfo{
			Path:    p,
			Name:    path.Base(p),
			Size:    int64(len(file.content)),
			ModTime: file.modTime,
		}, nil
	}

	if _, exists := m.dirs[p]; exists {
		return &FileInfo{
			Path:  p,
			Name:  path.Base(p),
			IsDir: true,
		}, nil
	}

	return nil, fmt.Errorf("%w: %s", ErrNotExist, p)
}

func (m *MemoryFS) ReadFile(ctx context.Context, p string) ([]byte, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	p = cleanMemoryPath(p)

	file, exists := m.files.Get(p)
	if !exists {
		if _, isDir := m.dirs[p]; isDir {
			return nil, fmt.Errorf("%w: %s", ErrIsDirectory, p)
		}
		return nil, fmt.Errorf("%w: %s", ErrNotExist, p)
	}

	content := make([]byte, len(file.content))
	copy(content, file.content)
	return content, nil
}

func (m *MemoryFS) WriteFile(ctx context.Context, p string, content []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	p = cleanMemoryPath(p)
	if _, isDir := m.dirs[p]; isDir {
		return fmt.Errorf("%w: %s", ErrIsDirectory, p)
	}

	stored := make([]byte, len(content))
	copy(stored, content)

	m.files.Set(p, &memoryFile{content: stored, modTime: time.Now()})
	m.ensureParents(p)
	return nil
}

// WriteFileWithTime is a test helper that also sets the modification
// time, so scan short-circuit behavior can be exercised.
func (m *MemoryFS) WriteFileWithTime(p string, content []byte, modTime time.Time) {
	m.mu.Lock()
	defer m.mu.Unlock()

	p = cleanMemoryPath(p)
	stored := make([]byte, len(content))
	copy(stored, content)

	m.files.Set(p, &memoryFile{content: stored, modTime: modTime})
	m.ensureParents(p)
}

func (m *MemoryFS) Remove(ctx context.Context, p string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	p = cleanMemoryPath(p)

	if _, isDir := m.dirs[p]; isDir {
		return fmt.Errorf("%w: %s", ErrIsDirectory, p)
	}

	if _, exists := m.files.Get(p); !exists {
		return fmt.Errorf("%w: %s", ErrNotExist, p)
	}

	m.files.Delete(p)
	return nil
}

func (m *MemoryFS) Rename(ctx context.Context, oldPath, newPath string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	oldPath = cleanMemoryPath(oldPath)
	newPath = cleanMemoryPath(newPath)

	file, exists := m.files.Get(oldPath)
	if !exists {
		return fmt.Errorf("%w: %s", ErrNotExist, oldPath)
	}
	if _, taken := m.files.Get(newPath); taken {
		return fmt.Errorf("%w: %s", ErrExist, newPath)
	}

	m.files.Delete(oldPath)
	m.files.Set(newPath, file)
	m.ensureParents(newPath)
	return nil
}

func (m *MemoryFS) ListDirectory(ctx context.Context, p string) ([]*FileInfo, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	p = cleanMemoryPath(p)

	if _, exists := m.dirs[p]; !exists {
		if _, isFile := m.files.Get(p); isFile {
			return nil, fmt.Errorf("%w: %s", ErrNotDirectory, p)
		}
		return nil, fmt.Errorf("%w: %s", ErrNotExist, p)
	}

	prefix := p
	if prefix != "/" {
		prefix += "/"
	}

	var infos []*FileInfo
	seen := make(map[string]struct{})

	// Immediate child directories
	for dir := range m.dirs {
		if dir == p || !strings.HasPrefix(dir, prefix) {
			continue
		}
		rest := dir[len(prefix):]
		if strings.Contains(rest, "/") {
			continue
		}
		if _, dup := seen[dir]; dup {
			continue
		}
		seen[dir] = struct{}{}
		infos = append(infos, &FileInfo{Path: dir, Name: rest, IsDir: true})
	}

	// Immediate child files, in B-tree order
	m.files.Ascend(prefix, func(filePath string, file *memoryFile) bool {
		if !strings.HasPrefix(filePath, prefix) {
			return false
		}
		rest := filePath[len(prefix):]
		if strings.Contains(rest, "/") {
			return true
		}
		infos = append(infos, &FileInfo{
			Path:    filePath,
			Name:    rest,
			Size:    int64(len(file.content)),
			ModTime: file.modTime,
		})
		return true
	})

	return infos, nil
}

func (m *MemoryFS) MkdirAll(ctx context.Context, p string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	p = cleanMemoryPath(p)
	if _, isFile := m.files.Get(p); isFile {
		return fmt.Errorf("%w: %s", ErrNotDirectory, p)
	}

	m.mkdirAllLocked(p)
	return nil
}

// ensureParents registers every ancestor directory of a file path.
// Must be called with the write lock held.
func (m *MemoryFS) ensureParents(p string) {
	m.mkdirAllLocked(path.Dir(p))
}

func (m *MemoryFS) mkdirAllLocked(dir string) {
	for dir != "/" && dir != "." {
		m.dirs[dir] = struct{}{}
		dir = path.Dir(dir)
	}
	m.dirs["/"] = struct{}{}
}

func cleanMemoryPath(p string) string {
	if !strings.HasPrefix(p, "/") {
		p = "/" + p
	}
	return path.Clean(p)
}
