package vfs

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path"
	"path/filepath"
	"strings"
)

// LocalFS maps virtual paths onto a rooted directory of the host
// filesystem. Paths that would escape the root are rejected.
type LocalFS struct {
	root string
}

func NewLocalFS(root string) (*LocalFS, error) {
	abs, err := filepath.Abs(root)
	if err != nil {
		return nil, err
	}

	info, err := os.Stat(abs)
	if err != nil {
		return nil, err
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("%w: %s", ErrNotDirectory, root)
	}

	return &LocalFS{root: abs}, nil
}

// Resolve returns the physical path backing a virtual path.
func (l *LocalFS) Resolve(virtualPath string) (string, error) {
	return l.resolvePath(virtualPath)
}

func (l *LocalFS) resolvePath(p string) (string, error) {
	clean := path.Clean("/" + strings.ReplaceAll(p, "\\", "/"))
	full := filepath.Join(l.root, filepath.FromSlash(clean))

	// Join cleans "..", so anything outside the root is an escape attempt
	if full != l.root && !strings.HasPrefix(full, l.root+string(filepath.Separator)) {
		return "", fmt.Errorf("%w: %s", ErrInvalid, p)
	}

	return full, nil
}

func (l *LocalFS) virtualPath(full string) string {
	rel, err := filepath.Rel(l.root, full)
	if err != nil || rel == "." {
		return "/"
	}
	return "/" + filepath.ToSlash(rel)
}

func (l *LocalFS) Exists(ctx context.Context, p string) (bool, error) {
	full, err := l.resolvePath(p)
	if err != nil {
		return false, err
	}

	if _, err := os.Stat(full); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return false, nil
		}
		return false, err
	}

	return true, nil
}

func (l *LocalFS) Stat(ctx context.Context, p string) (*FileInfo, error) {
	full, err := l.resolvePath(p)
	if err != nil {
		return nil, err
	}

	info, err := os.Stat(full)
	if err != nil {
		return nil, translateError(err, p)
	}

	return &FileInfo{
		Path:    l.virtualPath(full),
		Name:    info.Name(),
		Size:    info.Size(),
		ModTime: info.ModTime(),
		IsDir:   info.IsDir(),
	}, nil
}

func (l *LocalFS) ReadFile(ctx context.Context, p string) ([]byte, error) {
	full, err := l.resolvePath(p)
	if err != nil {
		return nil, err
	}

	content, err := os.ReadFile(full)
	if err != nil {
		return nil, translateError(err, p)
	}

	return content, nil
}

func (l *LocalFS) WriteFile(ctx context.Context, p string, content []byte) error {
	full, err := l.resolvePath(p)
	if err != nil {
		return err
	}

	if err := os.MkdirAll(filepath.Dir(full), 0755); err != nil {
		return err
	}

	return os.WriteFile(full, content, 0644)
}

func (l *LocalFS) Remove(ctx context.Context, p string) error {
	full, err := l.resolvePath(p)
	if err != nil {
		return err
	}

	info, err := os.Stat(full)
	if err != nil {
		return translateError(err, p)
	}
	if info.IsDir() {
		return fmt.Errorf("%w: %s", ErrIsDirectory, p)
	}

	return os.Remove(full)
}

func (l *LocalFS) Rename(ctx context.Context, oldPath, newPath string) error {
	oldFull, err := l.resolvePath(oldPath)
	if err != nil {
		return err
	}
	newFull, err := l.resolvePath(newPath)
	if err != nil {
		return err
	}

	if _, err := os.Stat(newFull); err == nil {
		return fmt.Errorf("%w: %s", ErrExist, newPath)
	}

	if err := os.MkdirAll(filepath.Dir(newFull), 0755); err != nil {
		return err
	}

	return os.Rename(oldFull, newFull)
}

func (l *LocalFS) ListDirectory(ctx context.Context, p string) ([]*FileInfo, error) {
	full, err := l.resolvePath(p)
	if err != nil {
		return nil, err
	}

	entries, err := os.ReadDir(full)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("%w: %s", ErrNotExist, p)
		}
		var pathErr *os.PathError
		if errors.As(err, &pathErr) {
			return nil, fmt.Errorf("%w: %s", ErrNotDirectory, p)
		}
		return nil, err
	}

	infos := make([]*FileInfo, 0, len(entries))
	for _, entry := range entries {
		info, err := entry.Info()
		if err != nil {
			continue
		}

		infos = append(infos, &FileInfo{
			Path:    l.virtualPath(filepath.Join(full, entry.Name())),
			Name:    entry.Name(),
			Size:    info.Size(),
			ModTime: info.ModTime(),
			IsDir:   entry.IsDir(),
		})
	}

	return infos, nil
}

func (l *LocalFS) MkdirAll(ctx context.Context, p string) error {
	full, err := l.resolvePath(p)
	if err != nil {
		return err
	}

	return os.MkdirAll(full, 0755)
}

func translateError(err error, p string) error {
	switch {
	case errors.Is(err, fs.ErrNotExist):
		return fmt.Errorf("%w: %s", ErrNotExist, p)
	case errors.Is(err, fs.ErrPermission):
		return fmt.Errorf("%w: %s", ErrPermission, p)
	default:
		return err
	}
}
