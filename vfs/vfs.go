// Package vfs is the filesystem seam of the asset core. Components
// never touch OS paths directly; everything on disk, in memory, or in
// object storage goes through FileSystem.
package vfs

import (
	"context"
	"errors"
	"time"
)

// Standard errors that FileSystem implementations should use.
var (
	ErrNotExist      = errors.New("vfs: file does not exist")
	ErrExist         = errors.New("vfs: file already exists")
	ErrIsDirectory   = errors.New("vfs: is a directory")
	ErrNotDirectory  = errors.New("vfs: not a directory")
	ErrPermission    = errors.New("vfs: permission denied")
	ErrReadOnly      = errors.New("vfs: read-only filesystem")
	ErrNotResolvable = errors.New("vfs: no physical path for virtual path")
	ErrInvalid       = errors.New("vfs: invalid argument")
)

// FileInfo describes a single entry in a virtual filesystem.
type FileInfo struct {
	// Virtual path of the entry
	Path string `json:"path"`

	// Base name of the entry
	Name string `json:"name"`

	// Size in bytes (0 for directories)
	Size int64 `json:"size"`

	// Last modification time
	ModTime time.Time `json:"mod_time"`

	IsDir bool `json:"is_dir"`
}

// FileSystem is the narrow interface the asset core consumes. Paths
// are virtual: forward-slash, leading slash, project-root relative.
type FileSystem interface {
	// Resolve maps a virtual path to a physical location. Backends
	// without a physical representation return ErrNotResolvable.
	Resolve(virtualPath string) (string, error)

	// Exists reports whether a file or directory exists at path.
	Exists(ctx context.Context, path string) (bool, error)

	// Stat returns entry information, or ErrNotExist.
	Stat(ctx context.Context, path string) (*FileInfo, error)

	// ReadFile returns the full content of a file.
	ReadFile(ctx context.Context, path string) ([]byte, error)

	// WriteFile replaces the content of a file, creating it and any
	// missing parent directories as needed.
	WriteFile(ctx context.Context, path string, content []byte) error

	// Remove deletes a single file. Removing a directory fails with
	// ErrIsDirectory.
	Remove(ctx context.Context, path string) error

	// Rename moves a file to a new path within the same filesystem.
	Rename(ctx context.Context, oldPath, newPath string) error

	// ListDirectory returns the immediate children of a directory.
	ListDirectory(ctx context.Context, path string) ([]*FileInfo, error)

	// MkdirAll creates a directory and all missing parents.
	MkdirAll(ctx context.Context, path string) error
}

// WalkFunc is invoked once per file during Walk. Returning an error
// aborts the walk.
type WalkFunc func(info *FileInfo) error

// Walk traverses fs depth-first starting at root, calling fn for every
// regular file. Directories that fail to list abort the walk.
func Walk(ctx context.Context, fs FileSystem, root string, fn WalkFunc) error {
	entries, err := fs.ListDirectory(ctx, root)
	if err != nil {
		return err
	}

	for _, entry := range entries {
		if err := ctx.Err(); err != nil {
			return err
		}

		if entry.IsDir {
			if err := Walk(ctx, fs, entry.Path, fn); err != nil {
				return err
			}
			continue
		}

		if err := fn(entry); err != nil {
			return err
		}
	}

	return nil
}
