package vfs

import (
	"errors"
	"sort"
	"testing"
)

func TestMemoryFS_WriteRead(t *testing.T) {
	fs := NewMemoryFS()

	if err := fs.WriteFile(t.Context(), "/textures/rock.png", []byte("pixels")); err != nil {
		t.Fatalf("WriteFile failed: %v", err)
	}

	content, err := fs.ReadFile(t.Context(), "/textures/rock.png")
	if err != nil {
		t.Fatalf("ReadFile failed: %v", err)
	}
	if string(content) != "pixels" {
		t.Errorf("expected %q, got %q", "pixels", content)
	}

	_, err = fs.ReadFile(t.Context(), "/textures/missing.png")
	if !errors.Is(err, ErrNotExist) {
		t.Errorf("expected ErrNotExist, got %v", err)
	}
}

func TestMemoryFS_Stat(t *testing.T) {
	fs := NewMemoryFS()

	if err := fs.WriteFile(t.Context(), "/models/tree.obj", []byte("vertices")); err != nil {
		t.Fatalf("WriteFile failed: %v", err)
	}

	info, err := fs.Stat(t.Context(), "/models/tree.obj")
	if err != nil {
		t.Fatalf("Stat failed: %v", err)
	}
	if info.Name != "tree.obj" {
		t.Errorf("expected name tree.obj, got %s", info.Name)
	}
	if info.Size != 8 {
		t.Errorf("expected size 8, got %d", info.Size)
	}
	if info.IsDir {
		t.Error("expected file, got directory")
	}

	// Parent directory is created implicitly
	dirInfo, err := fs.Stat(t.Context(), "/models")
	if err != nil {
		t.Fatalf("Stat directory failed: %v", err)
	}
	if !dirInfo.IsDir {
		t.Error("expected directory")
	}
}

func TestMemoryFS_Exists(t *testing.T) {
	fs := NewMemoryFS()

	exists, err := fs.Exists(t.Context(), "/nothing")
	if err != nil {
		t.Fatalf("Exists failed: %v", err)
	}
	if exists {
		t.Error("expected missing path")
	}

	fs.WriteFile(t.Context(), "/a.txt", []byte("x"))

	exists, _ = fs.Exists(t.Context(), "/a.txt")
	if !exists {
		t.Error("expected path to exist")
	}
}

func TestMemoryFS_ListDirectory(t *testing.T) {
	fs := NewMemoryFS()

	paths := []string{"/dir/b.txt", "/dir/a.txt", "/dir/sub/c.txt"}
	for _, p := range paths {
		if err := fs.WriteFile(t.Context(), p, []byte("x")); err != nil {
			t.Fatalf("WriteFile %s failed: %v", p, err)
		}
	}

	entries, err := fs.ListDirectory(t.Context(), "/dir")
	if err != nil {
		t.Fatalf("ListDirectory failed: %v", err)
	}

	var names []string
	for _, entry := range entries {
		names = append(names, entry.Name)
	}
	sort.Strings(names)

	want := []string{"a.txt", "b.txt", "sub"}
	if len(names) != len(want) {
		t.Fatalf("expected %v, got %v", want, names)
	}
	for i := range want {
		if names[i] != want[i] {
			t.Errorf("expected %v, got %v", want, names)
			break
		}
	}

	_, err = fs.ListDirectory(t.Context(), "/dir/a.txt")
	if !errors.Is(err, ErrNotDirectory) {
		t.Errorf("expected ErrNotDirectory, got %v", err)
	}
}

func TestMemoryFS_RemoveRename(t *testing.T) {
	fs := NewMemoryFS()

	fs.WriteFile(t.Context(), "/old.txt", []byte("x"))

	if err := fs.Rename(t.Context(), "/old.txt", "/new.txt"); err != nil {
		t.Fatalf("Rename failed: %v", err)
	}

	if exists, _ := fs.Exists(t.Context(), "/old.txt"); exists {
		t.Error("old path still exists after rename")
	}
	if exists, _ := fs.Exists(t.Context(), "/new.txt"); !exists {
		t.Error("new path missing after rename")
	}

	if err := fs.Remove(t.Context(), "/new.txt"); err != nil {
		t.Fatalf("Remove failed: %v", err)
	}

	err := fs.Remove(t.Context(), "/new.txt")
	if !errors.Is(err, ErrNotExist) {
		t.Errorf("expected ErrNotExist, got %v", err)
	}
}

func TestMemoryFS_Resolve(t *testing.T) {
	fs := NewMemoryFS()

	_, err := fs.Resolve("/anything")
	if !errors.Is(err, ErrNotResolvable) {
		t.Errorf("expected ErrNotResolvable, got %v", err)
	}
}

func TestWalk(t *testing.T) {
	fs := NewMemoryFS()

	paths := []string{"/a.txt", "/dir/b.txt", "/dir/sub/c.txt", "/dir/sub/deep/d.txt"}
	for _, p := range paths {
		fs.WriteFile(t.Context(), p, []byte("x"))
	}

	var visited []string
	err := Walk(t.Context(), fs, "/", func(info *FileInfo) error {
		visited = append(visited, info.Path)
		return nil
	})
	if err != nil {
		t.Fatalf("Walk failed: %v", err)
	}

	if len(visited) != len(paths) {
		t.Errorf("expected %d files, visited %d: %v", len(paths), len(visited), visited)
	}
}
