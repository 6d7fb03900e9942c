package vfs

import (
	"errors"
	"path/filepath"
	"testing"
)

func TestLocalFS_WriteRead(t *testing.T) {
	fs, err := NewLocalFS(t.TempDir())
	if err != nil {
		t.Fatalf("NewLocalFS failed: %v", err)
	}

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
}

func TestLocalFS_Resolve(t *testing.T) {
	root := t.TempDir()
	fs, err := NewLocalFS(root)
	if err != nil {
		t.Fatalf("NewLocalFS failed: %v", err)
	}

	full, err := fs.Resolve("/textures/rock.png")
	if err != nil {
		t.Fatalf("Resolve failed: %v", err)
	}

	want := filepath.Join(root, "textures", "rock.png")
	if full != want {
		t.Errorf("expected %q, got %q", want, full)
	}
}

func TestLocalFS_EscapeRejected(t *testing.T) {
	fs, err := NewLocalFS(t.TempDir())
	if err != nil {
		t.Fatalf("NewLocalFS failed: %v", err)
	}

	// Clean collapses "..", so the resolved path stays inside the root
	full, err := fs.Resolve("/../../../etc/passwd")
	if err != nil {
		t.Fatalf("Resolve failed: %v", err)
	}
	rel, err := filepath.Rel(fs.root, full)
	if err != nil || rel == ".." || filepath.IsAbs(rel) {
		t.Errorf("resolved path escaped the root: %q", full)
	}
}

func TestLocalFS_StatAndList(t *testing.T) {
	fs, err := NewLocalFS(t.TempDir())
	if err != nil {
		t.Fatalf("NewLocalFS failed: %v", err)
	}

	fs.WriteFile(t.Context(), "/dir/a.txt", []byte("aa"))
	fs.WriteFile(t.Context(), "/dir/b.txt", []byte("bbb"))

	info, err := fs.Stat(t.Context(), "/dir/b.txt")
	if err != nil {
		t.Fatalf("Stat failed: %v", err)
	}
	if info.Size != 3 {
		t.Errorf("expected size 3, got %d", info.Size)
	}
	if info.Path != "/dir/b.txt" {
		t.Errorf("expected virtual path /dir/b.txt, got %s", info.Path)
	}

	entries, err := fs.ListDirectory(t.Context(), "/dir")
	if err != nil {
		t.Fatalf("ListDirectory failed: %v", err)
	}
	if len(entries) != 2 {
		t.Errorf("expected 2 entries, got %d", len(entries))
	}

	_, err = fs.Stat(t.Context(), "/missing")
	if !errors.Is(err, ErrNotExist) {
		t.Errorf("expected ErrNotExist, got %v", err)
	}
}

func TestLocalFS_RenameCollision(t *testing.T) {
	fs, err := NewLocalFS(t.TempDir())
	if err != nil {
		t.Fatalf("NewLocalFS failed: %v", err)
	}

	fs.WriteFile(t.Context(), "/a.txt", []byte("a"))
	fs.WriteFile(t.Context(), "/b.txt", []byte("b"))

	err = fs.Rename(t.Context(), "/a.txt", "/b.txt")
	if !errors.Is(err, ErrExist) {
		t.Errorf("expected ErrExist, got %v", err)
	}
}
