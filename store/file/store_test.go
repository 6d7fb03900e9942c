package file

import (
	"testing"
	"time"

	"github.com/nexelgames/assets/data"
)

func newTestStore(t *testing.T) *FileStore {
	t.Helper()

	fs := NewFileStore(t.TempDir())
	if err := fs.Open(t.Context()); err != nil {
		t.Fatalf("Open failed: %v", err)
	}
	t.Cleanup(func() { fs.Close(t.Context()) })

	return fs
}

func TestFileStore_RegistryRoundTrip(t *testing.T) {
	fs := newTestStore(t)

	dep := data.NewGUID()
	records := []*data.AssetMetadata{
		{
			ID:           data.NewGUID(),
			VirtualPath:  "/textures/rock.png",
			Type:         data.TypeTexture,
			Name:         "rock",
			Size:         2048,
			ModTime:      time.Now().Truncate(time.Second),
			ImportTime:   time.Now().Truncate(time.Second),
			Settings:     map[string]string{"srgb": "true"},
			Dependencies: []data.GUID{dep},
			Tags:         []string{"environment", "stone"},
			Category:     "world",
		},
		{
			ID:          data.NewGUID(),
			VirtualPath: "/scenes/main.scene",
			Type:        data.TypeScene,
			Name:        "main",
		},
	}

	if err := fs.SaveRegistry(t.Context(), records); err != nil {
		t.Fatalf("SaveRegistry failed: %v", err)
	}

	loaded, err := fs.LoadRegistry(t.Context())
	if err != nil {
		t.Fatalf("LoadRegistry failed: %v", err)
	}

	if len(loaded) != 2 {
		t.Fatalf("expected 2 records, got %d", len(loaded))
	}

	got := loaded[0]
	if got.ID != records[0].ID {
		t.Errorf("id mismatch: %s != %s", got.ID, records[0].ID)
	}
	if got.VirtualPath != "/textures/rock.png" {
		t.Errorf("path mismatch: %s", got.VirtualPath)
	}
	if got.Type != data.TypeTexture {
		t.Errorf("type mismatch: %v", got.Type)
	}
	if got.Settings["srgb"] != "true" {
		t.Errorf("settings lost: %v", got.Settings)
	}
	if len(got.Dependencies) != 1 || got.Dependencies[0] != dep {
		t.Errorf("dependencies lost: %v", got.Dependencies)
	}
	if len(got.Tags) != 2 {
		t.Errorf("tags lost: %v", got.Tags)
	}
}

func TestFileStore_LoadMissingCache(t *testing.T) {
	fs := newTestStore(t)

	records, err := fs.LoadRegistry(t.Context())
	if err != nil {
		t.Fatalf("LoadRegistry on fresh store failed: %v", err)
	}
	if len(records) != 0 {
		t.Errorf("expected empty registry, got %d records", len(records))
	}

	edges, err := fs.LoadGraph(t.Context())
	if err != nil {
		t.Fatalf("LoadGraph on fresh store failed: %v", err)
	}
	if len(edges) != 0 {
		t.Errorf("expected empty graph, got %d entries", len(edges))
	}
}

func TestFileStore_GraphRoundTrip(t *testing.T) {
	fs := newTestStore(t)

	a, b, c := data.NewGUID(), data.NewGUID(), data.NewGUID()
	edges := map[data.GUID][]data.GUID{
		a: {b, c},
		b: {c},
	}

	if err := fs.SaveGraph(t.Context(), edges); err != nil {
		t.Fatalf("SaveGraph failed: %v", err)
	}

	loaded, err := fs.LoadGraph(t.Context())
	if err != nil {
		t.Fatalf("LoadGraph failed: %v", err)
	}

	if len(loaded) != 2 {
		t.Fatalf("expected 2 entries, got %d", len(loaded))
	}
	if len(loaded[a]) != 2 {
		t.Errorf("expected 2 dependencies for a, got %v", loaded[a])
	}
	if len(loaded[b]) != 1 || loaded[b][0] != c {
		t.Errorf("expected b -> c, got %v", loaded[b])
	}
}

func TestFileStore_SaveReplacesWholesale(t *testing.T) {
	fs := newTestStore(t)

	first := []*data.AssetMetadata{{ID: data.NewGUID(), VirtualPath: "/a"}}
	second := []*data.AssetMetadata{{ID: data.NewGUID(), VirtualPath: "/b"}}

	fs.SaveRegistry(t.Context(), first)
	fs.SaveRegistry(t.Context(), second)

	loaded, err := fs.LoadRegistry(t.Context())
	if err != nil {
		t.Fatalf("LoadRegistry failed: %v", err)
	}

	if len(loaded) != 1 || loaded[0].VirtualPath != "/b" {
		t.Errorf("expected only the second save to remain, got %+v", loaded)
	}
}
