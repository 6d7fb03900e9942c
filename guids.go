package assets

import (
	"context"
	"errors"

	json "github.com/goccy/go-json"
	"github.com/tidwall/btree"

	"github.com/nexelgames/assets/data"
	"github.com/nexelgames/assets/vfs"
)

// GUIDRegistry is the bidirectional identifier↔virtual-path table,
// independent of asset metadata. It keeps identifiers stable for paths
// that are not currently imported — a file scanned on one machine and
// referenced on another resolves to the same identifier.
type GUIDRegistry struct {
	ids   map[data.GUID]string
	paths *btree.Map[string, data.GUID]
}

type guidDocument struct {
	Entries map[string]data.GUID `json:"entries"`
}

func NewGUIDRegistry() *GUIDRegistry {
	return &GUIDRegistry{
		ids:   make(map[data.GUID]string),
		paths: btree.NewMap[string, data.GUID](0),
	}
}

// Assign returns the identifier bound to the path, minting and
// recording a new one when the path is unknown.
func (g *GUIDRegistry) Assign(virtualPath string) data.GUID {
	normalized, err := data.NormalizePath(virtualPath)
	if err != nil {
		return data.GUID{}
	}

	if id, exists := g.paths.Get(normalized); exists {
		return id
	}

	id := data.NewGUID()
	g.paths.Set(normalized, id)
	g.ids[id] = normalized
	return id
}

// Bind records an explicit identifier→path pair, used when a meta
// sidecar already names the identifier. Fails when either side is
// bound to something else.
func (g *GUIDRegistry) Bind(id data.GUID, virtualPath string) bool {
	if !id.IsValid() {
		return false
	}

	normalized, err := data.NormalizePath(virtualPath)
	if err != nil {
		return false
	}

	if existing, exists := g.paths.Get(normalized); exists {
		return existing == id
	}
	if existing, exists := g.ids[id]; exists {
		return existing == normalized
	}

	g.paths.Set(normalized, id)
	g.ids[id] = normalized
	return true
}

// Lookup returns the identifier bound to a path, if any.
func (g *GUIDRegistry) Lookup(virtualPath string) (data.GUID, bool) {
	normalized, err := data.NormalizePath(virtualPath)
	if err != nil {
		return data.GUID{}, false
	}

	id, exists := g.paths.Get(normalized)
	return id, exists
}

// PathOf returns the path bound to an identifier, if any.
func (g *GUIDRegistry) PathOf(id data.GUID) (string, bool) {
	p, exists := g.ids[id]
	return p, exists
}

// Remove drops an identifier and its path binding.
func (g *GUIDRegistry) Remove(id data.GUID) bool {
	p, exists := g.ids[id]
	if !exists {
		return false
	}

	delete(g.ids, id)
	g.paths.Delete(p)
	return true
}

// Rename moves an identifier binding to a new path, keeping the
// identifier itself stable. Fails when the old path is unbound or the
// new path is taken.
func (g *GUIDRegistry) Rename(oldPath, newPath string) bool {
	oldNorm, err := data.NormalizePath(oldPath)
	if err != nil {
		return false
	}
	newNorm, err := data.NormalizePath(newPath)
	if err != nil {
		return false
	}

	id, exists := g.paths.Get(oldNorm)
	if !exists {
		return false
	}
	if _, taken := g.paths.Get(newNorm); taken {
		return false
	}

	g.paths.Delete(oldNorm)
	g.paths.Set(newNorm, id)
	g.ids[id] = newNorm
	return true
}

// Len returns the number of bindings.
func (g *GUIDRegistry) Len() int {
	return len(g.ids)
}

// Save writes the table as a JSON document through the filesystem
// seam.
func (g *GUIDRegistry) Save(ctx context.Context, fs vfs.FileSystem, path string) error {
	doc := guidDocument{Entries: make(map[string]data.GUID, len(g.ids))}
	g.paths.Scan(func(p string, id data.GUID) bool {
		doc.Entries[p] = id
		return true
	})

	blob, err := json.MarshalIndent(&doc, "", "  ")
	if err != nil {
		return err
	}

	return fs.WriteFile(ctx, path, blob)
}

// Load replaces the table with the persisted document. A missing file
// leaves the table empty; it is not an error.
func (g *GUIDRegistry) Load(ctx context.Context, fs vfs.FileSystem, path string) error {
	g.ids = make(map[data.GUID]string)
	g.paths = btree.NewMap[string, data.GUID](0)

	blob, err := fs.ReadFile(ctx, path)
	if err != nil {
		if errors.Is(err, vfs.ErrNotExist) {
			return nil
		}
		return err
	}

	var doc guidDocument
	if err := json.Unmarshal(blob, &doc); err != nil {
		return err
	}

	for p, id := range doc.Entries {
		g.Bind(id, p)
	}

	return nil
}
