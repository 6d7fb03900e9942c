// Package file implements the JSON file cache store.
package file

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sync"

	json "github.com/goccy/go-json"

	"github.com/nexelgames/assets/data"
	"github.com/nexelgames/assets/store"
)

const (
	registryFileName = "registry.json"
	graphFileName    = "dependencies.json"
)

// FileStore keeps the registry cache and graph file as two JSON
// documents inside a cache directory. Writes go through a temp file
// and rename, so a crashed save never leaves a half-written cache.
type FileStore struct {
	mu  sync.Mutex
	dir string
}

type registryDocument struct {
	Assets []*data.AssetMetadata `json:"assets"`
}

type graphDocument struct {
	Edges map[data.GUID][]data.GUID `json:"edges"`
}

func NewFileStore(dir string) *FileStore {
	return &FileStore{dir: dir}
}

func (*FileStore) Name() string {
	return "file"
}

func (f *FileStore) Open(ctx context.Context) error {
	return os.MkdirAll(f.dir, 0755)
}

func (f *FileStore) Close(ctx context.Context) error {
	return nil
}

func (f *FileStore) SaveRegistry(ctx context.Context, records []*data.AssetMetadata) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	doc := registryDocument{Assets: records}
	if doc.Assets == nil {
		doc.Assets = []*data.AssetMetadata{}
	}

	return f.writeDocument(registryFileName, &doc)
}

func (f *FileStore) LoadRegistry(ctx context.Context) ([]*data.AssetMetadata, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	var doc registryDocument
	exists, err := f.readDocument(registryFileName, &doc)
	if err != nil {
		return nil, err
	}
	if !exists {
		return []*data.AssetMetadata{}, nil
	}

	return doc.Assets, nil
}

func (f *FileStore) SaveGraph(ctx context.Context, edges map[data.GUID][]data.GUID) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	doc := graphDocument{Edges: edges}
	if doc.Edges == nil {
		doc.Edges = map[data.GUID][]data.GUID{}
	}

	return f.writeDocument(graphFileName, &doc)
}

func (f *FileStore) LoadGraph(ctx context.Context) (map[data.GUID][]data.GUID, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	var doc graphDocument
	exists, err := f.readDocument(graphFileName, &doc)
	if err != nil {
		return nil, err
	}
	if !exists || doc.Edges == nil {
		return map[data.GUID][]data.GUID{}, nil
	}

	return doc.Edges, nil
}

func (f *FileStore) writeDocument(name string, doc any) error {
	blob, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return err
	}

	target := filepath.Join(f.dir, name)
	temp := target + ".tmp"

	if err := os.WriteFile(temp, blob, 0644); err != nil {
		return err
	}

	return os.Rename(temp, target)
}

// readDocument reports whether the file existed; a missing cache file
// is a fresh project, not a failure.
func (f *FileStore) readDocument(name string, doc any) (bool, error) {
	blob, err := os.ReadFile(filepath.Join(f.dir, name))
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return false, nil
		}
		return false, err
	}

	if err := json.Unmarshal(blob, doc); err != nil {
		return false, fmt.Errorf("%w: %s: %v", store.ErrCorrupt, name, err)
	}

	return true, nil
}
