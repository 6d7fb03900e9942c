// Package store provides persistence backends for the asset registry
// cache and the dependency graph. Backends share one interface so a
// project can keep its cache in a JSON file, a local SQLite database,
// or a team-shared Postgres instance.
package store

import (
	"context"
	"errors"

	"github.com/nexelgames/assets/data"
)

var (
	ErrNotOpen = errors.New("store: backend not open")
	ErrCorrupt = errors.New("store: corrupt cache")
)

// Store persists the full registry record set and the forward edges of
// the dependency graph. Saves replace the previous state wholesale;
// loads return everything. Reverse edges are rebuilt by the graph on
// restore and are never persisted.
type Store interface {
	// Name returns the identifier name defined for this backend.
	Name() string

	// Open is part of the lifecycle behaviour and prepares the backend.
	Open(ctx context.Context) error

	// Close releases all resources held by the backend.
	Close(ctx context.Context) error

	// SaveRegistry replaces the persisted record set.
	SaveRegistry(ctx context.Context, records []*data.AssetMetadata) error

	// LoadRegistry returns every persisted record. A missing cache is
	// not an error; it returns an empty slice.
	LoadRegistry(ctx context.Context) ([]*data.AssetMetadata, error)

	// SaveGraph replaces the persisted forward-edge map.
	SaveGraph(ctx context.Context, edges map[data.GUID][]data.GUID) error

	// LoadGraph returns the persisted forward-edge map, empty when no
	// graph has been saved yet.
	LoadGraph(ctx context.Context) (map[data.GUID][]data.GUID, error)
}
