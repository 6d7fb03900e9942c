package assets

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"

	"github.com/nexelgames/assets/data"
	"github.com/nexelgames/assets/log"
	"github.com/nexelgames/assets/vfs"
)

// TypeLoader is the per-type loading capability the loader dispatches
// into. One implementation exists per asset type, registered against
// the type enum.
type TypeLoader interface {
	AssetType() data.AssetType

	// Load constructs the runtime object for an asset.
	Load(ctx context.Context, fs vfs.FileSystem, meta *data.AssetMetadata) (any, error)
}

// Loader is the reference-counted object cache keyed by identifier.
//
// The reference count is bookkeeping, not lifetime: releasing a handle
// decrements the count but never evicts. UnloadUnused is the explicit
// eviction point for entries whose count has reached zero, so a caller
// dropping its last handle cannot invalidate an object another system
// is still unwrapping.
type Loader struct {
	mu sync.Mutex

	registry *Registry
	fs       vfs.FileSystem
	logger   *log.Logger

	loaders map[data.AssetType]TypeLoader
	cache   map[data.GUID]*cacheEntry
}

type cacheEntry struct {
	object   any
	err      error
	refCount int

	// ready is closed once construction finished; object and err are
	// immutable afterwards. Loads of other identifiers never wait on
	// it, so distinct assets construct in parallel.
	ready chan struct{}
}

// Handle is a caller's reference to a loaded asset. Release is
// idempotent; Value stays usable until the loader evicts the entry.
type Handle struct {
	loader   *Loader
	id       data.GUID
	object   any
	released atomic.Bool
}

// ID returns the identifier of the loaded asset.
func (h *Handle) ID() data.GUID {
	return h.id
}

// Value returns the type-erased object; use As for a typed view.
func (h *Handle) Value() any {
	return h.object
}

// Release gives the reference back. The object is not freed here;
// only UnloadUnused evicts.
func (h *Handle) Release() {
	if h.released.CompareAndSwap(false, true) {
		h.loader.release(h.id)
	}
}

// As unwraps a handle to a concrete asset type.
func As[T any](h *Handle) (T, bool) {
	value, ok := h.Value().(T)
	return value, ok
}

func NewLoader(registry *Registry, fs vfs.FileSystem, logger *log.Logger) *Loader {
	if logger == nil {
		logger = log.Default().Named("loader")
	}

	return &Loader{
		registry: registry,
		fs:       fs,
		logger:   logger,
		loaders:  make(map[data.AssetType]TypeLoader),
		cache:    make(map[data.GUID]*cacheEntry),
	}
}

// RegisterLoader installs the capability for its asset type; last
// registration wins.
func (l *Loader) RegisterLoader(tl TypeLoader) {
	l.mu.Lock()
	defer l.mu.Unlock()

	l.loaders[tl.AssetType()] = tl
}

// Load returns a handle for the asset, constructing the object on
// first load and bumping the reference count on every subsequent one.
//
// Two concurrent first-loads of one identifier never double-construct:
// the first caller inserts an in-flight entry under the mutex and
// builds outside it, later callers wait on that entry. Loads of
// distinct identifiers run in parallel.
func (l *Loader) Load(ctx context.Context, id data.GUID) (*Handle, error) {
	l.mu.Lock()

	if entry, cached := l.cache[id]; cached {
		entry.refCount++
		l.mu.Unlock()

		select {
		case <-entry.ready:
		case <-ctx.Done():
			l.release(id)
			return nil, ctx.Err()
		}
		if entry.err != nil {
			l.release(id)
			return nil, entry.err
		}
		return &Handle{loader: l, id: id, object: entry.object}, nil
	}

	meta, exists := l.registry.Get(id)
	if !exists {
		l.mu.Unlock()
		return nil, fmt.Errorf("%w: %s", ErrNotFound, id)
	}

	tl, exists := l.loaders[meta.Type]
	if !exists {
		l.mu.Unlock()
		return nil, fmt.Errorf("%w: %s", ErrNoLoader, meta.Type)
	}

	entry := &cacheEntry{refCount: 1, ready: make(chan struct{})}
	l.cache[id] = entry
	l.mu.Unlock()

	object, err := tl.Load(ctx, l.fs, meta)

	l.mu.Lock()
	if err != nil {
		entry.err = fmt.Errorf("load %s: %w", meta.VirtualPath, err)
		if l.cache[id] == entry {
			delete(l.cache, id)
		}
		close(entry.ready)
		l.mu.Unlock()
		return nil, entry.err
	}

	entry.object = object
	close(entry.ready)
	l.mu.Unlock()

	return &Handle{loader: l, id: id, object: object}, nil
}

// LoadByPath resolves a virtual path through the registry first.
func (l *Loader) LoadByPath(ctx context.Context, virtualPath string) (*Handle, error) {
	meta, exists := l.registry.GetByPath(virtualPath)
	if !exists {
		return nil, fmt.Errorf("%w: %s", ErrPathNotFound, virtualPath)
	}

	return l.Load(ctx, meta.ID)
}

func (l *Loader) release(id data.GUID) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if entry, cached := l.cache[id]; cached {
		entry.refCount--
	}
}

// RefCount returns the current bookkeeping count, 0 when not cached.
func (l *Loader) RefCount(id data.GUID) int {
	l.mu.Lock()
	defer l.mu.Unlock()

	if entry, cached := l.cache[id]; cached {
		return entry.refCount
	}
	return 0
}

// IsLoaded reports whether the asset currently has a cache entry.
func (l *Loader) IsLoaded(id data.GUID) bool {
	l.mu.Lock()
	defer l.mu.Unlock()

	_, cached := l.cache[id]
	return cached
}

// Unload force-evicts a single entry regardless of its count.
func (l *Loader) Unload(id data.GUID) bool {
	l.mu.Lock()
	defer l.mu.Unlock()

	if _, cached := l.cache[id]; !cached {
		return false
	}

	delete(l.cache, id)
	return true
}

// UnloadUnused evicts every entry whose reference count has dropped
// to zero or below, returning how many were removed.
func (l *Loader) UnloadUnused() int {
	l.mu.Lock()
	defer l.mu.Unlock()

	evicted := 0
	for id, entry := range l.cache {
		if entry.refCount <= 0 {
			delete(l.cache, id)
			evicted++
		}
	}

	if evicted > 0 {
		l.logger.Debug("evicted %d unused assets", evicted)
	}

	return evicted
}

// LoadedCount returns the number of cached objects.
func (l *Loader) LoadedCount() int {
	l.mu.Lock()
	defer l.mu.Unlock()

	return len(l.cache)
}
