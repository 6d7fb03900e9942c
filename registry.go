package assets

import (
	"context"
	"strings"

	"github.com/tidwall/btree"

	"github.com/nexelgames/assets/data"
	"github.com/nexelgames/assets/log"
	"github.com/nexelgames/assets/store"
)

// Registry is the authoritative map from identifier to asset metadata,
// with secondary indices by virtual path, type and tag. The id→path
// and path→id mappings are kept in sync on every mutation.
//
// The registry is a synchronous, single-writer component: the
// surrounding application must not mutate it from multiple goroutines
// without external locking. MarkDirty on an attached CacheSaver is the
// only call that may arrive from other goroutines.
type Registry struct {
	logger *log.Logger
	store  store.Store

	assets map[data.GUID]*data.AssetMetadata
	paths  *btree.Map[string, data.GUID]
	byType map[data.AssetType]map[data.GUID]struct{}
	byTag  map[string]map[data.GUID]struct{}

	dirty   bool
	onDirty func()
}

type RegistryOption func(*Registry) error

// WithRegistryStore attaches the persistence backend used by
// SaveCache and LoadCache.
func WithRegistryStore(st store.Store) RegistryOption {
	return func(r *Registry) error {
		r.store = st
		return nil
	}
}

func WithRegistryLogger(logger *log.Logger) RegistryOption {
	return func(r *Registry) error {
		r.logger = logger
		return nil
	}
}

func NewRegistry(opts ...RegistryOption) (*Registry, error) {
	r := &Registry{
		assets: make(map[data.GUID]*data.AssetMetadata),
		paths:  btree.NewMap[string, data.GUID](0),
		byType: make(map[data.AssetType]map[data.GUID]struct{}),
		byTag:  make(map[string]map[data.GUID]struct{}),
	}

	for _, opt := range opts {
		if err := opt(r); err != nil {
			return nil, err
		}
	}

	if r.logger == nil {
		r.logger = log.Default().Named("registry")
	}

	return r, nil
}

// Register adds a new record. Returns false when the identifier or the
// virtual path is already taken; the caller must unregister first to
// replace a record.
func (r *Registry) Register(meta *data.AssetMetadata) bool {
	if meta == nil || !meta.ID.IsValid() {
		return false
	}

	normalized, err := data.NormalizePath(meta.VirtualPath)
	if err != nil {
		r.logger.Warn("rejected registration with invalid path %q", meta.VirtualPath)
		return false
	}
	meta.VirtualPath = normalized

	if _, exists := r.assets[meta.ID]; exists {
		r.logger.Warn("duplicate identifier %s for %s", meta.ID, meta.VirtualPath)
		return false
	}
	if _, exists := r.paths.Get(meta.VirtualPath); exists {
		r.logger.Warn("duplicate virtual path %s", meta.VirtualPath)
		return false
	}

	r.assets[meta.ID] = meta
	r.paths.Set(meta.VirtualPath, meta.ID)
	r.indexType(meta.Type, meta.ID)
	for _, tag := range meta.Tags {
		r.indexTag(tag, meta.ID)
	}

	r.markDirty()
	return true
}

// Unregister removes a record and every index entry pointing at it.
// Returns false when the identifier is not present.
func (r *Registry) Unregister(id data.GUID) bool {
	meta, exists := r.assets[id]
	if !exists {
		return false
	}

	delete(r.assets, id)
	r.paths.Delete(meta.VirtualPath)
	r.unindexType(meta.Type, id)
	for _, tag := range meta.Tags {
		r.unindexTag(tag, id)
	}

	r.markDirty()
	return true
}

// Update replaces the stored record for id, diffing the old and new
// values so the path, type and tag indices move instead of duplicating.
func (r *Registry) Update(id data.GUID, meta *data.AssetMetadata) bool {
	old, exists := r.assets[id]
	if !exists || meta == nil {
		return false
	}

	normalized, err := data.NormalizePath(meta.VirtualPath)
	if err != nil {
		return false
	}
	meta.VirtualPath = normalized
	meta.ID = id

	if meta.VirtualPath != old.VirtualPath {
		// The new path must not belong to another asset
		if owner, taken := r.paths.Get(meta.VirtualPath); taken && owner != id {
			return false
		}
		r.paths.Delete(old.VirtualPath)
		r.paths.Set(meta.VirtualPath, id)
	}

	if meta.Type != old.Type {
		r.unindexType(old.Type, id)
		r.indexType(meta.Type, id)
	}

	for _, tag := range old.Tags {
		if !meta.HasTag(tag) {
			r.unindexTag(tag, id)
		}
	}
	for _, tag := range meta.Tags {
		if !old.HasTag(tag) {
			r.indexTag(tag, id)
		}
	}

	r.assets[id] = meta
	r.markDirty()
	return true
}

// Get returns the stored record, or (nil, false) when absent.
func (r *Registry) Get(id data.GUID) (*data.AssetMetadata, bool) {
	meta, exists := r.assets[id]
	return meta, exists
}

// GetByPath looks a record up by its normalized virtual path.
func (r *Registry) GetByPath(virtualPath string) (*data.AssetMetadata, bool) {
	normalized, err := data.NormalizePath(virtualPath)
	if err != nil {
		return nil, false
	}

	id, exists := r.paths.Get(normalized)
	if !exists {
		return nil, false
	}

	return r.assets[id], true
}

// ListByType returns every record of the given type, unordered.
func (r *Registry) ListByType(t data.AssetType) []*data.AssetMetadata {
	ids := r.byType[t]

	records := make([]*data.AssetMetadata, 0, len(ids))
	for id := range ids {
		records = append(records, r.assets[id])
	}

	return records
}

// ListByTag returns every record carrying the given tag, unordered.
func (r *Registry) ListByTag(tag string) []*data.AssetMetadata {
	ids := r.byTag[tag]

	records := make([]*data.AssetMetadata, 0, len(ids))
	for id := range ids {
		records = append(records, r.assets[id])
	}

	return records
}

// ListByPathPrefix returns every record at or below the given virtual
// directory, ordered by path.
func (r *Registry) ListByPathPrefix(prefix string) []*data.AssetMetadata {
	normalized, err := data.NormalizePath(prefix)
	if err != nil {
		return nil
	}

	var records []*data.AssetMetadata
	r.paths.Ascend(normalized, func(p string, id data.GUID) bool {
		if !data.HasPathPrefix(p, normalized) {
			return false
		}
		records = append(records, r.assets[id])
		return true
	})

	return records
}

// Search is the naive substring scan over names and paths, kept for
// callers that do not need the indexed search.
func (r *Registry) Search(query string) []*data.AssetMetadata {
	query = strings.ToLower(query)
	if query == "" {
		return nil
	}

	var records []*data.AssetMetadata
	for _, meta := range r.assets {
		if strings.Contains(strings.ToLower(meta.Name), query) ||
			strings.Contains(meta.VirtualPath, query) {
			records = append(records, meta)
		}
	}

	return records
}

// All returns every record ordered by virtual path.
func (r *Registry) All() []*data.AssetMetadata {
	records := make([]*data.AssetMetadata, 0, len(r.assets))
	r.paths.Scan(func(p string, id data.GUID) bool {
		records = append(records, r.assets[id])
		return true
	})

	return records
}

// Len returns the number of registered assets.
func (r *Registry) Len() int {
	return len(r.assets)
}

// Dirty reports whether the registry has mutations not yet persisted.
func (r *Registry) Dirty() bool {
	return r.dirty
}

// SaveCache persists the full record set through the attached store
// and clears the dirty flag. In-memory state is never touched, so a
// failed save leaves nothing half-written.
func (r *Registry) SaveCache(ctx context.Context) error {
	if r.store == nil {
		return store.ErrNotOpen
	}

	if err := r.store.SaveRegistry(ctx, r.All()); err != nil {
		r.logger.Error("cache save failed: %v", err)
		return err
	}

	r.dirty = false
	return nil
}

// LoadCache replaces the in-memory map wholesale with the persisted
// record set. Records with invalid identifiers or colliding paths are
// dropped with a warning rather than aborting the load.
func (r *Registry) LoadCache(ctx context.Context) error {
	if r.store == nil {
		return store.ErrNotOpen
	}

	records, err := r.store.LoadRegistry(ctx)
	if err != nil {
		r.logger.Error("cache load failed: %v", err)
		return err
	}

	r.assets = make(map[data.GUID]*data.AssetMetadata, len(records))
	r.paths = btree.NewMap[string, data.GUID](0)
	r.byType = make(map[data.AssetType]map[data.GUID]struct{})
	r.byTag = make(map[string]map[data.GUID]struct{})

	for _, meta := range records {
		if !r.Register(meta) {
			r.logger.Warn("dropped cached record %s (%s)", meta.ID, meta.VirtualPath)
		}
	}

	r.dirty = false
	return nil
}

// SetDirtyFunc installs a callback invoked after every mutation; the
// cache saver uses it to schedule background saves.
func (r *Registry) SetDirtyFunc(fn func()) {
	r.onDirty = fn
}

func (r *Registry) markDirty() {
	r.dirty = true
	if r.onDirty != nil {
		r.onDirty()
	}
}

func (r *Registry) indexType(t data.AssetType, id data.GUID) {
	if r.byType[t] == nil {
		r.byType[t] = make(map[data.GUID]struct{})
	}
	r.byType[t][id] = struct{}{}
}

func (r *Registry) unindexType(t data.AssetType, id data.GUID) {
	if ids := r.byType[t]; ids != nil {
		delete(ids, id)
		if len(ids) == 0 {
			delete(r.byType, t)
		}
	}
}

func (r *Registry) indexTag(tag string, id data.GUID) {
	if r.byTag[tag] == nil {
		r.byTag[tag] = make(map[data.GUID]struct{})
	}
	r.byTag[tag][id] = struct{}{}
}

func (r *Registry) unindexTag(tag string, id data.GUID) {
	if ids := r.byTag[tag]; ids != nil {
		delete(ids, id)
		if len(ids) == 0 {
			delete(r.byTag, tag)
		}
	}
}
