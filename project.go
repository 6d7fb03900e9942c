package assets

import (
	"context"
	"fmt"
	"time"

	"github.com/nexelgames/assets/data"
	"github.com/nexelgames/assets/log"
	"github.com/nexelgames/assets/store"
	"github.com/nexelgames/assets/vfs"
)

const (
	guidTablePath   = "/.assets/guids.json"
	collectionsPath = "/.assets/collections.json"
)

// Project wires the asset pipeline together: one filesystem, one
// registry and graph, the scanners feeding them, the loaders serving
// from them, and the cache saver keeping everything persisted.
type Project struct {
	fs     vfs.FileSystem
	store  store.Store
	logger *log.Logger

	registry *Registry
	graph    *DependencyGraph
	guids    *GUIDRegistry
	factory  *ImporterFactory
	deps     *DependencyScanner
	scanner  *Scanner
	loader   *Loader
	async    *AsyncLoader
	index    *SearchIndex
	groups   *CollectionManager
	deleter  *Deleter
	saver    *CacheSaver

	scanRoot     string
	scanWorkers  int
	asyncWorkers int
	trashDir     string
	debounce     time.Duration

	initialized bool
}

type ProjectOption func(*Project) error

// WithStore attaches the persistence backend for registry and graph
// caches. Without one the project runs purely in memory.
func WithStore(st store.Store) ProjectOption {
	return func(p *Project) error {
		p.store = st
		return nil
	}
}

func WithLogger(logger *log.Logger) ProjectOption {
	return func(p *Project) error {
		p.logger = logger
		return nil
	}
}

// WithImporterFactory replaces the builtin importer set.
func WithImporterFactory(factory *ImporterFactory) ProjectOption {
	return func(p *Project) error {
		p.factory = factory
		return nil
	}
}

// WithProjectScanRoot restricts scans to a virtual subtree.
func WithProjectScanRoot(root string) ProjectOption {
	return func(p *Project) error {
		p.scanRoot = root
		return nil
	}
}

func WithProjectScanWorkers(n int) ProjectOption {
	return func(p *Project) error {
		if n <= 0 {
			return fmt.Errorf("scan workers must be positive, got %d", n)
		}
		p.scanWorkers = n
		return nil
	}
}

func WithAsyncWorkers(n int) ProjectOption {
	return func(p *Project) error {
		if n <= 0 {
			return fmt.Errorf("async workers must be positive, got %d", n)
		}
		p.asyncWorkers = n
		return nil
	}
}

func WithProjectTrashDir(dir string) ProjectOption {
	return func(p *Project) error {
		p.trashDir = dir
		return nil
	}
}

// WithSaveDebounce tunes how long the cache saver lets edits settle
// before flushing.
func WithSaveDebounce(d time.Duration) ProjectOption {
	return func(p *Project) error {
		p.debounce = d
		return nil
	}
}

func NewProject(fs vfs.FileSystem, opts ...ProjectOption) (*Project, error) {
	p := &Project{
		fs:           fs,
		scanRoot:     "/",
		scanWorkers:  4,
		asyncWorkers: 2,
		trashDir:     "/.trash",
	}

	for _, opt := range opts {
		if err := opt(p); err != nil {
			return nil, err
		}
	}

	if p.logger == nil {
		p.logger = log.Default().Named("project")
	}
	if p.factory == nil {
		p.factory = NewDefaultImporterFactory()
	}

	var registryOpts []RegistryOption
	registryOpts = append(registryOpts, WithRegistryLogger(p.logger.Named("registry")))
	if p.store != nil {
		registryOpts = append(registryOpts, WithRegistryStore(p.store))
	}

	registry, err := NewRegistry(registryOpts...)
	if err != nil {
		return nil, err
	}

	p.registry = registry
	p.graph = NewDependencyGraph()
	p.guids = NewGUIDRegistry()
	p.deps = NewDependencyScanner(p.registry, p.graph, p.logger.Named("deps"))
	p.loader = NewLoader(p.registry, p.fs, p.logger.Named("loader"))
	p.index = NewSearchIndex()
	p.groups = NewCollectionManager(p.registry, p.index)
	p.deleter = NewDeleter(p.registry, p.graph, p.guids, p.fs,
		WithTrashDir(p.trashDir),
		WithDeleterLogger(p.logger.Named("deleter")))

	p.scanner, err = NewScanner(p.fs, p.registry, p.guids, p.factory, p.deps,
		WithScanRoot(p.scanRoot),
		WithScanWorkers(p.scanWorkers),
		WithScannerLogger(p.logger.Named("scanner")))
	if err != nil {
		return nil, err
	}

	return p, nil
}

// Initialize opens the store, restores the persisted caches and brings
// the derived structures (search index, reverse edges) back in sync.
func (p *Project) Initialize(ctx context.Context) error {
	if p.initialized {
		return nil
	}

	if p.store != nil {
		if err := p.store.Open(ctx); err != nil {
			return fmt.Errorf("open store: %w", err)
		}
		if err := p.registry.LoadCache(ctx); err != nil {
			return err
		}
		edges, err := p.store.LoadGraph(ctx)
		if err != nil {
			return err
		}
		p.graph.Restore(edges)
	}

	if err := p.guids.Load(ctx, p.fs, guidTablePath); err != nil {
		return err
	}
	if err := p.groups.Load(ctx, p.fs, collectionsPath); err != nil {
		return err
	}

	p.index.RebuildFrom(p.registry)

	p.async = NewAsyncLoader(p.loader, p.asyncWorkers, p.logger.Named("asyncloader"))
	p.saver = NewCacheSaver(p.saveCaches, p.debounce, p.logger.Named("cachesaver"))
	p.registry.SetDirtyFunc(p.saver.MarkDirty)

	p.initialized = true
	p.logger.Info("project initialized with %d assets", p.registry.Len())
	return nil
}

func (p *Project) saveCaches(ctx context.Context) error {
	if p.store != nil {
		if err := p.registry.SaveCache(ctx); err != nil {
			return err
		}
		if err := p.store.SaveGraph(ctx, p.graph.Snapshot()); err != nil {
			return err
		}
	}

	if err := p.guids.Save(ctx, p.fs, guidTablePath); err != nil {
		return err
	}
	return p.groups.Save(ctx, p.fs, collectionsPath)
}

// Scan walks the project tree, importing new and changed sources, then
// refreshes the search index from the updated registry.
func (p *Project) Scan(ctx context.Context, progress ScanProgress) (*ScanResult, error) {
	result, err := p.scanner.ScanAll(ctx, progress)
	if result != nil {
		p.index.RebuildFrom(p.registry)
	}
	if p.saver != nil {
		p.saver.MarkDirty()
	}
	return result, err
}

// Delete removes assets under the given policy and keeps the search
// index consistent with the registry afterwards.
func (p *Project) Delete(ctx context.Context, ids []data.GUID, policy DeletePolicy) (*DeleteResult, error) {
	result, err := p.deleter.Delete(ctx, ids, policy)
	if result != nil {
		for _, id := range result.Deleted {
			p.index.RemoveAsset(id)
		}
	}
	return result, err
}

// Search runs a full-text query over the index.
func (p *Project) Search(query string) []data.GUID {
	return p.index.Search(query)
}

// Shutdown drains the async loader, flushes pending cache writes and
// closes the store. Safe to call on a project that never initialized.
func (p *Project) Shutdown(ctx context.Context) error {
	if p.async != nil {
		p.async.Close()
	}

	var saveErr error
	if p.saver != nil {
		saveErr = p.saver.Close(ctx)
	}

	if p.store != nil {
		if err := p.store.Close(ctx); err != nil {
			p.logger.Warn("store close failed: %v", err)
			if saveErr == nil {
				saveErr = err
			}
		}
	}

	p.initialized = false
	return saveErr
}

// Accessors for the wired components.

func (p *Project) FileSystem() vfs.FileSystem { return p.fs }

func (p *Project) Registry() *Registry { return p.registry }

func (p *Project) Graph() *DependencyGraph { return p.graph }

func (p *Project) GUIDs() *GUIDRegistry { return p.guids }

func (p *Project) Importers() *ImporterFactory { return p.factory }

func (p *Project) Scanner() *Scanner { return p.scanner }

func (p *Project) Dependencies() *DependencyScanner { return p.deps }

func (p *Project) Loader() *Loader { return p.loader }

func (p *Project) AsyncLoader() *AsyncLoader { return p.async }

func (p *Project) Index() *SearchIndex { return p.index }

func (p *Project) Collections() *CollectionManager { return p.groups }

func (p *Project) Deleter() *Deleter { return p.deleter }
