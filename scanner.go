package assets

import (
	"context"
	"errors"
	"fmt"

	"golang.org/x/sync/errgroup"

	"github.com/nexelgames/assets/data"
	"github.com/nexelgames/assets/log"
	"github.com/nexelgames/assets/vfs"
)

const defaultScanWorkers = 4

// Scanner walks the asset root, classifies files by extension, and
// runs importers to populate the registry. Meta sidecars carry the
// identifier across reimports: a file whose sidecar records the
// current modification time is skipped entirely.
//
// File reading and importing run on a bounded worker pool; all
// registry, graph and GUID-table mutation happens on the calling
// goroutine, preserving the single-writer discipline.
type Scanner struct {
	fs       vfs.FileSystem
	registry *Registry
	guids    *GUIDRegistry
	factory  *ImporterFactory
	deps     *DependencyScanner
	logger   *log.Logger

	root    string
	workers int
}

type ScannerOption func(*Scanner) error

// WithScanRoot sets the directory the scanner walks. Defaults to "/".
func WithScanRoot(root string) ScannerOption {
	return func(s *Scanner) error {
		normalized, err := data.NormalizePath(root)
		if err != nil {
			return err
		}
		s.root = normalized
		return nil
	}
}

// WithScanWorkers bounds the import concurrency.
func WithScanWorkers(n int) ScannerOption {
	return func(s *Scanner) error {
		if n < 1 {
			return fmt.Errorf("scanner workers must be >= 1, got %d", n)
		}
		s.workers = n
		return nil
	}
}

func WithScannerLogger(logger *log.Logger) ScannerOption {
	return func(s *Scanner) error {
		s.logger = logger
		return nil
	}
}

func NewScanner(fs vfs.FileSystem, registry *Registry, guids *GUIDRegistry, factory *ImporterFactory, deps *DependencyScanner, opts ...ScannerOption) (*Scanner, error) {
	s := &Scanner{
		fs:       fs,
		registry: registry,
		guids:    guids,
		factory:  factory,
		deps:     deps,
		root:     "/",
		workers:  defaultScanWorkers,
	}

	for _, opt := range opts {
		if err := opt(s); err != nil {
			return nil, err
		}
	}

	if s.logger == nil {
		s.logger = log.Default().Named("scanner")
	}

	return s, nil
}

// ScanResult reports the partial-success outcome of a full scan.
type ScanResult struct {
	Imported []string
	Skipped  []string
	Failed   []string

	errs data.Errors
}

// Err joins every per-file failure, or nil when the scan was clean.
func (r *ScanResult) Err() error {
	return r.errs.Errors()
}

// importOutcome carries one file's import from the worker pool back to
// the registration loop.
type importOutcome struct {
	path    string
	info    *vfs.FileInfo
	sidecar *data.MetaSidecar
	meta    *data.AssetMetadata
	err     error
}

// ScanAll walks the root and imports every file with a registered
// importer. Per-file failures are collected in the result, never
// fatal to the batch. The optional progress callback receives
// (processed, total) counts over the candidate files.
func (s *Scanner) ScanAll(ctx context.Context, progress ScanProgress) (*ScanResult, error) {
	result := &ScanResult{}

	var candidates []*vfs.FileInfo
	err := vfs.Walk(ctx, s.fs, s.root, func(info *vfs.FileInfo) error {
		if data.IsSidecarPath(info.Path) {
			return nil
		}
		if _, ok := s.factory.ForPath(info.Path); !ok {
			return nil
		}
		candidates = append(candidates, info)
		return nil
	})
	if err != nil {
		return nil, err
	}

	outcomes := make(chan *importOutcome)

	group, groupCtx := errgroup.WithContext(ctx)
	group.SetLimit(s.workers)
	go func() {
		for _, info := range candidates {
			group.Go(func() error {
				outcome := s.importFile(groupCtx, info)
				select {
				case outcomes <- outcome:
				case <-groupCtx.Done():
				}
				return nil
			})
		}
		group.Wait()
		close(outcomes)
	}()

	processed := 0
	total := len(candidates)
	for outcome := range outcomes {
		s.finishImport(ctx, outcome, result)

		processed++
		if progress != nil {
			progress(processed, total)
		}
	}

	s.logger.Info("scan of %s complete: %d imported, %d skipped, %d failed",
		s.root, len(result.Imported), len(result.Skipped), len(result.Failed))

	return result, ctx.Err()
}

// ScanFile imports a single file, returning its registered metadata.
// Unlike ScanAll this surfaces the failure directly.
func (s *Scanner) ScanFile(ctx context.Context, path string) (*data.AssetMetadata, error) {
	normalized, err := data.NormalizePath(path)
	if err != nil {
		return nil, err
	}

	info, err := s.fs.Stat(ctx, normalized)
	if err != nil {
		return nil, err
	}
	if info.IsDir {
		return nil, fmt.Errorf("%w: %s", vfs.ErrIsDirectory, normalized)
	}

	outcome := s.importFile(ctx, info)

	result := &ScanResult{}
	s.finishImport(ctx, outcome, result)
	if err := result.Err(); err != nil {
		return nil, err
	}

	meta, exists := s.registry.GetByPath(normalized)
	if !exists {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, normalized)
	}

	return meta, nil
}

// importFile runs on the worker pool: sidecar lookup, freshness check
// and the importer call. No shared state is mutated here.
func (s *Scanner) importFile(ctx context.Context, info *vfs.FileInfo) *importOutcome {
	outcome := &importOutcome{path: info.Path, info: info}

	outcome.sidecar = s.readSidecar(ctx, info.Path)

	if outcome.sidecar != nil && outcome.sidecar.UpToDate(info.ModTime) {
		// Unchanged since the last import; registration loop decides
		// whether the registry already knows it
		return outcome
	}

	importer, ok := s.factory.ForPath(info.Path)
	if !ok {
		outcome.err = fmt.Errorf("%w: %s", ErrNoImporter, info.Path)
		return outcome
	}

	var settings map[string]string
	if outcome.sidecar != nil {
		// Reimports keep the settings chosen on first import
		settings = outcome.sidecar.Settings
	}

	meta, err := importer.Import(ctx, s.fs, info.Path, settings)
	if err != nil {
		outcome.err = fmt.Errorf("import %s: %w", info.Path, err)
		return outcome
	}

	outcome.meta = meta
	return outcome
}

// finishImport applies one outcome on the calling goroutine: identifier
// resolution, registration, sidecar write and dependency rescan.
func (s *Scanner) finishImport(ctx context.Context, outcome *importOutcome, result *ScanResult) {
	if outcome.err != nil {
		s.logger.Error("%v", outcome.err)
		result.Failed = append(result.Failed, outcome.path)
		result.errs.Add(outcome.err)
		return
	}

	if outcome.meta == nil {
		// Source unchanged; reuse the cached record when present
		if outcome.sidecar != nil {
			if _, exists := s.registry.Get(outcome.sidecar.ID); exists {
				s.guids.Bind(outcome.sidecar.ID, outcome.path)
				result.Skipped = append(result.Skipped, outcome.path)
				return
			}
		}

		// Cache lost the record; force a fresh import
		importer, ok := s.factory.ForPath(outcome.path)
		if !ok {
			result.Skipped = append(result.Skipped, outcome.path)
			return
		}

		var settings map[string]string
		if outcome.sidecar != nil {
			settings = outcome.sidecar.Settings
		}

		meta, err := importer.Import(ctx, s.fs, outcome.path, settings)
		if err != nil {
			result.Failed = append(result.Failed, outcome.path)
			result.errs.Add(err)
			return
		}
		outcome.meta = meta
	}

	meta := outcome.meta

	// The sidecar is the source of truth for the identifier; the GUID
	// table covers files that never had one
	if outcome.sidecar != nil && outcome.sidecar.ID.IsValid() {
		meta.ID = outcome.sidecar.ID
	} else {
		meta.ID = s.guids.Assign(outcome.path)
	}
	s.guids.Bind(meta.ID, outcome.path)

	if _, exists := s.registry.Get(meta.ID); exists {
		if !s.registry.Update(meta.ID, meta) {
			result.Failed = append(result.Failed, outcome.path)
			result.errs.Add(fmt.Errorf("update %s failed", outcome.path))
			return
		}
	} else {
		// The path may still be held by a stale record from a cache
		// whose source file was replaced on disk
		if stale, exists := s.registry.GetByPath(meta.VirtualPath); exists {
			s.registry.Unregister(stale.ID)
		}
		if !s.registry.Register(meta) {
			result.Failed = append(result.Failed, outcome.path)
			result.errs.Add(fmt.Errorf("register %s failed", outcome.path))
			return
		}
	}

	if s.deps != nil {
		s.deps.Rescan(meta.ID)
		if refreshed, exists := s.registry.Get(meta.ID); exists {
			meta = refreshed
		}
	}

	if err := s.writeSidecar(ctx, meta); err != nil {
		s.logger.Warn("sidecar write for %s failed: %v", outcome.path, err)
		result.errs.Add(err)
	}

	result.Imported = append(result.Imported, outcome.path)
}

// Reimport re-runs the canonical importer for an already-registered
// asset, preserving its identifier and refreshing its sidecar.
func (s *Scanner) Reimport(ctx context.Context, id data.GUID) bool {
	meta, exists := s.registry.Get(id)
	if !exists {
		return false
	}

	importer, ok := s.factory.ForType(meta.Type)
	if !ok {
		importer, ok = s.factory.ForPath(meta.VirtualPath)
		if !ok {
			return false
		}
	}

	updated := meta.Clone()
	if err := importer.Reimport(ctx, s.fs, updated); err != nil {
		s.logger.Error("reimport %s: %v", meta.VirtualPath, err)
		return false
	}

	if !s.registry.Update(id, updated) {
		return false
	}

	if s.deps != nil {
		s.deps.Rescan(id)
	}

	if refreshed, exists := s.registry.Get(id); exists {
		if err := s.writeSidecar(ctx, refreshed); err != nil {
			s.logger.Warn("sidecar write for %s failed: %v", meta.VirtualPath, err)
		}
	}

	return true
}

func (s *Scanner) readSidecar(ctx context.Context, sourcePath string) *data.MetaSidecar {
	blob, err := s.fs.ReadFile(ctx, data.SidecarPath(sourcePath))
	if err != nil {
		if !errors.Is(err, vfs.ErrNotExist) {
			s.logger.Warn("sidecar read for %s failed: %v", sourcePath, err)
		}
		return nil
	}

	sidecar := &data.MetaSidecar{}
	if err := sidecar.Unmarshal(blob); err != nil {
		s.logger.Warn("sidecar for %s is malformed, reimporting: %v", sourcePath, err)
		return nil
	}

	return sidecar
}

func (s *Scanner) writeSidecar(ctx context.Context, meta *data.AssetMetadata) error {
	sidecar := &data.MetaSidecar{
		ID:            meta.ID,
		SourcePath:    meta.VirtualPath,
		Settings:      meta.Settings,
		Dependencies:  meta.Dependencies,
		SourceModTime: meta.ModTime,
	}

	blob, err := sidecar.Marshal()
	if err != nil {
		return err
	}

	return s.fs.WriteFile(ctx, data.SidecarPath(meta.VirtualPath), blob)
}
