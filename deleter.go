package assets

import (
	"context"
	"fmt"
	"path"

	"github.com/nexelgames/assets/data"
	"github.com/nexelgames/assets/log"
	"github.com/nexelgames/assets/vfs"
)

// DeletePolicy controls how the deleter treats assets that still have
// dependents outside the deletion batch.
type DeletePolicy int

const (
	// SafeOnly refuses the whole batch if any member is still
	// referenced from outside it.
	SafeOnly DeletePolicy = iota

	// BreakReferences deletes anyway and strips the dangling edges
	// from the surviving dependents.
	BreakReferences

	// CascadeDelete expands the batch to everything that transitively
	// depends on it.
	CascadeDelete
)

func (p DeletePolicy) String() string {
	switch p {
	case SafeOnly:
		return "safe-only"
	case BreakReferences:
		return "break-references"
	case CascadeDelete:
		return "cascade"
	default:
		return "unknown"
	}
}

// Validator answers "what breaks if these go away" without mutating
// anything.
type Validator struct {
	graph *DependencyGraph
}

func NewValidator(graph *DependencyGraph) *Validator {
	return &Validator{graph: graph}
}

// Validate returns, for every candidate that is still referenced from
// outside the batch, the direct dependents doing the referencing.
// Candidates with no outside dependents are absent from the result, so
// an empty map means the batch is safe.
func (v *Validator) Validate(ids []data.GUID) map[data.GUID][]data.GUID {
	batch := make(map[data.GUID]struct{}, len(ids))
	for _, id := range ids {
		batch[id] = struct{}{}
	}

	blocked := make(map[data.GUID][]data.GUID)
	for _, id := range ids {
		var outside []data.GUID
		for _, dependent := range v.graph.DirectDependents(id) {
			if _, inBatch := batch[dependent]; !inBatch {
				outside = append(outside, dependent)
			}
		}
		if len(outside) > 0 {
			blocked[id] = outside
		}
	}

	return blocked
}

// DeleteResult reports the outcome of one Delete call.
type DeleteResult struct {
	// Deleted holds every asset actually removed, including cascade
	// additions.
	Deleted []data.GUID

	// Blocked maps refused assets to the outside dependents that
	// blocked them. Only populated under SafeOnly.
	Blocked map[data.GUID][]data.GUID

	// Failed maps assets whose file relocation or unregistration
	// errored to the cause. The registry entry is still removed.
	Failed map[data.GUID]error
}

// Summary renders the outcome in one line for logs and console output.
func (r *DeleteResult) Summary() string {
	return fmt.Sprintf("%d deleted, %d blocked, %d failed",
		len(r.Deleted), len(r.Blocked), len(r.Failed))
}

// Deleter removes assets from the registry and graph, relocating their
// files and sidecars into a trash directory instead of destroying them.
type Deleter struct {
	registry  *Registry
	graph     *DependencyGraph
	guids     *GUIDRegistry
	validator *Validator
	fs        vfs.FileSystem
	logger    *log.Logger

	trashDir string
}

type DeleterOption func(*Deleter)

// WithTrashDir overrides the virtual directory deleted files move to.
func WithTrashDir(dir string) DeleterOption {
	return func(d *Deleter) {
		if normalized, err := data.NormalizePath(dir); err == nil {
			d.trashDir = normalized
		}
	}
}

func WithDeleterLogger(logger *log.Logger) DeleterOption {
	return func(d *Deleter) {
		d.logger = logger
	}
}

func NewDeleter(registry *Registry, graph *DependencyGraph, guids *GUIDRegistry, fs vfs.FileSystem, opts ...DeleterOption) *Deleter {
	d := &Deleter{
		registry:  registry,
		graph:     graph,
		guids:     guids,
		validator: NewValidator(graph),
		fs:        fs,
		trashDir:  "/.trash",
	}

	for _, opt := range opts {
		opt(d)
	}

	if d.logger == nil {
		d.logger = log.Default().Named("deleter")
	}

	return d
}

// Delete removes a batch of assets under the given policy.
//
// SafeOnly is all-or-nothing: one blocked member vetoes the entire
// batch and nothing is touched. The other policies always delete the
// (possibly expanded) batch; per-asset file errors land in Failed but
// never leave a registry entry behind.
func (d *Deleter) Delete(ctx context.Context, ids []data.GUID, policy DeletePolicy) (*DeleteResult, error) {
	result := &DeleteResult{
		Blocked: make(map[data.GUID][]data.GUID),
		Failed:  make(map[data.GUID]error),
	}

	batch := ids
	switch policy {
	case SafeOnly:
		blocked := d.validator.Validate(ids)
		if len(blocked) > 0 {
			result.Blocked = blocked
			return result, fmt.Errorf("%w: %d of %d assets still referenced", ErrDeletionBlocked, len(blocked), len(ids))
		}

	case CascadeDelete:
		batch = d.expandCascade(ids)
	}

	members := make(map[data.GUID]struct{}, len(batch))
	for _, id := range batch {
		members[id] = struct{}{}
	}

	for _, id := range batch {
		meta, exists := d.registry.Get(id)
		if !exists {
			continue
		}

		if policy == BreakReferences {
			d.breakReferences(id, members)
		}

		if err := d.MoveToTrash(ctx, id); err != nil {
			result.Failed[id] = err
			d.logger.Warn("trashing %s failed: %v", meta.VirtualPath, err)
		}

		d.graph.RemoveAll(id)
		d.registry.Unregister(id)
		if d.guids != nil {
			d.guids.Remove(id)
		}

		result.Deleted = append(result.Deleted, id)
		d.logger.Debug("deleted %s (%s)", meta.VirtualPath, id)
	}

	d.logger.Info("delete batch under %s policy: %s", policy, result.Summary())
	return result, nil
}

// expandCascade widens the batch with every transitive dependent,
// preserving first-seen order.
func (d *Deleter) expandCascade(ids []data.GUID) []data.GUID {
	seen := make(map[data.GUID]struct{}, len(ids))
	expanded := make([]data.GUID, 0, len(ids))

	add := func(id data.GUID) {
		if _, dup := seen[id]; dup {
			return
		}
		seen[id] = struct{}{}
		expanded = append(expanded, id)
	}

	for _, id := range ids {
		add(id)
		for _, dependent := range d.graph.AllDependents(id, true) {
			add(dependent)
		}
	}

	return expanded
}

// breakReferences drops the edges from surviving dependents onto the
// doomed asset and rewrites their cached dependency lists.
func (d *Deleter) breakReferences(id data.GUID, members map[data.GUID]struct{}) {
	for _, dependent := range d.graph.DirectDependents(id) {
		if _, inBatch := members[dependent]; inBatch {
			continue
		}

		d.graph.RemoveDependency(dependent, id)

		meta, exists := d.registry.Get(dependent)
		if !exists {
			continue
		}

		updated := meta.Clone()
		kept := updated.Dependencies[:0]
		for _, dep := range updated.Dependencies {
			if dep != id {
				kept = append(kept, dep)
			}
		}
		updated.Dependencies = kept
		d.registry.Update(dependent, updated)
	}
}

// MoveToTrash relocates an asset's file and sidecar under the trash
// directory, suffixing the name on collision. The registry entry is
// untouched; deletion bookkeeping belongs to Delete.
func (d *Deleter) MoveToTrash(ctx context.Context, id data.GUID) error {
	if d.trashDir == "" {
		return ErrNoTrashDir
	}

	meta, exists := d.registry.Get(id)
	if !exists {
		return fmt.Errorf("%w: %s", ErrNotFound, id)
	}

	if err := d.fs.MkdirAll(ctx, d.trashDir); err != nil {
		return fmt.Errorf("create trash dir: %w", err)
	}

	target, err := d.trashTarget(ctx, path.Base(meta.VirtualPath))
	if err != nil {
		return err
	}

	if err := d.fs.Rename(ctx, meta.VirtualPath, target); err != nil {
		return fmt.Errorf("trash %s: %w", meta.VirtualPath, err)
	}

	sidecar := data.SidecarPath(meta.VirtualPath)
	if ok, _ := d.fs.Exists(ctx, sidecar); ok {
		if err := d.fs.Rename(ctx, sidecar, target+data.SidecarSuffix); err != nil {
			return fmt.Errorf("trash sidecar of %s: %w", meta.VirtualPath, err)
		}
	}

	return nil
}

// trashTarget finds a free name under the trash directory, appending
// _1, _2, ... until one is available.
func (d *Deleter) trashTarget(ctx context.Context, name string) (string, error) {
	candidate := data.JoinPath(d.trashDir, name)
	for i := 1; ; i++ {
		exists, err := d.fs.Exists(ctx, candidate)
		if err != nil {
			return "", fmt.Errorf("check trash slot: %w", err)
		}
		if !exists {
			return candidate, nil
		}
		candidate = data.JoinPath(d.trashDir, fmt.Sprintf("%s_%d", name, i))
	}
}
