package assets

import "errors"

// Standard errors shared across the asset core components.
var (
	// Lookup errors
	ErrNotFound     = errors.New("assets: asset not found")
	ErrPathNotFound = errors.New("assets: virtual path not registered")

	// Invariant violations
	ErrDuplicateID    = errors.New("assets: identifier already registered")
	ErrDuplicatePath  = errors.New("assets: virtual path already registered")
	ErrSelfDependency = errors.New("assets: asset cannot depend on itself")
	ErrGraphMismatch  = errors.New("assets: forward/reverse edge maps out of sync")

	// Dispatch errors
	ErrNoImporter = errors.New("assets: no importer registered for extension")
	ErrNoLoader   = errors.New("assets: no loader registered for asset type")

	// Destructive operation errors
	ErrDeletionBlocked = errors.New("assets: deletion blocked by live dependents")
	ErrNoTrashDir      = errors.New("assets: no trash directory configured")

	// Lifecycle errors
	ErrClosed    = errors.New("assets: component closed")
	ErrCancelled = errors.New("assets: load request cancelled")
)
