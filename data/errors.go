package data

import (
	"errors"
	"sync"
)

// Standard errors shared across the asset core.
var (
	// Identifier and path errors
	ErrInvalidGUID = errors.New("assets: invalid identifier")
	ErrInvalidPath = errors.New("assets: invalid virtual path")
	ErrUnknownType = errors.New("assets: unknown asset type")
	ErrMalformed   = errors.New("assets: malformed record")
)

// Errors collects failures across a multi-step operation so batch
// callers can report partial success instead of aborting on the first
// bad item. Safe for concurrent Add.
type Errors struct {
	mu     sync.Mutex
	errors []error
}

func (e *Errors) Add(err error) {
	if err == nil {
		return
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	e.errors = append(e.errors, err)
}

func (e *Errors) Len() int {
	e.mu.Lock()
	defer e.mu.Unlock()

	return len(e.errors)
}

// Errors joins everything collected so far, or returns nil when the
// operation completed cleanly.
func (e *Errors) Errors() error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if len(e.errors) == 0 {
		return nil
	}

	return errors.Join(e.errors...)
}
