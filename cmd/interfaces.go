package cmd

import (
	"context"
	"io"

	"github.com/nexelgames/assets"
)

// Command is one console command of the asset pipeline (ls, deps,
// search, ...). Commands receive the project they operate on and write
// their output to the given writer.
type Command interface {
	// Name returns the command identifier.
	Name() string

	// Description returns human-readable help text.
	Description() string

	// Usage returns a usage string for help (e.g. "deps [-r] <path>").
	Usage() string

	// Execute runs the command with parsed arguments and returns an
	// exit code (0 = success).
	Execute(ctx context.Context, project *assets.Project, args *Args, writer io.Writer) (int, error)

	// Flags returns the flag set for this command (optional).
	Flags() *FlagSet
}
