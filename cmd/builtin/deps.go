package builtin

import (
	"context"
	"fmt"
	"io"

	"github.com/nexelgames/assets"
	"github.com/nexelgames/assets/cmd"
	"github.com/nexelgames/assets/data"
)

// DepsCommand prints the dependencies or dependents of an asset,
// addressed by virtual path or identifier.
type DepsCommand struct{}

func (d *DepsCommand) Name() string {
	return "deps"
}

func (d *DepsCommand) Description() string {
	return "Show what an asset depends on, or what depends on it"
}

func (d *DepsCommand) Usage() string {
	return "deps [-r] [--transitive] <path|guid>"
}

func (d *DepsCommand) Execute(ctx context.Context, project *assets.Project, args *cmd.Args, writer io.Writer) (int, error) {
	if len(args.Args) != 1 {
		return 1, fmt.Errorf("usage: %s", d.Usage())
	}

	id, err := resolveAsset(project, args.Args[0])
	if err != nil {
		return 1, err
	}

	graph := project.Graph()
	reverse := args.Bool("reverse")
	transitive := args.Bool("transitive")

	var ids []data.GUID
	switch {
	case reverse && transitive:
		ids = graph.AllDependents(id, true)
	case reverse:
		ids = graph.DirectDependents(id)
	case transitive:
		ids = graph.AllDependencies(id, true)
	default:
		ids = graph.DirectDependencies(id)
	}

	for _, dep := range ids {
		if meta, exists := project.Registry().Get(dep); exists {
			fmt.Fprintf(writer, "%s  %s\n", dep, meta.VirtualPath)
		} else {
			fmt.Fprintf(writer, "%s  (unregistered)\n", dep)
		}
	}

	return 0, nil
}

func (d *DepsCommand) Flags() *cmd.FlagSet {
	return &cmd.FlagSet{Flags: map[string]*cmd.Flag{
		"reverse":    {Name: "reverse", Short: "r", Type: "bool", Description: "show dependents instead of dependencies"},
		"transitive": {Name: "transitive", Short: "t", Type: "bool", Description: "follow edges transitively"},
	}}
}

// resolveAsset accepts either a GUID string or a virtual path.
func resolveAsset(project *assets.Project, ref string) (data.GUID, error) {
	if id, ok := data.ParseGUID(ref); ok {
		return id, nil
	}

	meta, exists := project.Registry().GetByPath(ref)
	if !exists {
		return data.GUID{}, fmt.Errorf("no asset at %q", ref)
	}
	return meta.ID, nil
}
