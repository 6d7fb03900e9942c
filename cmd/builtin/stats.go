package builtin

import (
	"context"
	"fmt"
	"io"
	"sort"

	"github.com/nexelgames/assets"
	"github.com/nexelgames/assets/cmd"
	"github.com/nexelgames/assets/data"
)

// StatsCommand summarizes the registry: totals, per-type counts and
// loader cache occupancy.
type StatsCommand struct{}

func (s *StatsCommand) Name() string {
	return "stats"
}

func (s *StatsCommand) Description() string {
	return "Print registry and loader statistics"
}

func (s *StatsCommand) Usage() string {
	return "stats"
}

func (s *StatsCommand) Execute(ctx context.Context, project *assets.Project, args *cmd.Args, writer io.Writer) (int, error) {
	registry := project.Registry()

	counts := make(map[data.AssetType]int)
	var totalSize int64
	for _, meta := range registry.All() {
		counts[meta.Type]++
		totalSize += meta.Size
	}

	fmt.Fprintf(writer, "assets:  %d (%d bytes)\n", registry.Len(), totalSize)
	fmt.Fprintf(writer, "loaded:  %d\n", project.Loader().LoadedCount())
	fmt.Fprintf(writer, "indexed: %d\n", project.Index().IndexedCount())

	types := make([]data.AssetType, 0, len(counts))
	for t := range counts {
		types = append(types, t)
	}
	sort.Slice(types, func(i, j int) bool { return types[i] < types[j] })

	for _, t := range types {
		fmt.Fprintf(writer, "  %-10s %d\n", t, counts[t])
	}

	return 0, nil
}

func (s *StatsCommand) Flags() *cmd.FlagSet {
	return nil
}
