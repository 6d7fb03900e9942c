package builtin

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/nexelgames/assets"
	"github.com/nexelgames/assets/cmd"
)

// SearchCommand runs a full-text query over the search index.
type SearchCommand struct{}

func (s *SearchCommand) Name() string {
	return "search"
}

func (s *SearchCommand) Description() string {
	return "Find assets matching every word of a query"
}

func (s *SearchCommand) Usage() string {
	return "search <word> [word...]"
}

func (s *SearchCommand) Execute(ctx context.Context, project *assets.Project, args *cmd.Args, writer io.Writer) (int, error) {
	if len(args.Args) == 0 {
		return 1, fmt.Errorf("usage: %s", s.Usage())
	}

	query := strings.Join(args.Args, " ")
	for _, id := range project.Search(query) {
		if meta, exists := project.Registry().Get(id); exists {
			fmt.Fprintf(writer, "%s  %s\n", id, meta.VirtualPath)
		}
	}

	return 0, nil
}

func (s *SearchCommand) Flags() *cmd.FlagSet {
	return nil
}
