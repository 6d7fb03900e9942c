package builtin

import (
	"context"
	"fmt"
	"io"

	"github.com/nexelgames/assets"
	"github.com/nexelgames/assets/cmd"
)

// LsCommand lists registered assets under a virtual directory.
type LsCommand struct{}

func (ls *LsCommand) Name() string {
	return "ls"
}

func (ls *LsCommand) Description() string {
	return "List registered assets under a virtual path"
}

func (ls *LsCommand) Usage() string {
	return "ls [-l] [path]"
}

func (ls *LsCommand) Execute(ctx context.Context, project *assets.Project, args *cmd.Args, writer io.Writer) (int, error) {
	prefix := "/"
	if len(args.Args) > 0 {
		prefix = args.Args[0]
	}

	long := args.Bool("long")

	for _, meta := range project.Registry().ListByPathPrefix(prefix) {
		if long {
			fmt.Fprintf(writer, "%s  %-10s %8d  %s\n", meta.ID, meta.Type, meta.Size, meta.VirtualPath)
		} else {
			fmt.Fprintln(writer, meta.VirtualPath)
		}
	}

	return 0, nil
}

func (ls *LsCommand) Flags() *cmd.FlagSet {
	return &cmd.FlagSet{Flags: map[string]*cmd.Flag{
		"long": {Name: "long", Short: "l", Type: "bool", Description: "show identifier, type and size"},
	}}
}
