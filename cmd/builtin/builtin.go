// Package builtin provides the stock console commands of the asset
// pipeline.
package builtin

import "github.com/nexelgames/assets/cmd"

// RegisterAll installs every builtin command on the manager.
func RegisterAll(manager *cmd.Manager) error {
	commands := []cmd.Command{
		&LsCommand{},
		&DepsCommand{},
		&SearchCommand{},
		&StatsCommand{},
	}

	for _, command := range commands {
		if err := manager.Register(command); err != nil {
			return err
		}
	}
	return nil
}
