// Package cli implements the docflowctl command line client. It talks to a
// running docflow server over its HTTP API, passing the caller identity
// through the trusted gateway headers.
package cli

import (
	"flag"
	"fmt"
	"os"
)

// Command represents a CLI command
type Command struct {
	Name        string
	Description string
	Run         func(args []string) error
	Subcommands map[string]*Command
	Flags       *flag.FlagSet
}

// NewRootCommand creates the root command
func NewRootCommand() *Command {
	root := &Command{
		Name:        "docflowctl",
		Description: "docflowctl - Document Workflow Engine CLI",
		Subcommands: make(map[string]*Command),
		Flags:       flag.NewFlagSet("docflowctl", flag.ExitOnError),
	}

	root.Subcommands["get"] = newGetCommand()
	root.Subcommands["query"] = newQueryCommand()
	root.Subcommands["create"] = newCreateCommand()
	root.Subcommands["update"] = newUpdateCommand()
	root.Subcommands["delete"] = newDeleteCommand()
	root.Subcommands["action"] = newActionCommand()
	root.Subcommands["groups"] = newGroupsCommand()
	root.Subcommands["export"] = newExportCommand()
	root.Subcommands["import"] = newImportCommand()
	root.Subcommands["reset"] = newResetCommand()

	return root
}

// Execute runs the command
func (c *Command) Execute() error {
	args := os.Args[1:]
	if len(args) == 0 {
		return c.usage()
	}

	if args[0] == "-h" || args[0] == "--help" {
		return c.usage()
	}

	if subcmd, ok := c.Subcommands[args[0]]; ok {
		return subcmd.Run(args[1:])
	}

	return fmt.Errorf("unknown command: %s", args[0])
}

// usage prints the command usage
func (c *Command) usage() error {
	fmt.Printf("Usage: %s <command> [args]\n\n", c.Name)
	fmt.Printf("Commands:\n")
	for name, cmd := range c.Subcommands {
		fmt.Printf("  %-15s %s\n", name, cmd.Description)
	}
	return nil
}
