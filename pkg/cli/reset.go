package cli

import (
	"flag"
	"fmt"
	"net/http"
)

func newResetCommand() *Command {
	cmd := &Command{
		Name:        "reset",
		Description: "Drop every document collection and re-seed groups (admin only)",
		Flags:       flag.NewFlagSet("reset", flag.ExitOnError),
		Run:         runReset,
	}

	cmd.Flags.Bool("yes", false, "Confirm the reset")
	addClientFlags(cmd.Flags)

	return cmd
}

func runReset(args []string) error {
	cmd := newResetCommand()
	if err := cmd.Flags.Parse(args); err != nil {
		return err
	}

	if cmd.Flags.Lookup("yes").Value.String() != "true" {
		return fmt.Errorf("reset destroys all documents; re-run with -yes to confirm")
	}

	client, err := clientFrom(cmd.Flags)
	if err != nil {
		return err
	}

	if err := client.do(http.MethodPost, "/api/v1/admin/reset", nil, nil); err != nil {
		return err
	}
	fmt.Println("Store reset")
	return nil
}
