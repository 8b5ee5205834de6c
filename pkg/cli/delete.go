package cli

import (
	"flag"
	"fmt"
	"net/http"
)

func newDeleteCommand() *Command {
	cmd := &Command{
		Name:        "delete",
		Description: "Delete a document",
		Flags:       flag.NewFlagSet("delete", flag.ExitOnError),
		Run:         runDelete,
	}

	cmd.Flags.String("type", "", "Document type name")
	cmd.Flags.String("id", "", "Document id")
	addClientFlags(cmd.Flags)

	return cmd
}

func runDelete(args []string) error {
	cmd := newDeleteCommand()
	if err := cmd.Flags.Parse(args); err != nil {
		return err
	}

	docType := cmd.Flags.Lookup("type").Value.String()
	id := cmd.Flags.Lookup("id").Value.String()
	if docType == "" || id == "" {
		return fmt.Errorf("type and id are required")
	}

	client, err := clientFrom(cmd.Flags)
	if err != nil {
		return err
	}

	var doc map[string]interface{}
	if err := client.do(http.MethodDelete, fmt.Sprintf("/api/v1/docs/%s/%s", docType, id), nil, &doc); err != nil {
		return err
	}
	fmt.Printf("Deleted %s/%s\n", docType, id)
	return nil
}
