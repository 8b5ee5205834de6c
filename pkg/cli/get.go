package cli

import (
	"flag"
	"fmt"
	"net/http"
)

func newGetCommand() *Command {
	cmd := &Command{
		Name:        "get",
		Description: "Fetch one document",
		Flags:       flag.NewFlagSet("get", flag.ExitOnError),
		Run:         runGet,
	}

	cmd.Flags.String("type", "", "Document type name")
	cmd.Flags.String("id", "", "Document id")
	addClientFlags(cmd.Flags)

	return cmd
}

func runGet(args []string) error {
	cmd := newGetCommand()
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
	if err := client.do(http.MethodGet, fmt.Sprintf("/api/v1/docs/%s/%s", docType, id), nil, &doc); err != nil {
		return err
	}
	return printJSON(doc)
}
