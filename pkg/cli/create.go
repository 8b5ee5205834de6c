package cli

import (
	"flag"
	"fmt"
	"net/http"
)

func newCreateCommand() *Command {
	cmd := &Command{
		Name:        "create",
		Description: "Create a document",
		Flags:       flag.NewFlagSet("create", flag.ExitOnError),
		Run:         runCreate,
	}

	cmd.Flags.String("type", "", "Document type name")
	cmd.Flags.String("data", "", "Document fields as a JSON object")
	addClientFlags(cmd.Flags)

	return cmd
}

func runCreate(args []string) error {
	cmd := newCreateCommand()
	if err := cmd.Flags.Parse(args); err != nil {
		return err
	}

	docType := cmd.Flags.Lookup("type").Value.String()
	if docType == "" {
		return fmt.Errorf("type is required")
	}
	fields, err := parseFields(cmd.Flags.Lookup("data").Value.String())
	if err != nil {
		return err
	}

	client, err := clientFrom(cmd.Flags)
	if err != nil {
		return err
	}

	var doc map[string]interface{}
	if err := client.do(http.MethodPost, fmt.Sprintf("/api/v1/docs/%s", docType), fields, &doc); err != nil {
		return err
	}
	return printJSON(doc)
}
