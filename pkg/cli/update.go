package cli

import (
	"flag"
	"fmt"
	"net/http"
)

func newUpdateCommand() *Command {
	cmd := &Command{
		Name:        "update",
		Description: "Patch a document's fields or transition its state",
		Flags:       flag.NewFlagSet("update", flag.ExitOnError),
		Run:         runUpdate,
	}

	cmd.Flags.String("type", "", "Document type name")
	cmd.Flags.String("id", "", "Document id")
	cmd.Flags.String("data", "", "Field patch as a JSON object")
	cmd.Flags.String("state", "", "Target state, added to the patch")
	addClientFlags(cmd.Flags)

	return cmd
}

func runUpdate(args []string) error {
	cmd := newUpdateCommand()
	if err := cmd.Flags.Parse(args); err != nil {
		return err
	}

	docType := cmd.Flags.Lookup("type").Value.String()
	id := cmd.Flags.Lookup("id").Value.String()
	if docType == "" || id == "" {
		return fmt.Errorf("type and id are required")
	}

	state := cmd.Flags.Lookup("state").Value.String()
	raw := cmd.Flags.Lookup("data").Value.String()

	fields := map[string]interface{}{}
	if raw != "" {
		parsed, err := parseFields(raw)
		if err != nil {
			return err
		}
		fields = parsed
	}
	if state != "" {
		fields["state"] = state
	}
	if len(fields) == 0 {
		return fmt.Errorf("data or state is required")
	}

	client, err := clientFrom(cmd.Flags)
	if err != nil {
		return err
	}

	var doc map[string]interface{}
	if err := client.do(http.MethodPut, fmt.Sprintf("/api/v1/docs/%s/%s", docType, id), fields, &doc); err != nil {
		return err
	}
	return printJSON(doc)
}
