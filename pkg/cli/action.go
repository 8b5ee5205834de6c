package cli

import (
	"flag"
	"fmt"
	"net/http"
)

func newActionCommand() *Command {
	cmd := &Command{
		Name:        "action",
		Description: "Invoke the current state's action hook on a document",
		Flags:       flag.NewFlagSet("action", flag.ExitOnError),
		Run:         runAction,
	}

	cmd.Flags.String("type", "", "Document type name")
	cmd.Flags.String("id", "", "Document id")
	cmd.Flags.String("args", "", "Action arguments as a JSON object")
	addClientFlags(cmd.Flags)

	return cmd
}

func runAction(args []string) error {
	cmd := newActionCommand()
	if err := cmd.Flags.Parse(args); err != nil {
		return err
	}

	docType := cmd.Flags.Lookup("type").Value.String()
	id := cmd.Flags.Lookup("id").Value.String()
	if docType == "" || id == "" {
		return fmt.Errorf("type and id are required")
	}

	var payload map[string]interface{}
	if raw := cmd.Flags.Lookup("args").Value.String(); raw != "" {
		parsed, err := parseFields(raw)
		if err != nil {
			return err
		}
		payload = parsed
	}

	client, err := clientFrom(cmd.Flags)
	if err != nil {
		return err
	}

	var result interface{}
	if err := client.do(http.MethodPost, fmt.Sprintf("/api/v1/docs/%s/%s/action", docType, id), payload, &result); err != nil {
		return err
	}
	if result == nil {
		fmt.Println("No action result")
		return nil
	}
	return printJSON(result)
}
