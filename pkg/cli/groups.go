package cli

import (
	"encoding/json"
	"flag"
	"fmt"
	"net/http"
)

func newGroupsCommand() *Command {
	cmd := &Command{
		Name:        "groups",
		Description: "Manage user groups (list|get|create|update|delete)",
		Flags:       flag.NewFlagSet("groups", flag.ExitOnError),
		Run:         runGroups,
	}

	cmd.Flags.String("id", "", "Group id")
	cmd.Flags.String("data", "", "Group record as a JSON object")
	addClientFlags(cmd.Flags)

	return cmd
}

func runGroups(args []string) error {
	if len(args) == 0 {
		return fmt.Errorf("groups action is required: list, get, create, update or delete")
	}
	action := args[0]

	cmd := newGroupsCommand()
	if err := cmd.Flags.Parse(args[1:]); err != nil {
		return err
	}

	client, err := clientFrom(cmd.Flags)
	if err != nil {
		return err
	}

	id := cmd.Flags.Lookup("id").Value.String()
	raw := cmd.Flags.Lookup("data").Value.String()

	switch action {
	case "list":
		var list []map[string]interface{}
		if err := client.do(http.MethodGet, "/api/v1/groups", nil, &list); err != nil {
			return err
		}
		return printJSON(list)

	case "get":
		if id == "" {
			return fmt.Errorf("id is required")
		}
		var g map[string]interface{}
		if err := client.do(http.MethodGet, "/api/v1/groups/"+id, nil, &g); err != nil {
			return err
		}
		return printJSON(g)

	case "create":
		if raw == "" {
			return fmt.Errorf("data is required")
		}
		var g json.RawMessage
		if err := json.Unmarshal([]byte(raw), &g); err != nil {
			return fmt.Errorf("invalid JSON in -data: %w", err)
		}
		var created map[string]interface{}
		if err := client.do(http.MethodPost, "/api/v1/groups", g, &created); err != nil {
			return err
		}
		return printJSON(created)

	case "update":
		if id == "" || raw == "" {
			return fmt.Errorf("id and data are required")
		}
		var g json.RawMessage
		if err := json.Unmarshal([]byte(raw), &g); err != nil {
			return fmt.Errorf("invalid JSON in -data: %w", err)
		}
		var updated map[string]interface{}
		if err := client.do(http.MethodPut, "/api/v1/groups/"+id, g, &updated); err != nil {
			return err
		}
		return printJSON(updated)

	case "delete":
		if id == "" {
			return fmt.Errorf("id is required")
		}
		if err := client.do(http.MethodDelete, "/api/v1/groups/"+id, nil, nil); err != nil {
			return err
		}
		fmt.Printf("Deleted group %s\n", id)
		return nil

	default:
		return fmt.Errorf("unknown groups action: %s", action)
	}
}
