package cli

import (
	"flag"
	"fmt"
	"net/http"
	"net/url"
	"strings"
)

func newQueryCommand() *Command {
	cmd := &Command{
		Name:        "query",
		Description: "List the documents of a type the caller may read",
		Flags:       flag.NewFlagSet("query", flag.ExitOnError),
		Run:         runQuery,
	}

	cmd.Flags.String("type", "", "Document type name")
	cmd.Flags.String("filter", "", "Field filters as key=value pairs, comma-separated")
	cmd.Flags.String("fields", "", "Comma-separated projection fields")
	addClientFlags(cmd.Flags)

	return cmd
}

func runQuery(args []string) error {
	cmd := newQueryCommand()
	if err := cmd.Flags.Parse(args); err != nil {
		return err
	}

	docType := cmd.Flags.Lookup("type").Value.String()
	if docType == "" {
		return fmt.Errorf("type is required")
	}

	params := url.Values{}
	if raw := cmd.Flags.Lookup("filter").Value.String(); raw != "" {
		for _, pair := range strings.Split(raw, ",") {
			key, value, ok := strings.Cut(pair, "=")
			if !ok {
				return fmt.Errorf("invalid filter %q, expected key=value", pair)
			}
			params.Set(key, value)
		}
	}
	if fields := cmd.Flags.Lookup("fields").Value.String(); fields != "" {
		params.Set("_fields", fields)
	}

	client, err := clientFrom(cmd.Flags)
	if err != nil {
		return err
	}

	path := fmt.Sprintf("/api/v1/docs/%s", docType)
	if encoded := params.Encode(); encoded != "" {
		path += "?" + encoded
	}

	var result map[string]interface{}
	if err := client.do(http.MethodGet, path, nil, &result); err != nil {
		return err
	}
	return printJSON(result)
}
