package cli

import (
	"encoding/json"
	"flag"
	"fmt"
	"net/http"
	"os"
)

func newImportCommand() *Command {
	cmd := &Command{
		Name:        "import",
		Description: "Import an exported store snapshot (admin only)",
		Flags:       flag.NewFlagSet("import", flag.ExitOnError),
		Run:         runImport,
	}

	cmd.Flags.String("file", "", "Export file to import")
	addClientFlags(cmd.Flags)

	return cmd
}

func runImport(args []string) error {
	cmd := newImportCommand()
	if err := cmd.Flags.Parse(args); err != nil {
		return err
	}

	file := cmd.Flags.Lookup("file").Value.String()
	if file == "" {
		return fmt.Errorf("file is required")
	}

	raw, err := os.ReadFile(file)
	if err != nil {
		return fmt.Errorf("failed to read import file: %w", err)
	}
	var payload json.RawMessage
	if err := json.Unmarshal(raw, &payload); err != nil {
		return fmt.Errorf("import file is not valid JSON: %w", err)
	}

	client, err := clientFrom(cmd.Flags)
	if err != nil {
		return err
	}

	if err := client.do(http.MethodPost, "/api/v1/admin/import", payload, nil); err != nil {
		return err
	}
	fmt.Printf("Imported %s\n", file)
	return nil
}
