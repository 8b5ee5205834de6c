package cli

import (
	"flag"
	"fmt"
	"net/http"
	"os"
)

func newExportCommand() *Command {
	cmd := &Command{
		Name:        "export",
		Description: "Export the whole store as JSON (admin only)",
		Flags:       flag.NewFlagSet("export", flag.ExitOnError),
		Run:         runExport,
	}

	cmd.Flags.String("out", "", "File to write the export to (default stdout)")
	cmd.Flags.Bool("ids-only", false, "Export document ids instead of full records")
	addClientFlags(cmd.Flags)

	return cmd
}

func runExport(args []string) error {
	cmd := newExportCommand()
	if err := cmd.Flags.Parse(args); err != nil {
		return err
	}

	client, err := clientFrom(cmd.Flags)
	if err != nil {
		return err
	}

	path := "/api/v1/admin/export"
	if cmd.Flags.Lookup("ids-only").Value.String() == "true" {
		path = "/api/v1/admin/export-ids"
	}

	var payload map[string]interface{}
	if err := client.do(http.MethodGet, path, nil, &payload); err != nil {
		return err
	}

	outFile := cmd.Flags.Lookup("out").Value.String()
	if outFile == "" {
		return printJSON(payload)
	}

	f, err := os.Create(outFile)
	if err != nil {
		return fmt.Errorf("failed to create export file: %w", err)
	}
	defer f.Close()
	if err := writeJSONIndent(f, payload); err != nil {
		return err
	}
	fmt.Printf("Exported store to %s\n", outFile)
	return nil
}
