package commands

import (
	"encoding/json"
	"io"
	"strings"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/leapstack-labs/leapadmin/internal/ui"
	"github.com/leapstack-labs/leapadmin/pkg/admin"
	"github.com/leapstack-labs/leapadmin/pkg/store"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"
)

// NewRoutesCommand creates the routes command.
func NewRoutesCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "routes",
		Short: "List the admin routes",
		Long: `List every route the admin would register, in registration order.

Routes depend on the configured views and their permissions. The database is
not opened; the admin is built against an empty in-memory store.`,
		Example: `  # Routes as a table
  leapadmin routes -o table

  # Routes for a different mount point
  leapadmin routes --base-url /backoffice -o json`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runRoutes(cmd)
		},
	}

	cmd.Flags().String("base-url", "", "URL prefix the admin is mounted at (default: /admin)")

	return cmd
}

func runRoutes(cmd *cobra.Command) error {
	cfg := getConfig()

	format, err := outputFormat(cfg.OutputFormat, cmd.OutOrStdout())
	if err != nil {
		return err
	}

	db, err := store.Open(cmd.Context(), store.Config{Driver: "sqlite", DSN: ":memory:"}, nil)
	if err != nil {
		return err
	}
	defer func() { _ = db.Close() }()

	server, err := ui.NewServer(ui.Config{
		Title:         cfg.Title,
		BaseURL:       cfg.BaseURL,
		SessionSecret: "routes",
		Views:         cfg.Views,
		Store:         db,
	})
	if err != nil {
		return err
	}
	return renderRoutes(cmd.OutOrStdout(), server.Admin().BaseURL(), server.Admin().Routes(), format)
}

func renderRoutes(w io.Writer, base string, routes []admin.Route, format string) error {
	switch format {
	case formatJSON:
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(routes)
	case formatYAML:
		return yaml.NewEncoder(w).Encode(routes)
	}

	t := table.NewWriter()
	t.SetOutputMirror(w)
	t.SetStyle(table.StyleLight)
	t.AppendHeader(table.Row{"Name", "Methods", "Path"})
	for _, r := range routes {
		t.AppendRow(table.Row{r.Name, strings.Join(r.Methods, ","), base + r.Pattern})
	}
	t.Render()
	return nil
}
