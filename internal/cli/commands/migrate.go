package commands

import (
	"encoding/json"
	"fmt"
	"io"
	"time"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/leapstack-labs/leapadmin/internal/demo"
	"github.com/leapstack-labs/leapadmin/pkg/store"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"
)

// NewMigrateCommand creates the migrate command and its subcommands.
func NewMigrateCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Manage database migrations",
		Long: `Apply or inspect the schema migrations that create the admin tables.

Migrations are tracked in the goose version table of the configured database.`,
	}

	cmd.AddCommand(newMigrateUpCommand())
	cmd.AddCommand(newMigrateStatusCommand())
	return cmd
}

func newMigrateUpCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "up",
		Short: "Apply all pending migrations",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cmdCtx, cleanup, err := NewCommandContext(cmd)
			if err != nil {
				return err
			}
			defer cleanup()

			applied, err := cmdCtx.DB.Migrate(cmd.Context(), demo.Migrations())
			if err != nil {
				return err
			}
			if len(applied) == 0 {
				_, _ = fmt.Fprintln(cmd.OutOrStdout(), "No pending migrations")
				return nil
			}
			for _, v := range applied {
				_, _ = fmt.Fprintf(cmd.OutOrStdout(), "Applied migration %d\n", v)
			}
			return nil
		},
	}
}

func newMigrateStatusCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show which migrations have been applied",
		Example: `  # Status as a table
  leapadmin migrate status -o table

  # Status as JSON
  leapadmin migrate status -o json`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cmdCtx, cleanup, err := NewCommandContext(cmd)
			if err != nil {
				return err
			}
			defer cleanup()

			format, err := outputFormat(cmdCtx.Cfg.OutputFormat, cmd.OutOrStdout())
			if err != nil {
				return err
			}

			statuses, err := cmdCtx.DB.MigrationStatus(cmd.Context(), demo.Migrations())
			if err != nil {
				return err
			}
			return renderMigrationStatus(cmd.OutOrStdout(), statuses, format)
		},
	}
}

func renderMigrationStatus(w io.Writer, statuses []store.MigrationStatus, format string) error {
	switch format {
	case formatJSON:
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(statuses)
	case formatYAML:
		return yaml.NewEncoder(w).Encode(statuses)
	}

	t := table.NewWriter()
	t.SetOutputMirror(w)
	t.SetStyle(table.StyleLight)
	t.AppendHeader(table.Row{"Version", "State", "Applied At"})
	for _, s := range statuses {
		state, at := "pending", ""
		if s.Applied {
			state = "applied"
			at = s.AppliedAt.Format(time.DateTime)
		}
		t.AppendRow(table.Row{s.Version, state, at})
	}
	t.Render()
	return nil
}
