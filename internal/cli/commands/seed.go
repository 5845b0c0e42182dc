package commands

import (
	"fmt"

	"github.com/leapstack-labs/leapadmin/internal/demo"
	"github.com/spf13/cobra"
)

// NewSeedCommand creates the seed command.
func NewSeedCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "seed",
		Short: "Insert demo data",
		Long: `Insert sample users, posts, todos, audit logs and products.

Pending migrations are applied first. Seeding is skipped when the users table
already has rows, so running it twice is safe.`,
		Example: `  # Seed the default sqlite database
  leapadmin seed

  # Seed a specific database
  leapadmin seed --dsn demo.db`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runSeed(cmd)
		},
	}

	return cmd
}

func runSeed(cmd *cobra.Command) error {
	cmdCtx, cleanup, err := NewCommandContext(cmd)
	if err != nil {
		return err
	}
	defer cleanup()

	ctx := cmd.Context()
	if _, err := cmdCtx.DB.Migrate(ctx, demo.Migrations()); err != nil {
		return err
	}

	seeded, err := demo.Seed(ctx, cmdCtx.DB)
	if err != nil {
		return fmt.Errorf("failed to seed demo data: %w", err)
	}
	if !seeded {
		_, _ = fmt.Fprintln(cmd.OutOrStdout(), "Demo data already present, nothing to do")
		return nil
	}
	_, _ = fmt.Fprintln(cmd.OutOrStdout(), "Seeded demo data")
	return nil
}
