package commands

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/google/uuid"
	"github.com/leapstack-labs/leapadmin/internal/cli/config"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"
)

// configFileName is the file written by init and found by the config loader.
const configFileName = "leapadmin.yaml"

// NewInitCommand creates the init command.
func NewInitCommand() *cobra.Command {
	var force bool

	cmd := &cobra.Command{
		Use:   "init [directory]",
		Short: "Write a starter leapadmin.yaml",
		Long: `Write a leapadmin.yaml with the default settings and a freshly generated
session secret. Edit the file to point at your database and to override
per-view options under views:.`,
		Example: `  # Initialize in current directory
  leapadmin init

  # Initialize in a new directory
  leapadmin init my-admin

  # Force overwrite existing config
  leapadmin init --force`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			dir := "."
			if len(args) > 0 {
				dir = args[0]
			}
			return runInit(cmd, dir, force)
		},
	}

	cmd.Flags().BoolVar(&force, "force", false, "Overwrite existing configuration")

	return cmd
}

func runInit(cmd *cobra.Command, dir string, force bool) error {
	if dir != "." {
		if err := os.MkdirAll(dir, 0750); err != nil {
			return fmt.Errorf("failed to create directory %s: %w", dir, err)
		}
	}

	configPath := filepath.Join(dir, configFileName)
	if _, err := os.Stat(configPath); err == nil && !force {
		return fmt.Errorf("%s already exists. Use --force to overwrite", configFileName)
	}

	cfg := config.Defaults()
	cfg.SessionSecret = uuid.NewString()
	cfg.OutputFormat = ""
	cfg.Views = map[string]config.ViewConfig{
		"users": {PageSize: 20},
	}

	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("failed to encode config: %w", err)
	}
	if err := os.WriteFile(configPath, data, 0600); err != nil {
		return fmt.Errorf("failed to write %s: %w", configPath, err)
	}

	out := cmd.OutOrStdout()
	_, _ = fmt.Fprintf(out, "Wrote %s\n\n", configPath)
	_, _ = fmt.Fprintln(out, "Next steps:")
	_, _ = fmt.Fprintln(out, "  leapadmin migrate up   Create the admin tables")
	_, _ = fmt.Fprintln(out, "  leapadmin seed         Insert demo data")
	_, _ = fmt.Fprintln(out, "  leapadmin serve        Start the admin server")
	return nil
}
