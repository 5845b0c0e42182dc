package commands

import (
	"encoding/json"
	"fmt"

	"github.com/leapstack-labs/leapadmin/internal/cli/config"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"
)

// NewConfigCommand creates the config command.
func NewConfigCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "config",
		Short: "Show the effective configuration",
		Long: `Print the configuration after defaults, leapadmin.yaml, LEAPADMIN_*
environment variables and flags have been merged. The session secret is
masked. Output is YAML unless --output json is given.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg := *getConfig()
			if cfg.SessionSecret != "" {
				cfg.SessionSecret = "********"
			}

			out := cmd.OutOrStdout()
			if path := config.GetConfigFileUsed(); path != "" {
				_, _ = fmt.Fprintf(cmd.ErrOrStderr(), "# loaded from %s\n", path)
			}
			if cfg.OutputFormat == formatJSON {
				enc := json.NewEncoder(out)
				enc.SetIndent("", "  ")
				return enc.Encode(cfg)
			}
			enc := yaml.NewEncoder(out)
			enc.SetIndent(2)
			return enc.Encode(cfg)
		},
	}
}
