package commands

import (
	"fmt"
	"os/exec"
	"runtime"

	"github.com/leapstack-labs/leapadmin/internal/demo"
	"github.com/leapstack-labs/leapadmin/internal/ui"
	"github.com/spf13/cobra"
)

// ServeOptions holds options for the serve command.
type ServeOptions struct {
	NoMigrate bool
	Seed      bool
	Open      bool
}

// NewServeCommand creates the serve command.
func NewServeCommand() *cobra.Command {
	opts := &ServeOptions{}

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the admin server",
		Long: `Start the admin web server.

Pending migrations are applied before the server starts. Each registered
model gets list, detail, create, edit and delete screens under the base URL,
and Prometheus metrics are served at /metrics unless disabled.`,
		Example: `  # Serve on the default address
  leapadmin serve

  # Serve a seeded demo database on port 3000
  leapadmin serve --addr :3000 --seed

  # Serve against postgres
  leapadmin serve --driver postgres --dsn postgres://localhost/app`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runServe(cmd, opts)
		},
	}

	cmd.Flags().String("title", "", "Admin site title")
	cmd.Flags().String("base-url", "", "URL prefix the admin is mounted at (default: /admin)")
	cmd.Flags().String("addr", "", "Address to listen on (default: :8000)")
	cmd.Flags().Bool("metrics", true, "Serve Prometheus metrics at /metrics")
	cmd.Flags().Bool("debug", false, "Include error details in failure messages")
	cmd.Flags().BoolVar(&opts.NoMigrate, "no-migrate", false, "Don't apply pending migrations")
	cmd.Flags().BoolVar(&opts.Seed, "seed", false, "Insert demo data into empty tables")
	cmd.Flags().BoolVar(&opts.Open, "open", false, "Open the admin in a browser")

	return cmd
}

func runServe(cmd *cobra.Command, opts *ServeOptions) error {
	cmdCtx, cleanup, err := NewCommandContext(cmd)
	if err != nil {
		return err
	}
	defer cleanup()

	cfg := cmdCtx.Cfg
	ctx := cmd.Context()

	if !opts.NoMigrate {
		if _, err := cmdCtx.DB.Migrate(ctx, demo.Migrations()); err != nil {
			return err
		}
	}
	if opts.Seed {
		if _, err := demo.Seed(ctx, cmdCtx.DB); err != nil {
			return fmt.Errorf("failed to seed demo data: %w", err)
		}
	}

	server, err := ui.NewServer(ui.Config{
		Addr:          cfg.Addr,
		Title:         cfg.Title,
		BaseURL:       cfg.BaseURL,
		LogoURL:       cfg.LogoURL,
		FaviconURL:    cfg.FaviconURL,
		Debug:         cfg.Debug,
		SessionSecret: cfg.SessionSecret,
		Metrics:       cfg.Metrics,
		Views:         cfg.Views,
		Store:         cmdCtx.DB,
		Logger:        cmdCtx.Logger,
	})
	if err != nil {
		return err
	}

	if opts.Open {
		go openBrowser(browserURL(cfg.Addr, server.Admin().BaseURL()))
	}

	_, _ = fmt.Fprintf(cmd.OutOrStdout(), "Serving %s at %s\n", cfg.Title, browserURL(cfg.Addr, server.Admin().BaseURL()))
	_, _ = fmt.Fprintln(cmd.OutOrStdout(), "Press Ctrl+C to stop")

	return server.Serve(ctx)
}

// browserURL turns a listen address like ":8000" into a local URL.
func browserURL(addr, base string) string {
	host := addr
	if len(host) > 0 && host[0] == ':' {
		host = "localhost" + host
	}
	return "http://" + host + base + "/"
}

// openBrowser opens the default browser to the specified URL.
func openBrowser(url string) {
	var cmd *exec.Cmd

	switch runtime.GOOS {
	case "darwin":
		cmd = exec.Command("open", url) //nolint:noctx
	case "linux":
		cmd = exec.Command("xdg-open", url) //nolint:noctx
	case "windows":
		cmd = exec.Command("rundll32", "url.dll,FileProtocolHandler", url) //nolint:noctx
	default:
		return
	}

	_ = cmd.Start()
}
