// Package testutil provides test utilities for CLI testing.
package testutil

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"regexp"
	"testing"

	"github.com/spf13/cobra"

	"github.com/leapstack-labs/leapadmin/internal/cli/config"
	logutil "github.com/leapstack-labs/leapadmin/internal/testutil"
)

// ConfigFileName is the config file written by SetupTestProject.
const ConfigFileName = "leapadmin.yaml"

// SetupTestProject changes into a fresh temporary directory backed by a
// file sqlite database, writes configYAML as leapadmin.yaml when it is not
// empty, and loads the configuration. Output defaults to JSON.
func SetupTestProject(t *testing.T, configYAML string) string {
	t.Helper()

	tmpDir := t.TempDir()
	t.Chdir(tmpDir)
	t.Setenv(config.EnvPrefix+"DATABASE_DSN", filepath.Join(tmpDir, "test.db"))
	t.Setenv(config.EnvPrefix+"OUTPUT", "json")

	if configYAML != "" {
		if err := os.WriteFile(filepath.Join(tmpDir, ConfigFileName), []byte(configYAML), 0o600); err != nil {
			t.Fatalf("failed to create %s: %v", ConfigFileName, err)
		}
	}

	t.Cleanup(config.ResetConfig)
	if _, err := config.LoadConfig("", nil); err != nil {
		t.Fatalf("failed to load config: %v", err)
	}
	return tmpDir
}

// ExecuteCommand runs cmd with args and a test logger in its context.
// Stdout and stderr are captured together.
func ExecuteCommand(t *testing.T, ctx context.Context, cmd *cobra.Command, args ...string) (string, error) {
	t.Helper()

	buf := new(bytes.Buffer)
	cmd.SetOut(buf)
	cmd.SetErr(buf)
	cmd.SetArgs(args)
	ctx = context.WithValue(ctx, config.LoggerKey(), logutil.NewTestLogger(t))
	err := cmd.ExecuteContext(ctx)
	return buf.String(), err
}

// ansiPattern matches ANSI escape codes.
var ansiPattern = regexp.MustCompile(`\x1b\[[0-9;]*[a-zA-Z]`)

// AssertNoANSI checks that a string contains no ANSI escape codes.
func AssertNoANSI(t *testing.T, s string) {
	t.Helper()
	if ansiPattern.MatchString(s) {
		t.Errorf("string contains ANSI escape codes: %q", s)
	}
}
