package cli

import (
	"bytes"
	"context"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/leapstack-labs/leapadmin/internal/cli/config"
	"github.com/leapstack-labs/leapadmin/pkg/admin"
)

func execute(t *testing.T, args ...string) (string, string, error) {
	t.Helper()
	t.Chdir(t.TempDir())
	t.Cleanup(config.ResetConfig)
	t.Cleanup(func() { cfgFile = "" })

	cmd := NewRootCmd()
	stdout, stderr := new(bytes.Buffer), new(bytes.Buffer)
	cmd.SetOut(stdout)
	cmd.SetErr(stderr)
	cmd.SetArgs(args)
	err := cmd.ExecuteContext(context.Background())
	return stdout.String(), stderr.String(), err
}

func TestRootCommand_Subcommands(t *testing.T) {
	want := []string{"version", "serve", "migrate", "seed", "routes", "init", "config", "completion"}
	got := map[string]bool{}
	for _, c := range NewRootCmd().Commands() {
		got[c.Name()] = true
	}
	for _, name := range want {
		assert.True(t, got[name], "missing subcommand %q", name)
	}
}

func TestRootCommand_Version(t *testing.T) {
	out, _, err := execute(t, "version")
	require.NoError(t, err)
	assert.Contains(t, out, "LeapAdmin v"+Version)
}

func TestRootCommand_RoutesWithFlags(t *testing.T) {
	out, _, err := execute(t, "routes", "--base-url", "/backoffice", "-o", "json")
	require.NoError(t, err)

	var routes []admin.Route
	require.NoError(t, json.Unmarshal([]byte(out), &routes))
	require.NotEmpty(t, routes)
	assert.Equal(t, "/backoffice", config.GetCurrentConfig().BaseURL)
}

func TestRootCommand_InvalidConfig(t *testing.T) {
	_, _, err := execute(t, "--driver", "oracle", "routes")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown database driver")
}

func TestRootCommand_LogLevel(t *testing.T) {
	_, stderr, err := execute(t, "--log-level", "debug", "--dsn", ":memory:", "migrate", "up")
	require.NoError(t, err)
	assert.Contains(t, stderr, "applied migration")
}

func TestRootCommand_Completion(t *testing.T) {
	out, _, err := execute(t, "completion", "bash")
	require.NoError(t, err)
	assert.Contains(t, out, "leapadmin")

	_, _, err = execute(t, "completion", "tcsh")
	assert.Error(t, err)
}

func TestGetConfig_Defaults(t *testing.T) {
	cfg := GetConfig(context.Background())
	assert.Equal(t, config.DefaultTitle, cfg.Title)
	assert.Equal(t, config.DefaultBaseURL, cfg.BaseURL)
}
