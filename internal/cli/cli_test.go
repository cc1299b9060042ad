package cli

import (
	"bytes"
	"context"
	"path/filepath"
	"testing"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/require"

	"github.com/iska-scrum/iska/internal/config"
)

// newTestConfig writes a config whose SQLite database lives in a temp dir
// and clears any environment overrides.
func newTestConfig(t *testing.T) string {
	t.Helper()
	for envVar := range config.EnvVarMapping {
		t.Setenv(envVar, "")
	}
	t.Setenv("ISKA_USER", "")
	t.Setenv("ISKA_OUTPUT", "")

	dir := t.TempDir()
	cfgPath := filepath.Join(dir, config.FileName)
	cfg := config.Default()
	cfg.SQLite.Path = filepath.Join(dir, config.DatabaseFileName)
	require.NoError(t, config.NewStore(cfgPath).Save(cfg))
	return cfgPath
}

// runCLI executes one command line against cfgPath and returns stdout.
func runCLI(t *testing.T, cfgPath string, args ...string) (string, error) {
	t.Helper()
	viper.Reset()

	root := newRootCmd()
	var out, errOut bytes.Buffer
	root.SetOut(&out)
	root.SetErr(&errOut)
	root.SetArgs(append([]string{"--config", cfgPath}, args...))

	err := root.ExecuteContext(context.Background())
	return out.String(), err
}

// mustRun is runCLI that fails the test on error.
func mustRun(t *testing.T, cfgPath string, args ...string) string {
	t.Helper()
	out, err := runCLI(t, cfgPath, args...)
	require.NoError(t, err, "iska %v", args)
	return out
}
