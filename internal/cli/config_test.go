package cli

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/spf13/pflag"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadConfigDefaults(t *testing.T) {
	cfg, err := LoadConfig("", nil)
	require.NoError(t, err)
	assert.Equal(t, DefaultUser, cfg.User)
	assert.Equal(t, DefaultOutput, cfg.Output)
	assert.Empty(t, cfg.DatabasePath)
	assert.False(t, cfg.Verbose)
}

func TestLoadConfigFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "margin.yaml")
	require.NoError(t, os.WriteFile(path, []byte("database: /tmp/notes.db\nuser: alex\n"), 0o644))

	cfg, err := LoadConfig(path, nil)
	require.NoError(t, err)
	assert.Equal(t, "/tmp/notes.db", cfg.DatabasePath)
	assert.Equal(t, "alex", cfg.User)
}

func TestLoadConfigEnvOverridesFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "margin.yaml")
	require.NoError(t, os.WriteFile(path, []byte("user: filevalue\n"), 0o644))
	t.Setenv("MARGIN_USER", "envvalue")

	cfg, err := LoadConfig(path, nil)
	require.NoError(t, err)
	assert.Equal(t, "envvalue", cfg.User)
}

func TestLoadConfigFlagsOverrideEnv(t *testing.T) {
	t.Setenv("MARGIN_USER", "envvalue")

	flags := pflag.NewFlagSet("test", pflag.ContinueOnError)
	flags.String("user", "", "")
	flags.Bool("verbose", false, "")
	require.NoError(t, flags.Parse([]string{"--user", "flagvalue", "--verbose"}))

	cfg, err := LoadConfig("", flags)
	require.NoError(t, err)
	assert.Equal(t, "flagvalue", cfg.User)
	assert.True(t, cfg.Verbose)
}

func TestLoadConfigMissingExplicitFile(t *testing.T) {
	_, err := LoadConfig(filepath.Join(t.TempDir(), "nope.yaml"), nil)
	require.Error(t, err)
}
