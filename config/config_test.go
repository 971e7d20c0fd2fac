package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/spf13/pflag"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testFlags(t *testing.T, args ...string) *pflag.FlagSet {
	t.Helper()
	flags := pflag.NewFlagSet("test", pflag.ContinueOnError)
	flags.Float64P("threshold", "t", DefaultThreshold, "")
	flags.Float64P("auto-threshold", "a", 0, "")
	flags.BoolP("auto-delete-all", "A", false, "")
	flags.BoolP("dry-run", "d", false, "")
	flags.StringP("viewer-command", "c", DefaultViewerCommand, "")
	flags.String("hasher", DefaultHasher, "")
	require.NoError(t, flags.Parse(args))
	return flags
}

func emptyConfigFile(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("{}\n"), 0o644))
	return path
}

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load(testFlags(t), emptyConfigFile(t))
	require.NoError(t, err)

	assert.Equal(t, DefaultThreshold, cfg.Threshold)
	assert.Nil(t, cfg.AutoThreshold)
	assert.False(t, cfg.AutoDeleteAll)
	assert.Equal(t, DefaultViewerCommand, cfg.Viewer.Command)
	assert.Equal(t, DefaultHasher, cfg.Hasher)
	assert.Equal(t, DefaultFormat, cfg.Format)
	assert.Equal(t, "info", cfg.Logging.Level)
	assert.GreaterOrEqual(t, cfg.Workers, 1)
	assert.False(t, cfg.Journal.Enabled)
	assert.NotEmpty(t, cfg.Journal.Path)
}

func TestLoad_Flags(t *testing.T) {
	flags := testFlags(t, "-t", "0.2", "-a", "0.05", "-d", "-c", "eog --new-window")

	cfg, err := Load(flags, emptyConfigFile(t))
	require.NoError(t, err)

	assert.Equal(t, 0.2, cfg.Threshold)
	require.NotNil(t, cfg.AutoThreshold)
	assert.Equal(t, 0.05, *cfg.AutoThreshold)
	assert.True(t, cfg.DryRun)
	assert.Equal(t, "eog --new-window", cfg.Viewer.Command)
}

func TestLoad_ZeroAutoThresholdIsEnabled(t *testing.T) {
	cfg, err := Load(testFlags(t, "--auto-threshold=0"), emptyConfigFile(t))
	require.NoError(t, err)

	require.NotNil(t, cfg.AutoThreshold)
	assert.Zero(t, *cfg.AutoThreshold)
}

func TestLoad_ConfigFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	content := `
threshold: 0.25
auto_threshold: 0.01
hasher: icon
viewer:
  command: sxiv
  required: true
journal:
  enabled: true
  path: /tmp/runs.db
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))

	cfg, err := Load(testFlags(t, "--hasher", "phash"), path)
	require.NoError(t, err)

	assert.Equal(t, 0.25, cfg.Threshold)
	require.NotNil(t, cfg.AutoThreshold)
	assert.Equal(t, 0.01, *cfg.AutoThreshold)
	assert.Equal(t, "sxiv", cfg.Viewer.Command)
	assert.True(t, cfg.Viewer.Required)
	assert.True(t, cfg.Journal.Enabled)
	assert.Equal(t, "/tmp/runs.db", cfg.Journal.Path)
	// flags win over the file
	assert.Equal(t, "phash", cfg.Hasher)
}

func TestLoad_Environment(t *testing.T) {
	t.Setenv("IMAGEDEDUP_THRESHOLD", "0.15")
	t.Setenv("IMAGEDEDUP_VIEWER_COMMAND", "display")

	cfg, err := Load(testFlags(t), emptyConfigFile(t))
	require.NoError(t, err)

	assert.Equal(t, 0.15, cfg.Threshold)
	assert.Equal(t, "display", cfg.Viewer.Command)
}

func TestLoad_InvalidThreshold(t *testing.T) {
	_, err := Load(testFlags(t, "-t", "-0.5"), emptyConfigFile(t))
	assert.ErrorContains(t, err, "invalid threshold")

	t.Setenv("IMAGEDEDUP_THRESHOLD", "lots")
	_, err = Load(testFlags(t), emptyConfigFile(t))
	assert.ErrorContains(t, err, "invalid threshold")
}

func TestLoad_MissingExplicitConfig(t *testing.T) {
	_, err := Load(testFlags(t), filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}
