package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultConfigIsValid(t *testing.T) {
	cfg := DefaultConfig()
	assert.NoError(t, cfg.Validate())
}

func TestLoadConfigUsesDefaultsWhenAbsent(t *testing.T) {
	root := t.TempDir()

	result, err := LoadConfigWithDetails(root)
	require.NoError(t, err)

	assert.True(t, result.UsedDefaults)
	assert.Equal(t, DefaultConfig().Worker.Count, result.Config.Worker.Count)
}

func TestLoadConfigReadsConfigFile(t *testing.T) {
	root := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(root, ".codegraph"), 0o755))
	require.NoError(t, os.WriteFile(
		filepath.Join(root, ".codegraph", "config.json"),
		[]byte(`{"version":1,"worker":{"count":16}}`),
		0o644,
	))

	cfg, err := LoadConfig(root)
	require.NoError(t, err)

	assert.Equal(t, 16, cfg.Worker.Count)
}

func TestEnvOverridesApply(t *testing.T) {
	t.Setenv("CODEGRAPH_WORKER_COUNT", "32")
	t.Setenv("CODEGRAPH_LOG_LEVEL", "debug")

	root := t.TempDir()
	result, err := LoadConfigWithDetails(root)
	require.NoError(t, err)

	assert.Equal(t, 32, result.Config.Worker.Count)
	assert.Equal(t, "debug", result.Config.Logging.Level)
	assert.Len(t, result.EnvOverrides, 2)
}

func TestValidateRejectsUnsupportedVersion(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Version = 99

	err := cfg.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "version")
}

func TestValidateRejectsNonPositiveWorkerCount(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Worker.Count = 0

	err := cfg.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "worker.count")
}

func TestSaveRoundTrips(t *testing.T) {
	root := t.TempDir()
	cfg := DefaultConfig()
	cfg.Worker.Count = 4

	require.NoError(t, cfg.Save(root))

	reloaded, err := LoadConfig(root)
	require.NoError(t, err)
	assert.Equal(t, 4, reloaded.Worker.Count)
}

func TestGetSupportedEnvVarsNonEmpty(t *testing.T) {
	assert.NotEmpty(t, GetSupportedEnvVars())
}
