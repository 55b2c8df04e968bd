package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestLoadWithOverridesWinsOverFile(t *testing.T) {
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, ".cctr.toml")
	require.NoError(t, os.WriteFile(configPath, []byte("[run]\npattern = \"from-file\"\n"), 0o600))

	cfg, err := LoadWithOverrides(tmpDir, map[string]any{
		"run": map[string]any{"pattern": "from-flag"},
	})
	require.NoError(t, err)
	require.Equal(t, "from-flag", cfg.Run.Pattern)
}

func TestLoadWithOverridesEmptyLeavesDefaults(t *testing.T) {
	tmpDir := t.TempDir()
	cfg, err := LoadWithOverrides(tmpDir, nil)
	require.NoError(t, err)
	require.Equal(t, 4, cfg.Run.Concurrency)
}

func TestLoadFromFileWithOverrides(t *testing.T) {
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "custom.toml")
	require.NoError(t, os.WriteFile(configPath, []byte("[run]\nconcurrency = 2\n"), 0o600))

	cfg, err := LoadFromFileWithOverrides(configPath, map[string]any{
		"output": map[string]any{"no-color": true},
	})
	require.NoError(t, err)
	require.Equal(t, 2, cfg.Run.Concurrency)
	require.True(t, cfg.Output.NoColor)
}
