package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	assert.False(t, cfg.Verbose)
	assert.False(t, cfg.TrackBuiltins)
	assert.True(t, cfg.StrictParse)
	assert.True(t, cfg.CacheEnabled)
	assert.NotEmpty(t, cfg.CacheDir)
	assert.Equal(t, 4096, cfg.MaxCacheEntries)

	require.NoError(t, cfg.Validate())
}

func TestLoadFromFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	data := `
verbose: true
track_builtins: true
strict_parse: false
max_cache_entries: 128
`
	require.NoError(t, os.WriteFile(path, []byte(data), 0o644))

	cfg, err := LoadFromFile(path)
	require.NoError(t, err)

	assert.True(t, cfg.Verbose)
	assert.True(t, cfg.TrackBuiltins)
	assert.False(t, cfg.StrictParse)
	assert.Equal(t, 128, cfg.MaxCacheEntries)
	// untouched fields keep their defaults
	assert.True(t, cfg.CacheEnabled)
}

func TestLoadFromFileMissing(t *testing.T) {
	_, err := LoadFromFile(filepath.Join(t.TempDir(), "absent.yaml"))
	assert.Error(t, err)
}

func TestLoadFromFileInvalidYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("verbose: [not a bool"), 0o644))

	_, err := LoadFromFile(path)
	assert.Error(t, err)
}

func TestEnvOverrides(t *testing.T) {
	t.Setenv("CELLFLOW_VERBOSE", "true")
	t.Setenv("CELLFLOW_TRACK_BUILTINS", "1")
	t.Setenv("CELLFLOW_CACHE_DIR", "/tmp/cellflow-test-cache")
	t.Setenv("CELLFLOW_MAX_CACHE_ENTRIES", "42")

	cfg := DefaultConfig()
	applyEnvOverrides(cfg)

	assert.True(t, cfg.Verbose)
	assert.True(t, cfg.TrackBuiltins)
	assert.Equal(t, "/tmp/cellflow-test-cache", cfg.CacheDir)
	assert.Equal(t, 42, cfg.MaxCacheEntries)
}

func TestEnvOverridesInvalidValues(t *testing.T) {
	t.Setenv("CELLFLOW_VERBOSE", "not-a-bool")
	t.Setenv("CELLFLOW_MAX_CACHE_ENTRIES", "not-a-number")

	cfg := DefaultConfig()
	applyEnvOverrides(cfg)

	assert.False(t, cfg.Verbose)
	assert.Equal(t, 4096, cfg.MaxCacheEntries)
}

func TestValidate(t *testing.T) {
	cfg := DefaultConfig()
	cfg.MaxCacheEntries = -1
	assert.Error(t, cfg.Validate())

	cfg = DefaultConfig()
	cfg.CacheEnabled = true
	cfg.CacheDir = ""
	assert.Error(t, cfg.Validate())

	cfg = DefaultConfig()
	cfg.CacheEnabled = false
	cfg.CacheDir = ""
	assert.NoError(t, cfg.Validate())
}

func TestSaveRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "config.yaml")

	cfg := DefaultConfig()
	cfg.Verbose = true
	cfg.MaxCacheEntries = 99
	require.NoError(t, cfg.Save(path))

	loaded, err := LoadFromFile(path)
	require.NoError(t, err)
	assert.True(t, loaded.Verbose)
	assert.Equal(t, 99, loaded.MaxCacheEntries)
}

func TestCacheFile(t *testing.T) {
	cfg := DefaultConfig()
	cfg.CacheDir = "/data/cache"
	assert.Equal(t, filepath.Join("/data/cache", "analysis.msgpack"), cfg.CacheFile())
}
