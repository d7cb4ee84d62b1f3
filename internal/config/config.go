package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"

	"gopkg.in/yaml.v3"
)

// Config holds all configuration for cellflow
type Config struct {
	// Verbose enables debug logging
	Verbose bool `yaml:"verbose" env:"CELLFLOW_VERBOSE"`

	// JSONLogs switches log output to JSON lines
	JSONLogs bool `yaml:"json_logs" env:"CELLFLOW_JSON_LOGS"`

	// TrackBuiltins includes Python builtin names in read/write sets
	TrackBuiltins bool `yaml:"track_builtins" env:"CELLFLOW_TRACK_BUILTINS"`

	// StrictParse fails on cells with syntax errors instead of
	// analyzing what the parser could recover
	StrictParse bool `yaml:"strict_parse" env:"CELLFLOW_STRICT_PARSE"`

	// CacheEnabled persists analysis results between runs
	CacheEnabled bool `yaml:"cache_enabled" env:"CELLFLOW_CACHE_ENABLED"`

	// CacheDir is where the analysis cache lives
	CacheDir string `yaml:"cache_dir" env:"CELLFLOW_CACHE_DIR"`

	// MaxCacheEntries bounds the analysis cache (0 = unlimited)
	MaxCacheEntries int `yaml:"max_cache_entries" env:"CELLFLOW_MAX_CACHE_ENTRIES"`
}

// DefaultConfig returns a Config with sensible defaults.
func DefaultConfig() *Config {
	return &Config{
		Verbose:         false,
		JSONLogs:        false,
		TrackBuiltins:   false,
		StrictParse:     true,
		CacheEnabled:    true,
		CacheDir:        defaultCacheDir(),
		MaxCacheEntries: 4096,
	}
}

func defaultCacheDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ".cellflow/cache"
	}
	return filepath.Join(home, ".cellflow", "cache")
}

// globalConfigFilePath returns the global config file path (~/.cellflow/config.yaml)
func globalConfigFilePath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ".cellflow/config.yaml"
	}
	return filepath.Join(home, ".cellflow", "config.yaml")
}

// projectConfigFilePath returns the project-level config file path (./.cellflow/config.yaml)
func projectConfigFilePath() string {
	return ".cellflow/config.yaml"
}

// Load reads configuration with the following priority (highest to lowest):
// 1. Environment variables
// 2. Project-level config (./.cellflow/config.yaml)
// 3. Global config (~/.cellflow/config.yaml)
// 4. Defaults
func Load() (*Config, error) {
	cfg := DefaultConfig()

	globalConfigPath := globalConfigFilePath()
	if data, err := os.ReadFile(globalConfigPath); err == nil {
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("failed to parse config file %s: %w", globalConfigPath, err)
		}
	}

	projectConfigPath := projectConfigFilePath()
	if data, err := os.ReadFile(projectConfigPath); err == nil {
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("failed to parse config file %s: %w", projectConfigPath, err)
		}
	}

	applyEnvOverrides(cfg)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// LoadFromFile reads configuration from a specific YAML file path
func LoadFromFile(path string) (*Config, error) {
	cfg := DefaultConfig()

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file %s: %w", path, err)
	}

	applyEnvOverrides(cfg)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// applyEnvOverrides applies CELLFLOW_* environment variables on top of
// the loaded file values.
func applyEnvOverrides(cfg *Config) {
	if v, ok := lookupBool("CELLFLOW_VERBOSE"); ok {
		cfg.Verbose = v
	}
	if v, ok := lookupBool("CELLFLOW_JSON_LOGS"); ok {
		cfg.JSONLogs = v
	}
	if v, ok := lookupBool("CELLFLOW_TRACK_BUILTINS"); ok {
		cfg.TrackBuiltins = v
	}
	if v, ok := lookupBool("CELLFLOW_STRICT_PARSE"); ok {
		cfg.StrictParse = v
	}
	if v, ok := lookupBool("CELLFLOW_CACHE_ENABLED"); ok {
		cfg.CacheEnabled = v
	}
	if v := os.Getenv("CELLFLOW_CACHE_DIR"); v != "" {
		cfg.CacheDir = v
	}
	if v := os.Getenv("CELLFLOW_MAX_CACHE_ENTRIES"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.MaxCacheEntries = n
		}
	}
}

func lookupBool(key string) (bool, bool) {
	v, ok := os.LookupEnv(key)
	if !ok {
		return false, false
	}
	parsed, err := strconv.ParseBool(v)
	if err != nil {
		return false, false
	}
	return parsed, true
}

// Validate checks the configuration for invalid values.
func (c *Config) Validate() error {
	if c.MaxCacheEntries < 0 {
		return fmt.Errorf("max_cache_entries must be >= 0, got %d", c.MaxCacheEntries)
	}
	if c.CacheEnabled && c.CacheDir == "" {
		return fmt.Errorf("cache_dir must be set when cache_enabled is true")
	}
	return nil
}

// Save writes the configuration as YAML to path, creating parent
// directories as needed.
func (c *Config) Save(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("creating config dir: %w", err)
	}

	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("marshaling config: %w", err)
	}

	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("writing config file %s: %w", path, err)
	}
	return nil
}

// GlobalPath returns the global config file location.
func GlobalPath() string {
	return globalConfigFilePath()
}

// ProjectPath returns the project config file location.
func ProjectPath() string {
	return projectConfigFilePath()
}

// CacheFile returns the path of the persisted analysis cache.
func (c *Config) CacheFile() string {
	return filepath.Join(c.CacheDir, "analysis.msgpack")
}
