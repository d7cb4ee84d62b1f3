package commands

import (
	"fmt"
	"os"
	"strings"

	"github.com/cellflow/cellflow/internal/config"
	"github.com/cellflow/cellflow/internal/log"
	"github.com/cellflow/cellflow/pkg/cache"
	"github.com/cellflow/cellflow/pkg/cell"
	"github.com/cellflow/cellflow/pkg/flow"
	"github.com/cellflow/cellflow/pkg/notebook"
)

// setupLogger applies config to the shared logger and returns it.
func setupLogger(cfg *config.Config) log.Logger {
	logger := log.Default()
	if cfg.Verbose {
		logger.SetLevel(log.DebugLevel)
	}
	logger.SetJSONOutput(cfg.JSONLogs)
	return logger
}

// buildFlow loads the notebook at path and assembles its flow,
// consulting the analysis cache for unchanged cells when enabled.
func buildFlow(path string) (*flow.Flow, *config.Config, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, nil, fmt.Errorf("loading config: %w", err)
	}
	logger := setupLogger(cfg)

	info, err := os.Stat(path)
	if err != nil {
		return nil, nil, fmt.Errorf("stat file: %w", err)
	}
	if info.IsDir() {
		return nil, nil, fmt.Errorf("path is a directory, expected a file: %s", path)
	}

	sources, err := notebook.Load(path)
	if err != nil {
		return nil, nil, err
	}
	logger.Debug("loaded notebook", "path", path, "cells", len(sources))

	var opts []cell.Option
	if cfg.TrackBuiltins {
		opts = append(opts, cell.WithBuiltins())
	}
	if !cfg.StrictParse {
		opts = append(opts, cell.Lenient())
	}

	if !cfg.CacheEnabled {
		f, err := flow.FromSources(sources, opts...)
		if err != nil {
			return nil, nil, err
		}
		return f, cfg, nil
	}

	store := cache.New(cache.WithMaxEntries(cfg.MaxCacheEntries))
	if err := store.LoadFile(cfg.CacheFile()); err != nil {
		logger.Warn("could not load analysis cache", "error", err)
	}

	// keys incorporate the analysis options so a config change never
	// replays stale results
	keyPrefix := fmt.Sprintf("builtins=%t;lenient=%t;", cfg.TrackBuiltins, !cfg.StrictParse)

	cells := make([]*cell.Cell, 0, len(sources))
	for i, src := range sources {
		key := cache.Key(keyPrefix + src)
		if r, ok := store.Get(key); ok {
			logger.Debug("cache hit", "cell", i)
			cells = append(cells, cell.Restore(src, r.Reads, r.Writes))
			continue
		}

		c, err := cell.New(src, opts...)
		if err != nil {
			return nil, nil, fmt.Errorf("cell %d: %w", i, err)
		}
		store.Put(key, cache.Result{Reads: c.Reads(), Writes: c.Writes()})
		cells = append(cells, c)
	}

	if err := store.SaveFile(cfg.CacheFile()); err != nil {
		logger.Warn("could not save analysis cache", "error", err)
	}

	return flow.New(cells...), cfg, nil
}

// firstLine compresses a cell source for one-line display.
func firstLine(source string) string {
	line := source
	if idx := strings.IndexByte(line, '\n'); idx >= 0 {
		line = line[:idx]
	}
	return strings.TrimSpace(line)
}
