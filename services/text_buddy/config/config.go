// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package config loads the revision service's YAML configuration.
//
// Configuration is loaded once at startup and passed down explicitly;
// there is no package-level singleton.
package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// Config is the top-level service configuration.
type Config struct {
	// Listen is the HTTP listen address, e.g. ":8098".
	Listen string `yaml:"listen"`

	// BaseDir roots all file paths the engine may read or write. Paths
	// resolving outside it are rejected.
	BaseDir string `yaml:"base_dir"`

	// Archive configures the durable review-outcome store.
	Archive ArchiveConfig `yaml:"archive"`

	// Watch configures external-change detection.
	Watch WatchConfig `yaml:"watch"`

	// Log configures logging output.
	Log LogConfig `yaml:"log"`
}

// ArchiveConfig configures the review-outcome archive.
type ArchiveConfig struct {
	// Enabled turns the archive on. Disabled hosts keep no durable
	// record of finished reviews.
	Enabled bool `yaml:"enabled"`

	// Path is the archive database directory.
	Path string `yaml:"path"`
}

// WatchConfig configures external-change detection.
type WatchConfig struct {
	// Enabled turns file watching on for files under review.
	Enabled bool `yaml:"enabled"`

	// Debounce is how long to wait for more changes to the same file
	// before emitting one event.
	Debounce time.Duration `yaml:"debounce"`
}

// LogConfig configures logging output.
type LogConfig struct {
	// Level is one of debug, info, warn, error.
	Level string `yaml:"level"`

	// JSON switches output from text to JSON.
	JSON bool `yaml:"json"`

	// Dir, when set, mirrors logs to a rotating file in this directory.
	Dir string `yaml:"dir,omitempty"`
}

// Default returns the configuration used when no file is given.
func Default() Config {
	return Config{
		Listen:  ":8098",
		BaseDir: ".",
		Archive: ArchiveConfig{
			Enabled: true,
			Path:    ".revise/archive",
		},
		Watch: WatchConfig{
			Enabled:  true,
			Debounce: 100 * time.Millisecond,
		},
		Log: LogConfig{
			Level: "info",
		},
	}
}

// Load reads configuration from a YAML file, filling unset fields with
// defaults. An empty path returns the defaults unchanged.
func Load(path string) (Config, error) {
	cfg := Default()
	if path == "" {
		return cfg, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("read config %s: %w", path, err)
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return Config{}, fmt.Errorf("parse config %s: %w", path, err)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, fmt.Errorf("config %s: %w", path, err)
	}
	return cfg, nil
}

// Validate checks the configuration for inconsistencies.
func (c *Config) Validate() error {
	if c.Listen == "" {
		return fmt.Errorf("listen address must not be empty")
	}
	if c.BaseDir == "" {
		return fmt.Errorf("base_dir must not be empty")
	}
	switch c.Log.Level {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("unknown log level %q", c.Log.Level)
	}
	if c.Archive.Enabled && c.Archive.Path == "" {
		return fmt.Errorf("archive.path required when archive is enabled")
	}
	if c.Watch.Enabled && c.Watch.Debounce <= 0 {
		return fmt.Errorf("watch.debounce must be positive")
	}
	return nil
}
