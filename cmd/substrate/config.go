// Copyright 2026 The Substrate Authors
// SPDX-License-Identifier: Apache-2.0

package main

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Config is the CLI configuration. It is loaded from a single file
// named by --config or the SUBSTRATE_CONFIG environment variable;
// there is no automatic discovery and no hidden overrides. All fields
// have working defaults, so running without a config file is fine.
type Config struct {
	// RegionSize is the domain region size in bytes. Zero selects
	// one page.
	RegionSize uint64 `yaml:"region_size"`

	// PoolPages is the page count for the exercise workload's bump
	// pool.
	PoolPages int `yaml:"pool_pages"`

	// Compression names the bundle compression tag: none, lz4, zstd.
	Compression string `yaml:"compression"`

	// Recipients are age public keys proof bundles are sealed to.
	// Empty means bundles are emitted unsealed.
	Recipients []string `yaml:"recipients"`
}

// defaultConfig returns the configuration used when no file is given.
func defaultConfig() Config {
	return Config{
		PoolPages:   4,
		Compression: "zstd",
	}
}

// loadConfig reads and validates a YAML config file.
func loadConfig(path string) (Config, error) {
	config := defaultConfig()

	raw, err := os.ReadFile(path)
	if err != nil {
		return config, fmt.Errorf("reading config %s: %w", path, err)
	}
	if err := yaml.Unmarshal(raw, &config); err != nil {
		return config, fmt.Errorf("parsing config %s: %w", path, err)
	}

	switch config.Compression {
	case "", "none", "lz4", "zstd":
	default:
		return config, fmt.Errorf("config %s: unknown compression %q", path, config.Compression)
	}
	if config.PoolPages <= 0 {
		return config, fmt.Errorf("config %s: pool_pages must be positive, got %d", path, config.PoolPages)
	}
	return config, nil
}
