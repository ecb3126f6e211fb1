// Copyright 2026 The Substrate Authors
// SPDX-License-Identifier: Apache-2.0

package main

import (
	"os"
	"path/filepath"
	"testing"
)

func writeConfig(t *testing.T, contents string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "substrate.yaml")
	if err := os.WriteFile(path, []byte(contents), 0o600); err != nil {
		t.Fatalf("writing config: %v", err)
	}
	return path
}

func TestLoadConfig(t *testing.T) {
	path := writeConfig(t, `
region_size: 8192
pool_pages: 2
compression: lz4
recipients:
  - age1placeholderkey
`)
	config, err := loadConfig(path)
	if err != nil {
		t.Fatalf("loadConfig() error: %v", err)
	}
	if config.RegionSize != 8192 {
		t.Errorf("RegionSize = %d, want 8192", config.RegionSize)
	}
	if config.PoolPages != 2 {
		t.Errorf("PoolPages = %d, want 2", config.PoolPages)
	}
	if config.Compression != "lz4" {
		t.Errorf("Compression = %q, want lz4", config.Compression)
	}
	if len(config.Recipients) != 1 {
		t.Errorf("Recipients = %v, want one entry", config.Recipients)
	}
}

func TestLoadConfig_DefaultsSurvivePartialFile(t *testing.T) {
	path := writeConfig(t, `region_size: 4096`)
	config, err := loadConfig(path)
	if err != nil {
		t.Fatalf("loadConfig() error: %v", err)
	}
	if config.PoolPages != defaultConfig().PoolPages {
		t.Errorf("PoolPages = %d, want default %d", config.PoolPages, defaultConfig().PoolPages)
	}
}

func TestLoadConfig_RejectsUnknownCompression(t *testing.T) {
	path := writeConfig(t, `compression: brotli`)
	if _, err := loadConfig(path); err == nil {
		t.Error("loadConfig accepted unknown compression")
	}
}

func TestLoadConfig_MissingFile(t *testing.T) {
	if _, err := loadConfig("/nonexistent/substrate.yaml"); err == nil {
		t.Error("loadConfig on a missing file did not fail")
	}
}

func TestResolveConfig_NoFileUsesDefaults(t *testing.T) {
	t.Setenv("SUBSTRATE_CONFIG", "")
	config, err := resolveConfig("")
	if err != nil {
		t.Fatalf("resolveConfig() error: %v", err)
	}
	if config.Compression != "zstd" {
		t.Errorf("default Compression = %q, want zstd", config.Compression)
	}
}
