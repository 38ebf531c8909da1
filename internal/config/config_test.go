// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package config

import (
	"os"
	"path/filepath"
	"sync"
	"testing"
)

func TestDefault(t *testing.T) {
	cfg := Default()

	if cfg.API.BaseURL != DefaultAPIBaseURL {
		t.Errorf("API.BaseURL = %q, want %q", cfg.API.BaseURL, DefaultAPIBaseURL)
	}
	if cfg.Gateway.Port != 8787 {
		t.Errorf("Gateway.Port = %d, want 8787", cfg.Gateway.Port)
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("default config should validate, got %v", err)
	}
}

func TestApplyEnvOverrides(t *testing.T) {
	t.Setenv(EnvAPIBaseURL, "https://api.example.com/v1/")
	t.Setenv("TRADELINE_GATEWAY_PORT", "9100")

	cfg := Default()
	cfg.ApplyEnvOverrides()

	if cfg.API.BaseURL != "https://api.example.com/v1" {
		t.Errorf("API.BaseURL = %q, want trailing slash trimmed", cfg.API.BaseURL)
	}
	if cfg.Gateway.Port != 9100 {
		t.Errorf("Gateway.Port = %d, want 9100", cfg.Gateway.Port)
	}
}

func TestApplyEnvOverrides_Absent(t *testing.T) {
	t.Setenv(EnvAPIBaseURL, "")

	cfg := Default()
	cfg.ApplyEnvOverrides()

	if cfg.API.BaseURL != DefaultAPIBaseURL {
		t.Errorf("absent env var must fall back to %q, got %q", DefaultAPIBaseURL, cfg.API.BaseURL)
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr bool
	}{
		{"valid", func(c *Config) {}, false},
		{"bad url", func(c *Config) { c.API.BaseURL = "not a url" }, true},
		{"bad scheme", func(c *Config) { c.API.BaseURL = "ftp://example.com" }, true},
		{"bad port", func(c *Config) { c.Gateway.Port = 70000 }, true},
		{"negative rate", func(c *Config) { c.Gateway.RateLimitPerMin = -1 }, true},
		{"bad theme", func(c *Config) { c.UI.Theme = "solarized" }, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(cfg)
			err := cfg.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestSaveLoadTOML_RoundTrip(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.toml")

	cfg := Default()
	cfg.API.BaseURL = "http://backend.test/api/v1"
	cfg.UI.CompactMode = true

	if err := SaveTOML(cfg, path); err != nil {
		t.Fatalf("SaveTOML() error = %v", err)
	}

	info, err := os.Stat(path)
	if err != nil {
		t.Fatalf("Stat() error = %v", err)
	}
	if info.Mode().Perm() != 0600 {
		t.Errorf("config perm = %o, want 0600", info.Mode().Perm())
	}

	loaded := Default()
	if err := LoadTOML(loaded, path); err != nil {
		t.Fatalf("LoadTOML() error = %v", err)
	}
	if loaded.API.BaseURL != cfg.API.BaseURL {
		t.Errorf("BaseURL = %q, want %q", loaded.API.BaseURL, cfg.API.BaseURL)
	}
	if !loaded.UI.CompactMode {
		t.Error("CompactMode should survive round trip")
	}
}

func TestLoadFromPath_JSON(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.json")
	data := []byte(`{"api":{"base_url":"http://json.test/api/v1"}}`)
	if err := os.WriteFile(path, data, 0600); err != nil {
		t.Fatal(err)
	}

	t.Setenv(EnvAPIBaseURL, "")
	cfg, err := LoadFromPath(path)
	if err != nil {
		t.Fatalf("LoadFromPath() error = %v", err)
	}
	if cfg.API.BaseURL != "http://json.test/api/v1" {
		t.Errorf("BaseURL = %q", cfg.API.BaseURL)
	}
	// Omitted sections filled with defaults.
	if cfg.Gateway.Port != 8787 {
		t.Errorf("Gateway.Port = %d, want default 8787", cfg.Gateway.Port)
	}
}

// TestConfig_ConcurrentAccess verifies Global/SetGlobal/ReloadGlobal are safe
// under concurrency. Run with: go test -race ./internal/config/
func TestConfig_ConcurrentAccess(t *testing.T) {
	ResetGlobalForTesting()

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(2)
		go func() {
			defer wg.Done()
			SetGlobal(Default())
		}()
		go func() {
			defer wg.Done()
			if Global() == nil {
				t.Error("Global() returned nil")
			}
		}()
	}
	wg.Wait()
}
