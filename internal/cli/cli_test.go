// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package cli provides command-line interface parsing and execution.
//
// This test file covers argument parsing for the user-facing commands:
// tui, serve, login, config, status.
package cli

import (
	"testing"

	"github.com/tradeline/tradeline-tui/internal/config"
)

// =============================================================================
// COMMAND DISPATCH TESTS
// =============================================================================

func TestParseArgs_Commands(t *testing.T) {
	tests := []struct {
		name string
		argv []string
		want Command
	}{
		{"no args defaults to tui", nil, CmdTUI},
		{"explicit tui", []string{"tui"}, CmdTUI},
		{"serve", []string{"serve"}, CmdServe},
		{"gateway alias", []string{"gateway"}, CmdServe},
		{"login", []string{"login", "a@b.com"}, CmdLogin},
		{"logout", []string{"logout"}, CmdLogout},
		{"status", []string{"status"}, CmdStatus},
		{"status alias", []string{"s"}, CmdStatus},
		{"config", []string{"config"}, CmdConfig},
		{"version", []string{"version"}, CmdVersion},
		{"version flag", []string{"--version"}, CmdVersion},
		{"help", []string{"help"}, CmdHelp},
		{"unknown command goes to help", []string{"frobnicate"}, CmdHelp},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cmd, _ := ParseArgs(tt.argv)
			if cmd != tt.want {
				t.Errorf("ParseArgs(%v) = %v, want %v", tt.argv, cmd, tt.want)
			}
		})
	}
}

func TestParseArgs_GlobalFlags(t *testing.T) {
	cmd, args := ParseArgs([]string{"--theme", "light", "--api-url=https://api.example.com/api/v1", "--json", "-q", "status"})
	if cmd != CmdStatus {
		t.Fatalf("cmd = %v, want CmdStatus", cmd)
	}
	if args.Theme != "light" {
		t.Errorf("Theme = %q, want %q", args.Theme, "light")
	}
	if args.APIURL != "https://api.example.com/api/v1" {
		t.Errorf("APIURL = %q", args.APIURL)
	}
	if !args.JSON {
		t.Error("JSON should be true")
	}
	if !args.Quiet {
		t.Error("Quiet should be true")
	}
}

func TestParseArgs_ServeFlags(t *testing.T) {
	tests := []struct {
		name string
		argv []string
		want int
	}{
		{"separate port flag", []string{"serve", "--port", "9000"}, 9000},
		{"equals form", []string{"serve", "--port=9001"}, 9001},
		{"short flag", []string{"serve", "-p", "9002"}, 9002},
		{"invalid port ignored", []string{"serve", "--port", "zero"}, 0},
		{"no flag", []string{"serve"}, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, args := ParseArgs(tt.argv)
			if args.Port != tt.want {
				t.Errorf("Port = %d, want %d", args.Port, tt.want)
			}
		})
	}
}

func TestParseArgs_LoginFlags(t *testing.T) {
	_, args := ParseArgs([]string{"login", "you@example.com"})
	if args.Email != "you@example.com" {
		t.Errorf("Email = %q", args.Email)
	}

	_, args = ParseArgs([]string{"login", "--token", "abc123"})
	if args.Token != "abc123" {
		t.Errorf("Token = %q", args.Token)
	}

	_, args = ParseArgs([]string{"login", "--token=xyz"})
	if args.Token != "xyz" {
		t.Errorf("Token = %q", args.Token)
	}
}

func TestParseArgs_ConfigSubcommands(t *testing.T) {
	_, args := ParseArgs([]string{"config"})
	if args.Subcommand != "show" {
		t.Errorf("Subcommand = %q, want show", args.Subcommand)
	}

	_, args = ParseArgs([]string{"config", "set", "ui.theme", "dark"})
	if args.Subcommand != "set" {
		t.Errorf("Subcommand = %q, want set", args.Subcommand)
	}
	if args.ConfigKey != "ui.theme" || args.ConfigVal != "dark" {
		t.Errorf("key/val = %q/%q", args.ConfigKey, args.ConfigVal)
	}

	_, args = ParseArgs([]string{"config", "path"})
	if args.Subcommand != "path" {
		t.Errorf("Subcommand = %q, want path", args.Subcommand)
	}
}

// =============================================================================
// CONFIG KEY TESTS
// =============================================================================

func TestApplyConfigKey(t *testing.T) {
	cfg := config.Default()

	if err := applyConfigKey(cfg, "ui.theme", "dark"); err != nil {
		t.Fatalf("ui.theme: %v", err)
	}
	if cfg.UI.Theme != "dark" {
		t.Errorf("Theme = %q", cfg.UI.Theme)
	}

	if err := applyConfigKey(cfg, "gateway.port", "9000"); err != nil {
		t.Fatalf("gateway.port: %v", err)
	}
	if cfg.Gateway.Port != 9000 {
		t.Errorf("Port = %d", cfg.Gateway.Port)
	}

	if err := applyConfigKey(cfg, "storage.cache_enabled", "false"); err != nil {
		t.Fatalf("storage.cache_enabled: %v", err)
	}
	if cfg.Storage.CacheEnabled {
		t.Error("CacheEnabled should be false")
	}

	if err := applyConfigKey(cfg, "gateway.port", "many"); err == nil {
		t.Error("expected error for non-numeric port")
	}
	if err := applyConfigKey(cfg, "nope.nope", "1"); err == nil {
		t.Error("expected error for unknown key")
	}
}

func TestConfigEntriesCoverAllKeys(t *testing.T) {
	cfg := config.Default()
	entries := configEntries(cfg)

	// Every displayed key must be settable.
	for _, kv := range entries {
		if err := applyConfigKey(cfg, kv[0], kv[1]); err != nil {
			t.Errorf("key %q shown but not settable: %v", kv[0], err)
		}
	}
}

func TestPrintVersionDoesNotPanic(t *testing.T) {
	PrintVersion()
	PrintUsage()
}
