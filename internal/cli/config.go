// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// config.go - Config command implementation.
//
// Command: config [subcommand]
// Short:   View and modify configuration
//
// Subcommands:
//   show (default)      Display current configuration
//   set <key> <value>   Set a configuration value
//   reset               Reset to default configuration
//   path                Show configuration file path
//
// Examples:
//   tradeline config                              Show current config
//   tradeline config show --json                  Config in JSON format
//   tradeline config set api.base_url https://api.example.com/api/v1
//   tradeline config set ui.theme dark
//   tradeline config set gateway.port 9000
//   tradeline config set storage.cache_enabled false
//   tradeline config reset                        Reset to defaults
//   tradeline config path                         Show config file location
//
// Configuration Keys:
//   api.base_url              Backend origin
//   api.timeout_secs          Per-request timeout in seconds
//   gateway.port              Gateway listen port
//   gateway.rate_limit_per_min  Requests per client IP per minute
//   ui.theme                  UI theme (dark/light/auto)
//   ui.show_timestamps        Show message timestamps (true/false)
//   ui.compact_mode           Compact layout (true/false)
//   storage.cache_enabled     Mirror conversations locally (true/false)
//   storage.max_conversations Cached history limit
package cli

import (
	"encoding/json"
	"fmt"
	"os"
	"strconv"

	"github.com/charmbracelet/lipgloss"

	"github.com/tradeline/tradeline-tui/internal/config"
)

// =============================================================================
// CONFIG STYLES
// =============================================================================

var (
	configTitleStyle = lipgloss.NewStyle().
				Bold(true).
				Foreground(lipgloss.Color("39")).
				MarginBottom(1)

	configKeyStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("245")).
			Width(28)
)

// HandleConfig dispatches the config subcommands.
func HandleConfig(args Args) error {
	switch args.Subcommand {
	case "", "show":
		return configShow(args)
	case "set":
		return configSet(args)
	case "reset":
		return configReset(args)
	case "path":
		return configPath()
	default:
		return fmt.Errorf("unknown config subcommand: %s", args.Subcommand)
	}
}

// configShow displays the current configuration.
func configShow(args Args) error {
	cfg := loadConfig(args)

	if args.JSON {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(cfg)
	}

	fmt.Println(configTitleStyle.Render("tradeline configuration"))
	for _, kv := range configEntries(cfg) {
		fmt.Printf("%s %s\n", configKeyStyle.Render(kv[0]), kv[1])
	}
	return nil
}

// configEntries flattens the config into ordered key-value pairs.
func configEntries(cfg *config.Config) [][2]string {
	return [][2]string{
		{"api.base_url", cfg.API.BaseURL},
		{"api.timeout_secs", strconv.Itoa(cfg.API.TimeoutSecs)},
		{"gateway.port", strconv.Itoa(cfg.Gateway.Port)},
		{"gateway.rate_limit_per_min", strconv.Itoa(cfg.Gateway.RateLimitPerMin)},
		{"ui.theme", cfg.UI.Theme},
		{"ui.show_timestamps", strconv.FormatBool(cfg.UI.ShowTimestamps)},
		{"ui.compact_mode", strconv.FormatBool(cfg.UI.CompactMode)},
		{"storage.cache_enabled", strconv.FormatBool(cfg.Storage.CacheEnabled)},
		{"storage.max_conversations", strconv.Itoa(cfg.Storage.MaxConversations)},
	}
}

// configSet updates a single configuration value and saves the file.
func configSet(args Args) error {
	if args.ConfigKey == "" || args.ConfigVal == "" {
		return fmt.Errorf("usage: tradeline config set <key> <value>")
	}

	cfg := loadConfig(args)

	if err := applyConfigKey(cfg, args.ConfigKey, args.ConfigVal); err != nil {
		return err
	}
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid value: %w", err)
	}
	if err := config.Save(cfg); err != nil {
		return fmt.Errorf("saving config: %w", err)
	}

	if !args.Quiet {
		fmt.Printf("Set %s = %s\n", args.ConfigKey, args.ConfigVal)
	}
	return nil
}

// applyConfigKey sets one dotted key on the config struct.
func applyConfigKey(cfg *config.Config, key, val string) error {
	switch key {
	case "api.base_url":
		cfg.API.BaseURL = val
	case "api.timeout_secs":
		return setInt(&cfg.API.TimeoutSecs, key, val)
	case "gateway.port":
		return setInt(&cfg.Gateway.Port, key, val)
	case "gateway.rate_limit_per_min":
		return setInt(&cfg.Gateway.RateLimitPerMin, key, val)
	case "ui.theme":
		cfg.UI.Theme = val
	case "ui.show_timestamps":
		return setBool(&cfg.UI.ShowTimestamps, key, val)
	case "ui.compact_mode":
		return setBool(&cfg.UI.CompactMode, key, val)
	case "storage.cache_enabled":
		return setBool(&cfg.Storage.CacheEnabled, key, val)
	case "storage.max_conversations":
		return setInt(&cfg.Storage.MaxConversations, key, val)
	default:
		return fmt.Errorf("unknown config key: %s", key)
	}
	return nil
}

func setInt(dst *int, key, val string) error {
	n, err := strconv.Atoi(val)
	if err != nil {
		return fmt.Errorf("%s expects a number, got %q", key, val)
	}
	*dst = n
	return nil
}

func setBool(dst *bool, key, val string) error {
	b, err := strconv.ParseBool(val)
	if err != nil {
		return fmt.Errorf("%s expects true or false, got %q", key, val)
	}
	*dst = b
	return nil
}

// configReset writes the default configuration back to disk.
func configReset(args Args) error {
	cfg := config.Default()
	if err := config.Save(cfg); err != nil {
		return fmt.Errorf("saving config: %w", err)
	}
	if !args.Quiet {
		fmt.Println("Configuration reset to defaults")
	}
	return nil
}

// configPath prints the configuration file location.
func configPath() error {
	path, err := config.ConfigPathTOML()
	if err != nil {
		return err
	}
	fmt.Println(path)
	return nil
}
