// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// tui.go - Interactive terminal client launcher.
//
// Command: tui (default)
// Short:   Launch the interactive terminal client
//
// Wires together configuration, stored credentials, the local
// conversation cache and the backend client, then hands control
// to the Bubble Tea program.
package cli

import (
	"errors"
	"fmt"
	"log"
	"os"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/tradeline/tradeline-tui/internal/api"
	"github.com/tradeline/tradeline-tui/internal/config"
	"github.com/tradeline/tradeline-tui/internal/credstore"
	"github.com/tradeline/tradeline-tui/internal/storage"
	"github.com/tradeline/tradeline-tui/internal/ui"
	"github.com/tradeline/tradeline-tui/internal/ui/styles"
)

// RunTUI launches the interactive terminal client.
func RunTUI(args Args) error {
	cfg := loadConfig(args)

	creds := loadCredentials(args)

	client := api.NewClient(cfg.API.BaseURL, creds).
		WithTimeout(time.Duration(cfg.API.TimeoutSecs) * time.Second)

	// The cache is optional: a broken local database degrades to
	// online-only operation instead of blocking startup.
	var cache *storage.Cache
	if cfg.Storage.CacheEnabled {
		c, err := storage.OpenDefault(cfg)
		if err != nil {
			log.Printf("CACHE_OPEN_FAILED | err=%v", err)
		} else {
			cache = c
			defer cache.Close()
		}
	}

	app := ui.New(ui.Options{
		Client:   client,
		Cache:    cache,
		Theme:    styles.NewThemeForMode(cfg.UI.Theme),
		SignedIn: creds.IsSet(),
	})

	p := tea.NewProgram(app, tea.WithAltScreen())
	if _, err := p.Run(); err != nil {
		return fmt.Errorf("running program: %w", err)
	}
	return nil
}

// loadConfig loads the configuration and applies CLI overrides on top of
// the file and environment values.
func loadConfig(args Args) *config.Config {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Warning: %v (using defaults)\n", err)
		cfg = config.Default()
		cfg.ApplyEnvOverrides()
	}

	if args.APIURL != "" {
		cfg.API.BaseURL = args.APIURL
	}
	if args.Theme != "" {
		cfg.UI.Theme = args.Theme
	}
	if args.Port > 0 {
		cfg.Gateway.Port = args.Port
	}

	config.SetGlobal(cfg)
	return cfg
}

// loadCredentials loads stored credentials, falling back to anonymous.
func loadCredentials(args Args) api.Credentials {
	store, err := credstore.Default()
	if err != nil {
		if !args.Quiet {
			fmt.Fprintf(os.Stderr, "Warning: credential store unavailable: %v\n", err)
		}
		return api.Anonymous()
	}

	creds, err := store.Load()
	if err != nil {
		if !errors.Is(err, credstore.ErrNoCredentials) && !args.Quiet {
			fmt.Fprintf(os.Stderr, "Warning: could not read credentials: %v\n", err)
		}
		return api.Anonymous()
	}
	return creds
}
