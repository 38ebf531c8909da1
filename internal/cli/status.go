// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// status.go - Status command implementation.
//
// Command: status
// Short:   Display backend, account and cache status
// Aliases: s
//
// Examples:
//   tradeline status              Show system status
//   tradeline status --json       Status in JSON format
//
// Status Sections:
//   Backend:   Configured origin and reachability
//   Account:   Signed-in state, token fingerprint, profile email
//   Cache:     Local conversation count and database location
//   Config:    Configuration file path
package cli

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/charmbracelet/lipgloss"

	"github.com/tradeline/tradeline-tui/internal/api"
	"github.com/tradeline/tradeline-tui/internal/config"
	"github.com/tradeline/tradeline-tui/internal/storage"
)

// =============================================================================
// STYLES
// =============================================================================

var (
	statusTitleStyle = lipgloss.NewStyle().
				Bold(true).
				Foreground(lipgloss.Color("39")).
				MarginBottom(1)

	sectionStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("255")).
			MarginTop(1)

	labelStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("245")).
			Width(14)

	okStyle = lipgloss.NewStyle().
		Foreground(lipgloss.Color("42"))

	warnStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("214"))

	errStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("203"))
)

// =============================================================================
// STATUS REPORT
// =============================================================================

// statusReport is the machine-readable form of the status output.
type statusReport struct {
	Version    string `json:"version"`
	BackendURL string `json:"backend_url"`
	Backend    string `json:"backend"` // "ok", "unauthorized", "unreachable"
	SignedIn   bool   `json:"signed_in"`
	TokenHint  string `json:"token_hint,omitempty"`
	Email      string `json:"email,omitempty"`
	CachedConv int    `json:"cached_conversations"`
	ConfigPath string `json:"config_path"`
}

// HandleStatus displays system status.
func HandleStatus(args Args) error {
	cfg := loadConfig(args)
	report := statusReport{
		Version:    Version,
		BackendURL: cfg.API.BaseURL,
	}

	creds := loadCredentials(args)
	report.SignedIn = creds.IsSet()
	if creds.IsSet() {
		report.TokenHint = creds.Fingerprint()
	}

	probeBackend(cfg, creds, &report)
	countCached(cfg, &report)

	if path, err := config.ConfigPathTOML(); err == nil {
		report.ConfigPath = path
	}

	if args.JSON {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(report)
	}

	printStatus(report)
	return nil
}

// probeBackend makes a single authenticated request to classify the
// backend as reachable, reachable-but-unauthorized, or unreachable.
func probeBackend(cfg *config.Config, creds api.Credentials, report *statusReport) {
	client := api.NewClient(cfg.API.BaseURL, creds).WithTimeout(5 * time.Second)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	profile, err := client.GetProfile(ctx)
	switch {
	case err == nil:
		report.Backend = "ok"
		report.Email = profile.Email
	case errors.Is(err, api.ErrUnauthorized):
		report.Backend = "unauthorized"
	default:
		report.Backend = "unreachable"
	}
}

// countCached reads the local conversation count, tolerating a missing
// or broken cache database.
func countCached(cfg *config.Config, report *statusReport) {
	if !cfg.Storage.CacheEnabled {
		return
	}
	cache, err := storage.OpenDefault(cfg)
	if err != nil {
		return
	}
	defer cache.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	if n, err := cache.Count(ctx); err == nil {
		report.CachedConv = n
	}
}

// printStatus renders the human-readable status output.
func printStatus(report statusReport) {
	fmt.Println(statusTitleStyle.Render("tradeline status"))

	fmt.Println(sectionStyle.Render("Backend"))
	fmt.Printf("%s %s\n", labelStyle.Render("URL"), report.BackendURL)
	switch report.Backend {
	case "ok":
		fmt.Printf("%s %s\n", labelStyle.Render("Reachable"), okStyle.Render("yes"))
	case "unauthorized":
		fmt.Printf("%s %s\n", labelStyle.Render("Reachable"), warnStyle.Render("yes (sign in required)"))
	default:
		fmt.Printf("%s %s\n", labelStyle.Render("Reachable"), errStyle.Render("no"))
	}

	fmt.Println(sectionStyle.Render("Account"))
	if report.SignedIn {
		fmt.Printf("%s %s\n", labelStyle.Render("Signed in"), okStyle.Render("yes"))
		fmt.Printf("%s %s\n", labelStyle.Render("Token"), report.TokenHint)
		if report.Email != "" {
			fmt.Printf("%s %s\n", labelStyle.Render("Email"), report.Email)
		}
	} else {
		fmt.Printf("%s %s\n", labelStyle.Render("Signed in"), warnStyle.Render("no"))
	}

	fmt.Println(sectionStyle.Render("Cache"))
	fmt.Printf("%s %d\n", labelStyle.Render("Conversations"), report.CachedConv)

	fmt.Println(sectionStyle.Render("Config"))
	fmt.Printf("%s %s\n", labelStyle.Render("Path"), report.ConfigPath)
}
