// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package config provides unified configuration loading and management for
// tradeline.
//
// Supports both TOML and JSON configuration formats, with sensible defaults,
// environment variable overrides, and validation.
//
// Configuration file locations (in order of precedence):
//   - ~/.tradeline/config.toml
//   - ~/.tradeline/config.json
//   - Built-in defaults
//
// The single most important setting is the backend API origin: it comes from
// the TRADELINE_API_URL environment variable when set, otherwise from the
// config file, otherwise it falls back to http://localhost:8080/api/v1.
package config
