// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package util provides small shared helpers for the tradeline application:
// atomic file writes, rune-safe string truncation, and numeric conversions.
package util
