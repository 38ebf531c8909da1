// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package components provides shared UI components for the tradeline TUI.
//
// The main component is the non-blocking toast system: notifications that
// appear in the bottom-right corner and auto-dismiss, so a failed message
// send or a profile save error never blocks the rest of the interface.
// Error toasts can carry a retry action, surfaced to the user as an
// explicit "[r] Retry" hint.
package components
