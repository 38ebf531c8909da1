// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package api implements the HTTP client for the tradeline backend.
//
// The backend exposes a JSON API for authentication, account settings,
// model provider configuration, and chat conversations. Every method
// performs exactly one request attempt; callers decide whether a failed
// call is worth repeating, which keeps side-effecting operations such as
// sending a message from ever firing twice.
//
// Credentials are passed in explicitly when the client is constructed.
// The package never reads tokens from process-wide state, so tests and
// multi-account sessions can hold independent clients.
package api
