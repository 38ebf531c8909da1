// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package ui implements the tradeline terminal interface on Bubble Tea.
//
// The top-level App model owns three screens and routes messages between
// them:
//
//   - login: the magic-link sign-in form
//   - chat: conversation list plus the message view with send input
//   - settings: profile fields and provider/model selection
//
// All backend traffic goes through the api.Client handed to New; screens
// never construct their own HTTP clients. Long-running calls run inside
// tea.Cmd closures so the event loop stays responsive, and failures surface
// as corner toasts rather than modal errors.
package ui
