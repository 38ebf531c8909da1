// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package model contains the data transfer objects mirrored from the
// tradeline backend: providers and their models, user profiles,
// conversations and messages, and the JSON envelopes shared by the backend
// and the gateway.
//
// These types are owned by the backend; this package only mirrors their
// wire shapes for display and submission. Nothing here is validated or
// enriched locally beyond trivial conveniences.
package model
