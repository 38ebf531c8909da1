// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package form provides the state containers behind every submitting
// surface in the client: a Mutation wrapping a single network call with
// loading and error state, and the validated magic-link submission flow.
//
// A Mutation does not deduplicate concurrent invocations. Each call
// cancels the context of the one before it and only the newest
// invocation may write the shared state, so a slow stale response can
// never clobber the result of a later submit.
package form
