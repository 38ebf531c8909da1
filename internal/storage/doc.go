// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package storage provides the local conversation cache backed by SQLite.
//
// The backend owns conversations; this cache keeps a local copy so the
// client can render history offline and open instantly. Cached data is
// always replaceable, so conflicts are resolved by overwriting with
// whatever the backend last returned.
package storage
