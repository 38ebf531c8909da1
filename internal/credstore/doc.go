// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package credstore persists the backend session token at rest.
//
// The token is encrypted with AES-256-GCM under a key derived via
// PBKDF2-SHA-256 from a per-machine secret generated on first save.
// Secret, salt, and ciphertext all live under the config directory with
// 0600 permissions. This protects against casual disk reads and backup
// leakage; an attacker with full access to the same account can recover
// the token, which is the same bar a platform keychain entry sets for a
// CLI without user-interactive unlock.
package credstore
