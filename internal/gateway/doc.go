// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package gateway provides the local HTTP gateway that fronts the
// tradeline backend.
//
// Endpoints:
//   - POST /api/auth/magic-link                        - Request a sign-in link
//   - GET  /api/settings/profile                       - Fetch profile
//   - PUT  /api/settings/profile                       - Update profile
//   - GET  /api/settings/providers                     - Fetch provider settings
//   - PUT  /api/settings/providers                     - Update provider settings
//   - GET  /api/providers                              - List provider catalog
//   - GET  /api/chat/conversations                     - List conversations
//   - GET  /api/chat/conversations/{id}                - Fetch a conversation
//   - GET  /api/chat/conversations/{id}/messages       - List messages
//   - POST /api/chat/conversations/{id}/messages       - Send a message
//   - GET  /health                                     - Health check
//   - GET  /stats                                      - Usage statistics
//
// Every /api route relays the request to the upstream backend exactly
// once. Only the Authorization and Content-Type headers cross the
// boundary; a missing Authorization header is forwarded as the empty
// string rather than omitted. Upstream errors are relayed with their
// status and a flat {"error": "..."} body, and any failure inside the
// gateway itself produces exactly 500 {"error": "Internal Server Error"}.
package gateway
