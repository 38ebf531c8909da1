// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package model

import "encoding/json"

// =============================================================================
// WIRE ENVELOPES
// =============================================================================

// Envelope is the JSON wrapper used by both the backend and the gateway:
// successful responses carry Data, failures carry Error. Exactly one of the
// two is populated.
type Envelope struct {
	Data  json.RawMessage `json:"data,omitempty"`
	Error string          `json:"error,omitempty"`
}

// ErrorEnvelope is the normalized error body the gateway relays for every
// backend failure: `{"error": "<message>"}`.
type ErrorEnvelope struct {
	Error string `json:"error"`
}

// FormResult is the transient outcome of a single form submission. A new
// result replaces the previous one on every submit; nothing here survives
// navigation.
type FormResult struct {
	Success bool              `json:"success"`
	Message string            `json:"message"`
	Errors  map[string]string `json:"errors,omitempty"`
}

// Rejected builds a failed result carrying field-level validation errors.
func Rejected(fields map[string]string) FormResult {
	return FormResult{Success: false, Errors: fields}
}

// Succeeded builds a successful result with a display message.
func Succeeded(message string) FormResult {
	return FormResult{Success: true, Message: message}
}

// Failed builds a failed result with a terminal message and no field errors.
func Failed(message string) FormResult {
	return FormResult{Success: false, Message: message}
}
