// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package model

import "time"

// Profile mirrors the backend's user profile resource as edited in the
// settings area.
type Profile struct {
	ID          string    `json:"id,omitempty"`
	Email       string    `json:"email"`
	DisplayName string    `json:"display_name"`
	Timezone    string    `json:"timezone,omitempty"`
	UpdatedAt   time.Time `json:"updated_at,omitempty"`
}

// ProfileUpdate is the subset of profile fields the front-end may change.
type ProfileUpdate struct {
	DisplayName string `json:"display_name"`
	Timezone    string `json:"timezone,omitempty"`
}
