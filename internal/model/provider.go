// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package model

// =============================================================================
// PROVIDER AND MODEL TYPES
// =============================================================================

// Provider represents a model provider as reported by the backend.
// Providers are read-only from the front-end's point of view: they are
// fetched per request and never cached.
type Provider struct {
	ID          string  `json:"id"`
	Name        string  `json:"name"`
	DisplayName string  `json:"display_name"`
	Enabled     bool    `json:"enabled"`
	Models      []Model `json:"models,omitempty"`
}

// ModelCapabilities describes what a model can do. The flags come straight
// from the backend and drive presentation only (e.g. showing a vision badge).
type ModelCapabilities struct {
	Vision       bool `json:"vision"`
	Tools        bool `json:"tools"`
	Streaming    bool `json:"streaming"`
	MaxTokens    int  `json:"max_tokens,omitempty"`
	ContextSize  int  `json:"context_length,omitempty"`
}

// Model represents a single selectable model belonging to a provider.
type Model struct {
	ID           string            `json:"id"`
	DisplayName  string            `json:"display_name"`
	ProviderID   string            `json:"provider_id"`
	Capabilities ModelCapabilities `json:"capabilities"`
	Default      bool              `json:"default,omitempty"`
}

// ProviderSettings holds the user's per-provider configuration as stored by
// the backend settings area (API keys stay server-side; only the selection
// travels through here).
type ProviderSettings struct {
	DefaultProviderID string            `json:"default_provider_id"`
	DefaultModelID    string            `json:"default_model_id"`
	EnabledProviders  []string          `json:"enabled_providers"`
	Options           map[string]string `json:"options,omitempty"`
}

// FindModel returns the model with the given ID, or nil if the provider does
// not carry it.
func (p *Provider) FindModel(id string) *Model {
	for i := range p.Models {
		if p.Models[i].ID == id {
			return &p.Models[i]
		}
	}
	return nil
}

// Label returns the provider's display name, falling back to its short name.
func (p *Provider) Label() string {
	if p.DisplayName != "" {
		return p.DisplayName
	}
	return p.Name
}
