// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package ui

import (
	"context"
	"errors"
	"strings"
	"testing"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/tradeline/tradeline-tui/internal/api"
	"github.com/tradeline/tradeline-tui/internal/model"
	"github.com/tradeline/tradeline-tui/internal/ui/components"
	"github.com/tradeline/tradeline-tui/internal/ui/styles"
)

func newTestSettings() settingsModel {
	client := api.NewClient("http://localhost:1", api.Anonymous())
	return newSettingsModel(client, styles.NewTheme(), components.NewToastManager())
}

func testProviders() []model.Provider {
	return []model.Provider{
		{
			ID:      "openai",
			Name:    "openai",
			Enabled: true,
			Models: []model.Model{
				{ID: "gpt-4o", DisplayName: "GPT-4o", ProviderID: "openai",
					Capabilities: model.ModelCapabilities{Vision: true}},
				{ID: "gpt-4o-mini", DisplayName: "GPT-4o mini", ProviderID: "openai"},
			},
		},
		{
			ID:      "legacy",
			Name:    "legacy",
			Enabled: false,
			Models:  []model.Model{{ID: "old", DisplayName: "Old"}},
		},
	}
}

func TestFlattenProvidersSkipsDisabled(t *testing.T) {
	options := flattenProviders(testProviders())

	if len(options) != 2 {
		t.Fatalf("expected 2 options, got %d", len(options))
	}
	for _, opt := range options {
		if opt.ProviderID == "legacy" {
			t.Error("disabled providers should be skipped")
		}
	}
	if !strings.Contains(options[0].Label, "[vision]") {
		t.Error("vision-capable models should carry a badge")
	}
}

func TestProvidersLoadedPreselectsDefault(t *testing.T) {
	m := newTestSettings()

	m, _ = m.update(providersLoadedMsg{
		Providers: testProviders(),
		Settings:  &model.ProviderSettings{DefaultProviderID: "openai", DefaultModelID: "gpt-4o-mini"},
	})

	if m.loadingProviders {
		t.Error("load completion should clear the loading flag")
	}
	if len(m.options) != 2 {
		t.Fatalf("expected 2 options, got %d", len(m.options))
	}
	if m.options[m.selectedOption].ModelID != "gpt-4o-mini" {
		t.Errorf("selected option = %q, want the configured default", m.options[m.selectedOption].ModelID)
	}
}

func TestProfileLoadedFillsFields(t *testing.T) {
	m := newTestSettings()

	m, _ = m.update(profileLoadedMsg{Profile: &model.Profile{
		Email:       "trader@example.com",
		DisplayName: "Trader",
		Timezone:    "America/New_York",
	}})

	if m.nameInput.Value() != "Trader" {
		t.Errorf("name field = %q, want Trader", m.nameInput.Value())
	}
	if m.tzInput.Value() != "America/New_York" {
		t.Errorf("timezone field = %q", m.tzInput.Value())
	}

	view := m.view(80, 24)
	if !strings.Contains(view, "trader@example.com") {
		t.Error("view should show the signed-in email")
	}
}

func TestSubmitProfileStagesDraft(t *testing.T) {
	m := newTestSettings()
	m.nameInput.SetValue("New Name")
	m.tzInput.SetValue("Europe/Berlin")

	_, cmd := m.submitProfile()
	if cmd == nil {
		t.Fatal("submit should produce a save command")
	}

	staged := m.profileDraft.get()
	if staged.DisplayName != "New Name" || staged.Timezone != "Europe/Berlin" {
		t.Errorf("staged draft = %+v, want the typed values", staged)
	}
}

func TestSubmitProviderSelectionStagesDraft(t *testing.T) {
	m := newTestSettings()
	m, _ = m.update(providersLoadedMsg{
		Providers: testProviders(),
		Settings: &model.ProviderSettings{
			DefaultModelID:   "gpt-4o",
			EnabledProviders: []string{"openai"},
		},
	})
	m.selectedOption = 1

	_, cmd := m.submitProviderSelection()
	if cmd == nil {
		t.Fatal("selection should produce a save command")
	}

	staged := m.providerDraft.get()
	if staged.DefaultModelID != "gpt-4o-mini" {
		t.Errorf("staged model = %q, want gpt-4o-mini", staged.DefaultModelID)
	}
	if len(staged.EnabledProviders) != 1 {
		t.Error("selection save should preserve enabled providers")
	}
}

func TestProfileSavedIgnoresSupersededSave(t *testing.T) {
	m := newTestSettings()

	m, cmd := m.handleProfileSaved(profileSavedMsg{Err: context.Canceled})
	if cmd != nil {
		t.Error("a superseded save should be silent")
	}
	if m.toasts.HasToasts() {
		t.Error("a superseded save should not raise a toast")
	}
}

func TestProfileSavedError(t *testing.T) {
	m := newTestSettings()

	m, _ = m.handleProfileSaved(profileSavedMsg{Err: errors.New("boom")})
	if !m.toasts.HasToasts() {
		t.Error("a failed save should raise an error toast")
	}
}

func TestProfileSavedSuccess(t *testing.T) {
	m := newTestSettings()

	saved := &model.Profile{DisplayName: "Trader"}
	m, _ = m.handleProfileSaved(profileSavedMsg{Profile: saved})

	if m.profile != saved {
		t.Error("a successful save should adopt the returned profile")
	}
	toasts := m.toasts.GetToasts()
	if len(toasts) != 1 || toasts[0].Kind != components.ToastKindSuccess {
		t.Error("a successful save should raise a success toast")
	}
}

func TestSettingsTabSwitch(t *testing.T) {
	m := newTestSettings()

	if m.tab != tabProfile {
		t.Fatal("settings should start on the profile tab")
	}
	if !m.typing() {
		t.Error("profile tab should start with a focused field")
	}

	m, _ = m.update(tea.KeyMsg{Type: tea.KeyTab})
	if m.tab != tabProviders {
		t.Error("tab should switch to the providers pane")
	}
	if m.typing() {
		t.Error("providers pane has no text fields")
	}

	m, _ = m.update(tea.KeyMsg{Type: tea.KeyTab})
	if m.tab != tabProfile {
		t.Error("tab should switch back to the profile pane")
	}
}

func TestSettingsEscBlursFields(t *testing.T) {
	m := newTestSettings()

	m, _ = m.update(tea.KeyMsg{Type: tea.KeyEsc})
	if m.typing() {
		t.Error("esc should blur the profile fields")
	}
}
