// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package ui

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/tradeline/tradeline-tui/internal/api"
	"github.com/tradeline/tradeline-tui/internal/form"
	"github.com/tradeline/tradeline-tui/internal/model"
	"github.com/tradeline/tradeline-tui/internal/ui/components"
	"github.com/tradeline/tradeline-tui/internal/ui/styles"
)

// settingsTab selects between the profile and provider panes.
type settingsTab int

const (
	tabProfile settingsTab = iota
	tabProviders
)

// modelOption is a flattened provider/model pair for the selection list.
type modelOption struct {
	ProviderID string
	ModelID    string
	Label      string
}

// draft holds the pending value a save mutation reads when it runs.
// The mutation's function closes over the draft, not over the model, so
// Bubble Tea's value-copy semantics never detach it from current input.
type draft[T any] struct {
	mu    sync.Mutex
	value T
}

func (d *draft[T]) set(v T) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.value = v
}

func (d *draft[T]) get() T {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.value
}

// =============================================================================
// SETTINGS MODEL
// =============================================================================

// settingsModel drives the settings screen. Saves go through form.Mutation,
// so a rapid second save cancels the first and only the newest outcome
// lands in the UI.
type settingsModel struct {
	client *api.Client
	theme  *styles.Theme
	toasts *components.ToastManager

	tab settingsTab

	// Profile pane
	profile        *model.Profile
	nameInput      textinput.Model
	tzInput        textinput.Model
	focusedField   int // 0 name, 1 timezone, -1 none
	loadingProfile bool

	profileDraft *draft[model.ProfileUpdate]
	saveProfile  *form.Mutation[*model.Profile]

	// Providers pane
	providers        []model.Provider
	options          []modelOption
	selectedOption   int
	settings         *model.ProviderSettings
	loadingProviders bool

	providerDraft *draft[model.ProviderSettings]
	saveProviders *form.Mutation[*model.ProviderSettings]

	spinner spinner.Model

	width  int
	height int
}

func newSettingsModel(client *api.Client, theme *styles.Theme, toasts *components.ToastManager) settingsModel {
	name := textinput.New()
	name.Prompt = "> "
	name.Placeholder = "Display name"
	name.CharLimit = 100
	name.Focus()

	tz := textinput.New()
	tz.Prompt = "> "
	tz.Placeholder = "Timezone (e.g. America/New_York)"
	tz.CharLimit = 64

	sp := spinner.New()
	sp.Spinner = spinner.Spinner{
		Frames: []string{"|", "/", "-", "\\"},
		FPS:    time.Second / 10,
	}
	sp.Style = theme.Spinner

	profileDraft := &draft[model.ProfileUpdate]{}
	providerDraft := &draft[model.ProviderSettings]{}

	return settingsModel{
		client:           client,
		theme:            theme,
		toasts:           toasts,
		nameInput:        name,
		tzInput:          tz,
		spinner:          sp,
		loadingProfile:   true,
		loadingProviders: true,
		profileDraft:     profileDraft,
		providerDraft:    providerDraft,
		saveProfile: form.NewMutation(func(ctx context.Context) (*model.Profile, error) {
			return client.UpdateProfile(ctx, profileDraft.get())
		}),
		saveProviders: form.NewMutation(func(ctx context.Context) (*model.ProviderSettings, error) {
			return client.UpdateProviderSettings(ctx, providerDraft.get())
		}),
	}
}

func (m settingsModel) init() tea.Cmd {
	return tea.Batch(
		loadProfileCmd(m.client),
		loadProvidersCmd(m.client),
		m.spinner.Tick,
		textinput.Blink,
	)
}

func (m settingsModel) typing() bool {
	return m.tab == tabProfile && m.focusedField >= 0
}

func (m settingsModel) update(msg tea.Msg) (settingsModel, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		fieldWidth := msg.Width - 16
		if fieldWidth > 48 {
			fieldWidth = 48
		}
		if fieldWidth < 20 {
			fieldWidth = 20
		}
		m.nameInput.Width = fieldWidth
		m.tzInput.Width = fieldWidth
		return m, nil

	case tea.KeyMsg:
		return m.handleKey(msg)

	case profileLoadedMsg:
		m.loadingProfile = false
		if msg.Err != nil {
			m.toasts.AddError("Could not load profile: " + errDetail(msg.Err))
			return m, components.ToastTickCmd()
		}
		m.profile = msg.Profile
		m.nameInput.SetValue(msg.Profile.DisplayName)
		m.tzInput.SetValue(msg.Profile.Timezone)
		return m, nil

	case profileSavedMsg:
		return m.handleProfileSaved(msg)

	case providersLoadedMsg:
		return m.handleProvidersLoaded(msg)

	case providerSettingsSavedMsg:
		return m.handleProviderSettingsSaved(msg)

	case spinner.TickMsg:
		if m.loadingProfile || m.loadingProviders || m.saveProfile.Loading() || m.saveProviders.Loading() {
			var cmd tea.Cmd
			m.spinner, cmd = m.spinner.Update(msg)
			return m, cmd
		}
		return m, nil
	}

	// Blink and other component messages go to the focused field.
	var cmd tea.Cmd
	switch {
	case m.tab == tabProfile && m.focusedField == 0:
		m.nameInput, cmd = m.nameInput.Update(msg)
	case m.tab == tabProfile && m.focusedField == 1:
		m.tzInput, cmd = m.tzInput.Update(msg)
	}
	return m, cmd
}

// =============================================================================
// KEY HANDLING
// =============================================================================

func (m settingsModel) handleKey(msg tea.KeyMsg) (settingsModel, tea.Cmd) {
	keyStr := msg.String()

	switch keyStr {
	case "tab":
		if m.tab == tabProfile {
			m.tab = tabProviders
			m.nameInput.Blur()
			m.tzInput.Blur()
			m.focusedField = -1
		} else {
			m.tab = tabProfile
			m.focusedField = 0
			m.nameInput.Focus()
		}
		return m, textinput.Blink
	}

	if m.tab == tabProfile {
		return m.handleProfileKey(msg)
	}
	return m.handleProvidersKey(msg)
}

func (m settingsModel) handleProfileKey(msg tea.KeyMsg) (settingsModel, tea.Cmd) {
	switch msg.String() {
	case "esc":
		// First esc leaves the fields; the next one exits the screen.
		m.nameInput.Blur()
		m.tzInput.Blur()
		m.focusedField = -1
		return m, nil

	case "up", "down":
		if m.focusedField < 0 {
			m.focusedField = 0
			m.nameInput.Focus()
			return m, textinput.Blink
		}
		if m.focusedField == 0 {
			m.focusedField = 1
			m.nameInput.Blur()
			m.tzInput.Focus()
		} else {
			m.focusedField = 0
			m.tzInput.Blur()
			m.nameInput.Focus()
		}
		return m, textinput.Blink

	case "enter":
		return m.submitProfile()
	}

	var cmd tea.Cmd
	switch m.focusedField {
	case 0:
		m.nameInput, cmd = m.nameInput.Update(msg)
	case 1:
		m.tzInput, cmd = m.tzInput.Update(msg)
	}
	return m, cmd
}

func (m settingsModel) handleProvidersKey(msg tea.KeyMsg) (settingsModel, tea.Cmd) {
	switch msg.String() {
	case "up", "k":
		if m.selectedOption > 0 {
			m.selectedOption--
		}
		return m, nil

	case "down", "j":
		if m.selectedOption < len(m.options)-1 {
			m.selectedOption++
		}
		return m, nil

	case "enter":
		return m.submitProviderSelection()
	}

	return m, nil
}

// =============================================================================
// SAVES
// =============================================================================

func (m settingsModel) submitProfile() (settingsModel, tea.Cmd) {
	m.profileDraft.set(model.ProfileUpdate{
		DisplayName: m.nameInput.Value(),
		Timezone:    m.tzInput.Value(),
	})

	mut := m.saveProfile
	return m, tea.Batch(m.spinner.Tick, func() tea.Msg {
		profile, err := mut.Do(context.Background())
		return profileSavedMsg{Profile: profile, Err: err}
	})
}

func (m settingsModel) submitProviderSelection() (settingsModel, tea.Cmd) {
	if len(m.options) == 0 {
		return m, nil
	}
	opt := m.options[m.selectedOption]

	next := model.ProviderSettings{
		DefaultProviderID: opt.ProviderID,
		DefaultModelID:    opt.ModelID,
	}
	if m.settings != nil {
		next.EnabledProviders = m.settings.EnabledProviders
		next.Options = m.settings.Options
	}
	m.providerDraft.set(next)

	mut := m.saveProviders
	return m, tea.Batch(m.spinner.Tick, func() tea.Msg {
		settings, err := mut.Do(context.Background())
		return providerSettingsSavedMsg{Settings: settings, Err: err}
	})
}

func (m settingsModel) handleProfileSaved(msg profileSavedMsg) (settingsModel, tea.Cmd) {
	if msg.Err != nil {
		// A save superseded by a newer one is not an error worth showing.
		if errors.Is(msg.Err, context.Canceled) {
			return m, nil
		}
		m.toasts.AddError("Could not save profile: " + errDetail(msg.Err))
		return m, components.ToastTickCmd()
	}

	m.profile = msg.Profile
	m.toasts.AddSuccess("Profile saved")
	return m, components.ToastTickCmd()
}

func (m settingsModel) handleProvidersLoaded(msg providersLoadedMsg) (settingsModel, tea.Cmd) {
	m.loadingProviders = false
	if msg.Err != nil {
		m.toasts.AddError("Could not load providers: " + errDetail(msg.Err))
		return m, components.ToastTickCmd()
	}

	m.providers = msg.Providers
	m.settings = msg.Settings
	m.options = flattenProviders(msg.Providers)

	// Preselect the current default.
	if msg.Settings != nil {
		for i, opt := range m.options {
			if opt.ModelID == msg.Settings.DefaultModelID {
				m.selectedOption = i
				break
			}
		}
	}
	return m, nil
}

func (m settingsModel) handleProviderSettingsSaved(msg providerSettingsSavedMsg) (settingsModel, tea.Cmd) {
	if msg.Err != nil {
		if errors.Is(msg.Err, context.Canceled) {
			return m, nil
		}
		m.toasts.AddError("Could not save model selection: " + errDetail(msg.Err))
		return m, components.ToastTickCmd()
	}

	m.settings = msg.Settings
	m.toasts.AddSuccess("Default model updated")
	return m, components.ToastTickCmd()
}

// flattenProviders turns the provider catalog into a flat, selectable list.
// Disabled providers are skipped entirely.
func flattenProviders(providers []model.Provider) []modelOption {
	var options []modelOption
	for _, p := range providers {
		if !p.Enabled {
			continue
		}
		for _, mdl := range p.Models {
			label := p.Label() + " / " + mdl.DisplayName
			if mdl.Capabilities.Vision {
				label += " [vision]"
			}
			options = append(options, modelOption{
				ProviderID: p.ID,
				ModelID:    mdl.ID,
				Label:      label,
			})
		}
	}
	return options
}

// =============================================================================
// VIEW
// =============================================================================

func (m settingsModel) view(width, height int) string {
	t := m.theme

	var tabs string
	if m.tab == tabProfile {
		tabs = t.ButtonActive.Render("Profile") + t.Button.Render("Providers")
	} else {
		tabs = t.Button.Render("Profile") + t.ButtonActive.Render("Providers")
	}

	var body string
	if m.tab == tabProfile {
		body = m.renderProfile()
	} else {
		body = m.renderProviders()
	}

	content := lipgloss.JoinVertical(lipgloss.Left, tabs, "", body)
	box := t.FormBox.Render(content)

	if width > 0 && height > 0 {
		return lipgloss.Place(width, height, lipgloss.Center, lipgloss.Center, box)
	}
	return box
}

func (m settingsModel) renderProfile() string {
	t := m.theme

	if m.loadingProfile {
		return m.spinner.View() + " " + t.LoadingText.Render("Loading profile...")
	}

	lines := []string{
		t.FormLabel.Render("Display name"),
		m.nameInput.View(),
		"",
		t.FormLabel.Render("Timezone"),
		m.tzInput.View(),
	}

	if m.profile != nil && m.profile.Email != "" {
		lines = append(lines, "", t.FormHint.Render("Signed in as "+m.profile.Email))
	}

	if m.saveProfile.Loading() {
		lines = append(lines, "", m.spinner.View()+" "+t.LoadingText.Render("Saving..."))
	}

	return lipgloss.JoinVertical(lipgloss.Left, lines...)
}

func (m settingsModel) renderProviders() string {
	t := m.theme

	if m.loadingProviders {
		return m.spinner.View() + " " + t.LoadingText.Render("Loading providers...")
	}
	if len(m.options) == 0 {
		return t.ListMeta.Render("No providers available.")
	}

	currentModel := ""
	if m.settings != nil {
		currentModel = m.settings.DefaultModelID
	}

	lines := make([]string, 0, len(m.options)+2)
	lines = append(lines, t.FormLabel.Render("Default model"), "")
	for i, opt := range m.options {
		label := opt.Label
		if opt.ModelID == currentModel {
			label = styles.StatusIndicators.Success + " " + label
		}
		if i == m.selectedOption {
			lines = append(lines, t.ListItemSelected.Render(label))
		} else {
			lines = append(lines, t.ListItem.Render(label))
		}
	}

	if m.saveProviders.Loading() {
		lines = append(lines, "", m.spinner.View()+" "+t.LoadingText.Render("Saving..."))
	}

	return lipgloss.JoinVertical(lipgloss.Left, lines...)
}
