// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package ui

import (
	"context"
	"time"

	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/tradeline/tradeline-tui/internal/api"
	"github.com/tradeline/tradeline-tui/internal/form"
	"github.com/tradeline/tradeline-tui/internal/model"
	"github.com/tradeline/tradeline-tui/internal/ui/styles"
)

// loginDoneMsg signals that the user finished the magic-link flow and the
// app should move on to the chat screen.
type loginDoneMsg struct{}

// =============================================================================
// LOGIN MODEL
// =============================================================================

// loginModel drives the magic-link sign-in form. Validation and submission
// live in form.MagicLinkForm; this model only renders its state machine.
type loginModel struct {
	client *api.Client
	theme  *styles.Theme

	form    *form.MagicLinkForm
	input   textinput.Model
	spinner spinner.Model

	submitting bool
	state      form.MagicLinkState
	result     model.FormResult

	width  int
	height int
}

func newLoginModel(client *api.Client, theme *styles.Theme) loginModel {
	ti := textinput.New()
	ti.Prompt = "> "
	ti.Placeholder = "you@example.com"
	ti.CharLimit = 254
	ti.Focus()

	sp := spinner.New()
	sp.Spinner = spinner.Spinner{
		Frames: []string{"|", "/", "-", "\\"},
		FPS:    time.Second / 10,
	}
	sp.Style = theme.Spinner

	return loginModel{
		client:  client,
		theme:   theme,
		form:    form.NewMagicLinkForm(client),
		input:   ti,
		spinner: sp,
		state:   form.StateIdle,
	}
}

func (m loginModel) init() tea.Cmd {
	return textinput.Blink
}

func (m loginModel) typing() bool {
	return m.input.Focused() && !m.submitting
}

// submitCmd runs the form submission off the event loop. The form itself
// rejects invalid addresses without touching the network.
func (m loginModel) submitCmd(email string) tea.Cmd {
	f := m.form
	return func() tea.Msg {
		result := f.Submit(context.Background(), email)
		return magicLinkResultMsg{Result: result}
	}
}

func (m loginModel) update(msg tea.Msg) (loginModel, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		inputWidth := msg.Width - 16
		if inputWidth > 48 {
			inputWidth = 48
		}
		if inputWidth < 20 {
			inputWidth = 20
		}
		m.input.Width = inputWidth
		return m, nil

	case tea.KeyMsg:
		switch msg.String() {
		case "enter":
			if m.state == form.StateSuccess {
				return m, func() tea.Msg { return loginDoneMsg{} }
			}
			if m.submitting {
				return m, nil
			}
			m.submitting = true
			return m, tea.Batch(m.spinner.Tick, m.submitCmd(m.input.Value()))
		}

		if m.submitting {
			return m, nil
		}
		var cmd tea.Cmd
		m.input, cmd = m.input.Update(msg)
		return m, cmd

	case magicLinkResultMsg:
		m.submitting = false
		m.result = msg.Result
		m.state = m.form.State()
		return m, nil

	case spinner.TickMsg:
		if m.submitting {
			var cmd tea.Cmd
			m.spinner, cmd = m.spinner.Update(msg)
			return m, cmd
		}
		return m, nil
	}

	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

// =============================================================================
// VIEW
// =============================================================================

func (m loginModel) view(width, height int) string {
	t := m.theme

	title := t.HeaderTitle.Render("Sign in to tradeline")
	subtitle := t.HeaderSubtitle.Render("We'll email you a sign-in link.")

	label := t.FormLabel.Render("Email")
	field := m.input.View()

	lines := []string{title, subtitle, "", label, field}

	if fieldErr := m.result.Errors["email"]; fieldErr != "" {
		lines = append(lines, t.FormFieldError.Render(fieldErr))
	}

	switch {
	case m.submitting:
		lines = append(lines, "", m.spinner.View()+" "+t.LoadingText.Render("Sending link..."))
	case m.state == form.StateSuccess:
		lines = append(lines, "",
			styles.RenderSuccess(m.result.Message),
			t.FormHint.Render("Open the link from your email, then press enter."))
	case m.state == form.StateFailed:
		lines = append(lines, "", styles.RenderError(m.result.Message))
	default:
		lines = append(lines, "", t.FormHint.Render("Press enter to send the link."))
	}

	box := t.FormBox.Render(lipgloss.JoinVertical(lipgloss.Left, lines...))

	if width > 0 && height > 0 {
		return lipgloss.Place(width, height, lipgloss.Center, lipgloss.Center, box)
	}
	return box
}
