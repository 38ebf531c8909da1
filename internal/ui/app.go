// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package ui

import (
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/tradeline/tradeline-tui/internal/api"
	"github.com/tradeline/tradeline-tui/internal/storage"
	"github.com/tradeline/tradeline-tui/internal/ui/components"
	"github.com/tradeline/tradeline-tui/internal/ui/styles"
)

// =============================================================================
// SCREENS
// =============================================================================

// Screen identifies the active top-level screen.
type Screen int

const (
	ScreenLogin Screen = iota
	ScreenChat
	ScreenSettings
)

// String returns the screen name for the status bar.
func (s Screen) String() string {
	switch s {
	case ScreenLogin:
		return "login"
	case ScreenChat:
		return "chat"
	case ScreenSettings:
		return "settings"
	default:
		return "unknown"
	}
}

// =============================================================================
// APP MODEL
// =============================================================================

// App is the root Bubble Tea model. It owns the screens and the shared
// toast manager, and fans window and toast events out to whichever screen
// is active.
type App struct {
	theme  *styles.Theme
	client *api.Client
	toasts *components.ToastManager

	screen Screen

	login    loginModel
	chat     chatModel
	settings settingsModel

	width  int
	height int

	quitting bool
}

// Options configures the App.
type Options struct {
	Client *api.Client
	Cache  *storage.Cache // optional; nil disables the offline fallback
	Theme  *styles.Theme
	// SignedIn skips the login screen when stored credentials exist.
	SignedIn bool
}

// New creates the root model.
func New(opts Options) App {
	theme := opts.Theme
	if theme == nil {
		theme = styles.NewTheme()
	}

	toasts := components.NewToastManager()

	app := App{
		theme:    theme,
		client:   opts.Client,
		toasts:   toasts,
		login:    newLoginModel(opts.Client, theme),
		chat:     newChatModel(opts.Client, opts.Cache, theme, toasts),
		settings: newSettingsModel(opts.Client, theme, toasts),
	}

	if opts.SignedIn {
		app.screen = ScreenChat
	} else {
		app.screen = ScreenLogin
	}

	return app
}

// Screen returns the active screen. Exposed for tests.
func (a App) Screen() Screen {
	return a.screen
}

// Init starts the active screen.
func (a App) Init() tea.Cmd {
	switch a.screen {
	case ScreenChat:
		return tea.Batch(a.chat.init(), components.ToastTickCmd())
	default:
		return tea.Batch(a.login.init(), components.ToastTickCmd())
	}
}

// Update handles messages and routes them to the active screen.
func (a App) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		a.width = msg.Width
		a.height = msg.Height
		a.theme.SetSize(msg.Width, msg.Height)

		var cmds []tea.Cmd
		var cmd tea.Cmd
		a.login, cmd = a.login.update(msg)
		cmds = append(cmds, cmd)
		a.chat, cmd = a.chat.update(msg)
		cmds = append(cmds, cmd)
		a.settings, cmd = a.settings.update(msg)
		cmds = append(cmds, cmd)
		return a, tea.Batch(cmds...)

	case components.ToastTickMsg:
		a.toasts.TickToasts()
		if a.toasts.HasToasts() {
			return a, components.ToastTickCmd()
		}
		return a, nil

	case components.ToastDismissMsg:
		a.toasts.RemoveToast(msg.ID)
		return a, nil

	case components.ToastRetryMsg:
		return a, a.toasts.Retry(msg.ID)

	case tea.KeyMsg:
		return a.handleKey(msg)

	case loginDoneMsg:
		// Magic-link flow finished; the user completed sign-in out of band.
		a.screen = ScreenChat
		return a, a.chat.init()
	}

	return a.routeToScreen(msg)
}

func (a App) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	keyStr := msg.String()

	// Emergency exit works regardless of state.
	if keyStr == "ctrl+q" || keyStr == "ctrl+c" {
		a.quitting = true
		return a, tea.Quit
	}

	// Toast keys apply only when nothing is capturing text input.
	if a.toasts.HasToasts() && !a.activeTyping() {
		toasts := a.toasts.GetToasts()
		switch keyStr {
		case "x":
			if len(toasts) > 0 {
				a.toasts.RemoveToast(toasts[0].ID)
			}
			return a, nil
		case "r":
			for _, toast := range toasts {
				if toast.ShowRetry {
					return a, a.toasts.Retry(toast.ID)
				}
			}
		}
	}

	// Screen switching.
	switch keyStr {
	case "ctrl+s":
		if a.screen == ScreenChat {
			a.screen = ScreenSettings
			return a, a.settings.init()
		}
		if a.screen == ScreenSettings {
			a.screen = ScreenChat
			return a, nil
		}
	case "esc":
		if a.screen == ScreenSettings && !a.settings.typing() {
			a.screen = ScreenChat
			return a, nil
		}
	}

	return a.routeToScreen(msg)
}

// routeToScreen forwards a message to the active screen only.
func (a App) routeToScreen(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmd tea.Cmd
	switch a.screen {
	case ScreenLogin:
		a.login, cmd = a.login.update(msg)
	case ScreenChat:
		a.chat, cmd = a.chat.update(msg)
	case ScreenSettings:
		a.settings, cmd = a.settings.update(msg)
	}
	return a, cmd
}

// activeTyping reports whether the current screen has a focused text field.
func (a App) activeTyping() bool {
	switch a.screen {
	case ScreenLogin:
		return a.login.typing()
	case ScreenChat:
		return a.chat.typing()
	case ScreenSettings:
		return a.settings.typing()
	}
	return false
}

// View renders the active screen with the status bar and any toasts.
func (a App) View() string {
	if a.quitting {
		return ""
	}

	var body string
	switch a.screen {
	case ScreenLogin:
		body = a.login.view(a.width, a.height-1)
	case ScreenChat:
		body = a.chat.view(a.width, a.height-1)
	case ScreenSettings:
		body = a.settings.view(a.width, a.height-1)
	}

	view := lipgloss.JoinVertical(lipgloss.Left, body, a.renderStatusBar())

	if a.toasts.HasToasts() {
		overlay := components.RenderToastStack(a.toasts.GetToasts(), a.width, a.height)
		// The toast stack is placed over the full frame; render it last so
		// it ends up visually on top in terminals without true overlays.
		view = lipgloss.JoinVertical(lipgloss.Left, view, overlay)
	}

	return view
}

func (a App) renderStatusBar() string {
	key := a.theme.ShortcutKey
	desc := a.theme.ShortcutDesc

	var hints string
	switch a.screen {
	case ScreenLogin:
		hints = key.Render("enter") + desc.Render(" submit  ") +
			key.Render("ctrl+q") + desc.Render(" quit")
	case ScreenChat:
		hints = key.Render("enter") + desc.Render(" send  ") +
			key.Render("ctrl+s") + desc.Render(" settings  ") +
			key.Render("ctrl+q") + desc.Render(" quit")
	case ScreenSettings:
		hints = key.Render("tab") + desc.Render(" switch  ") +
			key.Render("enter") + desc.Render(" save  ") +
			key.Render("esc") + desc.Render(" back")
	}

	bar := a.theme.HeaderTitle.Render("tradeline") + "  " +
		a.theme.HeaderSubtitle.Render(a.screen.String()) + "  " + hints

	if a.width > 0 {
		return a.theme.StatusBar.Width(a.width).Render(bar)
	}
	return a.theme.StatusBar.Render(bar)
}
