// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package ui

import (
	"context"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/glamour"
	"github.com/charmbracelet/lipgloss"
	"github.com/mattn/go-runewidth"

	"github.com/tradeline/tradeline-tui/internal/api"
	"github.com/tradeline/tradeline-tui/internal/format"
	"github.com/tradeline/tradeline-tui/internal/model"
	"github.com/tradeline/tradeline-tui/internal/storage"
	"github.com/tradeline/tradeline-tui/internal/ui/components"
	"github.com/tradeline/tradeline-tui/internal/ui/styles"
	"github.com/tradeline/tradeline-tui/internal/util"
)

// chatFocus selects between the conversation list and an open conversation.
type chatFocus int

const (
	focusList chatFocus = iota
	focusMessages
)

// resendMsg asks the chat screen to send a previously failed message again.
type resendMsg struct {
	ConversationID string
	Sent           *model.Message
}

// =============================================================================
// CHAT MODEL
// =============================================================================

// chatModel drives the conversation list and the message view. When the
// backend is unreachable it falls back to the local cache, read-only.
type chatModel struct {
	client *api.Client
	cache  *storage.Cache
	theme  *styles.Theme
	toasts *components.ToastManager

	focus chatFocus

	conversations []model.Conversation
	selected      int
	loadingList   bool

	conv            *model.Conversation
	messages        []model.Message
	loadingMessages bool
	offline         bool

	viewport viewport.Model
	input    textinput.Model
	spinner  spinner.Model
	renderer *glamour.TermRenderer

	sending bool
	modelID string

	width  int
	height int
}

func newChatModel(client *api.Client, cache *storage.Cache, theme *styles.Theme, toasts *components.ToastManager) chatModel {
	ti := textinput.New()
	ti.Prompt = "> "
	ti.Placeholder = "Type a message..."
	ti.CharLimit = 4096

	vp := viewport.New(80, 20)
	vp.SetContent("")

	sp := spinner.New()
	sp.Spinner = spinner.Spinner{
		Frames: []string{"|", "/", "-", "\\"},
		FPS:    time.Second / 10,
	}
	sp.Style = theme.Spinner

	return chatModel{
		client:      client,
		cache:       cache,
		theme:       theme,
		toasts:      toasts,
		viewport:    vp,
		input:       ti,
		spinner:     sp,
		renderer:    newMarkdownRenderer(80),
		loadingList: true,
	}
}

// newMarkdownRenderer builds a glamour renderer for assistant messages.
// Returns nil when initialization fails; callers fall back to plain text.
func newMarkdownRenderer(wrap int) *glamour.TermRenderer {
	if wrap < 20 {
		wrap = 20
	}
	r, err := glamour.NewTermRenderer(
		glamour.WithAutoStyle(),
		glamour.WithWordWrap(wrap),
	)
	if err != nil {
		return nil
	}
	return r
}

func (m chatModel) init() tea.Cmd {
	return tea.Batch(loadConversationsCmd(m.client), m.spinner.Tick)
}

func (m chatModel) typing() bool {
	return m.focus == focusMessages && m.input.Focused()
}

// SetModelID selects the model used for new messages.
func (m *chatModel) SetModelID(id string) {
	m.modelID = id
}

func (m chatModel) update(msg tea.Msg) (chatModel, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		return m.handleResize(msg)

	case tea.KeyMsg:
		return m.handleKey(msg)

	case conversationsLoadedMsg:
		return m.handleConversationsLoaded(msg)

	case messagesLoadedMsg:
		return m.handleMessagesLoaded(msg)

	case sendResultMsg:
		return m.handleSendResult(msg)

	case resendMsg:
		if msg.Sent == nil {
			return m, nil
		}
		m.sending = true
		return m, tea.Batch(m.spinner.Tick, sendMessageCmd(m.client, msg.ConversationID, msg.Sent, m.modelID))

	case spinner.TickMsg:
		if m.sending || m.loadingList || m.loadingMessages {
			var cmd tea.Cmd
			m.spinner, cmd = m.spinner.Update(msg)
			return m, cmd
		}
		return m, nil
	}

	var cmds []tea.Cmd
	var cmd tea.Cmd
	if m.focus == focusMessages {
		m.input, cmd = m.input.Update(msg)
		cmds = append(cmds, cmd)
	}
	m.viewport, cmd = m.viewport.Update(msg)
	cmds = append(cmds, cmd)
	return m, tea.Batch(cmds...)
}

// =============================================================================
// MESSAGE HANDLERS
// =============================================================================

func (m chatModel) handleResize(msg tea.WindowSizeMsg) (chatModel, tea.Cmd) {
	m.width = msg.Width
	m.height = msg.Height

	// Header + input area + spacing.
	const reservedHeight = 5

	viewportHeight := m.height - reservedHeight
	if viewportHeight < 1 {
		viewportHeight = 1
	}
	m.viewport.Width = maxInt(m.width, 1)
	m.viewport.Height = viewportHeight

	inputWidth := m.width - 8
	if inputWidth < 10 {
		inputWidth = 10
	}
	m.input.Width = inputWidth

	m.renderer = newMarkdownRenderer(m.width - 12)
	m.refreshViewport()

	return m, nil
}

func (m chatModel) handleKey(msg tea.KeyMsg) (chatModel, tea.Cmd) {
	if m.focus == focusList {
		return m.handleListKey(msg)
	}
	return m.handleMessagesKey(msg)
}

func (m chatModel) handleListKey(msg tea.KeyMsg) (chatModel, tea.Cmd) {
	switch msg.String() {
	case "up", "k":
		if m.selected > 0 {
			m.selected--
		}
		return m, nil

	case "down", "j":
		if m.selected < len(m.conversations)-1 {
			m.selected++
		}
		return m, nil

	case "enter":
		if len(m.conversations) == 0 {
			return m, nil
		}
		conv := m.conversations[m.selected]
		m.conv = &conv
		m.messages = nil
		m.focus = focusMessages
		m.loadingMessages = true
		m.input.Focus()
		return m, tea.Batch(
			loadMessagesCmd(m.client, conv.ID),
			m.spinner.Tick,
			textinput.Blink,
		)

	case "n":
		// Start a fresh conversation; it reaches the backend with the
		// first sent message.
		m.conv = model.NewConversation()
		m.messages = nil
		m.focus = focusMessages
		m.input.Focus()
		m.refreshViewport()
		return m, textinput.Blink

	case "R":
		m.loadingList = true
		return m, tea.Batch(loadConversationsCmd(m.client), m.spinner.Tick)
	}

	return m, nil
}

func (m chatModel) handleMessagesKey(msg tea.KeyMsg) (chatModel, tea.Cmd) {
	switch msg.String() {
	case "esc":
		m.focus = focusList
		m.conv = nil
		m.messages = nil
		m.input.Blur()
		m.input.Reset()
		m.loadingList = true
		return m, tea.Batch(loadConversationsCmd(m.client), m.spinner.Tick)

	case "enter":
		return m.submitInput()

	case "pgup", "ctrl+u":
		m.viewport.HalfViewUp()
		return m, nil

	case "pgdown", "ctrl+d":
		m.viewport.HalfViewDown()
		return m, nil
	}

	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

// submitInput sends the typed message. The optimistic copy stays visible
// whether or not the send succeeds, so a retry never retypes.
func (m chatModel) submitInput() (chatModel, tea.Cmd) {
	content := strings.TrimSpace(m.input.Value())
	if content == "" || m.sending || m.conv == nil {
		return m, nil
	}
	if m.offline {
		m.toasts.AddWarning("Offline: reconnect to send messages")
		return m, components.ToastTickCmd()
	}

	sent := model.NewUserMessage(content)
	sent.ConversationID = m.conv.ID
	m.messages = append(m.messages, *sent)
	m.input.Reset()
	m.sending = true
	m.refreshViewport()
	m.viewport.GotoBottom()

	return m, tea.Batch(m.spinner.Tick, sendMessageCmd(m.client, m.conv.ID, sent, m.modelID))
}

func (m chatModel) handleConversationsLoaded(msg conversationsLoadedMsg) (chatModel, tea.Cmd) {
	m.loadingList = false

	if msg.Err != nil {
		// Backend unreachable; serve the cached copy read-only.
		if m.cache != nil {
			cached, cacheErr := m.cache.List(context.Background())
			if cacheErr == nil {
				m.conversations = cached
				m.offline = true
				m.clampSelected()
				m.toasts.AddWarning("Offline: showing cached conversations")
				return m, components.ToastTickCmd()
			}
		}
		m.toasts.AddError("Could not load conversations: " + errDetail(msg.Err))
		return m, components.ToastTickCmd()
	}

	m.offline = false
	m.conversations = msg.Conversations
	m.clampSelected()
	return m, nil
}

func (m chatModel) handleMessagesLoaded(msg messagesLoadedMsg) (chatModel, tea.Cmd) {
	if m.conv == nil || msg.ConversationID != m.conv.ID {
		return m, nil
	}
	m.loadingMessages = false

	if msg.Err != nil {
		if m.cache != nil {
			cached, cacheErr := m.cache.Get(context.Background(), msg.ConversationID)
			if cacheErr == nil {
				m.messages = make([]model.Message, 0, len(cached.Messages))
				for _, cm := range cached.Messages {
					m.messages = append(m.messages, *cm)
				}
				m.offline = true
				m.refreshViewport()
				m.viewport.GotoBottom()
				m.toasts.AddWarning("Offline: showing cached messages")
				return m, components.ToastTickCmd()
			}
		}
		m.toasts.AddError("Could not load messages: " + errDetail(msg.Err))
		return m, components.ToastTickCmd()
	}

	m.offline = false
	m.messages = msg.Messages
	m.refreshViewport()
	m.viewport.GotoBottom()
	m.cacheConversation()

	return m, nil
}

func (m chatModel) handleSendResult(msg sendResultMsg) (chatModel, tea.Cmd) {
	m.sending = false

	if msg.Err != nil {
		conversationID := msg.ConversationID
		sent := msg.Sent
		m.toasts.AddToast(components.NewRetryableErrorToast(
			"Message not sent: " + errDetail(msg.Err),
			func() tea.Cmd {
				return func() tea.Msg {
					return resendMsg{ConversationID: conversationID, Sent: sent}
				}
			},
		))
		return m, components.ToastTickCmd()
	}

	// A reply for a conversation the user has since left must not land in
	// the open transcript or be cached under the open conversation's ID.
	if m.conv == nil || msg.ConversationID != m.conv.ID {
		return m, nil
	}

	if msg.Reply != nil {
		m.messages = append(m.messages, *msg.Reply)
	}
	m.refreshViewport()
	m.viewport.GotoBottom()
	m.cacheConversation()

	return m, nil
}

// cacheConversation writes the open conversation through to the local cache.
// Best effort: a cache failure never disturbs the UI.
func (m *chatModel) cacheConversation() {
	if m.cache == nil || m.conv == nil {
		return
	}

	conv := *m.conv
	conv.Messages = make([]*model.Message, 0, len(m.messages))
	for i := range m.messages {
		conv.Messages = append(conv.Messages, &m.messages[i])
	}
	if conv.UpdatedAt.IsZero() {
		conv.UpdatedAt = time.Now()
	}

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	_ = m.cache.Put(ctx, &conv)
}

func (m *chatModel) clampSelected() {
	if m.selected >= len(m.conversations) {
		m.selected = len(m.conversations) - 1
	}
	if m.selected < 0 {
		m.selected = 0
	}
}

// =============================================================================
// VIEW
// =============================================================================

func (m chatModel) view(width, height int) string {
	if m.focus == focusList {
		return m.renderList(width, height)
	}
	return m.renderConversation(width, height)
}

func (m chatModel) renderList(width, height int) string {
	t := m.theme

	header := t.ListTitle.Render("Conversations")
	if m.offline {
		header += "  " + t.WarningStyle.Render(styles.StatusIndicators.Warning+" offline")
	}

	lines := []string{header, ""}

	switch {
	case m.loadingList:
		lines = append(lines, m.spinner.View()+" "+t.LoadingText.Render("Loading..."))
	case len(m.conversations) == 0:
		lines = append(lines, t.ListMeta.Render("No conversations yet. Press n to start one."))
	default:
		titleWidth := width - 20
		if titleWidth < 20 {
			titleWidth = 20
		}
		for i, conv := range m.conversations {
			title := util.CollapseWhitespace(conv.Title)
			if title == "" {
				title = "Untitled"
			}
			title = runewidth.Truncate(title, titleWidth, "...")
			date := format.ConversationDate(conv.UpdatedAt.Format(time.RFC3339))

			// Pad titles so the date column lines up across rows.
			line := util.PadRight(title, titleWidth) + "  " + t.ListMeta.Render(date)
			if i == m.selected {
				line = t.ListItemSelected.Render(line)
			} else {
				line = t.ListItem.Render(line)
			}
			lines = append(lines, line)
		}
	}

	lines = append(lines, "", m.theme.ShortcutKey.Render("n")+t.ShortcutDesc.Render(" new  ")+
		m.theme.ShortcutKey.Render("R")+t.ShortcutDesc.Render(" refresh  ")+
		m.theme.ShortcutKey.Render("enter")+t.ShortcutDesc.Render(" open"))

	return t.Container.Render(lipgloss.JoinVertical(lipgloss.Left, lines...))
}

func (m chatModel) renderConversation(width, height int) string {
	t := m.theme

	title := "New conversation"
	if m.conv != nil && m.conv.Title != "" {
		title = util.CollapseWhitespace(m.conv.Title)
	}
	header := t.Header.Render(runewidth.Truncate(title, maxInt(width-8, 20), "..."))

	var body string
	if m.loadingMessages {
		body = m.spinner.View() + " " + t.LoadingText.Render("Loading messages...")
	} else {
		body = m.viewport.View()
	}

	inputLine := m.input.View()
	if m.sending {
		inputLine = m.spinner.View() + " " + t.LoadingText.Render("Sending...")
	}
	inputArea := t.InputContainer.Width(maxInt(width-2, 20)).Render(inputLine)

	return lipgloss.JoinVertical(lipgloss.Left, header, body, inputArea)
}

// refreshViewport re-renders the message transcript into the viewport.
func (m *chatModel) refreshViewport() {
	m.viewport.SetContent(m.renderMessages())
}

func (m *chatModel) renderMessages() string {
	if len(m.messages) == 0 {
		return m.theme.ListMeta.Render("No messages yet. Say hello.")
	}

	bubbleWidth := m.width - 10
	if bubbleWidth < 30 {
		bubbleWidth = 30
	}

	blocks := make([]string, 0, len(m.messages)*2)
	for i := range m.messages {
		msg := &m.messages[i]
		meta := m.theme.MessageMeta.Render(
			msg.Role.DisplayName() + " " + format.MessageTime(msg.CreatedAt.Format(time.RFC3339)))

		var bubble string
		switch msg.Role {
		case model.RoleUser:
			bubble = m.theme.UserBubble.MaxWidth(bubbleWidth).Render(msg.Content)
			if m.width > 0 {
				meta = lipgloss.PlaceHorizontal(m.width, lipgloss.Right, meta)
				bubble = lipgloss.PlaceHorizontal(m.width, lipgloss.Right, bubble)
			}
		case model.RoleAssistant:
			content := msg.Content
			if m.renderer != nil {
				if rendered, err := m.renderer.Render(content); err == nil {
					content = strings.TrimRight(rendered, "\n")
				}
			}
			bubble = m.theme.AssistantBubble.MaxWidth(bubbleWidth).Render(content)
		default:
			bubble = m.theme.SystemBubble.MaxWidth(bubbleWidth).Render(msg.Content)
		}

		blocks = append(blocks, meta, bubble, "")
	}

	return lipgloss.JoinVertical(lipgloss.Left, blocks...)
}

func maxInt(a, b int) int {
	if a > b {
		return a
	}
	return b
}
