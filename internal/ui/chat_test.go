// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package ui

import (
	"context"
	"errors"
	"path/filepath"
	"strings"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/tradeline/tradeline-tui/internal/api"
	"github.com/tradeline/tradeline-tui/internal/model"
	"github.com/tradeline/tradeline-tui/internal/storage"
	"github.com/tradeline/tradeline-tui/internal/ui/components"
	"github.com/tradeline/tradeline-tui/internal/ui/styles"
)

func newTestChat(t *testing.T, cache *storage.Cache) chatModel {
	t.Helper()
	client := api.NewClient("http://localhost:1", api.Anonymous())
	m := newChatModel(client, cache, styles.NewTheme(), components.NewToastManager())
	m.width = 80
	m.height = 24
	return m
}

func newTestCache(t *testing.T) *storage.Cache {
	t.Helper()
	cache, err := storage.Open(filepath.Join(t.TempDir(), "cache.db"), 10)
	if err != nil {
		t.Fatalf("Open() error: %v", err)
	}
	t.Cleanup(func() { cache.Close() })
	return cache
}

func TestChatConversationsLoaded(t *testing.T) {
	m := newTestChat(t, nil)

	convs := []model.Conversation{
		{ID: "c1", Title: "Bond ladder"},
		{ID: "c2", Title: "FX hedging"},
	}
	m, _ = m.update(conversationsLoadedMsg{Conversations: convs})

	if len(m.conversations) != 2 {
		t.Fatalf("expected 2 conversations, got %d", len(m.conversations))
	}
	if m.offline {
		t.Error("successful load should clear the offline flag")
	}

	view := m.view(80, 24)
	if !strings.Contains(view, "Bond ladder") {
		t.Error("list view should show conversation titles")
	}
}

func TestChatOfflineFallbackToCache(t *testing.T) {
	cache := newTestCache(t)

	conv := model.NewConversation()
	conv.Title = "Cached thread"
	conv.UpdatedAt = time.Now()
	if err := cache.Put(context.Background(), conv); err != nil {
		t.Fatalf("Put() error: %v", err)
	}

	m := newTestChat(t, cache)
	m, _ = m.update(conversationsLoadedMsg{Err: errors.New("connection refused")})

	if !m.offline {
		t.Error("failed load with cache should set offline")
	}
	if len(m.conversations) != 1 || m.conversations[0].Title != "Cached thread" {
		t.Errorf("expected the cached conversation, got %+v", m.conversations)
	}
	if !m.toasts.HasToasts() {
		t.Error("offline fallback should raise a warning toast")
	}
}

func TestChatLoadErrorWithoutCache(t *testing.T) {
	m := newTestChat(t, nil)
	m, _ = m.update(conversationsLoadedMsg{Err: errors.New("boom")})

	if m.offline {
		t.Error("without a cache there is no offline mode")
	}
	if !m.toasts.HasToasts() {
		t.Error("load failure should raise an error toast")
	}
}

func TestChatOpenConversationLoadsMessages(t *testing.T) {
	m := newTestChat(t, nil)
	m, _ = m.update(conversationsLoadedMsg{Conversations: []model.Conversation{
		{ID: "c1", Title: "Bond ladder"},
	}})

	m, cmd := m.update(tea.KeyMsg{Type: tea.KeyEnter})
	if m.focus != focusMessages {
		t.Error("enter should open the selected conversation")
	}
	if !m.loadingMessages {
		t.Error("opening a conversation should start loading messages")
	}
	if cmd == nil {
		t.Error("opening a conversation should issue a load command")
	}
}

func TestChatMessagesLoaded(t *testing.T) {
	m := newTestChat(t, nil)
	conv := model.Conversation{ID: "c1", Title: "Bond ladder"}
	m.conv = &conv
	m.focus = focusMessages
	m.loadingMessages = true

	msgs := []model.Message{
		{ID: "m1", Role: model.RoleUser, Content: "ladder the 2s and 10s", CreatedAt: time.Now()},
		{ID: "m2", Role: model.RoleAssistant, Content: "Here is a plan.", CreatedAt: time.Now()},
	}
	m, _ = m.update(messagesLoadedMsg{ConversationID: "c1", Messages: msgs})

	if m.loadingMessages {
		t.Error("load completion should clear the loading flag")
	}
	transcript := m.renderMessages()
	if !strings.Contains(transcript, "ladder the 2s and 10s") {
		t.Error("transcript should contain the user message")
	}
	if !strings.Contains(transcript, "plan") {
		t.Error("transcript should contain the assistant message")
	}
}

func TestChatMessagesLoadedIgnoresStaleConversation(t *testing.T) {
	m := newTestChat(t, nil)
	conv := model.Conversation{ID: "c1"}
	m.conv = &conv

	m, _ = m.update(messagesLoadedMsg{ConversationID: "other", Messages: []model.Message{
		{ID: "m1", Role: model.RoleUser, Content: "stale"},
	}})

	if len(m.messages) != 0 {
		t.Error("messages for a different conversation should be dropped")
	}
}

func TestChatListCollapsesMultilineTitles(t *testing.T) {
	m := newTestChat(t, nil)
	m, _ = m.update(conversationsLoadedMsg{Conversations: []model.Conversation{
		{ID: "c1", Title: "Bond\nladder"},
	}})

	if !strings.Contains(m.view(80, 24), "Bond ladder") {
		t.Error("multi-line title should render as a single list row")
	}
}

func TestErrDetail(t *testing.T) {
	if got := errDetail(errors.New("first\r\nsecond")); got != "first second" {
		t.Errorf("errDetail = %q, want single line", got)
	}
	long := errDetail(errors.New(strings.Repeat("x", 500)))
	if n := len([]rune(long)); n > 120 {
		t.Errorf("errDetail length = %d runes, want capped at 120", n)
	}
}

func TestChatSubmitInputOptimistic(t *testing.T) {
	m := newTestChat(t, nil)
	m.conv = model.NewConversation()
	m.focus = focusMessages
	m.input.Focus()
	m.input.SetValue("buy the dip")

	m, cmd := m.submitInput()

	if !m.sending {
		t.Error("submit should mark the screen as sending")
	}
	if len(m.messages) != 1 || m.messages[0].Content != "buy the dip" {
		t.Error("submit should append the message optimistically")
	}
	if m.input.Value() != "" {
		t.Error("submit should clear the input")
	}
	if cmd == nil {
		t.Error("submit should issue a send command")
	}
}

func TestChatSubmitEmptyIsNoop(t *testing.T) {
	m := newTestChat(t, nil)
	m.conv = model.NewConversation()
	m.input.SetValue("   ")

	m, cmd := m.submitInput()
	if cmd != nil || len(m.messages) != 0 {
		t.Error("whitespace-only input should not send")
	}
}

func TestChatSendFailureRaisesRetryToast(t *testing.T) {
	m := newTestChat(t, nil)
	m.conv = model.NewConversation()
	m.sending = true

	sent := model.NewUserMessage("buy the dip")
	m, _ = m.update(sendResultMsg{
		ConversationID: m.conv.ID,
		Sent:           sent,
		Err:            errors.New("gateway down"),
	})

	if m.sending {
		t.Error("send failure should clear the sending flag")
	}

	toasts := m.toasts.GetToasts()
	if len(toasts) != 1 || !toasts[0].ShowRetry {
		t.Fatal("send failure should raise a retryable toast")
	}

	// The retry action resends the exact same message.
	cmd := m.toasts.Retry(toasts[0].ID)
	if cmd == nil {
		t.Fatal("retry should produce a command")
	}
	resend, ok := cmd().(resendMsg)
	if !ok {
		t.Fatalf("expected resendMsg, got %T", cmd())
	}
	if resend.Sent.Content != "buy the dip" {
		t.Errorf("resend content = %q, want original message", resend.Sent.Content)
	}
}

func TestChatSendSuccessAppendsReply(t *testing.T) {
	m := newTestChat(t, nil)
	m.conv = model.NewConversation()
	m.sending = true
	m.messages = []model.Message{*model.NewUserMessage("hello")}

	reply := &model.Message{ID: "r1", Role: model.RoleAssistant, Content: "hi there", CreatedAt: time.Now()}
	m, _ = m.update(sendResultMsg{ConversationID: m.conv.ID, Reply: reply})

	if len(m.messages) != 2 {
		t.Fatalf("expected 2 messages, got %d", len(m.messages))
	}
	if m.messages[1].Content != "hi there" {
		t.Errorf("reply content = %q", m.messages[1].Content)
	}
}

func TestChatSendWritesThroughToCache(t *testing.T) {
	cache := newTestCache(t)
	m := newTestChat(t, cache)
	m.conv = model.NewConversation()
	m.conv.Title = "Write through"
	m.messages = []model.Message{*model.NewUserMessage("hello")}

	reply := &model.Message{ID: "r1", Role: model.RoleAssistant, Content: "hi", CreatedAt: time.Now()}
	m, _ = m.update(sendResultMsg{ConversationID: m.conv.ID, Reply: reply})

	cached, err := cache.Get(context.Background(), m.conv.ID)
	if err != nil {
		t.Fatalf("conversation should be cached after send: %v", err)
	}
	if len(cached.Messages) != 2 {
		t.Errorf("cached messages = %d, want 2", len(cached.Messages))
	}
}

func TestChatSendResultIgnoresStaleConversation(t *testing.T) {
	cache := newTestCache(t)
	m := newTestChat(t, cache)
	m.conv = &model.Conversation{ID: "conv-b"}
	m.messages = []model.Message{*model.NewUserMessage("question for b")}

	reply := &model.Message{ID: "r1", Role: model.RoleAssistant, Content: "answer for a", CreatedAt: time.Now()}
	m, _ = m.update(sendResultMsg{ConversationID: "conv-a", Reply: reply})

	if len(m.messages) != 1 {
		t.Errorf("reply for another conversation should be dropped, got %d messages", len(m.messages))
	}
	if _, err := cache.Get(context.Background(), "conv-b"); !errors.Is(err, storage.ErrNotFound) {
		t.Errorf("open conversation should not be cached from another conversation's reply, got %v", err)
	}
}

func TestChatOfflineBlocksSending(t *testing.T) {
	m := newTestChat(t, nil)
	m.conv = model.NewConversation()
	m.offline = true
	m.input.SetValue("hello")

	m, _ = m.submitInput()
	if m.sending {
		t.Error("offline submit should not send")
	}
	if len(m.messages) != 0 {
		t.Error("offline submit should not append a message")
	}
	if !m.toasts.HasToasts() {
		t.Error("offline submit should warn the user")
	}
}

func TestChatEscReturnsToList(t *testing.T) {
	m := newTestChat(t, nil)
	m.conv = model.NewConversation()
	m.focus = focusMessages
	m.input.Focus()

	m, cmd := m.update(tea.KeyMsg{Type: tea.KeyEsc})
	if m.focus != focusList {
		t.Error("esc should return to the conversation list")
	}
	if cmd == nil {
		t.Error("returning to the list should refresh it")
	}
}

func TestChatNewConversation(t *testing.T) {
	m := newTestChat(t, nil)

	m, _ = m.update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{'n'}})
	if m.focus != focusMessages {
		t.Error("n should open a fresh conversation")
	}
	if m.conv == nil || m.conv.ID == "" {
		t.Error("new conversation should have a generated ID")
	}
}
