// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package ui

import (
	"context"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/tradeline/tradeline-tui/internal/api"
	"github.com/tradeline/tradeline-tui/internal/model"
	"github.com/tradeline/tradeline-tui/internal/util"
)

// =============================================================================
// MESSAGE TYPES
// =============================================================================

// magicLinkResultMsg carries the outcome of a magic-link submission.
type magicLinkResultMsg struct {
	Result model.FormResult
}

// conversationsLoadedMsg carries the conversation list from the backend.
type conversationsLoadedMsg struct {
	Conversations []model.Conversation
	Err           error
}

// messagesLoadedMsg carries the messages of a single conversation.
type messagesLoadedMsg struct {
	ConversationID string
	Messages       []model.Message
	Err            error
}

// sendResultMsg carries the outcome of a message send.
type sendResultMsg struct {
	ConversationID string
	Reply          *model.Message
	Sent           *model.Message
	Err            error
}

// profileLoadedMsg carries the profile fetched for the settings screen.
type profileLoadedMsg struct {
	Profile *model.Profile
	Err     error
}

// profileSavedMsg carries the outcome of a profile save.
type profileSavedMsg struct {
	Profile *model.Profile
	Err     error
}

// providersLoadedMsg carries the provider catalog and current selection.
type providersLoadedMsg struct {
	Providers []model.Provider
	Settings  *model.ProviderSettings
	Err       error
}

// providerSettingsSavedMsg carries the outcome of a provider settings save.
type providerSettingsSavedMsg struct {
	Settings *model.ProviderSettings
	Err      error
}

// =============================================================================
// COMMANDS
// =============================================================================

// callTimeout bounds every backend call issued from the UI.
const callTimeout = 30 * time.Second

func loadConversationsCmd(client *api.Client) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), callTimeout)
		defer cancel()

		convs, err := client.ListConversations(ctx)
		return conversationsLoadedMsg{Conversations: convs, Err: err}
	}
}

func loadMessagesCmd(client *api.Client, conversationID string) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), callTimeout)
		defer cancel()

		msgs, err := client.ListMessages(ctx, conversationID)
		return messagesLoadedMsg{ConversationID: conversationID, Messages: msgs, Err: err}
	}
}

// sendMessageCmd sends exactly one request. The sent message travels in the
// result so a failed send can be retried from the toast without retyping.
func sendMessageCmd(client *api.Client, conversationID string, sent *model.Message, modelID string) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), callTimeout)
		defer cancel()

		reply, err := client.SendMessage(ctx, conversationID, api.SendMessageRequest{
			Content: sent.Content,
			ModelID: modelID,
		})
		return sendResultMsg{
			ConversationID: conversationID,
			Reply:          reply,
			Sent:           sent,
			Err:            err,
		}
	}
}

func loadProfileCmd(client *api.Client) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), callTimeout)
		defer cancel()

		profile, err := client.GetProfile(ctx)
		return profileLoadedMsg{Profile: profile, Err: err}
	}
}

func loadProvidersCmd(client *api.Client) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), callTimeout)
		defer cancel()

		providers, err := client.ListProviders(ctx)
		if err != nil {
			return providersLoadedMsg{Err: err}
		}
		settings, err := client.GetProviderSettings(ctx)
		return providersLoadedMsg{Providers: providers, Settings: settings, Err: err}
	}
}

// errDetail renders an error for toast display: collapsed to one line and
// capped so a long backend message cannot flood the corner.
func errDetail(err error) string {
	return util.TruncateRunes(util.CollapseWhitespace(err.Error()), 120)
}
