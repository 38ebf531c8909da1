// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package storage

import (
	"context"
	"fmt"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tradeline/tradeline-tui/internal/model"
)

func newTestCache(t *testing.T, max int) *Cache {
	t.Helper()
	cache, err := Open(filepath.Join(t.TempDir(), "cache.db"), max)
	require.NoError(t, err)
	t.Cleanup(func() { cache.Close() })
	return cache
}

func testConversation(title string, messages ...string) *model.Conversation {
	conv := model.NewConversation()
	conv.Title = title
	for _, content := range messages {
		conv.AddMessage(model.NewUserMessage(content))
	}
	return conv
}

func TestCache_PutGet(t *testing.T) {
	cache := newTestCache(t, 0)
	ctx := context.Background()

	conv := testConversation("BTC strategy", "what moved today?", "show me the chart")
	require.NoError(t, cache.Put(ctx, conv))

	got, err := cache.Get(ctx, conv.ID)
	require.NoError(t, err)
	assert.Equal(t, conv.ID, got.ID)
	assert.Equal(t, "BTC strategy", got.Title)
	require.Len(t, got.Messages, 2)
	assert.Equal(t, "what moved today?", got.Messages[0].Content)
	assert.Equal(t, model.RoleUser, got.Messages[0].Role)
}

func TestCache_GetMissing(t *testing.T) {
	cache := newTestCache(t, 0)

	_, err := cache.Get(context.Background(), "nope")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestCache_PutReplacesMessages(t *testing.T) {
	cache := newTestCache(t, 0)
	ctx := context.Background()

	conv := testConversation("t", "first")
	require.NoError(t, cache.Put(ctx, conv))

	// Backend returned a fresh copy with different messages.
	conv.Messages = []*model.Message{model.NewUserMessage("replacement")}
	conv.Messages[0].ConversationID = conv.ID
	require.NoError(t, cache.Put(ctx, conv))

	got, err := cache.Get(ctx, conv.ID)
	require.NoError(t, err)
	require.Len(t, got.Messages, 1)
	assert.Equal(t, "replacement", got.Messages[0].Content)
}

func TestCache_AppendMessage(t *testing.T) {
	cache := newTestCache(t, 0)
	ctx := context.Background()

	conv := testConversation("t", "hello")
	require.NoError(t, cache.Put(ctx, conv))

	reply := &model.Message{
		ID:        "m-reply",
		Role:      model.RoleAssistant,
		Content:   "hi there",
		CreatedAt: time.Now(),
	}
	require.NoError(t, cache.AppendMessage(ctx, conv.ID, reply))

	got, err := cache.Get(ctx, conv.ID)
	require.NoError(t, err)
	require.Len(t, got.Messages, 2)
	assert.Equal(t, model.RoleAssistant, got.Messages[1].Role)
}

func TestCache_AppendToMissingConversation(t *testing.T) {
	cache := newTestCache(t, 0)

	err := cache.AppendMessage(context.Background(), "ghost", model.NewUserMessage("hi"))
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestCache_ListNewestFirst(t *testing.T) {
	cache := newTestCache(t, 0)
	ctx := context.Background()

	older := testConversation("older")
	older.UpdatedAt = time.Now().Add(-time.Hour)
	newer := testConversation("newer")
	newer.UpdatedAt = time.Now()

	require.NoError(t, cache.Put(ctx, older))
	require.NoError(t, cache.Put(ctx, newer))

	list, err := cache.List(ctx)
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, "newer", list[0].Title)
	assert.Equal(t, "older", list[1].Title)
	assert.Empty(t, list[0].Messages, "list must omit messages")
}

func TestCache_PruneOldest(t *testing.T) {
	cache := newTestCache(t, 3)
	ctx := context.Background()

	base := time.Now().Add(-time.Hour)
	var oldest string
	for i := 0; i < 5; i++ {
		conv := testConversation(fmt.Sprintf("conv-%d", i))
		conv.UpdatedAt = base.Add(time.Duration(i) * time.Minute)
		if i == 0 {
			oldest = conv.ID
		}
		require.NoError(t, cache.Put(ctx, conv))
	}

	n, err := cache.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, 3, n)

	_, err = cache.Get(ctx, oldest)
	assert.ErrorIs(t, err, ErrNotFound, "oldest conversation must be pruned")
}

func TestCache_Delete(t *testing.T) {
	cache := newTestCache(t, 0)
	ctx := context.Background()

	conv := testConversation("t", "msg")
	require.NoError(t, cache.Put(ctx, conv))
	require.NoError(t, cache.Delete(ctx, conv.ID))

	_, err := cache.Get(ctx, conv.ID)
	assert.ErrorIs(t, err, ErrNotFound)

	// Deleting again is not an error.
	assert.NoError(t, cache.Delete(ctx, conv.ID))
}

func TestCache_SurvivesReopen(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "cache.db")
	ctx := context.Background()

	cache, err := Open(path, 0)
	require.NoError(t, err)
	conv := testConversation("persistent", "still here?")
	require.NoError(t, cache.Put(ctx, conv))
	require.NoError(t, cache.Close())

	reopened, err := Open(path, 0)
	require.NoError(t, err)
	defer reopened.Close()

	got, err := reopened.Get(ctx, conv.ID)
	require.NoError(t, err)
	assert.Equal(t, "persistent", got.Title)
	require.Len(t, got.Messages, 1)
}
