package sqlite

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/personachat/personachat/internal/models"
)

func newTestStore(t *testing.T) *SQLite {
	t.Helper()

	store := New(":memory:")
	require.NoError(t, store.Connect(context.Background()))
	t.Cleanup(func() {
		_ = store.Disconnect(context.Background())
	})
	return store
}

func TestConversationLifecycle(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	conv, err := store.CreateConversation(ctx, "first chat")
	require.NoError(t, err)
	assert.Positive(t, conv.ID)
	assert.Equal(t, "first chat", conv.Title)

	got, err := store.GetConversation(ctx, conv.ID)
	require.NoError(t, err)
	assert.Equal(t, conv.ID, got.ID)
	assert.Equal(t, "first chat", got.Title)

	require.NoError(t, store.RenameConversation(ctx, conv.ID, "renamed"))
	got, err = store.GetConversation(ctx, conv.ID)
	require.NoError(t, err)
	assert.Equal(t, "renamed", got.Title)

	require.NoError(t, store.DeleteConversation(ctx, conv.ID))
	_, err = store.GetConversation(ctx, conv.ID)
	assert.Error(t, err)
}

func TestGetConversationNotFound(t *testing.T) {
	store := newTestStore(t)

	_, err := store.GetConversation(context.Background(), 9999)
	assert.ErrorContains(t, err, "not found")
}

func TestRenameConversationNotFound(t *testing.T) {
	store := newTestStore(t)

	err := store.RenameConversation(context.Background(), 9999, "nope")
	assert.ErrorContains(t, err, "not found")
}

func TestAddAndListMessages(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	conv, err := store.CreateConversation(ctx, "chat")
	require.NoError(t, err)

	base := time.Now().UTC().Add(-time.Hour)
	for i := 0; i < 5; i++ {
		role := models.RoleUser
		if i%2 == 1 {
			role = models.RoleAssistant
		}
		msg := &models.Message{
			ConversationID: conv.ID,
			Role:           role,
			Content:        fmt.Sprintf("message %d", i),
			Timestamp:      base.Add(time.Duration(i) * time.Minute),
		}
		require.NoError(t, store.AddMessage(ctx, msg))
		assert.Positive(t, msg.ID)
	}

	all, err := store.ListMessages(ctx, conv.ID, 0)
	require.NoError(t, err)
	require.Len(t, all, 5)
	assert.Equal(t, "message 0", all[0].Content)
	assert.Equal(t, "message 4", all[4].Content)

	// A positive limit keeps the most recent messages in order
	tail, err := store.ListMessages(ctx, conv.ID, 2)
	require.NoError(t, err)
	require.Len(t, tail, 2)
	assert.Equal(t, "message 3", tail[0].Content)
	assert.Equal(t, "message 4", tail[1].Content)
}

func TestMessageMetadataRoundTrip(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	conv, err := store.CreateConversation(ctx, "chat")
	require.NoError(t, err)

	msg := &models.Message{
		ConversationID: conv.ID,
		Role:           models.RoleAssistant,
		Content:        "hi",
		ModelUsed:      "llama3-8b-8192",
		Metadata:       map[string]string{"provider": "groq"},
	}
	require.NoError(t, store.AddMessage(ctx, msg))

	got, err := store.ListMessages(ctx, conv.ID, 0)
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "llama3-8b-8192", got[0].ModelUsed)
	assert.Equal(t, map[string]string{"provider": "groq"}, got[0].Metadata)
}

func TestDeleteConversationCascades(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	conv, err := store.CreateConversation(ctx, "chat")
	require.NoError(t, err)
	require.NoError(t, store.AddMessage(ctx, &models.Message{
		ConversationID: conv.ID,
		Role:           models.RoleUser,
		Content:        "hello",
	}))

	require.NoError(t, store.DeleteConversation(ctx, conv.ID))

	messages, err := store.ListMessages(ctx, conv.ID, 0)
	require.NoError(t, err)
	assert.Empty(t, messages)
}

func TestPruneBefore(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	old, err := store.CreateConversation(ctx, "old")
	require.NoError(t, err)
	// Backdate the conversation past the cutoff
	_, err = store.db.ExecContext(ctx,
		"UPDATE conversations SET created_at = ? WHERE id = ?",
		time.Now().UTC().AddDate(0, 0, -60), old.ID,
	)
	require.NoError(t, err)

	fresh, err := store.CreateConversation(ctx, "fresh")
	require.NoError(t, err)

	removed, err := store.PruneBefore(ctx, time.Now().UTC().AddDate(0, 0, -30))
	require.NoError(t, err)
	assert.Equal(t, 1, removed)

	_, err = store.GetConversation(ctx, old.ID)
	assert.Error(t, err)
	_, err = store.GetConversation(ctx, fresh.ID)
	assert.NoError(t, err)
}

func TestStats(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	conv, err := store.CreateConversation(ctx, "chat")
	require.NoError(t, err)

	require.NoError(t, store.AddMessage(ctx, &models.Message{
		ConversationID: conv.ID, Role: models.RoleUser, Content: "q",
	}))
	require.NoError(t, store.AddMessage(ctx, &models.Message{
		ConversationID: conv.ID, Role: models.RoleAssistant, Content: "a", ModelUsed: "gemini-1.5-flash",
	}))

	stats, err := store.Stats(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, stats.TotalConversations)
	assert.Equal(t, 2, stats.TotalMessages)
	assert.Equal(t, 1, stats.MessagesByModel["gemini-1.5-flash"])
}
