package scheduler

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/personachat/personachat/internal/models"
)

type fakeStore struct {
	cutoff  time.Time
	removed int
}

func (f *fakeStore) Connect(ctx context.Context) error    { return nil }
func (f *fakeStore) Disconnect(ctx context.Context) error { return nil }
func (f *fakeStore) Ping(ctx context.Context) error       { return nil }
func (f *fakeStore) CreateConversation(ctx context.Context, title string) (*models.Conversation, error) {
	return nil, nil
}
func (f *fakeStore) GetConversation(ctx context.Context, id int64) (*models.Conversation, error) {
	return nil, nil
}
func (f *fakeStore) ListConversations(ctx context.Context) ([]*models.Conversation, error) {
	return nil, nil
}
func (f *fakeStore) RenameConversation(ctx context.Context, id int64, title string) error {
	return nil
}
func (f *fakeStore) DeleteConversation(ctx context.Context, id int64) error { return nil }
func (f *fakeStore) AddMessage(ctx context.Context, msg *models.Message) error {
	return nil
}
func (f *fakeStore) ListMessages(ctx context.Context, conversationID int64, limit int) ([]*models.Message, error) {
	return nil, nil
}
func (f *fakeStore) PruneBefore(ctx context.Context, cutoff time.Time) (int, error) {
	f.cutoff = cutoff
	return f.removed, nil
}
func (f *fakeStore) Stats(ctx context.Context) (*models.HistoryStats, error) {
	return nil, nil
}

func TestPruneUsesRetentionWindow(t *testing.T) {
	store := &fakeStore{removed: 3}
	s := New(store, 30)

	require.NoError(t, s.prune(context.Background()))

	expected := time.Now().AddDate(0, 0, -30)
	assert.WithinDuration(t, expected, store.cutoff, time.Minute)
}

func TestStartWithRetentionDisabled(t *testing.T) {
	s := New(&fakeStore{}, 0)
	require.NoError(t, s.Start())
	s.Stop()
}

func TestStartTwice(t *testing.T) {
	s := New(&fakeStore{}, 7)
	require.NoError(t, s.Start())
	defer s.Stop()

	assert.Error(t, s.Start())
}
