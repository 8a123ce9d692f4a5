package services

import (
	"context"
	"fmt"
	"strings"
	"testing"
	"time"
	"unicode/utf8"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/personachat/personachat/internal/config"
	"github.com/personachat/personachat/internal/llm"
	"github.com/personachat/personachat/internal/models"
	"github.com/personachat/personachat/internal/plugins"
)

// memStore is an in-memory history store for orchestration tests
type memStore struct {
	nextConvID int64
	nextMsgID  int64
	convs      map[int64]*models.Conversation
	messages   []*models.Message
}

func newMemStore() *memStore {
	return &memStore{convs: make(map[int64]*models.Conversation)}
}

func (m *memStore) Connect(ctx context.Context) error    { return nil }
func (m *memStore) Disconnect(ctx context.Context) error { return nil }
func (m *memStore) Ping(ctx context.Context) error       { return nil }

func (m *memStore) CreateConversation(ctx context.Context, title string) (*models.Conversation, error) {
	m.nextConvID++
	conv := &models.Conversation{ID: m.nextConvID, Title: title, CreatedAt: time.Now().UTC()}
	m.convs[conv.ID] = conv
	return conv, nil
}

func (m *memStore) GetConversation(ctx context.Context, id int64) (*models.Conversation, error) {
	conv, ok := m.convs[id]
	if !ok {
		return nil, fmt.Errorf("conversation not found: %d", id)
	}
	return conv, nil
}

func (m *memStore) ListConversations(ctx context.Context) ([]*models.Conversation, error) {
	var out []*models.Conversation
	for _, conv := range m.convs {
		out = append(out, conv)
	}
	return out, nil
}

func (m *memStore) RenameConversation(ctx context.Context, id int64, title string) error {
	conv, ok := m.convs[id]
	if !ok {
		return fmt.Errorf("conversation not found: %d", id)
	}
	conv.Title = title
	return nil
}

func (m *memStore) DeleteConversation(ctx context.Context, id int64) error {
	delete(m.convs, id)
	return nil
}

func (m *memStore) AddMessage(ctx context.Context, msg *models.Message) error {
	m.nextMsgID++
	msg.ID = m.nextMsgID
	m.messages = append(m.messages, msg)
	return nil
}

func (m *memStore) ListMessages(ctx context.Context, conversationID int64, limit int) ([]*models.Message, error) {
	var out []*models.Message
	for _, msg := range m.messages {
		if msg.ConversationID == conversationID {
			out = append(out, msg)
		}
	}
	if limit > 0 && len(out) > limit {
		out = out[len(out)-limit:]
	}
	return out, nil
}

func (m *memStore) PruneBefore(ctx context.Context, cutoff time.Time) (int, error) {
	removed := 0
	for id, conv := range m.convs {
		if conv.CreatedAt.Before(cutoff) {
			delete(m.convs, id)
			removed++
		}
	}
	return removed, nil
}

func (m *memStore) Stats(ctx context.Context) (*models.HistoryStats, error) {
	return &models.HistoryStats{
		TotalConversations: len(m.convs),
		TotalMessages:      len(m.messages),
	}, nil
}

type fakeProvider struct {
	name     string
	reply    string
	lastMsgs []llm.Message
	lastCfg  llm.Config
}

func (f *fakeProvider) Name() string { return f.name }

func (f *fakeProvider) Chat(ctx context.Context, messages []llm.Message, config llm.Config) (*llm.Response, error) {
	f.lastMsgs = messages
	f.lastCfg = config
	return &llm.Response{
		Text:       f.reply,
		TokensUsed: 42,
		Model:      config.Model,
		Provider:   f.name,
	}, nil
}

func (f *fakeProvider) ListModels(ctx context.Context) ([]models.ModelInfo, error) {
	return nil, nil
}

func newTestService(t *testing.T) (*ChatService, *memStore, *fakeProvider) {
	t.Helper()
	t.Setenv("HOME", t.TempDir())

	store := newMemStore()
	provider := &fakeProvider{name: "groq", reply: "the answer"}
	registry := llm.NewRegistry()
	registry.Register(provider)

	cfg := &config.Config{
		DefaultProvider: "groq",
		DefaultModel:    "llama3-8b-8192",
		PluginDir:       t.TempDir(),
	}
	manager := plugins.NewManager(cfg, &plugins.Context{})

	svc := NewChatService(cfg, store, registry, manager, nil, nil)
	return svc, store, provider
}

func TestChatCreatesConversationAndPersistsTurn(t *testing.T) {
	svc, store, provider := newTestService(t)

	result, err := svc.Chat(context.Background(), &ChatRequest{Message: "what is Go?"})
	require.NoError(t, err)

	assert.Equal(t, "the answer", result.Response)
	assert.Equal(t, "groq", result.Provider)
	assert.Equal(t, "llama3-8b-8192", result.Model)
	assert.Equal(t, 42, result.TokensUsed)
	assert.Positive(t, result.ConversationID)

	// Both sides of the turn are stored
	messages, err := store.ListMessages(context.Background(), result.ConversationID, 0)
	require.NoError(t, err)
	require.Len(t, messages, 2)
	assert.Equal(t, models.RoleUser, messages[0].Role)
	assert.Equal(t, "what is Go?", messages[0].Content)
	assert.Equal(t, models.RoleAssistant, messages[1].Role)
	assert.Equal(t, "llama3-8b-8192", messages[1].ModelUsed)

	assert.Equal(t, 0.7, provider.lastCfg.Temperature)
}

func TestChatTitleTruncated(t *testing.T) {
	svc, store, _ := newTestService(t)

	long := "this message is well over fifty characters long and keeps going"
	result, err := svc.Chat(context.Background(), &ChatRequest{Message: long})
	require.NoError(t, err)

	conv, err := store.GetConversation(context.Background(), result.ConversationID)
	require.NoError(t, err)
	assert.Len(t, conv.Title, 50)
}

func TestChatTitleTruncatesOnRuneBoundary(t *testing.T) {
	svc, store, _ := newTestService(t)

	long := strings.Repeat("é", 60)
	result, err := svc.Chat(context.Background(), &ChatRequest{Message: long})
	require.NoError(t, err)

	conv, err := store.GetConversation(context.Background(), result.ConversationID)
	require.NoError(t, err)
	assert.True(t, utf8.ValidString(conv.Title))
	assert.Equal(t, 50, utf8.RuneCountInString(conv.Title))
}

func TestChatReusesConversationAndReplaysTranscript(t *testing.T) {
	svc, _, provider := newTestService(t)

	first, err := svc.Chat(context.Background(), &ChatRequest{Message: "first"})
	require.NoError(t, err)

	second, err := svc.Chat(context.Background(), &ChatRequest{
		ConversationID: first.ConversationID,
		Message:        "second",
	})
	require.NoError(t, err)
	assert.Equal(t, first.ConversationID, second.ConversationID)

	// Prior turn plus the new user message
	require.Len(t, provider.lastMsgs, 3)
	assert.Equal(t, "first", provider.lastMsgs[0].Content)
	assert.Equal(t, models.RoleAssistant, provider.lastMsgs[1].Role)
	assert.Equal(t, "second", provider.lastMsgs[2].Content)
}

func TestChatUnknownConversation(t *testing.T) {
	svc, _, _ := newTestService(t)

	_, err := svc.Chat(context.Background(), &ChatRequest{ConversationID: 999, Message: "hi"})
	assert.ErrorContains(t, err, "not found")
}

func TestChatEmptyMessage(t *testing.T) {
	svc, _, _ := newTestService(t)

	_, err := svc.Chat(context.Background(), &ChatRequest{Message: "   "})
	assert.Error(t, err)
}

func TestChatPluginBypassSkipsProvider(t *testing.T) {
	svc, store, provider := newTestService(t)

	result, err := svc.Chat(context.Background(), &ChatRequest{Message: "/hello"})
	require.NoError(t, err)

	assert.True(t, result.Bypassed)
	assert.Contains(t, result.Response, "Hello")
	assert.Nil(t, provider.lastMsgs)

	messages, err := store.ListMessages(context.Background(), result.ConversationID, 0)
	require.NoError(t, err)
	require.Len(t, messages, 2)
	assert.Empty(t, messages[1].ModelUsed)
}

func TestChatUnknownProvider(t *testing.T) {
	svc, _, _ := newTestService(t)

	_, err := svc.Chat(context.Background(), &ChatRequest{Message: "hi", Provider: "ghost"})
	assert.ErrorContains(t, err, "ghost")
}
