package services

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/personachat/personachat/internal/config"
	"github.com/personachat/personachat/internal/llm"
	"github.com/personachat/personachat/internal/models"
	"github.com/personachat/personachat/internal/plugins"
	"github.com/personachat/personachat/internal/rag"
)

type fakeEmbedder struct{}

func (fakeEmbedder) Embed(ctx context.Context, texts []string) ([][]float64, error) {
	vectors := make([][]float64, len(texts))
	for i := range texts {
		vectors[i] = []float64{0.1, 0.2, 0.3}
	}
	return vectors, nil
}

type fakeVectorStore struct{}

func (fakeVectorStore) Ping(ctx context.Context) error { return nil }
func (fakeVectorStore) EnsureCollection(ctx context.Context, name string, vectorSize int) error {
	return nil
}
func (fakeVectorStore) Upsert(ctx context.Context, collection string, chunks []models.DocumentChunk, vectors [][]float64) error {
	return nil
}
func (fakeVectorStore) Search(ctx context.Context, collection string, queryVector []float64, topK int) ([]models.ScoredChunk, error) {
	return []models.ScoredChunk{
		{
			Chunk: models.DocumentChunk{
				Content:  "Go is a statically typed language.",
				Metadata: map[string]string{"source": "go-notes.md"},
			},
			Score: 0.9,
		},
	}, nil
}
func (fakeVectorStore) DeleteCollection(ctx context.Context, name string) error { return nil }

func TestChatRAGPrefixInjectsContext(t *testing.T) {
	t.Setenv("HOME", t.TempDir())

	store := newMemStore()
	provider := &fakeProvider{name: "groq", reply: "grounded answer"}
	registry := llm.NewRegistry()
	registry.Register(provider)

	cfg := &config.Config{
		DefaultProvider: "groq",
		DefaultModel:    "llama3-8b-8192",
		PluginDir:       t.TempDir(),
	}
	manager := plugins.NewManager(cfg, &plugins.Context{})
	ragSvc := rag.NewService(fakeVectorStore{}, fakeEmbedder{})

	svc := NewChatService(cfg, store, registry, manager, ragSvc, nil)

	result, err := svc.Chat(context.Background(), &ChatRequest{Message: "/rag what is Go?"})
	require.NoError(t, err)
	assert.Equal(t, "grounded answer", result.Response)

	require.Len(t, provider.lastMsgs, 2)
	assert.Equal(t, models.RoleSystem, provider.lastMsgs[0].Role)
	assert.Contains(t, provider.lastMsgs[0].Content, "Source: go-notes.md (Score: 0.90)")
	assert.Contains(t, provider.lastMsgs[0].Content, "Go is a statically typed language.")

	// The prefix is stripped from the turn sent to the provider
	assert.Equal(t, models.RoleUser, provider.lastMsgs[1].Role)
	assert.Equal(t, "what is Go?", provider.lastMsgs[1].Content)

	// And from the stored turn, so the next transcript replays clean text
	messages, err := store.ListMessages(context.Background(), result.ConversationID, 0)
	require.NoError(t, err)
	require.Len(t, messages, 2)
	assert.Equal(t, "what is Go?", messages[0].Content)
}
