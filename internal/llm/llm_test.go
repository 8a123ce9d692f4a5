package llm

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/personachat/personachat/internal/models"
)

type fakeProvider struct {
	name     string
	lastMsgs []Message
	lastCfg  Config
}

func (f *fakeProvider) Name() string { return f.name }

func (f *fakeProvider) Chat(ctx context.Context, messages []Message, config Config) (*Response, error) {
	f.lastMsgs = messages
	f.lastCfg = config
	return &Response{
		Text:     "echo: " + messages[len(messages)-1].Content,
		Model:    config.Model,
		Provider: f.name,
	}, nil
}

func (f *fakeProvider) ListModels(ctx context.Context) ([]models.ModelInfo, error) {
	return []models.ModelInfo{{ID: "fake-model", Name: "fake-model"}}, nil
}

func TestRegistryRegisterAndGet(t *testing.T) {
	reg := NewRegistry()
	reg.Register(&fakeProvider{name: "groq"})
	reg.Register(&fakeProvider{name: "ai21"})

	provider, ok := reg.Get("groq")
	require.True(t, ok)
	assert.Equal(t, "groq", provider.Name())

	_, ok = reg.Get("missing")
	assert.False(t, ok)

	assert.Equal(t, []string{"ai21", "groq"}, reg.Names())
}

func TestRegistryChatDispatch(t *testing.T) {
	fake := &fakeProvider{name: "groq"}
	reg := NewRegistry()
	reg.Register(fake)

	resp, err := reg.Chat(context.Background(), "groq",
		[]Message{{Role: "user", Content: "hello"}},
		Config{Model: "llama3-8b-8192", Temperature: 0.7},
	)
	require.NoError(t, err)

	assert.Equal(t, "echo: hello", resp.Text)
	assert.Equal(t, "groq", resp.Provider)
	assert.Equal(t, 0.7, fake.lastCfg.Temperature)
	require.Len(t, fake.lastMsgs, 1)
}

func TestRegistryChatUnknownProvider(t *testing.T) {
	reg := NewRegistry()

	_, err := reg.Chat(context.Background(), "ghost", nil, Config{})
	assert.ErrorContains(t, err, "provider not found")
}
