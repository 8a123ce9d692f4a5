// Package openaicompat implements the Provider interface for every hosted
// completion API that speaks the OpenAI chat-completions protocol. One
// adapter covers OpenRouter, Groq, Together, Fireworks, Baseten, Nebius,
// Novita, AI21, Upstage and Modal; only the base URL and credential differ.
package openaicompat

import (
	"context"
	"fmt"
	"time"

	"github.com/openai/openai-go/v3"
	"github.com/openai/openai-go/v3/option"

	"github.com/personachat/personachat/internal/llm"
	"github.com/personachat/personachat/internal/models"
)

// Endpoints maps provider names to their OpenAI-compatible base URLs.
var Endpoints = map[string]string{
	"openrouter": "https://openrouter.ai/api/v1",
	"groq":       "https://api.groq.com/openai/v1",
	"together":   "https://api.together.xyz/v1",
	"fireworks":  "https://api.fireworks.ai/inference/v1",
	"baseten":    "https://inference.baseten.co/v1",
	"nebius":     "https://api.studio.nebius.ai/v1",
	"novita":     "https://api.novita.ai/v3/openai",
	"ai21":       "https://api.ai21.com/studio/v1",
	"upstage":    "https://api.upstage.ai/v1/solar",
	"modal":      "https://api.modal.com/v1",
}

// Models advertised when a provider does not expose a usable /models listing.
var fallbackModels = map[string][]string{
	"groq":       {"llama3-8b-8192", "llama3-70b-8192", "mixtral-8x7b-32768"},
	"together":   {"meta-llama/Llama-3-70b-chat-hf", "mistralai/Mixtral-8x7B-Instruct-v0.1"},
	"openrouter": {"gpt-3.5-turbo", "gpt-4", "claude-2"},
}

// Provider implements the LLM Provider interface for OpenAI-compatible APIs
type Provider struct {
	name    string
	baseURL string
	client  openai.Client
}

// New creates a provider for the named OpenAI-compatible API. An empty
// baseURL selects the well-known endpoint for the name.
func New(name, apiKey, baseURL string) *Provider {
	if baseURL == "" {
		baseURL = Endpoints[name]
	}

	opts := []option.RequestOption{
		option.WithAPIKey(apiKey),
		option.WithBaseURL(baseURL),
	}
	if name == "openrouter" {
		opts = append(opts, option.WithHeader("HTTP-Referer", "https://github.com/personachat/personachat"))
	}

	return &Provider{
		name:    name,
		baseURL: baseURL,
		client:  openai.NewClient(opts...),
	}
}

// Name returns the provider name
func (p *Provider) Name() string {
	return p.name
}

// Chat sends a message transcript and returns the completion
func (p *Provider) Chat(ctx context.Context, messages []llm.Message, config llm.Config) (*llm.Response, error) {
	startTime := time.Now()

	params := openai.ChatCompletionNewParams{
		Model:    openai.ChatModel(config.Model),
		Messages: toParams(messages),
	}
	if config.Temperature > 0 {
		params.Temperature = openai.Float(config.Temperature)
	}
	if config.MaxTokens > 0 {
		params.MaxTokens = openai.Int(int64(config.MaxTokens))
	}

	completion, err := p.client.Chat.Completions.New(ctx, params)
	if err != nil {
		return nil, fmt.Errorf("%s API error: %w", p.name, err)
	}

	if len(completion.Choices) == 0 {
		return nil, fmt.Errorf("%s returned no choices", p.name)
	}

	model := completion.Model
	if model == "" {
		model = config.Model
	}

	return &llm.Response{
		Text:       completion.Choices[0].Message.Content,
		TokensUsed: int(completion.Usage.TotalTokens),
		LatencyMs:  time.Since(startTime).Milliseconds(),
		Model:      model,
		Provider:   p.name,
	}, nil
}

// ListModels lists models available from this provider, falling back to a
// curated set when the listing endpoint is unavailable.
func (p *Provider) ListModels(ctx context.Context) ([]models.ModelInfo, error) {
	page, err := p.client.Models.List(ctx)
	if err != nil {
		if fallback, ok := fallbackModels[p.name]; ok {
			infos := make([]models.ModelInfo, 0, len(fallback))
			for _, id := range fallback {
				infos = append(infos, models.ModelInfo{ID: id, Name: id})
			}
			return infos, nil
		}
		return nil, fmt.Errorf("failed to list %s models: %w", p.name, err)
	}

	var infos []models.ModelInfo
	for _, model := range page.Data {
		infos = append(infos, models.ModelInfo{
			ID:          model.ID,
			Name:        model.ID,
			Description: fmt.Sprintf("%s %s", p.name, model.ID),
		})
	}

	return infos, nil
}

func toParams(messages []llm.Message) []openai.ChatCompletionMessageParamUnion {
	params := make([]openai.ChatCompletionMessageParamUnion, 0, len(messages))
	for _, msg := range messages {
		switch msg.Role {
		case "system":
			params = append(params, openai.SystemMessage(msg.Content))
		case "ai", "assistant":
			params = append(params, openai.AssistantMessage(msg.Content))
		default:
			params = append(params, openai.UserMessage(msg.Content))
		}
	}
	return params
}
