package google

import (
	"context"
	"fmt"
	"strings"
	"time"

	"google.golang.org/genai"

	"github.com/personachat/personachat/internal/llm"
	"github.com/personachat/personachat/internal/models"
)

// Provider implements the LLM Provider interface for Google AI
type Provider struct {
	apiKey string
	client *genai.Client
}

// New creates a new Google provider
func New(apiKey string) *Provider {
	client, err := genai.NewClient(context.Background(), &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		client = nil
	}

	return &Provider{
		apiKey: apiKey,
		client: client,
	}
}

// Name returns the provider name
func (p *Provider) Name() string {
	return "google"
}

// Chat sends a message transcript and returns the completion
func (p *Provider) Chat(ctx context.Context, messages []llm.Message, config llm.Config) (*llm.Response, error) {
	startTime := time.Now()

	model := config.Model
	if model == "" {
		model = "gemini-1.5-flash"
	}

	client := p.client
	if client == nil {
		var err error
		client, err = genai.NewClient(ctx, &genai.ClientConfig{
			APIKey:  p.apiKey,
			Backend: genai.BackendGeminiAPI,
		})
		if err != nil {
			return nil, fmt.Errorf("failed to create Google client: %w", err)
		}
	}

	generationConfig := &genai.GenerateContentConfig{}
	if config.Temperature > 0 {
		generationConfig.Temperature = float32Ptr(float32(config.Temperature))
	}
	if config.MaxTokens > 0 {
		generationConfig.MaxOutputTokens = int32(config.MaxTokens)
	}

	// Gemini carries system text separately from the turn history
	var contents []*genai.Content
	for _, msg := range messages {
		switch msg.Role {
		case "system":
			generationConfig.SystemInstruction = &genai.Content{
				Parts: []*genai.Part{{Text: msg.Content}},
			}
		case "ai", "assistant":
			contents = append(contents, &genai.Content{
				Role:  "model",
				Parts: []*genai.Part{{Text: msg.Content}},
			})
		default:
			contents = append(contents, &genai.Content{
				Role:  "user",
				Parts: []*genai.Part{{Text: msg.Content}},
			})
		}
	}

	result, err := client.Models.GenerateContent(ctx, model, contents, generationConfig)
	if err != nil {
		return nil, fmt.Errorf("Google AI API error: %v", err)
	}

	var generatedText string
	if len(result.Candidates) > 0 && len(result.Candidates[0].Content.Parts) > 0 {
		if text := result.Candidates[0].Content.Parts[0].Text; text != "" {
			generatedText = text
		}
	}

	tokensUsed := 0
	if result.UsageMetadata != nil {
		tokensUsed = int(result.UsageMetadata.TotalTokenCount)
	}

	return &llm.Response{
		Text:       generatedText,
		TokensUsed: tokensUsed,
		LatencyMs:  time.Since(startTime).Milliseconds(),
		Model:      model,
		Provider:   "google",
	}, nil
}

// ListModels lists available Google AI models
func (p *Provider) ListModels(ctx context.Context) ([]models.ModelInfo, error) {
	client := p.client
	if client == nil {
		var err error
		client, err = genai.NewClient(ctx, &genai.ClientConfig{
			APIKey:  p.apiKey,
			Backend: genai.BackendGeminiAPI,
		})
		if err != nil {
			return nil, fmt.Errorf("failed to create Google client: %w", err)
		}
	}

	modelPage, err := client.Models.List(ctx, &genai.ListModelsConfig{})
	if err != nil {
		return nil, fmt.Errorf("failed to list models: %w", err)
	}

	var modelList []models.ModelInfo
	for _, model := range modelPage.Items {
		modelName := strings.ToLower(model.Name)

		if strings.Contains(modelName, "embed") || strings.Contains(modelName, "embedding") {
			continue
		}
		if strings.Contains(modelName, "vision") || strings.Contains(modelName, "image") {
			continue
		}

		if strings.Contains(modelName, "gemini") {
			name := model.Name
			if len(name) > 7 && name[:7] == "models/" {
				name = name[7:]
			}

			modelList = append(modelList, models.ModelInfo{
				ID:          model.Name,
				Name:        name,
				Description: model.Description,
			})
		}
	}

	return modelList, nil
}

func float32Ptr(f float32) *float32 {
	return &f
}
