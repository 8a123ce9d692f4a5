package services

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/personachat/personachat/internal/config"
	"github.com/personachat/personachat/internal/history"
	"github.com/personachat/personachat/internal/integrations/clearml"
	"github.com/personachat/personachat/internal/llm"
	"github.com/personachat/personachat/internal/logger"
	"github.com/personachat/personachat/internal/models"
	"github.com/personachat/personachat/internal/plugins"
	"github.com/personachat/personachat/internal/rag"
)

const (
	// transcriptLimit is how many prior messages are replayed to the model
	transcriptLimit = 10

	defaultTemperature = 0.7

	ragPrefix = "/rag "
)

// ChatRequest is a single user turn
type ChatRequest struct {
	ConversationID int64  `json:"conversation_id"`
	Message        string `json:"message" binding:"required"`
	Provider       string `json:"provider"`
	Model          string `json:"model"`
}

// ChatResult is the reply plus the metadata the caller needs to render it
type ChatResult struct {
	ConversationID int64  `json:"conversation_id"`
	Response       string `json:"response"`
	Provider       string `json:"provider,omitempty"`
	Model          string `json:"model,omitempty"`
	TokensUsed     int    `json:"tokens_used,omitempty"`
	LatencyMs      int64  `json:"latency_ms,omitempty"`
	Bypassed       bool   `json:"bypassed,omitempty"`
}

// ChatService orchestrates a chat turn across the plugin pipeline, the
// retrieval layer, the provider registry and the history store
type ChatService struct {
	cfg      *config.Config
	store    history.Store
	registry *llm.Registry
	manager  *plugins.Manager
	rag      *rag.Service
	clearml  *clearml.Client
}

// NewChatService creates the chat orchestrator. The rag and clearml
// arguments may be nil when those backends are not configured.
func NewChatService(cfg *config.Config, store history.Store, registry *llm.Registry, manager *plugins.Manager, ragSvc *rag.Service, cml *clearml.Client) *ChatService {
	return &ChatService{
		cfg:      cfg,
		store:    store,
		registry: registry,
		manager:  manager,
		rag:      ragSvc,
		clearml:  cml,
	}
}

// Chat runs one full turn and persists both sides of it
func (s *ChatService) Chat(ctx context.Context, req *ChatRequest) (*ChatResult, error) {
	if strings.TrimSpace(req.Message) == "" {
		return nil, fmt.Errorf("message is empty")
	}

	conv, err := s.resolveConversation(ctx, req)
	if err != nil {
		return nil, err
	}

	transcript, err := s.store.ListMessages(ctx, conv.ID, transcriptLimit)
	if err != nil {
		return nil, fmt.Errorf("failed to load transcript: %w", err)
	}

	input := s.manager.ProcessInput(ctx, req.Message)
	if input.BypassAI {
		if err := s.persistTurn(ctx, conv.ID, input.Text, input.Response, ""); err != nil {
			return nil, err
		}
		return &ChatResult{
			ConversationID: conv.ID,
			Response:       input.Response,
			Bypassed:       true,
		}, nil
	}

	text := input.Text
	messages := make([]llm.Message, 0, len(transcript)+2)

	// A /rag prefix pulls retrieval context in as a leading system turn
	if query, ok := strings.CutPrefix(text, ragPrefix); ok {
		text = strings.TrimSpace(query)
		if ragContext := s.ragContext(ctx, text); ragContext != "" {
			messages = append(messages, llm.Message{
				Role:    models.RoleSystem,
				Content: "Use the following context to answer the question:\n\n" + ragContext,
			})
		}
	}

	for _, msg := range transcript {
		messages = append(messages, llm.Message{Role: msg.Role, Content: msg.Content})
	}
	messages = append(messages, llm.Message{Role: models.RoleUser, Content: text})

	providerName := req.Provider
	if providerName == "" {
		providerName = s.cfg.DefaultProvider
	}
	model := req.Model
	if model == "" {
		model = s.cfg.DefaultModel
	}

	resp, err := s.registry.Chat(ctx, providerName, messages, llm.Config{
		Model:       model,
		Temperature: defaultTemperature,
	})
	if err != nil {
		return nil, fmt.Errorf("provider %s failed: %w", providerName, err)
	}

	reply := s.manager.ProcessOutput(ctx, resp.Text)

	// History keeps the processed text: hook rewrites applied, /rag prefix
	// stripped, so the next turn's transcript replays what the model saw
	if err := s.persistTurn(ctx, conv.ID, text, reply, resp.Model); err != nil {
		return nil, err
	}

	s.reportToClearML(resp)

	return &ChatResult{
		ConversationID: conv.ID,
		Response:       reply,
		Provider:       resp.Provider,
		Model:          resp.Model,
		TokensUsed:     resp.TokensUsed,
		LatencyMs:      resp.LatencyMs,
	}, nil
}

func (s *ChatService) resolveConversation(ctx context.Context, req *ChatRequest) (*models.Conversation, error) {
	if req.ConversationID > 0 {
		conv, err := s.store.GetConversation(ctx, req.ConversationID)
		if err != nil {
			return nil, fmt.Errorf("conversation %d not found: %w", req.ConversationID, err)
		}
		return conv, nil
	}

	title := req.Message
	if runes := []rune(title); len(runes) > 50 {
		title = string(runes[:50])
	}
	conv, err := s.store.CreateConversation(ctx, title)
	if err != nil {
		return nil, fmt.Errorf("failed to create conversation: %w", err)
	}
	return conv, nil
}

func (s *ChatService) ragContext(ctx context.Context, query string) string {
	if s.rag == nil || !s.rag.Available() {
		return ""
	}
	return s.rag.Context(ctx, query)
}

func (s *ChatService) persistTurn(ctx context.Context, convID int64, userText, reply, model string) error {
	userMsg := &models.Message{
		ConversationID: convID,
		Role:           models.RoleUser,
		Content:        userText,
		Timestamp:      time.Now().UTC(),
	}
	if err := s.store.AddMessage(ctx, userMsg); err != nil {
		return fmt.Errorf("failed to store user message: %w", err)
	}

	aiMsg := &models.Message{
		ConversationID: convID,
		Role:           models.RoleAssistant,
		Content:        reply,
		ModelUsed:      model,
		Timestamp:      time.Now().UTC(),
	}
	if err := s.store.AddMessage(ctx, aiMsg); err != nil {
		return fmt.Errorf("failed to store assistant message: %w", err)
	}

	return nil
}

// reportToClearML ships interaction metrics without blocking the reply
func (s *ChatService) reportToClearML(resp *llm.Response) {
	if s.clearml == nil || !s.clearml.Available() {
		return
	}

	event := clearml.ChatEvent{
		Provider:   resp.Provider,
		Model:      resp.Model,
		TokensUsed: int64(resp.TokensUsed),
		LatencyMs:  resp.LatencyMs,
	}

	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := s.clearml.ReportChat(ctx, event); err != nil {
			logger.Debug("ClearML report failed: %v", err)
		}
	}()
}
