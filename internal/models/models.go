package models

import (
	"time"
)

// Core domain models

// Message roles stored in chat history.
const (
	RoleUser      = "user"
	RoleAssistant = "ai"
	RoleSystem    = "system"
)

// Conversation represents a chat conversation
type Conversation struct {
	ID        int64     `json:"id" bson:"_id"`
	Title     string    `json:"title,omitempty" bson:"title,omitempty"`
	CreatedAt time.Time `json:"created_at" bson:"created_at"`
}

// Message represents a single message within a conversation
type Message struct {
	ID             int64             `json:"id" bson:"_id"`
	ConversationID int64             `json:"conversation_id" bson:"conversation_id"`
	Role           string            `json:"role" bson:"role"` // user, ai, system
	Content        string            `json:"content" bson:"content"`
	ModelUsed      string            `json:"model_used,omitempty" bson:"model_used,omitempty"`
	Metadata       map[string]string `json:"metadata,omitempty" bson:"metadata,omitempty"`
	Timestamp      time.Time         `json:"timestamp" bson:"timestamp"`
}

// ModelInfo represents information about an available model from a provider
type ModelInfo struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description,omitempty"`
}

// PluginInfo describes a loaded plugin
type PluginInfo struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description"`
	Enabled     bool   `json:"enabled"`
	External    bool   `json:"external"` // loaded from PLUGIN_DIR rather than compiled in
}

// DocumentChunk represents a chunk of an ingested document held in the
// vector store alongside its embedding.
type DocumentChunk struct {
	ID       string            `json:"id"`
	Content  string            `json:"content"`
	Metadata map[string]string `json:"metadata,omitempty"`
}

// ScoredChunk pairs a retrieved chunk with its similarity score.
type ScoredChunk struct {
	Chunk DocumentChunk `json:"chunk"`
	Score float64       `json:"score"`
}

// HistoryStats represents aggregated statistics over the chat history
type HistoryStats struct {
	TotalConversations int            `json:"total_conversations"`
	TotalMessages      int            `json:"total_messages"`
	MessagesByModel    map[string]int `json:"messages_by_model,omitempty"`
	LastUpdated        time.Time      `json:"last_updated"`
}

// APIResponse is the standard envelope for all HTTP responses
type APIResponse struct {
	Success bool        `json:"success"`
	Data    interface{} `json:"data,omitempty"`
	Message string      `json:"message,omitempty"`
	Error   string      `json:"error,omitempty"`
}
