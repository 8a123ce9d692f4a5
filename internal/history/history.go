package history

import (
	"context"
	"time"

	"github.com/personachat/personachat/internal/models"
)

// Store defines the interface for chat history persistence
type Store interface {
	// Connection management
	Connect(ctx context.Context) error
	Disconnect(ctx context.Context) error
	Ping(ctx context.Context) error

	// Conversation operations
	CreateConversation(ctx context.Context, title string) (*models.Conversation, error)
	GetConversation(ctx context.Context, id int64) (*models.Conversation, error)
	ListConversations(ctx context.Context) ([]*models.Conversation, error)
	RenameConversation(ctx context.Context, id int64, title string) error
	DeleteConversation(ctx context.Context, id int64) error

	// Message operations
	AddMessage(ctx context.Context, msg *models.Message) error
	ListMessages(ctx context.Context, conversationID int64, limit int) ([]*models.Message, error)

	// PruneBefore deletes conversations created before cutoff along with
	// their messages, returning the number of conversations removed.
	PruneBefore(ctx context.Context, cutoff time.Time) (int, error)

	// Stats returns aggregate counts over the stored history
	Stats(ctx context.Context) (*models.HistoryStats, error)
}
