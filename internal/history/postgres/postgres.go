package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	_ "github.com/lib/pq"

	"github.com/personachat/personachat/internal/models"
)

// Postgres implements the history Store interface for PostgreSQL
type Postgres struct {
	db  *sql.DB
	uri string
}

// New creates a new PostgreSQL history store instance
func New(uri string) *Postgres {
	return &Postgres{
		uri: uri,
	}
}

// Connect opens the PostgreSQL connection and ensures the schema exists
func (p *Postgres) Connect(ctx context.Context) error {
	db, err := sql.Open("postgres", p.uri)
	if err != nil {
		return fmt.Errorf("failed to open PostgreSQL connection: %w", err)
	}

	if err := db.PingContext(ctx); err != nil {
		return fmt.Errorf("failed to ping PostgreSQL: %w", err)
	}

	p.db = db

	if err := p.createTables(ctx); err != nil {
		return fmt.Errorf("failed to create tables: %w", err)
	}

	return nil
}

// Disconnect closes the PostgreSQL connection
func (p *Postgres) Disconnect(ctx context.Context) error {
	if p.db != nil {
		return p.db.Close()
	}
	return nil
}

// Ping checks the database connection
func (p *Postgres) Ping(ctx context.Context) error {
	if p.db == nil {
		return fmt.Errorf("not connected to database")
	}
	return p.db.PingContext(ctx)
}

func (p *Postgres) createTables(ctx context.Context) error {
	queries := []string{
		`CREATE TABLE IF NOT EXISTS conversations (
			id BIGSERIAL PRIMARY KEY,
			title TEXT,
			created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
		)`,
		`CREATE TABLE IF NOT EXISTS messages (
			id BIGSERIAL PRIMARY KEY,
			conversation_id BIGINT NOT NULL REFERENCES conversations(id) ON DELETE CASCADE,
			role TEXT NOT NULL CHECK(role IN ('user', 'ai', 'system')),
			content TEXT NOT NULL,
			model_used TEXT,
			metadata JSONB,
			timestamp TIMESTAMPTZ NOT NULL DEFAULT NOW()
		)`,
		`CREATE INDEX IF NOT EXISTS idx_messages_conversation ON messages(conversation_id, timestamp)`,
		`CREATE INDEX IF NOT EXISTS idx_conversations_created ON conversations(created_at)`,
	}

	for _, query := range queries {
		if _, err := p.db.ExecContext(ctx, query); err != nil {
			return fmt.Errorf("failed to execute query: %w", err)
		}
	}

	return nil
}

// CreateConversation creates a new conversation and returns it
func (p *Postgres) CreateConversation(ctx context.Context, title string) (*models.Conversation, error) {
	now := time.Now().UTC()

	var id int64
	err := p.db.QueryRowContext(ctx,
		"INSERT INTO conversations (title, created_at) VALUES ($1, $2) RETURNING id",
		nullString(title), now,
	).Scan(&id)
	if err != nil {
		return nil, err
	}

	return &models.Conversation{
		ID:        id,
		Title:     title,
		CreatedAt: now,
	}, nil
}

// GetConversation retrieves a conversation by ID
func (p *Postgres) GetConversation(ctx context.Context, id int64) (*models.Conversation, error) {
	var conv models.Conversation
	var title sql.NullString

	err := p.db.QueryRowContext(ctx,
		"SELECT id, title, created_at FROM conversations WHERE id = $1", id,
	).Scan(&conv.ID, &title, &conv.CreatedAt)

	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("conversation not found: %d", id)
	}
	if err != nil {
		return nil, err
	}

	conv.Title = title.String
	return &conv, nil
}

// ListConversations lists all conversations, newest first
func (p *Postgres) ListConversations(ctx context.Context) ([]*models.Conversation, error) {
	rows, err := p.db.QueryContext(ctx,
		"SELECT id, title, created_at FROM conversations ORDER BY created_at DESC",
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var conversations []*models.Conversation
	for rows.Next() {
		var conv models.Conversation
		var title sql.NullString

		if err := rows.Scan(&conv.ID, &title, &conv.CreatedAt); err != nil {
			return nil, err
		}

		conv.Title = title.String
		conversations = append(conversations, &conv)
	}

	return conversations, rows.Err()
}

// RenameConversation updates a conversation's title
func (p *Postgres) RenameConversation(ctx context.Context, id int64, title string) error {
	result, err := p.db.ExecContext(ctx,
		"UPDATE conversations SET title = $1 WHERE id = $2", title, id,
	)
	if err != nil {
		return err
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if rowsAffected == 0 {
		return fmt.Errorf("conversation not found: %d", id)
	}

	return nil
}

// DeleteConversation deletes a conversation and its messages
func (p *Postgres) DeleteConversation(ctx context.Context, id int64) error {
	result, err := p.db.ExecContext(ctx,
		"DELETE FROM conversations WHERE id = $1", id,
	)
	if err != nil {
		return err
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if rowsAffected == 0 {
		return fmt.Errorf("conversation not found: %d", id)
	}

	return nil
}

// AddMessage appends a message to a conversation
func (p *Postgres) AddMessage(ctx context.Context, msg *models.Message) error {
	if msg.Timestamp.IsZero() {
		msg.Timestamp = time.Now().UTC()
	}

	metadataJSON, err := marshalMetadata(msg.Metadata)
	if err != nil {
		return err
	}

	return p.db.QueryRowContext(ctx,
		`INSERT INTO messages (conversation_id, role, content, model_used, metadata, timestamp)
		 VALUES ($1, $2, $3, $4, $5, $6) RETURNING id`,
		msg.ConversationID,
		msg.Role,
		msg.Content,
		nullString(msg.ModelUsed),
		metadataJSON,
		msg.Timestamp,
	).Scan(&msg.ID)
}

// ListMessages returns messages for a conversation in chronological order
func (p *Postgres) ListMessages(ctx context.Context, conversationID int64, limit int) ([]*models.Message, error) {
	query := `
		SELECT id, conversation_id, role, content, model_used, metadata, timestamp
		FROM messages WHERE conversation_id = $1
		ORDER BY timestamp ASC, id ASC`
	args := []interface{}{conversationID}

	if limit > 0 {
		query = `
			SELECT id, conversation_id, role, content, model_used, metadata, timestamp FROM (
				SELECT id, conversation_id, role, content, model_used, metadata, timestamp
				FROM messages WHERE conversation_id = $1
				ORDER BY timestamp DESC, id DESC LIMIT $2
			) AS tail ORDER BY timestamp ASC, id ASC`
		args = append(args, limit)
	}

	rows, err := p.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var messages []*models.Message
	for rows.Next() {
		var msg models.Message
		var modelUsed sql.NullString
		var metadataJSON sql.NullString

		err := rows.Scan(
			&msg.ID,
			&msg.ConversationID,
			&msg.Role,
			&msg.Content,
			&modelUsed,
			&metadataJSON,
			&msg.Timestamp,
		)
		if err != nil {
			return nil, err
		}

		msg.ModelUsed = modelUsed.String
		msg.Metadata, err = unmarshalMetadata(metadataJSON.String)
		if err != nil {
			return nil, err
		}
		messages = append(messages, &msg)
	}

	return messages, rows.Err()
}

// PruneBefore deletes conversations created before cutoff
func (p *Postgres) PruneBefore(ctx context.Context, cutoff time.Time) (int, error) {
	result, err := p.db.ExecContext(ctx,
		"DELETE FROM conversations WHERE created_at < $1", cutoff,
	)
	if err != nil {
		return 0, err
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return 0, err
	}

	return int(rowsAffected), nil
}

// Stats returns aggregate counts over the stored history
func (p *Postgres) Stats(ctx context.Context) (*models.HistoryStats, error) {
	stats := &models.HistoryStats{
		MessagesByModel: make(map[string]int),
		LastUpdated:     time.Now().UTC(),
	}

	if err := p.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM conversations").Scan(&stats.TotalConversations); err != nil {
		return nil, err
	}
	if err := p.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM messages").Scan(&stats.TotalMessages); err != nil {
		return nil, err
	}

	rows, err := p.db.QueryContext(ctx,
		"SELECT model_used, COUNT(*) FROM messages WHERE model_used IS NOT NULL AND model_used != '' GROUP BY model_used",
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	for rows.Next() {
		var model string
		var count int
		if err := rows.Scan(&model, &count); err != nil {
			return nil, err
		}
		stats.MessagesByModel[model] = count
	}

	return stats, rows.Err()
}

func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}

func marshalMetadata(m map[string]string) (sql.NullString, error) {
	if len(m) == 0 {
		return sql.NullString{}, nil
	}
	data, err := json.Marshal(m)
	if err != nil {
		return sql.NullString{}, fmt.Errorf("failed to marshal metadata: %w", err)
	}
	return sql.NullString{String: string(data), Valid: true}, nil
}

func unmarshalMetadata(s string) (map[string]string, error) {
	if s == "" {
		return nil, nil
	}
	var m map[string]string
	if err := json.Unmarshal([]byte(s), &m); err != nil {
		return nil, fmt.Errorf("failed to unmarshal metadata: %w", err)
	}
	return m, nil
}
