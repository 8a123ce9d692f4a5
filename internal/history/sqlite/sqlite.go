package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"github.com/personachat/personachat/internal/models"
)

// SQLite implements the history Store interface for SQLite
type SQLite struct {
	db   *sql.DB
	path string
}

// New creates a new SQLite history store instance
func New(path string) *SQLite {
	return &SQLite{
		path: path,
	}
}

// DB exposes the underlying connection for migration tooling
func (s *SQLite) DB() *sql.DB {
	return s.db
}

// Connect opens the SQLite database, creating it and its schema if needed
func (s *SQLite) Connect(ctx context.Context) error {
	// Expand the path (handle ~ and relative paths)
	dbPath := s.path
	if strings.HasPrefix(dbPath, "~") {
		home, err := os.UserHomeDir()
		if err != nil {
			return fmt.Errorf("failed to get home directory: %w", err)
		}
		dbPath = filepath.Join(home, dbPath[1:])
	} else if !filepath.IsAbs(dbPath) && dbPath != ":memory:" {
		absPath, err := filepath.Abs(dbPath)
		if err != nil {
			return fmt.Errorf("failed to resolve absolute path: %w", err)
		}
		dbPath = absPath
	}

	if dbPath != ":memory:" {
		dir := filepath.Dir(dbPath)
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("failed to create database directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite3", dbPath+"?_foreign_keys=on")
	if err != nil {
		return fmt.Errorf("failed to open SQLite database at path '%s': %w", dbPath, err)
	}

	if err := db.PingContext(ctx); err != nil {
		return fmt.Errorf("failed to ping SQLite database at path '%s': %w", dbPath, err)
	}

	s.db = db

	if err := s.createTables(ctx); err != nil {
		return fmt.Errorf("failed to create tables: %w", err)
	}

	return nil
}

// Disconnect closes the SQLite connection
func (s *SQLite) Disconnect(ctx context.Context) error {
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}

// Ping checks the database connection
func (s *SQLite) Ping(ctx context.Context) error {
	if s.db == nil {
		return fmt.Errorf("not connected to database")
	}
	return s.db.PingContext(ctx)
}

// createTables creates necessary tables
func (s *SQLite) createTables(ctx context.Context) error {
	createConversationsTable := `
	CREATE TABLE IF NOT EXISTS conversations (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		title TEXT,
		created_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
	);`

	createMessagesTable := `
	CREATE TABLE IF NOT EXISTS messages (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		conversation_id INTEGER NOT NULL,
		role TEXT NOT NULL CHECK(role IN ('user', 'ai', 'system')),
		content TEXT NOT NULL,
		model_used TEXT,
		metadata TEXT, -- JSON string
		timestamp DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
		FOREIGN KEY(conversation_id) REFERENCES conversations(id) ON DELETE CASCADE
	);`

	createIndexes := []string{
		"CREATE INDEX IF NOT EXISTS idx_messages_conversation ON messages(conversation_id, timestamp);",
		"CREATE INDEX IF NOT EXISTS idx_conversations_created ON conversations(created_at);",
	}

	queries := []string{createConversationsTable, createMessagesTable}
	queries = append(queries, createIndexes...)

	for _, query := range queries {
		if _, err := s.db.ExecContext(ctx, query); err != nil {
			return fmt.Errorf("failed to execute query: %w", err)
		}
	}

	return nil
}

// Conversation operations

// CreateConversation creates a new conversation and returns it
func (s *SQLite) CreateConversation(ctx context.Context, title string) (*models.Conversation, error) {
	now := time.Now().UTC()

	result, err := s.db.ExecContext(ctx,
		"INSERT INTO conversations (title, created_at) VALUES (?, ?)",
		nullString(title), now,
	)
	if err != nil {
		return nil, err
	}

	id, err := result.LastInsertId()
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
func (s *SQLite) GetConversation(ctx context.Context, id int64) (*models.Conversation, error) {
	var conv models.Conversation
	var title sql.NullString

	err := s.db.QueryRowContext(ctx,
		"SELECT id, title, created_at FROM conversations WHERE id = ?", id,
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
func (s *SQLite) ListConversations(ctx context.Context) ([]*models.Conversation, error) {
	rows, err := s.db.QueryContext(ctx,
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
func (s *SQLite) RenameConversation(ctx context.Context, id int64, title string) error {
	result, err := s.db.ExecContext(ctx,
		"UPDATE conversations SET title = ? WHERE id = ?", title, id,
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
func (s *SQLite) DeleteConversation(ctx context.Context, id int64) error {
	result, err := s.db.ExecContext(ctx,
		"DELETE FROM conversations WHERE id = ?", id,
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

// Message operations

// AddMessage appends a message to a conversation
func (s *SQLite) AddMessage(ctx context.Context, msg *models.Message) error {
	if msg.Timestamp.IsZero() {
		msg.Timestamp = time.Now().UTC()
	}

	metadataJSON, err := marshalMetadata(msg.Metadata)
	if err != nil {
		return err
	}

	result, err := s.db.ExecContext(ctx,
		`INSERT INTO messages (conversation_id, role, content, model_used, metadata, timestamp)
		 VALUES (?, ?, ?, ?, ?, ?)`,
		msg.ConversationID,
		msg.Role,
		msg.Content,
		nullString(msg.ModelUsed),
		metadataJSON,
		msg.Timestamp,
	)
	if err != nil {
		return err
	}

	msg.ID, err = result.LastInsertId()
	return err
}

// ListMessages returns messages for a conversation in chronological order.
// A limit of 0 returns all messages; a positive limit returns the most
// recent ones.
func (s *SQLite) ListMessages(ctx context.Context, conversationID int64, limit int) ([]*models.Message, error) {
	query := `
		SELECT id, conversation_id, role, content, model_used, metadata, timestamp
		FROM messages WHERE conversation_id = ?
		ORDER BY timestamp ASC, id ASC`
	args := []interface{}{conversationID}

	if limit > 0 {
		// Take the tail of the conversation, then restore chronological order
		query = `
			SELECT id, conversation_id, role, content, model_used, metadata, timestamp FROM (
				SELECT id, conversation_id, role, content, model_used, metadata, timestamp
				FROM messages WHERE conversation_id = ?
				ORDER BY timestamp DESC, id DESC LIMIT ?
			) ORDER BY timestamp ASC, id ASC`
		args = append(args, limit)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
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
func (s *SQLite) PruneBefore(ctx context.Context, cutoff time.Time) (int, error) {
	result, err := s.db.ExecContext(ctx,
		"DELETE FROM conversations WHERE created_at < ?", cutoff,
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
func (s *SQLite) Stats(ctx context.Context) (*models.HistoryStats, error) {
	stats := &models.HistoryStats{
		MessagesByModel: make(map[string]int),
		LastUpdated:     time.Now().UTC(),
	}

	if err := s.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM conversations").Scan(&stats.TotalConversations); err != nil {
		return nil, err
	}
	if err := s.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM messages").Scan(&stats.TotalMessages); err != nil {
		return nil, err
	}

	rows, err := s.db.QueryContext(ctx,
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
