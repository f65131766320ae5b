package storage

//go:generate go run go.uber.org/mock/mockgen@latest -destination=mocks/mock_message_store.go -package=mocks ragbot/internal/storage MessageStore

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/google/uuid"
)

// MessageStore defines the interface for message storage operations.
type MessageStore interface {
	// Insert appends a message to a conversation. A missing ID is filled in.
	Insert(ctx context.Context, msg *MessageRecord) error
	// ListByConversation returns all messages of a conversation in insertion order.
	ListByConversation(ctx context.Context, conversationID string) ([]MessageRecord, error)
}

// MessageRepo provides methods for message operations.
// It implements the MessageStore interface.
type MessageRepo struct {
	db *sql.DB
}

// NewMessageRepo creates a new MessageRepo.
func NewMessageRepo(db *sql.DB) *MessageRepo {
	return &MessageRepo{db: db}
}

// Insert appends a message to a conversation. A missing ID is filled in.
func (r *MessageRepo) Insert(ctx context.Context, msg *MessageRecord) error {
	if msg.ID == "" {
		msg.ID = uuid.New().String()
	}
	_, err := r.db.ExecContext(ctx,
		"INSERT INTO messages (id, conversation_id, role, content, source_type, sources) VALUES (?, ?, ?, ?, ?, ?)",
		msg.ID, msg.ConversationID, msg.Role, msg.Content, msg.SourceType, msg.Sources,
	)
	if err != nil {
		return fmt.Errorf("failed to insert message: %w", err)
	}
	return nil
}

// ListByConversation returns all messages of a conversation in insertion order.
// Returns an empty slice if the conversation has no messages (not an error).
func (r *MessageRepo) ListByConversation(ctx context.Context, conversationID string) ([]MessageRecord, error) {
	rows, err := r.db.QueryContext(ctx,
		"SELECT id, conversation_id, role, content, source_type, sources, created_at FROM messages WHERE conversation_id = ? ORDER BY created_at, id",
		conversationID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to query messages: %w", err)
	}
	defer func() {
		_ = rows.Close()
	}()

	var msgs []MessageRecord
	for rows.Next() {
		var msg MessageRecord
		var createdAtStr string
		var sourceType, sources sql.NullString
		if err := rows.Scan(&msg.ID, &msg.ConversationID, &msg.Role, &msg.Content, &sourceType, &sources, &createdAtStr); err != nil {
			return nil, fmt.Errorf("failed to scan message: %w", err)
		}
		msg.SourceType = sourceType.String
		msg.Sources = sources.String
		msg.CreatedAt, err = parseTimestamp(createdAtStr)
		if err != nil {
			return nil, fmt.Errorf("failed to parse created_at timestamp: %w", err)
		}
		msgs = append(msgs, msg)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("row iteration error: %w", err)
	}

	return msgs, nil
}
