package storage

//go:generate go run go.uber.org/mock/mockgen@latest -destination=mocks/mock_conversation_store.go -package=mocks ragbot/internal/storage ConversationStore

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/google/uuid"
)

// ConversationStore defines the interface for conversation storage operations.
type ConversationStore interface {
	// Create creates a new conversation with the given title.
	Create(ctx context.Context, title string) (*ConversationRecord, error)
	// GetByID gets a conversation by its ID. Returns ErrNotFound if not found.
	GetByID(ctx context.Context, id string) (*ConversationRecord, error)
	// ListRecent returns the most recent conversations, newest first.
	ListRecent(ctx context.Context, limit int) ([]ConversationRecord, error)
}

// ConversationRepo provides methods for conversation operations.
// It implements the ConversationStore interface.
type ConversationRepo struct {
	db *sql.DB
}

// NewConversationRepo creates a new ConversationRepo.
func NewConversationRepo(db *sql.DB) *ConversationRepo {
	return &ConversationRepo{db: db}
}

// Create creates a new conversation with the given title.
func (r *ConversationRepo) Create(ctx context.Context, title string) (*ConversationRecord, error) {
	id := uuid.New().String()
	_, err := r.db.ExecContext(ctx,
		"INSERT INTO conversations (id, title) VALUES (?, ?)",
		id, title,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create conversation: %w", err)
	}
	return r.GetByID(ctx, id)
}

// GetByID gets a conversation by its ID. Returns ErrNotFound if not found.
func (r *ConversationRepo) GetByID(ctx context.Context, id string) (*ConversationRecord, error) {
	var conv ConversationRecord
	var createdAtStr string

	err := r.db.QueryRowContext(ctx,
		"SELECT id, title, created_at FROM conversations WHERE id = ?",
		id,
	).Scan(&conv.ID, &conv.Title, &createdAtStr)

	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query conversation: %w", err)
	}

	conv.CreatedAt, err = parseTimestamp(createdAtStr)
	if err != nil {
		return nil, fmt.Errorf("failed to parse created_at timestamp: %w", err)
	}

	return &conv, nil
}

// ListRecent returns the most recent conversations, newest first.
func (r *ConversationRepo) ListRecent(ctx context.Context, limit int) ([]ConversationRecord, error) {
	rows, err := r.db.QueryContext(ctx,
		"SELECT id, title, created_at FROM conversations ORDER BY created_at DESC, id LIMIT ?",
		limit,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to query conversations: %w", err)
	}
	defer func() {
		_ = rows.Close()
	}()

	var convs []ConversationRecord
	for rows.Next() {
		var conv ConversationRecord
		var createdAtStr string
		if err := rows.Scan(&conv.ID, &conv.Title, &createdAtStr); err != nil {
			return nil, fmt.Errorf("failed to scan conversation: %w", err)
		}
		conv.CreatedAt, err = parseTimestamp(createdAtStr)
		if err != nil {
			return nil, fmt.Errorf("failed to parse created_at timestamp: %w", err)
		}
		convs = append(convs, conv)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("row iteration error: %w", err)
	}

	return convs, nil
}
