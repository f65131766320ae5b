package service

//go:generate go run go.uber.org/mock/mockgen@latest -destination=mocks/mock_chat_service.go -package=mocks -mock_names=ChatService=MockChatService ragbot/internal/service ChatService

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"

	"ragbot/internal/contextutil"
	"ragbot/internal/rag"
	"ragbot/internal/storage"
)

// maxTitleLength caps conversation titles derived from the first question.
const maxTitleLength = 80

// AskRequest represents a chat request in the domain layer.
type AskRequest struct {
	Question       string `validate:"required"`
	Format         string
	ConversationID string // Empty starts a new conversation
}

// AskResponse represents a chat response in the domain layer.
type AskResponse struct {
	Answer         rag.AnswerResult
	ConversationID string
}

// ChatService provides conversation-aware question answering.
type ChatService interface {
	// Ask resolves a question and records both sides of the exchange.
	Ask(ctx context.Context, req AskRequest) (AskResponse, error)
	// History returns all messages of a conversation in order.
	History(ctx context.Context, conversationID string) ([]storage.MessageRecord, error)
	// ListConversations returns the most recent conversations, newest first.
	ListConversations(ctx context.Context, limit int) ([]storage.ConversationRecord, error)
}

// chatService implements ChatService.
type chatService struct {
	engine        rag.Engine
	conversations storage.ConversationStore
	messages      storage.MessageStore
	logger        *slog.Logger
}

// NewChatService creates a new ChatService.
func NewChatService(engine rag.Engine, conversations storage.ConversationStore, messages storage.MessageStore) ChatService {
	return &chatService{
		engine:        engine,
		conversations: conversations,
		messages:      messages,
		logger:        slog.Default(),
	}
}

// Ask resolves a question through the answer engine and persists the
// exchange. Persistence failures after the answer exists are logged, not
// returned: the user still gets their answer.
func (s *chatService) Ask(ctx context.Context, req AskRequest) (AskResponse, error) {
	logger := contextutil.LoggerFromContext(ctx)

	if req.Question == "" {
		logger.WarnContext(ctx, "empty question in ask request")
		return AskResponse{}, &ValidationError{
			Field:   "question",
			Message: "cannot be empty",
		}
	}

	conversationID, err := s.resolveConversation(ctx, req)
	if err != nil {
		return AskResponse{}, err
	}

	userMsg := &storage.MessageRecord{
		ConversationID: conversationID,
		Role:           "user",
		Content:        req.Question,
	}
	if err := s.messages.Insert(ctx, userMsg); err != nil {
		return AskResponse{}, WrapError(err, "failed to record question")
	}

	result := s.engine.Answer(ctx, rag.QueryRequest{
		Question: req.Question,
		Format:   req.Format,
	})

	sourcesJSON, err := json.Marshal(result.Sources)
	if err != nil {
		sourcesJSON = []byte("[]")
	}
	assistantMsg := &storage.MessageRecord{
		ConversationID: conversationID,
		Role:           "assistant",
		Content:        result.Content,
		SourceType:     string(result.SourceType),
		Sources:        string(sourcesJSON),
	}
	if err := s.messages.Insert(ctx, assistantMsg); err != nil {
		logger.ErrorContext(ctx, "failed to record answer", "error", err)
	}

	logger.InfoContext(ctx, "ask request processed",
		"conversation_id", conversationID,
		"source_type", string(result.SourceType),
	)
	return AskResponse{
		Answer:         result,
		ConversationID: conversationID,
	}, nil
}

// resolveConversation validates an existing conversation ID or starts a new
// conversation titled after the question.
func (s *chatService) resolveConversation(ctx context.Context, req AskRequest) (string, error) {
	if req.ConversationID != "" {
		if _, err := s.conversations.GetByID(ctx, req.ConversationID); err != nil {
			if errors.Is(err, storage.ErrNotFound) {
				return "", WrapError(ErrNotFound, "conversation "+req.ConversationID)
			}
			return "", WrapError(err, "failed to load conversation")
		}
		return req.ConversationID, nil
	}

	title := req.Question
	if len(title) > maxTitleLength {
		title = title[:maxTitleLength]
	}
	conv, err := s.conversations.Create(ctx, title)
	if err != nil {
		return "", WrapError(err, "failed to create conversation")
	}
	return conv.ID, nil
}

// History returns all messages of a conversation in order.
func (s *chatService) History(ctx context.Context, conversationID string) ([]storage.MessageRecord, error) {
	if _, err := s.conversations.GetByID(ctx, conversationID); err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return nil, WrapError(ErrNotFound, "conversation "+conversationID)
		}
		return nil, WrapError(err, "failed to load conversation")
	}
	msgs, err := s.messages.ListByConversation(ctx, conversationID)
	if err != nil {
		return nil, WrapError(err, "failed to load messages")
	}
	return msgs, nil
}

// ListConversations returns the most recent conversations, newest first.
func (s *chatService) ListConversations(ctx context.Context, limit int) ([]storage.ConversationRecord, error) {
	if limit <= 0 {
		limit = 20
	}
	convs, err := s.conversations.ListRecent(ctx, limit)
	if err != nil {
		return nil, WrapError(err, "failed to list conversations")
	}
	return convs, nil
}
