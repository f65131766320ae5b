package handlers

import (
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"ragbot/internal/contextutil"
	"ragbot/internal/service"
)

// ChatHandler handles HTTP requests for conversation-aware chat.
type ChatHandler struct {
	chatService service.ChatService
}

// NewChatHandler creates a new ChatHandler.
func NewChatHandler(chatService service.ChatService) *ChatHandler {
	return &ChatHandler{chatService: chatService}
}

// ChatRequest represents the HTTP request payload for chat.
type ChatRequest struct {
	Question       string `json:"question"`
	Format         string `json:"format,omitempty"`
	ConversationID string `json:"conversation_id,omitempty"`
}

// ChatResponse represents the HTTP response payload for chat.
type ChatResponse struct {
	Content        string   `json:"content"`
	Sources        []string `json:"sources"`
	SourceType     string   `json:"source_type"`
	ResponseTime   float64  `json:"response_time"`
	FormatUsed     string   `json:"format_used"`
	ConversationID string   `json:"conversation_id"`
}

// Ask handles POST /api/chat.
func (h *ChatHandler) Ask(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	logger := contextutil.LoggerFromContext(ctx)

	var req ChatRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		logger.WarnContext(ctx, "invalid request body", "error", err)
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	resp, err := h.chatService.Ask(ctx, service.AskRequest{
		Question:       req.Question,
		Format:         req.Format,
		ConversationID: req.ConversationID,
	})
	if err != nil {
		handleServiceError(ctx, w, err, "Failed to process chat request")
		return
	}

	writeJSON(ctx, w, http.StatusOK, ChatResponse{
		Content:        resp.Answer.Content,
		Sources:        resp.Answer.Sources,
		SourceType:     string(resp.Answer.SourceType),
		ResponseTime:   resp.Answer.ResponseTime,
		FormatUsed:     resp.Answer.FormatUsed,
		ConversationID: resp.ConversationID,
	})
}

// ConversationSummary is one entry in the conversation listing.
type ConversationSummary struct {
	ID        string `json:"id"`
	Title     string `json:"title"`
	CreatedAt string `json:"created_at"`
}

// ListConversations handles GET /api/conversations.
func (h *ChatHandler) ListConversations(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	limit := 20
	if raw := r.URL.Query().Get("limit"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed <= 0 {
			writeError(w, http.StatusBadRequest, "Invalid limit")
			return
		}
		limit = parsed
	}

	convs, err := h.chatService.ListConversations(ctx, limit)
	if err != nil {
		handleServiceError(ctx, w, err, "Failed to list conversations")
		return
	}

	summaries := make([]ConversationSummary, len(convs))
	for i, conv := range convs {
		summaries[i] = ConversationSummary{
			ID:        conv.ID,
			Title:     conv.Title,
			CreatedAt: conv.CreatedAt.UTC().Format(time.RFC3339),
		}
	}
	writeJSON(ctx, w, http.StatusOK, summaries)
}

// Message is one entry in a conversation history.
type Message struct {
	Role       string `json:"role"`
	Content    string `json:"content"`
	SourceType string `json:"source_type,omitempty"`
	Sources    string `json:"sources,omitempty"`
	CreatedAt  string `json:"created_at"`
}

// History handles GET /api/conversations/{id}/messages.
func (h *ChatHandler) History(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	conversationID := chi.URLParam(r, "id")

	records, err := h.chatService.History(ctx, conversationID)
	if err != nil {
		handleServiceError(ctx, w, err, "Failed to load conversation history")
		return
	}

	msgs := make([]Message, len(records))
	for i, rec := range records {
		msgs[i] = Message{
			Role:       rec.Role,
			Content:    rec.Content,
			SourceType: rec.SourceType,
			Sources:    rec.Sources,
			CreatedAt:  rec.CreatedAt.UTC().Format(time.RFC3339),
		}
	}
	writeJSON(ctx, w, http.StatusOK, msgs)
}
