package handlers

import (
	"encoding/json"
	"net/http"

	"ragbot/internal/contextutil"
	"ragbot/internal/rag"
)

// QueryHandler handles stateless question answering, without conversation
// persistence.
type QueryHandler struct {
	engine rag.Engine
}

// NewQueryHandler creates a new QueryHandler.
func NewQueryHandler(engine rag.Engine) *QueryHandler {
	return &QueryHandler{engine: engine}
}

// QueryRequest represents the HTTP request payload for a query.
type QueryRequest struct {
	Question string `json:"question"`
	Format   string `json:"format,omitempty"`
}

// ServeHTTP handles HTTP requests for queries.
func (h *QueryHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	logger := contextutil.LoggerFromContext(ctx)

	var req QueryRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		logger.WarnContext(ctx, "invalid request body", "error", err)
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if req.Question == "" {
		writeError(w, http.StatusBadRequest, "Question cannot be empty")
		return
	}

	result := h.engine.Answer(ctx, rag.QueryRequest{
		Question: req.Question,
		Format:   req.Format,
	})

	writeJSON(ctx, w, http.StatusOK, result)
}
