package http

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"ragbot/internal/handlers"
	"ragbot/internal/indexer"
	"ragbot/internal/library"
	"ragbot/internal/rag"
	"ragbot/internal/service"
	"ragbot/internal/storage"
	"ragbot/internal/vectorstore"
)

// Deps holds dependencies for the HTTP router.
type Deps struct {
	Engine      rag.Engine
	ChatService service.ChatService
	Library     *library.Manager
	Pipeline    *indexer.Pipeline
	DocRepo     storage.DocumentStore
	ChunkRepo   storage.ChunkStore
	VectorStore vectorstore.VectorStore
	Collection  string
}

// NewRouter creates a new HTTP router with the provided dependencies.
func NewRouter(deps *Deps) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(CORS)
	r.Use(LoggerMiddleware)

	queryHandler := handlers.NewQueryHandler(deps.Engine)
	chatHandler := handlers.NewChatHandler(deps.ChatService)
	documentsHandler := handlers.NewDocumentsHandler(deps.Library, deps.Pipeline, deps.DocRepo)
	healthHandler := handlers.NewHealthHandler(deps.VectorStore, deps.DocRepo, deps.ChunkRepo, deps.Collection)

	r.Route("/api", func(r chi.Router) {
		r.Method(http.MethodPost, "/query", queryHandler)
		r.Post("/chat", chatHandler.Ask)
		r.Get("/conversations", chatHandler.ListConversations)
		r.Get("/conversations/{id}/messages", chatHandler.History)
		r.Get("/documents", documentsHandler.List)
		r.Post("/documents", documentsHandler.Upload)
		r.Post("/documents/rescan", documentsHandler.Rescan)
		r.Delete("/documents/{id}", documentsHandler.Delete)
		r.Method(http.MethodGet, "/health", healthHandler)
	})

	return r
}
