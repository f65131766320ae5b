package main

import (
	"context"
	"log"
	"log/slog"
	nethttp "net/http"
	"os"

	"ragbot/internal/config"
	"ragbot/internal/evallog"
	"ragbot/internal/http"
	"ragbot/internal/indexer"
	"ragbot/internal/library"
	"ragbot/internal/llm"
	"ragbot/internal/rag"
	"ragbot/internal/service"
	"ragbot/internal/storage"
	"ragbot/internal/vectorstore"
	"ragbot/internal/websearch"
)

func main() {
	// Load configuration first (needed for log level)
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	// Configure structured logging with configurable level and format
	opts := &slog.HandlerOptions{
		Level: cfg.LogLevel,
	}
	var handler slog.Handler
	if cfg.LogFormat == "json" {
		handler = slog.NewJSONHandler(os.Stdout, opts)
	} else {
		handler = slog.NewTextHandler(os.Stdout, opts)
	}
	slog.SetDefault(slog.New(handler))
	slog.Debug("Logging configured", "level", cfg.LogLevel.String(), "format", cfg.LogFormat)

	// Initialize database
	db, err := storage.New(cfg.DBPath)
	if err != nil {
		log.Fatalf("Failed to open database: %v", err)
	}
	defer func() {
		_ = db.Close()
	}()

	if err := storage.Migrate(db); err != nil {
		log.Fatalf("Failed to run migrations: %v", err)
	}
	slog.Info("Database initialized", "path", cfg.DBPath)

	docRepo := storage.NewDocumentRepo(db)
	chunkRepo := storage.NewChunkRepo(db)
	conversationRepo := storage.NewConversationRepo(db)
	messageRepo := storage.NewMessageRepo(db)

	ctx := context.Background()

	// Initialize document library
	libraryManager, err := library.NewManager(cfg.DocumentsDir)
	if err != nil {
		log.Fatalf("Failed to initialize document library: %v", err)
	}
	slog.Info("Document library initialized", "dir", cfg.DocumentsDir)

	// Initialize vector store
	var vectorStore vectorstore.VectorStore
	if cfg.VectorBackend == "memory" {
		vectorStore = vectorstore.NewMemoryStore()
		slog.Info("Using in-memory vector store")
	} else {
		qdrantStore, err := vectorstore.NewQdrantStore(cfg.QdrantURL)
		if err != nil {
			log.Fatalf("Failed to create Qdrant client: %v", err)
		}
		vectorStore = qdrantStore
	}

	// Ensure collection exists with correct vector size
	if err := vectorStore.EnsureCollection(ctx, cfg.QdrantCollection, cfg.VectorSize); err != nil {
		log.Fatalf("Failed to ensure vector collection: %v", err)
	}
	slog.Info("Vector collection ready", "collection", cfg.QdrantCollection, "vector_size", cfg.VectorSize)

	// Validate embedding client vector size (fail-fast)
	embedder := llm.NewEmbeddingsClient(cfg.EmbeddingBaseURL, cfg.LLMAPIKey, cfg.EmbeddingModelName, cfg.VectorSize)
	testEmbeddings, err := embedder.EmbedTexts(ctx, []string{"test"})
	if err != nil {
		log.Fatalf("Failed to validate embedding client: %v", err)
	}
	if len(testEmbeddings) == 0 || len(testEmbeddings[0]) != cfg.VectorSize {
		log.Fatalf("Embedding vector size mismatch: expected %d, got %d", cfg.VectorSize, len(testEmbeddings[0]))
	}
	slog.Info("Embedding client validated", "vector_size", cfg.VectorSize)

	// Create indexing pipeline
	pipeline := indexer.NewPipeline(
		libraryManager,
		docRepo,
		chunkRepo,
		embedder,
		vectorStore,
		cfg.QdrantCollection,
	)

	// Create LLM client
	llmClient := llm.NewClient(cfg.LLMBaseURL, cfg.LLMAPIKey, cfg.LLMModelName)

	// Create web search client (may be disabled)
	var webSearcher rag.WebSearcher
	if cfg.WebSearchEnabled {
		webSearcher = websearch.NewClient(cfg.WebSearchBaseURL, cfg.WebSearchAPIKey, cfg.WebSearchTimeout)
		slog.Info("Web search enabled", "base_url", cfg.WebSearchBaseURL)
	} else {
		slog.Info("Web search disabled")
	}

	// Create eval recorder
	var recorder rag.EvalRecorder
	if cfg.EvalLogPath != "" {
		evalLogger, err := evallog.NewLogger(cfg.EvalLogPath)
		if err != nil {
			log.Fatalf("Failed to create eval log: %v", err)
		}
		recorder = evalLogger
		slog.Info("Eval logging enabled", "path", cfg.EvalLogPath)
	}

	// Create answer engine
	retriever := rag.NewRetriever(embedder, vectorStore, cfg.QdrantCollection, cfg.RetrievalK, cfg.RelevanceThreshold)
	engine := rag.NewEngine(
		retriever,
		rag.NewSufficiencyGate(nil),
		rag.NewSynthesizer(llmClient),
		webSearcher,
		recorder,
	)
	slog.Info("Answer engine initialized", "threshold", cfg.RelevanceThreshold, "k", cfg.RetrievalK)

	chatService := service.NewChatService(engine, conversationRepo, messageRepo)

	router := http.NewRouter(&http.Deps{
		Engine:      engine,
		ChatService: chatService,
		Library:     libraryManager,
		Pipeline:    pipeline,
		DocRepo:     docRepo,
		ChunkRepo:   chunkRepo,
		VectorStore: vectorStore,
		Collection:  cfg.QdrantCollection,
	})

	// Start indexing in background after router is ready
	go func() {
		indexCtx := context.Background()
		slog.Info("Starting background indexing of document library")
		if err := pipeline.IndexAll(indexCtx); err != nil {
			slog.Error("Indexing completed with errors", "error", err)
		} else {
			slog.Info("Indexing completed successfully")
		}
	}()

	// Start API server
	addr := ":" + cfg.APIPort
	slog.Info("Starting API server", "addr", addr)
	slog.Debug("LLM configuration", "base_url", cfg.LLMBaseURL, "model", cfg.LLMModelName)
	if err := nethttp.ListenAndServe(addr, router); err != nil {
		log.Fatalf("API server failed to start: %v", err)
	}
}
