package config

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config holds all configuration for the application.
type Config struct {
	LLMBaseURL         string
	LLMModelName       string
	LLMAPIKey          string
	EmbeddingBaseURL   string
	EmbeddingModelName string
	VectorSize         int

	VectorBackend    string // "qdrant" or "memory"
	QdrantURL        string
	QdrantCollection string

	// RelevanceThreshold is the minimum similarity a retrieved candidate
	// must reach to count as usable local evidence.
	RelevanceThreshold float64
	// RetrievalK is the number of nearest neighbours fetched per query expansion.
	RetrievalK int

	WebSearchAPIKey  string
	WebSearchBaseURL string
	WebSearchEnabled bool
	WebSearchTimeout time.Duration

	DBPath       string
	DocumentsDir string
	EvalLogPath  string

	APIPort   string
	LogLevel  slog.Level
	LogFormat string
}

// Load reads configuration from environment variables and returns a Config struct.
// It applies defaults for optional fields and validates required fields.
// If a .env file exists in the current directory or project root, it will be loaded automatically.
// Environment variables already set take precedence over .env file values.
func Load() (*Config, error) {
	// Try to load .env file (ignore error if it doesn't exist)
	// Check current directory first, then walk up to find project root (where go.mod is)
	_ = godotenv.Load() // Try current directory

	wd, err := os.Getwd()
	if err == nil {
		dir := wd
		for i := 0; i < 5; i++ { // Limit search depth
			envPath := filepath.Join(dir, ".env")
			if _, err := os.Stat(envPath); err == nil {
				_ = godotenv.Load(envPath)
				break
			}
			parent := filepath.Dir(dir)
			if parent == dir {
				break // Reached filesystem root
			}
			dir = parent
		}
	}

	cfg := &Config{
		LLMBaseURL:         getEnv("LLM_BASE_URL", "http://localhost:8080"),
		LLMModelName:       getEnv("LLM_MODEL", "Llama-3.1-8B-Instruct"),
		LLMAPIKey:          getEnv("LLM_API_KEY", "dummy-key"),
		EmbeddingBaseURL:   getEnv("EMBEDDING_BASE_URL", "http://localhost:8081"),
		EmbeddingModelName: getEnv("EMBEDDING_MODEL_NAME", "all-mpnet-base-v2"),
		VectorBackend:      getEnv("VECTOR_BACKEND", "qdrant"),
		QdrantURL:          getEnv("QDRANT_URL", "http://localhost:6333"),
		QdrantCollection:   getEnv("QDRANT_COLLECTION", "documents"),
		WebSearchAPIKey:    getEnv("WEBSEARCH_API_KEY", ""),
		WebSearchBaseURL:   getEnv("WEBSEARCH_BASE_URL", "https://api.tavily.com"),
		DBPath:             getEnv("DB_PATH", "./data/ragbot.db"),
		DocumentsDir:       getEnv("DOCUMENTS_DIR", ""),
		EvalLogPath:        getEnv("EVAL_LOG_PATH", "./data/eval_log.jsonl"),
		APIPort:            getEnv("API_PORT", "9000"),
		LogFormat:          getEnv("LOG_FORMAT", "text"),
	}

	// Parse VECTOR_SIZE.
	// This must match the output vector size of the embeddings model. If the
	// embedding model changes dimensionality, the vector collection must be
	// rebuilt from scratch; a mismatch is a fatal configuration error, not
	// something to paper over at query time.
	vectorSizeStr := getEnv("VECTOR_SIZE", "")
	if vectorSizeStr == "" {
		return nil, fmt.Errorf("VECTOR_SIZE is required")
	}
	vectorSize, err := strconv.Atoi(vectorSizeStr)
	if err != nil {
		return nil, fmt.Errorf("VECTOR_SIZE must be a valid integer: %w", err)
	}
	if vectorSize <= 0 {
		return nil, fmt.Errorf("VECTOR_SIZE must be greater than 0")
	}
	cfg.VectorSize = vectorSize

	if cfg.VectorBackend != "qdrant" && cfg.VectorBackend != "memory" {
		return nil, fmt.Errorf("VECTOR_BACKEND must be \"qdrant\" or \"memory\", got %q", cfg.VectorBackend)
	}

	// Relevance threshold. The similarity scale is [0,1], so the threshold
	// must sit strictly inside it.
	thresholdStr := getEnv("RELEVANCE_THRESHOLD", "0.5")
	threshold, err := strconv.ParseFloat(thresholdStr, 64)
	if err != nil {
		return nil, fmt.Errorf("RELEVANCE_THRESHOLD must be a valid float: %w", err)
	}
	if threshold <= 0 || threshold >= 1 {
		return nil, fmt.Errorf("RELEVANCE_THRESHOLD must be in (0, 1), got %v", threshold)
	}
	cfg.RelevanceThreshold = threshold

	kStr := getEnv("RETRIEVAL_K", "4")
	k, err := strconv.Atoi(kStr)
	if err != nil || k <= 0 {
		return nil, fmt.Errorf("RETRIEVAL_K must be a positive integer, got %q", kStr)
	}
	cfg.RetrievalK = k

	// Web search is usable only when an API key is configured and the feature
	// is not explicitly switched off (offline/dev operation).
	enabledStr := strings.ToLower(getEnv("WEBSEARCH_ENABLED", "true"))
	cfg.WebSearchEnabled = cfg.WebSearchAPIKey != "" && enabledStr != "false" && enabledStr != "0"

	timeoutStr := getEnv("WEBSEARCH_TIMEOUT", "8s")
	timeout, err := time.ParseDuration(timeoutStr)
	if err != nil || timeout <= 0 {
		return nil, fmt.Errorf("WEBSEARCH_TIMEOUT must be a positive duration, got %q", timeoutStr)
	}
	cfg.WebSearchTimeout = timeout

	switch strings.ToLower(getEnv("LOG_LEVEL", "info")) {
	case "debug":
		cfg.LogLevel = slog.LevelDebug
	case "warn":
		cfg.LogLevel = slog.LevelWarn
	case "error":
		cfg.LogLevel = slog.LevelError
	default:
		cfg.LogLevel = slog.LevelInfo
	}

	// Create ./data directory if it doesn't exist (DB file and eval log)
	dataDir := filepath.Dir(cfg.DBPath)
	if err := os.MkdirAll(dataDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create data directory: %w", err)
	}

	return cfg, nil
}

// getEnv gets an environment variable or returns a default value.
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}
