package config

import (
	"os"
	"testing"
	"time"
)

// setEnv sets an environment variable, ignoring errors (for test setup)
func setEnv(key, value string) {
	_ = os.Setenv(key, value)
}

// unsetEnv unsets an environment variable, ignoring errors (for test cleanup)
func unsetEnv(key string) {
	_ = os.Unsetenv(key)
}

func TestLoad(t *testing.T) {
	// Save original env vars
	originalEnv := make(map[string]string)
	envVars := []string{
		"VECTOR_SIZE", "VECTOR_BACKEND", "RELEVANCE_THRESHOLD", "RETRIEVAL_K",
		"LLM_BASE_URL", "LLM_API_KEY", "LLM_MODEL",
		"EMBEDDING_BASE_URL", "EMBEDDING_MODEL_NAME",
		"WEBSEARCH_API_KEY", "WEBSEARCH_ENABLED", "WEBSEARCH_TIMEOUT",
		"DB_PATH", "QDRANT_URL", "QDRANT_COLLECTION", "API_PORT", "DOCUMENTS_DIR",
	}
	for _, key := range envVars {
		originalEnv[key] = os.Getenv(key)
		unsetEnv(key)
	}
	defer func() {
		for key, value := range originalEnv {
			if value != "" {
				setEnv(key, value)
			} else {
				unsetEnv(key)
			}
		}
	}()

	tests := []struct {
		name        string
		setupEnv    func(*testing.T)
		wantErr     bool
		checkConfig func(*Config) bool
	}{
		{
			name: "valid config with required fields",
			setupEnv: func(t *testing.T) {
				setEnv("VECTOR_SIZE", "768")
				setEnv("DB_PATH", t.TempDir()+"/ragbot.db")
			},
			wantErr: false,
			checkConfig: func(cfg *Config) bool {
				return cfg.VectorSize == 768 &&
					cfg.RelevanceThreshold == 0.5 &&
					cfg.RetrievalK == 4 &&
					cfg.WebSearchTimeout == 8*time.Second
			},
		},
		{
			name:     "missing VECTOR_SIZE",
			setupEnv: func(t *testing.T) {},
			wantErr:  true,
		},
		{
			name: "invalid VECTOR_SIZE",
			setupEnv: func(t *testing.T) {
				setEnv("VECTOR_SIZE", "not-a-number")
			},
			wantErr: true,
		},
		{
			name: "zero VECTOR_SIZE",
			setupEnv: func(t *testing.T) {
				setEnv("VECTOR_SIZE", "0")
			},
			wantErr: true,
		},
		{
			name: "threshold out of range",
			setupEnv: func(t *testing.T) {
				setEnv("VECTOR_SIZE", "768")
				setEnv("RELEVANCE_THRESHOLD", "1.5")
			},
			wantErr: true,
		},
		{
			name: "unknown vector backend",
			setupEnv: func(t *testing.T) {
				setEnv("VECTOR_SIZE", "768")
				setEnv("VECTOR_BACKEND", "pinecone")
			},
			wantErr: true,
		},
		{
			name: "web search disabled without key",
			setupEnv: func(t *testing.T) {
				setEnv("VECTOR_SIZE", "768")
				setEnv("DB_PATH", t.TempDir()+"/ragbot.db")
			},
			wantErr: false,
			checkConfig: func(cfg *Config) bool {
				return !cfg.WebSearchEnabled
			},
		},
		{
			name: "web search explicitly off despite key",
			setupEnv: func(t *testing.T) {
				setEnv("VECTOR_SIZE", "768")
				setEnv("DB_PATH", t.TempDir()+"/ragbot.db")
				setEnv("WEBSEARCH_API_KEY", "tvly-test")
				setEnv("WEBSEARCH_ENABLED", "false")
			},
			wantErr: false,
			checkConfig: func(cfg *Config) bool {
				return !cfg.WebSearchEnabled
			},
		},
		{
			name: "web search enabled with key",
			setupEnv: func(t *testing.T) {
				setEnv("VECTOR_SIZE", "768")
				setEnv("DB_PATH", t.TempDir()+"/ragbot.db")
				setEnv("WEBSEARCH_API_KEY", "tvly-test")
			},
			wantErr: false,
			checkConfig: func(cfg *Config) bool {
				return cfg.WebSearchEnabled
			},
		},
		{
			name: "custom threshold and k",
			setupEnv: func(t *testing.T) {
				setEnv("VECTOR_SIZE", "768")
				setEnv("DB_PATH", t.TempDir()+"/ragbot.db")
				setEnv("RELEVANCE_THRESHOLD", "0.7")
				setEnv("RETRIEVAL_K", "8")
			},
			wantErr: false,
			checkConfig: func(cfg *Config) bool {
				return cfg.RelevanceThreshold == 0.7 && cfg.RetrievalK == 8
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			for _, key := range envVars {
				unsetEnv(key)
			}
			tt.setupEnv(t)

			cfg, err := Load()
			if (err != nil) != tt.wantErr {
				t.Fatalf("Load() error = %v, wantErr %v", err, tt.wantErr)
			}
			if err != nil {
				return
			}
			if tt.checkConfig != nil && !tt.checkConfig(cfg) {
				t.Errorf("Load() config check failed: %+v", cfg)
			}
		})
	}
}
