// Package evallog appends per-query evaluation records to a JSONL file so
// answer quality can be reviewed offline.
package evallog

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"
)

// Record is one evaluation entry, one JSON object per line.
type Record struct {
	Timestamp    string   `json:"timestamp"`
	Question     string   `json:"question"`
	Answer       string   `json:"answer"`
	Source       string   `json:"source"`
	ResponseTime float64  `json:"response_time"`
	Citations    []string `json:"citations"`
}

// Logger appends records to a single file. Safe for concurrent use.
type Logger struct {
	mu   sync.Mutex
	path string
}

// NewLogger creates a logger writing to path, creating parent directories as
// needed.
func NewLogger(path string) (*Logger, error) {
	if dir := filepath.Dir(path); dir != "." && dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("failed to create eval log directory: %w", err)
		}
	}
	return &Logger{path: path}, nil
}

// Record appends one entry. The file is opened per call so log rotation
// never requires a restart.
func (l *Logger) Record(ctx context.Context, question, answer, source string, responseTime float64, citations []string) error {
	if citations == nil {
		citations = []string{}
	}
	entry := Record{
		Timestamp:    time.Now().UTC().Format(time.RFC3339),
		Question:     question,
		Answer:       answer,
		Source:       source,
		ResponseTime: responseTime,
		Citations:    citations,
	}

	line, err := json.Marshal(entry)
	if err != nil {
		return fmt.Errorf("failed to marshal eval record: %w", err)
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	f, err := os.OpenFile(l.path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return fmt.Errorf("failed to open eval log: %w", err)
	}
	defer func() {
		_ = f.Close()
	}()

	if _, err := f.Write(append(line, '\n')); err != nil {
		return fmt.Errorf("failed to write eval record: %w", err)
	}
	return nil
}
