package rag

import (
	"context"

	"ragbot/internal/websearch"
)

// SourceType identifies where the evidence behind an answer came from.
type SourceType string

const (
	// SourceLocal means the answer was grounded in locally indexed chunks.
	SourceLocal SourceType = "local"
	// SourceWeb means the answer came from live web search.
	SourceWeb SourceType = "web"
	// SourceHybrid means a local draft was supplemented with web evidence.
	SourceHybrid SourceType = "hybrid"
	// SourceLLM means the model answered from its own knowledge, uncited.
	SourceLLM SourceType = "llm"
	// SourceError means every synthesis path failed and a canned answer was returned.
	SourceError SourceType = "error"
)

// QueryRequest represents one question put to the pipeline.
type QueryRequest struct {
	// Question is the user's question to answer.
	Question string `json:"question"`
	// Format optionally forces a presentation format (bullets, table, summary,
	// detailed, comparison). Empty means detect from the question text.
	Format string `json:"format,omitempty"`
}

// AnswerResult is the pipeline's output contract, produced once per query.
type AnswerResult struct {
	// Content is the final answer text, formatted and with citations attached.
	Content string `json:"content"`
	// Sources are the citation labels: filenames for local evidence, URLs for web.
	Sources []string `json:"sources"`
	// SourceType reports which evidence path produced the answer.
	SourceType SourceType `json:"source_type"`
	// ResponseTime is the wall-clock pipeline latency in seconds.
	ResponseTime float64 `json:"response_time"`
	// FormatUsed is the presentation format applied to the answer.
	FormatUsed string `json:"format_used"`
}

// Candidate is a retrieved chunk scored against one query. It exists only
// within a single query resolution and is never persisted.
type Candidate struct {
	Text       string
	Source     string
	Distance   float32
	Similarity float64
}

// Embedder maps texts to fixed-length vectors.
type Embedder interface {
	EmbedTexts(ctx context.Context, texts []string) ([][]float32, error)
}

// Generator produces a single-shot completion for a prompt.
type Generator interface {
	Generate(ctx context.Context, prompt string) (string, error)
}

// WebSearcher runs a live web search. A nil response with a nil error means
// the searcher is disabled; callers treat it as "no web evidence".
type WebSearcher interface {
	Search(ctx context.Context, query string) (*websearch.Response, error)
}
