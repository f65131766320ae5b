package rag

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"ragbot/internal/contextutil"
	"ragbot/internal/websearch"
)

// maxWebCitations caps how many result URLs are carried as citations for
// web and hybrid answers.
const maxWebCitations = 2

// EvalRecorder appends one per-query record for offline quality review.
type EvalRecorder interface {
	Record(ctx context.Context, question, answer, source string, responseTime float64, citations []string) error
}

// Engine resolves queries end to end: expansion, retrieval, the sufficiency
// gate, local/web/bare synthesis, formatting, and citation assembly.
type Engine interface {
	// Answer resolves one question. It never fails: every internal error
	// degrades to a best-effort answer with an honest SourceType marker.
	Answer(ctx context.Context, req QueryRequest) AnswerResult
}

type engine struct {
	retriever   *Retriever
	gate        *SufficiencyGate
	synthesizer *Synthesizer
	web         WebSearcher // nil when web search is disabled
	recorder    EvalRecorder
	logger      *slog.Logger
}

// NewEngine creates the query resolution engine. web and recorder may be nil
// (web search disabled, eval logging off).
func NewEngine(retriever *Retriever, gate *SufficiencyGate, synthesizer *Synthesizer, web WebSearcher, recorder EvalRecorder) Engine {
	return &engine{
		retriever:   retriever,
		gate:        gate,
		synthesizer: synthesizer,
		web:         web,
		recorder:    recorder,
		logger:      slog.Default(),
	}
}

// Answer runs the pipeline for one question.
func (e *engine) Answer(ctx context.Context, req QueryRequest) AnswerResult {
	logger := contextutil.LoggerFromContext(ctx)
	start := time.Now()

	format, explicit := ParseFormat(req.Format)
	if !explicit {
		format = DetectFormat(req.Question)
	}

	queries := ExpandQuery(req.Question)
	candidates := e.retriever.Retrieve(ctx, queries)

	var (
		answer     string
		sources    []string
		sourceType SourceType
	)

	if e.gate.CandidatesSufficient(candidates) {
		answer, sources, sourceType = e.answerFromLocal(ctx, req.Question, candidates)
	} else {
		answer, sources, sourceType = e.answerFromFallback(ctx, req.Question)
	}

	// Citations are empty exactly when no evidence backs the answer.
	if sourceType == SourceLLM || sourceType == SourceError {
		sources = nil
	}

	formatted := FormatContent(answer, format)
	final := AttachCitations(formatted, sourceType, sources)
	elapsed := time.Since(start).Seconds()

	logger.InfoContext(ctx, "query resolved",
		"source_type", string(sourceType),
		"format", string(format),
		"candidates", len(candidates),
		"response_time", elapsed,
	)

	if e.recorder != nil {
		if err := e.recorder.Record(ctx, req.Question, final, string(sourceType), elapsed, sources); err != nil {
			logger.WarnContext(ctx, "failed to record eval entry", "error", err)
		}
	}

	if sources == nil {
		sources = []string{}
	}
	return AnswerResult{
		Content:      final,
		Sources:      sources,
		SourceType:   sourceType,
		ResponseTime: elapsed,
		FormatUsed:   string(format),
	}
}

// answerFromLocal synthesizes from local candidates, then re-checks the
// draft: if the model signals the context was inadequate, web search gets a
// chance to supplement before the draft is accepted as-is.
func (e *engine) answerFromLocal(ctx context.Context, question string, candidates []Candidate) (string, []string, SourceType) {
	logger := contextutil.LoggerFromContext(ctx)

	draft, err := e.synthesizer.SynthesizeLocal(ctx, question, candidates)
	if err != nil {
		logger.ErrorContext(ctx, "local synthesis failed", "error", err)
		return InsufficientAnswer, nil, SourceError
	}

	if e.gate.AnswerSufficient(draft) {
		return draft, uniqueSources(candidates), SourceLocal
	}

	logger.InfoContext(ctx, "local draft judged insufficient, trying web fallback")
	web := e.searchWeb(ctx, question)
	if web != nil && web.Answer != "" {
		merged := fmt.Sprintf("📚 %s\n\n🌐 %s", draft, web.Answer)
		return merged, resultURLs(web.Results, maxWebCitations), SourceHybrid
	}

	// Web gave nothing; the honest sentinel draft stands, still local.
	return draft, uniqueSources(candidates), SourceLocal
}

// answerFromFallback handles the no-local-evidence path: web search first,
// then the model's own knowledge.
func (e *engine) answerFromFallback(ctx context.Context, question string) (string, []string, SourceType) {
	logger := contextutil.LoggerFromContext(ctx)

	web := e.searchWeb(ctx, question)
	if web != nil && web.Answer != "" {
		return web.Answer, resultURLs(web.Results, maxWebCitations), SourceWeb
	}
	if web != nil && len(web.Results) > 0 {
		answer, err := e.synthesizer.SynthesizeWeb(ctx, question, web.Results)
		if err == nil {
			return answer, resultURLs(web.Results, maxWebCitations), SourceWeb
		}
		logger.WarnContext(ctx, "web synthesis failed, falling through", "error", err)
	}

	answer, err := e.synthesizer.SynthesizeBare(ctx, question)
	if err != nil {
		logger.ErrorContext(ctx, "bare synthesis failed", "error", err)
		return InsufficientAnswer, nil, SourceError
	}
	return answer, nil, SourceLLM
}

// searchWeb wraps the web searcher: disabled or failed searches collapse to
// nil, which callers treat as "no web evidence".
func (e *engine) searchWeb(ctx context.Context, question string) *websearch.Response {
	if e.web == nil {
		return nil
	}
	logger := contextutil.LoggerFromContext(ctx)

	resp, err := e.web.Search(ctx, question)
	if err != nil {
		logger.WarnContext(ctx, "web search failed", "error", err)
		return nil
	}
	return resp
}

// uniqueSources collects distinct source labels in retrieval order.
func uniqueSources(candidates []Candidate) []string {
	seen := make(map[string]struct{}, len(candidates))
	var sources []string
	for _, c := range candidates {
		if _, dup := seen[c.Source]; dup {
			continue
		}
		seen[c.Source] = struct{}{}
		sources = append(sources, c.Source)
	}
	return sources
}

// resultURLs collects up to limit result URLs.
func resultURLs(results []websearch.Result, limit int) []string {
	var urls []string
	for _, r := range results {
		if r.URL == "" {
			continue
		}
		urls = append(urls, r.URL)
		if len(urls) == limit {
			break
		}
	}
	return urls
}
