package rag

import (
	"context"
	"errors"
	"strings"
	"testing"

	"ragbot/internal/vectorstore"
	"ragbot/internal/websearch"
)

type fakeGenerator struct {
	responses []string
	err       error
	prompts   []string
}

func (f *fakeGenerator) Generate(ctx context.Context, prompt string) (string, error) {
	f.prompts = append(f.prompts, prompt)
	if f.err != nil {
		return "", f.err
	}
	if len(f.responses) == 0 {
		return "", errors.New("no scripted response left")
	}
	resp := f.responses[0]
	f.responses = f.responses[1:]
	return resp, nil
}

type fakeWebSearcher struct {
	resp  *websearch.Response
	err   error
	calls int
}

func (f *fakeWebSearcher) Search(ctx context.Context, query string) (*websearch.Response, error) {
	f.calls++
	return f.resp, f.err
}

type fakeRecorder struct {
	questions []string
	sources   []string
}

func (f *fakeRecorder) Record(ctx context.Context, question, answer, source string, responseTime float64, citations []string) error {
	f.questions = append(f.questions, question)
	f.sources = append(f.sources, source)
	return nil
}

// policyEngine builds an engine whose index holds one refund-policy chunk
// reachable only by the literal question text.
func policyEngine(t *testing.T, gen *fakeGenerator, web WebSearcher, rec EvalRecorder) Engine {
	t.Helper()
	store := seededStore(t, []vectorstore.Point{
		{
			ID:   "c1",
			Vec:  []float32{1, 0, 0},
			Text: "Refunds are issued within 30 days of purchase.",
			Meta: map[string]any{"source": "policy.txt"},
		},
	})
	embedder := &stubEmbedder{
		vectors:  map[string][]float32{"what is the refund policy": {1, 0, 0}},
		fallback: []float32{0, 0, 1},
	}
	retriever := NewRetriever(embedder, store, "test", 4, 0.5)
	return NewEngine(retriever, NewSufficiencyGate(nil), NewSynthesizer(gen), web, rec)
}

// emptyEngine builds an engine over an empty index.
func emptyEngine(t *testing.T, gen *fakeGenerator, web WebSearcher, rec EvalRecorder) Engine {
	t.Helper()
	store := seededStore(t, nil)
	embedder := &stubEmbedder{fallback: []float32{0, 0, 1}}
	retriever := NewRetriever(embedder, store, "test", 4, 0.5)
	return NewEngine(retriever, NewSufficiencyGate(nil), NewSynthesizer(gen), web, rec)
}

func TestEngine_LocalAnswer(t *testing.T) {
	gen := &fakeGenerator{responses: []string{"Refunds are issued within 30 days [policy.txt]."}}
	rec := &fakeRecorder{}
	eng := policyEngine(t, gen, nil, rec)

	result := eng.Answer(context.Background(), QueryRequest{Question: "What is the refund policy"})

	if result.SourceType != SourceLocal {
		t.Errorf("SourceType = %q, want %q", result.SourceType, SourceLocal)
	}
	if !strings.Contains(result.Content, "[policy.txt]") {
		t.Errorf("Content missing inline citation: %q", result.Content)
	}
	if !strings.Contains(result.Content, "📄 From: [policy.txt]") {
		t.Errorf("Content missing citation suffix: %q", result.Content)
	}
	if len(result.Sources) != 1 || result.Sources[0] != "policy.txt" {
		t.Errorf("Sources = %v, want [policy.txt]", result.Sources)
	}
	if result.ResponseTime < 0 {
		t.Errorf("ResponseTime = %v, want >= 0", result.ResponseTime)
	}
	if len(rec.sources) != 1 || rec.sources[0] != "local" {
		t.Errorf("recorder sources = %v, want [local]", rec.sources)
	}
}

func TestEngine_WebFallback(t *testing.T) {
	gen := &fakeGenerator{}
	web := &fakeWebSearcher{resp: &websearch.Response{
		Answer:  "The capital of Mars is nowhere.",
		Results: []websearch.Result{{URL: "http://e.com"}, {URL: "http://f.com"}, {URL: "http://g.com"}},
	}}
	eng := emptyEngine(t, gen, web, nil)

	result := eng.Answer(context.Background(), QueryRequest{Question: "What is the capital of Mars"})

	if result.SourceType != SourceWeb {
		t.Errorf("SourceType = %q, want %q", result.SourceType, SourceWeb)
	}
	if !strings.Contains(result.Content, "The capital of Mars is nowhere.") {
		t.Errorf("Content missing web answer: %q", result.Content)
	}
	if !strings.Contains(result.Content, "🔗 According to: http://e.com") {
		t.Errorf("Content missing web citation: %q", result.Content)
	}
	// Web citations are capped at two URLs.
	if len(result.Sources) != 2 {
		t.Errorf("Sources = %v, want 2 urls", result.Sources)
	}
	if len(gen.prompts) != 0 {
		t.Errorf("generator called %d times on the direct-answer path, want 0", len(gen.prompts))
	}
}

func TestEngine_WebResultSynthesis(t *testing.T) {
	gen := &fakeGenerator{responses: []string{"Synthesized from snippets."}}
	web := &fakeWebSearcher{resp: &websearch.Response{
		Results: []websearch.Result{{Title: "T", Content: "snippet", URL: "http://e.com"}},
	}}
	eng := emptyEngine(t, gen, web, nil)

	result := eng.Answer(context.Background(), QueryRequest{Question: "Anything"})

	if result.SourceType != SourceWeb {
		t.Errorf("SourceType = %q, want %q", result.SourceType, SourceWeb)
	}
	if !strings.Contains(result.Content, "Synthesized from snippets.") {
		t.Errorf("Content = %q", result.Content)
	}
	if len(gen.prompts) != 1 || !strings.Contains(gen.prompts[0], "http://e.com") {
		t.Errorf("expected one synthesis prompt carrying the result URL, got %v", gen.prompts)
	}
}

func TestEngine_HybridAnswer(t *testing.T) {
	gen := &fakeGenerator{responses: []string{"I don't have enough information about recent changes."}}
	web := &fakeWebSearcher{resp: &websearch.Response{
		Answer:  "The policy changed in June.",
		Results: []websearch.Result{{URL: "http://news.com"}},
	}}
	eng := policyEngine(t, gen, web, nil)

	result := eng.Answer(context.Background(), QueryRequest{Question: "What is the refund policy"})

	if result.SourceType != SourceHybrid {
		t.Errorf("SourceType = %q, want %q", result.SourceType, SourceHybrid)
	}
	if !strings.Contains(result.Content, "📚") || !strings.Contains(result.Content, "🌐") {
		t.Errorf("hybrid answer missing section markers: %q", result.Content)
	}
	if !strings.Contains(result.Content, "The policy changed in June.") {
		t.Errorf("hybrid answer missing web supplement: %q", result.Content)
	}
	if len(result.Sources) != 1 || result.Sources[0] != "http://news.com" {
		t.Errorf("Sources = %v, want [http://news.com]", result.Sources)
	}
}

func TestEngine_InsufficientDraftWebUnavailable(t *testing.T) {
	gen := &fakeGenerator{responses: []string{"I don't have enough information."}}
	web := &fakeWebSearcher{err: errors.New("search down")}
	eng := policyEngine(t, gen, web, nil)

	result := eng.Answer(context.Background(), QueryRequest{Question: "What is the refund policy"})

	// The honest sentinel draft stands when web search cannot supplement it.
	if result.SourceType != SourceLocal {
		t.Errorf("SourceType = %q, want %q", result.SourceType, SourceLocal)
	}
	if !strings.Contains(result.Content, "I don't have enough information.") {
		t.Errorf("Content = %q", result.Content)
	}
	if web.calls != 1 {
		t.Errorf("web search called %d times, want 1", web.calls)
	}
}

func TestEngine_BareFallback(t *testing.T) {
	gen := &fakeGenerator{responses: []string{"From general knowledge: probably yes."}}
	eng := emptyEngine(t, gen, nil, nil)

	result := eng.Answer(context.Background(), QueryRequest{Question: "Anything"})

	if result.SourceType != SourceLLM {
		t.Errorf("SourceType = %q, want %q", result.SourceType, SourceLLM)
	}
	if result.Sources == nil || len(result.Sources) != 0 {
		t.Errorf("Sources = %v, want empty non-nil slice", result.Sources)
	}
	if strings.Contains(result.Content, "🔗") || strings.Contains(result.Content, "📄") {
		t.Errorf("uncited answer must not carry a citation suffix: %q", result.Content)
	}
}

func TestEngine_EverySynthesisPathFails(t *testing.T) {
	gen := &fakeGenerator{err: errors.New("model down")}
	rec := &fakeRecorder{}
	eng := emptyEngine(t, gen, nil, rec)

	result := eng.Answer(context.Background(), QueryRequest{Question: "Anything"})

	if result.SourceType != SourceError {
		t.Errorf("SourceType = %q, want %q", result.SourceType, SourceError)
	}
	if result.Content != InsufficientAnswer {
		t.Errorf("Content = %q, want canned answer", result.Content)
	}
	if len(result.Sources) != 0 {
		t.Errorf("Sources = %v, want empty", result.Sources)
	}
	if len(rec.sources) != 1 || rec.sources[0] != "error" {
		t.Errorf("recorder sources = %v, want [error]", rec.sources)
	}
}

func TestEngine_ExplicitBulletFormat(t *testing.T) {
	gen := &fakeGenerator{responses: []string{"First point. Second point. Third point."}}
	eng := policyEngine(t, gen, nil, nil)

	result := eng.Answer(context.Background(), QueryRequest{
		Question: "What is the refund policy",
		Format:   "bullets",
	})

	if result.FormatUsed != "bullets" {
		t.Errorf("FormatUsed = %q, want bullets", result.FormatUsed)
	}
	if n := strings.Count(result.Content, "• "); n != 3 {
		t.Errorf("got %d bullets, want 3: %q", n, result.Content)
	}
}

func TestEngine_DetectedFormat(t *testing.T) {
	gen := &fakeGenerator{responses: []string{"Alpha. Beta."}}
	eng := policyEngine(t, gen, nil, nil)

	result := eng.Answer(context.Background(), QueryRequest{
		Question: "What is the refund policy as a table",
	})

	if result.FormatUsed != "table" {
		t.Errorf("FormatUsed = %q, want table", result.FormatUsed)
	}
	if !strings.Contains(result.Content, "| Aspect | Details |") {
		t.Errorf("Content missing table header: %q", result.Content)
	}
}
