package rag

import (
	"context"
	"fmt"
	"strings"

	"ragbot/internal/websearch"
)

// InsufficientAnswer is the canned response used when synthesis fails
// outright. It deliberately matches the sentinel vocabulary the sufficiency
// gate scans for.
const InsufficientAnswer = "I don't have enough information."

const localPromptTemplate = `Answer using ONLY the provided context. If the context is insufficient, say "I don't have enough information." Cite sources in [source] format.
Question: %s
Context:
%s
Answer:`

const webPromptTemplate = `Answer the question using the web search results below. Cite the source URL of any result you rely on.
Question: %s
Results:
%s
Answer:`

const barePromptTemplate = `Answer to the best of your knowledge. If unknown, say "I don't have enough information."
Question: %s
Answer:`

// Synthesizer produces natural-language answers from a question and whatever
// context the pipeline could assemble: local passages, web snippets, or
// nothing.
type Synthesizer struct {
	generator Generator
}

// NewSynthesizer creates a synthesizer over the given generator.
func NewSynthesizer(generator Generator) *Synthesizer {
	return &Synthesizer{generator: generator}
}

// SynthesizeLocal answers from locally retrieved passages. Each passage is
// labelled with its source so the model can cite inline.
func (s *Synthesizer) SynthesizeLocal(ctx context.Context, question string, candidates []Candidate) (string, error) {
	var block strings.Builder
	for _, c := range candidates {
		fmt.Fprintf(&block, "%s [source: %s]\n", c.Text, c.Source)
	}

	prompt := fmt.Sprintf(localPromptTemplate, question, block.String())
	answer, err := s.generator.Generate(ctx, prompt)
	if err != nil {
		return "", fmt.Errorf("local synthesis failed: %w", err)
	}
	return strings.TrimSpace(answer), nil
}

// SynthesizeWeb answers from web search snippets. Used when the search API
// returned results but no synthesized answer of its own.
func (s *Synthesizer) SynthesizeWeb(ctx context.Context, question string, results []websearch.Result) (string, error) {
	var snippets strings.Builder
	for _, r := range results {
		fmt.Fprintf(&snippets, "%s\n%s\nSource: %s\n\n", r.Title, r.Content, r.URL)
	}

	prompt := fmt.Sprintf(webPromptTemplate, question, strings.TrimSpace(snippets.String()))
	answer, err := s.generator.Generate(ctx, prompt)
	if err != nil {
		return "", fmt.Errorf("web synthesis failed: %w", err)
	}
	return strings.TrimSpace(answer), nil
}

// SynthesizeBare answers from the model's own knowledge, with the same
// insufficiency sentinel as the local template.
func (s *Synthesizer) SynthesizeBare(ctx context.Context, question string) (string, error) {
	prompt := fmt.Sprintf(barePromptTemplate, question)
	answer, err := s.generator.Generate(ctx, prompt)
	if err != nil {
		return "", fmt.Errorf("bare synthesis failed: %w", err)
	}
	return strings.TrimSpace(answer), nil
}
