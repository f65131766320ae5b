package rag

import "strings"

// DefaultInsufficiencyPhrases are the markers the gate scans for in a
// generated answer. The local and bare prompt templates instruct the model to
// emit "I don't have enough information." when the context cannot answer the
// question, so the two vocabularies must stay in sync.
var DefaultInsufficiencyPhrases = []string{
	"i don't have enough information",
	"don't have enough information",
	"doesn't contain",
	"does not contain",
	"not enough information",
	"insufficient information",
	"cannot determine",
	"can't determine",
	"unclear",
	"no information",
	"not found",
}

// SufficiencyGate decides whether local evidence justifies a local-only
// answer. Two checks combine: a cheap candidate gate (did anything clear the
// relevance threshold) and an answer gate (did the model itself signal that
// the context was inadequate). The answer gate runs after the first-pass
// local synthesis, so a confidently-wrong "local" answer is caught when the
// model hedges.
type SufficiencyGate struct {
	phrases []string
}

// NewSufficiencyGate creates a gate with the given insufficiency phrase list.
// A nil or empty list falls back to DefaultInsufficiencyPhrases.
func NewSufficiencyGate(phrases []string) *SufficiencyGate {
	if len(phrases) == 0 {
		phrases = DefaultInsufficiencyPhrases
	}
	lowered := make([]string, len(phrases))
	for i, p := range phrases {
		lowered[i] = strings.ToLower(p)
	}
	return &SufficiencyGate{phrases: lowered}
}

// CandidatesSufficient reports whether at least one candidate cleared the
// relevance threshold. Retrieve already filters, so this is a presence check.
func (g *SufficiencyGate) CandidatesSufficient(candidates []Candidate) bool {
	return len(candidates) > 0
}

// AnswerSufficient reports whether a generated answer is free of
// insufficient-knowledge markers.
func (g *SufficiencyGate) AnswerSufficient(answer string) bool {
	lowered := strings.ToLower(answer)
	for _, phrase := range g.phrases {
		if strings.Contains(lowered, phrase) {
			return false
		}
	}
	return true
}
