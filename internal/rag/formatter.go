package rag

import (
	"fmt"
	"strings"
)

// FormatType names a presentation format for the final answer.
type FormatType string

const (
	FormatBullets    FormatType = "bullets"
	FormatTable      FormatType = "table"
	FormatSummary    FormatType = "summary"
	FormatDetailed   FormatType = "detailed"
	FormatComparison FormatType = "comparison"
	FormatDefault    FormatType = "default"
)

// ParseFormat validates an explicit format preference. Unknown or empty
// values return false so the caller falls back to detection.
func ParseFormat(s string) (FormatType, bool) {
	switch FormatType(strings.ToLower(strings.TrimSpace(s))) {
	case FormatBullets:
		return FormatBullets, true
	case FormatTable:
		return FormatTable, true
	case FormatSummary:
		return FormatSummary, true
	case FormatDetailed:
		return FormatDetailed, true
	case FormatComparison:
		return FormatComparison, true
	case FormatDefault:
		return FormatDefault, true
	}
	return FormatDefault, false
}

// DetectFormat infers the requested presentation from keywords in the
// question text.
func DetectFormat(question string) FormatType {
	lowered := strings.ToLower(question)

	containsAny := func(words ...string) bool {
		for _, w := range words {
			if strings.Contains(lowered, w) {
				return true
			}
		}
		return false
	}

	switch {
	case containsAny("bullet", "points", "list"):
		return FormatBullets
	case containsAny("table", "columns", "rows"):
		return FormatTable
	case containsAny("summary", "summarize"):
		return FormatSummary
	case containsAny("detailed", "explain"):
		return FormatDetailed
	case containsAny("compare", "vs", "versus"):
		return FormatComparison
	}
	return FormatDefault
}

// FormatContent reshapes content into the requested presentation. Every
// formatter is pure and total: malformed input falls back to the original
// content unchanged, and the default format is the identity.
func FormatContent(content string, format FormatType) string {
	switch format {
	case FormatBullets:
		return toBullets(content)
	case FormatTable:
		return toTable(content)
	case FormatSummary:
		return toSummary(content)
	case FormatDetailed:
		return fmt.Sprintf("**Detailed Explanation**:\n%s", content)
	case FormatComparison:
		return fmt.Sprintf("**Comparison**:\n%s", content)
	}
	return content
}

// splitSentences splits content on sentence-ending periods, dropping empties.
func splitSentences(content string) []string {
	parts := strings.Split(content, ".")
	sentences := make([]string, 0, len(parts))
	for _, p := range parts {
		if s := strings.TrimSpace(p); s != "" {
			sentences = append(sentences, s)
		}
	}
	return sentences
}

// toBullets renders up to 5 sentences as a bulleted list. Single-sentence
// content passes through unchanged.
func toBullets(content string) string {
	sentences := splitSentences(content)
	if len(sentences) <= 1 {
		return content
	}
	if len(sentences) > 5 {
		sentences = sentences[:5]
	}
	lines := make([]string, len(sentences))
	for i, s := range sentences {
		lines[i] = "• " + s
	}
	return strings.Join(lines, "\n")
}

// toTable renders up to 5 lines as a two-column markdown table.
func toTable(content string) string {
	lines := strings.Split(content, "\n")
	if len(lines) > 5 {
		lines = lines[:5]
	}

	var table strings.Builder
	table.WriteString("| Aspect | Details |\n|--------|---------|\n")
	for _, line := range lines {
		fmt.Fprintf(&table, "| Point | %s |\n", strings.TrimSpace(line))
	}
	return table.String()
}

// toSummary keeps the first sentence with a label prefix. Content too short
// to summarize passes through unchanged.
func toSummary(content string) string {
	sentences := splitSentences(content)
	if len(sentences) <= 2 {
		return content
	}
	return fmt.Sprintf("**Summary**: %s...", sentences[0])
}
