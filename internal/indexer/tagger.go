package indexer

import (
	"sort"
	"strings"
	"unicode"
)

const maxTags = 5

var tagStopwords = map[string]struct{}{
	"a": {}, "an": {}, "and": {}, "are": {}, "as": {}, "at": {}, "be": {}, "but": {}, "by": {},
	"for": {}, "from": {}, "has": {}, "have": {}, "in": {}, "is": {}, "it": {}, "of": {}, "on": {},
	"or": {}, "the": {}, "this": {}, "that": {}, "to": {}, "was": {}, "were": {}, "will": {}, "with": {},
}

// ExtractTags picks the most frequent content words of a chunk as lightweight
// topic tags. Ties break alphabetically so tagging is deterministic.
func ExtractTags(text string) []string {
	freq := make(map[string]int)
	for _, token := range tokenize(text) {
		if _, isStop := tagStopwords[token]; isStop {
			continue
		}
		if len(token) < 3 {
			continue
		}
		freq[token]++
	}
	if len(freq) == 0 {
		return nil
	}

	tags := make([]string, 0, len(freq))
	for token := range freq {
		tags = append(tags, token)
	}
	sort.Slice(tags, func(i, j int) bool {
		if freq[tags[i]] != freq[tags[j]] {
			return freq[tags[i]] > freq[tags[j]]
		}
		return tags[i] < tags[j]
	})

	if len(tags) > maxTags {
		tags = tags[:maxTags]
	}
	return tags
}

func tokenize(text string) []string {
	if text == "" {
		return nil
	}

	var builder strings.Builder
	builder.Grow(len(text))
	for _, r := range strings.ToLower(text) {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			builder.WriteRune(r)
		} else {
			builder.WriteRune(' ')
		}
	}
	return strings.Fields(builder.String())
}
