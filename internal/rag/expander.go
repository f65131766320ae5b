package rag

import "strings"

// expansion pairs a canonical phrase with the synonym queries appended when
// the phrase occurs in a question. Kept as a slice so expansion order is
// deterministic.
type expansion struct {
	phrase   string
	synonyms []string
}

var expansions = []expansion{
	{
		phrase: "ai-driven de novo drug discovery",
		synonyms: []string{
			"artificial intelligence drug design",
			"machine learning drug discovery",
			"de novo molecule design",
			"ai drug development",
		},
	},
	{
		phrase: "refund policy",
		synonyms: []string{
			"money back policy",
			"return and refund terms",
		},
	},
	{
		phrase: "machine learning",
		synonyms: []string{
			"statistical learning",
			"ml models",
		},
	},
}

// ExpandQuery maps one query into a set of semantically related query
// strings. The first element is always the lowercased input; known canonical
// phrases append their fixed synonym lists. Expansion increases recall at
// negligible cost: the index is re-queried with paraphrases and duplicates
// collapse during retrieval.
func ExpandQuery(query string) []string {
	query = strings.ToLower(strings.TrimSpace(query))
	expanded := []string{query}
	for _, exp := range expansions {
		if strings.Contains(query, exp.phrase) {
			expanded = append(expanded, exp.synonyms...)
		}
	}
	return expanded
}
