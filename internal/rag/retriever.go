package rag

import (
	"context"
	"sort"

	"ragbot/internal/contextutil"
	"ragbot/internal/vectorstore"
)

// Retriever runs expanded queries against the vector index and scores the
// results. Retrieval failures are absorbed: an unavailable index degrades to
// an empty candidate set so the pipeline can fall back, it never fails the
// request.
type Retriever struct {
	embedder   Embedder
	store      vectorstore.VectorStore
	collection string
	k          int
	threshold  float64
}

// NewRetriever creates a retriever. k is the neighbour count fetched per
// query expansion; threshold is the minimum similarity a candidate must
// exceed to be kept.
func NewRetriever(embedder Embedder, store vectorstore.VectorStore, collection string, k int, threshold float64) *Retriever {
	if k <= 0 {
		k = 4
	}
	return &Retriever{
		embedder:   embedder,
		store:      store,
		collection: collection,
		k:          k,
		threshold:  threshold,
	}
}

type candidateKey struct {
	text     string
	source   string
	distance float32
}

// Retrieve embeds each expanded query, collects k nearest neighbours per
// expansion, deduplicates across expansions by (text, source, distance),
// converts distances to similarities, and keeps candidates above the
// relevance threshold, ordered by descending similarity.
func (r *Retriever) Retrieve(ctx context.Context, queries []string) []Candidate {
	logger := contextutil.LoggerFromContext(ctx)

	seen := make(map[candidateKey]struct{})
	var candidates []Candidate

	for _, query := range queries {
		vectors, err := r.embedder.EmbedTexts(ctx, []string{query})
		if err != nil || len(vectors) == 0 {
			logger.WarnContext(ctx, "failed to embed query expansion", "query", query, "error", err)
			continue
		}

		results, err := r.store.Search(ctx, r.collection, vectors[0], r.k, nil)
		if err != nil {
			logger.WarnContext(ctx, "vector search failed, degrading to empty results", "query", query, "error", err)
			continue
		}

		for _, result := range results {
			source, _ := result.Meta["source"].(string)
			if source == "" {
				source = "unknown"
			}
			key := candidateKey{text: result.Text, source: source, distance: result.Distance}
			if _, dup := seen[key]; dup {
				continue
			}
			seen[key] = struct{}{}

			candidates = append(candidates, Candidate{
				Text:       result.Text,
				Source:     source,
				Distance:   result.Distance,
				Similarity: similarityFromDistance(result.Distance),
			})
		}
	}

	logger.DebugContext(ctx, "retrieved candidates", "expansions", len(queries), "unique", len(candidates))

	relevant := candidates[:0]
	for _, c := range candidates {
		if c.Similarity > r.threshold {
			relevant = append(relevant, c)
		}
	}

	sort.SliceStable(relevant, func(i, j int) bool {
		return relevant[i].Similarity > relevant[j].Similarity
	})

	logger.InfoContext(ctx, "retrieval completed",
		"expansions", len(queries),
		"relevant", len(relevant),
		"threshold", r.threshold,
	)
	return relevant
}

// similarityFromDistance converts a cosine distance d in [0,2] to a
// similarity score s = 1 - d/2, clamped to [0,1]. Lower distance always maps
// to strictly higher similarity, so ranking is preserved.
func similarityFromDistance(d float32) float64 {
	s := 1 - float64(d)/2
	if s < 0 {
		return 0
	}
	if s > 1 {
		return 1
	}
	return s
}
