package rag

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"go.uber.org/mock/gomock"

	"ragbot/internal/vectorstore"
	vs_mocks "ragbot/internal/vectorstore/mocks"
)

// stubEmbedder returns a fixed vector per known text and a far-away fallback
// for everything else.
type stubEmbedder struct {
	vectors  map[string][]float32
	fallback []float32
	err      error
}

func (s *stubEmbedder) EmbedTexts(ctx context.Context, texts []string) ([][]float32, error) {
	if s.err != nil {
		return nil, s.err
	}
	out := make([][]float32, len(texts))
	for i, text := range texts {
		if vec, ok := s.vectors[text]; ok {
			out[i] = vec
		} else {
			out[i] = s.fallback
		}
	}
	return out, nil
}

func seededStore(t *testing.T, points []vectorstore.Point) *vectorstore.MemoryStore {
	t.Helper()
	store := vectorstore.NewMemoryStore()
	ctx := context.Background()
	if err := store.EnsureCollection(ctx, "test", 3); err != nil {
		t.Fatalf("EnsureCollection() error = %v", err)
	}
	if len(points) > 0 {
		if err := store.Upsert(ctx, "test", points); err != nil {
			t.Fatalf("Upsert() error = %v", err)
		}
	}
	return store
}

func TestSimilarityFromDistance(t *testing.T) {
	tests := []struct {
		distance float32
		want     float64
	}{
		{0, 1},
		{1, 0.5},
		{2, 0},
		{-0.1, 1},  // clamp above
		{2.5, 0},   // clamp below
		{0.6, 0.7},
	}

	for _, tt := range tests {
		t.Run(fmt.Sprintf("d=%v", tt.distance), func(t *testing.T) {
			got := similarityFromDistance(tt.distance)
			if diff := got - tt.want; diff > 1e-9 || diff < -1e-9 {
				t.Errorf("similarityFromDistance(%v) = %v, want %v", tt.distance, got, tt.want)
			}
		})
	}
}

func TestSimilarityMonotonicity(t *testing.T) {
	// Lower distance must always yield strictly higher similarity inside the
	// unclamped range.
	distances := []float32{0, 0.2, 0.5, 0.9, 1.3, 1.7, 2}
	for i := 1; i < len(distances); i++ {
		s1 := similarityFromDistance(distances[i-1])
		s2 := similarityFromDistance(distances[i])
		if s1 <= s2 {
			t.Errorf("similarity not monotonic: d=%v -> %v, d=%v -> %v", distances[i-1], s1, distances[i], s2)
		}
	}
}

func TestRetriever_ExactMatchClearsThreshold(t *testing.T) {
	chunk := "Our refund policy allows returns within 30 days."
	store := seededStore(t, []vectorstore.Point{
		{ID: "c1", Vec: []float32{1, 0, 0}, Text: chunk, Meta: map[string]any{"source": "policy.txt"}},
	})
	embedder := &stubEmbedder{
		vectors:  map[string][]float32{chunk: {1, 0, 0}},
		fallback: []float32{0, 0, 1},
	}

	retriever := NewRetriever(embedder, store, "test", 4, 0.5)
	candidates := retriever.Retrieve(context.Background(), []string{chunk})

	if len(candidates) != 1 {
		t.Fatalf("Retrieve() returned %d candidates, want 1", len(candidates))
	}
	if candidates[0].Similarity < 0.5 {
		t.Errorf("verbatim chunk similarity = %v, want >= threshold", candidates[0].Similarity)
	}
	if candidates[0].Source != "policy.txt" {
		t.Errorf("source = %q, want policy.txt", candidates[0].Source)
	}
}

func TestRetriever_DeduplicatesAcrossExpansions(t *testing.T) {
	store := seededStore(t, []vectorstore.Point{
		{ID: "c1", Vec: []float32{1, 0, 0}, Text: "shared chunk", Meta: map[string]any{"source": "a.txt"}},
	})
	embedder := &stubEmbedder{
		vectors: map[string][]float32{
			"query one": {1, 0, 0},
			"query two": {1, 0, 0},
		},
		fallback: []float32{0, 0, 1},
	}

	retriever := NewRetriever(embedder, store, "test", 4, 0.5)
	candidates := retriever.Retrieve(context.Background(), []string{"query one", "query two"})

	if len(candidates) != 1 {
		t.Errorf("Retrieve() returned %d candidates, want 1 after dedup", len(candidates))
	}
}

func TestRetriever_FiltersBelowThreshold(t *testing.T) {
	store := seededStore(t, []vectorstore.Point{
		{ID: "near", Vec: []float32{1, 0, 0}, Text: "near chunk", Meta: map[string]any{"source": "near.txt"}},
		{ID: "far", Vec: []float32{-1, 0, 0}, Text: "far chunk", Meta: map[string]any{"source": "far.txt"}},
	})
	embedder := &stubEmbedder{
		vectors:  map[string][]float32{"q": {1, 0, 0}},
		fallback: []float32{0, 0, 1},
	}

	retriever := NewRetriever(embedder, store, "test", 4, 0.5)
	candidates := retriever.Retrieve(context.Background(), []string{"q"})

	if len(candidates) != 1 {
		t.Fatalf("Retrieve() returned %d candidates, want 1", len(candidates))
	}
	if candidates[0].Source != "near.txt" {
		t.Errorf("kept candidate = %q, want near.txt", candidates[0].Source)
	}
}

func TestRetriever_OrdersBySimilarityDescending(t *testing.T) {
	store := seededStore(t, []vectorstore.Point{
		{ID: "a", Vec: []float32{1, 0, 0}, Text: "best", Meta: map[string]any{"source": "a.txt"}},
		{ID: "b", Vec: []float32{0.8, 0.6, 0}, Text: "good", Meta: map[string]any{"source": "b.txt"}},
	})
	embedder := &stubEmbedder{
		vectors:  map[string][]float32{"q": {1, 0, 0}},
		fallback: []float32{0, 0, 1},
	}

	retriever := NewRetriever(embedder, store, "test", 4, 0.5)
	candidates := retriever.Retrieve(context.Background(), []string{"q"})

	if len(candidates) != 2 {
		t.Fatalf("Retrieve() returned %d candidates, want 2", len(candidates))
	}
	if candidates[0].Similarity < candidates[1].Similarity {
		t.Errorf("candidates not ordered by descending similarity: %v < %v",
			candidates[0].Similarity, candidates[1].Similarity)
	}
}

func TestRetriever_IndexFailureDegradesToEmpty(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	mockStore := vs_mocks.NewMockVectorStore(ctrl)
	mockStore.EXPECT().
		Search(gomock.Any(), "test", gomock.Any(), 4, gomock.Nil()).
		Return(nil, errors.New("index unavailable"))

	embedder := &stubEmbedder{fallback: []float32{1, 0, 0}}
	retriever := NewRetriever(embedder, mockStore, "test", 4, 0.5)

	candidates := retriever.Retrieve(context.Background(), []string{"q"})
	if len(candidates) != 0 {
		t.Errorf("Retrieve() with failing index = %v, want empty", candidates)
	}
}

func TestRetriever_EmbedFailureDegradesToEmpty(t *testing.T) {
	store := seededStore(t, nil)
	embedder := &stubEmbedder{err: errors.New("embedder down")}
	retriever := NewRetriever(embedder, store, "test", 4, 0.5)

	candidates := retriever.Retrieve(context.Background(), []string{"q"})
	if len(candidates) != 0 {
		t.Errorf("Retrieve() with failing embedder = %v, want empty", candidates)
	}
}
