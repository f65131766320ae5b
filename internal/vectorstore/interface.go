package vectorstore

//go:generate go run go.uber.org/mock/mockgen@latest -destination=mocks/mock_vector_store.go -package=mocks ragbot/internal/vectorstore VectorStore

import "context"

// Point represents a vector point with its chunk text and metadata.
type Point struct {
	ID   string
	Vec  []float32
	Text string
	Meta map[string]any
}

// SearchResult represents a search result from vector search.
// Distance is the raw cosine distance in [0, 2]; lower means closer.
type SearchResult struct {
	PointID  string
	Distance float32
	Text     string
	Meta     map[string]any
}

// VectorStore defines the interface for vector storage operations.
// Implementations must be safe for concurrent Search calls; Upsert/Delete
// may assume a single writer (ingestion is rare relative to query volume).
type VectorStore interface {
	// EnsureCollection ensures a collection exists with the given vector size.
	// An existing collection with a different size is a fatal configuration
	// error requiring a rebuild and must be reported, not repaired.
	EnsureCollection(ctx context.Context, collection string, vectorSize int) error

	// Upsert inserts or updates points in the collection.
	Upsert(ctx context.Context, collection string, points []Point) error

	// Search performs a nearest-neighbour search with optional metadata filters.
	// Results are ordered by ascending distance.
	Search(ctx context.Context, collection string, query []float32, k int, filters map[string]any) ([]SearchResult, error)

	// Delete removes points by their IDs.
	Delete(ctx context.Context, collection string, ids []string) error

	// Count returns the number of points in the collection.
	Count(ctx context.Context, collection string) (uint64, error)
}
