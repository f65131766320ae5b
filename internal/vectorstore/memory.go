package vectorstore

import (
	"context"
	"fmt"
	"math"
	"sort"
	"sync"
)

// MemoryStore implements VectorStore with a brute-force cosine scan held in
// process memory. It backs offline/dev operation (VECTOR_BACKEND=memory) and
// tests. Reads take a shared lock so concurrent queries never serialize on
// ingestion, which holds the write lock.
type MemoryStore struct {
	mu          sync.RWMutex
	collections map[string]*memoryCollection
}

type memoryCollection struct {
	vectorSize int
	points     []Point
}

// NewMemoryStore creates a new in-memory vector store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		collections: make(map[string]*memoryCollection),
	}
}

// EnsureCollection creates the collection if missing and validates the vector
// size if it already exists.
func (s *MemoryStore) EnsureCollection(ctx context.Context, collection string, vectorSize int) error {
	if vectorSize <= 0 {
		return fmt.Errorf("invalid vector size %d", vectorSize)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	existing, ok := s.collections[collection]
	if !ok {
		s.collections[collection] = &memoryCollection{vectorSize: vectorSize}
		return nil
	}
	if existing.vectorSize != vectorSize {
		return fmt.Errorf("collection vector size mismatch: expected %d, got %d (embedding model changed; rebuild the collection)", vectorSize, existing.vectorSize)
	}
	return nil
}

// Upsert inserts or replaces points by ID.
func (s *MemoryStore) Upsert(ctx context.Context, collection string, points []Point) error {
	if len(points) == 0 {
		return nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	coll, ok := s.collections[collection]
	if !ok {
		return fmt.Errorf("collection %q does not exist", collection)
	}

	for _, p := range points {
		if len(p.Vec) != coll.vectorSize {
			return fmt.Errorf("vector dimension mismatch: expected %d, got %d", coll.vectorSize, len(p.Vec))
		}
	}

	for _, p := range points {
		replaced := false
		for i := range coll.points {
			if coll.points[i].ID == p.ID {
				coll.points[i] = p
				replaced = true
				break
			}
		}
		if !replaced {
			coll.points = append(coll.points, p)
		}
	}
	return nil
}

// Search scans all points, computing cosine distance to the query vector, and
// returns the k nearest matching the filters, ordered by ascending distance.
func (s *MemoryStore) Search(ctx context.Context, collection string, query []float32, k int, filters map[string]any) ([]SearchResult, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	coll, ok := s.collections[collection]
	if !ok {
		return nil, fmt.Errorf("collection %q does not exist", collection)
	}
	if len(query) != coll.vectorSize {
		return nil, fmt.Errorf("query dimension mismatch: expected %d, got %d", coll.vectorSize, len(query))
	}
	if k <= 0 {
		k = 5
	}

	results := make([]SearchResult, 0, len(coll.points))
	for _, p := range coll.points {
		if !matchesFilters(p.Meta, filters) {
			continue
		}
		meta := make(map[string]any, len(p.Meta))
		for key, v := range p.Meta {
			meta[key] = v
		}
		results = append(results, SearchResult{
			PointID:  p.ID,
			Distance: cosineDistance(query, p.Vec),
			Text:     p.Text,
			Meta:     meta,
		})
	}

	sort.Slice(results, func(i, j int) bool {
		return results[i].Distance < results[j].Distance
	})
	if len(results) > k {
		results = results[:k]
	}
	return results, nil
}

// Delete removes points by their IDs.
func (s *MemoryStore) Delete(ctx context.Context, collection string, ids []string) error {
	if len(ids) == 0 {
		return nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	coll, ok := s.collections[collection]
	if !ok {
		return fmt.Errorf("collection %q does not exist", collection)
	}

	drop := make(map[string]struct{}, len(ids))
	for _, id := range ids {
		drop[id] = struct{}{}
	}

	kept := coll.points[:0]
	for _, p := range coll.points {
		if _, gone := drop[p.ID]; !gone {
			kept = append(kept, p)
		}
	}
	coll.points = kept
	return nil
}

// Count returns the number of points in the collection.
func (s *MemoryStore) Count(ctx context.Context, collection string) (uint64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	coll, ok := s.collections[collection]
	if !ok {
		return 0, fmt.Errorf("collection %q does not exist", collection)
	}
	return uint64(len(coll.points)), nil
}

func matchesFilters(meta map[string]any, filters map[string]any) bool {
	for key, want := range filters {
		got, ok := meta[key]
		if !ok || got != want {
			return false
		}
	}
	return true
}

// cosineDistance returns 1 - cos(a, b), in [0, 2]. A zero-length vector is
// treated as maximally distant.
func cosineDistance(a, b []float32) float32 {
	var dot, normA, normB float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
		normA += float64(a[i]) * float64(a[i])
		normB += float64(b[i]) * float64(b[i])
	}
	if normA == 0 || normB == 0 {
		return 2
	}
	cos := dot / (math.Sqrt(normA) * math.Sqrt(normB))
	return float32(1 - cos)
}
