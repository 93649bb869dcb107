package rag

import (
	"context"
	"fmt"
	"sort"
	"sync"
)

// MemoryStore is a process-local vector store: a flat slice scanned linearly
// with cosine similarity. Meant for tests and for running without a Chroma
// backend; everything is lost on restart.
type MemoryStore struct {
	mu     sync.RWMutex
	dim    int
	index  map[string]int
	points []Point
}

func NewMemoryStore(dim int) (*MemoryStore, error) {
	if dim <= 0 {
		return nil, &ConfigError{Field: "store.dimension", Reason: "must be positive"}
	}

	return &MemoryStore{
		dim:   dim,
		index: make(map[string]int),
	}, nil
}

func (s *MemoryStore) Name() string { return "memory" }

func (s *MemoryStore) Dimension() int { return s.dim }

func (s *MemoryStore) Upsert(_ context.Context, points []Point) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, p := range points {
		if len(p.Vector) != s.dim {
			return &ConfigError{
				Field:  "store.dimension",
				Reason: fmt.Sprintf("got a %d-dimensional vector, store is configured for %d", len(p.Vector), s.dim),
			}
		}

		if i, ok := s.index[p.ID]; ok {
			s.points[i] = p
			continue
		}

		s.index[p.ID] = len(s.points)
		s.points = append(s.points, p)
	}

	return nil
}

func (s *MemoryStore) Search(_ context.Context, vector []float32, k int) ([]SearchHit, error) {
	if len(vector) != s.dim {
		return nil, &ConfigError{
			Field:  "store.dimension",
			Reason: fmt.Sprintf("got a %d-dimensional query vector, store is configured for %d", len(vector), s.dim),
		}
	}

	if k < 0 {
		k = 0
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	hits := make([]SearchHit, 0, len(s.points))
	for _, p := range s.points {
		hits = append(hits, SearchHit{
			Score: cosine(vector, p.Vector),
			Chunk: p.Chunk,
		})
	}

	// Stable sort keeps insertion order as the tie-break.
	sort.SliceStable(hits, func(i, j int) bool { return hits[i].Score > hits[j].Score })

	if k < len(hits) {
		hits = hits[:k]
	}

	return hits, nil
}

func (s *MemoryStore) Count(_ context.Context) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return len(s.points), nil
}
