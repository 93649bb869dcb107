package rag

import (
	"context"
	"math"
)

// Point is a stored (id, vector, chunk) triple. ID is the chunk content hash,
// so upserting identical content overwrites in place instead of duplicating.
type Point struct {
	ID     string
	Vector []float32
	Chunk  Chunk
}

// VectorStore stores points and answers nearest-neighbor queries by cosine
// similarity. Hits come back highest score first.
type VectorStore interface {
	Name() string
	Dimension() int
	Upsert(ctx context.Context, points []Point) error
	Search(ctx context.Context, vector []float32, k int) ([]SearchHit, error)
	Count(ctx context.Context) (int, error)
}

func cosine(a, b []float32) float32 {
	if len(a) != len(b) {
		return 0
	}

	var dot, na, nb float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
		na += float64(a[i]) * float64(a[i])
		nb += float64(b[i]) * float64(b[i])
	}
	if na == 0 || nb == 0 {
		return 0
	}

	return float32(dot / (math.Sqrt(na) * math.Sqrt(nb)))
}
