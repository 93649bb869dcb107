package rag

import (
	"context"
	"crypto/sha256"
	"encoding/binary"
	"fmt"
	"math"
	"math/rand"
	"strings"

	"github.com/amikos-tech/chroma-go/pkg/embeddings"
)

// Embedder maps text to a fixed-length vector. Implementations must report a
// stable dimension and must embed the empty string as a zero vector instead
// of failing.
type Embedder interface {
	Name() string
	Dimension() int
	EmbedOne(ctx context.Context, text string) ([]float32, error)
	EmbedMany(ctx context.Context, texts []string) ([][]float32, error)
}

// SemanticEmbedder delegates to a pretrained sentence-embedding model behind
// a chroma embedding function. The model is configured once at construction;
// the dimension must match what the model actually produces.
type SemanticEmbedder struct {
	name string
	dim  int
	fn   embeddings.EmbeddingFunction
}

func NewSemanticEmbedder(name string, dim int, fn embeddings.EmbeddingFunction) (*SemanticEmbedder, error) {
	if dim <= 0 {
		return nil, &ConfigError{Field: "embedder.dimension", Reason: "must be positive"}
	}
	if fn == nil {
		return nil, &ConfigError{Field: "embedder", Reason: "missing embedding function"}
	}

	return &SemanticEmbedder{name: name, dim: dim, fn: fn}, nil
}

func (e *SemanticEmbedder) Name() string { return e.name }

func (e *SemanticEmbedder) Dimension() int { return e.dim }

func (e *SemanticEmbedder) EmbedOne(ctx context.Context, text string) ([]float32, error) {
	if strings.TrimSpace(text) == "" {
		return make([]float32, e.dim), nil
	}

	emb, err := e.fn.EmbedQuery(ctx, text)
	if err != nil {
		return nil, fmt.Errorf("failed to embed text: %w", err)
	}

	return e.checkDim(emb.ContentAsFloat32())
}

func (e *SemanticEmbedder) EmbedMany(ctx context.Context, texts []string) ([][]float32, error) {
	res := make([][]float32, len(texts))

	// The model never sees empty strings; their slots get zero vectors.
	var nonEmpty []string
	var slots []int
	for i, t := range texts {
		if strings.TrimSpace(t) == "" {
			res[i] = make([]float32, e.dim)
			continue
		}
		nonEmpty = append(nonEmpty, t)
		slots = append(slots, i)
	}

	if len(nonEmpty) == 0 {
		return res, nil
	}

	embs, err := e.fn.EmbedDocuments(ctx, nonEmpty)
	if err != nil {
		return nil, fmt.Errorf("failed to embed %d texts: %w", len(nonEmpty), err)
	}
	if len(embs) != len(nonEmpty) {
		return nil, fmt.Errorf("embedding model returned %d vectors for %d texts", len(embs), len(nonEmpty))
	}

	for i, emb := range embs {
		v, err := e.checkDim(emb.ContentAsFloat32())
		if err != nil {
			return nil, err
		}
		res[slots[i]] = v
	}

	return res, nil
}

func (e *SemanticEmbedder) checkDim(v []float32) ([]float32, error) {
	if len(v) != e.dim {
		return nil, &ConfigError{
			Field:  "embedder.dimension",
			Reason: fmt.Sprintf("model %s produced a %d-dimensional vector, configured for %d", e.name, len(v), e.dim),
		}
	}

	return v, nil
}

// HashEmbedder derives a repeatable pseudo-embedding from a digest of the
// text: the digest seeds a PRNG which is expanded into a normalized vector.
// Near-synonyms share nothing; it exists so the system runs with zero
// external dependencies.
type HashEmbedder struct {
	dim int
}

func NewHashEmbedder(dim int) (*HashEmbedder, error) {
	if dim <= 0 {
		return nil, &ConfigError{Field: "embedder.dimension", Reason: "must be positive"}
	}

	return &HashEmbedder{dim: dim}, nil
}

func (e *HashEmbedder) Name() string { return "deterministic-hash" }

func (e *HashEmbedder) Dimension() int { return e.dim }

func (e *HashEmbedder) EmbedOne(_ context.Context, text string) ([]float32, error) {
	res := make([]float32, e.dim)
	if strings.TrimSpace(text) == "" {
		return res, nil
	}

	sum := sha256.Sum256([]byte(text))
	rng := rand.New(rand.NewSource(int64(binary.BigEndian.Uint64(sum[:8]))))

	var norm float64
	raw := make([]float64, e.dim)
	for i := range raw {
		raw[i] = rng.NormFloat64()
		norm += raw[i] * raw[i]
	}

	norm = math.Sqrt(norm) + 1e-9
	for i := range res {
		res[i] = float32(raw[i] / norm)
	}

	return res, nil
}

func (e *HashEmbedder) EmbedMany(ctx context.Context, texts []string) ([][]float32, error) {
	res := make([][]float32, len(texts))
	for i, t := range texts {
		v, err := e.EmbedOne(ctx, t)
		if err != nil {
			return nil, err
		}
		res[i] = v
	}

	return res, nil
}
