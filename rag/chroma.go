package rag

import (
	"context"
	"fmt"
	"sync"

	chroma "github.com/amikos-tech/chroma-go/pkg/api/v2"
	"github.com/amikos-tech/chroma-go/pkg/embeddings"
)

const (
	metaTitle   = "title"
	metaSection = "section"
	metaHash    = "hash"
)

// ChromaStore keeps points in a Chroma collection with cosine space. The
// collection is created lazily on first use so that an empty backend does not
// block startup.
type ChromaStore struct {
	client     chroma.Client
	collection string
	dim        int

	mu  sync.Mutex
	col chroma.Collection
}

type ChromaStoreConfig struct {
	BaseURL    string
	Collection string
	Dimension  int
}

// NewChromaStore connects to the backend and verifies it is reachable.
// An unreachable backend yields ErrBackendUnavailable so the caller can fall
// back to the in-memory store.
func NewChromaStore(ctx context.Context, cfg ChromaStoreConfig) (*ChromaStore, error) {
	if cfg.Dimension <= 0 {
		return nil, &ConfigError{Field: "store.dimension", Reason: "must be positive"}
	}
	if cfg.Collection == "" {
		return nil, &ConfigError{Field: "store.collection", Reason: "must not be empty"}
	}

	client, err := chroma.NewHTTPClient(chroma.WithBaseURL(cfg.BaseURL))
	if err != nil {
		return nil, fmt.Errorf("failed to create chroma client: %w", err)
	}

	if err := client.Heartbeat(ctx); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrBackendUnavailable, err)
	}

	return &ChromaStore{
		client:     client,
		collection: cfg.Collection,
		dim:        cfg.Dimension,
	}, nil
}

func (s *ChromaStore) Name() string { return "chroma" }

func (s *ChromaStore) Dimension() int { return s.dim }

func (s *ChromaStore) getCollection(ctx context.Context) (chroma.Collection, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.col != nil {
		return s.col, nil
	}

	col, err := s.client.GetOrCreateCollection(ctx, s.collection,
		chroma.WithCollectionMetadataCreate(
			chroma.NewMetadata(chroma.NewStringAttribute("hnsw:space", "cosine")),
		))
	if err != nil {
		return nil, fmt.Errorf("failed to get or create collection %s: %w", s.collection, err)
	}

	s.col = col
	return col, nil
}

func (s *ChromaStore) Upsert(ctx context.Context, points []Point) error {
	if len(points) == 0 {
		return nil
	}

	col, err := s.getCollection(ctx)
	if err != nil {
		return err
	}

	ids := make([]chroma.DocumentID, len(points))
	embs := make([]embeddings.Embedding, len(points))
	texts := make([]string, len(points))
	metas := make([]chroma.DocumentMetadata, len(points))
	for i, p := range points {
		if len(p.Vector) != s.dim {
			return &ConfigError{
				Field:  "store.dimension",
				Reason: fmt.Sprintf("got a %d-dimensional vector, collection is configured for %d", len(p.Vector), s.dim),
			}
		}

		ids[i] = chroma.DocumentID(p.ID)
		embs[i] = embeddings.NewEmbeddingFromFloat32(p.Vector)
		texts[i] = p.Chunk.Text
		metas[i] = chroma.NewDocumentMetadata(
			chroma.NewStringAttribute(metaTitle, p.Chunk.Title),
			chroma.NewStringAttribute(metaSection, p.Chunk.Section),
			chroma.NewStringAttribute(metaHash, p.ID),
		)
	}

	err = col.Upsert(ctx,
		chroma.WithIDs(ids...),
		chroma.WithEmbeddings(embs...),
		chroma.WithTexts(texts...),
		chroma.WithMetadatas(metas...),
	)
	if err != nil {
		return fmt.Errorf("failed to upsert %d points: %w", len(points), err)
	}

	return nil
}

func (s *ChromaStore) Search(ctx context.Context, vector []float32, k int) ([]SearchHit, error) {
	col, err := s.getCollection(ctx)
	if err != nil {
		return nil, err
	}

	r, err := col.Query(ctx,
		chroma.WithQueryEmbeddings(embeddings.NewEmbeddingFromFloat32(vector)),
		chroma.WithNResults(k),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to query collection: %w", err)
	}

	docGroups := r.GetDocumentsGroups()
	metaGroups := r.GetMetadatasGroups()
	distGroups := r.GetDistancesGroups()
	if len(docGroups) == 0 {
		return nil, nil
	}

	docs := docGroups[0]
	metas := metaGroups[0]
	dists := distGroups[0]

	hits := make([]SearchHit, 0, len(docs))
	for i := range docs {
		title, _ := metas[i].GetString(metaTitle)
		section, _ := metas[i].GetString(metaSection)
		hash, _ := metas[i].GetString(metaHash)

		text := docs[i].ContentString()
		if hash == "" {
			hash = ContentHash(text)
		}

		hits = append(hits, SearchHit{
			// Chroma reports cosine distance; flip it into a similarity.
			Score: 1 - float32(dists[i]),
			Chunk: Chunk{
				ID:      hash,
				Title:   title,
				Section: section,
				Text:    text,
			},
		})
	}

	return hits, nil
}

func (s *ChromaStore) Count(ctx context.Context) (int, error) {
	col, err := s.getCollection(ctx)
	if err != nil {
		return 0, err
	}

	n, err := col.Count(ctx)
	if err != nil {
		return 0, fmt.Errorf("failed to count collection points: %w", err)
	}

	return n, nil
}
