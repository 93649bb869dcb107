package rag

import (
	"context"
	"fmt"
	"log/slog"
	"time"
)

const (
	defaultK            = 4
	defaultRetryBackoff = 500 * time.Millisecond

	// overFetchFactor controls how many raw neighbors are pulled per
	// requested result so hash dedup can still return k unique chunks.
	// Best-effort: heavy duplication can exhaust it, in which case the
	// fetch window widens once up to maxOverFetchFactor.
	overFetchFactor    = 2
	maxOverFetchFactor = 4
)

// Engine orchestrates the ingestion and query flows. One instance is shared
// by all requests; it holds no request-scoped state, so concurrent calls are
// safe. Counter updates are funneled through the metrics mutex.
type Engine struct {
	log       *slog.Logger
	embedder  Embedder
	store     VectorStore
	generator Generator
	fallback  Generator

	defaultK     int
	retryBackoff time.Duration
	genTimeout   time.Duration

	metrics *metrics
}

type EngineConfig struct {
	Embedder  Embedder
	Store     VectorStore
	Generator Generator
	Log       *slog.Logger

	// Results is the number of chunks returned when the caller does not
	// request a specific k.
	Results int

	// RetryBackoff is the pause before the single generation retry.
	RetryBackoff time.Duration

	// GenerationTimeout bounds each generator call. Zero leaves the
	// transport default in charge.
	GenerationTimeout time.Duration
}

func NewEngine(cfg EngineConfig) (*Engine, error) {
	if cfg.Embedder == nil {
		return nil, &ConfigError{Field: "embedder", Reason: "must not be nil"}
	}
	if cfg.Store == nil {
		return nil, &ConfigError{Field: "store", Reason: "must not be nil"}
	}
	if cfg.Generator == nil {
		return nil, &ConfigError{Field: "llm", Reason: "must not be nil"}
	}
	if cfg.Embedder.Dimension() != cfg.Store.Dimension() {
		return nil, &ConfigError{
			Field: "embedder.dimension",
			Reason: fmt.Sprintf("embedder %s produces %d-dimensional vectors but store %s is configured for %d",
				cfg.Embedder.Name(), cfg.Embedder.Dimension(), cfg.Store.Name(), cfg.Store.Dimension()),
		}
	}

	if cfg.Log == nil {
		cfg.Log = slog.Default()
	}
	if cfg.Results <= 0 {
		cfg.Results = defaultK
	}
	if cfg.RetryBackoff <= 0 {
		cfg.RetryBackoff = defaultRetryBackoff
	}

	return &Engine{
		log:          cfg.Log,
		embedder:     cfg.Embedder,
		store:        cfg.Store,
		generator:    cfg.Generator,
		fallback:     &StubGenerator{},
		defaultK:     cfg.Results,
		retryBackoff: cfg.RetryBackoff,
		genTimeout:   cfg.GenerationTimeout,
		metrics:      newMetrics(),
	}, nil
}

// IngestChunks embeds all chunks in one batch call and upserts them keyed by
// content hash. The returned counts cover previously unseen titles and
// hashes only, so re-ingesting unchanged content reports zero.
func (e *Engine) IngestChunks(ctx context.Context, chunks []Chunk) (IngestResult, error) {
	if len(chunks) == 0 {
		return IngestResult{}, nil
	}

	texts := make([]string, len(chunks))
	for i, c := range chunks {
		texts[i] = c.Text
	}

	vectors, err := e.embedder.EmbedMany(ctx, texts)
	if err != nil {
		return IngestResult{}, &StageError{Stage: "embedding", Err: err}
	}

	points := make([]Point, len(chunks))
	titles := make([]string, len(chunks))
	hashes := make([]string, len(chunks))
	for i, c := range chunks {
		if c.ID == "" {
			c.ID = ContentHash(c.Text)
		}
		points[i] = Point{ID: c.ID, Vector: vectors[i], Chunk: c}
		titles[i] = c.Title
		hashes[i] = c.ID
	}

	if err := e.store.Upsert(ctx, points); err != nil {
		return IngestResult{}, &StageError{Stage: "upserting", Err: err}
	}

	newDocs, newChunks := e.metrics.recordIngest(titles, hashes)
	e.log.Info("ingested chunks",
		"chunks", len(chunks),
		"new_docs", newDocs,
		"new_chunks", newChunks,
		"store", e.store.Name())

	return IngestResult{IndexedDocs: newDocs, IndexedChunks: newChunks}, nil
}

// Retrieve embeds the query and returns at most k unique chunks, highest
// score first. The store is over-fetched so that duplicate content hashes
// (overlapping windows, re-chunked sections) can be dropped without starving
// the result.
func (e *Engine) Retrieve(ctx context.Context, query string, k int) ([]SearchHit, error) {
	if k <= 0 {
		k = e.defaultK
	}

	start := time.Now()

	vector, err := e.embedder.EmbedOne(ctx, query)
	if err != nil {
		return nil, &StageError{Stage: "embedding", Err: err}
	}

	hits, err := e.searchUnique(ctx, vector, k)
	if err != nil {
		return nil, &StageError{Stage: "retrieving", Err: err}
	}

	e.metrics.recordRetrieval(time.Since(start))

	return hits, nil
}

func (e *Engine) searchUnique(ctx context.Context, vector []float32, k int) ([]SearchHit, error) {
	fetch := k * overFetchFactor
	for {
		raw, err := e.store.Search(ctx, vector, fetch)
		if err != nil {
			return nil, err
		}

		unique := dedupHits(raw, k)
		if len(unique) >= k {
			return unique, nil
		}

		if fetch >= k*maxOverFetchFactor {
			return unique, nil
		}
		total, err := e.store.Count(ctx)
		if err != nil || len(raw) >= total {
			return unique, nil
		}

		fetch *= 2
	}
}

// dedupHits drops hits whose content hash already appeared earlier in the
// ranked list, keeping at most k. Rank order is preserved.
func dedupHits(hits []SearchHit, k int) []SearchHit {
	seen := make(map[string]struct{}, len(hits))
	unique := make([]SearchHit, 0, k)
	for _, h := range hits {
		id := h.Chunk.ID
		if id == "" {
			id = ContentHash(h.Chunk.Text)
		}
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}

		unique = append(unique, h)
		if len(unique) == k {
			break
		}
	}

	return unique
}

// Generate derives citations from the hits and produces the answer. A failed
// generator call is retried once after a backoff, then substituted with the
// stub for this request; the caller never sees the failure when a fallback
// path exists.
func (e *Engine) Generate(ctx context.Context, query string, hits []SearchHit) (string, []Citation, error) {
	chunks := make([]Chunk, len(hits))
	for i, h := range hits {
		chunks[i] = h.Chunk
	}
	citations := Citations(chunks)

	start := time.Now()

	answer, err := e.generate(ctx, e.generator, query, chunks)
	if err != nil {
		e.log.Warn("generation failed, retrying once", "llm", e.generator.Name(), "error", err)
		time.Sleep(e.retryBackoff)
		answer, err = e.generate(ctx, e.generator, query, chunks)
	}
	if err != nil && e.generator.Name() != e.fallback.Name() {
		e.log.Warn("generation degraded to stub for this request", "llm", e.generator.Name(), "error", err)
		answer, err = e.generate(ctx, e.fallback, query, chunks)
	}
	if err != nil {
		return "", nil, &StageError{Stage: "generating", Err: err}
	}

	e.metrics.recordGeneration(time.Since(start))

	return answer, citations, nil
}

func (e *Engine) generate(ctx context.Context, gen Generator, query string, chunks []Chunk) (string, error) {
	if e.genTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, e.genTimeout)
		defer cancel()
	}

	return gen.Generate(ctx, query, chunks)
}

// Ask runs the full query flow: retrieve, then generate with citations.
func (e *Engine) Ask(ctx context.Context, query string, k int) (AskResult, error) {
	retrievalStart := time.Now()
	hits, err := e.Retrieve(ctx, query, k)
	if err != nil {
		return AskResult{}, err
	}
	retrievalMs := float64(time.Since(retrievalStart)) / float64(time.Millisecond)

	generationStart := time.Now()
	answer, citations, err := e.Generate(ctx, query, hits)
	if err != nil {
		return AskResult{}, err
	}
	generationMs := float64(time.Since(generationStart)) / float64(time.Millisecond)

	chunks := make([]Chunk, len(hits))
	for i, h := range hits {
		chunks[i] = h.Chunk
	}

	return AskResult{
		Answer:       answer,
		Citations:    citations,
		Chunks:       chunks,
		RetrievalMs:  retrievalMs,
		GenerationMs: generationMs,
	}, nil
}

// Stats returns a snapshot of the engine counters.
func (e *Engine) Stats() Stats {
	s := e.metrics.snapshot()
	s.EmbeddingModel = e.embedder.Name()
	s.LLMModel = e.generator.Name()

	return s
}

// Citations collects the distinct (title, section) pairs across chunks in
// first-seen order.
func Citations(chunks []Chunk) []Citation {
	seen := make(map[Citation]struct{}, len(chunks))
	citations := make([]Citation, 0, len(chunks))
	for _, c := range chunks {
		cit := Citation{Title: c.Title, Section: c.Section}
		if _, ok := seen[cit]; ok {
			continue
		}
		seen[cit] = struct{}{}
		citations = append(citations, cit)
	}

	return citations
}
