package rag

// Document is a raw policy document as produced by the loader. Section may be
// empty, in which case the chunker derives sections from markdown headings.
type Document struct {
	Title   string
	Section string
	Text    string
}

// TokenSpan is the half-open token range a chunk covers within its section.
type TokenSpan struct {
	Start int `json:"start"`
	End   int `json:"end"`
}

// Chunk is the unit of retrieval: a bounded passage with provenance metadata.
// ID is the content hash of Text, so identical text always maps to the same
// chunk identity.
type Chunk struct {
	ID      string    `json:"id"`
	Title   string    `json:"title"`
	Section string    `json:"section,omitempty"`
	Text    string    `json:"text"`
	Span    TokenSpan `json:"token_span"`
}

// SearchHit pairs a retrieved chunk with its similarity score, higher is
// more similar.
type SearchHit struct {
	Score float32
	Chunk Chunk
}

// Citation attributes an answer to a document title and section.
type Citation struct {
	Title   string `json:"title"`
	Section string `json:"section,omitempty"`
}

// IngestResult reports how many previously unseen documents and chunks an
// ingestion call added to the index.
type IngestResult struct {
	IndexedDocs   int `json:"indexed_docs"`
	IndexedChunks int `json:"indexed_chunks"`
}

// AskResult is the full response to a single question.
type AskResult struct {
	Answer       string     `json:"answer"`
	Citations    []Citation `json:"citations"`
	Chunks       []Chunk    `json:"chunks"`
	RetrievalMs  float64    `json:"retrieval_ms"`
	GenerationMs float64    `json:"generation_ms"`
}

// Stats is a read-only snapshot of the engine counters.
type Stats struct {
	TotalDocs              int     `json:"total_docs"`
	TotalChunks            int     `json:"total_chunks"`
	AvgRetrievalLatencyMs  float64 `json:"avg_retrieval_latency_ms"`
	AvgGenerationLatencyMs float64 `json:"avg_generation_latency_ms"`
	EmbeddingModel         string  `json:"embedding_model"`
	LLMModel               string  `json:"llm_model"`
}
