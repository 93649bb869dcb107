package rag

import (
	"sync"
	"time"
)

// metrics holds the process-wide running counters. All mutation goes through
// its methods under one mutex; snapshots never block writers for long since
// every method is O(1) apart from set inserts.
type metrics struct {
	mu sync.Mutex

	docs   map[string]struct{}
	chunks map[string]struct{}

	retrievalMs  float64
	retrievals   int64
	generationMs float64
	generations  int64
}

func newMetrics() *metrics {
	return &metrics{
		docs:   make(map[string]struct{}),
		chunks: make(map[string]struct{}),
	}
}

// recordIngest registers document titles and chunk hashes, returning how many
// of each were previously unseen. Counting distinct keys keeps re-ingestion
// of unchanged content from inflating the totals.
func (m *metrics) recordIngest(titles, hashes []string) (newDocs, newChunks int) {
	m.mu.Lock()
	defer m.mu.Unlock()

	for _, t := range titles {
		if _, ok := m.docs[t]; !ok {
			m.docs[t] = struct{}{}
			newDocs++
		}
	}
	for _, h := range hashes {
		if _, ok := m.chunks[h]; !ok {
			m.chunks[h] = struct{}{}
			newChunks++
		}
	}

	return newDocs, newChunks
}

func (m *metrics) recordRetrieval(d time.Duration) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.retrievalMs += float64(d) / float64(time.Millisecond)
	m.retrievals++
}

func (m *metrics) recordGeneration(d time.Duration) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.generationMs += float64(d) / float64(time.Millisecond)
	m.generations++
}

func (m *metrics) snapshot() Stats {
	m.mu.Lock()
	defer m.mu.Unlock()

	s := Stats{
		TotalDocs:   len(m.docs),
		TotalChunks: len(m.chunks),
	}
	if m.retrievals > 0 {
		s.AvgRetrievalLatencyMs = m.retrievalMs / float64(m.retrievals)
	}
	if m.generations > 0 {
		s.AvgGenerationLatencyMs = m.generationMs / float64(m.generations)
	}

	return s
}
