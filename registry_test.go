package main

import (
	"context"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"policyrag/rag"
	"policyrag/readers"
)

type fakeIngestor struct {
	mu     sync.Mutex
	chunks []rag.Chunk
}

func (f *fakeIngestor) IngestChunks(_ context.Context, chunks []rag.Chunk) (rag.IngestResult, error) {
	f.mu.Lock()
	f.chunks = append(f.chunks, chunks...)
	f.mu.Unlock()

	titles := make(map[string]struct{})
	for _, c := range chunks {
		titles[c.Title] = struct{}{}
	}

	return rag.IngestResult{IndexedDocs: len(titles), IndexedChunks: len(chunks)}, nil
}

func newTestRegistry(t *testing.T, root string, engine ingestor) *Registry {
	t.Helper()

	chunker, err := rag.NewChunker(100, 10)
	require.NoError(t, err)

	return &Registry{
		log:              slog.New(slog.NewTextHandler(io.Discard, nil)),
		root:             root,
		mergeEventsDelay: 10 * time.Millisecond,
		chunker:          chunker,
		engine:           engine,
		readers:          []fileReader{&readers.TextFileReader{}},
	}
}

func Test_LoadDocuments(t *testing.T) {
	tmp := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(tmp, "Returns_and_Refunds.md"),
		[]byte("## Refund Windows\n30 days for defective items"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(tmp, "notes.txt"),
		[]byte("shipping takes two days"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(tmp, "logo.png"),
		[]byte{0x89, 0x50}, 0o644))

	reg := newTestRegistry(t, tmp, &fakeIngestor{})

	docs, err := reg.LoadDocuments()
	require.NoError(t, err)
	require.Len(t, docs, 2, "unsupported files must be skipped")

	titles := []string{docs[0].Title, docs[1].Title}
	assert.Contains(t, titles, "Returns_and_Refunds.md")
	assert.Contains(t, titles, "notes.txt")
}

func Test_Sync_IngestsChunks(t *testing.T) {
	tmp := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(tmp, "policy.md"),
		[]byte("# Returns\nwithin 14 days\n\n## Refund Windows\n30 days for defective items"), 0o644))

	engine := &fakeIngestor{}
	reg := newTestRegistry(t, tmp, engine)

	res, err := reg.Sync(context.Background())
	require.NoError(t, err)

	assert.Equal(t, 1, res.IndexedDocs)
	assert.Equal(t, 2, res.IndexedChunks)
	require.Len(t, engine.chunks, 2)
	assert.Equal(t, "policy.md", engine.chunks[0].Title)
	assert.Equal(t, "Returns", engine.chunks[0].Section)
	assert.Equal(t, "Refund Windows", engine.chunks[1].Section)
}

func Test_Sync_EmptyCorpus(t *testing.T) {
	engine := &fakeIngestor{}
	reg := newTestRegistry(t, t.TempDir(), engine)

	res, err := reg.Sync(context.Background())
	require.NoError(t, err)

	assert.Zero(t, res.IndexedDocs)
	assert.Zero(t, res.IndexedChunks)
	assert.Empty(t, engine.chunks)
}

func Test_Watch_SyncsOnChange(t *testing.T) {
	tmp := t.TempDir()
	engine := &fakeIngestor{}
	reg := newTestRegistry(t, tmp, engine)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	done := make(chan error, 1)
	go func() { done <- reg.Watch(ctx) }()

	// Give the watcher a moment to register before writing.
	time.Sleep(50 * time.Millisecond)
	require.NoError(t, os.WriteFile(filepath.Join(tmp, "new.md"),
		[]byte("# Fresh\nbrand new policy"), 0o644))

	assert.Eventually(t, func() bool {
		engine.mu.Lock()
		defer engine.mu.Unlock()
		return len(engine.chunks) > 0
	}, 2*time.Second, 20*time.Millisecond)

	cancel()
	require.NoError(t, <-done)
}
