package main

import (
	"context"
	"fmt"
	"io/fs"
	"log/slog"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"

	"policyrag/rag"
)

type chunker interface {
	Chunk(doc rag.Document) []rag.Chunk
}

type ingestor interface {
	IngestChunks(ctx context.Context, chunks []rag.Chunk) (rag.IngestResult, error)
}

type fileReader interface {
	CanRead(path string) bool
	ReadText(path string) (string, error)
}

// Registry keeps the vector index in sync with the documents under root.
// Files with unrecognized extensions are skipped; content-hash dedup in the
// engine makes repeated syncs idempotent.
type Registry struct {
	log              *slog.Logger
	root             string
	mergeEventsDelay time.Duration
	chunker          chunker
	engine           ingestor
	readers          []fileReader
}

// LoadDocuments walks the corpus root and reads every recognized file into a
// Document titled with the file's base name. Sections are left to the
// chunker's markdown pass.
func (r *Registry) LoadDocuments() ([]rag.Document, error) {
	var docs []rag.Document

	err := filepath.Walk(r.root, func(path string, info fs.FileInfo, err error) error {
		if err != nil {
			return err
		}
		if info.IsDir() {
			return nil
		}

		reader, ok := r.findReader(path)
		if !ok {
			r.log.Warn("skipping unsupported file", "path", path)
			return nil
		}

		text, err := reader.ReadText(path)
		if err != nil {
			return fmt.Errorf("failed to read document %s: %w", path, err)
		}

		docs = append(docs, rag.Document{
			Title: filepath.Base(path),
			Text:  text,
		})

		return nil
	})
	if err != nil {
		return nil, err
	}

	return docs, nil
}

// Sync loads, chunks and ingests the whole corpus.
func (r *Registry) Sync(ctx context.Context) (rag.IngestResult, error) {
	docs, err := r.LoadDocuments()
	if err != nil {
		return rag.IngestResult{}, fmt.Errorf("failed to load documents: %w", err)
	}

	var chunks []rag.Chunk
	for _, d := range docs {
		chunks = append(chunks, r.chunker.Chunk(d)...)
	}

	res, err := r.engine.IngestChunks(ctx, chunks)
	if err != nil {
		return rag.IngestResult{}, err
	}

	r.log.Info("corpus synced",
		"docs", len(docs),
		"chunks", len(chunks),
		"new_docs", res.IndexedDocs,
		"new_chunks", res.IndexedChunks)

	return res, nil
}

// Watch re-syncs the corpus whenever files under root change. Bursts of
// events (editors writing temp files, multi-file copies) are merged within
// mergeEventsDelay before a sync is triggered.
func (r *Registry) Watch(ctx context.Context) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("failed to create fs watcher: %w", err)
	}
	defer watcher.Close()

	if err := watcher.Add(r.root); err != nil {
		return fmt.Errorf("failed to watch %s: %w", r.root, err)
	}

	timer := time.NewTimer(r.mergeEventsDelay)
	if !timer.Stop() {
		<-timer.C
	}

	for {
		select {
		case <-ctx.Done():
			return nil
		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if event.Op&(fsnotify.Create|fsnotify.Write|fsnotify.Remove|fsnotify.Rename) == 0 {
				continue
			}
			timer.Reset(r.mergeEventsDelay)
		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			r.log.Warn("fs watcher error", "error", err)
		case <-timer.C:
			if _, err := r.Sync(ctx); err != nil {
				r.log.Error("failed to sync corpus", "error", err)
			}
		}
	}
}

func (r *Registry) findReader(path string) (fileReader, bool) {
	for _, reader := range r.readers {
		if reader.CanRead(path) {
			return reader, true
		}
	}

	return nil, false
}
