package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log"
	"log/slog"
	"os"
	"time"

	"github.com/amikos-tech/chroma-go/pkg/embeddings"
	gemini "github.com/amikos-tech/chroma-go/pkg/embeddings/gemini"
	openaiembed "github.com/amikos-tech/chroma-go/pkg/embeddings/openai"
	"github.com/joho/godotenv"
	"github.com/mark3labs/mcp-go/server"

	"policyrag/rag"
	"policyrag/readers"
)

func createEmbedder(cfg *Config) (rag.Embedder, error) {
	if cfg.Embedder.Type == "deterministic" {
		return rag.NewHashEmbedder(cfg.Embedder.Dimension)
	}

	apiKey := os.Getenv(cfg.Embedder.APIKeyEnv)
	if apiKey == "" {
		return nil, fmt.Errorf("missing embedding API key in env %s", cfg.Embedder.APIKeyEnv)
	}

	var ef embeddings.EmbeddingFunction
	var err error
	switch cfg.Embedder.Provider {
	case "openai":
		ef, err = openaiembed.NewOpenAIEmbeddingFunction(apiKey,
			openaiembed.WithModel(openaiembed.EmbeddingModel(cfg.Embedder.Model)))
	case "gemini":
		ef, err = gemini.NewGeminiEmbeddingFunction(
			gemini.WithAPIKey(apiKey),
			gemini.WithDefaultModel(embeddings.EmbeddingModel(cfg.Embedder.Model)))
	default:
		err = errors.New("invalid embeddings provider configuration")
	}
	if err != nil {
		return nil, fmt.Errorf("failed to create embedding function: %w", err)
	}

	return rag.NewSemanticEmbedder(cfg.Embedder.Model, cfg.Embedder.Dimension, ef)
}

// createStore builds the configured vector store. An unreachable Chroma
// backend degrades to the in-memory store instead of aborting startup.
func createStore(ctx context.Context, cfg *Config, logger *slog.Logger) (rag.VectorStore, error) {
	if cfg.Store.Type == "chroma" {
		ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
		defer cancel()

		store, err := rag.NewChromaStore(ctx, rag.ChromaStoreConfig{
			BaseURL:    cfg.Store.Addr,
			Collection: cfg.Store.Collection,
			Dimension:  cfg.Embedder.Dimension,
		})
		if err == nil {
			return store, nil
		}
		if !errors.Is(err, rag.ErrBackendUnavailable) {
			return nil, err
		}

		logger.Warn("chroma unreachable, serving from the in-memory store",
			"addr", cfg.Store.Addr,
			"error", err)
	}

	return rag.NewMemoryStore(cfg.Embedder.Dimension)
}

func createGenerator(cfg *Config) (rag.Generator, error) {
	if cfg.LLM.Type == "stub" {
		return &rag.StubGenerator{}, nil
	}

	return rag.NewOpenAIGenerator(rag.OpenAIGeneratorConfig{
		APIKey: os.Getenv(cfg.LLM.APIKeyEnv),
		Model:  cfg.LLM.Model,
	})
}

func main() {
	cfgPath := flag.String("config", "cfg/config.yaml", "Configuration file for the RAG server")
	flag.Parse()

	_ = godotenv.Load()

	cfg, err := readConfig(*cfgPath)
	if err != nil {
		log.Fatal(err)
	}

	logFile, err := os.OpenFile(cfg.LogFile, os.O_APPEND|os.O_WRONLY|os.O_CREATE, 0o644)
	if err != nil {
		log.Fatalf("failed to open log file: %s", err)
	}
	defer logFile.Close()

	logger := slog.New(slog.NewJSONHandler(logFile, nil))

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	embedder, err := createEmbedder(cfg)
	if err != nil {
		log.Fatal(err)
	}

	store, err := createStore(ctx, cfg, logger)
	if err != nil {
		log.Fatal(err)
	}

	generator, err := createGenerator(cfg)
	if err != nil {
		log.Fatal(err)
	}

	engine, err := rag.NewEngine(rag.EngineConfig{
		Embedder:          embedder,
		Store:             store,
		Generator:         generator,
		Log:               logger,
		Results:           cfg.Results,
		GenerationTimeout: time.Duration(cfg.LLM.TimeoutMs) * time.Millisecond,
	})
	if err != nil {
		log.Fatal(err)
	}

	chunker, err := rag.NewChunker(cfg.ChunkSize, cfg.ChunkOverlap)
	if err != nil {
		log.Fatal(err)
	}

	reg := &Registry{
		log:              logger,
		root:             cfg.DocRoot,
		mergeEventsDelay: time.Duration(cfg.MergeEventsMs) * time.Millisecond,
		chunker:          chunker,
		engine:           engine,
		readers: []fileReader{
			&readers.TextFileReader{},
			&readers.UniversalFileReader{},
		},
	}

	go func() {
		if _, err := reg.Sync(ctx); err != nil {
			log.Fatal(err)
		}

		if err := reg.Watch(ctx); err != nil {
			log.Fatal(err)
		}
	}()

	srv := NewRagServer(engine, reg, logger)
	sse := server.NewSSEServer(srv, server.WithBaseURL(fmt.Sprintf("http://%s", cfg.ServerAddr)))
	log.Println(sse.Start(cfg.ServerAddr))
}
