package main

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func Test_ReadConfig_Defaults(t *testing.T) {
	path := writeConfig(t, `
log: rag.log
doc_root: ./data
server_addr: localhost:8080
`)

	cfg, err := readConfig(path)
	require.NoError(t, err)

	assert.Equal(t, 700, cfg.ChunkSize)
	assert.Equal(t, 80, cfg.ChunkOverlap)
	assert.Equal(t, 4, cfg.Results)
	assert.Equal(t, "deterministic", cfg.Embedder.Type)
	assert.Equal(t, 384, cfg.Embedder.Dimension)
	assert.Equal(t, "memory", cfg.Store.Type)
	assert.Equal(t, "stub", cfg.LLM.Type)
}

func Test_ReadConfig_FullySpecified(t *testing.T) {
	path := writeConfig(t, `
log: rag.log
doc_root: ./data
server_addr: localhost:8080
chunk_size: 500
chunk_overlap: 50
results: 6
embedder:
  type: semantic
  provider: gemini
  model: text-embedding-004
  dimension: 768
store:
  type: chroma
  addr: http://localhost:8000
  collection: policies
llm:
  type: openai
  model: gpt-4o-mini
  timeout_ms: 30000
`)

	cfg, err := readConfig(path)
	require.NoError(t, err)

	assert.Equal(t, "semantic", cfg.Embedder.Type)
	assert.Equal(t, "GEMINI_API_KEY", cfg.Embedder.APIKeyEnv)
	assert.Equal(t, 768, cfg.Embedder.Dimension)
	assert.Equal(t, "chroma", cfg.Store.Type)
	assert.Equal(t, "policies", cfg.Store.Collection)
	assert.Equal(t, "openai", cfg.LLM.Type)
	assert.Equal(t, 30000, cfg.LLM.TimeoutMs)
}

func Test_ReadConfig_Invalid(t *testing.T) {
	var cases = []struct {
		name    string
		content string
	}{
		{name: "overlap_ge_size", content: "chunk_size: 100\nchunk_overlap: 100\n"},
		{name: "negative_overlap", content: "chunk_size: 100\nchunk_overlap: -1\n"},
		{name: "unknown_store", content: "store:\n  type: redis\n"},
		{name: "unknown_embedder", content: "embedder:\n  type: magic\n"},
		{name: "unknown_llm", content: "llm:\n  type: bard\n"},
		{name: "unknown_embedding_provider", content: "embedder:\n  type: semantic\n  provider: cohere\n"},
		{name: "chroma_without_addr", content: "store:\n  type: chroma\n"},
	}

	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			_, err := readConfig(writeConfig(t, c.content))
			assert.Error(t, err)
		})
	}
}

func Test_ReadConfig_MissingFile(t *testing.T) {
	_, err := readConfig(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}
