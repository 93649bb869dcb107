package rag

import (
	"context"
	"fmt"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func point(id string, vec []float32, title, section, text string) Point {
	return Point{
		ID:     id,
		Vector: vec,
		Chunk:  Chunk{ID: id, Title: title, Section: section, Text: text},
	}
}

func Test_MemoryStore_UpsertOverwrites(t *testing.T) {
	s, err := NewMemoryStore(2)
	require.NoError(t, err)

	ctx := context.Background()
	require.NoError(t, s.Upsert(ctx, []Point{
		point("h1", []float32{1, 0}, "old.md", "A", "text"),
	}))
	require.NoError(t, s.Upsert(ctx, []Point{
		point("h1", []float32{1, 0}, "renamed.md", "A", "text"),
	}))

	n, err := s.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	hits, err := s.Search(ctx, []float32{1, 0}, 10)
	require.NoError(t, err)
	require.Len(t, hits, 1)
	assert.Equal(t, "renamed.md", hits[0].Chunk.Title, "re-upsert must replace the stored payload")
}

func Test_MemoryStore_SearchOrdering(t *testing.T) {
	s, err := NewMemoryStore(2)
	require.NoError(t, err)

	ctx := context.Background()
	require.NoError(t, s.Upsert(ctx, []Point{
		point("far", []float32{0, 1}, "d.md", "S", "far"),
		point("near", []float32{1, 0}, "d.md", "S", "near"),
		point("mid", []float32{1, 1}, "d.md", "S", "mid"),
	}))

	hits, err := s.Search(ctx, []float32{1, 0}, 2)
	require.NoError(t, err)
	require.Len(t, hits, 2)

	assert.Equal(t, "near", hits[0].Chunk.ID)
	assert.Equal(t, "mid", hits[1].Chunk.ID)
	assert.Greater(t, hits[0].Score, hits[1].Score)
}

func Test_MemoryStore_DimensionMismatch(t *testing.T) {
	s, err := NewMemoryStore(4)
	require.NoError(t, err)

	var cfgErr *ConfigError
	err = s.Upsert(context.Background(), []Point{point("h", []float32{1, 2}, "d.md", "S", "t")})
	require.ErrorAs(t, err, &cfgErr)

	_, err = s.Search(context.Background(), []float32{1, 2}, 3)
	require.ErrorAs(t, err, &cfgErr)
}

func Test_MemoryStore_ConcurrentAccess(t *testing.T) {
	s, err := NewMemoryStore(2)
	require.NoError(t, err)

	ctx := context.Background()
	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(2)
		go func(i int) {
			defer wg.Done()
			id := fmt.Sprintf("h%d", i)
			_ = s.Upsert(ctx, []Point{point(id, []float32{1, float32(i)}, "d.md", "S", id)})
		}(i)
		go func() {
			defer wg.Done()
			_, _ = s.Search(ctx, []float32{1, 0}, 3)
		}()
	}
	wg.Wait()

	n, err := s.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, 8, n)
}
