package rag

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func Test_StubGenerator_CitationFormat(t *testing.T) {
	g := &StubGenerator{}
	contexts := []Chunk{
		{Title: "Returns_and_Refunds.md", Section: "Refund Windows", Text: "30 days for defective items"},
		{Title: "Shipping.md", Section: "", Text: "ships in two days"},
	}

	answer, err := g.Generate(context.Background(), "refund policy?", contexts)
	require.NoError(t, err)

	assert.Contains(t, answer, "[Returns_and_Refunds.md - Refund Windows]")
	assert.Contains(t, answer, "[Shipping.md - Main]")
	assert.Contains(t, answer, "30 days for defective items")
}

func Test_StubGenerator_EmptyContexts(t *testing.T) {
	g := &StubGenerator{}

	answer, err := g.Generate(context.Background(), "anything?", nil)
	require.NoError(t, err)
	assert.Equal(t, NoInfoAnswer, answer)
}

func Test_StubGenerator_Deterministic(t *testing.T) {
	g := &StubGenerator{}
	contexts := []Chunk{{Title: "a.md", Section: "S", Text: "some text"}}

	first, err := g.Generate(context.Background(), "q", contexts)
	require.NoError(t, err)
	second, err := g.Generate(context.Background(), "q", contexts)
	require.NoError(t, err)

	assert.Equal(t, first, second)
}

func Test_StubGenerator_TruncatesLongContexts(t *testing.T) {
	g := &StubGenerator{}
	contexts := []Chunk{{Title: "a.md", Section: "S", Text: strings.Repeat("word ", 500)}}

	answer, err := g.Generate(context.Background(), "q", contexts)
	require.NoError(t, err)
	assert.Contains(t, answer, "...")
}

func Test_BuildPrompt(t *testing.T) {
	contexts := []Chunk{
		{Title: "Returns_and_Refunds.md", Section: "Refund Windows", Text: "30 days for defective items"},
		{Title: "Shipping.md", Section: "Delivery", Text: "ships in two days"},
	}

	prompt := buildPrompt("Can I return a blender?", contexts)

	assert.Contains(t, prompt, "QUESTION: Can I return a blender?")
	assert.Contains(t, prompt, "[Source 1] Returns_and_Refunds.md - Refund Windows")
	assert.Contains(t, prompt, "[Source 2] Shipping.md - Delivery")
	assert.Contains(t, prompt, "[Document Title - Section]")
	assert.Contains(t, prompt, "30 days for defective items")
}
