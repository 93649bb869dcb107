package rag

import (
	"context"
	"fmt"
	"strings"
)

// NoInfoAnswer is returned for questions asked against an empty index.
const NoInfoAnswer = "I could not find any relevant information in the indexed policy documents."

// snippetLimit caps how much of each passage ends up in prompts and stub
// summaries.
const snippetLimit = 600

// Generator produces an answer from a question and the retrieved passages.
// Every factual claim must be attributed in the [Document Title - Section]
// format so the citation extraction downstream works for all variants.
type Generator interface {
	Name() string
	Generate(ctx context.Context, query string, contexts []Chunk) (string, error)
}

// StubGenerator synthesizes an answer from the retrieved passages with a
// fixed template. No external calls, fully deterministic; used offline and as
// the fallback when the LLM is unavailable.
type StubGenerator struct{}

func (g *StubGenerator) Name() string { return "stub" }

func (g *StubGenerator) Generate(_ context.Context, _ string, contexts []Chunk) (string, error) {
	if len(contexts) == 0 {
		return NoInfoAnswer, nil
	}

	var b strings.Builder
	b.WriteString("Answer (stub): based on the following sources:\n")
	for _, c := range contexts {
		fmt.Fprintf(&b, "- [%s - %s]\n", c.Title, sectionOrMain(c.Section))
	}

	b.WriteString("Summary:\n")
	texts := make([]string, 0, len(contexts))
	for _, c := range contexts {
		texts = append(texts, c.Text)
	}
	b.WriteString(truncate(strings.Join(texts, " "), snippetLimit))

	return b.String(), nil
}

// buildPrompt assembles the instruction prompt shared by the LLM-backed
// generators: the question plus an enumerated list of source passages, each
// tagged with its provenance.
func buildPrompt(query string, contexts []Chunk) string {
	var b strings.Builder
	b.WriteString(`You are a helpful company policy assistant. Answer questions based ONLY on the provided sources.

CITATION RULES:
1. Always cite sources by their exact title and section when making claims.
2. Use the format [Document Title - Section].
3. If multiple sources are relevant, cite all of them.
4. Be specific about which information comes from which source.
5. If the sources do not contain enough information to fully answer, say so.

`)

	fmt.Fprintf(&b, "QUESTION: %s\n\nAVAILABLE SOURCES:\n", query)
	for i, c := range contexts {
		fmt.Fprintf(&b, "\n[Source %d] %s - %s\n%s\n---\n",
			i+1, c.Title, sectionOrMain(c.Section), truncate(c.Text, snippetLimit))
	}

	b.WriteString("\nANSWER (remember to cite sources by title and section):")

	return b.String()
}

func sectionOrMain(section string) string {
	if section == "" {
		return "Main"
	}

	return section
}

func truncate(s string, limit int) string {
	if len(s) <= limit {
		return s
	}

	return s[:limit] + "..."
}
