package rag

import (
	"strings"
)

// Chunker splits documents into overlapping passages. It first splits on
// markdown headings to recover section boundaries, then slides a fixed-size
// token window through each section. Window boundaries always fall on
// whitespace, so tokens are never cut in half.
type Chunker struct {
	size    int
	overlap int
}

func NewChunker(size, overlap int) (*Chunker, error) {
	if size <= 0 {
		return nil, &ConfigError{Field: "chunk_size", Reason: "must be positive"}
	}
	if overlap < 0 {
		return nil, &ConfigError{Field: "chunk_overlap", Reason: "must not be negative"}
	}
	if overlap >= size {
		return nil, &ConfigError{Field: "chunk_overlap", Reason: "must be smaller than chunk_size"}
	}

	return &Chunker{size: size, overlap: overlap}, nil
}

type section struct {
	title string
	text  string
}

// Chunk is a pure function over the document text. If the loader already
// assigned a section, the text is windowed as-is; otherwise sections are
// derived from markdown headings first.
func (c *Chunker) Chunk(doc Document) []Chunk {
	var sections []section
	if doc.Section != "" {
		sections = []section{{title: doc.Section, text: doc.Text}}
	} else {
		sections = mdSections(doc.Text)
	}

	var chunks []Chunk
	for _, s := range sections {
		for _, w := range c.windows(s.text) {
			chunks = append(chunks, Chunk{
				ID:      ContentHash(w.text),
				Title:   doc.Title,
				Section: s.title,
				Text:    w.text,
				Span:    w.span,
			})
		}
	}

	return chunks
}

type window struct {
	text string
	span TokenSpan
}

func (c *Chunker) windows(text string) []window {
	tokens := strings.Fields(text)
	if len(tokens) == 0 {
		return nil
	}
	if len(tokens) <= c.size {
		return []window{{
			text: strings.TrimSpace(text),
			span: TokenSpan{Start: 0, End: len(tokens)},
		}}
	}

	step := c.size - c.overlap
	res := make([]window, 0, len(tokens)/step+1)
	for i := 0; i < len(tokens); i += step {
		end := min(i+c.size, len(tokens))
		res = append(res, window{
			text: strings.Join(tokens[i:end], " "),
			span: TokenSpan{Start: i, End: end},
		})
		if end >= len(tokens) {
			break
		}
	}

	return res
}

// mdSections splits markdown text at heading lines. Text before the first
// heading falls into an "Introduction" section; the heading line itself stays
// part of the section body.
func mdSections(text string) []section {
	const defaultTitle = "Introduction"

	var sections []section
	var title string
	var body []string

	flush := func() {
		joined := strings.TrimSpace(strings.Join(body, "\n"))
		if joined == "" {
			return
		}
		if title == "" {
			title = defaultTitle
		}
		sections = append(sections, section{title: title, text: joined})
	}

	for _, line := range strings.Split(text, "\n") {
		if heading, ok := headingTitle(line); ok {
			flush()
			title = heading
			body = body[:0]
		}
		body = append(body, line)
	}
	flush()

	return sections
}

func headingTitle(line string) (string, bool) {
	trimmed := strings.TrimLeft(line, "#")
	if trimmed == line || !strings.HasPrefix(trimmed, " ") {
		return "", false
	}

	return strings.TrimSpace(trimmed), true
}
