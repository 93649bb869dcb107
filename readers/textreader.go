package readers

import (
	"fmt"
	"os"
	"path/filepath"
)

// TextFileReader reads plain-text corpus files. Markdown is deliberately read
// raw so the chunker can recover section boundaries from the headings.
type TextFileReader struct{}

func (r *TextFileReader) CanRead(path string) bool {
	ext := filepath.Ext(path)
	return ext == ".txt" || ext == ".md"
}

func (r *TextFileReader) ReadText(path string) (string, error) {
	buf, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("reading text file: %w", err)
	}

	return string(buf), nil
}
