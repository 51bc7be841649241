// Package extract provides per-page text extraction from source files.
// Extraction is a thin collaborator: it produces raw page texts and leaves
// all cleaning and segmentation to the ingestion pipeline.
package extract

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// Extractor extracts raw page texts from document files.
type Extractor struct{}

// NewExtractor returns a new Extractor.
func NewExtractor() *Extractor {
	return &Extractor{}
}

// ExtractPages reads the file at path and returns its text one page per
// element. PDFs yield their physical pages; plain text files (.txt, .md)
// split on form feeds, or yield a single page when none are present.
// Returns an error if the file cannot be read or the format is unsupported.
func (e *Extractor) ExtractPages(path string) ([]string, error) {
	content, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read file: %w", err)
	}
	ext := strings.ToLower(filepath.Ext(path))
	return e.ExtractPagesBytes(content, ext)
}

// ExtractPagesBytes extracts page texts from content based on the given
// extension. ext should include the leading dot (e.g. ".pdf").
func (e *Extractor) ExtractPagesBytes(content []byte, ext string) ([]string, error) {
	switch ext {
	case ".pdf":
		return extractPDF(content)
	case ".txt", ".md", "":
		return extractPlain(content)
	default:
		return nil, fmt.Errorf("unsupported file extension %q", ext)
	}
}
