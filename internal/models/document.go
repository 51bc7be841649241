// Package models defines core data structures for documents, chunks, and retrieval results.
package models

import "time"

// Document represents one ingested source file. Documents are immutable after
// creation; re-ingesting the same source supersedes the old document rather
// than mutating it.
type Document struct {
	ID          string    `json:"id" db:"id"`
	Title       string    `json:"title" db:"title"`
	SourcePath  string    `json:"source_path,omitempty" db:"source_path"`
	PageCount   int       `json:"page_count" db:"page_count"`
	ChunkCount  int       `json:"chunk_count" db:"chunk_count"`
	ExtractedAt time.Time `json:"extracted_at" db:"extracted_at"`
}

// DocumentInput is the input for ingesting a document. Pages holds raw
// per-page text as produced by the extraction collaborator; the pipeline
// never parses PDF bytes itself.
type DocumentInput struct {
	ID         string   `json:"id,omitempty"`
	Title      string   `json:"title,omitempty"`
	SourcePath string   `json:"source_path,omitempty"`
	Pages      []string `json:"pages"`
}
