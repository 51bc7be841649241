package models

import "errors"

// Sentinel errors for the ingestion and retrieval pipelines. External-dependency
// failures (embedding, vector store) abort the current operation and surface to
// the caller; stage-local degradations are logged and absorbed instead.
var (
	// ErrInvalidQuery is returned for an empty or non-text query, before any
	// external call is made.
	ErrInvalidQuery = errors.New("invalid query")

	// ErrRetrievalUnavailable is returned when the vector store is unreachable
	// or timed out. Retrieval fails fast; no partial results are returned.
	ErrRetrievalUnavailable = errors.New("retrieval unavailable")

	// ErrEmbeddingFailure is returned when the embedding gateway fails.
	// Ingestion of the affected document is not committed.
	ErrEmbeddingFailure = errors.New("embedding failure")

	// ErrExtractionEmpty signals that no usable text remained after cleaning.
	// Non-fatal: the document is stored with zero chunks and the caller
	// receives a warning.
	ErrExtractionEmpty = errors.New("no usable text after cleaning")

	// ErrNotFound is returned when a document or chunk does not exist.
	ErrNotFound = errors.New("not found")
)

// IsExtractionEmpty reports whether err is the empty-extraction warning, which
// callers treat as success with a caveat rather than failure.
func IsExtractionEmpty(err error) bool {
	return errors.Is(err, ErrExtractionEmpty)
}
