// Package vectorstore persists chunk embeddings and answers nearest-neighbor
// queries. Two implementations are provided: a brute-force in-memory store for
// tests and small corpora, and a pgvector-backed store for real deployments.
package vectorstore

import (
	"context"

	"github.com/paperbase/paperbase/internal/models"
)

// Match is one nearest-neighbor result. Similarity is normalized to [0,1].
// The chunk carries the full stored metadata, including the raw text, so
// callers can render results without a second fetch.
type Match struct {
	Chunk      models.Chunk
	Similarity float64
}

// Store persists (vector, metadata) pairs keyed by chunk id. Writes for one
// document must be atomic: after a failed ingestion the store holds either the
// document's previous chunk set or none, never a mix.
type Store interface {
	// Upsert inserts or replaces chunks. Each chunk's Embedding must match
	// the store's dimensionality.
	Upsert(ctx context.Context, chunks []models.Chunk) error
	// Query returns up to k matches ordered by similarity descending.
	Query(ctx context.Context, vector []float32, k int) ([]Match, error)
	// DeleteByDocument removes every chunk of the given document.
	DeleteByDocument(ctx context.Context, documentID string) error
	// Count returns the number of stored chunks.
	Count(ctx context.Context) (int, error)
	Close() error
}

// ReplaceDocument atomically swaps a document's chunk set: delete then upsert
// as one operation where the store supports it.
type DocumentReplacer interface {
	ReplaceDocument(ctx context.Context, documentID string, chunks []models.Chunk) error
}

// Replace swaps a document's chunks using the store's atomic path when it has
// one, and delete-then-upsert otherwise.
func Replace(ctx context.Context, s Store, documentID string, chunks []models.Chunk) error {
	if r, ok := s.(DocumentReplacer); ok {
		return r.ReplaceDocument(ctx, documentID, chunks)
	}
	if err := s.DeleteByDocument(ctx, documentID); err != nil {
		return err
	}
	if len(chunks) == 0 {
		return nil
	}
	return s.Upsert(ctx, chunks)
}
