// Package embedding provides text embedding via a remote HTTP gateway,
// with an in-process LRU cache and a deterministic mock for tests.
package embedding

import "context"

// Embedder produces vector embeddings for text. Implementations return unit
// vectors of a fixed dimensionality for the lifetime of the process.
type Embedder interface {
	Embed(ctx context.Context, text string) ([]float32, error)
	EmbedBatch(ctx context.Context, texts []string) ([][]float32, error)
	Dimensions() int
	Close() error
}
