package vectorstore

import (
	"context"
	"encoding/gob"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"sync"

	"github.com/paperbase/paperbase/internal/models"
)

// MemoryStore is an in-memory store using brute-force inner product search.
// Vectors are assumed unit length, so the inner product is cosine similarity;
// it is rescaled from [-1,1] to [0,1] before being returned.
type MemoryStore struct {
	dimensions int
	chunks     map[string]models.Chunk
	mu         sync.RWMutex
}

// NewMemoryStore creates an in-memory store for vectors of the given dimension.
func NewMemoryStore(dimensions int) (*MemoryStore, error) {
	if dimensions <= 0 {
		return nil, fmt.Errorf("dimensions must be positive")
	}
	return &MemoryStore{
		dimensions: dimensions,
		chunks:     make(map[string]models.Chunk),
	}, nil
}

// Upsert inserts or replaces chunks keyed by chunk id.
func (m *MemoryStore) Upsert(ctx context.Context, chunks []models.Chunk) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, chunk := range chunks {
		if len(chunk.Embedding) != m.dimensions {
			return fmt.Errorf("chunk %s: vector dimension mismatch: got %d, expected %d",
				chunk.ID, len(chunk.Embedding), m.dimensions)
		}
		stored := chunk
		stored.Embedding = append([]float32(nil), chunk.Embedding...)
		m.chunks[chunk.ID] = stored
	}
	return nil
}

// Query returns the k most similar chunks by cosine similarity, rescaled to
// [0,1]. Equal similarities order by chunk id so results are stable.
func (m *MemoryStore) Query(ctx context.Context, vector []float32, k int) ([]Match, error) {
	if len(vector) != m.dimensions {
		return nil, fmt.Errorf("query dimension mismatch: got %d, expected %d", len(vector), m.dimensions)
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	if k <= 0 || len(m.chunks) == 0 {
		return nil, nil
	}
	matches := make([]Match, 0, len(m.chunks))
	for _, chunk := range m.chunks {
		var dot float64
		for i := 0; i < m.dimensions; i++ {
			dot += float64(vector[i]) * float64(chunk.Embedding[i])
		}
		matches = append(matches, Match{Chunk: chunk, Similarity: (dot + 1) / 2})
	}
	sort.Slice(matches, func(i, j int) bool {
		if matches[i].Similarity != matches[j].Similarity {
			return matches[i].Similarity > matches[j].Similarity
		}
		return matches[i].Chunk.ID < matches[j].Chunk.ID
	})
	if k > len(matches) {
		k = len(matches)
	}
	return matches[:k], nil
}

// DeleteByDocument removes all chunks of the document.
func (m *MemoryStore) DeleteByDocument(ctx context.Context, documentID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for id, chunk := range m.chunks {
		if chunk.DocumentID == documentID {
			delete(m.chunks, id)
		}
	}
	return nil
}

// ReplaceDocument swaps a document's chunk set under one lock, so concurrent
// queries never observe a partial mix of old and new chunks.
func (m *MemoryStore) ReplaceDocument(ctx context.Context, documentID string, chunks []models.Chunk) error {
	for _, chunk := range chunks {
		if len(chunk.Embedding) != m.dimensions {
			return fmt.Errorf("chunk %s: vector dimension mismatch: got %d, expected %d",
				chunk.ID, len(chunk.Embedding), m.dimensions)
		}
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	for id, chunk := range m.chunks {
		if chunk.DocumentID == documentID {
			delete(m.chunks, id)
		}
	}
	for _, chunk := range chunks {
		stored := chunk
		stored.Embedding = append([]float32(nil), chunk.Embedding...)
		m.chunks[chunk.ID] = stored
	}
	return nil
}

// Count returns the number of stored chunks.
func (m *MemoryStore) Count(ctx context.Context) (int, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.chunks), nil
}

// Close is a no-op for the in-memory store.
func (m *MemoryStore) Close() error {
	return nil
}

// Save persists the store contents to path. The parent directory is created
// if needed.
func (m *MemoryStore) Save(path string) error {
	if path == "" {
		return nil
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("create store dir: %w", err)
	}
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create store file: %w", err)
	}
	defer f.Close()
	snapshot := make([]models.Chunk, 0, len(m.chunks))
	for _, chunk := range m.chunks {
		snapshot = append(snapshot, chunk)
	}
	enc := gob.NewEncoder(f)
	if err := enc.Encode(m.dimensions); err != nil {
		return fmt.Errorf("encode dimensions: %w", err)
	}
	if err := enc.Encode(snapshot); err != nil {
		return fmt.Errorf("encode chunks: %w", err)
	}
	return nil
}

// Load replaces the store contents from path. A missing file is not an error;
// the store is left unchanged.
func (m *MemoryStore) Load(path string) error {
	if path == "" {
		return nil
	}
	f, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return fmt.Errorf("open store file: %w", err)
	}
	defer f.Close()
	dec := gob.NewDecoder(f)
	var dim int
	if err := dec.Decode(&dim); err != nil {
		return fmt.Errorf("decode dimensions: %w", err)
	}
	if dim != m.dimensions {
		return fmt.Errorf("dimension mismatch: file has %d, store expects %d", dim, m.dimensions)
	}
	var snapshot []models.Chunk
	if err := dec.Decode(&snapshot); err != nil {
		return fmt.Errorf("decode chunks: %w", err)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.chunks = make(map[string]models.Chunk, len(snapshot))
	for _, chunk := range snapshot {
		m.chunks[chunk.ID] = chunk
	}
	return nil
}
