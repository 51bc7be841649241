package embedding

import (
	"context"
	"fmt"
	"hash/fnv"
	"math"
	"strings"

	"github.com/paperbase/paperbase/internal/models"
	"github.com/paperbase/paperbase/pkg/utils"
)

// MockEmbedder is a deterministic in-process embedder for tests and local
// runs without a gateway. The same text always maps to the same unit vector,
// and texts sharing words land closer together than unrelated texts.
type MockEmbedder struct {
	dimensions int
}

// NewMockEmbedder returns a mock embedder of the given dimensionality.
func NewMockEmbedder(dimensions int) *MockEmbedder {
	if dimensions <= 0 {
		dimensions = 384
	}
	return &MockEmbedder{dimensions: dimensions}
}

// Embed derives a unit vector from the hashes of the text's words. Summing
// per-word vectors gives overlapping texts correlated embeddings, which is
// enough structure for retrieval tests.
func (e *MockEmbedder) Embed(ctx context.Context, text string) ([]float32, error) {
	if strings.TrimSpace(text) == "" {
		return nil, fmt.Errorf("%w: empty input", models.ErrEmbeddingFailure)
	}
	emb := make([]float64, e.dimensions)
	for _, word := range strings.Fields(strings.ToLower(text)) {
		h := fnv.New64a()
		h.Write([]byte(word))
		seed := h.Sum64()
		for i := range emb {
			emb[i] += math.Sin(float64(seed%1000003) * float64(i+1))
		}
	}
	out := make([]float32, e.dimensions)
	for i, v := range emb {
		out[i] = float32(v)
	}
	utils.NormalizeL2(out)
	return out, nil
}

// EmbedBatch embeds each text in order.
func (e *MockEmbedder) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	embeddings := make([][]float32, len(texts))
	for i, text := range texts {
		emb, err := e.Embed(ctx, text)
		if err != nil {
			return nil, err
		}
		embeddings[i] = emb
	}
	return embeddings, nil
}

// Dimensions returns the embedding dimension.
func (e *MockEmbedder) Dimensions() int {
	return e.dimensions
}

// Close is a no-op.
func (e *MockEmbedder) Close() error {
	return nil
}
