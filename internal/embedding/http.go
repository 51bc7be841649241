package embedding

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/paperbase/paperbase/internal/models"
	"github.com/paperbase/paperbase/pkg/utils"
)

// HTTPEmbedder talks to an Ollama-compatible embedding endpoint. The gateway
// is treated as opaque: one text in, one fixed-dimension vector out.
type HTTPEmbedder struct {
	apiURL     string
	model      string
	dimensions int
	client     *http.Client
	cache      *Cache
}

// HTTPOption configures an HTTPEmbedder.
type HTTPOption func(*HTTPEmbedder)

// WithCache adds an LRU cache consulted before each gateway call.
func WithCache(c *Cache) HTTPOption {
	return func(e *HTTPEmbedder) { e.cache = c }
}

// WithHTTPClient overrides the HTTP client, e.g. for tests.
func WithHTTPClient(c *http.Client) HTTPOption {
	return func(e *HTTPEmbedder) { e.client = c }
}

type embedRequest struct {
	Model  string `json:"model"`
	Prompt string `json:"prompt"`
}

type embedResponse struct {
	Embedding []float64 `json:"embedding"`
}

// NewHTTPEmbedder creates an embedder for the given endpoint and model.
// dimensions is the vector size the deployment's model emits; responses of a
// different size are rejected rather than silently stored. timeout bounds
// every gateway call.
func NewHTTPEmbedder(apiURL, model string, dimensions int, timeout time.Duration, opts ...HTTPOption) *HTTPEmbedder {
	e := &HTTPEmbedder{
		apiURL:     apiURL,
		model:      model,
		dimensions: dimensions,
		client:     &http.Client{Timeout: timeout},
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Embed returns the unit-length embedding for text.
func (e *HTTPEmbedder) Embed(ctx context.Context, text string) ([]float32, error) {
	if strings.TrimSpace(text) == "" {
		return nil, fmt.Errorf("%w: empty input", models.ErrEmbeddingFailure)
	}
	if e.cache != nil {
		if emb, ok := e.cache.Get(text); ok {
			return emb, nil
		}
	}

	body, err := json.Marshal(embedRequest{Model: e.model, Prompt: text})
	if err != nil {
		return nil, fmt.Errorf("marshal embed request: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, e.apiURL, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("create embed request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := e.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: call gateway: %v", models.ErrEmbeddingFailure, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, fmt.Errorf("%w: gateway status %d: %s", models.ErrEmbeddingFailure, resp.StatusCode, string(msg))
	}

	var parsed embedResponse
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return nil, fmt.Errorf("%w: decode gateway response: %v", models.ErrEmbeddingFailure, err)
	}
	if len(parsed.Embedding) != e.dimensions {
		return nil, fmt.Errorf("%w: gateway returned %d dimensions, want %d",
			models.ErrEmbeddingFailure, len(parsed.Embedding), e.dimensions)
	}

	emb := normalize(parsed.Embedding)
	if e.cache != nil {
		e.cache.Set(text, emb)
	}
	return emb, nil
}

// EmbedBatch embeds texts one call at a time, preserving order. The first
// gateway failure aborts the batch.
func (e *HTTPEmbedder) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	embeddings := make([][]float32, len(texts))
	for i, text := range texts {
		emb, err := e.Embed(ctx, text)
		if err != nil {
			return nil, fmt.Errorf("batch item %d: %w", i, err)
		}
		embeddings[i] = emb
	}
	return embeddings, nil
}

// Dimensions returns the embedding dimension.
func (e *HTTPEmbedder) Dimensions() int {
	return e.dimensions
}

// Close is a no-op; the embedder holds no connections between calls.
func (e *HTTPEmbedder) Close() error {
	return nil
}

// normalize converts the gateway's float64 vector to a unit-length float32
// vector so stored similarities are plain dot products.
func normalize(vec []float64) []float32 {
	out := make([]float32, len(vec))
	for i, v := range vec {
		out[i] = float32(v)
	}
	utils.NormalizeL2(out)
	return out
}
