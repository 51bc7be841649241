package embedding

import (
	"context"
	"encoding/json"
	"errors"
	"math"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/paperbase/paperbase/internal/models"
)

func TestCache_getSetEvict(t *testing.T) {
	c := NewCache(2)
	if _, ok := c.Get("a"); ok {
		t.Fatal("expected miss on empty cache")
	}
	c.Set("a", []float32{1, 2, 3})
	v, ok := c.Get("a")
	if !ok || len(v) != 3 || v[0] != 1 {
		t.Errorf("Get returned %v, %v", v, ok)
	}
	c.Set("b", []float32{4})
	c.Set("c", []float32{5}) // evicts a
	if _, ok := c.Get("a"); ok {
		t.Error("oldest entry should have been evicted")
	}
	if _, ok := c.Get("b"); !ok {
		t.Error("recent entry evicted")
	}
	if c.Len() != 2 {
		t.Errorf("Len = %d, want 2", c.Len())
	}
}

func TestHTTPEmbedder_embed(t *testing.T) {
	calls := 0
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		var req embedRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Errorf("bad request body: %v", err)
		}
		if req.Model != "test-model" {
			t.Errorf("model = %q", req.Model)
		}
		json.NewEncoder(w).Encode(embedResponse{Embedding: []float64{3, 0, 4, 0}})
	}))
	defer srv.Close()

	e := NewHTTPEmbedder(srv.URL, "test-model", 4, time.Second, WithCache(NewCache(8)))
	emb, err := e.Embed(context.Background(), "hello world")
	if err != nil {
		t.Fatalf("Embed: %v", err)
	}
	if len(emb) != 4 {
		t.Fatalf("got %d dimensions, want 4", len(emb))
	}
	// 3-0-4-0 normalizes to 0.6-0-0.8-0.
	if math.Abs(float64(emb[0])-0.6) > 1e-6 || math.Abs(float64(emb[2])-0.8) > 1e-6 {
		t.Errorf("vector not normalized: %v", emb)
	}

	if _, err := e.Embed(context.Background(), "hello world"); err != nil {
		t.Fatalf("cached Embed: %v", err)
	}
	if calls != 1 {
		t.Errorf("expected cache to absorb the second call, gateway saw %d", calls)
	}
}

func TestHTTPEmbedder_gatewayError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "model not loaded", http.StatusInternalServerError)
	}))
	defer srv.Close()

	e := NewHTTPEmbedder(srv.URL, "test-model", 4, time.Second)
	if _, err := e.Embed(context.Background(), "text"); !errors.Is(err, models.ErrEmbeddingFailure) {
		t.Errorf("expected ErrEmbeddingFailure, got %v", err)
	}
}

func TestHTTPEmbedder_dimensionMismatch(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(embedResponse{Embedding: []float64{1, 2}})
	}))
	defer srv.Close()

	e := NewHTTPEmbedder(srv.URL, "test-model", 4, time.Second)
	if _, err := e.Embed(context.Background(), "text"); !errors.Is(err, models.ErrEmbeddingFailure) {
		t.Errorf("expected ErrEmbeddingFailure on wrong dimensionality, got %v", err)
	}
}

func TestHTTPEmbedder_emptyInput(t *testing.T) {
	e := NewHTTPEmbedder("http://unused", "test-model", 4, time.Second)
	if _, err := e.Embed(context.Background(), "   "); !errors.Is(err, models.ErrEmbeddingFailure) {
		t.Errorf("expected ErrEmbeddingFailure on empty input, got %v", err)
	}
}

func TestMockEmbedder_deterministic(t *testing.T) {
	e := NewMockEmbedder(64)
	a1, err := e.Embed(context.Background(), "survey methodology")
	if err != nil {
		t.Fatal(err)
	}
	a2, _ := e.Embed(context.Background(), "survey methodology")
	b, _ := e.Embed(context.Background(), "unrelated gardening tips")
	for i := range a1 {
		if a1[i] != a2[i] {
			t.Fatal("same text produced different embeddings")
		}
	}
	var norm, dot float64
	for i := range a1 {
		norm += float64(a1[i]) * float64(a1[i])
		dot += float64(a1[i]) * float64(b[i])
	}
	if math.Abs(norm-1.0) > 1e-5 {
		t.Errorf("embedding not unit length: %f", norm)
	}
	if math.Abs(dot-1.0) < 1e-5 {
		t.Error("different texts should not be identical")
	}
}

func TestMockEmbedder_batchOrder(t *testing.T) {
	e := NewMockEmbedder(32)
	texts := []string{"first text", "second text", "third text"}
	batch, err := e.EmbedBatch(context.Background(), texts)
	if err != nil {
		t.Fatal(err)
	}
	if len(batch) != 3 {
		t.Fatalf("got %d embeddings", len(batch))
	}
	for i, text := range texts {
		single, _ := e.Embed(context.Background(), text)
		for j := range single {
			if batch[i][j] != single[j] {
				t.Fatalf("batch result %d does not match single embedding", i)
			}
		}
	}
}
