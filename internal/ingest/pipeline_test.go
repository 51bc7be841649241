package ingest

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"testing"

	"github.com/paperbase/paperbase/internal/chunker"
	"github.com/paperbase/paperbase/internal/config"
	"github.com/paperbase/paperbase/internal/embedding"
	"github.com/paperbase/paperbase/internal/extract"
	"github.com/paperbase/paperbase/internal/models"
	"github.com/paperbase/paperbase/internal/storage"
	"github.com/paperbase/paperbase/internal/textproc"
	"github.com/paperbase/paperbase/internal/vectorstore"
)

func newTestPipeline(t *testing.T, embedder embedding.Embedder) (*Pipeline, *vectorstore.MemoryStore, storage.Storage) {
	t.Helper()
	st, err := storage.NewSQLiteStorage(filepath.Join(t.TempDir(), "registry.db"))
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { st.Close() })

	store, err := vectorstore.NewMemoryStore(embedder.Dimensions())
	if err != nil {
		t.Fatal(err)
	}
	ch := chunker.New(60, 2, textproc.NewSegmenter(nil), textproc.NewDetector())
	cfg := &config.EmbeddingConfig{Concurrency: 4}
	return NewPipeline(st, embedder, store, ch, nil, cfg), store, st
}

func paperInput(id string) *models.DocumentInput {
	return &models.DocumentInput{
		ID:    id,
		Title: "paper.pdf",
		Pages: []string{
			"A Study of Mobile Learning\nThis paper examines phone use among students.",
			"3. Methodology\nWe surveyed two hundred students across campuses. Data were coded by hand. Agreement between raters was high.",
			"4. Results\nMost students used phones daily. Usage peaked at night for most participants.",
		},
	}
}

func TestIngestDocument(t *testing.T) {
	p, store, st := newTestPipeline(t, embedding.NewMockEmbedder(32))
	ctx := context.Background()

	doc, err := p.IngestDocument(ctx, paperInput("doc1"))
	if err != nil {
		t.Fatal(err)
	}
	if doc.ChunkCount == 0 {
		t.Fatal("expected chunks")
	}
	if doc.PageCount != 3 {
		t.Errorf("page count = %d", doc.PageCount)
	}

	n, _ := store.Count(ctx)
	if n != doc.ChunkCount {
		t.Errorf("store has %d chunks, document records %d", n, doc.ChunkCount)
	}

	got, err := st.GetDocument(ctx, "doc1")
	if err != nil {
		t.Fatal(err)
	}
	if got.ChunkCount != doc.ChunkCount {
		t.Errorf("registry chunk count = %d, want %d", got.ChunkCount, doc.ChunkCount)
	}
}

func TestIngestDocument_generatesID(t *testing.T) {
	p, _, _ := newTestPipeline(t, embedding.NewMockEmbedder(32))
	input := paperInput("")
	doc, err := p.IngestDocument(context.Background(), input)
	if err != nil {
		t.Fatal(err)
	}
	if doc.ID == "" {
		t.Error("expected generated document id")
	}
}

func TestIngestDocument_idempotentReingestion(t *testing.T) {
	p, store, _ := newTestPipeline(t, embedding.NewMockEmbedder(32))
	ctx := context.Background()

	first, err := p.IngestDocument(ctx, paperInput("doc1"))
	if err != nil {
		t.Fatal(err)
	}
	second, err := p.IngestDocument(ctx, paperInput("doc1"))
	if err != nil {
		t.Fatal(err)
	}
	if first.ChunkCount != second.ChunkCount {
		t.Errorf("chunk count changed: %d -> %d", first.ChunkCount, second.ChunkCount)
	}
	n, _ := store.Count(ctx)
	if n != second.ChunkCount {
		t.Errorf("re-ingestion left %d chunks, want %d", n, second.ChunkCount)
	}
}

func TestIngestDocument_emptyExtraction(t *testing.T) {
	p, store, st := newTestPipeline(t, embedding.NewMockEmbedder(32))
	ctx := context.Background()

	doc, err := p.IngestDocument(ctx, &models.DocumentInput{ID: "doc1", Title: "blank.pdf", Pages: []string{"", "  "}})
	if !models.IsExtractionEmpty(err) {
		t.Fatalf("expected empty-extraction warning, got %v", err)
	}
	if doc == nil || doc.ChunkCount != 0 {
		t.Fatalf("document should be registered with zero chunks: %+v", doc)
	}
	if got, err := st.GetDocument(ctx, "doc1"); err != nil || got.ChunkCount != 0 {
		t.Errorf("registry record: %+v, %v", got, err)
	}
	n, _ := store.Count(ctx)
	if n != 0 {
		t.Errorf("store should hold no chunks, has %d", n)
	}
}

// failingEmbedder fails every call, for atomicity tests.
type failingEmbedder struct{ embedding.Embedder }

func newFailingEmbedder() *failingEmbedder {
	return &failingEmbedder{Embedder: embedding.NewMockEmbedder(32)}
}

func (f *failingEmbedder) Embed(ctx context.Context, text string) ([]float32, error) {
	return nil, fmt.Errorf("%w: gateway down", models.ErrEmbeddingFailure)
}

func TestIngestDocument_embeddingFailureNotCommitted(t *testing.T) {
	ctx := context.Background()
	good, store, st := newTestPipeline(t, embedding.NewMockEmbedder(32))

	doc, err := good.IngestDocument(ctx, paperInput("doc1"))
	if err != nil {
		t.Fatal(err)
	}
	before, _ := store.Count(ctx)

	bad := NewPipeline(st, newFailingEmbedder(), store,
		chunker.New(60, 2, textproc.NewSegmenter(nil), textproc.NewDetector()),
		nil, &config.EmbeddingConfig{Concurrency: 2})

	_, err = bad.IngestDocument(ctx, paperInput("doc1"))
	if !errors.Is(err, models.ErrEmbeddingFailure) {
		t.Fatalf("expected ErrEmbeddingFailure, got %v", err)
	}

	after, _ := store.Count(ctx)
	if after != before {
		t.Errorf("failed ingestion changed the store: %d -> %d", before, after)
	}
	got, err := st.GetDocument(ctx, "doc1")
	if err != nil || got.ChunkCount != doc.ChunkCount {
		t.Errorf("failed ingestion should leave the old record: %+v, %v", got, err)
	}
}

func TestDeleteDocument(t *testing.T) {
	p, store, st := newTestPipeline(t, embedding.NewMockEmbedder(32))
	ctx := context.Background()

	if _, err := p.IngestDocument(ctx, paperInput("doc1")); err != nil {
		t.Fatal(err)
	}
	if err := p.DeleteDocument(ctx, "doc1"); err != nil {
		t.Fatal(err)
	}
	n, _ := store.Count(ctx)
	if n != 0 {
		t.Errorf("store still has %d chunks", n)
	}
	if _, err := st.GetDocument(ctx, "doc1"); !errors.Is(err, models.ErrNotFound) {
		t.Errorf("registry record should be gone, got %v", err)
	}
}

func TestIngestFile_andSkipUnchanged(t *testing.T) {
	ctx := context.Background()
	st, err := storage.NewSQLiteStorage(filepath.Join(t.TempDir(), "registry.db"))
	if err != nil {
		t.Fatal(err)
	}
	defer st.Close()
	store, _ := vectorstore.NewMemoryStore(32)
	p := NewPipeline(st, embedding.NewMockEmbedder(32), store,
		chunker.New(60, 2, textproc.NewSegmenter(nil), textproc.NewDetector()),
		extract.NewExtractor(), &config.EmbeddingConfig{Concurrency: 2})

	path := filepath.Join(t.TempDir(), "paper.txt")
	content := "Some introduction text sits here. 3. Methodology\nWe surveyed students in depth."
	if err := os.WriteFile(path, []byte(content), 0600); err != nil {
		t.Fatal(err)
	}

	doc, err := p.IngestFile(ctx, path, []string{".txt", ".pdf"})
	if err != nil {
		t.Fatal(err)
	}
	if doc.ChunkCount == 0 {
		t.Fatal("expected chunks from file")
	}
	before, _ := store.Count(ctx)

	again, err := p.IngestFile(ctx, path, nil)
	if err != nil {
		t.Fatal(err)
	}
	if again.ID != doc.ID {
		t.Errorf("re-ingesting the same path changed the document id")
	}
	after, _ := store.Count(ctx)
	if after != before {
		t.Errorf("unchanged file re-ingestion altered the store: %d -> %d", before, after)
	}

	if _, err := p.IngestFile(ctx, path, []string{".pdf"}); err == nil {
		t.Error("expected extension rejection")
	}
}
