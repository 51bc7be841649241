// Package ingest orchestrates document ingestion: clean extracted pages,
// chunk them, embed the chunks with bounded fan-out, and atomically swap the
// document's chunk set in the vector store.
package ingest

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/paperbase/paperbase/internal/chunker"
	"github.com/paperbase/paperbase/internal/config"
	"github.com/paperbase/paperbase/internal/embedding"
	"github.com/paperbase/paperbase/internal/extract"
	"github.com/paperbase/paperbase/internal/fileid"
	"github.com/paperbase/paperbase/internal/models"
	"github.com/paperbase/paperbase/internal/storage"
	"github.com/paperbase/paperbase/internal/textproc"
	"github.com/paperbase/paperbase/internal/vectorstore"
	"go.uber.org/zap"
)

// Pipeline ingests documents into the registry and vector store.
type Pipeline struct {
	storage   storage.Storage
	embedder  embedding.Embedder
	store     vectorstore.Store
	chunker   *chunker.Chunker
	extractor *extract.Extractor
	embedCfg  *config.EmbeddingConfig
	logger    *zap.Logger // optional; when set, logs ingestion events
}

// Option configures a Pipeline.
type Option func(*Pipeline)

// WithLogger sets a logger for ingestion events.
func WithLogger(l *zap.Logger) Option {
	return func(p *Pipeline) { p.logger = l }
}

// NewPipeline creates an ingestion pipeline with the given dependencies.
// extractor may be nil when only pre-extracted pages are ingested.
func NewPipeline(
	st storage.Storage,
	embedder embedding.Embedder,
	store vectorstore.Store,
	ch *chunker.Chunker,
	extractor *extract.Extractor,
	embedCfg *config.EmbeddingConfig,
	opts ...Option,
) *Pipeline {
	p := &Pipeline{
		storage:   st,
		embedder:  embedder,
		store:     store,
		chunker:   ch,
		extractor: extractor,
		embedCfg:  embedCfg,
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// IngestDocument runs the full pipeline over pre-extracted pages. On success
// the registry record and the vector store chunk set are both replaced; on
// any embedding or store failure, nothing is committed and the document's
// previous chunks remain intact.
//
// A document whose pages clean down to nothing is still registered, with zero
// chunks, and ErrExtractionEmpty is returned alongside it so callers can
// surface a warning.
func (p *Pipeline) IngestDocument(ctx context.Context, input *models.DocumentInput) (*models.Document, error) {
	if input.ID == "" {
		input.ID = uuid.New().String()
	}
	doc := &models.Document{
		ID:          input.ID,
		Title:       input.Title,
		SourcePath:  input.SourcePath,
		PageCount:   len(input.Pages),
		ExtractedAt: time.Now(),
	}

	pages := textproc.CleanPages(input.Pages)
	text := strings.Join(pages, "\n\n")
	chunks := p.chunker.Chunk(doc.ID, text)

	if len(chunks) == 0 {
		if err := vectorstore.Replace(ctx, p.store, doc.ID, nil); err != nil {
			return nil, fmt.Errorf("%w: clear chunks: %v", models.ErrRetrievalUnavailable, err)
		}
		if err := p.storage.UpsertDocument(ctx, doc); err != nil {
			return nil, fmt.Errorf("register document: %w", err)
		}
		if p.logger != nil {
			p.logger.Warn("document produced no usable text",
				zap.String("doc_id", doc.ID), zap.String("title", doc.Title))
		}
		return doc, fmt.Errorf("%w: document %s", models.ErrExtractionEmpty, doc.ID)
	}

	if err := p.embedChunks(ctx, chunks); err != nil {
		return nil, err
	}
	if err := vectorstore.Replace(ctx, p.store, doc.ID, chunks); err != nil {
		return nil, fmt.Errorf("%w: replace chunks: %v", models.ErrRetrievalUnavailable, err)
	}

	doc.ChunkCount = len(chunks)
	if err := p.storage.UpsertDocument(ctx, doc); err != nil {
		return nil, fmt.Errorf("register document: %w", err)
	}
	if p.logger != nil {
		p.logger.Info("document ingested",
			zap.String("doc_id", doc.ID),
			zap.Int("pages", doc.PageCount),
			zap.Int("chunks", doc.ChunkCount))
	}
	return doc, nil
}

// embedChunks embeds every chunk with bounded concurrency. Results are
// written back by index, never by completion order. The first failure cancels
// the remaining work and aborts the ingestion.
func (p *Pipeline) embedChunks(ctx context.Context, chunks []models.Chunk) error {
	concurrency := p.embedCfg.Concurrency
	if concurrency <= 0 {
		concurrency = 1
	}
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	sem := make(chan struct{}, concurrency)
	errs := make([]error, len(chunks))
	var wg sync.WaitGroup
	for i := range chunks {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			select {
			case sem <- struct{}{}:
			case <-ctx.Done():
				errs[i] = ctx.Err()
				return
			}
			defer func() { <-sem }()
			emb, err := p.embedder.Embed(ctx, chunks[i].Text)
			if err != nil {
				errs[i] = err
				cancel()
				return
			}
			chunks[i].Embedding = emb
		}(i)
	}
	wg.Wait()
	// Prefer the failure that triggered cancellation over the cancellations
	// it caused.
	var fallback error
	for i, err := range errs {
		if err == nil {
			continue
		}
		if !errors.Is(err, context.Canceled) {
			return fmt.Errorf("embed chunk %s: %w", chunks[i].ID, err)
		}
		if fallback == nil {
			fallback = fmt.Errorf("embed chunk %s: %w", chunks[i].ID, err)
		}
	}
	return fallback
}

// IngestFile extracts, chunks, and stores the file at path. The document ID
// is derived from the absolute path so re-ingesting the same file supersedes
// its chunks. Files already ingested and unmodified since are skipped. If
// allowedExts is non-empty the file's extension must be in the list.
func (p *Pipeline) IngestFile(ctx context.Context, path string, allowedExts []string) (*models.Document, error) {
	if p.extractor == nil {
		return nil, fmt.Errorf("no extractor configured")
	}
	absPath, err := filepath.Abs(path)
	if err != nil {
		return nil, fmt.Errorf("absolute path: %w", err)
	}
	ext := strings.ToLower(filepath.Ext(absPath))
	if len(allowedExts) > 0 && !extensionAllowed(ext, allowedExts) {
		return nil, fmt.Errorf("extension %q not in allowed list", ext)
	}
	info, err := os.Stat(absPath)
	if err != nil {
		return nil, fmt.Errorf("stat file: %w", err)
	}
	if !info.Mode().IsRegular() {
		return nil, fmt.Errorf("not a regular file: %s", absPath)
	}

	docID := fileid.FileDocID(absPath)
	if doc := p.unchangedSince(ctx, docID, absPath, info); doc != nil {
		if p.logger != nil {
			p.logger.Debug("skipping unchanged file", zap.String("path", absPath))
		}
		return doc, nil
	}

	pages, err := p.extractor.ExtractPages(absPath)
	if err != nil {
		return nil, fmt.Errorf("extract %s: %w", absPath, err)
	}
	return p.IngestDocument(ctx, &models.DocumentInput{
		ID:         docID,
		Title:      filepath.Base(absPath),
		SourcePath: absPath,
		Pages:      pages,
	})
}

// unchangedSince returns the registered document when the file at absPath was
// already ingested after its last modification, else nil.
func (p *Pipeline) unchangedSince(ctx context.Context, docID, absPath string, info os.FileInfo) *models.Document {
	doc, err := p.storage.GetDocument(ctx, docID)
	if err != nil {
		return nil
	}
	if doc.SourcePath != absPath || !doc.ExtractedAt.After(info.ModTime()) {
		return nil
	}
	return doc
}

// IngestDirectory walks dir recursively and ingests each regular file whose
// extension is in allowedExts. Returns the number of files ingested; empty
// extractions count as ingested. Stops at the first hard error.
func (p *Pipeline) IngestDirectory(ctx context.Context, dir string, allowedExts []string) (int, error) {
	absDir, err := filepath.Abs(dir)
	if err != nil {
		return 0, fmt.Errorf("absolute path: %w", err)
	}
	n := 0
	err = filepath.WalkDir(absDir, func(path string, d fs.DirEntry, walkErr error) error {
		if walkErr != nil {
			return walkErr
		}
		if d.IsDir() {
			return nil
		}
		ext := strings.ToLower(filepath.Ext(path))
		if len(allowedExts) > 0 && !extensionAllowed(ext, allowedExts) {
			return nil
		}
		if _, err := p.IngestFile(ctx, path, allowedExts); err != nil {
			if models.IsExtractionEmpty(err) {
				n++
				return nil
			}
			return fmt.Errorf("ingest %s: %w", path, err)
		}
		n++
		return nil
	})
	return n, err
}

// DeleteDocument removes a document from the vector store and the registry.
func (p *Pipeline) DeleteDocument(ctx context.Context, docID string) error {
	if err := p.store.DeleteByDocument(ctx, docID); err != nil {
		return fmt.Errorf("delete chunks: %w", err)
	}
	if err := p.storage.DeleteDocument(ctx, docID); err != nil {
		return fmt.Errorf("delete document record: %w", err)
	}
	if p.logger != nil {
		p.logger.Info("document deleted", zap.String("doc_id", docID))
	}
	return nil
}

// DeleteFile removes the document previously ingested from path.
func (p *Pipeline) DeleteFile(ctx context.Context, path string) error {
	absPath, err := filepath.Abs(path)
	if err != nil {
		return fmt.Errorf("absolute path: %w", err)
	}
	return p.DeleteDocument(ctx, fileid.FileDocID(absPath))
}

func extensionAllowed(ext string, allowed []string) bool {
	for _, a := range allowed {
		if strings.EqualFold(a, ext) {
			return true
		}
	}
	return false
}
