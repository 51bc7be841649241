// Package storage provides the document registry: bookkeeping about ingested
// documents (source, page and chunk counts, extraction time). Chunk vectors
// and text live in the vector store; this registry answers "what has been
// ingested" without touching it.
package storage

import (
	"context"

	"github.com/paperbase/paperbase/internal/models"
)

// Storage defines document registry operations.
type Storage interface {
	// UpsertDocument inserts the document record, superseding any previous
	// record with the same id.
	UpsertDocument(ctx context.Context, doc *models.Document) error
	GetDocument(ctx context.Context, id string) (*models.Document, error)
	DeleteDocument(ctx context.Context, id string) error
	ListDocuments(ctx context.Context, offset, limit int) ([]*models.Document, error)
	CountDocuments(ctx context.Context) (int64, error)
	Close() error
}
