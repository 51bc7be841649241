package vectorstore

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/paperbase/paperbase/internal/models"
	"github.com/pgvector/pgvector-go"
)

// PgvectorStore persists chunks in PostgreSQL with the pgvector extension.
// The cosine distance operator returns 1-cos, so similarity is recovered as
// 1-distance and rescaled from [-1,1] to [0,1].
type PgvectorStore struct {
	pool       *pgxpool.Pool
	dimensions int
}

// NewPgvectorStore connects to PostgreSQL and ensures the chunks table and
// vector extension exist.
func NewPgvectorStore(ctx context.Context, connString string, dimensions int) (*PgvectorStore, error) {
	if dimensions <= 0 {
		return nil, fmt.Errorf("dimensions must be positive")
	}
	pool, err := pgxpool.New(ctx, connString)
	if err != nil {
		return nil, fmt.Errorf("connect to postgres: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping postgres: %w", err)
	}
	s := &PgvectorStore{pool: pool, dimensions: dimensions}
	if err := s.createSchema(ctx); err != nil {
		pool.Close()
		return nil, err
	}
	return s, nil
}

func (s *PgvectorStore) createSchema(ctx context.Context) error {
	schema := fmt.Sprintf(`
	CREATE EXTENSION IF NOT EXISTS vector;

	CREATE TABLE IF NOT EXISTS chunks (
		id TEXT PRIMARY KEY,
		document_id TEXT NOT NULL,
		sequence_index INT NOT NULL,
		section_label TEXT NOT NULL DEFAULT '',
		chunk_type TEXT NOT NULL,
		parent_chunk_id TEXT NOT NULL DEFAULT '',
		token_count INT NOT NULL,
		content TEXT NOT NULL,
		embedding vector(%d) NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_chunks_document ON chunks(document_id);
	`, s.dimensions)
	if _, err := s.pool.Exec(ctx, schema); err != nil {
		return fmt.Errorf("create schema: %w", err)
	}
	return nil
}

// Upsert inserts or replaces chunks in a single transaction.
func (s *PgvectorStore) Upsert(ctx context.Context, chunks []models.Chunk) error {
	return s.withTx(ctx, func(tx pgx.Tx) error {
		return upsertChunks(ctx, tx, chunks)
	})
}

// Query returns the k nearest chunks by cosine distance, with similarity
// normalized to [0,1].
func (s *PgvectorStore) Query(ctx context.Context, vector []float32, k int) ([]Match, error) {
	if len(vector) != s.dimensions {
		return nil, fmt.Errorf("query dimension mismatch: got %d, expected %d", len(vector), s.dimensions)
	}
	if k <= 0 {
		return nil, nil
	}
	rows, err := s.pool.Query(ctx, `
		SELECT id, document_id, sequence_index, section_label, chunk_type,
		       parent_chunk_id, token_count, content,
		       1 - (embedding <=> $1) AS cosine
		FROM chunks
		ORDER BY embedding <=> $1
		LIMIT $2
	`, pgvector.NewVector(vector), k)
	if err != nil {
		return nil, fmt.Errorf("query chunks: %w", err)
	}
	defer rows.Close()

	var matches []Match
	for rows.Next() {
		var chunk models.Chunk
		var chunkType string
		var cosine float64
		if err := rows.Scan(&chunk.ID, &chunk.DocumentID, &chunk.SequenceIndex,
			&chunk.SectionLabel, &chunkType, &chunk.ParentChunkID,
			&chunk.TokenCount, &chunk.Text, &cosine); err != nil {
			return nil, fmt.Errorf("scan chunk: %w", err)
		}
		chunk.Type = models.ChunkType(chunkType)
		matches = append(matches, Match{Chunk: chunk, Similarity: (cosine + 1) / 2})
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("read chunks: %w", err)
	}
	return matches, nil
}

// DeleteByDocument removes all chunks of the document.
func (s *PgvectorStore) DeleteByDocument(ctx context.Context, documentID string) error {
	if _, err := s.pool.Exec(ctx, `DELETE FROM chunks WHERE document_id = $1`, documentID); err != nil {
		return fmt.Errorf("delete chunks for %s: %w", documentID, err)
	}
	return nil
}

// ReplaceDocument deletes the document's old chunks and writes the new set in
// one transaction, so a failed ingestion rolls back to the previous state.
func (s *PgvectorStore) ReplaceDocument(ctx context.Context, documentID string, chunks []models.Chunk) error {
	return s.withTx(ctx, func(tx pgx.Tx) error {
		if _, err := tx.Exec(ctx, `DELETE FROM chunks WHERE document_id = $1`, documentID); err != nil {
			return fmt.Errorf("delete chunks for %s: %w", documentID, err)
		}
		return upsertChunks(ctx, tx, chunks)
	})
}

// Count returns the number of stored chunks.
func (s *PgvectorStore) Count(ctx context.Context) (int, error) {
	var n int
	if err := s.pool.QueryRow(ctx, `SELECT count(*) FROM chunks`).Scan(&n); err != nil {
		return 0, fmt.Errorf("count chunks: %w", err)
	}
	return n, nil
}

// Close releases the connection pool.
func (s *PgvectorStore) Close() error {
	s.pool.Close()
	return nil
}

func (s *PgvectorStore) withTx(ctx context.Context, fn func(pgx.Tx) error) error {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback(ctx)
	if err := fn(tx); err != nil {
		return err
	}
	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit tx: %w", err)
	}
	return nil
}

func upsertChunks(ctx context.Context, tx pgx.Tx, chunks []models.Chunk) error {
	for _, chunk := range chunks {
		_, err := tx.Exec(ctx, `
			INSERT INTO chunks (id, document_id, sequence_index, section_label,
			                    chunk_type, parent_chunk_id, token_count, content, embedding)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
			ON CONFLICT (id) DO UPDATE SET
				document_id = EXCLUDED.document_id,
				sequence_index = EXCLUDED.sequence_index,
				section_label = EXCLUDED.section_label,
				chunk_type = EXCLUDED.chunk_type,
				parent_chunk_id = EXCLUDED.parent_chunk_id,
				token_count = EXCLUDED.token_count,
				content = EXCLUDED.content,
				embedding = EXCLUDED.embedding
		`, chunk.ID, chunk.DocumentID, chunk.SequenceIndex, chunk.SectionLabel,
			string(chunk.Type), chunk.ParentChunkID, chunk.TokenCount, chunk.Text,
			pgvector.NewVector(chunk.Embedding))
		if err != nil {
			return fmt.Errorf("upsert chunk %s: %w", chunk.ID, err)
		}
	}
	return nil
}
