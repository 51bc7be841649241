package models

// ChunkType classifies how a chunk was produced.
type ChunkType string

const (
	// ChunkSectionSummary is the opening span of a detected section.
	ChunkSectionSummary ChunkType = "section-summary"
	// ChunkParagraph is a sentence-aligned span within a section.
	ChunkParagraph ChunkType = "paragraph"
	// ChunkSynthetic is a stitched, non-contiguous overview chunk.
	ChunkSynthetic ChunkType = "synthetic"
)

// Chunk is the atomic retrievable unit. Text always begins and ends on a
// sentence boundary. Chunks are created during ingestion and never mutated;
// they are destroyed only by full re-ingestion of their document.
type Chunk struct {
	ID            string    `json:"id"`
	DocumentID    string    `json:"document_id"`
	Text          string    `json:"text"`
	TokenCount    int       `json:"token_count"`
	SectionLabel  string    `json:"section_label,omitempty"` // empty when no section was detected
	Type          ChunkType `json:"chunk_type"`
	ParentChunkID string    `json:"parent_chunk_id,omitempty"` // paragraph -> enclosing section summary
	SequenceIndex int       `json:"sequence_index"`
	Embedding     []float32 `json:"-"`
}
