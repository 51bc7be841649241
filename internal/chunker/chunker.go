// Package chunker turns cleaned document text into hierarchical,
// sentence-aligned chunks: one summary chunk per detected section, paragraph
// chunks with sentence overlap inside each section, and a synthetic
// document-overview chunk stitched from the section summaries.
package chunker

import (
	"fmt"
	"strings"

	"github.com/paperbase/paperbase/internal/models"
	"github.com/paperbase/paperbase/internal/textproc"
	"go.uber.org/zap"
)

// Chunker splits a document into section-summary, paragraph, and synthetic
// chunks. All chunk boundaries are sentence boundaries.
type Chunker struct {
	targetTokens     int
	overlapSentences int
	segmenter        *textproc.Segmenter
	detector         *textproc.Detector
	logger           *zap.Logger // optional; when set, logs oversized chunks
}

// Option configures a Chunker.
type Option func(*Chunker)

// WithLogger sets a logger for degradation events (oversized sentences).
func WithLogger(l *zap.Logger) Option {
	return func(c *Chunker) { c.logger = l }
}

// New creates a chunker. targetTokens bounds the approximate size of each
// chunk; overlapSentences is the number of sentences repeated as a prefix
// between adjacent paragraph chunks of the same section.
func New(targetTokens, overlapSentences int, segmenter *textproc.Segmenter, detector *textproc.Detector, opts ...Option) *Chunker {
	c := &Chunker{
		targetTokens:     targetTokens,
		overlapSentences: overlapSentences,
		segmenter:        segmenter,
		detector:         detector,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Chunk segments text, detects section boundaries, and emits the ordered chunk
// list for the document. Chunk IDs are derived from the document id and the
// per-type position, so re-chunking identical text yields identical ids.
// Empty or whitespace-only text yields no chunks.
func (c *Chunker) Chunk(docID, text string) []models.Chunk {
	if strings.TrimSpace(text) == "" {
		return nil
	}
	sentences := c.segmenter.Segment(text)
	if len(sentences) == 0 {
		return nil
	}
	boundaries := c.detector.DetectSections(sentences)
	spans := textproc.Spans(boundaries, len(sentences))

	var chunks []models.Chunk
	counts := make(map[models.ChunkType]int)
	seq := 0
	emit := func(chunkType models.ChunkType, sectionLabel, parentID string, texts []string) models.Chunk {
		joined := strings.Join(texts, " ")
		chunk := models.Chunk{
			ID:            chunkID(docID, chunkType, counts[chunkType]),
			DocumentID:    docID,
			Text:          joined,
			TokenCount:    EstimateTokens(joined),
			SectionLabel:  sectionLabel,
			Type:          chunkType,
			ParentChunkID: parentID,
			SequenceIndex: seq,
		}
		counts[chunkType]++
		seq++
		chunks = append(chunks, chunk)
		return chunk
	}

	var summaryTexts []string
	for _, span := range spans {
		summary := emit(models.ChunkSectionSummary, span.Label, "", c.sectionSummary(sentences, span))
		summaryTexts = append(summaryTexts, summary.Text)

		for _, texts := range c.paragraphs(sentences, span) {
			emit(models.ChunkParagraph, span.Label, summary.ID, texts)
		}
	}

	// A one-span document's summary already is the overview.
	if len(spans) > 1 {
		emit(models.ChunkSynthetic, "", "", c.overview(summaryTexts))
	}
	return chunks
}

// sectionSummary returns the opening sentences of the span, bounded by the
// target token budget.
func (c *Chunker) sectionSummary(sentences []textproc.Sentence, span textproc.Span) []string {
	var texts []string
	tokens := 0
	for i := span.Start; i < span.End; i++ {
		text := sentences[i].Text()
		cost := EstimateTokens(text)
		if len(texts) > 0 && tokens+cost > c.targetTokens {
			break
		}
		texts = append(texts, text)
		tokens += cost
		if tokens >= c.targetTokens {
			break
		}
	}
	return texts
}

// paragraphs greedily accumulates the span's sentences into chunks, cutting at
// the token budget or at a paragraph break, and prefixes each chunk after the
// first with the tail sentences of its predecessor. Every chunk advances by at
// least one fresh sentence, so the overlap prefix cannot stall the walk.
// Overlap never crosses a section boundary.
func (c *Chunker) paragraphs(sentences []textproc.Sentence, span textproc.Span) [][]string {
	var out [][]string
	i := span.Start
	var overlap []string
	for i < span.End {
		texts := append([]string(nil), overlap...)
		tokens := 0
		for _, t := range texts {
			tokens += EstimateTokens(t)
		}
		fresh := 0
		for i < span.End {
			sent := sentences[i]
			text := sent.Text()
			cost := EstimateTokens(text)
			if fresh > 0 && tokens+cost > c.targetTokens {
				break
			}
			if cost > c.targetTokens && c.logger != nil {
				c.logger.Warn("sentence exceeds chunk token budget",
					zap.Int("tokens", cost),
					zap.Int("target", c.targetTokens))
			}
			texts = append(texts, text)
			tokens += cost
			fresh++
			i++
			if sent.EndsParagraph() || tokens >= c.targetTokens {
				break
			}
		}
		out = append(out, texts)
		// Carrying the whole chunk forward would make it a strict prefix of
		// its successor, so the overlap is capped below the chunk's length.
		n := c.overlapSentences
		if n > len(texts)-1 {
			n = len(texts) - 1
		}
		overlap = tailSentences(texts, n)
	}
	return out
}

// overview stitches section summaries into one synthetic document chunk,
// capped at twice the target token budget.
func (c *Chunker) overview(summaryTexts []string) []string {
	budget := 2 * c.targetTokens
	var texts []string
	tokens := 0
	for _, t := range summaryTexts {
		cost := EstimateTokens(t)
		if len(texts) > 0 && tokens+cost > budget {
			break
		}
		texts = append(texts, t)
		tokens += cost
	}
	return texts
}

func tailSentences(texts []string, n int) []string {
	if n <= 0 || len(texts) == 0 {
		return nil
	}
	if len(texts) > n {
		texts = texts[len(texts)-n:]
	}
	return append([]string(nil), texts...)
}

func chunkID(docID string, chunkType models.ChunkType, n int) string {
	return fmt.Sprintf("%s_%s_%d", docID, chunkType, n)
}
