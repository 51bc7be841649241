package chunker

import (
	"fmt"
	"reflect"
	"strings"
	"testing"

	"github.com/paperbase/paperbase/internal/models"
	"github.com/paperbase/paperbase/internal/textproc"
)

func newTestChunker(targetTokens, overlapSentences int) *Chunker {
	return New(targetTokens, overlapSentences, textproc.NewSegmenter(nil), textproc.NewDetector())
}

// sevenWordSentences builds n sentences of seven words each, which the token
// estimator prices at 10 tokens apiece.
func sevenWordSentences(n int) string {
	var b strings.Builder
	for i := 1; i <= n; i++ {
		if i > 1 {
			b.WriteString(" ")
		}
		fmt.Fprintf(&b, "Sentence number %d has exactly seven words.", i)
	}
	return b.String()
}

const sectionedDoc = "Background context sentence one goes right here. Another opening sentence sits here as well.\n\n" +
	"3. Methodology\nWe surveyed many students across several campuses today. The coding procedure was applied by two raters.\n\n" +
	"4. Results\nMost students used their phones every day. Usage peaked late at night for most."

func TestChunk_hierarchy(t *testing.T) {
	c := newTestChunker(200, 2)
	chunks := c.Chunk("doc1", sectionedDoc)
	if len(chunks) == 0 {
		t.Fatal("expected chunks")
	}

	summaries := make(map[string]models.Chunk) // label -> summary chunk
	paragraphsBySection := make(map[string]int)
	var synthetic *models.Chunk
	for i := range chunks {
		ch := chunks[i]
		switch ch.Type {
		case models.ChunkSectionSummary:
			summaries[ch.SectionLabel] = ch
		case models.ChunkParagraph:
			paragraphsBySection[ch.SectionLabel]++
		case models.ChunkSynthetic:
			synthetic = &chunks[i]
		}
	}

	for _, label := range []string{"Abstract", "Methods", "Results"} {
		if _, ok := summaries[label]; !ok {
			t.Errorf("missing section-summary chunk for %q", label)
		}
		if paragraphsBySection[label] < 1 {
			t.Errorf("section %q has no paragraph chunks", label)
		}
	}
	if synthetic == nil {
		t.Fatal("expected a synthetic overview chunk")
	}
	if synthetic.SectionLabel != "" {
		t.Errorf("synthetic chunk should have no section label, got %q", synthetic.SectionLabel)
	}

	for i := range chunks {
		ch := chunks[i]
		if ch.SequenceIndex != i {
			t.Errorf("chunk %d has sequence index %d", i, ch.SequenceIndex)
		}
		if ch.DocumentID != "doc1" {
			t.Errorf("chunk %d has document id %q", i, ch.DocumentID)
		}
		if ch.Type == models.ChunkParagraph {
			parent, ok := summaries[ch.SectionLabel]
			if !ok || ch.ParentChunkID != parent.ID {
				t.Errorf("paragraph chunk %q has parent %q, want %q", ch.ID, ch.ParentChunkID, parent.ID)
			}
		}
	}

	if got := chunks[0].ID; got != "doc1_section-summary_0" {
		t.Errorf("first chunk id = %q", got)
	}
}

func TestChunk_overlap(t *testing.T) {
	c := newTestChunker(30, 2)
	chunks := c.Chunk("doc1", sevenWordSentences(10))

	seg := textproc.NewSegmenter(nil)
	var paragraphs [][]string
	for _, ch := range chunks {
		if ch.Type != models.ChunkParagraph {
			continue
		}
		var texts []string
		for _, s := range seg.Segment(ch.Text) {
			texts = append(texts, s.Text())
		}
		paragraphs = append(paragraphs, texts)
	}
	if len(paragraphs) < 2 {
		t.Fatalf("expected multiple paragraph chunks, got %d", len(paragraphs))
	}
	for i := 1; i < len(paragraphs); i++ {
		prev, cur := paragraphs[i-1], paragraphs[i]
		tail := prev[len(prev)-2:]
		if !reflect.DeepEqual(cur[:2], tail) {
			t.Errorf("chunk %d prefix %v does not repeat predecessor tail %v", i, cur[:2], tail)
		}
	}
}

func TestChunk_sentenceIntegrity(t *testing.T) {
	c := newTestChunker(30, 2)
	text := sevenWordSentences(10)
	chunks := c.Chunk("doc1", text)

	seg := textproc.NewSegmenter(nil)
	var all []string
	for _, s := range seg.Segment(text) {
		all = append(all, s.Text())
	}
	joined := strings.Join(all, " ")
	for _, ch := range chunks {
		if ch.Type == models.ChunkSynthetic {
			continue
		}
		if !strings.Contains(joined, ch.Text) {
			t.Errorf("chunk %q is not a run of whole sentences: %q", ch.ID, ch.Text)
		}
	}
}

func TestChunk_paragraphBreakCutsChunk(t *testing.T) {
	c := newTestChunker(200, 0)
	text := "First paragraph sentence one sits here. First paragraph sentence two sits here.\n\n" +
		"Second paragraph sentence one sits here."
	chunks := c.Chunk("doc1", text)

	var paragraphs []models.Chunk
	for _, ch := range chunks {
		if ch.Type == models.ChunkParagraph {
			paragraphs = append(paragraphs, ch)
		}
	}
	if len(paragraphs) != 2 {
		t.Fatalf("blank line should start a new chunk, got %d chunks", len(paragraphs))
	}
	if strings.Contains(paragraphs[0].Text, "Second paragraph") {
		t.Errorf("first chunk crossed the paragraph break: %q", paragraphs[0].Text)
	}
}

func TestChunk_oversizedSentence(t *testing.T) {
	c := newTestChunker(20, 2)
	long := "This single sentence rambles on " + strings.Repeat("and on ", 40) + "without ever stopping."
	chunks := c.Chunk("doc1", long+" Short one follows.")
	if len(chunks) == 0 {
		t.Fatal("oversized sentence must still be chunked")
	}
	found := false
	for _, ch := range chunks {
		if ch.Type == models.ChunkParagraph && strings.Contains(ch.Text, "rambles on") {
			found = true
			if ch.TokenCount <= 20 {
				t.Errorf("oversized chunk token count %d should exceed the target", ch.TokenCount)
			}
		}
	}
	if !found {
		t.Error("oversized sentence was dropped")
	}
}

func TestChunk_idempotent(t *testing.T) {
	c := newTestChunker(30, 2)
	first := c.Chunk("doc1", sectionedDoc)
	second := c.Chunk("doc1", sectionedDoc)
	if !reflect.DeepEqual(first, second) {
		t.Error("chunking the same text twice should yield identical chunks")
	}
}

func TestChunk_noHeadings(t *testing.T) {
	c := newTestChunker(30, 2)
	chunks := c.Chunk("doc1", sevenWordSentences(6))
	if len(chunks) == 0 {
		t.Fatal("headingless document must still produce chunks")
	}
	for _, ch := range chunks {
		if ch.SectionLabel != "" {
			t.Errorf("chunk %q has label %q, want unlabeled", ch.ID, ch.SectionLabel)
		}
		if ch.Type == models.ChunkSynthetic {
			t.Error("single-span document should not get a synthetic overview")
		}
	}
}

func TestChunk_empty(t *testing.T) {
	c := newTestChunker(200, 2)
	for _, text := range []string{"", "  ", "\n\n", " \t\n \n"} {
		if got := c.Chunk("doc1", text); got != nil {
			t.Errorf("Chunk(%q) should yield no chunks, got %v", text, got)
		}
	}
}

func TestEstimateTokens(t *testing.T) {
	if got := EstimateTokens(""); got != 0 {
		t.Errorf("EstimateTokens(\"\") = %d, want 0", got)
	}
	if got := EstimateTokens("Sentence number 1 has exactly seven words."); got != 10 {
		t.Errorf("seven words = %d tokens, want 10", got)
	}
	short := EstimateTokens("a b c")
	long := EstimateTokens("a b c d e f")
	if long <= short {
		t.Errorf("estimate not monotonic: %d <= %d", long, short)
	}
}
