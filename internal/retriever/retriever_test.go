package retriever

import (
	"context"
	"errors"
	"testing"

	"github.com/paperbase/paperbase/internal/config"
	"github.com/paperbase/paperbase/internal/embedding"
	"github.com/paperbase/paperbase/internal/models"
	"github.com/paperbase/paperbase/internal/vectorstore"
)

// stubStore returns canned matches and records the requested k.
type stubStore struct {
	matches    []vectorstore.Match
	err        error
	requestedK int
	queried    bool
}

func (s *stubStore) Upsert(ctx context.Context, chunks []models.Chunk) error { return nil }

func (s *stubStore) Query(ctx context.Context, vector []float32, k int) ([]vectorstore.Match, error) {
	s.queried = true
	s.requestedK = k
	if s.err != nil {
		return nil, s.err
	}
	if k < len(s.matches) {
		return s.matches[:k], nil
	}
	return s.matches, nil
}

func (s *stubStore) DeleteByDocument(ctx context.Context, documentID string) error { return nil }
func (s *stubStore) Count(ctx context.Context) (int, error)                        { return len(s.matches), nil }
func (s *stubStore) Close() error                                                  { return nil }

func testConfig() *config.RetrievalConfig {
	cfg := &config.Config{}
	config.ApplyDefaults(cfg)
	return &cfg.Retrieval
}

func match(id, docID, label, text string, seq int, similarity float64) vectorstore.Match {
	return vectorstore.Match{
		Chunk: models.Chunk{
			ID:            id,
			DocumentID:    docID,
			Text:          text,
			SectionLabel:  label,
			Type:          models.ChunkParagraph,
			SequenceIndex: seq,
		},
		Similarity: similarity,
	}
}

func TestRetrieve_sectionBoostMonotonicity(t *testing.T) {
	store := &stubStore{matches: []vectorstore.Match{
		match("a", "doc1", "Abstract", "overview of the paper", 0, 0.8),
		match("b", "doc1", "Methods", "description of the study design", 5, 0.8),
	}}
	r := New(embedding.NewMockEmbedder(32), store, testConfig())

	resp, err := r.Retrieve(context.Background(), &models.RetrievalQuery{Query: "What methodology was used?"})
	if err != nil {
		t.Fatal(err)
	}
	if len(resp.Results) != 2 {
		t.Fatalf("got %d results", len(resp.Results))
	}
	first := resp.Results[0]
	if first.Chunk.SectionLabel != "Methods" {
		t.Errorf("boosted chunk should rank first, got %q", first.Chunk.SectionLabel)
	}
	if first.SectionBoost != 1.5 {
		t.Errorf("section boost = %f, want 1.5", first.SectionBoost)
	}
	if resp.Results[1].SectionBoost != 1.0 {
		t.Errorf("unboosted chunk got boost %f", resp.Results[1].SectionBoost)
	}
	if first.FinalScore < resp.Results[1].FinalScore {
		t.Error("matching section must never score below a non-matching one")
	}
	if len(resp.DetectedSections) == 0 || resp.DetectedSections[0] != "Methods" {
		t.Errorf("detected sections = %v", resp.DetectedSections)
	}
}

func TestRetrieve_scoreCappedAtOne(t *testing.T) {
	store := &stubStore{matches: []vectorstore.Match{
		match("a", "doc1", "Methods", "the methodology used here", 0, 1.0),
	}}
	r := New(embedding.NewMockEmbedder(32), store, testConfig())

	resp, err := r.Retrieve(context.Background(), &models.RetrievalQuery{Query: "methodology used"})
	if err != nil {
		t.Fatal(err)
	}
	got := resp.Results[0].FinalScore
	if got > 1.0 || got < 0 {
		t.Errorf("final score %f out of [0,1]", got)
	}
	// semantic 1.0*0.7 + lexical 1.0*0.3 = 1.0, boosted by 1.5 and capped.
	if got != 1.0 {
		t.Errorf("final score = %f, want capped 1.0", got)
	}
}

func TestRetrieve_tieBreakByDocumentThenSequence(t *testing.T) {
	store := &stubStore{matches: []vectorstore.Match{
		match("late", "doc2", "", "zebra zebra zebra", 3, 0.5),
		match("early", "doc1", "", "zebra zebra zebra", 7, 0.5),
		match("earliest", "doc1", "", "zebra zebra zebra", 2, 0.5),
	}}
	r := New(embedding.NewMockEmbedder(32), store, testConfig())

	resp, err := r.Retrieve(context.Background(), &models.RetrievalQuery{Query: "unrelated words entirely"})
	if err != nil {
		t.Fatal(err)
	}
	var ids []string
	for _, res := range resp.Results {
		ids = append(ids, res.Chunk.ID)
	}
	want := []string{"earliest", "early", "late"}
	for i := range want {
		if ids[i] != want[i] {
			t.Fatalf("tie order = %v, want %v", ids, want)
		}
	}
	for i, res := range resp.Results {
		if res.Rank != i+1 {
			t.Errorf("result %d has rank %d", i, res.Rank)
		}
	}
}

func TestRetrieve_invalidQueryBeforeExternalCalls(t *testing.T) {
	store := &stubStore{}
	r := New(embedding.NewMockEmbedder(32), store, testConfig())

	_, err := r.Retrieve(context.Background(), &models.RetrievalQuery{Query: "  "})
	if !errors.Is(err, models.ErrInvalidQuery) {
		t.Fatalf("expected ErrInvalidQuery, got %v", err)
	}
	if store.queried {
		t.Error("vector store must not be called for an invalid query")
	}
}

func TestRetrieve_storeUnavailable(t *testing.T) {
	store := &stubStore{err: errors.New("connection refused")}
	r := New(embedding.NewMockEmbedder(32), store, testConfig())

	_, err := r.Retrieve(context.Background(), &models.RetrievalQuery{Query: "anything"})
	if !errors.Is(err, models.ErrRetrievalUnavailable) {
		t.Fatalf("expected ErrRetrievalUnavailable, got %v", err)
	}
}

func TestRetrieve_zeroCandidates(t *testing.T) {
	store := &stubStore{}
	r := New(embedding.NewMockEmbedder(32), store, testConfig())

	resp, err := r.Retrieve(context.Background(), &models.RetrievalQuery{Query: "anything"})
	if err != nil {
		t.Fatalf("empty store should not error: %v", err)
	}
	if len(resp.Results) != 0 {
		t.Errorf("expected no results, got %d", len(resp.Results))
	}
}

func TestRetrieve_overFetchesCandidates(t *testing.T) {
	store := &stubStore{matches: []vectorstore.Match{
		match("a", "doc1", "", "some text", 0, 0.9),
	}}
	r := New(embedding.NewMockEmbedder(32), store, testConfig())

	_, err := r.Retrieve(context.Background(), &models.RetrievalQuery{Query: "anything", TopK: 3})
	if err != nil {
		t.Fatal(err)
	}
	if store.requestedK != 12 {
		t.Errorf("candidate fetch k = %d, want 4x top_k = 12", store.requestedK)
	}
}

func TestRetrieve_truncatesToTopK(t *testing.T) {
	var matches []vectorstore.Match
	for i := 0; i < 8; i++ {
		matches = append(matches, match(
			string(rune('a'+i)), "doc1", "", "filler text", i, 0.9-float64(i)*0.05))
	}
	store := &stubStore{matches: matches}
	r := New(embedding.NewMockEmbedder(32), store, testConfig())

	resp, err := r.Retrieve(context.Background(), &models.RetrievalQuery{Query: "anything", TopK: 2})
	if err != nil {
		t.Fatal(err)
	}
	if len(resp.Results) != 2 {
		t.Errorf("got %d results, want 2", len(resp.Results))
	}
}

func TestLexicalScore(t *testing.T) {
	terms := []string{"mobile", "learning", "habits"}
	if got := lexicalScore(terms, "A study of mobile learning in schools."); got < 0.66 || got > 0.67 {
		t.Errorf("lexical score = %f, want 2/3", got)
	}
	if got := lexicalScore(terms, "nothing relevant here"); got != 0 {
		t.Errorf("no overlap should score 0, got %f", got)
	}
	if got := lexicalScore(nil, "any text"); got != 0 {
		t.Errorf("no content terms should score 0, got %f", got)
	}
}
