// Package retriever runs hybrid retrieval: semantic similarity from the
// vector store, lexical term overlap, and a multiplicative boost for chunks
// whose section matches what the query is asking about.
package retriever

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/paperbase/paperbase/internal/config"
	"github.com/paperbase/paperbase/internal/embedding"
	"github.com/paperbase/paperbase/internal/models"
	"github.com/paperbase/paperbase/internal/textproc"
	"github.com/paperbase/paperbase/internal/vectorstore"
	"go.uber.org/zap"
)

// Retriever scores stored chunks against natural-language queries.
type Retriever struct {
	embedder embedding.Embedder
	store    vectorstore.Store
	cfg      *config.RetrievalConfig
	logger   *zap.Logger // optional; when set, logs per-query debug info
}

// Option configures a Retriever.
type Option func(*Retriever)

// WithLogger sets a logger for per-query debug output.
func WithLogger(l *zap.Logger) Option {
	return func(r *Retriever) { r.logger = l }
}

// New creates a retriever with the given dependencies.
func New(embedder embedding.Embedder, store vectorstore.Store, cfg *config.RetrievalConfig, opts ...Option) *Retriever {
	r := &Retriever{embedder: embedder, store: store, cfg: cfg}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Retrieve returns the top chunks for the query, ordered by final score
// descending. The query is validated before any external call; vector store
// failures abort the query rather than returning partial results. Zero
// candidates is an empty response, not an error.
func (r *Retriever) Retrieve(ctx context.Context, query *models.RetrievalQuery) (*models.RetrievalResponse, error) {
	startTime := time.Now()
	if err := query.Validate(); err != nil {
		return nil, err
	}
	query.ClampTopK(r.cfg.DefaultTopK, r.cfg.MaxTopK)

	if timeout := r.cfg.Timeout(); timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}

	families := textproc.DetectQueryFamilies(query.Query)

	queryEmbedding, err := r.embedder.Embed(ctx, query.Query)
	if err != nil {
		return nil, fmt.Errorf("embed query: %w", err)
	}

	// Over-fetch so lexical overlap and section boost can reorder beyond
	// what pure vector similarity would return.
	candidates := query.TopK * r.cfg.CandidateMultiplier
	matches, err := r.store.Query(ctx, queryEmbedding, candidates)
	if err != nil {
		return nil, fmt.Errorf("%w: vector search: %v", models.ErrRetrievalUnavailable, err)
	}

	queryTerms := textproc.ContentTerms(query.Query)
	results := make([]*models.ScoredResult, 0, len(matches))
	for i := range matches {
		match := matches[i]
		boost := 1.0
		for _, f := range families {
			if f.Matches(match.Chunk.SectionLabel) {
				boost = r.cfg.BoostFactor
				break
			}
		}
		result := &models.ScoredResult{
			Chunk:         &matches[i].Chunk,
			SemanticScore: match.Similarity,
			LexicalScore:  lexicalScore(queryTerms, match.Chunk.Text),
			SectionBoost:  boost,
		}
		score := (result.SemanticScore*r.cfg.SemanticWeight + result.LexicalScore*r.cfg.LexicalWeight) * boost
		if score > 1.0 {
			score = 1.0
		}
		result.FinalScore = score
		results = append(results, result)
	}

	sort.SliceStable(results, func(i, j int) bool {
		if results[i].FinalScore != results[j].FinalScore {
			return results[i].FinalScore > results[j].FinalScore
		}
		// Earlier document position wins; across documents, order by id.
		if results[i].Chunk.DocumentID != results[j].Chunk.DocumentID {
			return results[i].Chunk.DocumentID < results[j].Chunk.DocumentID
		}
		return results[i].Chunk.SequenceIndex < results[j].Chunk.SequenceIndex
	})
	if len(results) > query.TopK {
		results = results[:query.TopK]
	}
	for i, result := range results {
		result.Rank = i + 1
	}

	sections := make([]string, 0, len(families))
	for _, f := range families {
		sections = append(sections, f.Label())
	}
	if r.logger != nil {
		r.logger.Debug("retrieval complete",
			zap.String("query", query.Query),
			zap.Int("candidates", len(matches)),
			zap.Int("results", len(results)),
			zap.Strings("detected_sections", sections))
	}

	return &models.RetrievalResponse{
		Results:          results,
		DetectedSections: sections,
		QueryTime:        time.Since(startTime).Milliseconds(),
		Query:            query.Query,
	}, nil
}

// lexicalScore is the fraction of the query's content terms present in the
// chunk text, case-insensitive. No content terms means no lexical signal.
func lexicalScore(queryTerms []string, text string) float64 {
	if len(queryTerms) == 0 {
		return 0
	}
	chunkTerms := make(map[string]struct{})
	for _, term := range textproc.Tokenize(text) {
		chunkTerms[term] = struct{}{}
	}
	hits := 0
	for _, term := range queryTerms {
		if _, ok := chunkTerms[term]; ok {
			hits++
		}
	}
	return float64(hits) / float64(len(queryTerms))
}
