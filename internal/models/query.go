package models

import (
	"fmt"
	"strings"
)

// RetrievalQuery represents a retrieval request. Queries are ephemeral and
// never persisted. A zero TopK means "use the configured default".
type RetrievalQuery struct {
	Query string `json:"query"`
	TopK  int    `json:"top_k,omitempty"`
}

// Validate rejects queries with no usable text. Returns ErrInvalidQuery
// (wrapped) so callers can classify with errors.Is.
func (q *RetrievalQuery) Validate() error {
	if strings.TrimSpace(q.Query) == "" {
		return fmt.Errorf("%w: query text is empty", ErrInvalidQuery)
	}
	return nil
}

// ClampTopK resolves TopK against the configured default and ceiling.
func (q *RetrievalQuery) ClampTopK(defaultTopK, maxTopK int) {
	if q.TopK <= 0 {
		q.TopK = defaultTopK
	}
	if maxTopK > 0 && q.TopK > maxTopK {
		q.TopK = maxTopK
	}
}

// ScoredResult pairs a chunk with its retrieval scores. Produced fresh per
// query; never persisted.
type ScoredResult struct {
	Chunk         *Chunk  `json:"chunk"`
	SemanticScore float64 `json:"semantic_score"`
	LexicalScore  float64 `json:"lexical_score"`
	SectionBoost  float64 `json:"section_boost"`
	FinalScore    float64 `json:"final_score"`
	Rank          int     `json:"rank"`
}

// RetrievalResponse is the response for a retrieval request.
type RetrievalResponse struct {
	Results          []*ScoredResult `json:"results"`
	DetectedSections []string        `json:"detected_sections,omitempty"`
	QueryTime        int64           `json:"query_time_ms"`
	Query            string          `json:"query"`
}
