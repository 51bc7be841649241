// Package cli provides CLI utilities for Paperbase.
package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/paperbase/paperbase/internal/models"
	"github.com/paperbase/paperbase/pkg/utils"
)

// QueryOutputFormat is the format for query result output.
type QueryOutputFormat string

const (
	// OutputText is human-readable text (default).
	OutputText QueryOutputFormat = "text"
	// OutputJSON is structured JSON for machine consumption.
	OutputJSON QueryOutputFormat = "json"
)

// WriteQueryResults writes retrieval results to w in the given format.
// Use OutputJSON for parseable output consumable by other apps.
func WriteQueryResults(w io.Writer, response *models.RetrievalResponse, format QueryOutputFormat) error {
	switch format {
	case OutputJSON:
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(response)
	default:
		writeQueryResultsText(w, response)
		return nil
	}
}

func writeQueryResultsText(w io.Writer, response *models.RetrievalResponse) {
	fmt.Fprintf(w, "\nFound %d results in %dms for %q\n", len(response.Results), response.QueryTime, response.Query)
	if len(response.DetectedSections) > 0 {
		fmt.Fprintf(w, "Boosted sections: %s\n", strings.Join(response.DetectedSections, ", "))
	}
	fmt.Fprintln(w)
	for _, result := range response.Results {
		writeOneResult(w, result)
	}
}

func writeOneResult(w io.Writer, result *models.ScoredResult) {
	fmt.Fprintf(w, "─────────────────────────────────────────────────────────\n")
	fmt.Fprintf(w, "Rank: %d | Score: %.4f (Semantic: %.4f, Lexical: %.4f, Boost: %.2fx)\n",
		result.Rank, result.FinalScore, result.SemanticScore, result.LexicalScore, result.SectionBoost)
	fmt.Fprintf(w, "Document: %s | Chunk: %s\n", result.Chunk.DocumentID, result.Chunk.ID)
	if result.Chunk.SectionLabel != "" {
		fmt.Fprintf(w, "Section: %s (%s)\n", result.Chunk.SectionLabel, result.Chunk.Type)
	}
	fmt.Fprintf(w, "\n%s\n", utils.Truncate(result.Chunk.Text, 200))
	fmt.Fprintln(w)
}

// PrintQueryResults prints retrieval results to stdout in text format.
func PrintQueryResults(response *models.RetrievalResponse) {
	_ = WriteQueryResults(os.Stdout, response, OutputText)
}
