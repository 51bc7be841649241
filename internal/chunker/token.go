package chunker

import (
	"math"
	"strings"
)

// tokensPerWord converts a whitespace word count into an approximate
// subword-token count. English prose averages roughly 4 tokens per 3 words.
const tokensPerWord = 1.33

// EstimateTokens approximates the number of model tokens in text. It is a
// deterministic estimate based on word count, monotonic with text length, not
// an exact tokenizer.
func EstimateTokens(text string) int {
	words := len(strings.Fields(text))
	if words == 0 {
		return 0
	}
	return int(math.Ceil(float64(words) * tokensPerWord))
}
