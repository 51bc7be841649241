package textproc

import (
	"strings"
	"unicode"
)

// Sentence is one segment of source text. Raw preserves the exact source span,
// including trailing whitespace, so concatenating Raw values in order
// reproduces the segmenter's input byte-for-byte.
type Sentence struct {
	Raw string
}

// Text returns the sentence with surrounding whitespace trimmed.
func (s Sentence) Text() string { return strings.TrimSpace(s.Raw) }

// EndsParagraph reports whether the sentence is followed by a blank line in
// the source text.
func (s Sentence) EndsParagraph() bool {
	newlines := 0
	for i := len(s.Raw) - 1; i >= 0; i-- {
		switch s.Raw[i] {
		case '\n':
			newlines++
		case ' ', '\t', '\r':
		default:
			return newlines >= 2
		}
	}
	return newlines >= 2
}

// Segmenter splits text into sentences, aware of abbreviations common in
// academic prose ("et al.", "Fig.", "p.") and of terminators inside
// parenthetical citations.
type Segmenter struct {
	abbrevs map[string]struct{}
}

// NewSegmenter creates a segmenter with the given abbreviation list. Entries
// are matched case-insensitively, without their trailing period. A nil list
// uses DefaultAbbreviations; an empty non-nil list disables suppression.
func NewSegmenter(abbreviations []string) *Segmenter {
	if abbreviations == nil {
		abbreviations = DefaultAbbreviations()
	}
	set := make(map[string]struct{}, len(abbreviations))
	for _, a := range abbreviations {
		set[strings.ToLower(strings.TrimSuffix(a, "."))] = struct{}{}
	}
	return &Segmenter{abbrevs: set}
}

// DefaultAbbreviations returns the built-in abbreviation list. Kept as data so
// deployments can tune it per domain without code changes.
func DefaultAbbreviations() []string {
	return []string{
		"dr", "mr", "mrs", "ms", "prof", "sr", "jr",
		"vs", "etc", "al", "fig", "figs", "eq", "eqs",
		"vol", "vols", "no", "nos", "pp", "p",
		"inc", "corp", "ltd", "co",
		"cf", "viz", "approx", "resp", "ca",
		"jan", "feb", "mar", "apr", "jun", "jul", "aug", "sep", "oct", "nov", "dec",
	}
}

// Segment splits text into sentences. A split happens after terminal
// punctuation followed by whitespace and a capital letter (or end of text),
// unless the preceding token is a known abbreviation or the terminator sits
// inside a parenthetical. Text without terminal punctuation is returned as a
// single sentence; empty input yields no sentences.
func (s *Segmenter) Segment(text string) []Sentence {
	if text == "" {
		return nil
	}
	runes := []rune(text)
	var sentences []Sentence
	start := 0
	depth := 0
	for i := 0; i < len(runes); i++ {
		switch runes[i] {
		case '(', '[':
			depth++
			continue
		case ')', ']':
			if depth > 0 {
				depth--
			}
			continue
		case '.', '?', '!':
		default:
			continue
		}
		if depth > 0 {
			// Inside a parenthetical citation such as (Smith et al., 2020).
			continue
		}
		// Runs of terminators (ellipsis, "?!") split after the last one.
		j := i
		for j+1 < len(runes) && isTerminator(runes[j+1]) {
			j++
		}
		if i == j && runes[i] == '.' && s.suppressPeriod(runes, i) {
			continue
		}
		k := j + 1
		for k < len(runes) && isClosingQuote(runes[k]) {
			k++
		}
		w := k
		for w < len(runes) && unicode.IsSpace(runes[w]) {
			w++
		}
		if w < len(runes) && (w == k || !startsSentence(runes[w])) {
			i = j
			continue
		}
		sentences = append(sentences, Sentence{Raw: string(runes[start:w])})
		start = w
		i = w - 1
	}
	if start < len(runes) {
		sentences = append(sentences, Sentence{Raw: string(runes[start:])})
	}
	return sentences
}

// suppressPeriod reports whether the period at index i ends a known
// abbreviation or a single-letter initial rather than a sentence.
func (s *Segmenter) suppressPeriod(runes []rune, i int) bool {
	end := i
	begin := end
	for begin > 0 && unicode.IsLetter(runes[begin-1]) {
		begin--
	}
	if begin == end {
		return false
	}
	word := strings.ToLower(string(runes[begin:end]))
	if end-begin == 1 {
		return true // single-letter initial, e.g. "J. Smith" or "p. 12"
	}
	_, ok := s.abbrevs[word]
	return ok
}

func isTerminator(r rune) bool {
	return r == '.' || r == '?' || r == '!'
}

func isClosingQuote(r rune) bool {
	return r == '"' || r == '\'' || r == '”' || r == '’'
}

func startsSentence(r rune) bool {
	return unicode.IsUpper(r) || unicode.IsDigit(r) ||
		r == '"' || r == '\'' || r == '“' || r == '‘'
}
