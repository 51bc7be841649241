package textproc

import "strings"

// stopwords are excluded from lexical scoring, which would otherwise be
// dominated by function words.
var stopwords = map[string]struct{}{
	"a": {}, "an": {}, "and": {}, "are": {}, "as": {}, "at": {}, "be": {},
	"by": {}, "did": {}, "do": {}, "does": {}, "for": {}, "from": {},
	"had": {}, "has": {}, "have": {}, "how": {}, "in": {}, "is": {},
	"it": {}, "its": {}, "of": {}, "on": {}, "or": {}, "that": {},
	"the": {}, "their": {}, "there": {}, "they": {}, "this": {}, "to": {},
	"was": {}, "were": {}, "what": {}, "when": {}, "where": {}, "which": {},
	"who": {}, "why": {}, "will": {}, "with": {}, "used": {}, "use": {},
	"using": {}, "can": {}, "been": {}, "being": {}, "into": {}, "about": {},
	"than": {}, "then": {}, "these": {}, "those": {}, "such": {}, "also": {},
	"we": {}, "our": {}, "not": {}, "but": {}, "if": {}, "so": {},
}

// IsStopword reports whether the (lowercase) term is a stopword.
func IsStopword(term string) bool {
	_, ok := stopwords[term]
	return ok
}

// Tokenize lowercases text and splits it into alphanumeric terms.
func Tokenize(text string) []string {
	var terms []string
	var b strings.Builder
	flush := func() {
		if b.Len() > 0 {
			terms = append(terms, b.String())
			b.Reset()
		}
	}
	for _, r := range strings.ToLower(text) {
		if r >= 'a' && r <= 'z' || r >= '0' && r <= '9' {
			b.WriteRune(r)
		} else {
			flush()
		}
	}
	flush()
	return terms
}

// ContentTerms returns the unique non-stopword terms of text, preserving
// first-seen order.
func ContentTerms(text string) []string {
	seen := make(map[string]struct{})
	var terms []string
	for _, term := range Tokenize(text) {
		if IsStopword(term) {
			continue
		}
		if _, ok := seen[term]; ok {
			continue
		}
		seen[term] = struct{}{}
		terms = append(terms, term)
	}
	return terms
}
