package textproc

import (
	"regexp"
	"sort"
	"strings"
	"unicode"
)

// SectionFamily is a canonical heading category. Matching is a static mapping
// (family plus synonym list), not string-similarity guessing, so behavior is
// deterministic and testable.
type SectionFamily int

const (
	FamilyUnknown SectionFamily = iota
	FamilyAbstract
	FamilyIntroduction
	FamilyLiteratureReview
	FamilyMethods
	FamilyResults
	FamilyDiscussion
	FamilyLimitations
	FamilyConclusion
)

// Label returns the canonical section label for the family.
func (f SectionFamily) Label() string {
	switch f {
	case FamilyAbstract:
		return "Abstract"
	case FamilyIntroduction:
		return "Introduction"
	case FamilyLiteratureReview:
		return "Literature Review"
	case FamilyMethods:
		return "Methods"
	case FamilyResults:
		return "Results"
	case FamilyDiscussion:
		return "Discussion"
	case FamilyLimitations:
		return "Limitations"
	case FamilyConclusion:
		return "Conclusion"
	default:
		return ""
	}
}

// Matches reports whether a chunk's section label belongs to this family.
func (f SectionFamily) Matches(label string) bool {
	return f != FamilyUnknown && FamilyOf(label) == f
}

// FamilyOf maps a section label back to its canonical family.
// Unknown labels return FamilyUnknown.
func FamilyOf(label string) SectionFamily {
	if label == "" {
		return FamilyUnknown
	}
	if f, ok := headingSynonyms[strings.ToLower(label)]; ok {
		return f
	}
	return FamilyUnknown
}

// headingSynonyms maps heading phrases to families. Multi-word phrases are
// checked before single words so "results and discussion" wins over "results".
var headingSynonyms = map[string]SectionFamily{
	"abstract": FamilyAbstract,
	"overview": FamilyAbstract,

	"introduction": FamilyIntroduction,
	"background":   FamilyIntroduction,
	"motivation":   FamilyIntroduction,

	"literature review": FamilyLiteratureReview,
	"related work":      FamilyLiteratureReview,
	"prior work":        FamilyLiteratureReview,

	"methods":               FamilyMethods,
	"method":                FamilyMethods,
	"methodology":           FamilyMethods,
	"materials and methods": FamilyMethods,
	"experimental setup":    FamilyMethods,
	"experimental design":   FamilyMethods,
	"data collection":       FamilyMethods,
	"approach":              FamilyMethods,
	"procedure":             FamilyMethods,
	"study design":          FamilyMethods,

	"results":                FamilyResults,
	"result":                 FamilyResults,
	"findings":               FamilyResults,
	"results and discussion": FamilyResults,

	"discussion": FamilyDiscussion,
	"analysis":   FamilyDiscussion,

	"limitations": FamilyLimitations,
	"limitation":  FamilyLimitations,

	"conclusion":  FamilyConclusion,
	"conclusions": FamilyConclusion,
	"summary":     FamilyConclusion,
	"future work": FamilyConclusion,
}

// queryFamilyTerms maps query vocabulary to the sections likely to answer it.
var queryFamilyTerms = map[string][]SectionFamily{
	"method":      {FamilyMethods},
	"methods":     {FamilyMethods},
	"methodology": {FamilyMethods},
	"approach":    {FamilyMethods},
	"technique":   {FamilyMethods},
	"algorithm":   {FamilyMethods},
	"procedure":   {FamilyMethods},
	"participants": {FamilyMethods},
	"sample":      {FamilyMethods},

	"result":      {FamilyResults},
	"results":     {FamilyResults},
	"finding":     {FamilyResults},
	"findings":    {FamilyResults},
	"outcome":     {FamilyResults},
	"performance": {FamilyResults},
	"accuracy":    {FamilyResults},

	"limitation":  {FamilyLimitations, FamilyDiscussion},
	"limitations": {FamilyLimitations, FamilyDiscussion},
	"weakness":    {FamilyLimitations, FamilyDiscussion},
	"weaknesses":  {FamilyLimitations, FamilyDiscussion},
	"drawback":    {FamilyLimitations, FamilyDiscussion},
	"drawbacks":   {FamilyLimitations, FamilyDiscussion},

	"conclusion":  {FamilyConclusion},
	"conclusions": {FamilyConclusion},
	"summary":     {FamilyConclusion, FamilyAbstract},
	"overview":    {FamilyAbstract, FamilyIntroduction},

	"background": {FamilyIntroduction, FamilyLiteratureReview},
	"motivation": {FamilyIntroduction},
	"literature": {FamilyLiteratureReview},
	"related":    {FamilyLiteratureReview},
}

// DetectQueryFamilies returns the section families a query is likely asking
// about, by matching query terms against the canonical heading vocabulary.
// Families keep the priority order declared in queryFamilyTerms ("limitations"
// prefers Limitations over Discussion), deduplicated across terms; an empty
// result means no preference.
func DetectQueryFamilies(query string) []SectionFamily {
	seen := make(map[SectionFamily]struct{})
	var families []SectionFamily
	for _, term := range Tokenize(query) {
		for _, f := range queryFamilyTerms[term] {
			if _, dup := seen[f]; dup {
				continue
			}
			seen[f] = struct{}{}
			families = append(families, f)
		}
	}
	return families
}

// Boundary marks the sentence index where a new section begins.
type Boundary struct {
	SentenceIndex int
	Label         string
	Family        SectionFamily
}

// Span is a labeled range of sentences [Start, End).
type Span struct {
	Start  int
	End    int
	Label  string
	Family SectionFamily
}

var headingPrefixPattern = regexp.MustCompile(`^(?:\d+(?:\.\d+)*\.?|[IVXLC]+\.)\s+`)

const maxHeadingLen = 80

// Detector scans sentences for heading patterns and assigns section labels.
type Detector struct{}

// NewDetector returns a section detector using the canonical heading vocabulary.
func NewDetector() *Detector {
	return &Detector{}
}

// DetectSections returns a sparse, monotonically increasing list of section
// boundaries. A heading is a short standalone line at the start of a sentence
// span, matched case-insensitively with numeric and roman prefix tolerance.
// Zero detected headings is not an error; callers degrade to one unlabeled span.
func (d *Detector) DetectSections(sentences []Sentence) []Boundary {
	var boundaries []Boundary
	for i, sent := range sentences {
		family := MatchHeading(firstLine(sent.Text()))
		if family == FamilyUnknown {
			continue
		}
		if len(boundaries) > 0 && boundaries[len(boundaries)-1].SentenceIndex == i {
			continue
		}
		boundaries = append(boundaries, Boundary{
			SentenceIndex: i,
			Label:         family.Label(),
			Family:        family,
		})
	}
	return boundaries
}

// Spans converts boundaries into labeled sentence ranges covering [0, n).
// Text before the first boundary is the document's opening span and is labeled
// Abstract; with zero boundaries the whole document is one unlabeled span.
func Spans(boundaries []Boundary, n int) []Span {
	if n <= 0 {
		return nil
	}
	if len(boundaries) == 0 {
		return []Span{{Start: 0, End: n}}
	}
	var spans []Span
	if boundaries[0].SentenceIndex > 0 {
		spans = append(spans, Span{
			Start:  0,
			End:    boundaries[0].SentenceIndex,
			Label:  FamilyAbstract.Label(),
			Family: FamilyAbstract,
		})
	}
	for i, b := range boundaries {
		end := n
		if i+1 < len(boundaries) {
			end = boundaries[i+1].SentenceIndex
		}
		if b.SentenceIndex >= end {
			continue
		}
		spans = append(spans, Span{Start: b.SentenceIndex, End: end, Label: b.Label, Family: b.Family})
	}
	return spans
}

// MatchHeading matches a single line against the heading vocabulary.
// Returns FamilyUnknown when the line is not a recognizable heading.
func MatchHeading(line string) SectionFamily {
	line = strings.TrimSpace(line)
	if line == "" || len(line) > maxHeadingLen {
		return FamilyUnknown
	}
	line = headingPrefixPattern.ReplaceAllString(line, "")
	line = strings.TrimRight(line, " \t:.-")
	if line == "" || !mostlyLetters(line) {
		return FamilyUnknown
	}
	lower := strings.ToLower(line)
	if f, ok := headingSynonyms[lower]; ok {
		return f
	}
	// Nearest canonical synonym: a multi-word phrase anywhere in the line,
	// e.g. "3.2 Data collection and analysis".
	for _, phrase := range multiWordPhrases {
		if strings.Contains(lower, phrase) {
			return headingSynonyms[phrase]
		}
	}
	return FamilyUnknown
}

// multiWordPhrases holds the multi-word synonyms in stable order so substring
// matching is deterministic.
var multiWordPhrases = func() []string {
	var phrases []string
	for phrase := range headingSynonyms {
		if strings.Contains(phrase, " ") {
			phrases = append(phrases, phrase)
		}
	}
	sort.Strings(phrases)
	return phrases
}()

func firstLine(text string) string {
	if i := strings.IndexByte(text, '\n'); i >= 0 {
		return text[:i]
	}
	return text
}

func mostlyLetters(line string) bool {
	letters := 0
	total := 0
	for _, r := range line {
		total++
		if unicode.IsLetter(r) || r == ' ' {
			letters++
		}
	}
	return total > 0 && letters*2 > total
}
