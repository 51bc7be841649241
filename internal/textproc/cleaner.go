// Package textproc provides text cleaning, sentence segmentation, and section
// detection for academic paper text.
package textproc

import (
	"regexp"
	"strings"
)

var (
	pageNumberPattern = regexp.MustCompile(`\d+`)
	pageBreakPattern  = regexp.MustCompile(`(?i)^[=\-]{2,}\s*page\s*break\s*[=\-]{2,}$`)
	spaceRunPattern   = regexp.MustCompile(`[ \t]+`)
	blankRunPattern   = regexp.MustCompile(`\n{3,}`)
)

// CleanPages removes repeated headers/footers and structural noise from raw
// per-page text. A line (with embedded page numbers normalized to a wildcard)
// occurring on more than half of pages 2..N is treated as a running
// header/footer and removed from every page, including page 1 when it matches.
// Page-break delimiter tokens are dropped and whitespace runs collapsed.
// Pure function: an empty input yields an empty output, not an error.
func CleanPages(pages []string) []string {
	if len(pages) == 0 {
		return []string{}
	}

	repeated := repeatedLines(pages)

	cleaned := make([]string, len(pages))
	for i, page := range pages {
		var kept []string
		for _, line := range strings.Split(page, "\n") {
			trimmed := strings.TrimSpace(line)
			if pageBreakPattern.MatchString(trimmed) {
				continue
			}
			if trimmed != "" && repeated[normalizeLine(trimmed)] {
				continue
			}
			kept = append(kept, spaceRunPattern.ReplaceAllString(strings.TrimRight(line, " \t"), " "))
		}
		page = strings.Join(kept, "\n")
		page = blankRunPattern.ReplaceAllString(page, "\n\n")
		cleaned[i] = strings.TrimSpace(page)
	}
	return cleaned
}

// repeatedLines counts normalized line frequency across pages 2..N. The first
// page is excluded from counting: titles and abstracts are not headers.
func repeatedLines(pages []string) map[string]bool {
	if len(pages) < 2 {
		return nil
	}
	rest := len(pages) - 1
	counts := make(map[string]int)
	for _, page := range pages[1:] {
		seen := make(map[string]struct{})
		for _, line := range strings.Split(page, "\n") {
			trimmed := strings.TrimSpace(line)
			if trimmed == "" {
				continue
			}
			norm := normalizeLine(trimmed)
			if _, dup := seen[norm]; dup {
				continue
			}
			seen[norm] = struct{}{}
			counts[norm]++
		}
	}
	repeated := make(map[string]bool)
	for norm, n := range counts {
		// A header must actually repeat. With a single counting page every
		// line trivially clears the majority test, which would strip the
		// unique content of a two-page document.
		if n >= 2 && n*2 > rest {
			repeated[norm] = true
		}
	}
	return repeated
}

// normalizeLine replaces embedded page numbers with a wildcard so that
// "Journal X, page 3" and "Journal X, page 7" count as the same line.
func normalizeLine(line string) string {
	return pageNumberPattern.ReplaceAllString(strings.ToLower(line), "#")
}
