package textproc

import (
	"strings"
	"testing"
)

func TestCleanPages_repeatedFooter(t *testing.T) {
	// Footer appears on 9 of 10 pages with a varying page number.
	pages := make([]string, 10)
	for i := range pages {
		body := "Unique content for this page about topic " + string(rune('A'+i)) + "."
		if i == 4 {
			pages[i] = body
			continue
		}
		pages[i] = body + "\nJournal X, Vol 3, page " + strings.Repeat("9", i+1)
	}
	cleaned := CleanPages(pages)
	if len(cleaned) != 10 {
		t.Fatalf("expected 10 pages, got %d", len(cleaned))
	}
	for i, page := range cleaned {
		if strings.Contains(page, "Journal X") {
			t.Errorf("page %d: footer not removed: %q", i, page)
		}
		if !strings.Contains(page, "Unique content") {
			t.Errorf("page %d: unique content lost: %q", i, page)
		}
	}
}

func TestCleanPages_firstPageSpecial(t *testing.T) {
	// A line only on page 1 (the title) must survive even if short.
	pages := []string{
		"A Study of Mobile Learning\nAbstract text here.",
		"Body page two.\nRunning Header",
		"Body page three.\nRunning Header",
		"Body page four.\nRunning Header",
	}
	cleaned := CleanPages(pages)
	if !strings.Contains(cleaned[0], "A Study of Mobile Learning") {
		t.Errorf("title removed from page 1: %q", cleaned[0])
	}
	for i, page := range cleaned {
		if strings.Contains(page, "Running Header") {
			t.Errorf("page %d: header not removed", i)
		}
	}
}

func TestCleanPages_headerMatchingOnPageOne(t *testing.T) {
	pages := []string{
		"Proceedings of X\nTitle of the Paper",
		"Proceedings of X\nPage two body.",
		"Proceedings of X\nPage three body.",
	}
	cleaned := CleanPages(pages)
	if strings.Contains(cleaned[0], "Proceedings of X") {
		t.Errorf("header matching pages >=2 should be removed from page 1 too: %q", cleaned[0])
	}
	if !strings.Contains(cleaned[0], "Title of the Paper") {
		t.Errorf("page 1 title lost: %q", cleaned[0])
	}
}

func TestCleanPages_infrequentLineKept(t *testing.T) {
	// A line on exactly half of pages 2..N is not a header.
	pages := []string{
		"First page.",
		"Body.\nFigure 1: Results overview",
		"Body.\nFigure 1: Results overview",
		"Body.",
		"Body.",
	}
	cleaned := CleanPages(pages)
	if !strings.Contains(cleaned[1], "Figure 1") {
		t.Errorf("line at exactly 50%% frequency should be kept: %q", cleaned[1])
	}
}

func TestCleanPages_twoPageDocument(t *testing.T) {
	// With a single counting page no line has a chance to repeat, so nothing
	// on page 2 may be treated as a header.
	pages := []string{
		"A Short Report\nAbstract text here.",
		"3. Methodology\nWe interviewed twelve participants over two weeks.",
	}
	cleaned := CleanPages(pages)
	if !strings.Contains(cleaned[1], "Methodology") || !strings.Contains(cleaned[1], "twelve participants") {
		t.Errorf("page 2 content lost: %q", cleaned[1])
	}
	if !strings.Contains(cleaned[0], "A Short Report") {
		t.Errorf("page 1 content lost: %q", cleaned[0])
	}
}

func TestCleanPages_pageBreakMarkers(t *testing.T) {
	pages := []string{"Before.\n=== PAGE BREAK ===\nAfter."}
	cleaned := CleanPages(pages)
	if strings.Contains(cleaned[0], "PAGE BREAK") {
		t.Errorf("page break marker not removed: %q", cleaned[0])
	}
	if !strings.Contains(cleaned[0], "Before.") || !strings.Contains(cleaned[0], "After.") {
		t.Errorf("content around marker lost: %q", cleaned[0])
	}
}

func TestCleanPages_collapsesWhitespace(t *testing.T) {
	pages := []string{"a    b\tc\n\n\n\n\nd"}
	cleaned := CleanPages(pages)
	if cleaned[0] != "a b c\n\nd" {
		t.Errorf("whitespace not collapsed: %q", cleaned[0])
	}
}

func TestCleanPages_empty(t *testing.T) {
	cleaned := CleanPages(nil)
	if len(cleaned) != 0 {
		t.Errorf("empty input should return empty output, got %v", cleaned)
	}
}
