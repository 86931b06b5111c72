package scraper

import (
	"context"
	"unicode/utf8"

	"github.com/ferretstack/ferret/job"
)

// Keeps prompts within a sane size for very large pages.
const maxPageText = 24000

// Assisted is the fallback strategy for sites with no recognised board. It
// hands the page text to an Extractor (an LLM) to pull out postings.
type Assisted struct {
	extractor Extractor
}

var _ Strategy = &Assisted{}

func (a *Assisted) Name() string { return "llm" }

// Detect always succeeds; Assisted is ordered last so it only runs when no
// other strategy recognised the site.
func (a *Assisted) Detect(page *Page) bool {
	return a.extractor != nil
}

func (a *Assisted) Scrape(ctx context.Context, page *Page) ([]job.Posting, error) {
	text := collapse(page.Document.Find("body").Text())
	if text == "" {
		return nil, nil
	}
	return a.extractor.Extract(ctx, truncate(text, maxPageText), page.Target)
}

// truncate cuts s to at most max bytes without splitting a rune.
func truncate(s string, max int) string {
	if len(s) <= max {
		return s
	}
	for max > 0 && !utf8.RuneStart(s[max]) {
		max--
	}
	return s[:max]
}
