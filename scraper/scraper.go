// Package scraper turns a scrape target into job cards. Each supported
// applicant tracking system has its own strategy; a target's careers page is
// fetched once and the first strategy that recognises it runs. An optional
// LLM-assisted strategy acts as the fallback for unrecognised sites.
package scraper

import (
	"context"
	"net/url"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/pkg/errors"
	"go.uber.org/zap"

	"github.com/ferretstack/ferret/job"
	"github.com/ferretstack/ferret/task"
)

// Page is a fetched careers page handed to strategies for detection and
// scraping. URL is the final URL after redirects.
type Page struct {
	Target   task.Target
	URL      *url.URL
	Document *goquery.Document
}

// Strategy scrapes postings from one kind of job board.
type Strategy interface {
	Name() string
	Detect(page *Page) bool
	Scrape(ctx context.Context, page *Page) ([]job.Posting, error)
}

// Extractor pulls postings out of unstructured page text. Implemented by the
// llm package; nil disables the fallback strategy.
type Extractor interface {
	Extract(ctx context.Context, pageText string, target task.Target) ([]job.Posting, error)
}

// Scraper owns the HTTP layer and the ordered strategy list.
type Scraper struct {
	fetcher    *fetcher
	strategies []Strategy
}

// New creates a scraper with the default strategy order: Paylocity, ADP,
// Greenhouse, then the LLM fallback when an extractor is given.
func New(extractor Extractor) *Scraper {
	f := newFetcher(30 * time.Second)

	strategies := []Strategy{
		&Paylocity{fetcher: f},
		&ADP{fetcher: f},
		&Greenhouse{fetcher: f},
	}
	if extractor != nil {
		strategies = append(strategies, &Assisted{extractor: extractor})
	}

	return &Scraper{
		fetcher:    f,
		strategies: strategies,
	}
}

// Process fetches the target's careers page, picks a strategy, scrapes all
// postings and filters them down to keyword-matched job cards.
func (s *Scraper) Process(ctx context.Context, target task.Target) ([]job.Card, error) {
	zap.L().Info("processing target",
		zap.String("target", target.Name),
		zap.String("url", target.CareersURL),
		zap.Strings("keywords", target.Keywords))

	doc, finalURL, err := s.fetcher.document(ctx, target.CareersURL)
	if err != nil {
		return nil, errors.Wrap(err, "failed to load careers page")
	}

	page := &Page{
		Target:   target,
		URL:      finalURL,
		Document: doc,
	}

	strategy := s.pick(page)
	if strategy == nil {
		zap.L().Warn("no scrape strategy found for site",
			zap.String("target", target.Name),
			zap.String("url", finalURL.String()))
		return nil, nil
	}

	zap.L().Debug("selected scrape strategy",
		zap.String("target", target.Name),
		zap.String("strategy", strategy.Name()))

	postings, err := strategy.Scrape(ctx, page)
	if err != nil {
		return nil, errors.Wrapf(err, "strategy %s failed", strategy.Name())
	}

	cards := job.Compile(postings, target)

	zap.L().Info("target processed",
		zap.String("target", target.Name),
		zap.String("strategy", strategy.Name()),
		zap.Int("postings", len(postings)),
		zap.Int("matches", len(cards)))

	return cards, nil
}

// PageLoads returns the number of pages fetched since creation.
func (s *Scraper) PageLoads() int64 {
	return s.fetcher.Loads()
}

// pick selects the forced strategy when the target names one, otherwise the
// first strategy that detects the page.
func (s *Scraper) pick(page *Page) Strategy {
	if forced := page.Target.Strategy; forced != "" {
		for _, strategy := range s.strategies {
			if strings.EqualFold(strategy.Name(), forced) {
				return strategy
			}
		}
		zap.L().Warn("unknown forced strategy, falling back to detection",
			zap.String("target", page.Target.Name),
			zap.String("strategy", forced))
	}

	for _, strategy := range s.strategies {
		if strategy.Detect(page) {
			return strategy
		}
	}
	return nil
}

// collapse normalises whitespace in extracted text.
func collapse(s string) string {
	return strings.Join(strings.Fields(s), " ")
}
