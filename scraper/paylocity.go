package scraper

import (
	"context"
	"net/url"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/pkg/errors"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/ferretstack/ferret/job"
)

const paylocityHost = "recruiting.paylocity.com"

// How many job detail pages to fetch at once.
const paylocityConcurrency = 8

// Paylocity scrapes hosted Paylocity boards: the listing page links to one
// detail page per job, which are fetched concurrently.
type Paylocity struct {
	fetcher *fetcher
}

var _ Strategy = &Paylocity{}

func (p *Paylocity) Name() string { return "paylocity" }

func (p *Paylocity) Detect(page *Page) bool {
	return strings.Contains(page.URL.Host, paylocityHost)
}

func (p *Paylocity) Scrape(ctx context.Context, page *Page) ([]job.Posting, error) {
	links := p.jobLinks(page)

	zap.L().Debug("found job links on paylocity listing",
		zap.String("target", page.Target.Name),
		zap.Int("links", len(links)))

	postings := make([]*job.Posting, len(links))

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(paylocityConcurrency)
	for i, link := range links {
		g.Go(func() error {
			posting, err := p.fetchDetails(ctx, link)
			if err != nil {
				// One broken detail page shouldn't sink the whole board.
				zap.L().Debug("failed to fetch paylocity job page",
					zap.String("link", link),
					zap.Error(err))
				return nil
			}
			postings[i] = posting
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	out := make([]job.Posting, 0, len(postings))
	for _, p := range postings {
		if p != nil {
			out = append(out, *p)
		}
	}
	return out, nil
}

func (p *Paylocity) jobLinks(page *Page) (links []string) {
	page.Document.Find(`div.job-listing-job-item a[href*="/Jobs/Details/"]`).Each(func(_ int, s *goquery.Selection) {
		href, ok := s.Attr("href")
		if !ok {
			return
		}
		ref, err := url.Parse(href)
		if err != nil {
			return
		}
		links = append(links, page.URL.ResolveReference(ref).String())
	})
	return
}

func (p *Paylocity) fetchDetails(ctx context.Context, link string) (*job.Posting, error) {
	doc, _, err := p.fetcher.document(ctx, link)
	if err != nil {
		return nil, err
	}

	title := collapse(doc.Find("span.job-preview-title span").First().Text())
	if title == "" {
		title = collapse(doc.Find("h1").First().Text())
	}
	if title == "" {
		return nil, errors.Errorf("no job title found at %s", link)
	}

	location := collapse(doc.Find("div.preview-location").First().Text())
	description := collapse(doc.Find("div.job-preview-details > div:nth-of-type(3)").First().Text())

	return &job.Posting{
		Title:       title,
		Location:    location,
		Link:        link,
		Description: description,
	}, nil
}
