package scraper

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/pkg/errors"
	"go.uber.org/zap"

	"github.com/ferretstack/ferret/job"
)

const (
	adpHost = "workforcenow.adp.com"
	adpBase = "https://workforcenow.adp.com"
)

// ADP scrapes ADP Workforce Now career centers. The career center UI is a
// JavaScript application, but it is fed by a requisition endpoint that can be
// queried directly with the cid/ccId pair from the careers URL. Job IDs are
// collected by walking the requisition document for stringValue fields, then
// each job's detail page is fetched and parsed.
type ADP struct {
	fetcher *fetcher

	// BaseURL overrides the workforcenow endpoint, used by tests.
	BaseURL string
}

var _ Strategy = &ADP{}

func (a *ADP) Name() string { return "adp" }

func (a *ADP) Detect(page *Page) bool {
	return strings.Contains(page.URL.Host, adpHost)
}

func (a *ADP) Scrape(ctx context.Context, page *Page) ([]job.Posting, error) {
	cid, ccID := a.credentials(page)
	if cid == "" || ccID == "" {
		return nil, errors.New("no cid/ccId found in careers URL or target env")
	}

	base := a.BaseURL
	if base == "" {
		base = adpBase
	}

	var requisitions interface{}
	listURL := fmt.Sprintf("%s/mascsr/default/mdf/recruitment/jobRequisitions?cid=%s&ccId=%s&lang=en_US", base, cid, ccID)
	if err := a.fetcher.json(ctx, listURL, &requisitions); err != nil {
		return nil, err
	}

	ids := collectStringValues(requisitions)

	zap.L().Debug("found adp job requisitions",
		zap.String("target", page.Target.Name),
		zap.Int("jobs", len(ids)))

	var postings []job.Posting
	for _, id := range ids {
		link := fmt.Sprintf("%s/mascsr/default/mdf/recruitment/recruitment.html?cid=%s&ccId=%s&lang=en_US&selectedMenuKey=CareerCenter&jobId=%s", base, cid, ccID, id)
		posting, err := a.fetchDetails(ctx, link)
		if err != nil {
			zap.L().Debug("failed to fetch adp job page",
				zap.String("link", link),
				zap.Error(err))
			continue
		}
		postings = append(postings, *posting)
	}

	return postings, nil
}

// credentials resolves the career center identifiers, preferring explicit
// target env overrides over the careers URL query.
func (a *ADP) credentials(page *Page) (cid, ccID string) {
	cid = page.Target.Env["ADP_CID"]
	ccID = page.Target.Env["ADP_CCID"]

	query := page.URL.Query()
	if cid == "" {
		cid = query.Get("cid")
	}
	if ccID == "" {
		ccID = query.Get("ccId")
	}
	return
}

func (a *ADP) fetchDetails(ctx context.Context, link string) (*job.Posting, error) {
	doc, _, err := a.fetcher.document(ctx, link)
	if err != nil {
		return nil, err
	}

	title := collapse(doc.Find("h2.job-description-title").First().Text())
	if title == "" {
		return nil, errors.Errorf("no job title found at %s", link)
	}

	var locations []string
	doc.Find(".job-description-location-item span").Each(func(_ int, s *goquery.Selection) {
		if loc := collapse(s.Text()); loc != "" {
			locations = append(locations, loc)
		}
	})
	location := strings.Join(locations, ", ")
	if location == "" {
		location = "Location not specified"
	}

	description := collapse(doc.Find("div.job-description-data-item").First().Text())
	// Everything from "Work With Us" on is application boilerplate.
	if i := strings.Index(description, "Work With Us"); i >= 0 {
		description = strings.TrimSpace(description[:i])
	}

	return &job.Posting{
		Title:       title,
		Location:    location,
		Link:        link,
		Description: description,
	}, nil
}

// collectStringValues recursively walks a decoded JSON document and gathers
// every non-empty "stringValue" field in a stable order, dropping duplicates.
// Objects are walked in sorted key order so the result is deterministic.
// The requisition document nests job IDs this way.
func collectStringValues(v interface{}) (values []string) {
	seen := make(map[string]bool)

	var walk func(v interface{})
	walk = func(v interface{}) {
		switch node := v.(type) {
		case map[string]interface{}:
			if s, ok := node["stringValue"].(string); ok {
				if s = strings.TrimSpace(s); s != "" && !seen[s] {
					seen[s] = true
					values = append(values, s)
				}
			}
			keys := make([]string, 0, len(node))
			for k := range node {
				if k == "stringValue" {
					continue
				}
				keys = append(keys, k)
			}
			sort.Strings(keys)
			for _, k := range keys {
				walk(node[k])
			}
		case []interface{}:
			for _, child := range node {
				walk(child)
			}
		}
	}
	walk(v)
	return
}
