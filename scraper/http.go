package scraper

import (
	"context"
	"encoding/json"
	"net/http"
	"net/url"
	"sync/atomic"
	"time"

	"github.com/PuerkitoBio/goquery"
	cleanhttp "github.com/hashicorp/go-cleanhttp"
	retryablehttp "github.com/hashicorp/go-retryablehttp"
	"github.com/pkg/errors"
)

// Some careers sites refuse requests without a browser-looking user agent.
const userAgent = "Mozilla/5.0 (X11; Linux x86_64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0 Safari/537.36"

// fetcher is the HTTP layer shared by all scrape strategies. It retries
// transient failures and counts page loads for the run summary.
type fetcher struct {
	client *retryablehttp.Client
	loads  int64
}

func newFetcher(timeout time.Duration) *fetcher {
	client := retryablehttp.NewClient()
	client.RetryMax = 3
	client.Logger = nil
	client.HTTPClient = &http.Client{
		Transport: cleanhttp.DefaultPooledTransport(),
		Timeout:   timeout,
	}
	return &fetcher{client: client}
}

func (f *fetcher) get(ctx context.Context, rawurl string) (*http.Response, error) {
	req, err := retryablehttp.NewRequestWithContext(ctx, http.MethodGet, rawurl, nil)
	if err != nil {
		return nil, errors.Wrap(err, "failed to build request")
	}
	req.Header.Set("User-Agent", userAgent)

	resp, err := f.client.Do(req)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to fetch %s", rawurl)
	}
	if resp.StatusCode >= 400 {
		resp.Body.Close()
		return nil, errors.Errorf("unexpected status %d fetching %s", resp.StatusCode, rawurl)
	}

	atomic.AddInt64(&f.loads, 1)
	return resp, nil
}

// document fetches a page and parses it, returning the final URL after any
// redirects so strategy detection can inspect the real host.
func (f *fetcher) document(ctx context.Context, rawurl string) (*goquery.Document, *url.URL, error) {
	resp, err := f.get(ctx, rawurl)
	if err != nil {
		return nil, nil, err
	}
	defer resp.Body.Close()

	doc, err := goquery.NewDocumentFromReader(resp.Body)
	if err != nil {
		return nil, nil, errors.Wrapf(err, "failed to parse %s", rawurl)
	}
	return doc, resp.Request.URL, nil
}

func (f *fetcher) json(ctx context.Context, rawurl string, v interface{}) error {
	resp, err := f.get(ctx, rawurl)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if err := json.NewDecoder(resp.Body).Decode(v); err != nil {
		return errors.Wrapf(err, "failed to decode response from %s", rawurl)
	}
	return nil
}

// Loads returns the number of successful page loads so far.
func (f *fetcher) Loads() int64 {
	return atomic.LoadInt64(&f.loads)
}
