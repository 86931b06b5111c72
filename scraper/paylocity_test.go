package scraper

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ferretstack/ferret/task"
)

func Test_Paylocity_Scrape(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/Recruiting/Jobs/All/abc", func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `<html><body>
			<div class="job-listing-job-item"><a href="/Recruiting/Jobs/Details/3001">SRE</a></div>
			<div class="job-listing-job-item"><a href="/Recruiting/Jobs/Details/3002">Sales</a></div>
			<div class="job-listing-job-item"><a href="/Recruiting/Jobs/Details/3003">Broken</a></div>
		</body></html>`)
	})
	mux.HandleFunc("/Recruiting/Jobs/Details/3001", func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `<html><body>
			<span class="job-preview-title"><span>Site Reliability Engineer</span></span>
			<div class="preview-location">Arlington, VA</div>
			<div class="job-preview-details"><div>a</div><div>b</div><div>Keep the lights on. Kubernetes, Terraform.</div></div>
		</body></html>`)
	})
	mux.HandleFunc("/Recruiting/Jobs/Details/3002", func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `<html><body>
			<h1>Account Executive</h1>
			<div class="preview-location">NYC</div>
			<div class="job-preview-details"><div>a</div><div>b</div><div>Sell the product.</div></div>
		</body></html>`)
	})
	mux.HandleFunc("/Recruiting/Jobs/Details/3003", func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "gone", http.StatusNotFound)
	})
	ts := httptest.NewServer(mux)
	defer ts.Close()

	f := newFetcher(5 * time.Second)
	doc, finalURL, err := f.document(context.Background(), ts.URL+"/Recruiting/Jobs/All/abc")
	require.NoError(t, err)

	page := &Page{
		Target:   task.Target{Name: "Initech"},
		URL:      finalURL,
		Document: doc,
	}

	p := &Paylocity{fetcher: f}
	postings, err := p.Scrape(context.Background(), page)
	require.NoError(t, err)

	// the 404 detail page is skipped, not fatal
	require.Len(t, postings, 2)
	assert.Equal(t, "Site Reliability Engineer", postings[0].Title)
	assert.Equal(t, "Arlington, VA", postings[0].Location)
	assert.Equal(t, "Keep the lights on. Kubernetes, Terraform.", postings[0].Description)
	assert.Equal(t, ts.URL+"/Recruiting/Jobs/Details/3001", postings[0].Link)

	// title falls back to the h1 when the preview span is missing
	assert.Equal(t, "Account Executive", postings[1].Title)
}

func Test_Paylocity_Detect(t *testing.T) {
	p := &Paylocity{}

	page := pageFromHTML(t, `<html></html>`, "https://recruiting.paylocity.com/Recruiting/Jobs/All/abc", task.Target{})
	assert.True(t, p.Detect(page))

	page = pageFromHTML(t, `<html></html>`, "https://careers.example/jobs", task.Target{})
	assert.False(t, p.Detect(page))
}
