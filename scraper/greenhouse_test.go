package scraper

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ferretstack/ferret/task"
)

const greenhouseListing = `<html><body>
<div id="content"></div>
<script src="https://boards.greenhouse.io/embed/job_board?for=acme&b=https%3A%2F%2Fcareers.acme.example"></script>
</body></html>`

func Test_Greenhouse_Scrape(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) {
		io.WriteString(w, greenhouseListing)
	})
	mux.HandleFunc("/v1/boards/acme/jobs", func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "true", r.URL.Query().Get("content"))
		fmt.Fprint(w, `{"jobs": [
			{
				"id": 101,
				"title": " Senior Golang Engineer ",
				"content": "&lt;p&gt;Build services in &lt;b&gt;Go&lt;/b&gt;.&lt;/p&gt;",
				"absolute_url": "https://boards.greenhouse.io/acme/jobs/101",
				"location": {"name": "Remote"}
			},
			{
				"id": 102,
				"title": "Platform Engineer",
				"content": "",
				"absolute_url": "https://boards.greenhouse.io/acme/jobs/102",
				"location": {"name": "Arlington, VA"}
			}
		]}`)
	})
	mux.HandleFunc("/v1/boards/acme/jobs/102", func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"id": 102, "content": "&lt;p&gt;Operate Kubernetes.&lt;/p&gt;"}`)
	})
	ts := httptest.NewServer(mux)
	defer ts.Close()

	f := newFetcher(5 * time.Second)
	doc, finalURL, err := f.document(context.Background(), ts.URL)
	require.NoError(t, err)

	page := &Page{
		Target:   task.Target{Name: "Acme", Keywords: []string{"go"}},
		URL:      finalURL,
		Document: doc,
	}

	g := &Greenhouse{fetcher: f, BaseURL: ts.URL}
	assert.True(t, g.Detect(page))

	postings, err := g.Scrape(context.Background(), page)
	require.NoError(t, err)
	require.Len(t, postings, 2)

	assert.Equal(t, "Senior Golang Engineer", postings[0].Title)
	assert.Equal(t, "Remote", postings[0].Location)
	assert.Equal(t, "Build services in Go.", postings[0].Description)
	assert.Equal(t, "https://boards.greenhouse.io/acme/jobs/101", postings[0].Link)

	// content was fetched from the detail endpoint
	assert.Equal(t, "Operate Kubernetes.", postings[1].Description)
}

func Test_Greenhouse_boardToken(t *testing.T) {
	tests := []struct {
		name string
		html string
		want string
	}{
		{
			"from script tag",
			greenhouseListing,
			"acme",
		},
		{
			"guessed from company name",
			`<html><body><div id="grnhse_app"></div></body></html>`,
			"devtechnology",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			page := pageFromHTML(t, tt.html, "https://careers.example/jobs", task.Target{Name: "Dev Technology "})
			g := &Greenhouse{}
			assert.Equal(t, tt.want, g.boardToken(page))
		})
	}
}

func Test_Greenhouse_Detect(t *testing.T) {
	tests := []struct {
		name string
		html string
		want bool
	}{
		{"embed script", greenhouseListing, true},
		{"embed container", `<html><body><div id="grnhse_app"></div></body></html>`, true},
		{"board list", `<html><body><a class="board-list__item" href="/x">x</a></body></html>`, true},
		{"plain page", `<html><body><p>We are hiring!</p></body></html>`, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			page := pageFromHTML(t, tt.html, "https://careers.example/jobs", task.Target{Name: "acme"})
			g := &Greenhouse{}
			assert.Equal(t, tt.want, g.Detect(page))
		})
	}
}
