package scraper

import (
	"context"
	"fmt"
	"html"
	"regexp"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"go.uber.org/zap"

	"github.com/ferretstack/ferret/job"
)

const greenhouseAPI = "https://boards-api.greenhouse.io"

var boardTokenPattern = regexp.MustCompile(`job_board\?for=([^&]+)`)
var tokenSanitise = regexp.MustCompile(`[^a-z0-9]`)

// Greenhouse scrapes boards through the public Greenhouse board API, which is
// far faster and more reliable than walking the rendered pages.
type Greenhouse struct {
	fetcher *fetcher

	// BaseURL overrides the board API endpoint, used by tests.
	BaseURL string
}

var _ Strategy = &Greenhouse{}

func (g *Greenhouse) Name() string { return "greenhouse" }

// Detect looks for the standard embed script, the embed container or the
// board-list markup of custom integrations.
func (g *Greenhouse) Detect(page *Page) bool {
	if page.Document.Find(`script[src*="boards.greenhouse.io/embed/job_board"]`).Length() > 0 {
		return true
	}
	if page.Document.Find("#grnhse_app").Length() > 0 {
		return true
	}
	return page.Document.Find(`a[class*="board-list__item"]`).Length() > 0
}

type greenhouseJob struct {
	ID          int64  `json:"id"`
	Title       string `json:"title"`
	Content     string `json:"content"`
	AbsoluteURL string `json:"absolute_url"`
	Location    struct {
		Name string `json:"name"`
	} `json:"location"`
}

type greenhouseBoard struct {
	Jobs []greenhouseJob `json:"jobs"`
}

// Scrape resolves the board token and pulls every job from the board API,
// fetching individual job content where the listing omits it.
func (g *Greenhouse) Scrape(ctx context.Context, page *Page) ([]job.Posting, error) {
	token := g.boardToken(page)
	if token == "" {
		zap.L().Warn("could not derive a greenhouse board token",
			zap.String("target", page.Target.Name))
		return nil, nil
	}

	base := g.BaseURL
	if base == "" {
		base = greenhouseAPI
	}

	var board greenhouseBoard
	listURL := fmt.Sprintf("%s/v1/boards/%s/jobs?content=true", base, token)
	if err := g.fetcher.json(ctx, listURL, &board); err != nil {
		return nil, err
	}

	postings := make([]job.Posting, 0, len(board.Jobs))
	for _, j := range board.Jobs {
		content := j.Content
		if content == "" && j.ID != 0 {
			var detail greenhouseJob
			detailURL := fmt.Sprintf("%s/v1/boards/%s/jobs/%d", base, token, j.ID)
			if err := g.fetcher.json(ctx, detailURL, &detail); err != nil {
				zap.L().Debug("failed to fetch job detail",
					zap.String("board", token),
					zap.Int64("job", j.ID),
					zap.Error(err))
			} else {
				content = detail.Content
			}
		}

		postings = append(postings, job.Posting{
			Title:       strings.TrimSpace(j.Title),
			Location:    strings.TrimSpace(j.Location.Name),
			Link:        strings.TrimSpace(j.AbsoluteURL),
			Description: htmlToText(content),
		})
	}

	zap.L().Debug("fetched jobs from greenhouse board",
		zap.String("board", token),
		zap.Int("jobs", len(postings)))

	return postings, nil
}

// boardToken reads the token from the embed script src, falling back to a
// guess made by sanitising the company name ("Dev Technology " becomes
// "devtechnology").
func (g *Greenhouse) boardToken(page *Page) string {
	var token string
	page.Document.Find(`script[src*="boards.greenhouse.io/embed/job_board"]`).EachWithBreak(func(_ int, s *goquery.Selection) bool {
		src, _ := s.Attr("src")
		if m := boardTokenPattern.FindStringSubmatch(src); m != nil {
			token = m[1]
			return false
		}
		return true
	})
	if token != "" {
		return token
	}

	return tokenSanitise.ReplaceAllString(strings.ToLower(strings.TrimSpace(page.Target.Name)), "")
}

// htmlToText strips markup from Greenhouse job content, which arrives as
// entity-escaped HTML.
func htmlToText(content string) string {
	if content == "" {
		return ""
	}
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html.UnescapeString(content)))
	if err != nil {
		return collapse(content)
	}
	return collapse(doc.Text())
}
