package job

import (
	"net/url"
	"regexp"
	"strings"

	"github.com/ferretstack/ferret/task"
)

// UnknownID is used when no job identifier could be derived from a posting
// link. Cards with this ID are never deduplicated against existing tickets.
const UnknownID = "N/A"

// Posting is a single job advert as scraped from a careers site, before any
// keyword filtering has been applied.
type Posting struct {
	Title       string `json:"title"`
	Location    string `json:"location"`
	Link        string `json:"link"`
	Description string `json:"description"`
}

// Card is a posting that matched a target's keywords, formatted for
// publishing as a ticket.
type Card struct {
	Company         string   `json:"company"`
	Title           string   `json:"job_title"`
	Location        string   `json:"location"`
	MatchedKeywords []string `json:"matched_keywords"`
	Link            string   `json:"link"`
	UniqueID        string   `json:"unique_job_id"`
}

// Compile scans each posting's title, location and description for the
// target's keywords and returns a card for every posting that matched.
func Compile(postings []Posting, target task.Target) (cards []Card) {
	for _, p := range postings {
		matched := Match(p.Title+" "+p.Location+" "+p.Description, target.Keywords)
		if len(matched) == 0 {
			continue
		}
		cards = append(cards, Card{
			Company:         target.Name,
			Title:           p.Title,
			Location:        p.Location,
			MatchedKeywords: matched,
			Link:            p.Link,
			UniqueID:        DeriveID(p.Link, target.Name),
		})
	}
	return
}

// Match returns the subset of keywords that occur in text, case-insensitively.
// Keywords are trimmed and empty ones dropped.
func Match(text string, keywords []string) (matched []string) {
	if text == "" {
		return nil
	}
	lower := strings.ToLower(text)
	for _, kw := range keywords {
		kw = strings.TrimSpace(kw)
		if kw == "" {
			continue
		}
		if strings.Contains(lower, strings.ToLower(kw)) {
			matched = append(matched, kw)
		}
	}
	return
}

// Query parameters that commonly carry a job identifier, in priority order.
var idParams = []string{"jobId", "gh_jid", "reqid", "id", "jobID", "p_jid"}

var (
	pathIDPattern  = regexp.MustCompile(`/(\d{4,})/?$`)
	looseIDPattern = regexp.MustCompile(`[=/]([a-zA-Z0-9_-]{6,})/?$`)
)

// DeriveID extracts a stable job identifier from a posting link and prefixes
// it with the company name so IDs are unique across boards. Returns UnknownID
// when nothing identifier-like can be found.
func DeriveID(link, company string) string {
	id := UnknownID

	if u, err := url.Parse(link); err == nil {
		query := u.Query()
		for _, param := range idParams {
			if v := query.Get(param); v != "" {
				id = v
				break
			}
		}

		if id == UnknownID {
			if m := pathIDPattern.FindStringSubmatch(u.Path); m != nil {
				id = m[1]
			}
		}
	}

	if id == UnknownID {
		if m := looseIDPattern.FindStringSubmatch(link); m != nil {
			id = m[1]
		}
	}

	if id == UnknownID {
		return id
	}
	prefix := strings.ToUpper(strings.ReplaceAll(company, " ", ""))
	return prefix + "-" + id
}
