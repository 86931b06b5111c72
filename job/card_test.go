package job

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/ferretstack/ferret/task"
)

func Test_Match(t *testing.T) {
	tests := []struct {
		name     string
		text     string
		keywords []string
		want     []string
	}{
		{"empty text", "", []string{"go"}, nil},
		{"no match", "Senior Java Developer", []string{"golang", "rust"}, nil},
		{"single", "Senior Golang Developer", []string{"golang"}, []string{"golang"}},
		{"case insensitive", "DEVOPS Engineer - Remote", []string{"DevOps", "remote"}, []string{"DevOps", "remote"}},
		{"trims keywords", "Site Reliability Engineer", []string{" reliability ", ""}, []string{"reliability"}},
		{"subset", "Cloud Security Engineer, Arlington VA", []string{"security", "clearance", "arlington"}, []string{"security", "arlington"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Match(tt.text, tt.keywords))
		})
	}
}

func Test_DeriveID(t *testing.T) {
	tests := []struct {
		name    string
		link    string
		company string
		want    string
	}{
		{
			"adp query param",
			"https://workforcenow.adp.com/mascsr/default/mdf/recruitment/recruitment.html?cid=abc&ccId=19000101&jobId=518244",
			"Acme Corp",
			"ACMECORP-518244",
		},
		{
			"greenhouse query param",
			"https://boards.greenhouse.io/acme/jobs/4141528005?gh_jid=4141528005",
			"acme",
			"ACME-4141528005",
		},
		{
			"numeric path segment",
			"https://boards.greenhouse.io/acme/jobs/4141528005",
			"acme",
			"ACME-4141528005",
		},
		{
			"trailing token",
			"https://recruiting.paylocity.com/Recruiting/Jobs/Details/a1b2c3d4",
			"Initech",
			"INITECH-a1b2c3d4",
		},
		{
			"nothing derivable",
			"https://example.com/jobs",
			"acme",
			"N/A",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, DeriveID(tt.link, tt.company))
		})
	}
}

func Test_Compile(t *testing.T) {
	target := task.Target{
		Name:     "acme",
		Keywords: []string{"golang", "kubernetes"},
	}
	postings := []Posting{
		{
			Title:       "Senior Golang Engineer",
			Location:    "Remote",
			Link:        "https://boards.greenhouse.io/acme/jobs/1234567",
			Description: "Build services in Go.",
		},
		{
			Title:       "Account Executive",
			Location:    "NYC",
			Link:        "https://boards.greenhouse.io/acme/jobs/7654321",
			Description: "Sales role.",
		},
		{
			Title:       "Platform Engineer",
			Location:    "Remote",
			Link:        "https://boards.greenhouse.io/acme/jobs/2345678",
			Description: "Operate our Kubernetes fleet.",
		},
	}

	cards := Compile(postings, target)

	assert.Len(t, cards, 2)
	assert.Equal(t, "Senior Golang Engineer", cards[0].Title)
	assert.Equal(t, []string{"golang"}, cards[0].MatchedKeywords)
	assert.Equal(t, "ACME-1234567", cards[0].UniqueID)
	assert.Equal(t, []string{"kubernetes"}, cards[1].MatchedKeywords)
	assert.Equal(t, "acme", cards[1].Company)
}
