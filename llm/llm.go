// Package llm implements the Gemini-assisted posting extractor used as the
// fallback scrape strategy for careers sites without a recognised job board.
package llm

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"strings"
	"sync/atomic"

	"github.com/pkg/errors"
	"go.uber.org/zap"
	"google.golang.org/genai"

	"github.com/ferretstack/ferret/job"
	"github.com/ferretstack/ferret/task"
)

// DefaultModel is used when no model is configured.
const DefaultModel = "gemini-2.5-flash"

const extractPrompt = `You are given the visible text of a company careers page.
List every job posting on the page. For each posting report its title, its
location, a link to the posting (absolute URL if possible, otherwise the
relative href) and a short description. Report only postings that actually
appear in the text; if there are none, return an empty array.

Company: %s

Page text:
%s`

// Extractor asks Gemini to pull structured postings out of page text.
type Extractor struct {
	client   *genai.Client
	model    string
	requests int64
}

// New creates a Gemini client. The model defaults to DefaultModel.
func New(ctx context.Context, apiKey, model string) (*Extractor, error) {
	if apiKey == "" {
		return nil, errors.New("missing gemini api key")
	}
	if model == "" {
		model = DefaultModel
	}

	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, errors.Wrap(err, "failed to create gemini client")
	}

	return &Extractor{client: client, model: model}, nil
}

var postingSchema = &genai.Schema{
	Type: genai.TypeArray,
	Items: &genai.Schema{
		Type:     genai.TypeObject,
		Required: []string{"title", "location", "link", "description"},
		Properties: map[string]*genai.Schema{
			"title":       {Type: genai.TypeString},
			"location":    {Type: genai.TypeString},
			"link":        {Type: genai.TypeString},
			"description": {Type: genai.TypeString},
		},
	},
}

// Extract implements scraper.Extractor.
func (e *Extractor) Extract(ctx context.Context, pageText string, target task.Target) ([]job.Posting, error) {
	prompt := fmt.Sprintf(extractPrompt, target.Name, pageText)

	zap.L().Debug("extracting postings with gemini",
		zap.String("target", target.Name),
		zap.String("model", e.model),
		zap.Int("page_text", len(pageText)))

	resp, err := e.client.Models.GenerateContent(ctx, e.model, genai.Text(prompt), &genai.GenerateContentConfig{
		ResponseMIMEType: "application/json",
		ResponseSchema:   postingSchema,
	})
	if err != nil {
		return nil, errors.Wrap(err, "gemini request failed")
	}
	atomic.AddInt64(&e.requests, 1)

	return decodePostings(resp.Text(), target.CareersURL)
}

// Requests returns the number of Gemini calls made so far.
func (e *Extractor) Requests() int64 {
	return atomic.LoadInt64(&e.requests)
}

// decodePostings parses the model's JSON array and resolves relative links
// against the careers URL. Some models wrap JSON in a code fence despite the
// response MIME type, so fences are stripped first.
func decodePostings(text, careersURL string) ([]job.Posting, error) {
	text = strings.TrimSpace(text)
	text = strings.TrimPrefix(text, "```json")
	text = strings.TrimPrefix(text, "```")
	text = strings.TrimSuffix(text, "```")
	text = strings.TrimSpace(text)

	if text == "" {
		return nil, nil
	}

	var postings []job.Posting
	if err := json.Unmarshal([]byte(text), &postings); err != nil {
		return nil, errors.Wrap(err, "failed to decode postings from model response")
	}

	base, err := url.Parse(careersURL)
	if err != nil {
		return postings, nil
	}
	for i, p := range postings {
		if ref, err := url.Parse(strings.TrimSpace(p.Link)); err == nil {
			postings[i].Link = base.ResolveReference(ref).String()
		}
	}

	return postings, nil
}
