// Package jira wraps the Jira REST API for the two projects ferret touches:
// the request project scrape targets are read from, and the output project
// job cards are published to.
package jira

import (
	"context"
	"fmt"
	"strings"
	"sync/atomic"

	gojira "github.com/andygrunwald/go-jira"
	cleanhttp "github.com/hashicorp/go-cleanhttp"
	"github.com/pkg/errors"
	"go.uber.org/zap"

	"github.com/ferretstack/ferret/job"
	"github.com/ferretstack/ferret/task"
)

// Config specifies the connection parameters and the custom field IDs of the
// request project. Field IDs are the raw identifiers, e.g. customfield_10042.
type Config struct {
	Server   string
	Email    string
	APIToken string

	RequestProject string
	OutputProject  string

	FieldCompanyName string
	FieldCareersURL  string
	FieldKeywords    string
}

// Client wraps a Jira REST client with the request/output project operations.
type Client struct {
	jira   *gojira.Client
	config Config

	created int64
	updated int64
}

// Connect creates a client and verifies credentials against the server.
func Connect(config Config) (*Client, error) {
	if config.Server == "" {
		return nil, errors.New("no jira server specified")
	}

	tp := gojira.BasicAuthTransport{
		Username:  config.Email,
		Password:  config.APIToken,
		Transport: cleanhttp.DefaultPooledTransport(),
	}

	client, err := gojira.NewClient(tp.Client(), config.Server)
	if err != nil {
		return nil, errors.Wrap(err, "failed to create jira client")
	}

	if _, _, err := client.User.GetSelfWithContext(context.Background()); err != nil {
		return nil, errors.Wrap(err, "failed to authenticate with jira")
	}

	return &Client{jira: client, config: config}, nil
}

// Requests fetches all open scraping requests from the request project and
// converts them to scrape targets. Issues with missing or empty custom
// fields are skipped.
func (c *Client) Requests(ctx context.Context) (task.Targets, error) {
	jql := fmt.Sprintf(`project = "%s" AND status = "To Do"`, c.config.RequestProject)

	zap.L().Debug("searching for scraping requests", zap.String("jql", jql))

	issues, _, err := c.jira.Issue.SearchWithContext(ctx, jql, &gojira.SearchOptions{MaxResults: 100})
	if err != nil {
		return nil, errors.Wrap(err, "failed to search request project")
	}

	var targets task.Targets
	for _, issue := range issues {
		company := customField(issue, c.config.FieldCompanyName)
		careersURL := customField(issue, c.config.FieldCareersURL)
		keywords := splitKeywords(customField(issue, c.config.FieldKeywords))

		if company == "" || careersURL == "" || len(keywords) == 0 {
			zap.L().Debug("skipping incomplete request issue",
				zap.String("key", issue.Key))
			continue
		}

		targets = append(targets, task.Target{
			Name:       company,
			CareersURL: careersURL,
			Keywords:   keywords,
			RequestKey: issue.Key,
		})
	}

	zap.L().Info("found scraping requests in jira",
		zap.Int("issues", len(issues)),
		zap.Int("targets", len(targets)))

	return targets, nil
}

// Publish creates a ticket for the card in the output project, or updates the
// existing one when a ticket containing the card's unique ID already exists.
// Returns whether a new ticket was created.
func (c *Client) Publish(ctx context.Context, card job.Card) (created bool, err error) {
	if c.config.OutputProject == "" {
		return false, errors.New("no output project configured")
	}

	summary := fmt.Sprintf("%s: %s", card.Company, card.Title)
	description := renderDescription(card)

	if key := c.findExisting(ctx, card.UniqueID); key != "" {
		zap.L().Debug("ticket exists for job, updating",
			zap.String("key", key),
			zap.String("job_id", card.UniqueID))

		_, err = c.jira.Issue.UpdateIssueWithContext(ctx, key, map[string]interface{}{
			"fields": map[string]interface{}{
				"summary":     summary,
				"description": description,
			},
		})
		if err != nil {
			return false, errors.Wrapf(err, "failed to update ticket %s", key)
		}
		atomic.AddInt64(&c.updated, 1)
		return false, nil
	}

	issue := gojira.Issue{
		Fields: &gojira.IssueFields{
			Project:     gojira.Project{Key: c.config.OutputProject},
			Summary:     summary,
			Description: description,
			Type:        gojira.IssueType{Name: "Task"},
		},
	}

	out, _, err := c.jira.Issue.CreateWithContext(ctx, &issue)
	if err != nil {
		return false, errors.Wrapf(err, "failed to create ticket for %q", summary)
	}

	zap.L().Debug("created output ticket",
		zap.String("key", out.Key),
		zap.String("job_id", card.UniqueID))

	atomic.AddInt64(&c.created, 1)
	return true, nil
}

// Transition moves an issue to the named status, e.g. "Done".
func (c *Client) Transition(ctx context.Context, key, name string) error {
	transitions, _, err := c.jira.Issue.GetTransitionsWithContext(ctx, key)
	if err != nil {
		return errors.Wrapf(err, "failed to list transitions for %s", key)
	}

	for _, t := range transitions {
		if strings.EqualFold(t.Name, name) {
			if _, err := c.jira.Issue.DoTransitionWithContext(ctx, key, t.ID); err != nil {
				return errors.Wrapf(err, "failed to transition %s to %q", key, name)
			}
			return nil
		}
	}

	return errors.Errorf("no transition %q available for %s", name, key)
}

// Stats returns the number of tickets created and updated so far.
func (c *Client) Stats() (created, updated int64) {
	return atomic.LoadInt64(&c.created), atomic.LoadInt64(&c.updated)
}

// findExisting searches the output project for a ticket whose description
// contains the given job ID. Unknown IDs are never deduplicated.
func (c *Client) findExisting(ctx context.Context, jobID string) string {
	if jobID == "" || jobID == job.UnknownID {
		return ""
	}

	jql := fmt.Sprintf(`project = "%s" AND description ~ "%s"`, c.config.OutputProject, jobID)
	issues, _, err := c.jira.Issue.SearchWithContext(ctx, jql, &gojira.SearchOptions{MaxResults: 1})
	if err != nil {
		zap.L().Warn("failed to search for existing ticket",
			zap.String("job_id", jobID),
			zap.Error(err))
		return ""
	}
	if len(issues) == 0 {
		return ""
	}
	return issues[0].Key
}

func renderDescription(card job.Card) string {
	return fmt.Sprintf(`h2. Company
%s

h2. Job Title
%s

h2. Location
%s

h2. Matched Keywords
%s

h2. Link to Job
%s

h3. Unique Job ID
%s
`,
		card.Company,
		card.Title,
		card.Location,
		strings.Join(card.MatchedKeywords, ", "),
		card.Link,
		card.UniqueID,
	)
}

func customField(issue gojira.Issue, fieldID string) string {
	if issue.Fields == nil || fieldID == "" {
		return ""
	}
	v, ok := issue.Fields.Unknowns[fieldID]
	if !ok {
		return ""
	}
	s, ok := v.(string)
	if !ok {
		return ""
	}
	return strings.TrimSpace(s)
}

func splitKeywords(s string) (keywords []string) {
	for _, kw := range strings.Split(s, ",") {
		kw = strings.TrimSpace(kw)
		if kw != "" {
			keywords = append(keywords, kw)
		}
	}
	return
}
