package task

// Targets is just a list of target objects, to implement the Sort interface
type Targets []Target

// Target represents a single company careers site to scrape and the keyword
// list used to filter its postings.
type Target struct {
	// The company name, also used to derive unique job IDs and, for
	// Greenhouse boards without an embed script, to guess the board token.
	Name string `required:"true" json:"name"`

	// The careers page URL, also used for scrape strategy detection.
	CareersURL string `required:"true" json:"url"`

	// Keywords to scan postings for. A posting matches when any keyword
	// occurs in its title, location or description.
	Keywords []string `required:"true" json:"keywords"`

	// Optionally force a specific scrape strategy instead of detecting one
	// from the page. One of: greenhouse, paylocity, adp, llm.
	Strategy string `json:"strategy"`

	// The key of the Jira request issue this target originated from, when
	// the target came from a request project rather than a config repo.
	RequestKey string `json:"request_key"`

	// Environment variables associated with the target, made available to
	// scrape strategies (for example ADP_CID) - do not store credentials
	// here, use the secret store!
	Env map[string]string `json:"env"`
}

// ExecutionTask is a queued scrape of a single target along with the ambient
// environment it should run with.
type ExecutionTask struct {
	Target Target
	Env    map[string]string
}
