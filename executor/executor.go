package executor

import (
	"context"

	"github.com/ferretstack/ferret/job"
	"github.com/ferretstack/ferret/task"
)

// Executor describes a type that can handle scrape tasks. Subscribe returns
// when the bus is closed or the context is cancelled.
type Executor interface {
	Subscribe(context.Context, chan task.ExecutionTask) error
}

// Scraper turns a target into keyword-matched job cards. Implemented by the
// scraper package.
type Scraper interface {
	Process(ctx context.Context, target task.Target) ([]job.Card, error)
}

// Publisher receives the job cards a scrape produced. Implemented by the jira
// package.
type Publisher interface {
	Publish(ctx context.Context, card job.Card) (created bool, err error)
	Transition(ctx context.Context, key, name string) error
}
