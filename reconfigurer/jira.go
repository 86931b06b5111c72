package reconfigurer

import (
	"context"
	"time"

	"github.com/pkg/errors"
	"go.uber.org/zap"

	"github.com/ferretstack/ferret/config"
	"github.com/ferretstack/ferret/task"
	"github.com/ferretstack/ferret/watcher"
)

// Requester fetches open scrape requests as targets. Implemented by the jira
// package.
type Requester interface {
	Requests(ctx context.Context) (task.Targets, error)
}

var _ Provider = &JiraProvider{}

// JiraProvider implements a Provider backed by a Jira request project. It
// polls the project and reconfigures its watcher whenever the set of open
// requests changes.
type JiraProvider struct {
	requester     Requester
	checkInterval time.Duration
	env           map[string]string
}

// NewJira creates a new provider with all necessary parameters
func NewJira(requester Requester, checkInterval time.Duration, env map[string]string) *JiraProvider {
	return &JiraProvider{
		requester:     requester,
		checkInterval: checkInterval,
		env:           env,
	}
}

// Configure implements Provider. The initial poll must succeed so
// misconfiguration surfaces at startup; later polls just log and retry on
// the next tick.
func (p *JiraProvider) Configure(w watcher.Watcher) error {
	if err := p.reconfigure(w); err != nil {
		return errors.Wrap(err, "failed to perform initial configuration")
	}

	ticker := time.NewTicker(p.checkInterval)
	defer ticker.Stop()

	for range ticker.C {
		if err := p.reconfigure(w); err != nil {
			zap.L().Error("failed to refresh requests from jira",
				zap.Error(errors.Cause(err)))
		}
	}

	return nil
}

func (p *JiraProvider) reconfigure(w watcher.Watcher) error {
	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()

	targets, err := p.requester.Requests(ctx)
	if err != nil {
		return err
	}

	zap.L().Debug("constructed desired state from jira requests",
		zap.Int("targets", len(targets)))

	return w.SetState(config.State{
		Targets: targets,
		Env:     p.env,
	})
}
