package executor

import (
	"context"

	"github.com/pkg/errors"
	"go.uber.org/zap"

	"github.com/ferretstack/ferret/secret"
	"github.com/ferretstack/ferret/task"
)

var _ Executor = &ScrapeExecutor{}

// ScrapeExecutor scrapes targets from the bus and publishes the resulting job
// cards. A failing target is logged and skipped, it never brings the daemon
// down.
type ScrapeExecutor struct {
	secrets   secret.Store
	scraper   Scraper
	publisher Publisher

	// When set, request issues are transitioned to this status after their
	// target has been scraped and published.
	transitionTo string
}

// NewScrapeExecutor creates a new ScrapeExecutor
func NewScrapeExecutor(
	secrets secret.Store,
	scraper Scraper,
	publisher Publisher,
	transitionTo string,
) *ScrapeExecutor {
	return &ScrapeExecutor{
		secrets:      secrets,
		scraper:      scraper,
		publisher:    publisher,
		transitionTo: transitionTo,
	}
}

// Subscribe implements executor.Executor
func (e *ScrapeExecutor) Subscribe(ctx context.Context, bus chan task.ExecutionTask) error {
	for {
		select {
		case t, ok := <-bus:
			if !ok {
				return nil
			}
			if err := e.Execute(ctx, t); err != nil {
				zap.L().Error("failed to execute scrape task",
					zap.String("target", t.Target.Name),
					zap.Error(errors.Cause(err)))
			}
		case <-ctx.Done():
			return ctx.Err()
		}
	}
}

// Execute runs a single scrape task to completion: resolve secrets, scrape,
// publish each card, then optionally transition the originating request.
func (e *ScrapeExecutor) Execute(ctx context.Context, t task.ExecutionTask) error {
	target := t.Target

	env, err := e.secrets.GetSecretsForTarget(target.Name)
	if err != nil {
		return errors.Wrap(err, "failed to get secrets for target")
	}

	zap.L().Debug("executing scrape with secrets",
		zap.String("target", target.Name),
		zap.String("url", target.CareersURL),
		zap.Int("secrets", len(env)))

	target.Env = mergeEnv(t.Env, target.Env, env)

	cards, err := e.scraper.Process(ctx, target)
	if err != nil {
		return errors.Wrap(err, "failed to scrape target")
	}

	published := 0
	for _, card := range cards {
		if _, err := e.publisher.Publish(ctx, card); err != nil {
			zap.L().Error("failed to publish job card",
				zap.String("target", target.Name),
				zap.String("job_id", card.UniqueID),
				zap.Error(errors.Cause(err)))
			continue
		}
		published++
	}

	zap.L().Info("scrape task complete",
		zap.String("target", target.Name),
		zap.Int("matches", len(cards)),
		zap.Int("published", published))

	if e.transitionTo != "" && target.RequestKey != "" {
		if err := e.publisher.Transition(ctx, target.RequestKey, e.transitionTo); err != nil {
			zap.L().Error("failed to transition request issue",
				zap.String("key", target.RequestKey),
				zap.Error(errors.Cause(err)))
		}
	}

	return nil
}

// mergeEnv overlays each env map over the previous, later maps winning.
func mergeEnv(envs ...map[string]string) map[string]string {
	merged := make(map[string]string)
	for _, env := range envs {
		for k, v := range env {
			merged[k] = v
		}
	}
	return merged
}
