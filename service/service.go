// Package service wires the application together: secret store, Jira client,
// scraper, watcher, reconfigurer provider and executor.
package service

import (
	"context"
	"time"

	"github.com/eapache/go-resiliency/retrier"
	"github.com/pkg/errors"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
	"gopkg.in/src-d/go-git.v4/plumbing/transport"
	"gopkg.in/src-d/go-git.v4/plumbing/transport/ssh"

	"github.com/ferretstack/ferret/executor"
	"github.com/ferretstack/ferret/jira"
	"github.com/ferretstack/ferret/llm"
	"github.com/ferretstack/ferret/reconfigurer"
	"github.com/ferretstack/ferret/scraper"
	"github.com/ferretstack/ferret/secret"
	"github.com/ferretstack/ferret/secret/memory"
	"github.com/ferretstack/ferret/secret/vault"
	"github.com/ferretstack/ferret/task"
	"github.com/ferretstack/ferret/watcher"
)

// The env var prefix the in-memory secret store pulls secrets from, and the
// secret store path global credentials are read from.
const (
	secretPrefix = "FERRET_SECRET_"
	globalSecret = "ferret"
)

// Config specifies static configuration parameters (from CLI or environment)
type Config struct {
	Hostname      string
	Directory     string
	NoSSH         bool
	CheckInterval time.Duration
	Schedule      string

	// When set, scrape targets come from JS config files in this repo
	// instead of the Jira request project.
	ConfigRepo string

	Jira       jira.Config
	Transition string
	DryRun     bool

	GeminiAPIKey string
	GeminiModel  string

	VaultAddress string
	VaultToken   string
	VaultPath    string
	VaultRenewal time.Duration
}

// App stores application state
type App struct {
	config    Config
	secrets   secret.Store
	vault     *vault.VaultSecrets
	jira      *jira.Client
	scraper   *scraper.Scraper
	extractor *llm.Extractor
	watcher   watcher.Watcher
	provider  reconfigurer.Provider
	executor  executor.Executor
	bus       chan task.ExecutionTask
}

// Initialise prepares an instance of the app to run
func Initialise(c Config) (app *App, err error) {
	app = new(App)

	app.config = c

	var vaultStore *vault.VaultSecrets
	var secretStore secret.Store
	if c.VaultAddress != "" {
		vaultStore, err = vault.New(c.VaultAddress, c.VaultPath, c.VaultToken, c.VaultRenewal)
		if err != nil {
			return nil, err
		}
		secretStore = vaultStore
	} else {
		secretStore = memory.FromEnvironment(secretPrefix)
	}

	app.secrets = secretStore
	app.vault = vaultStore

	if err := fillCredentials(&c, secretStore); err != nil {
		return nil, err
	}
	app.config = c

	var extractor scraper.Extractor
	if c.GeminiAPIKey != "" {
		gemini, err := llm.New(context.Background(), c.GeminiAPIKey, c.GeminiModel)
		if err != nil {
			return nil, errors.Wrap(err, "failed to initialise gemini extractor")
		}
		extractor = gemini
		app.extractor = gemini
	}

	app.scraper = scraper.New(extractor)

	// a dry run against a config repo is the only mode that needs no Jira
	if !(c.DryRun && c.ConfigRepo != "") {
		app.jira, err = jira.Connect(c.Jira)
		if err != nil {
			return nil, errors.Wrap(err, "failed to connect to jira")
		}
		zap.L().Info("connected to jira", zap.String("server", c.Jira.Server))
	}

	app.bus = make(chan task.ExecutionTask, 100)

	app.watcher, err = watcher.NewScheduleWatcher(app.bus, c.Schedule)
	if err != nil {
		return nil, err
	}

	if c.ConfigRepo != "" {
		var authMethod transport.AuthMethod
		if !c.NoSSH {
			authMethod, err = ssh.NewSSHAgentAuth("git")
			if err != nil {
				return nil, errors.Wrap(err, "failed to set up SSH authentication")
			}
		}
		app.provider = reconfigurer.NewGit(
			c.Directory,
			c.Hostname,
			c.ConfigRepo,
			c.CheckInterval,
			authMethod,
		)
	} else {
		app.provider = reconfigurer.NewJira(app.jira, c.CheckInterval, map[string]string{
			"HOSTNAME": c.Hostname,
		})
	}

	if c.DryRun {
		app.executor = executor.NewPrinter(app.scraper)
	} else {
		app.executor = executor.NewScrapeExecutor(app.secrets, app.scraper, app.jira, c.Transition)
	}

	return
}

// Start launches the app and blocks until fatal error
func (app *App) Start(ctx context.Context) error {
	g, ctx := errgroup.WithContext(ctx)

	zap.L().Debug("starting service daemon")

	g.Go(func() error {
		return app.watcher.Start(ctx)
	})

	g.Go(func() error {
		return app.executor.Subscribe(ctx, app.bus)
	})

	g.Go(func() error {
		return app.provider.Configure(app.watcher)
	})

	if app.vault != nil {
		g.Go(func() error {
			return retrier.New(retrier.ConstantBackoff(3, 100*time.Millisecond), nil).
				RunCtx(ctx, app.vault.Renew)
		})
	}

	return g.Wait()
}

// Sweep performs a single pass: fetch the current requests, scrape them all
// and publish the results, then log a run summary.
func (app *App) Sweep(ctx context.Context) error {
	if app.jira == nil {
		return errors.New("sweep requires a jira connection")
	}

	targets, err := app.jira.Requests(ctx)
	if err != nil {
		return errors.Wrap(err, "failed to fetch scraping requests")
	}

	if len(targets) == 0 {
		zap.L().Info("no new requests found in jira")
		return nil
	}

	for _, t := range targets {
		app.bus <- task.ExecutionTask{Target: t}
	}
	close(app.bus)

	if err := app.executor.Subscribe(ctx, app.bus); err != nil {
		return err
	}

	zap.L().Info("sweep complete", app.summaryFields(len(targets))...)

	return nil
}

func (app *App) summaryFields(targets int) []zap.Field {
	created, updated := app.jira.Stats()
	fields := []zap.Field{
		zap.Int("targets", targets),
		zap.Int64("page_loads", app.scraper.PageLoads()),
		zap.Int64("tickets_created", created),
		zap.Int64("tickets_updated", updated),
	}
	if app.extractor != nil {
		fields = append(fields, zap.Int64("gemini_requests", app.extractor.Requests()))
	}
	return fields
}

// fillCredentials resolves missing credentials from the secret store so
// tokens can live in vault instead of the environment.
func fillCredentials(c *Config, store secret.Store) error {
	global, err := store.GetSecretsForTarget(globalSecret)
	if err != nil {
		return errors.Wrap(err, "failed to read global secrets")
	}
	if global == nil {
		return nil
	}

	fill := func(dst *string, key string) {
		if *dst == "" {
			*dst = global[key]
		}
	}
	fill(&c.Jira.APIToken, "JIRA_API_TOKEN")
	fill(&c.Jira.Email, "JIRA_EMAIL")
	fill(&c.Jira.Server, "JIRA_SERVER")
	fill(&c.GeminiAPIKey, "GEMINI_API_KEY")

	return nil
}
