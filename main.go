package main

import (
	"context"
	"os"
	"os/signal"
	"strconv"
	"time"

	_ "github.com/joho/godotenv/autoload"
	"github.com/pkg/errors"
	"github.com/urfave/cli"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/ferretstack/ferret/jira"
	"github.com/ferretstack/ferret/service"
)

var version = "master"

func init() {
	// constructs a logger and replaces the default global logger
	var config zap.Config
	if d, e := strconv.ParseBool(os.Getenv("DEVELOPMENT")); d && e == nil {
		config = zap.NewDevelopmentConfig()
	} else {
		config = zap.NewProductionConfig()
	}
	config.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	config.DisableStacktrace = true
	if d, e := strconv.ParseBool(os.Getenv("DEBUG")); d && e == nil {
		config.Level = zap.NewAtomicLevelAt(zap.DebugLevel)
	}
	logger, err := config.Build()
	if err != nil {
		panic(err)
	}
	zap.ReplaceGlobals(logger)
}

var flags = []cli.Flag{
	cli.StringFlag{Name: "jira-server", EnvVar: "JIRA_SERVER"},
	cli.StringFlag{Name: "jira-email", EnvVar: "JIRA_EMAIL"},
	cli.StringFlag{Name: "jira-api-token", EnvVar: "JIRA_API_TOKEN"},
	cli.StringFlag{Name: "jira-request-project", EnvVar: "JIRA_REQUEST_PROJECT_KEY"},
	cli.StringFlag{Name: "jira-output-project", EnvVar: "JIRA_OUTPUT_PROJECT_KEY"},
	cli.StringFlag{Name: "jira-field-company-name", EnvVar: "JIRA_FIELD_COMPANY_NAME"},
	cli.StringFlag{Name: "jira-field-careers-url", EnvVar: "JIRA_FIELD_CAREERS_URL"},
	cli.StringFlag{Name: "jira-field-keywords", EnvVar: "JIRA_FIELD_KEYWORDS"},
	cli.StringFlag{Name: "gemini-api-key", EnvVar: "GEMINI_API_KEY"},
	cli.StringFlag{Name: "gemini-model", EnvVar: "GEMINI_MODEL"},
	cli.StringFlag{Name: "transition", EnvVar: "TRANSITION", Usage: "transition request issues to this status once scraped, e.g. Done"},
	cli.BoolFlag{Name: "dry-run", EnvVar: "DRY_RUN", Usage: "print job cards instead of creating tickets"},
	cli.StringFlag{Name: "hostname", EnvVar: "HOSTNAME"},
	cli.StringFlag{Name: "directory", EnvVar: "DIRECTORY", Value: "./cache/"},
	cli.StringFlag{Name: "config-repo", EnvVar: "CONFIG_REPO", Usage: "take scrape targets from JS files in this Git repository instead of Jira"},
	cli.BoolFlag{Name: "no-ssh", EnvVar: "NO_SSH"},
	cli.DurationFlag{Name: "check-interval", EnvVar: "CHECK_INTERVAL", Value: time.Minute * 10},
	cli.StringFlag{Name: "schedule", EnvVar: "SCHEDULE", Value: "0 0 * * *", Usage: "cron expression for full sweeps"},
	cli.StringFlag{Name: "vault-addr", EnvVar: "VAULT_ADDR"},
	cli.StringFlag{Name: "vault-token", EnvVar: "VAULT_TOKEN"},
	cli.StringFlag{Name: "vault-path", EnvVar: "VAULT_PATH", Value: "/secret"},
	cli.DurationFlag{Name: "vault-renew-interval", EnvVar: "VAULT_RENEW_INTERVAL", Value: time.Hour * 24},
}

func configFromFlags(c *cli.Context) service.Config {
	return service.Config{
		Hostname:      c.String("hostname"),
		Directory:     c.String("directory"),
		NoSSH:         c.Bool("no-ssh"),
		CheckInterval: c.Duration("check-interval"),
		Schedule:      c.String("schedule"),
		ConfigRepo:    c.String("config-repo"),
		Jira: jira.Config{
			Server:           c.String("jira-server"),
			Email:            c.String("jira-email"),
			APIToken:         c.String("jira-api-token"),
			RequestProject:   c.String("jira-request-project"),
			OutputProject:    c.String("jira-output-project"),
			FieldCompanyName: c.String("jira-field-company-name"),
			FieldCareersURL:  c.String("jira-field-careers-url"),
			FieldKeywords:    c.String("jira-field-keywords"),
		},
		Transition:   c.String("transition"),
		DryRun:       c.Bool("dry-run"),
		GeminiAPIKey: c.String("gemini-api-key"),
		GeminiModel:  c.String("gemini-model"),
		VaultAddress: c.String("vault-addr"),
		VaultToken:   c.String("vault-token"),
		VaultPath:    c.String("vault-path"),
		VaultRenewal: c.Duration("vault-renew-interval"),
	}
}

func main() {
	app := cli.NewApp()

	app.Name = "ferret"
	app.Usage = "A Jira-driven job scraping butler."
	app.UsageText = `ferret [flags] [command]`
	app.Version = version
	app.Description = `Ferret watches a Jira project for scraping requests, hunts through the
requested careers sites for postings that match each request's keywords and
files what it finds as tickets in an output project.`

	app.Commands = []cli.Command{
		{
			Name:    "run",
			Aliases: []string{"r"},
			Description: `Starts the ferret daemon. Scrape targets come from the configured Jira
request project (or a Git repository of config files) and every target is
scraped on the configured cron schedule. New requests are scraped as soon
as they are discovered.`,
			Usage: "starts the daemon",
			Flags: flags,
			Action: func(c *cli.Context) (err error) {
				ctx, cancel := context.WithCancel(context.Background())
				defer cancel()

				config := configFromFlags(c)

				// If no hostname is provided, use the actual host's hostname
				if config.Hostname == "" {
					config.Hostname, err = os.Hostname()
					if err != nil {
						return errors.Wrap(err, "failed to get hostname")
					}
				}

				zap.L().Debug("initialising service")

				svc, err := service.Initialise(config)
				if err != nil {
					return errors.Wrap(err, "failed to initialise")
				}

				zap.L().Info("service initialised")

				errs := make(chan error, 1)
				go func() { errs <- svc.Start(ctx) }()

				s := make(chan os.Signal, 1)
				signal.Notify(s, os.Interrupt)

				select {
				case <-ctx.Done():
					err = ctx.Err()
				case sig := <-s:
					err = errors.New(sig.String())
				case err = <-errs:
				}

				return
			},
		},
		{
			Name:    "sweep",
			Aliases: []string{"s"},
			Description: `Performs a single pass: fetches the current scraping requests from Jira,
scrapes every one of them, publishes the results and exits. Intended for
running under an external scheduler.`,
			Usage: "scrape all current requests once and exit",
			Flags: flags,
			Action: func(c *cli.Context) error {
				ctx, cancel := context.WithCancel(context.Background())
				defer cancel()

				zap.L().Debug("initialising service for sweep")

				svc, err := service.Initialise(configFromFlags(c))
				if err != nil {
					return errors.Wrap(err, "failed to initialise")
				}

				return svc.Sweep(ctx)
			},
		},
	}

	err := app.Run(os.Args)
	if err != nil {
		zap.L().Fatal("exit", zap.Error(err))
	}
}
