package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/okian/pairwise/internal/adapters/report"
	"github.com/okian/pairwise/internal/adapters/repository"
	"github.com/okian/pairwise/internal/adapters/statsapi"
	app "github.com/okian/pairwise/internal/app"
	"github.com/okian/pairwise/internal/config"
	"github.com/okian/pairwise/pkg/logger"
	"github.com/okian/pairwise/pkg/metrics"
)

const usage = `usage: pairwise <command> [flags]

commands:
  init     create the database tables
  ingest   load seasons, teams, schedules and line scores from the stats API
  fit      fit a model to one season and write rank estimates and a plot;
           -seasons and -models fit every listed season with every model

Configuration is read from defaults, the YAML file named by PAIRWISE_CONFIG
and PAIRWISE_* environment variables. Flags override all of them.
`

var errUsage = errors.New("usage")

func main() {
	// Initialize logging
	if err := logger.Init(); err != nil {
		_, _ = os.Stderr.WriteString("failed to initialize logging: " + err.Error() + "\n")
		os.Exit(1)
	}

	// Root context with cancel on SIGINT/SIGTERM.
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	err := run(ctx, os.Args[1:], os.Stdout)
	stop()

	if errors.Is(err, errUsage) {
		_, _ = os.Stderr.WriteString(usage)
		os.Exit(2)
	}
	if err != nil {
		logger.Get().Error(ctx, "pairwise failed", logger.Error(err))
		os.Exit(1)
	}
}

// run executes one subcommand. stdout receives the estimates of a fit.
func run(ctx context.Context, args []string, stdout io.Writer) error {
	if len(args) == 0 {
		return errUsage
	}
	cmd, args := args[0], args[1:]

	// Load configuration (defaults -> optional file -> env)
	cfg, err := config.Load(ctx)
	if err != nil {
		return err
	}
	if err := parseFlags(cmd, cfg, args); err != nil {
		return err
	}
	if err := cfg.Validate(); err != nil {
		return err
	}

	// Apply configured log level (fallback to info on invalid input)
	if err := logger.SetLevelString(cfg.LogLevel); err != nil {
		logger.Get().Warn(ctx, "invalid log_level; falling back to info", logger.String("log_level", cfg.LogLevel), logger.Error(err))
		_ = logger.SetLevelString("info")
	}

	switch cmd {
	case "init":
		err = runInit(ctx, cfg)
	case "ingest":
		err = runIngest(ctx, cfg)
	case "fit":
		err = runFit(ctx, cfg, stdout)
	}

	if cfg.MetricsFile != "" {
		if werr := metrics.WriteTextfile(cfg.MetricsFile); werr != nil {
			logger.Get().Warn(ctx, "failed to write metrics", logger.Error(werr))
		}
	}
	return err
}

// parseFlags applies the flags of cmd on top of the loaded configuration.
func parseFlags(cmd string, cfg *config.Config, args []string) error {
	fs := flag.NewFlagSet(cmd, flag.ContinueOnError)
	fs.SetOutput(io.Discard)
	fs.StringVar(&cfg.DBPath, "db", cfg.DBPath, "DuckDB database file")
	fs.StringVar(&cfg.LogLevel, "log-level", cfg.LogLevel, "debug, info, warn or error")
	fs.StringVar(&cfg.MetricsFile, "metrics", cfg.MetricsFile, "write Prometheus metrics to this file")

	switch cmd {
	case "init":
	case "ingest":
		fs.IntVar(&cfg.FirstScoreSeason, "from", cfg.FirstScoreSeason, "first season to fetch teams, schedules and scores for")
		fs.IntVar(&cfg.IngestWorkers, "workers", cfg.IngestWorkers, "concurrent line score fetches")
		fs.IntVar(&cfg.IngestRetries, "retries", cfg.IngestRetries, "extra passes over failed line score fetches")
		fs.StringVar(&cfg.APIBaseURL, "api", cfg.APIBaseURL, "stats API base URL")
	case "fit":
		fs.IntVar(&cfg.Season, "season", cfg.Season, "season to fit")
		fs.StringVar(&cfg.Model, "model", cfg.Model, "binary, binary_home, ordinal or ordinal_home")
		fs.StringVar(&cfg.Seasons, "seasons", cfg.Seasons, "batch of seasons, e.g. 2019-2024 or 2019,2021")
		fs.StringVar(&cfg.Models, "models", cfg.Models, "batch of models, e.g. binary,binary_home,ordinal")
		fs.Float64Var(&cfg.AbilityPriorSD, "ability-sd", cfg.AbilityPriorSD, "prior standard deviation of team ability")
		fs.Float64Var(&cfg.InterceptPriorSD, "home-sd", cfg.InterceptPriorSD, "prior standard deviation of the home intercept")
		fs.BoolVar(&cfg.HomeIntercept, "home", cfg.HomeIntercept, "add a home intercept to any model")
		fs.StringVar(&cfg.AbilityScale, "scale", cfg.AbilityScale, "ability scale override: log or raw")
		fs.IntVar(&cfg.Chains, "chains", cfg.Chains, "sampler chains")
		fs.IntVar(&cfg.Warmup, "warmup", cfg.Warmup, "warmup iterations per chain")
		fs.IntVar(&cfg.Draws, "draws", cfg.Draws, "kept draws per chain")
		fs.Uint64Var(&cfg.Seed, "seed", cfg.Seed, "sampler seed")
		fs.StringVar(&cfg.OutputDir, "out", cfg.OutputDir, "output directory")
		fs.StringVar(&cfg.EstimatesFormat, "format", cfg.EstimatesFormat, "csv, json or yaml")
		fs.BoolVar(&cfg.Plot, "plot", cfg.Plot, "draw the rank violin plot")
	default:
		return fmt.Errorf("%w: unknown command %q", errUsage, cmd)
	}

	if err := fs.Parse(args); err != nil {
		return fmt.Errorf("%w: %s: %w", errUsage, cmd, err)
	}
	if fs.NArg() > 0 {
		return fmt.Errorf("%w: unexpected arguments %v", errUsage, fs.Args())
	}
	return nil
}

// openStore opens the configured database and logs where it lives.
func openStore(ctx context.Context, cfg *config.Config, opts ...repository.Option) (*repository.Store, error) {
	store, err := repository.Open(ctx, cfg.DBPath, opts...)
	if err != nil {
		return nil, err
	}
	logger.Get().Debug(ctx, "database opened", logger.String("path", store.Path()))
	return store, nil
}

func runInit(ctx context.Context, cfg *config.Config) error {
	store, err := openStore(ctx, cfg)
	if err != nil {
		return err
	}
	defer closeStore(ctx, store)
	return app.NewInitializer(store).Run(ctx)
}

func runIngest(ctx context.Context, cfg *config.Config) error {
	store, err := openStore(ctx, cfg)
	if err != nil {
		return err
	}
	defer closeStore(ctx, store)

	api := statsapi.New(
		statsapi.WithBaseURL(cfg.APIBaseURL),
		statsapi.WithTimeout(cfg.APITimeout()),
	)
	in := app.NewIngestor(api, store,
		app.WithIngestWorkers(cfg.IngestWorkers),
		app.WithIngestRetries(cfg.IngestRetries),
		app.WithFirstSeason(cfg.FirstScoreSeason),
	)
	_, err = in.Run(ctx)
	return err
}

// runFit fits one season and model and writes the estimates to stdout, or
// hands over to runBatch when season or model lists are configured.
func runFit(ctx context.Context, cfg *config.Config, stdout io.Writer) error {
	req, err := app.RequestFromConfig(cfg)
	if err != nil {
		return err
	}
	format, err := report.ParseFormat(cfg.EstimatesFormat)
	if err != nil {
		return err
	}

	store, err := openStore(ctx, cfg, repository.WithReadOnly())
	if err != nil {
		return err
	}
	defer closeStore(ctx, store)

	svc := app.New(store,
		app.WithLogger(logger.Get().Named("fit")),
		app.WithWorkerCount(cfg.Chains),
		app.WithOutputDir(cfg.OutputDir),
		app.WithFormat(format),
		app.WithPlot(cfg.Plot),
	)
	if cfg.Batch() {
		return runBatch(ctx, cfg, svc, stdout)
	}
	res, err := svc.Fit(ctx, req)
	if err != nil {
		return err
	}
	return report.Write(stdout, report.FormatCSV, res.Summaries)
}

func closeStore(ctx context.Context, store *repository.Store) {
	if err := store.Close(); err != nil {
		logger.Get().Error(ctx, "failed to close database", logger.Error(err))
	}
}
