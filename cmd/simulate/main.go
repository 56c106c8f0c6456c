package main

import (
	"context"
	"flag"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/okian/pairwise/internal/domain/bt"
	"github.com/okian/pairwise/internal/simulate"
	"github.com/okian/pairwise/pkg/logger"
)

const defaultTestTimeout = 30 * time.Minute

func main() {
	def := simulate.DefaultConfig()
	var (
		teams       = flag.Int("teams", def.Teams, "Number of synthetic teams")
		games       = flag.Int("games", def.GamesPerPair, "Meetings per pair of teams")
		modelName   = flag.String("model", def.Variant.String(), "Model variant")
		home        = flag.Float64("home", def.HomeEdge, "True home intercept")
		seed        = flag.Uint64("seed", def.Seed, "Seed for generation and sampling")
		chains      = flag.Int("chains", def.Chains, "Sampler chains")
		warmup      = flag.Int("warmup", def.Warmup, "Warmup iterations per chain")
		draws       = flag.Int("draws", def.Draws, "Kept draws per chain")
		dbPath      = flag.String("db", "", "DuckDB file for the synthetic season (default in-memory)")
		outDir      = flag.String("out", "", "Directory for estimates and plot")
		minSpearman = flag.Float64("min-spearman", def.MinSpearman, "Required rank correlation")
		verbose     = flag.Bool("verbose", false, "Enable debug logging")
		help        = flag.Bool("help", false, "Show help")
	)
	flag.Parse()

	if *help {
		simulate.ShowHelp()
		return
	}

	if err := logger.Init(); err != nil {
		_, _ = os.Stderr.WriteString("failed to initialize logging: " + err.Error() + "\n")
		os.Exit(1)
	}
	if *verbose {
		_ = logger.SetLevelString("debug")
	}

	variant, err := bt.ParseVariant(*modelName)
	if err != nil {
		_, _ = os.Stderr.WriteString(err.Error() + "\n")
		os.Exit(2)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	ctx, cancel := context.WithTimeout(ctx, defaultTestTimeout)

	cfg := def
	cfg.Teams = *teams
	cfg.GamesPerPair = *games
	cfg.Variant = variant
	cfg.HomeEdge = *home
	cfg.Seed = *seed
	cfg.Chains = *chains
	cfg.Warmup = *warmup
	cfg.Draws = *draws
	cfg.DBPath = *dbPath
	cfg.OutputDir = *outDir
	cfg.MinSpearman = *minSpearman

	_, err = simulate.Run(ctx, cfg)
	cancel()
	stop()
	if err != nil {
		_, _ = os.Stderr.WriteString("Recovery check failed: " + err.Error() + "\n")
		os.Exit(1)
	}
}
