package main

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strconv"

	"github.com/okian/pairwise/internal/adapters/repository"
	app "github.com/okian/pairwise/internal/app"
	"github.com/okian/pairwise/internal/config"
	"github.com/okian/pairwise/pkg/logger"
)

var batchHeader = []string{
	"season", "model", "games", "teams", "max_rhat", "worst_param", "divergences",
	"observed_away_win", "replicated_away_win", "estimates",
}

// runBatch fits every configured season with every configured model, one
// after the other, and writes one summary row per fit to stdout. Seasons
// without completed games are logged and skipped; any other failure stops
// the batch.
func runBatch(ctx context.Context, cfg *config.Config, svc *app.Service, stdout io.Writer) error {
	seasons, err := cfg.FitSeasons()
	if err != nil {
		return err
	}
	models, err := cfg.FitModels()
	if err != nil {
		return err
	}
	log := logger.Get().Named("batch")
	log.Info(ctx, "batch started", logger.Any("seasons", seasons), logger.Any("models", models))

	w := csv.NewWriter(stdout)
	defer w.Flush()
	if err := w.Write(batchHeader); err != nil {
		return err
	}

	var fitted, skipped int
	for _, season := range seasons {
		for _, name := range models {
			one := *cfg
			one.Season, one.Model = season, name
			req, err := app.RequestFromConfig(&one)
			if err != nil {
				return err
			}

			res, err := svc.Fit(ctx, req)
			if errors.Is(err, repository.ErrNoGames) {
				log.Warn(ctx, "season skipped", logger.Int("season", season), logger.Error(err))
				skipped++
				break
			}
			if err != nil {
				return fmt.Errorf("season %d model %s: %w", season, name, err)
			}
			fitted++

			if err := w.Write(batchRow(res)); err != nil {
				return err
			}
			w.Flush()
			if err := w.Error(); err != nil {
				return err
			}
		}
	}

	log.Info(ctx, "batch complete", logger.Int("fits", fitted), logger.Int("skipped_seasons", skipped))
	if fitted == 0 {
		return fmt.Errorf("%w: no listed season has completed games", repository.ErrNoGames)
	}
	return nil
}

func batchRow(res *app.FitResult) []string {
	f := func(x float64) string { return strconv.FormatFloat(x, 'f', 4, 64) }
	return []string{
		strconv.Itoa(res.Season),
		res.Variant,
		strconv.Itoa(res.Games),
		strconv.Itoa(res.Teams),
		f(res.MaxRHat),
		res.WorstParam,
		strconv.Itoa(res.Divergences),
		f(res.Calibration.ObservedAwayWin),
		f(res.Calibration.ReplicatedAwayWin),
		res.EstimatesPath,
	}
}
