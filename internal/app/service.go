// Package service wires the pipeline stages together. Fit runs one season
// through load, model, sample, rank, summarise, report and plot; Ingestor
// fills the database from the stats API.
package service

import (
	"context"
	"fmt"
	"math/rand/v2"
	"runtime"
	"time"

	"github.com/google/uuid"
	"github.com/okian/pairwise/internal/adapters/mq/queue"
	"github.com/okian/pairwise/internal/adapters/mq/worker"
	rankplot "github.com/okian/pairwise/internal/adapters/plot"
	"github.com/okian/pairwise/internal/adapters/report"
	"github.com/okian/pairwise/internal/config"
	"github.com/okian/pairwise/internal/domain/bt"
	"github.com/okian/pairwise/internal/domain/model"
	"github.com/okian/pairwise/internal/domain/ranking"
	"github.com/okian/pairwise/internal/domain/sampler"
	"github.com/okian/pairwise/pkg/logger"
	"github.com/okian/pairwise/pkg/metrics"
)

// RHatWarn is the split R-hat above which a fit is reported as unconverged.
const RHatWarn = 1.05

// GameSource loads the game table and team labels of a season.
type GameSource interface {
	LoadGames(ctx context.Context, season int) (model.GameTable, error)
	TeamLabels(ctx context.Context, season int) ([]model.TeamLabel, error)
}

// FitRequest describes one fit. Zero prior standard deviations keep the
// model defaults.
type FitRequest struct {
	Season  int
	Variant bt.Variant
	Chains  int
	Sampler sampler.Config

	AbilityPriorSD   float64
	InterceptPriorSD float64
}

// RequestFromConfig builds a FitRequest from validated configuration.
// HomeIntercept and AbilityScale override the named variant.
func RequestFromConfig(cfg *config.Config) (FitRequest, error) {
	v, err := bt.ParseVariant(cfg.Model)
	if err != nil {
		return FitRequest{}, fmt.Errorf("%w: %w", ErrInvalidRequest, err)
	}
	if cfg.HomeIntercept {
		v.HomeIntercept = true
	}
	if cfg.AbilityScale != "" {
		if v.Scale, err = bt.ParseScale(cfg.AbilityScale); err != nil {
			return FitRequest{}, fmt.Errorf("%w: %w", ErrInvalidRequest, err)
		}
	}
	return FitRequest{
		Season:  cfg.Season,
		Variant: v,
		Chains:  cfg.Chains,
		Sampler: sampler.Config{
			Warmup:        cfg.Warmup,
			Draws:         cfg.Draws,
			LeapfrogSteps: cfg.LeapfrogSteps,
			TargetAccept:  cfg.TargetAccept,
			Seed:          cfg.Seed,
		},
		AbilityPriorSD:   cfg.AbilityPriorSD,
		InterceptPriorSD: cfg.InterceptPriorSD,
	}, nil
}

// ChainStats summarises one sampler chain.
type ChainStats struct {
	ID          int
	Draws       int
	Divergences int
	StepSize    float64
	AcceptRate  float64
	Duration    time.Duration
}

// FitResult is everything one fit produced.
type FitResult struct {
	RunID         string
	Season        int
	Variant       string
	Games         int
	Teams         int
	Labels        map[int]string
	Draws         model.Draws
	Chains        []ChainStats
	ParamNames    []string
	RHat          []float64 // split R-hat of the constrained draws, in ParamNames order
	MaxRHat       float64
	WorstParam    string // parameter with the largest R-hat
	Divergences   int
	Calibration   bt.Calibration
	Summaries     []model.TeamSummary // ordered by team id
	EstimatesPath string
	PlotPath      string
	Elapsed       time.Duration
}

// Service runs fits against a game source. It holds no per-fit state.
type Service struct {
	source      GameSource
	workerCount int
	outputDir   string
	format      report.Format
	plot        bool

	logger logger.Logger
}

// New constructs a Service with default configuration.
func New(source GameSource, opts ...Option) *Service {
	s := &Service{
		source:      source,
		workerCount: runtime.NumCPU(),
		format:      report.FormatCSV,
		plot:        true,
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.logger == nil {
		s.logger = logger.Get().Named("fit")
	}
	return s
}

// stage times fn under name.
func (s *Service) stage(ctx context.Context, name string, fn func() error) error {
	start := time.Now()
	err := fn()
	elapsed := time.Since(start)
	metrics.ObserveStage(name, elapsed.Seconds())
	if err != nil {
		metrics.RecordErrorByComponent("fit", name)
		return err
	}
	s.logger.Debug(ctx, "stage complete", logger.String("stage", name), logger.Duration("elapsed", elapsed))
	return nil
}

// Fit loads a season, samples the posterior of the requested variant and
// summarises the posterior rank of every team.
func (s *Service) Fit(ctx context.Context, req FitRequest) (*FitResult, error) { //nolint:funlen // one block per stage
	if req.Chains < 1 {
		return nil, fmt.Errorf("%w: chains %d", ErrInvalidRequest, req.Chains)
	}

	start := time.Now()
	res := &FitResult{
		RunID:   uuid.NewString(),
		Season:  req.Season,
		Variant: req.Variant.String(),
	}
	log := s.logger
	log.Info(ctx, "fit started",
		logger.String("run_id", res.RunID),
		logger.Int("season", req.Season),
		logger.String("variant", res.Variant),
		logger.Int("chains", req.Chains),
		logger.Int("warmup", req.Sampler.Warmup),
		logger.Int("draws", req.Sampler.Draws),
	)

	var table model.GameTable
	if err := s.stage(ctx, "load", func() error {
		var err error
		if table, err = s.source.LoadGames(ctx, req.Season); err != nil {
			return fmt.Errorf("load season %d: %w", req.Season, err)
		}
		labels, err := s.source.TeamLabels(ctx, req.Season)
		if err != nil {
			return fmt.Errorf("team labels %d: %w", req.Season, err)
		}
		res.Labels = model.Abbreviations(labels)
		return nil
	}); err != nil {
		return nil, err
	}
	res.Games, res.Teams = table.Len(), table.Teams
	metrics.UpdateGamesLoaded(res.Games, res.Teams)
	log.Info(ctx, "games loaded", logger.Int("games", res.Games), logger.Int("teams", res.Teams))

	m, err := bt.New(req.Variant, table,
		bt.WithAbilityPrior(req.AbilityPriorSD), bt.WithInterceptPrior(req.InterceptPriorSD))
	if err != nil {
		return nil, fmt.Errorf("build model: %w", err)
	}
	res.ParamNames = m.ParamNames()

	var chains []sampler.Chain
	if err := s.stage(ctx, "sample", func() error {
		var err error
		chains, err = s.sample(ctx, m, req)
		return err
	}); err != nil {
		return nil, err
	}

	res.Draws = model.Draws{Teams: m.Teams(), Chains: make([][]model.Params, len(chains))}
	flat := make([][][]float64, len(chains))
	for c, ch := range chains {
		params := make([]model.Params, len(ch.Draws))
		flat[c] = make([][]float64, len(ch.Draws))
		for i, theta := range ch.Draws {
			params[i] = m.Constrain(theta)
			flat[c][i] = m.Flatten(params[i])
		}
		res.Draws.Chains[c] = params
		res.Chains = append(res.Chains, ChainStats{
			ID:          ch.ID,
			Draws:       len(ch.Draws),
			Divergences: ch.Divergences,
			StepSize:    ch.StepSize,
			AcceptRate:  ch.AcceptRate,
			Duration:    ch.Duration,
		})
		res.Divergences += ch.Divergences
	}

	res.RHat = sampler.SplitRHat(flat)
	res.MaxRHat = sampler.MaxRHat(res.RHat)
	for i, r := range res.RHat {
		if r == res.MaxRHat {
			res.WorstParam = res.ParamNames[i]
			break
		}
	}
	metrics.UpdateMaxRHat(res.MaxRHat)
	if res.Divergences > 0 {
		log.Warn(ctx, "divergent transitions after warmup", logger.Int("divergences", res.Divergences))
	}
	if res.MaxRHat > RHatWarn {
		log.Warn(ctx, "chains have not mixed",
			logger.Float64("max_rhat", res.MaxRHat), logger.String("param", res.WorstParam))
	}

	// replicate streams sit after the sampler's chain streams
	if err := s.stage(ctx, "predict", func() error {
		res.Calibration = m.Calibrate(res.Draws, func(c int) *rand.Rand {
			return sampler.NewRand(req.Sampler.Seed, req.Chains+c)
		})
		return ctx.Err()
	}); err != nil {
		return nil, fmt.Errorf("posterior predictive: %w", err)
	}
	log.Info(ctx, "posterior predictive check",
		logger.Int("replicates", res.Calibration.Replicates),
		logger.Float64("observed_away_win", res.Calibration.ObservedAwayWin),
		logger.Float64("replicated_away_win", res.Calibration.ReplicatedAwayWin),
		logger.Any("levels", res.Calibration.Levels),
		logger.Any("observed", res.Calibration.Observed),
		logger.Any("replicated", res.Calibration.Replicated),
		logger.Float64("max_gap", res.Calibration.MaxGap()),
	)

	var records []model.RankRecord
	if err := s.stage(ctx, "rank", func() error {
		var err error
		records, err = ranking.Extract(res.Draws, res.Labels)
		return err
	}); err != nil {
		return nil, fmt.Errorf("extract ranks: %w", err)
	}
	res.Summaries = ranking.Summarize(records)

	if s.outputDir != "" {
		if err := s.stage(ctx, "report", func() error {
			var err error
			res.EstimatesPath, err = report.WriteFile(s.outputDir, req.Season, res.Variant, s.format, res.Summaries)
			return err
		}); err != nil {
			return nil, fmt.Errorf("write estimates: %w", err)
		}
		if s.plot {
			if err := s.stage(ctx, "plot", func() error {
				title := fmt.Sprintf("%d posterior ranks (%s)", req.Season, res.Variant)
				fig := rankplot.NewFigure(title, res.Summaries, ranking.Frequencies(records, res.Teams))
				var err error
				res.PlotPath, err = rankplot.Save(s.outputDir, req.Season, res.Variant, fig)
				return err
			}); err != nil {
				return nil, fmt.Errorf("draw plot: %w", err)
			}
		}
	}

	res.Elapsed = time.Since(start)
	log.Info(ctx, "fit complete",
		logger.String("run_id", res.RunID),
		logger.Float64("max_rhat", res.MaxRHat),
		logger.String("worst_param", res.WorstParam),
		logger.Int("divergences", res.Divergences),
		logger.String("estimates", res.EstimatesPath),
		logger.String("plot", res.PlotPath),
		logger.Duration("elapsed", res.Elapsed),
	)
	return res, nil
}

type chainJob struct {
	id int
}

// sample runs req.Chains independent chains through the worker pool. Each
// chain writes only its own slot of the result slice.
func (s *Service) sample(ctx context.Context, target sampler.Target, req FitRequest) ([]sampler.Chain, error) {
	out := make([]sampler.Chain, req.Chains)

	q := queue.NewInMemoryQueue[chainJob](queue.WithCapacity(req.Chains))
	for c := range req.Chains {
		if err := q.Enqueue(ctx, chainJob{id: c}); err != nil {
			return nil, fmt.Errorf("%w: enqueue chain %d: %w", ErrSampling, c, err)
		}
	}
	if err := q.Close(); err != nil {
		s.logger.Error(ctx, "error closing queue", logger.Error(err))
	}

	proc := worker.ProcessorFunc[chainJob](func(ctx context.Context, job chainJob) error {
		ch, err := sampler.RunChain(ctx, target, req.Sampler, job.id)
		if err != nil {
			return fmt.Errorf("chain %d: %w", job.id, err)
		}
		metrics.RecordChain(job.id, len(ch.Draws), ch.Divergences, ch.StepSize, ch.AcceptRate, ch.Duration.Seconds())
		s.logger.Info(ctx, "chain finished",
			logger.Int("chain", job.id),
			logger.Float64("step_size", ch.StepSize),
			logger.Float64("accept", ch.AcceptRate),
			logger.Int("divergences", ch.Divergences),
			logger.Duration("elapsed", ch.Duration),
		)
		out[job.id] = ch
		return nil
	})

	pool := worker.NewPool[chainJob](min(s.workerCount, req.Chains), q, proc,
		worker.WithPoolName("chain"), worker.WithFailFast())
	pool.Start(ctx)
	if err := pool.Wait(); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrSampling, err)
	}
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrSampling, err)
	}
	return out, nil
}
