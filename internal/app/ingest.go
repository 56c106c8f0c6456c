package service

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"sync"
	"sync/atomic"
	"time"

	"github.com/okian/pairwise/internal/adapters/mq/queue"
	"github.com/okian/pairwise/internal/adapters/mq/worker"
	"github.com/okian/pairwise/internal/adapters/statsapi"
	"github.com/okian/pairwise/internal/domain/dedupe"
	"github.com/okian/pairwise/internal/domain/model"
	"github.com/okian/pairwise/pkg/logger"
	"github.com/okian/pairwise/pkg/metrics"
)

// StatsAPI is the subset of the stats API client used by ingest.
type StatsAPI interface {
	Seasons(ctx context.Context) ([]model.Season, error)
	Teams(ctx context.Context, season string) ([]model.Team, error)
	Schedule(ctx context.Context, season string) ([]model.ScheduledGame, error)
	Linescore(ctx context.Context, gamePk int64) (model.LineScore, error)
}

// IngestStore is the write side of the game database.
type IngestStore interface {
	UpsertSeasons(ctx context.Context, seasons []model.Season) error
	UpsertTeams(ctx context.Context, teams []model.Team) error
	InsertSchedule(ctx context.Context, season string, games []model.ScheduledGame) error
	InsertScore(ctx context.Context, score model.LineScore) error
	ScoredGameIDs(ctx context.Context) ([]int64, error)
	PlayedGameIDs(ctx context.Context, today time.Time, firstSeason int) ([]int64, error)
	SeasonIDs(ctx context.Context) ([]string, error)
}

// SchemaStore creates the database tables.
type SchemaStore interface {
	InitSchema(ctx context.Context) error
}

// Initializer creates the empty tables ingest writes into.
type Initializer struct {
	store  SchemaStore
	logger logger.Logger
}

// NewInitializer returns an Initializer for store.
func NewInitializer(store SchemaStore) *Initializer {
	return &Initializer{store: store, logger: logger.Get().Named("init")}
}

// Run creates any missing table.
func (i *Initializer) Run(ctx context.Context) error {
	if err := i.store.InitSchema(ctx); err != nil {
		metrics.RecordErrorByComponent("init", "schema")
		return err
	}
	i.logger.Info(ctx, "schema ready")
	return nil
}

// IngestStats counts what one ingest run wrote.
type IngestStats struct {
	Seasons int
	Teams   int
	Games   int
	Scores  int
	Skipped int
}

// IngestOption configures an Ingestor.
type IngestOption func(*Ingestor)

// WithIngestWorkers bounds the number of concurrent line score fetches.
func WithIngestWorkers(n int) IngestOption {
	return func(in *Ingestor) {
		if n > 0 {
			in.workers = n
		}
	}
}

// WithFirstSeason sets the earliest season whose teams, schedule and
// scores are fetched. Season metadata is always fetched in full.
func WithFirstSeason(season int) IngestOption {
	return func(in *Ingestor) {
		in.firstSeason = season
	}
}

// WithIngestRetries sets how many more times a line score fetch that failed
// for a reason other than an unfinished game is attempted within one run.
func WithIngestRetries(n int) IngestOption {
	return func(in *Ingestor) {
		if n >= 0 {
			in.retries = n
		}
	}
}

// WithClock replaces time.Now when selecting games already played.
func WithClock(now func() time.Time) IngestOption {
	return func(in *Ingestor) {
		if now != nil {
			in.now = now
		}
	}
}

// Ingestor copies seasons, teams, schedules and line scores from the stats
// API into the store. Scores already stored are never fetched again.
type Ingestor struct {
	api         StatsAPI
	store       IngestStore
	workers     int
	retries     int
	firstSeason int
	now         func() time.Time

	logger logger.Logger
}

// NewIngestor creates an Ingestor.
func NewIngestor(api StatsAPI, store IngestStore, opts ...IngestOption) *Ingestor {
	in := &Ingestor{
		api:         api,
		store:       store,
		workers:     8,
		retries:     1,
		firstSeason: 2019,
		now:         time.Now,
		logger:      logger.Get().Named("ingest"),
	}
	for _, opt := range opts {
		opt(in)
	}
	return in
}

// Run performs one ingest pass.
func (in *Ingestor) Run(ctx context.Context) (IngestStats, error) {
	var stats IngestStats
	start := time.Now()

	seasons, err := in.api.Seasons(ctx)
	if err != nil {
		return stats, fmt.Errorf("%w: seasons: %w", ErrIngest, err)
	}
	if err := in.store.UpsertSeasons(ctx, seasons); err != nil {
		return stats, fmt.Errorf("%w: %w", ErrIngest, err)
	}
	stats.Seasons = len(seasons)

	ids, err := in.store.SeasonIDs(ctx)
	if err != nil {
		return stats, fmt.Errorf("%w: %w", ErrIngest, err)
	}
	for _, id := range ids {
		if year, err := strconv.Atoi(id); err != nil || year < in.firstSeason {
			continue
		}
		teams, games, err := in.season(ctx, id)
		if err != nil {
			return stats, err
		}
		stats.Teams += teams
		stats.Games += games
	}
	metrics.ObserveStage("ingest_schedule", time.Since(start).Seconds())

	scores, skipped, err := in.scores(ctx)
	stats.Scores, stats.Skipped = scores, skipped
	if err != nil {
		return stats, err
	}

	in.logger.Info(ctx, "ingest complete",
		logger.Int("seasons", stats.Seasons),
		logger.Int("teams", stats.Teams),
		logger.Int("games", stats.Games),
		logger.Int("scores", stats.Scores),
		logger.Int("skipped", stats.Skipped),
		logger.Duration("elapsed", time.Since(start)),
	)
	return stats, nil
}

func (in *Ingestor) season(ctx context.Context, id string) (teams, games int, err error) {
	t, err := in.api.Teams(ctx, id)
	if err != nil {
		return 0, 0, fmt.Errorf("%w: teams %s: %w", ErrIngest, id, err)
	}
	if err := in.store.UpsertTeams(ctx, t); err != nil {
		return 0, 0, fmt.Errorf("%w: %w", ErrIngest, err)
	}
	g, err := in.api.Schedule(ctx, id)
	if err != nil {
		return 0, 0, fmt.Errorf("%w: schedule %s: %w", ErrIngest, id, err)
	}
	if len(g) == 0 {
		in.logger.Warn(ctx, "season has no schedule", logger.String("season", id))
		return len(t), 0, nil
	}
	if err := in.store.InsertSchedule(ctx, id, g); err != nil {
		return 0, 0, fmt.Errorf("%w: %w", ErrIngest, err)
	}
	in.logger.Debug(ctx, "season stored", logger.String("season", id),
		logger.Int("teams", len(t)), logger.Int("games", len(g)))
	return len(t), len(g), nil
}

// scores fetches the line score of every played game that has none yet.
// Schedule rows are filtered through a set seeded with the stored scores, so
// scored games and the extra rows of postponed games are never fetched. A
// failed fetch is forgotten by the set and offered again on the next pass.
func (in *Ingestor) scores(ctx context.Context) (stored, skipped int, err error) {
	start := time.Now()
	have, err := in.store.ScoredGameIDs(ctx)
	if err != nil {
		return 0, 0, fmt.Errorf("%w: %w", ErrIngest, err)
	}
	played, err := in.store.PlayedGameIDs(ctx, in.now(), in.firstSeason)
	if err != nil {
		return 0, 0, fmt.Errorf("%w: %w", ErrIngest, err)
	}
	seen := dedupe.New(dedupe.WithSeed(have), dedupe.WithCapacity(len(have)+len(played)))

	var ok, skip atomic.Int64
	offer := played
	for pass := 0; pass <= in.retries && len(offer) > 0; pass++ {
		last := pass == in.retries
		retry, err := in.fetchScores(ctx, seen, offer, last, &ok, &skip)
		if err != nil {
			return int(ok.Load()), int(skip.Load()), err
		}
		if len(retry) > 0 && !last {
			in.logger.Info(ctx, "retrying line scores", logger.Int("games", len(retry)), logger.Int("pass", pass+1))
		}
		offer = retry
	}
	metrics.ObserveStage("ingest_scores", time.Since(start).Seconds())
	if err := ctx.Err(); err != nil {
		return int(ok.Load()), int(skip.Load()), fmt.Errorf("%w: %w", ErrIngest, err)
	}
	return int(ok.Load()), int(skip.Load()), nil
}

// fetchScores runs one pass over ids. Unless last is set, games whose fetch
// failed for a transient reason are returned for another pass instead of
// being counted as skipped.
func (in *Ingestor) fetchScores(ctx context.Context, seen dedupe.Deduper, ids []int64, last bool, ok, skip *atomic.Int64) ([]int64, error) {
	q := queue.NewInMemoryQueue[int64](queue.WithCapacity(max(1, len(ids))))
	for _, id := range ids {
		if seen.SeenAndRecord(ctx, id) {
			continue
		}
		if err := q.Enqueue(ctx, id); err != nil {
			return nil, fmt.Errorf("%w: enqueue game %d: %w", ErrIngest, id, err)
		}
	}
	queued := q.Len()
	if err := q.Close(); err != nil {
		in.logger.Error(ctx, "error closing queue", logger.Error(err))
	}
	in.logger.Info(ctx, "fetching line scores", logger.Int("games", queued), logger.Int("workers", in.workers))

	var mu sync.Mutex
	var retry []int64
	proc := worker.ProcessorFunc[int64](func(ctx context.Context, id int64) error {
		ls, err := in.api.Linescore(ctx, id)
		if err == nil {
			err = in.store.InsertScore(ctx, ls)
		}
		switch {
		case err == nil:
			metrics.RecordScoreIngested()
			ok.Add(1)
		case errors.Is(err, statsapi.ErrIncomplete):
			skip.Add(1)
			in.logger.Debug(ctx, "line score not final", logger.Any("game", id))
		case !last && ctx.Err() == nil:
			seen.Unrecord(ctx, id)
			mu.Lock()
			retry = append(retry, id)
			mu.Unlock()
			in.logger.Debug(ctx, "line score failed", logger.Any("game", id), logger.Error(err))
		default:
			skip.Add(1)
			metrics.RecordErrorByComponent("ingest", "linescore")
			in.logger.Warn(ctx, "line score skipped", logger.Any("game", id), logger.Error(err))
		}
		return nil
	})

	pool := worker.NewPool[int64](in.workers, q, proc, worker.WithPoolName("linescore"))
	pool.Start(ctx)
	if err := pool.Wait(); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrIngest, err)
	}
	return retry, nil
}
