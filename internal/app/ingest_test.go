package service_test

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/okian/pairwise/internal/adapters/repository"
	"github.com/okian/pairwise/internal/adapters/statsapi"
	service "github.com/okian/pairwise/internal/app"
	"github.com/okian/pairwise/internal/domain/model"
	. "github.com/smartystreets/goconvey/convey"
)

type fakeAPI struct {
	mu        sync.Mutex
	fetched   map[int64]int
	scores    map[int64]model.LineScore
	seasonErr error
}

func newFakeAPI() *fakeAPI {
	return &fakeAPI{
		fetched: map[int64]int{},
		scores: map[int64]model.LineScore{
			1001: {GameID: 1001, HomeRuns: 3, AwayRuns: 5},
			1002: {GameID: 1002, HomeRuns: 7, AwayRuns: 1},
			1003: {GameID: 1003, HomeRuns: 2, AwayRuns: 2},
			901:  {GameID: 901, HomeRuns: 1, AwayRuns: 0},
		},
	}
}

func (f *fakeAPI) Seasons(context.Context) ([]model.Season, error) {
	if f.seasonErr != nil {
		return nil, f.seasonErr
	}
	return []model.Season{
		{SeasonID: "2018", RegularSeasonStart: "2018-03-29", RegularSeasonEnd: "2018-10-01"},
		{SeasonID: "2023", RegularSeasonStart: "2023-03-30", RegularSeasonEnd: "2023-10-01"},
		{SeasonID: "2024", RegularSeasonStart: "2024-03-28", RegularSeasonEnd: "2024-09-29"},
	}, nil
}

func (f *fakeAPI) Teams(_ context.Context, season string) ([]model.Team, error) {
	if season == "2018" {
		return nil, fmt.Errorf("season %s should not be fetched", season)
	}
	return []model.Team{
		{SeasonID: season, TeamID: 110, Name: "Baltimore Orioles", Abbr: "BAL"},
		{SeasonID: season, TeamID: 111, Name: "Boston Red Sox", Abbr: "BOS"},
		{SeasonID: season, TeamID: 147, Name: "New York Yankees", Abbr: "NYY"},
	}, nil
}

func (f *fakeAPI) Schedule(_ context.Context, season string) ([]model.ScheduledGame, error) {
	if season == "2023" {
		return []model.ScheduledGame{
			{SeasonID: "2023", GameDate: "2023-05-01", GameID: 901, DoubleHeader: "N", AwayTeam: 111, HomeTeam: 147},
		}, nil
	}
	return []model.ScheduledGame{
		{SeasonID: "2024", GameDate: "2024-04-01", GameID: 1001, DoubleHeader: "N", AwayTeam: 111, HomeTeam: 147},
		{SeasonID: "2024", GameDate: "2024-04-02", GameID: 1002, DoubleHeader: "N", AwayTeam: 147, HomeTeam: 110},
		{SeasonID: "2024", GameDate: "2024-04-03", GameID: 1003, DoubleHeader: "N", AwayTeam: 110, HomeTeam: 111},
		{SeasonID: "2024", GameDate: "2024-04-06", GameID: 1002, DoubleHeader: "Y", AwayTeam: 147, HomeTeam: 110},
		{SeasonID: "2024", GameDate: "2024-04-04", GameID: 1004, DoubleHeader: "N", AwayTeam: 110, HomeTeam: 147},
		{SeasonID: "2024", GameDate: "2024-04-05", GameID: 1005, DoubleHeader: "N", AwayTeam: 147, HomeTeam: 111},
		{SeasonID: "2024", GameDate: "2024-05-01", GameID: 1006, DoubleHeader: "N", AwayTeam: 111, HomeTeam: 110},
	}, nil
}

func (f *fakeAPI) Linescore(_ context.Context, id int64) (model.LineScore, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.fetched[id]++
	switch id {
	case 1004:
		return model.LineScore{}, fmt.Errorf("%w: game %d", statsapi.ErrIncomplete, id)
	case 1005:
		return model.LineScore{}, fmt.Errorf("%w: 503", statsapi.ErrStatus)
	}
	return f.scores[id], nil
}

func (f *fakeAPI) fetches(id int64) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.fetched[id]
}

func openStore(t *testing.T) *repository.Store {
	t.Helper()
	s, err := repository.Open(context.Background(), "")
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	t.Cleanup(func() { _ = s.Close() })
	if err := service.NewInitializer(s).Run(context.Background()); err != nil {
		t.Fatalf("init: %v", err)
	}
	return s
}

func TestIngestor_Run(t *testing.T) {
	clock := func() time.Time { return time.Date(2024, 4, 10, 12, 0, 0, 0, time.UTC) }

	Convey("Given an empty database and a stats API", t, func() {
		ctx := context.Background()
		store := openStore(t)
		api := newFakeAPI()
		in := service.NewIngestor(api, store,
			service.WithIngestWorkers(3),
			service.WithFirstSeason(2019),
			service.WithClock(clock),
		)

		Convey("When ingesting", func() {
			stats, err := in.Run(ctx)
			So(err, ShouldBeNil)

			Convey("Then seasons from the first season on are filled in", func() {
				So(stats.Seasons, ShouldEqual, 3)
				So(stats.Teams, ShouldEqual, 6)
				So(stats.Games, ShouldEqual, 8)
			})

			Convey("And played games are scored while failures are skipped", func() {
				So(stats.Scores, ShouldEqual, 4)
				So(stats.Skipped, ShouldEqual, 2)
				So(api.fetches(1006), ShouldEqual, 0)
				So(api.fetches(1004), ShouldEqual, 1)

				ids, err := store.ScoredGameIDs(ctx)
				So(err, ShouldBeNil)
				So(ids, ShouldResemble, []int64{901, 1001, 1002, 1003})
			})

			Convey("And a postponed game listed twice is fetched once", func() {
				So(api.fetches(1002), ShouldEqual, 1)
			})

			Convey("And a transient failure is retried once within the run", func() {
				So(api.fetches(1005), ShouldEqual, 2)
			})

			Convey("And the season loads as a game table", func() {
				table, err := store.LoadGames(ctx, 2024)
				So(err, ShouldBeNil)
				So(table.Len(), ShouldEqual, 3)
				So(table.Teams, ShouldEqual, 3)
			})

			Convey("And a second run only retries unscored games", func() {
				again, err := in.Run(ctx)
				So(err, ShouldBeNil)
				So(again.Scores, ShouldEqual, 0)
				So(again.Skipped, ShouldEqual, 2)
				So(api.fetches(1001), ShouldEqual, 1)
				So(api.fetches(1002), ShouldEqual, 1)
				So(api.fetches(1004), ShouldEqual, 2)
				So(api.fetches(1005), ShouldEqual, 4)
			})
		})

		Convey("When retries are disabled", func() {
			in := service.NewIngestor(api, store, service.WithClock(clock), service.WithIngestRetries(0))
			stats, err := in.Run(ctx)
			So(err, ShouldBeNil)

			Convey("Then a failed fetch is skipped after one attempt", func() {
				So(stats.Skipped, ShouldEqual, 2)
				So(api.fetches(1005), ShouldEqual, 1)
			})
		})

		Convey("When the seasons call fails", func() {
			api.seasonErr = errors.New("down")
			_, err := in.Run(ctx)
			So(errors.Is(err, service.ErrIngest), ShouldBeTrue)
		})
	})
}
