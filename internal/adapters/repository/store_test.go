package repository

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"reflect"
	"testing"
	"time"

	"github.com/okian/pairwise/internal/domain/model"
)

func openMemory(t *testing.T) *Store {
	t.Helper()
	s, err := Open(context.Background(), "")
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	t.Cleanup(func() { _ = s.Close() })
	return s
}

// seed writes a small 2023/2024 fixture:
//   - 1001..1003 are completed 2024 games between BAL, BOS and NYY
//   - 1003 is listed twice because it was postponed
//   - 1004 (TOR at NYY) and 1006 have no score yet
//   - 1005 involves a team id missing from the teams table
//   - 901 is an unscored 2023 game
func seed(t *testing.T, s *Store) {
	t.Helper()
	ctx := context.Background()
	must := func(err error) {
		t.Helper()
		if err != nil {
			t.Fatalf("seed: %v", err)
		}
	}

	must(s.InitSchema(ctx))
	must(s.UpsertSeasons(ctx, []model.Season{
		{SeasonID: "2023", RegularSeasonStart: "2023-03-30", RegularSeasonEnd: "2023-10-01"},
		{SeasonID: "2024", HasWildcard: true, RegularSeasonStart: "2024-03-28", RegularSeasonEnd: "2024-09-29"},
	}))
	must(s.UpsertTeams(ctx, []model.Team{
		{SeasonID: "2024", TeamID: 147, Name: "New York Yankees", Abbr: "NYY"},
		{SeasonID: "2024", TeamID: 111, Name: "Boston Red Sox", Abbr: "BOS"},
		{SeasonID: "2024", TeamID: 110, Name: "Baltimore Orioles", Abbr: "BAL"},
		{SeasonID: "2024", TeamID: 141, Name: "Toronto Blue Jays", Abbr: "TOR"},
		{SeasonID: "2023", TeamID: 147, Name: "New York Yankees", Abbr: "NYY"},
		{SeasonID: "2023", TeamID: 111, Name: "Boston Red Sox", Abbr: "BOS"},
	}))
	must(s.InsertSchedule(ctx, "2024", []model.ScheduledGame{
		{SeasonID: "2024", GameDate: "2024-04-01", GameID: 1001, DoubleHeader: "N", AwayTeam: 111, HomeTeam: 147},
		{SeasonID: "2024", GameDate: "2024-04-02", GameID: 1002, DoubleHeader: "N", AwayTeam: 147, HomeTeam: 110},
		{SeasonID: "2024", GameDate: "2024-04-03", GameID: 1003, DoubleHeader: "N", AwayTeam: 110, HomeTeam: 111},
		{SeasonID: "2024", GameDate: "2024-04-20", GameID: 1003, DoubleHeader: "Y", AwayTeam: 110, HomeTeam: 111},
		{SeasonID: "2024", GameDate: "2024-04-04", GameID: 1004, DoubleHeader: "N", AwayTeam: 141, HomeTeam: 147},
		{SeasonID: "2024", GameDate: "2024-04-05", GameID: 1005, DoubleHeader: "N", AwayTeam: 999, HomeTeam: 110},
		{SeasonID: "2024", GameDate: "2024-04-15", GameID: 1006, DoubleHeader: "N", AwayTeam: 110, HomeTeam: 147},
	}))
	must(s.InsertSchedule(ctx, "2023", []model.ScheduledGame{
		{SeasonID: "2023", GameDate: "2023-05-01", GameID: 901, DoubleHeader: "N", AwayTeam: 111, HomeTeam: 147},
	}))
	for _, sc := range []model.LineScore{
		{GameID: 1001, HomeRuns: 3, AwayRuns: 5},
		{GameID: 1002, HomeRuns: 7, AwayRuns: 1},
		{GameID: 1003, HomeRuns: 4, AwayRuns: 4},
		{GameID: 1005, HomeRuns: 2, AwayRuns: 0},
	} {
		must(s.InsertScore(ctx, sc))
	}
}

func TestStore_LoadGames(t *testing.T) {
	ctx := context.Background()
	s := openMemory(t)
	seed(t, s)

	table, err := s.LoadGames(ctx, 2024)
	if err != nil {
		t.Fatalf("load games: %v", err)
	}

	// dense ids by name: Baltimore 1, Boston 2, New York 3; Toronto has no completed game
	want := []model.Game{
		{GameID: 1001, HomeTeamID: 3, AwayTeamID: 2, HomeRuns: 3, AwayRuns: 5, AwayWin: 1, Margin: 6},
		{GameID: 1002, HomeTeamID: 1, AwayTeamID: 3, HomeRuns: 7, AwayRuns: 1, AwayWin: 0, Margin: 1},
		{GameID: 1003, HomeTeamID: 2, AwayTeamID: 1, HomeRuns: 4, AwayRuns: 4, AwayWin: 1, Margin: 4},
	}
	if table.Season != 2024 || table.Teams != 3 {
		t.Errorf("unexpected table header: season %d teams %d", table.Season, table.Teams)
	}
	if !reflect.DeepEqual(table.Games, want) {
		t.Errorf("unexpected games:\n got %+v\nwant %+v", table.Games, want)
	}

	// derived codes must agree with the Go encoders
	for _, g := range table.Games {
		if g.AwayWin != model.AwayWin(g.HomeRuns, g.AwayRuns) || g.Margin != model.MarginBucket(g.HomeRuns, g.AwayRuns) {
			t.Errorf("game %d: sql and go outcome codes disagree", g.GameID)
		}
	}

	again, err := s.LoadGames(ctx, 2024)
	if err != nil {
		t.Fatalf("reload: %v", err)
	}
	if !reflect.DeepEqual(again, table) {
		t.Error("repeated loads must return identical tables")
	}
}

func TestStore_LoadGamesEmptySeason(t *testing.T) {
	s := openMemory(t)
	seed(t, s)

	_, err := s.LoadGames(context.Background(), 2022)
	if !errors.Is(err, ErrNoGames) {
		t.Fatalf("expected ErrNoGames, got %v", err)
	}
}

func TestStore_LoadGamesWithoutSchema(t *testing.T) {
	s := openMemory(t)

	_, err := s.LoadGames(context.Background(), 2024)
	if !errors.Is(err, ErrQuery) {
		t.Fatalf("expected ErrQuery for missing tables, got %v", err)
	}
}

func TestStore_TeamLabels(t *testing.T) {
	s := openMemory(t)
	seed(t, s)

	labels, err := s.TeamLabels(context.Background(), 2024)
	if err != nil {
		t.Fatalf("team labels: %v", err)
	}
	want := []model.TeamLabel{
		{TeamID: 1, SourceID: 110, Abbr: "BAL", Name: "Baltimore Orioles"},
		{TeamID: 2, SourceID: 111, Abbr: "BOS", Name: "Boston Red Sox"},
		{TeamID: 3, SourceID: 147, Abbr: "NYY", Name: "New York Yankees"},
	}
	if !reflect.DeepEqual(labels, want) {
		t.Errorf("unexpected labels:\n got %+v\nwant %+v", labels, want)
	}
}

func TestStore_PlayedGameIDs(t *testing.T) {
	ctx := context.Background()
	s := openMemory(t)
	seed(t, s)
	today := time.Date(2024, 4, 10, 0, 0, 0, 0, time.UTC)

	ids, err := s.PlayedGameIDs(ctx, today, 2024)
	if err != nil {
		t.Fatalf("played: %v", err)
	}
	if !reflect.DeepEqual(ids, []int64{1001, 1002, 1003, 1004, 1005}) {
		t.Errorf("expected [1001 1002 1003 1004 1005], got %v", ids)
	}

	ids, err = s.PlayedGameIDs(ctx, today, 2019)
	if err != nil {
		t.Fatalf("played: %v", err)
	}
	if !reflect.DeepEqual(ids, []int64{901, 1001, 1002, 1003, 1004, 1005}) {
		t.Errorf("expected 2023 game first, got %v", ids)
	}

	// once the makeup date has passed the postponed game is listed twice
	ids, err = s.PlayedGameIDs(ctx, time.Date(2024, 4, 30, 0, 0, 0, 0, time.UTC), 2024)
	if err != nil {
		t.Fatalf("played: %v", err)
	}
	if !reflect.DeepEqual(ids, []int64{1001, 1002, 1003, 1003, 1004, 1005, 1006}) {
		t.Errorf("expected duplicate schedule rows, got %v", ids)
	}
}

func TestStore_Scores(t *testing.T) {
	ctx := context.Background()
	s := openMemory(t)
	seed(t, s)

	// a second write for a stored game is ignored
	if err := s.InsertScore(ctx, model.LineScore{GameID: 1001, HomeRuns: 0, AwayRuns: 0}); err != nil {
		t.Fatalf("insert duplicate: %v", err)
	}
	ids, err := s.ScoredGameIDs(ctx)
	if err != nil {
		t.Fatalf("scored ids: %v", err)
	}
	if !reflect.DeepEqual(ids, []int64{1001, 1002, 1003, 1005}) {
		t.Errorf("unexpected scored ids %v", ids)
	}
	table, _ := s.LoadGames(ctx, 2024)
	if table.Games[0].AwayRuns != 5 {
		t.Errorf("duplicate score overwrote the original: %+v", table.Games[0])
	}
}

func TestStore_InsertScheduleReplacesSeason(t *testing.T) {
	ctx := context.Background()
	s := openMemory(t)
	seed(t, s)

	games := []model.ScheduledGame{{SeasonID: "2024", GameDate: "2024-04-01", GameID: 1001, AwayTeam: 111, HomeTeam: 147}}
	if err := s.InsertSchedule(ctx, "2024", games); err != nil {
		t.Fatalf("insert schedule: %v", err)
	}
	var n int
	if err := s.db.GetContext(ctx, &n, `select count(*) from schedule where season_id = '2024'`); err != nil {
		t.Fatalf("count: %v", err)
	}
	if n != 1 {
		t.Errorf("expected the 2024 schedule to be replaced, found %d rows", n)
	}
	if err := s.db.GetContext(ctx, &n, `select count(*) from schedule where season_id = '2023'`); err != nil {
		t.Fatalf("count: %v", err)
	}
	if n != 1 {
		t.Errorf("other seasons must be untouched, found %d rows", n)
	}
}

func TestStore_InitSchemaIdempotent(t *testing.T) {
	s := openMemory(t)
	for range 2 {
		if err := s.InitSchema(context.Background()); err != nil {
			t.Fatalf("init schema: %v", err)
		}
	}
	ids, err := s.SeasonIDs(context.Background())
	if err != nil || len(ids) != 0 {
		t.Errorf("expected no seasons, got %v %v", ids, err)
	}
}

func TestStore_ReadOnly(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "db", "mlb.duckdb")

	w, err := Open(ctx, path)
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	seed(t, w)
	if err := w.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}

	r, err := Open(ctx, path, WithReadOnly(), WithThreads(2))
	if err != nil {
		t.Fatalf("open read-only: %v", err)
	}
	defer func() { _ = r.Close() }()
	if r.Path() != path {
		t.Errorf("expected path %s, got %s", path, r.Path())
	}

	table, err := r.LoadGames(ctx, 2024)
	if err != nil || table.Len() != 3 {
		t.Fatalf("read-only load: %v (%d games)", err, table.Len())
	}
	if err := r.InsertScore(ctx, model.LineScore{GameID: 1}); !errors.Is(err, ErrReadOnly) {
		t.Errorf("expected ErrReadOnly, got %v", err)
	}
	seasons, err := r.SeasonIDs(ctx)
	if err != nil || !reflect.DeepEqual(seasons, []string{"2023", "2024"}) {
		t.Errorf("unexpected seasons %v %v", seasons, err)
	}
}

func TestStore_Closed(t *testing.T) {
	s := openMemory(t)
	if err := s.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}
	if _, err := s.LoadGames(context.Background(), 2024); !errors.Is(err, ErrNotOpen) {
		t.Errorf("expected ErrNotOpen, got %v", err)
	}
	if err := s.Close(); err != nil {
		t.Errorf("second close should be a no-op, got %v", err)
	}
}

func TestStore_OpenMissingFile(t *testing.T) {
	missing := filepath.Join(t.TempDir(), "nowhere", "mlb.duckdb")

	s, err := Open(context.Background(), missing, WithReadOnly())
	if err == nil {
		_ = s.Close()
		t.Fatal("expected an error opening a missing database read-only")
	}
	if !errors.Is(err, ErrOpen) {
		t.Errorf("expected ErrOpen, got %v", err)
	}
	if _, statErr := os.Stat(missing); !os.IsNotExist(statErr) {
		t.Errorf("read-only open must not create %s", missing)
	}
}
