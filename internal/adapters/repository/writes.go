package repository

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/okian/pairwise/internal/domain/model"
)

const (
	upsertSeasonSQL = `insert or replace into seasons values (
		?, ?, try_cast(? as date), try_cast(? as date), try_cast(? as date),
		try_cast(? as date), try_cast(? as date), try_cast(? as date), try_cast(? as date))`

	upsertTeamSQL = `insert or replace into teams (season_id, team_id, team_name, team_abbr)
		values (?, ?, ?, ?)`

	clearScheduleSQL = `delete from schedule where season_id = ?`

	insertScheduleSQL = `insert into schedule (
		season_id, game_date, game_id, double_header
		, away_team, away_team_wins, away_team_losses
		, home_team, home_team_wins, home_team_losses
	) values (?, try_cast(? as date), ?, ?, ?, ?, ?, ?, ?, ?)`

	insertScoreSQL = `insert or ignore into scores (game_id, home_runs, away_runs) values (?, ?, ?)`

	scoredIDsSQL = `select cast(game_id as bigint) from scores order by 1`

	playedIDsSQL = `select cast(s.game_id as bigint) as game_id
		from schedule s
		join seasons se on s.season_id = se.season_id
		where s.game_date <= cast(? as date)
			and cast(s.season_id as integer) >= ?
			and s.game_date between se.regular_season_start and se.regular_season_end
		order by game_id, s.game_date`
)

// inTx runs fn inside a transaction, rolling back on error.
func (s *Store) inTx(ctx context.Context, fn func(tx *sqlx.Tx) error) error {
	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("%w: begin: %w", ErrWrite, err)
	}
	if err := fn(tx); err != nil {
		_ = tx.Rollback()
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("%w: commit: %w", ErrWrite, err)
	}
	return nil
}

// UpsertSeasons writes season calendars, replacing existing rows.
func (s *Store) UpsertSeasons(ctx context.Context, seasons []model.Season) error {
	if err := s.writable(); err != nil {
		return err
	}
	return s.inTx(ctx, func(tx *sqlx.Tx) error {
		for _, se := range seasons {
			if _, err := tx.ExecContext(ctx, upsertSeasonSQL,
				se.SeasonID, se.HasWildcard, se.PreseasonStart, se.SeasonStart,
				se.RegularSeasonStart, se.RegularSeasonEnd, se.SeasonEnd,
				se.OffseasonStart, se.OffseasonEnd,
			); err != nil {
				return fmt.Errorf("%w: season %s: %w", ErrWrite, se.SeasonID, err)
			}
		}
		return nil
	})
}

// UpsertTeams writes team rows, replacing existing (season, team) pairs.
func (s *Store) UpsertTeams(ctx context.Context, teams []model.Team) error {
	if err := s.writable(); err != nil {
		return err
	}
	return s.inTx(ctx, func(tx *sqlx.Tx) error {
		for _, t := range teams {
			if _, err := tx.ExecContext(ctx, upsertTeamSQL,
				t.SeasonID, strconv.Itoa(t.TeamID), t.Name, t.Abbr,
			); err != nil {
				return fmt.Errorf("%w: team %d in %s: %w", ErrWrite, t.TeamID, t.SeasonID, err)
			}
		}
		return nil
	})
}

// InsertSchedule replaces the schedule of one season.
func (s *Store) InsertSchedule(ctx context.Context, season string, games []model.ScheduledGame) error {
	if err := s.writable(); err != nil {
		return err
	}
	return s.inTx(ctx, func(tx *sqlx.Tx) error {
		if _, err := tx.ExecContext(ctx, clearScheduleSQL, season); err != nil {
			return fmt.Errorf("%w: clear schedule %s: %w", ErrWrite, season, err)
		}
		stmt, err := tx.PreparexContext(ctx, insertScheduleSQL)
		if err != nil {
			return fmt.Errorf("%w: prepare schedule: %w", ErrWrite, err)
		}
		defer func() { _ = stmt.Close() }()

		for _, g := range games {
			if _, err := stmt.ExecContext(ctx,
				g.SeasonID, g.GameDate, strconv.FormatInt(g.GameID, 10), g.DoubleHeader,
				strconv.Itoa(g.AwayTeam), g.AwayWins, g.AwayLosses,
				strconv.Itoa(g.HomeTeam), g.HomeWins, g.HomeLosses,
			); err != nil {
				return fmt.Errorf("%w: game %d: %w", ErrWrite, g.GameID, err)
			}
		}
		return nil
	})
}

// InsertScore stores one line score. Scores already present are left as is.
func (s *Store) InsertScore(ctx context.Context, score model.LineScore) error {
	if err := s.writable(); err != nil {
		return err
	}
	if _, err := s.db.ExecContext(ctx, insertScoreSQL,
		strconv.FormatInt(score.GameID, 10), score.HomeRuns, score.AwayRuns,
	); err != nil {
		return fmt.Errorf("%w: score %d: %w", ErrWrite, score.GameID, err)
	}
	return nil
}

// ScoredGameIDs lists every game that already has a line score.
func (s *Store) ScoredGameIDs(ctx context.Context) ([]int64, error) {
	if err := s.ready(); err != nil {
		return nil, err
	}
	var ids []int64
	if err := s.db.SelectContext(ctx, &ids, scoredIDsSQL); err != nil {
		return nil, fmt.Errorf("%w: scored games: %w", ErrQuery, err)
	}
	return ids, nil
}

// PlayedGameIDs lists the schedule rows of regular-season games played on or
// before today, from firstSeason onward. A postponed game appears once per
// schedule row and games already scored are included.
func (s *Store) PlayedGameIDs(ctx context.Context, today time.Time, firstSeason int) ([]int64, error) {
	if err := s.ready(); err != nil {
		return nil, err
	}
	var ids []int64
	if err := s.db.SelectContext(ctx, &ids, playedIDsSQL, today.Format(time.DateOnly), firstSeason); err != nil {
		return nil, fmt.Errorf("%w: played games: %w", ErrQuery, err)
	}
	return ids, nil
}

// SeasonIDs lists the stored seasons in ascending order.
func (s *Store) SeasonIDs(ctx context.Context) ([]string, error) {
	if err := s.ready(); err != nil {
		return nil, err
	}
	var ids []string
	if err := s.db.SelectContext(ctx, &ids, `select distinct season_id from seasons order by 1`); err != nil {
		return nil, fmt.Errorf("%w: seasons: %w", ErrQuery, err)
	}
	return ids, nil
}
