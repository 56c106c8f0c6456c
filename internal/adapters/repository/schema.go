package repository

import (
	"context"
	"fmt"
)

// schema creates the ingest tables. Team and game ids are kept as text the
// way the stats API reports them. The schedule has no key because the API
// lists postponed games more than once.
var schema = []string{
	`create table if not exists seasons (
		season_id varchar(4)
		, has_wildcard boolean
		, preseason_start date
		, season_start date
		, regular_season_start date
		, regular_season_end date
		, season_end date
		, offseason_start date
		, offseason_end date
		, primary key (season_id)
	)`,
	`create table if not exists teams (
		season_id varchar(4)
		, team_id varchar(4)
		, team_name varchar(50)
		, team_abbr varchar(4)
		, primary key (season_id, team_id)
	)`,
	`create table if not exists schedule (
		season_id varchar(4)
		, game_date date
		, game_id varchar(10)
		, double_header varchar(1)
		, away_team varchar(4)
		, away_team_wins integer
		, away_team_losses integer
		, home_team varchar(4)
		, home_team_wins integer
		, home_team_losses integer
	)`,
	`create table if not exists scores (
		game_id varchar(10)
		, home_runs integer
		, away_runs integer
		, primary key (game_id)
	)`,
}

// InitSchema creates the seasons, teams, schedule and scores tables.
// It is safe to call on an initialised database.
func (s *Store) InitSchema(ctx context.Context) error {
	if err := s.writable(); err != nil {
		return err
	}
	for _, ddl := range schema {
		if _, err := s.db.ExecContext(ctx, ddl); err != nil {
			return fmt.Errorf("%w: create table: %w", ErrWrite, err)
		}
	}
	return nil
}
