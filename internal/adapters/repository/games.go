package repository

import (
	"context"
	"fmt"
	"strconv"

	"github.com/okian/pairwise/internal/domain/model"
)

// seasonTeamsCTE keeps one schedule row per game, joins scores and both
// teams, and assigns dense ids 1..J ordered by team name (source id breaks
// ties) to the teams that appear in at least one completed game.
const seasonTeamsCTE = `with sched as (
		select game_id, home_team, away_team
		from schedule
		where season_id = $1
		qualify row_number() over (partition by game_id order by game_date desc) = 1
	),
	season_teams as (
		select team_id, team_name, coalesce(team_abbr, '') as team_abbr
		from teams
		where season_id = $1
	),
	played as (
		select s.game_id, s.home_team, s.away_team, sc.home_runs, sc.away_runs
		from scores sc
		join sched s on s.game_id = sc.game_id
		join season_teams h on h.team_id = s.home_team
		join season_teams a on a.team_id = s.away_team
		where sc.home_runs is not null and sc.away_runs is not null
	),
	ids as (
		select team_id, team_name, team_abbr
			, dense_rank() over (order by team_name, team_id) as dense_id
		from season_teams
		where team_id in (select home_team from played union select away_team from played)
	)
`

const loadGamesSQL = seasonTeamsCTE + `select
		cast(p.game_id as bigint) as game_id
		, h.dense_id as home_team_id
		, a.dense_id as away_team_id
		, p.home_runs
		, p.away_runs
		, case when p.home_runs <= p.away_runs then 1 else 0 end as away_win
		, case
			when p.away_runs - p.home_runs <= -5 then 1
			when p.away_runs - p.home_runs <= -2 then 2
			when p.away_runs - p.home_runs = -1 then 3
			when p.away_runs - p.home_runs = 0 then 4
			when p.away_runs - p.home_runs = 1 then 5
			when p.away_runs - p.home_runs <= 4 then 6
			else 7
		end as margin
	from played p
	join ids h on h.team_id = p.home_team
	join ids a on a.team_id = p.away_team
	order by game_id`

const teamLabelsSQL = seasonTeamsCTE + `select
		dense_id as team_id
		, cast(team_id as integer) as source_id
		, team_abbr
		, team_name
	from ids
	order by dense_id`

// LoadGames returns every completed game of season with dense team ids and
// derived outcomes, ordered by game id. Games whose schedule or team rows
// are missing are dropped. ErrNoGames is returned for an empty season.
func (s *Store) LoadGames(ctx context.Context, season int) (model.GameTable, error) {
	if err := s.ready(); err != nil {
		return model.GameTable{}, err
	}
	var games []model.Game
	if err := s.db.SelectContext(ctx, &games, loadGamesSQL, strconv.Itoa(season)); err != nil {
		return model.GameTable{}, fmt.Errorf("%w: load games %d: %w", ErrQuery, season, err)
	}
	if len(games) == 0 {
		return model.GameTable{}, fmt.Errorf("%w: %d", ErrNoGames, season)
	}

	teams := 0
	for _, g := range games {
		teams = max(teams, g.HomeTeamID, g.AwayTeamID)
	}
	return model.GameTable{Season: season, Teams: teams, Games: games}, nil
}

// TeamLabels returns the dense id -> team mapping used by LoadGames.
func (s *Store) TeamLabels(ctx context.Context, season int) ([]model.TeamLabel, error) {
	if err := s.ready(); err != nil {
		return nil, err
	}
	var labels []model.TeamLabel
	if err := s.db.SelectContext(ctx, &labels, teamLabelsSQL, strconv.Itoa(season)); err != nil {
		return nil, fmt.Errorf("%w: team labels %d: %w", ErrQuery, season, err)
	}
	return labels, nil
}
