// Package model contains domain models passed between layers.
package model

// MarginLevels is the number of ordinal margin buckets.
const MarginLevels = 7

// Game is one completed game with dense team ids and derived outcomes.
// Outcomes are coded from the away team's side.
type Game struct {
	GameID     int64 `db:"game_id"`
	HomeTeamID int   `db:"home_team_id"` // dense 1..J
	AwayTeamID int   `db:"away_team_id"` // dense 1..J
	HomeRuns   int   `db:"home_runs"`
	AwayRuns   int   `db:"away_runs"`
	AwayWin    int   `db:"away_win"` // 1 when the home team did not win
	Margin     int   `db:"margin"`   // 1..MarginLevels
}

// GameTable is the loader output for one season.
type GameTable struct {
	Season int
	Teams  int // J, number of distinct dense team ids
	Games  []Game
}

// Len returns the number of games.
func (t GameTable) Len() int { return len(t.Games) }

// AwayWin returns 1 when the home team did not win, else 0.
func AwayWin(homeRuns, awayRuns int) int {
	if homeRuns <= awayRuns {
		return 1
	}
	return 0
}

// MarginBucket maps the away-minus-home run differential onto 1..7:
// <=-5, -4..-2, -1, 0, 1, 2..4, >=5.
func MarginBucket(homeRuns, awayRuns int) int {
	d := awayRuns - homeRuns
	switch {
	case d <= -5:
		return 1
	case d <= -2:
		return 2
	case d == -1:
		return 3
	case d == 0:
		return 4
	case d == 1:
		return 5
	case d <= 4:
		return 6
	default:
		return 7
	}
}

// NewGame builds a Game and derives both outcome codes from the run totals.
func NewGame(gameID int64, homeTeam, awayTeam, homeRuns, awayRuns int) Game {
	return Game{
		GameID:     gameID,
		HomeTeamID: homeTeam,
		AwayTeamID: awayTeam,
		HomeRuns:   homeRuns,
		AwayRuns:   awayRuns,
		AwayWin:    AwayWin(homeRuns, awayRuns),
		Margin:     MarginBucket(homeRuns, awayRuns),
	}
}
