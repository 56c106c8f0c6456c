package model

// Season describes one season's calendar. Dates are YYYY-MM-DD and empty
// when the source omits them.
type Season struct {
	SeasonID           string `db:"season_id"`
	HasWildcard        bool   `db:"has_wildcard"`
	PreseasonStart     string `db:"preseason_start"`
	SeasonStart        string `db:"season_start"`
	RegularSeasonStart string `db:"regular_season_start"`
	RegularSeasonEnd   string `db:"regular_season_end"`
	SeasonEnd          string `db:"season_end"`
	OffseasonStart     string `db:"offseason_start"`
	OffseasonEnd       string `db:"offseason_end"`
}

// Team is a franchise as it existed in one season.
type Team struct {
	SeasonID string `db:"season_id"`
	TeamID   int    `db:"team_id"`
	Name     string `db:"team_name"`
	Abbr     string `db:"team_abbr"`
}

// ScheduledGame is one schedule entry with each side's record at first pitch.
type ScheduledGame struct {
	SeasonID     string `db:"season_id"`
	GameDate     string `db:"game_date"`
	GameID       int64  `db:"game_id"`
	DoubleHeader string `db:"double_header"`
	AwayTeam     int    `db:"away_team"`
	AwayWins     int    `db:"away_team_wins"`
	AwayLosses   int    `db:"away_team_losses"`
	HomeTeam     int    `db:"home_team"`
	HomeWins     int    `db:"home_team_wins"`
	HomeLosses   int    `db:"home_team_losses"`
}

// LineScore is the final run total of a game.
type LineScore struct {
	GameID   int64 `db:"game_id"`
	HomeRuns int   `db:"home_runs"`
	AwayRuns int   `db:"away_runs"`
}
