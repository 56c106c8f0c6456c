package model

// TeamLabel ties a dense team id to the source team and its abbreviation.
type TeamLabel struct {
	TeamID   int    `db:"team_id"`
	SourceID int    `db:"source_id"`
	Abbr     string `db:"team_abbr"`
	Name     string `db:"team_name"`
}

// Abbreviations builds the dense id -> abbreviation lookup.
// When two labels share a team id the later one wins.
func Abbreviations(labels []TeamLabel) map[int]string {
	out := make(map[int]string, len(labels))
	for _, l := range labels {
		out[l.TeamID] = l.Abbr
	}
	return out
}
