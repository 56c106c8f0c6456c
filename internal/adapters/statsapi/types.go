package statsapi

// Wire types for the subset of the MLB Stats API the pipeline reads.

type seasonsResponse struct {
	Seasons []seasonDTO `json:"seasons"`
}

type seasonDTO struct {
	SeasonID               string `json:"seasonId"`
	HasWildcard            bool   `json:"hasWildcard"`
	PreSeasonStartDate     string `json:"preSeasonStartDate"`
	SeasonStartDate        string `json:"seasonStartDate"`
	RegularSeasonStartDate string `json:"regularSeasonStartDate"`
	RegularSeasonEndDate   string `json:"regularSeasonEndDate"`
	SeasonEndDate          string `json:"seasonEndDate"`
	OffseasonStartDate     string `json:"offseasonStartDate"`
	OffSeasonEndDate       string `json:"offSeasonEndDate"`
}

type teamsResponse struct {
	Teams []teamDTO `json:"teams"`
}

type teamDTO struct {
	ID           int    `json:"id"`
	Name         string `json:"name"`
	Abbreviation string `json:"abbreviation"`
	Season       int    `json:"season"`
}

type scheduleResponse struct {
	Dates []scheduleDate `json:"dates"`
}

type scheduleDate struct {
	Date  string        `json:"date"`
	Games []scheduleDTO `json:"games"`
}

type scheduleDTO struct {
	GamePk       int64  `json:"gamePk"`
	Season       string `json:"season"`
	DoubleHeader string `json:"doubleHeader"`
	Teams        struct {
		Away scheduleSide `json:"away"`
		Home scheduleSide `json:"home"`
	} `json:"teams"`
}

type scheduleSide struct {
	Team struct {
		ID int `json:"id"`
	} `json:"team"`
	LeagueRecord struct {
		Wins   int `json:"wins"`
		Losses int `json:"losses"`
	} `json:"leagueRecord"`
}

type linescoreResponse struct {
	Teams struct {
		Home linescoreSide `json:"home"`
		Away linescoreSide `json:"away"`
	} `json:"teams"`
}

type linescoreSide struct {
	Runs *int `json:"runs"`
}
