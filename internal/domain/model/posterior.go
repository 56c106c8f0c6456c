package model

// Params is one posterior draw on the natural scale.
type Params struct {
	Abilities []float64 // index i holds dense team id i+1
	Gamma     float64   // zero when the variant has no home intercept
	Cutpoints []float64 // empty for binary variants
}

// Draws holds post-warmup draws for every chain, indexed [chain][iteration].
type Draws struct {
	Teams  int
	Chains [][]Params
}

// Size returns the number of chains and the shortest chain length.
func (d Draws) Size() (chains, iterations int) {
	if len(d.Chains) == 0 {
		return 0, 0
	}
	iterations = len(d.Chains[0])
	for _, c := range d.Chains[1:] {
		iterations = min(iterations, len(c))
	}
	return len(d.Chains), iterations
}

// RankRecord is one row of the long rank table. Never persisted.
type RankRecord struct {
	Iteration int
	Chain     int
	TeamID    int
	Abbr      string
	Rank      int
}

// TeamSummary aggregates one team's posterior rank distribution.
type TeamSummary struct {
	TeamID int     `json:"team_id" yaml:"team_id"`
	Abbr   string  `json:"team" yaml:"team"`
	Low    float64 `json:"ci_low" yaml:"ci_low"`
	Median float64 `json:"median" yaml:"median"`
	High   float64 `json:"ci_high" yaml:"ci_high"`
	Mean   float64 `json:"mean" yaml:"mean"`
}
