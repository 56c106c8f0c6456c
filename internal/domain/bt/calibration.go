package bt

import (
	"math"
	"math/rand/v2"

	"github.com/okian/pairwise/internal/domain/model"
)

// Calibration sets the outcome frequencies of a season next to the mean
// frequencies of posterior predictive replicates of the same games.
type Calibration struct {
	Levels     []int     // outcome codes, 0/1 or margin buckets 1..7
	Observed   []float64 // share of games at each level
	Replicated []float64 // mean share over replicates
	Replicates int

	ObservedAwayWin   float64
	ReplicatedAwayWin float64
}

// MaxGap returns the largest absolute difference between an observed and a
// replicated level frequency.
func (c Calibration) MaxGap() float64 {
	var gap float64
	for i := range c.Observed {
		gap = math.Max(gap, math.Abs(c.Observed[i]-c.Replicated[i]))
	}
	return gap
}

// OutcomeLevels lists the codes an outcome of this variant can take.
func (m *Model) OutcomeLevels() []int {
	if m.variant.Outcome == Binary {
		return []int{0, 1}
	}
	levels := make([]int, ordinalLevels)
	for k := range levels {
		levels[k] = k + 1
	}
	return levels
}

// Outcomes returns the observed outcome of every game, coded the way
// PosteriorPredictive codes replicates.
func (m *Model) Outcomes() []int {
	out := make([]int, len(m.games))
	for i, g := range m.games {
		if m.variant.Outcome == Binary {
			out[i] = g.AwayWin
		} else {
			out[i] = g.Margin
		}
	}
	return out
}

// awayWin reports whether code y means the away side did not lose. Ties sit
// in the middle margin bucket and count as away wins.
func (m *Model) awayWin(y int) bool {
	if m.variant.Outcome == Binary {
		return y == 1
	}
	return y >= (ordinalLevels+1)/2
}

// tally adds the level counts and away wins of ys to counts.
func (m *Model) tally(ys []int, counts []float64) (wins float64) {
	base := m.OutcomeLevels()[0]
	for _, y := range ys {
		counts[y-base]++
		if m.awayWin(y) {
			wins++
		}
	}
	return wins
}

// Calibrate draws one posterior predictive replicate of the season per draw
// in draws. Draws of chain c take their randomness from rngFor(c).
func (m *Model) Calibrate(draws model.Draws, rngFor func(chain int) *rand.Rand) Calibration {
	levels := m.OutcomeLevels()
	cal := Calibration{
		Levels:     levels,
		Observed:   make([]float64, len(levels)),
		Replicated: make([]float64, len(levels)),
	}
	n := float64(len(m.games))
	cal.ObservedAwayWin = m.tally(m.Outcomes(), cal.Observed) / n
	for k := range cal.Observed {
		cal.Observed[k] /= n
	}

	var wins float64
	for c, chain := range draws.Chains {
		rng := rngFor(c)
		for _, p := range chain {
			wins += m.tally(m.PosteriorPredictive(p, rng), cal.Replicated)
			cal.Replicates++
		}
	}
	if cal.Replicates == 0 {
		return cal
	}
	total := n * float64(cal.Replicates)
	for k := range cal.Replicated {
		cal.Replicated[k] /= total
	}
	cal.ReplicatedAwayWin = wins / total
	return cal
}
