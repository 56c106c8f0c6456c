package simulate

import (
	"fmt"
	"time"

	"github.com/okian/pairwise/internal/domain/bt"
)

// Config holds configuration for one recovery check.
type Config struct {
	Teams        int        // number of synthetic teams
	GamesPerPair int        // meetings per pair, alternating home side
	Variant      bt.Variant // model used both to generate and to fit
	HomeEdge     float64    // true home intercept; negative favours the home side
	Season       int        // season id the synthetic games are stored under
	Seed         uint64     // seeds generation and sampling
	DBPath       string     // DuckDB file; empty means in-memory
	OutputDir    string     // estimates and plot; empty skips both
	Chains       int
	Warmup       int
	Draws        int
	Workers      int
	MinSpearman  float64 // required rank correlation with the truth
}

// DefaultConfig returns a check that completes in seconds.
func DefaultConfig() Config {
	return Config{
		Teams:        12,
		GamesPerPair: 12,
		Variant:      bt.VariantBinaryHome,
		HomeEdge:     -0.2,
		Season:       2024,
		Seed:         123,
		Chains:       4,
		Warmup:       300,
		Draws:        300,
		Workers:      4,
		MinSpearman:  0.8,
	}
}

func (c Config) validate() error {
	switch {
	case c.Teams < 2 || c.Teams > maxTeams:
		return fmt.Errorf("%w: teams %d", ErrInvalidConfig, c.Teams)
	case c.GamesPerPair < 1:
		return fmt.Errorf("%w: games per pair %d", ErrInvalidConfig, c.GamesPerPair)
	case c.Chains < 1 || c.Draws < 1 || c.Warmup < 0:
		return fmt.Errorf("%w: chains %d draws %d warmup %d", ErrInvalidConfig, c.Chains, c.Draws, c.Warmup)
	case c.MinSpearman < -1 || c.MinSpearman > 1:
		return fmt.Errorf("%w: min spearman %g", ErrInvalidConfig, c.MinSpearman)
	}
	return nil
}

// Truth is the parameter set a synthetic season was drawn from.
type Truth struct {
	Abilities []float64 // on the variant's scale, index i is team id i+1
	Gamma     float64
	Cutpoints []float64
}

// Stats holds the outcome of a check.
type Stats struct {
	RunID       string
	Teams       int
	Games       int
	Spearman    float64
	MaxRHat     float64
	Divergences int
	TopTeamHit  bool
	Duration    time.Duration
}
