package simulate

import (
	"fmt"
	"math"
	"math/rand/v2"
	"time"

	"github.com/okian/pairwise/internal/domain/bt"
	"github.com/okian/pairwise/internal/domain/model"
	"gonum.org/v1/gonum/stat/distuv"
)

const (
	maxTeams     = 99
	sourceIDBase = 1000
	gamesPerDay  = 15
	baseRuns     = 2
)

// trueCutpoints are the ordinal thresholds used to generate margins.
var trueCutpoints = []float64{-2.4, -1.1, -0.35, 0.35, 1.1, 2.4}

// bucketDiff is an away-minus-home run differential for each margin level.
var bucketDiff = [model.MarginLevels]int{-6, -3, -1, 0, 1, 3, 6}

// Season is a synthetic season in the shape ingest stores.
type Season struct {
	Info     model.Season
	Teams    []model.Team
	Schedule []model.ScheduledGame
	Scores   []model.LineScore
	Truth    Truth
}

// newRand returns the generator for stream under seed.
func newRand(seed, stream uint64) *rand.Rand {
	return rand.New(rand.NewPCG(seed, stream)) //nolint:gosec // reproducible synthetic data
}

// normal draws from n by inverting its CDF.
func normal(n distuv.Normal, rng *rand.Rand) float64 {
	u := rng.Float64()
	for u == 0 {
		u = rng.Float64()
	}
	return n.Quantile(u)
}

// Generate draws abilities from the prior of cfg.Variant and plays every
// pair GamesPerPair times.
func Generate(cfg Config) (Season, error) {
	if err := cfg.validate(); err != nil {
		return Season{}, err
	}
	rng := newRand(cfg.Seed, 0)
	prior := distuv.Normal{Mu: 0, Sigma: 1}

	truth := Truth{Abilities: make([]float64, cfg.Teams)}
	for i := range truth.Abilities {
		a := normal(prior, rng)
		if cfg.Variant.Scale == bt.ScaleRaw {
			a = math.Abs(a)
		}
		truth.Abilities[i] = a
	}
	if cfg.Variant.HomeIntercept {
		truth.Gamma = cfg.HomeEdge
	}
	if cfg.Variant.Outcome == bt.Ordinal {
		truth.Cutpoints = append([]float64(nil), trueCutpoints...)
	}

	season := fmt.Sprintf("%d", cfg.Season)
	start := time.Date(cfg.Season, time.March, 28, 0, 0, 0, 0, time.UTC)
	pairs := cfg.Teams * (cfg.Teams - 1) / 2
	days := (pairs*cfg.GamesPerPair)/gamesPerDay + 1

	s := Season{
		Info: model.Season{
			SeasonID:           season,
			RegularSeasonStart: start.Format(time.DateOnly),
			RegularSeasonEnd:   start.AddDate(0, 0, days).Format(time.DateOnly),
		},
		Truth: truth,
	}
	for i := range cfg.Teams {
		s.Teams = append(s.Teams, model.Team{
			SeasonID: season,
			TeamID:   sourceIDBase + i,
			Name:     fmt.Sprintf("Synthetic %02d", i+1),
			Abbr:     fmt.Sprintf("S%02d", i+1),
		})
	}

	gameID := int64(cfg.Season) * 100000
	n := 0
	for i := range cfg.Teams {
		for j := i + 1; j < cfg.Teams; j++ {
			for k := range cfg.GamesPerPair {
				home, away := i, j
				if k%2 == 1 {
					home, away = j, i
				}
				gameID++
				hr, ar := play(cfg.Variant, truth, home, away, rng)
				s.Schedule = append(s.Schedule, model.ScheduledGame{
					SeasonID:     season,
					GameDate:     start.AddDate(0, 0, n/gamesPerDay).Format(time.DateOnly),
					GameID:       gameID,
					DoubleHeader: "N",
					AwayTeam:     sourceIDBase + away,
					HomeTeam:     sourceIDBase + home,
				})
				s.Scores = append(s.Scores, model.LineScore{GameID: gameID, HomeRuns: hr, AwayRuns: ar})
				n++
			}
		}
	}
	return s, nil
}

// play draws one game between zero-based team indices and returns runs
// whose derived outcome follows the model.
func play(v bt.Variant, t Truth, home, away int, rng *rand.Rand) (homeRuns, awayRuns int) {
	sAway, sHome := t.Abilities[away], t.Abilities[home]
	eta := sAway - sHome + t.Gamma

	var d int
	if v.Outcome == bt.Ordinal {
		probs := bt.OrderedProbs(eta, t.Cutpoints)
		u, level := rng.Float64(), len(probs)-1
		for k, p := range probs {
			if u < p {
				level = k
				break
			}
			u -= p
		}
		d = bucketDiff[level]
	} else {
		d = 1 + rng.IntN(3)
		if rng.Float64() >= 1/(1+math.Exp(-eta)) {
			d = -d
		}
	}

	homeRuns = baseRuns + rng.IntN(3) + max(0, -d)
	return homeRuns, homeRuns + d
}

// Table returns the season as the game table LoadGames would produce.
func (s Season) Table(season int) model.GameTable {
	t := model.GameTable{Season: season, Teams: len(s.Teams)}
	for i, g := range s.Schedule {
		sc := s.Scores[i]
		t.Games = append(t.Games, model.NewGame(g.GameID,
			g.HomeTeam-sourceIDBase+1, g.AwayTeam-sourceIDBase+1, sc.HomeRuns, sc.AwayRuns))
	}
	return t
}
