// Package bt implements the Bradley-Terry paired-comparison model family:
// binary or 7-level ordinal outcomes, an optional home intercept, and team
// ability on the log or the raw positive scale.
//
// Every game contributes one observation whose linear predictor is
//
//	eta = s[away] - s[home] + gamma
//
// where s is ability on the variant's scale. Outcomes are coded from the
// away team's side, so a home-field advantage shows up as gamma < 0.
//
// The sampler works on an unconstrained vector theta laid out as
// [u_1..u_J, gamma?, r_1..r_6?] with u_i = log(alpha_i) and ordinal
// cutpoints c_1 = r_1, c_k = c_{k-1} + exp(r_k).
package bt

import (
	"fmt"
	"math"
	"math/rand/v2"

	"github.com/okian/pairwise/internal/domain/model"
	"gonum.org/v1/gonum/stat/distuv"
)

const (
	defaultPriorSD = 1.0
	initRadius     = 2.0 // uniform(-2, 2) initial values on the unconstrained scale
)

// Model is the log posterior of one variant conditioned on one season.
// It is read-only after New and safe to share across chains.
type Model struct {
	variant   Variant
	teams     int
	games     []model.Game
	abilitySD float64
	gammaSD   float64
}

// New validates the game table and builds the model.
func New(v Variant, table model.GameTable, opts ...Option) (*Model, error) {
	if table.Teams < 2 {
		return nil, fmt.Errorf("%w: need at least 2 teams, got %d", ErrInvalidData, table.Teams)
	}
	if len(table.Games) == 0 {
		return nil, fmt.Errorf("%w: no games", ErrInvalidData)
	}
	for _, g := range table.Games {
		if g.HomeTeamID < 1 || g.HomeTeamID > table.Teams || g.AwayTeamID < 1 || g.AwayTeamID > table.Teams {
			return nil, fmt.Errorf("%w: game %d has team ids outside 1..%d", ErrInvalidData, g.GameID, table.Teams)
		}
		if g.HomeTeamID == g.AwayTeamID {
			return nil, fmt.Errorf("%w: game %d pairs team %d with itself", ErrInvalidData, g.GameID, g.HomeTeamID)
		}
		if v.Outcome == Binary && g.AwayWin != 0 && g.AwayWin != 1 {
			return nil, fmt.Errorf("%w: game %d binary outcome %d", ErrInvalidData, g.GameID, g.AwayWin)
		}
		if v.Outcome == Ordinal && (g.Margin < 1 || g.Margin > ordinalLevels) {
			return nil, fmt.Errorf("%w: game %d margin bucket %d", ErrInvalidData, g.GameID, g.Margin)
		}
	}

	m := &Model{
		variant:   v,
		teams:     table.Teams,
		games:     table.Games,
		abilitySD: defaultPriorSD,
		gammaSD:   defaultPriorSD,
	}
	for _, opt := range opts {
		opt(m)
	}
	return m, nil
}

// Variant returns the variant the model was built for.
func (m *Model) Variant() Variant { return m.variant }

// Teams returns J.
func (m *Model) Teams() int { return m.teams }

// Dim returns the length of the unconstrained parameter vector.
func (m *Model) Dim() int {
	d := m.teams + m.variant.Cutpoints()
	if m.variant.HomeIntercept {
		d++
	}
	return d
}

func (m *Model) gammaIndex() int { return m.teams }

func (m *Model) cutIndex() int {
	if m.variant.HomeIntercept {
		return m.teams + 1
	}
	return m.teams
}

// ParamNames labels each entry of the constrained parameter vector.
func (m *Model) ParamNames() []string {
	names := make([]string, 0, m.Dim())
	for i := 1; i <= m.teams; i++ {
		names = append(names, fmt.Sprintf("alpha[%d]", i))
	}
	if m.variant.HomeIntercept {
		names = append(names, "gamma")
	}
	for k := 1; k <= m.variant.Cutpoints(); k++ {
		names = append(names, fmt.Sprintf("c[%d]", k))
	}
	return names
}

// LogDensity returns the log posterior at theta, up to a constant, and
// writes its gradient into grad when grad is non-nil.
func (m *Model) LogDensity(theta, grad []float64) float64 {
	if grad == nil {
		grad = make([]float64, m.Dim())
	}
	clear(grad)

	var (
		lp       float64
		s        = make([]float64, m.teams)
		dsdu     = make([]float64, m.teams) // ds_i/du_i
		abilityN = distuv.Normal{Mu: 0, Sigma: m.abilitySD}
		sd2      = m.abilitySD * m.abilitySD
	)
	for i := range m.teams {
		u := theta[i]
		switch m.variant.Scale {
		case ScaleRaw:
			// alpha = exp(u) with prior Normal(0, sd) on alpha and log-Jacobian u.
			a := math.Exp(u)
			s[i], dsdu[i] = a, a
			lp += abilityN.LogProb(a) + u
			grad[i] += 1 - a*a/sd2
		default:
			s[i], dsdu[i] = u, 1
			lp += abilityN.LogProb(u)
			grad[i] -= u / sd2
		}
	}

	var gamma float64
	if m.variant.HomeIntercept {
		gamma = theta[m.gammaIndex()]
		lp += distuv.Normal{Mu: 0, Sigma: m.gammaSD}.LogProb(gamma)
		grad[m.gammaIndex()] -= gamma / (m.gammaSD * m.gammaSD)
	}

	var (
		nc   = m.variant.Cutpoints()
		off  = m.cutIndex()
		c    = make([]float64, nc)
		ec   = make([]float64, nc) // exp(r_k), unused at k = 0
		dc   = make([]float64, nc)
		ds   = make([]float64, m.teams)
		dGam float64
	)
	if nc > 0 {
		c[0] = theta[off]
		for k := 1; k < nc; k++ {
			ec[k] = math.Exp(theta[off+k])
			c[k] = c[k-1] + ec[k]
			lp += theta[off+k]
		}
	}

	for _, g := range m.games {
		h, a := g.HomeTeamID-1, g.AwayTeamID-1
		eta := s[a] - s[h] + gamma
		var dEta float64
		if m.variant.Outcome == Binary {
			if g.AwayWin == 1 {
				lp += logSigmoid(eta)
			} else {
				lp += logSigmoid(-eta)
			}
			dEta = float64(g.AwayWin) - sigmoid(eta)
		} else {
			l, de, lo, hi, dlo, dhi := orderedLogLik(g.Margin, eta, c)
			lp += l
			dEta = de
			if lo >= 0 {
				dc[lo] += dlo
			}
			if hi >= 0 {
				dc[hi] += dhi
			}
		}
		ds[a] += dEta
		ds[h] -= dEta
		dGam += dEta
	}

	for i := range m.teams {
		grad[i] += ds[i] * dsdu[i]
	}
	if m.variant.HomeIntercept {
		grad[m.gammaIndex()] += dGam
	}
	if nc > 0 {
		// c_k depends on r_j for every j <= k.
		tail := 0.0
		for k := nc - 1; k >= 1; k-- {
			tail += dc[k]
			grad[off+k] += ec[k]*tail + 1
		}
		grad[off] += tail + dc[0]
	}
	return lp
}

// Constrain maps an unconstrained vector onto natural-scale parameters.
// Abilities are reported as alpha = exp(u) under either scale.
func (m *Model) Constrain(theta []float64) model.Params {
	p := model.Params{Abilities: make([]float64, m.teams)}
	for i := range m.teams {
		p.Abilities[i] = math.Exp(theta[i])
	}
	if m.variant.HomeIntercept {
		p.Gamma = theta[m.gammaIndex()]
	}
	if nc := m.variant.Cutpoints(); nc > 0 {
		off := m.cutIndex()
		p.Cutpoints = make([]float64, nc)
		p.Cutpoints[0] = theta[off]
		for k := 1; k < nc; k++ {
			p.Cutpoints[k] = p.Cutpoints[k-1] + math.Exp(theta[off+k])
		}
	}
	return p
}

// Flatten returns the constrained parameters in ParamNames order.
func (m *Model) Flatten(p model.Params) []float64 {
	out := make([]float64, 0, m.Dim())
	out = append(out, p.Abilities...)
	if m.variant.HomeIntercept {
		out = append(out, p.Gamma)
	}
	return append(out, p.Cutpoints...)
}

// Init draws starting values uniformly from (-2, 2) on the unconstrained scale.
func (m *Model) Init(rng *rand.Rand) []float64 {
	theta := make([]float64, m.Dim())
	for i := range theta {
		theta[i] = (rng.Float64()*2 - 1) * initRadius
	}
	return theta
}

// PosteriorPredictive draws a replicate outcome for every game from the
// given parameters: the away-win indicator for binary variants, the margin
// bucket for ordinal ones.
func (m *Model) PosteriorPredictive(p model.Params, rng *rand.Rand) []int {
	s := make([]float64, len(p.Abilities))
	for i, a := range p.Abilities {
		if m.variant.Scale == ScaleRaw {
			s[i] = a
		} else {
			s[i] = math.Log(a)
		}
	}

	out := make([]int, len(m.games))
	for i, g := range m.games {
		eta := s[g.AwayTeamID-1] - s[g.HomeTeamID-1] + p.Gamma
		if m.variant.Outcome == Binary {
			if rng.Float64() < sigmoid(eta) {
				out[i] = 1
			}
			continue
		}
		u := rng.Float64()
		out[i] = ordinalLevels
		for k, pk := range OrderedProbs(eta, p.Cutpoints) {
			if u < pk {
				out[i] = k + 1
				break
			}
			u -= pk
		}
	}
	return out
}
