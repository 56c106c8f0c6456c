// Package sampler draws from a differentiable log density with Hamiltonian
// Monte Carlo. Each chain uses a unit mass matrix, a leapfrog integrator with
// a jittered path length, and dual-averaging step size adaptation during
// warmup. Only post-warmup draws are kept.
package sampler

import (
	"context"
	"fmt"
	"math"
	"math/rand/v2"
	"time"
)

const (
	maxInitAttempts = 100
	maxEnergyError  = 1000.0

	// dual averaging constants
	daGamma = 0.05
	daT0    = 10.0
	daKappa = 0.75
)

// Target is a log density with gradient over an unconstrained vector.
type Target interface {
	Dim() int
	LogDensity(theta, grad []float64) float64
	Init(rng *rand.Rand) []float64
}

// Config controls one chain.
type Config struct {
	Warmup        int
	Draws         int
	LeapfrogSteps int
	TargetAccept  float64
	Seed          uint64
}

// DefaultConfig matches the settings the pipeline ships with.
func DefaultConfig() Config {
	return Config{Warmup: 1000, Draws: 1000, LeapfrogSteps: 16, TargetAccept: 0.8, Seed: 123}
}

func (c Config) validate() error {
	switch {
	case c.Draws < 1:
		return fmt.Errorf("%w: draws %d", ErrInvalidConfig, c.Draws)
	case c.Warmup < 0:
		return fmt.Errorf("%w: warmup %d", ErrInvalidConfig, c.Warmup)
	case c.LeapfrogSteps < 1:
		return fmt.Errorf("%w: leapfrog steps %d", ErrInvalidConfig, c.LeapfrogSteps)
	case c.TargetAccept <= 0 || c.TargetAccept >= 1:
		return fmt.Errorf("%w: target accept %g", ErrInvalidConfig, c.TargetAccept)
	}
	return nil
}

// Chain is the output of one chain.
type Chain struct {
	ID          int
	Draws       [][]float64 // post-warmup draws on the unconstrained scale
	StepSize    float64
	AcceptRate  float64 // mean acceptance statistic after warmup
	Divergences int
	Duration    time.Duration
}

// NewRand returns the generator used by chain id under seed. Chains with
// different ids draw from independent streams.
func NewRand(seed uint64, chainID int) *rand.Rand {
	return rand.New(rand.NewPCG(seed, uint64(chainID)+1)) //nolint:gosec // reproducible sampling, not crypto
}

type state struct {
	theta []float64
	grad  []float64
	lp    float64
}

func newState(dim int) *state {
	return &state{theta: make([]float64, dim), grad: make([]float64, dim)}
}

func (s *state) copyFrom(o *state) {
	copy(s.theta, o.theta)
	copy(s.grad, o.grad)
	s.lp = o.lp
}

func finite(x float64) bool { return !math.IsNaN(x) && !math.IsInf(x, 0) }

// RunChain runs warmup then keeps cfg.Draws draws. ctx is checked once per
// iteration.
func RunChain(ctx context.Context, target Target, cfg Config, chainID int) (Chain, error) {
	if err := cfg.validate(); err != nil {
		return Chain{}, err
	}
	start := time.Now()
	rng := NewRand(cfg.Seed, chainID)
	dim := target.Dim()

	cur := newState(dim)
	if err := initialise(target, rng, cur); err != nil {
		return Chain{}, err
	}

	eps := initialStepSize(target, rng, cur)
	da := newDualAveraging(eps, cfg.TargetAccept)

	out := Chain{ID: chainID, Draws: make([][]float64, 0, cfg.Draws)}
	prop := newState(dim)
	mom := make([]float64, dim)
	var acceptSum float64

	total := cfg.Warmup + cfg.Draws
	for iter := range total {
		if err := ctx.Err(); err != nil {
			return Chain{}, fmt.Errorf("chain %d stopped at iteration %d: %w", chainID, iter, err)
		}

		steps := jitter(cfg.LeapfrogSteps, rng)
		accept, divergent := transition(target, rng, cur, prop, mom, eps, steps)

		if iter < cfg.Warmup {
			eps = da.update(accept)
			if iter == cfg.Warmup-1 {
				eps = da.final()
			}
			continue
		}

		acceptSum += accept
		if divergent {
			out.Divergences++
		}
		out.Draws = append(out.Draws, append([]float64(nil), cur.theta...))
	}

	out.StepSize = eps
	out.AcceptRate = acceptSum / float64(cfg.Draws)
	out.Duration = time.Since(start)
	return out, nil
}

func initialise(target Target, rng *rand.Rand, s *state) error {
	for range maxInitAttempts {
		copy(s.theta, target.Init(rng))
		s.lp = target.LogDensity(s.theta, s.grad)
		if finite(s.lp) && allFinite(s.grad) {
			return nil
		}
	}
	return ErrNonFinite
}

func allFinite(v []float64) bool {
	for _, x := range v {
		if !finite(x) {
			return false
		}
	}
	return true
}

// jitter draws a path length uniformly from [L/2, 3L/2].
func jitter(steps int, rng *rand.Rand) int {
	lo := max(1, steps/2)
	return lo + rng.IntN(steps+1)
}

// transition performs one HMC step from cur, overwriting cur when the
// proposal is accepted. It returns the acceptance statistic and whether the
// trajectory diverged.
func transition(target Target, rng *rand.Rand, cur, prop *state, mom []float64, eps float64, steps int) (float64, bool) {
	for i := range mom {
		mom[i] = rng.NormFloat64()
	}
	h0 := -cur.lp + kinetic(mom)

	prop.copyFrom(cur)
	for range steps {
		leapfrog(target, prop, mom, eps)
		if !finite(prop.lp) {
			return 0, true
		}
	}

	dH := -prop.lp + kinetic(mom) - h0
	if !finite(dH) || dH > maxEnergyError {
		return 0, true
	}
	accept := math.Min(1, math.Exp(-dH))
	if rng.Float64() < accept {
		cur.copyFrom(prop)
	}
	return accept, false
}

func leapfrog(target Target, s *state, mom []float64, eps float64) {
	for i := range mom {
		mom[i] += 0.5 * eps * s.grad[i]
	}
	for i := range s.theta {
		s.theta[i] += eps * mom[i]
	}
	s.lp = target.LogDensity(s.theta, s.grad)
	for i := range mom {
		mom[i] += 0.5 * eps * s.grad[i]
	}
}

func kinetic(mom []float64) float64 {
	var k float64
	for _, p := range mom {
		k += p * p
	}
	return 0.5 * k
}

// initialStepSize doubles or halves a unit step until a single leapfrog
// step crosses an acceptance probability of one half.
func initialStepSize(target Target, rng *rand.Rand, cur *state) float64 {
	eps := 1.0
	prop := newState(len(cur.theta))
	mom := make([]float64, len(cur.theta))

	logAccept := func() float64 {
		for i := range mom {
			mom[i] = rng.NormFloat64()
		}
		h0 := -cur.lp + kinetic(mom)
		prop.copyFrom(cur)
		leapfrog(target, prop, mom, eps)
		d := h0 - (-prop.lp + kinetic(mom))
		if !finite(d) {
			return math.Inf(-1)
		}
		return d
	}

	la := logAccept()
	dir := 1.0
	if la < math.Log(0.5) {
		dir = -1
	}
	for range 50 {
		if dir > 0 && la <= math.Log(0.5) || dir < 0 && la >= math.Log(0.5) {
			break
		}
		eps *= math.Pow(2, dir)
		la = logAccept()
	}
	return eps
}

type dualAveraging struct {
	mu, delta float64
	hBar      float64
	logEpsBar float64
	m         float64
}

func newDualAveraging(eps0, delta float64) *dualAveraging {
	return &dualAveraging{mu: math.Log(10 * eps0), delta: delta}
}

func (d *dualAveraging) update(accept float64) float64 {
	d.m++
	w := 1 / (d.m + daT0)
	d.hBar = (1-w)*d.hBar + w*(d.delta-accept)
	logEps := d.mu - math.Sqrt(d.m)/daGamma*d.hBar
	k := math.Pow(d.m, -daKappa)
	d.logEpsBar = k*logEps + (1-k)*d.logEpsBar
	return math.Exp(logEps)
}

func (d *dualAveraging) final() float64 {
	return math.Exp(d.logEpsBar)
}
