package sampler

import (
	"math"

	"gonum.org/v1/gonum/stat"
)

// SplitRHat computes the split potential scale reduction factor for every
// parameter. draws is indexed [chain][iteration][parameter]. Each chain is
// cut into two halves, dropping the middle draw when the length is odd.
// A parameter gets NaN when fewer than two draws land in each half.
func SplitRHat(draws [][][]float64) []float64 {
	if len(draws) == 0 || len(draws[0]) == 0 {
		return nil
	}
	dim := len(draws[0][0])
	n := len(draws[0])
	for _, c := range draws[1:] {
		n = min(n, len(c))
	}
	half := n / 2

	out := make([]float64, dim)
	if half < 2 {
		for i := range out {
			out[i] = math.NaN()
		}
		return out
	}

	segments := make([][]float64, 0, 2*len(draws))
	for range 2 * len(draws) {
		segments = append(segments, make([]float64, half))
	}
	means := make([]float64, len(segments))
	vars := make([]float64, len(segments))

	for p := range dim {
		for c, chain := range draws {
			for i := range half {
				segments[2*c][i] = chain[i][p]
				segments[2*c+1][i] = chain[n-half+i][p]
			}
		}
		for s, seg := range segments {
			means[s], vars[s] = stat.MeanVariance(seg, nil)
		}
		w := stat.Mean(vars, nil)
		b := stat.Variance(means, nil) // B/n
		switch {
		case w == 0 && b == 0:
			out[p] = 1
		case w == 0:
			out[p] = math.Inf(1)
		default:
			nf := float64(half)
			out[p] = math.Sqrt(((nf-1)/nf*w + b) / w)
		}
	}
	return out
}

// MaxRHat returns the largest finite-or-infinite R-hat, ignoring NaN.
func MaxRHat(rhat []float64) float64 {
	best := math.NaN()
	for _, r := range rhat {
		if math.IsNaN(r) {
			continue
		}
		if math.IsNaN(best) || r > best {
			best = r
		}
	}
	return best
}
