package sampler

import (
	"math"
	"testing"

	. "github.com/smartystreets/goconvey/convey"
)

func iidChains(chains, n int, offsets []float64) [][][]float64 {
	rng := NewRand(99, 0)
	out := make([][][]float64, chains)
	for c := range out {
		out[c] = make([][]float64, n)
		for i := range out[c] {
			out[c][i] = []float64{rng.NormFloat64() + offsets[c]}
		}
	}
	return out
}

func TestSplitRHat(t *testing.T) {
	Convey("Given chains drawn from the same distribution", t, func() {
		draws := iidChains(4, 1000, []float64{0, 0, 0, 0})

		Convey("Then split R-hat is close to one", func() {
			r := SplitRHat(draws)
			So(r, ShouldHaveLength, 1)
			So(r[0], ShouldBeLessThan, 1.02)
			So(r[0], ShouldBeGreaterThan, 0.98)
		})
	})

	Convey("Given chains stuck in different places", t, func() {
		draws := iidChains(4, 1000, []float64{0, 0, 5, 5})

		Convey("Then split R-hat flags the disagreement", func() {
			So(SplitRHat(draws)[0], ShouldBeGreaterThan, 1.5)
		})
	})

	Convey("Given a single chain that drifts", t, func() {
		chain := make([][]float64, 400)
		for i := range chain {
			chain[i] = []float64{float64(i) / 10}
		}

		Convey("Then splitting the chain exposes the trend", func() {
			So(SplitRHat([][][]float64{chain})[0], ShouldBeGreaterThan, 1.5)
		})
	})

	Convey("Given degenerate input", t, func() {
		Convey("Then constant chains give exactly one", func() {
			c := [][]float64{{2}, {2}, {2}, {2}}
			So(SplitRHat([][][]float64{c, c})[0], ShouldEqual, 1)
		})

		Convey("Then too few draws give NaN", func() {
			c := [][]float64{{1}, {2}, {3}}
			So(math.IsNaN(SplitRHat([][][]float64{c})[0]), ShouldBeTrue)
		})

		Convey("Then no chains give nil", func() {
			So(SplitRHat(nil), ShouldBeNil)
		})

		Convey("Then MaxRHat skips NaN", func() {
			So(MaxRHat([]float64{1.01, math.NaN(), 1.2}), ShouldEqual, 1.2)
			So(math.IsNaN(MaxRHat([]float64{math.NaN()})), ShouldBeTrue)
		})
	})
}
