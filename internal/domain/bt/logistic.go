package bt

import (
	"math"

	"github.com/okian/pairwise/internal/domain/model"
)

const ordinalLevels = model.MarginLevels

// sigmoid is the inverse logit, stable for large |x|.
func sigmoid(x float64) float64 {
	if x >= 0 {
		return 1 / (1 + math.Exp(-x))
	}
	e := math.Exp(x)
	return e / (1 + e)
}

// logSigmoid returns log(sigmoid(x)) without underflow.
func logSigmoid(x float64) float64 {
	if x >= 0 {
		return -math.Log1p(math.Exp(-x))
	}
	return x - math.Log1p(math.Exp(x))
}

// dsigmoid is the derivative of sigmoid.
func dsigmoid(x float64) float64 {
	return sigmoid(x) * sigmoid(-x)
}

// OrderedProbs returns P(y = k) for k = 1..len(c)+1 under the ordered
// logistic model with linear predictor eta and increasing cutpoints c.
func OrderedProbs(eta float64, c []float64) []float64 {
	k := len(c) + 1
	p := make([]float64, k)
	p[0] = 1 - sigmoid(eta-c[0])
	for i := 1; i < k-1; i++ {
		p[i] = sigmoid(eta-c[i-1]) - sigmoid(eta-c[i])
	}
	p[k-1] = sigmoid(eta - c[k-2])
	return p
}

// orderedLogLik returns log P(y | eta, c) and its partial derivatives with
// respect to eta and the two cutpoints bounding category y. lo and hi are
// the indices of those cutpoints in c, -1 when the category is open.
func orderedLogLik(y int, eta float64, c []float64) (lp, dEta float64, lo, hi int, dLo, dHi float64) {
	k := len(c) + 1
	switch y {
	case 1:
		x := c[0] - eta
		return logSigmoid(x), -sigmoid(-x), -1, 0, 0, sigmoid(-x)
	case k:
		x := eta - c[k-2]
		return logSigmoid(x), sigmoid(-x), k - 2, -1, -sigmoid(-x), 0
	}
	a := eta - c[y-2]
	b := eta - c[y-1]
	// sigmoid(a) - sigmoid(b) = sigmoid(a) * sigmoid(-b) * (1 - exp(b-a))
	lp = logSigmoid(a) + logSigmoid(-b) + math.Log1p(-math.Exp(b-a))
	p := math.Exp(lp)
	da, db := dsigmoid(a), dsigmoid(b)
	return lp, (da - db) / p, y - 2, y - 1, -da / p, db / p
}
