package simulate

import (
	"cmp"
	"slices"

	"github.com/okian/pairwise/internal/domain/model"
	"github.com/okian/pairwise/internal/domain/ranking"
	"gonum.org/v1/gonum/stat"
)

// fractionalRanks ranks x ascending, giving tied values their mean rank.
func fractionalRanks(x []float64) []float64 {
	idx := make([]int, len(x))
	for i := range idx {
		idx[i] = i
	}
	slices.SortStableFunc(idx, func(a, b int) int { return cmp.Compare(x[a], x[b]) })

	out := make([]float64, len(x))
	for i := 0; i < len(idx); {
		j := i
		for j+1 < len(idx) && x[idx[j+1]] == x[idx[i]] {
			j++
		}
		r := float64(i+j)/2 + 1
		for k := i; k <= j; k++ {
			out[idx[k]] = r
		}
		i = j + 1
	}
	return out
}

// Spearman is the rank correlation between the true ranking and the
// posterior median ranks. Summaries must be ordered by team id.
func Spearman(truth []float64, summaries []model.TeamSummary) float64 {
	trueRank := ranking.RankDraw(truth)
	a := make([]float64, len(trueRank))
	for i, r := range trueRank {
		a[i] = float64(r)
	}
	med := make([]float64, len(summaries))
	for i, s := range summaries {
		med[i] = s.Median
	}
	return stat.Correlation(fractionalRanks(a), fractionalRanks(med), nil)
}

// topTeamHit reports whether the truly best team has the best median rank.
func topTeamHit(truth []float64, summaries []model.TeamSummary) bool {
	trueRank := ranking.RankDraw(truth)
	best := slices.Index(trueRank, 1)
	if best < 0 || best >= len(summaries) {
		return false
	}
	for _, s := range summaries {
		if s.Median < summaries[best].Median {
			return false
		}
	}
	return true
}
