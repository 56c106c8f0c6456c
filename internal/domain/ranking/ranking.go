// Package ranking turns posterior ability draws into per-draw team ranks and
// aggregates them per team.
package ranking

import (
	"cmp"
	"fmt"
	"slices"
	"sort"

	"github.com/okian/pairwise/internal/domain/model"
	"gonum.org/v1/gonum/stat"
)

// Quantile levels reported next to the median.
const (
	LowQuantile  = 0.05
	HighQuantile = 0.95
)

// RankDraw ranks one draw of abilities: rank 1 for the largest value, J for
// the smallest. Equal values keep their original order, so the team listed
// first gets the better rank.
func RankDraw(abilities []float64) []int {
	order := make([]int, len(abilities))
	for i := range order {
		order[i] = i
	}
	sort.SliceStable(order, func(a, b int) bool {
		return abilities[order[a]] > abilities[order[b]]
	})
	ranks := make([]int, len(abilities))
	for pos, team := range order {
		ranks[team] = pos + 1
	}
	return ranks
}

// Extract builds the long rank table: one record per (iteration, chain,
// team). abbr maps dense team ids to labels; missing ids get an empty label.
func Extract(draws model.Draws, abbr map[int]string) ([]model.RankRecord, error) {
	chains, iters := draws.Size()
	if chains == 0 || iters == 0 || draws.Teams == 0 {
		return nil, ErrEmptyDraws
	}

	out := make([]model.RankRecord, 0, chains*iters*draws.Teams)
	for c := range chains {
		for it := range iters {
			a := draws.Chains[c][it].Abilities
			if len(a) != draws.Teams {
				return nil, fmt.Errorf("%w: chain %d iteration %d has %d, want %d",
					ErrShape, c, it, len(a), draws.Teams)
			}
			for team, r := range RankDraw(a) {
				out = append(out, model.RankRecord{
					Iteration: it + 1,
					Chain:     c + 1,
					TeamID:    team + 1,
					Abbr:      abbr[team+1],
					Rank:      r,
				})
			}
		}
	}
	return out, nil
}

// Summarize aggregates rank records per team into the median, the 5% and
// 95% quantiles and the mean. Results are ordered by team id; each summary
// depends only on that team's rank column, not on record order.
func Summarize(records []model.RankRecord) []model.TeamSummary {
	byTeam := make(map[int][]float64)
	labels := make(map[int]string)
	for _, r := range records {
		byTeam[r.TeamID] = append(byTeam[r.TeamID], float64(r.Rank))
		labels[r.TeamID] = r.Abbr
	}

	teams := make([]int, 0, len(byTeam))
	for id := range byTeam {
		teams = append(teams, id)
	}
	slices.Sort(teams)

	out := make([]model.TeamSummary, 0, len(teams))
	for _, id := range teams {
		ranks := byTeam[id]
		slices.Sort(ranks)
		out = append(out, model.TeamSummary{
			TeamID: id,
			Abbr:   labels[id],
			Low:    quantile(LowQuantile, ranks),
			Median: median(ranks),
			High:   quantile(HighQuantile, ranks),
			Mean:   stat.Mean(ranks, nil),
		})
	}
	return out
}

// median averages the two middle values for even-length input.
func median(sorted []float64) float64 {
	n := len(sorted)
	if n%2 == 1 {
		return sorted[n/2]
	}
	return (sorted[n/2-1] + sorted[n/2]) / 2
}

// quantile interpolates linearly between order statistics.
func quantile(p float64, sorted []float64) float64 {
	return stat.Quantile(p, stat.LinInterp, sorted, nil)
}

// SortByMedian orders summaries by median, then low, then high rank, with
// team id as the last tie-break.
func SortByMedian(s []model.TeamSummary) {
	slices.SortStableFunc(s, func(a, b model.TeamSummary) int {
		return cmp.Or(
			cmp.Compare(a.Median, b.Median),
			cmp.Compare(a.Low, b.Low),
			cmp.Compare(a.High, b.High),
			cmp.Compare(a.TeamID, b.TeamID),
		)
	})
}

// Frequencies counts how often each rank 1..teams occurs per team.
// The result is indexed [team-1][rank-1].
func Frequencies(records []model.RankRecord, teams int) [][]int {
	out := make([][]int, teams)
	for i := range out {
		out[i] = make([]int, teams)
	}
	for _, r := range records {
		if r.TeamID < 1 || r.TeamID > teams || r.Rank < 1 || r.Rank > teams {
			continue
		}
		out[r.TeamID-1][r.Rank-1]++
	}
	return out
}
