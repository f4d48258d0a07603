// Package rank orders actionable candidates for presentation: strongest
// conviction first, BUY ideas ahead of SELL ideas.
package rank

import (
	"math"
	"sort"

	"sensex-pulse/internal/models"
)

// Select drops non-actionable candidates and returns up to topPerSide
// BUY ideas followed by up to topPerSide SELL ideas. A non-positive
// topPerSide keeps every actionable candidate.
//
// Ordering within a side is probability descending, then absolute score
// descending, then symbol ascending, so equal-conviction candidates come
// out in a reproducible lexicographic order.
func Select(candidates []models.RankedCandidate, topPerSide int) []models.RankedCandidate {
	buys := side(candidates, models.DirectionBuy)
	sells := side(candidates, models.DirectionSell)

	sortSide(buys)
	sortSide(sells)

	out := make([]models.RankedCandidate, 0, len(buys)+len(sells))
	out = append(out, limit(buys, topPerSide)...)
	out = append(out, limit(sells, topPerSide)...)
	return out
}

func side(candidates []models.RankedCandidate, d models.Direction) []models.RankedCandidate {
	var picked []models.RankedCandidate
	for _, c := range candidates {
		if c.Signal.Direction == d {
			picked = append(picked, c)
		}
	}
	return picked
}

func sortSide(candidates []models.RankedCandidate) {
	sort.SliceStable(candidates, func(i, j int) bool {
		pi := candidates[i].Probability.ProbabilityPct
		pj := candidates[j].Probability.ProbabilityPct
		if pi != pj {
			return pi > pj
		}
		si := math.Abs(candidates[i].Signal.Score)
		sj := math.Abs(candidates[j].Signal.Score)
		if si != sj {
			return si > sj
		}
		return candidates[i].Symbol < candidates[j].Symbol
	})
}

func limit(candidates []models.RankedCandidate, n int) []models.RankedCandidate {
	if n <= 0 || len(candidates) <= n {
		return candidates
	}
	return candidates[:n]
}
