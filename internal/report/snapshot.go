package report

import (
	"sort"

	"sensex-pulse/internal/models"
)

// Snapshot is the broad-market section of the report: the biggest
// one-session movers and the heaviest traded names across the whole
// evaluated universe, actionable or not.
type Snapshot struct {
	Gainers       []models.SymbolOverview
	Losers        []models.SymbolOverview
	VolumeLeaders []models.SymbolOverview
}

// Empty reports whether the snapshot has nothing to show.
func (s Snapshot) Empty() bool {
	return len(s.Gainers) == 0 && len(s.Losers) == 0 && len(s.VolumeLeaders) == 0
}

// BuildSnapshot picks up to n gainers (positive one-session change,
// largest first), n losers (negative change, most negative first) and n
// volume leaders. Symbols without a computable change still qualify as
// volume leaders. Ties break on symbol so output is reproducible.
func BuildSnapshot(overview []models.SymbolOverview, n int) Snapshot {
	if n <= 0 {
		return Snapshot{}
	}

	var gainers, losers, traded []models.SymbolOverview
	for _, o := range overview {
		if o.HasChange && o.ChangePct > 0 {
			gainers = append(gainers, o)
		}
		if o.HasChange && o.ChangePct < 0 {
			losers = append(losers, o)
		}
		if o.Volume > 0 {
			traded = append(traded, o)
		}
	}

	sort.SliceStable(gainers, func(i, j int) bool {
		if gainers[i].ChangePct != gainers[j].ChangePct {
			return gainers[i].ChangePct > gainers[j].ChangePct
		}
		return gainers[i].Symbol < gainers[j].Symbol
	})
	sort.SliceStable(losers, func(i, j int) bool {
		if losers[i].ChangePct != losers[j].ChangePct {
			return losers[i].ChangePct < losers[j].ChangePct
		}
		return losers[i].Symbol < losers[j].Symbol
	})
	sort.SliceStable(traded, func(i, j int) bool {
		if traded[i].Volume != traded[j].Volume {
			return traded[i].Volume > traded[j].Volume
		}
		return traded[i].Symbol < traded[j].Symbol
	})

	return Snapshot{
		Gainers:       clip(gainers, n),
		Losers:        clip(losers, n),
		VolumeLeaders: clip(traded, n),
	}
}

func clip(list []models.SymbolOverview, n int) []models.SymbolOverview {
	if len(list) <= n {
		return list
	}
	return list[:n]
}
