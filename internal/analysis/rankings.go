package analysis

import (
	"sort"

	"github.com/pable/go-padel-metrics/internal/model"
)

// Rankings are the teammate leaderboards.
type Rankings struct {
	MostMatches []model.GroupPerformance
	MostWins    []model.GroupPerformance
	// BestProbability only ranks teammates with at least MinMatches matches.
	BestProbability []model.GroupPerformance
	MinMatches      int

	Teammates       int
	MeanProbability float64
}

// RankTeammates builds the leaderboards from a teammate table, keeping
// limit rows each. Ties keep the order of rows.
func RankTeammates(rows []model.GroupPerformance, limit, minMatches int) Rankings {
	rk := Rankings{MinMatches: minMatches, Teammates: len(rows)}
	if len(rows) == 0 {
		return rk
	}
	for _, g := range rows {
		rk.MeanProbability += g.WinProbability
	}
	rk.MeanProbability /= float64(len(rows))

	rk.MostMatches = topBy(rows, limit, func(a, b *model.GroupPerformance) bool {
		return a.TotalMatches > b.TotalMatches
	})
	rk.MostWins = topBy(rows, limit, func(a, b *model.GroupPerformance) bool {
		return a.Wins > b.Wins
	})

	var qualified []model.GroupPerformance
	for _, g := range rows {
		if g.TotalMatches >= minMatches {
			qualified = append(qualified, g)
		}
	}
	rk.BestProbability = topBy(qualified, limit, func(a, b *model.GroupPerformance) bool {
		return a.WinProbability > b.WinProbability
	})
	return rk
}

func topBy(rows []model.GroupPerformance, limit int, less func(a, b *model.GroupPerformance) bool) []model.GroupPerformance {
	out := append([]model.GroupPerformance{}, rows...)
	sort.SliceStable(out, func(i, j int) bool { return less(&out[i], &out[j]) })
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out
}
