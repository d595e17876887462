package aggregator

import (
	"sort"

	"github.com/pable/go-padel-metrics/internal/model"
	"github.com/pable/go-padel-metrics/internal/scoring"
)

// Aggregate groups records by key, computes per-group counts and means,
// scores the resulting cohort and returns it sorted by win probability,
// highest first. Ties keep first-seen order. Records the key cannot
// classify are skipped. A nil scorer leaves WinProbability at 0 and keeps
// first-seen order.
func Aggregate(records []model.MatchRecord, key KeySelector, scorer scoring.Scorer) []model.GroupPerformance {
	type accum struct {
		total, wins, losses, draws int
		merit, chem, perf, diff    float64
	}

	// ---- Pass 1: grouping reduce in first-seen key order. ----
	index := make(map[string]int)
	var names []string
	var accs []*accum
	for i := range records {
		r := &records[i]
		k, ok := key.Key(r)
		if !ok {
			continue
		}
		idx, seen := index[k]
		if !seen {
			idx = len(accs)
			index[k] = idx
			names = append(names, k)
			accs = append(accs, &accum{})
		}
		acc := accs[idx]
		acc.total++
		switch r.Result {
		case model.ResultWin:
			acc.wins++
		case model.ResultLoss:
			acc.losses++
		default:
			acc.draws++
		}
		acc.merit += r.Merit
		acc.chem += r.Chemistry
		acc.perf += r.Performance
		acc.diff += r.GameDiff
	}

	// ---- Pass 2: roll up into GroupPerformance. ----
	out := make([]model.GroupPerformance, len(accs))
	for i, acc := range accs {
		n := float64(acc.total)
		g := model.GroupPerformance{
			EntityName:     names[i],
			TotalMatches:   acc.total,
			Wins:           acc.wins,
			Losses:         acc.losses,
			Draws:          acc.draws,
			AvgMerit:       acc.merit / n,
			AvgChemistry:   acc.chem / n,
			AvgPerformance: acc.perf / n,
			AvgGameDiff:    acc.diff / n,
			WinRateTotal:   100 * float64(acc.wins) / n,
		}
		if d := g.Decisive(); d > 0 {
			g.WinRateDecisive = 100 * float64(acc.wins) / float64(d)
		}
		out[i] = g
	}

	// ---- Pass 3: score against the whole cohort, then rank. ----
	if scorer == nil || len(out) == 0 {
		return out
	}
	probs := scorer.Score(out)
	for i := range out {
		out[i].WinProbability = probs[i]
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].WinProbability > out[j].WinProbability
	})
	return out
}

// AggregateBy is Aggregate with the selector resolved from a GroupBy. For
// an opponent grouping over a feed without an opponent column it returns
// an empty set.
func AggregateBy(snap *model.Snapshot, records []model.MatchRecord, by GroupBy, scorer scoring.Scorer) []model.GroupPerformance {
	key := by.Selector()
	if !key.Applicable(snap) {
		return []model.GroupPerformance{}
	}
	return Aggregate(records, key, scorer)
}

// Totals aggregates every record into a single unnamed group, ignoring the
// scorer. It backs the cohort-wide summary.
func Totals(records []model.MatchRecord) model.GroupPerformance {
	all := Aggregate(records, constantKey{}, nil)
	if len(all) == 0 {
		return model.GroupPerformance{}
	}
	return all[0]
}
