package aggregator

import (
	"sort"

	"github.com/pable/go-padel-metrics/internal/model"
)

// ComputeStreaks scans chronologically ordered results and returns the
// lengths of every win run and every loss run, in order of occurrence.
// A W closes an open loss run, an L closes an open win run, and an N
// closes both.
func ComputeStreaks(results []model.Result) (wins, losses []int) {
	wins, losses = []int{}, []int{}
	currentWin, currentLoss := 0, 0

	for _, res := range results {
		switch res {
		case model.ResultWin:
			currentWin++
			if currentLoss > 0 {
				losses = append(losses, currentLoss)
			}
			currentLoss = 0

		case model.ResultLoss:
			currentLoss++
			if currentWin > 0 {
				wins = append(wins, currentWin)
			}
			currentWin = 0

		default:
			// No result breaks both kinds of streak.
			if currentWin > 0 {
				wins = append(wins, currentWin)
			}
			if currentLoss > 0 {
				losses = append(losses, currentLoss)
			}
			currentWin, currentLoss = 0, 0
		}
	}

	if currentWin > 0 {
		wins = append(wins, currentWin)
	}
	if currentLoss > 0 {
		losses = append(losses, currentLoss)
	}
	return wins, losses
}

// StreaksFromRecords orders records by date (stable, ties by feed order),
// drops records without a date and runs ComputeStreaks over the results.
func StreaksFromRecords(records []model.MatchRecord) (wins, losses []int) {
	return ComputeStreaks(ChronologicalResults(records))
}

// ChronologicalResults returns the results of dated records in date order.
func ChronologicalResults(records []model.MatchRecord) []model.Result {
	dated := make([]model.MatchRecord, 0, len(records))
	for _, r := range records {
		if r.HasDate {
			dated = append(dated, r)
		}
	}
	sort.SliceStable(dated, func(i, j int) bool {
		if !dated[i].Date.Equal(dated[j].Date) {
			return dated[i].Date.Before(dated[j].Date)
		}
		return dated[i].Seq < dated[j].Seq
	})
	out := make([]model.Result, len(dated))
	for i, r := range dated {
		out[i] = r.Result
	}
	return out
}

// StreakSummary condenses streak lists for display.
type StreakSummary struct {
	MaxWin, MaxLoss   int
	MeanWin, MeanLoss float64
	// Current is positive for an ongoing win run, negative for a loss run.
	Current int
}

// SummarizeStreaks computes longest and mean run lengths. Current is read
// off the tail of the chronological results.
func SummarizeStreaks(results []model.Result) StreakSummary {
	wins, losses := ComputeStreaks(results)
	s := StreakSummary{
		MaxWin:   maxInt(wins),
		MaxLoss:  maxInt(losses),
		MeanWin:  meanInt(wins),
		MeanLoss: meanInt(losses),
	}
	if n := len(results); n > 0 && results[n-1] != model.ResultNoResult {
		last, run := results[n-1], 0
		for i := n - 1; i >= 0 && results[i] == last; i-- {
			run++
		}
		s.Current = run * sign(last)
	}
	return s
}

func sign(r model.Result) int {
	if r == model.ResultWin {
		return 1
	}
	return -1
}

func maxInt(xs []int) int {
	m := 0
	for _, x := range xs {
		if x > m {
			m = x
		}
	}
	return m
}

func meanInt(xs []int) float64 {
	if len(xs) == 0 {
		return 0
	}
	sum := 0
	for _, x := range xs {
		sum += x
	}
	return float64(sum) / float64(len(xs))
}
