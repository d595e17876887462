package analysis

import (
	"math"
	"sort"

	"github.com/pable/go-padel-metrics/internal/model"
)

// resultOrder is the display order of per-result views.
var resultOrder = []model.Result{model.ResultWin, model.ResultLoss, model.ResultNoResult}

// Spread is the five-number summary of one column for one result. The
// whiskers span the full min-max range.
type Spread struct {
	Result model.Result
	Count  int
	Min    float64
	Q1     float64
	Median float64
	Q3     float64
	Max    float64
}

// GameDiffBin counts matches per result whose game difference falls in
// [Low, High).
type GameDiffBin struct {
	Low       float64
	High      float64
	Wins      int
	Losses    int
	NoResults int
}

// Total returns the number of matches in the bin.
func (b GameDiffBin) Total() int {
	return b.Wins + b.Losses + b.NoResults
}

// SpreadByResult summarizes get over the records of each result, wins
// first. Results without matches are omitted.
func SpreadByResult(records []model.MatchRecord, get func(*model.MatchRecord) float64) []Spread {
	groups := map[model.Result][]float64{}
	for i := range records {
		r := &records[i]
		groups[r.Result] = append(groups[r.Result], get(r))
	}
	var out []Spread
	for _, res := range resultOrder {
		xs := groups[res]
		if len(xs) == 0 {
			continue
		}
		sort.Float64s(xs)
		out = append(out, Spread{
			Result: res,
			Count:  len(xs),
			Min:    xs[0],
			Q1:     quantile(xs, 0.25),
			Median: quantile(xs, 0.5),
			Q3:     quantile(xs, 0.75),
			Max:    xs[len(xs)-1],
		})
	}
	return out
}

// quantile interpolates linearly between the closest ranks of sorted.
func quantile(sorted []float64, q float64) float64 {
	pos := q * float64(len(sorted)-1)
	lo := int(math.Floor(pos))
	hi := int(math.Ceil(pos))
	if lo == hi {
		return sorted[lo]
	}
	frac := pos - float64(lo)
	return sorted[lo] + frac*(sorted[hi]-sorted[lo])
}

// GameDiffHistogram bins game differences into at most maxBins bins of
// equal integer width, covering the floor of the smallest value to the
// floor of the largest. Empty bins inside the range are kept.
func GameDiffHistogram(records []model.MatchRecord, maxBins int) []GameDiffBin {
	if len(records) == 0 {
		return nil
	}
	if maxBins <= 0 {
		maxBins = 1
	}
	lo, hi := math.Inf(1), math.Inf(-1)
	for _, r := range records {
		lo = math.Min(lo, math.Floor(r.GameDiff))
		hi = math.Max(hi, math.Floor(r.GameDiff))
	}
	span := hi - lo + 1
	width := math.Max(1, math.Ceil(span/float64(maxBins)))
	n := int(math.Ceil(span / width))

	bins := make([]GameDiffBin, n)
	for i := range bins {
		bins[i].Low = lo + float64(i)*width
		bins[i].High = bins[i].Low + width
	}
	for _, r := range records {
		b := &bins[int((math.Floor(r.GameDiff)-lo)/width)]
		switch r.Result {
		case model.ResultWin:
			b.Wins++
		case model.ResultLoss:
			b.Losses++
		default:
			b.NoResults++
		}
	}
	return bins
}
