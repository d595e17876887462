// Package analysis runs the full pipeline for one cohort: filter, group,
// score, and the dashboard extras derived from the same records.
package analysis

import (
	"math"
	"sort"
	"time"

	"github.com/google/uuid"

	"github.com/pable/go-padel-metrics/internal/aggregator"
	"github.com/pable/go-padel-metrics/internal/filter"
	"github.com/pable/go-padel-metrics/internal/model"
	"github.com/pable/go-padel-metrics/internal/scoring"
)

// Options tunes the derived views.
type Options struct {
	// InsightMinMatches is exclusive: a best row needs more matches.
	InsightMinMatches int
	// Top is the number of best and worst games kept.
	Top int
	// RollingWindow is the trailing window of the rolling rating.
	RollingWindow int
	// RankingLimit caps each teammate leaderboard.
	RankingLimit int
	// RankingMinMatches is the inclusive floor of the probability leaderboard.
	RankingMinMatches int
	// HistogramBins caps the game difference histogram.
	HistogramBins int
}

// DefaultOptions are used by Run.
var DefaultOptions = Options{
	InsightMinMatches: 2,
	Top:               5,
	RollingWindow:     5,
	RankingLimit:      10,
	RankingMinMatches: 5,
	HistogramBins:     20,
}

// Analysis is the output of one pipeline run.
type Analysis struct {
	RunID    string
	SourceID string
	Filter   filter.Filter
	Policy   string
	Created  time.Time

	Records []model.MatchRecord // the filtered cohort, chronological
	Summary model.GroupPerformance

	Teammates []model.GroupPerformance
	Locations []model.GroupPerformance
	Hours     []model.GroupPerformance
	Opponents []model.GroupPerformance

	Streaks        Streaks
	TimeOfDay      []TimeOfDayRow
	Consistency    Consistency
	SuccessFactors *SuccessFactors // nil unless the cohort has wins and losses
	BestGames      []model.MatchRecord
	WorstGames     []model.MatchRecord
	RollingRating  []RatingPoint
	Heatmap        []HeatCell
	Insights       []Insight

	Correlations     CorrelationMatrix
	MeritByResult    []Spread
	GameDiffByResult []Spread
	GameDiffBins     []GameDiffBin
	Rankings         Rankings
}

// Groups returns the table for one grouping.
func (a *Analysis) Groups(by aggregator.GroupBy) []model.GroupPerformance {
	switch by {
	case aggregator.ByLocation:
		return a.Locations
	case aggregator.ByHour:
		return a.Hours
	case aggregator.ByOpponent:
		return a.Opponents
	default:
		return a.Teammates
	}
}

// Streaks holds the run lengths of consecutive wins and losses in
// chronological order. A no-result match ends both runs.
type Streaks struct {
	Wins    []int
	Losses  []int
	Summary aggregator.StreakSummary
}

// TimeOfDayRow aggregates one part of the day.
type TimeOfDayRow struct {
	Bucket         string
	Matches        int
	Wins           int
	WinRate        float64 // wins over all matches, percent
	AvgMerit       float64
	AvgChemistry   float64
	AvgPerformance float64
}

// Consistency holds sample standard deviations.
type Consistency struct {
	Merit       float64
	Chemistry   float64
	Performance float64
}

// SuccessFactors is mean(W) minus mean(L) per numeric column.
type SuccessFactors struct {
	Merit       float64
	Chemistry   float64
	Performance float64
	GameDiff    float64
}

// RatingPoint is one match on the rating timeline.
type RatingPoint struct {
	Seq        int
	Date       time.Time
	Merit      float64
	Rolling    float64
	Cumulative float64
}

// HeatCell is one weekday by hour cell. Hour is -1 when unspecified.
type HeatCell struct {
	Weekday string
	Hour    int
	Matches int
	Wins    int
	WinRate float64
}

// Insight names the best entity of one grouping.
type Insight struct {
	Kind           aggregator.GroupBy
	Entity         string
	Matches        int
	WinProbability float64
}

// Run executes the pipeline with DefaultOptions.
func Run(snap *model.Snapshot, f filter.Filter, scorer scoring.Scorer) *Analysis {
	return RunWithOptions(snap, f, scorer, DefaultOptions)
}

// RunWithOptions executes the pipeline over the records of snap that pass
// f. The snapshot is not modified.
func RunWithOptions(snap *model.Snapshot, f filter.Filter, scorer scoring.Scorer, opts Options) *Analysis {
	if opts.Top <= 0 {
		opts.Top = DefaultOptions.Top
	}
	if opts.RollingWindow <= 0 {
		opts.RollingWindow = DefaultOptions.RollingWindow
	}
	if opts.RankingLimit <= 0 {
		opts.RankingLimit = DefaultOptions.RankingLimit
	}
	if opts.HistogramBins <= 0 {
		opts.HistogramBins = DefaultOptions.HistogramBins
	}

	a := &Analysis{
		RunID:   uuid.NewString(),
		Filter:  f,
		Created: time.Now(),
	}
	if scorer != nil {
		a.Policy = scorer.Name()
	}
	if snap == nil {
		snap = &model.Snapshot{}
	}
	a.SourceID = snap.SourceID
	a.Records = f.Apply(snap.Records)

	a.Summary = aggregator.Totals(a.Records)
	a.Teammates = aggregator.AggregateBy(snap, a.Records, aggregator.ByTeammate, scorer)
	a.Locations = aggregator.AggregateBy(snap, a.Records, aggregator.ByLocation, scorer)
	a.Hours = aggregator.AggregateBy(snap, a.Records, aggregator.ByHour, scorer)
	a.Opponents = aggregator.AggregateBy(snap, a.Records, aggregator.ByOpponent, scorer)

	results := aggregator.ChronologicalResults(a.Records)
	a.Streaks.Wins, a.Streaks.Losses = aggregator.ComputeStreaks(results)
	a.Streaks.Summary = aggregator.SummarizeStreaks(results)

	a.TimeOfDay = TimeOfDay(a.Records)
	a.Consistency = ComputeConsistency(a.Records)
	a.SuccessFactors = ComputeSuccessFactors(a.Records)
	a.BestGames, a.WorstGames = BestWorst(a.Records, opts.Top)
	a.RollingRating = RollingRating(a.Records, opts.RollingWindow)
	a.Heatmap = Heatmap(a.Records)
	a.Insights = BuildInsights(a, opts.InsightMinMatches)

	a.Correlations = Correlations(a.Records)
	a.MeritByResult = SpreadByResult(a.Records, func(r *model.MatchRecord) float64 { return r.Merit })
	a.GameDiffByResult = SpreadByResult(a.Records, func(r *model.MatchRecord) float64 { return r.GameDiff })
	a.GameDiffBins = GameDiffHistogram(a.Records, opts.HistogramBins)
	a.Rankings = RankTeammates(a.Teammates, opts.RankingLimit, opts.RankingMinMatches)
	return a
}

// Time-of-day buckets.
const (
	Morning     = "Morning"
	Midday      = "Midday"
	Afternoon   = "Afternoon"
	Night       = "Night"
	Unspecified = "Unspecified"
)

var bucketOrder = []string{Morning, Midday, Afternoon, Night, Unspecified}

// DayPart maps a record to its part of the day.
func DayPart(r *model.MatchRecord) string {
	if !r.HasHour {
		return Unspecified
	}
	switch h := r.Hour; {
	case h >= 5 && h < 12:
		return Morning
	case h >= 12 && h < 17:
		return Midday
	case h >= 17 && h < 21:
		return Afternoon
	default:
		return Night
	}
}

// TimeOfDay aggregates records per part of the day, busiest first.
func TimeOfDay(records []model.MatchRecord) []TimeOfDayRow {
	rows := map[string]*TimeOfDayRow{}
	for i := range records {
		r := &records[i]
		b := DayPart(r)
		row, ok := rows[b]
		if !ok {
			row = &TimeOfDayRow{Bucket: b}
			rows[b] = row
		}
		row.Matches++
		if r.Result == model.ResultWin {
			row.Wins++
		}
		row.AvgMerit += r.Merit
		row.AvgChemistry += r.Chemistry
		row.AvgPerformance += r.Performance
	}

	out := make([]TimeOfDayRow, 0, len(rows))
	for _, b := range bucketOrder {
		row, ok := rows[b]
		if !ok {
			continue
		}
		n := float64(row.Matches)
		row.WinRate = 100 * float64(row.Wins) / n
		row.AvgMerit /= n
		row.AvgChemistry /= n
		row.AvgPerformance /= n
		out = append(out, *row)
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Matches > out[j].Matches })
	return out
}

// ComputeConsistency returns the sample standard deviation of merit,
// chemistry and performance. Fewer than two matches yield zeros.
func ComputeConsistency(records []model.MatchRecord) Consistency {
	pick := func(get func(*model.MatchRecord) float64) []float64 {
		xs := make([]float64, len(records))
		for i := range records {
			xs[i] = get(&records[i])
		}
		return xs
	}
	return Consistency{
		Merit:       stddev(pick(func(r *model.MatchRecord) float64 { return r.Merit })),
		Chemistry:   stddev(pick(func(r *model.MatchRecord) float64 { return r.Chemistry })),
		Performance: stddev(pick(func(r *model.MatchRecord) float64 { return r.Performance })),
	}
}

func stddev(xs []float64) float64 {
	if len(xs) < 2 {
		return 0
	}
	var mean float64
	for _, x := range xs {
		mean += x
	}
	mean /= float64(len(xs))
	var ss float64
	for _, x := range xs {
		ss += (x - mean) * (x - mean)
	}
	return math.Sqrt(ss / float64(len(xs)-1))
}

// ComputeSuccessFactors contrasts wins with losses. It returns nil unless
// both occur in records.
func ComputeSuccessFactors(records []model.MatchRecord) *SuccessFactors {
	var win, loss SuccessFactors
	var nw, nl float64
	for _, r := range records {
		var acc *SuccessFactors
		switch r.Result {
		case model.ResultWin:
			acc, nw = &win, nw+1
		case model.ResultLoss:
			acc, nl = &loss, nl+1
		default:
			continue
		}
		acc.Merit += r.Merit
		acc.Chemistry += r.Chemistry
		acc.Performance += r.Performance
		acc.GameDiff += r.GameDiff
	}
	if nw == 0 || nl == 0 {
		return nil
	}
	return &SuccessFactors{
		Merit:       win.Merit/nw - loss.Merit/nl,
		Chemistry:   win.Chemistry/nw - loss.Chemistry/nl,
		Performance: win.Performance/nw - loss.Performance/nl,
		GameDiff:    win.GameDiff/nw - loss.GameDiff/nl,
	}
}

// BestWorst returns the top and bottom n records by merit. Ties keep
// cohort order.
func BestWorst(records []model.MatchRecord, n int) (best, worst []model.MatchRecord) {
	byMerit := make([]model.MatchRecord, len(records))
	copy(byMerit, records)
	sort.SliceStable(byMerit, func(i, j int) bool { return byMerit[i].Merit > byMerit[j].Merit })
	k := n
	if k > len(byMerit) {
		k = len(byMerit)
	}
	best = append([]model.MatchRecord{}, byMerit[:k]...)

	sort.SliceStable(byMerit, func(i, j int) bool { return byMerit[i].Merit < byMerit[j].Merit })
	worst = append([]model.MatchRecord{}, byMerit[:k]...)
	return best, worst
}

// RollingRating computes a trailing mean of merit over the chronological
// cohort with a minimum of one period.
func RollingRating(records []model.MatchRecord, window int) []RatingPoint {
	out := make([]RatingPoint, len(records))
	var sum float64
	for i, r := range records {
		sum += r.Merit
		if i >= window {
			sum -= records[i-window].Merit
		}
		n := i + 1
		if n > window {
			n = window
		}
		out[i] = RatingPoint{
			Seq:        r.Seq,
			Date:       r.Date,
			Merit:      r.Merit,
			Rolling:    sum / float64(n),
			Cumulative: r.CumulativeRating,
		}
	}
	return out
}

// Heatmap groups records by weekday and hour, Monday first and hours
// ascending with the unspecified hour last.
func Heatmap(records []model.MatchRecord) []HeatCell {
	type key struct {
		day  time.Weekday
		hour int
	}
	cells := map[key]*HeatCell{}
	var keys []key
	for _, r := range records {
		if !r.HasDate {
			continue
		}
		k := key{day: r.Date.Weekday(), hour: -1}
		if r.HasHour {
			k.hour = r.Hour
		}
		c, ok := cells[k]
		if !ok {
			c = &HeatCell{Weekday: k.day.String(), Hour: k.hour}
			cells[k] = c
			keys = append(keys, k)
		}
		c.Matches++
		if r.Result == model.ResultWin {
			c.Wins++
		}
	}
	mondayFirst := func(d time.Weekday) int { return (int(d) + 6) % 7 }
	hourRank := func(h int) int {
		if h < 0 {
			return 24
		}
		return h
	}
	sort.Slice(keys, func(i, j int) bool {
		if keys[i].day != keys[j].day {
			return mondayFirst(keys[i].day) < mondayFirst(keys[j].day)
		}
		return hourRank(keys[i].hour) < hourRank(keys[j].hour)
	})
	out := make([]HeatCell, len(keys))
	for i, k := range keys {
		c := cells[k]
		c.WinRate = 100 * float64(c.Wins) / float64(c.Matches)
		out[i] = *c
	}
	return out
}

// BuildInsights reports the top row of the teammate, location and hour
// tables when it has more than minMatches matches.
func BuildInsights(a *Analysis, minMatches int) []Insight {
	var out []Insight
	for _, by := range []aggregator.GroupBy{aggregator.ByTeammate, aggregator.ByLocation, aggregator.ByHour} {
		rows := a.Groups(by)
		if len(rows) == 0 || rows[0].TotalMatches <= minMatches {
			continue
		}
		out = append(out, Insight{
			Kind:           by,
			Entity:         rows[0].EntityName,
			Matches:        rows[0].TotalMatches,
			WinProbability: rows[0].WinProbability,
		})
	}
	return out
}
