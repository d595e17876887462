package report

import (
	"fmt"
	"io"
	"math"
	"strconv"
	"strings"

	"github.com/olekukonko/tablewriter"
	"github.com/olekukonko/tablewriter/tw"

	"github.com/pable/go-padel-metrics/internal/aggregator"
	"github.com/pable/go-padel-metrics/internal/analysis"
	"github.com/pable/go-padel-metrics/internal/filter"
	"github.com/pable/go-padel-metrics/internal/model"
)

func newTable(w io.Writer) *tablewriter.Table {
	return tablewriter.NewTable(w, tablewriter.WithConfig(tablewriter.Config{
		Row:    tw.CellConfig{Alignment: tw.CellAlignment{Global: tw.AlignRight}},
		Header: tw.CellConfig{Alignment: tw.CellAlignment{Global: tw.AlignCenter}},
	}))
}

func pct(v float64) string { return fmt.Sprintf("%.1f%%", v) }
func avg(v float64) string { return fmt.Sprintf("%.2f", v) }

// PrintHeader prints a one-line header for the run.
func PrintHeader(w io.Writer, a *analysis.Analysis) {
	fmt.Fprintf(w, "\nSource: %s  |  Matches: %d  |  Policy: %s  |  Filter: %s  |  Run: %s\n\n",
		a.SourceID, a.Summary.TotalMatches, a.Policy, a.Filter.String(), shortID(a.RunID))
}

func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}

// PrintSummary prints the cohort-wide totals and means.
func PrintSummary(w io.Writer, s model.GroupPerformance) {
	table := newTable(w)
	table.Header("MATCHES", "W", "L", "N", "WIN%", "DECISIVE%", "MERIT", "CHEM", "PERF", "GAME_DIFF")
	table.Append(
		strconv.Itoa(s.TotalMatches),
		strconv.Itoa(s.Wins),
		strconv.Itoa(s.Losses),
		strconv.Itoa(s.Draws),
		pct(s.WinRateTotal),
		pct(s.WinRateDecisive),
		avg(s.AvgMerit),
		avg(s.AvgChemistry),
		avg(s.AvgPerformance),
		avg(s.AvgGameDiff),
	)
	table.Render()
}

// PrintGroupTable prints one grouped performance table, highest win
// probability first. SAMPLE flags groups whose averages rest on few matches
// and CI is the 95% Wilson interval of the decisive win rate.
func PrintGroupTable(w io.Writer, by aggregator.GroupBy, rows []model.GroupPerformance) {
	if len(rows) == 0 {
		if by == aggregator.ByOpponent {
			fmt.Fprintln(w, "No opponent data in this feed.")
		} else {
			fmt.Fprintf(w, "No %s data for this cohort.\n", by)
		}
		return
	}
	table := newTable(w)
	table.Header(strings.ToUpper(string(by)), "MATCHES", "W", "L", "N", "WIN%", "DECISIVE%", "CI",
		"MERIT", "CHEM", "PERF", "GAME_DIFF", "WIN_PROB", "SAMPLE")
	for _, g := range rows {
		ci := "—"
		if d := g.Decisive(); d > 0 {
			lo, hi := wilsonCI(g.Wins, d)
			ci = fmt.Sprintf("%.0f-%.0f%%", lo*100, hi*100)
		}
		table.Append(
			g.EntityName,
			strconv.Itoa(g.TotalMatches),
			strconv.Itoa(g.Wins),
			strconv.Itoa(g.Losses),
			strconv.Itoa(g.Draws),
			pct(g.WinRateTotal),
			pct(g.WinRateDecisive),
			ci,
			avg(g.AvgMerit),
			avg(g.AvgChemistry),
			avg(g.AvgPerformance),
			avg(g.AvgGameDiff),
			pct(g.WinProbability),
			sampleFlag(g.TotalMatches),
		)
	}
	table.Render()
}

// sampleFlag grades how far a group's numbers can be trusted.
func sampleFlag(n int) string {
	switch {
	case n >= 10:
		return "OK"
	case n >= 5:
		return "LOW"
	default:
		return "VERY_LOW"
	}
}

// wilsonCI computes the 95% Wilson score confidence interval for a proportion.
// Returns (lo, hi) as fractions in [0, 1].
func wilsonCI(hits, n int) (lo, hi float64) {
	if n == 0 {
		return 0, 1
	}
	z := 1.96
	p := float64(hits) / float64(n)
	nf := float64(n)
	denom := 1 + z*z/nf
	center := (p + z*z/(2*nf)) / denom
	half := z * math.Sqrt(p*(1-p)/nf+z*z/(4*nf*nf)) / denom
	return math.Max(0, center-half), math.Min(1, center+half)
}

// PrintStreaks prints the run lengths and their summary.
func PrintStreaks(w io.Writer, s analysis.Streaks) {
	cur := "—"
	switch {
	case s.Summary.Current > 0:
		cur = fmt.Sprintf("W%d", s.Summary.Current)
	case s.Summary.Current < 0:
		cur = fmt.Sprintf("L%d", -s.Summary.Current)
	}
	table := newTable(w)
	table.Header("MAX_WIN", "MAX_LOSS", "AVG_WIN", "AVG_LOSS", "CURRENT")
	table.Append(
		strconv.Itoa(s.Summary.MaxWin),
		strconv.Itoa(s.Summary.MaxLoss),
		fmt.Sprintf("%.1f", s.Summary.MeanWin),
		fmt.Sprintf("%.1f", s.Summary.MeanLoss),
		cur,
	)
	table.Render()
	fmt.Fprintf(w, "Win streaks:  %s\n", joinInts(s.Wins))
	fmt.Fprintf(w, "Loss streaks: %s\n", joinInts(s.Losses))
}

func joinInts(xs []int) string {
	if len(xs) == 0 {
		return "—"
	}
	parts := make([]string, len(xs))
	for i, x := range xs {
		parts[i] = strconv.Itoa(x)
	}
	return strings.Join(parts, " ")
}

// PrintTimeOfDay prints the part-of-day breakdown.
func PrintTimeOfDay(w io.Writer, rows []analysis.TimeOfDayRow) {
	table := newTable(w)
	table.Header("TIME_OF_DAY", "MATCHES", "W", "WIN%", "MERIT", "CHEM", "PERF")
	for _, r := range rows {
		table.Append(
			r.Bucket,
			strconv.Itoa(r.Matches),
			strconv.Itoa(r.Wins),
			pct(r.WinRate),
			avg(r.AvgMerit),
			avg(r.AvgChemistry),
			avg(r.AvgPerformance),
		)
	}
	table.Render()
}

// PrintConsistency prints standard deviations and the win/loss contrast.
// sf may be nil.
func PrintConsistency(w io.Writer, c analysis.Consistency, sf *analysis.SuccessFactors) {
	table := newTable(w)
	table.Header("METRIC", "STD_DEV", "W-L_DELTA")
	delta := func(v float64) string {
		if sf == nil {
			return "—"
		}
		return fmt.Sprintf("%+.2f", v)
	}
	var dm, dc, dp, dg float64
	if sf != nil {
		dm, dc, dp, dg = sf.Merit, sf.Chemistry, sf.Performance, sf.GameDiff
	}
	table.Append("merit", avg(c.Merit), delta(dm))
	table.Append("chemistry", avg(c.Chemistry), delta(dc))
	table.Append("performance", avg(c.Performance), delta(dp))
	table.Append("game_diff", "—", delta(dg))
	table.Render()
}

// PrintGames prints a list of individual matches.
func PrintGames(w io.Writer, title string, games []model.MatchRecord) {
	fmt.Fprintf(w, "%s\n", title)
	table := newTable(w)
	table.Header("DATE", "HOUR", "TEAMMATE", "LOCATION", "RESULT", "MERIT", "PERF", "GAME_DIFF")
	for i := range games {
		g := &games[i]
		date := "—"
		if g.HasDate {
			date = g.Date.Format("2006-01-02")
		}
		table.Append(
			date,
			aggregator.HourBucket(g),
			g.Teammate,
			g.Location,
			string(g.Result),
			avg(g.Merit),
			avg(g.Performance),
			fmt.Sprintf("%+.0f", g.GameDiff),
		)
	}
	table.Render()
}

// PrintCorrelations prints the Pearson matrix. Undefined cells print as a
// dash.
func PrintCorrelations(w io.Writer, m analysis.CorrelationMatrix) {
	table := newTable(w)
	table.Header(append([]string{"CORRELATION"}, m.Columns...))
	for i, c := range m.Columns {
		row := []string{c}
		for _, v := range m.Values[i] {
			row = append(row, coef(v))
		}
		table.Append(row)
	}
	table.Render()
}

func coef(v *float64) string {
	if v == nil {
		return "—"
	}
	return fmt.Sprintf("%+.2f", *v)
}

// PrintSpread prints one box summary row per result.
func PrintSpread(w io.Writer, title string, rows []analysis.Spread) {
	fmt.Fprintf(w, "%s\n", title)
	table := newTable(w)
	table.Header("RESULT", "MATCHES", "MIN", "Q1", "MEDIAN", "Q3", "MAX")
	for _, r := range rows {
		table.Append(string(r.Result), strconv.Itoa(r.Count), avg(r.Min), avg(r.Q1), avg(r.Median), avg(r.Q3), avg(r.Max))
	}
	table.Render()
}

// PrintHistogram prints the game difference bins with a count per result.
func PrintHistogram(w io.Writer, bins []analysis.GameDiffBin) {
	table := newTable(w)
	table.Header("GAME_DIFF", "W", "L", "N", "TOTAL")
	for _, b := range bins {
		label := fmt.Sprintf("%+.0f", b.Low)
		if b.High-b.Low > 1 {
			label = fmt.Sprintf("%+.0f..%+.0f", b.Low, b.High-1)
		}
		table.Append(label, strconv.Itoa(b.Wins), strconv.Itoa(b.Losses), strconv.Itoa(b.NoResults), strconv.Itoa(b.Total()))
	}
	table.Render()
}

// PrintRankings prints the teammate leaderboards.
func PrintRankings(w io.Writer, rk analysis.Rankings) {
	if rk.Teammates == 0 {
		fmt.Fprintln(w, "No teammates in this cohort.")
		return
	}
	fmt.Fprintf(w, "Teammates: %d  |  Mean win probability: %s\n", rk.Teammates, pct(rk.MeanProbability))
	board := func(title string, rows []model.GroupPerformance) {
		fmt.Fprintf(w, "%s\n", title)
		if len(rows) == 0 {
			fmt.Fprintln(w, "  none")
			return
		}
		table := newTable(w)
		table.Header("#", "TEAMMATE", "MATCHES", "W", "WIN_PROB")
		for i, g := range rows {
			table.Append(strconv.Itoa(i+1), g.EntityName, strconv.Itoa(g.TotalMatches), strconv.Itoa(g.Wins), pct(g.WinProbability))
		}
		table.Render()
	}
	board("Most matches", rk.MostMatches)
	board("Most wins", rk.MostWins)
	board(fmt.Sprintf("Best win probability (%d+ matches)", rk.MinMatches), rk.BestProbability)
}

// PrintInsights prints one line per insight.
func PrintInsights(w io.Writer, insights []analysis.Insight) {
	if len(insights) == 0 {
		fmt.Fprintln(w, "Not enough matches for insights yet.")
		return
	}
	for _, in := range insights {
		fmt.Fprintf(w, "Best %-9s %s (%.1f%% over %d matches)\n", string(in.Kind)+":", in.Entity, in.WinProbability, in.Matches)
	}
}

// PrintQuality prints the data quality report of a snapshot.
func PrintQuality(w io.Writer, issues []model.QualityIssue) {
	if len(issues) == 0 {
		return
	}
	table := newTable(w)
	table.Header("ISSUE", "COUNT", "ROWS", "DETAILS")
	for _, is := range issues {
		rows := make([]string, len(is.Lines))
		for i, l := range is.Lines {
			rows[i] = strconv.Itoa(l)
		}
		table.Append(string(is.Type), strconv.Itoa(is.Count), strings.Join(rows, ","), strings.Join(is.Details, ","))
	}
	table.Render()
}

// PrintOptions lists the values each filter key can take.
func PrintOptions(w io.Writer, v filter.Values) {
	years := make([]string, len(v.Years))
	for i, y := range v.Years {
		years[i] = strconv.Itoa(y)
	}
	results := make([]string, len(v.Results))
	for i, r := range v.Results {
		results[i] = string(r)
	}
	table := newTable(w)
	table.Header("KEY", "VALUES")
	table.Append("year", strings.Join(years, ", "))
	table.Append("month", strings.Join(v.Months, ", "))
	table.Append("weekday", strings.Join(v.Weekdays, ", "))
	table.Append("location", strings.Join(v.Locations, ", "))
	table.Append("teammate", strings.Join(v.Teammates, ", "))
	table.Append("opponent", strings.Join(v.Opponents, ", "))
	table.Append("result", strings.Join(results, ", "))
	table.Render()
}

// PrintAnalysis prints the overview used by the summary command.
func PrintAnalysis(w io.Writer, a *analysis.Analysis) {
	PrintHeader(w, a)
	PrintSummary(w, a.Summary)
	fmt.Fprintln(w)
	PrintInsights(w, a.Insights)
}

// PrintStats prints the dashboard extras.
func PrintStats(w io.Writer, a *analysis.Analysis) {
	PrintHeader(w, a)
	PrintTimeOfDay(w, a.TimeOfDay)
	fmt.Fprintln(w)
	PrintConsistency(w, a.Consistency, a.SuccessFactors)
	fmt.Fprintln(w)
	PrintGames(w, "Best games", a.BestGames)
	fmt.Fprintln(w)
	PrintGames(w, "Worst games", a.WorstGames)
	fmt.Fprintln(w)
	PrintCorrelations(w, a.Correlations)
	fmt.Fprintln(w)
	PrintSpread(w, "Merit by result", a.MeritByResult)
	fmt.Fprintln(w)
	PrintSpread(w, "Game difference by result", a.GameDiffByResult)
	fmt.Fprintln(w)
	PrintHistogram(w, a.GameDiffBins)
	fmt.Fprintln(w)
	PrintRankings(w, a.Rankings)
}
