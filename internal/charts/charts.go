// Package charts renders analysis views as standalone HTML charts.
package charts

import (
	"fmt"
	"io"
	"math"
	"os"
	"strings"

	"github.com/go-echarts/go-echarts/v2/charts"
	"github.com/go-echarts/go-echarts/v2/opts"

	"github.com/pable/go-padel-metrics/internal/aggregator"
	"github.com/pable/go-padel-metrics/internal/analysis"
	"github.com/pable/go-padel-metrics/internal/model"
)

// Kind names a chart.
type Kind string

const (
	KindProbability Kind = "probability"
	KindRating      Kind = "rating"
	KindHeatmap     Kind = "heatmap"
	KindCorrelation Kind = "correlation"
	KindMerit       Kind = "merit"
	KindGameDiff    Kind = "gamediff"
)

// Kinds lists the supported charts.
var Kinds = []Kind{KindProbability, KindRating, KindHeatmap, KindCorrelation, KindMerit, KindGameDiff}

// ParseKind validates a chart kind.
func ParseKind(s string) (Kind, error) {
	for _, k := range Kinds {
		if string(k) == s {
			return k, nil
		}
	}
	names := make([]string, len(Kinds))
	for i, k := range Kinds {
		names[i] = string(k)
	}
	return "", fmt.Errorf("unknown chart %q (want one of %s)", s, strings.Join(names, ", "))
}

// Config holds presentation settings shared by all charts.
type Config struct {
	Title    string
	Subtitle string
	Width    string
	Height   string
	Theme    string
	Colors   []string
}

// DefaultConfig returns default chart configuration.
func DefaultConfig() Config {
	return Config{
		Width:  "900px",
		Height: "500px",
		Theme:  "light",
		Colors: []string{"#5470C6", "#91CC75", "#FAC858", "#EE6666", "#73C0DE"},
	}
}

func (c Config) globals() []charts.GlobalOpts {
	return []charts.GlobalOpts{
		charts.WithInitializationOpts(opts.Initialization{
			Width:  c.Width,
			Height: c.Height,
			Theme:  c.Theme,
		}),
		charts.WithTitleOpts(opts.Title{
			Title:    c.Title,
			Subtitle: c.Subtitle,
		}),
		charts.WithTooltipOpts(opts.Tooltip{
			Show:    opts.Bool(true),
			Trigger: "axis",
		}),
		charts.WithColorsOpts(opts.Colors(c.Colors)),
	}
}

// RenderProbability writes a bar chart of win probability per entity.
func RenderProbability(w io.Writer, rows []model.GroupPerformance, cfg Config) error {
	bar := charts.NewBar()
	bar.SetGlobalOptions(cfg.globals()...)

	labels := make([]string, len(rows))
	data := make([]opts.BarData, len(rows))
	for i, r := range rows {
		labels[i] = r.EntityName
		data[i] = opts.BarData{Value: round1(r.WinProbability)}
	}
	bar.SetXAxis(labels).
		AddSeries("Win probability", data).
		SetSeriesOptions(charts.WithLabelOpts(opts.Label{Show: opts.Bool(true), Position: "top"}))

	if err := bar.Render(w); err != nil {
		return fmt.Errorf("render probability chart: %w", err)
	}
	return nil
}

// RenderRating writes a line chart of the rolling and cumulative rating.
func RenderRating(w io.Writer, points []analysis.RatingPoint, cfg Config) error {
	line := charts.NewLine()
	line.SetGlobalOptions(append(cfg.globals(),
		charts.WithLegendOpts(opts.Legend{Show: opts.Bool(true)}),
	)...)

	labels := make([]string, len(points))
	rolling := make([]opts.LineData, len(points))
	cumulative := make([]opts.LineData, len(points))
	for i, p := range points {
		labels[i] = p.Date.Format("2006-01-02")
		rolling[i] = opts.LineData{Value: round2(p.Rolling)}
		cumulative[i] = opts.LineData{Value: round2(p.Cumulative)}
	}
	line.SetXAxis(labels).
		AddSeries("Rolling merit", rolling).
		AddSeries("Cumulative rating", cumulative).
		SetSeriesOptions(
			charts.WithLineChartOpts(opts.LineChart{Smooth: opts.Bool(true)}),
			charts.WithLabelOpts(opts.Label{Show: opts.Bool(false)}),
		)

	if err := line.Render(w); err != nil {
		return fmt.Errorf("render rating chart: %w", err)
	}
	return nil
}

var weekdays = []string{"Monday", "Tuesday", "Wednesday", "Thursday", "Friday", "Saturday", "Sunday"}

// RenderHeatmap writes a weekday by hour heat map of win rate.
func RenderHeatmap(w io.Writer, cells []analysis.HeatCell, cfg Config) error {
	hours, hourIdx := heatHours(cells)
	dayIdx := make(map[string]int, len(weekdays))
	for i, d := range weekdays {
		dayIdx[d] = i
	}

	data := make([]opts.HeatMapData, 0, len(cells))
	for _, c := range cells {
		data = append(data, opts.HeatMapData{
			Name:  fmt.Sprintf("%s %s: %d matches", c.Weekday, hourLabel(c.Hour), c.Matches),
			Value: [3]interface{}{hourIdx[c.Hour], dayIdx[c.Weekday], round1(c.WinRate)},
		})
	}

	hm := charts.NewHeatMap()
	hm.SetGlobalOptions(append(cfg.globals(),
		charts.WithXAxisOpts(opts.XAxis{Type: "category", Data: hours}),
		charts.WithYAxisOpts(opts.YAxis{Type: "category", Data: weekdays}),
		charts.WithVisualMapOpts(opts.VisualMap{
			Calculable: opts.Bool(true),
			Min:        0,
			Max:        100,
			InRange:    &opts.VisualMapInRange{Color: []string{"#EE6666", "#FAC858", "#91CC75"}},
		}),
	)...)
	hm.AddSeries("Win rate", data)

	if err := hm.Render(w); err != nil {
		return fmt.Errorf("render heatmap: %w", err)
	}
	return nil
}

// RenderCorrelation writes the Pearson matrix as a heat map. Undefined
// cells are left blank.
func RenderCorrelation(w io.Writer, m analysis.CorrelationMatrix, cfg Config) error {
	data := make([]opts.HeatMapData, 0, len(m.Columns)*len(m.Columns))
	for i, row := range m.Values {
		for j, v := range row {
			var cell interface{} = "-"
			if v != nil {
				cell = round2(*v)
			}
			data = append(data, opts.HeatMapData{
				Name:  m.Columns[i] + " / " + m.Columns[j],
				Value: [3]interface{}{j, i, cell},
			})
		}
	}

	hm := charts.NewHeatMap()
	hm.SetGlobalOptions(append(cfg.globals(),
		charts.WithXAxisOpts(opts.XAxis{Type: "category", Data: m.Columns}),
		charts.WithYAxisOpts(opts.YAxis{Type: "category", Data: m.Columns}),
		charts.WithVisualMapOpts(opts.VisualMap{
			Calculable: opts.Bool(true),
			Min:        -1,
			Max:        1,
			InRange:    &opts.VisualMapInRange{Color: []string{"#5470C6", "#FFFFFF", "#EE6666"}},
		}),
	)...)
	hm.AddSeries("Correlation", data, charts.WithLabelOpts(opts.Label{Show: opts.Bool(true)}))

	if err := hm.Render(w); err != nil {
		return fmt.Errorf("render correlation chart: %w", err)
	}
	return nil
}

// RenderSpread writes a box plot per result with whiskers at min and max.
func RenderSpread(w io.Writer, name string, rows []analysis.Spread, cfg Config) error {
	labels := make([]string, len(rows))
	data := make([]opts.BoxPlotData, len(rows))
	for i, r := range rows {
		labels[i] = string(r.Result)
		data[i] = opts.BoxPlotData{
			Name:  fmt.Sprintf("%s: %d matches", r.Result, r.Count),
			Value: []float64{round2(r.Min), round2(r.Q1), round2(r.Median), round2(r.Q3), round2(r.Max)},
		}
	}

	box := charts.NewBoxPlot()
	box.SetGlobalOptions(cfg.globals()...)
	box.SetXAxis(labels).AddSeries(name, data)

	if err := box.Render(w); err != nil {
		return fmt.Errorf("render %s box plot: %w", name, err)
	}
	return nil
}

// RenderGameDiff writes the game difference histogram stacked by result.
func RenderGameDiff(w io.Writer, bins []analysis.GameDiffBin, cfg Config) error {
	bar := charts.NewBar()
	bar.SetGlobalOptions(append(cfg.globals(),
		charts.WithLegendOpts(opts.Legend{Show: opts.Bool(true)}),
	)...)

	labels := make([]string, len(bins))
	wins := make([]opts.BarData, len(bins))
	losses := make([]opts.BarData, len(bins))
	none := make([]opts.BarData, len(bins))
	for i, b := range bins {
		labels[i] = fmt.Sprintf("%+.0f", b.Low)
		wins[i] = opts.BarData{Value: b.Wins}
		losses[i] = opts.BarData{Value: b.Losses}
		none[i] = opts.BarData{Value: b.NoResults}
	}
	bar.SetXAxis(labels).
		AddSeries("W", wins).
		AddSeries("L", losses).
		AddSeries("N", none).
		SetSeriesOptions(charts.WithBarChartOpts(opts.BarChart{Stack: "result"}))

	if err := bar.Render(w); err != nil {
		return fmt.Errorf("render game difference chart: %w", err)
	}
	return nil
}

// heatHours returns the hour axis labels in ascending order with the
// unspecified hour last, and each hour's axis index.
func heatHours(cells []analysis.HeatCell) ([]string, map[int]int) {
	seen := map[int]bool{}
	for _, c := range cells {
		seen[c.Hour] = true
	}
	var labels []string
	idx := map[int]int{}
	for h := 0; h < 24; h++ {
		if seen[h] {
			idx[h] = len(labels)
			labels = append(labels, hourLabel(h))
		}
	}
	if seen[-1] {
		idx[-1] = len(labels)
		labels = append(labels, hourLabel(-1))
	}
	return labels, idx
}

func hourLabel(h int) string {
	if h < 0 {
		return "N/A"
	}
	return fmt.Sprintf("%02d:00", h)
}

func round1(v float64) float64 { return math.Round(v*10) / 10 }
func round2(v float64) float64 { return math.Round(v*100) / 100 }

// Render writes the chart of the given kind for a. by selects the group
// table of the probability chart.
func Render(w io.Writer, kind Kind, a *analysis.Analysis, by aggregator.GroupBy, cfg Config) error {
	switch kind {
	case KindProbability:
		return RenderProbability(w, a.Groups(by), cfg)
	case KindRating:
		return RenderRating(w, a.RollingRating, cfg)
	case KindHeatmap:
		return RenderHeatmap(w, a.Heatmap, cfg)
	case KindCorrelation:
		return RenderCorrelation(w, a.Correlations, cfg)
	case KindMerit:
		return RenderSpread(w, "Merit", a.MeritByResult, cfg)
	case KindGameDiff:
		return RenderGameDiff(w, a.GameDiffBins, cfg)
	}
	return fmt.Errorf("unknown chart %q", kind)
}

// RenderFile writes the chart to path.
func RenderFile(path string, kind Kind, a *analysis.Analysis, by aggregator.GroupBy, cfg Config) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create chart file: %w", err)
	}
	defer f.Close()
	return Render(f, kind, a, by, cfg)
}
