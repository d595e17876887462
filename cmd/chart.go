package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/pable/go-padel-metrics/internal/aggregator"
	"github.com/pable/go-padel-metrics/internal/charts"
)

var (
	chartOut   string
	chartGroup string
	chartTheme string
)

var chartCmd = &cobra.Command{
	Use:   "chart <probability|rating|heatmap|correlation|merit|gamediff>",
	Short: "Render an HTML chart of the cohort",
	Long: `Render a standalone HTML chart:
  probability  bar chart of win probability per entity (see --group)
  rating       per-match merit with its rolling mean and cumulative rating
  heatmap      win rate per weekday and hour of day
  correlation  Pearson matrix of merit, chemistry, performance and game difference
  merit        merit box plot per result
  gamediff     game difference histogram stacked by result

Example:
  padelmetrics chart probability --group location --out locations.html`,
	Args: cobra.ExactArgs(1),
	RunE: runChart,
}

func init() {
	chartCmd.Flags().StringVarP(&chartOut, "out", "o", "chart.html", "output HTML file")
	chartCmd.Flags().StringVar(&chartGroup, "group", "teammate", "grouping of the probability chart")
	chartCmd.Flags().StringVar(&chartTheme, "theme", "light", "echarts theme")
}

func runChart(cmd *cobra.Command, args []string) error {
	kind, err := charts.ParseKind(args[0])
	if err != nil {
		return err
	}
	by, err := aggregator.ParseGroupBy(chartGroup)
	if err != nil {
		return err
	}
	a, err := runPipeline(cmd.Context())
	if err != nil {
		return err
	}

	cc := charts.DefaultConfig()
	cc.Theme = chartTheme
	cc.Subtitle = fmt.Sprintf("%d matches, policy %s, filter %s", a.Summary.TotalMatches, a.Policy, a.Filter.String())
	switch kind {
	case charts.KindProbability:
		cc.Title = fmt.Sprintf("Win probability by %s", by)
	case charts.KindRating:
		cc.Title = "Rating over time"
	case charts.KindHeatmap:
		cc.Title = "Win rate by weekday and hour"
	case charts.KindCorrelation:
		cc.Title = "Score correlations"
	case charts.KindMerit:
		cc.Title = "Merit by result"
	case charts.KindGameDiff:
		cc.Title = "Game difference by result"
	}

	if err := charts.RenderFile(chartOut, kind, a, by, cc); err != nil {
		return fmt.Errorf("render chart: %w", err)
	}
	fmt.Fprintf(os.Stdout, "Wrote %s\n", chartOut)
	return nil
}
