package cmd

import (
	"os"

	"github.com/spf13/cobra"

	"github.com/pable/go-padel-metrics/internal/report"
)

var statsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Show time of day, consistency, distributions and teammate rankings",
	Long: `Print the time-of-day breakdown, the standard deviation of each score,
the average difference between wins and losses and the best and worst games
of the filtered cohort. Then the correlation matrix of the scores, the merit
and game difference spread per result, the game difference histogram and the
teammate leaderboards.

Use --filter search=<text> to keep matches where any column contains text.`,
	Args: cobra.NoArgs,
	RunE: runStats,
}

func runStats(cmd *cobra.Command, _ []string) error {
	a, err := runPipeline(cmd.Context())
	if err != nil {
		return err
	}
	report.PrintStats(os.Stdout, a)
	return nil
}
