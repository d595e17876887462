package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/pable/go-padel-metrics/internal/report"
)

// summaryCmd prints the cohort totals, insights and data quality report.
var summaryCmd = &cobra.Command{
	Use:   "summary",
	Short: "Show totals and insights for the cohort",
	Long: `Display the global summary of the filtered cohort: match count, wins,
losses, no-results, win rates and averages, followed by the best teammate,
location and hour. Data quality issues found while loading are listed last.`,
	Args: cobra.NoArgs,
	RunE: runSummary,
}

func runSummary(cmd *cobra.Command, _ []string) error {
	a, err := runPipeline(cmd.Context())
	if err != nil {
		return err
	}
	if a.Summary.TotalMatches == 0 {
		fmt.Fprintln(os.Stdout, "No matches in this cohort.")
		return nil
	}
	report.PrintAnalysis(os.Stdout, a)

	snap, err := loadSnapshot(cmd.Context())
	if err != nil {
		return err
	}
	if len(snap.Quality) > 0 {
		fmt.Fprintf(os.Stdout, "\n--- Data quality ---\n\n")
		report.PrintQuality(os.Stdout, snap.Quality)
	}
	return nil
}
