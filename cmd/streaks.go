package cmd

import (
	"os"

	"github.com/spf13/cobra"

	"github.com/pable/go-padel-metrics/internal/report"
)

var streaksCmd = &cobra.Command{
	Use:   "streaks",
	Short: "Show win and loss streaks",
	Long:  "List every win run and loss run of the filtered cohort in date order, with the longest, mean and current streak.",
	Args:  cobra.NoArgs,
	RunE:  runStreaks,
}

func runStreaks(cmd *cobra.Command, _ []string) error {
	a, err := runPipeline(cmd.Context())
	if err != nil {
		return err
	}
	report.PrintHeader(os.Stdout, a)
	report.PrintStreaks(os.Stdout, a.Streaks)
	return nil
}
