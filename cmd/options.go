package cmd

import (
	"os"

	"github.com/spf13/cobra"

	"github.com/pable/go-padel-metrics/internal/filter"
	"github.com/pable/go-padel-metrics/internal/report"
)

var optionsCmd = &cobra.Command{
	Use:   "options",
	Short: "List the values each filter key accepts",
	Long:  "Print the distinct years, months, weekdays, locations, teammates, opponents and results of the loaded feed, for use with --filter.",
	Args:  cobra.NoArgs,
	RunE:  runOptions,
}

func runOptions(cmd *cobra.Command, _ []string) error {
	snap, err := loadSnapshot(cmd.Context())
	if err != nil {
		return err
	}
	report.PrintOptions(os.Stdout, filter.Options(snap.Records))
	return nil
}
