package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/pable/go-padel-metrics/internal/aggregator"
	"github.com/pable/go-padel-metrics/internal/report"
)

var groupsAll bool

// groupsCmd prints grouped performance tables.
var groupsCmd = &cobra.Command{
	Use:   "groups [teammate|location|hour|opponent]",
	Short: "Show per-entity performance with win probability",
	Long: `Group the filtered cohort by teammate, location, hour of day or opponent
and print counts, win rates, averages and the win probability of each group,
highest probability first. With --all every grouping is printed.`,
	Args: cobra.MaximumNArgs(1),
	RunE: runGroups,
}

func init() {
	groupsCmd.Flags().BoolVar(&groupsAll, "all", false, "print every grouping")
}

func runGroups(cmd *cobra.Command, args []string) error {
	kinds := []aggregator.GroupBy{aggregator.ByTeammate}
	switch {
	case groupsAll:
		kinds = aggregator.AllGroupings
	case len(args) == 1:
		by, err := aggregator.ParseGroupBy(args[0])
		if err != nil {
			return err
		}
		kinds = []aggregator.GroupBy{by}
	}

	a, err := runPipeline(cmd.Context())
	if err != nil {
		return err
	}
	report.PrintHeader(os.Stdout, a)
	for i, by := range kinds {
		if i > 0 {
			fmt.Fprintln(os.Stdout)
		}
		fmt.Fprintf(os.Stdout, "--- %s ---\n\n", by)
		report.PrintGroupTable(os.Stdout, by, a.Groups(by))
	}
	return nil
}
