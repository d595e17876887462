package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var (
	dropForce bool
	dropDB    string
)

// dropCmd deletes an imported SQLite database file.
var dropCmd = &cobra.Command{
	Use:   "drop",
	Short: "Delete the imported match database",
	Long:  "Permanently delete the SQLite database written by 'padelmetrics import'. Run import again to rebuild it.",
	Args:  cobra.NoArgs,
	RunE:  runDrop,
}

func init() {
	dropCmd.Flags().BoolVarP(&dropForce, "force", "F", false, "skip confirmation prompt")
	dropCmd.Flags().StringVar(&dropDB, "db", defaultDBPath(), "path to SQLite database")
}

func runDrop(_ *cobra.Command, _ []string) error {
	if !dropForce {
		fmt.Fprintf(os.Stderr, "This will permanently delete: %s\n", dropDB)
		fmt.Fprintf(os.Stderr, "Re-run with --force to confirm.\n")
		return nil
	}
	if err := os.Remove(dropDB); err != nil {
		if os.IsNotExist(err) {
			fmt.Fprintln(os.Stdout, "Database does not exist, nothing to drop.")
			return nil
		}
		return fmt.Errorf("remove database: %w", err)
	}
	fmt.Fprintf(os.Stdout, "Deleted: %s\n", dropDB)
	return nil
}
