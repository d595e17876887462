package cmd

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/pable/go-padel-metrics/internal/storage"
)

var importDB string

// importCmd snapshots the configured source into a local SQLite database.
var importCmd = &cobra.Command{
	Use:   "import",
	Short: "Copy the normalized match log into a SQLite database",
	Long: `Load and normalize the configured source and store its records in the
matches table of a SQLite database, replacing any previous contents. The
database can then be used as a source:

  padelmetrics import --source https://example.com/log.csv --db padel.db
  padelmetrics summary --source padel.db`,
	Args: cobra.NoArgs,
	RunE: runImport,
}

func init() {
	importCmd.Flags().StringVar(&importDB, "db", defaultDBPath(), "path to SQLite database")
}

func runImport(cmd *cobra.Command, _ []string) error {
	snap, err := loadSnapshot(cmd.Context())
	if err != nil {
		return err
	}

	if err := os.MkdirAll(filepath.Dir(importDB), 0o755); err != nil {
		return fmt.Errorf("create db dir: %w", err)
	}
	db, err := storage.Open(importDB)
	if err != nil {
		return fmt.Errorf("open storage: %w", err)
	}
	defer db.Close()

	if err := db.ReplaceMatches(snap.Records); err != nil {
		return fmt.Errorf("store matches: %w", err)
	}
	n, err := db.CountMatches()
	if err != nil {
		return fmt.Errorf("count matches: %w", err)
	}
	log.WithField("db", importDB).WithField("matches", n).Info("import complete")
	fmt.Fprintf(os.Stdout, "Imported %d matches from %s into %s\n", n, snap.SourceID, importDB)
	return nil
}
