package cmd

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/pable/go-padel-metrics/internal/export"
)

var (
	exportFormat    string
	exportTable     string
	exportOut       string
	exportPretty    bool
	exportOverwrite bool
)

var exportCmd = &cobra.Command{
	Use:   "export",
	Short: "Export cohort tables as CSV or JSON",
	Long: `Write one table of the filtered cohort as CSV or JSON.

Tables: ` + tableNames() + `
The analysis table holds the whole run and is JSON only.

Example:
  padelmetrics export --table teammates --format csv --out teammates.csv
  padelmetrics export --table analysis --format json --pretty`,
	Args: cobra.NoArgs,
	RunE: runExport,
}

func init() {
	exportCmd.Flags().StringVar(&exportFormat, "format", "csv", "output format: csv or json")
	exportCmd.Flags().StringVar(&exportTable, "table", "records", "table to export")
	exportCmd.Flags().StringVarP(&exportOut, "out", "o", "", "output file path (default: stdout)")
	exportCmd.Flags().BoolVar(&exportPretty, "pretty", false, "indent JSON output")
	exportCmd.Flags().BoolVar(&exportOverwrite, "overwrite", false, "replace an existing output file")
}

func tableNames() string {
	names := make([]string, 0, len(export.Tables()))
	for _, t := range export.Tables() {
		names = append(names, string(t))
	}
	return strings.Join(names, ", ")
}

func runExport(cmd *cobra.Command, _ []string) error {
	format, err := export.ParseFormat(exportFormat)
	if err != nil {
		return err
	}
	table, err := export.ParseTable(exportTable)
	if err != nil {
		return err
	}
	a, err := runPipeline(cmd.Context())
	if err != nil {
		return err
	}
	opts := export.Options{
		Format:     format,
		FilePath:   exportOut,
		PrettyJSON: exportPretty,
		Overwrite:  exportOverwrite,
	}
	if err := export.Write(os.Stdout, a, table, opts); err != nil {
		return fmt.Errorf("export %s: %w", table, err)
	}
	if exportOut != "" && exportOut != "-" {
		fmt.Fprintf(os.Stderr, "Exported %s (%d matches) to %s\n", table, a.Summary.TotalMatches, exportOut)
	}
	return nil
}
