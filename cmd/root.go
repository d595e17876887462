package cmd

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/pable/go-padel-metrics/internal/analysis"
	"github.com/pable/go-padel-metrics/internal/config"
	"github.com/pable/go-padel-metrics/internal/filter"
	"github.com/pable/go-padel-metrics/internal/logger"
	"github.com/pable/go-padel-metrics/internal/model"
	"github.com/pable/go-padel-metrics/internal/scoring"
	"github.com/pable/go-padel-metrics/internal/source"
)

var (
	configPath  string
	sourceURI   string
	policyFlag  string
	logLevel    string
	filterExprs []string

	cfg *config.Config
	log *logrus.Logger
	// snapshots is shared by every pipeline run of the process.
	snapshots *source.Cached
)

var rootCmd = &cobra.Command{
	Use:   "padelmetrics",
	Short: "Padel match analytics",
	Long: `Load a padel match log (CSV file, published CSV URL or SQLite table) and
report per-teammate, per-location, per-hour and per-opponent performance
with a win probability score.`,
	SilenceUsage:      true,
	PersistentPreRunE: setup,
}

// Execute runs the root command.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	pf := rootCmd.PersistentFlags()
	pf.StringVar(&configPath, "config", "", "config file (default ~/.padelmetrics/config.yaml)")
	pf.StringVarP(&sourceURI, "source", "s", "", "match log: CSV path, http(s) URL, sqlite://file.db?table=name")
	pf.StringVar(&policyFlag, "policy", "", "win probability policy: A (confidence) or B (weighted)")
	pf.StringVar(&logLevel, "log-level", "", "log level: trace, debug, info, warn, error")
	pf.StringArrayVarP(&filterExprs, "filter", "f", nil, "cohort filter key=v1,v2 (repeatable)")

	rootCmd.AddCommand(summaryCmd)
	rootCmd.AddCommand(groupsCmd)
	rootCmd.AddCommand(streaksCmd)
	rootCmd.AddCommand(statsCmd)
	rootCmd.AddCommand(chartCmd)
	rootCmd.AddCommand(exportCmd)
	rootCmd.AddCommand(optionsCmd)
	rootCmd.AddCommand(importCmd)
	rootCmd.AddCommand(dropCmd)
	rootCmd.AddCommand(shellCmd)
}

// setup loads the config, applies flag overrides and builds the logger.
func setup(cmd *cobra.Command, _ []string) error {
	c, err := config.Load(configPath)
	if err != nil {
		return err
	}
	if cmd.Flags().Changed("source") {
		c.Source = sourceURI
	}
	if cmd.Flags().Changed("policy") {
		c.Policy = policyFlag
	}
	if cmd.Flags().Changed("log-level") {
		c.Log.Level = logLevel
	}
	if err := config.Validate(c); err != nil {
		return err
	}
	cfg = c
	log = logger.New(cfg.Log.Level, cfg.Log.Format, os.Stderr)
	snapshots = source.NewCached(cfg.Cache.TTL, log)
	return nil
}

func openSource() (source.Source, error) {
	return source.Open(cfg.Source, source.Options{
		HTTP: source.HTTPOptions{
			Timeout:      cfg.HTTP.Timeout,
			Retries:      cfg.HTTP.Retries,
			RetryWaitMin: cfg.HTTP.RetryWaitMin,
			RetryWaitMax: cfg.HTTP.RetryWaitMax,
		},
		SQLiteTable: cfg.SQLite.Table,
		Logger:      log,
	})
}

// loadSnapshot opens the configured source and returns its cached snapshot.
func loadSnapshot(ctx context.Context) (*model.Snapshot, error) {
	src, err := openSource()
	if err != nil {
		return nil, err
	}
	return snapshots.Load(ctx, src)
}

func newScorer(policy string) (scoring.Scorer, error) {
	p, err := scoring.ParsePolicy(policy)
	if err != nil {
		return nil, err
	}
	return scoring.New(p)
}

func analysisOptions() analysis.Options {
	opts := analysis.DefaultOptions
	opts.InsightMinMatches = cfg.Insights.MinMatches
	opts.Top = cfg.Report.Top
	opts.RankingLimit = cfg.Report.RankLimit
	opts.RankingMinMatches = cfg.Report.RankMinMatches
	return opts
}

// runPipeline loads the snapshot and analyses the cohort selected by the
// --filter flags.
func runPipeline(ctx context.Context) (*analysis.Analysis, error) {
	snap, err := loadSnapshot(ctx)
	if err != nil {
		return nil, err
	}
	f, err := filter.Parse(filterExprs)
	if err != nil {
		return nil, err
	}
	scorer, err := newScorer(cfg.Policy)
	if err != nil {
		return nil, err
	}
	a := analysis.RunWithOptions(snap, f, scorer, analysisOptions())
	fields := logrus.Fields{
		"run":     a.RunID,
		"matches": a.Summary.TotalMatches,
		"policy":  a.Policy,
	}
	if w, ok := scorer.(*scoring.Weighted); ok {
		fields["weights"] = w.Weights()
	}
	log.WithFields(fields).Debug("analysis complete")
	return a, nil
}

func mustUserHome() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return "."
	}
	return home
}

func defaultDBPath() string {
	return filepath.Join(mustUserHome(), ".padelmetrics", "matches.db")
}
