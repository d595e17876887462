package cmd

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/pable/go-padel-metrics/internal/aggregator"
	"github.com/pable/go-padel-metrics/internal/analysis"
	"github.com/pable/go-padel-metrics/internal/charts"
	"github.com/pable/go-padel-metrics/internal/filter"
	"github.com/pable/go-padel-metrics/internal/report"
	"github.com/pable/go-padel-metrics/internal/scoring"
	"github.com/pable/go-padel-metrics/internal/source"
)

var (
	cPrompt   = color.New(color.FgCyan, color.Bold)
	cMuted    = color.New(color.Faint)
	cError    = color.New(color.FgRed, color.Bold)
	cWarn     = color.New(color.FgYellow)
	cHeader   = color.New(color.FgCyan, color.Bold)
	cCmd      = color.New(color.FgYellow, color.Bold)
	cGreeting = color.New(color.Bold)
)

var shellCmd = &cobra.Command{
	Use:   "shell",
	Short: "Start an interactive REPL session",
	Long: `Open a persistent session against the configured source. Filters and the
scoring policy can be changed between commands; every change re-runs the
analysis on the cached snapshot. Type 'help' for available commands.`,
	Args: cobra.NoArgs,
	RunE: runShell,
}

// shellSession is the mutable state of one REPL.
type shellSession struct {
	ctx    context.Context
	src    source.Source
	filter filter.Filter
	policy string
	scorer scoring.Scorer
	last   *analysis.Analysis
}

func runShell(cmd *cobra.Command, _ []string) error {
	src, err := openSource()
	if err != nil {
		return err
	}
	f, err := filter.Parse(filterExprs)
	if err != nil {
		return err
	}
	s := &shellSession{ctx: cmd.Context(), src: src, filter: f}
	if err := s.setPolicy(cfg.Policy); err != nil {
		return err
	}
	if err := s.rerun(); err != nil {
		return err
	}

	cGreeting.Println("padelmetrics shell")
	cMuted.Printf("%s: %d matches loaded\n", s.last.SourceID, len(s.last.Records))
	cMuted.Println("type 'help' or 'exit'")
	fmt.Println()

	scanner := bufio.NewScanner(os.Stdin)
	for {
		cPrompt.Print("padel")
		cMuted.Printf("[%s]> ", s.policy)
		if !scanner.Scan() {
			fmt.Println()
			break
		}
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}

		tokens := strings.Fields(line)
		name, args := tokens[0], tokens[1:]

		switch name {
		case "exit", "quit":
			return nil
		case "help":
			shellHelp()
		case "filter":
			if len(args) == 0 {
				fmt.Printf("filter: %s\n", s.filter.String())
				continue
			}
			s.addFilters(filterArgs(args))
		case "reset":
			s.filter = filter.Filter{}
			s.report(s.rerun())
		case "policy":
			if len(args) != 1 {
				cError.Fprintln(os.Stderr, "usage: policy A|B")
				continue
			}
			if err := s.setPolicy(args[0]); err != nil {
				cError.Fprintf(os.Stderr, "error: %v\n", err)
				continue
			}
			s.report(s.rerun())
		case "reload":
			snapshots.Invalidate(s.src)
			s.report(s.rerun())
		case "summary":
			report.PrintAnalysis(os.Stdout, s.last)
		case "groups":
			s.groups(args)
		case "streaks":
			report.PrintStreaks(os.Stdout, s.last.Streaks)
		case "stats":
			report.PrintStats(os.Stdout, s.last)
		case "options":
			report.PrintOptions(os.Stdout, s.options())
		case "chart":
			s.chart(args)
		default:
			cWarn.Fprintf(os.Stderr, "unknown command %q, type 'help'\n", name)
		}
	}
	return nil
}

func shellHelp() {
	fmt.Println()
	type entry struct{ cmd, desc string }
	rows := []entry{
		{"summary", "totals and insights for the cohort"},
		{"groups <teammate|location|hour|opponent>", "per-entity performance table"},
		{"streaks", "win and loss runs"},
		{"stats", "time of day, consistency, games, correlations, rankings"},
		{"options", "values each filter key accepts"},
		{"filter", "show the active filter"},
		{"filter key=v1,v2 [...]", "narrow the cohort (" + strings.Join(filter.Keys, ", ") + ")"},
		{"filter search=some text", "keep matches where any column contains the text"},
		{"reset", "clear all filters"},
		{"policy A|B", "switch the win probability policy"},
		{"chart <kind> [file.html]", "render a chart (" + strings.Join(chartKinds(), ", ") + ")"},
		{"reload", "re-read the source"},
		{"help", "show this message"},
		{"exit / quit", "close the session"},
	}
	for _, r := range rows {
		fmt.Print("  ")
		cCmd.Printf("%-42s", r.cmd)
		fmt.Println(r.desc)
	}
	fmt.Println()
}

func (s *shellSession) setPolicy(p string) error {
	scorer, err := newScorer(p)
	if err != nil {
		return err
	}
	pol, _ := scoring.ParsePolicy(p)
	s.policy, s.scorer = string(pol), scorer
	return nil
}

// rerun analyses the current cohort. The snapshot comes from the shared
// cache, so only the first run and runs after reload touch the source.
func (s *shellSession) rerun() error {
	snap, err := snapshots.Load(s.ctx, s.src)
	if err != nil {
		return err
	}
	s.last = analysis.RunWithOptions(snap, s.filter, s.scorer, analysisOptions())
	return nil
}

func (s *shellSession) report(err error) {
	if err != nil {
		cError.Fprintf(os.Stderr, "error: %v\n", err)
		return
	}
	cMuted.Printf("%d matches | filter: %s\n", s.last.Summary.TotalMatches, s.filter.String())
}

// filterArgs regroups whitespace-split words into key=value expressions.
// A word without "=" continues the previous value, so
// "teammate=Joan Pere" stays one expression. Quotes around a value are
// dropped.
func filterArgs(words []string) []string {
	var out []string
	for _, w := range words {
		if strings.Contains(w, "=") || len(out) == 0 {
			out = append(out, w)
			continue
		}
		out[len(out)-1] += " " + w
	}
	for i, e := range out {
		if key, val, ok := strings.Cut(e, "="); ok {
			out[i] = key + "=" + unquote(val)
		}
	}
	return out
}

func unquote(s string) string {
	if len(s) >= 2 && (s[0] == '"' || s[0] == '\'') && s[len(s)-1] == s[0] {
		return s[1 : len(s)-1]
	}
	return s
}

func (s *shellSession) addFilters(exprs []string) {
	next := s.filter
	for _, e := range exprs {
		if err := next.Set(e); err != nil {
			cError.Fprintf(os.Stderr, "error: %v\n", err)
			return
		}
	}
	s.filter = next
	s.report(s.rerun())
}

func (s *shellSession) groups(args []string) {
	by := aggregator.ByTeammate
	if len(args) > 0 {
		g, err := aggregator.ParseGroupBy(args[0])
		if err != nil {
			cError.Fprintf(os.Stderr, "error: %v\n", err)
			return
		}
		by = g
	}
	cHeader.Fprintf(os.Stdout, "--- %s ---\n", by)
	report.PrintGroupTable(os.Stdout, by, s.last.Groups(by))
}

// options lists the values of the whole feed, not just the cohort.
func (s *shellSession) options() filter.Values {
	snap, err := snapshots.Load(s.ctx, s.src)
	if err != nil {
		cError.Fprintf(os.Stderr, "error: %v\n", err)
		return filter.Values{}
	}
	return filter.Options(snap.Records)
}

func chartKinds() []string {
	out := make([]string, len(charts.Kinds))
	for i, k := range charts.Kinds {
		out[i] = string(k)
	}
	return out
}

func (s *shellSession) chart(args []string) {
	if len(args) == 0 {
		cError.Fprintf(os.Stderr, "usage: chart <%s> [file.html]\n", strings.Join(chartKinds(), "|"))
		return
	}
	kind, err := charts.ParseKind(args[0])
	if err != nil {
		cError.Fprintf(os.Stderr, "error: %v\n", err)
		return
	}
	out := string(kind) + ".html"
	if len(args) > 1 {
		out = args[1]
	}
	cc := charts.DefaultConfig()
	cc.Title = string(kind)
	cc.Subtitle = "filter: " + s.filter.String()
	if err := charts.RenderFile(out, kind, s.last, aggregator.ByTeammate, cc); err != nil {
		cError.Fprintf(os.Stderr, "error: %v\n", err)
		return
	}
	fmt.Printf("Wrote %s\n", out)
}
