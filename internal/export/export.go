// Package export writes analysis tables and the filtered match log as CSV
// or JSON.
package export

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"reflect"
	"strconv"
	"strings"
	"time"

	"github.com/pable/go-padel-metrics/internal/aggregator"
	"github.com/pable/go-padel-metrics/internal/analysis"
	"github.com/pable/go-padel-metrics/internal/model"
)

// Format represents the export format.
type Format string

const (
	FormatCSV  Format = "csv"
	FormatJSON Format = "json"
)

// ParseFormat validates a format name.
func ParseFormat(s string) (Format, error) {
	switch Format(strings.ToLower(s)) {
	case FormatCSV:
		return FormatCSV, nil
	case FormatJSON:
		return FormatJSON, nil
	}
	return "", fmt.Errorf("unsupported export format: %s", s)
}

// Table names an exportable table.
type Table string

const (
	TableRecords      Table = "records"
	TableTimeOfDay    Table = "timeofday"
	TableHeatmap      Table = "heatmap"
	TableCorrelations Table = "correlations"
	TableRankings     Table = "rankings"
	TableAnalysis     Table = "analysis" // JSON only
)

// Tables lists the exportable tables, group tables included.
func Tables() []Table {
	out := []Table{TableRecords}
	for _, g := range aggregator.AllGroupings {
		out = append(out, Table(g))
	}
	return append(out, TableTimeOfDay, TableHeatmap, TableCorrelations, TableRankings, TableAnalysis)
}

// ParseTable accepts a table name or a grouping name in plural.
func ParseTable(s string) (Table, error) {
	s = strings.ToLower(strings.TrimSpace(s))
	if g, err := aggregator.ParseGroupBy(s); err == nil {
		return Table(g), nil
	}
	for _, t := range Tables() {
		if string(t) == s {
			return t, nil
		}
	}
	return "", fmt.Errorf("unknown table %q", s)
}

// Options holds configuration for export operations.
type Options struct {
	Format     Format
	FilePath   string // "" or "-" writes to the provided writer
	PrettyJSON bool
	Overwrite  bool
}

// RecordRow is the export shape of one match.
type RecordRow struct {
	Seq              int     `csv:"seq" json:"seq"`
	Date             string  `csv:"date" json:"date"`
	Hour             string  `csv:"hour" json:"hour"`
	Location         string  `csv:"location" json:"location"`
	Teammate         string  `csv:"teammate" json:"teammate"`
	Opponent         string  `csv:"opponent" json:"opponent,omitempty"`
	Result           string  `csv:"result" json:"result"`
	Merit            float64 `csv:"merit" json:"merit"`
	Chemistry        float64 `csv:"chemistry" json:"chemistry"`
	Performance      float64 `csv:"performance_score" json:"performance_score"`
	GameDiff         float64 `csv:"game_diff" json:"game_diff"`
	CumulativeRating float64 `csv:"cumulative_rating" json:"cumulative_rating"`
}

// GroupRow is the export shape of one grouped performance row.
type GroupRow struct {
	Entity          string  `csv:"entity" json:"entity"`
	TotalMatches    int     `csv:"total_matches" json:"total_matches"`
	Wins            int     `csv:"wins" json:"wins"`
	Losses          int     `csv:"losses" json:"losses"`
	Draws           int     `csv:"draws" json:"draws"`
	WinRateTotal    float64 `csv:"win_rate_total" json:"win_rate_total"`
	WinRateDecisive float64 `csv:"win_rate_decisive" json:"win_rate_decisive"`
	AvgMerit        float64 `csv:"avg_merit" json:"avg_merit"`
	AvgChemistry    float64 `csv:"avg_chemistry" json:"avg_chemistry"`
	AvgPerformance  float64 `csv:"avg_performance" json:"avg_performance"`
	AvgGameDiff     float64 `csv:"avg_game_diff" json:"avg_game_diff"`
	WinProbability  float64 `csv:"win_probability" json:"win_probability"`
}

// CorrelationRow is one row of the correlation matrix. Undefined
// coefficients are empty in CSV and null in JSON.
type CorrelationRow struct {
	Column      string   `csv:"column" json:"column"`
	Merit       *float64 `csv:"merit" json:"merit"`
	Chemistry   *float64 `csv:"chemistry" json:"chemistry"`
	Performance *float64 `csv:"performance_score" json:"performance_score"`
	GameDiff    *float64 `csv:"game_diff" json:"game_diff"`
}

// RankingRow is one place on a teammate leaderboard.
type RankingRow struct {
	Board          string  `csv:"board" json:"board"`
	Rank           int     `csv:"rank" json:"rank"`
	Entity         string  `csv:"entity" json:"entity"`
	TotalMatches   int     `csv:"total_matches" json:"total_matches"`
	Wins           int     `csv:"wins" json:"wins"`
	WinProbability float64 `csv:"win_probability" json:"win_probability"`
}

// Records converts match records to export rows.
func Records(records []model.MatchRecord) []RecordRow {
	out := make([]RecordRow, len(records))
	for i, r := range records {
		raw := r.Row()
		out[i] = RecordRow{
			Seq:              r.Seq,
			Date:             raw.Values[model.ColDate],
			Hour:             raw.Values[model.ColHour],
			Location:         r.Location,
			Teammate:         r.Teammate,
			Opponent:         r.Opponent,
			Result:           string(r.Result),
			Merit:            r.Merit,
			Chemistry:        r.Chemistry,
			Performance:      r.Performance,
			GameDiff:         r.GameDiff,
			CumulativeRating: r.CumulativeRating,
		}
	}
	return out
}

// Groups converts a group table to export rows.
func Groups(rows []model.GroupPerformance) []GroupRow {
	out := make([]GroupRow, len(rows))
	for i, g := range rows {
		out[i] = GroupRow{
			Entity:          g.EntityName,
			TotalMatches:    g.TotalMatches,
			Wins:            g.Wins,
			Losses:          g.Losses,
			Draws:           g.Draws,
			WinRateTotal:    g.WinRateTotal,
			WinRateDecisive: g.WinRateDecisive,
			AvgMerit:        g.AvgMerit,
			AvgChemistry:    g.AvgChemistry,
			AvgPerformance:  g.AvgPerformance,
			AvgGameDiff:     g.AvgGameDiff,
			WinProbability:  g.WinProbability,
		}
	}
	return out
}

// Correlations flattens a correlation matrix into rows.
func Correlations(m analysis.CorrelationMatrix) []CorrelationRow {
	out := make([]CorrelationRow, len(m.Columns))
	for i, c := range m.Columns {
		out[i] = CorrelationRow{
			Column:      c,
			Merit:       m.At(c, model.ColMerit),
			Chemistry:   m.At(c, model.ColChemistry),
			Performance: m.At(c, model.ColPerformance),
			GameDiff:    m.At(c, model.ColGameDiff),
		}
	}
	return out
}

// Rankings flattens the teammate leaderboards, one board after the other.
func Rankings(rk analysis.Rankings) []RankingRow {
	var out []RankingRow
	add := func(board string, rows []model.GroupPerformance) {
		for i, g := range rows {
			out = append(out, RankingRow{
				Board:          board,
				Rank:           i + 1,
				Entity:         g.EntityName,
				TotalMatches:   g.TotalMatches,
				Wins:           g.Wins,
				WinProbability: g.WinProbability,
			})
		}
	}
	add("most_matches", rk.MostMatches)
	add("most_wins", rk.MostWins)
	add("best_probability", rk.BestProbability)
	return out
}

// Select returns the export data of one table of a.
func Select(a *analysis.Analysis, t Table) (interface{}, error) {
	switch t {
	case TableRecords:
		return Records(a.Records), nil
	case TableTimeOfDay:
		return a.TimeOfDay, nil
	case TableHeatmap:
		return a.Heatmap, nil
	case TableCorrelations:
		return Correlations(a.Correlations), nil
	case TableRankings:
		return Rankings(a.Rankings), nil
	case TableAnalysis:
		return a, nil
	}
	if g, err := aggregator.ParseGroupBy(string(t)); err == nil {
		return Groups(a.Groups(g)), nil
	}
	return nil, fmt.Errorf("unknown table %q", t)
}

// Write exports one table of a to opts.FilePath, or to w when no path is
// set.
func Write(w io.Writer, a *analysis.Analysis, t Table, opts Options) (err error) {
	if t == TableAnalysis && opts.Format == FormatCSV {
		return fmt.Errorf("table %s is only available as json", t)
	}
	data, err := Select(a, t)
	if err != nil {
		return err
	}
	if opts.FilePath != "" && opts.FilePath != "-" {
		f, ferr := createFile(opts.FilePath, opts.Overwrite)
		if ferr != nil {
			return ferr
		}
		defer func() {
			if cerr := f.Close(); cerr != nil && err == nil {
				err = cerr
			}
		}()
		w = f
	}
	return ExportToWriter(w, opts.Format, data, opts.PrettyJSON)
}

// ExportToWriter writes data in the given format. CSV requires a slice of
// structs; each exported field becomes a column named by its csv tag.
func ExportToWriter(w io.Writer, format Format, data interface{}, prettyJSON bool) error {
	switch format {
	case FormatJSON:
		encoder := json.NewEncoder(w)
		if prettyJSON {
			encoder.SetIndent("", "  ")
		}
		return encoder.Encode(data)
	case FormatCSV:
		return writeCSV(w, data)
	default:
		return fmt.Errorf("unsupported export format: %s", format)
	}
}

func writeCSV(w io.Writer, data interface{}) error {
	v := reflect.ValueOf(data)
	if v.Kind() != reflect.Slice {
		return fmt.Errorf("CSV export requires a slice, got %s", v.Kind())
	}
	elemType := v.Type().Elem()
	if elemType.Kind() == reflect.Ptr {
		elemType = elemType.Elem()
	}
	if elemType.Kind() != reflect.Struct {
		return fmt.Errorf("CSV export requires a slice of structs")
	}

	writer := csv.NewWriter(w)
	if err := writer.Write(csvHeaders(elemType)); err != nil {
		return fmt.Errorf("failed to write CSV header: %w", err)
	}
	for i := 0; i < v.Len(); i++ {
		elem := v.Index(i)
		if elem.Kind() == reflect.Ptr {
			elem = elem.Elem()
		}
		if err := writer.Write(csvRow(elem)); err != nil {
			return fmt.Errorf("failed to write CSV row %d: %w", i, err)
		}
	}
	writer.Flush()
	return writer.Error()
}

func csvHeaders(t reflect.Type) []string {
	var headers []string
	for i := 0; i < t.NumField(); i++ {
		field := t.Field(i)
		if !field.IsExported() || field.Tag.Get("csv") == "-" {
			continue
		}
		if tag := field.Tag.Get("csv"); tag != "" {
			headers = append(headers, tag)
		} else {
			headers = append(headers, field.Name)
		}
	}
	return headers
}

func csvRow(v reflect.Value) []string {
	var row []string
	t := v.Type()
	for i := 0; i < v.NumField(); i++ {
		field := t.Field(i)
		if !field.IsExported() || field.Tag.Get("csv") == "-" {
			continue
		}
		row = append(row, valueToString(v.Field(i)))
	}
	return row
}

// valueToString keeps full float precision so exports round-trip through
// the normalizer.
func valueToString(v reflect.Value) string {
	if v.Kind() == reflect.Ptr {
		if v.IsNil() {
			return ""
		}
		v = v.Elem()
	}
	switch v.Kind() {
	case reflect.String:
		return v.String()
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return strconv.FormatInt(v.Int(), 10)
	case reflect.Float32, reflect.Float64:
		return strconv.FormatFloat(v.Float(), 'g', -1, 64)
	case reflect.Bool:
		return strconv.FormatBool(v.Bool())
	case reflect.Struct:
		if tm, ok := v.Interface().(time.Time); ok {
			return tm.Format("2006-01-02")
		}
	}
	return fmt.Sprintf("%v", v.Interface())
}

// createFile creates the output file, handling overwrite settings.
func createFile(path string, overwrite bool) (*os.File, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("failed to create directory: %w", err)
	}
	if _, err := os.Stat(path); err == nil && !overwrite {
		return nil, fmt.Errorf("file already exists: %s (use --overwrite to replace)", path)
	}
	f, err := os.Create(path)
	if err != nil {
		return nil, fmt.Errorf("failed to create file: %w", err)
	}
	return f, nil
}
