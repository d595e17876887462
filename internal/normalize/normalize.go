// Package normalize turns untyped feed rows into MatchRecords.
//
// Dirty cells never abort a run: numerics fall back to 0, unknown result
// codes to N, bad hours to "unspecified", and each kind of problem is
// reported once per run in the quality report. The one exception is the
// match date, which every chronological computation depends on; rows whose
// date cannot be parsed fail the whole ingestion with a single
// ValidationError listing all of them.
package normalize

import (
	"fmt"
	"math"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"golang.org/x/text/unicode/norm"

	"github.com/pable/go-padel-metrics/internal/model"
)

// maxSampleLines caps the row numbers kept per quality issue.
const maxSampleLines = 5

// dateLayouts are tried in order. Day-first layouts come before ISO because
// the spreadsheet feed is day-first.
var dateLayouts = []string{
	"02/01/2006",
	"2/1/2006",
	"02-01-2006",
	"2-1-2006",
	"02.01.2006",
	"02/01/06",
	"2006-01-02",
	"2006/01/02",
	time.RFC3339,
	"2006-01-02 15:04:05",
	"2006-01-02T15:04:05",
	"02/01/2006 15:04",
	"02/01/2006 15:04:05",
}

// hourLayouts are tried before falling back to a bare hour number.
var hourLayouts = []string{"15:04", "15:04:05", "3:04PM", "3:04 PM"}

// Output is the result of normalizing one batch of rows.
type Output struct {
	Records     []model.MatchRecord
	HasOpponent bool
	Issues      []model.QualityIssue
}

// ValidationError reports every row whose date could not be parsed.
type ValidationError struct {
	Lines  []int
	Values []string
}

func (e *ValidationError) Error() string {
	if len(e.Lines) == 1 {
		return fmt.Sprintf("invalid date %q on row %d", e.Values[0], e.Lines[0])
	}
	shown := e.Lines
	if len(shown) > maxSampleLines {
		shown = shown[:maxSampleLines]
	}
	parts := make([]string, len(shown))
	for i, l := range shown {
		parts[i] = strconv.Itoa(l)
	}
	more := ""
	if len(e.Lines) > len(shown) {
		more = fmt.Sprintf(" and %d more", len(e.Lines)-len(shown))
	}
	return fmt.Sprintf("invalid date on %d rows (rows %s%s)", len(e.Lines), strings.Join(parts, ", "), more)
}

// Normalize coerces rows into MatchRecords ordered by date (ties keep feed
// order) with derived calendar fields and the running rating filled in.
func Normalize(rows []model.RawRow) (*Output, error) {
	present := presentColumns(rows)
	issues := newTracker()
	for _, col := range model.Columns {
		if col == model.ColOpponent {
			continue
		}
		if !present[col] {
			issues.add(model.IssueMissingColumn, 0, col)
		}
	}

	records := make([]model.MatchRecord, 0, len(rows))
	var badDates ValidationError
	for _, row := range rows {
		rec, ok := normalizeRow(row, issues)
		if !ok {
			v, _ := row.Get(model.ColDate)
			badDates.Lines = append(badDates.Lines, row.Line)
			badDates.Values = append(badDates.Values, v)
			continue
		}
		records = append(records, rec)
	}
	if len(badDates.Lines) > 0 {
		return nil, &badDates
	}

	sortChronological(records)
	var rating float64
	for i := range records {
		r := &records[i]
		if r.HasDate {
			r.Year = r.Date.Year()
			r.MonthName = r.Date.Month().String()
			r.WeekdayName = r.Date.Weekday().String()
		}
		rating += r.Merit
		r.CumulativeRating = rating
	}

	return &Output{
		Records:     records,
		HasOpponent: present[model.ColOpponent],
		Issues:      issues.list(),
	}, nil
}

// normalizeRow returns false only when the date is missing or unparseable.
func normalizeRow(row model.RawRow, issues *tracker) (model.MatchRecord, bool) {
	rec := model.MatchRecord{Seq: row.Line}

	rawDate, _ := row.Get(model.ColDate)
	d, ok := ParseDate(rawDate)
	if !ok {
		return rec, false
	}
	rec.Date, rec.HasDate = d, true

	if rawHour, _ := row.Get(model.ColHour); strings.TrimSpace(rawHour) != "" {
		if h, ok := ParseHour(rawHour); ok {
			rec.Hour, rec.HasHour = h, true
		} else {
			issues.add(model.IssueBadHour, row.Line, rawHour)
		}
	}

	rec.Location = Category(cell(row, model.ColLocation))
	rec.Teammate = Category(cell(row, model.ColTeammate))
	rec.Opponent = Category(cell(row, model.ColOpponent))

	rawResult := cell(row, model.ColResult)
	res, known := ParseResult(rawResult)
	if !known {
		issues.add(model.IssueUnknownResult, row.Line, strings.TrimSpace(rawResult))
	}
	rec.Result = res

	targets := map[string]*float64{
		model.ColMerit:       &rec.Merit,
		model.ColChemistry:   &rec.Chemistry,
		model.ColPerformance: &rec.Performance,
		model.ColGameDiff:    &rec.GameDiff,
	}
	for _, col := range model.NumericColumns {
		raw := cell(row, col)
		v, ok := ParseNumber(raw)
		if !ok {
			issues.add(model.IssueBadNumeric, row.Line, col)
		}
		*targets[col] = v
	}
	return rec, true
}

func cell(row model.RawRow, col string) string {
	v, _ := row.Get(col)
	return v
}

// ParseDate parses a match date and truncates it to the calendar day.
func ParseDate(s string) (time.Time, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, false
	}
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC), true
		}
	}
	return time.Time{}, false
}

// ParseHour extracts the hour of day from a time cell.
func ParseHour(s string) (int, bool) {
	s = strings.TrimSpace(s)
	for _, layout := range hourLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t.Hour(), true
		}
	}
	if h, err := strconv.Atoi(strings.TrimSuffix(strings.ToLower(s), "h")); err == nil && h >= 0 && h < 24 {
		return h, true
	}
	return 0, false
}

// resultCodes maps uppercased result cells to normalized codes.
var resultCodes = map[string]model.Result{
	"":          model.ResultNoResult,
	"W":         model.ResultWin,
	"WIN":       model.ResultWin,
	"WON":       model.ResultWin,
	"V":         model.ResultWin,
	"VICTORIA":  model.ResultWin,
	"L":         model.ResultLoss,
	"LOSS":      model.ResultLoss,
	"LOST":      model.ResultLoss,
	"DERROTA":   model.ResultLoss,
	"N":         model.ResultNoResult,
	"NR":        model.ResultNoResult,
	"NO RESULT": model.ResultNoResult,
	"D":         model.ResultNoResult,
	"DRAW":      model.ResultNoResult,
	"E":         model.ResultNoResult,
	"EMPATE":    model.ResultNoResult,
}

// ParseResult maps a result cell to W/L/N. The second return is false for
// unrecognized non-empty values, which are bucketed as N.
func ParseResult(s string) (model.Result, bool) {
	key := strings.Join(strings.Fields(strings.ToUpper(s)), " ")
	if r, ok := resultCodes[key]; ok {
		return r, true
	}
	return model.ResultNoResult, false
}

// ParseNumber parses a numeric cell permissively. A decimal comma is
// accepted; when both separators appear the last one is the decimal mark.
// Empty cells are 0 and ok; unparseable cells are 0 and not ok.
func ParseNumber(s string) (float64, bool) {
	s = strings.TrimSpace(strings.ReplaceAll(s, " ", ""))
	if s == "" {
		return 0, true
	}
	comma, dot := strings.LastIndex(s, ","), strings.LastIndex(s, ".")
	switch {
	case comma >= 0 && dot >= 0 && comma > dot:
		s = strings.ReplaceAll(s, ".", "")
		s = strings.Replace(s, ",", ".", 1)
	case comma >= 0 && dot >= 0:
		s = strings.ReplaceAll(s, ",", "")
	case comma >= 0:
		s = strings.ReplaceAll(s, ",", ".")
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		return 0, false
	}
	f, _ := d.Float64()
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, false
	}
	return f, true
}

// Category trims, collapses inner whitespace and NFC-normalizes a
// categorical cell so the same name typed with different accents
// compositions groups together.
func Category(s string) string {
	return norm.NFC.String(strings.Join(strings.Fields(s), " "))
}

func presentColumns(rows []model.RawRow) map[string]bool {
	present := make(map[string]bool)
	for _, r := range rows {
		for k := range r.Values {
			present[k] = true
		}
	}
	return present
}

func sortChronological(records []model.MatchRecord) {
	sort.SliceStable(records, func(i, j int) bool {
		a, b := records[i], records[j]
		if !a.Date.Equal(b.Date) {
			return a.Date.Before(b.Date)
		}
		return a.Seq < b.Seq
	})
}

// tracker aggregates quality issues by type, keeping first-seen order.
type tracker struct {
	byType map[model.IssueType]*model.QualityIssue
	order  []model.IssueType
}

func newTracker() *tracker {
	return &tracker{byType: make(map[model.IssueType]*model.QualityIssue)}
}

func (t *tracker) add(kind model.IssueType, line int, detail string) {
	is, ok := t.byType[kind]
	if !ok {
		is = &model.QualityIssue{Type: kind}
		t.byType[kind] = is
		t.order = append(t.order, kind)
	}
	is.Count++
	if line > 0 && len(is.Lines) < maxSampleLines {
		is.Lines = append(is.Lines, line)
	}
	if detail != "" && len(is.Details) < maxSampleLines && !contains(is.Details, detail) {
		is.Details = append(is.Details, detail)
	}
}

func (t *tracker) list() []model.QualityIssue {
	out := make([]model.QualityIssue, 0, len(t.order))
	for _, k := range t.order {
		out = append(out, *t.byType[k])
	}
	return out
}

func contains(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}
