// Package filter narrows a snapshot to the cohort under analysis.
package filter

import (
	"fmt"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/pable/go-padel-metrics/internal/model"
	"github.com/pable/go-padel-metrics/internal/normalize"
)

// Filter selects records. An empty slice or zero time leaves that
// dimension unconstrained; string values match case-insensitively.
type Filter struct {
	Years     []int
	Months    []string
	Weekdays  []string
	Locations []string
	Teammates []string
	Opponents []string
	Results   []model.Result
	From, To  time.Time // inclusive calendar days
	// Search keeps records where any term is a substring of any column.
	Search []string
}

// IsZero reports whether f keeps every record.
func (f Filter) IsZero() bool {
	return len(f.Years) == 0 && len(f.Months) == 0 && len(f.Weekdays) == 0 &&
		len(f.Locations) == 0 && len(f.Teammates) == 0 && len(f.Opponents) == 0 &&
		len(f.Results) == 0 && f.From.IsZero() && f.To.IsZero() && len(f.Search) == 0
}

func (f Filter) needsDate() bool {
	return len(f.Years) > 0 || len(f.Months) > 0 || len(f.Weekdays) > 0 || !f.From.IsZero() || !f.To.IsZero()
}

// Apply returns the matching records in input order. Derived fields,
// including the cumulative rating, are left as computed over the full
// history.
func (f Filter) Apply(records []model.MatchRecord) []model.MatchRecord {
	out := make([]model.MatchRecord, 0, len(records))
	for _, r := range records {
		if f.Match(&r) {
			out = append(out, r)
		}
	}
	return out
}

// Match reports whether r passes every constraint.
func (f Filter) Match(r *model.MatchRecord) bool {
	if f.needsDate() && !r.HasDate {
		return false
	}
	if len(f.Years) > 0 && !containsInt(f.Years, r.Year) {
		return false
	}
	if !matchString(f.Months, r.MonthName) || !matchString(f.Weekdays, r.WeekdayName) {
		return false
	}
	if !matchString(f.Locations, r.Location) || !matchString(f.Teammates, r.Teammate) || !matchString(f.Opponents, r.Opponent) {
		return false
	}
	if len(f.Results) > 0 && !containsResult(f.Results, r.Result) {
		return false
	}
	if !f.From.IsZero() && r.Date.Before(f.From) {
		return false
	}
	if !f.To.IsZero() && r.Date.After(f.To) {
		return false
	}
	return matchSearch(f.Search, r)
}

func matchSearch(terms []string, r *model.MatchRecord) bool {
	if len(terms) == 0 {
		return true
	}
	text := searchText(r)
	for _, t := range terms {
		if strings.Contains(text, strings.ToLower(t)) {
			return true
		}
	}
	return false
}

// searchText is every column of r in string form, lower-cased. Fields are
// separated by a newline so a term never spans two columns.
func searchText(r *model.MatchRecord) string {
	row := r.Row()
	cols := make([]string, 0, len(row.Values)+4)
	for _, c := range model.Columns {
		cols = append(cols, row.Values[c])
	}
	if r.HasDate {
		cols = append(cols, strconv.Itoa(r.Year), r.MonthName, r.WeekdayName)
	}
	cols = append(cols, strconv.FormatFloat(r.CumulativeRating, 'g', -1, 64))
	return strings.ToLower(strings.Join(cols, "\n"))
}

func matchString(allowed []string, v string) bool {
	if len(allowed) == 0 {
		return true
	}
	for _, a := range allowed {
		if strings.EqualFold(a, v) {
			return true
		}
	}
	return false
}

func containsInt(xs []int, v int) bool {
	for _, x := range xs {
		if x == v {
			return true
		}
	}
	return false
}

func containsResult(xs []model.Result, v model.Result) bool {
	for _, x := range xs {
		if x == v {
			return true
		}
	}
	return false
}

// Keys lists the expression keys accepted by Parse.
var Keys = []string{"year", "month", "weekday", "location", "teammate", "opponent", "result", "from", "to", "search"}

// Parse builds a Filter from key=v1,v2 expressions. Repeating a key adds
// values.
func Parse(exprs []string) (Filter, error) {
	var f Filter
	for _, e := range exprs {
		if err := f.Set(e); err != nil {
			return Filter{}, err
		}
	}
	return f, nil
}

// Set applies one key=v1,v2 expression to f. A search term is taken
// whole, commas included.
func (f *Filter) Set(expr string) error {
	key, raw, ok := strings.Cut(expr, "=")
	if !ok {
		return fmt.Errorf("filter %q: want key=value", expr)
	}
	key = strings.ToLower(strings.TrimSpace(key))
	if key == "search" || key == "q" {
		term := normalize.Category(raw)
		if term == "" {
			return fmt.Errorf("filter %q: no values", expr)
		}
		f.Search = append(f.Search, term)
		return nil
	}
	values := splitValues(raw)
	if len(values) == 0 {
		return fmt.Errorf("filter %q: no values", expr)
	}

	switch key {
	case "year", "years":
		for _, v := range values {
			y, err := strconv.Atoi(v)
			if err != nil {
				return fmt.Errorf("filter year %q: %w", v, err)
			}
			f.Years = append(f.Years, y)
		}
	case "month", "months":
		for _, v := range values {
			m, err := parseMonth(v)
			if err != nil {
				return err
			}
			f.Months = append(f.Months, m)
		}
	case "weekday", "weekdays", "day":
		for _, v := range values {
			d, err := parseWeekday(v)
			if err != nil {
				return err
			}
			f.Weekdays = append(f.Weekdays, d)
		}
	case "location", "locations":
		f.Locations = append(f.Locations, normalizeAll(values)...)
	case "teammate", "teammates":
		f.Teammates = append(f.Teammates, normalizeAll(values)...)
	case "opponent", "opponents":
		f.Opponents = append(f.Opponents, normalizeAll(values)...)
	case "result", "results":
		for _, v := range values {
			r, known := normalize.ParseResult(v)
			if !known {
				return fmt.Errorf("filter result %q: want W, L or N", v)
			}
			f.Results = append(f.Results, r)
		}
	case "from", "to":
		if len(values) != 1 {
			return fmt.Errorf("filter %s takes one date", key)
		}
		d, ok := normalize.ParseDate(values[0])
		if !ok {
			return fmt.Errorf("filter %s: invalid date %q", key, values[0])
		}
		if key == "from" {
			f.From = d
		} else {
			f.To = d
		}
	default:
		return fmt.Errorf("unknown filter key %q (want one of %s)", key, strings.Join(Keys, ", "))
	}
	return nil
}

func splitValues(raw string) []string {
	var out []string
	for _, v := range strings.Split(raw, ",") {
		if v = strings.TrimSpace(v); v != "" {
			out = append(out, v)
		}
	}
	return out
}

func normalizeAll(values []string) []string {
	out := make([]string, len(values))
	for i, v := range values {
		out[i] = normalize.Category(v)
	}
	return out
}

func parseMonth(v string) (string, error) {
	if n, err := strconv.Atoi(v); err == nil && n >= 1 && n <= 12 {
		return time.Month(n).String(), nil
	}
	for m := time.January; m <= time.December; m++ {
		name := m.String()
		if strings.EqualFold(name, v) || (len(v) >= 3 && strings.EqualFold(name[:3], v)) {
			return name, nil
		}
	}
	return "", fmt.Errorf("filter month %q: unknown month", v)
}

func parseWeekday(v string) (string, error) {
	for d := time.Sunday; d <= time.Saturday; d++ {
		name := d.String()
		if strings.EqualFold(name, v) || (len(v) >= 3 && strings.EqualFold(name[:3], v)) {
			return name, nil
		}
	}
	return "", fmt.Errorf("filter weekday %q: unknown weekday", v)
}

// String renders f as Parse expressions, one per constrained key.
func (f Filter) String() string {
	var parts []string
	if len(f.Years) > 0 {
		ys := make([]string, len(f.Years))
		for i, y := range f.Years {
			ys[i] = strconv.Itoa(y)
		}
		parts = append(parts, "year="+strings.Join(ys, ","))
	}
	add := func(key string, vs []string) {
		if len(vs) > 0 {
			parts = append(parts, key+"="+strings.Join(vs, ","))
		}
	}
	add("month", f.Months)
	add("weekday", f.Weekdays)
	add("location", f.Locations)
	add("teammate", f.Teammates)
	add("opponent", f.Opponents)
	if len(f.Results) > 0 {
		rs := make([]string, len(f.Results))
		for i, r := range f.Results {
			rs[i] = string(r)
		}
		parts = append(parts, "result="+strings.Join(rs, ","))
	}
	if !f.From.IsZero() {
		parts = append(parts, "from="+f.From.Format("2006-01-02"))
	}
	if !f.To.IsZero() {
		parts = append(parts, "to="+f.To.Format("2006-01-02"))
	}
	for _, t := range f.Search {
		parts = append(parts, "search="+t)
	}
	if len(parts) == 0 {
		return "(none)"
	}
	return strings.Join(parts, " ")
}

// Values lists the distinct values available per filter dimension.
type Values struct {
	Years     []int
	Months    []string // calendar order
	Weekdays  []string // Monday first
	Locations []string
	Teammates []string
	Opponents []string
	Results   []model.Result
}

// Options collects the distinct values present in records.
func Options(records []model.MatchRecord) Values {
	years := map[int]bool{}
	months := map[time.Month]bool{}
	days := map[time.Weekday]bool{}
	locs, mates, opps := map[string]bool{}, map[string]bool{}, map[string]bool{}
	results := map[model.Result]bool{}
	for _, r := range records {
		if r.HasDate {
			years[r.Date.Year()] = true
			months[r.Date.Month()] = true
			days[r.Date.Weekday()] = true
		}
		if r.Location != "" {
			locs[r.Location] = true
		}
		if r.Teammate != "" {
			mates[r.Teammate] = true
		}
		if r.Opponent != "" {
			opps[r.Opponent] = true
		}
		results[r.Result] = true
	}

	var v Values
	for y := range years {
		v.Years = append(v.Years, y)
	}
	sort.Ints(v.Years)
	for m := time.January; m <= time.December; m++ {
		if months[m] {
			v.Months = append(v.Months, m.String())
		}
	}
	for i := 1; i <= 7; i++ {
		if d := time.Weekday(i % 7); days[d] {
			v.Weekdays = append(v.Weekdays, d.String())
		}
	}
	v.Locations = sortedKeys(locs)
	v.Teammates = sortedKeys(mates)
	v.Opponents = sortedKeys(opps)
	for _, r := range []model.Result{model.ResultWin, model.ResultLoss, model.ResultNoResult} {
		if results[r] {
			v.Results = append(v.Results, r)
		}
	}
	return v
}

func sortedKeys(m map[string]bool) []string {
	out := make([]string, 0, len(m))
	for k := range m {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}
