package model

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// Result is the outcome of a single match.
type Result string

const (
	ResultWin      Result = "W"
	ResultLoss     Result = "L"
	ResultNoResult Result = "N"
)

// Valid reports whether r is one of the three normalized codes.
func (r Result) Valid() bool {
	switch r {
	case ResultWin, ResultLoss, ResultNoResult:
		return true
	}
	return false
}

// Canonical column names. Sources may deliver any casing or one of the
// aliases in ColumnAliases.
const (
	ColDate        = "date"
	ColHour        = "hour"
	ColLocation    = "location"
	ColTeammate    = "teammate"
	ColOpponent    = "opponent"
	ColResult      = "result"
	ColMerit       = "merit"
	ColChemistry   = "chemistry"
	ColPerformance = "performance_score"
	ColGameDiff    = "game_diff"
)

// Columns lists the canonical columns in feed order.
var Columns = []string{
	ColDate, ColHour, ColLocation, ColTeammate, ColOpponent,
	ColResult, ColMerit, ColChemistry, ColPerformance, ColGameDiff,
}

// NumericColumns are coerced to float64 with the permissive policy.
var NumericColumns = []string{ColMerit, ColChemistry, ColPerformance, ColGameDiff}

// ColumnAliases maps lowercased header spellings seen in the spreadsheet
// feed to canonical names.
var ColumnAliases = map[string]string{
	"fecha":       ColDate,
	"hora":        ColHour,
	"time":        ColHour,
	"lugar":       ColLocation,
	"companero":   ColTeammate,
	"compañero":   ColTeammate,
	"partner":     ColTeammate,
	"rival":       ColOpponent,
	"resultado":   ColResult,
	"quimica":     ColChemistry,
	"química":     ColChemistry,
	"rendiment":   ColPerformance,
	"rendimiento": ColPerformance,
	"performance": ColPerformance,
	"game-diff":   ColGameDiff,
	"gamediff":    ColGameDiff,
	"game diff":   ColGameDiff,
}

// CanonicalColumn resolves a header cell to its canonical column name.
// Unknown headers are returned lowercased and trimmed.
func CanonicalColumn(header string) string {
	h := strings.ToLower(strings.TrimSpace(header))
	if c, ok := ColumnAliases[h]; ok {
		return c
	}
	return strings.ReplaceAll(h, " ", "_")
}

// RawRow is one untyped data row as delivered by a record source.
type RawRow struct {
	Line   int // 1-based data row number
	Values map[string]string
}

// NewRawRow builds a RawRow, canonicalizing the column names.
func NewRawRow(line int, values map[string]string) RawRow {
	r := RawRow{Line: line, Values: make(map[string]string, len(values))}
	for k, v := range values {
		r.Values[CanonicalColumn(k)] = v
	}
	return r
}

// Get returns the cell for a canonical column and whether the column exists.
func (r RawRow) Get(col string) (string, bool) {
	v, ok := r.Values[col]
	return v, ok
}

// MatchRecord is one played match after normalization.
type MatchRecord struct {
	Seq     int // data row number in the source feed
	Date    time.Time
	HasDate bool
	Hour    int
	HasHour bool

	Location string
	Teammate string
	Opponent string
	Result   Result

	Merit       float64
	Chemistry   float64
	Performance float64
	GameDiff    float64

	Year             int
	MonthName        string
	WeekdayName      string
	CumulativeRating float64
}

// Row renders the record back to its canonical raw form. Normalizing the
// returned row yields the same record.
func (m MatchRecord) Row() RawRow {
	v := map[string]string{
		ColLocation:    m.Location,
		ColTeammate:    m.Teammate,
		ColOpponent:    m.Opponent,
		ColResult:      string(m.Result),
		ColMerit:       formatFloat(m.Merit),
		ColChemistry:   formatFloat(m.Chemistry),
		ColPerformance: formatFloat(m.Performance),
		ColGameDiff:    formatFloat(m.GameDiff),
		ColDate:        "",
		ColHour:        "",
	}
	if m.HasDate {
		v[ColDate] = m.Date.Format("2006-01-02")
	}
	if m.HasHour {
		v[ColHour] = fmt.Sprintf("%02d:00", m.Hour)
	}
	return RawRow{Line: m.Seq, Values: v}
}

func formatFloat(f float64) string {
	return strconv.FormatFloat(f, 'g', -1, 64)
}

// GroupPerformance is the aggregate of all matches sharing one grouping key.
type GroupPerformance struct {
	EntityName   string
	TotalMatches int
	Wins         int
	Losses       int
	Draws        int

	AvgMerit       float64
	AvgChemistry   float64
	AvgPerformance float64
	AvgGameDiff    float64

	WinRateTotal    float64
	WinRateDecisive float64
	WinProbability  float64
}

// Decisive returns the number of matches that ended in a win or a loss.
func (g *GroupPerformance) Decisive() int {
	return g.Wins + g.Losses
}

// Snapshot is the immutable output of one ingestion.
type Snapshot struct {
	SourceID    string
	Records     []MatchRecord
	HasOpponent bool
	Quality     []QualityIssue
	LoadedAt    time.Time
}

// IssueType classifies a recoverable row-level data-quality problem.
type IssueType string

const (
	IssueBadNumeric    IssueType = "bad_numeric"
	IssueUnknownResult IssueType = "unknown_result"
	IssueBadHour       IssueType = "bad_hour"
	IssueMissingColumn IssueType = "missing_column"
)

// QualityIssue aggregates every occurrence of one issue type in a run.
type QualityIssue struct {
	Type    IssueType
	Count   int
	Lines   []int    // first few offending data rows
	Details []string // e.g. missing column names or unknown result codes
}
