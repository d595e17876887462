package export

import (
	"bytes"
	"encoding/csv"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pable/go-padel-metrics/internal/analysis"
	"github.com/pable/go-padel-metrics/internal/filter"
	"github.com/pable/go-padel-metrics/internal/model"
	"github.com/pable/go-padel-metrics/internal/normalize"
	"github.com/pable/go-padel-metrics/internal/scoring"
)

func sampleAnalysis(t *testing.T) *analysis.Analysis {
	t.Helper()
	d := time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)
	snap := &model.Snapshot{SourceID: "test", Records: []model.MatchRecord{
		{Seq: 1, Date: d, HasDate: true, Hour: 19, HasHour: true, Teammate: "Ana", Location: "Norte",
			Result: model.ResultWin, Merit: 1.25, Performance: 6.5, CumulativeRating: 1.25},
		{Seq: 2, Date: d.AddDate(0, 0, 7), HasDate: true, Teammate: "Bea", Location: "Sur",
			Result: model.ResultLoss, Merit: -2, CumulativeRating: -0.75},
	}}
	s, err := scoring.New(scoring.PolicyWeighted)
	require.NoError(t, err)
	return analysis.Run(snap, filter.Filter{}, s)
}

func TestParseTable(t *testing.T) {
	for in, want := range map[string]Table{
		"records": TableRecords, "teammates": Table("teammate"), "Location": Table("location"),
		"heatmap": TableHeatmap, "analysis": TableAnalysis,
		"correlations": TableCorrelations, "rankings": TableRankings,
	} {
		got, err := ParseTable(in)
		require.NoError(t, err, in)
		assert.Equal(t, want, got, in)
	}
	_, err := ParseTable("players")
	assert.Error(t, err)
}

func TestParseFormat(t *testing.T) {
	f, err := ParseFormat("CSV")
	require.NoError(t, err)
	assert.Equal(t, FormatCSV, f)
	_, err = ParseFormat("xml")
	assert.Error(t, err)
}

func TestWrite_RecordsCSV(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, Write(&buf, sampleAnalysis(t), TableRecords, Options{Format: FormatCSV}))

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	require.Len(t, lines, 3)
	assert.Equal(t, "seq,date,hour,location,teammate,opponent,result,merit,chemistry,performance_score,game_diff,cumulative_rating", lines[0])
	assert.Equal(t, "1,2024-03-01,19:00,Norte,Ana,,W,1.25,0,6.5,0,1.25", lines[1])
}

// Exported records load back into the same records.
func TestWrite_RecordsRoundTrip(t *testing.T) {
	a := sampleAnalysis(t)
	var buf bytes.Buffer
	require.NoError(t, Write(&buf, a, TableRecords, Options{Format: FormatJSON}))

	var rows []RecordRow
	require.NoError(t, json.Unmarshal(buf.Bytes(), &rows))
	raw := make([]model.RawRow, len(rows))
	for i, r := range rows {
		raw[i] = model.NewRawRow(r.Seq, map[string]string{
			"date": r.Date, "hour": r.Hour, "location": r.Location, "teammate": r.Teammate,
			"result": r.Result, "merit": formatFloat(r.Merit),
		})
	}
	out, err := normalize.Normalize(raw)
	require.NoError(t, err)
	require.Len(t, out.Records, 2)
	assert.Equal(t, a.Records[0].Merit, out.Records[0].Merit)
	assert.Equal(t, a.Records[0].Hour, out.Records[0].Hour)
	assert.Equal(t, a.Records[1].CumulativeRating, out.Records[1].CumulativeRating)
}

func formatFloat(f float64) string {
	b, _ := json.Marshal(f)
	return string(b)
}

func TestWrite_GroupsJSON(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, Write(&buf, sampleAnalysis(t), Table("teammate"), Options{Format: FormatJSON, PrettyJSON: true}))

	var rows []GroupRow
	require.NoError(t, json.Unmarshal(buf.Bytes(), &rows))
	require.Len(t, rows, 2)
	assert.Equal(t, "Ana", rows[0].Entity)
	assert.Greater(t, rows[0].WinProbability, rows[1].WinProbability)
	for _, r := range rows {
		assert.GreaterOrEqual(t, r.WinProbability, scoring.MinProbability)
		assert.LessOrEqual(t, r.WinProbability, scoring.MaxProbability)
	}
}

func TestWrite_CorrelationsCSV(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, Write(&buf, sampleAnalysis(t), TableCorrelations, Options{Format: FormatCSV}))

	rows, err := csv.NewReader(&buf).ReadAll()
	require.NoError(t, err)
	require.Len(t, rows, 5)
	assert.Equal(t, []string{"column", "merit", "chemistry", "performance_score", "game_diff"}, rows[0])
	assert.Equal(t, "merit", rows[1][0])
	assert.NotEmpty(t, rows[1][3], "merit and performance both vary")
	// chemistry and game_diff are constant, so their cells are undefined.
	assert.Empty(t, rows[1][2])
	assert.Empty(t, rows[1][4])
}

func TestWrite_RankingsJSON(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, Write(&buf, sampleAnalysis(t), TableRankings, Options{Format: FormatJSON}))

	var rows []RankingRow
	require.NoError(t, json.Unmarshal(buf.Bytes(), &rows))
	// Nobody reaches five matches, so only two boards have entries.
	require.Len(t, rows, 4)
	assert.Equal(t, RankingRow{Board: "most_wins", Rank: 1, Entity: "Ana", TotalMatches: 1, Wins: 1, WinProbability: rows[2].WinProbability}, rows[2])
	for _, r := range rows {
		assert.NotEqual(t, "best_probability", r.Board)
	}
}

func TestWrite_AnalysisCSVRejected(t *testing.T) {
	err := Write(&bytes.Buffer{}, sampleAnalysis(t), TableAnalysis, Options{Format: FormatCSV})
	assert.Error(t, err)
}

func TestWrite_File(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out", "teammates.csv")
	a := sampleAnalysis(t)
	require.NoError(t, Write(nil, a, Table("teammate"), Options{Format: FormatCSV, FilePath: path}))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(string(data), "entity,total_matches"))

	err = Write(nil, a, Table("teammate"), Options{Format: FormatCSV, FilePath: path})
	assert.ErrorContains(t, err, "already exists")
	require.NoError(t, Write(nil, a, Table("teammate"), Options{Format: FormatCSV, FilePath: path, Overwrite: true}))
}

func TestExportToWriter_RequiresSlice(t *testing.T) {
	err := ExportToWriter(&bytes.Buffer{}, FormatCSV, struct{ A int }{1}, false)
	assert.Error(t, err)
}
