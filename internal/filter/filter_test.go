package filter

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pable/go-padel-metrics/internal/model"
)

func rec(seq int, date string, teammate, location string, res model.Result) model.MatchRecord {
	d, _ := time.Parse("2006-01-02", date)
	return model.MatchRecord{
		Seq: seq, Date: d, HasDate: true,
		Year: d.Year(), MonthName: d.Month().String(), WeekdayName: d.Weekday().String(),
		Teammate: teammate, Location: location, Result: res,
		CumulativeRating: float64(seq),
	}
}

func sample() []model.MatchRecord {
	return []model.MatchRecord{
		rec(1, "2023-12-30", "Ana", "Club Norte", model.ResultWin),  // Saturday
		rec(2, "2024-01-02", "Bea", "Club Norte", model.ResultLoss), // Tuesday
		rec(3, "2024-01-06", "Ana", "Padel Sur", model.ResultNoResult),
		rec(4, "2024-02-10", "ana", "Padel Sur", model.ResultWin),
	}
}

func seqs(rs []model.MatchRecord) []int {
	out := make([]int, len(rs))
	for i, r := range rs {
		out[i] = r.Seq
	}
	return out
}

func TestApply_ZeroFilterKeepsAll(t *testing.T) {
	var f Filter
	assert.True(t, f.IsZero())
	assert.Equal(t, []int{1, 2, 3, 4}, seqs(f.Apply(sample())))
}

func TestApply(t *testing.T) {
	cases := []struct {
		name  string
		exprs []string
		want  []int
	}{
		{"year", []string{"year=2024"}, []int{2, 3, 4}},
		{"month name", []string{"month=january"}, []int{2, 3}},
		{"month number", []string{"month=2"}, []int{4}},
		{"weekday abbrev", []string{"weekday=sat"}, []int{1, 3, 4}},
		{"teammate case-insensitive", []string{"teammate=ANA"}, []int{1, 3, 4}},
		{"location list", []string{"location=Padel Sur, Nowhere"}, []int{3, 4}},
		{"result", []string{"result=W"}, []int{1, 4}},
		{"results list", []string{"result=l,n"}, []int{2, 3}},
		{"date range", []string{"from=2024-01-01", "to=2024-01-06"}, []int{2, 3}},
		{"combined", []string{"year=2024", "teammate=ana", "result=w"}, []int{4}},
		{"no match", []string{"teammate=Zoe"}, []int{}},
		{"search location substring", []string{"search=NORTE"}, []int{1, 2}},
		{"search derived weekday", []string{"search=saturday"}, []int{1, 3, 4}},
		{"search date", []string{"search=2023-12"}, []int{1}},
		{"search terms are alternatives", []string{"search=bea", "search=sur"}, []int{2, 3, 4}},
		{"search keeps commas", []string{"search=norte,sur"}, []int{}},
		{"search narrows other keys", []string{"result=w", "search=padel"}, []int{4}},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			f, err := Parse(c.exprs)
			require.NoError(t, err)
			assert.Equal(t, c.want, seqs(f.Apply(sample())))
		})
	}
}

// Filtering never recomputes derived fields.
func TestApply_KeepsCumulativeRating(t *testing.T) {
	f, err := Parse([]string{"teammate=bea"})
	require.NoError(t, err)
	got := f.Apply(sample())
	require.Len(t, got, 1)
	assert.Equal(t, 2.0, got[0].CumulativeRating)
}

func TestParse_Errors(t *testing.T) {
	for _, expr := range []string{
		"teammate", "color=red", "year=abc", "month=smarch",
		"weekday=funday", "result=maybe", "from=yesterday", "to=", "from=2024-01-01,2024-02-01",
		"search=", "search=   ",
	} {
		_, err := Parse([]string{expr})
		assert.Error(t, err, expr)
	}
}

func TestString(t *testing.T) {
	f, err := Parse([]string{"teammate=Ana", "year=2024", "result=w", "from=01/02/2024"})
	require.NoError(t, err)
	assert.Equal(t, "year=2024 teammate=Ana result=W from=2024-02-01", f.String())
	assert.Equal(t, "(none)", Filter{}.String())

	f, err = Parse([]string{"search=  Club   Norte "})
	require.NoError(t, err)
	assert.False(t, f.IsZero())
	assert.Equal(t, "search=Club Norte", f.String())
}

func TestOptions(t *testing.T) {
	v := Options(sample())
	assert.Equal(t, []int{2023, 2024}, v.Years)
	assert.Equal(t, []string{"January", "February", "December"}, v.Months)
	assert.Equal(t, []string{"Tuesday", "Saturday"}, v.Weekdays)
	assert.Equal(t, []string{"Club Norte", "Padel Sur"}, v.Locations)
	assert.Equal(t, []string{"Ana", "Bea", "ana"}, v.Teammates)
	assert.Empty(t, v.Opponents)
	assert.Equal(t, []model.Result{model.ResultWin, model.ResultLoss, model.ResultNoResult}, v.Results)
}
