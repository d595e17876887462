package aggregator

import (
	"math"
	"reflect"
	"testing"
	"time"

	"github.com/pable/go-padel-metrics/internal/model"
	"github.com/pable/go-padel-metrics/internal/normalize"
	"github.com/pable/go-padel-metrics/internal/scoring"
)

var day0 = time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)

// makeRecord builds a dated record n days after day0.
func makeRecord(n int, teammate string, res model.Result, merit float64) model.MatchRecord {
	return model.MatchRecord{
		Seq:      n + 1,
		Date:     day0.AddDate(0, 0, n),
		HasDate:  true,
		Teammate: teammate,
		Location: "Club",
		Result:   res,
		Merit:    merit,
	}
}

func mustScorer(t *testing.T, p scoring.Policy) scoring.Scorer {
	t.Helper()
	s, err := scoring.New(p)
	if err != nil {
		t.Fatalf("scoring.New(%s): %v", p, err)
	}
	return s
}

// ---- Streak tests ----

func TestComputeStreaks(t *testing.T) {
	W, L, N := model.ResultWin, model.ResultLoss, model.ResultNoResult
	cases := []struct {
		name       string
		in         []model.Result
		wantWins   []int
		wantLosses []int
	}{
		{"empty", nil, []int{}, []int{}},
		{"all wins", []model.Result{W, W, W}, []int{3}, []int{}},
		{"all losses", []model.Result{L, L}, []int{}, []int{2}},
		{"draw breaks both", []model.Result{W, W, L, W, N, L, L}, []int{2, 1}, []int{1, 2}},
		{"alternating", []model.Result{W, L, W, L}, []int{1, 1}, []int{1, 1}},
		{"only draws", []model.Result{N, N}, []int{}, []int{}},
		{"draw between wins", []model.Result{W, N, W}, []int{1, 1}, []int{}},
		{"leading draw", []model.Result{N, L, L, W}, []int{1}, []int{2}},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			wins, losses := ComputeStreaks(c.in)
			if !reflect.DeepEqual(wins, c.wantWins) {
				t.Errorf("wins: want %v, got %v", c.wantWins, wins)
			}
			if !reflect.DeepEqual(losses, c.wantLosses) {
				t.Errorf("losses: want %v, got %v", c.wantLosses, losses)
			}
		})
	}
}

// Replaying the same sequence gives the same streaks.
func TestComputeStreaks_Replayable(t *testing.T) {
	in := []model.Result{model.ResultWin, model.ResultLoss, model.ResultLoss, model.ResultWin}
	w1, l1 := ComputeStreaks(in)
	w2, l2 := ComputeStreaks(in)
	if !reflect.DeepEqual(w1, w2) || !reflect.DeepEqual(l1, l2) {
		t.Errorf("streaks differ between runs: %v/%v vs %v/%v", w1, l1, w2, l2)
	}
}

// StreaksFromRecords orders by date and skips undated records.
func TestStreaksFromRecords_OrdersByDate(t *testing.T) {
	recs := []model.MatchRecord{
		makeRecord(3, "a", model.ResultLoss, 0),
		makeRecord(1, "a", model.ResultWin, 0),
		makeRecord(2, "a", model.ResultWin, 0),
		{Seq: 99, Result: model.ResultLoss}, // undated
	}
	wins, losses := StreaksFromRecords(recs)
	if !reflect.DeepEqual(wins, []int{2}) {
		t.Errorf("wins: want [2], got %v", wins)
	}
	if !reflect.DeepEqual(losses, []int{1}) {
		t.Errorf("losses: want [1], got %v", losses)
	}
}

func TestSummarizeStreaks(t *testing.T) {
	W, L, N := model.ResultWin, model.ResultLoss, model.ResultNoResult
	cases := []struct {
		name string
		in   []model.Result
		want StreakSummary
	}{
		{"empty", nil, StreakSummary{}},
		{"ends on wins", []model.Result{L, L, W, W, W}, StreakSummary{MaxWin: 3, MaxLoss: 2, MeanWin: 3, MeanLoss: 2, Current: 3}},
		{"ends on loss", []model.Result{W, L}, StreakSummary{MaxWin: 1, MaxLoss: 1, MeanWin: 1, MeanLoss: 1, Current: -1}},
		{"ends on draw", []model.Result{W, W, L, W, N}, StreakSummary{MaxWin: 2, MaxLoss: 1, MeanWin: 1.5, MeanLoss: 1, Current: 0}},
	}
	for _, c := range cases {
		got := SummarizeStreaks(c.in)
		if got != c.want {
			t.Errorf("%s: want %+v, got %+v", c.name, c.want, got)
		}
	}
}

// ---- Aggregation tests ----

func TestAggregate_CountsAndRates(t *testing.T) {
	recs := []model.MatchRecord{
		makeRecord(0, "ana", model.ResultWin, 1),
		makeRecord(1, "ana", model.ResultWin, 2),
		makeRecord(2, "ana", model.ResultLoss, -1),
		makeRecord(3, "ana", model.ResultNoResult, 0),
		makeRecord(4, "bea", model.ResultNoResult, 0),
		makeRecord(5, "bea", model.ResultNoResult, 0),
	}
	got := Aggregate(recs, ByTeammate.Selector(), mustScorer(t, scoring.PolicyConfidence))
	if len(got) != 2 {
		t.Fatalf("want 2 groups, got %d", len(got))
	}
	byName := map[string]model.GroupPerformance{}
	for _, g := range got {
		byName[g.EntityName] = g
		if g.Wins+g.Losses+g.Draws != g.TotalMatches {
			t.Errorf("%s: wins+losses+draws=%d, total=%d", g.EntityName, g.Wins+g.Losses+g.Draws, g.TotalMatches)
		}
		if g.WinRateDecisive < 0 || g.WinRateDecisive > 100 {
			t.Errorf("%s: decisive win rate %v out of range", g.EntityName, g.WinRateDecisive)
		}
	}

	ana := byName["ana"]
	if ana.TotalMatches != 4 || ana.Wins != 2 || ana.Losses != 1 || ana.Draws != 1 {
		t.Errorf("ana counts: %+v", ana)
	}
	if ana.WinRateTotal != 50 {
		t.Errorf("ana WinRateTotal: want 50, got %v", ana.WinRateTotal)
	}
	if math.Abs(ana.WinRateDecisive-200.0/3) > 1e-9 {
		t.Errorf("ana WinRateDecisive: want 66.67, got %v", ana.WinRateDecisive)
	}
	if ana.AvgMerit != 0.5 {
		t.Errorf("ana AvgMerit: want 0.5, got %v", ana.AvgMerit)
	}

	bea := byName["bea"]
	if bea.WinRateDecisive != 0 {
		t.Errorf("bea has no decisive matches: want 0, got %v", bea.WinRateDecisive)
	}
}

func TestAggregate_SortedByProbability(t *testing.T) {
	var recs []model.MatchRecord
	n := 0
	add := func(name string, res model.Result, count int) {
		for i := 0; i < count; i++ {
			recs = append(recs, makeRecord(n, name, res, 0))
			n++
		}
	}
	add("low", model.ResultLoss, 10)
	add("high", model.ResultWin, 10)
	add("mid", model.ResultWin, 5)
	add("mid", model.ResultLoss, 5)

	got := Aggregate(recs, ByTeammate.Selector(), mustScorer(t, scoring.PolicyConfidence))
	want := []string{"high", "mid", "low"}
	for i, w := range want {
		if got[i].EntityName != w {
			t.Errorf("rank %d: want %s, got %s", i, w, got[i].EntityName)
		}
	}
	for i := 1; i < len(got); i++ {
		if got[i].WinProbability > got[i-1].WinProbability {
			t.Errorf("not sorted descending at %d", i)
		}
	}
}

// Equal probabilities keep first-seen order.
func TestAggregate_TiesKeepFirstSeenOrder(t *testing.T) {
	recs := []model.MatchRecord{
		makeRecord(0, "zoe", model.ResultWin, 0),
		makeRecord(1, "adam", model.ResultWin, 0),
		makeRecord(2, "mia", model.ResultWin, 0),
	}
	got := Aggregate(recs, ByTeammate.Selector(), mustScorer(t, scoring.PolicyConfidence))
	for i, w := range []string{"zoe", "adam", "mia"} {
		if got[i].EntityName != w {
			t.Errorf("rank %d: want %s, got %s", i, w, got[i].EntityName)
		}
	}
}

func TestAggregate_Deterministic(t *testing.T) {
	var recs []model.MatchRecord
	names := []string{"a", "b", "c", "d"}
	results := []model.Result{model.ResultWin, model.ResultLoss, model.ResultNoResult}
	for i := 0; i < 40; i++ {
		r := makeRecord(i, names[i%len(names)], results[(i*7)%3], float64(i%5)-2)
		r.Performance = float64(i % 9)
		r.Chemistry = float64(i % 4)
		recs = append(recs, r)
	}
	s := mustScorer(t, scoring.PolicyWeighted)
	first := Aggregate(recs, ByTeammate.Selector(), s)
	second := Aggregate(recs, ByTeammate.Selector(), s)
	if !reflect.DeepEqual(first, second) {
		t.Errorf("aggregate is not deterministic:\n%+v\n%+v", first, second)
	}
}

func TestAggregate_EmptyInput(t *testing.T) {
	got := Aggregate(nil, ByTeammate.Selector(), mustScorer(t, scoring.PolicyWeighted))
	if len(got) != 0 {
		t.Errorf("want no groups, got %v", got)
	}
}

// A single-match group is valid and scores inside the policy range.
func TestAggregate_SingleMatchGroup(t *testing.T) {
	recs := []model.MatchRecord{makeRecord(0, "solo", model.ResultWin, 3)}
	got := Aggregate(recs, ByTeammate.Selector(), mustScorer(t, scoring.PolicyWeighted))
	if len(got) != 1 {
		t.Fatalf("want 1 group, got %d", len(got))
	}
	p := got[0].WinProbability
	if p < scoring.MinProbability || p > scoring.MaxProbability {
		t.Errorf("probability %v out of range", p)
	}
}

func TestHourBucket(t *testing.T) {
	cases := []struct {
		rec  model.MatchRecord
		want string
	}{
		{model.MatchRecord{Hour: 9, HasHour: true}, "09:00"},
		{model.MatchRecord{Hour: 21, HasHour: true}, "21:00"},
		{model.MatchRecord{Hour: 0, HasHour: true}, "00:00"},
		{model.MatchRecord{}, "N/A"},
	}
	for _, c := range cases {
		if got := HourBucket(&c.rec); got != c.want {
			t.Errorf("HourBucket(%+v): want %q, got %q", c.rec, c.want, got)
		}
	}
}

func TestAggregateBy_Hour(t *testing.T) {
	recs := []model.MatchRecord{
		{Seq: 1, HasHour: true, Hour: 19, Result: model.ResultWin},
		{Seq: 2, HasHour: true, Hour: 19, Result: model.ResultLoss},
		{Seq: 3, Result: model.ResultWin},
	}
	got := AggregateBy(&model.Snapshot{}, recs, ByHour, nil)
	if len(got) != 2 {
		t.Fatalf("want 2 hour buckets, got %d", len(got))
	}
	if got[0].EntityName != "19:00" || got[0].TotalMatches != 2 {
		t.Errorf("first bucket: %+v", got[0])
	}
	if got[1].EntityName != NoHourBucket || got[1].TotalMatches != 1 {
		t.Errorf("second bucket: %+v", got[1])
	}
}

// Without an opponent column the opponent grouping is empty.
func TestAggregateBy_OpponentCapability(t *testing.T) {
	recs := []model.MatchRecord{{Seq: 1, Opponent: "x", Result: model.ResultWin}}
	s := mustScorer(t, scoring.PolicyWeighted)

	none := AggregateBy(&model.Snapshot{HasOpponent: false}, recs, ByOpponent, s)
	if none == nil || len(none) != 0 {
		t.Errorf("no opponent column: want empty non-nil set, got %v", none)
	}
	some := AggregateBy(&model.Snapshot{HasOpponent: true}, recs, ByOpponent, s)
	if len(some) != 1 || some[0].EntityName != "x" {
		t.Errorf("with opponent column: got %+v", some)
	}
}

func TestAggregate_SkipsEmptyKeys(t *testing.T) {
	recs := []model.MatchRecord{
		makeRecord(0, "", model.ResultWin, 0),
		makeRecord(1, "ana", model.ResultWin, 0),
	}
	got := Aggregate(recs, ByTeammate.Selector(), nil)
	if len(got) != 1 || got[0].EntityName != "ana" {
		t.Errorf("want only ana, got %+v", got)
	}
}

func TestParseGroupBy(t *testing.T) {
	for in, want := range map[string]GroupBy{
		"teammate": ByTeammate, "Teammates": ByTeammate, "location": ByLocation,
		"hours": ByHour, "OPPONENT": ByOpponent,
	} {
		got, err := ParseGroupBy(in)
		if err != nil || got != want {
			t.Errorf("ParseGroupBy(%q): want %s, got %s (%v)", in, want, got, err)
		}
	}
	if _, err := ParseGroupBy("weather"); err == nil {
		t.Error("ParseGroupBy(weather): expected error")
	}
}

// TestEndToEnd: raw rows → normalize → one constant group.
func TestEndToEnd_ConstantKey(t *testing.T) {
	rows := []model.RawRow{
		model.NewRawRow(1, map[string]string{"Date": "01/01/2025", "Result": "Win", "Merit": "1,5", "Teammate": "ana"}),
		model.NewRawRow(2, map[string]string{"Date": "02/01/2025", "Result": "L", "Merit": "-2", "Teammate": "ana"}),
		model.NewRawRow(3, map[string]string{"Date": "03/01/2025", "Result": "", "Merit": "0.5", "Teammate": "ana"}),
	}
	out, err := normalize.Normalize(rows)
	if err != nil {
		t.Fatalf("normalize: %v", err)
	}
	g := Totals(out.Records)
	if g.TotalMatches != 3 || g.Wins != 1 || g.Losses != 1 || g.Draws != 1 {
		t.Errorf("counts: %+v", g)
	}
	if g.AvgMerit != 0 {
		t.Errorf("AvgMerit: want 0.0, got %v", g.AvgMerit)
	}
	if g.WinRateDecisive != 50 {
		t.Errorf("WinRateDecisive: want 50.0, got %v", g.WinRateDecisive)
	}
}
