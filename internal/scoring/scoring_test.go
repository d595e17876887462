package scoring

import (
	"errors"
	"math"
	"testing"

	"github.com/pable/go-padel-metrics/internal/model"
)

const eps = 1e-9

func group(name string, wins, losses, draws int, merit, chem, perf, diff float64) model.GroupPerformance {
	total := wins + losses + draws
	g := model.GroupPerformance{
		EntityName:     name,
		TotalMatches:   total,
		Wins:           wins,
		Losses:         losses,
		Draws:          draws,
		AvgMerit:       merit,
		AvgChemistry:   chem,
		AvgPerformance: perf,
		AvgGameDiff:    diff,
	}
	if total > 0 {
		g.WinRateTotal = float64(wins) / float64(total) * 100
	}
	if wins+losses > 0 {
		g.WinRateDecisive = float64(wins) / float64(wins+losses) * 100
	}
	return g
}

// ---- Policy A ----

func TestConfidenceScore_NoMatches(t *testing.T) {
	if got := ConfidenceScore(0, 0); got != 0 {
		t.Errorf("ConfidenceScore(0, 0): want 0, got %v", got)
	}
}

// At or above FullConfidenceMatches the observed rate is returned unshrunk.
func TestConfidenceScore_SaturatedIsRawRate(t *testing.T) {
	for total := FullConfidenceMatches; total <= 40; total += 7 {
		for wins := 0; wins <= total; wins++ {
			want := float64(wins) / float64(total) * 100
			if got := ConfidenceScore(wins, total); got != want {
				t.Fatalf("ConfidenceScore(%d, %d): want %v, got %v", wins, total, want, got)
			}
		}
	}
}

func TestConfidenceScore_Shrinkage(t *testing.T) {
	cases := []struct {
		wins, total int
		want        float64
	}{
		{1, 1, 55},   // 1.0*0.1 + 0.5*0.9
		{0, 1, 45},   // 0.0*0.1 + 0.5*0.9
		{5, 5, 75},   // 1.0*0.5 + 0.5*0.5
		{0, 5, 25},   // 0.0*0.5 + 0.5*0.5
		{3, 6, 50},   // half wins stays at the prior
		{9, 10, 90},  // saturated
		{20, 20, 100},
	}
	for _, c := range cases {
		got := ConfidenceScore(c.wins, c.total)
		if math.Abs(got-c.want) > eps {
			t.Errorf("ConfidenceScore(%d, %d): want %v, got %v", c.wins, c.total, c.want, got)
		}
	}
}

func TestConfidenceScore_MonotoneInWins(t *testing.T) {
	for total := 1; total <= 25; total++ {
		prev := -1.0
		for wins := 0; wins <= total; wins++ {
			got := ConfidenceScore(wins, total)
			if got < prev {
				t.Fatalf("total=%d: score decreased from %v to %v at wins=%d", total, prev, got, wins)
			}
			if got < 0 || got > 100 {
				t.Fatalf("total=%d wins=%d: score %v out of [0,100]", total, wins, got)
			}
			prev = got
		}
	}
}

func TestConfidence_ScoreAlignsWithCohort(t *testing.T) {
	cohort := []model.GroupPerformance{
		group("a", 10, 0, 0, 0, 0, 0, 0),
		group("b", 0, 2, 0, 0, 0, 0, 0),
	}
	got := Confidence{}.Score(cohort)
	if len(got) != 2 {
		t.Fatalf("want 2 scores, got %d", len(got))
	}
	if got[0] != 100 {
		t.Errorf("a: want 100, got %v", got[0])
	}
	if math.Abs(got[1]-40) > eps {
		t.Errorf("b: want 40, got %v", got[1])
	}
}

// ---- Policy B ----

func TestDefaultWeightsSumToOne(t *testing.T) {
	if s := DefaultWeights.Sum(); math.Abs(s-1) > eps {
		t.Errorf("default weights sum to %v", s)
	}
	s, err := NewWeighted(DefaultWeights)
	if err != nil {
		t.Fatalf("NewWeighted(DefaultWeights): %v", err)
	}
	if s.Weights() != DefaultWeights {
		t.Errorf("Weights: want %+v, got %+v", DefaultWeights, s.Weights())
	}
}

func TestNewWeighted_RejectsBadSum(t *testing.T) {
	w := DefaultWeights
	w.WinRate = 0.5
	_, err := NewWeighted(w)
	if !errors.Is(err, ErrWeightsSum) {
		t.Fatalf("want ErrWeightsSum, got %v", err)
	}

	w = DefaultWeights
	w.Merit, w.Chemistry = -0.1, 0.3
	if _, err := NewWeighted(w); !errors.Is(err, ErrWeightsSum) {
		t.Fatalf("negative weight: want ErrWeightsSum, got %v", err)
	}
}

func TestWeighted_EmptyCohort(t *testing.T) {
	s, _ := NewWeighted(DefaultWeights)
	got := s.Score(nil)
	if len(got) != 0 {
		t.Errorf("empty cohort: want empty column, got %v", got)
	}
}

// A single group with a 50% decisive rate has no information in any factor.
func TestWeighted_DegenerateSingleGroup(t *testing.T) {
	s, _ := NewWeighted(DefaultWeights)
	got := s.Score([]model.GroupPerformance{group("solo", 2, 2, 1, 0.3, 4, 6, 1)})
	if len(got) != 1 {
		t.Fatalf("want 1 score, got %d", len(got))
	}
	if math.Abs(got[0]-62.5) > eps {
		t.Errorf("want 62.5, got %v", got[0])
	}

	f := ScaleFactors([]model.GroupPerformance{group("solo", 2, 2, 1, 0.3, 4, 6, 1)})[0]
	for name, v := range map[string]float64{
		"performance": f.Performance, "game_diff": f.GameDiff, "chemistry": f.Chemistry,
		"merit": f.Merit, "match_count": f.MatchCount, "win_rate": f.WinRate,
	} {
		if v != 0.5 {
			t.Errorf("factor %s: want 0.5, got %v", name, v)
		}
	}
}

func TestWeighted_Extremes(t *testing.T) {
	s, _ := NewWeighted(DefaultWeights)
	best := group("best", 20, 0, 0, 3, 9, 9, 5)
	worst := group("worst", 0, 1, 0, -3, 1, 1, -5)
	got := s.Score([]model.GroupPerformance{best, worst})
	if math.Abs(got[0]-MaxProbability) > eps {
		t.Errorf("best: want %v, got %v", MaxProbability, got[0])
	}
	// worst still earns log1p(1)/log1p(20) of the match-count weight.
	wantWorst := MinProbability + 0.10*math.Log1p(1)/math.Log1p(20)*(MaxProbability-MinProbability)
	if math.Abs(got[1]-wantWorst) > eps {
		t.Errorf("worst: want %v, got %v", wantWorst, got[1])
	}
}

func TestWeighted_AlwaysInRange(t *testing.T) {
	s, _ := NewWeighted(DefaultWeights)
	cohort := []model.GroupPerformance{
		group("a", 0, 0, 3, 0, 0, 0, 0),
		group("b", 7, 1, 0, 2.5, 8, 7, 3),
		group("c", 1, 9, 2, -1.5, 2, 3, -4),
		group("d", 4, 4, 0, 0, 5, 5, 0),
		group("e", 1, 0, 0, 10, -2, 100, 20),
	}
	for i, p := range s.Score(cohort) {
		if p < MinProbability || p > MaxProbability || math.IsNaN(p) {
			t.Errorf("row %d: probability %v out of [%v, %v]", i, p, MinProbability, MaxProbability)
		}
	}
}

// Scaling is relative to the cohort: adding a stronger group lowers the
// scaled factors of the others.
func TestWeighted_CohortRelative(t *testing.T) {
	s, _ := NewWeighted(DefaultWeights)
	a := group("a", 3, 2, 0, 1, 5, 5, 1)
	b := group("b", 2, 3, 0, 0, 4, 4, 0)
	c := group("c", 9, 0, 0, 4, 9, 9, 6)

	small := s.Score([]model.GroupPerformance{a, b})
	large := s.Score([]model.GroupPerformance{a, b, c})
	if !(large[0] < small[0]) {
		t.Errorf("a should score lower once c joins the cohort: %v vs %v", large[0], small[0])
	}
}

func TestScaleFactors_MinMax(t *testing.T) {
	cohort := []model.GroupPerformance{
		group("a", 1, 1, 0, 0, 2, 10, -2),
		group("b", 1, 1, 0, 1, 4, 20, 0),
		group("c", 1, 1, 0, 2, 6, 30, 2),
	}
	f := ScaleFactors(cohort)
	wantPerf := []float64{0, 0.5, 1}
	for i := range f {
		if math.Abs(f[i].Performance-wantPerf[i]) > eps {
			t.Errorf("row %d performance: want %v, got %v", i, wantPerf[i], f[i].Performance)
		}
		if math.Abs(f[i].Merit-wantPerf[i]) > eps {
			t.Errorf("row %d merit: want %v, got %v", i, wantPerf[i], f[i].Merit)
		}
		// every group is at the cohort maximum
		if math.Abs(f[i].MatchCount-1) > eps {
			t.Errorf("row %d match count: want 1, got %v", i, f[i].MatchCount)
		}
	}
}

func TestScaleFactors_MatchCountLogDamped(t *testing.T) {
	cohort := []model.GroupPerformance{
		group("few", 1, 0, 0, 0, 0, 0, 0),
		group("many", 5, 4, 0, 0, 0, 0, 0),
	}
	f := ScaleFactors(cohort)
	want := math.Log1p(1) / math.Log1p(9)
	if math.Abs(f[0].MatchCount-want) > eps {
		t.Errorf("few: want %v, got %v", want, f[0].MatchCount)
	}
	if math.Abs(f[1].MatchCount-1) > eps {
		t.Errorf("many: want 1, got %v", f[1].MatchCount)
	}
}

// Two groups with the same number of matches both sit at the maximum.
func TestWeighted_EqualTotalsTwoGroups(t *testing.T) {
	s, _ := NewWeighted(DefaultWeights)
	cohort := []model.GroupPerformance{
		group("a", 3, 1, 0, 1, 8, 7, 2),
		group("b", 1, 3, 0, -1, 5, 4, -2),
	}
	for i, f := range ScaleFactors(cohort) {
		if math.Abs(f.MatchCount-1) > eps {
			t.Errorf("row %d match count: want 1, got %v", i, f.MatchCount)
		}
	}
	got := s.Score(cohort)
	want := []float64{89.3125, 42.1875}
	for i := range want {
		if math.Abs(got[i]-want[i]) > 1e-9 {
			t.Errorf("row %d: want %v, got %v", i, want[i], got[i])
		}
	}
}

func TestParsePolicy(t *testing.T) {
	cases := []struct {
		in      string
		want    Policy
		wantErr bool
	}{
		{"A", PolicyConfidence, false},
		{"confidence", PolicyConfidence, false},
		{"b", PolicyWeighted, false},
		{"Weighted", PolicyWeighted, false},
		{"", PolicyWeighted, false},
		{"C", "", true},
	}
	for _, c := range cases {
		got, err := ParsePolicy(c.in)
		if (err != nil) != c.wantErr {
			t.Errorf("ParsePolicy(%q): err=%v, wantErr=%v", c.in, err, c.wantErr)
			continue
		}
		if got != c.want {
			t.Errorf("ParsePolicy(%q): want %q, got %q", c.in, c.want, got)
		}
	}
}

func TestNew(t *testing.T) {
	a, err := New(PolicyConfidence)
	if err != nil || a.Name() != "confidence" {
		t.Errorf("New(A): %v, %v", a, err)
	}
	b, err := New(PolicyWeighted)
	if err != nil || b.Name() != "weighted" {
		t.Errorf("New(B): %v, %v", b, err)
	}
	if _, err := New("Z"); err == nil {
		t.Error("New(Z): expected error")
	}
}
