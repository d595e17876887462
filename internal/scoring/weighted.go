package scoring

import (
	"errors"
	"fmt"
	"math"

	"github.com/pable/go-padel-metrics/internal/model"
)

// Output range of the weighted policy. A heuristic never claims 0% or 100%.
const (
	MinProbability = 30.0
	MaxProbability = 95.0
)

// neutral is assigned to any factor that carries no information.
const neutral = 0.5

const weightTolerance = 1e-9

// ErrWeightsSum is returned by NewWeighted when the weights do not add to 1.
var ErrWeightsSum = errors.New("scoring weights must sum to 1")

// Weights holds the factor weights of the weighted policy.
type Weights struct {
	WinRate     float64
	Performance float64
	GameDiff    float64
	Chemistry   float64
	Merit       float64
	MatchCount  float64
}

// DefaultWeights is the tuned weight table.
var DefaultWeights = Weights{
	WinRate:     0.35,
	Performance: 0.20,
	GameDiff:    0.15,
	Chemistry:   0.10,
	Merit:       0.10,
	MatchCount:  0.10,
}

func init() {
	if err := DefaultWeights.validate(); err != nil {
		panic(err)
	}
}

// Sum returns the total of all weights.
func (w Weights) Sum() float64 {
	return w.WinRate + w.Performance + w.GameDiff + w.Chemistry + w.Merit + w.MatchCount
}

func (w Weights) validate() error {
	for _, v := range []float64{w.WinRate, w.Performance, w.GameDiff, w.Chemistry, w.Merit, w.MatchCount} {
		if v < 0 || math.IsNaN(v) {
			return fmt.Errorf("%w: negative or NaN weight %v", ErrWeightsSum, v)
		}
	}
	if s := w.Sum(); math.Abs(s-1) > weightTolerance {
		return fmt.Errorf("%w: got %v", ErrWeightsSum, s)
	}
	return nil
}

// Weighted is policy B: a weighted blend of cohort-scaled factors.
type Weighted struct {
	w Weights
}

// NewWeighted validates the weights. They are never renormalized.
func NewWeighted(w Weights) (*Weighted, error) {
	if err := w.validate(); err != nil {
		return nil, err
	}
	return &Weighted{w: w}, nil
}

func (s *Weighted) Name() string { return "weighted" }

// Weights returns the weight table in use.
func (s *Weighted) Weights() Weights { return s.w }

// Factors are the per-row inputs of the weighted policy, each in [0, 1].
type Factors struct {
	WinRate, Performance, GameDiff, Chemistry, Merit, MatchCount float64
}

// Score returns one probability per cohort row in [MinProbability, MaxProbability].
func (s *Weighted) Score(cohort []model.GroupPerformance) []float64 {
	factors := ScaleFactors(cohort)
	out := make([]float64, len(cohort))
	for i, f := range factors {
		blend := s.w.WinRate*f.WinRate +
			s.w.Performance*f.Performance +
			s.w.GameDiff*f.GameDiff +
			s.w.Chemistry*f.Chemistry +
			s.w.Merit*f.Merit +
			s.w.MatchCount*f.MatchCount
		p := MinProbability + blend*(MaxProbability-MinProbability)
		out[i] = clamp(p, MinProbability, MaxProbability)
	}
	return out
}

// ScaleFactors scales every factor of every row into [0, 1] relative to the
// cohort. The decisive win rate is divided by 100; the four averages are
// min-max scaled (0.5 when the cohort has no spread); match counts are
// log-dampened against the cohort maximum. A single-group cohort has no
// reference for its match count, so that factor is 0.5 there. Anything
// undefined becomes 0.5.
func ScaleFactors(cohort []model.GroupPerformance) []Factors {
	if len(cohort) == 0 {
		return nil
	}
	perf := newRange()
	diff := newRange()
	chem := newRange()
	merit := newRange()
	maxTotal := cohort[0].TotalMatches
	for _, g := range cohort {
		perf.add(g.AvgPerformance)
		diff.add(g.AvgGameDiff)
		chem.add(g.AvgChemistry)
		merit.add(g.AvgMerit)
		maxTotal = max(maxTotal, g.TotalMatches)
	}

	out := make([]Factors, len(cohort))
	for i, g := range cohort {
		out[i] = Factors{
			WinRate:     orNeutral(clamp(g.WinRateDecisive/100, 0, 1)),
			Performance: perf.scale(g.AvgPerformance),
			GameDiff:    diff.scale(g.AvgGameDiff),
			Chemistry:   chem.scale(g.AvgChemistry),
			Merit:       merit.scale(g.AvgMerit),
			MatchCount:  neutral,
		}
		if len(cohort) > 1 {
			out[i].MatchCount = orNeutral(math.Log1p(float64(g.TotalMatches)) / math.Log1p(float64(maxTotal)))
		}
	}
	return out
}

type valueRange struct{ min, max float64 }

func newRange() valueRange {
	return valueRange{min: math.Inf(1), max: math.Inf(-1)}
}

func (r *valueRange) add(v float64) {
	if math.IsNaN(v) {
		return
	}
	r.min = math.Min(r.min, v)
	r.max = math.Max(r.max, v)
}

func (r valueRange) scale(v float64) float64 {
	if r.max == r.min || math.IsInf(r.min, 0) || math.IsInf(r.max, 0) {
		return neutral
	}
	return orNeutral((v - r.min) / (r.max - r.min))
}

func orNeutral(v float64) float64 {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return neutral
	}
	return v
}
