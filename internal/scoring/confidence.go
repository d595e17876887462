package scoring

import (
	"math"

	"github.com/pable/go-padel-metrics/internal/model"
)

// FullConfidenceMatches is the sample size at which the observed win rate
// is used unshrunk.
const FullConfidenceMatches = 10

// prior is the win rate small samples regress toward.
const prior = 0.5

// Confidence is policy A: a linear shrinkage of wins/total toward 50%.
type Confidence struct{}

func (Confidence) Name() string { return "confidence" }

// Score applies ConfidenceScore row by row; the policy is not cohort-relative.
func (Confidence) Score(cohort []model.GroupPerformance) []float64 {
	out := make([]float64, len(cohort))
	for i := range cohort {
		out[i] = ConfidenceScore(cohort[i].Wins, cohort[i].TotalMatches)
	}
	return out
}

// ConfidenceScore blends the observed rate with the prior by
// min(1, total/FullConfidenceMatches). A group with no matches scores 0.
func ConfidenceScore(wins, total int) float64 {
	if total <= 0 {
		return 0
	}
	base := float64(wins) / float64(total)
	conf := math.Min(1, float64(total)/FullConfidenceMatches)
	adjusted := base*conf + prior*(1-conf)
	return clamp(adjusted*100, 0, 100)
}
