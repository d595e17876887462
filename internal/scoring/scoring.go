// Package scoring converts group performance rows into a probability-like
// win score in [0, 100].
//
// Two policies exist. Confidence (A) shrinks the observed win rate toward a
// 50% prior until a group has FullConfidenceMatches matches. Weighted (B)
// blends six cohort-scaled factors and maps the blend into [30, 95]. Since
// policy B scales relative to the cohort, scorers take the whole cohort and
// return one value per row.
package scoring

import (
	"fmt"
	"strings"

	"github.com/pable/go-padel-metrics/internal/model"
)

// Scorer computes a win probability for every row of a cohort. The returned
// slice is aligned with the input and every value lies in [0, 100].
type Scorer interface {
	Name() string
	Score(cohort []model.GroupPerformance) []float64
}

// Policy names a scoring strategy.
type Policy string

const (
	PolicyConfidence Policy = "A"
	PolicyWeighted   Policy = "B"
)

// ParsePolicy accepts the policy letter or its descriptive name.
func ParsePolicy(s string) (Policy, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "a", "confidence":
		return PolicyConfidence, nil
	case "b", "weighted", "":
		return PolicyWeighted, nil
	}
	return "", fmt.Errorf("unknown scoring policy %q (want A or B)", s)
}

// New returns the scorer for a policy with its default parameters.
func New(p Policy) (Scorer, error) {
	switch p {
	case PolicyConfidence:
		return Confidence{}, nil
	case PolicyWeighted:
		return NewWeighted(DefaultWeights)
	}
	return nil, fmt.Errorf("unknown scoring policy %q", p)
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
