package aggregator

import (
	"fmt"
	"strings"

	"github.com/pable/go-padel-metrics/internal/model"
)

// NoHourBucket is the hour bucket of matches without a recorded time.
const NoHourBucket = "N/A"

// KeySelector derives the grouping key of a record.
type KeySelector interface {
	// Name is the entity label, e.g. "teammate".
	Name() string
	// Key returns the group key, or false when the record has none.
	Key(r *model.MatchRecord) (string, bool)
	// Applicable reports whether the feed supports this grouping at all.
	Applicable(snap *model.Snapshot) bool
}

// GroupBy names one of the built-in groupings.
type GroupBy string

const (
	ByTeammate GroupBy = "teammate"
	ByLocation GroupBy = "location"
	ByHour     GroupBy = "hour"
	ByOpponent GroupBy = "opponent"
)

// AllGroupings lists the built-in groupings in report order.
var AllGroupings = []GroupBy{ByTeammate, ByLocation, ByHour, ByOpponent}

// ParseGroupBy accepts a grouping name or its plural.
func ParseGroupBy(s string) (GroupBy, error) {
	s = strings.TrimSuffix(strings.ToLower(strings.TrimSpace(s)), "s")
	for _, g := range AllGroupings {
		if s == string(g) {
			return g, nil
		}
	}
	return "", fmt.Errorf("unknown grouping %q (want teammate, location, hour or opponent)", s)
}

// Selector returns the key selector for g.
func (g GroupBy) Selector() KeySelector {
	switch g {
	case ByLocation:
		return fieldKey{name: "location", get: func(r *model.MatchRecord) string { return r.Location }}
	case ByHour:
		return HourKey{}
	case ByOpponent:
		return OpponentKey{}
	default:
		return fieldKey{name: "teammate", get: func(r *model.MatchRecord) string { return r.Teammate }}
	}
}

// fieldKey groups by a required categorical field; empty values are skipped.
type fieldKey struct {
	name string
	get  func(r *model.MatchRecord) string
}

func (k fieldKey) Name() string { return k.name }

func (k fieldKey) Key(r *model.MatchRecord) (string, bool) {
	v := k.get(r)
	return v, v != ""
}

func (fieldKey) Applicable(*model.Snapshot) bool { return true }

// OpponentKey groups by opponent. It is only applicable to feeds that carry
// an opponent column.
type OpponentKey struct{}

func (OpponentKey) Name() string { return "opponent" }

func (OpponentKey) Key(r *model.MatchRecord) (string, bool) {
	return r.Opponent, r.Opponent != ""
}

func (OpponentKey) Applicable(snap *model.Snapshot) bool {
	return snap == nil || snap.HasOpponent
}

// HourKey groups by the hour-of-day bucket.
type HourKey struct{}

func (HourKey) Name() string { return "hour" }

func (HourKey) Key(r *model.MatchRecord) (string, bool) {
	return HourBucket(r), true
}

func (HourKey) Applicable(*model.Snapshot) bool { return true }

// HourBucket renders the derived hour column: "HH:00", or "N/A" when the
// match has no recorded time.
func HourBucket(r *model.MatchRecord) string {
	if !r.HasHour {
		return NoHourBucket
	}
	return fmt.Sprintf("%02d:00", r.Hour)
}

// constantKey puts every record in one group.
type constantKey struct{}

func (constantKey) Name() string                          { return "all" }
func (constantKey) Key(*model.MatchRecord) (string, bool) { return "all", true }
func (constantKey) Applicable(*model.Snapshot) bool       { return true }
