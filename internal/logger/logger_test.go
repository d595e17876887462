package logger

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"

	"github.com/sirupsen/logrus"

	"github.com/pable/go-padel-metrics/internal/model"
)

func TestNew_Level(t *testing.T) {
	var buf bytes.Buffer
	log := New("debug", "text", &buf)
	if log.GetLevel() != logrus.DebugLevel {
		t.Errorf("want debug, got %s", log.GetLevel())
	}

	buf.Reset()
	log = New("loud", "text", &buf)
	if log.GetLevel() != logrus.InfoLevel {
		t.Errorf("invalid level: want info fallback, got %s", log.GetLevel())
	}
	if !strings.Contains(buf.String(), "invalid log level") {
		t.Errorf("expected a warning about the bad level, got %q", buf.String())
	}
}

func TestQualityIssues_OneLinePerType(t *testing.T) {
	var buf bytes.Buffer
	log := New("info", "json", &buf)
	QualityIssues(log, "feed.csv", []model.QualityIssue{
		{Type: model.IssueBadNumeric, Count: 12, Lines: []int{1, 2, 3, 4, 5}, Details: []string{"merit"}},
		{Type: model.IssueUnknownResult, Count: 2, Lines: []int{7, 9}, Details: []string{"X"}},
	})

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	if len(lines) != 2 {
		t.Fatalf("want 2 log lines, got %d: %q", len(lines), buf.String())
	}
	var entry map[string]any
	if err := json.Unmarshal([]byte(lines[0]), &entry); err != nil {
		t.Fatalf("json log line: %v", err)
	}
	if entry["issue"] != "bad_numeric" || entry["count"] != float64(12) || entry["level"] != "warning" {
		t.Errorf("unexpected entry: %v", entry)
	}
}
