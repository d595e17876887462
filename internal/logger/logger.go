// Package logger builds the logrus logger shared by the CLI and the
// ingestion pipeline.
package logger

import (
	"io"
	"os"
	"strings"

	"github.com/sirupsen/logrus"

	"github.com/pable/go-padel-metrics/internal/model"
)

// New returns a logger writing to w (stderr when nil). Unknown levels fall
// back to info. format is "text" or "json".
func New(level, format string, w io.Writer) *logrus.Logger {
	log := logrus.New()
	if w == nil {
		w = os.Stderr
	}
	log.SetOutput(w)

	lvl, err := logrus.ParseLevel(level)
	if err != nil {
		log.Warnf("invalid log level %q, defaulting to info", level)
		lvl = logrus.InfoLevel
	}
	log.SetLevel(lvl)

	if strings.EqualFold(format, "json") {
		log.SetFormatter(&logrus.JSONFormatter{})
	} else {
		log.SetFormatter(&logrus.TextFormatter{
			FullTimestamp:          true,
			DisableLevelTruncation: true,
		})
	}
	return log
}

// Discard returns a logger that drops everything. Handy in tests.
func Discard() *logrus.Logger {
	log := logrus.New()
	log.SetOutput(io.Discard)
	return log
}

// QualityIssues emits one warning per issue type.
func QualityIssues(log logrus.FieldLogger, source string, issues []model.QualityIssue) {
	for _, is := range issues {
		fields := logrus.Fields{
			"source": source,
			"issue":  string(is.Type),
			"count":  is.Count,
		}
		if len(is.Lines) > 0 {
			fields["rows"] = is.Lines
		}
		if len(is.Details) > 0 {
			fields["details"] = is.Details
		}
		log.WithFields(fields).Warn(issueMessage(is.Type))
	}
}

func issueMessage(t model.IssueType) string {
	switch t {
	case model.IssueBadNumeric:
		return "unparseable numeric cells replaced with 0"
	case model.IssueUnknownResult:
		return "unrecognized result codes counted as no result"
	case model.IssueBadHour:
		return "unparseable match times treated as unspecified"
	case model.IssueMissingColumn:
		return "columns missing from feed"
	default:
		return "data quality issue"
	}
}
