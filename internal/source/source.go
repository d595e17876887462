// Package source delivers raw match rows from CSV files, published CSV URLs
// or SQLite tables, and turns them into normalized snapshots.
package source

import (
	"context"
	"fmt"
	"net/url"
	"path/filepath"
	"strings"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/pable/go-padel-metrics/internal/logger"
	"github.com/pable/go-padel-metrics/internal/model"
	"github.com/pable/go-padel-metrics/internal/normalize"
)

// Source yields the untyped rows of one match feed.
type Source interface {
	// ID identifies the raw feed; it is the snapshot cache key.
	ID() string
	Rows(ctx context.Context) ([]model.RawRow, error)
}

// IngestionError is a fatal failure to turn a feed into records.
type IngestionError struct {
	Op     string // "read" or "normalize"
	Source string
	Err    error
}

func (e *IngestionError) Error() string {
	return fmt.Sprintf("ingest %s: %s: %v", e.Source, e.Op, e.Err)
}

func (e *IngestionError) Unwrap() error { return e.Err }

// Options configures the sources built by Open.
type Options struct {
	HTTP        HTTPOptions
	SQLiteTable string
	Logger      logrus.FieldLogger
}

// Open picks a source from uri: http(s) URLs are fetched as CSV,
// sqlite://path?table=name and *.db/*.sqlite paths are read as SQLite, and
// anything else is a local CSV file.
func Open(uri string, opts Options) (Source, error) {
	uri = strings.TrimSpace(uri)
	if uri == "" {
		return nil, fmt.Errorf("no source configured (use --source or the source config key)")
	}
	lower := strings.ToLower(uri)
	switch {
	case strings.HasPrefix(lower, "http://"), strings.HasPrefix(lower, "https://"):
		return NewHTTPCSV(uri, opts.HTTP, opts.Logger), nil

	case strings.HasPrefix(lower, "sqlite://"):
		u, err := url.Parse(uri)
		if err != nil {
			return nil, fmt.Errorf("parse sqlite uri: %w", err)
		}
		path := u.Host + u.Path
		table := u.Query().Get("table")
		if table == "" {
			table = opts.SQLiteTable
		}
		return NewSQLite(path, table)

	case isSQLiteFile(lower):
		return NewSQLite(uri, opts.SQLiteTable)
	}
	return &CSVFile{Path: uri}, nil
}

func isSQLiteFile(path string) bool {
	switch filepath.Ext(path) {
	case ".db", ".sqlite", ".sqlite3":
		return true
	}
	return false
}

// Load reads src and normalizes its rows into a snapshot. Quality issues are
// logged once per type when log is non-nil.
func Load(ctx context.Context, src Source, log logrus.FieldLogger) (*model.Snapshot, error) {
	rows, err := src.Rows(ctx)
	if err != nil {
		return nil, &IngestionError{Op: "read", Source: src.ID(), Err: err}
	}
	out, err := normalize.Normalize(rows)
	if err != nil {
		return nil, &IngestionError{Op: "normalize", Source: src.ID(), Err: err}
	}
	snap := &model.Snapshot{
		SourceID:    src.ID(),
		Records:     out.Records,
		HasOpponent: out.HasOpponent,
		Quality:     out.Issues,
		LoadedAt:    time.Now(),
	}
	if log != nil {
		log.WithFields(logrus.Fields{"source": snap.SourceID, "records": len(snap.Records)}).Debug("snapshot loaded")
		logger.QualityIssues(log, snap.SourceID, out.Issues)
	}
	return snap, nil
}
