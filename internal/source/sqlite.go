package source

import (
	"context"
	"fmt"
	"path/filepath"

	"github.com/pable/go-padel-metrics/internal/model"
	"github.com/pable/go-padel-metrics/internal/storage"
)

// DefaultTable is read when no table is named.
const DefaultTable = "matches"

// SQLite reads every row of one table, read-only.
type SQLite struct {
	Path  string
	Table string
}

// NewSQLite validates the table name up front.
func NewSQLite(path, table string) (*SQLite, error) {
	if table == "" {
		table = DefaultTable
	}
	if !storage.ValidTableName(table) {
		return nil, fmt.Errorf("invalid sqlite table name %q", table)
	}
	return &SQLite{Path: path, Table: table}, nil
}

func (s *SQLite) ID() string {
	p := s.Path
	if abs, err := filepath.Abs(p); err == nil {
		p = abs
	}
	return "sqlite:" + p + "#" + s.Table
}

func (s *SQLite) Rows(ctx context.Context) ([]model.RawRow, error) {
	db, err := storage.OpenReadOnly(s.Path)
	if err != nil {
		return nil, err
	}
	defer db.Close()

	ok, err := db.TableExists(s.Table)
	if err != nil {
		return nil, fmt.Errorf("inspect %s: %w", s.Path, err)
	}
	if !ok {
		return nil, fmt.Errorf("%s has no table %q", s.Path, s.Table)
	}
	rows, err := db.TableRows(ctx, s.Table)
	if err != nil {
		return nil, fmt.Errorf("read table %s: %w", s.Table, err)
	}
	return rows, nil
}
