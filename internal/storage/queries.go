package storage

import (
	"context"
	"database/sql"
	"fmt"
	"regexp"
	"strconv"
	"time"

	"github.com/pable/go-padel-metrics/internal/model"
)

var identifierRe = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*$`)

// ValidTableName reports whether name is safe to interpolate as a table
// identifier.
func ValidTableName(name string) bool {
	return identifierRe.MatchString(name)
}

// TableExists returns true if the database has a table or view with the
// given name.
func (db *DB) TableExists(name string) (bool, error) {
	var count int
	err := db.conn.QueryRow(
		"SELECT COUNT(1) FROM sqlite_master WHERE type IN ('table', 'view') AND name = ?", name,
	).Scan(&count)
	if err != nil {
		return false, err
	}
	return count > 0, nil
}

// ReplaceMatches rewrites the matches table with records in a single
// transaction. Seq is the primary key so re-importing the same feed is
// idempotent. An empty opponent is stored as NULL, so a feed without
// opponents reads back without the column.
func (db *DB) ReplaceMatches(records []model.MatchRecord) error {
	tx, err := db.conn.Begin()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if _, err := tx.Exec("DELETE FROM matches"); err != nil {
		return err
	}
	stmt, err := tx.Prepare(`
		INSERT OR REPLACE INTO matches(
			seq, date, hour, location, teammate, opponent, result,
			merit, chemistry, performance_score, game_diff
		) VALUES (?,?,?,?,?,?,?,?,?,?,?)`)
	if err != nil {
		return err
	}
	defer stmt.Close()

	for _, r := range records {
		row := r.Row()
		if _, err := stmt.Exec(
			r.Seq, row.Values[model.ColDate], row.Values[model.ColHour],
			r.Location, r.Teammate, nullIfEmpty(r.Opponent), string(r.Result),
			r.Merit, r.Chemistry, r.Performance, r.GameDiff,
		); err != nil {
			return fmt.Errorf("insert match %d: %w", r.Seq, err)
		}
	}
	return tx.Commit()
}

func nullIfEmpty(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}

// CountMatches returns the number of rows in the matches table.
func (db *DB) CountMatches() (int, error) {
	var n int
	err := db.conn.QueryRow("SELECT COUNT(1) FROM matches").Scan(&n)
	return n, err
}

// TableRows returns every row of table as untyped text cells keyed by the
// canonical column name, in rowid order. NULL cells are left out of the
// row, so a column that is NULL everywhere is absent. The table name must
// pass ValidTableName.
func (db *DB) TableRows(ctx context.Context, table string) ([]model.RawRow, error) {
	if !ValidTableName(table) {
		return nil, fmt.Errorf("invalid table name %q", table)
	}
	rows, err := db.conn.QueryContext(ctx, fmt.Sprintf("SELECT * FROM %q", table))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	cols, err := rows.Columns()
	if err != nil {
		return nil, err
	}
	names := make([]string, len(cols))
	for i, c := range cols {
		names[i] = model.CanonicalColumn(c)
	}

	var out []model.RawRow
	cells := make([]any, len(cols))
	ptrs := make([]any, len(cols))
	for i := range cells {
		ptrs[i] = &cells[i]
	}
	for rows.Next() {
		if err := rows.Scan(ptrs...); err != nil {
			return nil, err
		}
		values := make(map[string]string, len(cols))
		for i, c := range cells {
			if c == nil {
				continue
			}
			values[names[i]] = cellText(c)
		}
		out = append(out, model.RawRow{Line: len(out) + 1, Values: values})
	}
	return out, rows.Err()
}

func cellText(v any) string {
	switch x := v.(type) {
	case string:
		return x
	case []byte:
		return string(x)
	case int64:
		return strconv.FormatInt(x, 10)
	case float64:
		return strconv.FormatFloat(x, 'g', -1, 64)
	case bool:
		return strconv.FormatBool(x)
	case time.Time:
		return x.Format("2006-01-02")
	default:
		return fmt.Sprint(x)
	}
}
