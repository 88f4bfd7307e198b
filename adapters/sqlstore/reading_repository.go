package sqlstore

import (
	"context"
	"database/sql"
	"fmt"
	"strconv"
	"strings"
	"time"

	"phmagent/domain/core"
	"phmagent/domain/vibration"
	"phmagent/ports"

	"github.com/jmoiron/sqlx"
)

// readingRepository implements ports.ReadingRepository and ports.ReadingWriter
type readingRepository struct {
	db      *sqlx.DB
	dialect Dialect
}

// Store is the full sensor-table adapter.
type Store interface {
	ports.ReadingRepository
	ports.ReadingWriter
}

// NewReadingRepository creates a sensor-table repository
func NewReadingRepository(db *sqlx.DB, dialect Dialect) Store {
	return &readingRepository{db: db, dialect: dialect}
}

// ListColumns returns column names in ordinal order
func (r *readingRepository) ListColumns(ctx context.Context, table string) ([]string, error) {
	var columns []string
	if err := r.db.SelectContext(ctx, &columns, r.db.Rebind(r.dialect.ColumnsQuery()), table); err != nil {
		return nil, fmt.Errorf("failed to list columns of %s: %w", table, err)
	}
	if len(columns) == 0 {
		return nil, fmt.Errorf("%w: %s", core.ErrTableNotFound, table)
	}
	return columns, nil
}

// TableExists reports whether the table is visible in the current schema
func (r *readingRepository) TableExists(ctx context.Context, table string) (bool, error) {
	var count int
	if err := r.db.GetContext(ctx, &count, r.db.Rebind(r.dialect.TableExistsQuery()), table); err != nil {
		return false, fmt.Errorf("failed to check table %s: %w", table, err)
	}
	return count > 0, nil
}

// FetchRowsOnDate returns all rows of a day ordered by the time column
func (r *readingRepository) FetchRowsOnDate(ctx context.Context, table, timeColumn string, date core.Date) ([]vibration.Row, error) {
	q, err := quoteAll(r.dialect, table, timeColumn)
	if err != nil {
		return nil, err
	}
	query := fmt.Sprintf("SELECT * FROM %s WHERE %s = ? ORDER BY %s ASC",
		q[0], r.dialect.DateOf(q[1]), q[1])

	rows, err := r.db.QueryxContext(ctx, r.db.Rebind(query), date.String())
	if err != nil {
		return nil, fmt.Errorf("failed to query %s on %s: %w", table, date, err)
	}
	defer rows.Close()
	return scanRows(rows)
}

// FetchMaxOnDate returns the row holding the day's largest value, or nil
func (r *readingRepository) FetchMaxOnDate(ctx context.Context, table, timeColumn, valueColumn string, date core.Date) (vibration.Row, error) {
	q, err := quoteAll(r.dialect, table, timeColumn, valueColumn)
	if err != nil {
		return nil, err
	}
	query := fmt.Sprintf("SELECT * FROM %s WHERE %s = ? AND %s IS NOT NULL ORDER BY %s DESC LIMIT 1",
		q[0], r.dialect.DateOf(q[1]), q[2], q[2])

	rows, err := r.db.QueryxContext(ctx, r.db.Rebind(query), date.String())
	if err != nil {
		return nil, fmt.Errorf("failed to query max of %s on %s: %w", table, date, err)
	}
	defer rows.Close()

	result, err := scanRows(rows)
	if err != nil {
		return nil, err
	}
	if len(result) == 0 {
		return nil, nil
	}
	return result[0], nil
}

// TimeRange returns the earliest and latest values of a time column
func (r *readingRepository) TimeRange(ctx context.Context, table, timeColumn string) (*time.Time, *time.Time, error) {
	q, err := quoteAll(r.dialect, table, timeColumn)
	if err != nil {
		return nil, nil, err
	}
	query := fmt.Sprintf("SELECT MIN(%s), MAX(%s) FROM %s", q[1], q[1], q[0])

	values, err := r.db.QueryRowxContext(ctx, query).SliceScan()
	if err != nil {
		return nil, nil, fmt.Errorf("failed to read time range of %s.%s: %w", table, timeColumn, err)
	}
	return asTime(values[0]), asTime(values[1]), nil
}

// Preview returns the first rows of a table
func (r *readingRepository) Preview(ctx context.Context, table string, limit int) ([]vibration.Row, error) {
	qt, err := r.dialect.Quote(table)
	if err != nil {
		return nil, err
	}
	rows, err := r.db.QueryxContext(ctx, r.db.Rebind(fmt.Sprintf("SELECT * FROM %s LIMIT ?", qt)), limit)
	if err != nil {
		return nil, fmt.Errorf("failed to preview %s: %w", table, err)
	}
	defer rows.Close()
	return scanRows(rows)
}

// scanRows reads every row into column-ordered fields
func scanRows(rows *sqlx.Rows) ([]vibration.Row, error) {
	columns, err := rows.Columns()
	if err != nil {
		return nil, fmt.Errorf("failed to read columns: %w", err)
	}
	typeNames := make([]string, len(columns))
	if types, err := rows.ColumnTypes(); err == nil {
		for i, ct := range types {
			typeNames[i] = strings.ToUpper(ct.DatabaseTypeName())
		}
	}

	result := []vibration.Row{}
	for rows.Next() {
		values, err := rows.SliceScan()
		if err != nil {
			return nil, fmt.Errorf("failed to scan row: %w", err)
		}
		row := make(vibration.Row, len(columns))
		for i, name := range columns {
			row[i] = vibration.Field{Name: name, Value: normalize(values[i], typeNames[i])}
		}
		result = append(result, row)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate rows: %w", err)
	}
	return result, nil
}

var timeLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02 15:04:05.999999999",
	"2006-01-02 15:04:05",
	"2006-01-02",
}

// normalize turns driver byte slices into numbers, times or strings.
func normalize(v interface{}, typeName string) interface{} {
	b, ok := v.([]byte)
	if !ok {
		return v
	}
	s := string(b)
	switch {
	case isNumericType(typeName):
		if f, err := strconv.ParseFloat(s, 64); err == nil {
			return f
		}
	case isTimeType(typeName):
		if t := parseTime(s); t != nil {
			return *t
		}
	}
	return s
}

func isNumericType(name string) bool {
	switch name {
	case "DECIMAL", "NUMERIC", "FLOAT", "FLOAT4", "FLOAT8", "DOUBLE", "REAL",
		"INT", "INT2", "INT4", "INT8", "INTEGER", "TINYINT", "SMALLINT", "MEDIUMINT", "BIGINT",
		"UNSIGNED INT", "UNSIGNED BIGINT", "UNSIGNED TINYINT", "UNSIGNED SMALLINT":
		return true
	}
	return false
}

func isTimeType(name string) bool {
	switch name {
	case "DATE", "DATETIME", "TIMESTAMP", "TIMESTAMPTZ":
		return true
	}
	return false
}

func parseTime(s string) *time.Time {
	for _, layout := range timeLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return &t
		}
	}
	return nil
}

func asTime(v interface{}) *time.Time {
	switch x := v.(type) {
	case time.Time:
		return &x
	case []byte:
		return parseTime(string(x))
	case string:
		return parseTime(x)
	case sql.NullTime:
		if x.Valid {
			return &x.Time
		}
	}
	return nil
}
