package ports

import (
	"context"
	"time"

	"phmagent/domain/core"
	"phmagent/domain/vibration"
)

// ReadingRepository is the data-access collaborator over a sensor table.
// Rows come back with their cells in table column order.
type ReadingRepository interface {
	// ListColumns returns the table's column names in ordinal order.
	ListColumns(ctx context.Context, table string) ([]string, error)
	TableExists(ctx context.Context, table string) (bool, error)

	// FetchRowsOnDate returns every row whose time column falls on date,
	// ascending by time.
	FetchRowsOnDate(ctx context.Context, table, timeColumn string, date core.Date) ([]vibration.Row, error)
	// FetchMaxOnDate returns the row with the largest value on date, or nil.
	FetchMaxOnDate(ctx context.Context, table, timeColumn, valueColumn string, date core.Date) (vibration.Row, error)

	TimeRange(ctx context.Context, table, timeColumn string) (min, max *time.Time, err error)
	Preview(ctx context.Context, table string, limit int) ([]vibration.Row, error)
}

// ColumnKind is the storage type chosen for an ingested column.
type ColumnKind string

const (
	ColumnTimestamp ColumnKind = "timestamp"
	ColumnNumeric   ColumnKind = "numeric"
	ColumnText      ColumnKind = "text"
)

// ColumnDef describes one column of a table created on ingest.
type ColumnDef struct {
	Name string     `json:"name"`
	Kind ColumnKind `json:"kind"`
}

// IngestBatch records one completed upload.
type IngestBatch struct {
	ID         core.BatchID
	Table      string
	SourceFile string
	RowCount   int
	CreatedAt  time.Time
}

// ReadingWriter loads sensor rows into a table.
type ReadingWriter interface {
	CreateTable(ctx context.Context, table string, columns []ColumnDef) error
	// InsertRows writes rows in one transaction and returns how many were written.
	InsertRows(ctx context.Context, table string, columns []string, rows [][]interface{}) (int, error)
	RecordBatch(ctx context.Context, batch IngestBatch) error
}
