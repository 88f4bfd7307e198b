package sqlstore

import (
	"context"
	"fmt"
	"strings"

	"phmagent/ports"
)

// CreateTable creates the table when it does not exist yet
func (r *readingRepository) CreateTable(ctx context.Context, table string, columns []ports.ColumnDef) error {
	qt, err := r.dialect.Quote(table)
	if err != nil {
		return err
	}
	defs := make([]string, len(columns))
	for i, col := range columns {
		qc, err := r.dialect.Quote(col.Name)
		if err != nil {
			return err
		}
		defs[i] = qc + " " + r.dialect.ColumnType(col.Kind)
	}

	query := fmt.Sprintf("CREATE TABLE IF NOT EXISTS %s (%s)", qt, strings.Join(defs, ", "))
	if _, err := r.db.ExecContext(ctx, query); err != nil {
		return fmt.Errorf("failed to create table %s: %w", table, err)
	}
	return nil
}

// InsertRows appends rows inside a single transaction
func (r *readingRepository) InsertRows(ctx context.Context, table string, columns []string, rows [][]interface{}) (int, error) {
	if len(rows) == 0 {
		return 0, nil
	}
	q, err := quoteAll(r.dialect, append([]string{table}, columns...)...)
	if err != nil {
		return 0, err
	}
	placeholders := strings.TrimSuffix(strings.Repeat("?, ", len(columns)), ", ")
	query := r.db.Rebind(fmt.Sprintf("INSERT INTO %s (%s) VALUES (%s)",
		q[0], strings.Join(q[1:], ", "), placeholders))

	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("failed to begin insert: %w", err)
	}
	defer tx.Rollback()

	stmt, err := tx.PreparexContext(ctx, query)
	if err != nil {
		return 0, fmt.Errorf("failed to prepare insert into %s: %w", table, err)
	}
	defer stmt.Close()

	for i, row := range rows {
		if len(row) != len(columns) {
			return 0, fmt.Errorf("row %d has %d values for %d columns", i, len(row), len(columns))
		}
		if _, err := stmt.ExecContext(ctx, row...); err != nil {
			return 0, fmt.Errorf("failed to insert row %d into %s: %w", i, table, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("failed to commit insert into %s: %w", table, err)
	}
	return len(rows), nil
}

// RecordBatch stores an ingest audit row
func (r *readingRepository) RecordBatch(ctx context.Context, batch ports.IngestBatch) error {
	query := r.db.Rebind(`INSERT INTO ingest_batches (id, table_name, source_file, row_count, created_at)
	VALUES (?, ?, ?, ?, ?)`)

	_, err := r.db.ExecContext(ctx, query,
		batch.ID.String(), batch.Table, batch.SourceFile, batch.RowCount, batch.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to record ingest batch %s: %w", batch.ID, err)
	}
	return nil
}
