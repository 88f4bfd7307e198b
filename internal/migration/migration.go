package migration

import (
	"context"
	"fmt"
	"strings"

	"phmagent/internal/errors"
	"phmagent/ports"

	"github.com/jmoiron/sqlx"
)

// Dialect is the part of the SQL dialect the migrations need
type Dialect interface {
	Name() string
	Quote(ident string) (string, error)
	ColumnType(kind ports.ColumnKind) string
}

// Migrator defines the interface for database migration operations
type Migrator interface {
	Run(ctx context.Context, db *sqlx.DB) error
	Version() string
}

// SensorColumns is the layout of a freshly created sensor table
var SensorColumns = []ports.ColumnDef{
	{Name: "Device_ID", Kind: ports.ColumnText},
	{Name: "Time", Kind: ports.ColumnTimestamp},
	{Name: "Vibration", Kind: ports.ColumnNumeric},
	{Name: "Temperature", Kind: ports.ColumnNumeric},
	{Name: "Pressure", Kind: ports.ColumnNumeric},
}

// MigrationRunner handles database schema migrations
type MigrationRunner struct {
	version     string
	dialect     Dialect
	sensorTable string
}

// NewRunner creates a migration runner for the given dialect and sensor table
func NewRunner(dialect Dialect, sensorTable string) *MigrationRunner {
	return &MigrationRunner{
		version:     "1.0.0",
		dialect:     dialect,
		sensorTable: sensorTable,
	}
}

// Version returns the migration version
func (r *MigrationRunner) Version() string {
	return r.version
}

// Run executes all database migrations in order. Every statement is
// idempotent so Run is safe on an already-migrated database.
func (r *MigrationRunner) Run(ctx context.Context, db *sqlx.DB) error {
	if err := r.createIngestBatchesTable(ctx, db); err != nil {
		return errors.Wrap(err, "failed to create ingest_batches table")
	}

	if err := r.createSensorTable(ctx, db); err != nil {
		return errors.Wrapf(err, "failed to create %s table", r.sensorTable)
	}

	return nil
}

func (r *MigrationRunner) createIngestBatchesTable(ctx context.Context, db *sqlx.DB) error {
	_, err := db.ExecContext(ctx, fmt.Sprintf(`
		CREATE TABLE IF NOT EXISTS ingest_batches (
			id VARCHAR(36) PRIMARY KEY,
			table_name VARCHAR(64) NOT NULL,
			source_file TEXT,
			row_count INTEGER NOT NULL,
			created_at %s NOT NULL
		)
	`, r.dialect.ColumnType(ports.ColumnTimestamp)))
	return err
}

func (r *MigrationRunner) createSensorTable(ctx context.Context, db *sqlx.DB) error {
	table, err := r.dialect.Quote(r.sensorTable)
	if err != nil {
		return err
	}
	defs := make([]string, len(SensorColumns))
	for i, col := range SensorColumns {
		name, err := r.dialect.Quote(col.Name)
		if err != nil {
			return err
		}
		defs[i] = name + " " + r.dialect.ColumnType(col.Kind)
	}
	_, err = db.ExecContext(ctx, fmt.Sprintf("CREATE TABLE IF NOT EXISTS %s (%s)", table, strings.Join(defs, ", ")))
	return err
}
