package app

import (
	"context"
	"fmt"
	"path/filepath"
	"time"

	"phmagent/adapters/excel"
	"phmagent/domain/core"
	"phmagent/internal"
	apperrors "phmagent/internal/errors"
	"phmagent/ports"
)

// IngestStore is what IngestService needs from storage
type IngestStore interface {
	TableExists(ctx context.Context, table string) (bool, error)
	ports.ReadingWriter
}

// IngestResult describes a finished upload
type IngestResult struct {
	BatchID core.BatchID      `json:"batch_id"`
	Table   string            `json:"table"`
	Rows    int               `json:"rows"`
	Columns []ports.ColumnDef `json:"columns"`
	Created bool              `json:"created"`
}

// IngestService loads CSV and Excel sensor exports into a table
type IngestService struct {
	store  IngestStore
	logger *internal.Logger
	now    func() time.Time
}

// NewIngestService creates an ingest service
func NewIngestService(store IngestStore, logger *internal.Logger) *IngestService {
	if logger == nil {
		logger = internal.DefaultLogger
	}
	return &IngestService{store: store, logger: logger.With("IngestService"), now: time.Now}
}

// IngestFile appends every row of a CSV/XLSX file to table, creating the
// table from the file's headers when it does not exist.
func (s *IngestService) IngestFile(ctx context.Context, table, path, sheet string) (*IngestResult, error) {
	data, err := excel.NewDataReader(path).WithSheet(sheet).ReadData()
	if err != nil {
		return nil, &apperrors.AppError{Code: apperrors.CodeInvalidInput, Message: "unreadable sensor file", Cause: err}
	}
	return s.Ingest(ctx, table, filepath.Base(path), data)
}

// Ingest writes already-read file data
func (s *IngestService) Ingest(ctx context.Context, table, source string, data *excel.SensorFile) (*IngestResult, error) {
	defs := excel.InferColumnKinds(data)

	rows := make([][]interface{}, len(data.Rows))
	for i, raw := range data.Rows {
		row := make([]interface{}, len(defs))
		for j, def := range defs {
			v, err := excel.ConvertCell(def.Kind, raw[def.Name])
			if err != nil {
				return nil, fmt.Errorf("%w: row %d column %s: %v", core.ErrInvalidCell, i+2, def.Name, err)
			}
			row[j] = v
		}
		rows[i] = row
	}

	exists, err := s.store.TableExists(ctx, table)
	if err != nil {
		return nil, err
	}
	if !exists {
		s.logger.Info("creating table %s with %d columns", table, len(defs))
		if err := s.store.CreateTable(ctx, table, defs); err != nil {
			return nil, err
		}
	}

	s.logger.Info("uploading %d rows to %s", len(rows), table)
	n, err := s.store.InsertRows(ctx, table, data.Headers, rows)
	if err != nil {
		return nil, err
	}

	batch := ports.IngestBatch{
		ID:         core.NewBatchID(),
		Table:      table,
		SourceFile: source,
		RowCount:   n,
		CreatedAt:  s.now().UTC(),
	}
	if err := s.store.RecordBatch(ctx, batch); err != nil {
		return nil, err
	}
	s.logger.Info("upload done: batch %s", batch.ID)

	return &IngestResult{BatchID: batch.ID, Table: table, Rows: n, Columns: defs, Created: !exists}, nil
}
