package app

import (
	"context"
	"time"

	"phmagent/domain/core"
	"phmagent/domain/vibration"
	"phmagent/ports"

	"github.com/stretchr/testify/mock"
)

// MockReadingRepository is a testify mock of the sensor-table adapter
type MockReadingRepository struct {
	mock.Mock
}

func (m *MockReadingRepository) ListColumns(ctx context.Context, table string) ([]string, error) {
	args := m.Called(ctx, table)
	cols, _ := args.Get(0).([]string)
	return cols, args.Error(1)
}

func (m *MockReadingRepository) TableExists(ctx context.Context, table string) (bool, error) {
	args := m.Called(ctx, table)
	return args.Bool(0), args.Error(1)
}

func (m *MockReadingRepository) FetchRowsOnDate(ctx context.Context, table, timeColumn string, date core.Date) ([]vibration.Row, error) {
	args := m.Called(ctx, table, timeColumn, date.String())
	rows, _ := args.Get(0).([]vibration.Row)
	return rows, args.Error(1)
}

func (m *MockReadingRepository) FetchMaxOnDate(ctx context.Context, table, timeColumn, valueColumn string, date core.Date) (vibration.Row, error) {
	args := m.Called(ctx, table, timeColumn, valueColumn, date.String())
	row, _ := args.Get(0).(vibration.Row)
	return row, args.Error(1)
}

func (m *MockReadingRepository) TimeRange(ctx context.Context, table, timeColumn string) (*time.Time, *time.Time, error) {
	args := m.Called(ctx, table, timeColumn)
	lo, _ := args.Get(0).(*time.Time)
	hi, _ := args.Get(1).(*time.Time)
	return lo, hi, args.Error(2)
}

func (m *MockReadingRepository) Preview(ctx context.Context, table string, limit int) ([]vibration.Row, error) {
	args := m.Called(ctx, table, limit)
	rows, _ := args.Get(0).([]vibration.Row)
	return rows, args.Error(1)
}

func (m *MockReadingRepository) CreateTable(ctx context.Context, table string, columns []ports.ColumnDef) error {
	return m.Called(ctx, table, columns).Error(0)
}

func (m *MockReadingRepository) InsertRows(ctx context.Context, table string, columns []string, rows [][]interface{}) (int, error) {
	args := m.Called(ctx, table, columns, rows)
	return args.Int(0), args.Error(1)
}

func (m *MockReadingRepository) RecordBatch(ctx context.Context, batch ports.IngestBatch) error {
	return m.Called(ctx, batch).Error(0)
}
