package testkit

import (
	"context"
	"sort"
	"sync"
	"time"

	"phmagent/domain/core"
	"phmagent/domain/vibration"
	"phmagent/internal/analysis"
	"phmagent/ports"
)

type memTable struct {
	columns []string
	rows    [][]interface{}
}

// InMemoryReadingRepository implements ports.ReadingRepository and
// ports.ReadingWriter over process memory. Dates are compared in UTC.
type InMemoryReadingRepository struct {
	tables  map[string]*memTable
	batches []ports.IngestBatch
	mu      sync.RWMutex
}

func NewInMemoryReadingRepository() *InMemoryReadingRepository {
	return &InMemoryReadingRepository{tables: make(map[string]*memTable)}
}

// Seed creates table with the given columns and appends rows
func (s *InMemoryReadingRepository) Seed(table string, columns []string, rows [][]interface{}) {
	s.mu.Lock()
	defer s.mu.Unlock()
	t, ok := s.tables[table]
	if !ok {
		t = &memTable{columns: append([]string(nil), columns...)}
		s.tables[table] = t
	}
	t.rows = append(t.rows, rows...)
}

// Batches returns every recorded ingest batch
func (s *InMemoryReadingRepository) Batches() []ports.IngestBatch {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]ports.IngestBatch(nil), s.batches...)
}

func (s *InMemoryReadingRepository) ListColumns(ctx context.Context, table string) ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	t, ok := s.tables[table]
	if !ok {
		return []string{}, nil
	}
	return append([]string(nil), t.columns...), nil
}

func (s *InMemoryReadingRepository) TableExists(ctx context.Context, table string) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, ok := s.tables[table]
	return ok, nil
}

func (s *InMemoryReadingRepository) FetchRowsOnDate(ctx context.Context, table, timeColumn string, date core.Date) ([]vibration.Row, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.rowsOn(table, timeColumn, date), nil
}

func (s *InMemoryReadingRepository) FetchMaxOnDate(ctx context.Context, table, timeColumn, valueColumn string, date core.Date) (vibration.Row, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var best vibration.Row
	var bestValue float64
	for _, row := range s.rowsOn(table, timeColumn, date) {
		raw, _ := row.Get(valueColumn)
		v, ok := analysis.NumericValue(raw)
		if !ok {
			continue
		}
		if best == nil || v > bestValue {
			best, bestValue = row, v
		}
	}
	return best, nil
}

func (s *InMemoryReadingRepository) TimeRange(ctx context.Context, table, timeColumn string) (*time.Time, *time.Time, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	t, ok := s.tables[table]
	if !ok {
		return nil, nil, nil
	}
	idx := indexOf(t.columns, timeColumn)
	if idx < 0 {
		return nil, nil, nil
	}

	var lo, hi *time.Time
	for _, r := range t.rows {
		ts, ok := r[idx].(time.Time)
		if !ok {
			continue
		}
		if lo == nil || ts.Before(*lo) {
			v := ts
			lo = &v
		}
		if hi == nil || ts.After(*hi) {
			v := ts
			hi = &v
		}
	}
	return lo, hi, nil
}

func (s *InMemoryReadingRepository) Preview(ctx context.Context, table string, limit int) ([]vibration.Row, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	t, ok := s.tables[table]
	if !ok {
		return nil, core.ErrTableNotFound
	}
	n := len(t.rows)
	if limit >= 0 && limit < n {
		n = limit
	}
	rows := make([]vibration.Row, n)
	for i := 0; i < n; i++ {
		rows[i] = toRow(t.columns, t.rows[i])
	}
	return rows, nil
}

func (s *InMemoryReadingRepository) CreateTable(ctx context.Context, table string, columns []ports.ColumnDef) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.tables[table]; ok {
		return nil
	}
	names := make([]string, len(columns))
	for i, c := range columns {
		names[i] = c.Name
	}
	s.tables[table] = &memTable{columns: names}
	return nil
}

func (s *InMemoryReadingRepository) InsertRows(ctx context.Context, table string, columns []string, rows [][]interface{}) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	t, ok := s.tables[table]
	if !ok {
		return 0, core.ErrTableNotFound
	}
	for _, r := range rows {
		full := make([]interface{}, len(t.columns))
		for j, name := range columns {
			if k := indexOf(t.columns, name); k >= 0 {
				full[k] = r[j]
			}
		}
		t.rows = append(t.rows, full)
	}
	return len(rows), nil
}

func (s *InMemoryReadingRepository) RecordBatch(ctx context.Context, batch ports.IngestBatch) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.batches = append(s.batches, batch)
	return nil
}

func (s *InMemoryReadingRepository) rowsOn(table, timeColumn string, date core.Date) []vibration.Row {
	t, ok := s.tables[table]
	if !ok {
		return nil
	}
	idx := indexOf(t.columns, timeColumn)
	if idx < 0 {
		return nil
	}

	type stamped struct {
		at  time.Time
		row vibration.Row
	}
	var matched []stamped
	for _, r := range t.rows {
		ts, ok := r[idx].(time.Time)
		if !ok || ts.UTC().Format(core.DateLayout) != date.String() {
			continue
		}
		matched = append(matched, stamped{at: ts, row: toRow(t.columns, r)})
	}
	sort.SliceStable(matched, func(i, j int) bool { return matched[i].at.Before(matched[j].at) })

	rows := make([]vibration.Row, len(matched))
	for i, m := range matched {
		rows[i] = m.row
	}
	return rows
}

func toRow(columns []string, values []interface{}) vibration.Row {
	row := make(vibration.Row, len(columns))
	for i, name := range columns {
		row[i] = vibration.Field{Name: name, Value: values[i]}
	}
	return row
}

func indexOf(columns []string, name string) int {
	for i, c := range columns {
		if c == name {
			return i
		}
	}
	return -1
}
