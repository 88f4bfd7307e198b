package app

import (
	"context"
	"fmt"
	"time"

	"phmagent/domain/core"
	"phmagent/domain/vibration"
	"phmagent/internal"
	"phmagent/internal/analysis"
	"phmagent/internal/profiling"
	"phmagent/ports"

	"golang.org/x/sync/errgroup"
)

// VibrationServiceConfig holds the per-deployment knobs of VibrationService
type VibrationServiceConfig struct {
	Table             string
	Policy            vibration.ColumnPolicy
	DefaultThreshold  float64
	ReportConcurrency int
	MaxRangeDays      int
}

// VibrationService answers vibration questions against one sensor table.
// It holds no per-request state and is safe for concurrent use.
type VibrationService struct {
	repo   ports.ReadingRepository
	cfg    VibrationServiceConfig
	logger *internal.Logger
}

// NewVibrationService creates a vibration service
func NewVibrationService(repo ports.ReadingRepository, cfg VibrationServiceConfig, logger *internal.Logger) *VibrationService {
	if cfg.Policy == nil {
		cfg.Policy = vibration.DefaultColumnPolicy()
	}
	if !(cfg.DefaultThreshold > 0) {
		cfg.DefaultThreshold = analysis.DefaultOutlierThreshold
	}
	if cfg.ReportConcurrency < 1 {
		cfg.ReportConcurrency = 1
	}
	if cfg.MaxRangeDays < 1 {
		cfg.MaxRangeDays = 366
	}
	if logger == nil {
		logger = internal.DefaultLogger
	}
	return &VibrationService{repo: repo, cfg: cfg, logger: logger.With("VibrationService")}
}

// Table returns the sensor table name
func (s *VibrationService) Table() string { return s.cfg.Table }

// DefaultThreshold is used when a caller does not pass a threshold
func (s *VibrationService) DefaultThreshold() float64 { return s.cfg.DefaultThreshold }

// Columns lists the sensor table's columns in ordinal order
func (s *VibrationService) Columns(ctx context.Context) ([]string, error) {
	return s.repo.ListColumns(ctx, s.cfg.Table)
}

// ResolveColumns applies the column policy to the table's columns
func (s *VibrationService) ResolveColumns(ctx context.Context) (vibration.ColumnRoles, error) {
	columns, err := s.Columns(ctx)
	if err != nil {
		return vibration.ColumnRoles{}, err
	}
	roles, err := s.cfg.Policy(columns)
	if err != nil {
		s.logger.Warn("schema detection failed for %s: %v", s.cfg.Table, err)
		return vibration.ColumnRoles{}, err
	}
	s.logger.Debug("resolved time=%s value=%s", roles.Time, roles.Value)
	return roles, nil
}

// ReadingsOnDate returns every time/value pair of a day
func (s *VibrationService) ReadingsOnDate(ctx context.Context, date core.Date) (*vibration.DayReadings, error) {
	roles, rows, err := s.rowsOnDate(ctx, date)
	if err != nil {
		return nil, err
	}

	readings := make([]vibration.Reading, len(rows))
	for i, row := range rows {
		readings[i] = toReading(row, roles)
	}
	return &vibration.DayReadings{Date: date.String(), Columns: roles, Readings: readings}, nil
}

// MaxOnDate returns the day's largest reading
func (s *VibrationService) MaxOnDate(ctx context.Context, date core.Date) (*vibration.MaxReading, error) {
	roles, err := s.ResolveColumns(ctx)
	if err != nil {
		return nil, err
	}
	row, err := s.repo.FetchMaxOnDate(ctx, s.cfg.Table, roles.Time, roles.Value, date)
	if err != nil {
		return nil, err
	}
	if row == nil {
		return nil, core.NewNoDataError(s.cfg.Table, date.String())
	}
	return &vibration.MaxReading{Date: date.String(), Columns: roles, Reading: toReading(row, roles)}, nil
}

// SummaryOnDate computes descriptive statistics over a day's numeric values
func (s *VibrationService) SummaryOnDate(ctx context.Context, date core.Date) (*vibration.StatisticsSummary, error) {
	roles, err := s.ResolveColumns(ctx)
	if err != nil {
		return nil, err
	}
	return s.summaryFor(ctx, roles, date)
}

// OutliersOnDate flags the day's readings beyond threshold standard deviations
func (s *VibrationService) OutliersOnDate(ctx context.Context, date core.Date, threshold float64) (*vibration.OutlierReport, error) {
	if !(threshold > 0) {
		return nil, core.NewInvalidThresholdError(threshold)
	}
	roles, rows, err := s.rowsOnDate(ctx, date)
	if err != nil {
		return nil, err
	}

	scan, err := analysis.DetectOutliers(rows, analysis.ColumnValue(roles.Value), threshold)
	if err != nil {
		return nil, err
	}
	summary, err := analysis.ComputeSummary(scan.Values)
	if err != nil {
		return nil, err
	}

	s.logger.Info("%s: %d outliers among %d readings (%d skipped, threshold %.2f)",
		date, len(scan.Outliers), scan.Scored, scan.Skipped, threshold)

	return &vibration.OutlierReport{
		Date:      date.String(),
		Columns:   roles,
		Threshold: threshold,
		Summary:   summary,
		StdDev:    scan.StdDev,
		Outliers:  scan.Outliers,
		Skipped:   scan.Skipped,
	}, nil
}

// ProfileOnDate describes the distribution shape of a day's numeric values
func (s *VibrationService) ProfileOnDate(ctx context.Context, date core.Date) (*vibration.DayProfile, error) {
	roles, rows, err := s.rowsOnDate(ctx, date)
	if err != nil {
		return nil, err
	}
	profile, err := profiling.Profile(numericValues(rows, roles))
	if err != nil {
		return nil, err
	}
	return &vibration.DayProfile{Date: date.String(), Columns: roles, Profile: profile}, nil
}

// SummaryRange computes a summary per day from..to inclusive. Days are
// fetched concurrently; days without numeric readings are marked NoData.
func (s *VibrationService) SummaryRange(ctx context.Context, from, to core.Date) ([]vibration.DailySummary, error) {
	days := core.DaysBetween(from, to)
	if len(days) == 0 {
		return nil, fmt.Errorf("%w: range %s..%s is reversed", core.ErrInvalidDate, from, to)
	}
	if len(days) > s.cfg.MaxRangeDays {
		return nil, fmt.Errorf("%w: range spans %d days, limit is %d", core.ErrInvalidDate, len(days), s.cfg.MaxRangeDays)
	}

	roles, err := s.ResolveColumns(ctx)
	if err != nil {
		return nil, err
	}

	results := make([]vibration.DailySummary, len(days))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.cfg.ReportConcurrency)
	for i, day := range days {
		i, day := i, day
		g.Go(func() error {
			summary, err := s.summaryFor(gctx, roles, day)
			switch {
			case err == nil:
				results[i] = vibration.DailySummary{Date: day.String(), Summary: summary}
			case core.IsNoDataError(err), core.IsEmptyInputError(err):
				results[i] = vibration.DailySummary{Date: day.String(), NoData: true}
			default:
				return err
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return results, nil
}

// AnalyzeList summarizes caller-supplied values
func (s *VibrationService) AnalyzeList(values []float64) (*vibration.StatisticsSummary, error) {
	return analysis.ComputeSummary(values)
}

// Sum adds caller-supplied values
func (s *VibrationService) Sum(values []float64) float64 {
	return analysis.Sum(values)
}

// Preview describes the sensor table: columns, first rows, time spans
func (s *VibrationService) Preview(ctx context.Context, limit int) (*vibration.TablePreview, error) {
	preview := &vibration.TablePreview{Table: s.cfg.Table}

	exists, err := s.repo.TableExists(ctx, s.cfg.Table)
	if err != nil {
		return nil, err
	}
	if !exists {
		return preview, nil
	}
	preview.Exists = true

	if preview.Columns, err = s.Columns(ctx); err != nil {
		return nil, err
	}
	if preview.Rows, err = s.repo.Preview(ctx, s.cfg.Table, limit); err != nil {
		return nil, err
	}
	for _, col := range vibration.TimeLikeColumns(preview.Columns) {
		min, max, err := s.repo.TimeRange(ctx, s.cfg.Table, col)
		if err != nil {
			return nil, err
		}
		preview.TimeRanges = append(preview.TimeRanges, vibration.TimeRange{Column: col, Min: min, Max: max})
	}
	return preview, nil
}

func (s *VibrationService) rowsOnDate(ctx context.Context, date core.Date) (vibration.ColumnRoles, []vibration.Row, error) {
	roles, err := s.ResolveColumns(ctx)
	if err != nil {
		return roles, nil, err
	}
	rows, err := s.repo.FetchRowsOnDate(ctx, s.cfg.Table, roles.Time, date)
	if err != nil {
		return roles, nil, err
	}
	if len(rows) == 0 {
		return roles, nil, core.NewNoDataError(s.cfg.Table, date.String())
	}
	s.logger.Debug("fetched %d rows for %s", len(rows), date)
	return roles, rows, nil
}

func (s *VibrationService) summaryFor(ctx context.Context, roles vibration.ColumnRoles, date core.Date) (*vibration.StatisticsSummary, error) {
	rows, err := s.repo.FetchRowsOnDate(ctx, s.cfg.Table, roles.Time, date)
	if err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return nil, core.NewNoDataError(s.cfg.Table, date.String())
	}
	return analysis.ComputeSummary(numericValues(rows, roles))
}

func numericValues(rows []vibration.Row, roles vibration.ColumnRoles) []float64 {
	value := analysis.ColumnValue(roles.Value)
	values := make([]float64, 0, len(rows))
	for _, row := range rows {
		if v, ok := value(row); ok {
			values = append(values, v)
		}
	}
	return values
}

func toReading(row vibration.Row, roles vibration.ColumnRoles) vibration.Reading {
	var reading vibration.Reading
	if ts, ok := row.Get(roles.Time); ok {
		if t, ok := ts.(time.Time); ok {
			reading.Timestamp = t
		}
	}
	if raw, ok := row.Get(roles.Value); ok {
		if v, ok := analysis.NumericValue(raw); ok {
			reading.Value = &v
		}
	}
	return reading
}
