package app

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"phmagent/domain/core"
	"phmagent/domain/vibration"
	"phmagent/internal"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

const table = "equipment_data"

var sensorColumns = []string{"Device_ID", "Time", "Vibration"}

func newService(repo *MockReadingRepository) *VibrationService {
	return NewVibrationService(repo, VibrationServiceConfig{
		Table:             table,
		ReportConcurrency: 3,
	}, internal.NewLogger(internal.LogLevelError))
}

func day(t *testing.T, s string) core.Date {
	t.Helper()
	d, err := core.ParseDate(s)
	require.NoError(t, err)
	return d
}

func sensorRow(device string, ts time.Time, value interface{}) vibration.Row {
	return vibration.Row{
		{Name: "Device_ID", Value: device},
		{Name: "Time", Value: ts},
		{Name: "Vibration", Value: value},
	}
}

func dayRows(date string, values ...interface{}) []vibration.Row {
	base, _ := time.Parse(core.DateLayout, date)
	rows := make([]vibration.Row, len(values))
	for i, v := range values {
		rows[i] = sensorRow("pump-"+string(rune('A'+i)), base.Add(time.Duration(i)*time.Minute), v)
	}
	return rows
}

func TestResolveColumns_SchemaError(t *testing.T) {
	repo := new(MockReadingRepository)
	repo.On("ListColumns", mock.Anything, table).Return([]string{"id", "reading"}, nil)

	_, err := newService(repo).OutliersOnDate(context.Background(), day(t, "2025-07-25"), 3)
	require.Error(t, err)
	assert.True(t, core.IsSchemaDetectionError(err))
	assert.False(t, core.IsNoDataError(err))
	repo.AssertNotCalled(t, "FetchRowsOnDate", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestOutliersOnDate_NoData(t *testing.T) {
	repo := new(MockReadingRepository)
	repo.On("ListColumns", mock.Anything, table).Return(sensorColumns, nil)
	repo.On("FetchRowsOnDate", mock.Anything, table, "Time", "2025-07-26").Return([]vibration.Row{}, nil)

	_, err := newService(repo).OutliersOnDate(context.Background(), day(t, "2025-07-26"), 3)
	assert.True(t, core.IsNoDataError(err))
	assert.False(t, core.IsSchemaDetectionError(err))
}

func TestOutliersOnDate_Report(t *testing.T) {
	repo := new(MockReadingRepository)
	repo.On("ListColumns", mock.Anything, table).Return(sensorColumns, nil)
	repo.On("FetchRowsOnDate", mock.Anything, table, "Time", "2025-07-25").
		Return(dayRows("2025-07-25", 10.0, 100.0, "n/a", 10.0, -80.0, 10.0), nil)

	report, err := newService(repo).OutliersOnDate(context.Background(), day(t, "2025-07-25"), 1.0)
	require.NoError(t, err)

	assert.Equal(t, "2025-07-25", report.Date)
	assert.Equal(t, vibration.ColumnRoles{Time: "Time", Value: "Vibration"}, report.Columns)
	assert.Equal(t, 1, report.Skipped)
	require.NotNil(t, report.Summary)
	assert.Equal(t, 5, report.Summary.Count)
	assert.InDelta(t, 10.0, report.Summary.Mean, 1e-9)

	require.Len(t, report.Outliers, 2)
	first, _ := report.Outliers[0].Row.Get("Device_ID")
	second, _ := report.Outliers[1].Row.Get("Device_ID")
	assert.Equal(t, "pump-B", first)
	assert.Equal(t, "pump-E", second)
}

func TestOutliersOnDate_RejectsThresholdBeforeQuerying(t *testing.T) {
	repo := new(MockReadingRepository)
	_, err := newService(repo).OutliersOnDate(context.Background(), day(t, "2025-07-25"), 0)
	assert.ErrorIs(t, err, core.ErrInvalidThreshold)
	repo.AssertNotCalled(t, "ListColumns", mock.Anything, mock.Anything)
}

func TestReadingsOnDate(t *testing.T) {
	repo := new(MockReadingRepository)
	repo.On("ListColumns", mock.Anything, table).Return(sensorColumns, nil)
	repo.On("FetchRowsOnDate", mock.Anything, table, "Time", "2025-07-25").
		Return(dayRows("2025-07-25", 0.1, nil), nil)

	result, err := newService(repo).ReadingsOnDate(context.Background(), day(t, "2025-07-25"))
	require.NoError(t, err)
	require.Len(t, result.Readings, 2)
	require.NotNil(t, result.Readings[0].Value)
	assert.Equal(t, 0.1, *result.Readings[0].Value)
	assert.Nil(t, result.Readings[1].Value)
	assert.True(t, result.Readings[0].Timestamp.Before(result.Readings[1].Timestamp))
}

func TestMaxOnDate(t *testing.T) {
	repo := new(MockReadingRepository)
	ts := time.Date(2025, 7, 25, 14, 3, 0, 0, time.UTC)
	repo.On("ListColumns", mock.Anything, table).Return(sensorColumns, nil)
	repo.On("FetchMaxOnDate", mock.Anything, table, "Time", "Vibration", "2025-07-25").
		Return(sensorRow("pump-1", ts, 0.137), nil)
	repo.On("FetchMaxOnDate", mock.Anything, table, "Time", "Vibration", "2025-07-26").
		Return(nil, nil)

	svc := newService(repo)
	result, err := svc.MaxOnDate(context.Background(), day(t, "2025-07-25"))
	require.NoError(t, err)
	assert.Equal(t, ts, result.Reading.Timestamp)
	assert.Equal(t, 0.137, *result.Reading.Value)

	_, err = svc.MaxOnDate(context.Background(), day(t, "2025-07-26"))
	assert.True(t, core.IsNoDataError(err))
}

func TestSummaryOnDate_AllNonNumeric(t *testing.T) {
	repo := new(MockReadingRepository)
	repo.On("ListColumns", mock.Anything, table).Return(sensorColumns, nil)
	repo.On("FetchRowsOnDate", mock.Anything, table, "Time", "2025-07-25").
		Return(dayRows("2025-07-25", "bad", nil), nil)

	_, err := newService(repo).SummaryOnDate(context.Background(), day(t, "2025-07-25"))
	assert.True(t, core.IsEmptyInputError(err))
}

func TestSummaryRange(t *testing.T) {
	repo := new(MockReadingRepository)
	repo.On("ListColumns", mock.Anything, table).Return(sensorColumns, nil).Once()
	repo.On("FetchRowsOnDate", mock.Anything, table, "Time", "2025-07-24").Return(dayRows("2025-07-24", 1.0, 3.0), nil)
	repo.On("FetchRowsOnDate", mock.Anything, table, "Time", "2025-07-25").Return([]vibration.Row{}, nil)
	repo.On("FetchRowsOnDate", mock.Anything, table, "Time", "2025-07-26").Return(dayRows("2025-07-26", 4.0), nil)

	results, err := newService(repo).SummaryRange(context.Background(), day(t, "2025-07-24"), day(t, "2025-07-26"))
	require.NoError(t, err)
	require.Len(t, results, 3)

	assert.Equal(t, "2025-07-24", results[0].Date)
	assert.InDelta(t, 2.0, results[0].Summary.Mean, 1e-12)
	assert.True(t, results[1].NoData)
	assert.Nil(t, results[1].Summary)
	assert.Equal(t, 4.0, results[2].Summary.Max)
	repo.AssertExpectations(t)
}

func TestSummaryRange_PropagatesStoreErrors(t *testing.T) {
	repo := new(MockReadingRepository)
	repo.On("ListColumns", mock.Anything, table).Return(sensorColumns, nil)
	repo.On("FetchRowsOnDate", mock.Anything, table, "Time", mock.Anything).Return(nil, errors.New("connection reset"))

	_, err := newService(repo).SummaryRange(context.Background(), day(t, "2025-07-24"), day(t, "2025-07-25"))
	assert.EqualError(t, err, "connection reset")
}

func TestSummaryRange_Bounds(t *testing.T) {
	repo := new(MockReadingRepository)
	svc := NewVibrationService(repo, VibrationServiceConfig{Table: table, MaxRangeDays: 2}, internal.NewLogger(internal.LogLevelError))

	_, err := svc.SummaryRange(context.Background(), day(t, "2025-07-26"), day(t, "2025-07-24"))
	assert.ErrorIs(t, err, core.ErrInvalidDate)

	_, err = svc.SummaryRange(context.Background(), day(t, "2025-07-01"), day(t, "2025-07-03"))
	assert.ErrorIs(t, err, core.ErrInvalidDate)
}

func TestOutliersOnDate_ConcurrentCallers(t *testing.T) {
	repo := new(MockReadingRepository)
	repo.On("ListColumns", mock.Anything, table).Return(sensorColumns, nil)
	repo.On("FetchRowsOnDate", mock.Anything, table, "Time", "2025-07-25").
		Return(dayRows("2025-07-25", 10.0, 100.0, 10.0, -80.0, 10.0), nil)

	svc := newService(repo)
	var wg sync.WaitGroup
	reports := make([]*vibration.OutlierReport, 8)
	for i := range reports {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			r, err := svc.OutliersOnDate(context.Background(), day(t, "2025-07-25"), 1.0)
			if err == nil {
				reports[i] = r
			}
		}(i)
	}
	wg.Wait()

	for _, r := range reports[1:] {
		require.NotNil(t, r)
		assert.Equal(t, reports[0], r)
	}
}

func TestPreview(t *testing.T) {
	repo := new(MockReadingRepository)
	lo := time.Date(2025, 7, 15, 0, 0, 0, 0, time.UTC)
	hi := time.Date(2025, 7, 25, 23, 0, 0, 0, time.UTC)
	repo.On("TableExists", mock.Anything, table).Return(true, nil)
	repo.On("ListColumns", mock.Anything, table).Return(sensorColumns, nil)
	repo.On("Preview", mock.Anything, table, 5).Return(dayRows("2025-07-15", 0.1), nil)
	repo.On("TimeRange", mock.Anything, table, "Time").Return(&lo, &hi, nil)

	preview, err := newService(repo).Preview(context.Background(), 5)
	require.NoError(t, err)
	assert.True(t, preview.Exists)
	assert.Len(t, preview.Rows, 1)
	require.Len(t, preview.TimeRanges, 1)
	assert.Equal(t, &hi, preview.TimeRanges[0].Max)
}

func TestPreview_MissingTable(t *testing.T) {
	repo := new(MockReadingRepository)
	repo.On("TableExists", mock.Anything, table).Return(false, nil)

	preview, err := newService(repo).Preview(context.Background(), 5)
	require.NoError(t, err)
	assert.False(t, preview.Exists)
	repo.AssertNotCalled(t, "ListColumns", mock.Anything, mock.Anything)
}

func TestPreview_TableLookupFails(t *testing.T) {
	repo := new(MockReadingRepository)
	repo.On("TableExists", mock.Anything, table).Return(false, errors.New("connection refused"))

	preview, err := newService(repo).Preview(context.Background(), 5)
	require.Error(t, err)
	assert.Nil(t, preview)
}

func TestAnalyzeListAndSum(t *testing.T) {
	svc := newService(new(MockReadingRepository))

	summary, err := svc.AnalyzeList([]float64{1, 2, 3, 4})
	require.NoError(t, err)
	assert.InDelta(t, 1.25, summary.Variance, 1e-12)

	_, err = svc.AnalyzeList(nil)
	assert.True(t, core.IsEmptyInputError(err))

	assert.InDelta(t, 0.6, svc.Sum([]float64{0.1, 0.2, 0.3}), 1e-12)
}

func TestProfileOnDate(t *testing.T) {
	repo := new(MockReadingRepository)
	repo.On("ListColumns", mock.Anything, table).Return(sensorColumns, nil)
	repo.On("FetchRowsOnDate", mock.Anything, table, "Time", "2025-07-25").
		Return(dayRows("2025-07-25", 1.0, 2.0, "x", 3.0, 4.0, 5.0), nil)

	result, err := newService(repo).ProfileOnDate(context.Background(), day(t, "2025-07-25"))
	require.NoError(t, err)
	assert.Equal(t, 5, result.Profile.Count)
	assert.Equal(t, 3.0, result.Profile.Median)
	assert.InDelta(t, 0, result.Profile.Skewness, 1e-12)
}
