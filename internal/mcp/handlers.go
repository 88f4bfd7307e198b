package mcp

import (
	"context"
	"fmt"
	"time"

	"phmagent/app"
	"phmagent/domain/core"
	"phmagent/domain/vibration"
	apperrors "phmagent/internal/errors"
)

// Handlers adapts the application services to tool inputs and outputs.
type Handlers struct {
	vibration *app.VibrationService
	tools     *app.Toolbox
}

// NewHandlers creates tool handlers; a nil toolbox uses the system clock.
func NewHandlers(svc *app.VibrationService, tools *app.Toolbox) *Handlers {
	if tools == nil {
		tools = app.NewToolbox(nil)
	}
	return &Handlers{vibration: svc, tools: tools}
}

// toolError keeps the error kind visible to the calling model.
func toolError(err error) error {
	appErr := apperrors.FromDomain(err)
	return fmt.Errorf("%s: %v", appErr.Code, appErr)
}

func parseDate(s string) (core.Date, error) {
	d, err := core.ParseDate(s)
	if err != nil {
		return core.Date{}, toolError(err)
	}
	return d, nil
}

func readingOutput(r vibration.Reading) ReadingOutput {
	out := ReadingOutput{Value: r.Value}
	if !r.Timestamp.IsZero() {
		out.Timestamp = r.Timestamp.Format(time.RFC3339Nano)
	}
	return out
}

func rowMap(row vibration.Row) map[string]interface{} {
	m := make(map[string]interface{}, len(row))
	for _, f := range row {
		switch v := f.Value.(type) {
		case time.Time:
			m[f.Name] = v.Format(time.RFC3339Nano)
		case []byte:
			m[f.Name] = string(v)
		default:
			m[f.Name] = v
		}
	}
	return m
}

// AllOnDate returns every reading of a day.
func (h *Handlers) AllOnDate(ctx context.Context, input DateInput) (AllOnDateOutput, error) {
	date, err := parseDate(input.Date)
	if err != nil {
		return AllOnDateOutput{}, err
	}
	result, err := h.vibration.ReadingsOnDate(ctx, date)
	if err != nil {
		return AllOnDateOutput{}, toolError(err)
	}
	out := AllOnDateOutput{
		Date:        result.Date,
		TimeColumn:  result.Columns.Time,
		ValueColumn: result.Columns.Value,
		Count:       len(result.Readings),
		Readings:    make([]ReadingOutput, len(result.Readings)),
	}
	for i, r := range result.Readings {
		out.Readings[i] = readingOutput(r)
	}
	return out, nil
}

// MaxOnDate returns the day's largest reading.
func (h *Handlers) MaxOnDate(ctx context.Context, input DateInput) (MaxOnDateOutput, error) {
	date, err := parseDate(input.Date)
	if err != nil {
		return MaxOnDateOutput{}, err
	}
	result, err := h.vibration.MaxOnDate(ctx, date)
	if err != nil {
		return MaxOnDateOutput{}, toolError(err)
	}
	return MaxOnDateOutput{
		Date:        result.Date,
		TimeColumn:  result.Columns.Time,
		ValueColumn: result.Columns.Value,
		Reading:     readingOutput(result.Reading),
	}, nil
}

// OutliersOnDate flags the day's outliers. A zero threshold means the default.
func (h *Handlers) OutliersOnDate(ctx context.Context, input OutliersInput) (OutliersOutput, error) {
	date, err := parseDate(input.Date)
	if err != nil {
		return OutliersOutput{}, err
	}
	threshold := input.Threshold
	if threshold == 0 {
		threshold = h.vibration.DefaultThreshold()
	}
	report, err := h.vibration.OutliersOnDate(ctx, date, threshold)
	if err != nil {
		return OutliersOutput{}, toolError(err)
	}

	out := OutliersOutput{
		Date:        report.Date,
		TimeColumn:  report.Columns.Time,
		ValueColumn: report.Columns.Value,
		Threshold:   report.Threshold,
		StdDev:      report.StdDev,
		Summary:     report.Summary,
		Skipped:     report.Skipped,
		Count:       len(report.Outliers),
		Outliers:    make([]OutlierOutput, len(report.Outliers)),
	}
	for i, o := range report.Outliers {
		out.Outliers[i] = OutlierOutput{Index: o.Index, Value: o.Value, Deviation: o.Deviation, Row: rowMap(o.Row)}
	}
	return out, nil
}

// AnalyzeList summarizes a list of numbers.
func (h *Handlers) AnalyzeList(ctx context.Context, input ValuesInput) (SummaryOutput, error) {
	summary, err := h.vibration.AnalyzeList(input.Values)
	if err != nil {
		return SummaryOutput{}, toolError(err)
	}
	return SummaryOutput{Summary: *summary, StdDev: summary.StdDev()}, nil
}

// Sum adds a list of numbers.
func (h *Handlers) Sum(ctx context.Context, input ValuesInput) SumOutput {
	return SumOutput{Sum: h.vibration.Sum(input.Values), Count: len(input.Values)}
}

// CurrentTime reports the server clock.
func (h *Handlers) CurrentTime(ctx context.Context) TimeOutput {
	return TimeOutput{Time: h.tools.CurrentTime().Format(time.RFC3339)}
}

// Weather returns the canned forecast.
func (h *Handlers) Weather(ctx context.Context, input WeatherInput) (WeatherOutput, error) {
	if input.City == "" {
		return WeatherOutput{}, fmt.Errorf("%s: city is required", apperrors.CodeInvalidInput)
	}
	return WeatherOutput{City: input.City, Forecast: h.tools.Weather(input.City)}, nil
}

// Add sums two integers.
func (h *Handlers) Add(ctx context.Context, input AddInput) AddOutput {
	return AddOutput{Result: h.tools.Add(input.A, input.B)}
}
