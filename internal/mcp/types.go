// Package mcp exposes the vibration engine as MCP (Model Context Protocol)
// tools for agent runtimes.
package mcp

import "phmagent/domain/vibration"

// DateInput selects one calendar day.
type DateInput struct {
	Date string `json:"date" jsonschema:"Calendar date in YYYY-MM-DD format"`
}

// OutliersInput selects a day and a detection threshold.
type OutliersInput struct {
	Date      string  `json:"date" jsonschema:"Calendar date in YYYY-MM-DD format"`
	Threshold float64 `json:"threshold,omitempty" jsonschema:"Standard deviations from the mean that mark an outlier (default 3.0)"`
}

// ValuesInput carries a caller-supplied list of numbers.
type ValuesInput struct {
	Values []float64 `json:"values" jsonschema:"Numbers to analyze"`
}

// WeatherInput names a city.
type WeatherInput struct {
	City string `json:"city" jsonschema:"City name"`
}

// AddInput holds two integers.
type AddInput struct {
	A int `json:"a" jsonschema:"First integer"`
	B int `json:"b" jsonschema:"Second integer"`
}

// EmptyInput is used by tools without parameters.
type EmptyInput struct{}

// ReadingOutput is one time/value pair. Value is null when the row holds no number.
type ReadingOutput struct {
	Timestamp string   `json:"timestamp"`
	Value     *float64 `json:"value"`
}

// AllOnDateOutput lists every reading of a day.
type AllOnDateOutput struct {
	Date        string          `json:"date"`
	TimeColumn  string          `json:"time_column"`
	ValueColumn string          `json:"value_column"`
	Count       int             `json:"count"`
	Readings    []ReadingOutput `json:"readings"`
}

// MaxOnDateOutput is the day's largest reading.
type MaxOnDateOutput struct {
	Date        string        `json:"date"`
	TimeColumn  string        `json:"time_column"`
	ValueColumn string        `json:"value_column"`
	Reading     ReadingOutput `json:"reading"`
}

// OutlierOutput is one flagged row with all of its columns.
type OutlierOutput struct {
	Index     int                    `json:"index"`
	Value     float64                `json:"value"`
	Deviation float64                `json:"deviation"`
	Row       map[string]interface{} `json:"row"`
}

// OutliersOutput reports the outliers of a day.
type OutliersOutput struct {
	Date        string                       `json:"date"`
	TimeColumn  string                       `json:"time_column"`
	ValueColumn string                       `json:"value_column"`
	Threshold   float64                      `json:"threshold"`
	StdDev      float64                      `json:"std_dev"`
	Summary     *vibration.StatisticsSummary `json:"summary,omitempty"`
	Skipped     int                          `json:"skipped"`
	Count       int                          `json:"count"`
	Outliers    []OutlierOutput              `json:"outliers"`
}

// SummaryOutput wraps descriptive statistics.
type SummaryOutput struct {
	Summary vibration.StatisticsSummary `json:"summary"`
	StdDev  float64                     `json:"std_dev"`
}

// SumOutput is the sum of a list.
type SumOutput struct {
	Sum   float64 `json:"sum"`
	Count int     `json:"count"`
}

// TimeOutput is the server's current time.
type TimeOutput struct {
	Time string `json:"time"`
}

// WeatherOutput is a forecast.
type WeatherOutput struct {
	City     string `json:"city"`
	Forecast string `json:"forecast"`
}

// AddOutput is the sum of two integers.
type AddOutput struct {
	Result int `json:"result"`
}
