package vibration

import (
	"bytes"
	"encoding/json"
	"math"
	"time"
)

// Field is one named cell of a source-table row.
type Field struct {
	Name  string
	Value interface{}
}

// Row is one source-table row with its cells in column order.
// Every field is carried through to outlier reports untouched.
type Row []Field

// Get returns the value of the named column.
func (r Row) Get(name string) (interface{}, bool) {
	for _, f := range r {
		if f.Name == name {
			return f.Value, true
		}
	}
	return nil, false
}

// Columns lists the row's column names in order.
func (r Row) Columns() []string {
	names := make([]string, len(r))
	for i, f := range r {
		names[i] = f.Name
	}
	return names
}

// MarshalJSON encodes the row as a JSON object that keeps column order.
func (r Row) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, f := range r {
		if i > 0 {
			buf.WriteByte(',')
		}
		key, err := json.Marshal(f.Name)
		if err != nil {
			return nil, err
		}
		val, err := json.Marshal(jsonSafe(f.Value))
		if err != nil {
			return nil, err
		}
		buf.Write(key)
		buf.WriteByte(':')
		buf.Write(val)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

// jsonSafe replaces values encoding/json rejects.
func jsonSafe(v interface{}) interface{} {
	switch x := v.(type) {
	case float64:
		if math.IsNaN(x) || math.IsInf(x, 0) {
			return nil
		}
	case []byte:
		return string(x)
	}
	return v
}

// ColumnRoles names the columns that play the time and value roles.
type ColumnRoles struct {
	Time  string `json:"time_column"`
	Value string `json:"value_column"`
}

// Reading is a single timestamped sensor value.
type Reading struct {
	Timestamp time.Time `json:"timestamp"`
	// Value is nil when the cell is missing or non-numeric.
	Value *float64 `json:"value"`
}

// StatisticsSummary holds descriptive statistics over numeric values.
// Variance is the population variance (divide by N).
type StatisticsSummary struct {
	Count    int     `json:"count"`
	Mean     float64 `json:"mean"`
	Variance float64 `json:"variance"`
	Max      float64 `json:"max"`
	Min      float64 `json:"min"`
}

// StdDev is the population standard deviation.
func (s StatisticsSummary) StdDev() float64 {
	return math.Sqrt(s.Variance)
}

// Outlier is a row whose value deviates from the mean by more than
// threshold standard deviations.
type Outlier struct {
	// Index is the row's position in the scanned input.
	Index     int     `json:"index"`
	Value     float64 `json:"value"`
	Deviation float64 `json:"deviation"`
	Row       Row     `json:"row"`
}

// OutlierReport is the result of scanning one day of readings.
type OutlierReport struct {
	Date      string             `json:"date"`
	Columns   ColumnRoles        `json:"columns"`
	Threshold float64            `json:"threshold"`
	Summary   *StatisticsSummary `json:"summary,omitempty"`
	StdDev    float64            `json:"std_dev"`
	Outliers  []Outlier          `json:"outliers"`
	// Skipped counts rows whose value was missing or non-numeric.
	Skipped int `json:"skipped"`
}

// DayReadings is every reading of one day in time order.
type DayReadings struct {
	Date     string      `json:"date"`
	Columns  ColumnRoles `json:"columns"`
	Readings []Reading   `json:"readings"`
}

// MaxReading is the single largest reading of a day.
type MaxReading struct {
	Date    string      `json:"date"`
	Columns ColumnRoles `json:"columns"`
	Reading Reading     `json:"reading"`
}

// DailySummary is one entry of a date-range report.
type DailySummary struct {
	Date    string             `json:"date"`
	Summary *StatisticsSummary `json:"summary,omitempty"`
	NoData  bool               `json:"no_data"`
}

// TimeRange is the earliest and latest value of a time-like column.
type TimeRange struct {
	Column string     `json:"column"`
	Min    *time.Time `json:"min"`
	Max    *time.Time `json:"max"`
}

// TablePreview describes a sensor table for operators.
type TablePreview struct {
	Table      string      `json:"table"`
	Exists     bool        `json:"exists"`
	Columns    []string    `json:"columns"`
	Rows       []Row       `json:"rows"`
	TimeRanges []TimeRange `json:"time_ranges"`
}

// DistributionProfile describes the shape of a set of readings.
type DistributionProfile struct {
	Count            int     `json:"count"`
	Median           float64 `json:"median"`
	Q25              float64 `json:"q25"`
	Q75              float64 `json:"q75"`
	P95              float64 `json:"p95"`
	IQR              float64 `json:"iqr"`
	LowerFence       float64 `json:"lower_fence"`
	UpperFence       float64 `json:"upper_fence"`
	FenceOutliers    int     `json:"fence_outliers"`
	Skewness         float64 `json:"skewness"`
	ExcessKurtosis   float64 `json:"excess_kurtosis"`
	JarqueBera       float64 `json:"jarque_bera"`
	NormalityP       float64 `json:"normality_p"`
	IsNormal         bool    `json:"is_normal"`
	NoiseCoefficient float64 `json:"noise_coefficient"`
}

// DayProfile is the distribution profile of one day's readings.
type DayProfile struct {
	Date    string              `json:"date"`
	Columns ColumnRoles         `json:"columns"`
	Profile DistributionProfile `json:"profile"`
}
