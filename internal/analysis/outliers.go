package analysis

import (
	"fmt"
	"math"

	"phmagent/domain/core"
	"phmagent/domain/vibration"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"
)

// DefaultOutlierThreshold is the number of standard deviations a value must
// exceed to be flagged.
const DefaultOutlierThreshold = 3.0

// OutlierScan carries the moments an outlier decision was made against.
type OutlierScan struct {
	Threshold float64
	Mean      float64
	StdDev    float64
	// Values holds the numeric values in row order, skipped rows excluded.
	Values   []float64
	Scored   int
	Skipped  int
	Outliers []vibration.Outlier
}

// FindOutliers flags rows whose value lies more than threshold population
// standard deviations from the mean. Output keeps input order.
func FindOutliers(rows []vibration.Row, value ValueAccessor, threshold float64) ([]vibration.Outlier, error) {
	scan, err := DetectOutliers(rows, value, threshold)
	if err != nil {
		return nil, err
	}
	return scan.Outliers, nil
}

// DetectOutliers is FindOutliers plus the statistics behind it.
//
// Rows without a numeric value are excluded from the mean and standard
// deviation and are never flagged. When the standard deviation is zero no
// row is flagged.
func DetectOutliers(rows []vibration.Row, value ValueAccessor, threshold float64) (*OutlierScan, error) {
	if !(threshold > 0) || math.IsInf(threshold, 0) {
		return nil, core.NewInvalidThresholdError(threshold)
	}
	if len(rows) == 0 {
		return nil, fmt.Errorf("find outliers: %w", core.ErrNoData)
	}

	values := make([]float64, 0, len(rows))
	indexes := make([]int, 0, len(rows))
	for i, row := range rows {
		v, ok := value(row)
		if !ok {
			continue
		}
		values = append(values, v)
		indexes = append(indexes, i)
	}

	scan := &OutlierScan{
		Threshold: threshold,
		Values:    values,
		Scored:    len(values),
		Skipped:   len(rows) - len(values),
		Outliers:  []vibration.Outlier{},
	}
	if len(values) == 0 {
		return nil, fmt.Errorf("find outliers: %w: %d rows without a numeric value", core.ErrEmptyInput, len(rows))
	}

	mean, std := stat.PopMeanStdDev(values, nil)
	if floats.Min(values) == floats.Max(values) || math.IsNaN(std) {
		mean, std = values[0], 0
	}
	scan.Mean, scan.StdDev = mean, std

	if std == 0 {
		return scan, nil
	}

	limit := threshold * std
	for j, v := range values {
		deviation := v - mean
		if math.Abs(deviation) > limit {
			i := indexes[j]
			scan.Outliers = append(scan.Outliers, vibration.Outlier{
				Index:     i,
				Value:     v,
				Deviation: deviation,
				Row:       rows[i],
			})
		}
	}
	return scan, nil
}
