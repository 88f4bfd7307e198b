package analysis

import (
	"fmt"

	"phmagent/domain/core"
	"phmagent/domain/vibration"

	"github.com/montanaflynn/stats"
	"gonum.org/v1/gonum/floats"
)

// ComputeSummary returns count, mean, population variance, max and min.
// It never modifies values.
func ComputeSummary(values []float64) (*vibration.StatisticsSummary, error) {
	if len(values) == 0 {
		return nil, fmt.Errorf("compute summary: %w", core.ErrEmptyInput)
	}

	mean, err := stats.Mean(values)
	if err != nil {
		return nil, fmt.Errorf("compute mean: %w", err)
	}
	variance, err := stats.PopulationVariance(values)
	if err != nil {
		return nil, fmt.Errorf("compute variance: %w", err)
	}
	max, err := stats.Max(values)
	if err != nil {
		return nil, fmt.Errorf("compute max: %w", err)
	}
	min, err := stats.Min(values)
	if err != nil {
		return nil, fmt.Errorf("compute min: %w", err)
	}

	// Rounding in the sum can push the mean of identical values past them.
	if min == max {
		mean, variance = min, 0
	}
	if mean < min {
		mean = min
	}
	if mean > max {
		mean = max
	}

	return &vibration.StatisticsSummary{
		Count:    len(values),
		Mean:     mean,
		Variance: variance,
		Max:      max,
		Min:      min,
	}, nil
}

// Sum adds values. The sum of no values is zero.
func Sum(values []float64) float64 {
	return floats.Sum(values)
}
