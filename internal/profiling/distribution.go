// Package profiling describes the distribution shape of vibration readings.
package profiling

import (
	"fmt"
	"math"

	"phmagent/domain/core"
	"phmagent/domain/vibration"

	"github.com/montanaflynn/stats"
	"gonum.org/v1/gonum/stat"
	"gonum.org/v1/gonum/stat/distuv"
)

// NormalityAlpha is the significance level of the normality test.
const NormalityAlpha = 0.05

// fenceFactor is Tukey's multiplier for IQR fences.
const fenceFactor = 1.5

// Profile computes quartiles, Tukey fences, moments and a Jarque-Bera
// normality test. Moments need at least four values and are zero below that.
func Profile(data []float64) (vibration.DistributionProfile, error) {
	var p vibration.DistributionProfile
	if len(data) == 0 {
		return p, fmt.Errorf("%w: profile of zero values", core.ErrEmptyInput)
	}
	p.Count = len(data)

	var err error
	if p.Median, err = stats.Median(data); err != nil {
		return p, err
	}
	if p.Q25, err = stats.Percentile(data, 25); err != nil {
		return p, err
	}
	if p.Q75, err = stats.Percentile(data, 75); err != nil {
		return p, err
	}
	if p.P95, err = stats.Percentile(data, 95); err != nil {
		return p, err
	}

	p.IQR = p.Q75 - p.Q25
	p.LowerFence = p.Q25 - fenceFactor*p.IQR
	p.UpperFence = p.Q75 + fenceFactor*p.IQR
	for _, x := range data {
		if x < p.LowerFence || x > p.UpperFence {
			p.FenceOutliers++
		}
	}

	mean, std := stat.PopMeanStdDev(data, nil)
	p.NoiseCoefficient = noiseCoefficient(mean, std)

	if len(data) < 4 || !(std > 0) {
		p.NormalityP = 1
		return p, nil
	}

	p.Skewness = stat.Skew(data, nil)
	p.ExcessKurtosis = stat.ExKurtosis(data, nil)
	n := float64(len(data))
	p.JarqueBera = n / 6 * (p.Skewness*p.Skewness + p.ExcessKurtosis*p.ExcessKurtosis/4)
	p.NormalityP = 1 - distuv.ChiSquared{K: 2}.CDF(p.JarqueBera)
	p.IsNormal = p.NormalityP > NormalityAlpha
	return p, nil
}

// noiseCoefficient is the coefficient of variation halved and capped at 1.
func noiseCoefficient(mean, std float64) float64 {
	if mean == 0 || math.IsNaN(std) {
		return 1
	}
	return math.Min(std/math.Abs(mean)/2, 1)
}
