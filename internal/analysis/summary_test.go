package analysis

import (
	"math"
	"math/rand"
	"testing"

	"phmagent/domain/core"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestComputeSummary_Empty(t *testing.T) {
	summary, err := ComputeSummary(nil)
	assert.Nil(t, summary)
	assert.True(t, core.IsEmptyInputError(err))

	_, err = ComputeSummary([]float64{})
	assert.True(t, core.IsEmptyInputError(err))
}

func TestComputeSummary_Single(t *testing.T) {
	summary, err := ComputeSummary([]float64{5})
	require.NoError(t, err)
	assert.Equal(t, 1, summary.Count)
	assert.Equal(t, 5.0, summary.Mean)
	assert.Equal(t, 0.0, summary.Variance)
	assert.Equal(t, 5.0, summary.Max)
	assert.Equal(t, 5.0, summary.Min)
}

func TestComputeSummary_PopulationVariance(t *testing.T) {
	summary, err := ComputeSummary([]float64{1, 2, 3, 4})
	require.NoError(t, err)
	assert.Equal(t, 4, summary.Count)
	assert.InDelta(t, 2.5, summary.Mean, 1e-12)
	assert.InDelta(t, 1.25, summary.Variance, 1e-12)
	assert.Equal(t, 4.0, summary.Max)
	assert.Equal(t, 1.0, summary.Min)
	assert.InDelta(t, math.Sqrt(1.25), summary.StdDev(), 1e-12)
}

func TestComputeSummary_NegativeValues(t *testing.T) {
	summary, err := ComputeSummary([]float64{-0.05, 0.02, -0.11})
	require.NoError(t, err)
	assert.Equal(t, 0.02, summary.Max)
	assert.Equal(t, -0.11, summary.Min)
}

func TestComputeSummary_IdenticalValuesStayBounded(t *testing.T) {
	summary, err := ComputeSummary([]float64{0.1, 0.1, 0.1})
	require.NoError(t, err)
	assert.Equal(t, 0.1, summary.Mean)
	assert.Equal(t, 0.0, summary.Variance)
}

func TestComputeSummary_MeanWithinRange(t *testing.T) {
	rng := rand.New(rand.NewSource(7))
	for trial := 0; trial < 200; trial++ {
		n := 1 + rng.Intn(50)
		values := make([]float64, n)
		for i := range values {
			values[i] = rng.NormFloat64()*rng.Float64()*100 + rng.Float64()
		}
		summary, err := ComputeSummary(values)
		require.NoError(t, err)
		if summary.Min > summary.Mean || summary.Mean > summary.Max {
			t.Fatalf("trial %d: min %v <= mean %v <= max %v violated", trial, summary.Min, summary.Mean, summary.Max)
		}
		if summary.Variance < 0 {
			t.Fatalf("trial %d: negative variance %v", trial, summary.Variance)
		}
	}
}

func TestComputeSummary_Idempotent(t *testing.T) {
	values := []float64{0.3, 0.9, 0.1, 0.4}
	first, err := ComputeSummary(values)
	require.NoError(t, err)
	second, err := ComputeSummary(values)
	require.NoError(t, err)
	assert.Equal(t, first, second)
	assert.Equal(t, []float64{0.3, 0.9, 0.1, 0.4}, values, "input must not be reordered")
}

func TestSum(t *testing.T) {
	assert.Equal(t, 0.0, Sum(nil))
	assert.InDelta(t, 10.0, Sum([]float64{1, 2, 3, 4}), 1e-12)
}
