package classifier

import (
	"testing"
	"time"

	"github.com/andresuchdata/demandcast/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func makeSeries(t *testing.T, values []float64) []domain.DemandObservation {
	t.Helper()
	start := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	obs := make([]domain.DemandObservation, len(values))
	for i, v := range values {
		obs[i] = domain.DemandObservation{
			ItemID:    "SKU-1",
			Date:      start.AddDate(0, 0, i),
			UnitsSold: v,
		}
	}
	return obs
}

func repeat(v float64, n int) []float64 {
	out := make([]float64, n)
	for i := range out {
		out[i] = v
	}
	return out
}

func TestClassifySteadyDemand(t *testing.T) {
	c := New(DefaultConfig())

	result := c.Classify("SKU-1", makeSeries(t, repeat(10, 30)), domain.ABCClassA)

	assert.False(t, result.InsufficientData)
	assert.Equal(t, domain.XYZClassX, result.XYZClass)
	assert.Equal(t, domain.PatternRegular, result.DemandPattern)
	assert.InDelta(t, 0, result.CV, 1e-9)
	assert.InDelta(t, 1, result.ADI, 1e-9)
	assert.InDelta(t, 1, result.ForecastabilityScore, 1e-9)
	assert.Equal(t, domain.MethodMLModel, result.RecommendedMethod)
}

func TestClassifyHighVariabilityRoutesToMinMax(t *testing.T) {
	c := New(DefaultConfig())

	// Daily demand with one extreme spike: regular pattern but very high CV.
	values := repeat(1, 30)
	values[15] = 100

	result := c.Classify("SKU-1", makeSeries(t, values), domain.ABCClassA)

	assert.Equal(t, domain.PatternRegular, result.DemandPattern)
	assert.Equal(t, domain.XYZClassZ, result.XYZClass)
	assert.Equal(t, domain.MethodMinMax, result.RecommendedMethod)
}

func TestClassifyIntermittentRoutesToCroston(t *testing.T) {
	c := New(DefaultConfig())

	// Demand of constant size every third day: sporadic but stable sizes.
	values := make([]float64, 30)
	for i := 0; i < 30; i += 3 {
		values[i] = 5
	}

	result := c.Classify("SKU-1", makeSeries(t, values), domain.ABCClassB)

	assert.Equal(t, domain.PatternIntermittent, result.DemandPattern)
	assert.Equal(t, domain.MethodCroston, result.RecommendedMethod)
	assert.Greater(t, result.ADI, 1.32)
}

func TestClassifyLumpyRoutesToSBA(t *testing.T) {
	c := New(DefaultConfig())

	// Sporadic demand with wildly varying sizes.
	values := make([]float64, 30)
	sizes := []float64{1, 50, 2, 60, 1, 55, 2, 70, 1, 65}
	for i, s := range sizes {
		values[i*3] = s
	}

	result := c.Classify("SKU-1", makeSeries(t, values), domain.ABCClassA)

	assert.Equal(t, domain.PatternLumpy, result.DemandPattern)
	assert.Equal(t, domain.MethodSBA, result.RecommendedMethod)
}

func TestClassifyLowValueRegularRoutesToMovingAverage(t *testing.T) {
	c := New(DefaultConfig())

	result := c.Classify("SKU-1", makeSeries(t, repeat(3, 30)), domain.ABCClassC)

	assert.Equal(t, domain.PatternRegular, result.DemandPattern)
	assert.Equal(t, domain.MethodMovingAverage, result.RecommendedMethod)
}

func TestClassifyInsufficientData(t *testing.T) {
	c := New(DefaultConfig())

	tests := []struct {
		name   string
		values []float64
	}{
		{"all zero demand", repeat(0, 30)},
		{"too few observations", repeat(10, 5)},
		{"empty window", nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := c.Classify("SKU-1", makeSeries(t, tt.values), domain.ABCClassC)

			assert.True(t, result.InsufficientData)
			assert.Equal(t, domain.MethodMovingAverage, result.RecommendedMethod)
		})
	}
}

func TestClassifyIsDeterministic(t *testing.T) {
	c := New(DefaultConfig())
	series := makeSeries(t, []float64{4, 0, 7, 2, 0, 9, 3, 1, 0, 6, 5, 0, 8, 2, 4, 0, 7, 3, 1, 5})

	first := c.Classify("SKU-1", series, domain.ABCClassB)
	second := c.Classify("SKU-1", series, domain.ABCClassB)

	first.ComputedAt = second.ComputedAt
	assert.Equal(t, first, second)
}

func TestRankABCSplits(t *testing.T) {
	c := New(DefaultConfig())

	classes := c.RankABC(map[string]float64{
		"big":    800,
		"medium": 150,
		"small":  50,
	})

	require.Len(t, classes, 3)
	assert.Equal(t, domain.ABCClassA, classes["big"])
	assert.Equal(t, domain.ABCClassB, classes["medium"])
	assert.Equal(t, domain.ABCClassC, classes["small"])
}

func TestRankABCZeroTotal(t *testing.T) {
	c := New(DefaultConfig())

	classes := c.RankABC(map[string]float64{"a": 0, "b": 0})

	assert.Equal(t, domain.ABCClassC, classes["a"])
	assert.Equal(t, domain.ABCClassC, classes["b"])
}

func TestRankABCTieBreaksOnItemID(t *testing.T) {
	c := New(DefaultConfig())

	first := c.RankABC(map[string]float64{"a": 100, "b": 100, "c": 100})
	second := c.RankABC(map[string]float64{"c": 100, "b": 100, "a": 100})

	assert.Equal(t, first, second)
}
