package forecast

import (
	"context"
	"testing"
	"time"

	"github.com/andresuchdata/demandcast/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func series(values []float64) []domain.DemandObservation {
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

func flat(v float64, n int) []float64 {
	out := make([]float64, n)
	for i := range out {
		out[i] = v
	}
	return out
}

func TestMovingAverageForecast(t *testing.T) {
	m := NewMovingAverage(7)
	start := time.Date(2026, 2, 1, 0, 0, 0, 0, time.UTC)

	points, err := m.Forecast(context.Background(), series(flat(10, 30)), 5, start)
	require.NoError(t, err)
	require.Len(t, points, 5)

	for i, p := range points {
		assert.Equal(t, start.AddDate(0, 0, i), p.Date)
		assert.InDelta(t, 10, p.Value, 1e-9)
		require.NotNil(t, p.LowerBound)
		require.NotNil(t, p.UpperBound)
		// Constant history has zero variance, so the bounds collapse.
		assert.InDelta(t, 10, *p.LowerBound, 1e-9)
		assert.InDelta(t, 10, *p.UpperBound, 1e-9)
	}
}

func TestMovingAverageNoHistory(t *testing.T) {
	m := NewMovingAverage(7)
	_, err := m.Forecast(context.Background(), nil, 5, time.Now())
	assert.Error(t, err)
}

func TestCrostonConstantIntermittentSeries(t *testing.T) {
	// Demand of 6 units every second day: rate converges to size/interval = 3.
	values := make([]float64, 30)
	for i := 1; i < 30; i += 2 {
		values[i] = 6
	}

	c := NewCroston(0.1)
	points, err := c.Forecast(context.Background(), series(values), 3, time.Now())
	require.NoError(t, err)
	require.Len(t, points, 3)

	assert.InDelta(t, 3, points[0].Value, 0.5)
}

func TestCrostonAllZeroSeriesForecastsZero(t *testing.T) {
	c := NewCroston(0.1)
	points, err := c.Forecast(context.Background(), series(flat(0, 20)), 3, time.Now())
	require.NoError(t, err)

	for _, p := range points {
		assert.Zero(t, p.Value)
	}
}

func TestSBADeflatesCroston(t *testing.T) {
	values := make([]float64, 30)
	for i := 1; i < 30; i += 2 {
		values[i] = 6
	}
	hist := series(values)

	croston, err := NewCroston(0.1).Forecast(context.Background(), hist, 1, time.Now())
	require.NoError(t, err)
	sba, err := NewSBA(0.1).Forecast(context.Background(), hist, 1, time.Now())
	require.NoError(t, err)

	assert.InDelta(t, croston[0].Value*0.95, sba[0].Value, 1e-9)
}

func TestMinMaxMidpoint(t *testing.T) {
	m := NewMinMax(30)

	points, err := m.Forecast(context.Background(), series([]float64{0, 2, 0, 10, 4, 0, 6}), 2, time.Now())
	require.NoError(t, err)
	require.Len(t, points, 2)

	assert.InDelta(t, 6, points[0].Value, 1e-9)
	require.NotNil(t, points[0].LowerBound)
	require.NotNil(t, points[0].UpperBound)
	assert.InDelta(t, 2, *points[0].LowerBound, 1e-9)
	assert.InDelta(t, 10, *points[0].UpperBound, 1e-9)
}

func TestRegistryLookup(t *testing.T) {
	r := NewRegistry()
	r.Register(NewMovingAverage(7))
	r.Register(NewCroston(0.1))

	assert.True(t, r.Has(domain.MethodMovingAverage))
	assert.False(t, r.Has(domain.MethodMLModel))

	m, err := r.Get(domain.MethodCroston)
	require.NoError(t, err)
	assert.Equal(t, domain.MethodCroston, m.Name())

	_, err = r.Get("bogus")
	assert.Error(t, err)

	assert.Equal(t, []string{domain.MethodCroston, domain.MethodMovingAverage}, r.Names())
}
