package forecast

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/andresuchdata/demandcast/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubHistory struct {
	byItem map[string][]domain.DemandObservation
}

func (s *stubHistory) GetHistory(_ context.Context, itemID string, start, end time.Time) ([]domain.DemandObservation, error) {
	var out []domain.DemandObservation
	for _, obs := range s.byItem[itemID] {
		if obs.Date.Before(start) || obs.Date.After(end) {
			continue
		}
		out = append(out, obs)
	}
	return out, nil
}

type stubMethod struct {
	name     string
	value    float64
	failWith error
}

func (m *stubMethod) Name() string { return m.name }

func (m *stubMethod) Forecast(_ context.Context, _ []domain.DemandObservation, horizon int, start time.Time) ([]domain.ForecastPoint, error) {
	if m.failWith != nil {
		return nil, m.failWith
	}
	return constantSeries(start, horizon, m.value, nil, nil), nil
}

func recentSeries(itemID string, values []float64) []domain.DemandObservation {
	end := time.Now().UTC().Truncate(24 * time.Hour)
	start := end.AddDate(0, 0, -(len(values) - 1))
	obs := make([]domain.DemandObservation, len(values))
	for i, v := range values {
		obs[i] = domain.DemandObservation{ItemID: itemID, Date: start.AddDate(0, 0, i), UnitsSold: v}
	}
	return obs
}

func flatSeries(itemID string, v float64, n int) []domain.DemandObservation {
	values := make([]float64, n)
	for i := range values {
		values[i] = v
	}
	return recentSeries(itemID, values)
}

func newTestOrchestrator(registry *Registry, hist *stubHistory) *Orchestrator {
	return NewOrchestrator(registry, hist, nil, nil, Config{
		LookbackDays:    60,
		FallbackWindow:  30,
		ItemWorkerCount: 2,
		BaselineMethod:  "steady",
		DefaultHorizon:  7,
	})
}

func TestRunIsolatesMethodFailures(t *testing.T) {
	registry := NewRegistry()
	registry.Register(&stubMethod{name: "steady", value: 5})
	registry.Register(&stubMethod{name: "broken", failWith: errors.New("model exploded")})

	hist := &stubHistory{byItem: map[string][]domain.DemandObservation{
		"A": flatSeries("A", 5, 60),
	}}
	o := newTestOrchestrator(registry, hist)

	result, err := o.Run(context.Background(), Request{
		ItemIDs:          []string{"A"},
		PredictionLength: 7,
		RunAllMethods:    true,
	})
	require.NoError(t, err)
	require.Len(t, result.Items, 1)
	require.Len(t, result.Items[0].Outcomes, 2)

	byMethod := map[string]domain.MethodOutcome{}
	for _, outcome := range result.Items[0].Outcomes {
		byMethod[outcome.Method] = outcome
	}

	assert.Equal(t, "failed", byMethod["broken"].Status)
	assert.Contains(t, byMethod["broken"].Error, "model exploded")
	assert.Equal(t, "completed", byMethod["steady"].Status)
	assert.Len(t, byMethod["steady"].Points, 7)
	assert.Equal(t, domain.RunStatusCompleted, result.Run.Status)
}

func TestRunAppliesFallbackOnZeroForecast(t *testing.T) {
	registry := NewRegistry()
	registry.Register(&stubMethod{name: "steady", value: 0})

	hist := &stubHistory{byItem: map[string][]domain.DemandObservation{
		"A": flatSeries("A", 4, 60),
	}}
	o := newTestOrchestrator(registry, hist)

	result, err := o.Run(context.Background(), Request{
		ItemIDs:          []string{"A"},
		PredictionLength: 5,
		PrimaryMethod:    "steady",
	})
	require.NoError(t, err)

	outcome := result.Items[0].Outcomes[0]
	assert.Equal(t, "completed", outcome.Status)
	assert.True(t, outcome.UsedFallback)
	for _, p := range outcome.Points {
		assert.InDelta(t, 4, p.Value, 1e-9)
	}
}

func TestRunKeepsZeroForecastForDeadStock(t *testing.T) {
	registry := NewRegistry()
	registry.Register(&stubMethod{name: "steady", value: 0})

	hist := &stubHistory{byItem: map[string][]domain.DemandObservation{
		"A": flatSeries("A", 0, 60),
	}}
	o := newTestOrchestrator(registry, hist)

	result, err := o.Run(context.Background(), Request{
		ItemIDs:          []string{"A"},
		PredictionLength: 5,
		PrimaryMethod:    "steady",
	})
	require.NoError(t, err)

	outcome := result.Items[0].Outcomes[0]
	assert.Equal(t, "completed", outcome.Status)
	assert.False(t, outcome.UsedFallback)
	for _, p := range outcome.Points {
		assert.Zero(t, p.Value)
	}
}

func TestRunSkipsItemsWithoutHistory(t *testing.T) {
	registry := NewRegistry()
	registry.Register(&stubMethod{name: "steady", value: 5})

	hist := &stubHistory{byItem: map[string][]domain.DemandObservation{
		"A": flatSeries("A", 5, 60),
	}}
	o := newTestOrchestrator(registry, hist)

	result, err := o.Run(context.Background(), Request{
		ItemIDs:          []string{"A", "ghost"},
		PredictionLength: 7,
		PrimaryMethod:    "steady",
	})
	require.NoError(t, err)
	require.Len(t, result.Items, 2)

	assert.False(t, result.Items[0].Skipped)
	assert.True(t, result.Items[1].Skipped)
	assert.NotEmpty(t, result.Items[1].Reason)
	assert.Equal(t, domain.RunStatusCompleted, result.Run.Status)
}

func TestRunValidation(t *testing.T) {
	registry := NewRegistry()
	registry.Register(&stubMethod{name: "steady", value: 5})
	o := newTestOrchestrator(registry, &stubHistory{})

	tests := []struct {
		name string
		req  Request
	}{
		{"empty item ids", Request{PredictionLength: 7}},
		{"negative horizon", Request{ItemIDs: []string{"A"}, PredictionLength: -1}},
		{"unknown method", Request{ItemIDs: []string{"A"}, PredictionLength: 7, PrimaryMethod: "nope"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := o.Run(context.Background(), tt.req)
			require.Error(t, err)
			assert.True(t, IsInvalidRequest(err))
		})
	}
}

func TestRunRespectsTrainingEndDate(t *testing.T) {
	registry := NewRegistry()
	registry.Register(&stubMethod{name: "steady", value: 5})

	hist := &stubHistory{byItem: map[string][]domain.DemandObservation{
		"A": flatSeries("A", 5, 60),
	}}
	o := newTestOrchestrator(registry, hist)

	trainingEnd := time.Now().UTC().Truncate(24 * time.Hour).AddDate(0, 0, -10)
	result, err := o.Run(context.Background(), Request{
		ItemIDs:          []string{"A"},
		PredictionLength: 3,
		PrimaryMethod:    "steady",
		TrainingEndDate:  &trainingEnd,
	})
	require.NoError(t, err)

	points := result.Items[0].Outcomes[0].Points
	require.Len(t, points, 3)
	assert.Equal(t, trainingEnd.AddDate(0, 0, 1), points[0].Date)
}
