package service

import (
	"context"
	"fmt"
	"time"

	"github.com/andresuchdata/demandcast/internal/domain"
	"github.com/andresuchdata/demandcast/internal/forecast"
	"github.com/andresuchdata/demandcast/internal/quality"
	"github.com/andresuchdata/demandcast/internal/repository"
)

// ForecastService fronts the orchestrator and derives quality metrics from
// persisted forecast rows.
type ForecastService struct {
	orchestrator *forecast.Orchestrator
	forecasts    repository.ForecastRepository
}

func NewForecastService(orchestrator *forecast.Orchestrator, forecasts repository.ForecastRepository) *ForecastService {
	return &ForecastService{
		orchestrator: orchestrator,
		forecasts:    forecasts,
	}
}

// GenerateForecast runs the orchestrator for the requested items and methods.
func (s *ForecastService) GenerateForecast(ctx context.Context, req forecast.Request) (*domain.ForecastRunResult, error) {
	return s.orchestrator.Run(ctx, req)
}

// GetQualityMetrics scores past forecasts for one item and method over a
// trailing window. Actuals are back-filled from history first, so rows whose
// date has passed since the last call are picked up.
func (s *ForecastService) GetQualityMetrics(ctx context.Context, itemID, method string, windowDays int) (*domain.QualityMetrics, error) {
	if itemID == "" {
		return nil, domain.NewInvalidRequest("item_id must not be empty")
	}
	if method == "" {
		return nil, domain.NewInvalidRequest("method must not be empty")
	}
	if windowDays <= 0 {
		windowDays = 30
	}

	since := time.Now().UTC().AddDate(0, 0, -windowDays)

	if err := s.forecasts.BackfillActuals(ctx, itemID, method, since); err != nil {
		return nil, fmt.Errorf("backfill actuals for %s/%s: %w", itemID, method, err)
	}

	results, err := s.forecasts.GetResults(ctx, itemID, method, since)
	if err != nil {
		return nil, fmt.Errorf("load forecast results for %s/%s: %w", itemID, method, err)
	}

	pairs := quality.MatchSeries(results)
	metrics := quality.Calculate(itemID, method, windowDays, pairs)
	return &metrics, nil
}
