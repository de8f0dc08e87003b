package repository

import (
	"context"
	"time"

	"github.com/andresuchdata/demandcast/internal/domain"
)

// ForecastRepository persists forecast runs and results and serves them back
// for quality scoring.
type ForecastRepository interface {
	SaveRun(ctx context.Context, run *domain.ForecastRun) error
	SaveResults(ctx context.Context, results []domain.ForecastResult) error
	UpdateRunStatus(ctx context.Context, runID string, status domain.RunStatus, completedAt time.Time) error
	// BackfillActuals copies observed demand onto forecast rows whose date
	// has since passed, for the given item and method.
	BackfillActuals(ctx context.Context, itemID, method string, since time.Time) error
	GetResults(ctx context.Context, itemID, method string, since time.Time) ([]domain.ForecastResult, error)
}

// CatalogRepository reads demand history and per-item stock/settings owned
// by the surrounding application.
type CatalogRepository interface {
	GetHistory(ctx context.Context, itemID string, start, end time.Time) ([]domain.DemandObservation, error)
	GetStockAndSettings(ctx context.Context, itemID string) (*domain.ItemSettings, error)
	ListItemIDs(ctx context.Context) ([]string, error)
	// GetContributions returns per-item revenue contribution over the
	// window, for ABC ranking across the portfolio.
	GetContributions(ctx context.Context, start, end time.Time) (map[string]float64, error)
}
