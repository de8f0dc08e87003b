package service

import (
	"context"
	"fmt"
	"time"

	"github.com/andresuchdata/demandcast/internal/domain"
	"github.com/andresuchdata/demandcast/internal/inventory"
	"github.com/andresuchdata/demandcast/internal/repository"
	"github.com/rs/zerolog/log"
)

// InventoryService derives stock position metrics from the catalog's current
// stock, settings and demand history. It also serves as the post-run metrics
// refresher for the forecast orchestrator.
type InventoryService struct {
	calculator   *inventory.Calculator
	catalog      repository.CatalogRepository
	lookbackDays int
	bufferDays   int
}

func NewInventoryService(calc *inventory.Calculator, catalog repository.CatalogRepository, lookbackDays, bufferDays int) *InventoryService {
	if lookbackDays <= 0 {
		lookbackDays = 30
	}
	return &InventoryService{
		calculator:   calc,
		catalog:      catalog,
		lookbackDays: lookbackDays,
		bufferDays:   bufferDays,
	}
}

// ComputeInventoryMetrics returns the current inventory metrics for one item.
func (s *InventoryService) ComputeInventoryMetrics(ctx context.Context, itemID string) (*domain.InventoryMetrics, error) {
	if itemID == "" {
		return nil, domain.NewInvalidRequest("item_id must not be empty")
	}

	settings, err := s.catalog.GetStockAndSettings(ctx, itemID)
	if err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	history, err := s.catalog.GetHistory(ctx, itemID, now.AddDate(0, 0, -s.lookbackDays), now)
	if err != nil {
		return nil, fmt.Errorf("load history for %s: %w", itemID, err)
	}

	buffer := settings.SafetyBufferDays
	if buffer <= 0 {
		buffer = s.bufferDays
	}

	metrics := s.calculator.Calculate(inventory.Input{
		ItemID:           itemID,
		CurrentStock:     settings.CurrentStock,
		AvgDailyDemand:   inventory.AverageDailyDemand(history, s.lookbackDays),
		UnitCost:         settings.UnitCost,
		LeadTimeDays:     settings.LeadTimeDays,
		SafetyBufferDays: buffer,
		DaysSinceSale:    inventory.DaysSinceLastSale(history, now),
	})
	return &metrics, nil
}

// RefreshInventoryMetrics recomputes metrics for every item after a forecast
// run. Per-item failures are logged and skipped; the refresh never reports an
// error back to the caller.
func (s *InventoryService) RefreshInventoryMetrics(ctx context.Context, itemIDs []string) {
	for _, itemID := range itemIDs {
		if ctx.Err() != nil {
			return
		}
		if _, err := s.ComputeInventoryMetrics(ctx, itemID); err != nil {
			log.Warn().Err(err).Str("item_id", itemID).Msg("inventory metrics refresh failed")
		}
	}
	log.Debug().Int("items", len(itemIDs)).Msg("inventory metrics refreshed")
}
