package inventory

import (
	"math"
	"time"

	"github.com/andresuchdata/demandcast/internal/domain"
)

// Thresholds holds the tenant-configurable status boundaries.
type Thresholds struct {
	UnderstockedDays float64 // DIR strictly below this is understocked
	OverstockedDays  float64 // DIR strictly above this is overstocked
	DeadStockDays    int     // days without a sale before stock is dead
}

// DefaultThresholds returns the standard boundaries.
func DefaultThresholds() Thresholds {
	return Thresholds{
		UnderstockedDays: 14,
		OverstockedDays:  90,
		DeadStockDays:    60,
	}
}

// Input is everything the calculator needs for one item. AvgDailyDemand may
// come from a trailing historical window or from a forecast; the calculator
// does not care which.
type Input struct {
	ItemID           string
	CurrentStock     float64
	AvgDailyDemand   float64
	UnitCost         float64
	LeadTimeDays     int
	SafetyBufferDays int
	DaysSinceSale    *int // nil when the item has never sold
}

// Calculator converts stock and demand into days-of-inventory-remaining,
// stockout risk and a stock status.
type Calculator struct {
	thresholds Thresholds
}

func NewCalculator(thresholds Thresholds) *Calculator {
	def := DefaultThresholds()
	if thresholds.UnderstockedDays <= 0 {
		thresholds.UnderstockedDays = def.UnderstockedDays
	}
	if thresholds.OverstockedDays <= 0 {
		thresholds.OverstockedDays = def.OverstockedDays
	}
	if thresholds.DeadStockDays <= 0 {
		thresholds.DeadStockDays = def.DeadStockDays
	}
	return &Calculator{thresholds: thresholds}
}

// Calculate derives all inventory metrics for one item. DIR is nil when the
// average daily demand is zero; stockout risk is always in [0,1]; status is
// always exactly one of the six enumerated values.
func (c *Calculator) Calculate(in Input) domain.InventoryMetrics {
	metrics := domain.InventoryMetrics{
		ItemID:         in.ItemID,
		AvgDailyDemand: in.AvgDailyDemand,
		InventoryValue: in.CurrentStock * in.UnitCost,
		ComputedAt:     time.Now().UTC(),
	}

	if in.AvgDailyDemand > 0 {
		dir := in.CurrentStock / in.AvgDailyDemand
		metrics.DIR = &dir
		metrics.StockoutRisk = stockoutRisk(dir, in.LeadTimeDays, in.SafetyBufferDays)
	}

	metrics.Status = c.status(in, metrics.DIR)
	return metrics
}

// stockoutRisk measures how far DIR falls short of the required replenishment
// coverage, clamped to [0,1]. At or above full coverage the risk is zero.
func stockoutRisk(dir float64, leadTimeDays, safetyBufferDays int) float64 {
	coverage := float64(leadTimeDays + safetyBufferDays)
	if coverage <= 0 || dir >= coverage {
		return 0
	}
	risk := 1 - dir/coverage
	return math.Min(1, math.Max(0, risk))
}

// status applies the priority chain; the first matching condition wins.
func (c *Calculator) status(in Input, dir *float64) domain.StockStatus {
	switch {
	case in.CurrentStock == 0:
		return domain.StatusOutOfStock
	case in.DaysSinceSale != nil && *in.DaysSinceSale >= c.thresholds.DeadStockDays:
		return domain.StatusDeadStock
	case dir != nil && *dir < c.thresholds.UnderstockedDays:
		return domain.StatusUnderstocked
	case dir != nil && *dir > c.thresholds.OverstockedDays:
		return domain.StatusOverstocked
	case dir == nil:
		return domain.StatusUnknown
	default:
		return domain.StatusNormal
	}
}

// AverageDailyDemand computes trailing average daily demand over the last
// windowDays of observations, counting zero-sale days inside the window.
func AverageDailyDemand(history []domain.DemandObservation, windowDays int) float64 {
	if len(history) == 0 || windowDays <= 0 {
		return 0
	}
	boundary := history[len(history)-1].Date.AddDate(0, 0, -windowDays)

	var sum float64
	count := 0
	for i := len(history) - 1; i >= 0; i-- {
		if history[i].Date.Before(boundary) {
			break
		}
		sum += history[i].UnitsSold
		count++
	}
	if count == 0 {
		return 0
	}
	return sum / float64(count)
}

// DaysSinceLastSale returns the days between the most recent nonzero-demand
// observation and asOf, or nil when the history has no sales at all.
func DaysSinceLastSale(history []domain.DemandObservation, asOf time.Time) *int {
	for i := len(history) - 1; i >= 0; i-- {
		if history[i].UnitsSold > 0 {
			days := int(asOf.Sub(history[i].Date).Hours() / 24)
			if days < 0 {
				days = 0
			}
			return &days
		}
	}
	return nil
}
