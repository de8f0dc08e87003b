package inventory

import (
	"testing"
	"time"

	"github.com/andresuchdata/demandcast/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func intPtr(v int) *int { return &v }

func TestCalculateDIRNilWhenNoDemand(t *testing.T) {
	c := NewCalculator(DefaultThresholds())

	m := c.Calculate(Input{
		ItemID:       "SKU-1",
		CurrentStock: 50,
		UnitCost:     2,
	})

	assert.Nil(t, m.DIR)
	assert.Zero(t, m.StockoutRisk)
	assert.Equal(t, domain.StatusUnknown, m.Status)
	assert.InDelta(t, 100, m.InventoryValue, 1e-9)
}

func TestCalculateFullCoverageHasZeroRisk(t *testing.T) {
	c := NewCalculator(Thresholds{UnderstockedDays: 10})

	m := c.Calculate(Input{
		ItemID:           "SKU-1",
		CurrentStock:     100,
		AvgDailyDemand:   10,
		UnitCost:         1,
		LeadTimeDays:     7,
		SafetyBufferDays: 3,
	})

	require.NotNil(t, m.DIR)
	assert.InDelta(t, 10, *m.DIR, 1e-9)
	assert.Zero(t, m.StockoutRisk)
	assert.Equal(t, domain.StatusNormal, m.Status)
}

func TestCalculateRiskWithinBounds(t *testing.T) {
	c := NewCalculator(DefaultThresholds())

	m := c.Calculate(Input{
		ItemID:           "SKU-1",
		CurrentStock:     5,
		AvgDailyDemand:   10,
		LeadTimeDays:     7,
		SafetyBufferDays: 3,
	})

	// DIR 0.5 against 10 days of required coverage.
	assert.InDelta(t, 0.95, m.StockoutRisk, 1e-9)
	assert.GreaterOrEqual(t, m.StockoutRisk, 0.0)
	assert.LessOrEqual(t, m.StockoutRisk, 1.0)
}

func TestCalculateStatusPriority(t *testing.T) {
	c := NewCalculator(DefaultThresholds())

	tests := []struct {
		name string
		in   Input
		want domain.StockStatus
	}{
		{
			name: "out of stock wins over everything",
			in:   Input{CurrentStock: 0, AvgDailyDemand: 10, DaysSinceSale: intPtr(90)},
			want: domain.StatusOutOfStock,
		},
		{
			name: "dead stock wins over understocked",
			in:   Input{CurrentStock: 10, AvgDailyDemand: 10, DaysSinceSale: intPtr(70)},
			want: domain.StatusDeadStock,
		},
		{
			name: "understocked below threshold",
			in:   Input{CurrentStock: 10, AvgDailyDemand: 5, DaysSinceSale: intPtr(1)},
			want: domain.StatusUnderstocked,
		},
		{
			name: "overstocked above threshold",
			in:   Input{CurrentStock: 1000, AvgDailyDemand: 1, DaysSinceSale: intPtr(1)},
			want: domain.StatusOverstocked,
		},
		{
			name: "unknown without demand signal",
			in:   Input{CurrentStock: 10},
			want: domain.StatusUnknown,
		},
		{
			name: "normal otherwise",
			in:   Input{CurrentStock: 300, AvgDailyDemand: 10, DaysSinceSale: intPtr(1)},
			want: domain.StatusNormal,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tt.in.ItemID = "SKU-1"
			assert.Equal(t, tt.want, c.Calculate(tt.in).Status)
		})
	}
}

func TestAverageDailyDemand(t *testing.T) {
	start := time.Date(2026, 2, 1, 0, 0, 0, 0, time.UTC)
	history := []domain.DemandObservation{
		{Date: start, UnitsSold: 100}, // outside the 7-day window
		{Date: start.AddDate(0, 0, 10), UnitsSold: 4},
		{Date: start.AddDate(0, 0, 12), UnitsSold: 0},
		{Date: start.AddDate(0, 0, 14), UnitsSold: 8},
	}

	avg := AverageDailyDemand(history, 7)

	assert.InDelta(t, 4, avg, 1e-9)
	assert.Zero(t, AverageDailyDemand(nil, 7))
}

func TestDaysSinceLastSale(t *testing.T) {
	start := time.Date(2026, 2, 1, 0, 0, 0, 0, time.UTC)
	history := []domain.DemandObservation{
		{Date: start, UnitsSold: 5},
		{Date: start.AddDate(0, 0, 5), UnitsSold: 0},
	}

	days := DaysSinceLastSale(history, start.AddDate(0, 0, 9))
	require.NotNil(t, days)
	assert.Equal(t, 9, *days)

	noSales := []domain.DemandObservation{{Date: start, UnitsSold: 0}}
	assert.Nil(t, DaysSinceLastSale(noSales, start.AddDate(0, 0, 9)))
}
