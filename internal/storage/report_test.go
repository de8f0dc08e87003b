package storage

import (
	"encoding/csv"
	"strings"
	"testing"
	"time"

	"github.com/andresuchdata/demandcast/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBuildComparisonCSV(t *testing.T) {
	result := &domain.ComparisonResult{
		StartDate: time.Date(2026, 4, 1, 0, 0, 0, 0, time.UTC),
		EndDate:   time.Date(2026, 4, 30, 0, 0, 0, 0, time.UTC),
		Items: []domain.ItemComparison{
			{
				ItemID:                  "SKU-1",
				SimulatedStockoutRate:   0.1,
				RealStockoutRate:        0.2,
				SimulatedInventoryValue: 1500,
				RealInventoryValue:      2000,
				SimulatedServiceLevel:   0.9,
				RealServiceLevel:        0.8,
				TotalOrders:             4,
				FallbackDays:            2,
			},
		},
		SimulatedStockoutRate: 0.1,
		RealStockoutRate:      0.2,
		TotalOrders:           4,
	}

	data, err := BuildComparisonCSV(result)
	require.NoError(t, err)

	records, err := csv.NewReader(strings.NewReader(string(data))).ReadAll()
	require.NoError(t, err)
	require.Len(t, records, 3) // header, one item, totals

	assert.Equal(t, "item_id", records[0][0])
	assert.Equal(t, "SKU-1", records[1][0])
	assert.Equal(t, "0.1000", records[1][1])
	assert.Equal(t, "4", records[1][7])
	assert.Equal(t, "2", records[1][8])
	assert.Equal(t, "TOTAL", records[2][0])
}

func TestBuildComparisonCSVEmptyRun(t *testing.T) {
	data, err := BuildComparisonCSV(&domain.ComparisonResult{})
	require.NoError(t, err)

	records, err := csv.NewReader(strings.NewReader(string(data))).ReadAll()
	require.NoError(t, err)
	assert.Len(t, records, 2) // header and totals only
}
