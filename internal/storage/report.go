package storage

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"strconv"

	"github.com/andresuchdata/demandcast/internal/domain"
)

// BuildComparisonCSV renders the per-item comparison table of a finished
// simulation run as CSV, ready for upload or local export.
func BuildComparisonCSV(result *domain.ComparisonResult) ([]byte, error) {
	var buf bytes.Buffer
	w := csv.NewWriter(&buf)

	header := []string{
		"item_id",
		"simulated_stockout_rate", "real_stockout_rate",
		"simulated_inventory_value", "real_inventory_value",
		"simulated_service_level", "real_service_level",
		"total_orders", "fallback_days",
	}
	if err := w.Write(header); err != nil {
		return nil, fmt.Errorf("write report header: %w", err)
	}

	for _, item := range result.Items {
		row := []string{
			item.ItemID,
			formatFloat(item.SimulatedStockoutRate),
			formatFloat(item.RealStockoutRate),
			formatFloat(item.SimulatedInventoryValue),
			formatFloat(item.RealInventoryValue),
			formatFloat(item.SimulatedServiceLevel),
			formatFloat(item.RealServiceLevel),
			strconv.Itoa(item.TotalOrders),
			strconv.Itoa(item.FallbackDays),
		}
		if err := w.Write(row); err != nil {
			return nil, fmt.Errorf("write report row for %s: %w", item.ItemID, err)
		}
	}

	totals := []string{
		"TOTAL",
		formatFloat(result.SimulatedStockoutRate),
		formatFloat(result.RealStockoutRate),
		formatFloat(result.SimulatedInventoryValue),
		formatFloat(result.RealInventoryValue),
		formatFloat(result.SimulatedServiceLevel),
		formatFloat(result.RealServiceLevel),
		strconv.Itoa(result.TotalOrders),
		"",
	}
	if err := w.Write(totals); err != nil {
		return nil, fmt.Errorf("write report totals: %w", err)
	}

	w.Flush()
	if err := w.Error(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'f', 4, 64)
}
