package history

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeTempCSV(t *testing.T, content string) string {
	t.Helper()
	dir := t.TempDir()
	path := filepath.Join(dir, "history.csv")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestLoadCSV(t *testing.T) {
	path := writeTempCSV(t, `item_id,date,units_sold,stock_on_date,promotion_flag
SKU-1,2026-01-03,5,120,1
SKU-1,2026-01-04,0,,0
SKU-2,2026-01-03,2.5,40,yes
`)

	obs, err := LoadCSV(path)
	require.NoError(t, err)
	require.Len(t, obs, 3)

	first := obs[0]
	assert.Equal(t, "SKU-1", first.ItemID)
	assert.Equal(t, time.Date(2026, 1, 3, 0, 0, 0, 0, time.UTC), first.Date)
	assert.Equal(t, 5.0, first.UnitsSold)
	require.NotNil(t, first.StockOnDate)
	assert.Equal(t, 120.0, *first.StockOnDate)
	assert.True(t, first.PromotionFlag)
	assert.True(t, first.IsWeekend) // 2026-01-03 is a Saturday

	assert.Nil(t, obs[1].StockOnDate)
	assert.False(t, obs[1].PromotionFlag)
	assert.True(t, obs[2].PromotionFlag)
}

func TestLoadCSVRejectsBadRows(t *testing.T) {
	tests := []struct {
		name    string
		content string
	}{
		{"missing required column", "item_id,date\nSKU-1,2026-01-03\n"},
		{"bad date", "item_id,date,units_sold\nSKU-1,03/01/2026,5\n"},
		{"bad units", "item_id,date,units_sold\nSKU-1,2026-01-03,five\n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := writeTempCSV(t, tt.content)
			_, err := LoadCSV(path)
			assert.Error(t, err)
		})
	}
}

func TestLoadFileUnsupportedExtension(t *testing.T) {
	_, err := LoadFile("history.json")
	assert.Error(t, err)
}

func TestMemoryProviderRangeAndSorting(t *testing.T) {
	base := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	path := writeTempCSV(t, `item_id,date,units_sold
SKU-1,2026-01-05,3
SKU-1,2026-01-01,1
SKU-1,2026-01-03,2
`)
	obs, err := LoadCSV(path)
	require.NoError(t, err)

	provider := NewMemoryProvider(obs)
	assert.Equal(t, []string{"SKU-1"}, provider.ItemIDs())

	got, err := provider.GetHistory(context.Background(), "SKU-1", base, base.AddDate(0, 0, 2))
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.True(t, got[0].Date.Before(got[1].Date))

	empty, err := provider.GetHistory(context.Background(), "SKU-9", base, base.AddDate(0, 0, 30))
	require.NoError(t, err)
	assert.Empty(t, empty)
}
