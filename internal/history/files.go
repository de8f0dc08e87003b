package history

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/andresuchdata/demandcast/internal/domain"
	"github.com/xuri/excelize/v2"
)

// Expected columns, by header name (case-insensitive):
// item_id, date, units_sold, stock_on_date, promotion_flag, holiday_flag,
// marketing_spend. Only item_id, date and units_sold are required.

// LoadFile loads demand observations from a CSV or XLSX file, dispatching on
// the extension.
func LoadFile(path string) ([]domain.DemandObservation, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".csv":
		return LoadCSV(path)
	case ".xlsx":
		return LoadXLSX(path)
	default:
		return nil, fmt.Errorf("unsupported history file type: %s", path)
	}
}

// LoadCSV reads demand observations from a CSV file with a header row.
func LoadCSV(path string) ([]domain.DemandObservation, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open history file %s: %w", path, err)
	}
	defer f.Close()

	reader := csv.NewReader(f)
	header, err := reader.Read()
	if err != nil {
		return nil, fmt.Errorf("failed to read header from %s: %w", path, err)
	}

	cols := columnIndex(header)
	var observations []domain.DemandObservation
	line := 1
	for {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("failed to read %s line %d: %w", path, line, err)
		}
		line++

		obs, err := parseRow(record, cols)
		if err != nil {
			return nil, fmt.Errorf("%s line %d: %w", path, line, err)
		}
		observations = append(observations, obs)
	}

	return observations, nil
}

// LoadXLSX reads demand observations from the first sheet of an XLSX file.
func LoadXLSX(path string) ([]domain.DemandObservation, error) {
	f, err := excelize.OpenFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open xlsx file %s: %w", path, err)
	}
	defer f.Close()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return nil, fmt.Errorf("xlsx file %s has no sheets", path)
	}

	rows, err := f.GetRows(sheets[0])
	if err != nil {
		return nil, fmt.Errorf("failed to read rows from sheet %s: %w", sheets[0], err)
	}
	if len(rows) == 0 {
		return nil, fmt.Errorf("xlsx file %s is empty", path)
	}

	cols := columnIndex(rows[0])
	var observations []domain.DemandObservation
	for i, row := range rows[1:] {
		obs, err := parseRow(row, cols)
		if err != nil {
			return nil, fmt.Errorf("%s row %d: %w", path, i+2, err)
		}
		observations = append(observations, obs)
	}

	return observations, nil
}

// LoadDir loads every CSV and XLSX file in a directory into one series.
func LoadDir(dir string) ([]domain.DemandObservation, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("failed to read history dir %s: %w", dir, err)
	}

	var all []domain.DemandObservation
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		ext := strings.ToLower(filepath.Ext(entry.Name()))
		if ext != ".csv" && ext != ".xlsx" {
			continue
		}
		obs, err := LoadFile(filepath.Join(dir, entry.Name()))
		if err != nil {
			return nil, err
		}
		all = append(all, obs...)
	}

	return all, nil
}

func columnIndex(header []string) map[string]int {
	cols := make(map[string]int, len(header))
	for i, name := range header {
		cols[strings.ToLower(strings.TrimSpace(name))] = i
	}
	return cols
}

func parseRow(record []string, cols map[string]int) (domain.DemandObservation, error) {
	var obs domain.DemandObservation

	itemIdx, ok := cols["item_id"]
	if !ok || itemIdx >= len(record) {
		return obs, fmt.Errorf("missing item_id column")
	}
	dateIdx, ok := cols["date"]
	if !ok || dateIdx >= len(record) {
		return obs, fmt.Errorf("missing date column")
	}
	soldIdx, ok := cols["units_sold"]
	if !ok || soldIdx >= len(record) {
		return obs, fmt.Errorf("missing units_sold column")
	}

	date, err := time.Parse("2006-01-02", strings.TrimSpace(record[dateIdx]))
	if err != nil {
		return obs, fmt.Errorf("invalid date %q: %w", record[dateIdx], err)
	}

	sold, err := strconv.ParseFloat(strings.TrimSpace(record[soldIdx]), 64)
	if err != nil {
		return obs, fmt.Errorf("invalid units_sold %q: %w", record[soldIdx], err)
	}

	obs.ItemID = strings.TrimSpace(record[itemIdx])
	obs.Date = date
	obs.UnitsSold = sold
	obs.IsWeekend = date.Weekday() == time.Saturday || date.Weekday() == time.Sunday

	if idx, ok := cols["stock_on_date"]; ok && idx < len(record) && strings.TrimSpace(record[idx]) != "" {
		stock, err := strconv.ParseFloat(strings.TrimSpace(record[idx]), 64)
		if err != nil {
			return obs, fmt.Errorf("invalid stock_on_date %q: %w", record[idx], err)
		}
		obs.StockOnDate = &stock
	}
	if idx, ok := cols["promotion_flag"]; ok && idx < len(record) {
		obs.PromotionFlag = parseBool(record[idx])
	}
	if idx, ok := cols["holiday_flag"]; ok && idx < len(record) {
		obs.HolidayFlag = parseBool(record[idx])
	}
	if idx, ok := cols["marketing_spend"]; ok && idx < len(record) && strings.TrimSpace(record[idx]) != "" {
		spend, err := strconv.ParseFloat(strings.TrimSpace(record[idx]), 64)
		if err != nil {
			return obs, fmt.Errorf("invalid marketing_spend %q: %w", record[idx], err)
		}
		obs.MarketingSpend = &spend
	}

	return obs, nil
}

func parseBool(s string) bool {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "1", "true", "yes", "y":
		return true
	}
	return false
}
