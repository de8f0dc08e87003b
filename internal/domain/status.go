package domain

import "strings"

// StockStatus is the inventory status of an item. Exactly one of the six
// values applies at any time.
type StockStatus string

const (
	StatusOutOfStock   StockStatus = "out_of_stock"
	StatusDeadStock    StockStatus = "dead_stock"
	StatusUnderstocked StockStatus = "understocked"
	StatusOverstocked  StockStatus = "overstocked"
	StatusUnknown      StockStatus = "unknown"
	StatusNormal       StockStatus = "normal"
)

var stockStatusLabels = map[StockStatus]string{
	StatusOutOfStock:   "Out of Stock",
	StatusDeadStock:    "Dead Stock",
	StatusUnderstocked: "Understocked",
	StatusOverstocked:  "Overstocked",
	StatusUnknown:      "Unknown",
	StatusNormal:       "Normal",
}

var stockStatusCodes = map[string]StockStatus{
	"out_of_stock": StatusOutOfStock,
	"dead_stock":   StatusDeadStock,
	"understocked": StatusUnderstocked,
	"overstocked":  StatusOverstocked,
	"unknown":      StatusUnknown,
	"normal":       StatusNormal,
}

// Label returns a human-readable label for a stock status.
func (s StockStatus) Label() string {
	if label, ok := stockStatusLabels[s]; ok {
		return label
	}

	return "Unknown"
}

// ParseStockStatus returns the status for a given code (case-insensitive).
func ParseStockStatus(code string) (StockStatus, bool) {
	status, ok := stockStatusCodes[strings.ToLower(strings.TrimSpace(code))]

	return status, ok
}
