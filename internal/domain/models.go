package domain

import "time"

// DemandObservation is one day of sales history for an item. It is owned by
// the history collaborator and read-only here.
type DemandObservation struct {
	ItemID         string     `json:"item_id" db:"item_id"`
	Date           time.Time  `json:"date" db:"date"`
	UnitsSold      float64    `json:"units_sold" db:"units_sold"`
	StockOnDate    *float64   `json:"stock_on_date,omitempty" db:"stock_on_date"`
	PromotionFlag  bool       `json:"promotion_flag" db:"promotion_flag"`
	HolidayFlag    bool       `json:"holiday_flag" db:"holiday_flag"`
	IsWeekend      bool       `json:"is_weekend" db:"is_weekend"`
	MarketingSpend *float64   `json:"marketing_spend,omitempty" db:"marketing_spend"`
}

// ABCClass ranks items by contribution to total volume or revenue.
type ABCClass string

const (
	ABCClassA ABCClass = "A"
	ABCClassB ABCClass = "B"
	ABCClassC ABCClass = "C"
)

// XYZClass ranks items by demand variability (coefficient of variation).
type XYZClass string

const (
	XYZClassX XYZClass = "X"
	XYZClassY XYZClass = "Y"
	XYZClassZ XYZClass = "Z"
)

// DemandPattern describes the shape of an item's demand series.
type DemandPattern string

const (
	PatternRegular      DemandPattern = "regular"
	PatternIntermittent DemandPattern = "intermittent"
	PatternLumpy        DemandPattern = "lumpy"
)

// SKUClassification is the full classification of one item over a lookback
// window. Recomputed on demand; a recompute supersedes the previous result.
type SKUClassification struct {
	ItemID             string        `json:"item_id"`
	ABCClass           ABCClass      `json:"abc_class"`
	XYZClass           XYZClass      `json:"xyz_class"`
	DemandPattern      DemandPattern `json:"demand_pattern"`
	ForecastabilityScore float64     `json:"forecastability_score"`
	RecommendedMethod  string        `json:"recommended_method"`
	CV                 float64       `json:"cv"`
	ADI                float64       `json:"adi"`
	InsufficientData   bool          `json:"insufficient_data"`
	ComputedAt         time.Time     `json:"computed_at"`
}

// RunStatus is the lifecycle state of a forecast run.
type RunStatus string

const (
	RunStatusRunning   RunStatus = "running"
	RunStatusCompleted RunStatus = "completed"
	RunStatusFailed    RunStatus = "failed"
)

// ForecastRun records one orchestrator invocation across a set of items.
type ForecastRun struct {
	ID               string     `json:"run_id" db:"id"`
	ItemIDs          []string   `json:"item_ids" db:"-"`
	PrimaryMethod    string     `json:"primary_method" db:"primary_method"`
	PredictionLength int        `json:"prediction_length" db:"prediction_length"`
	IncludeBaseline  bool       `json:"include_baseline" db:"include_baseline"`
	TrainingEndDate  *time.Time `json:"training_end_date,omitempty" db:"training_end_date"`
	Status           RunStatus  `json:"status" db:"status"`
	CreatedAt        time.Time  `json:"created_at" db:"created_at"`
	CompletedAt      *time.Time `json:"completed_at,omitempty" db:"completed_at"`
}

// ForecastPoint is a single forecasted day from one method.
type ForecastPoint struct {
	Date        time.Time `json:"date"`
	Value       float64   `json:"value"`
	LowerBound  *float64  `json:"lower_bound,omitempty"`
	UpperBound  *float64  `json:"upper_bound,omitempty"`
}

// ForecastResult is one persisted forecast row for (run, item, method, date).
// ActualValue is back-filled from history later for quality scoring.
type ForecastResult struct {
	RunID       string    `json:"run_id" db:"run_id"`
	ItemID      string    `json:"item_id" db:"item_id"`
	Method      string    `json:"method" db:"method"`
	Date        time.Time `json:"date" db:"date"`
	Value       float64   `json:"point_forecast" db:"point_forecast"`
	LowerBound  *float64  `json:"lower_bound,omitempty" db:"lower_bound"`
	UpperBound  *float64  `json:"upper_bound,omitempty" db:"upper_bound"`
	ActualValue *float64  `json:"actual_value,omitempty" db:"actual_value"`
}

// MethodOutcome reports how a single method execution ended for one item.
type MethodOutcome struct {
	Method       string          `json:"method"`
	Status       string          `json:"status"` // "completed" or "failed"
	Error        string          `json:"error,omitempty"`
	UsedFallback bool            `json:"used_fallback"`
	Points       []ForecastPoint `json:"points,omitempty"`
}

// ItemForecast collects every method outcome for one item within a run.
type ItemForecast struct {
	ItemID   string          `json:"item_id"`
	Skipped  bool            `json:"skipped"`
	Reason   string          `json:"reason,omitempty"`
	Outcomes []MethodOutcome `json:"outcomes"`
}

// ForecastRunResult is the orchestrator's full response: the run record plus
// per-item, per-method statuses. Failed methods are reported, never omitted.
type ForecastRunResult struct {
	Run   ForecastRun    `json:"run"`
	Items []ItemForecast `json:"items"`
}

// QualityMetrics holds forecast accuracy metrics for (item, method, window).
type QualityMetrics struct {
	ItemID     string  `json:"item_id"`
	Method     string  `json:"method"`
	WindowDays int     `json:"window_days"`
	MAPE       float64 `json:"mape"`
	RMSE       float64 `json:"rmse"`
	MAE        float64 `json:"mae"`
	Bias       float64 `json:"bias"`
	SampleSize int     `json:"sample_size"`
}

// ItemSettings carries per-item stock, cost and ordering parameters supplied
// by the product/settings collaborator.
type ItemSettings struct {
	ItemID           string  `json:"item_id" db:"item_id"`
	CurrentStock     float64 `json:"current_stock" db:"current_stock"`
	UnitCost         float64 `json:"unit_cost" db:"unit_cost"`
	LeadTimeDays     int     `json:"lead_time_days" db:"lead_time_days"`
	MOQ              float64 `json:"moq" db:"moq"`
	SafetyBufferDays int     `json:"safety_buffer_days" db:"safety_buffer_days"`
}

// InventoryMetrics is the derived stock position for one item. DIR is nil
// when average daily demand is zero.
type InventoryMetrics struct {
	ItemID         string      `json:"item_id"`
	DIR            *float64    `json:"days_of_inventory_remaining"`
	StockoutRisk   float64     `json:"stockout_risk"`
	Status         StockStatus `json:"status"`
	InventoryValue float64     `json:"inventory_value"`
	AvgDailyDemand float64     `json:"avg_daily_demand"`
	ComputedAt     time.Time   `json:"computed_at"`
}

// SimulatedOrder is an in-flight replenishment order that exists only inside
// a simulation run.
type SimulatedOrder struct {
	ItemID       string    `json:"item_id"`
	Quantity     float64   `json:"quantity"`
	PlacedDate   time.Time `json:"placed_date"`
	LeadTimeDays int       `json:"lead_time_days"`
	ArrivalDate  time.Time `json:"arrival_date"`
	Received     bool      `json:"received"`
}

// DailyDetail is one simulated day for one item, emitted only when the
// caller asks for daily granularity.
type DailyDetail struct {
	Date           time.Time `json:"date"`
	SimulatedStock float64   `json:"simulated_stock"`
	RealStock      float64   `json:"real_stock"`
	UnitsSold      float64   `json:"units_sold"`
	OrderPlaced    bool      `json:"order_placed"`
	OrderQuantity  float64   `json:"order_quantity,omitempty"`
	UsedFallback   bool      `json:"used_real_stock_fallback"`
}

// ItemComparison aggregates simulated vs. real outcomes for one item.
type ItemComparison struct {
	ItemID                  string        `json:"item_id"`
	SimulatedStockoutRate   float64       `json:"simulated_stockout_rate"`
	RealStockoutRate        float64       `json:"real_stockout_rate"`
	SimulatedInventoryValue float64       `json:"simulated_inventory_value"`
	RealInventoryValue      float64       `json:"real_inventory_value"`
	SimulatedServiceLevel   float64       `json:"simulated_service_level"`
	RealServiceLevel        float64       `json:"real_service_level"`
	TotalOrders             int           `json:"total_orders"`
	FallbackDays            int           `json:"fallback_days"`
	Daily                   []DailyDetail `json:"daily,omitempty"`
}

// SkippedItem records an item the simulation could not process, with the
// reason it was skipped.
type SkippedItem struct {
	ItemID string `json:"item_id"`
	Reason string `json:"reason"`
}

// ComparisonResult is the immutable outcome of one simulation run.
type ComparisonResult struct {
	StartDate               time.Time        `json:"start_date"`
	EndDate                 time.Time        `json:"end_date"`
	Items                   []ItemComparison `json:"items"`
	Skipped                 []SkippedItem    `json:"skipped"`
	SimulatedStockoutRate   float64          `json:"simulated_stockout_rate"`
	RealStockoutRate        float64          `json:"real_stockout_rate"`
	SimulatedInventoryValue float64          `json:"simulated_inventory_value"`
	RealInventoryValue      float64          `json:"real_inventory_value"`
	SimulatedServiceLevel   float64          `json:"simulated_service_level"`
	RealServiceLevel        float64          `json:"real_service_level"`
	TotalOrders             int              `json:"total_orders"`
	StockoutReductionPct    float64          `json:"stockout_reduction_pct"`
	InventoryReductionPct   float64          `json:"inventory_reduction_pct"`
	CompletedAt             time.Time        `json:"completed_at"`
}
