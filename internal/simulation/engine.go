package simulation

import (
	"context"
	"fmt"
	"time"

	"github.com/andresuchdata/demandcast/internal/classifier"
	"github.com/andresuchdata/demandcast/internal/domain"
	"github.com/andresuchdata/demandcast/internal/forecast"
	"github.com/rs/zerolog/log"
	"golang.org/x/sync/errgroup"
)

// ProductProvider supplies current stock, cost and ordering settings for an
// item. Items the provider cannot resolve are skipped, not failed.
type ProductProvider interface {
	GetStockAndSettings(ctx context.Context, itemID string) (*domain.ItemSettings, error)
}

// Request describes one simulation run over a historical window.
type Request struct {
	ItemIDs            []string  `json:"item_ids"`
	StartDate          time.Time `json:"start_date"`
	EndDate            time.Time `json:"end_date"`
	IncludeDailyDetail bool      `json:"include_daily_detail"`
}

// Config tunes the replay.
type Config struct {
	LeadTimeBufferDays  int
	ForecastRefreshDays int
	LookbackDays        int
	FallbackWindow      int
	WorkerCount         int
}

// forecastCache is the per-item cached daily forecast demand with its
// refresh policy. Owned by the run, never shared across runs.
type forecastCache struct {
	dailyDemand float64
	computedAt  time.Time
	ttlDays     int
	valid       bool
}

func (c *forecastCache) expired(date time.Time) bool {
	if !c.valid {
		return true
	}
	return !date.Before(c.computedAt.AddDate(0, 0, c.ttlDays))
}

// Engine replays historical operation of the forecast-driven ordering policy
// day by day and compares simulated outcomes against what really happened.
type Engine struct {
	history      forecast.HistoryProvider
	products     ProductProvider
	classifier   *classifier.Classifier
	orchestrator *forecast.Orchestrator
	cfg          Config
}

func NewEngine(history forecast.HistoryProvider, products ProductProvider, cls *classifier.Classifier, orch *forecast.Orchestrator, cfg Config) *Engine {
	if cfg.ForecastRefreshDays <= 0 {
		cfg.ForecastRefreshDays = 7
	}
	if cfg.LookbackDays <= 0 {
		cfg.LookbackDays = 90
	}
	if cfg.FallbackWindow <= 0 {
		cfg.FallbackWindow = 30
	}
	if cfg.WorkerCount <= 0 {
		cfg.WorkerCount = 4
	}

	return &Engine{
		history:      history,
		products:     products,
		classifier:   cls,
		orchestrator: orch,
		cfg:          cfg,
	}
}

// Run validates the request, replays every item over the window and
// aggregates the comparison. onDayDone, when non-nil, is invoked once per
// completed item-day so callers can publish progress. Cancellation is
// honoured between day iterations via ctx.
func (e *Engine) Run(ctx context.Context, req Request, onDayDone func()) (*domain.ComparisonResult, error) {
	if err := validate(req); err != nil {
		return nil, err
	}

	type loadedItem struct {
		settings *domain.ItemSettings
		history  []domain.DemandObservation
		skip     string
	}

	// Pre-pass: load settings and history once per item; the loaded series
	// feeds ABC ranking, classification and the day loop.
	loaded := make([]loadedItem, len(req.ItemIDs))
	contributions := make(map[string]float64, len(req.ItemIDs))
	histStart := req.StartDate.AddDate(0, 0, -e.cfg.LookbackDays)

	for i, itemID := range req.ItemIDs {
		settings, err := e.products.GetStockAndSettings(ctx, itemID)
		if err != nil || settings == nil {
			loaded[i] = loadedItem{skip: "missing product metadata"}
			continue
		}

		obs, err := e.history.GetHistory(ctx, itemID, histStart, req.EndDate)
		if err != nil {
			loaded[i] = loadedItem{skip: fmt.Sprintf("history load failed: %v", err)}
			continue
		}
		if len(obs) == 0 {
			loaded[i] = loadedItem{skip: "no demand history in window"}
			continue
		}

		loaded[i] = loadedItem{settings: settings, history: obs}

		var revenue float64
		for _, o := range obs {
			revenue += o.UnitsSold * settings.UnitCost
		}
		contributions[itemID] = revenue
	}

	abcClasses := e.classifier.RankABC(contributions)

	days := int(req.EndDate.Sub(req.StartDate).Hours()/24) + 1
	comparisons := make([]*domain.ItemComparison, len(req.ItemIDs))
	skipped := make([]*domain.SkippedItem, len(req.ItemIDs))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(e.cfg.WorkerCount)

	for i, itemID := range req.ItemIDs {
		g.Go(func() error {
			if loaded[i].skip != "" {
				skipped[i] = &domain.SkippedItem{ItemID: itemID, Reason: loaded[i].skip}
				return nil
			}
			cmp, err := e.runItem(gctx, itemID, loaded[i].settings, loaded[i].history, abcClasses[itemID], req, days, onDayDone)
			if err != nil {
				return err
			}
			comparisons[i] = cmp
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}

	return aggregate(req, comparisons, skipped, days), nil
}

func validate(req Request) error {
	if len(req.ItemIDs) == 0 {
		return domain.NewInvalidRequest("item_ids must not be empty")
	}
	if req.StartDate.IsZero() || req.EndDate.IsZero() {
		return domain.NewInvalidRequest("start_date and end_date are required")
	}
	if req.EndDate.Before(req.StartDate) {
		return domain.NewInvalidRequest("end_date %s is before start_date %s",
			req.EndDate.Format("2006-01-02"), req.StartDate.Format("2006-01-02"))
	}
	return nil
}

// runItem replays one item. The day loop is strictly sequential: state
// carries forward day to day.
func (e *Engine) runItem(ctx context.Context, itemID string, settings *domain.ItemSettings, history []domain.DemandObservation, abc domain.ABCClass, req Request, days int, onDayDone func()) (*domain.ItemComparison, error) {
	byDate := make(map[string]domain.DemandObservation, len(history))
	for _, obs := range history {
		byDate[obs.Date.Format("2006-01-02")] = obs
	}

	classification := e.classifier.Classify(itemID, windowBefore(history, req.StartDate), abc)
	method := classification.RecommendedMethod

	orders := NewOrderBook(e.cfg.LeadTimeBufferDays)
	cache := forecastCache{ttlDays: e.cfg.ForecastRefreshDays}

	openingStock := openingStockFor(history, settings, req.StartDate)
	simStock := openingStock
	realStock := openingStock

	cmp := &domain.ItemComparison{ItemID: itemID}

	var (
		simStockoutDays  int
		realStockoutDays int
		simValueSum      float64
		realValueSum     float64
	)

	for d := 0; d < days; d++ {
		// Cancellation is coarse-grained: checked between days, never mid-day.
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		date := req.StartDate.AddDate(0, 0, d)
		detail := domain.DailyDetail{Date: date}

		// 1. Receive arrivals.
		for _, order := range orders.OrdersArriving(itemID, date) {
			simStock += order.Quantity
		}
		startOfDayStock := simStock

		// 2. Apply the day's actual sales to both worlds, floored at zero.
		var sales float64
		obs, haveObs := byDate[date.Format("2006-01-02")]
		if haveObs {
			sales = obs.UnitsSold
		}
		simStock = maxFloat(0, simStock-sales)

		if haveObs && obs.StockOnDate != nil {
			realStock = *obs.StockOnDate
		} else {
			// No snapshot: run the balance forward. This cannot credit
			// real-world restocking, so the day is flagged, not hidden.
			gap := &domain.DataGapError{ItemID: itemID, Date: date}
			log.Debug().Str("item_id", itemID).Str("date", date.Format("2006-01-02")).Msg(gap.Error())
			realStock = maxFloat(0, realStock-sales)
			cmp.FallbackDays++
			detail.UsedFallback = true
		}

		// 3. Forecast demand for the horizon, regenerated on the refresh
		// cadence and cached in between.
		if d == 0 || cache.expired(date) {
			e.refreshForecast(ctx, itemID, method, date, history, &cache)
		}

		// 4. Reorder check: trigger on start-of-day stock, size from
		// after-sales stock.
		coverage := float64(settings.LeadTimeDays + settings.SafetyBufferDays)
		reorderPoint := cache.dailyDemand * coverage
		if startOfDayStock <= reorderPoint && len(orders.OrdersInTransit(itemID, date)) == 0 && cache.dailyDemand > 0 {
			target := cache.dailyDemand * (coverage + float64(e.cfg.ForecastRefreshDays))
			qty := target - simStock
			if qty > 0 {
				if qty < settings.MOQ {
					qty = settings.MOQ
				}
				orders.PlaceOrder(itemID, qty, date, settings.LeadTimeDays)
				detail.OrderPlaced = true
				detail.OrderQuantity = qty
			}
		}

		if simStock == 0 {
			simStockoutDays++
		}
		if realStock == 0 {
			realStockoutDays++
		}
		simValueSum += simStock * settings.UnitCost
		realValueSum += realStock * settings.UnitCost

		if req.IncludeDailyDetail {
			detail.SimulatedStock = simStock
			detail.RealStock = realStock
			detail.UnitsSold = sales
			cmp.Daily = append(cmp.Daily, detail)
		}

		if onDayDone != nil {
			onDayDone()
		}
	}

	total := float64(days)
	cmp.SimulatedStockoutRate = float64(simStockoutDays) / total
	cmp.RealStockoutRate = float64(realStockoutDays) / total
	cmp.SimulatedServiceLevel = 1 - cmp.SimulatedStockoutRate
	cmp.RealServiceLevel = 1 - cmp.RealStockoutRate
	cmp.SimulatedInventoryValue = simValueSum / total
	cmp.RealInventoryValue = realValueSum / total
	cmp.TotalOrders = orders.TotalOrders(itemID)

	return cmp, nil
}

// refreshForecast regenerates the cached daily forecast demand through the
// orchestrator with the training boundary at the simulated date. On failure
// it falls back to the trailing historical average; when even that is
// unavailable a stale cached value is reused and logged.
func (e *Engine) refreshForecast(ctx context.Context, itemID, method string, date time.Time, history []domain.DemandObservation, cache *forecastCache) {
	horizon := e.cfg.ForecastRefreshDays
	trainingEnd := date.AddDate(0, 0, -1)

	result, err := e.orchestrator.Run(ctx, forecast.Request{
		ItemIDs:          []string{itemID},
		PredictionLength: horizon,
		PrimaryMethod:    method,
		SkipPersistence:  true,
		TrainingEndDate:  &trainingEnd,
	})
	if err == nil {
		if daily, ok := dailyDemandFrom(result); ok {
			cache.dailyDemand = daily
			cache.computedAt = date
			cache.valid = true
			return
		}
	} else {
		log.Warn().Err(err).Str("item_id", itemID).Msg("simulation forecast regeneration failed")
	}

	train := trainingWindow(history, trainingEnd)
	if avg := trailingAverageDemand(train, e.cfg.FallbackWindow); avg > 0 || !cache.valid {
		cache.dailyDemand = avg
		cache.computedAt = date
		cache.valid = true
		return
	}

	stale := &domain.StaleForecastWarning{
		ItemID:     itemID,
		ComputedAt: cache.computedAt,
		Age:        date.Sub(cache.computedAt),
	}
	log.Warn().Str("item_id", itemID).Msg(stale.Error())
}

func dailyDemandFrom(result *domain.ForecastRunResult) (float64, bool) {
	for _, item := range result.Items {
		if item.Skipped {
			continue
		}
		for _, outcome := range item.Outcomes {
			if outcome.Status != "completed" || len(outcome.Points) == 0 {
				continue
			}
			var total float64
			for _, p := range outcome.Points {
				total += p.Value
			}
			return total / float64(len(outcome.Points)), true
		}
	}
	return 0, false
}

func aggregate(req Request, comparisons []*domain.ItemComparison, skippedItems []*domain.SkippedItem, days int) *domain.ComparisonResult {
	result := &domain.ComparisonResult{
		StartDate:   req.StartDate,
		EndDate:     req.EndDate,
		CompletedAt: time.Now().UTC(),
	}

	var (
		itemDays         int
		simStockoutDays  float64
		realStockoutDays float64
	)

	for _, cmp := range comparisons {
		if cmp == nil {
			continue
		}
		result.Items = append(result.Items, *cmp)
		itemDays += days
		simStockoutDays += cmp.SimulatedStockoutRate * float64(days)
		realStockoutDays += cmp.RealStockoutRate * float64(days)
		result.SimulatedInventoryValue += cmp.SimulatedInventoryValue
		result.RealInventoryValue += cmp.RealInventoryValue
		result.TotalOrders += cmp.TotalOrders
	}
	for _, s := range skippedItems {
		if s != nil {
			result.Skipped = append(result.Skipped, *s)
		}
	}

	if itemDays > 0 {
		result.SimulatedStockoutRate = simStockoutDays / float64(itemDays)
		result.RealStockoutRate = realStockoutDays / float64(itemDays)
	}
	result.SimulatedServiceLevel = 1 - result.SimulatedStockoutRate
	result.RealServiceLevel = 1 - result.RealStockoutRate
	result.StockoutReductionPct = reduction(result.RealStockoutRate, result.SimulatedStockoutRate)
	result.InventoryReductionPct = reduction(result.RealInventoryValue, result.SimulatedInventoryValue)

	return result
}

// reduction is (real - simulated) / real as a percentage; zero when there is
// no real baseline to compare against.
func reduction(real, simulated float64) float64 {
	if real == 0 {
		return 0
	}
	return (real - simulated) / real * 100
}

func windowBefore(history []domain.DemandObservation, boundary time.Time) []domain.DemandObservation {
	end := len(history)
	for end > 0 && !history[end-1].Date.Before(boundary) {
		end--
	}
	return history[:end]
}

func trainingWindow(history []domain.DemandObservation, cutoff time.Time) []domain.DemandObservation {
	end := len(history)
	for end > 0 && history[end-1].Date.After(cutoff) {
		end--
	}
	return history[:end]
}

func trailingAverageDemand(train []domain.DemandObservation, windowDays int) float64 {
	if len(train) == 0 {
		return 0
	}
	boundary := train[len(train)-1].Date.AddDate(0, 0, -windowDays)

	var sum float64
	count := 0
	for i := len(train) - 1; i >= 0; i-- {
		if train[i].Date.Before(boundary) {
			break
		}
		sum += train[i].UnitsSold
		count++
	}
	if count == 0 {
		return 0
	}
	return sum / float64(count)
}

// openingStockFor prefers the snapshot on (or latest before) the start date
// and falls back to the collaborator's current stock figure.
func openingStockFor(history []domain.DemandObservation, settings *domain.ItemSettings, start time.Time) float64 {
	for i := len(history) - 1; i >= 0; i-- {
		if history[i].Date.After(start) {
			continue
		}
		if history[i].StockOnDate != nil {
			return *history[i].StockOnDate
		}
	}
	return settings.CurrentStock
}

func maxFloat(a, b float64) float64 {
	if a > b {
		return a
	}
	return b
}
