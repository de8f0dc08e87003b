package forecast

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/andresuchdata/demandcast/internal/domain"
	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"golang.org/x/sync/errgroup"
)

// HistoryProvider supplies demand history. Implementations live with the
// collaborators (postgres, files); the orchestrator only reads.
type HistoryProvider interface {
	GetHistory(ctx context.Context, itemID string, start, end time.Time) ([]domain.DemandObservation, error)
}

// ResultStore persists forecast runs and their results. Optional: a nil
// store (or skip_persistence on the request) keeps the run in memory only.
type ResultStore interface {
	SaveRun(ctx context.Context, run *domain.ForecastRun) error
	SaveResults(ctx context.Context, results []domain.ForecastResult) error
	UpdateRunStatus(ctx context.Context, runID string, status domain.RunStatus, completedAt time.Time) error
}

// MetricsRefresher recomputes downstream inventory metrics after a persisted
// run. Fired and forgotten; a refresh failure never fails the run.
type MetricsRefresher interface {
	RefreshInventoryMetrics(ctx context.Context, itemIDs []string)
}

// Request describes one forecast generation invocation.
type Request struct {
	ItemIDs          []string   `json:"item_ids"`
	PredictionLength int        `json:"prediction_length"`
	PrimaryMethod    string     `json:"primary_method"`
	IncludeBaseline  bool       `json:"include_baseline"`
	RunAllMethods    bool       `json:"run_all_methods"`
	SkipPersistence  bool       `json:"skip_persistence"`
	TrainingEndDate  *time.Time `json:"training_end_date,omitempty"`
}

// Config tunes the orchestrator.
type Config struct {
	LookbackDays    int
	FallbackWindow  int // trailing days for the zero-forecast fallback
	ItemWorkerCount int
	BaselineMethod  string
	DefaultHorizon  int
}

// Orchestrator loads history once per item and fans each item out over the
// requested method set. Method failures are isolated: they are recorded
// against that method only and never abort siblings or the run.
type Orchestrator struct {
	registry  *Registry
	history   HistoryProvider
	store     ResultStore
	refresher MetricsRefresher
	cfg       Config
}

func NewOrchestrator(registry *Registry, history HistoryProvider, store ResultStore, refresher MetricsRefresher, cfg Config) *Orchestrator {
	if cfg.LookbackDays <= 0 {
		cfg.LookbackDays = 90
	}
	if cfg.FallbackWindow <= 0 {
		cfg.FallbackWindow = 30
	}
	if cfg.ItemWorkerCount <= 0 {
		cfg.ItemWorkerCount = 4
	}
	if cfg.BaselineMethod == "" {
		cfg.BaselineMethod = domain.MethodMovingAverage
	}
	if cfg.DefaultHorizon <= 0 {
		cfg.DefaultHorizon = 30
	}

	return &Orchestrator{
		registry:  registry,
		history:   history,
		store:     store,
		refresher: refresher,
		cfg:       cfg,
	}
}

// Run executes a forecast request and returns per-item, per-method statuses.
// Request-level validation errors are fatal; everything after that is
// recovered per item or per method and surfaced in the result.
func (o *Orchestrator) Run(ctx context.Context, req Request) (*domain.ForecastRunResult, error) {
	if err := o.validate(&req); err != nil {
		return nil, err
	}

	run := domain.ForecastRun{
		ID:               uuid.NewString(),
		ItemIDs:          req.ItemIDs,
		PrimaryMethod:    req.PrimaryMethod,
		PredictionLength: req.PredictionLength,
		IncludeBaseline:  req.IncludeBaseline,
		TrainingEndDate:  req.TrainingEndDate,
		Status:           domain.RunStatusRunning,
		CreatedAt:        time.Now().UTC(),
	}

	persist := !req.SkipPersistence && o.store != nil
	if persist {
		if err := o.store.SaveRun(ctx, &run); err != nil {
			return nil, fmt.Errorf("save forecast run: %w", err)
		}
	}

	methodNames := o.resolveMethods(req)

	items := make([]domain.ItemForecast, len(req.ItemIDs))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(o.cfg.ItemWorkerCount)

	for i, itemID := range req.ItemIDs {
		g.Go(func() error {
			items[i] = o.runItem(gctx, itemID, methodNames, req)
			return nil
		})
	}

	// Workers only report through their slot; the only error path out of
	// the group is context cancellation.
	if err := g.Wait(); err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	run.Status = runStatus(items)
	run.CompletedAt = &now

	if persist {
		if err := o.store.SaveResults(ctx, flattenResults(run.ID, items)); err != nil {
			return nil, fmt.Errorf("save forecast results: %w", err)
		}
		if err := o.store.UpdateRunStatus(ctx, run.ID, run.Status, now); err != nil {
			return nil, fmt.Errorf("update run status: %w", err)
		}
		if o.refresher != nil && run.Status != domain.RunStatusFailed {
			go o.refresher.RefreshInventoryMetrics(context.WithoutCancel(ctx), req.ItemIDs)
		}
	}

	return &domain.ForecastRunResult{Run: run, Items: items}, nil
}

func (o *Orchestrator) validate(req *Request) error {
	if len(req.ItemIDs) == 0 {
		return domain.NewInvalidRequest("item_ids must not be empty")
	}
	if req.PredictionLength < 0 {
		return domain.NewInvalidRequest("prediction_length must be positive")
	}
	if req.PredictionLength == 0 {
		req.PredictionLength = o.cfg.DefaultHorizon
	}
	if req.PrimaryMethod == "" {
		req.PrimaryMethod = o.cfg.BaselineMethod
	}
	if !o.registry.Has(req.PrimaryMethod) {
		return domain.NewInvalidRequest("unknown method %q", req.PrimaryMethod)
	}
	if req.IncludeBaseline && !o.registry.Has(o.cfg.BaselineMethod) {
		return domain.NewInvalidRequest("baseline method %q is not registered", o.cfg.BaselineMethod)
	}
	if req.TrainingEndDate != nil && req.TrainingEndDate.After(time.Now().UTC()) {
		return domain.NewInvalidRequest("training_end_date is in the future")
	}
	return nil
}

// resolveMethods builds the method set: the primary method, plus the
// baseline when requested, plus every registered method for run_all.
func (o *Orchestrator) resolveMethods(req Request) []string {
	if req.RunAllMethods {
		return o.registry.Names()
	}

	names := []string{req.PrimaryMethod}
	if req.IncludeBaseline && o.cfg.BaselineMethod != req.PrimaryMethod {
		names = append(names, o.cfg.BaselineMethod)
	}
	return names
}

// runItem loads history exactly once and shares the loaded series across
// every method invoked for the item.
func (o *Orchestrator) runItem(ctx context.Context, itemID string, methodNames []string, req Request) domain.ItemForecast {
	item := domain.ItemForecast{ItemID: itemID}

	end := time.Now().UTC()
	if req.TrainingEndDate != nil {
		end = *req.TrainingEndDate
	}
	start := end.AddDate(0, 0, -(o.cfg.LookbackDays + req.PredictionLength))

	history, err := o.history.GetHistory(ctx, itemID, start, end)
	if err != nil {
		item.Skipped = true
		item.Reason = fmt.Sprintf("history load failed: %v", err)
		return item
	}
	if len(history) == 0 {
		item.Skipped = true
		item.Reason = (&domain.InsufficientDataError{ItemID: itemID, Observations: 0, Minimum: 1}).Error()
		return item
	}

	cutoff := o.cutoffDate(history, req)
	train := trainingSlice(history, cutoff)
	if len(train) == 0 {
		item.Skipped = true
		item.Reason = (&domain.InsufficientDataError{ItemID: itemID, Observations: 0, Minimum: 1}).Error()
		return item
	}

	forecastStart := cutoff.AddDate(0, 0, 1)
	item.Outcomes = o.fanOut(ctx, train, methodNames, req.PredictionLength, forecastStart)
	return item
}

// cutoffDate resolves the train/test boundary: an explicit training end date
// wins; a run over all methods implies backtesting, so the last
// prediction_length days are held out; otherwise train through the latest
// observation.
func (o *Orchestrator) cutoffDate(history []domain.DemandObservation, req Request) time.Time {
	if req.TrainingEndDate != nil {
		return *req.TrainingEndDate
	}
	latest := history[len(history)-1].Date
	if req.RunAllMethods {
		return latest.AddDate(0, 0, -req.PredictionLength)
	}
	return latest
}

// fanOut runs every method concurrently against the shared history snapshot
// and collects one outcome per method (fan-out/fan-in, never fire-and-forget).
func (o *Orchestrator) fanOut(ctx context.Context, train []domain.DemandObservation, methodNames []string, horizon int, start time.Time) []domain.MethodOutcome {
	outcomes := make([]domain.MethodOutcome, len(methodNames))
	var wg sync.WaitGroup

	for i, name := range methodNames {
		wg.Add(1)
		go func() {
			defer wg.Done()
			outcomes[i] = o.runMethod(ctx, name, train, horizon, start)
		}()
	}
	wg.Wait()

	return outcomes
}

func (o *Orchestrator) runMethod(ctx context.Context, name string, train []domain.DemandObservation, horizon int, start time.Time) domain.MethodOutcome {
	outcome := domain.MethodOutcome{Method: name}

	method, err := o.registry.Get(name)
	if err != nil {
		outcome.Status = "failed"
		outcome.Error = err.Error()
		return outcome
	}

	points, err := method.Forecast(ctx, train, horizon, start)
	if err != nil {
		mErr := &domain.MethodExecutionError{Method: name, Err: err}
		log.Warn().Err(mErr).Str("method", name).Msg("forecast method failed")
		outcome.Status = "failed"
		outcome.Error = mErr.Error()
		return outcome
	}

	points, usedFallback := o.applyFallback(points, train, horizon, start)
	outcome.Status = "completed"
	outcome.Points = points
	outcome.UsedFallback = usedFallback
	return outcome
}

// applyFallback substitutes the trailing historical average when a method
// produces a non-positive total forecast. A zero average means true dead
// stock: the zero forecast stands as a valid terminal result.
func (o *Orchestrator) applyFallback(points []domain.ForecastPoint, train []domain.DemandObservation, horizon int, start time.Time) ([]domain.ForecastPoint, bool) {
	var total float64
	for _, p := range points {
		total += p.Value
	}
	if total > 0 {
		return points, false
	}

	avg := trailingAverage(train, o.cfg.FallbackWindow)
	if avg <= 0 {
		return points, false
	}

	return constantSeries(start, horizon, avg, nil, nil), true
}

// trailingAverage is the average daily demand over the last windowDays
// calendar days of the training series.
func trailingAverage(train []domain.DemandObservation, windowDays int) float64 {
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

func trainingSlice(history []domain.DemandObservation, cutoff time.Time) []domain.DemandObservation {
	end := len(history)
	for end > 0 && history[end-1].Date.After(cutoff) {
		end--
	}
	return history[:end]
}

func runStatus(items []domain.ItemForecast) domain.RunStatus {
	for _, item := range items {
		if item.Skipped {
			continue
		}
		for _, outcome := range item.Outcomes {
			if outcome.Status == "completed" {
				return domain.RunStatusCompleted
			}
		}
	}
	return domain.RunStatusFailed
}

func flattenResults(runID string, items []domain.ItemForecast) []domain.ForecastResult {
	var results []domain.ForecastResult
	for _, item := range items {
		if item.Skipped {
			continue
		}
		for _, outcome := range item.Outcomes {
			if outcome.Status != "completed" {
				continue
			}
			for _, p := range outcome.Points {
				results = append(results, domain.ForecastResult{
					RunID:      runID,
					ItemID:     item.ItemID,
					Method:     outcome.Method,
					Date:       p.Date,
					Value:      p.Value,
					LowerBound: p.LowerBound,
					UpperBound: p.UpperBound,
				})
			}
		}
	}
	return results
}

// IsInvalidRequest reports whether err is a request validation failure.
func IsInvalidRequest(err error) bool {
	var ire *domain.InvalidRequestError
	return errors.As(err, &ire)
}
