package domain

import (
	"fmt"
	"time"
)

// InsufficientDataError marks an item whose lookback window is too small to
// work with. It is non-fatal: callers record the item as skipped.
type InsufficientDataError struct {
	ItemID       string
	Observations int
	Minimum      int
}

func (e *InsufficientDataError) Error() string {
	return fmt.Sprintf("item %s: %d observations, minimum %d required", e.ItemID, e.Observations, e.Minimum)
}

// MethodExecutionError marks the failure of a single forecasting method.
// It is isolated to that method; sibling methods continue.
type MethodExecutionError struct {
	Method string
	Err    error
}

func (e *MethodExecutionError) Error() string {
	return fmt.Sprintf("method %s failed: %v", e.Method, e.Err)
}

func (e *MethodExecutionError) Unwrap() error { return e.Err }

// StaleForecastWarning signals that a cached forecast past its refresh
// interval was used anyway. Logged, never fatal.
type StaleForecastWarning struct {
	ItemID     string
	ComputedAt time.Time
	Age        time.Duration
}

func (e *StaleForecastWarning) Error() string {
	return fmt.Sprintf("item %s: forecast computed at %s is stale (%s old)", e.ItemID, e.ComputedAt.Format("2006-01-02"), e.Age)
}

// DataGapError marks a missing real-stock snapshot for a simulated day. The
// engine falls back to the running balance and flags the day in output.
type DataGapError struct {
	ItemID string
	Date   time.Time
}

func (e *DataGapError) Error() string {
	return fmt.Sprintf("item %s: no stock snapshot for %s", e.ItemID, e.Date.Format("2006-01-02"))
}

// InvalidRequestError rejects a malformed request before any work starts.
type InvalidRequestError struct {
	Reason string
}

func (e *InvalidRequestError) Error() string {
	return "invalid request: " + e.Reason
}

// NewInvalidRequest builds an InvalidRequestError from a format string.
func NewInvalidRequest(format string, args ...any) *InvalidRequestError {
	return &InvalidRequestError{Reason: fmt.Sprintf(format, args...)}
}
