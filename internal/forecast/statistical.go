package forecast

import (
	"context"
	"fmt"
	"math"
	"time"

	"github.com/andresuchdata/demandcast/internal/domain"
)

// The closed-form methods below run in-process with no external calls. They
// all forecast a constant daily rate; differences lie in how that rate is
// estimated from the history.

// MovingAverage forecasts the average daily demand over a trailing window,
// with normal-approximation bounds at 95% confidence.
type MovingAverage struct {
	WindowDays int
}

func NewMovingAverage(windowDays int) *MovingAverage {
	if windowDays <= 0 {
		windowDays = 30
	}
	return &MovingAverage{WindowDays: windowDays}
}

func (m *MovingAverage) Name() string { return domain.MethodMovingAverage }

func (m *MovingAverage) Forecast(_ context.Context, history []domain.DemandObservation, horizon int, start time.Time) ([]domain.ForecastPoint, error) {
	if len(history) == 0 {
		return nil, fmt.Errorf("no history")
	}

	window := tailDemand(history, m.WindowDays)
	avg := meanOf(window)
	sd := stddevOf(window)

	// z = 1.96 for a 95% interval
	margin := 1.96 * sd / math.Sqrt(float64(len(window)))
	lower := math.Max(0, avg-margin)
	upper := avg + margin

	return constantSeries(start, horizon, avg, &lower, &upper), nil
}

// Croston is the classic intermittent-demand estimator: exponential
// smoothing of nonzero demand sizes and of the intervals between them,
// forecasting size/interval per day.
type Croston struct {
	Alpha float64
}

func NewCroston(alpha float64) *Croston {
	if alpha <= 0 || alpha >= 1 {
		alpha = 0.1
	}
	return &Croston{Alpha: alpha}
}

func (c *Croston) Name() string { return domain.MethodCroston }

func (c *Croston) Forecast(_ context.Context, history []domain.DemandObservation, horizon int, start time.Time) ([]domain.ForecastPoint, error) {
	rate, err := crostonRate(history, c.Alpha)
	if err != nil {
		return nil, err
	}
	return constantSeries(start, horizon, rate, nil, nil), nil
}

// SBA is the Syntetos-Boylan approximation: Croston's estimate deflated by
// (1 - alpha/2) to correct its positive bias.
type SBA struct {
	Alpha float64
}

func NewSBA(alpha float64) *SBA {
	if alpha <= 0 || alpha >= 1 {
		alpha = 0.1
	}
	return &SBA{Alpha: alpha}
}

func (s *SBA) Name() string { return domain.MethodSBA }

func (s *SBA) Forecast(_ context.Context, history []domain.DemandObservation, horizon int, start time.Time) ([]domain.ForecastPoint, error) {
	rate, err := crostonRate(history, s.Alpha)
	if err != nil {
		return nil, err
	}
	rate *= 1 - s.Alpha/2
	return constantSeries(start, horizon, rate, nil, nil), nil
}

// MinMax is the conservative rule for highly variable movers: the midpoint
// of the observed min and max nonzero daily demand, bounded by them.
type MinMax struct {
	WindowDays int
}

func NewMinMax(windowDays int) *MinMax {
	if windowDays <= 0 {
		windowDays = 60
	}
	return &MinMax{WindowDays: windowDays}
}

func (m *MinMax) Name() string { return domain.MethodMinMax }

func (m *MinMax) Forecast(_ context.Context, history []domain.DemandObservation, horizon int, start time.Time) ([]domain.ForecastPoint, error) {
	if len(history) == 0 {
		return nil, fmt.Errorf("no history")
	}

	window := tailDemand(history, m.WindowDays)
	lo := math.Inf(1)
	hi := 0.0
	seen := false
	for _, v := range window {
		if v <= 0 {
			continue
		}
		seen = true
		if v < lo {
			lo = v
		}
		if v > hi {
			hi = v
		}
	}
	if !seen {
		lo = 0
	}

	mid := (lo + hi) / 2
	return constantSeries(start, horizon, mid, &lo, &hi), nil
}

// crostonRate runs Croston's smoothing over the series and returns the
// estimated demand per period (size / interval).
func crostonRate(history []domain.DemandObservation, alpha float64) (float64, error) {
	if len(history) == 0 {
		return 0, fmt.Errorf("no history")
	}

	var (
		size     float64 // smoothed nonzero demand size
		interval float64 // smoothed periods between demands
		gap      = 1.0   // periods since last demand
		started  bool
	)

	for _, obs := range history {
		if obs.UnitsSold <= 0 {
			gap++
			continue
		}
		if !started {
			size = obs.UnitsSold
			interval = gap
			started = true
		} else {
			size = size + alpha*(obs.UnitsSold-size)
			interval = interval + alpha*(gap-interval)
		}
		gap = 1
	}

	if !started || interval == 0 {
		return 0, nil
	}
	return size / interval, nil
}

// tailDemand returns the last n daily demand values.
func tailDemand(history []domain.DemandObservation, n int) []float64 {
	if n > len(history) {
		n = len(history)
	}
	out := make([]float64, 0, n)
	for _, obs := range history[len(history)-n:] {
		out = append(out, obs.UnitsSold)
	}
	return out
}

func constantSeries(start time.Time, horizon int, value float64, lower, upper *float64) []domain.ForecastPoint {
	if value < 0 {
		value = 0
	}
	points := make([]domain.ForecastPoint, horizon)
	for i := range points {
		points[i] = domain.ForecastPoint{
			Date:       start.AddDate(0, 0, i),
			Value:      value,
			LowerBound: lower,
			UpperBound: upper,
		}
	}
	return points
}

func meanOf(values []float64) float64 {
	if len(values) == 0 {
		return 0
	}
	var sum float64
	for _, v := range values {
		sum += v
	}
	return sum / float64(len(values))
}

func stddevOf(values []float64) float64 {
	if len(values) < 2 {
		return 0
	}
	m := meanOf(values)
	var sum float64
	for _, v := range values {
		d := v - m
		sum += d * d
	}
	return math.Sqrt(sum / float64(len(values)))
}
