package quality

import (
	"math"

	"github.com/andresuchdata/demandcast/internal/domain"
)

// Pair is one matched (actual, forecast) observation.
type Pair struct {
	Actual   float64
	Forecast float64
}

// Calculate computes MAPE, RMSE, MAE and Bias over matched pairs. MAPE
// excludes pairs with a zero actual, since the percentage error is undefined
// there; SampleSize counts the pairs remaining after that exclusion.
// Deterministic for identical input; missing actuals are never inferred.
func Calculate(itemID, method string, windowDays int, pairs []Pair) domain.QualityMetrics {
	metrics := domain.QualityMetrics{
		ItemID:     itemID,
		Method:     method,
		WindowDays: windowDays,
	}
	if len(pairs) == 0 {
		return metrics
	}

	var (
		apeSum   float64
		apeCount int
		sqSum    float64
		absSum   float64
		biasSum  float64
	)

	for _, p := range pairs {
		diff := p.Actual - p.Forecast
		sqSum += diff * diff
		absSum += math.Abs(diff)
		biasSum += p.Forecast - p.Actual

		if p.Actual != 0 {
			apeSum += math.Abs(diff) / math.Abs(p.Actual)
			apeCount++
		}
	}

	n := float64(len(pairs))
	metrics.RMSE = math.Sqrt(sqSum / n)
	metrics.MAE = absSum / n
	metrics.Bias = biasSum / n

	if apeCount > 0 {
		metrics.MAPE = 100 / float64(apeCount) * apeSum
	}
	metrics.SampleSize = apeCount

	return metrics
}

// MatchSeries pairs forecast results with their back-filled actuals,
// skipping rows whose actual value was never observed.
func MatchSeries(results []domain.ForecastResult) []Pair {
	pairs := make([]Pair, 0, len(results))
	for _, r := range results {
		if r.ActualValue == nil {
			continue
		}
		pairs = append(pairs, Pair{Actual: *r.ActualValue, Forecast: r.Value})
	}
	return pairs
}
