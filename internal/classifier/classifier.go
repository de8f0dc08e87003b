package classifier

import (
	"math"
	"sort"
	"time"

	"github.com/andresuchdata/demandcast/internal/domain"
)

// Demand pattern cutoffs from the intermittent-demand literature
// (Syntetos-Boylan): series with ADI above 1.32 are sporadic, and sporadic
// series with squared CV above 0.49 are lumpy.
const (
	adiRegularCutoff = 1.32
	cv2LumpyCutoff   = 0.49
)

// Config holds the tenant-overridable classification thresholds.
type Config struct {
	ABCASplit   float64 // cumulative contribution share closing class A
	ABCBSplit   float64 // additional share closing class B
	XYZXBand    float64 // CV below this is X
	XYZYBand    float64 // CV below this (and >= XYZXBand) is Y
	MinimumDays int     // observations required for a full classification
}

// DefaultConfig returns the standard 80/15/5 ABC split and 0.5/1.0 CV bands.
func DefaultConfig() Config {
	return Config{
		ABCASplit:   0.80,
		ABCBSplit:   0.15,
		XYZXBand:    0.5,
		XYZYBand:    1.0,
		MinimumDays: 14,
	}
}

// Classifier computes SKU classifications from demand history. It is a pure
// calculator: identical inputs always produce identical output.
type Classifier struct {
	cfg Config
}

// New creates a Classifier, filling zero-valued thresholds with defaults.
func New(cfg Config) *Classifier {
	def := DefaultConfig()
	if cfg.ABCASplit <= 0 {
		cfg.ABCASplit = def.ABCASplit
	}
	if cfg.ABCBSplit <= 0 {
		cfg.ABCBSplit = def.ABCBSplit
	}
	if cfg.XYZXBand <= 0 {
		cfg.XYZXBand = def.XYZXBand
	}
	if cfg.XYZYBand <= 0 {
		cfg.XYZYBand = def.XYZYBand
	}
	if cfg.MinimumDays <= 0 {
		cfg.MinimumDays = def.MinimumDays
	}
	return &Classifier{cfg: cfg}
}

// RankABC assigns ABC classes across a portfolio given per-item contribution
// totals (revenue or quantity). Items are ranked by descending contribution;
// class A covers the top ABCASplit share of the cumulative total, class B the
// next ABCBSplit, class C the remainder. Ties break on item ID for
// determinism.
func (c *Classifier) RankABC(contributions map[string]float64) map[string]domain.ABCClass {
	type ranked struct {
		itemID string
		value  float64
	}

	items := make([]ranked, 0, len(contributions))
	var total float64
	for id, v := range contributions {
		if v < 0 {
			v = 0
		}
		items = append(items, ranked{itemID: id, value: v})
		total += v
	}

	sort.Slice(items, func(i, j int) bool {
		if items[i].value != items[j].value {
			return items[i].value > items[j].value
		}
		return items[i].itemID < items[j].itemID
	})

	classes := make(map[string]domain.ABCClass, len(items))
	if total <= 0 {
		for _, it := range items {
			classes[it.itemID] = domain.ABCClassC
		}
		return classes
	}

	var cumulative float64
	for _, it := range items {
		cumulative += it.value
		share := cumulative / total
		switch {
		case share <= c.cfg.ABCASplit:
			classes[it.itemID] = domain.ABCClassA
		case share <= c.cfg.ABCASplit+c.cfg.ABCBSplit:
			classes[it.itemID] = domain.ABCClassB
		default:
			classes[it.itemID] = domain.ABCClassC
		}
	}

	return classes
}

// Classify computes the full classification of one item from its lookback
// window. The ABC class comes from a prior RankABC pass over the portfolio.
// When the window has no nonzero-demand days (or is shorter than the
// configured minimum) the result carries InsufficientData instead of an
// error; the caller decides whether to skip the item.
func (c *Classifier) Classify(itemID string, window []domain.DemandObservation, abc domain.ABCClass) domain.SKUClassification {
	now := time.Now().UTC()

	demand := make([]float64, len(window))
	nonzero := 0
	for i, obs := range window {
		demand[i] = obs.UnitsSold
		if obs.UnitsSold > 0 {
			nonzero++
		}
	}

	if nonzero == 0 || len(window) < c.cfg.MinimumDays {
		return domain.SKUClassification{
			ItemID:            itemID,
			ABCClass:          abc,
			InsufficientData:  true,
			RecommendedMethod: domain.MethodMovingAverage,
			ComputedAt:        now,
		}
	}

	cv := coefficientOfVariation(demand)
	adi := float64(len(demand)) / float64(nonzero)
	pattern := demandPattern(demand, adi)

	xyz := domain.XYZClassZ
	switch {
	case cv < c.cfg.XYZXBand:
		xyz = domain.XYZClassX
	case cv < c.cfg.XYZYBand:
		xyz = domain.XYZClassY
	}

	return domain.SKUClassification{
		ItemID:               itemID,
		ABCClass:             abc,
		XYZClass:             xyz,
		DemandPattern:        pattern,
		ForecastabilityScore: forecastability(cv, adi),
		RecommendedMethod:    recommendMethod(abc, xyz, pattern),
		CV:                   cv,
		ADI:                  adi,
		ComputedAt:           now,
	}
}

// demandPattern applies the ADI / CV² decision tree: regular when demand
// occurs nearly every period, otherwise intermittent or lumpy depending on
// the variability of the nonzero demand sizes.
func demandPattern(demand []float64, adi float64) domain.DemandPattern {
	if adi <= adiRegularCutoff {
		return domain.PatternRegular
	}

	var sizes []float64
	for _, v := range demand {
		if v > 0 {
			sizes = append(sizes, v)
		}
	}

	cv := coefficientOfVariation(sizes)
	if cv*cv <= cv2LumpyCutoff {
		return domain.PatternIntermittent
	}
	return domain.PatternLumpy
}

// forecastability maps (CV, ADI) to a score in [0,1], strictly decreasing in
// both: perfectly steady daily demand scores 1, highly variable sporadic
// demand approaches 0.
func forecastability(cv, adi float64) float64 {
	if adi < 1 {
		adi = 1
	}
	if cv < 0 {
		cv = 0
	}
	score := (1 / (1 + cv)) * (1 / adi)
	return math.Min(1, math.Max(0, score))
}

// recommendMethod is the deterministic (ABC, XYZ, pattern) lookup:
// sporadic demand routes to the specialized intermittent estimators, high
// variability to the conservative min/max rule, and well-behaved movers to
// the primary model or a moving average.
func recommendMethod(abc domain.ABCClass, xyz domain.XYZClass, pattern domain.DemandPattern) string {
	switch pattern {
	case domain.PatternLumpy:
		return domain.MethodSBA
	case domain.PatternIntermittent:
		return domain.MethodCroston
	}

	if xyz == domain.XYZClassZ {
		return domain.MethodMinMax
	}

	if abc == domain.ABCClassC {
		return domain.MethodMovingAverage
	}
	return domain.MethodMLModel
}

func mean(values []float64) float64 {
	if len(values) == 0 {
		return 0
	}
	var sum float64
	for _, v := range values {
		sum += v
	}
	return sum / float64(len(values))
}

func stddev(values []float64) float64 {
	if len(values) < 2 {
		return 0
	}
	m := mean(values)
	var sum float64
	for _, v := range values {
		d := v - m
		sum += d * d
	}
	return math.Sqrt(sum / float64(len(values)))
}

func coefficientOfVariation(values []float64) float64 {
	m := mean(values)
	if m == 0 {
		return 0
	}
	return stddev(values) / m
}
