package history

import (
	"context"
	"sort"
	"time"

	"github.com/andresuchdata/demandcast/internal/domain"
)

// MemoryProvider serves demand history from an in-memory series, keyed by
// item. Used for backtests, file-driven simulation runs and tests.
type MemoryProvider struct {
	byItem map[string][]domain.DemandObservation
}

// NewMemoryProvider indexes observations by item and sorts each series by
// date ascending.
func NewMemoryProvider(observations []domain.DemandObservation) *MemoryProvider {
	byItem := make(map[string][]domain.DemandObservation)
	for _, obs := range observations {
		byItem[obs.ItemID] = append(byItem[obs.ItemID], obs)
	}
	for itemID := range byItem {
		series := byItem[itemID]
		sort.Slice(series, func(i, j int) bool { return series[i].Date.Before(series[j].Date) })
		byItem[itemID] = series
	}
	return &MemoryProvider{byItem: byItem}
}

// GetHistory returns the item's observations within [start, end], inclusive.
func (p *MemoryProvider) GetHistory(_ context.Context, itemID string, start, end time.Time) ([]domain.DemandObservation, error) {
	var out []domain.DemandObservation
	for _, obs := range p.byItem[itemID] {
		if obs.Date.Before(start) || obs.Date.After(end) {
			continue
		}
		out = append(out, obs)
	}
	return out, nil
}

// ItemIDs returns every item with history, sorted.
func (p *MemoryProvider) ItemIDs() []string {
	ids := make([]string, 0, len(p.byItem))
	for id := range p.byItem {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}
