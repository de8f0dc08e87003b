package forecast

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/andresuchdata/demandcast/internal/domain"
)

// Method is one forecasting strategy. Implementations receive the full
// training history (already cut at the training boundary) and produce one
// point per day starting at start.
type Method interface {
	Name() string
	Forecast(ctx context.Context, history []domain.DemandObservation, horizon int, start time.Time) ([]domain.ForecastPoint, error)
}

// Registry holds the available forecasting methods, keyed by name. New
// methods are added by registering an implementation; orchestration code
// never branches on method names.
type Registry struct {
	mu      sync.RWMutex
	methods map[string]Method
}

func NewRegistry() *Registry {
	return &Registry{methods: make(map[string]Method)}
}

// Register adds or replaces a method under its own name.
func (r *Registry) Register(m Method) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.methods[m.Name()] = m
}

// Get returns the method registered under name.
func (r *Registry) Get(name string) (Method, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	m, ok := r.methods[name]
	if !ok {
		return nil, fmt.Errorf("unknown forecast method %q", name)
	}
	return m, nil
}

// Has reports whether a method is registered under name.
func (r *Registry) Has(name string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	_, ok := r.methods[name]
	return ok
}

// Names returns all registered method names, sorted.
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	names := make([]string, 0, len(r.methods))
	for name := range r.methods {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
