package api

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/andresuchdata/demandcast/internal/classifier"
	"github.com/andresuchdata/demandcast/internal/domain"
	"github.com/andresuchdata/demandcast/internal/forecast"
	"github.com/andresuchdata/demandcast/internal/history"
	"github.com/andresuchdata/demandcast/internal/service"
	"github.com/andresuchdata/demandcast/internal/simulation"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type emptyProducts struct{}

func (emptyProducts) GetStockAndSettings(_ context.Context, itemID string) (*domain.ItemSettings, error) {
	return nil, fmt.Errorf("item %s not found", itemID)
}

func testServices() *Services {
	registry := forecast.NewRegistry()
	registry.Register(forecast.NewMovingAverage(30))

	provider := history.NewMemoryProvider(nil)
	orch := forecast.NewOrchestrator(registry, provider, nil, nil, forecast.Config{})
	engine := simulation.NewEngine(provider, emptyProducts{}, classifier.New(classifier.DefaultConfig()), orch, simulation.Config{})
	runner := simulation.NewRunner(engine, 0)

	return &Services{
		SimulationService: service.NewSimulationService(runner, nil),
	}
}

func doRequest(router *gin.Engine, method, path, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func TestHealthEndpoint(t *testing.T) {
	gin.SetMode(gin.TestMode)
	router := NewRouter(nil, nil)

	w := doRequest(router, http.MethodGet, "/health", "")

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "ok")
}

func TestSubmitSimulationRejectsBadBody(t *testing.T) {
	gin.SetMode(gin.TestMode)
	router := NewRouter(testServices(), nil)

	w := doRequest(router, http.MethodPost, "/api/v1/simulations", `{"start_date": 12}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = doRequest(router, http.MethodPost, "/api/v1/simulations", `{"item_ids":["A"],"start_date":"not-a-date","end_date":"2026-04-30"}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	// Valid dates but no items: rejected by run validation.
	w = doRequest(router, http.MethodPost, "/api/v1/simulations", `{"item_ids":[],"start_date":"2026-04-01","end_date":"2026-04-30"}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestGetSimulationNotFound(t *testing.T) {
	gin.SetMode(gin.TestMode)
	router := NewRouter(testServices(), nil)

	w := doRequest(router, http.MethodGet, "/api/v1/simulations/unknown", "")
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = doRequest(router, http.MethodDelete, "/api/v1/simulations/unknown", "")
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestSubmitSimulationAccepted(t *testing.T) {
	gin.SetMode(gin.TestMode)
	router := NewRouter(testServices(), nil)

	w := doRequest(router, http.MethodPost, "/api/v1/simulations",
		`{"item_ids":["A"],"start_date":"2026-04-01","end_date":"2026-04-05"}`)
	require.Equal(t, http.StatusAccepted, w.Code)
	assert.Contains(t, w.Body.String(), "job_id")
}

func TestNormalizeAllowedOrigins(t *testing.T) {
	origins, allowAll := normalizeAllowedOrigins([]string{"https://a.example, https://b.example", " "})
	assert.False(t, allowAll)
	assert.Equal(t, []string{"https://a.example", "https://b.example"}, origins)

	_, allowAll = normalizeAllowedOrigins([]string{"*"})
	assert.True(t, allowAll)
}
