package handlers

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/andresuchdata/demandcast/internal/forecast"
	"github.com/andresuchdata/demandcast/internal/service"
	"github.com/gin-gonic/gin"
)

type ForecastHandler struct {
	service *service.ForecastService
}

func NewForecastHandler(service *service.ForecastService) *ForecastHandler {
	return &ForecastHandler{service: service}
}

// Generate runs the forecast orchestrator for the requested items.
func (h *ForecastHandler) Generate(c *gin.Context) {
	var req forecast.Request
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body", "details": err.Error()})
		return
	}

	result, err := h.service.GenerateForecast(c.Request.Context(), req)
	if err != nil {
		if forecast.IsInvalidRequest(err) {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "forecast generation failed", "details": err.Error()})
		return
	}

	c.JSON(http.StatusOK, result)
}

// GetQuality scores past forecasts for one item and method.
func (h *ForecastHandler) GetQuality(c *gin.Context) {
	itemID := strings.TrimSpace(c.Param("id"))
	method := strings.TrimSpace(c.Query("method"))

	windowDays, _ := strconv.Atoi(c.DefaultQuery("window_days", "30"))
	if windowDays <= 0 {
		windowDays = 30
	}

	metrics, err := h.service.GetQualityMetrics(c.Request.Context(), itemID, method, windowDays)
	if err != nil {
		if forecast.IsInvalidRequest(err) {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to compute quality metrics", "details": err.Error()})
		return
	}

	if metrics.SampleSize == 0 {
		c.JSON(http.StatusOK, gin.H{
			"metrics": metrics,
			"warning": "no matched forecast/actual pairs with nonzero demand in window",
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{"metrics": metrics})
}
