package handlers

import (
	"net/http"
	"strings"
	"time"

	"github.com/andresuchdata/demandcast/internal/forecast"
	"github.com/andresuchdata/demandcast/internal/service"
	"github.com/andresuchdata/demandcast/internal/simulation"
	"github.com/gin-gonic/gin"
)

type SimulationHandler struct {
	service *service.SimulationService
}

func NewSimulationHandler(service *service.SimulationService) *SimulationHandler {
	return &SimulationHandler{service: service}
}

type submitSimulationRequest struct {
	ItemIDs            []string `json:"item_ids"`
	StartDate          string   `json:"start_date"`
	EndDate            string   `json:"end_date"`
	IncludeDailyDetail bool     `json:"include_daily_detail"`
}

// Submit starts a simulation job in the background and returns its ID.
func (h *SimulationHandler) Submit(c *gin.Context) {
	var body submitSimulationRequest
	if err := c.ShouldBindJSON(&body); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body", "details": err.Error()})
		return
	}

	start, err := time.Parse("2006-01-02", body.StartDate)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "start_date must be YYYY-MM-DD"})
		return
	}
	end, err := time.Parse("2006-01-02", body.EndDate)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "end_date must be YYYY-MM-DD"})
		return
	}

	jobID, err := h.service.Submit(simulation.Request{
		ItemIDs:            body.ItemIDs,
		StartDate:          start,
		EndDate:            end,
		IncludeDailyDetail: body.IncludeDailyDetail,
	})
	if err != nil {
		if forecast.IsInvalidRequest(err) {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to start simulation", "details": err.Error()})
		return
	}

	c.JSON(http.StatusAccepted, gin.H{"job_id": jobID})
}

// Get returns the current status, progress and result of a job.
func (h *SimulationHandler) Get(c *gin.Context) {
	id := strings.TrimSpace(c.Param("id"))

	snapshot, ok := h.service.Get(id)
	if !ok {
		c.JSON(http.StatusNotFound, gin.H{"error": "simulation job not found"})
		return
	}

	c.JSON(http.StatusOK, snapshot)
}

// Cancel requests cancellation of a running job.
func (h *SimulationHandler) Cancel(c *gin.Context) {
	id := strings.TrimSpace(c.Param("id"))

	if !h.service.Cancel(id) {
		c.JSON(http.StatusNotFound, gin.H{"error": "simulation job not found"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"job_id": id, "status": "cancellation requested"})
}
