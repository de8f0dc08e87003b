package handlers

import (
	"net/http"
	"strings"

	"github.com/andresuchdata/demandcast/internal/forecast"
	"github.com/andresuchdata/demandcast/internal/service"
	"github.com/gin-gonic/gin"
)

// ItemHandler serves per-item classification and inventory metrics.
type ItemHandler struct {
	classifications *service.ClassificationService
	inventory       *service.InventoryService
}

func NewItemHandler(classifications *service.ClassificationService, inventory *service.InventoryService) *ItemHandler {
	return &ItemHandler{classifications: classifications, inventory: inventory}
}

func (h *ItemHandler) GetClassification(c *gin.Context) {
	itemID := strings.TrimSpace(c.Param("id"))
	if itemID == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "item id is required"})
		return
	}

	classification, err := h.classifications.GetClassification(c.Request.Context(), itemID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to classify item", "details": err.Error()})
		return
	}

	c.JSON(http.StatusOK, classification)
}

func (h *ItemHandler) GetInventoryMetrics(c *gin.Context) {
	itemID := strings.TrimSpace(c.Param("id"))

	metrics, err := h.inventory.ComputeInventoryMetrics(c.Request.Context(), itemID)
	if err != nil {
		if forecast.IsInvalidRequest(err) {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		if strings.Contains(err.Error(), "not found") {
			c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to compute inventory metrics", "details": err.Error()})
		return
	}

	c.JSON(http.StatusOK, metrics)
}
