package api

import (
	"net/http"
	"strings"
	"time"

	"github.com/andresuchdata/demandcast/internal/api/handlers"
	"github.com/andresuchdata/demandcast/internal/api/middleware"
	"github.com/andresuchdata/demandcast/internal/service"
	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
)

type Services struct {
	ForecastService       *service.ForecastService
	ClassificationService *service.ClassificationService
	InventoryService      *service.InventoryService
	SimulationService     *service.SimulationService
}

func NewRouter(services *Services, allowedOrigins []string) *gin.Engine {
	router := gin.New()

	router.Use(middleware.Logger())
	router.Use(middleware.Recovery())

	defaultOrigins := []string{"http://localhost:3000", "http://127.0.0.1:3000"}
	corsConfig := cors.Config{
		AllowOrigins:     defaultOrigins,
		AllowMethods:     []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Accept", "Authorization"},
		ExposeHeaders:    []string{"Content-Length"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}
	if len(allowedOrigins) > 0 {
		normalizedOrigins, allowAll := normalizeAllowedOrigins(allowedOrigins)
		if allowAll {
			corsConfig.AllowOrigins = nil
			corsConfig.AllowOriginFunc = func(origin string) bool { return true }
		} else if len(normalizedOrigins) > 0 {
			corsConfig.AllowOrigins = normalizedOrigins
		}
	}
	router.Use(cors.New(corsConfig))

	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	apiGroup := router.Group("/api/v1")

	if services != nil {
		if services.ForecastService != nil {
			forecastHandler := handlers.NewForecastHandler(services.ForecastService)
			apiGroup.POST("/forecasts", forecastHandler.Generate)
			apiGroup.GET("/items/:id/quality", forecastHandler.GetQuality)
		}

		if services.ClassificationService != nil || services.InventoryService != nil {
			itemHandler := handlers.NewItemHandler(services.ClassificationService, services.InventoryService)
			if services.ClassificationService != nil {
				apiGroup.GET("/items/:id/classification", itemHandler.GetClassification)
			}
			if services.InventoryService != nil {
				apiGroup.GET("/items/:id/metrics", itemHandler.GetInventoryMetrics)
			}
		}

		if services.SimulationService != nil {
			simulationHandler := handlers.NewSimulationHandler(services.SimulationService)
			simulationGroup := apiGroup.Group("/simulations")
			{
				simulationGroup.POST("", simulationHandler.Submit)
				simulationGroup.GET("/:id", simulationHandler.Get)
				simulationGroup.DELETE("/:id", simulationHandler.Cancel)
			}
		}
	}

	return router
}

func normalizeAllowedOrigins(origins []string) ([]string, bool) {
	var (
		parsed   []string
		allowAll bool
	)
	for _, origin := range origins {
		parts := strings.Split(origin, ",")
		for _, part := range parts {
			trimmed := strings.TrimSpace(part)
			if trimmed == "" {
				continue
			}
			if trimmed == "*" {
				allowAll = true
				continue
			}
			parsed = append(parsed, trimmed)
		}
	}
	return parsed, allowAll
}
