package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/andresuchdata/demandcast/internal/api"
	"github.com/andresuchdata/demandcast/internal/cache"
	"github.com/andresuchdata/demandcast/internal/classifier"
	"github.com/andresuchdata/demandcast/internal/config"
	"github.com/andresuchdata/demandcast/internal/forecast"
	"github.com/andresuchdata/demandcast/internal/inventory"
	"github.com/andresuchdata/demandcast/internal/repository/postgres"
	"github.com/andresuchdata/demandcast/internal/service"
	"github.com/andresuchdata/demandcast/internal/simulation"
	"github.com/andresuchdata/demandcast/internal/storage"
	"github.com/andresuchdata/demandcast/pkg/logger"
	"github.com/gin-gonic/gin"
)

func main() {
	cfg := config.Load()

	logger.SetLevel(cfg.Server.Mode)
	if cfg.Server.Mode == "debug" {
		gin.SetMode(gin.DebugMode)
	} else {
		gin.SetMode(gin.ReleaseMode)
	}

	db, err := postgres.NewDB(&cfg.Database)
	if err != nil {
		logger.Log.Fatal().Err(err).Msg("Failed to connect to database")
	}
	defer db.Close()

	forecastRepo := postgres.NewForecastRepository(db)
	catalogRepo := postgres.NewCatalogRepository(db)

	classificationCache, err := cache.NewClassificationCache(cfg.Cache)
	if err != nil {
		logger.Log.Warn().Err(err).Msg("Cache unavailable, falling back to no-op")
		classificationCache = cache.NewNoopClassificationCache()
	}

	registry := forecast.NewRegistry()
	registry.Register(forecast.NewMovingAverage(cfg.Forecast.FallbackWindow))
	registry.Register(forecast.NewCroston(0))
	registry.Register(forecast.NewSBA(0))
	registry.Register(forecast.NewMinMax(0))
	if cfg.Forecast.ModelURL != "" {
		remote, err := forecast.NewRemoteModel(forecast.RemoteModelConfig{
			URL:     cfg.Forecast.ModelURL,
			Timeout: cfg.Forecast.ModelTimeout,
			Retries: cfg.Forecast.ModelRetries,
		})
		if err != nil {
			logger.Log.Fatal().Err(err).Msg("Invalid remote model configuration")
		}
		registry.Register(remote)
	}

	cls := classifier.New(classifier.Config{
		ABCASplit:   cfg.Classifier.ABCASplit,
		ABCBSplit:   cfg.Classifier.ABCBSplit,
		XYZXBand:    cfg.Classifier.XYZXBand,
		XYZYBand:    cfg.Classifier.XYZYBand,
		MinimumDays: cfg.Classifier.MinimumDays,
	})

	calculator := inventory.NewCalculator(inventory.Thresholds{
		UnderstockedDays: cfg.Inventory.UnderstockedDays,
		OverstockedDays:  cfg.Inventory.OverstockedDays,
		DeadStockDays:    cfg.Inventory.DeadStockDays,
	})
	inventoryService := service.NewInventoryService(calculator, catalogRepo, cfg.Forecast.FallbackWindow, cfg.Inventory.SafetyBufferDays)

	orchestrator := forecast.NewOrchestrator(registry, catalogRepo, forecastRepo, inventoryService, forecast.Config{
		LookbackDays:    cfg.Forecast.LookbackDays,
		FallbackWindow:  cfg.Forecast.FallbackWindow,
		ItemWorkerCount: cfg.Forecast.ItemWorkerCount,
		BaselineMethod:  cfg.Forecast.BaselineMethod,
		DefaultHorizon:  cfg.Forecast.DefaultHorizon,
	})

	engine := simulation.NewEngine(catalogRepo, catalogRepo, cls, orchestrator, simulation.Config{
		LeadTimeBufferDays:  cfg.Simulation.LeadTimeBufferDays,
		ForecastRefreshDays: cfg.Simulation.ForecastRefreshDays,
		LookbackDays:        cfg.Forecast.LookbackDays,
		FallbackWindow:      cfg.Forecast.FallbackWindow,
		WorkerCount:         cfg.Simulation.WorkerCount,
	})
	runner := simulation.NewRunner(engine, time.Duration(cfg.Simulation.JobRetentionHours)*time.Hour)

	var reports storage.ObjectStorage
	if cfg.Reports.Enabled {
		s3, err := storage.NewS3Client(storage.S3Config{
			Endpoint:  cfg.Reports.Endpoint,
			AccessKey: cfg.Reports.AccessKey,
			SecretKey: cfg.Reports.SecretKey,
			Bucket:    cfg.Reports.Bucket,
			Region:    cfg.Reports.Region,
			UseSSL:    cfg.Reports.UseSSL,
		})
		if err != nil {
			logger.Log.Fatal().Err(err).Msg("Invalid report storage configuration")
		}
		reports = s3
	}

	services := &api.Services{
		ForecastService:       service.NewForecastService(orchestrator, forecastRepo),
		ClassificationService: service.NewClassificationService(cls, catalogRepo, classificationCache, cfg.Classifier.LookbackDays),
		InventoryService:      inventoryService,
		SimulationService:     service.NewSimulationService(runner, reports),
	}

	router := api.NewRouter(services, cfg.Server.AllowedOrigins)
	srv := &http.Server{
		Addr:         ":" + cfg.Server.Port,
		Handler:      router,
		ReadTimeout:  time.Duration(cfg.Server.ReadTimeout) * time.Second,
		WriteTimeout: time.Duration(cfg.Server.WriteTimeout) * time.Second,
	}

	go func() {
		logger.Log.Info().Str("port", cfg.Server.Port).Msg("Starting server")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Log.Fatal().Err(err).Msg("Failed to start server")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	logger.Log.Info().Msg("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		logger.Log.Fatal().Err(err).Msg("Server forced to shutdown")
	}

	logger.Log.Info().Msg("Server exiting")
}
