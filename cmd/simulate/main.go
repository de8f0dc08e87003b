package main

import (
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/andresuchdata/demandcast/internal/classifier"
	"github.com/andresuchdata/demandcast/internal/config"
	"github.com/andresuchdata/demandcast/internal/domain"
	"github.com/andresuchdata/demandcast/internal/forecast"
	"github.com/andresuchdata/demandcast/internal/history"
	"github.com/andresuchdata/demandcast/internal/repository/postgres"
	"github.com/andresuchdata/demandcast/internal/simulation"
	"github.com/andresuchdata/demandcast/internal/storage"
	"github.com/andresuchdata/demandcast/pkg/logger"
	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/joho/godotenv"
	"github.com/urfave/cli/v2"
)

func main() {
	if err := godotenv.Load(".env"); err != nil {
		log.Printf("warning: could not load .env file: %v", err)
	}

	app := &cli.App{
		Name:  "simulate",
		Usage: "Replay the ordering policy over a historical window and compare against reality",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "data-dir",
				Usage:   "Directory with demand history CSV/XLSX files (file mode)",
				EnvVars: []string{"SIMULATE_DATA_DIR"},
			},
			&cli.StringFlag{
				Name:    "settings-file",
				Usage:   "CSV with per-item stock and ordering settings (file mode)",
				EnvVars: []string{"SIMULATE_SETTINGS_FILE"},
			},
			&cli.StringFlag{
				Name:    "db-url",
				Usage:   "Database connection string (database mode)",
				EnvVars: []string{"DATABASE_URL"},
			},
			&cli.StringFlag{
				Name:     "start",
				Usage:    "Simulation start date (YYYY-MM-DD)",
				Required: true,
			},
			&cli.StringFlag{
				Name:     "end",
				Usage:    "Simulation end date (YYYY-MM-DD)",
				Required: true,
			},
			&cli.StringSliceFlag{
				Name:  "item",
				Usage: "Item ID to simulate; repeat for multiple, omit for all known items",
			},
			&cli.StringFlag{
				Name:  "out",
				Usage: "Path for the comparison report CSV",
				Value: "comparison.csv",
			},
			&cli.BoolFlag{
				Name:  "upload",
				Usage: "Also upload the report to the configured object storage",
			},
			&cli.StringFlag{
				Name:  "log-level",
				Usage: "Log level (debug, info, warn, error)",
				Value: "info",
			},
		},
		Action: runSimulation,
	}

	if err := app.Run(os.Args); err != nil {
		log.Fatal(err)
	}
}

func runSimulation(c *cli.Context) error {
	logger.SetLevel(c.String("log-level"))
	cfg := config.Load()

	start, err := time.Parse("2006-01-02", c.String("start"))
	if err != nil {
		return fmt.Errorf("invalid --start: %w", err)
	}
	end, err := time.Parse("2006-01-02", c.String("end"))
	if err != nil {
		return fmt.Errorf("invalid --end: %w", err)
	}

	histProvider, products, itemIDs, cleanup, err := buildProviders(c)
	if err != nil {
		return err
	}
	defer cleanup()

	if ids := c.StringSlice("item"); len(ids) > 0 {
		itemIDs = ids
	}
	if len(itemIDs) == 0 {
		return fmt.Errorf("no items to simulate")
	}

	registry := forecast.NewRegistry()
	registry.Register(forecast.NewMovingAverage(cfg.Forecast.FallbackWindow))
	registry.Register(forecast.NewCroston(0))
	registry.Register(forecast.NewSBA(0))
	registry.Register(forecast.NewMinMax(0))

	orchestrator := forecast.NewOrchestrator(registry, histProvider, nil, nil, forecast.Config{
		LookbackDays:    cfg.Forecast.LookbackDays,
		FallbackWindow:  cfg.Forecast.FallbackWindow,
		ItemWorkerCount: cfg.Forecast.ItemWorkerCount,
		BaselineMethod:  cfg.Forecast.BaselineMethod,
		DefaultHorizon:  cfg.Forecast.DefaultHorizon,
	})

	cls := classifier.New(classifier.Config{
		ABCASplit:   cfg.Classifier.ABCASplit,
		ABCBSplit:   cfg.Classifier.ABCBSplit,
		XYZXBand:    cfg.Classifier.XYZXBand,
		XYZYBand:    cfg.Classifier.XYZYBand,
		MinimumDays: cfg.Classifier.MinimumDays,
	})

	engine := simulation.NewEngine(histProvider, products, cls, orchestrator, simulation.Config{
		LeadTimeBufferDays:  cfg.Simulation.LeadTimeBufferDays,
		ForecastRefreshDays: cfg.Simulation.ForecastRefreshDays,
		LookbackDays:        cfg.Forecast.LookbackDays,
		FallbackWindow:      cfg.Forecast.FallbackWindow,
		WorkerCount:         cfg.Simulation.WorkerCount,
	})

	logger.Log.Info().
		Int("items", len(itemIDs)).
		Str("start", start.Format("2006-01-02")).
		Str("end", end.Format("2006-01-02")).
		Msg("Starting simulation")

	result, err := engine.Run(c.Context, simulation.Request{
		ItemIDs:   itemIDs,
		StartDate: start,
		EndDate:   end,
	}, nil)
	if err != nil {
		return fmt.Errorf("simulation failed: %w", err)
	}

	report, err := storage.BuildComparisonCSV(result)
	if err != nil {
		return fmt.Errorf("build report: %w", err)
	}
	if err := os.WriteFile(c.String("out"), report, 0o644); err != nil {
		return fmt.Errorf("write report: %w", err)
	}

	logger.Log.Info().
		Str("report", c.String("out")).
		Int("items", len(result.Items)).
		Int("skipped", len(result.Skipped)).
		Float64("stockout_reduction_pct", result.StockoutReductionPct).
		Float64("inventory_reduction_pct", result.InventoryReductionPct).
		Msg("Simulation finished")

	if c.Bool("upload") {
		if !cfg.Reports.Enabled {
			return fmt.Errorf("--upload requires report storage to be configured")
		}
		s3, err := storage.NewS3Client(storage.S3Config{
			Endpoint:  cfg.Reports.Endpoint,
			AccessKey: cfg.Reports.AccessKey,
			SecretKey: cfg.Reports.SecretKey,
			Bucket:    cfg.Reports.Bucket,
			Region:    cfg.Reports.Region,
			UseSSL:    cfg.Reports.UseSSL,
		})
		if err != nil {
			return err
		}
		key := fmt.Sprintf("reports/simulations/%s/cli-%d.csv", result.CompletedAt.Format("2006-01-02"), time.Now().Unix())
		if err := s3.UploadObject(context.Background(), key, report); err != nil {
			return err
		}
		logger.Log.Info().Str("key", key).Msg("Report uploaded")
	}

	return nil
}

// buildProviders resolves history and product settings from either a data
// directory or a database URL.
func buildProviders(c *cli.Context) (forecast.HistoryProvider, simulation.ProductProvider, []string, func(), error) {
	noop := func() {}

	if dir := c.String("data-dir"); dir != "" {
		observations, err := history.LoadDir(dir)
		if err != nil {
			return nil, nil, nil, noop, err
		}
		provider := history.NewMemoryProvider(observations)

		settings := make(map[string]domain.ItemSettings)
		if path := c.String("settings-file"); path != "" {
			settings, err = loadSettingsCSV(path)
			if err != nil {
				return nil, nil, nil, noop, err
			}
		}
		return provider, &memoryProducts{settings: settings}, provider.ItemIDs(), noop, nil
	}

	if url := c.String("db-url"); url != "" {
		db, err := postgres.NewDBFromURL("pgx", url)
		if err != nil {
			return nil, nil, nil, noop, err
		}
		catalog := postgres.NewCatalogRepository(db)
		ids, err := catalog.ListItemIDs(c.Context)
		if err != nil {
			db.Close()
			return nil, nil, nil, noop, err
		}
		return catalog, catalog, ids, func() { db.Close() }, nil
	}

	return nil, nil, nil, noop, fmt.Errorf("either --data-dir or --db-url is required")
}

// memoryProducts serves per-item settings from a file, defaulting items the
// file does not mention.
type memoryProducts struct {
	settings map[string]domain.ItemSettings
}

func (m *memoryProducts) GetStockAndSettings(_ context.Context, itemID string) (*domain.ItemSettings, error) {
	if s, ok := m.settings[itemID]; ok {
		return &s, nil
	}
	return &domain.ItemSettings{
		ItemID:       itemID,
		UnitCost:     1,
		LeadTimeDays: 7,
		MOQ:          1,
	}, nil
}

// loadSettingsCSV reads per-item settings with the header:
// item_id, current_stock, unit_cost, lead_time_days, moq, safety_buffer_days
func loadSettingsCSV(path string) (map[string]domain.ItemSettings, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open settings file %s: %w", path, err)
	}
	defer f.Close()

	reader := csv.NewReader(f)
	header, err := reader.Read()
	if err != nil {
		return nil, fmt.Errorf("failed to read header from %s: %w", path, err)
	}

	cols := make(map[string]int, len(header))
	for i, name := range header {
		cols[strings.ToLower(strings.TrimSpace(name))] = i
	}
	if _, ok := cols["item_id"]; !ok {
		return nil, fmt.Errorf("settings file %s is missing item_id column", path)
	}

	field := func(record []string, name string) float64 {
		idx, ok := cols[name]
		if !ok || idx >= len(record) {
			return 0
		}
		v, _ := strconv.ParseFloat(strings.TrimSpace(record[idx]), 64)
		return v
	}

	settings := make(map[string]domain.ItemSettings)
	for {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("failed to read settings from %s: %w", path, err)
		}

		itemID := strings.TrimSpace(record[cols["item_id"]])
		if itemID == "" {
			continue
		}
		settings[itemID] = domain.ItemSettings{
			ItemID:           itemID,
			CurrentStock:     field(record, "current_stock"),
			UnitCost:         field(record, "unit_cost"),
			LeadTimeDays:     int(field(record, "lead_time_days")),
			MOQ:              field(record, "moq"),
			SafetyBufferDays: int(field(record, "safety_buffer_days")),
		}
	}

	return settings, nil
}
