package config

import (
	"sync"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

type Config struct {
	Server     ServerConfig
	Database   DatabaseConfig
	Cache      CacheConfig
	Forecast   ForecastConfig
	Classifier ClassifierConfig
	Inventory  InventoryConfig
	Simulation SimulationConfig
	Reports    ReportsConfig
}

type ServerConfig struct {
	Port           string
	Mode           string
	ReadTimeout    int
	WriteTimeout   int
	AllowedOrigins []string
}

type DatabaseConfig struct {
	Host     string
	Port     string
	User     string
	Password string
	DBName   string
	SSLMode  string
}

type CacheConfig struct {
	Enabled                   bool
	RedisURL                  string
	RedisHost                 string
	RedisPort                 string
	RedisPassword             string
	RedisDB                   int
	ClassificationTTLSeconds  int
	QualityMetricsTTLSeconds  int
}

// ForecastConfig controls the forecast orchestrator and the remote model client.
type ForecastConfig struct {
	ModelURL         string
	ModelTimeout     time.Duration
	ModelRetries     int
	DefaultHorizon   int
	LookbackDays     int
	BaselineMethod   string
	ItemWorkerCount  int
	FallbackWindow   int // trailing days used for the zero-forecast fallback
}

// ClassifierConfig holds tenant-overridable classification thresholds.
type ClassifierConfig struct {
	ABCASplit    float64 // cumulative contribution share for class A
	ABCBSplit    float64 // additional share for class B
	XYZXBand     float64 // CV below this is X
	XYZYBand     float64 // CV below this (and >= XBand) is Y
	MinimumDays  int     // minimum observations for a classification
	LookbackDays int
}

// InventoryConfig holds tenant-overridable stock status thresholds.
type InventoryConfig struct {
	UnderstockedDays float64
	OverstockedDays  float64
	DeadStockDays    int
	SafetyBufferDays int
}

type SimulationConfig struct {
	LeadTimeBufferDays  int
	ForecastRefreshDays int
	WorkerCount         int
	JobRetentionHours   int
}

type ReportsConfig struct {
	Enabled   bool
	Endpoint  string
	AccessKey string
	SecretKey string
	Bucket    string
	Region    string
	UseSSL    bool
}

var (
	once     sync.Once
	instance *Config
)

func Load() *Config {
	once.Do(func() {
		// Load .env file if it exists
		_ = godotenv.Load()

		viper.SetDefault("SERVER_PORT", "8080")
		viper.SetDefault("SERVER_MODE", "debug")
		viper.SetDefault("SERVER_READ_TIMEOUT", 15)
		viper.SetDefault("SERVER_WRITE_TIMEOUT", 30)
		viper.SetDefault("SERVER_ALLOWED_ORIGINS", []string{"*"})

		viper.SetDefault("DB_HOST", "localhost")
		viper.SetDefault("DB_PORT", "5432")
		viper.SetDefault("DB_USER", "postgres")
		viper.SetDefault("DB_PASSWORD", "postgres")
		viper.SetDefault("DB_NAME", "demandcast")
		viper.SetDefault("DB_SSLMODE", "disable")

		viper.SetDefault("CACHE_ENABLED", false)
		viper.SetDefault("REDIS_URL", "")
		viper.SetDefault("REDIS_HOST", "127.0.0.1")
		viper.SetDefault("REDIS_PORT", "6379")
		viper.SetDefault("REDIS_PASSWORD", "")
		viper.SetDefault("REDIS_DB", 0)
		viper.SetDefault("CACHE_CLASSIFICATION_TTL_SECONDS", 3600)
		viper.SetDefault("CACHE_QUALITY_TTL_SECONDS", 600)

		viper.SetDefault("FORECAST_MODEL_URL", "")
		viper.SetDefault("FORECAST_MODEL_TIMEOUT_SECONDS", 30)
		viper.SetDefault("FORECAST_MODEL_RETRIES", 2)
		viper.SetDefault("FORECAST_DEFAULT_HORIZON", 30)
		viper.SetDefault("FORECAST_LOOKBACK_DAYS", 90)
		viper.SetDefault("FORECAST_BASELINE_METHOD", "moving_average")
		viper.SetDefault("FORECAST_ITEM_WORKERS", 4)
		viper.SetDefault("FORECAST_FALLBACK_WINDOW_DAYS", 30)

		viper.SetDefault("CLASSIFIER_ABC_A_SPLIT", 0.80)
		viper.SetDefault("CLASSIFIER_ABC_B_SPLIT", 0.15)
		viper.SetDefault("CLASSIFIER_XYZ_X_BAND", 0.5)
		viper.SetDefault("CLASSIFIER_XYZ_Y_BAND", 1.0)
		viper.SetDefault("CLASSIFIER_MINIMUM_DAYS", 14)
		viper.SetDefault("CLASSIFIER_LOOKBACK_DAYS", 90)

		viper.SetDefault("INVENTORY_UNDERSTOCKED_DAYS", 14.0)
		viper.SetDefault("INVENTORY_OVERSTOCKED_DAYS", 90.0)
		viper.SetDefault("INVENTORY_DEAD_STOCK_DAYS", 60)
		viper.SetDefault("INVENTORY_SAFETY_BUFFER_DAYS", 3)

		viper.SetDefault("SIMULATION_LEAD_TIME_BUFFER_DAYS", 0)
		viper.SetDefault("SIMULATION_FORECAST_REFRESH_DAYS", 7)
		viper.SetDefault("SIMULATION_WORKERS", 4)
		viper.SetDefault("SIMULATION_JOB_RETENTION_HOURS", 24)

		viper.SetDefault("REPORTS_ENABLED", false)
		viper.SetDefault("REPORTS_ENDPOINT", "")
		viper.SetDefault("REPORTS_ACCESS_KEY", "")
		viper.SetDefault("REPORTS_SECRET_KEY", "")
		viper.SetDefault("REPORTS_BUCKET", "")
		viper.SetDefault("REPORTS_REGION", "")
		viper.SetDefault("REPORTS_USE_SSL", true)

		viper.AutomaticEnv()

		instance = &Config{
			Server: ServerConfig{
				Port:           viper.GetString("SERVER_PORT"),
				Mode:           viper.GetString("SERVER_MODE"),
				ReadTimeout:    viper.GetInt("SERVER_READ_TIMEOUT"),
				WriteTimeout:   viper.GetInt("SERVER_WRITE_TIMEOUT"),
				AllowedOrigins: viper.GetStringSlice("SERVER_ALLOWED_ORIGINS"),
			},
			Database: DatabaseConfig{
				Host:     viper.GetString("DB_HOST"),
				Port:     viper.GetString("DB_PORT"),
				User:     viper.GetString("DB_USER"),
				Password: viper.GetString("DB_PASSWORD"),
				DBName:   viper.GetString("DB_NAME"),
				SSLMode:  viper.GetString("DB_SSLMODE"),
			},
			Cache: CacheConfig{
				Enabled:                  viper.GetBool("CACHE_ENABLED"),
				RedisURL:                 viper.GetString("REDIS_URL"),
				RedisHost:                viper.GetString("REDIS_HOST"),
				RedisPort:                viper.GetString("REDIS_PORT"),
				RedisPassword:            viper.GetString("REDIS_PASSWORD"),
				RedisDB:                  viper.GetInt("REDIS_DB"),
				ClassificationTTLSeconds: viper.GetInt("CACHE_CLASSIFICATION_TTL_SECONDS"),
				QualityMetricsTTLSeconds: viper.GetInt("CACHE_QUALITY_TTL_SECONDS"),
			},
			Forecast: ForecastConfig{
				ModelURL:        viper.GetString("FORECAST_MODEL_URL"),
				ModelTimeout:    time.Duration(viper.GetInt("FORECAST_MODEL_TIMEOUT_SECONDS")) * time.Second,
				ModelRetries:    viper.GetInt("FORECAST_MODEL_RETRIES"),
				DefaultHorizon:  viper.GetInt("FORECAST_DEFAULT_HORIZON"),
				LookbackDays:    viper.GetInt("FORECAST_LOOKBACK_DAYS"),
				BaselineMethod:  viper.GetString("FORECAST_BASELINE_METHOD"),
				ItemWorkerCount: viper.GetInt("FORECAST_ITEM_WORKERS"),
				FallbackWindow:  viper.GetInt("FORECAST_FALLBACK_WINDOW_DAYS"),
			},
			Classifier: ClassifierConfig{
				ABCASplit:    viper.GetFloat64("CLASSIFIER_ABC_A_SPLIT"),
				ABCBSplit:    viper.GetFloat64("CLASSIFIER_ABC_B_SPLIT"),
				XYZXBand:     viper.GetFloat64("CLASSIFIER_XYZ_X_BAND"),
				XYZYBand:     viper.GetFloat64("CLASSIFIER_XYZ_Y_BAND"),
				MinimumDays:  viper.GetInt("CLASSIFIER_MINIMUM_DAYS"),
				LookbackDays: viper.GetInt("CLASSIFIER_LOOKBACK_DAYS"),
			},
			Inventory: InventoryConfig{
				UnderstockedDays: viper.GetFloat64("INVENTORY_UNDERSTOCKED_DAYS"),
				OverstockedDays:  viper.GetFloat64("INVENTORY_OVERSTOCKED_DAYS"),
				DeadStockDays:    viper.GetInt("INVENTORY_DEAD_STOCK_DAYS"),
				SafetyBufferDays: viper.GetInt("INVENTORY_SAFETY_BUFFER_DAYS"),
			},
			Simulation: SimulationConfig{
				LeadTimeBufferDays:  viper.GetInt("SIMULATION_LEAD_TIME_BUFFER_DAYS"),
				ForecastRefreshDays: viper.GetInt("SIMULATION_FORECAST_REFRESH_DAYS"),
				WorkerCount:         viper.GetInt("SIMULATION_WORKERS"),
				JobRetentionHours:   viper.GetInt("SIMULATION_JOB_RETENTION_HOURS"),
			},
			Reports: ReportsConfig{
				Enabled:   viper.GetBool("REPORTS_ENABLED"),
				Endpoint:  viper.GetString("REPORTS_ENDPOINT"),
				AccessKey: viper.GetString("REPORTS_ACCESS_KEY"),
				SecretKey: viper.GetString("REPORTS_SECRET_KEY"),
				Bucket:    viper.GetString("REPORTS_BUCKET"),
				Region:    viper.GetString("REPORTS_REGION"),
				UseSSL:    viper.GetBool("REPORTS_USE_SSL"),
			},
		}
	})

	return instance
}
