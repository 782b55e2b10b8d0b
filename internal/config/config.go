// Package config provides configuration management functionality.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
)

// Config holds application configuration
type Config struct {
	TushareToken  string `validate:"required"`
	TushareURL    string `validate:"required,url"`
	QuickChartURL string `validate:"required,url"`

	DataDir   string // provider cache database lives here (always absolute)
	OutputDir string // run folders are created here (always absolute)

	FactorDataPath  string  `validate:"required"`
	FactorDataScale float64 `validate:"gt=0"`

	SampleIndex   string `validate:"required"`
	SampleExclude []string

	LogLevel  string `validate:"oneof=debug info warn error"`
	LogPretty bool
	DevMode   bool
	Port      int `validate:"min=1,max=65535"`

	ReportSchedule string `validate:"required"`
	ReportFontPath string

	ProviderTimeout    time.Duration `validate:"gt=0"`
	ProviderMaxRetries int           `validate:"min=0,max=10"`
	ProviderRatePerMin int           `validate:"gt=0"`
	CacheEnabled       bool

	Publish PublishConfig
}

// PublishConfig holds the object storage settings for report publishing.
type PublishConfig struct {
	Enabled         bool
	Bucket          string `validate:"required_if=Enabled true"`
	Prefix          string
	Region          string `validate:"required_if=Enabled true"`
	Endpoint        string `validate:"omitempty,url"`
	AccessKeyID     string
	SecretAccessKey string
}

// Load reads configuration from environment variables. When envFile is
// set it must exist; otherwise a .env in the working directory is loaded
// if present.
func Load(envFile string) (*Config, error) {
	if envFile != "" {
		if err := godotenv.Load(envFile); err != nil {
			return nil, fmt.Errorf("failed to load env file %s: %w", envFile, err)
		}
	} else {
		_ = godotenv.Load()
	}

	dataDir, err := ensureDir(getEnv("DATA_DIR", "data"))
	if err != nil {
		return nil, fmt.Errorf("failed to prepare data directory: %w", err)
	}
	outputDir, err := ensureDir(getEnv("OUTPUT_DIR", "reports"))
	if err != nil {
		return nil, fmt.Errorf("failed to prepare output directory: %w", err)
	}

	cfg := &Config{
		TushareToken:       getEnv("TUSHARE_TOKEN", ""),
		TushareURL:         getEnv("TUSHARE_URL", "http://api.tushare.pro"),
		QuickChartURL:      getEnv("QUICKCHART_URL", "https://quickchart.io"),
		DataDir:            dataDir,
		OutputDir:          outputDir,
		FactorDataPath:     getEnv("FACTOR_DATA_PATH", filepath.Join(dataDir, "fivefactor_monthly.csv")),
		FactorDataScale:    getEnvAsFloat("FACTOR_DATA_SCALE", 1),
		SampleIndex:        getEnv("SAMPLE_INDEX", "000300.SH"),
		SampleExclude:      getEnvAsList("SAMPLE_EXCLUDE"),
		LogLevel:           strings.ToLower(getEnv("LOG_LEVEL", "info")),
		LogPretty:          getEnvAsBool("LOG_PRETTY", false),
		DevMode:            getEnvAsBool("DEV_MODE", false),
		Port:               getEnvAsInt("PORT", 8001),
		ReportSchedule:     getEnv("REPORT_SCHEDULE", "0 30 17 * * 1-5"),
		ReportFontPath:     getEnv("REPORT_FONT_PATH", ""),
		ProviderTimeout:    getEnvAsDuration("PROVIDER_TIMEOUT", 30*time.Second),
		ProviderMaxRetries: getEnvAsInt("PROVIDER_MAX_RETRIES", 2),
		ProviderRatePerMin: getEnvAsInt("PROVIDER_RATE_PER_MIN", 200),
		CacheEnabled:       getEnvAsBool("CACHE_ENABLED", true),
		Publish: PublishConfig{
			Enabled:         getEnvAsBool("PUBLISH_ENABLED", false),
			Bucket:          getEnv("S3_BUCKET", ""),
			Prefix:          getEnv("S3_PREFIX", "quantcat"),
			Region:          getEnv("S3_REGION", "auto"),
			Endpoint:        getEnv("S3_ENDPOINT", ""),
			AccessKeyID:     getEnv("S3_ACCESS_KEY_ID", ""),
			SecretAccessKey: getEnv("S3_SECRET_ACCESS_KEY", ""),
		},
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// Validate checks the struct tags of the configuration.
func (c *Config) Validate() error {
	if err := validator.New().Struct(c); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}
	return nil
}

// CachePath returns the provider cache database path.
func (c *Config) CachePath() string {
	return filepath.Join(c.DataDir, "client_data.db")
}

func ensureDir(dir string) (string, error) {
	abs, err := filepath.Abs(dir)
	if err != nil {
		return "", err
	}
	if err := os.MkdirAll(abs, 0755); err != nil {
		return "", err
	}
	return abs, nil
}

// Helper functions
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.Atoi(value); err == nil {
			return intVal
		}
	}
	return defaultValue
}

func getEnvAsBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if boolVal, err := strconv.ParseBool(value); err == nil {
			return boolVal
		}
	}
	return defaultValue
}

func getEnvAsFloat(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		if f, err := strconv.ParseFloat(value, 64); err == nil {
			return f
		}
	}
	return defaultValue
}

// getEnvAsDuration accepts Go durations ("45s") or plain seconds ("45").
func getEnvAsDuration(key string, defaultValue time.Duration) time.Duration {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	if d, err := time.ParseDuration(value); err == nil {
		return d
	}
	if secs, err := strconv.Atoi(value); err == nil {
		return time.Duration(secs) * time.Second
	}
	return defaultValue
}

func getEnvAsList(key string) []string {
	var out []string
	for _, part := range strings.Split(os.Getenv(key), ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
