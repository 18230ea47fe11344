package config

import (
	"fmt"
	"os"
	"regexp"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
	"github.com/robfig/cron/v3"
)

var seasonPattern = regexp.MustCompile(`^\d{2}_\d{2}$`)

// Config holds the process configuration
type Config struct {
	// Data
	DataDir  string `envconfig:"DATA_DIR" default:"data"`
	Season   string `envconfig:"SEASON" default:"25_26"`
	Modality string `envconfig:"MODALITY" default:"futsal"`

	// Rules file; empty means search configs/ and fall back to built-in rules
	RulesFile string `envconfig:"RULES_FILE" default:""`

	// Ratings given to teams with no carried-over value
	DefaultRating float64 `envconfig:"DEFAULT_RATING" default:"1500"`

	LogLevel string `envconfig:"LOG_LEVEL" default:"info"`

	// Monitoring
	EnableMetrics bool `envconfig:"ENABLE_METRICS" default:"false"`
	MetricsPort   int  `envconfig:"METRICS_PORT" default:"9090"`

	// Scheduler
	EnableScheduler bool   `envconfig:"ENABLE_SCHEDULER" default:"false"`
	ReloadCron      string `envconfig:"RELOAD_CRON" default:"*/15 * * * *"`
}

// Load reads configuration from the environment, loading a .env file first if one exists
func Load() (*Config, error) {
	_ = godotenv.Load()

	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, fmt.Errorf("failed to process environment config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return &cfg, nil
}

// Validate validates the configuration
func (c *Config) Validate() error {
	if c.DataDir == "" {
		return fmt.Errorf("DATA_DIR is required")
	}

	if !seasonPattern.MatchString(c.Season) {
		return fmt.Errorf("SEASON must look like 25_26, got %q", c.Season)
	}

	if c.Modality == "" {
		return fmt.Errorf("MODALITY is required")
	}

	if c.DefaultRating <= 0 {
		return fmt.Errorf("DEFAULT_RATING must be positive")
	}

	if c.EnableMetrics && (c.MetricsPort <= 0 || c.MetricsPort > 65535) {
		return fmt.Errorf("METRICS_PORT %d is out of range", c.MetricsPort)
	}

	if c.EnableScheduler {
		if _, err := cron.ParseStandard(c.ReloadCron); err != nil {
			return fmt.Errorf("RELOAD_CRON %q is invalid: %w", c.ReloadCron, err)
		}
	}

	return nil
}

// MetricsAddr returns the listen address for the metrics endpoint
func (c *Config) MetricsAddr() string {
	return fmt.Sprintf(":%d", c.MetricsPort)
}

// ValidSeason reports whether s is a season identifier such as "24_25"
func ValidSeason(s string) bool {
	return seasonPattern.MatchString(s)
}

// MustLoad loads configuration or exits on error
func MustLoad() *Config {
	cfg, err := Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load configuration: %v\n", err)
		os.Exit(1)
	}
	return cfg
}
