/*
Package config loads the service configuration.

PURPOSE:
  One YAML file configures the database path, HTTP server, forecast engine
  and logging. Defaults apply first, the file overrides them, and CLI flags
  override the file.

EXAMPLE FILE:
  database:
    path: ./data/ventes.db
  server:
    port: 8080
    allowed_origins: ["http://localhost:5173"]
  forecast:
    horizon: 6
    min_history: 30
    trees: 100
    seed: 42
  log:
    level: info
    development: false

SEE ALSO:
  - cmd/server/main.go: --config and --db flags
*/
package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/warp/sales-engine/forecast"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"gopkg.in/yaml.v3"
)

// Config is the full service configuration.
type Config struct {
	Database DatabaseConfig `yaml:"database"`
	Server   ServerConfig   `yaml:"server"`
	Forecast ForecastConfig `yaml:"forecast"`
	Log      LogConfig      `yaml:"log"`
}

// DatabaseConfig locates the SQLite file.
type DatabaseConfig struct {
	Path string `yaml:"path"`
}

// ServerConfig tunes the HTTP listener.
type ServerConfig struct {
	Port            int           `yaml:"port"`
	AllowedOrigins  []string      `yaml:"allowed_origins"`
	ReadTimeout     time.Duration `yaml:"read_timeout"`
	WriteTimeout    time.Duration `yaml:"write_timeout"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout"`
}

// ForecastConfig tunes the forecast engine and its caller guard.
type ForecastConfig struct {
	Horizon         int     `yaml:"horizon"`
	MinHistory      int     `yaml:"min_history"`
	Trees           int     `yaml:"trees"`
	Seed            int64   `yaml:"seed"`
	TestFraction    float64 `yaml:"test_fraction"`
	FillMissingDays bool    `yaml:"fill_missing_days"`
}

// Engine converts the settings into forecast engine options.
func (f ForecastConfig) Engine() forecast.Config {
	return forecast.Config{
		Seed:            f.Seed,
		Trees:           f.Trees,
		TestFraction:    f.TestFraction,
		FillMissingDays: f.FillMissingDays,
	}
}

// LogConfig selects the logger.
type LogConfig struct {
	Level       string `yaml:"level"`
	Development bool   `yaml:"development"`
}

// Default returns the configuration used when no file is given.
func Default() Config {
	return Config{
		Database: DatabaseConfig{Path: "ventes.db"},
		Server: ServerConfig{
			Port:            8080,
			AllowedOrigins:  []string{"*"},
			ReadTimeout:     15 * time.Second,
			WriteTimeout:    15 * time.Second,
			ShutdownTimeout: 30 * time.Second,
		},
		Forecast: ForecastConfig{
			Horizon:      6,
			MinHistory:   30,
			Trees:        100,
			Seed:         42,
			TestFraction: 0.2,
		},
		Log: LogConfig{Level: "info"},
	}
}

// Load reads path over the defaults. An empty path returns the defaults.
// Unknown keys are rejected.
func Load(path string) (Config, error) {
	cfg := Default()
	if path == "" {
		return cfg, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("failed to read config file: %w", err)
	}

	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true)
	if err := decoder.Decode(&cfg); err != nil && !errors.Is(err, io.EOF) {
		return Config{}, fmt.Errorf("failed to parse YAML: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return Config{}, fmt.Errorf("invalid config: %w", err)
	}
	return cfg, nil
}

// Validate checks ranges.
func (c Config) Validate() error {
	if c.Database.Path == "" {
		return fmt.Errorf("database.path is required")
	}
	if c.Server.Port < 1 || c.Server.Port > 65535 {
		return fmt.Errorf("server.port must be between 1 and 65535, got %d", c.Server.Port)
	}
	if c.Forecast.Horizon < 1 {
		return fmt.Errorf("forecast.horizon must be at least 1, got %d", c.Forecast.Horizon)
	}
	if c.Forecast.MinHistory < 1 {
		return fmt.Errorf("forecast.min_history must be at least 1, got %d", c.Forecast.MinHistory)
	}
	// The engine treats a zero seed as unset.
	if c.Forecast.Seed == 0 {
		return fmt.Errorf("forecast.seed must be non-zero")
	}
	if c.Forecast.Trees < 1 {
		return fmt.Errorf("forecast.trees must be at least 1, got %d", c.Forecast.Trees)
	}
	if c.Forecast.TestFraction <= 0 || c.Forecast.TestFraction >= 1 {
		return fmt.Errorf("forecast.test_fraction must be in (0, 1), got %g", c.Forecast.TestFraction)
	}
	if _, err := zapcore.ParseLevel(c.Log.Level); err != nil {
		return fmt.Errorf("log.level: %w", err)
	}
	return nil
}

// NewLogger builds a production logger, or a development one when
// configured, at the configured level.
func NewLogger(c LogConfig) (*zap.Logger, error) {
	level, err := zapcore.ParseLevel(c.Level)
	if err != nil {
		return nil, fmt.Errorf("log.level: %w", err)
	}

	zc := zap.NewProductionConfig()
	if c.Development {
		zc = zap.NewDevelopmentConfig()
	}
	zc.Level = zap.NewAtomicLevelAt(level)
	return zc.Build()
}
