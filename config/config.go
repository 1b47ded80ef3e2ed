// Package config loads tool defaults from FIT_RECALC_* environment variables.
package config

import (
	"fmt"
	"io"
	"log/slog"
	"math"
	"strings"

	"github.com/spf13/viper"
)

const envPrefix = "FIT_RECALC"

// Config holds tool defaults. CLI flags override every field.
type Config struct {
	CalibrationFactor float64 `mapstructure:"CALIBRATION_FACTOR"`
	OutputFormat      string  `mapstructure:"OUTPUT_FORMAT"`
	Overwrite         bool    `mapstructure:"OVERWRITE"`
	CopySource        bool    `mapstructure:"COPY_SOURCE"`
	LogLevel          string  `mapstructure:"LOG_LEVEL"`
	LogFormat         string  `mapstructure:"LOG_FORMAT"`
}

// Load reads FIT_RECALC_* variables over the built-in defaults. A value that
// does not parse or is out of range is an error.
func Load() (Config, error) {
	v := viper.New()
	v.SetEnvPrefix(envPrefix)
	v.AutomaticEnv()
	v.SetDefault("CALIBRATION_FACTOR", 100.0)
	v.SetDefault("OUTPUT_FORMAT", "parquet")
	v.SetDefault("OVERWRITE", true)
	v.SetDefault("COPY_SOURCE", true)
	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("LOG_FORMAT", "text")

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("load config: %w", err)
	}
	if cfg.CalibrationFactor < 0 || math.IsNaN(cfg.CalibrationFactor) || math.IsInf(cfg.CalibrationFactor, 0) {
		return Config{}, fmt.Errorf("load config: calibration factor must be a non-negative number, got %v", cfg.CalibrationFactor)
	}
	switch strings.ToLower(strings.TrimSpace(cfg.OutputFormat)) {
	case "parquet", "csv":
	default:
		return Config{}, fmt.Errorf("load config: unsupported output format %q (expected parquet|csv)", cfg.OutputFormat)
	}
	return cfg, nil
}

// Logger builds a slog logger writing to w at the configured level and
// format. verbose forces debug level.
func (c Config) Logger(w io.Writer, verbose bool) *slog.Logger {
	opts := &slog.HandlerOptions{Level: c.level()}
	if verbose {
		opts.Level = slog.LevelDebug
	}
	if strings.EqualFold(c.LogFormat, "json") {
		return slog.New(slog.NewJSONHandler(w, opts))
	}
	return slog.New(slog.NewTextHandler(w, opts))
}

func (c Config) level() slog.Level {
	switch strings.ToLower(strings.TrimSpace(c.LogLevel)) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
