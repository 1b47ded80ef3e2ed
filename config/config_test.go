package config

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"testing"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load error: %v", err)
	}
	if cfg.CalibrationFactor != 100 {
		t.Fatalf("expected default calibration factor, got %v", cfg.CalibrationFactor)
	}
	if cfg.OutputFormat != "parquet" {
		t.Fatalf("expected default output format, got %q", cfg.OutputFormat)
	}
	if !cfg.Overwrite || !cfg.CopySource {
		t.Fatalf("expected overwrite and copy source by default")
	}
}

func TestLoadEnvOverrides(t *testing.T) {
	t.Setenv("FIT_RECALC_CALIBRATION_FACTOR", "97.5")
	t.Setenv("FIT_RECALC_OUTPUT_FORMAT", "csv")
	t.Setenv("FIT_RECALC_OVERWRITE", "false")
	t.Setenv("FIT_RECALC_LOG_FORMAT", "json")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load error: %v", err)
	}
	if cfg.CalibrationFactor != 97.5 {
		t.Fatalf("expected override factor, got %v", cfg.CalibrationFactor)
	}
	if cfg.OutputFormat != "csv" {
		t.Fatalf("expected override format")
	}
	if cfg.Overwrite {
		t.Fatalf("expected override overwrite")
	}
	if cfg.LogFormat != "json" {
		t.Fatalf("expected override log format")
	}
}

func TestLoadRejectsMalformedEnv(t *testing.T) {
	cases := []struct {
		name, key, value string
	}{
		{"unparsable factor", "FIT_RECALC_CALIBRATION_FACTOR", "abc"},
		{"negative factor", "FIT_RECALC_CALIBRATION_FACTOR", "-3"},
		{"unparsable bool", "FIT_RECALC_OVERWRITE", "maybe"},
		{"unknown format", "FIT_RECALC_OUTPUT_FORMAT", "xlsx"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			t.Setenv(tc.key, tc.value)
			if _, err := Load(); err == nil {
				t.Fatalf("expected error for %s=%q", tc.key, tc.value)
			}
		})
	}
}

func TestLoggerHonorsLevelAndFormat(t *testing.T) {
	var buf bytes.Buffer
	logger := Config{LogLevel: "warn", LogFormat: "json"}.Logger(&buf, false)
	if logger.Enabled(context.Background(), slog.LevelInfo) {
		t.Fatal("info should be disabled at warn level")
	}
	logger.Warn("lap skipped", "ordinal", 2)

	var line map[string]any
	if err := json.Unmarshal(buf.Bytes(), &line); err != nil {
		t.Fatalf("expected JSON log line: %v", err)
	}
	if line["msg"] != "lap skipped" {
		t.Fatalf("unexpected message: %v", line["msg"])
	}

	verbose := Config{LogLevel: "error"}.Logger(&buf, true)
	if !verbose.Enabled(context.Background(), slog.LevelDebug) {
		t.Fatal("verbose should enable debug")
	}
}

func TestDistanceListFlag(t *testing.T) {
	var d DistanceList
	for _, v := range []string{"1000", "400, 800.5"} {
		if err := d.Set(v); err != nil {
			t.Fatalf("Set(%q) error: %v", v, err)
		}
	}
	if len(d) != 3 || d[0] != 1000 || d[2] != 800.5 {
		t.Fatalf("unexpected distances: %v", d)
	}
	if d.String() != "1000,400,800.5" {
		t.Fatalf("unexpected String(): %q", d.String())
	}
	if err := d.Set("-5"); err == nil {
		t.Fatal("expected negative distance to be rejected")
	}
	if err := d.Set("abc"); err == nil {
		t.Fatal("expected parse error")
	}
}
