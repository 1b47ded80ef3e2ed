package pipeline

import (
	"log/slog"
	"time"

	fitrecalc "github.com/lucasjlepore/fit-recalc"
)

// Artifact names written by Run and returned by RunBytes.
const (
	ManifestFile        = "manifest.json"
	LapSummaryFile      = "laps.json"
	ActivitySummaryFile = "activity_summary.json"
	NotesFile           = "notes.md"
	SourceCopyFile      = "source.fit"
	trackpointsBase     = "trackpoints"
)

// Options configures the fit_recalc pipeline.
type Options struct {
	FitPath    string
	OutDir     string
	Format     string // parquet|csv
	Overwrite  bool
	CopySource bool
	Convert    fitrecalc.Options
	Logger     *slog.Logger
}

// BytesOptions configures RunBytes for in-memory FIT input.
type BytesOptions struct {
	SourceFileName string
	FitData        []byte
	Format         string // parquet|csv
	CopySource     bool
	Convert        fitrecalc.Options
	Logger         *slog.Logger
}

// Result returns generated output paths.
type Result struct {
	OutputDir           string            `json:"output_dir"`
	ManifestPath        string            `json:"manifest_path"`
	TrackpointsPath     string            `json:"trackpoints_path"`
	LapSummaryPath      string            `json:"lap_summary_path"`
	ActivitySummaryPath string            `json:"activity_summary_path"`
	NotesPath           string            `json:"notes_path"`
	SourceCopyPath      string            `json:"source_copy_path,omitempty"`
	Warnings            []string          `json:"warnings,omitempty"`
	Conversion          *fitrecalc.Result `json:"-"`
}

// BytesResult holds every artifact keyed by file name.
type BytesResult struct {
	Files      map[string][]byte
	Warnings   []string
	Conversion *fitrecalc.Result
}

// TrackpointRow is one corrected sample row of the trackpoint table.
type TrackpointRow struct {
	LapNumber    int       `json:"lap_number"`
	TSUTCISO     string    `json:"ts_utc_iso"`
	Timestamp    time.Time `json:"-"`
	ElapsedS     float64   `json:"elapsed_s"`
	LatitudeDeg  *float64  `json:"latitude_deg,omitempty"`
	LongitudeDeg *float64  `json:"longitude_deg,omitempty"`
	AltitudeM    *float64  `json:"altitude_m,omitempty"`
	DistanceM    *float64  `json:"distance_m,omitempty"`
	SpeedMPS     *float64  `json:"speed_mps,omitempty"`
	HRBPM        *float64  `json:"hr_bpm,omitempty"`
	CadenceRPM   *float64  `json:"cadence_rpm,omitempty"`
	RawDistanceM *float64  `json:"raw_distance_m,omitempty"`
	RawSpeedMPS  *float64  `json:"raw_speed_mps,omitempty"`
}

// LapSummaryDoc contains lap-level results.
type LapSummaryDoc struct {
	Laps    []LapSummary           `json:"laps"`
	Skipped []fitrecalc.SkippedLap `json:"skipped,omitempty"`
}

// LapSummary is one lap summary row.
type LapSummary struct {
	LapNumber               int      `json:"lap_number"`
	Ordinal                 int      `json:"ordinal"`
	StartTS                 string   `json:"start_ts"`
	EndTS                   string   `json:"end_ts"`
	ElapsedS                float64  `json:"elapsed_s"`
	Trigger                 string   `json:"trigger"`
	Intensity               string   `json:"intensity"`
	ReportedDistanceM       float64  `json:"reported_distance_m"`
	CalculatedDistanceM     float64  `json:"calculated_distance_m"`
	FixedDistanceM          *float64 `json:"fixed_distance_m,omitempty"`
	ReferenceDistanceM      float64  `json:"reference_distance_m"`
	DistanceM               float64  `json:"distance_m"`
	AvgSpeedMPS             *float64 `json:"avg_speed_mps,omitempty"`
	MaxSpeedMPS             *float64 `json:"max_speed_mps,omitempty"`
	TotalCalories           *float64 `json:"total_calories,omitempty"`
	AvgHRBPM                *float64 `json:"avg_hr_bpm,omitempty"`
	MaxHRBPM                *float64 `json:"max_hr_bpm,omitempty"`
	AvgCadenceRPM           *float64 `json:"avg_cadence_rpm,omitempty"`
	MaxCadenceRPM           *float64 `json:"max_cadence_rpm,omitempty"`
	ScalingFactor           float64  `json:"scaling_factor"`
	NewCalibrationFactorPct float64  `json:"new_calibration_factor_pct"`
	PrecisionPct            float64  `json:"precision_pct"`
	GPSPrecisionPct         float64  `json:"gps_precision_pct"`
	StartSampleIndex        int      `json:"start_sample_index"`
	EndSampleIndex          int      `json:"end_sample_index"`
	Notes                   string   `json:"notes"`
}

// ActivitySummaryDoc contains one-session results.
type ActivitySummaryDoc struct {
	Sport                   string   `json:"sport"`
	StartTS                 string   `json:"start_ts,omitempty"`
	NumLaps                 int      `json:"num_laps"`
	TotalTimerS             float64  `json:"total_timer_s"`
	ReportedDistanceM       float64  `json:"reported_distance_m"`
	CalculatedDistanceM     float64  `json:"calculated_distance_m"`
	ReferenceDistanceM      float64  `json:"reference_distance_m"`
	DistanceUsedM           float64  `json:"distance_used_m"`
	CalibrationFactorPct    float64  `json:"calibration_factor_pct"`
	ActivityScalingFactor   float64  `json:"activity_scaling_factor"`
	NewCalibrationFactorPct float64  `json:"new_calibration_factor_pct"`
	PrecisionPct            float64  `json:"precision_pct"`
	Method                  string   `json:"method,omitempty"`
	TrackpointCount         int      `json:"trackpoint_count"`
	SkippedLaps             int      `json:"skipped_laps"`
	DroppedRecords          int      `json:"dropped_records"`
	Notes                   string   `json:"notes"`
	Warnings                []string `json:"warnings,omitempty"`
}
