package pipeline

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"io"
	"log/slog"
	"math"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	fitrecalc "github.com/lucasjlepore/fit-recalc"
	"github.com/lucasjlepore/fit-recalc/export"
	"github.com/lucasjlepore/fit-recalc/fitsource"
	"github.com/xitongsys/parquet-go-source/local"
	"github.com/xitongsys/parquet-go/parquet"
	"github.com/xitongsys/parquet-go/writer"
)

var trackpointHeader = []string{
	"lap_number", "ts_utc_iso", "elapsed_s", "latitude_deg", "longitude_deg", "altitude_m",
	"distance_m", "speed_mps", "hr_bpm", "cadence_rpm", "raw_distance_m", "raw_speed_mps",
}

// bundle is everything derived from one FIT payload before it is written.
type bundle struct {
	info     *export.SourceInfo
	conv     *fitrecalc.Result
	rows     []TrackpointRow
	laps     LapSummaryDoc
	summary  ActivitySummaryDoc
	notes    string
	warnings []string
}

// Run executes the full fit_recalc pipeline and writes all required artifacts.
func Run(opts Options) (*Result, error) {
	if strings.TrimSpace(opts.FitPath) == "" {
		return nil, fmt.Errorf("fit path is required")
	}
	if strings.TrimSpace(opts.OutDir) == "" {
		return nil, fmt.Errorf("output directory is required")
	}
	format, err := normalizeFormat(opts.Format)
	if err != nil {
		return nil, err
	}
	if err := opts.Convert.Validate(); err != nil {
		return nil, err
	}
	logger := loggerOrDiscard(opts.Logger)

	data, err := os.ReadFile(opts.FitPath)
	if err != nil {
		return nil, fmt.Errorf("read fit file: %w", err)
	}
	b, err := build(data, opts.Convert, logger)
	if err != nil {
		return nil, err
	}

	if err := export.EnsureOutputDir(opts.OutDir, opts.Overwrite); err != nil {
		return nil, err
	}

	trackpointsPath := filepath.Join(opts.OutDir, trackpointsBase+"."+format)
	switch format {
	case "csv":
		if err := writeTrackpointCSVFile(trackpointsPath, b.rows); err != nil {
			return nil, fmt.Errorf("write trackpoints csv: %w", err)
		}
	case "parquet":
		if err := writeTrackpointParquet(trackpointsPath, b.rows); err != nil {
			return nil, fmt.Errorf("write trackpoints parquet: %w", err)
		}
	}
	logger.Debug("wrote trackpoints", "path", trackpointsPath, "rows", len(b.rows))

	lapSummaryPath := filepath.Join(opts.OutDir, LapSummaryFile)
	if err := export.WriteJSON(lapSummaryPath, b.laps); err != nil {
		return nil, fmt.Errorf("write %s: %w", LapSummaryFile, err)
	}
	activitySummaryPath := filepath.Join(opts.OutDir, ActivitySummaryFile)
	if err := export.WriteJSON(activitySummaryPath, b.summary); err != nil {
		return nil, fmt.Errorf("write %s: %w", ActivitySummaryFile, err)
	}
	notesPath := filepath.Join(opts.OutDir, NotesFile)
	if err := os.WriteFile(notesPath, []byte(b.notes), 0o644); err != nil {
		return nil, fmt.Errorf("write %s: %w", NotesFile, err)
	}

	sourceCopyPath := ""
	if opts.CopySource {
		sourceCopyPath = filepath.Join(opts.OutDir, SourceCopyFile)
		if err := export.CopyFile(opts.FitPath, sourceCopyPath); err != nil {
			return nil, fmt.Errorf("copy source fit: %w", err)
		}
	}

	manifest := export.NewManifest(opts.FitPath, b.info, opts.Convert, b.conv, artifactList(format, opts.CopySource))
	manifestPath := filepath.Join(opts.OutDir, ManifestFile)
	if err := export.WriteJSON(manifestPath, manifest); err != nil {
		return nil, fmt.Errorf("write %s: %w", ManifestFile, err)
	}
	logger.Info("conversion complete", "out_dir", opts.OutDir, "laps", len(b.laps.Laps), "warnings", len(b.warnings))

	return &Result{
		OutputDir:           opts.OutDir,
		ManifestPath:        manifestPath,
		TrackpointsPath:     trackpointsPath,
		LapSummaryPath:      lapSummaryPath,
		ActivitySummaryPath: activitySummaryPath,
		NotesPath:           notesPath,
		SourceCopyPath:      sourceCopyPath,
		Warnings:            b.warnings,
		Conversion:          b.conv,
	}, nil
}

// RunBytes executes the pipeline on in-memory FIT data and returns every
// artifact keyed by file name.
func RunBytes(opts BytesOptions) (*BytesResult, error) {
	if len(opts.FitData) == 0 {
		return nil, fmt.Errorf("fit data is required")
	}
	format, err := normalizeFormat(opts.Format)
	if err != nil {
		return nil, err
	}
	if err := opts.Convert.Validate(); err != nil {
		return nil, err
	}
	logger := loggerOrDiscard(opts.Logger)
	sourceName := strings.TrimSpace(opts.SourceFileName)
	if sourceName == "" {
		sourceName = SourceCopyFile
	}

	b, err := build(opts.FitData, opts.Convert, logger)
	if err != nil {
		return nil, err
	}

	files := make(map[string][]byte, 6)
	trackpointsName := trackpointsBase + "." + format
	switch format {
	case "csv":
		var buf bytes.Buffer
		if err := writeTrackpointCSV(&buf, b.rows); err != nil {
			return nil, fmt.Errorf("write trackpoints csv: %w", err)
		}
		files[trackpointsName] = buf.Bytes()
	case "parquet":
		out, err := marshalTrackpointParquet(b.rows)
		if err != nil {
			return nil, fmt.Errorf("write trackpoints parquet: %w", err)
		}
		files[trackpointsName] = out
	}

	docs := []struct {
		name string
		v    any
	}{
		{LapSummaryFile, b.laps},
		{ActivitySummaryFile, b.summary},
		{ManifestFile, export.NewManifest(sourceName, b.info, opts.Convert, b.conv, artifactList(format, opts.CopySource))},
	}
	for _, d := range docs {
		out, err := export.MarshalJSON(d.v)
		if err != nil {
			return nil, fmt.Errorf("marshal %s: %w", d.name, err)
		}
		files[d.name] = out
	}
	files[NotesFile] = []byte(b.notes)
	if opts.CopySource {
		files[SourceCopyFile] = append([]byte(nil), opts.FitData...)
	}

	return &BytesResult{Files: files, Warnings: b.warnings, Conversion: b.conv}, nil
}

func build(data []byte, convertOpts fitrecalc.Options, logger *slog.Logger) (*bundle, error) {
	info, err := export.Inspect(data)
	if err != nil {
		return nil, fmt.Errorf("inspect fit file: %w", err)
	}
	warnings := export.Warnings(info)
	for _, w := range warnings {
		logger.Warn("source integrity", "warning", w)
	}

	activity, err := fitsource.DecodeBytes(data)
	if err != nil {
		return nil, err
	}
	logger.Debug("decoded activity", "records", len(activity.Records), "laps", len(activity.Laps), "sport", activity.Session.Sport)

	conv, err := fitrecalc.Convert(activity, convertOpts)
	if err != nil {
		return nil, fmt.Errorf("convert activity: %w", err)
	}
	if conv.DroppedRecords > 0 {
		w := fmt.Sprintf("dropped %d records without a timestamp", conv.DroppedRecords)
		logger.Warn("records dropped", "count", conv.DroppedRecords)
		warnings = append(warnings, w)
	}
	for _, s := range conv.Skipped {
		logger.Warn("lap skipped", "ordinal", s.Ordinal, "reason", s.Reason)
		warnings = append(warnings, fmt.Sprintf("skipped lap %d: %s", s.Ordinal, s.Reason))
	}
	if len(conv.Laps) == 0 {
		warnings = append(warnings, "no usable laps found")
	}

	rows, laps := buildRows(conv)
	laps.Skipped = conv.Skipped
	notes := renderNotes(conv)
	return &bundle{
		info:     info,
		conv:     conv,
		rows:     rows,
		laps:     laps,
		summary:  buildActivitySummary(conv, len(rows), warnings),
		notes:    notes,
		warnings: warnings,
	}, nil
}

func buildRows(conv *fitrecalc.Result) ([]TrackpointRow, LapSummaryDoc) {
	rows := make([]TrackpointRow, 0, 4096)
	doc := LapSummaryDoc{Laps: make([]LapSummary, 0, len(conv.Laps))}

	var origin time.Time
	if !conv.StartTime.IsZero() {
		origin = conv.StartTime
	}
	for _, lap := range conv.Laps {
		startIdx := len(rows)
		for _, tp := range lap.Trackpoints {
			if origin.IsZero() {
				origin = tp.Timestamp
			}
			row := TrackpointRow{
				LapNumber:    lap.Number,
				TSUTCISO:     tp.Timestamp.UTC().Format(time.RFC3339),
				Timestamp:    tp.Timestamp,
				ElapsedS:     tp.Timestamp.Sub(origin).Seconds(),
				AltitudeM:    tp.Altitude,
				DistanceM:    tp.Distance,
				SpeedMPS:     tp.Speed,
				HRBPM:        tp.HeartRate,
				CadenceRPM:   tp.Cadence,
				RawDistanceM: tp.RawDistance,
				RawSpeedMPS:  tp.RawSpeed,
			}
			if tp.Position != nil {
				row.LatitudeDeg = floatPtr(tp.Position.Lat)
				row.LongitudeDeg = floatPtr(tp.Position.Lon)
			}
			rows = append(rows, row)
		}
		endIdx := len(rows) - 1
		if endIdx < startIdx {
			endIdx = startIdx
		}

		doc.Laps = append(doc.Laps, LapSummary{
			LapNumber:               lap.Number,
			Ordinal:                 lap.Ordinal,
			StartTS:                 lap.StartTime.UTC().Format(time.RFC3339),
			EndTS:                   lap.EndTime.UTC().Format(time.RFC3339),
			ElapsedS:                lap.TotalElapsedTime,
			Trigger:                 lap.Trigger,
			Intensity:               lap.Intensity,
			ReportedDistanceM:       lap.ReportedDistance,
			CalculatedDistanceM:     lap.CalculatedDistance,
			FixedDistanceM:          lap.FixedDistance,
			ReferenceDistanceM:      lap.ReferenceDistance,
			DistanceM:               lap.Distance,
			AvgSpeedMPS:             lap.AvgSpeed,
			MaxSpeedMPS:             lap.MaxSpeed,
			TotalCalories:           lap.TotalCalories,
			AvgHRBPM:                lap.AvgHeartRate,
			MaxHRBPM:                lap.MaxHeartRate,
			AvgCadenceRPM:           lap.AvgCadence,
			MaxCadenceRPM:           lap.MaxCadence,
			ScalingFactor:           lap.AppliedScaling,
			NewCalibrationFactorPct: lap.NewCalibrationFactor,
			PrecisionPct:            lap.Precision,
			GPSPrecisionPct:         lap.GPSPrecision,
			StartSampleIndex:        startIdx,
			EndSampleIndex:          endIdx,
			Notes:                   lap.Notes,
		})
	}
	return rows, doc
}

func buildActivitySummary(conv *fitrecalc.Result, trackpoints int, warnings []string) ActivitySummaryDoc {
	out := ActivitySummaryDoc{
		Sport:                   conv.Sport,
		NumLaps:                 conv.NumLaps,
		TotalTimerS:             conv.TotalTimerTime,
		ReportedDistanceM:       conv.ReportedDistance,
		CalculatedDistanceM:     conv.CalculatedDistance,
		ReferenceDistanceM:      conv.ReferenceDistance,
		DistanceUsedM:           conv.DistanceUsed,
		CalibrationFactorPct:    conv.CalibrationFactor,
		ActivityScalingFactor:   conv.ActivityScaling,
		NewCalibrationFactorPct: conv.NewCalibrationFactor,
		PrecisionPct:            conv.Precision,
		Method:                  conv.Method,
		TrackpointCount:         trackpoints,
		SkippedLaps:             len(conv.Skipped),
		DroppedRecords:          conv.DroppedRecords,
		Notes:                   conv.Notes,
		Warnings:                warnings,
	}
	if !conv.StartTime.IsZero() {
		out.StartTS = conv.StartTime.UTC().Format(time.RFC3339)
	}
	return out
}

func renderNotes(conv *fitrecalc.Result) string {
	var sb strings.Builder
	sb.WriteString("# Activity\n\n")
	sb.WriteString(conv.Notes)
	sb.WriteString("\n")
	for _, lap := range conv.Laps {
		fmt.Fprintf(&sb, "\n## Lap %d\n\n%s\n", lap.Number, lap.Notes)
	}
	return sb.String()
}

func artifactList(format string, copySource bool) []export.Artifact {
	out := []export.Artifact{
		{Name: trackpointsBase + "." + format, Description: "corrected trackpoints, one row per sample"},
		{Name: LapSummaryFile, Description: "per-lap reconciliation results"},
		{Name: ActivitySummaryFile, Description: "activity totals and calibration"},
		{Name: NotesFile, Description: "human-readable lap and activity notes"},
	}
	if copySource {
		out = append(out, export.Artifact{Name: SourceCopyFile, Description: "verbatim copy of the input FIT file"})
	}
	return out
}

func normalizeFormat(format string) (string, error) {
	format = strings.ToLower(strings.TrimSpace(format))
	if format == "" {
		format = "parquet"
	}
	if format != "parquet" && format != "csv" {
		return "", fmt.Errorf("unsupported format %q (expected parquet|csv)", format)
	}
	return format, nil
}

func loggerOrDiscard(l *slog.Logger) *slog.Logger {
	if l != nil {
		return l
	}
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func writeTrackpointCSVFile(path string, rows []TrackpointRow) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()
	return writeTrackpointCSV(f, rows)
}

func writeTrackpointCSV(out io.Writer, rows []TrackpointRow) error {
	w := csv.NewWriter(out)
	if err := w.Write(trackpointHeader); err != nil {
		return err
	}
	for _, r := range rows {
		record := []string{
			strconv.Itoa(r.LapNumber),
			r.TSUTCISO,
			formatFloat(r.ElapsedS),
			formatFloatPtr(r.LatitudeDeg),
			formatFloatPtr(r.LongitudeDeg),
			formatFloatPtr(r.AltitudeM),
			formatFloatPtr(r.DistanceM),
			formatFloatPtr(r.SpeedMPS),
			formatFloatPtr(r.HRBPM),
			formatFloatPtr(r.CadenceRPM),
			formatFloatPtr(r.RawDistanceM),
			formatFloatPtr(r.RawSpeedMPS),
		}
		if err := w.Write(record); err != nil {
			return err
		}
	}
	w.Flush()
	return w.Error()
}

type trackpointParquetRow struct {
	LapNumber    int32   `parquet:"name=lap_number, type=INT32"`
	TSUTCISO     string  `parquet:"name=ts_utc_iso, type=BYTE_ARRAY, convertedtype=UTF8, encoding=PLAIN_DICTIONARY"`
	ElapsedS     float64 `parquet:"name=elapsed_s, type=DOUBLE"`
	LatitudeDeg  float64 `parquet:"name=latitude_deg, type=DOUBLE"`
	LongitudeDeg float64 `parquet:"name=longitude_deg, type=DOUBLE"`
	AltitudeM    float64 `parquet:"name=altitude_m, type=DOUBLE"`
	DistanceM    float64 `parquet:"name=distance_m, type=DOUBLE"`
	SpeedMPS     float64 `parquet:"name=speed_mps, type=DOUBLE"`
	HRBPM        float64 `parquet:"name=hr_bpm, type=DOUBLE"`
	CadenceRPM   float64 `parquet:"name=cadence_rpm, type=DOUBLE"`
	RawDistanceM float64 `parquet:"name=raw_distance_m, type=DOUBLE"`
	RawSpeedMPS  float64 `parquet:"name=raw_speed_mps, type=DOUBLE"`
}

func toParquetRow(r TrackpointRow) trackpointParquetRow {
	return trackpointParquetRow{
		LapNumber:    int32(r.LapNumber),
		TSUTCISO:     r.TSUTCISO,
		ElapsedS:     r.ElapsedS,
		LatitudeDeg:  valueOrNaN(r.LatitudeDeg),
		LongitudeDeg: valueOrNaN(r.LongitudeDeg),
		AltitudeM:    valueOrNaN(r.AltitudeM),
		DistanceM:    valueOrNaN(r.DistanceM),
		SpeedMPS:     valueOrNaN(r.SpeedMPS),
		HRBPM:        valueOrNaN(r.HRBPM),
		CadenceRPM:   valueOrNaN(r.CadenceRPM),
		RawDistanceM: valueOrNaN(r.RawDistanceM),
		RawSpeedMPS:  valueOrNaN(r.RawSpeedMPS),
	}
}

func writeTrackpointParquet(path string, rows []TrackpointRow) error {
	fw, err := local.NewLocalFileWriter(path)
	if err != nil {
		return err
	}
	pw, err := writer.NewParquetWriter(fw, new(trackpointParquetRow), 4)
	if err != nil {
		_ = fw.Close()
		return err
	}
	pw.CompressionType = parquet.CompressionCodec_SNAPPY
	for _, r := range rows {
		if err := pw.Write(toParquetRow(r)); err != nil {
			_ = pw.WriteStop()
			_ = fw.Close()
			return err
		}
	}
	if err := pw.WriteStop(); err != nil {
		_ = fw.Close()
		return err
	}
	return fw.Close()
}

func valueOrNaN(v *float64) float64 {
	if v == nil {
		return math.NaN()
	}
	return *v
}

func floatPtr(v float64) *float64 {
	return &v
}

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'f', 6, 64)
}

func formatFloatPtr(v *float64) string {
	if v == nil {
		return ""
	}
	return formatFloat(*v)
}
