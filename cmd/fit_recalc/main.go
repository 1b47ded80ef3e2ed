package main

import (
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	fitrecalc "github.com/lucasjlepore/fit-recalc"
	"github.com/lucasjlepore/fit-recalc/config"
	"github.com/lucasjlepore/fit-recalc/pipeline"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "config failed: %v\n", err)
		os.Exit(2)
	}
	var lapDistances config.DistanceList
	var (
		fitPath        = flag.String("fit", "", "Path to input .fit file")
		outDir         = flag.String("out", "", "Output directory")
		format         = flag.String("format", cfg.OutputFormat, "Trackpoint table format: parquet|csv")
		overwrite      = flag.Bool("overwrite", cfg.Overwrite, "Allow writing into non-empty output directories")
		copySource     = flag.Bool("copy-source", cfg.CopySource, "Copy original FIT file into the output directory as source.fit")
		recalcDistance = flag.Bool("d", false, "Recalculate distance from GPS positions")
		recalcSpeed    = flag.Bool("s", false, "Recalculate speed from GPS positions")
		calibrate      = flag.Bool("c", false, "Apply footpod calibration to distance and speed")
		perLap         = flag.Bool("p", false, "Calibrate each lap separately")
		factor         = flag.Float64("f", cfg.CalibrationFactor, "Current footpod calibration factor in percent")
		verbose        = flag.Bool("v", false, "Enable debug logging")
	)
	flag.Var(&lapDistances, "l", "Known lap distance in meters (repeatable, in lap order)")
	flag.Usage = func() {
		fmt.Fprintf(flag.CommandLine.Output(), "Usage: %s --fit input.fit --out outdir [-d] [-s] [-c [-p] [-l 1000]...] [--format parquet|csv]\n", filepath.Base(os.Args[0]))
		flag.PrintDefaults()
	}
	flag.Parse()

	if strings.TrimSpace(*fitPath) == "" || strings.TrimSpace(*outDir) == "" {
		flag.Usage()
		os.Exit(2)
	}

	result, err := pipeline.Run(pipeline.Options{
		FitPath:    *fitPath,
		OutDir:     *outDir,
		Format:     *format,
		Overwrite:  *overwrite,
		CopySource: *copySource,
		Convert: fitrecalc.Options{
			RecalculateDistance: *recalcDistance,
			RecalculateSpeed:    *recalcSpeed,
			Calibrate:           *calibrate,
			PerLapCalibration:   *perLap,
			LapDistances:        lapDistances,
			CalibrationFactor:   *factor,
		},
		Logger: cfg.Logger(os.Stderr, *verbose),
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "fit_recalc failed: %v\n", err)
		os.Exit(1)
	}

	fmt.Printf("fit_recalc complete\n")
	fmt.Printf("Output dir:          %s\n", result.OutputDir)
	fmt.Printf("manifest.json:       %s\n", result.ManifestPath)
	fmt.Printf("trackpoints:         %s\n", result.TrackpointsPath)
	fmt.Printf("lap summary:         %s\n", result.LapSummaryPath)
	fmt.Printf("activity summary:    %s\n", result.ActivitySummaryPath)
	fmt.Printf("notes:               %s\n", result.NotesPath)
	if result.SourceCopyPath != "" {
		fmt.Printf("source copy:         %s\n", result.SourceCopyPath)
	}
	if c := result.Conversion; c != nil {
		fmt.Printf("distance used:       %.3f km (%s)\n", c.DistanceUsed/1000, c.Method)
	}
	for _, w := range result.Warnings {
		fmt.Printf("warning:             %s\n", w)
	}
}
