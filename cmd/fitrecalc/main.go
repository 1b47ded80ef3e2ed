package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"os"

	fitrecalc "github.com/lucasjlepore/fit-recalc"
	"github.com/lucasjlepore/fit-recalc/config"
	"github.com/lucasjlepore/fit-recalc/fitsource"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "config failed: %v\n", err)
		os.Exit(2)
	}
	var lapDistances config.DistanceList
	var (
		recalcDistance = flag.Bool("d", false, "Recalculate distance from GPS positions")
		recalcSpeed    = flag.Bool("s", false, "Recalculate speed from GPS positions")
		calibrate      = flag.Bool("c", false, "Apply footpod calibration to distance and speed")
		perLap         = flag.Bool("p", false, "Calibrate each lap separately")
		factor         = flag.Float64("f", cfg.CalibrationFactor, "Current footpod calibration factor in percent")
		jsonOut        = flag.Bool("json", false, "Emit full result as JSON")
		showLaps       = flag.Bool("laps", false, "Include lap-by-lap summary in text output")
		verbose        = flag.Bool("v", false, "Enable debug logging")
	)
	flag.Var(&lapDistances, "l", "Known lap distance in meters (repeatable, in lap order)")
	flag.Usage = func() {
		fmt.Fprintf(flag.CommandLine.Output(), "Usage: %s [flags] <path-to-fit-file>\n", os.Args[0])
		flag.PrintDefaults()
	}
	flag.Parse()

	if flag.NArg() < 1 {
		flag.Usage()
		os.Exit(2)
	}
	logger := cfg.Logger(os.Stderr, *verbose)

	filePath := flag.Arg(0)
	activity, err := fitsource.DecodeFile(filePath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "decode failed: %v\n", err)
		os.Exit(1)
	}
	logger.Debug("decoded activity", "path", filePath, "records", len(activity.Records), "laps", len(activity.Laps))

	result, err := fitrecalc.Convert(activity, fitrecalc.Options{
		RecalculateDistance: *recalcDistance,
		RecalculateSpeed:    *recalcSpeed,
		Calibrate:           *calibrate,
		PerLapCalibration:   *perLap,
		LapDistances:        lapDistances,
		CalibrationFactor:   *factor,
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "conversion failed: %v\n", err)
		os.Exit(1)
	}
	for _, s := range result.Skipped {
		logger.Warn("lap skipped", "ordinal", s.Ordinal, "reason", s.Reason)
	}
	if result.DroppedRecords > 0 {
		logger.Warn("records dropped", "count", result.DroppedRecords)
	}

	if *jsonOut {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		if err := enc.Encode(result); err != nil {
			fmt.Fprintf(os.Stderr, "json encode failed: %v\n", err)
			os.Exit(1)
		}
		return
	}

	fmt.Println(result.Notes)
	if *showLaps && len(result.Laps) > 0 {
		fmt.Println()
		fmt.Println("Lap Summary")
		for _, lap := range result.Laps {
			fmt.Printf(
				"- Lap %02d | %-8s | %8.1f m | %8.1f m GPS | %6.3f x | %6.1fs\n",
				lap.Number,
				lap.Intensity,
				lap.Distance,
				lap.CalculatedDistance,
				lap.AppliedScaling,
				lap.TotalElapsedTime,
			)
		}
	}
}
