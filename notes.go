package fitrecalc

import (
	"fmt"
	"strings"
)

// LapNotes describes one lap's distance sources and calibration outcome.
func LapNotes(lr LapResult, factor float64) string {
	var b strings.Builder

	fmt.Fprintf(&b, "Lap %d: %.3f km in %s\n", lr.Number, lr.Distance/1000, formatElapsed(lr.TotalElapsedTime))
	fmt.Fprintf(
		&b,
		"Distance in FIT file: %.3f km; calculated via GPS: %.3f km",
		lr.ReportedDistance/1000,
		lr.CalculatedDistance/1000,
	)
	reference := "GPS"
	if lr.FixedDistance != nil {
		reference = "known distance"
		fmt.Fprintf(
			&b,
			"; known distance: %.3f km (FIT precision: %.1f%%; GPS precision: %.1f%%)\n",
			lr.ReferenceDistance/1000,
			lr.Precision,
			lr.GPSPrecision,
		)
	} else {
		fmt.Fprintf(&b, " (precision: %.1f%%)\n", lr.Precision)
	}
	fmt.Fprintf(
		&b,
		"Footpod calibration factor setting: %.1f%%; new factor based on %s for this lap: %.1f%%",
		factor,
		reference,
		lr.NewCalibrationFactor,
	)
	return b.String()
}

// ActivityNotes summarizes the whole activity in the same shape as LapNotes.
func ActivityNotes(r *Result) string {
	if r == nil {
		return ""
	}

	var b strings.Builder

	fmt.Fprintf(&b, "%d laps: %.3f km in %s", r.NumLaps, r.DistanceUsed/1000, formatElapsed(r.TotalTimerTime))
	if r.Method != "" {
		fmt.Fprintf(&b, " (%s)", r.Method)
	}
	b.WriteString("\n")
	fmt.Fprintf(
		&b,
		"Distance in FIT file: %.3f km; calculated via GPS: %.3f km (precision: %.1f%%)\n",
		r.ReportedDistance/1000,
		r.CalculatedDistance/1000,
		r.Precision,
	)
	fmt.Fprintf(
		&b,
		"Footpod calibration factor setting: %.1f%%; new factor based on recomputed distance: %.1f%%",
		r.CalibrationFactor,
		r.NewCalibrationFactor,
	)
	return b.String()
}

// Method names the corrections opts requests, or "" when none are.
func Method(opts Options) string {
	if !opts.RecalculateDistance && !opts.RecalculateSpeed && !opts.Calibrate {
		return ""
	}
	parts := make([]string, 0, 2)
	if opts.Calibrate {
		if opts.PerLapCalibration || len(opts.LapDistances) > 0 {
			parts = append(parts, "calibration applied per lap")
		} else {
			parts = append(parts, "calibration applied")
		}
	}
	switch {
	case opts.RecalculateDistance && opts.RecalculateSpeed:
		parts = append(parts, "speed and distance recalculated")
	case opts.RecalculateDistance:
		parts = append(parts, "distance recalculated")
	case opts.RecalculateSpeed:
		parts = append(parts, "speed recalculated")
	}

	suffix := ""
	switch {
	case opts.Calibrate && len(opts.LapDistances) > 0:
		suffix = " from known distance (with GPS fill-in)"
	case opts.RecalculateDistance || opts.RecalculateSpeed:
		suffix = " from GPS"
	}
	return strings.Join(parts, ", ") + suffix
}

// formatElapsed renders whole seconds as H:MM:SS with a day prefix past 24h.
func formatElapsed(seconds float64) string {
	total := int64(seconds)
	if total < 0 {
		total = 0
	}
	days := total / 86400
	rem := total % 86400
	clock := fmt.Sprintf("%d:%02d:%02d", rem/3600, (rem%3600)/60, rem%60)
	switch {
	case days == 1:
		return "1 day, " + clock
	case days > 1:
		return fmt.Sprintf("%d days, %s", days, clock)
	default:
		return clock
	}
}
