package fitrecalc

import "strings"

// Lap trigger classes.
const (
	TriggerManual   = "Manual"
	TriggerDistance = "Distance"
	TriggerLocation = "Location"
	TriggerTime     = "Time"
)

// Lap intensity classes.
const (
	IntensityActive  = "Active"
	IntensityResting = "Resting"
)

// Sport classes.
const (
	SportRunning = "Running"
	SportBiking  = "Biking"
	SportOther   = "Other"
)

var lapTriggers = map[string]string{
	"manual":            TriggerManual,
	"time":              TriggerTime,
	"distance":          TriggerDistance,
	"position_start":    TriggerLocation,
	"position_lap":      TriggerLocation,
	"position_waypoint": TriggerLocation,
	"position_marked":   TriggerLocation,
	"session_end":       TriggerManual,
	"fitness_equipment": TriggerManual,
}

var intensities = map[string]string{
	"active":   IntensityActive,
	"warmup":   IntensityActive,
	"cooldown": IntensityActive,
	"rest":     IntensityResting,
}

var sports = map[string]string{
	"running": SportRunning,
	"cycling": SportBiking,
}

// TriggerClass maps a FIT lap_trigger profile name to its trigger class.
// Unknown or empty triggers count as manual.
func TriggerClass(trigger string) string {
	if c, ok := lapTriggers[normalizeName(trigger)]; ok {
		return c
	}
	return TriggerManual
}

// IntensityClass maps a FIT intensity profile name. Only rest laps are
// resting.
func IntensityClass(intensity string) string {
	if c, ok := intensities[normalizeName(intensity)]; ok {
		return c
	}
	return IntensityActive
}

// SportClass maps a FIT sport profile name.
func SportClass(sport string) string {
	if c, ok := sports[normalizeName(sport)]; ok {
		return c
	}
	return SportOther
}

func normalizeName(v string) string {
	return strings.ToLower(strings.TrimSpace(v))
}
