package fitsource

import (
	"fmt"

	"github.com/tormoder/fit"
)

// FIT profile names for the enums the converter classifies.

func lapTriggerName(v fit.LapTrigger) string {
	switch v {
	case fit.LapTriggerManual:
		return "manual"
	case fit.LapTriggerTime:
		return "time"
	case fit.LapTriggerDistance:
		return "distance"
	case fit.LapTriggerPositionStart:
		return "position_start"
	case fit.LapTriggerPositionLap:
		return "position_lap"
	case fit.LapTriggerPositionWaypoint:
		return "position_waypoint"
	case fit.LapTriggerPositionMarked:
		return "position_marked"
	case fit.LapTriggerSessionEnd:
		return "session_end"
	case fit.LapTriggerFitnessEquipment:
		return "fitness_equipment"
	default:
		return ""
	}
}

func intensityName(v fit.Intensity) string {
	switch v {
	case fit.IntensityActive:
		return "active"
	case fit.IntensityRest:
		return "rest"
	case fit.IntensityWarmup:
		return "warmup"
	case fit.IntensityCooldown:
		return "cooldown"
	default:
		return ""
	}
}

func sportName(v fit.Sport) string {
	switch v {
	case fit.SportGeneric:
		return "generic"
	case fit.SportRunning:
		return "running"
	case fit.SportCycling:
		return "cycling"
	case fit.SportSwimming:
		return "swimming"
	case fit.SportWalking:
		return "walking"
	case fit.SportHiking:
		return "hiking"
	case fit.SportRowing:
		return "rowing"
	default:
		return fmt.Sprintf("sport_%d", uint8(v))
	}
}
