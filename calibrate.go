package fitrecalc

import "math"

// DefaultCalibrationFactor is the footpod calibration setting, in percent,
// assumed when the caller supplies none.
const DefaultCalibrationFactor = 100.0

// ScalingFactor returns reference/reported. It is 1 when either distance is
// zero or the ratio is not finite, so a missing reference never zeroes the
// device values.
func ScalingFactor(reference, reported float64) float64 {
	if reported == 0 || reference == 0 {
		return 1.0
	}
	f := reference / reported
	if !isFinite(f) {
		return 1.0
	}
	return f
}

// Precision returns how closely observed matches reference, in percent:
// (1 - |reference-observed|/reference) * 100. A zero reference yields 100.
func Precision(reference, observed float64) float64 {
	if reference == 0 {
		return 100.0
	}
	p := (1 - math.Abs(reference-observed)/reference) * 100
	if !isFinite(p) {
		return 100.0
	}
	return p
}

// Calibration is the footpod calibration state threaded through a conversion.
type Calibration struct {
	Enabled bool
	PerLap  bool

	// Factor is the device's current calibration setting in percent.
	Factor float64

	// ActivityScaling is the whole-activity reference distance divided by
	// the device-reported activity distance.
	ActivityScaling float64
}

// LapScaling selects the factor applied inside one lap.
func (c Calibration) LapScaling(lapScaling float64) float64 {
	if c.Enabled && c.PerLap {
		return lapScaling
	}
	return c.ActivityScaling
}

// NewFactor is the calibration setting that would have produced the
// reference distance. It is reported only.
func (c Calibration) NewFactor(scaling float64) float64 {
	return scaling * c.Factor
}

// policy decides which distance and speed a sample or lap receives.
type policy struct {
	recalcDistance bool
	recalcSpeed    bool
	calibration    Calibration
}

// stepDistance is the distance credited to cur. GPS recalculation wins over
// calibration, which wins over the raw device delta.
func (p policy) stepDistance(step Step, prev, cur Sample, scaling float64) float64 {
	switch {
	case p.recalcDistance:
		return step.Distance
	case p.calibration.Enabled:
		return DeviceDelta(prev, cur) * scaling
	default:
		return DeviceDelta(prev, cur)
	}
}

func (p policy) stepSpeed(step Step, cur Sample, scaling float64) *float64 {
	switch {
	case p.recalcSpeed:
		return cloneFloat(step.Speed)
	case p.calibration.Enabled:
		if cur.Speed == nil {
			return nil
		}
		return floatPtr(*cur.Speed * scaling)
	default:
		return cloneFloat(cur.Speed)
	}
}

func (p policy) adjustsDistance() bool {
	return p.recalcDistance || p.calibration.Enabled
}

func (p policy) adjustsSpeed() bool {
	return p.recalcSpeed || p.calibration.Enabled
}
