package fitrecalc

import "math"

const (
	// MaxAcceleration is the largest speed/Δt ratio accepted from GPS before
	// the device stream is used instead. The ratio is speed divided by the
	// elapsed seconds between the two samples.
	MaxAcceleration = 3.0

	earthRadiusMeters = 6371009.0
)

// Step is the distance and speed attributed to a sample relative to the one
// before it.
type Step struct {
	Distance float64
	Speed    *float64
	FromGPS  bool
}

// Estimate derives the incremental distance and speed from prev to cur. GPS
// positions are used when both samples carry one, time advances and the
// implied acceleration is plausible. Otherwise the device distance delta and
// the device speed of cur are returned.
func Estimate(prev, cur Sample) Step {
	if prev.Position == nil || cur.Position == nil {
		return deviceStep(prev, cur)
	}
	dt := cur.Timestamp.Sub(prev.Timestamp).Seconds()
	if dt <= 0 || !isFinite(dt) {
		return deviceStep(prev, cur)
	}
	dist := GreatCircleMeters(prev.Position.Lat, prev.Position.Lon, cur.Position.Lat, cur.Position.Lon)
	speed := dist / dt
	if !isFinite(dist) || !isFinite(speed) {
		return deviceStep(prev, cur)
	}
	if speed/dt > MaxAcceleration {
		return deviceStep(prev, cur)
	}
	return Step{Distance: dist, Speed: floatPtr(speed), FromGPS: true}
}

func deviceStep(prev, cur Sample) Step {
	return Step{
		Distance: DeviceDelta(prev, cur),
		Speed:    cloneFloat(cur.Speed),
	}
}

// DeviceDelta is cur's device distance minus prev's. A missing previous
// distance counts as zero and a missing current distance yields no movement.
func DeviceDelta(prev, cur Sample) float64 {
	if cur.Distance == nil {
		return 0
	}
	base := 0.0
	if prev.Distance != nil {
		base = *prev.Distance
	}
	return *cur.Distance - base
}

// GreatCircleMeters returns the haversine distance between two points given
// in degrees.
func GreatCircleMeters(lat1, lon1, lat2, lon2 float64) float64 {
	toRad := math.Pi / 180.0
	dLat := (lat2 - lat1) * toRad
	dLon := (lon2 - lon1) * toRad
	a := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Cos(lat1*toRad)*math.Cos(lat2*toRad)*math.Sin(dLon/2)*math.Sin(dLon/2)
	if a > 1 {
		a = 1
	}
	return 2 * earthRadiusMeters * math.Asin(math.Sqrt(a))
}

func isFinite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}
