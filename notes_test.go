package fitrecalc

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNotesForKnownDistance(t *testing.T) {
	res, err := Convert(footpodActivity(), Options{Calibrate: true, LapDistances: []float64{950}})
	require.NoError(t, err)

	wantLap := "Lap 1: 0.950 km in 0:05:00\n" +
		"Distance in FIT file: 1.000 km; calculated via GPS: 1.000 km; known distance: 0.950 km (FIT precision: 94.7%; GPS precision: 94.7%)\n" +
		"Footpod calibration factor setting: 100.0%; new factor based on known distance for this lap: 95.0%"
	assert.Equal(t, wantLap, res.Laps[0].Notes)

	wantActivity := "1 laps: 0.950 km in 0:05:00 (calibration applied per lap from known distance (with GPS fill-in))\n" +
		"Distance in FIT file: 1.000 km; calculated via GPS: 1.000 km (precision: 94.7%)\n" +
		"Footpod calibration factor setting: 100.0%; new factor based on recomputed distance: 95.0%"
	assert.Equal(t, wantActivity, res.Notes)
}

func TestNotesForGPSReference(t *testing.T) {
	res, err := Convert(footpodActivity(), Options{CalibrationFactor: 102.5})
	require.NoError(t, err)

	wantLap := "Lap 1: 1.000 km in 0:05:00\n" +
		"Distance in FIT file: 1.000 km; calculated via GPS: 1.000 km (precision: 100.0%)\n" +
		"Footpod calibration factor setting: 102.5%; new factor based on GPS for this lap: 102.5%"
	assert.Equal(t, wantLap, res.Laps[0].Notes)
	assert.Contains(t, res.Notes, "1 laps: 1.000 km in 0:05:00\n")
}

func TestMethod(t *testing.T) {
	tests := []struct {
		opts Options
		want string
	}{
		{Options{}, ""},
		{Options{RecalculateDistance: true}, "distance recalculated from GPS"},
		{Options{RecalculateSpeed: true}, "speed recalculated from GPS"},
		{Options{RecalculateDistance: true, RecalculateSpeed: true}, "speed and distance recalculated from GPS"},
		{Options{Calibrate: true, RecalculateDistance: true}, "calibration applied, distance recalculated from GPS"},
		{Options{Calibrate: true, PerLapCalibration: true, RecalculateDistance: true}, "calibration applied per lap, distance recalculated from GPS"},
		{Options{Calibrate: true, LapDistances: []float64{400}}, "calibration applied per lap from known distance (with GPS fill-in)"},
	}
	for _, tc := range tests {
		assert.Equal(t, tc.want, Method(tc.opts))
	}
}

func TestFormatElapsed(t *testing.T) {
	assert.Equal(t, "0:00:00", formatElapsed(0))
	assert.Equal(t, "0:00:59", formatElapsed(59.9))
	assert.Equal(t, "1:02:05", formatElapsed(3725))
	assert.Equal(t, "1 day, 1:01:01", formatElapsed(90061))
	assert.Equal(t, "2 days, 0:00:05", formatElapsed(2*86400+5))
}

func TestClassification(t *testing.T) {
	assert.Equal(t, TriggerLocation, TriggerClass("position_lap"))
	assert.Equal(t, TriggerDistance, TriggerClass("distance"))
	assert.Equal(t, TriggerManual, TriggerClass(""))
	assert.Equal(t, TriggerManual, TriggerClass("session_end"))
	assert.Equal(t, IntensityResting, IntensityClass("rest"))
	assert.Equal(t, IntensityActive, IntensityClass("warmup"))
	assert.Equal(t, IntensityActive, IntensityClass("unknown"))
	assert.Equal(t, SportRunning, SportClass("Running"))
	assert.Equal(t, SportOther, SportClass("swimming"))
}
