package fitrecalc

import (
	"errors"
	"fmt"
	"sort"
	"time"
)

var (
	// ErrCalibrationNeedsReference is returned when calibration is requested
	// without GPS distance recalculation and without known lap distances.
	ErrCalibrationNeedsReference = errors.New("calibration requires distance recalculation or known lap distances")

	// ErrInvalidOption reports an out-of-range option value.
	ErrInvalidOption = errors.New("invalid option")
)

// Options selects which corrections Convert applies.
type Options struct {
	RecalculateDistance bool      `json:"recalculate_distance"`
	RecalculateSpeed    bool      `json:"recalculate_speed"`
	Calibrate           bool      `json:"calibrate"`
	PerLapCalibration   bool      `json:"per_lap_calibration"`
	LapDistances        []float64 `json:"lap_distances_m,omitempty"`
	CalibrationFactor   float64   `json:"calibration_factor_pct"`
}

// Validate rejects option combinations that cannot be honored.
func (o Options) Validate() error {
	if o.Calibrate && !o.RecalculateDistance && len(o.LapDistances) == 0 {
		return ErrCalibrationNeedsReference
	}
	if o.CalibrationFactor != 0 && (o.CalibrationFactor < 0 || !isFinite(o.CalibrationFactor)) {
		return fmt.Errorf("%w: calibration factor %v", ErrInvalidOption, o.CalibrationFactor)
	}
	for i, d := range o.LapDistances {
		if d < 0 || !isFinite(d) {
			return fmt.Errorf("%w: lap distance %d is %v", ErrInvalidOption, i+1, d)
		}
	}
	return nil
}

// Normalize fills defaults. Known lap distances under calibration always
// calibrate per lap.
func (o Options) Normalize() Options {
	if o.CalibrationFactor == 0 {
		o.CalibrationFactor = DefaultCalibrationFactor
	}
	if o.Calibrate && len(o.LapDistances) > 0 {
		o.PerLapCalibration = true
	}
	return o
}

func (o Options) fixedDistance(ordinal int) *float64 {
	if ordinal < 1 || ordinal > len(o.LapDistances) {
		return nil
	}
	return floatPtr(o.LapDistances[ordinal-1])
}

// Lap is a device lap summary. Zero StartTime or EndTime means the field was
// absent. Trigger and Intensity hold FIT profile names.
type Lap struct {
	MessageIndex     *int
	StartTime        time.Time
	EndTime          time.Time
	TotalElapsedTime float64
	TotalDistance    float64
	AvgSpeed         *float64
	MaxSpeed         *float64
	TotalCalories    *float64
	AvgHeartRate     *float64
	MaxHeartRate     *float64
	AvgCadence       *float64
	MaxCadence       *float64
	Trigger          string
	Intensity        string
}

// Session is the device session summary.
type Session struct {
	Sport          string
	StartTime      time.Time
	TotalDistance  float64
	NumLaps        int
	TotalTimerTime float64
}

// Activity is a fully decoded activity ready for conversion.
type Activity struct {
	Records []Record
	Laps    []Lap
	Session Session
}

// Trackpoint is one corrected sample. RawDistance and RawSpeed keep the
// device values the corrections replaced.
type Trackpoint struct {
	Timestamp   time.Time `json:"timestamp"`
	Position    *Position `json:"position,omitempty"`
	Altitude    *float64  `json:"altitude_m,omitempty"`
	Distance    *float64  `json:"distance_m,omitempty"`
	Speed       *float64  `json:"speed_mps,omitempty"`
	HeartRate   *float64  `json:"hr_bpm,omitempty"`
	Cadence     *float64  `json:"cadence_rpm,omitempty"`
	RawDistance *float64  `json:"raw_distance_m,omitempty"`
	RawSpeed    *float64  `json:"raw_speed_mps,omitempty"`
}

// LapResult is one converted lap.
type LapResult struct {
	Number           int       `json:"number"`
	Ordinal          int       `json:"ordinal"`
	StartTime        time.Time `json:"start_time"`
	EndTime          time.Time `json:"end_time"`
	TotalElapsedTime float64   `json:"total_elapsed_time_s"`
	Trigger          string    `json:"trigger"`
	Intensity        string    `json:"intensity"`

	ReportedDistance   float64  `json:"reported_distance_m"`
	CalculatedDistance float64  `json:"calculated_distance_m"`
	FixedDistance      *float64 `json:"fixed_distance_m,omitempty"`
	ReferenceDistance  float64  `json:"reference_distance_m"`

	Distance      float64  `json:"distance_m"`
	AvgSpeed      *float64 `json:"avg_speed_mps,omitempty"`
	MaxSpeed      *float64 `json:"max_speed_mps,omitempty"`
	TotalCalories *float64 `json:"total_calories,omitempty"`
	AvgHeartRate  *float64 `json:"avg_hr_bpm,omitempty"`
	MaxHeartRate  *float64 `json:"max_hr_bpm,omitempty"`
	AvgCadence    *float64 `json:"avg_cadence_rpm,omitempty"`
	MaxCadence    *float64 `json:"max_cadence_rpm,omitempty"`

	LapScaling           float64 `json:"lap_scaling_factor"`
	AppliedScaling       float64 `json:"applied_scaling_factor"`
	NewCalibrationFactor float64 `json:"new_calibration_factor_pct"`
	Precision            float64 `json:"precision_pct"`
	GPSPrecision         float64 `json:"gps_precision_pct"`

	Trackpoints []Trackpoint `json:"trackpoints"`
	Notes       string       `json:"notes"`
}

// SkippedLap records a lap left out of the output because it was malformed.
type SkippedLap struct {
	Ordinal      int    `json:"ordinal"`
	MessageIndex *int   `json:"message_index,omitempty"`
	Reason       string `json:"reason"`
}

// Result is a converted activity.
type Result struct {
	Sport          string    `json:"sport"`
	StartTime      time.Time `json:"start_time"`
	NumLaps        int       `json:"num_laps"`
	TotalTimerTime float64   `json:"total_timer_time_s"`

	ReportedDistance   float64 `json:"reported_distance_m"`
	CalculatedDistance float64 `json:"calculated_distance_m"`
	ReferenceDistance  float64 `json:"reference_distance_m"`
	AdjustedDistance   float64 `json:"adjusted_distance_m"`
	DistanceUsed       float64 `json:"distance_used_m"`

	CalibrationFactor    float64 `json:"calibration_factor_pct"`
	ActivityScaling      float64 `json:"activity_scaling_factor"`
	NewCalibrationFactor float64 `json:"new_calibration_factor_pct"`
	Precision            float64 `json:"precision_pct"`
	Method               string  `json:"method,omitempty"`

	Options        Options      `json:"options"`
	Laps           []LapResult  `json:"laps"`
	Skipped        []SkippedLap `json:"skipped_laps,omitempty"`
	DroppedRecords int          `json:"dropped_records"`
	Notes          string       `json:"notes"`
}

// Trackpoints returns every lap's trackpoints in order.
func (r *Result) Trackpoints() []Trackpoint {
	n := 0
	for _, lap := range r.Laps {
		n += len(lap.Trackpoints)
	}
	out := make([]Trackpoint, 0, n)
	for _, lap := range r.Laps {
		out = append(out, lap.Trackpoints...)
	}
	return out
}

// Convert reconciles the activity's samples, recomputes distance and speed
// per opts and summarizes every lap. Laps are processed in start-time order
// and the cumulative distance carries from one lap into the next.
func Convert(act *Activity, opts Options) (*Result, error) {
	if act == nil {
		return nil, errors.New("activity is required")
	}
	if err := opts.Validate(); err != nil {
		return nil, err
	}
	opts = opts.Normalize()

	series := Coalesce(act.Records)
	calculated := series.TotalDistance()
	c := &converter{
		series: series,
		opts:   opts,
		policy: policy{
			recalcDistance: opts.RecalculateDistance,
			recalcSpeed:    opts.RecalculateSpeed,
			calibration: Calibration{
				Enabled:         opts.Calibrate,
				PerLap:          opts.PerLapCalibration,
				Factor:          opts.CalibrationFactor,
				ActivityScaling: ScalingFactor(calculated, act.Session.TotalDistance),
			},
		},
	}

	res := &Result{
		Sport:              SportClass(act.Session.Sport),
		StartTime:          act.Session.StartTime,
		NumLaps:            act.Session.NumLaps,
		TotalTimerTime:     act.Session.TotalTimerTime,
		ReportedDistance:   act.Session.TotalDistance,
		CalculatedDistance: calculated,
		CalibrationFactor:  opts.CalibrationFactor,
		ActivityScaling:    c.policy.calibration.ActivityScaling,
		Options:            opts,
		DroppedRecords:     series.Dropped,
	}

	ordinal := 0
	for _, lap := range sortLaps(act.Laps) {
		if lap.StartTime.Equal(lap.EndTime) {
			continue
		}
		ordinal++
		if lap.StartTime.IsZero() || lap.EndTime.IsZero() {
			res.Skipped = append(res.Skipped, SkippedLap{
				Ordinal:      ordinal,
				MessageIndex: lap.MessageIndex,
				Reason:       missingBoundReason(lap),
			})
			continue
		}
		lr := c.convertLap(lap, ordinal)
		res.ReferenceDistance += lr.ReferenceDistance
		res.Laps = append(res.Laps, lr)
	}

	if res.NumLaps == 0 {
		res.NumLaps = len(res.Laps)
	}
	res.AdjustedDistance = c.total
	switch {
	case opts.RecalculateDistance:
		res.DistanceUsed = calculated
	case opts.Calibrate:
		res.DistanceUsed = c.total
	default:
		res.DistanceUsed = res.ReportedDistance
	}
	res.Precision = Precision(res.ReferenceDistance, res.ReportedDistance)
	res.NewCalibrationFactor = c.policy.calibration.NewFactor(ScalingFactor(res.ReferenceDistance, res.ReportedDistance))
	res.Method = Method(opts)
	res.Notes = ActivityNotes(res)
	return res, nil
}

type converter struct {
	series *Series
	opts   Options
	policy policy

	// total is the cumulative distance across every lap processed so far.
	total float64
}

func (c *converter) convertLap(lap Lap, ordinal int) LapResult {
	w := c.series.Window(lap.StartTime, lap.EndTime)
	calculated := w.Distance()
	fixed := c.opts.fixedDistance(ordinal)
	reference := calculated
	if fixed != nil {
		reference = *fixed
	}
	lapScaling := ScalingFactor(reference, lap.TotalDistance)
	scaling := c.policy.calibration.LapScaling(lapScaling)

	lr := LapResult{
		Number:               ordinal,
		Ordinal:              ordinal,
		StartTime:            lap.StartTime,
		EndTime:              lap.EndTime,
		TotalElapsedTime:     lap.TotalElapsedTime,
		Trigger:              TriggerClass(lap.Trigger),
		Intensity:            IntensityClass(lap.Intensity),
		ReportedDistance:     lap.TotalDistance,
		CalculatedDistance:   calculated,
		FixedDistance:        fixed,
		ReferenceDistance:    reference,
		TotalCalories:        cloneFloat(lap.TotalCalories),
		AvgHeartRate:         cloneFloat(lap.AvgHeartRate),
		MaxHeartRate:         cloneFloat(lap.MaxHeartRate),
		AvgCadence:           cloneFloat(lap.AvgCadence),
		MaxCadence:           cloneFloat(lap.MaxCadence),
		LapScaling:           lapScaling,
		AppliedScaling:       scaling,
		NewCalibrationFactor: c.policy.calibration.NewFactor(lapScaling),
		Precision:            Precision(reference, lap.TotalDistance),
		GPSPrecision:         Precision(reference, calculated),
	}
	if lap.MessageIndex != nil {
		lr.Number = *lap.MessageIndex + 1
	}

	distance, maxSpeed := 0.0, 0.0
	lr.Trackpoints = make([]Trackpoint, 0, len(w.Samples))
	prev := w.Previous
	for i := range w.Samples {
		cur := w.Samples[i]
		var speed *float64
		if prev != nil {
			step := Estimate(*prev, cur)
			inc := c.policy.stepDistance(step, *prev, cur, scaling)
			speed = c.policy.stepSpeed(step, cur, scaling)
			c.total += inc
			distance += inc
			if speed != nil && *speed > maxSpeed {
				maxSpeed = *speed
			}
		}
		lr.Trackpoints = append(lr.Trackpoints, c.trackpoint(cur, speed))
		prev = &w.Samples[i]
	}

	c.lapTotals(&lr, lap, fixed, scaling, distance, maxSpeed)
	lr.Notes = LapNotes(lr, c.policy.calibration.Factor)
	return lr
}

func (c *converter) trackpoint(s Sample, speed *float64) Trackpoint {
	tp := Trackpoint{
		Timestamp:   s.Timestamp,
		Position:    s.Position,
		Altitude:    s.Altitude,
		HeartRate:   s.HeartRate,
		Cadence:     s.Cadence,
		Distance:    cloneFloat(s.Distance),
		Speed:       cloneFloat(s.Speed),
		RawDistance: s.Distance,
		RawSpeed:    s.Speed,
	}
	if c.policy.adjustsDistance() && (s.Distance != nil || (c.policy.recalcDistance && s.Position != nil)) {
		tp.Distance = floatPtr(c.total)
	}
	if c.policy.adjustsSpeed() && speed != nil && (s.Speed != nil || (c.policy.recalcSpeed && s.Position != nil)) {
		tp.Speed = speed
	}
	return tp
}

// lapTotals fills the lap's distance and speed summary. Calibration adjusts
// the device values; GPS recalculation then overrides them.
func (c *converter) lapTotals(lr *LapResult, lap Lap, fixed *float64, scaling, distance, maxSpeed float64) {
	lr.Distance = lap.TotalDistance
	lr.AvgSpeed = cloneFloat(lap.AvgSpeed)
	lr.MaxSpeed = cloneFloat(lap.MaxSpeed)

	if c.policy.calibration.Enabled {
		if fixed != nil {
			lr.Distance = *fixed
			if lap.TotalElapsedTime > 0 {
				lr.AvgSpeed = floatPtr(*fixed / lap.TotalElapsedTime)
			}
		} else {
			lr.Distance = lap.TotalDistance * scaling
			if lap.AvgSpeed != nil {
				lr.AvgSpeed = floatPtr(*lap.AvgSpeed * scaling)
			}
		}
		if lap.MaxSpeed != nil {
			lr.MaxSpeed = floatPtr(*lap.MaxSpeed * scaling)
		}
	}
	if c.policy.recalcDistance {
		lr.Distance = distance
	}
	if c.policy.recalcSpeed {
		if lap.TotalElapsedTime > 0 {
			lr.AvgSpeed = floatPtr(distance / lap.TotalElapsedTime)
		}
		lr.MaxSpeed = floatPtr(maxSpeed)
	}
}

func sortLaps(laps []Lap) []Lap {
	out := make([]Lap, len(laps))
	copy(out, laps)
	sort.SliceStable(out, func(i, j int) bool {
		a, b := out[i].StartTime, out[j].StartTime
		if a.IsZero() != b.IsZero() {
			return !a.IsZero()
		}
		return a.Before(b)
	})
	return out
}

func missingBoundReason(lap Lap) string {
	if lap.StartTime.IsZero() {
		return "lap has no start time"
	}
	return "lap has no end timestamp"
}
