// Package fitsource decodes FIT activity files into the record, lap and
// session model consumed by fitrecalc.
package fitsource

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"math"
	"os"
	"time"

	fitrecalc "github.com/lucasjlepore/fit-recalc"
	"github.com/tormoder/fit"
)

// messageIndexMask strips the selected and reserved bits of a message index.
const messageIndexMask = 0x0FFF

// ErrNoSession is returned for activity files without a session message.
var ErrNoSession = errors.New("activity file has no session message")

// DecodeFile opens and decodes an activity FIT file.
func DecodeFile(path string) (*fitrecalc.Activity, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open FIT file: %w", err)
	}
	defer f.Close()
	return Decode(f)
}

// DecodeBytes decodes an in-memory activity FIT file.
func DecodeBytes(data []byte) (*fitrecalc.Activity, error) {
	return Decode(bytes.NewReader(data))
}

// Decode reads a FIT stream and maps its records, laps and first session.
func Decode(r io.Reader) (*fitrecalc.Activity, error) {
	decoded, err := fit.Decode(r)
	if err != nil {
		return nil, fmt.Errorf("decode FIT file: %w", err)
	}

	activity, err := decoded.Activity()
	if err != nil {
		return nil, fmt.Errorf("activity FIT expected: %w", err)
	}
	if len(activity.Sessions) == 0 {
		return nil, ErrNoSession
	}

	out := &fitrecalc.Activity{
		Records: make([]fitrecalc.Record, 0, len(activity.Records)),
		Laps:    make([]fitrecalc.Lap, 0, len(activity.Laps)),
		Session: mapSession(activity.Sessions[0]),
	}
	for _, rec := range activity.Records {
		if rec == nil {
			continue
		}
		out.Records = append(out.Records, mapRecord(rec))
	}
	for _, lap := range activity.Laps {
		if lap == nil {
			continue
		}
		out.Laps = append(out.Laps, mapLap(lap))
	}
	return out, nil
}

func mapRecord(rec *fit.RecordMsg) fitrecalc.Record {
	out := fitrecalc.Record{
		Timestamp: validTimeOrZero(rec.Timestamp),
		Distance:  scaled(rec.GetDistanceScaled()),
		Speed:     firstScaled(rec.GetEnhancedSpeedScaled(), rec.GetSpeedScaled()),
		Altitude:  firstFinite(rec.GetEnhancedAltitudeScaled(), rec.GetAltitudeScaled()),
		HeartRate: fromUint8(rec.HeartRate),
		Cadence:   fromUint8(rec.Cadence),
	}
	if !rec.PositionLat.Invalid() && !rec.PositionLong.Invalid() {
		lat := rec.PositionLat.Degrees()
		lon := rec.PositionLong.Degrees()
		if isFinite(lat) && isFinite(lon) {
			out.Latitude = &lat
			out.Longitude = &lon
		}
	}
	return out
}

func mapLap(lap *fit.LapMsg) fitrecalc.Lap {
	out := fitrecalc.Lap{
		StartTime:        validTimeOrZero(lap.StartTime),
		EndTime:          validTimeOrZero(lap.Timestamp),
		TotalElapsedTime: safePositive(lap.GetTotalElapsedTimeScaled()),
		TotalDistance:    safePositive(lap.GetTotalDistanceScaled()),
		AvgSpeed:         firstScaled(lap.GetEnhancedAvgSpeedScaled(), lap.GetAvgSpeedScaled()),
		MaxSpeed:         firstScaled(lap.GetEnhancedMaxSpeedScaled(), lap.GetMaxSpeedScaled()),
		TotalCalories:    fromUint16(lap.TotalCalories),
		AvgHeartRate:     fromUint8(lap.AvgHeartRate),
		MaxHeartRate:     fromUint8(lap.MaxHeartRate),
		AvgCadence:       cadenceFromAny(lap.GetAvgCadence()),
		MaxCadence:       cadenceFromAny(lap.GetMaxCadence()),
		Trigger:          lapTriggerName(lap.LapTrigger),
		Intensity:        intensityName(lap.Intensity),
	}
	if lap.MessageIndex != fit.MessageIndex(math.MaxUint16) {
		idx := int(lap.MessageIndex) & messageIndexMask
		out.MessageIndex = &idx
	}
	return out
}

func mapSession(session *fit.SessionMsg) fitrecalc.Session {
	out := fitrecalc.Session{
		Sport:          sportName(session.Sport),
		StartTime:      validTimeOrZero(session.StartTime),
		TotalDistance:  safePositive(session.GetTotalDistanceScaled()),
		TotalTimerTime: safePositive(session.GetTotalTimerTimeScaled()),
	}
	if session.NumLaps != math.MaxUint16 {
		out.NumLaps = int(session.NumLaps)
	}
	return out
}

func validTimeOrZero(t time.Time) time.Time {
	if t.IsZero() || fit.IsBaseTime(t) {
		return time.Time{}
	}
	return t
}

func fromUint8(v uint8) *float64 {
	if v == math.MaxUint8 {
		return nil
	}
	out := float64(v)
	return &out
}

func fromUint16(v uint16) *float64 {
	if v == math.MaxUint16 {
		return nil
	}
	out := float64(v)
	return &out
}

func cadenceFromAny(v any) *float64 {
	switch x := v.(type) {
	case uint8:
		return fromUint8(x)
	case uint16:
		return fromUint16(x)
	case float64:
		return scaled(x)
	default:
		return nil
	}
}

// scaled treats NaN, the library's marker for an invalid scaled field, and
// negative values as absent.
func scaled(v float64) *float64 {
	if !isFinite(v) || v < 0 {
		return nil
	}
	return &v
}

func firstScaled(values ...float64) *float64 {
	for _, v := range values {
		if p := scaled(v); p != nil {
			return p
		}
	}
	return nil
}

// firstFinite is firstScaled for fields that may be negative, like altitude.
func firstFinite(values ...float64) *float64 {
	for _, v := range values {
		if isFinite(v) {
			return &v
		}
	}
	return nil
}

func isFinite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}

func safePositive(v float64) float64 {
	if !isFinite(v) || v <= 0 {
		return 0
	}
	return v
}
