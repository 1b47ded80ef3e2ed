package fitsource

import (
	"bytes"
	"encoding/binary"
	"errors"
	"math"
	"os"
	"path/filepath"
	"testing"
	"time"

	fitrecalc "github.com/lucasjlepore/fit-recalc"
	"github.com/tormoder/fit"
)

var fixtureStart = time.Date(2026, 2, 26, 7, 30, 0, 0, time.UTC)

func TestDecodeMapsRecordsLapsAndSession(t *testing.T) {
	act, err := DecodeBytes(buildTestFIT(t, true))
	if err != nil {
		t.Fatalf("DecodeBytes error: %v", err)
	}

	if len(act.Records) != 4 {
		t.Fatalf("expected 4 records, got %d", len(act.Records))
	}
	first := act.Records[0]
	if !first.Timestamp.Equal(fixtureStart) {
		t.Fatalf("unexpected first timestamp: %s", first.Timestamp)
	}
	if first.Latitude == nil || math.Abs(*first.Latitude-45.0) > 1e-6 {
		t.Fatalf("unexpected latitude: %v", first.Latitude)
	}
	if first.Distance == nil || *first.Distance != 0 {
		t.Fatalf("unexpected distance: %v", first.Distance)
	}
	if first.HeartRate != nil {
		t.Fatalf("expected invalid heart rate to be absent, got %v", *first.HeartRate)
	}
	second := act.Records[1]
	if second.Speed == nil || math.Abs(*second.Speed-1.2) > 1e-9 {
		t.Fatalf("unexpected speed: %v", second.Speed)
	}
	if second.Distance == nil || math.Abs(*second.Distance-12) > 1e-9 {
		t.Fatalf("unexpected distance: %v", second.Distance)
	}
	hrOnly := act.Records[2]
	if hrOnly.HeartRate == nil || *hrOnly.HeartRate != 141 || hrOnly.Latitude != nil {
		t.Fatalf("unexpected heart-rate-only record: %+v", hrOnly)
	}

	if len(act.Laps) != 1 {
		t.Fatalf("expected 1 lap, got %d", len(act.Laps))
	}
	lap := act.Laps[0]
	if lap.MessageIndex == nil || *lap.MessageIndex != 0 {
		t.Fatalf("unexpected message index: %v", lap.MessageIndex)
	}
	if lap.Trigger != "position_lap" || lap.Intensity != "rest" {
		t.Fatalf("unexpected lap classification: %q/%q", lap.Trigger, lap.Intensity)
	}
	if math.Abs(lap.TotalDistance-24) > 1e-9 || math.Abs(lap.TotalElapsedTime-20) > 1e-9 {
		t.Fatalf("unexpected lap totals: %.3f m %.3f s", lap.TotalDistance, lap.TotalElapsedTime)
	}
	if !lap.EndTime.Equal(fixtureStart.Add(20 * time.Second)) {
		t.Fatalf("unexpected lap end: %s", lap.EndTime)
	}

	if act.Session.Sport != "running" || act.Session.NumLaps != 1 {
		t.Fatalf("unexpected session: %+v", act.Session)
	}
	if math.Abs(act.Session.TotalDistance-24) > 1e-9 {
		t.Fatalf("unexpected session distance: %.3f", act.Session.TotalDistance)
	}
}

func TestDecodedActivityConverts(t *testing.T) {
	act, err := DecodeBytes(buildTestFIT(t, true))
	if err != nil {
		t.Fatalf("DecodeBytes error: %v", err)
	}
	res, err := fitrecalc.Convert(act, fitrecalc.Options{RecalculateDistance: true})
	if err != nil {
		t.Fatalf("Convert error: %v", err)
	}
	if len(res.Laps) != 1 {
		t.Fatalf("expected 1 lap, got %d", len(res.Laps))
	}
	if got := len(res.Laps[0].Trackpoints); got != 3 {
		t.Fatalf("expected records at the same second to merge into 3 trackpoints, got %d", got)
	}
	want := fitrecalc.GreatCircleMeters(45, 7, 45, 7.0001)
	if math.Abs(res.Laps[0].Distance-want) > 0.05 {
		t.Fatalf("unexpected recalculated distance: got %.3f want %.3f", res.Laps[0].Distance, want)
	}
	if res.Laps[0].Intensity != fitrecalc.IntensityResting {
		t.Fatalf("unexpected intensity class: %q", res.Laps[0].Intensity)
	}
}

func TestDecodeFileRequiresSession(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nosession.fit")
	if err := os.WriteFile(path, buildTestFIT(t, false), 0o644); err != nil {
		t.Fatalf("write fixture: %v", err)
	}
	_, err := DecodeFile(path)
	if !errors.Is(err, ErrNoSession) {
		t.Fatalf("expected ErrNoSession, got %v", err)
	}
}

func TestDecodeRejectsGarbage(t *testing.T) {
	if _, err := DecodeBytes([]byte("not a fit file at all")); err == nil {
		t.Fatal("expected decode error")
	}
	if _, err := DecodeFile(filepath.Join(t.TempDir(), "missing.fit")); err == nil {
		t.Fatal("expected open error")
	}
}

// buildTestFIT encodes a 20 s run heading east along latitude 45°, sampled
// every 10 s, with one heart-rate-only record sharing the middle timestamp.
func buildTestFIT(t *testing.T, withSession bool) []byte {
	t.Helper()

	header := fit.NewHeader(fit.V20, true)
	file, err := fit.NewFile(fit.FileTypeActivity, header)
	if err != nil {
		t.Fatalf("new fit file: %v", err)
	}
	activity, err := file.Activity()
	if err != nil {
		t.Fatalf("activity accessor: %v", err)
	}

	for i := 0; i < 3; i++ {
		rec := fit.NewRecordMsg()
		rec.Timestamp = fixtureStart.Add(time.Duration(i*10) * time.Second)
		rec.PositionLat = fit.NewLatitudeDegrees(45.0)
		rec.PositionLong = fit.NewLongitudeDegrees(7.0 + float64(i)*0.00005)
		rec.Distance = uint32(i * 1200)
		rec.Speed = 1200
		activity.Records = append(activity.Records, rec)
		if i == 1 {
			hr := fit.NewRecordMsg()
			hr.Timestamp = rec.Timestamp
			hr.HeartRate = 141
			activity.Records = append(activity.Records, hr)
		}
	}

	lap := fit.NewLapMsg()
	lap.MessageIndex = 0
	lap.StartTime = fixtureStart
	lap.Timestamp = fixtureStart.Add(20 * time.Second)
	lap.TotalElapsedTime = 20000
	lap.TotalTimerTime = 20000
	lap.TotalDistance = 2400
	lap.LapTrigger = fit.LapTriggerPositionLap
	lap.Intensity = fit.IntensityRest
	activity.Laps = append(activity.Laps, lap)

	if withSession {
		session := fit.NewSessionMsg()
		session.Timestamp = lap.Timestamp
		session.StartTime = fixtureStart
		session.Sport = fit.SportRunning
		session.TotalDistance = 2400
		session.TotalTimerTime = 20000
		session.NumLaps = 1
		activity.Sessions = append(activity.Sessions, session)
	}

	var buf bytes.Buffer
	if err := fit.Encode(&buf, file, binary.LittleEndian); err != nil {
		t.Fatalf("encode fit: %v", err)
	}
	return buf.Bytes()
}
