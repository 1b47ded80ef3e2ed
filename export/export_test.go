package export

import (
	"bytes"
	"encoding/binary"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/uuid"
	fitrecalc "github.com/lucasjlepore/fit-recalc"
	"github.com/tormoder/fit"
)

func TestInspectValidFile(t *testing.T) {
	data := buildTestFIT(t)

	info, err := Inspect(data)
	if err != nil {
		t.Fatalf("Inspect error: %v", err)
	}
	if info.Header.DataType != ".FIT" || info.Header.Size != headerSizeCRC {
		t.Fatalf("unexpected header: %+v", info.Header)
	}
	if !info.HeaderCRC.Valid || !info.FileCRC.Valid {
		t.Fatalf("expected valid CRCs, got header=%+v file=%+v", info.HeaderCRC, info.FileCRC)
	}
	if info.LeftoverBytes != 0 {
		t.Fatalf("unexpected leftover bytes: %d", info.LeftoverBytes)
	}
	if info.SizeBytes != int64(len(data)) || len(info.SHA256) != 64 {
		t.Fatalf("unexpected size/hash: %d %q", info.SizeBytes, info.SHA256)
	}
	if info.FileID == nil {
		t.Fatal("expected file_id projection")
	}
	if got := Warnings(info); len(got) != 0 {
		t.Fatalf("expected no warnings, got %v", got)
	}
}

func TestInspectDetectsCorruption(t *testing.T) {
	data := buildTestFIT(t)
	corrupt := append([]byte(nil), data...)
	corrupt[len(corrupt)-3] ^= 0xFF
	corrupt = append(corrupt, 0x01, 0x02, 0x03)

	info, err := Inspect(corrupt)
	if err != nil {
		t.Fatalf("Inspect error: %v", err)
	}
	if info.FileCRC.Valid {
		t.Fatal("expected file CRC mismatch")
	}
	if info.LeftoverBytes != 3 {
		t.Fatalf("expected 3 leftover bytes, got %d", info.LeftoverBytes)
	}
	warnings := Warnings(info)
	if len(warnings) != 2 || warnings[0] != "file CRC mismatch" {
		t.Fatalf("unexpected warnings: %v", warnings)
	}
}

func TestInspectRejectsMalformedInput(t *testing.T) {
	data := buildTestFIT(t)

	if _, err := Inspect(data[:len(data)-4]); !errors.Is(err, ErrTruncated) {
		t.Fatalf("expected ErrTruncated, got %v", err)
	}
	if _, err := Inspect([]byte{14, 0x20}); err == nil {
		t.Fatal("expected error for short input")
	}
	bad := append([]byte(nil), data...)
	copy(bad[8:12], "XFIT")
	if _, err := Inspect(bad); err == nil {
		t.Fatal("expected error for bad signature")
	}
}

func TestManifestAndOutputDir(t *testing.T) {
	data := buildTestFIT(t)
	info, err := Inspect(data)
	if err != nil {
		t.Fatalf("Inspect error: %v", err)
	}

	dir := filepath.Join(t.TempDir(), "bundle")
	if err := EnsureOutputDir(dir, false); err != nil {
		t.Fatalf("EnsureOutputDir error: %v", err)
	}
	src := filepath.Join(t.TempDir(), "ride.fit")
	if err := os.WriteFile(src, data, 0o644); err != nil {
		t.Fatalf("write source: %v", err)
	}
	if err := CopyFile(src, filepath.Join(dir, "source.fit")); err != nil {
		t.Fatalf("CopyFile error: %v", err)
	}
	if err := EnsureOutputDir(dir, false); err == nil {
		t.Fatal("expected non-empty directory to be refused")
	}

	res := &fitrecalc.Result{
		Options: fitrecalc.Options{RecalculateDistance: true, CalibrationFactor: 100},
		Laps:    []fitrecalc.LapResult{{Trackpoints: make([]fitrecalc.Trackpoint, 4)}},
	}
	m := NewManifest(src, info, fitrecalc.Options{}, res, []Artifact{{Name: "laps.json"}})
	if m.FormatVersion != FormatVersion || m.SourceFileName != "ride.fit" {
		t.Fatalf("unexpected manifest identity: %+v", m)
	}
	if _, err := uuid.Parse(m.ConversionID); err != nil {
		t.Fatalf("conversion id is not a UUID: %v", err)
	}
	if m.LapCount != 1 || m.TrackpointCount != 4 || !m.Options.RecalculateDistance {
		t.Fatalf("unexpected manifest counts: %+v", m)
	}

	path := filepath.Join(dir, "manifest.json")
	if err := WriteJSON(path, m); err != nil {
		t.Fatalf("WriteJSON error: %v", err)
	}
	onDisk, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read manifest: %v", err)
	}
	inMemory, err := MarshalJSON(m)
	if err != nil {
		t.Fatalf("MarshalJSON error: %v", err)
	}
	if !bytes.Equal(onDisk, inMemory) {
		t.Fatal("WriteJSON and MarshalJSON disagree")
	}
	var decoded Manifest
	if err := json.Unmarshal(onDisk, &decoded); err != nil {
		t.Fatalf("unmarshal manifest: %v", err)
	}
	if decoded.ConversionID != m.ConversionID {
		t.Fatalf("conversion id lost: %q", decoded.ConversionID)
	}
}

func buildTestFIT(t *testing.T) []byte {
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

	start := time.Date(2026, 2, 26, 23, 0, 0, 0, time.UTC)
	record := fit.NewRecordMsg()
	record.Timestamp = start.Add(30 * time.Second)
	record.HeartRate = 135
	record.Distance = 5000
	activity.Records = append(activity.Records, record)

	var buf bytes.Buffer
	if err := fit.Encode(&buf, file, binary.LittleEndian); err != nil {
		t.Fatalf("encode fit: %v", err)
	}
	return buf.Bytes()
}
