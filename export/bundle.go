package export

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	fitrecalc "github.com/lucasjlepore/fit-recalc"
)

// NewManifest describes a finished conversion of sourcePath.
func NewManifest(sourcePath string, info *SourceInfo, opts fitrecalc.Options, res *fitrecalc.Result, artifacts []Artifact) Manifest {
	m := Manifest{
		FormatVersion:  FormatVersion,
		ConversionID:   uuid.NewString(),
		GeneratedAt:    time.Now().UTC(),
		SourceFile:     sourcePath,
		SourceFileName: filepath.Base(sourcePath),
		Options:        opts,
		Artifacts:      artifacts,
	}
	if info != nil {
		m.Source = *info
		m.Warnings = append(m.Warnings, Warnings(info)...)
	}
	if res != nil {
		m.Options = res.Options
		m.LapCount = len(res.Laps)
		m.SkippedLapCount = len(res.Skipped)
		m.TrackpointCount = len(res.Trackpoints())
		m.DroppedRecords = res.DroppedRecords
	}
	return m
}

// EnsureOutputDir creates path and refuses a non-empty directory unless
// overwrite is set.
func EnsureOutputDir(path string, overwrite bool) error {
	if err := os.MkdirAll(path, 0o755); err != nil {
		return fmt.Errorf("create output directory: %w", err)
	}

	entries, err := os.ReadDir(path)
	if err != nil {
		return fmt.Errorf("read output directory: %w", err)
	}
	if len(entries) > 0 && !overwrite {
		return fmt.Errorf("output directory is not empty: %s (set overwrite=true to allow)", path)
	}
	return nil
}

// WriteJSON writes v to path as indented JSON.
func WriteJSON(path string, v any) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()

	enc := json.NewEncoder(f)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// MarshalJSON renders indented JSON with a trailing newline, matching
// WriteJSON.
func MarshalJSON(v any) ([]byte, error) {
	out, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return nil, err
	}
	out = append(out, '\n')
	return out, nil
}

// CopyFile copies src to dst and syncs dst.
func CopyFile(src, dst string) error {
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()

	out, err := os.Create(dst)
	if err != nil {
		return err
	}
	defer out.Close()

	if _, err := io.Copy(out, in); err != nil {
		return err
	}
	return out.Sync()
}
