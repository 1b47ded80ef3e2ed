package export

import (
	"time"

	fitrecalc "github.com/lucasjlepore/fit-recalc"
)

const (
	// FormatVersion identifies the on-disk schema of a conversion bundle.
	FormatVersion = "fit_recalc_v1"
)

// SourceInfo describes the structure and integrity of a FIT source file.
type SourceInfo struct {
	SHA256        string      `json:"sha256"`
	SizeBytes     int64       `json:"size_bytes"`
	Header        HeaderInfo  `json:"header"`
	HeaderCRC     CRCCheck    `json:"header_crc"`
	FileCRC       CRCCheck    `json:"file_crc"`
	LeftoverBytes int64       `json:"leftover_bytes"`
	FileID        *FileIDInfo `json:"file_id,omitempty"`
}

// Manifest captures conversion metadata and the artifacts written.
type Manifest struct {
	FormatVersion   string            `json:"format_version"`
	ConversionID    string            `json:"conversion_id"`
	GeneratedAt     time.Time         `json:"generated_at"`
	SourceFile      string            `json:"source_file,omitempty"`
	SourceFileName  string            `json:"source_file_name"`
	Source          SourceInfo        `json:"source"`
	Options         fitrecalc.Options `json:"options"`
	LapCount        int               `json:"lap_count"`
	SkippedLapCount int               `json:"skipped_lap_count"`
	TrackpointCount int               `json:"trackpoint_count"`
	DroppedRecords  int               `json:"dropped_records"`
	Artifacts       []Artifact        `json:"artifacts"`
	Warnings        []string          `json:"warnings,omitempty"`
}

// Artifact is one file of a conversion bundle.
type Artifact struct {
	Name        string `json:"name"`
	Description string `json:"description"`
}

// HeaderInfo stores parsed FIT header values.
type HeaderInfo struct {
	Size            uint8  `json:"size"`
	ProtocolVersion uint8  `json:"protocol_version"`
	ProfileVersion  uint16 `json:"profile_version"`
	DataSize        uint32 `json:"data_size"`
	DataType        string `json:"data_type"`
}

// CRCCheck describes CRC validation results.
type CRCCheck struct {
	Present     bool   `json:"present"`
	StoredHex   string `json:"stored_hex,omitempty"`
	ComputedHex string `json:"computed_hex,omitempty"`
	Valid       bool   `json:"valid"`
}

// FileIDInfo is a convenience projection from the file_id message.
type FileIDInfo struct {
	Type         string `json:"type"`
	Manufacturer string `json:"manufacturer"`
	Product      string `json:"product"`
	TimeCreated  string `json:"time_created,omitempty"`
	SerialNumber uint32 `json:"serial_number,omitempty"`
}
