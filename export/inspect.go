// Package export inspects FIT sources and writes conversion bundle metadata.
package export

import (
	"bytes"
	"crypto/sha256"
	"encoding/binary"
	"encoding/hex"
	"errors"
	"fmt"
	"time"

	"github.com/tormoder/fit"
	"github.com/tormoder/fit/dyncrc16"
)

const (
	headerSizeNoCRC = 12
	headerSizeCRC   = 14
)

// ErrTruncated is returned when the data section or file CRC is cut short.
var ErrTruncated = errors.New("fit file truncated")

// Inspect checks the FIT header and CRCs of data and projects its file_id
// message. It does not decode data records.
func Inspect(data []byte) (*SourceInfo, error) {
	if len(data) < headerSizeNoCRC+2 {
		return nil, fmt.Errorf("fit file too short: %d bytes", len(data))
	}

	header, headerCRC, err := parseHeader(data)
	if err != nil {
		return nil, err
	}

	end := int(header.Size) + int(header.DataSize)
	required := end + 2
	if len(data) < required {
		return nil, fmt.Errorf("%w: have %d bytes, need at least %d", ErrTruncated, len(data), required)
	}

	stored := binary.LittleEndian.Uint16(data[end:required])
	computed := dyncrc16.Checksum(data[:end])
	sum := sha256.Sum256(data)

	return &SourceInfo{
		SHA256:    hex.EncodeToString(sum[:]),
		SizeBytes: int64(len(data)),
		Header:    header,
		HeaderCRC: headerCRC,
		FileCRC: CRCCheck{
			Present:     true,
			StoredHex:   fmt.Sprintf("0x%04X", stored),
			ComputedHex: fmt.Sprintf("0x%04X", computed),
			Valid:       stored == computed,
		},
		LeftoverBytes: int64(len(data) - required),
		FileID:        projectFileID(data),
	}, nil
}

func parseHeader(data []byte) (HeaderInfo, CRCCheck, error) {
	size := data[0]
	if size != headerSizeNoCRC && size != headerSizeCRC {
		return HeaderInfo{}, CRCCheck{}, fmt.Errorf("invalid fit header size: %d", size)
	}
	if len(data) < int(size) {
		return HeaderInfo{}, CRCCheck{}, fmt.Errorf("truncated fit header: need %d bytes", size)
	}

	h := HeaderInfo{
		Size:            size,
		ProtocolVersion: data[1],
		ProfileVersion:  binary.LittleEndian.Uint16(data[2:4]),
		DataSize:        binary.LittleEndian.Uint32(data[4:8]),
		DataType:        string(data[8:12]),
	}
	if h.DataType != ".FIT" {
		return HeaderInfo{}, CRCCheck{}, fmt.Errorf("invalid fit data type in header: %q", h.DataType)
	}

	// A zero stored header CRC means the writer chose not to compute one.
	crc := CRCCheck{Present: size == headerSizeCRC, Valid: true}
	if crc.Present {
		stored := binary.LittleEndian.Uint16(data[12:14])
		crc.StoredHex = fmt.Sprintf("0x%04X", stored)
		if stored != 0 {
			computed := dyncrc16.Checksum(data[:12])
			crc.ComputedHex = fmt.Sprintf("0x%04X", computed)
			crc.Valid = stored == computed
		}
	}
	return h, crc, nil
}

func projectFileID(data []byte) *FileIDInfo {
	_, id, err := fit.DecodeHeaderAndFileID(bytes.NewReader(data))
	if err != nil {
		return nil
	}
	info := &FileIDInfo{
		Type:         fmt.Sprint(id.Type),
		Manufacturer: fmt.Sprint(id.Manufacturer),
		Product:      fmt.Sprint(id.GetProduct()),
		SerialNumber: id.SerialNumber,
	}
	if !id.TimeCreated.IsZero() {
		info.TimeCreated = id.TimeCreated.UTC().Format(time.RFC3339)
	}
	return info
}

// Warnings returns integrity notes worth surfacing for info.
func Warnings(info *SourceInfo) []string {
	if info == nil {
		return nil
	}
	warnings := make([]string, 0, 3)
	if info.HeaderCRC.Present && !info.HeaderCRC.Valid {
		warnings = append(warnings, "header CRC mismatch")
	}
	if !info.FileCRC.Valid {
		warnings = append(warnings, "file CRC mismatch")
	}
	if info.LeftoverBytes > 0 {
		warnings = append(warnings, fmt.Sprintf("leftover trailing bytes detected: %d", info.LeftoverBytes))
	}
	return warnings
}
