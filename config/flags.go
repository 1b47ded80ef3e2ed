package config

import (
	"fmt"
	"strconv"
	"strings"
)

// DistanceList is a repeatable flag of known lap distances in meters. Each
// occurrence may also carry a comma-separated list.
type DistanceList []float64

func (d *DistanceList) String() string {
	if d == nil {
		return ""
	}
	parts := make([]string, len(*d))
	for i, v := range *d {
		parts[i] = strconv.FormatFloat(v, 'f', -1, 64)
	}
	return strings.Join(parts, ",")
}

func (d *DistanceList) Set(value string) error {
	for _, part := range strings.Split(value, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		v, err := strconv.ParseFloat(part, 64)
		if err != nil {
			return fmt.Errorf("invalid lap distance %q: %w", part, err)
		}
		if v < 0 {
			return fmt.Errorf("lap distance must not be negative: %s", part)
		}
		*d = append(*d, v)
	}
	return nil
}
