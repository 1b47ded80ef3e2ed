//go:build js

package pipeline

import "errors"

func marshalTrackpointParquet([]TrackpointRow) ([]byte, error) {
	return nil, errors.New("parquet output is not available in this build; use csv")
}
