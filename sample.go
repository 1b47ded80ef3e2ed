package fitrecalc

import (
	"sort"
	"time"
)

// fitEpoch is the zero point of FIT timestamps. Series keys are whole seconds
// since this instant.
var fitEpoch = time.Date(1989, 12, 31, 0, 0, 0, 0, time.UTC)

// Record is one raw decoded sample record. A zero Timestamp means the record
// carried no timestamp; nil fields were absent on the record.
type Record struct {
	Timestamp time.Time
	Latitude  *float64
	Longitude *float64
	Distance  *float64
	Speed     *float64
	HeartRate *float64
	Cadence   *float64
	Altitude  *float64
}

// Position is a coordinate pair in degrees.
type Position struct {
	Lat float64 `json:"lat"`
	Lon float64 `json:"lon"`
}

// Sample is one reconciled instant. Position is either complete or nil.
type Sample struct {
	Timestamp time.Time
	Position  *Position
	Distance  *float64
	Speed     *float64
	HeartRate *float64
	Cadence   *float64
	Altitude  *float64
}

// Clone returns a deep copy that shares no pointers with s.
func (s Sample) Clone() Sample {
	out := Sample{
		Timestamp: s.Timestamp,
		Distance:  cloneFloat(s.Distance),
		Speed:     cloneFloat(s.Speed),
		HeartRate: cloneFloat(s.HeartRate),
		Cadence:   cloneFloat(s.Cadence),
		Altitude:  cloneFloat(s.Altitude),
	}
	if s.Position != nil {
		p := *s.Position
		out.Position = &p
	}
	return out
}

// Series holds samples sorted by their whole-second key. Keys are unique.
type Series struct {
	keys    []int64
	samples []Sample

	// Dropped counts input records rejected for lacking a timestamp.
	Dropped int
}

// Coalesce merges records sharing a whole-second timestamp into single
// samples. Within one second the last present value of each field wins; an
// absent field never clears an earlier value. Coordinates are only taken from
// records carrying both latitude and longitude.
func Coalesce(records []Record) *Series {
	index := make(map[int64]int, len(records))
	keys := make([]int64, 0, len(records))
	samples := make([]Sample, 0, len(records))
	dropped := 0

	for _, rec := range records {
		if rec.Timestamp.IsZero() {
			dropped++
			continue
		}
		key := epochKey(rec.Timestamp)
		i, ok := index[key]
		if !ok {
			i = len(samples)
			index[key] = i
			keys = append(keys, key)
			samples = append(samples, Sample{Timestamp: rec.Timestamp})
		}
		merge(&samples[i], rec)
	}

	order := make([]int, len(keys))
	for i := range order {
		order[i] = i
	}
	sort.Slice(order, func(a, b int) bool { return keys[order[a]] < keys[order[b]] })

	s := &Series{
		keys:    make([]int64, len(order)),
		samples: make([]Sample, len(order)),
		Dropped: dropped,
	}
	for dst, src := range order {
		s.keys[dst] = keys[src]
		s.samples[dst] = samples[src]
	}
	return s
}

func merge(dst *Sample, rec Record) {
	if rec.Latitude != nil && rec.Longitude != nil {
		dst.Position = &Position{Lat: *rec.Latitude, Lon: *rec.Longitude}
	}
	overwrite(&dst.Distance, rec.Distance)
	overwrite(&dst.Speed, rec.Speed)
	overwrite(&dst.HeartRate, rec.HeartRate)
	overwrite(&dst.Cadence, rec.Cadence)
	overwrite(&dst.Altitude, rec.Altitude)
}

func overwrite(dst **float64, v *float64) {
	if v != nil {
		*dst = cloneFloat(v)
	}
}

// Len returns the number of samples.
func (s *Series) Len() int {
	if s == nil {
		return 0
	}
	return len(s.samples)
}

// At returns a copy of the i-th sample in ascending time order.
func (s *Series) At(i int) Sample {
	return s.samples[i].Clone()
}

// Samples returns copies of every sample in ascending time order.
func (s *Series) Samples() []Sample {
	if s == nil {
		return nil
	}
	out := make([]Sample, len(s.samples))
	for i := range s.samples {
		out[i] = s.samples[i].Clone()
	}
	return out
}

// Lookup returns the sample stored under the whole second containing t.
func (s *Series) Lookup(t time.Time) (Sample, bool) {
	if s == nil {
		return Sample{}, false
	}
	key := epochKey(t)
	i := sort.Search(len(s.keys), func(i int) bool { return s.keys[i] >= key })
	if i < len(s.keys) && s.keys[i] == key {
		return s.samples[i].Clone(), true
	}
	return Sample{}, false
}

func epochKey(t time.Time) int64 {
	return int64(t.Sub(fitEpoch) / time.Second)
}

func cloneFloat(v *float64) *float64 {
	if v == nil {
		return nil
	}
	out := *v
	return &out
}

func floatPtr(v float64) *float64 {
	out := v
	return &out
}
