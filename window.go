package fitrecalc

import (
	"sort"
	"time"
)

// Window is the slice of a series that falls inside one lap.
type Window struct {
	// Samples are the samples with start <= timestamp <= end, ascending.
	Samples []Sample

	// Previous is a copy of the last sample strictly before start, used only
	// to seed the first step inside the window. Nil when none exists.
	Previous *Sample
}

// Window returns the samples between start and end inclusive together with
// the nearest sample preceding start.
func (s *Series) Window(start, end time.Time) Window {
	if s == nil || len(s.samples) == 0 {
		return Window{}
	}
	lo := sort.Search(len(s.samples), func(i int) bool {
		return !s.samples[i].Timestamp.Before(start)
	})
	hi := sort.Search(len(s.samples), func(i int) bool {
		return s.samples[i].Timestamp.After(end)
	})

	var w Window
	if lo > 0 {
		prev := s.samples[lo-1].Clone()
		w.Previous = &prev
	}
	if hi > lo {
		w.Samples = make([]Sample, 0, hi-lo)
		for i := lo; i < hi; i++ {
			w.Samples = append(w.Samples, s.samples[i].Clone())
		}
	}
	return w
}

// Distance sums the estimator steps across the window, seeded by Previous.
func (w Window) Distance() float64 {
	total := 0.0
	prev := w.Previous
	for i := range w.Samples {
		cur := w.Samples[i]
		if prev != nil {
			total += Estimate(*prev, cur).Distance
		}
		prev = &w.Samples[i]
	}
	return total
}

// TotalDistance is the estimator distance over the whole series.
func (s *Series) TotalDistance() float64 {
	if s == nil {
		return 0
	}
	return Window{Samples: s.samples}.Distance()
}
