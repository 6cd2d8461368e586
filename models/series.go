package models

import (
	"fmt"
	"sort"
	"time"
)

// SeriesStore holds one metric's points sorted by strictly increasing time.
// It is immutable once built.
type SeriesStore struct {
	metric Metric
	points []Point
}

// NewSeriesStore copies and sorts points. Points sharing a timestamp are
// rejected: aggregation must happen before the store is built.
func NewSeriesStore(metric Metric, points []Point) (*SeriesStore, error) {
	sorted := make([]Point, len(points))
	copy(sorted, points)
	sort.SliceStable(sorted, func(i, j int) bool { return sorted[i].Time.Before(sorted[j].Time) })
	for i := 1; i < len(sorted); i++ {
		if !sorted[i].Time.After(sorted[i-1].Time) {
			return nil, fmt.Errorf("%s series has duplicate timestamp %s", metric, sorted[i].Time.Format(time.RFC3339))
		}
	}
	return &SeriesStore{metric: metric, points: sorted}, nil
}

func (s *SeriesStore) Metric() Metric { return s.metric }

func (s *SeriesStore) Len() int { return len(s.points) }

// Points returns the backing slice; callers must not modify it.
func (s *SeriesStore) Points() []Point { return s.points }

// Range returns the points with start <= Time <= end. The result shares
// memory with the store.
func (s *SeriesStore) Range(start, end time.Time) []Point {
	if end.Before(start) {
		return nil
	}
	lo := sort.Search(len(s.points), func(i int) bool { return !s.points[i].Time.Before(start) })
	hi := sort.Search(len(s.points), func(i int) bool { return s.points[i].Time.After(end) })
	if lo >= hi {
		return nil
	}
	return s.points[lo:hi:hi]
}

// Extent returns the first and last timestamps, ok is false for an empty store.
func (s *SeriesStore) Extent() (Extent, bool) {
	if len(s.points) == 0 {
		return Extent{}, false
	}
	return Extent{Start: s.points[0].Time, End: s.points[len(s.points)-1].Time}, true
}

// ValueExtent returns the minimum and maximum values.
func (s *SeriesStore) ValueExtent() (min, max float64, ok bool) {
	if len(s.points) == 0 {
		return 0, 0, false
	}
	min, max = s.points[0].Value, s.points[0].Value
	for _, p := range s.points[1:] {
		if p.Value < min {
			min = p.Value
		}
		if p.Value > max {
			max = p.Value
		}
	}
	return min, max, true
}

// Extent is a closed time range.
type Extent struct {
	Start time.Time `json:"start"`
	End   time.Time `json:"end"`
}

// Valid reports whether both bounds are set and ordered.
func (e Extent) Valid() bool {
	return !e.Start.IsZero() && !e.End.IsZero() && !e.End.Before(e.Start)
}

func (e Extent) Duration() time.Duration { return e.End.Sub(e.Start) }

// Union widens e to cover o. Invalid extents are ignored.
func (e Extent) Union(o Extent) Extent {
	if !o.Valid() {
		return e
	}
	if !e.Valid() {
		return o
	}
	if o.Start.Before(e.Start) {
		e.Start = o.Start
	}
	if o.End.After(e.End) {
		e.End = o.End
	}
	return e
}
