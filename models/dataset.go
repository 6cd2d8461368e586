package models

import (
	"fmt"
	"time"
)

// RawData is everything parsed from the CSV exports, for all participants.
type RawData struct {
	HeartRate    []HeartRateSample
	Magnitude    []MagnitudeSample
	Steps        []StepSample
	Activities   []ActivityRecord
	Sleep        []SleepRecord
	Saliva       []SalivaSample
	Participants []ParticipantInfo
}

// ValueRange is the minimum and maximum of one series.
type ValueRange struct {
	Min float64 `json:"min"`
	Max float64 `json:"max"`
}

// ParticipantDataset is one participant's immutable view: a store per metric,
// the activity intervals, and the derived extents.
type ParticipantDataset struct {
	User       string
	Series     map[Metric]*SeriesStore
	Intervals  *IntervalStore
	TimeExtent Extent
	ValueRange map[Metric]ValueRange
	Sleep      []SleepRecord
	Saliva     []SalivaSample
	Info       *ParticipantInfo
	BuiltAt    time.Time
}

// NewParticipantDataset builds the stores. Series are expected to be
// aggregated already; TimeExtent is the union of all non-empty series.
func NewParticipantDataset(user string, series map[Metric][]Point, intervals []ActivityInterval) (*ParticipantDataset, error) {
	if user == "" {
		return nil, ErrNoParticipant
	}
	ds := &ParticipantDataset{
		User:       user,
		Series:     make(map[Metric]*SeriesStore, len(series)),
		Intervals:  NewIntervalStore(intervals),
		ValueRange: make(map[Metric]ValueRange, len(series)),
		BuiltAt:    time.Now(),
	}
	for metric, points := range series {
		store, err := NewSeriesStore(metric, points)
		if err != nil {
			return nil, fmt.Errorf("failed to build %s series for %s: %w", metric, user, err)
		}
		ds.Series[metric] = store
		if ext, ok := store.Extent(); ok {
			ds.TimeExtent = ds.TimeExtent.Union(ext)
		}
		if min, max, ok := store.ValueExtent(); ok {
			ds.ValueRange[metric] = ValueRange{Min: min, Max: max}
		}
	}
	return ds, nil
}

// HasData reports whether the dataset has a usable time extent.
func (d *ParticipantDataset) HasData() bool {
	return d != nil && d.TimeExtent.Valid()
}

// Store returns the series for metric, or nil when the dataset lacks it.
func (d *ParticipantDataset) Store(metric Metric) *SeriesStore {
	if d == nil {
		return nil
	}
	return d.Series[metric]
}
