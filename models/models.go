package models

import (
	"errors"
	"fmt"
	"time"
)

var (
	// ErrNoParticipant is returned when no participant identifier was supplied.
	ErrNoParticipant = errors.New("no participant selected")
	// ErrNoData is returned when a participant has no usable samples.
	ErrNoData = errors.New("no data for participant")
	// ErrUnknownMetric is returned for a metric name outside the known set.
	ErrUnknownMetric = errors.New("unknown metric")
)

// Metric names one biometric time series.
type Metric string

const (
	HeartRate Metric = "heart_rate"
	Magnitude Metric = "magnitude"
	Steps     Metric = "steps"
)

// Metrics lists every series a dataset may hold, in display order.
var Metrics = []Metric{HeartRate, Magnitude, Steps}

// ParseMetric validates a metric name coming from a request.
func ParseMetric(s string) (Metric, error) {
	for _, m := range Metrics {
		if string(m) == s {
			return m, nil
		}
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownMetric, s)
}

// Title returns the human readable metric name.
func (m Metric) Title() string {
	switch m {
	case HeartRate:
		return "Heart Rate"
	case Magnitude:
		return "Movement"
	case Steps:
		return "Steps"
	}
	return string(m)
}

// Unit is the axis unit for the metric.
func (m Metric) Unit() string {
	switch m {
	case HeartRate:
		return "bpm"
	case Steps:
		return "steps"
	}
	return ""
}

// Point is one sample of a time series.
type Point struct {
	Time  time.Time `json:"time"`
	Value float64   `json:"value"`
	// Cumulative is the running total for summed metrics (steps).
	Cumulative   float64 `json:"cumulative,omitempty"`
	Interpolated bool    `json:"interpolated,omitempty"`
}

// Category is an activity code from the participant diaries (1..12).
type Category int

type categoryInfo struct {
	label       string
	description string
}

var categories = map[Category]categoryInfo{
	1:  {"Sleeping", "sleeping"},
	2:  {"Laying down", "laying down"},
	3:  {"Sitting", "sitting (e.g. studying, eating, driving)"},
	4:  {"Light movement", "light movement (e.g. slow/medium walk, chores, work)"},
	5:  {"Medium activity", "medium movement (e.g. fast walk, bike)"},
	6:  {"Heavy activity", "heavy movement (e.g. gym, running)"},
	7:  {"Eating", "eating"},
	8:  {"Small screen", "small screen usage (e.g. smartphone, computer)"},
	9:  {"Large screen", "large screen usage (e.g. TV, cinema)"},
	10: {"Caffeine", "caffeinated drink consumption"},
	11: {"Smoking", "smoking"},
	12: {"Alcohol", "alcohol consumption"},
}

// Known reports whether the code is one of the twelve diary categories.
func (c Category) Known() bool {
	_, ok := categories[c]
	return ok
}

func (c Category) Label() string {
	if info, ok := categories[c]; ok {
		return info.label
	}
	return fmt.Sprintf("Activity %d", int(c))
}

func (c Category) Description() string {
	if info, ok := categories[c]; ok {
		return info.description
	}
	return fmt.Sprintf("unmapped activity (code %d)", int(c))
}

// Categories returns the known codes in ascending order.
func Categories() []Category {
	out := make([]Category, 0, len(categories))
	for c := Category(1); c <= 12; c++ {
		out = append(out, c)
	}
	return out
}

// ActivityInterval is a labelled span of a participant's day. An Open interval
// has no recorded end; its effective end is decided by the IntervalStore.
type ActivityInterval struct {
	Start time.Time `json:"start"`
	End   time.Time `json:"end,omitempty"`
	Open  bool      `json:"open,omitempty"`
	Code  Category  `json:"code"`
}

// EndOrInfinity returns the explicit end, or FarFuture for open intervals.
func (a ActivityInterval) EndOrInfinity() time.Time {
	if a.Open {
		return FarFuture
	}
	return a.End
}

// FarFuture closes open-ended intervals that have no successor.
var FarFuture = time.Date(9999, time.December, 31, 0, 0, 0, 0, time.UTC)

// HeartRateSample is one parsed actigraph heart-rate row.
type HeartRateSample struct {
	User      string
	Minute    time.Time
	HeartRate float64
}

// MagnitudeSample is one accelerometer vector magnitude row.
type MagnitudeSample struct {
	User      string
	Time      time.Time
	Magnitude float64
}

// StepSample is one step counter row.
type StepSample struct {
	User     string
	DateTime time.Time
	Steps    float64
}

// ActivityRecord is one unresolved diary row.
type ActivityRecord struct {
	User     string
	Code     int
	Day      int
	StartStr string
	EndStr   string
}

// SleepRecord is one night from the sleep export.
type SleepRecord struct {
	User               string    `json:"user"`
	InBed              time.Time `json:"in_bed"`
	Efficiency         float64   `json:"efficiency"`
	TotalSleep         float64   `json:"total_sleep"`
	WASO               float64   `json:"waso"`
	Latency            float64   `json:"latency"`
	Awakenings         float64   `json:"awakenings"`
	AvgAwakeningLength float64   `json:"avg_awakening_length"`
	MovementIndex      float64   `json:"movement_index"`
	FragmentationIndex float64   `json:"fragmentation_index"`
}

// SalivaSample is one hormone measurement.
type SalivaSample struct {
	User      string  `json:"user"`
	Sample    string  `json:"sample"`
	Cortisol  float64 `json:"cortisol"`
	Melatonin float64 `json:"melatonin"`
}

// ParticipantInfo is one row of the participant roster.
type ParticipantInfo struct {
	User   string  `json:"user"`
	Age    float64 `json:"age"`
	Height float64 `json:"height"`
	Weight float64 `json:"weight"`
	BMI    float64 `json:"bmi"`
	AvgHR  float64 `json:"avg_hr"`
}
