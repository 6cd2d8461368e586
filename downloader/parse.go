package downloader

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/daylife/models"
)

// table is a CSV file indexed by header name.
type table struct {
	name   string
	header map[string]int
	rows   [][]string
}

func readTable(name string, r io.Reader) (*table, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1
	reader.TrimLeadingSpace = true

	header, err := reader.Read()
	if err != nil {
		if errors.Is(err, io.EOF) {
			return nil, fmt.Errorf("%s: empty file", name)
		}
		return nil, fmt.Errorf("%s: failed to read header: %w", name, err)
	}
	t := &table{name: name, header: make(map[string]int, len(header))}
	for i, h := range header {
		key := strings.ToLower(strings.TrimSpace(strings.TrimPrefix(h, "\ufeff")))
		if _, dup := t.header[key]; !dup {
			t.header[key] = i
		}
	}
	t.rows, err = reader.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("%s: %w", name, err)
	}
	return t, nil
}

// col returns the index of the first matching header, or -1.
func (t *table) col(names ...string) int {
	for _, n := range names {
		if i, ok := t.header[strings.ToLower(n)]; ok {
			return i
		}
	}
	return -1
}

// require is col for mandatory columns.
func (t *table) require(names ...string) (int, error) {
	if i := t.col(names...); i >= 0 {
		return i, nil
	}
	return -1, fmt.Errorf("%s: missing column %q", t.name, names[0])
}

func field(row []string, i int) string {
	if i < 0 || i >= len(row) {
		return ""
	}
	return strings.TrimSpace(row[i])
}

// number parses a numeric cell; empty or malformed cells are NaN.
func number(row []string, i int) float64 {
	s := field(row, i)
	if s == "" {
		return math.NaN()
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return math.NaN()
	}
	return v
}

func integer(row []string, i int) (int, bool) {
	v := number(row, i)
	if math.IsNaN(v) || v != math.Trunc(v) {
		return 0, false
	}
	return int(v), true
}

var timestampLayouts = []string{
	time.RFC3339,
	"2006-01-02 15:04:05",
	"2006-01-02T15:04:05",
	"2006-01-02 15:04",
	"2006-01-02T15:04",
}

func parseTimestamp(s string) (time.Time, error) {
	for _, layout := range timestampLayouts {
		if t, err := time.ParseInLocation(layout, s, time.UTC); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("invalid timestamp %q", s)
}

// ParseActigraph reads heart-rate and step samples. Rows are placed on the
// study calendar with their day number and clock time.
func ParseActigraph(r io.Reader, base time.Time) ([]models.HeartRateSample, []models.StepSample, error) {
	t, err := readTable(ActigraphFile, r)
	if err != nil {
		return nil, nil, err
	}
	user, err := t.require("user")
	if err != nil {
		return nil, nil, err
	}
	day, err := t.require("day")
	if err != nil {
		return nil, nil, err
	}
	clock, err := t.require("time")
	if err != nil {
		return nil, nil, err
	}
	hr, steps := t.col("HR"), t.col("Steps")
	if hr < 0 && steps < 0 {
		return nil, nil, fmt.Errorf("%s: missing column %q", t.name, "HR")
	}

	var heart []models.HeartRateSample
	var step []models.StepSample
	for _, row := range t.rows {
		d, ok := integer(row, day)
		if !ok {
			continue
		}
		at, err := models.DayTime(base, d, field(row, clock))
		if err != nil {
			continue
		}
		u := field(row, user)
		if v := number(row, hr); !math.IsNaN(v) {
			heart = append(heart, models.HeartRateSample{User: u, Minute: at, HeartRate: v})
		}
		if v := number(row, steps); !math.IsNaN(v) {
			step = append(step, models.StepSample{User: u, DateTime: at, Steps: v})
		}
	}
	return heart, step, nil
}

// ParseAccelerometer reads smoothed vector magnitudes.
func ParseAccelerometer(r io.Reader) ([]models.MagnitudeSample, error) {
	t, err := readTable(AccelerometerFile, r)
	if err != nil {
		return nil, err
	}
	user, err := t.require("user")
	if err != nil {
		return nil, err
	}
	ts, err := t.require("time")
	if err != nil {
		return nil, err
	}
	mag, err := t.require("Vector Magnitude_smoothed", "Vector Magnitude")
	if err != nil {
		return nil, err
	}

	var out []models.MagnitudeSample
	for _, row := range t.rows {
		at, err := parseTimestamp(field(row, ts))
		if err != nil {
			continue
		}
		v := number(row, mag)
		if math.IsNaN(v) {
			continue
		}
		out = append(out, models.MagnitudeSample{User: field(row, user), Time: at, Magnitude: v})
	}
	return out, nil
}

// ParseActivity reads diary rows. Clock strings are kept unresolved.
func ParseActivity(r io.Reader) ([]models.ActivityRecord, error) {
	t, err := readTable(ActivityFile, r)
	if err != nil {
		return nil, err
	}
	user, err := t.require("user")
	if err != nil {
		return nil, err
	}
	code, err := t.require("Activity")
	if err != nil {
		return nil, err
	}
	day, err := t.require("Day")
	if err != nil {
		return nil, err
	}
	start, err := t.require("Start")
	if err != nil {
		return nil, err
	}
	end := t.col("End")

	var out []models.ActivityRecord
	for _, row := range t.rows {
		c, ok := integer(row, code)
		if !ok {
			continue
		}
		d, ok := integer(row, day)
		if !ok {
			continue
		}
		out = append(out, models.ActivityRecord{
			User:     field(row, user),
			Code:     c,
			Day:      d,
			StartStr: field(row, start),
			EndStr:   field(row, end),
		})
	}
	return out, nil
}

// ParseSleep reads one record per night.
func ParseSleep(r io.Reader, base time.Time) ([]models.SleepRecord, error) {
	t, err := readTable(SleepFile, r)
	if err != nil {
		return nil, err
	}
	user, err := t.require("user")
	if err != nil {
		return nil, err
	}
	date, clock := t.col("In Bed Date"), t.col("In Bed Time")
	var (
		eff  = t.col("Efficiency")
		tst  = t.col("Total Sleep Time (TST)")
		waso = t.col("Wake After Sleep Onset (WASO)")
		lat  = t.col("Latency")
		awk  = t.col("Number of Awakenings")
		awl  = t.col("Average Awakening Length")
		mov  = t.col("Movement Index")
		frag = t.col("Fragmentation Index")
	)

	var out []models.SleepRecord
	for _, row := range t.rows {
		u := field(row, user)
		if u == "" {
			continue
		}
		rec := models.SleepRecord{
			User:               u,
			Efficiency:         number(row, eff),
			TotalSleep:         number(row, tst),
			WASO:               number(row, waso),
			Latency:            number(row, lat),
			Awakenings:         number(row, awk),
			AvgAwakeningLength: number(row, awl),
			MovementIndex:      number(row, mov),
			FragmentationIndex: number(row, frag),
		}
		if d, ok := integer(row, date); ok {
			if at, err := models.DayTime(base, d, field(row, clock)); err == nil {
				rec.InBed = at
			}
		}
		out = append(out, rec)
	}
	return out, nil
}

// ParseSaliva reads hormone samples. Sample labels are lower-cased.
func ParseSaliva(r io.Reader) ([]models.SalivaSample, error) {
	t, err := readTable(SalivaFile, r)
	if err != nil {
		return nil, err
	}
	user, err := t.require("user")
	if err != nil {
		return nil, err
	}
	sample, err := t.require("SAMPLES")
	if err != nil {
		return nil, err
	}
	cort, mel := t.col("Cortisol NORM"), t.col("Melatonin NORM")

	var out []models.SalivaSample
	for _, row := range t.rows {
		u, s := field(row, user), field(row, sample)
		if u == "" || s == "" {
			continue
		}
		out = append(out, models.SalivaSample{
			User:      u,
			Sample:    strings.ToLower(s),
			Cortisol:  number(row, cort),
			Melatonin: number(row, mel),
		})
	}
	return out, nil
}

// ParseParticipants reads the roster. BMI and average heart rate are rounded
// to one decimal.
func ParseParticipants(r io.Reader) ([]models.ParticipantInfo, error) {
	t, err := readTable(ParticipantsFile, r)
	if err != nil {
		return nil, err
	}
	user, err := t.require("user")
	if err != nil {
		return nil, err
	}
	age, height, weight := t.col("Age"), t.col("Height"), t.col("Weight")
	bmi, hr := t.col("BMI"), t.col("avg_HR")

	var out []models.ParticipantInfo
	for _, row := range t.rows {
		u := field(row, user)
		if u == "" {
			continue
		}
		out = append(out, models.ParticipantInfo{
			User:   u,
			Age:    number(row, age),
			Height: number(row, height),
			Weight: number(row, weight),
			BMI:    round1(number(row, bmi)),
			AvgHR:  round1(number(row, hr)),
		})
	}
	return out, nil
}

func round1(v float64) float64 {
	return math.Round(v*10) / 10
}
