package models

import (
	"errors"
	"fmt"
	"log"
	"sort"
	"strconv"
	"strings"
	"time"
)

var errMissingStart = errors.New("activity has no start time")

// parseClock parses "HH:MM" or "HH:MM:SS" into an offset from midnight.
func parseClock(s string) (time.Duration, error) {
	parts := strings.Split(strings.TrimSpace(s), ":")
	if len(parts) < 2 || len(parts) > 3 {
		return 0, fmt.Errorf("invalid clock time %q", s)
	}
	var fields [3]int
	for i, p := range parts {
		n, err := strconv.Atoi(p)
		if err != nil || n < 0 {
			return 0, fmt.Errorf("invalid clock time %q", s)
		}
		fields[i] = n
	}
	if fields[0] > 23 || fields[1] > 59 || fields[2] > 59 {
		return 0, fmt.Errorf("clock time out of range %q", s)
	}
	return time.Duration(fields[0])*time.Hour +
		time.Duration(fields[1])*time.Minute +
		time.Duration(fields[2])*time.Second, nil
}

// DayTime resolves a clock string on study day `day` (1-based) relative to
// base, which should be midnight of day 1.
func DayTime(base time.Time, day int, clock string) (time.Time, error) {
	offset, err := parseClock(clock)
	if err != nil {
		return time.Time{}, err
	}
	return base.AddDate(0, 0, day-1).Add(offset), nil
}

// ResolveInterval turns a diary row into an ActivityInterval. An end time
// earlier than the start crossed midnight and is moved to the next day.
func ResolveInterval(rec ActivityRecord, base time.Time) (ActivityInterval, error) {
	if strings.TrimSpace(rec.StartStr) == "" {
		return ActivityInterval{}, errMissingStart
	}
	start, err := DayTime(base, rec.Day, rec.StartStr)
	if err != nil {
		return ActivityInterval{}, fmt.Errorf("activity start: %w", err)
	}
	iv := ActivityInterval{Start: start, Code: Category(rec.Code)}
	if strings.TrimSpace(rec.EndStr) == "" {
		iv.Open = true
		return iv, nil
	}
	end, err := DayTime(base, rec.Day, rec.EndStr)
	if err != nil {
		return ActivityInterval{}, fmt.Errorf("activity end: %w", err)
	}
	if end.Before(start) {
		end = end.AddDate(0, 0, 1)
	}
	iv.End = end
	return iv, nil
}

// ResolveIntervals resolves the rows of one participant, dropping rows that
// cannot be repaired.
func ResolveIntervals(records []ActivityRecord, user string, base time.Time) []ActivityInterval {
	var out []ActivityInterval
	skipped := 0
	for _, rec := range records {
		if rec.User != user {
			continue
		}
		iv, err := ResolveInterval(rec, base)
		if err != nil {
			skipped++
			continue
		}
		out = append(out, iv)
	}
	if skipped > 0 {
		log.Printf("Skipped %d malformed activity rows for %s", skipped, user)
	}
	return out
}

// IntervalStore holds one participant's activity intervals sorted by start.
type IntervalStore struct {
	intervals []ActivityInterval
	ends      []time.Time
}

// NewIntervalStore sorts intervals by start and precomputes effective ends:
// the explicit end, else the next interval's start, else FarFuture.
func NewIntervalStore(intervals []ActivityInterval) *IntervalStore {
	sorted := make([]ActivityInterval, len(intervals))
	copy(sorted, intervals)
	sort.SliceStable(sorted, func(i, j int) bool { return sorted[i].Start.Before(sorted[j].Start) })

	s := &IntervalStore{intervals: sorted, ends: make([]time.Time, len(sorted))}
	for i, iv := range sorted {
		switch {
		case !iv.Open:
			s.ends[i] = iv.End
		case i+1 < len(sorted):
			s.ends[i] = sorted[i+1].Start
		default:
			s.ends[i] = FarFuture
		}
	}
	if n := s.countOverlaps(); n > 0 {
		log.Printf("Activity data has %d overlapping intervals; the latest start wins", n)
	}
	return s
}

func (s *IntervalStore) countOverlaps() int {
	n := 0
	var reach time.Time
	for i := range s.intervals {
		if i > 0 && s.intervals[i].Start.Before(reach) {
			n++
		}
		if s.ends[i].After(reach) {
			reach = s.ends[i]
		}
	}
	return n
}

// Len returns the number of stored intervals.
func (s *IntervalStore) Len() int { return len(s.intervals) }

// Intervals returns the sorted backing slice; callers must not modify it.
func (s *IntervalStore) Intervals() []ActivityInterval { return s.intervals }

// ActiveAt returns the interval with start <= t < effective end. When
// several match, the one with the latest start wins.
func (s *IntervalStore) ActiveAt(t time.Time) (ActivityInterval, bool) {
	found := -1
	for i, iv := range s.intervals {
		if iv.Start.After(t) {
			break
		}
		if t.Before(s.ends[i]) {
			found = i
		}
	}
	if found < 0 {
		return ActivityInterval{}, false
	}
	return s.intervals[found], true
}

// Overlapping returns the intervals intersecting [start, end]. Open intervals
// are treated as extending forever from their start.
func (s *IntervalStore) Overlapping(start, end time.Time) []ActivityInterval {
	var out []ActivityInterval
	for _, iv := range s.intervals {
		if iv.Start.After(end) {
			break
		}
		if !iv.EndOrInfinity().Before(start) {
			out = append(out, iv)
		}
	}
	return out
}

// Neighbors returns the latest interval whose effective end is at or before
// t and the earliest interval starting after t.
func (s *IntervalStore) Neighbors(t time.Time) (prev, next *ActivityInterval, prevEnd time.Time) {
	for i := range s.intervals {
		iv := s.intervals[i]
		if iv.Start.After(t) {
			next = &s.intervals[i]
			break
		}
		if !s.ends[i].After(t) && (prev == nil || s.ends[i].After(prevEnd)) {
			prev = &s.intervals[i]
			prevEnd = s.ends[i]
		}
	}
	return prev, next, prevEnd
}
