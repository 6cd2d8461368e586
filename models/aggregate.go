package models

import (
	"math"
	"sort"
	"time"
)

type minuteBucket struct {
	sum   float64
	count int
}

// bucketByMinute groups samples of one participant by their minute. Samples
// with a zero time or a NaN value are skipped.
func bucketByMinute(n int, at func(int) (time.Time, float64)) ([]time.Time, map[time.Time]*minuteBucket) {
	buckets := make(map[time.Time]*minuteBucket)
	var keys []time.Time
	for i := 0; i < n; i++ {
		t, v := at(i)
		if t.IsZero() || math.IsNaN(v) {
			continue
		}
		minute := t.Truncate(time.Minute)
		b, ok := buckets[minute]
		if !ok {
			b = &minuteBucket{}
			buckets[minute] = b
			keys = append(keys, minute)
		}
		b.sum += v
		b.count++
	}
	sort.Slice(keys, func(i, j int) bool { return keys[i].Before(keys[j]) })
	return keys, buckets
}

func meanPerMinute(n int, at func(int) (time.Time, float64)) []Point {
	keys, buckets := bucketByMinute(n, at)
	points := make([]Point, 0, len(keys))
	for _, k := range keys {
		b := buckets[k]
		points = append(points, Point{Time: k, Value: b.sum / float64(b.count)})
	}
	return points
}

// AggregateHeartRate averages the samples of user per minute.
func AggregateHeartRate(samples []HeartRateSample, user string) []Point {
	own := make([]HeartRateSample, 0, len(samples))
	for _, s := range samples {
		if s.User == user {
			own = append(own, s)
		}
	}
	return meanPerMinute(len(own), func(i int) (time.Time, float64) {
		return own[i].Minute, own[i].HeartRate
	})
}

// AggregateMagnitude averages the accelerometer magnitude of user per minute.
func AggregateMagnitude(samples []MagnitudeSample, user string) []Point {
	own := make([]MagnitudeSample, 0, len(samples))
	for _, s := range samples {
		if s.User == user {
			own = append(own, s)
		}
	}
	return meanPerMinute(len(own), func(i int) (time.Time, float64) {
		return own[i].Time, own[i].Magnitude
	})
}

// AggregateSteps sums the step counts of user per minute and keeps the
// running total in Cumulative.
func AggregateSteps(samples []StepSample, user string) []Point {
	own := make([]StepSample, 0, len(samples))
	for _, s := range samples {
		if s.User == user {
			own = append(own, s)
		}
	}
	keys, buckets := bucketByMinute(len(own), func(i int) (time.Time, float64) {
		return own[i].DateTime, own[i].Steps
	})
	points := make([]Point, 0, len(keys))
	var total float64
	for _, k := range keys {
		total += buckets[k].sum
		points = append(points, Point{Time: k, Value: buckets[k].sum, Cumulative: total})
	}
	return points
}
