package timeline

import (
	"math"
	"time"

	"github.com/daylife/models"
)

// Rollup selects how points are combined inside one hour.
type Rollup int

const (
	RollupMean Rollup = iota
	RollupSum
)

// RollupFor returns the combination used by the hourly charts: steps are
// summed, everything else averaged.
func RollupFor(metric models.Metric) Rollup {
	if metric == models.Steps {
		return RollupSum
	}
	return RollupMean
}

// HourBucket is one hour of a series.
type HourBucket struct {
	Hour  time.Time `json:"hour"`
	Value float64   `json:"value"`
	Count int       `json:"count"`
}

// HourlyRollup groups sorted points by clock hour. Interpolated points are
// excluded so that filled gaps do not inflate sums or bias means.
func HourlyRollup(points []models.Point, mode Rollup) []HourBucket {
	var out []HourBucket
	for _, p := range points {
		if p.Interpolated || math.IsNaN(p.Value) {
			continue
		}
		hour := p.Time.Truncate(time.Hour)
		if n := len(out); n == 0 || !out[n-1].Hour.Equal(hour) {
			out = append(out, HourBucket{Hour: hour})
		}
		b := &out[len(out)-1]
		b.Value += p.Value
		b.Count++
	}
	if mode == RollupMean {
		for i := range out {
			out[i].Value /= float64(out[i].Count)
		}
	}
	return out
}

// Peak returns the bucket with the largest value; the earliest wins ties.
func Peak(buckets []HourBucket) (HourBucket, bool) {
	if len(buckets) == 0 {
		return HourBucket{}, false
	}
	best := buckets[0]
	for _, b := range buckets[1:] {
		if b.Value > best.Value {
			best = b
		}
	}
	return best, true
}

// Summary holds the minimum, mean and maximum of a series.
type Summary struct {
	Min   float64 `json:"min"`
	Avg   float64 `json:"avg"`
	Max   float64 `json:"max"`
	Count int     `json:"count"`
}

// Summarize ignores interpolated points. Count is zero for an empty input.
func Summarize(points []models.Point) Summary {
	s := Summary{Min: math.Inf(1), Max: math.Inf(-1)}
	sum := 0.0
	for _, p := range points {
		if p.Interpolated || math.IsNaN(p.Value) {
			continue
		}
		s.Min = math.Min(s.Min, p.Value)
		s.Max = math.Max(s.Max, p.Value)
		sum += p.Value
		s.Count++
	}
	if s.Count == 0 {
		return Summary{}
	}
	s.Avg = sum / float64(s.Count)
	return s
}

// HourlyChart converts a rollup to category chart data with the peak hour
// highlighted.
func HourlyChart(user string, metric models.Metric, buckets []HourBucket) models.ChartData {
	data := models.ChartData{
		Title:     metric.Title() + " by hour",
		Subtitle:  user,
		XAxis:     make([]string, len(buckets)),
		Series:    map[string][]float64{metric.Title(): make([]float64, len(buckets))},
		Highlight: -1,
	}
	values := data.Series[metric.Title()]
	for i, b := range buckets {
		data.XAxis[i] = b.Hour.Format("Jan 2 15:04")
		values[i] = math.Round(b.Value*10) / 10
	}
	if peak, ok := Peak(buckets); ok {
		for i, b := range buckets {
			if b.Hour.Equal(peak.Hour) {
				data.Highlight = i
				break
			}
		}
	}
	return data
}
