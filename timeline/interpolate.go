package timeline

import (
	"math"
	"time"

	"github.com/daylife/models"
)

// Interpolate fills sampling gaps wider than maxGap with evenly spaced,
// linearly interpolated points so that sensor dropouts do not render as
// long flat segments. points must be sorted by time. The number of points
// inserted into a gap g is the smallest count that leaves no sub-gap wider
// than maxGap. Value and Cumulative are interpolated alike; inserted points
// carry Interpolated=true. Inputs with fewer than two points are returned
// unchanged.
func Interpolate(points []models.Point, maxGap time.Duration) []models.Point {
	if len(points) < 2 || maxGap <= 0 {
		return points
	}

	out := make([]models.Point, 0, len(points))
	for i := 0; i < len(points)-1; i++ {
		current, next := points[i], points[i+1]
		out = append(out, current)

		gap := next.Time.Sub(current.Time)
		if gap <= maxGap {
			continue
		}
		n := int64((gap - 1) / maxGap)
		for j := int64(1); j <= n; j++ {
			frac := float64(j) / float64(n+1)
			offset := time.Duration(math.Round(float64(gap) * frac))
			out = append(out, models.Point{
				Time:         current.Time.Add(offset),
				Value:        current.Value + (next.Value-current.Value)*frac,
				Cumulative:   current.Cumulative + (next.Cumulative-current.Cumulative)*frac,
				Interpolated: true,
			})
		}
	}
	return append(out, points[len(points)-1])
}
