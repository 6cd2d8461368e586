package timeline

import (
	"fmt"
	"time"

	"github.com/daylife/models"
)

// DefaultMaxGap is the widest sampling gap drawn without interpolation.
const DefaultMaxGap = 3 * time.Minute

// BuildOptions control dataset construction.
type BuildOptions struct {
	// BaseDate is midnight of study day 1. Zero derives it from the first
	// sample of the participant.
	BaseDate time.Time
	// MaxGap is the interpolation threshold; zero uses DefaultMaxGap and a
	// negative value disables interpolation.
	MaxGap time.Duration
}

// BuildDataset aggregates, interpolates and indexes one participant's data.
func BuildDataset(user string, raw models.RawData, opts BuildOptions) (*models.ParticipantDataset, error) {
	if user == "" {
		return nil, models.ErrNoParticipant
	}
	maxGap := opts.MaxGap
	if maxGap == 0 {
		maxGap = DefaultMaxGap
	}

	series := map[models.Metric][]models.Point{
		models.HeartRate: models.AggregateHeartRate(raw.HeartRate, user),
		models.Magnitude: models.AggregateMagnitude(raw.Magnitude, user),
		models.Steps:     models.AggregateSteps(raw.Steps, user),
	}
	if maxGap > 0 {
		series[models.HeartRate] = Interpolate(series[models.HeartRate], maxGap)
		series[models.Magnitude] = Interpolate(series[models.Magnitude], maxGap)
	}

	base := opts.BaseDate
	if base.IsZero() {
		base = firstMidnight(series)
	}
	intervals := models.ResolveIntervals(raw.Activities, user, base)

	ds, err := models.NewParticipantDataset(user, series, intervals)
	if err != nil {
		return nil, fmt.Errorf("failed to build dataset: %w", err)
	}
	for _, r := range raw.Sleep {
		if r.User == user {
			ds.Sleep = append(ds.Sleep, r)
		}
	}
	for _, s := range raw.Saliva {
		if s.User == user {
			ds.Saliva = append(ds.Saliva, s)
		}
	}
	for i := range raw.Participants {
		if raw.Participants[i].User == user {
			info := raw.Participants[i]
			ds.Info = &info
			break
		}
	}
	return ds, nil
}

func firstMidnight(series map[models.Metric][]models.Point) time.Time {
	var first time.Time
	for _, points := range series {
		if len(points) > 0 && (first.IsZero() || points[0].Time.Before(first)) {
			first = points[0].Time
		}
	}
	if first.IsZero() {
		return first
	}
	y, m, d := first.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, first.Location())
}
