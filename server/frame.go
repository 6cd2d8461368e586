package server

import (
	"github.com/daylife/models"
	"github.com/daylife/timeline"
)

// newFrameMessage renders the charts and summaries of frame.
func newFrameMessage(ds *models.ParticipantDataset, frame timeline.Frame) frameMessage {
	msg := frameMessage{
		Type:     "frame",
		Start:    frame.Window.Start,
		End:      frame.Window.End,
		Now:      frame.Now,
		Clock:    frame.Now.Format(timeline.ClockFormat),
		Progress: frame.Window.Progress,
		Caption:  frame.Caption,
		Active:   frame.Active,
		Charts:   make(map[string]string, len(ds.Series)),
		Summary:  make(map[string]summary, len(ds.Series)),
		Idle:     frame.Idle,
	}
	for _, metric := range models.Metrics {
		if ds.Store(metric) == nil {
			continue
		}
		vr, ok := ds.ValueRange[metric]
		msg.Charts[string(metric)] = chartOptions(windowChart(frame, metric, vr, ok))
		msg.Summary[string(metric)] = summary{
			Label: metric.Title(),
			Unit:  metric.Unit(),
			Stats: timeline.Summarize(frame.Series[metric]),
		}
	}
	return msg
}
