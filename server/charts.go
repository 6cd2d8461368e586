package server

import (
	"math"
	"time"

	"github.com/go-echarts/go-echarts/v2/charts"
	"github.com/go-echarts/go-echarts/v2/opts"

	"github.com/daylife/models"
	"github.com/daylife/timeline"
)

const (
	chartTheme     = "macarons"
	highlightColor = "#c23531"
)

func millis(p models.Point) int64 { return p.Time.UnixMilli() }

// windowChart builds the line chart for one metric over the frame's window.
// The y axis is fixed to the dataset's value range so that it does not jump
// while scrolling.
func windowChart(frame timeline.Frame, metric models.Metric, vr models.ValueRange, hasRange bool) *charts.Line {
	line := charts.NewLine()

	yAxis := opts.YAxis{
		Name:         metric.Unit(),
		NameLocation: "middle",
		NameGap:      40,
	}
	if hasRange {
		yAxis.Min = math.Floor(vr.Min)
		yAxis.Max = math.Ceil(vr.Max)
	}

	line.SetGlobalOptions(
		charts.WithInitializationOpts(opts.Initialization{Theme: chartTheme}),
		charts.WithTitleOpts(opts.Title{
			Title:    metric.Title(),
			Subtitle: frame.Window.Start.Format(timeline.ClockFormat) + " - " + frame.Window.End.Format(timeline.ClockFormat),
		}),
		charts.WithXAxisOpts(opts.XAxis{
			Type: "time",
			Min:  frame.Window.Start.UnixMilli(),
			Max:  frame.Window.End.UnixMilli(),
		}),
		charts.WithYAxisOpts(yAxis),
		charts.WithTooltipOpts(opts.Tooltip{
			Show:    opts.Bool(true),
			Trigger: "axis",
		}),
	)

	seriesOpts := []charts.SeriesOpts{
		charts.WithLineChartOpts(opts.LineChart{Smooth: opts.Bool(true), ShowSymbol: opts.Bool(false)}),
	}
	for _, iv := range frame.Intervals {
		seriesOpts = append(seriesOpts, charts.WithMarkAreaNameCoordItemOpts(opts.MarkAreaNameCoordItem{
			Name:        iv.Code.Label(),
			Coordinate0: []interface{}{clampMillis(iv.Start, frame.Window), "min"},
			Coordinate1: []interface{}{clampMillis(iv.EndOrInfinity(), frame.Window), "max"},
		}))
	}

	line.AddSeries(metric.Title(), lineItems(frame, metric), seriesOpts...)
	return line
}

// clampMillis keeps mark areas of long or open intervals inside the axis.
func clampMillis(t time.Time, w timeline.Window) int64 {
	ms := t.UnixMilli()
	if lo := w.Start.UnixMilli(); ms < lo {
		return lo
	}
	if hi := w.End.UnixMilli(); ms > hi {
		return hi
	}
	return ms
}

// lineItems converts points to [time, value, activity label, mark area
// index] tuples, dropping missing values. The page's tooltip shows the label
// and highlights the mark area of the hovered point.
func lineItems(frame timeline.Frame, metric models.Metric) []opts.LineData {
	points := frame.Series[metric]
	items := make([]opts.LineData, 0, len(points))
	for i, p := range points {
		if math.IsNaN(p.Value) {
			continue
		}
		label, area := "", -1
		if iv, ok := frame.ActivityOf(metric, i); ok {
			label, area = iv.Code.Label(), frame.Activity[metric][i]
		}
		items = append(items, opts.LineData{Value: []interface{}{millis(p), math.Round(p.Value*10) / 10, label, area}})
	}
	return items
}

// chartOptions renders the echarts option object the page passes to
// setOption.
func chartOptions(line *charts.Line) string {
	line.Validate()
	return string(line.JSONNotEscaped())
}

// hourlyChart is the per-hour bar chart with the peak hour highlighted.
func hourlyChart(data models.ChartData) *charts.Bar {
	bar := charts.NewBar()

	bar.SetGlobalOptions(
		charts.WithInitializationOpts(opts.Initialization{Theme: chartTheme}),
		charts.WithTitleOpts(opts.Title{
			Title:    data.Title,
			Subtitle: data.Subtitle,
		}),
		charts.WithXAxisOpts(opts.XAxis{
			AxisLabel: &opts.AxisLabel{
				Rotate: 45,
			},
		}),
		charts.WithTooltipOpts(opts.Tooltip{
			Trigger: "axis",
			AxisPointer: &opts.AxisPointer{
				Type: "shadow",
			},
			BackgroundColor: "rgba(255, 255, 255, 0.9)",
			BorderColor:     "#ccc",
		}),
	)

	bar.SetXAxis(data.XAxis)

	for name, values := range data.Series {
		items := make([]opts.BarData, len(values))
		for i, v := range values {
			items[i] = opts.BarData{Value: v}
			if i == data.Highlight {
				items[i].ItemStyle = &opts.ItemStyle{Color: highlightColor}
			}
		}
		bar.AddSeries(name, items)
	}

	return bar
}
