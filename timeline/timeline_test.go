package timeline

import (
	"errors"
	"math"
	"testing"
	"time"

	"github.com/daylife/models"
)

func at(hh, mm int) time.Time {
	return time.Date(2024, time.March, 4, hh, mm, 0, 0, time.UTC)
}

func TestInterpolateLeavesSmallGaps(t *testing.T) {
	points := []models.Point{{Time: at(8, 0), Value: 70}, {Time: at(8, 2), Value: 72}}
	got := Interpolate(points, 2*time.Minute)
	if len(got) != 2 {
		t.Fatalf("Expected 2 points, got %d", len(got))
	}
}

func TestInterpolateShortInput(t *testing.T) {
	if got := Interpolate(nil, time.Minute); len(got) != 0 {
		t.Errorf("Expected empty output, got %d points", len(got))
	}
	one := []models.Point{{Time: at(8, 0), Value: 1}}
	if got := Interpolate(one, time.Minute); len(got) != 1 || got[0] != one[0] {
		t.Errorf("Expected single point unchanged, got %+v", got)
	}
}

func TestInterpolateJustOverDoubleGap(t *testing.T) {
	maxGap := 2 * time.Minute
	points := []models.Point{
		{Time: at(8, 0), Value: 0},
		{Time: at(8, 0).Add(2*maxGap + time.Second), Value: 3},
	}
	got := Interpolate(points, maxGap)
	if len(got) != 4 {
		t.Fatalf("Expected 2 synthetic points, got %d total", len(got))
	}
	for i, want := range []float64{0, 1, 2, 3} {
		if diff := got[i].Value - want; diff > 1e-9 || diff < -1e-9 {
			t.Errorf("Point %d: expected %v, got %v", i, want, got[i].Value)
		}
	}
	if !got[1].Interpolated || !got[2].Interpolated || got[0].Interpolated || got[3].Interpolated {
		t.Errorf("Interpolated flags wrong: %+v", got)
	}
}

func TestInterpolateCumulative(t *testing.T) {
	points := []models.Point{
		{Time: at(9, 0), Value: 10, Cumulative: 100},
		{Time: at(9, 4), Value: 10, Cumulative: 140},
	}
	got := Interpolate(points, time.Minute)
	want := []float64{100, 110, 120, 130, 140}
	if len(got) != len(want) {
		t.Fatalf("Expected %d points, got %d", len(want), len(got))
	}
	for i := range want {
		if got[i].Cumulative != want[i] {
			t.Errorf("Point %d: expected cumulative %v, got %v", i, want[i], got[i].Cumulative)
		}
		if i > 0 && !got[i].Time.After(got[i-1].Time) {
			t.Errorf("Output not sorted at %d", i)
		}
	}
}

func TestMapScrollToWindow(t *testing.T) {
	extent := models.Extent{Start: at(8, 0), End: at(9, 0)}
	window := 10 * time.Minute

	tests := []struct {
		name      string
		scrollTop float64
		maxScroll float64
		wantStart time.Time
	}{
		{"top", 0, 1000, at(8, 0)},
		{"middle", 500, 1000, at(8, 25)},
		{"bottom", 1000, 1000, at(8, 50)},
		{"overscroll", 1200, 1000, at(8, 50)},
		{"negative", -50, 1000, at(8, 0)},
		{"no scroll room", 300, 0, at(8, 0)},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w, err := MapScrollToWindow(tt.scrollTop, tt.maxScroll, extent, window)
			if err != nil {
				t.Fatalf("Unexpected error: %v", err)
			}
			if !w.Start.Equal(tt.wantStart) {
				t.Errorf("Expected start %s, got %s", tt.wantStart, w.Start)
			}
			if w.End.Sub(w.Start) != window {
				t.Errorf("Expected window %s, got %s", window, w.End.Sub(w.Start))
			}
		})
	}
}

func TestMapScrollToWindowProperties(t *testing.T) {
	extent := models.Extent{Start: at(0, 0), End: at(23, 59)}
	window := time.Hour

	a, _ := MapScrollToWindow(321, 4000, extent, window)
	b, _ := MapScrollToWindow(321, 4000, extent, window)
	if !a.Start.Equal(b.Start) || !a.End.Equal(b.End) {
		t.Error("Expected identical windows for identical input")
	}

	prev := extent.Start
	for top := 0.0; top <= 4000; top += 37 {
		w, _ := MapScrollToWindow(top, 4000, extent, window)
		if w.Start.Before(prev) {
			t.Fatalf("Window start decreased at scrollTop %v", top)
		}
		prev = w.Start
	}

	end, _ := MapScrollToWindow(4000, 4000, extent, window)
	if !end.End.Equal(extent.End) {
		t.Errorf("Expected window end %s at bottom, got %s", extent.End, end.End)
	}
}

func TestMapScrollToWindowShortExtent(t *testing.T) {
	extent := models.Extent{Start: at(8, 0), End: at(8, 20)}
	w, err := MapScrollToWindow(900, 1000, extent, time.Hour)
	if err != nil {
		t.Fatal(err)
	}
	if !w.Start.Equal(extent.Start) {
		t.Errorf("Expected window pinned to extent start, got %s", w.Start)
	}
}

func TestMapScrollToWindowNoData(t *testing.T) {
	_, err := MapScrollToWindow(0, 100, models.Extent{}, time.Hour)
	if !errors.Is(err, models.ErrNoData) {
		t.Errorf("Expected ErrNoData, got %v", err)
	}
}

func TestProgressNonFinite(t *testing.T) {
	inf, nan := math.Inf(1), math.NaN()
	tests := []struct {
		scrollTop, maxScroll float64
		want                 float64
	}{
		{inf, inf, 0},
		{-inf, inf, 0},
		{nan, 100, 0},
		{50, nan, 0},
		{inf, 100, 1},
		{-inf, 100, 0},
		{50, -inf, 0},
	}
	for _, tt := range tests {
		if got := Progress(tt.scrollTop, tt.maxScroll); got != tt.want {
			t.Errorf("Progress(%v, %v): expected %v, got %v", tt.scrollTop, tt.maxScroll, tt.want, got)
		}
	}

	extent := models.Extent{Start: at(8, 0), End: at(9, 0)}
	w, err := MapScrollToWindow(inf, inf, extent, 10*time.Minute)
	if err != nil {
		t.Fatal(err)
	}
	if !w.Start.Equal(extent.Start) {
		t.Errorf("Expected window at extent start, got %s", w.Start)
	}
}

func TestScrollMetrics(t *testing.T) {
	m := ScrollMetrics{ScrollTop: 10, DocumentHeight: 3000, ViewportHeight: 800}
	if m.MaxScroll() != 2200 {
		t.Errorf("Expected 2200, got %v", m.MaxScroll())
	}
	m = ScrollMetrics{DocumentHeight: 500, ViewportHeight: 800}
	if m.MaxScroll() != 0 {
		t.Errorf("Expected 0 for a page shorter than the viewport, got %v", m.MaxScroll())
	}
}

type recorder struct {
	frames []Frame
	active []*models.ActivityInterval
}

func (r *recorder) RenderFrame(f Frame) { r.frames = append(r.frames, f) }

func (r *recorder) ActivityAt(_ time.Time, active *models.ActivityInterval, _ *IdleSpan) {
	r.active = append(r.active, active)
}

func TestEndToEndScenario(t *testing.T) {
	raw := models.RawData{
		HeartRate: []models.HeartRateSample{
			{User: "user_1", Minute: at(8, 0), HeartRate: 70},
			{User: "user_1", Minute: at(8, 10), HeartRate: 80},
			{User: "user_1", Minute: at(9, 0), HeartRate: 75},
			{User: "user_2", Minute: at(8, 5), HeartRate: 100},
		},
	}
	ds, err := BuildDataset("user_1", raw, BuildOptions{MaxGap: 2 * time.Minute})
	if err != nil {
		t.Fatal(err)
	}

	hr := ds.Store(models.HeartRate).Range(at(8, 0), at(8, 10))
	want := []float64{70, 72, 74, 76, 78, 80}
	if len(hr) != len(want) {
		t.Fatalf("Expected %d points in first window, got %d", len(want), len(hr))
	}
	for i, v := range want {
		if diff := hr[i].Value - v; diff > 1e-9 || diff < -1e-9 {
			t.Errorf("Point %d: expected %v, got %v", i, v, hr[i].Value)
		}
		if !hr[i].Time.Equal(at(8, 2*i)) {
			t.Errorf("Point %d: expected time %s, got %s", i, at(8, 2*i), hr[i].Time)
		}
	}

	rec := &recorder{}
	sync := NewSynchronizer(ds, 10*time.Minute, rec, rec)
	frame, err := sync.UpdateProgress(0, 1000)
	if err != nil {
		t.Fatal(err)
	}
	if !frame.Window.Start.Equal(at(8, 0)) || !frame.Window.End.Equal(at(8, 10)) {
		t.Errorf("Expected window 08:00-08:10, got %s-%s", frame.Window.Start, frame.Window.End)
	}
	if got := len(frame.Series[models.HeartRate]); got != 6 {
		t.Errorf("Expected 6 visible points, got %d", got)
	}
	if len(rec.frames) != 1 || len(rec.active) != 1 {
		t.Errorf("Expected one render and one activity notification, got %d and %d", len(rec.frames), len(rec.active))
	}
	if !frame.Now.Equal(frame.Window.Start) {
		t.Errorf("Expected now at window start, got %s", frame.Now)
	}
	if now, ok := sync.Now(); !ok || !now.Equal(at(8, 0)) {
		t.Errorf("Expected synchronizer now 08:00, got %s", now)
	}
}

func TestSynchronizerNoData(t *testing.T) {
	ds, err := BuildDataset("user_9", models.RawData{}, BuildOptions{})
	if err != nil {
		t.Fatal(err)
	}
	rec := &recorder{}
	sync := NewSynchronizer(ds, 0, rec)
	if _, err := sync.UpdateProgress(10, 100); !errors.Is(err, models.ErrNoData) {
		t.Errorf("Expected ErrNoData, got %v", err)
	}
	if len(rec.frames) != 0 {
		t.Error("Expected no render for an empty dataset")
	}
	if _, ok := sync.Now(); ok {
		t.Error("Expected no current instant before a render")
	}
}

func TestBuildDatasetRequiresUser(t *testing.T) {
	if _, err := BuildDataset("", models.RawData{}, BuildOptions{}); !errors.Is(err, models.ErrNoParticipant) {
		t.Errorf("Expected ErrNoParticipant, got %v", err)
	}
}

func TestSyncWindowIntervalsAndCaption(t *testing.T) {
	series := map[models.Metric][]models.Point{
		models.Steps: {{Time: at(10, 0), Value: 5}, {Time: at(12, 0), Value: 7}},
	}
	intervals := []models.ActivityInterval{
		{Start: at(10, 0), End: at(10, 30), Code: 5},
		{Start: at(11, 0), Open: true, Code: 1},
	}
	ds, err := models.NewParticipantDataset("user_3", series, intervals)
	if err != nil {
		t.Fatal(err)
	}

	f := SyncWindow(ds, WindowAt(at(10, 15), 10*time.Minute))
	if f.Active == nil || f.Active.Code != 5 {
		t.Fatalf("Expected activity 5 active, got %+v", f.Active)
	}
	if f.Caption != models.Category(5).Label() {
		t.Errorf("Expected caption %q, got %q", models.Category(5).Label(), f.Caption)
	}
	if len(f.Intervals) != 1 {
		t.Errorf("Expected 1 visible interval, got %d", len(f.Intervals))
	}

	f = SyncWindow(ds, WindowAt(at(10, 40), 10*time.Minute))
	if f.Active != nil || f.Idle == nil {
		t.Fatalf("Expected idle span, got active %+v", f.Active)
	}
	if !f.Idle.From.Equal(at(10, 30)) || !f.Idle.To.Equal(at(11, 0)) {
		t.Errorf("Expected idle 10:30-11:00, got %s-%s", f.Idle.From, f.Idle.To)
	}
	if f.Caption != "No specific activity tracked from 10:30 AM to 11:00 AM" {
		t.Errorf("Unexpected caption %q", f.Caption)
	}

	f = SyncWindow(ds, WindowAt(at(11, 50), 10*time.Minute))
	if f.Active == nil || f.Active.Code != 1 {
		t.Errorf("Expected open interval active, got %+v", f.Active)
	}
	if len(f.Intervals) != 1 || !f.Intervals[0].Open {
		t.Errorf("Expected open interval to overlap, got %+v", f.Intervals)
	}
}

func TestSyncWindowPointActivity(t *testing.T) {
	series := map[models.Metric][]models.Point{
		models.HeartRate: {
			{Time: at(10, 0), Value: 60},
			{Time: at(10, 20), Value: 62},
			{Time: at(10, 40), Value: 70},
			{Time: at(11, 10), Value: 55},
		},
	}
	intervals := []models.ActivityInterval{
		{Start: at(10, 0), End: at(10, 30), Code: 5},
		{Start: at(11, 0), Open: true, Code: 1},
	}
	ds, err := models.NewParticipantDataset("user_3", series, intervals)
	if err != nil {
		t.Fatal(err)
	}

	f := SyncWindow(ds, WindowAt(at(10, 0), 90*time.Minute))
	want := []int{0, 0, -1, 1}
	got := f.Activity[models.HeartRate]
	if len(got) != len(want) {
		t.Fatalf("Expected %d labels, got %v", len(want), got)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("Point %d: expected interval %d, got %d", i, want[i], got[i])
		}
	}

	if iv, ok := f.ActivityOf(models.HeartRate, 3); !ok || iv.Code != 1 {
		t.Errorf("Expected sleeping at 11:10, got %+v", iv)
	}
	if _, ok := f.ActivityOf(models.HeartRate, 2); ok {
		t.Error("Expected no activity at 10:40")
	}
	if _, ok := f.ActivityOf(models.Steps, 0); ok {
		t.Error("Expected no activity for a missing series")
	}
}

func TestIdleSpanAtBoundaries(t *testing.T) {
	store := models.NewIntervalStore([]models.ActivityInterval{{Start: at(12, 0), End: at(13, 0), Code: 2}})
	extent := models.Extent{Start: at(7, 0), End: at(20, 0)}

	before := IdleSpanAt(at(9, 0), store, extent)
	if !before.From.Equal(extent.Start) || !before.To.Equal(at(12, 0)) {
		t.Errorf("Expected 07:00-12:00, got %s-%s", before.From, before.To)
	}
	after := IdleSpanAt(at(15, 0), store, extent)
	if !after.From.Equal(at(13, 0)) || !after.To.Equal(extent.End) {
		t.Errorf("Expected 13:00-20:00, got %s-%s", after.From, after.To)
	}
}

func TestHourlyRollup(t *testing.T) {
	points := []models.Point{
		{Time: at(8, 0), Value: 60},
		{Time: at(8, 30), Value: 80},
		{Time: at(8, 45), Value: 1000, Interpolated: true},
		{Time: at(9, 10), Value: 90},
	}
	mean := HourlyRollup(points, RollupMean)
	if len(mean) != 2 || mean[0].Value != 70 || mean[1].Value != 90 {
		t.Errorf("Unexpected mean rollup %+v", mean)
	}
	sum := HourlyRollup(points, RollupSum)
	if sum[0].Value != 140 || sum[0].Count != 2 {
		t.Errorf("Unexpected sum rollup %+v", sum[0])
	}
	peak, ok := Peak(sum)
	if !ok || !peak.Hour.Equal(at(8, 0)) {
		t.Errorf("Expected peak at 08:00, got %+v", peak)
	}
	if _, ok := Peak(nil); ok {
		t.Error("Expected no peak for empty rollup")
	}

	chart := HourlyChart("user_1", models.Steps, sum)
	if chart.Highlight != 0 || len(chart.XAxis) != 2 {
		t.Errorf("Unexpected chart data %+v", chart)
	}
}

func TestSummarize(t *testing.T) {
	s := Summarize([]models.Point{{Value: 3}, {Value: 9}, {Value: 6}, {Value: 100, Interpolated: true}})
	if s.Min != 3 || s.Max != 9 || s.Avg != 6 || s.Count != 3 {
		t.Errorf("Unexpected summary %+v", s)
	}
	if empty := Summarize(nil); empty.Count != 0 {
		t.Errorf("Expected empty summary, got %+v", empty)
	}
}

func TestAutoScroller(t *testing.T) {
	a := NewAutoScroller()
	if a.Speed() != 1.5 || a.SpeedLabel() != "1.5×" {
		t.Errorf("Expected default 1.5×, got %s", a.SpeedLabel())
	}
	if pos := a.Next(100, 1000); pos != 100 {
		t.Errorf("Expected no movement while paused, got %v", pos)
	}

	a.Toggle()
	if pos := a.Next(100, 1000); pos != 122.5 {
		t.Errorf("Expected 122.5, got %v", pos)
	}
	for i := 0; i < 10; i++ {
		a.Faster()
	}
	if a.Speed() != 2.5 {
		t.Errorf("Expected speed to saturate at 2.5, got %v", a.Speed())
	}
	if pos := a.Next(990, 1000); pos != 1000 || a.Running() || !a.AtEnd() {
		t.Errorf("Expected stop at bottom, got %v running=%v", pos, a.Running())
	}
	if running, reset := a.Toggle(); !running || !reset {
		t.Error("Expected restart from top after reaching the end")
	}
	for i := 0; i < 10; i++ {
		a.Slower()
	}
	if a.Speed() != 0.5 {
		t.Errorf("Expected speed to saturate at 0.5, got %v", a.Speed())
	}
}
