package timeline

import (
	"time"

	"github.com/daylife/models"
)

// Frame is everything rendered for one scroll position. All fields derive
// from the same Window.
type Frame struct {
	User      string                           `json:"user"`
	Window    Window                           `json:"window"`
	Now       time.Time                        `json:"now"`
	Series    map[models.Metric][]models.Point `json:"series"`
	Intervals []models.ActivityInterval        `json:"intervals"`
	// Activity holds, for every point of Series, the index into Intervals of
	// the activity covering it, or -1.
	Activity map[models.Metric][]int  `json:"activity,omitempty"`
	Active   *models.ActivityInterval `json:"active,omitempty"`
	Idle     *IdleSpan                `json:"idle,omitempty"`
	Caption  string                   `json:"caption"`
}

// Renderer draws a synchronized frame.
type Renderer interface {
	RenderFrame(Frame)
}

// ActivityObserver is told the activity at the frame's instant. active is
// nil when nothing is tracked, in which case idle is set.
type ActivityObserver interface {
	ActivityAt(now time.Time, active *models.ActivityInterval, idle *IdleSpan)
}

// SyncWindow slices every store of ds to w and resolves the activity at the
// window start. It has no side effects.
func SyncWindow(ds *models.ParticipantDataset, w Window) Frame {
	frame := Frame{
		User:   ds.User,
		Window: w,
		Now:    w.Start,
		Series: make(map[models.Metric][]models.Point, len(ds.Series)),
	}
	for metric, store := range ds.Series {
		frame.Series[metric] = store.Range(w.Start, w.End)
	}
	if ds.Intervals != nil {
		frame.Intervals = ds.Intervals.Overlapping(w.Start, w.End)
		if iv, ok := ds.Intervals.ActiveAt(frame.Now); ok {
			frame.Active = &iv
		}
		frame.Activity = make(map[models.Metric][]int, len(frame.Series))
		for metric, points := range frame.Series {
			frame.Activity[metric] = activityIndexes(points, frame.Intervals, ds.Intervals)
		}
	}
	if frame.Active != nil {
		frame.Caption = frame.Active.Code.Label()
	} else {
		idle := IdleSpanAt(frame.Now, ds.Intervals, ds.TimeExtent)
		frame.Idle = &idle
		frame.Caption = idle.Caption
	}
	return frame
}

// activityIndexes resolves the activity at each point and locates it in
// the window's intervals.
func activityIndexes(points []models.Point, window []models.ActivityInterval, store *models.IntervalStore) []int {
	out := make([]int, len(points))
	for i, p := range points {
		out[i] = -1
		iv, ok := store.ActiveAt(p.Time)
		if !ok {
			continue
		}
		for j, w := range window {
			if w.Code == iv.Code && w.Start.Equal(iv.Start) {
				out[i] = j
				break
			}
		}
	}
	return out
}

// ActivityOf returns the activity covering the i-th point of metric's
// series, if any.
func (f Frame) ActivityOf(metric models.Metric, i int) (models.ActivityInterval, bool) {
	idx := f.Activity[metric]
	if i < 0 || i >= len(idx) || idx[i] < 0 {
		return models.ActivityInterval{}, false
	}
	return f.Intervals[idx[i]], true
}

// Synchronizer holds the per-viewer state that scroll updates are applied
// to. It is not safe for concurrent use; callers serialize updates.
type Synchronizer struct {
	dataset   *models.ParticipantDataset
	window    time.Duration
	renderer  Renderer
	observers []ActivityObserver
	last      *Frame
}

// NewSynchronizer returns a synchronizer for ds. A zero window uses
// DefaultWindow. renderer may be nil.
func NewSynchronizer(ds *models.ParticipantDataset, window time.Duration, renderer Renderer, observers ...ActivityObserver) *Synchronizer {
	if window <= 0 {
		window = DefaultWindow
	}
	return &Synchronizer{dataset: ds, window: window, renderer: renderer, observers: observers}
}

// Update maps a scroll position to a window and syncs it. A dataset without
// a valid extent returns models.ErrNoData and renders nothing.
func (s *Synchronizer) Update(scroll ScrollMetrics) (Frame, error) {
	return s.UpdateProgress(scroll.ScrollTop, scroll.MaxScroll())
}

// UpdateProgress is Update for callers that already know the max scroll.
func (s *Synchronizer) UpdateProgress(scrollTop, maxScroll float64) (Frame, error) {
	if !s.dataset.HasData() {
		return Frame{}, models.ErrNoData
	}
	w, err := MapScrollToWindow(scrollTop, maxScroll, s.dataset.TimeExtent, s.window)
	if err != nil {
		return Frame{}, err
	}
	return s.apply(w), nil
}

// Sync renders the window starting at anchor.
func (s *Synchronizer) Sync(anchor time.Time) (Frame, error) {
	if !s.dataset.HasData() {
		return Frame{}, models.ErrNoData
	}
	return s.apply(WindowAt(anchor, s.window)), nil
}

// Now returns the instant of the last rendered frame.
func (s *Synchronizer) Now() (time.Time, bool) {
	if s.last == nil {
		return time.Time{}, false
	}
	return s.last.Now, true
}

// ActiveAt answers the activity query against the synchronizer's dataset.
func (s *Synchronizer) ActiveAt(t time.Time) (models.ActivityInterval, bool) {
	if s.dataset == nil || s.dataset.Intervals == nil {
		return models.ActivityInterval{}, false
	}
	return s.dataset.Intervals.ActiveAt(t)
}

func (s *Synchronizer) apply(w Window) Frame {
	frame := SyncWindow(s.dataset, w)
	s.last = &frame
	if s.renderer != nil {
		s.renderer.RenderFrame(frame)
	}
	for _, o := range s.observers {
		o.ActivityAt(frame.Now, frame.Active, frame.Idle)
	}
	return frame
}
