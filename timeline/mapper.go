package timeline

import (
	"math"
	"time"

	"github.com/daylife/models"
)

// DefaultWindow is the span of simulated time visible at once.
const DefaultWindow = time.Hour

// Window is the slice of simulated time derived from one scroll position.
type Window struct {
	Start    time.Time `json:"start"`
	End      time.Time `json:"end"`
	Progress float64   `json:"progress"`
}

// Contains reports whether t lies in the closed window.
func (w Window) Contains(t time.Time) bool {
	return !t.Before(w.Start) && !t.After(w.End)
}

// ScrollMetrics are the scroll signals read from the hosting page.
type ScrollMetrics struct {
	ScrollTop      float64 `json:"scrollTop"`
	DocumentHeight float64 `json:"documentHeight"`
	ViewportHeight float64 `json:"viewportHeight"`
}

// MaxScroll is the largest reachable scrollTop.
func (m ScrollMetrics) MaxScroll() float64 {
	return math.Max(0, m.DocumentHeight-m.ViewportHeight)
}

// Progress converts a scroll offset to [0,1]. Overscroll is clamped so the
// window never leaves the data extent; an unusable maxScroll or a ratio that
// is not a number maps to the top.
func Progress(scrollTop, maxScroll float64) float64 {
	if !(maxScroll > 0) || math.IsInf(maxScroll, 0) {
		return 0
	}
	p := scrollTop / maxScroll
	switch {
	case !(p >= 0):
		return 0
	case p > 1:
		return 1
	}
	return p
}

// MapScrollToWindow maps a scroll position onto the extent: the window start
// moves linearly from extent.Start (top) to extent.End-windowDuration
// (bottom). The mapping is deterministic for equal inputs. It returns
// models.ErrNoData for an invalid extent; callers should check first.
func MapScrollToWindow(scrollTop, maxScroll float64, extent models.Extent, windowDuration time.Duration) (Window, error) {
	if !extent.Valid() {
		return Window{}, models.ErrNoData
	}
	if windowDuration <= 0 {
		windowDuration = DefaultWindow
	}
	progress := Progress(scrollTop, maxScroll)
	effective := extent.Duration() - windowDuration
	if effective < 0 {
		effective = 0
	}
	offset := time.Duration(math.Round(progress * float64(effective)))
	start := extent.Start.Add(offset)
	return Window{Start: start, End: start.Add(windowDuration), Progress: progress}, nil
}

// WindowAt anchors a window at an explicit instant.
func WindowAt(anchor time.Time, windowDuration time.Duration) Window {
	if windowDuration <= 0 {
		windowDuration = DefaultWindow
	}
	return Window{Start: anchor, End: anchor.Add(windowDuration)}
}
