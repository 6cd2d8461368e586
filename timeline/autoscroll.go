package timeline

import (
	"fmt"
	"math"
	"time"
)

const (
	// AutoScrollTick is the interval between automatic scroll steps.
	AutoScrollTick = 50 * time.Millisecond
	// AutoScrollStep is the distance in pixels moved per tick at 1x.
	AutoScrollStep = 15.0
)

// AutoScrollSpeeds is the speed ladder the faster/slower controls walk.
var AutoScrollSpeeds = []float64{0.5, 1, 1.5, 2, 2.5}

const defaultSpeedIndex = 2

// AutoScroller advances the scroll position at a fixed pace until the end of
// the page. It only computes positions; the owner runs the ticker.
type AutoScroller struct {
	speed   int
	running bool
	atEnd   bool
}

func NewAutoScroller() *AutoScroller {
	return &AutoScroller{speed: defaultSpeedIndex}
}

func (a *AutoScroller) Running() bool { return a.running }

// AtEnd reports whether the last run stopped at the bottom of the page.
func (a *AutoScroller) AtEnd() bool { return a.atEnd }

func (a *AutoScroller) Speed() float64 { return AutoScrollSpeeds[a.speed] }

// SpeedLabel renders the speed the way the control shows it, e.g. "1.5×".
func (a *AutoScroller) SpeedLabel() string {
	return fmt.Sprintf("%g×", a.Speed())
}

// Toggle starts or pauses. Toggling after reaching the end restarts from the
// top; reset reports that the caller must scroll back to 0 first.
func (a *AutoScroller) Toggle() (running, reset bool) {
	if a.running {
		a.running = false
		return false, false
	}
	if a.atEnd {
		a.atEnd = false
		reset = true
	}
	a.running = true
	return true, reset
}

func (a *AutoScroller) Stop() { a.running = false }

// Faster moves one step up the speed ladder, saturating at the top.
func (a *AutoScroller) Faster() float64 {
	if a.speed < len(AutoScrollSpeeds)-1 {
		a.speed++
	}
	return a.Speed()
}

// Slower moves one step down the speed ladder, saturating at the bottom.
func (a *AutoScroller) Slower() float64 {
	if a.speed > 0 {
		a.speed--
	}
	return a.Speed()
}

// Next returns the position after one tick from scrollTop. Reaching
// maxScroll stops the scroller.
func (a *AutoScroller) Next(scrollTop, maxScroll float64) float64 {
	if !a.running {
		return scrollTop
	}
	next := scrollTop + AutoScrollStep*a.Speed()
	if next >= maxScroll {
		a.running = false
		a.atEnd = true
		return math.Max(0, maxScroll)
	}
	return next
}
