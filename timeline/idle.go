package timeline

import (
	"fmt"
	"time"

	"github.com/daylife/models"
)

// ClockFormat is the caption time format, e.g. "9:05 AM".
const ClockFormat = "3:04 PM"

// IdleSpan is the untracked gap around an instant with no active interval.
type IdleSpan struct {
	From    time.Time `json:"from"`
	To      time.Time `json:"to"`
	Caption string    `json:"caption"`
}

// IdleSpanAt bounds the gap around now by the previous interval's end and
// the next interval's start, falling back to the data extent at either side.
func IdleSpanAt(now time.Time, intervals *models.IntervalStore, extent models.Extent) IdleSpan {
	span := IdleSpan{From: extent.Start, To: extent.End}
	if intervals != nil {
		prev, next, prevEnd := intervals.Neighbors(now)
		if prev != nil && prevEnd.After(span.From) {
			span.From = prevEnd
		}
		if next != nil && (span.To.IsZero() || next.Start.Before(span.To)) {
			span.To = next.Start
		}
	}
	if span.To.Before(span.From) {
		span.To = span.From
	}
	span.Caption = fmt.Sprintf("No specific activity tracked from %s to %s",
		span.From.Format(ClockFormat), span.To.Format(ClockFormat))
	return span
}
