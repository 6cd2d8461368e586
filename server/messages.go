package server

import (
	"encoding/json"
	"time"

	"github.com/daylife/animation"
	"github.com/daylife/models"
	"github.com/daylife/timeline"
)

// Inbound message types sent by the day page.
const (
	msgScroll     = "scroll"
	msgMedia      = "media"
	msgResume     = "resume"
	msgAutoScroll = "autoscroll"
	msgHover      = "hover"
)

// Media events reported for a video slot.
const (
	mediaReady   = "ready"
	mediaError   = "error"
	mediaBlocked = "blocked"
)

// inbound is any message read from the page.
type inbound struct {
	Type string `json:"type"`

	// scroll
	ScrollTop      float64 `json:"scrollTop"`
	DocumentHeight float64 `json:"documentHeight"`
	ViewportHeight float64 `json:"viewportHeight"`

	// media
	Slot  int    `json:"slot"`
	URL   string `json:"url"`
	Event string `json:"event"`
	Error string `json:"error"`

	// autoscroll: toggle, faster, slower
	Action string `json:"action"`

	// hover: the hovered instant in unix milliseconds, absent when the
	// pointer left the charts
	Time *int64 `json:"time"`
}

func (m inbound) metrics() timeline.ScrollMetrics {
	return timeline.ScrollMetrics{
		ScrollTop:      m.ScrollTop,
		DocumentHeight: m.DocumentHeight,
		ViewportHeight: m.ViewportHeight,
	}
}

// frameMessage carries one synchronized frame to the page.
type frameMessage struct {
	Type     string                   `json:"type"`
	Start    time.Time                `json:"start"`
	End      time.Time                `json:"end"`
	Now      time.Time                `json:"now"`
	Clock    string                   `json:"clock"`
	Progress float64                  `json:"progress"`
	Caption  string                   `json:"caption"`
	Active   *models.ActivityInterval `json:"active,omitempty"`
	Charts   map[string]string        `json:"charts"`
	Summary  map[string]summary       `json:"summary"`
	Idle     *timeline.IdleSpan       `json:"idle,omitempty"`
}

type summary struct {
	Label string           `json:"label"`
	Unit  string           `json:"unit"`
	Stats timeline.Summary `json:"stats"`
}

// bufferMessage drives one video slot.
type bufferMessage struct {
	Type string `json:"type"`
	Slot int    `json:"slot"`
	Op   string `json:"op"`
	URL  string `json:"url,omitempty"`
}

type animationMessage struct {
	Type  string          `json:"type"`
	State animation.State `json:"state"`
}

type autoScrollMessage struct {
	Type     string   `json:"type"`
	Running  bool     `json:"running"`
	Speed    string   `json:"speed"`
	ScrollTo *float64 `json:"scrollTo,omitempty"`
	AtEnd    bool     `json:"atEnd"`
}

type noticeMessage struct {
	Type    string `json:"type"`
	Message string `json:"message"`
}

func encode(v any) []byte {
	b, err := json.Marshal(v)
	if err != nil {
		// NaN and Inf are the only values json rejects here
		b, _ = json.Marshal(noticeMessage{Type: "error", Message: err.Error()})
	}
	return b
}
