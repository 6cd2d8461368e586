package server

import (
	"encoding/json"
	"fmt"
	"log"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"github.com/daylife/animation"
	"github.com/daylife/models"
	"github.com/daylife/timeline"
)

const sendQueue = 64

// Session drives one open day page. Everything except the pumps runs on the
// session loop, so the synchronizer and the animation controller are never
// touched concurrently.
type Session struct {
	ID   string
	User string

	conn       *websocket.Conn
	send       chan []byte
	events     chan inbound
	writerDone chan struct{}

	dataset  *models.ParticipantDataset
	sync     *timeline.Synchronizer
	ctrl     *animation.Controller
	buffers  [2]*remoteBuffer
	scroller *timeline.AutoScroller
	scroll   timeline.ScrollMetrics
}

func newSession(conn *websocket.Conn, ds *models.ParticipantDataset, window time.Duration, assets *animation.AssetTable) *Session {
	s := &Session{
		ID:         uuid.NewString(),
		User:       ds.User,
		conn:       conn,
		send:       make(chan []byte, sendQueue),
		events:     make(chan inbound, sendQueue),
		writerDone: make(chan struct{}),
		dataset:    ds,
		scroller:   timeline.NewAutoScroller(),
	}
	s.buffers = [2]*remoteBuffer{newRemoteBuffer(0, s.queue), newRemoteBuffer(1, s.queue)}
	s.ctrl = animation.NewController(s.buffers[0], s.buffers[1], assets, func(t time.Time) (models.ActivityInterval, bool) {
		return s.sync.ActiveAt(t)
	})
	s.ctrl.OnChange(func(st animation.State) {
		s.queue(encode(animationMessage{Type: "animation", State: st}))
	})
	s.sync = timeline.NewSynchronizer(ds, window, s, s.ctrl)
	return s
}

// queue hands b to the write pump. It gives up once the pump has exited.
func (s *Session) queue(b []byte) {
	select {
	case s.send <- b:
	case <-s.writerDone:
	}
}

func (s *Session) notice(msg string) {
	s.queue(encode(noticeMessage{Type: "notice", Message: msg}))
}

// RenderFrame sends the charts and captions for frame.
func (s *Session) RenderFrame(frame timeline.Frame) {
	s.queue(encode(newFrameMessage(s.dataset, frame)))
}

// serve runs the session until the connection closes. The hub closes the
// send queue once the loop has stopped.
func (s *Session) serve(hub *Hub) {
	hub.Register(s)
	go s.writePump()

	loopDone := make(chan struct{})
	go func() {
		defer close(loopDone)
		s.loop()
	}()

	s.readPump()
	<-loopDone
	hub.Unregister(s)
	<-s.writerDone
	log.Printf("Session %s for %s closed", s.ID, s.User)
}

func (s *Session) readPump() {
	defer close(s.events)
	for {
		_, data, err := s.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				log.Printf("Session %s read error: %v", s.ID, err)
			}
			return
		}
		var m inbound
		if err := json.Unmarshal(data, &m); err != nil {
			log.Printf("Session %s sent malformed message: %v", s.ID, err)
			continue
		}
		s.events <- m
	}
}

func (s *Session) writePump() {
	defer close(s.writerDone)
	for msg := range s.send {
		if err := s.conn.WriteMessage(websocket.TextMessage, msg); err != nil {
			log.Printf("Session %s write error: %v", s.ID, err)
			s.conn.Close()
			return
		}
	}
}

// loop handles page events and autoscroll ticks until the read pump stops.
func (s *Session) loop() {
	var ticker *time.Ticker
	var tick <-chan time.Time
	defer func() {
		if ticker != nil {
			ticker.Stop()
		}
	}()

	s.queue(encode(s.autoScrollState(nil)))

	for {
		select {
		case m, ok := <-s.events:
			if !ok {
				return
			}
			m, next, open := s.coalesce(m)
			s.handle(m)
			if next != nil {
				s.handle(*next)
			}
			if !open {
				return
			}
		case <-tick:
			s.autoScrollStep()
		}

		switch {
		case s.scroller.Running() && ticker == nil:
			ticker = time.NewTicker(timeline.AutoScrollTick)
			tick = ticker.C
		case !s.scroller.Running() && ticker != nil:
			ticker.Stop()
			ticker, tick = nil, nil
		}
	}
}

// coalesce replaces a scroll event with the latest of the scroll events
// queued directly behind it, so a slow render never falls further behind
// the page. The first non-scroll event found is returned as next.
func (s *Session) coalesce(m inbound) (latest inbound, next *inbound, open bool) {
	latest = m
	for latest.Type == msgScroll {
		select {
		case n, ok := <-s.events:
			if !ok {
				return latest, nil, false
			}
			if n.Type != msgScroll {
				return latest, &n, true
			}
			latest = n
		default:
			return latest, nil, true
		}
	}
	return latest, nil, true
}

func (s *Session) handle(m inbound) {
	switch m.Type {
	case msgScroll:
		s.scroll = m.metrics()
		if _, err := s.sync.Update(s.scroll); err != nil {
			s.notice(err.Error())
		}
	case msgMedia:
		s.media(m)
	case msgResume:
		for _, b := range s.buffers {
			b.setBlocked(false)
		}
		s.ctrl.Resume()
	case msgAutoScroll:
		s.autoScroll(m.Action)
	case msgHover:
		s.hover(m.Time)
	default:
		log.Printf("Session %s: unknown message type %q", s.ID, m.Type)
	}
}

func (s *Session) media(m inbound) {
	if m.Slot < 0 || m.Slot >= len(s.buffers) {
		log.Printf("Session %s: media event for unknown slot %d", s.ID, m.Slot)
		return
	}
	buf := s.buffers[m.Slot]
	switch m.Event {
	case mediaReady:
		buf.loaded(m.URL, nil)
	case mediaError:
		buf.loaded(m.URL, fmt.Errorf("%w: %s", errMediaLoad, m.Error))
	case mediaBlocked:
		for _, b := range s.buffers {
			b.setBlocked(true)
		}
		s.ctrl.Resume()
	}
}

// hover points the animation at the hovered chart instant. Without a time
// it returns to the frame's instant.
func (s *Session) hover(ms *int64) {
	t, ok := s.sync.Now()
	if !ok {
		return
	}
	if ms != nil {
		t = time.UnixMilli(*ms).UTC()
		if ext := s.dataset.TimeExtent; t.Before(ext.Start) || t.After(ext.End) {
			log.Printf("Session %s: hover at %s outside the recorded day", s.ID, t.Format(time.RFC3339))
			return
		}
	}
	if iv, found := s.sync.ActiveAt(t); found {
		s.ctrl.Update(t, &iv)
		return
	}
	s.ctrl.Update(t, nil)
}

func (s *Session) autoScroll(action string) {
	var scrollTo *float64
	switch action {
	case "toggle":
		if _, reset := s.scroller.Toggle(); reset {
			top := 0.0
			s.scroll.ScrollTop = top
			scrollTo = &top
		}
	case "stop":
		s.scroller.Stop()
	case "faster":
		s.scroller.Faster()
	case "slower":
		s.scroller.Slower()
	default:
		log.Printf("Session %s: unknown autoscroll action %q", s.ID, action)
		return
	}
	s.queue(encode(s.autoScrollState(scrollTo)))
}

// autoScrollStep moves the page; the scroll event it causes renders the
// frame.
func (s *Session) autoScrollStep() {
	next := s.scroller.Next(s.scroll.ScrollTop, s.scroll.MaxScroll())
	s.scroll.ScrollTop = next
	s.queue(encode(s.autoScrollState(&next)))
}

func (s *Session) autoScrollState(scrollTo *float64) autoScrollMessage {
	return autoScrollMessage{
		Type:     "autoscroll",
		Running:  s.scroller.Running(),
		Speed:    s.scroller.SpeedLabel(),
		ScrollTo: scrollTo,
		AtEnd:    s.scroller.AtEnd(),
	}
}
