package server

import (
	"bytes"
	"context"
	"encoding/json"
	"log"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"

	"github.com/daylife/animation"
	"github.com/daylife/data"
	"github.com/daylife/downloader"
	"github.com/daylife/models"
	"github.com/daylife/timeline"
)

func newTestServer(t *testing.T) *Server {
	t.Helper()
	store := models.NewDataStore(time.Hour)
	dl := downloader.NewDownloader("", data.Sample(), downloader.DefaultBaseDate)
	return NewServer(store, dl, nil, Options{Window: time.Hour, AssetDir: t.TempDir()})
}

func get(t *testing.T, h http.Handler, target string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodGet, target, nil)
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, req)
	return rr
}

func TestIndexHandler(t *testing.T) {
	h := newTestServer(t).Routes()

	rr := get(t, h, "/")
	if rr.Code != http.StatusOK {
		t.Fatalf("Expected status 200, got %d", rr.Code)
	}
	body := rr.Body.String()
	for _, user := range []string{"user_1", "user_2"} {
		if !strings.Contains(body, "/day?user="+user) {
			t.Errorf("Expected roster to link %s", user)
		}
	}

	rr = get(t, h, "/?age_min=30&age_max=40")
	body = rr.Body.String()
	if strings.Contains(body, "/day?user=user_1") {
		t.Error("Expected user_1 (age 24) to be filtered out")
	}
	if !strings.Contains(body, "/day?user=user_2") {
		t.Error("Expected user_2 (age 31) to be listed")
	}
	if !strings.Contains(body, "Showing 1 of 2 participants") {
		t.Error("Expected participant count in the page")
	}
}

func TestIndexHandlerUnknownPath(t *testing.T) {
	rr := get(t, newTestServer(t).Routes(), "/nope")
	if rr.Code != http.StatusNotFound {
		t.Errorf("Expected status 404, got %d", rr.Code)
	}
}

func TestDayHandler(t *testing.T) {
	h := newTestServer(t).Routes()

	rr := get(t, h, "/day?user=user_1")
	if rr.Code != http.StatusOK {
		t.Fatalf("Expected status 200, got %d", rr.Code)
	}
	if !strings.Contains(rr.Body.String(), `data-user="user_1"`) {
		t.Error("Expected the day page to carry the participant key")
	}

	for _, target := range []string{"/day", "/day?user=nobody"} {
		rr := get(t, h, target)
		if rr.Code != http.StatusNotFound {
			t.Errorf("%s: expected status 404, got %d", target, rr.Code)
		}
		if !strings.Contains(rr.Body.String(), "No data") {
			t.Errorf("%s: expected the empty state page", target)
		}
	}
}

func TestDayHandlerLogsMissingParticipant(t *testing.T) {
	var buf bytes.Buffer
	log.SetOutput(&buf)
	defer log.SetOutput(os.Stderr)

	h := newTestServer(t).Routes()
	get(t, h, "/day")
	if !strings.Contains(buf.String(), "No participant selected") {
		t.Errorf("Expected a warning for the missing participant, got %q", buf.String())
	}
}

func TestFrameHandler(t *testing.T) {
	h := newTestServer(t).Routes()

	rr := get(t, h, "/api/frame?user=user_1&scrollTop=0&maxScroll=100")
	if rr.Code != http.StatusOK {
		t.Fatalf("Expected status 200, got %d: %s", rr.Code, rr.Body.String())
	}
	var frame frameMessage
	if err := json.NewDecoder(rr.Body).Decode(&frame); err != nil {
		t.Fatal(err)
	}
	start := time.Date(2024, time.January, 1, 7, 0, 0, 0, time.UTC)
	if !frame.Start.Equal(start) || !frame.End.Equal(start.Add(time.Hour)) {
		t.Errorf("Expected window 07:00-08:00, got %v-%v", frame.Start, frame.End)
	}
	if frame.Caption != "Sleeping" {
		t.Errorf("Expected caption Sleeping, got %q", frame.Caption)
	}
	if frame.Clock != "7:00 AM" {
		t.Errorf("Expected clock 7:00 AM, got %q", frame.Clock)
	}
	for _, metric := range models.Metrics {
		if frame.Charts[string(metric)] == "" {
			t.Errorf("Expected a chart for %s", metric)
		}
	}
	if frame.Summary[string(models.HeartRate)].Stats.Count == 0 {
		t.Error("Expected heart rate samples in the first window")
	}

	rr = get(t, h, "/api/frame?user=user_1&at=2024-01-01T10:20:00Z")
	frame = frameMessage{}
	if err := json.NewDecoder(rr.Body).Decode(&frame); err != nil {
		t.Fatal(err)
	}
	if frame.Active == nil || frame.Active.Code != 8 {
		t.Errorf("Expected the open small screen interval at 10:20, got %+v", frame.Active)
	}
}

func TestFrameHandlerErrors(t *testing.T) {
	h := newTestServer(t).Routes()

	tests := []struct {
		target string
		status int
	}{
		{"/api/frame?user=nobody", http.StatusNotFound},
		{"/api/frame", http.StatusNotFound},
		{"/api/frame?user=user_1&at=yesterday", http.StatusBadRequest},
		{"/api/frame?user=user_1&scrollTop=Inf&maxScroll=Inf", http.StatusBadRequest},
		{"/api/frame?user=user_1&scrollTop=10&maxScroll=NaN", http.StatusBadRequest},
		{"/api/frame?user=user_1&scrollTop=ten&maxScroll=100", http.StatusBadRequest},
		{"/api/hourly?user=user_1&metric=calories", http.StatusBadRequest},
		{"/api/hourly?user=nobody&metric=steps", http.StatusNotFound},
	}
	for _, tt := range tests {
		rr := get(t, h, tt.target)
		if rr.Code != tt.status {
			t.Errorf("%s: expected status %d, got %d", tt.target, tt.status, rr.Code)
		}
		var body map[string]string
		if err := json.NewDecoder(rr.Body).Decode(&body); err != nil || body["error"] == "" {
			t.Errorf("%s: expected a JSON error body", tt.target)
		}
	}
}

func TestLineItemsCarryActivity(t *testing.T) {
	s := newTestServer(t)
	ds, err := s.dataset(context.Background(), "user_1")
	if err != nil {
		t.Fatal(err)
	}
	start := time.Date(2024, time.January, 1, 7, 0, 0, 0, time.UTC)
	frame := timeline.SyncWindow(ds, timeline.WindowAt(start, time.Hour))

	items := lineItems(frame, models.HeartRate)
	if len(items) == 0 {
		t.Fatal("Expected heart rate points in the window")
	}
	seen := map[string]bool{}
	for _, item := range items {
		v := item.Value.([]interface{})
		at := time.UnixMilli(v[0].(int64)).UTC()
		label, area := v[2].(string), v[3].(int)
		want := ""
		switch {
		case at.Before(start.Add(20 * time.Minute)):
			want = "Sleeping"
		case !at.Before(start.Add(30*time.Minute)) && at.Before(start.Add(50*time.Minute)):
			want = "Eating"
		case !at.Before(start.Add(time.Hour)):
			continue
		}
		if label != want {
			t.Errorf("%s: expected activity %q, got %q", at.Format("15:04"), want, label)
		}
		if want != "" && (area < 0 || frame.Intervals[area].Code.Label() != want) {
			t.Errorf("%s: expected mark area %d to be %q", at.Format("15:04"), area, want)
		}
		if want == "" && area != -1 {
			t.Errorf("%s: expected no mark area, got %d", at.Format("15:04"), area)
		}
		seen[label] = true
	}
	if !seen["Sleeping"] || !seen["Eating"] {
		t.Errorf("Expected sleeping and eating points, got %v", seen)
	}
}

func TestHourlyHandler(t *testing.T) {
	rr := get(t, newTestServer(t).Routes(), "/api/hourly?user=user_1&metric=steps")
	if rr.Code != http.StatusOK {
		t.Fatalf("Expected status 200, got %d", rr.Code)
	}
	body := rr.Body.String()
	if !strings.Contains(body, "echarts") {
		t.Error("Expected an echarts page")
	}
	if !strings.Contains(body, highlightColor) {
		t.Error("Expected the peak hour to be highlighted")
	}
}

func TestHealthHandler(t *testing.T) {
	rr := get(t, newTestServer(t).Routes(), "/health")
	var body map[string]any
	if err := json.NewDecoder(rr.Body).Decode(&body); err != nil {
		t.Fatal(err)
	}
	if body["status"] != "ok" {
		t.Errorf("Expected status ok, got %v", body["status"])
	}
}

func TestMissingAssets(t *testing.T) {
	s := newTestServer(t)
	dir := filepath.Join(s.opts.AssetDir, "animations")
	if err := os.MkdirAll(dir, 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(dir, "idle.mp4"), []byte("x"), 0o644); err != nil {
		t.Fatal(err)
	}

	missing := s.MissingAssets()
	if len(missing) != len(animation.DefaultAssetTable().URLs())-1 {
		t.Errorf("Expected every asset but idle to be missing, got %v", missing)
	}
	for _, m := range missing {
		if strings.HasSuffix(m, "idle.mp4") {
			t.Error("Expected idle.mp4 to be found")
		}
	}

	rr := get(t, s.Routes(), "/assets/animations/idle.mp4")
	if rr.Code != http.StatusOK {
		t.Errorf("Expected asset to be served, got %d", rr.Code)
	}

	for _, name := range []string{"day.js", "daylife.css"} {
		rr := get(t, s.Routes(), "/assets/static/"+name)
		if rr.Code != http.StatusOK {
			t.Errorf("Expected %s to be served from the embedded files, got %d", name, rr.Code)
		}
	}
}

// wsMessage covers the fields of every outbound message the tests look at.
type wsMessage struct {
	Type    string `json:"type"`
	Slot    int    `json:"slot"`
	Op      string `json:"op"`
	URL     string `json:"url"`
	Caption string `json:"caption"`
	Message string `json:"message"`
	State   struct {
		Message string `json:"message"`
	} `json:"state"`
}

// readUntil reads messages until match returns true.
func readUntil(t *testing.T, conn *websocket.Conn, match func(wsMessage) bool) wsMessage {
	t.Helper()
	_ = conn.SetReadDeadline(time.Now().Add(5 * time.Second))
	for {
		var m wsMessage
		if err := conn.ReadJSON(&m); err != nil {
			t.Fatalf("read error: %v", err)
		}
		if match(m) {
			return m
		}
	}
}

func dial(t *testing.T, ts *httptest.Server, user string) *websocket.Conn {
	t.Helper()
	wsURL := "ws" + strings.TrimPrefix(ts.URL, "http") + "/ws?user=" + user
	conn, _, err := websocket.DefaultDialer.Dial(wsURL, nil)
	if err != nil {
		t.Fatalf("dial error: %v", err)
	}
	return conn
}

func TestSessionOverWebsocket(t *testing.T) {
	s := newTestServer(t)
	ts := httptest.NewServer(s.Routes())
	defer ts.Close()

	conn := dial(t, ts, "user_1")
	defer conn.Close()

	readUntil(t, conn, func(m wsMessage) bool { return m.Type == "autoscroll" })

	if err := conn.WriteJSON(map[string]any{"type": "scroll", "scrollTop": 0, "documentHeight": 2000, "viewportHeight": 500}); err != nil {
		t.Fatal(err)
	}
	frame := readUntil(t, conn, func(m wsMessage) bool { return m.Type == "frame" })
	if frame.Caption != "Sleeping" {
		t.Errorf("Expected caption Sleeping, got %q", frame.Caption)
	}
	load := readUntil(t, conn, func(m wsMessage) bool { return m.Type == "buffer" && m.Op == "load" })
	if load.URL != animation.AssetPath+"sleeping.mp4" {
		t.Errorf("Expected sleeping animation to load, got %q", load.URL)
	}

	if err := conn.WriteJSON(map[string]any{"type": "media", "slot": load.Slot, "url": load.URL, "event": "ready"}); err != nil {
		t.Fatal(err)
	}
	show := readUntil(t, conn, func(m wsMessage) bool { return m.Type == "buffer" && m.Op == "show" })
	if show.Slot != load.Slot {
		t.Errorf("Expected slot %d to be shown, got %d", load.Slot, show.Slot)
	}
	readUntil(t, conn, func(m wsMessage) bool { return m.Type == "buffer" && m.Op == "play" })

	if err := conn.WriteJSON(map[string]any{"type": "media", "slot": load.Slot, "url": load.URL, "event": "blocked"}); err != nil {
		t.Fatal(err)
	}
	blocked := readUntil(t, conn, func(m wsMessage) bool { return m.Type == "animation" && m.State.Message != "" })
	if blocked.State.Message != "Click to play activity" {
		t.Errorf("Expected click to play prompt, got %q", blocked.State.Message)
	}

	if err := conn.WriteJSON(map[string]any{"type": "resume"}); err != nil {
		t.Fatal(err)
	}
	play := readUntil(t, conn, func(m wsMessage) bool { return m.Type == "buffer" && m.Op == "play" })
	if play.Slot != load.Slot {
		t.Errorf("Expected slot %d to resume, got %d", load.Slot, play.Slot)
	}

	// 07:40 falls in user_1's eating interval
	hovered := time.Date(2024, time.January, 1, 7, 40, 0, 0, time.UTC).UnixMilli()
	if err := conn.WriteJSON(map[string]any{"type": "hover", "time": hovered}); err != nil {
		t.Fatal(err)
	}
	preload := readUntil(t, conn, func(m wsMessage) bool { return m.Type == "buffer" && m.Op == "load" })
	if preload.URL != animation.AssetPath+"eating.mp4" {
		t.Errorf("Expected eating animation to load on hover, got %q", preload.URL)
	}
	if preload.Slot == load.Slot {
		t.Errorf("Expected the hovered animation to preload into the other slot")
	}

	if s.Hub().Count() != 1 {
		t.Errorf("Expected 1 open session, got %d", s.Hub().Count())
	}
	s.DataChanged([]string{"all_activity.csv"})
	reload := readUntil(t, conn, func(m wsMessage) bool { return m.Type == "reload" })
	if !strings.Contains(reload.Message, "all_activity.csv") {
		t.Errorf("Expected reload notice to name the file, got %q", reload.Message)
	}
}

func TestWebsocketUnknownUser(t *testing.T) {
	ts := httptest.NewServer(newTestServer(t).Routes())
	defer ts.Close()

	wsURL := "ws" + strings.TrimPrefix(ts.URL, "http") + "/ws?user=nobody"
	_, resp, err := websocket.DefaultDialer.Dial(wsURL, nil)
	if err == nil {
		t.Fatal("Expected dial to fail for an unknown participant")
	}
	if resp == nil || resp.StatusCode != http.StatusNotFound {
		t.Errorf("Expected status 404, got %v", resp)
	}
}

func TestHub(t *testing.T) {
	hub := NewHub()
	a := &Session{User: "user_1", send: make(chan []byte, 1)}
	b := &Session{User: "user_2", send: make(chan []byte, 1)}
	hub.Register(a)
	hub.Register(b)

	if hub.Count() != 2 {
		t.Fatalf("Expected 2 sessions, got %d", hub.Count())
	}

	hub.Broadcast("user_1", []byte("one"))
	if got := string(<-a.send); got != "one" {
		t.Errorf("Expected one, got %q", got)
	}
	if len(b.send) != 0 {
		t.Error("Expected user_2 not to receive user_1's message")
	}

	hub.Broadcast("", []byte("all"))
	// a full queue drops instead of blocking
	hub.Broadcast("", []byte("dropped"))
	if got := string(<-b.send); got != "all" {
		t.Errorf("Expected all, got %q", got)
	}

	hub.Unregister(a)
	hub.Unregister(a)
	if hub.Count() != 1 {
		t.Errorf("Expected 1 session, got %d", hub.Count())
	}
	<-a.send
	if _, ok := <-a.send; ok {
		t.Error("Expected send queue to be closed")
	}
}

func TestCoalesceScrolls(t *testing.T) {
	s := &Session{events: make(chan inbound, 8)}
	s.events <- inbound{Type: msgScroll, ScrollTop: 2}
	s.events <- inbound{Type: msgScroll, ScrollTop: 3}
	s.events <- inbound{Type: msgResume}
	s.events <- inbound{Type: msgScroll, ScrollTop: 4}

	latest, next, open := s.coalesce(inbound{Type: msgScroll, ScrollTop: 1})
	if latest.ScrollTop != 3 {
		t.Errorf("Expected latest scrollTop 3, got %v", latest.ScrollTop)
	}
	if next == nil || next.Type != msgResume {
		t.Errorf("Expected resume to follow, got %+v", next)
	}
	if !open {
		t.Error("Expected events to stay open")
	}
	if len(s.events) != 1 {
		t.Errorf("Expected the later scroll to stay queued, got %d events", len(s.events))
	}

	close(s.events)
	latest, next, open = s.coalesce(inbound{Type: msgScroll, ScrollTop: 5})
	if latest.ScrollTop != 4 || next != nil || open {
		t.Errorf("Expected 4, nil, closed; got %v, %+v, %v", latest.ScrollTop, next, open)
	}

	m, next, _ := (&Session{events: make(chan inbound)}).coalesce(inbound{Type: msgResume})
	if m.Type != msgResume || next != nil {
		t.Error("Expected non-scroll events to pass through")
	}
}

func TestRemoteBuffer(t *testing.T) {
	var sent []bufferMessage
	b := newRemoteBuffer(1, func(p []byte) {
		var m bufferMessage
		if err := json.Unmarshal(p, &m); err != nil {
			t.Fatal(err)
		}
		sent = append(sent, m)
	})

	var results []error
	b.Load("/a.mp4", func(err error) { results = append(results, err) })
	b.Load("/b.mp4", func(err error) { results = append(results, err) })
	b.loaded("/a.mp4", nil)
	if len(results) != 0 || !b.Loading() {
		t.Error("Expected the abandoned load's completion to be ignored")
	}
	b.loaded("/b.mp4", errMediaLoad)
	if len(results) != 1 || results[0] == nil || b.Ready() {
		t.Errorf("Expected one failed completion, got %v", results)
	}

	b.Show()
	b.Show()
	b.setBlocked(true)
	if err := b.Play(); err != animation.ErrAutoplayBlocked {
		t.Errorf("Expected ErrAutoplayBlocked, got %v", err)
	}
	b.setBlocked(false)
	if err := b.Play(); err != nil {
		t.Errorf("Expected play to succeed, got %v", err)
	}

	var ops []string
	for _, m := range sent {
		if m.Slot != 1 {
			t.Errorf("Expected slot 1, got %d", m.Slot)
		}
		ops = append(ops, m.Op)
	}
	if got := strings.Join(ops, ","); got != "load,load,show,play" {
		t.Errorf("Expected load,load,show,play, got %s", got)
	}
}
