package animation

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/daylife/models"
)

var base = time.Date(2024, time.March, 4, 0, 0, 0, 0, time.UTC)

func hm(hh, mm int) time.Time {
	return base.Add(time.Duration(hh)*time.Hour + time.Duration(mm)*time.Minute)
}

// fixture has sleeping 00:00-07:00, idle 07:00-08:00, sitting 08:00-09:00,
// eating 09:00-09:30 and an unmapped code from 10:00.
func fixture(t *testing.T) (*Controller, *MemoryBuffer, *MemoryBuffer, *models.IntervalStore, *[]State) {
	t.Helper()
	store := models.NewIntervalStore([]models.ActivityInterval{
		{Start: hm(0, 0), End: hm(7, 0), Code: 1},
		{Start: hm(8, 0), End: hm(9, 0), Code: 3},
		{Start: hm(9, 0), End: hm(9, 30), Code: 7},
		{Start: hm(10, 0), Open: true, Code: 42},
	})
	a, b := &MemoryBuffer{}, &MemoryBuffer{}
	c := NewController(a, b, DefaultAssetTable(), store.ActiveAt)
	var states []State
	c.OnChange(func(s State) { states = append(states, s) })
	return c, a, b, store, &states
}

func update(c *Controller, store *models.IntervalStore, t time.Time) {
	if iv, ok := store.ActiveAt(t); ok {
		c.Update(t, &iv)
		return
	}
	c.Update(t, nil)
}

func TestControllerFirstLoadSwaps(t *testing.T) {
	c, a, b, store, _ := fixture(t)
	update(c, store, hm(1, 0))

	if a.Loading() || !b.Loading() {
		t.Fatal("Expected the preload slot to start loading")
	}
	if c.State().Message != msgLoading {
		t.Errorf("Expected loading message, got %q", c.State().Message)
	}
	b.Complete()

	st := c.State()
	if st.Current.URL != AssetPath+"sleeping.mp4" || !st.Current.Visible || !st.Current.Playing {
		t.Errorf("Expected sleeping animation playing, got %+v", st.Current)
	}
	if st.Message != "" {
		t.Errorf("Expected no message, got %q", st.Message)
	}

	update(c, store, hm(2, 0))
	if a.Loads()+b.Loads() != 1 {
		t.Errorf("Expected no reload for an unchanged target, got %d loads", a.Loads()+b.Loads())
	}
}

func TestControllerSwapUsesReadyPreload(t *testing.T) {
	c, a, b, store, _ := fixture(t)
	update(c, store, hm(1, 0))
	b.Complete()

	update(c, store, hm(8, 10))
	a.Complete()
	if c.State().Current.URL != AssetPath+"sitting.mp4" {
		t.Fatalf("Expected sitting, got %s", c.State().Current.URL)
	}
	if b.Visible() || b.Playing() {
		t.Error("Expected the previous buffer hidden and paused")
	}

	// back to sleeping: the hidden slot still holds it and is ready
	update(c, store, hm(3, 0))
	if b.Loads() != 1 {
		t.Errorf("Expected ready preload to be reused, got %d loads", b.Loads())
	}
	if !b.Visible() || !b.Playing() || a.Visible() {
		t.Error("Expected swap back to the sleeping buffer")
	}
}

func TestControllerNeverShowsStaleTarget(t *testing.T) {
	c, a, b, store, states := fixture(t)
	update(c, store, hm(1, 0))
	b.Complete()

	update(c, store, hm(8, 10)) // sitting, preload starts
	update(c, store, hm(9, 10)) // eating, replaces the sitting load
	if a.Loads() != 2 || a.URL() != AssetPath+"eating.mp4" {
		t.Fatalf("Expected preload retargeted to eating, got %s", a.URL())
	}
	a.Complete()

	for _, s := range *states {
		if s.Current.URL == AssetPath+"sitting.mp4" {
			t.Fatal("Stale sitting animation was shown")
		}
	}
	if c.State().Current.URL != AssetPath+"eating.mp4" {
		t.Errorf("Expected eating, got %s", c.State().Current.URL)
	}
}

func TestControllerRevalidatesOnCompletion(t *testing.T) {
	c, a, b, store, _ := fixture(t)
	update(c, store, hm(1, 0))
	b.Complete()

	update(c, store, hm(8, 10)) // sitting starts loading
	update(c, store, hm(2, 0))  // back to sleeping before it finishes
	a.Complete()

	st := c.State()
	if st.Current.URL != AssetPath+"sleeping.mp4" || !b.Visible() {
		t.Errorf("Expected sleeping to stay visible, got %+v", st.Current)
	}
	if a.Visible() {
		t.Error("Expected the late sitting load to stay hidden")
	}
}

func TestControllerLoadFailure(t *testing.T) {
	c, a, b, store, _ := fixture(t)
	update(c, store, hm(1, 0))
	b.Complete()

	update(c, store, hm(8, 10))
	a.Fail(errors.New("404"))

	st := c.State()
	if st.Message != "Failed to load activity: "+models.Category(3).Description() {
		t.Errorf("Unexpected message %q", st.Message)
	}
	if !b.Visible() || !b.Playing() {
		t.Error("Expected the current animation to keep playing after a failed load")
	}

	update(c, store, hm(8, 20))
	if a.Loads() != 1 {
		t.Errorf("Expected no automatic retry, got %d loads", a.Loads())
	}
}

func TestControllerUnavailableStopsBoth(t *testing.T) {
	c, a, b, store, _ := fixture(t)
	update(c, store, hm(1, 0))
	b.Complete()

	update(c, store, hm(10, 30))
	if a.Visible() || b.Visible() || a.Playing() || b.Playing() {
		t.Error("Expected both buffers stopped")
	}
	st := c.State()
	if st.Target.Kind != TargetUnavailable || st.Message != "Activity (Code: 42) - No animation available." {
		t.Errorf("Unexpected state %+v", st)
	}

	update(c, store, hm(2, 0))
	if !b.Visible() || !b.Playing() || c.State().Message != "" {
		t.Error("Expected sleeping to resume without a reload")
	}
}

func TestControllerIdle(t *testing.T) {
	c, a, b, store, _ := fixture(t)
	update(c, store, hm(7, 30))
	if c.State().Target.Kind != TargetIdle {
		t.Errorf("Expected idle target, got %s", c.State().Target.Kind)
	}
	b.Complete()
	if b.URL() != AssetPath+"idle.mp4" || !b.Visible() || a.Visible() {
		t.Errorf("Expected idle animation shown, got %+v", c.State())
	}
}

func TestControllerAutoplayBlocked(t *testing.T) {
	c, _, b, store, _ := fixture(t)
	b.PlayErr = ErrAutoplayBlocked
	update(c, store, hm(1, 0))
	b.Complete()

	if c.State().Message != msgClickToPlay || b.Playing() || !b.Visible() {
		t.Errorf("Expected click-to-play prompt, got %+v", c.State())
	}

	b.PlayErr = nil
	c.Resume()
	if !b.Playing() || c.State().Message != "" {
		t.Errorf("Expected playback after resume, got %+v", c.State())
	}
}

func TestControllerInstantBuffers(t *testing.T) {
	a, b := &MemoryBuffer{Instant: true}, &MemoryBuffer{Instant: true}
	c := NewController(a, b, nil, nil)
	c.Update(hm(1, 0), &models.ActivityInterval{Start: hm(0, 0), Code: 6})
	if st := c.State(); st.Current.URL != AssetPath+"heavy_movement.mp4" || !st.Current.Playing {
		t.Errorf("Expected heavy movement playing, got %+v", st.Current)
	}
}

func TestLoadAssetTable(t *testing.T) {
	path := filepath.Join(t.TempDir(), "assets.yaml")
	content := `idle:
  name: resting
  url: /media/resting.mp4
categories:
  1:
    url: /media/sleep.webm
  11:
    url: ""
`
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
	table, err := LoadAssetTable(path)
	if err != nil {
		t.Fatal(err)
	}
	if table.Idle.URL != "/media/resting.mp4" || table.Idle.Name != "resting" {
		t.Errorf("Unexpected idle asset %+v", table.Idle)
	}
	if a := table.Assets[1]; a.URL != "/media/sleep.webm" || a.Name != "sleeping" {
		t.Errorf("Expected sleeping override keeping its name, got %+v", a)
	}
	target := table.Resolve(&models.ActivityInterval{Code: 11})
	if target.Kind != TargetUnavailable {
		t.Errorf("Expected smoking unmapped, got %s", target.Kind)
	}
	if got := len(table.URLs()); got != 12 {
		t.Errorf("Expected 12 distinct urls, got %d", got)
	}

	if _, err := LoadAssetTable(filepath.Join(t.TempDir(), "missing.yaml")); err == nil {
		t.Error("Expected error for a missing file")
	}
}
