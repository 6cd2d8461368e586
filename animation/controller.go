package animation

import (
	"fmt"
	"log"
	"time"

	"github.com/daylife/models"
	"github.com/daylife/timeline"
)

// Messages shown in place of, or over, the animation.
const (
	msgLoading     = "Loading activity..."
	msgClickToPlay = "Click to play activity"
)

// Lookup answers the activity query for an instant.
type Lookup func(t time.Time) (models.ActivityInterval, bool)

// State is what the page needs to mirror the controller.
type State struct {
	Target  Target      `json:"target"`
	Message string      `json:"message"`
	Current BufferState `json:"current"`
	Preload BufferState `json:"preload"`
}

// Controller swaps two buffers so that the visible animation only changes
// once the next one can play. It must be used from one goroutine, and
// buffer completions must be delivered on that same goroutine.
type Controller struct {
	buffers [2]Buffer
	current int
	assets  *AssetTable
	lookup  Lookup

	latest   time.Time
	target   Target
	failed   string
	message  string
	onChange func(State)
}

// NewController returns a controller over the two buffers. lookup is used to
// re-check the desired animation when a load completes; nil trusts the last
// Update.
func NewController(a, b Buffer, assets *AssetTable, lookup Lookup) *Controller {
	if assets == nil {
		assets = DefaultAssetTable()
	}
	return &Controller{buffers: [2]Buffer{a, b}, assets: assets, lookup: lookup}
}

// OnChange registers fn to be called after every visible state change.
func (c *Controller) OnChange(fn func(State)) { c.onChange = fn }

func (c *Controller) cur() Buffer { return c.buffers[c.current] }
func (c *Controller) pre() Buffer { return c.buffers[1-c.current] }

// State returns a snapshot.
func (c *Controller) State() State {
	return State{
		Target:  c.target,
		Message: c.message,
		Current: snapshot(c.cur()),
		Preload: snapshot(c.pre()),
	}
}

// ActivityAt lets the controller observe a timeline.Synchronizer.
func (c *Controller) ActivityAt(now time.Time, active *models.ActivityInterval, _ *timeline.IdleSpan) {
	c.Update(now, active)
}

// Update makes the animation for active the desired one and moves the
// buffers toward showing it.
func (c *Controller) Update(now time.Time, active *models.ActivityInterval) {
	c.latest = now
	target := c.assets.Resolve(active)
	c.target = target

	if target.Kind == TargetUnavailable {
		changed := false
		for _, b := range c.buffers {
			changed = changed || b.Visible() || b.Playing()
			b.Pause()
			b.Hide()
		}
		c.setMessage(fmt.Sprintf("Activity (Code: %d) - No animation available.", int(target.Code)), changed)
		return
	}

	cur, pre := c.cur(), c.pre()
	if cur.URL() == target.URL && cur.Ready() {
		changed := false
		if !cur.Visible() {
			cur.Show()
			changed = true
		}
		msg := ""
		if !cur.Playing() {
			msg = c.play(cur)
			changed = true
		}
		c.setMessage(msg, changed)
		return
	}

	if pre.URL() == target.URL && pre.Ready() {
		c.swap()
		return
	}

	if pre.URL() == target.URL && pre.Loading() {
		return
	}
	if pre.URL() == target.URL && c.failed == target.URL {
		c.setMessage(failedMessage(target), false)
		return
	}
	c.failed = ""
	if !cur.Visible() {
		c.setMessage(msgLoading, false)
	}
	pre.Load(target.URL, c.loaded(pre, target))
}

// loaded is the one-shot completion for a load of want into buf.
func (c *Controller) loaded(buf Buffer, want Target) func(error) {
	return func(err error) {
		if buf.URL() != want.URL || buf == c.cur() {
			return
		}
		if err != nil {
			log.Printf("Failed to load animation %s: %v", want.URL, err)
			c.failed = want.URL
			if c.desired().URL == want.URL {
				c.setMessage(failedMessage(want), false)
			}
			return
		}
		if c.desired().URL != want.URL {
			return
		}
		c.swap()
	}
}

func failedMessage(t Target) string {
	return "Failed to load activity: " + t.Name
}

// desired resolves the target for the latest instant seen.
func (c *Controller) desired() Target {
	if c.lookup == nil {
		return c.target
	}
	iv, ok := c.lookup(c.latest)
	if !ok {
		return c.assets.Resolve(nil)
	}
	return c.assets.Resolve(&iv)
}

func (c *Controller) swap() {
	cur, pre := c.cur(), c.pre()
	cur.Pause()
	cur.Hide()
	pre.Show()
	c.current = 1 - c.current
	c.setMessage(c.play(pre), true)
}

// play starts b and returns the message to show.
func (c *Controller) play(b Buffer) string {
	if err := b.Play(); err != nil {
		return msgClickToPlay
	}
	return ""
}

// Resume retries playback of the visible buffer after the viewer
// interacted with the page.
func (c *Controller) Resume() {
	cur := c.cur()
	if cur.Visible() && !cur.Playing() {
		c.setMessage(c.play(cur), true)
	}
}

// setMessage notifies the OnChange hook when msg differs or force is set.
func (c *Controller) setMessage(msg string, force bool) {
	if msg == c.message && !force {
		return
	}
	c.message = msg
	if c.onChange != nil {
		c.onChange(c.State())
	}
}
