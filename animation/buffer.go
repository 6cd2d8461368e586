package animation

import "errors"

// ErrAutoplayBlocked is returned by Play when the viewer has to interact
// before media may start.
var ErrAutoplayBlocked = errors.New("autoplay blocked")

// Buffer is one media slot of the double-buffered animation view. Load is
// asynchronous: done is called once, on the owner's goroutine, when the slot
// can play through (nil) or failed. Starting another Load abandons the
// previous one without calling its done.
type Buffer interface {
	Load(url string, done func(error))
	URL() string
	// Ready reports whether enough data is buffered to start playing.
	Ready() bool
	Loading() bool
	Show()
	Hide()
	Play() error
	Pause()
	Visible() bool
	Playing() bool
}

// BufferState is a snapshot of a Buffer for rendering and logging.
type BufferState struct {
	URL     string `json:"url"`
	Ready   bool   `json:"ready"`
	Loading bool   `json:"loading"`
	Visible bool   `json:"visible"`
	Playing bool   `json:"playing"`
}

func snapshot(b Buffer) BufferState {
	return BufferState{
		URL:     b.URL(),
		Ready:   b.Ready(),
		Loading: b.Loading(),
		Visible: b.Visible(),
		Playing: b.Playing(),
	}
}

// MemoryBuffer is an in-process Buffer. Loads stay pending until Complete or
// Fail is called, unless Instant is set.
type MemoryBuffer struct {
	// Instant completes every load immediately.
	Instant bool
	// PlayErr, when set, is returned by Play.
	PlayErr error

	url     string
	ready   bool
	loading bool
	visible bool
	playing bool
	done    func(error)
	loads   int
}

func (b *MemoryBuffer) Load(url string, done func(error)) {
	b.url = url
	b.ready = false
	b.loading = true
	b.playing = false
	b.done = done
	b.loads++
	if b.Instant {
		b.Complete()
	}
}

// Complete finishes the pending load successfully.
func (b *MemoryBuffer) Complete() {
	if !b.loading {
		return
	}
	b.loading = false
	b.ready = true
	b.finish(nil)
}

// Fail finishes the pending load with err.
func (b *MemoryBuffer) Fail(err error) {
	if !b.loading {
		return
	}
	b.loading = false
	b.ready = false
	b.finish(err)
}

func (b *MemoryBuffer) finish(err error) {
	done := b.done
	b.done = nil
	if done != nil {
		done(err)
	}
}

// Loads counts the Load calls, including abandoned ones.
func (b *MemoryBuffer) Loads() int { return b.loads }

func (b *MemoryBuffer) URL() string   { return b.url }
func (b *MemoryBuffer) Ready() bool   { return b.ready }
func (b *MemoryBuffer) Loading() bool { return b.loading }
func (b *MemoryBuffer) Show()         { b.visible = true }
func (b *MemoryBuffer) Hide()         { b.visible = false }
func (b *MemoryBuffer) Pause()        { b.playing = false }
func (b *MemoryBuffer) Visible() bool { return b.visible }
func (b *MemoryBuffer) Playing() bool { return b.playing }

func (b *MemoryBuffer) Play() error {
	if b.PlayErr != nil {
		b.playing = false
		return b.PlayErr
	}
	b.playing = true
	return nil
}
