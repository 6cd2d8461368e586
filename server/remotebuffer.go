package server

import (
	"errors"

	"github.com/daylife/animation"
)

// remoteBuffer mirrors one <video> slot of the day page. Commands are sent
// as buffer messages; load results come back as media events and are
// applied on the session loop.
type remoteBuffer struct {
	slot int
	send func([]byte)

	url     string
	ready   bool
	loading bool
	visible bool
	playing bool
	blocked bool
	done    func(error)
}

func newRemoteBuffer(slot int, send func([]byte)) *remoteBuffer {
	return &remoteBuffer{slot: slot, send: send}
}

func (b *remoteBuffer) command(op, url string) {
	b.send(encode(bufferMessage{Type: "buffer", Slot: b.slot, Op: op, URL: url}))
}

func (b *remoteBuffer) Load(url string, done func(error)) {
	b.url = url
	b.ready = false
	b.loading = true
	b.playing = false
	b.done = done
	b.command("load", url)
}

// loaded applies a media event for url. Events for an abandoned load are
// ignored.
func (b *remoteBuffer) loaded(url string, err error) {
	if !b.loading || url != b.url {
		return
	}
	b.loading = false
	b.ready = err == nil
	done := b.done
	b.done = nil
	if done != nil {
		done(err)
	}
}

func (b *remoteBuffer) URL() string   { return b.url }
func (b *remoteBuffer) Ready() bool   { return b.ready }
func (b *remoteBuffer) Loading() bool { return b.loading }
func (b *remoteBuffer) Visible() bool { return b.visible }
func (b *remoteBuffer) Playing() bool { return b.playing }

func (b *remoteBuffer) Show() {
	if !b.visible {
		b.visible = true
		b.command("show", "")
	}
}

func (b *remoteBuffer) Hide() {
	if b.visible {
		b.visible = false
		b.command("hide", "")
	}
}

// Play fails while the page has reported that autoplay is refused and the
// viewer has not interacted since.
func (b *remoteBuffer) Play() error {
	if b.blocked {
		b.playing = false
		return animation.ErrAutoplayBlocked
	}
	b.playing = true
	b.command("play", "")
	return nil
}

// setBlocked records whether the page refuses to start playback until the
// viewer interacts with it.
func (b *remoteBuffer) setBlocked(blocked bool) {
	b.blocked = blocked
	if blocked {
		b.playing = false
	}
}

func (b *remoteBuffer) Pause() {
	if b.playing {
		b.playing = false
		b.command("pause", "")
	}
}

var errMediaLoad = errors.New("media failed to load")

var _ animation.Buffer = (*remoteBuffer)(nil)
