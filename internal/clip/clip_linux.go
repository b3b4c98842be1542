//go:build linux

package clip

import (
	"bytes"
	"log/slog"
	"sync"

	"golang.design/x/clipboard"
)

// linuxCounter synthesizes a change counter for X11/Wayland, which expose
// no sequence number: every call compares the current text and image
// payloads against the last seen ones and advances on any difference.
type linuxCounter struct {
	mu       sync.Mutex
	count    int64
	lastText []byte
	lastImg  []byte
}

func (c *linuxCounter) next() int64 {
	text := clipboard.Read(clipboard.FmtText)
	img := clipboard.Read(clipboard.FmtImage)

	c.mu.Lock()
	defer c.mu.Unlock()
	if !bytes.Equal(text, c.lastText) || !bytes.Equal(img, c.lastImg) {
		c.lastText = text
		c.lastImg = img
		c.count++
	}
	return c.count
}

// New returns the Linux clipboard backend, or a headless in-memory backend
// if the display environment is unavailable (e.g. a headless server without
// X11 or Wayland). clipboard.Init is called here rather than in init() so
// that CLI sub-commands that never watch don't trigger the warning.
func New() Source {
	if err := clipboard.Init(); err != nil {
		slog.Warn("clipboard unavailable, running headless", "err", err)
		return NewMemory("headless (no-op)")
	}
	c := &linuxCounter{}
	c.next()
	return &formatBackend{name: "Linux clipboard (poll)", counter: c.next}
}
