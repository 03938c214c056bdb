// Package viewer holds the state of the modal media viewer: which item of
// an entry is showing, keyboard navigation, and the scroll lock taken on
// the list underneath while it is open.
package viewer

import (
	"context"
	"sync"

	"github.com/lazypower/scrapbook/internal/media"
	"github.com/lazypower/scrapbook/internal/memory"
)

// Action is what a key press asks the host to do.
type Action int

const (
	None Action = iota
	Moved
	Closed
)

// Scroller is the list behind the viewer. Offset reads the current
// position; SetOffset restores it; Lock toggles scrolling.
type Scroller interface {
	Offset() int
	SetOffset(int)
	Lock(bool)
}

// Wrap maps any integer index into [0, n). n must be positive.
func Wrap(i, n int) int {
	if n <= 0 {
		return 0
	}
	i %= n
	if i < 0 {
		i += n
	}
	return i
}

// Viewer is the open-modal state for one entry.
type Viewer struct {
	Title string
	Items []media.Normalized

	mu       sync.Mutex
	index    int
	scroller Scroller
	saved    int
	open     bool
}

// New normalizes the entry's media. Storage refs go through res.
func New(ctx context.Context, e memory.Entry, res media.Resolver) *Viewer {
	return FromMedia(e.Title, media.Normalize(ctx, e.Photos, res))
}

// FromMedia builds a viewer over already normalized items.
func FromMedia(title string, items []media.Normalized) *Viewer {
	return &Viewer{Title: title, Items: items}
}

// Len is the number of items.
func (v *Viewer) Len() int { return len(v.Items) }

// Index is the position of the current item.
func (v *Viewer) Index() int {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.index
}

// Current returns the item on screen. ok is false for an entry with no
// renderable media.
func (v *Viewer) Current() (media.Normalized, bool) {
	v.mu.Lock()
	defer v.mu.Unlock()
	if len(v.Items) == 0 {
		return media.Normalized{}, false
	}
	return v.Items[v.index], true
}

// Step moves by n, wrapping at both ends.
func (v *Viewer) Step(n int) int {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.index = Wrap(v.index+n, len(v.Items))
	return v.index
}

// Next advances one item.
func (v *Viewer) Next() int { return v.Step(1) }

// Prev goes back one item.
func (v *Viewer) Prev() int { return v.Step(-1) }

// Select jumps to i, as a thumbnail click does. Out-of-range values wrap.
func (v *Viewer) Select(i int) int {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.index = Wrap(i, len(v.Items))
	return v.index
}

// HandleKey applies a key press. Unknown keys do nothing.
func (v *Viewer) HandleKey(key string) Action {
	switch key {
	case "left", "h":
		v.Prev()
		return Moved
	case "right", "l":
		v.Next()
		return Moved
	case "esc", "escape", "q":
		v.Close()
		return Closed
	}
	return None
}

// Open records the scroller's offset and locks it. Opening an already
// open viewer keeps the first saved offset.
func (v *Viewer) Open(s Scroller) {
	v.mu.Lock()
	defer v.mu.Unlock()
	if v.open {
		return
	}
	v.open = true
	v.scroller = s
	if s != nil {
		v.saved = s.Offset()
		s.Lock(true)
	}
}

// IsOpen reports whether the viewer holds the scroll lock.
func (v *Viewer) IsOpen() bool {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.open
}

// Close unlocks the scroller and restores the offset recorded by Open.
// Only the first call after Open has any effect, so it is safe to defer.
func (v *Viewer) Close() {
	v.mu.Lock()
	defer v.mu.Unlock()
	if !v.open {
		return
	}
	v.open = false
	if s := v.scroller; s != nil {
		s.Lock(false)
		s.SetOffset(v.saved)
	}
	v.scroller = nil
}
