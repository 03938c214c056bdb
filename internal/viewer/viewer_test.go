package viewer

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lazypower/scrapbook/internal/media"
	"github.com/lazypower/scrapbook/internal/memory"
)

type fakeScroller struct {
	offset   int
	locked   bool
	restores int
}

func (f *fakeScroller) Offset() int { return f.offset }
func (f *fakeScroller) SetOffset(o int) {
	f.offset = o
	f.restores++
}
func (f *fakeScroller) Lock(b bool) { f.locked = b }

func threeItems() *Viewer {
	return FromMedia("trip", []media.Normalized{
		{Kind: media.KindImage, URL: "a.jpg"},
		{Kind: media.KindImage, URL: "b.jpg"},
		{Kind: media.KindVideo, URL: "c.mp4", Poster: "c.jpg"},
	})
}

func TestWrap(t *testing.T) {
	tests := []struct {
		i, n, want int
	}{
		{0, 3, 0},
		{3, 3, 0},
		{-1, 3, 2},
		{-4, 3, 2},
		{7, 3, 1},
		{5, 0, 0},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, Wrap(tt.i, tt.n), "Wrap(%d, %d)", tt.i, tt.n)
	}
}

func TestNavigationWraps(t *testing.T) {
	v := threeItems()

	assert.Equal(t, 2, v.Prev(), "prev from first wraps to last")
	assert.Equal(t, 0, v.Next(), "next from last wraps to first")
	assert.Equal(t, 1, v.Next())
	assert.Equal(t, 1, v.Step(6))
	assert.Equal(t, 0, v.Step(-4))
	assert.Equal(t, 2, v.Select(5))

	cur, ok := v.Current()
	require.True(t, ok)
	assert.Equal(t, "c.mp4", cur.URL)
}

func TestEmptyViewer(t *testing.T) {
	v := FromMedia("empty", nil)
	assert.Equal(t, 0, v.Next())
	_, ok := v.Current()
	assert.False(t, ok)
}

func TestNewNormalizes(t *testing.T) {
	e := memory.Entry{
		Title: "beach",
		Photos: []media.Ref{
			media.DirectURL("https://x.test/a.jpg"),
			media.StorageKey(media.KindVideo, "p/clip.mp4", "p/clip.jpg"),
			{},
		},
	}
	v := New(context.Background(), e, media.BaseURL("https://bucket.test"))
	require.Equal(t, 2, v.Len())
	assert.Equal(t, "https://bucket.test/p/clip.mp4", v.Items[1].URL)
	assert.Equal(t, "https://bucket.test/p/clip.jpg", v.Items[1].Poster)
}

func TestHandleKey(t *testing.T) {
	v := threeItems()
	s := &fakeScroller{offset: 42}
	v.Open(s)

	assert.Equal(t, Moved, v.HandleKey("right"))
	assert.Equal(t, 1, v.Index())
	assert.Equal(t, Moved, v.HandleKey("left"))
	assert.Equal(t, 0, v.Index())
	assert.Equal(t, None, v.HandleKey("x"))
	assert.Equal(t, Closed, v.HandleKey("esc"))
	assert.False(t, v.IsOpen())
	assert.Equal(t, 42, s.offset)
}

func TestScrollLockRestoredOnce(t *testing.T) {
	v := threeItems()
	s := &fakeScroller{offset: 120}

	v.Open(s)
	assert.True(t, s.locked)
	assert.True(t, v.IsOpen())

	s.offset = 9000 // host jumped while the modal was up
	v.Open(s)       // reopen does not overwrite the saved offset

	v.Close()
	assert.False(t, s.locked)
	assert.Equal(t, 120, s.offset)

	s.offset = 5
	v.Close()
	assert.Equal(t, 5, s.offset)
	assert.Equal(t, 1, s.restores)
}

func TestDeferredCloseRestoresOnPanic(t *testing.T) {
	v := threeItems()
	s := &fakeScroller{offset: 77}

	func() {
		defer func() { _ = recover() }()
		v.Open(s)
		defer v.Close()
		s.offset = 0
		panic("render failed")
	}()

	assert.Equal(t, 77, s.offset)
	assert.False(t, s.locked)
}
