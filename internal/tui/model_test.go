package tui

import (
	"context"
	"errors"
	"fmt"
	"testing"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lazypower/scrapbook/internal/collection"
	"github.com/lazypower/scrapbook/internal/media"
	"github.com/lazypower/scrapbook/internal/memory"
	"github.com/lazypower/scrapbook/internal/view"
)

type listFunc func(ctx context.Context) ([]memory.Entry, error)

func (f listFunc) List(ctx context.Context) ([]memory.Entry, error) { return f(ctx) }

func entries(n int) []memory.Entry {
	out := make([]memory.Entry, n)
	for i := range out {
		out[i] = memory.Entry{
			ID:    fmt.Sprintf("m-%02d", i),
			Title: fmt.Sprintf("Memory %d", i),
			Date:  fmt.Sprintf("2024-%02d-%02d", 12-i/28, 28-i%28),
			Photos: []media.Ref{
				media.DirectURL(fmt.Sprintf("https://img/%d-a.jpg", i)),
				media.Inline(fmt.Sprintf("https://img/%d-b.mp4", i), media.KindVideo, "https://img/poster.jpg"),
			},
		}
	}
	return out
}

func static(es []memory.Entry) collection.Lister {
	return listFunc(func(context.Context) ([]memory.Entry, error) { return es, nil })
}

// loaded runs Init's command synchronously and feeds the result back.
func loaded(t *testing.T, m *Model) {
	t.Helper()
	cmd := m.Init()
	require.NotNil(t, cmd)
	m.Update(cmd())
	m.Update(frameMsg{})
}

func key(s string) tea.KeyMsg {
	switch s {
	case "enter":
		return tea.KeyMsg{Type: tea.KeyEnter}
	case "esc":
		return tea.KeyMsg{Type: tea.KeyEsc}
	case "tab":
		return tea.KeyMsg{Type: tea.KeyTab}
	case "down":
		return tea.KeyMsg{Type: tea.KeyDown}
	case "left":
		return tea.KeyMsg{Type: tea.KeyLeft}
	case "right":
		return tea.KeyMsg{Type: tea.KeyRight}
	case "backspace":
		return tea.KeyMsg{Type: tea.KeyBackspace}
	case "ctrl+c":
		return tea.KeyMsg{Type: tea.KeyCtrlC}
	}
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
}

func TestLoadAndLayout(t *testing.T) {
	m := New(context.Background(), static(entries(5)), Options{Mode: view.Timeline})
	assert.Contains(t, m.View(), "Loading")

	loaded(t, m)
	assert.Len(t, m.State.Visible(), 5)
	require.Len(t, m.Anchors(), 5)
	assert.Less(t, m.Anchors()[0].X, m.Anchors()[1].X)

	thread := m.Thread()
	require.Len(t, thread.Segments, 4)
	assert.NotEmpty(t, thread.Path)
	for _, seg := range thread.Segments {
		for _, x := range []float64{seg.CP1.X, seg.CP2.X} {
			assert.GreaterOrEqual(t, x, m.Anchors()[0].X, "curve stays between the pin columns")
			assert.LessOrEqual(t, x, m.Anchors()[1].X)
		}
	}
	assert.NotContains(t, m.View(), "Loading")
	out := m.View()
	assert.Contains(t, out, "Memory 0")
	assert.Contains(t, out, "●")
	assert.Contains(t, out, "•", "bead drawn between pins")
}

func TestThreadFollowsResize(t *testing.T) {
	m := New(context.Background(), static(entries(3)), Options{Mode: view.Timeline})
	loaded(t, m)
	before := m.Thread().Segments[0].P.X

	_, cmd := m.Update(tea.WindowSizeMsg{Width: 60, Height: 30})
	require.NotNil(t, cmd)
	assert.Equal(t, before, m.Thread().Segments[0].P.X, "relayout waits for the frame")
	m.Update(frameMsg{})
	assert.Equal(t, float64(30-timelineGutter), m.Thread().Segments[0].P.X)
}

func TestLoadFailureShowsBanner(t *testing.T) {
	m := New(context.Background(), listFunc(func(context.Context) ([]memory.Entry, error) {
		return nil, errors.New("refused")
	}), Options{})
	loaded(t, m)
	assert.Contains(t, m.View(), collection.LoadFailed)
	assert.Empty(t, m.State.Visible())
}

func TestSearchFiltersLive(t *testing.T) {
	m := New(context.Background(), static(entries(12)), Options{})
	loaded(t, m)

	m.Update(key("/"))
	for _, r := range "memory 1" {
		m.Update(key(string(r)))
	}
	got := m.State.Visible()
	require.Len(t, got, 3) // 1, 10, 11
	for _, e := range got {
		assert.Contains(t, e.Title, "Memory 1")
	}

	m.Update(key("backspace"))
	m.Update(key("backspace"))
	assert.Len(t, m.State.Visible(), 12)

	m.Update(key("enter"))
	assert.False(t, m.searching)
	assert.Equal(t, "memory", m.State.Query())
}

func TestViewerLocksAndRestoresScroll(t *testing.T) {
	m := New(context.Background(), static(entries(30)), Options{Mode: view.Timeline})
	loaded(t, m)
	m.Update(tea.WindowSizeMsg{Width: 100, Height: 26})

	for range 10 {
		m.Update(key("down"))
	}
	require.Equal(t, 10, m.Cursor())
	saved := m.Offset()
	require.Positive(t, saved)

	m.Update(key("enter"))
	require.NotNil(t, m.Viewer)
	assert.True(t, m.Locked())

	m.Update(key("right"))
	m.Update(key("right"))
	assert.Equal(t, 0, m.Viewer.Index(), "two items wrap back to the first")
	m.Update(tea.WindowSizeMsg{Width: 80, Height: 10})
	m.SetOffset(0)

	m.Update(key("esc"))
	assert.Nil(t, m.Viewer)
	assert.False(t, m.Locked())
	assert.Equal(t, saved, m.Offset())
	assert.Equal(t, 10, m.Cursor())
}

func TestToggleMode(t *testing.T) {
	m := New(context.Background(), static(entries(3)), Options{})
	loaded(t, m)
	assert.Equal(t, view.Grid, m.Mode)
	m.Update(key("tab"))
	assert.Equal(t, view.Timeline, m.Mode)
	m.Update(key("v"))
	assert.Equal(t, view.Grid, m.Mode)
}

func TestQuitCancelsLoad(t *testing.T) {
	started := make(chan struct{})
	m := New(context.Background(), listFunc(func(ctx context.Context) ([]memory.Entry, error) {
		close(started)
		<-ctx.Done()
		return nil, ctx.Err()
	}), Options{})

	done := make(chan tea.Msg, 1)
	cmd := m.Init()
	go func() { done <- cmd() }()
	<-started

	_, quit := m.Update(key("q"))
	require.NotNil(t, quit)
	assert.Equal(t, tea.Quit(), quit())

	msg := <-done
	lm, ok := msg.(loadedMsg)
	require.True(t, ok)
	assert.ErrorIs(t, lm.err, context.Canceled)
	assert.ErrorIs(t, m.Context().Err(), context.Canceled)
	assert.Empty(t, m.State.Banner())
}
