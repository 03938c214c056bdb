// Package tui is the terminal collection view: a grid or timeline of
// memories with live search and a modal media viewer.
package tui

import (
	"context"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/lazypower/scrapbook/internal/collection"
	"github.com/lazypower/scrapbook/internal/media"
	"github.com/lazypower/scrapbook/internal/memory"
	"github.com/lazypower/scrapbook/internal/timeline"
	"github.com/lazypower/scrapbook/internal/view"
	"github.com/lazypower/scrapbook/internal/viewer"
)

const (
	cardWidth      = 32
	gridRowHeight  = 6
	timelineRowH   = 5
	chromeLines    = 6
	frameInterval  = time.Second / 60
	defaultWidth   = 100
	defaultHeight  = 30
	timelineGutter = 3
)

type loadedMsg struct{ err error }

type frameMsg time.Time

// Options configures a Model.
type Options struct {
	Mode        view.Mode
	Resolver    media.Resolver
	Placeholder []memory.Entry
}

// Model is the bubbletea model for `scrapbook browse`. It also serves as
// the viewer's Scroller, so the list offset is saved and restored around
// the modal.
type Model struct {
	ctx    context.Context
	cancel context.CancelFunc
	lister collection.Lister
	res    media.Resolver

	State *collection.State
	Mode  view.Mode

	width, height int
	cursor        int
	offset        int
	locked        bool

	loaded    bool
	searching bool
	input     string

	Viewer *viewer.Viewer

	sched   *timeline.Scheduler
	anchors []timeline.Anchor
	thread  timeline.Layout
	frame   bool
}

// New builds a model that loads from l. Cancelling ctx, or quitting,
// aborts a load still in flight.
func New(ctx context.Context, l collection.Lister, o Options) *Model {
	ctx, cancel := context.WithCancel(ctx)
	m := &Model{
		ctx:    ctx,
		cancel: cancel,
		lister: l,
		res:    o.Resolver,
		State:  collection.New(o.Placeholder),
		Mode:   o.Mode,
		width:  defaultWidth,
		height: defaultHeight,
	}
	if m.Mode == "" {
		m.Mode = view.Grid
	}
	m.sched = timeline.NewScheduler(m.relayout)
	return m
}

// Context is canceled when the model quits.
func (m *Model) Context() context.Context { return m.ctx }

func (m *Model) Init() tea.Cmd {
	return m.load()
}

func (m *Model) load() tea.Cmd {
	ctx, l, st := m.ctx, m.lister, m.State
	return func() tea.Msg {
		return loadedMsg{err: st.Load(ctx, l)}
	}
}

// Offset, SetOffset and Lock implement viewer.Scroller.
func (m *Model) Offset() int { return m.offset }

func (m *Model) SetOffset(o int) { m.offset = o }

func (m *Model) Lock(on bool) { m.locked = on }

// Locked reports whether list scrolling is suspended.
func (m *Model) Locked() bool { return m.locked }

func (m *Model) Cursor() int { return m.cursor }

// Anchors is the last computed timeline arrangement.
func (m *Model) Anchors() []timeline.Anchor { return m.anchors }

// Thread is the last computed connector, in terminal cells.
func (m *Model) Thread() timeline.Layout { return m.thread }

func (m *Model) quit() (tea.Model, tea.Cmd) {
	if m.Viewer != nil {
		m.Viewer.Close()
		m.Viewer = nil
	}
	m.cancel()
	return m, tea.Quit
}

// trigger asks for a relayout on the next frame.
func (m *Model) trigger(r timeline.Reason) tea.Cmd {
	if !m.sched.Trigger(r) || m.frame {
		return nil
	}
	m.frame = true
	return tea.Tick(frameInterval, func(t time.Time) tea.Msg { return frameMsg(t) })
}

// threadOptions keep the curve between the two pin columns: with a pull
// of at most half the gap the control points never leave it.
var threadOptions = timeline.Options{
	Curve:   0.5,
	MinPull: 1,
	Beads:   1,
	Rand:    func() float64 { return 0 },
}

func (m *Model) relayout() {
	n := len(m.State.Visible())
	frame := timeline.Frame{
		Width:     float64(m.width),
		RowHeight: timelineRowH,
		Gutter:    timelineGutter,
	}
	m.anchors = timeline.Arrange(n, frame)
	m.thread = timeline.Build(timeline.Input{
		Anchors:       m.anchors,
		NaturalHeight: frame.NaturalHeight(n),
	}, threadOptions)
}

func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case loadedMsg:
		m.loaded = true
		m.clamp()
		return m, m.trigger(timeline.CountChange)
	case frameMsg:
		m.frame = false
		m.sched.Flush()
		return m, nil
	case tea.WindowSizeMsg:
		m.width, m.height = msg.Width, msg.Height
		m.ensureVisible()
		return m, m.trigger(timeline.WindowResize)
	case tea.KeyMsg:
		if msg.String() == "ctrl+c" {
			return m.quit()
		}
		if m.Viewer != nil {
			return m.updateViewer(msg)
		}
		if m.searching {
			return m.updateSearch(msg)
		}
		return m.updateList(msg)
	}
	return m, nil
}

func (m *Model) updateViewer(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if m.Viewer.HandleKey(msg.String()) == viewer.Closed {
		m.Viewer = nil
	}
	return m, nil
}

func (m *Model) updateSearch(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.Type {
	case tea.KeyEnter:
		m.searching = false
		return m, nil
	case tea.KeyEsc:
		m.searching = false
		m.input = ""
	case tea.KeyBackspace:
		if r := []rune(m.input); len(r) > 0 {
			m.input = string(r[:len(r)-1])
		}
	case tea.KeySpace:
		m.input += " "
	case tea.KeyRunes:
		m.input += string(msg.Runes)
	default:
		return m, nil
	}
	m.State.SetQuery(m.input)
	m.cursor, m.offset = 0, 0
	return m, m.trigger(timeline.CountChange)
}

func (m *Model) updateList(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	n := len(m.State.Visible())
	step := 1
	if m.Mode == view.Grid {
		step = m.columns()
	}
	switch msg.String() {
	case "q", "esc":
		return m.quit()
	case "/":
		m.searching = true
		return m, nil
	case "tab", "v":
		if m.Mode == view.Grid {
			m.Mode = view.Timeline
		} else {
			m.Mode = view.Grid
		}
		m.ensureVisible()
		return m, m.trigger(timeline.ContainerResize)
	case "r":
		return m, m.load()
	case "up", "k":
		m.move(-step, n)
	case "down", "j":
		m.move(step, n)
	case "left", "h":
		m.move(-1, n)
	case "right", "l":
		m.move(1, n)
	case "enter":
		return m, m.open()
	}
	return m, nil
}

func (m *Model) move(d, n int) {
	if m.locked || n == 0 {
		return
	}
	c := m.cursor + d
	if c < 0 || c >= n {
		return
	}
	m.cursor = c
	m.ensureVisible()
}

// open shows the viewer for the selected entry and locks the list.
func (m *Model) open() tea.Cmd {
	visible := m.State.Visible()
	if m.cursor >= len(visible) {
		return nil
	}
	v := viewer.New(m.ctx, visible[m.cursor], m.res)
	v.Open(m)
	m.Viewer = v
	return nil
}

func (m *Model) clamp() {
	n := len(m.State.Visible())
	if m.cursor >= n {
		m.cursor = max(0, n-1)
	}
	m.ensureVisible()
}

func (m *Model) columns() int {
	return max(1, m.width/(cardWidth+2))
}

func (m *Model) rowHeight() int {
	if m.Mode == view.Timeline {
		return timelineRowH
	}
	return gridRowHeight
}

// rows is how many list rows fit on screen.
func (m *Model) rows() int {
	return max(1, (m.height-chromeLines)/m.rowHeight())
}

func (m *Model) cursorRow() int {
	if m.Mode == view.Grid {
		return m.cursor / m.columns()
	}
	return m.cursor
}

// ensureVisible scrolls so the cursor row is on screen. It does nothing
// while the viewer holds the lock.
func (m *Model) ensureVisible() {
	if m.locked {
		return
	}
	row, rows := m.cursorRow(), m.rows()
	if row < m.offset {
		m.offset = row
	}
	if row >= m.offset+rows {
		m.offset = row - rows + 1
	}
}

// Run starts the program on the terminal and blocks until the user quits.
func Run(ctx context.Context, l collection.Lister, o Options) error {
	m := New(ctx, l, o)
	defer m.cancel()
	_, err := tea.NewProgram(m, tea.WithAltScreen(), tea.WithContext(ctx)).Run()
	return err
}
