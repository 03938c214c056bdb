package tui

import (
	"fmt"
	"math"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/lazypower/scrapbook/internal/media"
	"github.com/lazypower/scrapbook/internal/memory"
	"github.com/lazypower/scrapbook/internal/timeline"
	"github.com/lazypower/scrapbook/internal/view"
)

func (m *Model) View() string {
	var b strings.Builder

	b.WriteString(styleTitle.Render("Book of Memories"))
	b.WriteString("  ")
	b.WriteString(styleDim.Render(string(m.Mode)))
	b.WriteString("\n")
	b.WriteString(m.searchLine())
	b.WriteString("\n")

	switch {
	case !m.loaded || m.State.Loading():
		b.WriteString(styleWarning.Render("Loading memories..."))
		b.WriteString("\n")
	case m.State.Banner() != "":
		b.WriteString(styleError.Render(m.State.Banner()))
		b.WriteString("\n")
	default:
		b.WriteString("\n")
	}

	visible := m.State.Visible()
	if m.Viewer != nil {
		b.WriteString(m.viewerView())
	} else if len(visible) == 0 && m.loaded {
		b.WriteString(styleDim.Render("No memories match."))
	} else if m.Mode == view.Timeline {
		b.WriteString(m.timelineView(visible))
	} else {
		b.WriteString(m.gridView(visible))
	}

	b.WriteString("\n")
	b.WriteString(styleDim.Render(m.help()))
	return b.String()
}

func (m *Model) help() string {
	switch {
	case m.Viewer != nil:
		return "←/→ browse  esc close"
	case m.searching:
		return "type to filter  ⏎ done  esc clear"
	}
	return "arrows move  ⏎ open  / search  tab grid/timeline  r reload  q quit"
}

func (m *Model) searchLine() string {
	q := m.input
	switch {
	case m.searching:
		return styleSelected.Render("/ ") + styleValue.Render(q) + styleSelected.Render("▏")
	case q != "":
		return styleDim.Render("filter: ") + styleValue.Render(q)
	}
	return ""
}

func mediaSummary(photos []media.Ref) string {
	var img, vid int
	for _, r := range photos {
		if r.Kind == media.KindVideo || (r.Kind == "" && media.InferKind(r.URL+r.Key) == media.KindVideo) {
			vid++
		} else {
			img++
		}
	}
	parts := []string{}
	if img > 0 {
		parts = append(parts, plural(img, "photo"))
	}
	if vid > 0 {
		parts = append(parts, plural(vid, "video"))
	}
	return strings.Join(parts, " · ")
}

func plural(n int, word string) string {
	if n == 1 {
		return "1 " + word
	}
	return fmt.Sprintf("%d %ss", n, word)
}

func truncate(s string, w int) string {
	r := []rune(s)
	if len(r) <= w {
		return s
	}
	if w <= 1 {
		return string(r[:w])
	}
	return string(r[:w-1]) + "…"
}

func (m *Model) card(e memory.Entry, selected bool, width int) string {
	inner := width - 4
	meta := e.Date
	if e.Location != "" {
		meta += " · " + e.Location
	}
	lines := []string{
		styleValue.Bold(true).Render(truncate(e.Title, inner)),
		styleMeta.Render(truncate(meta, inner)),
		styleDim.Render(truncate(mediaSummary(e.Photos), inner)),
	}
	if len(e.Tags) > 0 {
		lines[2] = styleTag.Render(truncate("#"+strings.Join(e.Tags, " #"), inner))
	}
	st := styleCard
	if selected {
		st = styleCardSelected
	}
	return st.Width(width - 2).Render(strings.Join(lines, "\n"))
}

func (m *Model) gridView(visible []memory.Entry) string {
	cols := m.columns()
	start := m.offset * cols
	end := min(len(visible), start+m.rows()*cols)

	var rows []string
	for i := start; i < end; i += cols {
		var cards []string
		for j := i; j < min(i+cols, end); j++ {
			cards = append(cards, m.card(visible[j], j == m.cursor, cardWidth))
		}
		rows = append(rows, lipgloss.JoinHorizontal(lipgloss.Top, cards...))
	}
	return lipgloss.JoinVertical(lipgloss.Left, rows...)
}

// threadCells rasterizes the connector into one column per screen line:
// the curve itself, its beads, and a pin at each anchor.
func (m *Model) threadCells() map[int]cell {
	cells := make(map[int]cell)
	put := func(x, y float64, glyph string) {
		line := int(math.Floor(y))
		if c, ok := cells[line]; ok && c.glyph != "·" {
			return
		}
		cells[line] = cell{x: int(math.Round(x)), glyph: glyph}
	}
	for _, a := range m.anchors {
		put(a.X, a.Y, "●")
	}
	for _, b := range m.thread.Beads {
		put(b.X, b.Y, "•")
	}
	for _, seg := range m.thread.Segments {
		for step := 0; step <= 4*timelineRowH; step++ {
			p := timeline.BezierAt(float64(step)/float64(4*timelineRowH), seg)
			put(p.X, p.Y, "·")
		}
	}
	return cells
}

type cell struct {
	x     int
	glyph string
}

// timelineView alternates cards either side of the thread. Even cards end
// at the left pin column, odd cards start after the right one, and the
// curve between them comes from the computed layout.
func (m *Model) timelineView(visible []memory.Entry) string {
	mid := m.width / 2
	lo, hi := mid-timelineGutter, mid+timelineGutter
	w := max(12, min(lo, cardWidth+8))
	end := min(len(visible), m.offset+m.rows())
	cells := m.threadCells()

	var b strings.Builder
	for i := m.offset; i < end; i++ {
		left := i%2 == 0
		if i < len(m.anchors) {
			left = int(m.anchors[i].X) < mid
		}
		lines := strings.Split(m.card(visible[i], i == m.cursor, w), "\n")
		for j := 0; j < timelineRowH; j++ {
			card := ""
			if j < len(lines) {
				card = lines[j]
			}
			gap := []rune(strings.Repeat(" ", hi-lo+1))
			glyph := ""
			if c, ok := cells[i*timelineRowH+j]; ok {
				if x := c.x - lo; x >= 0 && x < len(gap) {
					gap[x] = '\x00'
					glyph = c.glyph
				}
			}
			thread := string(gap)
			if glyph != "" {
				k := strings.IndexRune(thread, '\x00')
				thread = thread[:k] + styleThread.Render(glyph) + thread[k+1:]
			}
			if left {
				b.WriteString(lipgloss.PlaceHorizontal(lo, lipgloss.Right, card))
				b.WriteString(thread)
			} else {
				b.WriteString(strings.Repeat(" ", lo))
				b.WriteString(thread)
				b.WriteString(card)
			}
			b.WriteString("\n")
		}
	}
	return b.String()
}

func (m *Model) viewerView() string {
	v := m.Viewer
	var b strings.Builder
	b.WriteString(styleTitle.Render(v.Title))
	b.WriteString("\n\n")

	item, ok := v.Current()
	if !ok {
		b.WriteString(styleDim.Render("No media."))
		return styleModal.Render(b.String())
	}
	b.WriteString(styleMeta.Render(fmt.Sprintf("%d / %d  %s", v.Index()+1, v.Len(), item.Kind)))
	b.WriteString("\n")
	b.WriteString(styleLink.Render(item.URL))
	if item.Poster != "" {
		b.WriteString("\n")
		b.WriteString(styleDim.Render("poster ") + styleLink.Render(item.Poster))
	}
	b.WriteString("\n\n")

	thumbs := make([]string, v.Len())
	for i, it := range v.Items {
		glyph := "■"
		if it.Kind == media.KindVideo {
			glyph = "▶"
		}
		if i == v.Index() {
			thumbs[i] = styleSelected.Render(glyph)
		} else {
			thumbs[i] = styleDim.Render(glyph)
		}
	}
	b.WriteString(strings.Join(thumbs, " "))
	return styleModal.Render(b.String())
}
