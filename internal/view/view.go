// Package view renders the server-side collection pages: the card grid,
// the zig-zag timeline and the single-entry media viewer.
package view

import (
	"context"
	"embed"
	"fmt"
	"html/template"
	"io"
	"net/url"
	"strconv"

	"github.com/lazypower/scrapbook/internal/media"
	"github.com/lazypower/scrapbook/internal/memory"
	"github.com/lazypower/scrapbook/internal/timeline"
	"github.com/lazypower/scrapbook/internal/viewer"
)

//go:embed templates/*.html
var templateFS embed.FS

// Mode selects the collection layout.
type Mode string

const (
	Grid     Mode = "grid"
	Timeline Mode = "timeline"
)

// ParseMode maps a query value to a Mode, defaulting to Grid.
func ParseMode(s string) Mode {
	if Mode(s) == Timeline {
		return Timeline
	}
	return Grid
}

// Card is one entry as the collection shows it.
type Card struct {
	ID          string
	Title       string
	Date        string
	Location    string
	Description string
	Tags        []string
	Cover       string
	Count       int
	Right       bool // timeline side
	Href        string
}

// Thread is the SVG behind the timeline.
type Thread struct {
	Width     float64
	Height    float64
	Top       float64
	RowHeight float64
	Gutter    float64
	Path      string
	Beads     []timeline.Bead
}

// Collection is the data for the grid/timeline page.
type Collection struct {
	Mode   Mode
	Query  string
	Total  int
	Cards  []Card
	Thread *Thread
	Error  string
}

// Thumb is one entry in the viewer's strip.
type Thumb struct {
	URL    string
	Href   string
	Video  bool
	Active bool
}

// Viewer is the data for the single-entry viewer page.
type Viewer struct {
	Entry   memory.Entry
	Item    media.Normalized
	HasItem bool
	Index   int
	Count   int
	PrevURL string
	NextURL string
	BackURL string
	Thumbs  []Thumb
}

// Layout carries the timeline geometry settings.
type Layout struct {
	Frame   timeline.Frame
	Options timeline.Options
}

// BuildCollection filters entries by query and lays them out for mode.
// Timeline mode computes the thread over Arrange anchors.
func BuildCollection(ctx context.Context, entries []memory.Entry, query string, mode Mode, res media.Resolver, l Layout) Collection {
	visible := memory.Filter(query, entries)
	c := Collection{Mode: mode, Query: query, Total: len(entries), Cards: make([]Card, 0, len(visible))}

	for i, e := range visible {
		items := media.Normalize(ctx, e.Photos, res)
		c.Cards = append(c.Cards, Card{
			ID:          e.ID,
			Title:       e.Title,
			Date:        e.Date,
			Location:    e.Location,
			Description: e.Description,
			Tags:        e.Tags,
			Cover:       media.Cover(items),
			Count:       len(items),
			Right:       i%2 == 1,
			Href:        "/memories/" + url.PathEscape(e.ID),
		})
	}

	if mode == Timeline {
		anchors := timeline.Arrange(len(c.Cards), l.Frame)
		natural := l.Frame.NaturalHeight(len(c.Cards))
		out := timeline.Build(timeline.Input{Anchors: anchors, NaturalHeight: natural}, l.Options)
		c.Thread = &Thread{
			Width:     l.Frame.Width,
			Height:    out.Height,
			Top:       l.Frame.Top,
			RowHeight: l.Frame.RowHeight,
			Gutter:    l.Frame.Gutter,
			Path:      out.Path,
			Beads:     out.Beads,
		}
	}
	return c
}

// BuildViewer prepares the viewer page for item index of e. The index
// wraps, so out-of-range links still land on a real item.
func BuildViewer(ctx context.Context, e memory.Entry, index int, res media.Resolver) Viewer {
	v := viewer.New(ctx, e, res)
	idx := v.Select(index)
	item, ok := v.Current()

	base := "/memories/" + url.PathEscape(e.ID)
	link := func(i int) string { return base + "?i=" + strconv.Itoa(viewer.Wrap(i, v.Len())) }

	out := Viewer{
		Entry:   e,
		Item:    item,
		HasItem: ok,
		Index:   idx,
		Count:   v.Len(),
		BackURL: "/",
	}
	if ok {
		out.PrevURL = link(idx - 1)
		out.NextURL = link(idx + 1)
	}
	for i, it := range v.Items {
		thumb := it.URL
		if it.Kind == media.KindVideo {
			thumb = it.Poster
		}
		out.Thumbs = append(out.Thumbs, Thumb{
			URL:    thumb,
			Href:   link(i),
			Video:  it.Kind == media.KindVideo,
			Active: i == idx,
		})
	}
	return out
}

// Renderer executes the embedded templates.
type Renderer struct {
	t *template.Template
}

var funcs = template.FuncMap{
	"num": func(f float64) string { return strconv.FormatFloat(f, 'f', 2, 64) },
	"add": func(a, b int) int { return a + b },
}

// NewRenderer parses the embedded templates.
func NewRenderer() (*Renderer, error) {
	t, err := template.New("").Funcs(funcs).ParseFS(templateFS, "templates/*.html")
	if err != nil {
		return nil, fmt.Errorf("parse templates: %w", err)
	}
	return &Renderer{t: t}, nil
}

// Collection renders the grid or timeline page.
func (r *Renderer) Collection(w io.Writer, c Collection) error {
	return r.t.ExecuteTemplate(w, "collection", c)
}

// Viewer renders the media viewer page.
func (r *Renderer) Viewer(w io.Writer, v Viewer) error {
	return r.t.ExecuteTemplate(w, "viewer", v)
}
