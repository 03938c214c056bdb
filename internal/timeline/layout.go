package timeline

import "math"

// Anchor is one card's pin. Cards that have not been measured yet report
// Mounted=false and are left out of the thread.
type Anchor struct {
	Point
	Mounted bool `json:"mounted"`
}

// Input is everything one layout pass measures.
type Input struct {
	Anchors        []Anchor `json:"anchors"`
	NaturalHeight  float64  `json:"naturalHeight"`  // container content height
	ContainerTop   float64  `json:"containerTop"`   // container top, page coordinates
	ViewportBottom float64  `json:"viewportBottom"` // scroll offset + viewport height
}

// Options tunes the thread shape.
type Options struct {
	Curve       float64
	MinPull     float64
	Beads       int
	BottomInset float64
	Rand        func() float64
}

// DefaultOptions are the values the timeline view renders with.
func DefaultOptions() Options {
	return Options{
		Curve:       LayoutCurve,
		MinPull:     LayoutMinPull,
		Beads:       DefaultBeads,
		BottomInset: DefaultBottomInset,
	}
}

// Layout is the result of one pass.
type Layout struct {
	Path      string    `json:"path"`
	Segments  []Segment `json:"segments"`
	Beads     []Bead    `json:"beads"`
	Height    float64   `json:"height"`
	MinHeight float64   `json:"minHeight"`
}

// Build computes the thread for in. Fewer than two mounted anchors give an
// empty path and no beads; the height is still computed.
func Build(in Input, opts Options) Layout {
	pts := make([]Point, 0, len(in.Anchors))
	for _, a := range in.Anchors {
		if a.Mounted {
			pts = append(pts, a.Point)
		}
	}

	minH := math.Max(0, in.ViewportBottom-in.ContainerTop-opts.BottomInset)
	out := Layout{
		Segments:  []Segment{},
		Beads:     []Bead{},
		MinHeight: minH,
		Height:    math.Max(in.NaturalHeight, minH),
	}
	if len(pts) < 2 {
		return out
	}

	segs := Segments(pts, opts.Curve, opts.MinPull)
	out.Segments = segs
	out.Path = Path(segs)
	out.Beads = SampleBeads(segs, opts.Beads, opts.Rand)
	return out
}

// Frame describes a fixed-geometry timeline for renderers that cannot
// measure, such as server-rendered pages and the terminal.
type Frame struct {
	Width     float64 // container width
	Top       float64 // offset of the first row
	RowHeight float64
	Gutter    float64 // distance of each pin from the centre line
}

// Arrange places n anchors for alternating cards: even cards sit left with
// their pin on the thumbnail's right edge, odd cards sit right with the pin
// on its left edge. All anchors are mounted.
func Arrange(n int, f Frame) []Anchor {
	mid := f.Width / 2
	out := make([]Anchor, n)
	for i := range out {
		x := mid - f.Gutter
		if i%2 == 1 {
			x = mid + f.Gutter
		}
		out[i] = Anchor{
			Point:   Point{X: x, Y: f.Top + float64(i)*f.RowHeight + f.RowHeight/2},
			Mounted: true,
		}
	}
	return out
}

// NaturalHeight is the content height of n arranged rows.
func (f Frame) NaturalHeight(n int) float64 {
	return f.Top + float64(n)*f.RowHeight
}
