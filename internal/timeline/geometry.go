// Package timeline computes the zig-zag thread drawn behind timeline cards.
//
// Given one anchor per card, in render order, it fits a cubic Bezier
// segment between each consecutive pair, flattens them into an SVG path,
// and samples decorative beads along the way. Nothing is retained between
// passes; every Build starts from the current anchors.
package timeline

import (
	"fmt"
	"math"
	"math/rand/v2"
	"strconv"
	"strings"
)

// Defaults for Build. Segments called directly with zero values uses the
// gentler DefaultCurve/DefaultMinPull pair.
const (
	DefaultCurve       = 0.45
	DefaultMinPull     = 40.0
	LayoutCurve        = 0.5
	LayoutMinPull      = 60.0
	DefaultBeads       = 6
	DefaultBottomInset = 24.0
)

// Point is a container-relative coordinate.
type Point struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// Segment is one cubic Bezier piece between two consecutive anchors.
type Segment struct {
	P   Point `json:"p"`
	CP1 Point `json:"cp1"`
	CP2 Point `json:"cp2"`
	N   Point `json:"n"`
}

// Bead is a decorative point sampled on a segment.
type Bead struct {
	Point
	Delay float64 `json:"delay"` // animation phase offset, seconds
	Size  float64 `json:"size"`  // diameter, px
}

// sign treats zero as positive so stacked anchors still bow outwards.
func sign(v float64) float64 {
	if v < 0 {
		return -1
	}
	return 1
}

// Segments builds one segment per consecutive pair of points. Control
// points keep their endpoint's y and are pulled horizontally by
// max(minPull, |dx|*curve), giving a flat tangent at every anchor.
func Segments(points []Point, curve, minPull float64) []Segment {
	if len(points) < 2 {
		return nil
	}
	if curve <= 0 {
		curve = DefaultCurve
	}
	if minPull <= 0 {
		minPull = DefaultMinPull
	}

	segs := make([]Segment, 0, len(points)-1)
	for i := 0; i < len(points)-1; i++ {
		p, n := points[i], points[i+1]
		dx := n.X - p.X
		pull := math.Max(minPull, math.Abs(dx)*curve)
		s := sign(dx)
		segs = append(segs, Segment{
			P:   p,
			CP1: Point{X: p.X + s*pull, Y: p.Y},
			CP2: Point{X: n.X - s*pull, Y: n.Y},
			N:   n,
		})
	}
	return segs
}

// BezierAt evaluates the segment at t in [0,1].
func BezierAt(t float64, s Segment) Point {
	mt := 1 - t
	a := mt * mt * mt
	b := 3 * mt * mt * t
	c := 3 * mt * t * t
	d := t * t * t
	return Point{
		X: a*s.P.X + b*s.CP1.X + c*s.CP2.X + d*s.N.X,
		Y: a*s.P.Y + b*s.CP1.Y + c*s.CP2.Y + d*s.N.Y,
	}
}

func num(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

// Path flattens segments into an SVG path: a move-to the first anchor,
// then one curve-to per segment. No segments yields "".
func Path(segs []Segment) string {
	if len(segs) == 0 {
		return ""
	}
	var b strings.Builder
	fmt.Fprintf(&b, "M %s %s", num(segs[0].P.X), num(segs[0].P.Y))
	for _, s := range segs {
		fmt.Fprintf(&b, " C %s %s, %s %s, %s %s",
			num(s.CP1.X), num(s.CP1.Y),
			num(s.CP2.X), num(s.CP2.Y),
			num(s.N.X), num(s.N.Y))
	}
	return b.String()
}

// SampleBeads evaluates each segment at k evenly spaced interior positions
// j/(k+1). Delays depend only on segment and position index; sizes come
// from rnd, which defaults to math/rand.
func SampleBeads(segs []Segment, k int, rnd func() float64) []Bead {
	if k <= 0 {
		k = DefaultBeads
	}
	if rnd == nil {
		rnd = rand.Float64
	}
	beads := make([]Bead, 0, len(segs)*k)
	for si, s := range segs {
		for j := 1; j <= k; j++ {
			t := float64(j) / float64(k+1)
			beads = append(beads, Bead{
				Point: BezierAt(t, s),
				Delay: math.Mod(float64(si)*0.6+float64(j)*0.25, 3),
				Size:  1 + rnd()*1.6,
			})
		}
	}
	return beads
}
