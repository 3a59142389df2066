package layout

import (
	"math"

	"github.com/google/uuid"
)

// Point is an integer element position.
type Point struct{ X, Y, Z int }

// Element is an addressable light with a position. Index is the element's
// slot in an output frame; -1 when it has none.
type Element struct {
	ID    uuid.UUID
	Name  string
	Pos   Point
	Index int
}

// Unlocated returns an element without a usable position.
func Unlocated(id uuid.UUID, name string) Element {
	return Element{ID: id, Name: name, Pos: Point{X: -1, Y: -1, Z: -1}, Index: -1}
}

// Located reports whether the element has a usable position.
func (e Element) Located() bool { return e.Pos.X > 0 }

// Located filters els down to the elements with valid positions, keeping
// input order.
func Located(els []Element) []Element {
	out := make([]Element, 0, len(els))
	for _, e := range els {
		if e.Located() {
			out = append(out, e)
		}
	}
	return out
}

// Bounds is the 2-D bounding box of an element set.
type Bounds struct {
	MinX, MaxX int
	MinY, MaxY int
}

// BoundsOf returns the bounding box of els and false when els is empty.
func BoundsOf(els []Element) (Bounds, bool) {
	if len(els) == 0 {
		return Bounds{}, false
	}
	b := Bounds{MinX: els[0].Pos.X, MaxX: els[0].Pos.X, MinY: els[0].Pos.Y, MaxY: els[0].Pos.Y}
	for _, e := range els[1:] {
		if e.Pos.X < b.MinX {
			b.MinX = e.Pos.X
		}
		if e.Pos.X > b.MaxX {
			b.MaxX = e.Pos.X
		}
		if e.Pos.Y < b.MinY {
			b.MinY = e.Pos.Y
		}
		if e.Pos.Y > b.MaxY {
			b.MaxY = e.Pos.Y
		}
	}
	return b, true
}

func (b Bounds) Width() int  { return b.MaxX - b.MinX }
func (b Bounds) Height() int { return b.MaxY - b.MinY }
func (b Bounds) MidX() int   { return b.Width() / 2 }
func (b Bounds) MidY() int   { return b.Height() / 2 }

// Distance is the euclidean distance between two points in the XY plane.
func Distance(a, b Point) float64 {
	dx := float64(a.X - b.X)
	dy := float64(a.Y - b.Y)
	return math.Sqrt(dx*dx + dy*dy)
}

// MaxCornerDistance is the truncated distance from c to the farthest corner
// of the box.
func (b Bounds) MaxCornerDistance(c Point) int {
	steps := int(Distance(Point{X: b.MaxX, Y: b.MaxY}, c))
	steps = max(int(Distance(Point{X: b.MaxX, Y: b.MinY}, c)), steps)
	steps = max(int(Distance(Point{X: b.MinX, Y: b.MinY}, c)), steps)
	return max(int(Distance(Point{X: b.MinX, Y: b.MaxY}, c)), steps)
}
