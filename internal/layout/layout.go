package layout

import (
	"fmt"

	"github.com/google/uuid"
)

// elementSpace namespaces the deterministic element IDs generated by Layout.
var elementSpace = uuid.MustParse("6f1d3c52-8a0e-4b7a-9d64-2c5e0f1b7a31")

type Dim struct{ X, Y, Z int }

type Serpentine struct {
	XFlipEveryRow   bool
	YFlipEveryPanel bool
}

type Layout struct {
	Dim        Dim
	Order      Serpentine
	PanelGapMM float64
	PitchMM    float64
}

// Index maps x,y,z -> linear LED index (0..N-1)
func (l Layout) Index(x, y, z int) int {
	yy := y
	xx := x
	if (y%2 == 1) && l.Order.XFlipEveryRow {
		xx = l.Dim.X - 1 - x
	}
	if l.Order.YFlipEveryPanel && (z%2 == 1) {
		yy = l.Dim.Y - 1 - y
	}
	perPanel := l.Dim.X * l.Dim.Y
	return z*perPanel + yy*l.Dim.X + xx
}

func (l Layout) Count() int {
	return l.Dim.X * l.Dim.Y * l.Dim.Z
}

// Elements returns one located element per lattice cell. Positions are
// 1-based so every generated element passes the x > 0 validity check, and
// each element's Index is its slot in the output frame.
func (l Layout) Elements() []Element {
	out := make([]Element, 0, l.Count())
	for z := 0; z < l.Dim.Z; z++ {
		for y := 0; y < l.Dim.Y; y++ {
			for x := 0; x < l.Dim.X; x++ {
				out = append(out, Element{
					ID:    uuid.NewSHA1(elementSpace, []byte(fmt.Sprintf("%d,%d,%d", x, y, z))),
					Name:  fmt.Sprintf("px-%d-%d-%d", x, y, z),
					Pos:   Point{X: x + 1, Y: y + 1, Z: z + 1},
					Index: l.Index(x, y, z),
				})
			}
		}
	}
	return out
}
