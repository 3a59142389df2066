// Package gradient provides color lookups over a normalized [0,1] position.
package gradient

import (
	"fmt"
	"math"
	"sort"

	"github.com/lucasb-eyer/go-colorful"
)

// Gradient is the color contract consumed by the effects.
type Gradient interface {
	ColorAt(p float64) colorful.Color
	DiscreteColorsAndProportionsAt(p float64) []Proportion
}

// Proportion is one discrete color and the weight it carries at a position.
type Proportion struct {
	Color  colorful.Color
	Weight float64
}

// Stop represents a color at a position in the gradient.
type Stop struct {
	Pos   float64
	Color colorful.Color
}

// Hex builds a stop from a "#rrggbb" color.
func Hex(pos float64, hex string) (Stop, error) {
	c, err := colorful.Hex(hex)
	if err != nil {
		return Stop{}, fmt.Errorf("gradient stop %q: %w", hex, err)
	}
	return Stop{Pos: pos, Color: c}, nil
}

// Stops is a gradient over sorted color stops, blended in RGB.
type Stops []Stop

// New sorts a copy of stops by position.
func New(stops ...Stop) Stops {
	sorted := make(Stops, len(stops))
	copy(sorted, stops)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].Pos < sorted[j].Pos
	})
	return sorted
}

// Solid is a single-color gradient.
func Solid(c colorful.Color) Stops {
	return Stops{{Pos: 0, Color: c}}
}

func clamp01(x float64) float64 {
	if math.IsNaN(x) || x < 0 {
		return 0
	}
	if x > 1 {
		return 1
	}
	return x
}

// bracket finds the stops around p and the fraction of the way from a to b.
func (g Stops) bracket(p float64) (a, b Stop, f float64) {
	n := len(g)
	if p <= g[0].Pos {
		return g[0], g[0], 0
	}
	if p >= g[n-1].Pos {
		return g[n-1], g[n-1], 0
	}
	i := sort.Search(n, func(i int) bool { return g[i].Pos >= p })
	a, b = g[i-1], g[i]
	den := b.Pos - a.Pos
	if den <= 0 {
		return b, b, 0
	}
	return a, b, (p - a.Pos) / den
}

// ColorAt blends the stops around p. An empty gradient is black.
func (g Stops) ColorAt(p float64) colorful.Color {
	if len(g) == 0 {
		return colorful.Color{}
	}
	a, b, f := g.bracket(clamp01(p))
	if f == 0 {
		return a.Color
	}
	return a.Color.BlendRgb(b.Color, f).Clamped()
}

// DiscreteColorsAndProportionsAt splits p between the stop colors around it
// instead of blending them. Weights sum to 1.
func (g Stops) DiscreteColorsAndProportionsAt(p float64) []Proportion {
	if len(g) == 0 {
		return nil
	}
	a, b, f := g.bracket(clamp01(p))
	if f == 0 || a.Color.AlmostEqualRgb(b.Color) {
		return []Proportion{{Color: a.Color, Weight: 1}}
	}
	if f >= 1 {
		return []Proportion{{Color: b.Color, Weight: 1}}
	}
	return []Proportion{
		{Color: a.Color, Weight: 1 - f},
		{Color: b.Color, Weight: f},
	}
}

// Colors returns the distinct stop colors in order.
func (g Stops) Colors() []colorful.Color {
	var out []colorful.Color
	for _, s := range g {
		dup := false
		for _, c := range out {
			if c.AlmostEqualRgb(s.Color) {
				dup = true
				break
			}
		}
		if !dup {
			out = append(out, s.Color)
		}
	}
	return out
}
