// Package curve provides the scalar shaping functions used for pulse shapes,
// movement and level automation. All curves map [0,100] onto [0,100].
package curve

// Curve evaluates a shaping function at a position in [0,100].
type Curve interface {
	ValueAt(x float64) float64
}

// Func adapts a plain function to Curve.
type Func func(x float64) float64

func (f Func) ValueAt(x float64) float64 { return f(x) }

// Keyframe is a curve point. Ease applies to the segment starting here.
type Keyframe struct {
	X    float64 `yaml:"x" json:"x"`
	Y    float64 `yaml:"y" json:"y"`
	Ease string  `yaml:"ease,omitempty" json:"ease,omitempty"` // "linear","smooth","cubic"
}

// Points is a piecewise curve over sorted keyframes.
type Points []Keyframe

func clamp(x, lo, hi float64) float64 {
	if x < lo {
		return lo
	}
	if x > hi {
		return hi
	}
	return x
}

// smootherstep (cubic-ish) for ease="cubic"
func smootherstep(x float64) float64 {
	// 6x^5 - 15x^4 + 10x^3
	return x * x * x * (x*(x*6-15) + 10)
}

func easeApply(kind string, x float64) float64 {
	switch kind {
	case "linear", "":
		return x
	case "smooth":
		// classic smoothstep 3x^2 - 2x^3
		return x * x * (3 - 2*x)
	case "cubic":
		return smootherstep(x)
	default:
		return x
	}
}

// ValueAt interpolates the keyframes at x. No keys yields 0, one key its value.
// Outside the keyed range the nearest end value holds.
func (p Points) ValueAt(x float64) float64 {
	n := len(p)
	if n == 0 {
		return 0
	}
	if n == 1 {
		return p[0].Y
	}
	if x <= p[0].X {
		return p[0].Y
	}
	if x >= p[n-1].X {
		return p[n-1].Y
	}
	for i := 0; i < n-1; i++ {
		a := p[i]
		b := p[i+1]
		if x >= a.X && x <= b.X {
			den := b.X - a.X
			if den <= 0 {
				return b.Y
			}
			u := clamp((x-a.X)/den, 0, 1)
			u = easeApply(a.Ease, u)
			return a.Y + (b.Y-a.Y)*u
		}
	}
	return p[n-1].Y
}

// Flat returns a constant curve.
func Flat(v float64) Curve {
	return Func(func(float64) float64 { return v })
}

// Ramp rises linearly from 0 to 100.
var Ramp Curve = Points{{X: 0, Y: 0}, {X: 100, Y: 100}}

// Full holds 100 across the domain.
var Full Curve = Flat(100)

// Triangle rises to 100 at the midpoint and falls back to 0.
var Triangle Curve = Points{{X: 0, Y: 0}, {X: 50, Y: 100}, {X: 100, Y: 0}}

// Scaled multiplies every value of c by factor.
type Scaled struct {
	Curve  Curve
	Factor float64
}

func (s Scaled) ValueAt(x float64) float64 {
	if s.Curve == nil {
		return 0
	}
	return s.Curve.ValueAt(x) * s.Factor
}

// Scale maps a [0,100] value onto [min,max].
func Scale(v, max, min float64) float64 {
	return (max-min)*v/100 + min
}
