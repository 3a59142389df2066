package wipe

import (
	"context"
	"math"
	"runtime"

	"golang.org/x/sync/errgroup"

	"github.com/coreman2200/lumisweep/internal/curve"
	"github.com/coreman2200/lumisweep/internal/layout"
)

// Group is one step bucket. A bucket may be empty, and diamond and burst
// shapes can list an element more than once.
type Group struct {
	Step     int
	Elements []layout.Element
}

// Plan is the ordered partition of an element set.
type Plan struct {
	Groups []Group
	// Steps is the nominal step count of the shape, used to size count
	// mode pulses.
	Steps int
	// PulseSteps is the pulse width in steps.
	PulseSteps int
	Bounds     layout.Bounds
}

// geometry carries everything derived from the bounds and config that the
// per-element metric needs.
type geometry struct {
	shape   Shape
	b       layout.Bounds
	w, h    int
	midX    int
	midY    int
	center  layout.Point
	xo, yo  int
	last    int // highest step index
	nominal int
	pulse   int
	flipped bool // diagonal metric counts from the far corner
}

func newGeometry(b layout.Bounds, cfg Config) geometry {
	g := geometry{
		shape: cfg.Shape,
		b:     b,
		w:     b.Width(),
		h:     b.Height(),
		midX:  b.MidX(),
		midY:  b.MidY(),
	}
	g.pulse = int(float64(g.w) * cfg.PulsePercent / 100)
	if cfg.Shape == Vertical {
		g.pulse = int(float64(g.h) * cfg.PulsePercent / 100)
	}
	margin := 0
	if cfg.Movement.Continuous() {
		margin = g.pulse
	}

	xo := (cfg.XOffset + 100) / 2
	yo := (cfg.YOffset + 100) / 2
	scaled := func() {
		g.xo = int(math.RoundToEven(curve.Scale(float64(xo), float64(-g.w), float64(g.w)))) / 2
		g.yo = int(math.RoundToEven(curve.Scale(float64(yo), float64(g.h), float64(-g.h)))) / 2
	}
	diag := math.Sqrt(float64(g.w*g.w + g.h*g.h))

	switch cfg.Shape {
	case Horizontal:
		g.last = g.w + margin
		g.nominal = g.last
	case Vertical:
		g.last = g.h + margin
		g.nominal = g.last
	case DiagonalUp, DiagonalDown:
		// the range must reach w+h so the far corner keeps its step
		g.nominal = int(diag*1.41) + margin
		g.last = max(int(diag*1.41), g.w+g.h) + margin
		g.flipped = cfg.Reverse || cfg.Movement.Continuous()
	case Circle:
		g.center = layout.Point{X: xo*g.w/100 + b.MinX, Y: (100-yo)*g.h/100 + b.MinY}
		g.last = b.MaxCornerDistance(g.center) + margin
		g.nominal = int(layout.Distance(layout.Point{X: b.MaxX, Y: b.MaxY}, layout.Point{X: b.MinX, Y: b.MinY}) / 2)
	case Diamond:
		g.center = layout.Point{X: xo*g.w/100 + b.MinX, Y: (100-yo)*g.h/100 + b.MinY}
		g.last = int(float64(b.MaxCornerDistance(g.center))*1.41) + margin
		g.nominal = int(diag / 1.5)
		scaled()
	case Burst:
		g.center = layout.Point{X: xo*g.w/100 + b.MinX, Y: yo*g.h/100 + b.MinY}
		g.last = b.MaxCornerDistance(g.center) + margin
		g.nominal = max(g.w, g.h) / 2
		scaled()
	}
	return g
}

func abs(v int) int {
	if v < 0 {
		return -v
	}
	return v
}

// steps returns every step the point belongs to, possibly none.
func (g geometry) steps(p layout.Point) []int {
	dx, dy := p.X-g.b.MinX, p.Y-g.b.MinY
	switch g.shape {
	case Horizontal:
		return []int{g.w - dx}
	case Vertical:
		return []int{g.h - dy}
	case DiagonalUp:
		if g.flipped {
			return []int{g.last - (dx + dy)}
		}
		return []int{dx - dy + g.h}
	case DiagonalDown:
		if g.flipped {
			return []int{dy - dx + g.w}
		}
		return []int{dx + dy}
	case Circle:
		return []int{int(layout.Distance(g.center, p))}
	case Diamond:
		return g.diamond(p)
	case Burst:
		return g.burst(p)
	}
	return nil
}

// diamond tests both diagonal branches; a point can satisfy both.
func (g geometry) diamond(p layout.Point) []int {
	var out []int
	b := g.b
	inside := func(i int) bool {
		return b.MaxY-g.midY-g.yo-p.Y <= i &&
			b.MaxX-g.midX-g.xo-p.X <= i &&
			p.Y-b.MinY-g.midY+g.yo <= i &&
			p.X-b.MinX-g.midX+g.xo <= i
	}
	if i := abs((p.Y - b.MinY + g.yo) - (p.X - b.MinX + g.xo) + (g.w-g.h)/2); inside(i) {
		out = append(out, i)
	}
	if i := abs((p.X + g.xo - b.MinX + p.Y + g.yo - b.MinY) - (g.w+g.h)/2); inside(i) {
		out = append(out, i)
	}
	return out
}

// burst places a point on the ring of its larger center offset. Points on a
// ring corner sit on both a side and a top/bottom edge.
func (g geometry) burst(p layout.Point) []int {
	var out []int
	dx := g.b.MaxX - g.midX - p.X - g.xo
	dy := g.b.MaxY - g.midY - p.Y - g.yo
	ax, ay := abs(dx), abs(dy)
	if ay <= ax {
		out = append(out, ax)
	}
	if ax <= ay {
		out = append(out, ay)
	}
	return out
}

// Partition buckets the located elements of els by the configured shape.
// Continuous movements always get ascending groups; otherwise Reverse flips
// the order. Elements keep their input order inside a group.
func Partition(ctx context.Context, els []layout.Element, cfg Config) (Plan, error) {
	located := layout.Located(els)
	b, ok := layout.BoundsOf(located)
	if !ok {
		return Plan{}, nil
	}
	g := newGeometry(b, cfg)

	member := make([][]int, len(located))
	eg, gctx := errgroup.WithContext(ctx)
	workers := min(runtime.GOMAXPROCS(0), len(located))
	per := (len(located) + workers - 1) / workers
	for lo := 0; lo < len(located); lo += per {
		lo, hi := lo, min(lo+per, len(located))
		eg.Go(func() error {
			for i := lo; i < hi; i++ {
				if err := gctx.Err(); err != nil {
					return err
				}
				member[i] = g.steps(located[i].Pos)
			}
			return nil
		})
	}
	if err := eg.Wait(); err != nil {
		return Plan{}, err
	}

	groups := make([]Group, g.last+1)
	for i := range groups {
		groups[i].Step = i
	}
	for i, steps := range member {
		for _, s := range steps {
			if s < 0 || s > g.last {
				continue
			}
			groups[s].Elements = append(groups[s].Elements, located[i])
		}
	}

	if descending(cfg) {
		for i, j := 0, len(groups)-1; i < j; i, j = i+1, j-1 {
			groups[i], groups[j] = groups[j], groups[i]
		}
	}
	return Plan{Groups: groups, Steps: g.nominal, PulseSteps: g.pulse, Bounds: b}, nil
}

func descending(cfg Config) bool {
	if cfg.Movement.Continuous() {
		return false
	}
	switch cfg.Shape {
	case Horizontal, Vertical:
		return !cfg.Reverse
	case DiagonalUp, DiagonalDown:
		return false
	}
	return cfg.Reverse
}
