// Package whirlpool draws a rectangular spiral that grows across the frames
// of an effect window.
package whirlpool

import (
	"context"
	"fmt"
	"math"
	"strings"

	"github.com/lucasb-eyer/go-colorful"

	"github.com/coreman2200/lumisweep/internal/curve"
	"github.com/coreman2200/lumisweep/internal/gradient"
	"github.com/coreman2200/lumisweep/internal/render"
)

type Direction int

const (
	In Direction = iota
	Out
)

func ParseDirection(s string) (Direction, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "in", "":
		return In, nil
	case "out":
		return Out, nil
	}
	return 0, fmt.Errorf("unknown whirlpool direction %q", s)
}

// GradientMode picks what a gradient is walked over.
type GradientMode int

const (
	OverTime GradientMode = iota
	OverElement
)

func ParseGradientMode(s string) (GradientMode, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "over_time", "":
		return OverTime, nil
	case "over_element":
		return OverElement, nil
	}
	return 0, fmt.Errorf("unknown gradient mode %q", s)
}

// Config holds the spiral parameters. Curves are sampled at the frame's
// position in the window.
type Config struct {
	Direction    Direction
	GradientMode GradientMode
	Speed        int
	Spacing      float64 // percent of half the shorter buffer side
	Thickness    float64 // percent of the spacing

	Width, Height    curve.Curve // percent of the buffer
	XOffset, YOffset curve.Curve // 50 is centered
	Level            curve.Curve

	// Colors cycle on every turn of the spiral.
	Colors []gradient.Gradient
}

func (c Config) withDefaults() Config {
	if c.Speed < 1 {
		c.Speed = 1
	}
	if c.Width == nil {
		c.Width = curve.Full
	}
	if c.Height == nil {
		c.Height = curve.Full
	}
	if c.XOffset == nil {
		c.XOffset = curve.Flat(50)
	}
	if c.YOffset == nil {
		c.YOffset = curve.Flat(50)
	}
	if c.Level == nil {
		c.Level = curve.Full
	}
	if len(c.Colors) == 0 {
		c.Colors = []gradient.Gradient{gradient.Solid(colorful.Color{R: 1, G: 1, B: 1})}
	}
	return c
}

// Session renders one effect instance. It carries the lap counters from
// frame to frame, so every instance needs its own session.
type Session struct {
	cfg    Config
	W, H   int
	frames int
	lap    int
	laps   int
	tmp    *render.FrameBuffer
}

func NewSession(cfg Config, w, h int) *Session {
	return &Session{cfg: cfg.withDefaults(), W: w, H: h, tmp: render.NewFrameBuffer(w, h)}
}

// Setup sizes the session for a window of frames.
func (s *Session) Setup(frames int) {
	s.frames = max(frames, 1)
	s.lap, s.laps = 0, 0
}

// Laps reports the lap counter and the number of laps in the window.
func (s *Session) Laps() (current, count int) { return s.lap, s.laps }

func round(v float64) int { return int(math.RoundToEven(v)) }

// geometry is the per-frame spiral size.
type geometry struct {
	width, height int
	spacing       int
	thickness     int
	xoff, yoff    int
}

func (s *Session) geometry(factor float64) geometry {
	c := s.cfg
	g := geometry{
		width:  round(curve.Scale(c.Width.ValueAt(factor), float64(s.W), 1)),
		height: round(curve.Scale(c.Height.ValueAt(factor), float64(s.H), 1)),
		xoff:   round(curve.Scale(c.XOffset.ValueAt(factor), float64(s.W/2), float64(-s.W/2))),
		yoff:   round(curve.Scale(c.YOffset.ValueAt(factor), float64(s.H/2), float64(-s.H/2))),
	}
	g.spacing = max(1, round(curve.Scale(c.Spacing, float64(min(s.H, s.W)/2), 1)))
	g.thickness = round(curve.Scale(c.Thickness, float64(g.spacing), 1))
	return g
}

// walker is the spiral cursor.
type walker struct {
	x, y  int
	dir   int
	thick int
	leg   int // steps in the current leg
	pos   int // steps taken, starting at 2
	vert  int
	hor   int
}

// start places the cursor. Inward spirals start at the lower left corner
// heading right; outward spirals start at the center on the longer axis.
func (s *Session) start(width, height int) walker {
	w := walker{pos: 2, vert: height, hor: width}
	if s.cfg.Direction == In {
		w.x, w.y = s.W/2-width/2, s.H/2-height/2
		w.dir, w.thick, w.leg = 1, 3, width
		return w
	}
	steps := width - height
	if steps > 0 {
		w.leg = steps
		w.x, w.y = s.W/2-steps/2, s.H/2
		w.dir, w.thick = 3, 3
		w.vert, w.hor = 0, steps-1
		return w
	}
	w.leg = -steps
	w.x, w.y = s.W/2, s.H/2-(-steps)/2
	w.dir, w.thick = 0, 0
	w.vert, w.hor = -steps-1, 0
	return w
}

// advance moves one step, turning when the leg is done. Legs grow by
// spacing going out and shrink going in.
func (w *walker) advance(in bool, spacing int) (turned bool) {
	if w.pos <= w.leg {
		w.pos++
	} else {
		w.pos = 2
		w.dir = (w.dir + 1) % 4
		turned = true
		delta := spacing
		if in {
			delta = -spacing
		}
		if w.dir == 0 || w.dir == 2 {
			w.vert += delta
			w.leg = w.vert
		} else {
			w.hor += delta
			w.leg = w.hor
		}
	}

	if in {
		// 0 down, 1 right, 2 up, 3 left
		switch w.dir {
		case 0:
			w.y--
			w.thick = 2
		case 1:
			w.x++
			w.thick = 3
		case 2:
			w.y++
			w.thick = 0
		case 3:
			w.x--
			w.thick = 1
		}
		return turned
	}
	// 0 up, 1 left, 2 down, 3 right
	switch w.dir {
	case 0:
		w.y++
		w.thick = 0
	case 1:
		w.x--
		w.thick = 1
	case 2:
		w.y--
		w.thick = 2
	case 3:
		w.x++
		w.thick = 3
	}
	return turned
}

// position is the frame's place in the window, 0..1.
func (s *Session) position(frame int) float64 {
	if s.frames <= 1 {
		return 0
	}
	return math.Min(float64(frame)/float64(s.frames-1), 1)
}

// RenderFrame draws the spiral for frame into dst. Pixels the spiral does
// not reach are left as they are.
func (s *Session) RenderFrame(ctx context.Context, frame int, dst *render.FrameBuffer) error {
	if s.frames == 0 {
		s.Setup(1)
	}
	c := s.cfg
	pos := s.position(frame)
	factor := pos * 100
	level := math.Min(math.Max(c.Level.ValueAt(factor)/100, 0), 1)
	g := s.geometry(factor)

	if frame == 0 || s.laps == 0 {
		s.lap = 1
		s.laps = max(1, s.frames/c.Speed)
	}
	maxPixels := ((g.width*g.height + 167) / s.laps) * s.lap * c.Speed / g.spacing

	s.tmp.Clear()
	in := c.Direction == In
	w := s.start(g.width, g.height)
	colorIndex := 0
	for i := 0; i <= maxPixels; i++ {
		var p float64
		switch c.GradientMode {
		case OverTime:
			p = pos
		case OverElement:
			if maxPixels > 0 {
				p = float64(i) / float64(maxPixels)
			}
		}
		h, sat, v := c.Colors[colorIndex].ColorAt(p).Hsv()
		col := render.FromColorful(colorful.Hsv(h, sat, v*level))

		for k := 0; k < g.thickness; k++ {
			x, y := w.x+g.xoff, w.y+g.yoff
			switch w.thick {
			case 0:
				x -= k
			case 1:
				y -= k
			case 2:
				x += k
			case 3:
				y += k
			}
			s.tmp.Set(x, y, col)
		}

		if w.advance(in, g.spacing) {
			colorIndex = (colorIndex + 1) % len(c.Colors)
			if err := ctx.Err(); err != nil {
				return err
			}
		}
	}

	for y := 0; y < s.H; y++ {
		for x := 0; x < s.W; x++ {
			if col, ok := s.tmp.At(x, y); ok {
				dst.Set(x, y, col)
			}
		}
	}

	// Once the last lap is reached, hold it instead of starting a new spiral
	// that could not finish before the window ends.
	if s.laps == s.lap {
		if s.frames/c.Speed > s.frames-frame {
			return nil
		}
		s.lap = 1
	}
	s.lap++
	return nil
}
