// Package calib holds wiring check patterns: one lit LED walking the output
// order, whole-strip channel cycling, and one panel at a time.
package calib

import (
	"context"
	"fmt"

	"github.com/coreman2200/lumisweep/internal/layout"
	"github.com/coreman2200/lumisweep/internal/render"
)

type Kind string

const (
	IndexSweep Kind = "index_sweep"
	RGBTest    Kind = "rgb_channels"
	PlaneZ     Kind = "plane_z"
)

var Kinds = []Kind{IndexSweep, RGBTest, PlaneZ}

type Renderer struct {
	Kind   Kind
	Layout layout.Layout
}

var _ render.Renderer = (*Renderer)(nil)

func New(k Kind, l layout.Layout) (*Renderer, error) {
	switch k {
	case IndexSweep, RGBTest, PlaneZ:
		return &Renderer{Kind: k, Layout: l}, nil
	}
	return nil, fmt.Errorf("unknown calibration pattern %q", k)
}

func (r *Renderer) Name() string { return string(r.Kind) }

func (r *Renderer) Prepare(ctx context.Context, frames int) error { return ctx.Err() }

// Render lights the pattern step for frame. Steps past the end of the
// pattern leave dst dark.
func (r *Renderer) Render(ctx context.Context, frame int, dst []render.Color) error {
	white := render.Color{R: 1, G: 1, B: 1}
	switch r.Kind {
	case IndexSweep:
		if frame < len(dst) {
			dst[frame] = white
		}
	case RGBTest:
		var c render.Color
		switch frame % 3 {
		case 0:
			c.R = 1
		case 1:
			c.G = 1
		case 2:
			c.B = 1
		}
		for i := range dst {
			dst[i] = c
		}
	case PlaneZ:
		if frame >= r.Layout.Dim.Z {
			break
		}
		for y := 0; y < r.Layout.Dim.Y; y++ {
			for x := 0; x < r.Layout.Dim.X; x++ {
				if i := r.Layout.Index(x, y, frame); i < len(dst) {
					dst[i] = render.Color{G: 1, B: 1} // cyan
				}
			}
		}
	}
	return ctx.Err()
}
