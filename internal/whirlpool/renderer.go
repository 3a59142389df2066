package whirlpool

import (
	"context"

	"github.com/coreman2200/lumisweep/internal/layout"
	"github.com/coreman2200/lumisweep/internal/render"
)

// Renderer plays a session on a layout, one spiral canvas per panel.
type Renderer struct {
	Layout  layout.Layout
	session *Session
	fb      *render.FrameBuffer
}

var _ render.Renderer = (*Renderer)(nil)

func NewRenderer(cfg Config, l layout.Layout) *Renderer {
	return &Renderer{
		Layout:  l,
		session: NewSession(cfg, l.Dim.X, l.Dim.Y),
		fb:      render.NewFrameBuffer(l.Dim.X, l.Dim.Y),
	}
}

func (r *Renderer) Name() string { return "whirlpool" }

func (r *Renderer) Prepare(ctx context.Context, frames int) error {
	r.session.Setup(frames)
	return ctx.Err()
}

func (r *Renderer) Render(ctx context.Context, frame int, dst []render.Color) error {
	r.fb.Clear()
	if err := r.session.RenderFrame(ctx, frame, r.fb); err != nil {
		return err
	}
	for z := 0; z < r.Layout.Dim.Z; z++ {
		for y := 0; y < r.Layout.Dim.Y; y++ {
			for x := 0; x < r.Layout.Dim.X; x++ {
				c, ok := r.fb.At(x, y)
				if !ok {
					continue
				}
				if i := r.Layout.Index(x, y, z); i >= 0 && i < len(dst) {
					dst[i] = c
				}
			}
		}
	}
	return nil
}
