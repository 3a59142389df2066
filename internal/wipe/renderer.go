package wipe

import (
	"context"
	"errors"
	"time"

	"github.com/coreman2200/lumisweep/internal/intent"
	"github.com/coreman2200/lumisweep/internal/render"
)

// Renderer plays a rendered wipe frame by frame. The intent stream is built
// once in Prepare and sampled at each frame's offset.
type Renderer struct {
	Effect *Effect
	Frame  time.Duration

	intents *intent.EffectIntents
}

var _ render.Renderer = (*Renderer)(nil)

func NewRenderer(e *Effect, frame time.Duration) *Renderer {
	if frame <= 0 {
		frame = render.DefaultFrame
	}
	return &Renderer{Effect: e, Frame: frame}
}

func (r *Renderer) Name() string { return "wipe" }

func (r *Renderer) Prepare(ctx context.Context, frames int) error {
	if r.Effect == nil {
		return errors.New("wipe: no effect")
	}
	out, err := r.Effect.Render(ctx)
	if err != nil {
		return err
	}
	r.intents = out
	return nil
}

// Intents is the stream built by the last Prepare.
func (r *Renderer) Intents() *intent.EffectIntents { return r.intents }

func (r *Renderer) Render(ctx context.Context, frame int, dst []render.Color) error {
	if r.intents == nil {
		return errors.New("wipe: render before prepare")
	}
	render.SampleIntents(r.intents, time.Duration(frame)*r.Frame, dst)
	return ctx.Err()
}
