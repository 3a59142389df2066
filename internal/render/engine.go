package render

import (
	"context"
	"errors"
	"time"

	"github.com/rs/zerolog/log"
)

// DefaultFrame is the frame period used when none is configured.
const DefaultFrame = 50 * time.Millisecond

// Driver abstracts the output transport (SPI, terminal, preview, etc.).
type Driver interface {
	Write([]Color) error
}

// PostPipeline groups post stages; all are optional.
type PostPipeline struct {
	ToneMap func([]Color)
	Limiter func([]Color)
}

// Hooks observe the engine. Nil hooks are skipped.
type Hooks struct {
	OnFrame func(frame int, out []Color)
	OnDone  func(frames int, err error)
}

// Engine steps a renderer through the frames of one window, optionally
// mixing an overlay renderer on top, applies post-processing, then writes to
// the driver.
type Engine struct {
	N      int // element slots per frame
	Frame  time.Duration
	Frames int
	Drv    Driver

	RActive Renderer
	ROver   Renderer
	alpha   float64

	BufA []Color
	BufB []Color
	Out  []Color

	// Realtime paces Run to the frame period.
	Realtime bool
	Power    Power
	Hooks    Hooks

	post PostPipeline

	// metrics (last durations in ms)
	Last struct {
		RenderMS float64
		PostMS   float64
		TotalMS  float64
	}
}

// NewEngine allocates buffers for n elements over window and wires the LED
// post path.
func NewEngine(n int, frame, window time.Duration, drv Driver, r Renderer) (*Engine, error) {
	if n <= 0 {
		return nil, errors.New("invalid element count")
	}
	if r == nil {
		return nil, errors.New("renderer is nil")
	}
	if frame <= 0 {
		frame = DefaultFrame
	}
	frames := int((window + frame - 1) / frame)
	if frames <= 0 {
		return nil, errors.New("window shorter than one frame")
	}
	e := &Engine{
		N:       n,
		Frame:   frame,
		Frames:  frames,
		Drv:     drv,
		RActive: r,
		BufA:    make([]Color, n),
		BufB:    make([]Color, n),
		Out:     make([]Color, n),
	}
	e.UseLEDPost()
	return e, nil
}

// SetOverlay mixes r over the active renderer with alpha 0..1.
func (e *Engine) SetOverlay(r Renderer, alpha float64) {
	e.ROver = r
	e.alpha = min(max(alpha, 0), 1)
}

func (e *Engine) UseFilmicPost() {
	e.SetPost(PostPipeline{
		ToneMap: func(buf []Color) { FilmicToneMap(buf, e.Power) },
		Limiter: func(buf []Color) { DefaultLimiter(buf, e.Power) },
	})
}

func (e *Engine) UseLEDPost() {
	e.SetPost(PostPipeline{Limiter: func(buf []Color) { ApplyLED(buf, e.Power) }})
}

func (e *Engine) SetPost(p PostPipeline) { e.post = p }

// Prepare readies the renderers for e.Frames frames.
func (e *Engine) Prepare(ctx context.Context) error {
	if err := e.RActive.Prepare(ctx, e.Frames); err != nil {
		return err
	}
	if e.ROver != nil {
		return e.ROver.Prepare(ctx, e.Frames)
	}
	return nil
}

// RenderOnce renders, post-processes and writes a single frame.
func (e *Engine) RenderOnce(ctx context.Context, frame int) error {
	start := time.Now()

	clear(e.BufA)
	if err := e.RActive.Render(ctx, frame, e.BufA); err != nil {
		return err
	}
	if e.ROver != nil && e.alpha > 0 {
		clear(e.BufB)
		if err := e.ROver.Render(ctx, frame, e.BufB); err != nil {
			return err
		}
		Mix(e.Out, e.BufA, e.BufB, e.alpha)
	} else {
		copy(e.Out, e.BufA)
	}
	e.Last.RenderMS = float64(time.Since(start).Microseconds()) / 1000.0

	postStart := time.Now()
	if e.post.ToneMap != nil {
		e.post.ToneMap(e.Out)
	}
	if e.post.Limiter != nil {
		e.post.Limiter(e.Out)
	}
	e.Last.PostMS = float64(time.Since(postStart).Microseconds()) / 1000.0

	if e.Drv != nil {
		if err := e.Drv.Write(e.Out); err != nil {
			return err
		}
	}
	if e.Hooks.OnFrame != nil {
		e.Hooks.OnFrame(frame, e.Out)
	}
	e.Last.TotalMS = float64(time.Since(start).Microseconds()) / 1000.0
	return nil
}

// Run prepares the renderers and plays every frame of the window. It stops
// early on context cancellation or a render/driver error.
func (e *Engine) Run(ctx context.Context) (err error) {
	frame := 0
	defer func() {
		if e.Hooks.OnDone != nil {
			e.Hooks.OnDone(frame, err)
		}
	}()
	if err = e.Prepare(ctx); err != nil {
		return err
	}

	var tick <-chan time.Time
	if e.Realtime {
		t := time.NewTicker(e.Frame)
		defer t.Stop()
		tick = t.C
	}
	for ; frame < e.Frames; frame++ {
		if err = ctx.Err(); err != nil {
			return err
		}
		if err = e.RenderOnce(ctx, frame); err != nil {
			return err
		}
		log.Debug().Int("frame", frame).Float64("ms", e.Last.TotalMS).Msg("frame")
		if tick != nil && frame < e.Frames-1 {
			select {
			case <-ctx.Done():
				err = ctx.Err()
				return err
			case <-tick:
			}
		}
	}
	return nil
}

// FrameTime is the window offset of a frame.
func (e *Engine) FrameTime(frame int) time.Duration {
	return time.Duration(frame) * e.Frame
}
