package wipe

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/lucasb-eyer/go-colorful"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/coreman2200/lumisweep/internal/audio"
	"github.com/coreman2200/lumisweep/internal/curve"
	"github.com/coreman2200/lumisweep/internal/gradient"
	"github.com/coreman2200/lumisweep/internal/intent"
	"github.com/coreman2200/lumisweep/internal/layout"
	"github.com/coreman2200/lumisweep/internal/mark"
	"github.com/coreman2200/lumisweep/internal/pulse"
)

func ms(n float64) time.Duration { return time.Duration(n * float64(time.Millisecond)) }

var (
	red  = colorful.Color{R: 1}
	blue = colorful.Color{B: 1}
)

func TestCountWipeOnOnlyInLastPass(t *testing.T) {
	e := &Effect{
		Config: Config{
			Shape:        Horizontal,
			Movement:     Count,
			PassCount:    2,
			PulsePercent: 50,
			WipeOn:       true,
			Curve:        curve.Ramp,
		},
		Duration: time.Second,
		Elements: grid(2, 2),
	}
	out, err := e.Render(context.Background())
	require.NoError(t, err)
	require.NotZero(t, out.Len())
	assert.LessOrEqual(t, out.End(), time.Second)

	// 2 groups, 2 passes: pulse 125ms, interval 218.75ms, second pass at 437.5ms
	extended := 0
	for _, en := range out.Entries() {
		if en.Intent.End() != time.Second {
			continue
		}
		extended++
		assert.GreaterOrEqual(t, en.Intent.Start, ms(437.5), "wipe-on pulse outside the last pass")
	}
	assert.Equal(t, 4, extended)

	e.Config.WipeOn = false
	out, err = e.Render(context.Background())
	require.NoError(t, err)
	assert.Equal(t, ms(781.25), out.End())
}

func TestCountWipeOffFillsBeforeFirstVisit(t *testing.T) {
	els := grid(2, 1)
	e := &Effect{
		Config:   Config{Shape: Horizontal, PassCount: 1, PulsePercent: 50, WipeOff: true},
		Duration: time.Second,
		Elements: els,
	}
	out, err := e.Render(context.Background())
	require.NoError(t, err)

	first := out.For(els[0].ID)
	require.NotEmpty(t, first)
	assert.Equal(t, time.Duration(0), first[0].Start, "first group has nothing to fill")

	second := out.For(els[1].ID)
	require.NotEmpty(t, second)
	assert.Equal(t, time.Duration(0), second[0].Start)
	assert.Equal(t, 1.0, second[0].From.Level)
	assert.Greater(t, second[0].Duration, time.Duration(0))
}

func TestCountStaysInsideWindow(t *testing.T) {
	for _, shape := range []Shape{Horizontal, Vertical, DiagonalUp, DiagonalDown, Circle, Diamond, Burst} {
		for _, passes := range []int{1, 3} {
			e := &Effect{
				Config:   Config{Shape: shape, PassCount: passes, PulsePercent: 30, WipeOn: true},
				Duration: 2 * time.Second,
				Elements: grid(6, 4),
			}
			out, err := e.Render(context.Background())
			require.NoError(t, err)
			assert.LessOrEqual(t, out.End(), e.Duration, shape.String())
		}
	}
}

func TestCountDegenerate(t *testing.T) {
	e := &Effect{Config: Config{PassCount: 0}, Duration: time.Second, Elements: grid(3, 3)}
	out, err := e.Render(context.Background())
	require.NoError(t, err)
	assert.Zero(t, out.Len())

	e = &Effect{Config: Config{PassCount: 2}, Duration: time.Second}
	out, err = e.Render(context.Background())
	require.NoError(t, err)
	assert.Zero(t, out.Len())
}

func TestAcrossItemsDiscrete(t *testing.T) {
	g := gradient.New(gradient.Stop{Pos: 0, Color: red}, gradient.Stop{Pos: 1, Color: blue})
	e := &Effect{
		Config: Config{
			Shape:         Horizontal,
			PassCount:     1,
			PulsePercent:  20,
			ColorHandling: GradientAcrossItems,
			Discrete:      true,
			Gradient:      g,
		},
		Duration: time.Second,
		Elements: grid(5, 1),
	}
	out, err := e.Render(context.Background())
	require.NoError(t, err)
	require.NotZero(t, out.Len())
	for _, en := range out.Entries() {
		c := en.Intent.From.Color
		assert.True(t, c.AlmostEqualRgb(red) || c.AlmostEqualRgb(blue), "blended color %v", c)
	}
}

func TestPulseLengthTerminates(t *testing.T) {
	for _, pt := range []time.Duration{0, 10 * time.Millisecond, 5 * time.Second} {
		e := &Effect{
			Config:   Config{Shape: Circle, Movement: PulseLength, PulseTime: pt},
			Duration: 200 * time.Millisecond,
			Elements: grid(5, 5),
		}
		out, err := e.Render(context.Background())
		require.NoError(t, err)
		assert.LessOrEqual(t, out.End(), e.Duration)
	}

	e := &Effect{
		Config:   Config{Shape: Horizontal, Movement: PulseLength, PulseTime: 5 * time.Second},
		Duration: 200 * time.Millisecond,
		Elements: grid(4, 1),
	}
	out, err := e.Render(context.Background())
	require.NoError(t, err)
	assert.Len(t, out.Elements(), 1, "only the first group fits before the window ends")
}

func newRun(e *Effect, groups int) *run {
	return &run{cfg: e.Config.withDefaults(), e: e, pulse: pulse.Sampler{}, plan: Plan{Groups: make([]Group, groups)}, out: intent.New()}
}

func checkSegments(t *testing.T, segs []segment, groups int, window time.Duration) {
	t.Helper()
	require.NotEmpty(t, segs)
	var total time.Duration
	for i, s := range segs {
		if i > 0 {
			assert.GreaterOrEqual(t, s.Start, segs[i-1].Start)
		}
		assert.GreaterOrEqual(t, s.Index, 0)
		assert.Less(t, s.Index, groups)
		total += s.Duration
	}
	assert.Equal(t, window, total)
}

func TestCurveSegments(t *testing.T) {
	e := &Effect{Config: Config{Movement: MovementCurve, MovementCurve: curve.Triangle, ReverseColor: true}, Duration: time.Second}
	segs := newRun(e, 10).segments(10)
	checkSegments(t, segs, 10, time.Second)

	var rising, falling int
	for i := 1; i < len(segs); i++ {
		if segs[i].Reverse == 0 {
			rising++
		} else {
			falling++
		}
	}
	assert.NotZero(t, rising)
	assert.NotZero(t, falling)
}

func TestAudioSegments(t *testing.T) {
	src := audio.Func(func(at int) float64 {
		if at < 500 {
			return -5
		}
		return -100
	})
	e := &Effect{Config: Config{Movement: MovementAudio, Sensitivity: -500}, Duration: time.Second, Audio: src}
	segs := newRun(e, 11).segments(11)
	checkSegments(t, segs, 11, time.Second)
	require.Len(t, segs, 2)
	assert.Equal(t, 5, segs[0].Index)
	assert.Equal(t, 500*time.Millisecond, segs[1].Start)
	assert.Equal(t, 0, segs[1].Index)

	e.Audio = nil
	segs = newRun(e, 11).segments(11)
	require.Len(t, segs, 1)
}

func TestMarkSegments(t *testing.T) {
	marks := mark.NewCollection("sweep",
		mark.Mark{StartTime: 2 * time.Second, Text: "0"},
		mark.Mark{StartTime: 3 * time.Second, Text: "100"},
	)
	e := &Effect{
		Config:    Config{Movement: MovementMarks},
		StartTime: 2 * time.Second,
		Duration:  time.Second,
		Marks:     marks,
	}
	segs := newRun(e, 11).segments(11)
	checkSegments(t, segs, 11, time.Second)
	require.Len(t, segs, 20)
	assert.Equal(t, 5, segs[10].Index)
	assert.Equal(t, 500*time.Millisecond, segs[10].Start)

	one := mark.NewCollection("hold", mark.Mark{StartTime: 2 * time.Second, Text: "40"})
	e.Marks = one
	segs = newRun(e, 11).segments(11)
	require.Len(t, segs, 1)
	assert.Equal(t, 4, segs[0].Index)
}

func TestMovementRender(t *testing.T) {
	e := &Effect{
		Config:   Config{Shape: Horizontal, Movement: MovementCurve, PulsePercent: 30, Curve: curve.Triangle},
		Duration: time.Second,
		Elements: grid(10, 2),
	}
	out, err := e.Render(context.Background())
	require.NoError(t, err)
	require.NotZero(t, out.Len())
	assert.LessOrEqual(t, out.End(), time.Second)
	for _, en := range out.Entries() {
		assert.GreaterOrEqual(t, en.Intent.From.Level, 0.0)
		assert.LessOrEqual(t, en.Intent.From.Level, 1.0)
	}
}

// cancelling cancels its context after a fixed number of pulses.
type cancelling struct {
	pulse.Sampler
	left   int
	cancel context.CancelFunc
}

func (c *cancelling) RenderNode(el layout.Element, cv curve.Curve, g gradient.Gradient, dur time.Duration, discrete bool) intent.CommandSet {
	c.left--
	if c.left == 0 {
		c.cancel()
	}
	return c.Sampler.RenderNode(el, cv, g, dur, discrete)
}

func (c *cancelling) RenderLevel(el layout.Element, lvl float64, col colorful.Color, dur time.Duration) intent.CommandSet {
	c.left--
	if c.left == 0 {
		c.cancel()
	}
	return c.Sampler.RenderLevel(el, lvl, col, dur)
}

func TestRenderCancelled(t *testing.T) {
	cfg := Config{Shape: Circle, PassCount: 3, PulsePercent: 20}
	full, err := (&Effect{Config: cfg, Duration: time.Second, Elements: grid(6, 6)}).Render(context.Background())
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	e := &Effect{
		Config:   cfg,
		Duration: time.Second,
		Elements: grid(6, 6),
		Pulse:    &cancelling{left: 10, cancel: cancel},
	}
	partial, err := e.Render(ctx)
	assert.ErrorIs(t, err, context.Canceled)
	require.NotNil(t, partial)
	assert.Less(t, partial.Len(), full.Len())
}

func TestRenderCancelledEveryModel(t *testing.T) {
	tests := []struct {
		name string
		cfg  Config
	}{
		{"pulse_length", Config{Shape: Circle, Movement: PulseLength, PulseTime: 100 * time.Millisecond}},
		{"movement", Config{Shape: Horizontal, Movement: MovementCurve, PulsePercent: 30, MovementCurve: curve.Triangle}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			full, err := (&Effect{Config: tt.cfg, Duration: time.Second, Elements: grid(6, 6)}).Render(context.Background())
			require.NoError(t, err)
			require.NotZero(t, full.Len())

			ctx, cancel := context.WithCancel(context.Background())
			defer cancel()
			e := &Effect{
				Config:   tt.cfg,
				Duration: time.Second,
				Elements: grid(6, 6),
				Pulse:    &cancelling{left: 5, cancel: cancel},
			}
			partial, err := e.Render(ctx)
			assert.ErrorIs(t, err, context.Canceled)
			require.NotNil(t, partial)
			assert.Less(t, partial.Len(), full.Len())
		})
	}
}

func TestPulseLengthIntervalFloor(t *testing.T) {
	els := grid(10, 1)
	cfg := Config{Shape: Horizontal, Movement: PulseLength, PulseTime: 10 * time.Millisecond}
	e := &Effect{Config: cfg, Duration: 100 * time.Millisecond, Elements: els}
	out, err := e.Render(context.Background())
	require.NoError(t, err)

	plan, err := Partition(context.Background(), els, cfg.withDefaults())
	require.NoError(t, err)
	require.Len(t, plan.Groups, 10)

	// 10ms over 10 groups would be 1ms; the floor spaces groups 5ms apart
	// and the second sweep starts at 50ms
	for i, g := range plan.Groups {
		require.Len(t, g.Elements, 1)
		its := out.For(g.Elements[0].ID)
		require.Len(t, its, 2, "group %d is visited once per sweep", i)
		assert.Equal(t, time.Duration(i)*minInterval, its[0].Start)
		assert.Equal(t, 50*time.Millisecond+time.Duration(i)*minInterval, its[1].Start)
	}
}

func TestRenderRejectsBadIDs(t *testing.T) {
	nilIDs := grid(3, 1)
	for i := range nilIDs {
		nilIDs[i].ID = uuid.Nil
	}
	dup := grid(3, 1)
	dup[2].ID = dup[0].ID
	withUnlocated := append(grid(2, 1), layout.Unlocated(uuid.Nil, "spare"))

	for name, els := range map[string][]layout.Element{"nil": nilIDs, "duplicate": dup} {
		t.Run(name, func(t *testing.T) {
			e := &Effect{Config: Config{Shape: Horizontal, PassCount: 1, PulsePercent: 50}, Duration: time.Second, Elements: els}
			out, err := e.Render(context.Background())
			assert.Error(t, err)
			assert.Zero(t, out.Len())
		})
	}

	e := &Effect{Config: Config{Shape: Horizontal, PassCount: 1, PulsePercent: 50}, Duration: time.Second, Elements: withUnlocated}
	out, err := e.Render(context.Background())
	require.NoError(t, err, "unlocated elements are skipped before the id check")
	assert.Len(t, out.Elements(), 2)
}
