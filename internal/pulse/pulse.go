// Package pulse turns a shape curve and a color source into the intents of a
// single element pulse.
package pulse

import (
	"math"
	"time"

	"github.com/lucasb-eyer/go-colorful"

	"github.com/coreman2200/lumisweep/internal/curve"
	"github.com/coreman2200/lumisweep/internal/gradient"
	"github.com/coreman2200/lumisweep/internal/intent"
	"github.com/coreman2200/lumisweep/internal/layout"
)

// Renderer builds the command set of one pulse starting at time zero.
type Renderer interface {
	// RenderNode shapes the pulse with c. The gradient is walked across the
	// pulse; discrete splits each sample between the stop colors instead of
	// blending them.
	RenderNode(el layout.Element, c curve.Curve, g gradient.Gradient, dur time.Duration, discrete bool) intent.CommandSet
	// RenderLevel holds a single color at level for dur.
	RenderLevel(el layout.Element, level float64, col colorful.Color, dur time.Duration) intent.CommandSet
	// StartingStaticPulse fills from zero up to the first intent of cs.
	StartingStaticPulse(cs intent.CommandSet) (intent.CommandSet, bool)
	// ExtendedStaticPulse holds the end of cs until end.
	ExtendedStaticPulse(cs intent.CommandSet, end time.Duration) (intent.CommandSet, bool)
}

// DefaultResolution is the ramp length used to approximate a curve.
const DefaultResolution = 50 * time.Millisecond

// Sampler approximates curves with linear ramps of at most Resolution.
type Sampler struct {
	Resolution time.Duration
}

var _ Renderer = Sampler{}

func (s Sampler) segments(dur time.Duration) int {
	res := s.Resolution
	if res <= 0 {
		res = DefaultResolution
	}
	return max(1, int(math.Ceil(float64(dur)/float64(res))))
}

func level(c curve.Curve, p float64) float64 {
	if c == nil {
		return 1
	}
	v := c.ValueAt(p*100) / 100
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}

func (s Sampler) RenderNode(el layout.Element, c curve.Curve, g gradient.Gradient, dur time.Duration, discrete bool) intent.CommandSet {
	cs := intent.NewCommandSet(el)
	if dur <= 0 || g == nil {
		return cs
	}
	n := s.segments(dur)
	at := func(i int) (time.Duration, float64) {
		return time.Duration(int64(dur) * int64(i) / int64(n)), float64(i) / float64(n)
	}
	if !discrete {
		for i := 0; i < n; i++ {
			t0, p0 := at(i)
			t1, p1 := at(i + 1)
			cs.Add(intent.Intent{
				Start:    t0,
				Duration: t1 - t0,
				From:     intent.Light{Color: g.ColorAt(p0), Level: level(c, p0)},
				To:       intent.Light{Color: g.ColorAt(p1), Level: level(c, p1)},
			})
		}
		return cs
	}

	colors := discreteColors(g, n)
	for _, col := range colors {
		for i := 0; i < n; i++ {
			t0, p0 := at(i)
			t1, p1 := at(i + 1)
			from := level(c, p0) * weightOf(g, col, p0)
			to := level(c, p1) * weightOf(g, col, p1)
			if from == 0 && to == 0 {
				continue
			}
			cs.Add(intent.Intent{
				Start:    t0,
				Duration: t1 - t0,
				From:     intent.Light{Color: col, Level: from},
				To:       intent.Light{Color: col, Level: to},
			})
		}
	}
	return cs
}

// discreteColors collects the distinct colors the gradient yields over the
// sample points.
func discreteColors(g gradient.Gradient, n int) []colorful.Color {
	var out []colorful.Color
	for i := 0; i <= n; i++ {
		for _, pr := range g.DiscreteColorsAndProportionsAt(float64(i) / float64(n)) {
			seen := false
			for _, c := range out {
				if c.AlmostEqualRgb(pr.Color) {
					seen = true
					break
				}
			}
			if !seen {
				out = append(out, pr.Color)
			}
		}
	}
	return out
}

func weightOf(g gradient.Gradient, col colorful.Color, p float64) float64 {
	w := 0.0
	for _, pr := range g.DiscreteColorsAndProportionsAt(p) {
		if pr.Color.AlmostEqualRgb(col) {
			w += pr.Weight
		}
	}
	return w
}

func (s Sampler) RenderLevel(el layout.Element, lvl float64, col colorful.Color, dur time.Duration) intent.CommandSet {
	cs := intent.NewCommandSet(el)
	l := intent.Light{Color: col, Level: lvl}
	cs.Add(intent.Intent{Duration: dur, From: l, To: l})
	return cs
}

func (s Sampler) StartingStaticPulse(cs intent.CommandSet) (intent.CommandSet, bool) {
	first, ok := cs.First()
	if !ok || first.Start <= 0 {
		return intent.CommandSet{}, false
	}
	return s.RenderLevel(cs.Element, cs.Peak().Level, cs.Peak().Color, first.Start), true
}

func (s Sampler) ExtendedStaticPulse(cs intent.CommandSet, end time.Duration) (intent.CommandSet, bool) {
	last, ok := cs.Last()
	if !ok || last.End() >= end {
		return intent.CommandSet{}, false
	}
	out := s.RenderLevel(cs.Element, cs.Peak().Level, cs.Peak().Color, end-last.End())
	out.OffsetAllCommandsByTime(last.End())
	return out, true
}
