package wipe

import (
	"context"
	"math"
	"time"

	"github.com/coreman2200/lumisweep/internal/curve"
	"github.com/coreman2200/lumisweep/internal/gradient"
	"github.com/coreman2200/lumisweep/internal/intent"
	"github.com/coreman2200/lumisweep/internal/layout"
)

// sampleInterval is the movement sampling period.
const sampleInterval = 50 * time.Millisecond

// minInterval floors the per-group interval of pulse length mode.
const minInterval = 5 * time.Millisecond

// emit renders one pulse for el at the given time. p is the sweep position
// used when colors are spread across items.
func (r *run) emit(el layout.Element, at, dur time.Duration, p float64, wipeOff, wipeOn bool) {
	cfg := r.cfg
	add := func(cs intent.CommandSet) {
		cs.OffsetAllCommandsByTime(at)
		if wipeOff {
			if pre, ok := r.pulse.StartingStaticPulse(cs); ok {
				r.out.Add(pre)
			}
		}
		r.out.Add(cs)
		if wipeOn {
			if post, ok := r.pulse.ExtendedStaticPulse(cs, r.e.Duration); ok {
				r.out.Add(post)
			}
		}
	}

	switch {
	case cfg.ColorHandling == GradientThroughWholeEffect:
		add(r.pulse.RenderNode(el, cfg.Curve, cfg.Gradient, dur, cfg.Discrete))
	case cfg.Discrete:
		for _, pr := range cfg.Gradient.DiscreteColorsAndProportionsAt(p) {
			shape := curve.Scaled{Curve: cfg.Curve, Factor: pr.Weight}
			add(r.pulse.RenderNode(el, shape, gradient.Solid(pr.Color), dur, false))
		}
	default:
		add(r.pulse.RenderNode(el, cfg.Curve, gradient.Solid(cfg.Gradient.ColorAt(p)), dur, false))
	}
}

// position maps the current time onto the gradient for across-items color.
func (r *run) position(at, pulse time.Duration) float64 {
	den := r.e.Duration - pulse
	if den <= 0 {
		return 0
	}
	p := float64(at) / float64(den)
	if r.cfg.ColorAcrossItemPerCount {
		p = math.Mod(p*float64(r.cfg.PassCount), 1)
	}
	return p
}

// count sweeps every group PassCount times. The pulse width scales with the
// shape's nominal steps per group.
func (r *run) count(ctx context.Context) error {
	groups := len(r.plan.Groups)
	passes := r.cfg.PassCount
	if passes <= 0 {
		return nil
	}
	total := float64(r.e.Duration)
	width := total * (r.cfg.PulsePercent * (float64(r.plan.Steps) / float64(groups))) / 100 / float64(passes)
	width = math.Min(math.Max(width, 0), total)
	interval := time.Duration((total - width) / float64(groups*passes))
	segment := time.Duration(width)

	var at time.Duration
	for count := 0; count < passes; count++ {
		wipeOff := r.cfg.WipeOff && count == 0
		wipeOn := r.cfg.WipeOn && count == passes-1
		for _, g := range r.plan.Groups {
			if err := ctx.Err(); err != nil {
				return err
			}
			for _, el := range g.Elements {
				if err := ctx.Err(); err != nil {
					return err
				}
				r.emit(el, at, segment, r.position(at, segment), wipeOff, wipeOn)
			}
			at += interval
		}
	}
	return nil
}

// pulseLength repeats the sweep until the window is filled, stopping mid
// sweep once the window end is reached.
func (r *run) pulseLength(ctx context.Context) error {
	groups := len(r.plan.Groups)
	segment := r.cfg.PulseTime
	interval := max(segment/time.Duration(groups), minInterval)

	var at time.Duration
	for at < r.e.Duration {
		for _, g := range r.plan.Groups {
			if err := ctx.Err(); err != nil {
				return err
			}
			for _, el := range g.Elements {
				if err := ctx.Err(); err != nil {
					return err
				}
				r.emit(el, at, segment, r.position(at, segment), false, false)
			}
			at += interval
			if at >= r.e.Duration {
				return nil
			}
		}
	}
	return nil
}

// segment is a stretch of constant movement targeting one group.
type segment struct {
	Index    int
	Start    time.Duration
	Duration time.Duration
	Reverse  float64 // 1 mirrors the gradient walk
}

// sampler returns the movement value at sample i, position pos in 0..100.
type sampler func(i int, pos float64) float64

func (r *run) sampler() sampler {
	cfg := r.cfg
	switch cfg.Movement {
	case MovementAudio:
		src := r.e.Audio
		if src == nil {
			return func(int, float64) float64 { return 0 }
		}
		return func(i int, _ float64) float64 {
			v := src.VolumeAtTime(i * int(sampleInterval/time.Millisecond))
			if v <= cfg.Sensitivity/10 {
				return 0
			}
			if cfg.Reverse {
				return 1 + v/10
			}
			return -v / 10
		}
	case MovementMarks:
		if r.e.Marks == nil {
			return func(int, float64) float64 { return 0 }
		}
		start := r.e.StartTime
		marks := r.e.Marks.MarksInRange(start, start+r.e.Duration)
		return func(i int, _ float64) float64 {
			t := start + time.Duration(i)*sampleInterval
			fromT, fromL := start, 0.0
			toT, toL, bracketed := fromT, 0.0, false
			for _, m := range marks {
				if t < m.StartTime {
					toT, toL, bracketed = m.StartTime, m.Label(), true
					break
				}
				fromT, fromL = m.StartTime, m.Label()
			}
			if !bracketed || toT == fromT {
				return fromL / 100
			}
			slope := (toL - fromL) / float64(toT-fromT)
			return (float64(t-fromT)*slope + fromL) / 100
		}
	}
	mc := cfg.MovementCurve
	return func(_ int, pos float64) float64 { return mc.ValueAt(pos) / 100 }
}

// segments samples the movement source and splits the window wherever the
// value changes.
func (r *run) segments(groups int) []segment {
	intervals := int(math.Ceil(float64(r.e.Duration) / float64(sampleInterval)))
	sample := r.sampler()
	var out []segment
	previous := 2.0
	var at time.Duration
	for i := 0; i < intervals; i++ {
		pos := 100 / float64(intervals) * float64(i)
		m := math.Min(math.Max(sample(i, pos), 0), 1)
		if m != previous {
			if n := len(out); n > 0 {
				out[n-1].Duration = at - out[n-1].Start
			}
			s := segment{
				Index:    int(math.Round(float64(groups-1) * m)),
				Start:    at,
				Duration: r.e.Duration - at,
			}
			if r.cfg.ReverseColor && previous >= m {
				s.Reverse = 1
			}
			out = append(out, s)
		}
		previous = m
		at += sampleInterval
	}
	return out
}

// movement draws a band of PulseSteps groups trailing each segment target.
func (r *run) movement(ctx context.Context) error {
	groups := len(r.plan.Groups)
	width := max(1, r.plan.PulseSteps)
	burst := 0
	if r.cfg.Shape == DiagonalUp {
		burst = max(0, r.plan.PulseSteps-1)
	}
	step := 1 / float64(width)

	for _, s := range r.segments(groups) {
		for i := 0; i < width; i++ {
			if err := ctx.Err(); err != nil {
				return err
			}
			idx := s.Index - i
			if idx <= 0 || idx+burst >= groups {
				continue
			}
			p := math.Abs(s.Reverse - step*float64(i))
			col := r.cfg.Gradient.ColorAt(p)
			lvl := math.Min(math.Max(r.cfg.Curve.ValueAt(p*100)/100, 0), 1)
			for _, el := range r.plan.Groups[idx+burst].Elements {
				if err := ctx.Err(); err != nil {
					return err
				}
				cs := r.pulse.RenderLevel(el, lvl, col, s.Duration)
				cs.OffsetAllCommandsByTime(s.Start)
				r.out.Add(cs)
			}
		}
	}
	return nil
}
