// Package app assembles a runnable engine from a loaded configuration.
package app

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog/log"
	"periph.io/x/conn/v3/physic"

	"github.com/coreman2200/lumisweep/internal/audio"
	"github.com/coreman2200/lumisweep/internal/calib"
	"github.com/coreman2200/lumisweep/internal/config"
	"github.com/coreman2200/lumisweep/internal/driver/drawer"
	"github.com/coreman2200/lumisweep/internal/driver/fake"
	"github.com/coreman2200/lumisweep/internal/driver/snapshot"
	"github.com/coreman2200/lumisweep/internal/layout"
	"github.com/coreman2200/lumisweep/internal/mark"
	"github.com/coreman2200/lumisweep/internal/pulse"
	"github.com/coreman2200/lumisweep/internal/render"
	"github.com/coreman2200/lumisweep/internal/whirlpool"
	"github.com/coreman2200/lumisweep/internal/wipe"
)

// Output is a driver that owns a device.
type Output interface {
	render.Driver
	Close() error
}

type Core struct {
	Layout layout.Layout
	Reg    *render.Registry
	Eng    *render.Engine
}

func Layout(c *config.Config) layout.Layout {
	return layout.Layout{
		Dim:        layout.Dim{X: c.Layout.Dim.X, Y: c.Layout.Dim.Y, Z: c.Layout.Dim.Z},
		Order:      layout.Serpentine{XFlipEveryRow: c.Layout.XFlipEveryRow, YFlipEveryPanel: c.Layout.YFlipEveryPanel},
		PanelGapMM: c.Layout.PanelGapMM,
		PitchMM:    c.Layout.PitchMM,
	}
}

func orDefault(s, def string) string {
	if strings.TrimSpace(s) == "" {
		return def
	}
	return s
}

// WipeConfig converts the YAML wipe section.
func WipeConfig(c config.WipeCfg) (wipe.Config, error) {
	var out wipe.Config
	var err error
	if out.Shape, err = wipe.ParseShape(orDefault(c.Shape, "horizontal")); err != nil {
		return out, err
	}
	if out.Movement, err = wipe.ParseMovement(orDefault(c.Movement, "count")); err != nil {
		return out, err
	}
	if out.ColorHandling, err = wipe.ParseColorHandling(c.ColorHandling); err != nil {
		return out, err
	}
	g, err := c.Gradient.Gradient()
	if err != nil {
		return out, err
	}
	out.Reverse = c.Reverse
	out.ReverseColor = c.ReverseColor
	out.WipeOn = c.WipeOn
	out.WipeOff = c.WipeOff
	out.ColorAcrossItemPerCount = c.ColorAcrossItemPerCount
	out.Discrete = c.Discrete
	out.XOffset, out.YOffset = c.XOffset, c.YOffset
	out.PulsePercent = c.PulsePercent
	out.PassCount = c.PassCount
	out.PulseTime = time.Duration(c.PulseTimeMs) * time.Millisecond
	out.Sensitivity = c.Sensitivity
	out.Curve = c.Curve.Curve()
	out.MovementCurve = c.MovementCurve.Curve()
	out.Gradient = g
	return out, nil
}

// WhirlpoolConfig converts the YAML whirlpool section.
func WhirlpoolConfig(c config.WhirlpoolCfg) (whirlpool.Config, error) {
	var out whirlpool.Config
	var err error
	if out.Direction, err = whirlpool.ParseDirection(c.Direction); err != nil {
		return out, err
	}
	if out.GradientMode, err = whirlpool.ParseGradientMode(c.GradientMode); err != nil {
		return out, err
	}
	for i, gc := range c.Colors {
		g, err := gc.Gradient()
		if err != nil {
			return out, fmt.Errorf("whirlpool colors[%d]: %w", i, err)
		}
		if g != nil {
			out.Colors = append(out.Colors, g)
		}
	}
	out.Speed = c.Speed
	out.Spacing = c.Spacing
	out.Thickness = c.Thickness
	out.Width = c.Width.Curve()
	out.Height = c.Height.Curve()
	out.XOffset = c.XOffset.Curve()
	out.YOffset = c.YOffset.Curve()
	out.Level = c.Level.Curve()
	return out, nil
}

// Sources loads the audio and mark inputs named by the config. Missing
// sections yield nil sources.
func Sources(c *config.Config) (audio.Source, mark.Source, error) {
	var (
		a audio.Source
		m mark.Source
	)
	if c.Audio.File != "" {
		an, err := audio.Open(c.Audio.File,
			time.Duration(c.Audio.StartMs)*time.Millisecond,
			c.Duration(),
			audio.Options{
				Gain:      c.Audio.Gain,
				Attack:    time.Duration(c.Audio.AttackMs) * time.Millisecond,
				Decay:     time.Duration(c.Audio.DecayMs) * time.Millisecond,
				Normalize: c.Audio.Normalize,
			})
		if err != nil {
			return nil, nil, fmt.Errorf("audio: %w", err)
		}
		log.Debug().Str("file", c.Audio.File).Int("windows", an.Len()).Msg("audio analyzed")
		a = an
	}
	if c.Marks.File != "" {
		col, err := mark.Load(c.Marks.File)
		if err != nil {
			return nil, nil, fmt.Errorf("marks: %w", err)
		}
		m = col
	}
	return a, m, nil
}

// Registry builds one renderer per effect over l, plus the calibration
// patterns.
func Registry(c *config.Config, l layout.Layout) (*render.Registry, error) {
	wc, err := WipeConfig(c.Wipe)
	if err != nil {
		return nil, fmt.Errorf("wipe: %w", err)
	}
	hc, err := WhirlpoolConfig(c.Whirlpool)
	if err != nil {
		return nil, fmt.Errorf("whirlpool: %w", err)
	}
	a, m, err := Sources(c)
	if err != nil {
		return nil, err
	}

	reg := render.NewRegistry()
	reg.Register(wipe.NewRenderer(&wipe.Effect{
		Config:    wc,
		Duration:  c.Duration(),
		StartTime: time.Duration(c.Marks.StartMs) * time.Millisecond,
		Elements:  l.Elements(),
		Audio:     a,
		Marks:     m,
		Pulse:     pulse.Sampler{},
	}, c.Frame()))
	reg.Register(whirlpool.NewRenderer(hc, l))
	for _, k := range calib.Kinds {
		r, err := calib.New(k, l)
		if err != nil {
			return nil, err
		}
		reg.Register(r)
	}
	return reg, nil
}

// Build wires the configured effect, overlay and post path onto drv.
func Build(c *config.Config, drv render.Driver) (*Core, error) {
	if err := c.Validate(); err != nil {
		return nil, err
	}
	l := Layout(c)
	reg, err := Registry(c, l)
	if err != nil {
		return nil, err
	}
	active, err := reg.MustGet(strings.ToLower(c.Effect))
	if err != nil {
		return nil, err
	}
	eng, err := render.NewEngine(l.Count(), c.Frame(), c.Duration(), drv, active)
	if err != nil {
		return nil, err
	}
	if name := strings.ToLower(c.Overlay.Effect); name != "" {
		if name == active.Name() {
			return nil, errors.New("overlay must differ from the active effect")
		}
		over, err := reg.MustGet(name)
		if err != nil {
			return nil, err
		}
		eng.SetOverlay(over, c.Overlay.Alpha)
	}
	eng.Realtime = c.Realtime
	eng.Power = render.Power{
		WhiteCap:   c.Power.WhiteCap,
		ChanMA:     c.Power.ChanMA,
		BudgetMA:   c.Power.BudgetMA,
		Knee:       c.Power.Knee,
		ExposureEV: c.Power.ExposureEV,
		Gamma:      c.Power.Gamma,
	}
	if c.Power.Filmic {
		eng.UseFilmicPost()
	}
	return &Core{Layout: l, Reg: reg, Eng: eng}, nil
}

// OpenOutput opens the configured driver. An nrzled output without a usable
// SPI port falls back to the terminal; the periph host must already be
// initialized for it.
func OpenOutput(c *config.Config, l layout.Layout) (Output, string, error) {
	name := orDefault(strings.ToLower(c.Output.Driver), "sim")
	switch name {
	case "sim":
		return &fake.Driver{}, name, nil
	case "screen":
		d, err := drawer.NewScreen(l.Count())
		return d, name, err
	case "nrzled":
		d, err := drawer.Open(c.Output.SPI.Port, l.Count(), physic.Frequency(c.Output.SPI.FreqKHz)*physic.KiloHertz)
		if err != nil {
			return nil, name, err
		}
		if !d.SPI {
			name = "screen"
		}
		return d, name, nil
	case "png":
		d, err := snapshot.New(l, orDefault(c.Output.PNGDir, "frames"))
		if err != nil {
			return nil, name, err
		}
		d.Scale, d.Every = c.Output.PNGScale, c.Output.PNGEvery
		return d, name, nil
	}
	return nil, name, fmt.Errorf("unknown output driver %q", c.Output.Driver)
}
