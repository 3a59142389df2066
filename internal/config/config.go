package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/coreman2200/lumisweep/internal/curve"
	"github.com/coreman2200/lumisweep/internal/gradient"
)

type Dim struct {
	X int `yaml:"x"`
	Y int `yaml:"y"`
	Z int `yaml:"z"`
}

type LayoutCfg struct {
	Dim             Dim     `yaml:"dim"`
	PitchMM         float64 `yaml:"pitch_mm,omitempty"`
	PanelGapMM      float64 `yaml:"panel_gap_mm,omitempty"`
	XFlipEveryRow   bool    `yaml:"x_flip_every_row"`
	YFlipEveryPanel bool    `yaml:"y_flip_every_panel"`
}

// Curve is a keyframed curve over [0,100]. Empty means the effect default.
type Curve []curve.Keyframe

func (c Curve) Curve() curve.Curve {
	if len(c) == 0 {
		return nil
	}
	return curve.Points(c)
}

type Stop struct {
	Pos   float64 `yaml:"pos"`
	Color string  `yaml:"color"` // #rrggbb
}

// Gradient is a list of hex color stops. Empty means the effect default.
type Gradient []Stop

func (g Gradient) Gradient() (gradient.Gradient, error) {
	if len(g) == 0 {
		return nil, nil
	}
	stops := make([]gradient.Stop, 0, len(g))
	for _, s := range g {
		st, err := gradient.Hex(s.Pos, s.Color)
		if err != nil {
			return nil, err
		}
		stops = append(stops, st)
	}
	return gradient.New(stops...), nil
}

type WipeCfg struct {
	Shape                   string   `yaml:"shape"`
	Movement                string   `yaml:"movement"`
	ColorHandling           string   `yaml:"color_handling,omitempty"`
	Reverse                 bool     `yaml:"reverse,omitempty"`
	ReverseColor            bool     `yaml:"reverse_color,omitempty"`
	WipeOn                  bool     `yaml:"wipe_on,omitempty"`
	WipeOff                 bool     `yaml:"wipe_off,omitempty"`
	ColorAcrossItemPerCount bool     `yaml:"color_across_item_per_count,omitempty"`
	Discrete                bool     `yaml:"discrete,omitempty"`
	XOffset                 int      `yaml:"x_offset,omitempty"`
	YOffset                 int      `yaml:"y_offset,omitempty"`
	PulsePercent            float64  `yaml:"pulse_percent,omitempty"`
	PassCount               int      `yaml:"pass_count,omitempty"`
	PulseTimeMs             int      `yaml:"pulse_time_ms,omitempty"`
	Sensitivity             float64  `yaml:"sensitivity,omitempty"`
	Curve                   Curve    `yaml:"curve,omitempty"`
	MovementCurve           Curve    `yaml:"movement_curve,omitempty"`
	Gradient                Gradient `yaml:"gradient,omitempty"`
}

type WhirlpoolCfg struct {
	Direction    string     `yaml:"direction"`
	GradientMode string     `yaml:"gradient_mode,omitempty"`
	Speed        int        `yaml:"speed,omitempty"`
	Spacing      float64    `yaml:"spacing,omitempty"`
	Thickness    float64    `yaml:"thickness,omitempty"`
	Width        Curve      `yaml:"width,omitempty"`
	Height       Curve      `yaml:"height,omitempty"`
	XOffset      Curve      `yaml:"x_offset,omitempty"`
	YOffset      Curve      `yaml:"y_offset,omitempty"`
	Level        Curve      `yaml:"level,omitempty"`
	Colors       []Gradient `yaml:"colors,omitempty"`
}

type AudioCfg struct {
	File      string  `yaml:"file,omitempty"` // WAV
	StartMs   int     `yaml:"start_ms,omitempty"`
	Gain      float64 `yaml:"gain,omitempty"`
	AttackMs  int     `yaml:"attack_ms,omitempty"`
	DecayMs   int     `yaml:"decay_ms,omitempty"`
	Normalize bool    `yaml:"normalize,omitempty"`
}

type MarksCfg struct {
	File    string `yaml:"file,omitempty"`
	StartMs int    `yaml:"start_ms,omitempty"` // effect start on the mark clock
}

type OverlayCfg struct {
	Effect string  `yaml:"effect,omitempty"`
	Alpha  float64 `yaml:"alpha,omitempty"`
}

type SPI struct {
	Port    string `yaml:"port,omitempty"` // "" is the first port
	FreqKHz int    `yaml:"freq_khz,omitempty"`
}

type OutputCfg struct {
	Driver   string `yaml:"driver"` // "sim" | "screen" | "nrzled" | "png"
	SPI      SPI    `yaml:"spi,omitempty"`
	PNGDir   string `yaml:"png_dir,omitempty"`
	PNGScale int    `yaml:"png_scale,omitempty"`
	PNGEvery int    `yaml:"png_every,omitempty"`
}

type PowerCfg struct {
	WhiteCap   float64 `yaml:"white_cap"`
	ChanMA     float64 `yaml:"chan_ma,omitempty"`
	BudgetMA   float64 `yaml:"budget_ma,omitempty"`
	Knee       float64 `yaml:"knee,omitempty"`
	ExposureEV float64 `yaml:"exposure_ev,omitempty"`
	Gamma      float64 `yaml:"gamma,omitempty"`
	Filmic     bool    `yaml:"filmic,omitempty"`
}

type Config struct {
	Layout     LayoutCfg `yaml:"layout"`
	DurationMs int       `yaml:"duration_ms"`
	FrameMs    int       `yaml:"frame_ms"`
	Realtime   bool      `yaml:"realtime"`
	Brightness float64   `yaml:"brightness"`

	Effect  string     `yaml:"effect"` // one of Effects
	Overlay OverlayCfg `yaml:"overlay,omitempty"`

	Wipe      WipeCfg      `yaml:"wipe,omitempty"`
	Whirlpool WhirlpoolCfg `yaml:"whirlpool,omitempty"`
	Audio     AudioCfg     `yaml:"audio,omitempty"`
	Marks     MarksCfg     `yaml:"marks,omitempty"`

	Output OutputCfg `yaml:"output"`
	Power  PowerCfg  `yaml:"power"`
}

// Effects are the renderer names an effect or overlay may use.
var Effects = []string{"wipe", "whirlpool", "index_sweep", "rgb_channels", "plane_z"}

func KnownEffect(name string) bool {
	name = strings.ToLower(strings.TrimSpace(name))
	for _, e := range Effects {
		if e == name {
			return true
		}
	}
	return false
}

// Default is an 8x8x1 horizontal wipe printed by the sim driver.
func Default() *Config {
	return &Config{
		Layout:     LayoutCfg{Dim: Dim{X: 8, Y: 8, Z: 1}, XFlipEveryRow: true},
		DurationMs: 2000,
		FrameMs:    50,
		Realtime:   true,
		Brightness: 1,
		Effect:     "wipe",
		Wipe:       WipeCfg{Shape: "horizontal", Movement: "count", PassCount: 1, PulsePercent: 20},
		Whirlpool:  WhirlpoolCfg{Direction: "in", Speed: 1, Spacing: 20, Thickness: 50},
		Output:     OutputCfg{Driver: "sim"},
		Power:      PowerCfg{WhiteCap: 0.85, ChanMA: 20},
	}
}

func (c *Config) Duration() time.Duration { return time.Duration(c.DurationMs) * time.Millisecond }
func (c *Config) Frame() time.Duration    { return time.Duration(c.FrameMs) * time.Millisecond }

// Validate checks the fields every run needs.
func (c *Config) Validate() error {
	var errs []error
	d := c.Layout.Dim
	if d.X <= 0 || d.Y <= 0 || d.Z <= 0 {
		errs = append(errs, fmt.Errorf("layout dim must be positive, got %dx%dx%d", d.X, d.Y, d.Z))
	}
	if c.DurationMs <= 0 {
		errs = append(errs, errors.New("duration_ms must be positive"))
	}
	if c.FrameMs < 0 {
		errs = append(errs, errors.New("frame_ms must not be negative"))
	}
	if !KnownEffect(c.Effect) {
		errs = append(errs, fmt.Errorf("unknown effect %q", c.Effect))
	}
	if c.Brightness < 0 || c.Brightness > 1 {
		errs = append(errs, fmt.Errorf("brightness %.2f outside 0..1", c.Brightness))
	}
	return errors.Join(errs...)
}

// Load reads path over the defaults and validates the result.
func Load(path string) (*Config, error) {
	c := Default()
	if err := LoadInto(path, c); err != nil {
		return nil, err
	}
	return c, nil
}

// LoadInto reads path over c, so only the fields the file sets replace what
// c already holds. c is left untouched when reading or validation fails.
func LoadInto(path string, c *Config) error {
	b, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	next := *c
	if err := yaml.Unmarshal(b, &next); err != nil {
		return fmt.Errorf("parse %s: %w", path, err)
	}
	if err := next.Validate(); err != nil {
		return fmt.Errorf("%s: %w", path, err)
	}
	*c = next
	return nil
}

func Save(path string, c *Config) error {
	b, err := yaml.Marshal(c)
	if err != nil {
		return err
	}
	return os.WriteFile(path, b, 0644)
}
