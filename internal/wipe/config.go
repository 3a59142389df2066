package wipe

import (
	"fmt"
	"strings"
	"time"

	"github.com/lucasb-eyer/go-colorful"

	"github.com/coreman2200/lumisweep/internal/curve"
	"github.com/coreman2200/lumisweep/internal/gradient"
)

// Shape selects the metric that buckets elements into steps.
type Shape int

const (
	Horizontal Shape = iota
	Vertical
	DiagonalUp
	DiagonalDown
	Circle
	Diamond
	Burst
)

var shapeNames = map[Shape]string{
	Horizontal:   "horizontal",
	Vertical:     "vertical",
	DiagonalUp:   "diagonal_up",
	DiagonalDown: "diagonal_down",
	Circle:       "circle",
	Diamond:      "diamond",
	Burst:        "burst",
}

func (s Shape) String() string {
	if n, ok := shapeNames[s]; ok {
		return n
	}
	return fmt.Sprintf("shape(%d)", int(s))
}

// ParseShape accepts the names printed by Shape.String. "rectangle" is an
// alias for burst.
func ParseShape(s string) (Shape, error) {
	s = strings.ToLower(strings.TrimSpace(s))
	if s == "rectangle" {
		return Burst, nil
	}
	for k, v := range shapeNames {
		if v == s {
			return k, nil
		}
	}
	return 0, fmt.Errorf("unknown wipe shape %q", s)
}

// Movement selects how the sweep advances through the groups over time.
type Movement int

const (
	Count Movement = iota
	PulseLength
	MovementCurve
	MovementAudio
	MovementMarks
)

var movementNames = map[Movement]string{
	Count:         "count",
	PulseLength:   "pulse_length",
	MovementCurve: "curve",
	MovementAudio: "audio",
	MovementMarks: "marks",
}

func (m Movement) String() string {
	if n, ok := movementNames[m]; ok {
		return n
	}
	return fmt.Sprintf("movement(%d)", int(m))
}

func ParseMovement(s string) (Movement, error) {
	s = strings.ToLower(strings.TrimSpace(s))
	for k, v := range movementNames {
		if v == s {
			return k, nil
		}
	}
	return 0, fmt.Errorf("unknown wipe movement %q", s)
}

// Continuous reports whether the movement positions the sweep from a
// sampled value rather than stepping through every group.
func (m Movement) Continuous() bool { return m >= MovementCurve }

// ColorHandling picks how gradient positions are assigned to pulses.
type ColorHandling int

const (
	// GradientThroughWholeEffect hands the whole gradient to every pulse.
	GradientThroughWholeEffect ColorHandling = iota
	// GradientAcrossItems gives each pulse the gradient color at its
	// position in the sweep.
	GradientAcrossItems
)

func (c ColorHandling) String() string {
	if c == GradientAcrossItems {
		return "across_items"
	}
	return "whole_effect"
}

func ParseColorHandling(s string) (ColorHandling, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "whole_effect":
		return GradientThroughWholeEffect, nil
	case "across_items":
		return GradientAcrossItems, nil
	}
	return 0, fmt.Errorf("unknown color handling %q", s)
}

// Config holds the wipe parameters.
type Config struct {
	Shape         Shape
	Movement      Movement
	ColorHandling ColorHandling

	Reverse                 bool
	ReverseColor            bool
	WipeOn                  bool
	WipeOff                 bool
	ColorAcrossItemPerCount bool
	Discrete                bool

	// XOffset and YOffset move the center of the radial shapes, -100..100.
	XOffset, YOffset int

	PulsePercent float64 // pulse width, percent of the sweep dimension
	PassCount    int
	PulseTime    time.Duration
	Sensitivity  float64

	Curve         curve.Curve // pulse shape
	MovementCurve curve.Curve
	Gradient      gradient.Gradient
}

func (c Config) withDefaults() Config {
	if c.Curve == nil {
		c.Curve = curve.Full
	}
	if c.MovementCurve == nil {
		c.MovementCurve = curve.Ramp
	}
	if c.Gradient == nil {
		c.Gradient = gradient.Solid(colorful.Color{R: 1, G: 1, B: 1})
	}
	return c
}
