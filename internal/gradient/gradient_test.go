package gradient

import (
	"testing"

	"github.com/lucasb-eyer/go-colorful"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var (
	red  = colorful.Color{R: 1}
	blue = colorful.Color{B: 1}
)

func TestColorAtBlends(t *testing.T) {
	g := New(Stop{Pos: 1, Color: blue}, Stop{Pos: 0, Color: red})
	assert.Equal(t, red, g.ColorAt(0))
	assert.Equal(t, blue, g.ColorAt(1))
	assert.Equal(t, red, g.ColorAt(-3), "clamped below")
	mid := g.ColorAt(0.5)
	assert.InDelta(t, 0.5, mid.R, 1e-9)
	assert.InDelta(t, 0.5, mid.B, 1e-9)
}

func TestEmptyAndSolid(t *testing.T) {
	assert.Equal(t, colorful.Color{}, Stops{}.ColorAt(0.4))
	assert.Nil(t, Stops{}.DiscreteColorsAndProportionsAt(0.4))

	s := Solid(red)
	assert.Equal(t, red, s.ColorAt(0.7))
	d := s.DiscreteColorsAndProportionsAt(0.7)
	require.Len(t, d, 1)
	assert.Equal(t, 1.0, d[0].Weight)
}

func TestDiscreteProportions(t *testing.T) {
	g := New(Stop{Pos: 0, Color: red}, Stop{Pos: 1, Color: blue})
	d := g.DiscreteColorsAndProportionsAt(0.25)
	require.Len(t, d, 2)
	assert.Equal(t, red, d[0].Color)
	assert.InDelta(t, 0.75, d[0].Weight, 1e-9)
	assert.Equal(t, blue, d[1].Color)
	assert.InDelta(t, 0.25, d[1].Weight, 1e-9)

	same := New(Stop{Pos: 0, Color: red}, Stop{Pos: 1, Color: red})
	require.Len(t, same.DiscreteColorsAndProportionsAt(0.5), 1)
}

func TestHexAndColors(t *testing.T) {
	s, err := Hex(0.3, "#ff0000")
	require.NoError(t, err)
	assert.Equal(t, 0.3, s.Pos)
	assert.InDelta(t, 1.0, s.Color.R, 1e-9)

	_, err = Hex(0, "nope")
	assert.Error(t, err)

	g := New(Stop{Pos: 0, Color: red}, Stop{Pos: 0.5, Color: blue}, Stop{Pos: 1, Color: red})
	assert.Len(t, g.Colors(), 2)
}
