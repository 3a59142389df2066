package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sample = `
layout:
  dim: {x: 4, y: 3, z: 2}
duration_ms: 1500
frame_ms: 25
effect: wipe
wipe:
  shape: diamond
  movement: curve
  curve:
    - {x: 0, y: 0}
    - {x: 50, y: 100, ease: smooth}
    - {x: 100, y: 0}
  gradient:
    - {pos: 0, color: "#ff0000"}
    - {pos: 1, color: "#0000ff"}
output:
  driver: png
  png_dir: out
`

func write(t *testing.T, body string) string {
	t.Helper()
	p := filepath.Join(t.TempDir(), "cfg.yaml")
	require.NoError(t, os.WriteFile(p, []byte(body), 0o644))
	return p
}

func TestLoadOverDefaults(t *testing.T) {
	c, err := Load(write(t, sample))
	require.NoError(t, err)

	assert.Equal(t, Dim{X: 4, Y: 3, Z: 2}, c.Layout.Dim)
	assert.Equal(t, 1500*time.Millisecond, c.Duration())
	assert.Equal(t, 25*time.Millisecond, c.Frame())
	assert.Equal(t, "diamond", c.Wipe.Shape)
	assert.Equal(t, 20.0, c.Wipe.PulsePercent, "unset fields keep defaults")
	assert.Equal(t, 0.85, c.Power.WhiteCap)

	cv := c.Wipe.Curve.Curve()
	require.NotNil(t, cv)
	assert.InDelta(t, 100, cv.ValueAt(50), 1e-9)
	assert.Nil(t, c.Wipe.MovementCurve.Curve())

	g, err := c.Wipe.Gradient.Gradient()
	require.NoError(t, err)
	assert.InDelta(t, 1, g.ColorAt(0).R, 1e-9)
	assert.InDelta(t, 1, g.ColorAt(1).B, 1e-9)
}

func TestLoadRejects(t *testing.T) {
	_, err := Load(write(t, "layout: {dim: {x: 0, y: 1, z: 1}}\n"))
	assert.Error(t, err)

	_, err = Load(write(t, "effect: plasma\n"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "plasma")

	_, err = Load(write(t, "layout: [\n"))
	assert.Error(t, err)

	_, err = Load(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}

func TestBadGradientColor(t *testing.T) {
	_, err := Gradient{{Pos: 0, Color: "nope"}}.Gradient()
	assert.Error(t, err)

	g, err := Gradient(nil).Gradient()
	assert.NoError(t, err)
	assert.Nil(t, g)
}

func TestSaveRoundTrip(t *testing.T) {
	c := Default()
	c.Effect = "whirlpool"
	c.Whirlpool.Colors = []Gradient{{{Pos: 0, Color: "#00ff00"}}}
	p := filepath.Join(t.TempDir(), "saved.yaml")
	require.NoError(t, Save(p, c))

	got, err := Load(p)
	require.NoError(t, err)
	assert.Equal(t, c, got)
}

func TestLoadIntoKeepsUnsetFields(t *testing.T) {
	c := Default()
	c.Output.Driver = "png"
	c.Effect = "whirlpool"
	c.Wipe.Shape = "circle"
	c.Layout.Dim = Dim{X: 12, Y: 3, Z: 1}

	require.NoError(t, LoadInto(write(t, "duration_ms: 900\nwipe:\n  movement: curve\nlayout:\n  dim: {x: 6, y: 2, z: 1}\n"), c))
	assert.Equal(t, 900, c.DurationMs)
	assert.Equal(t, "curve", c.Wipe.Movement)
	assert.Equal(t, Dim{X: 6, Y: 2, Z: 1}, c.Layout.Dim)
	assert.Equal(t, "png", c.Output.Driver, "fields the file does not set keep their value")
	assert.Equal(t, "whirlpool", c.Effect)
	assert.Equal(t, "circle", c.Wipe.Shape)
}

func TestLoadIntoLeavesConfigOnError(t *testing.T) {
	c := Default()
	c.Effect = "whirlpool"
	want := *c
	assert.Error(t, LoadInto(write(t, "effect: plasma\nduration_ms: 10\n"), c))
	assert.Equal(t, want, *c)
}
