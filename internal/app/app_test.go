package app

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/coreman2200/lumisweep/internal/config"
	"github.com/coreman2200/lumisweep/internal/driver/fake"
	"github.com/coreman2200/lumisweep/internal/driver/snapshot"
	"github.com/coreman2200/lumisweep/internal/whirlpool"
	"github.com/coreman2200/lumisweep/internal/wipe"
)

func small() *config.Config {
	c := config.Default()
	c.Layout.Dim = config.Dim{X: 4, Y: 4, Z: 1}
	c.DurationMs = 500
	c.FrameMs = 50
	c.Realtime = false
	return c
}

func TestBuildRunsEveryFrame(t *testing.T) {
	for _, effect := range config.Effects {
		t.Run(effect, func(t *testing.T) {
			c := small()
			c.Effect = effect
			drv := &fake.Driver{}
			core, err := Build(c, drv)
			require.NoError(t, err)
			assert.Equal(t, []string{"index_sweep", "plane_z", "rgb_channels", "whirlpool", "wipe"}, core.Reg.List())
			assert.Equal(t, 10, core.Eng.Frames)

			require.NoError(t, core.Eng.Run(context.Background()))
			assert.Equal(t, 10, drv.Count)
			assert.Len(t, drv.Last(), 16)
		})
	}
}

func TestBuildOverlay(t *testing.T) {
	c := small()
	c.Overlay = config.OverlayCfg{Effect: "whirlpool", Alpha: 0.5}
	core, err := Build(c, &fake.Driver{})
	require.NoError(t, err)
	require.NotNil(t, core.Eng.ROver)
	assert.Equal(t, "whirlpool", core.Eng.ROver.Name())

	c.Overlay.Effect = "wipe"
	_, err = Build(c, &fake.Driver{})
	assert.Error(t, err, "overlay equal to the active effect")
}

func TestBuildRejectsBadSections(t *testing.T) {
	c := small()
	c.Wipe.Shape = "hexagon"
	_, err := Build(c, &fake.Driver{})
	assert.Error(t, err)

	c = small()
	c.Whirlpool.Direction = "sideways"
	_, err = Build(c, &fake.Driver{})
	assert.Error(t, err)

	c = small()
	c.Marks.File = filepath.Join(t.TempDir(), "missing.yaml")
	_, err = Build(c, &fake.Driver{})
	assert.Error(t, err)
}

func TestWipeConfigConversion(t *testing.T) {
	wc, err := WipeConfig(config.WipeCfg{
		Shape:         "rectangle",
		Movement:      "pulse_length",
		ColorHandling: "across_items",
		PulseTimeMs:   120,
		Gradient:      config.Gradient{{Pos: 0, Color: "#ff0000"}},
	})
	require.NoError(t, err)
	assert.Equal(t, wipe.Burst, wc.Shape)
	assert.Equal(t, wipe.PulseLength, wc.Movement)
	assert.Equal(t, wipe.GradientAcrossItems, wc.ColorHandling)
	assert.Equal(t, int64(120), wc.PulseTime.Milliseconds())
	require.NotNil(t, wc.Gradient)
	assert.Nil(t, wc.Curve, "empty curve keeps the effect default")

	_, err = WipeConfig(config.WipeCfg{Gradient: config.Gradient{{Color: "bad"}}})
	assert.Error(t, err)
}

func TestWhirlpoolConfigConversion(t *testing.T) {
	hc, err := WhirlpoolConfig(config.WhirlpoolCfg{
		Direction:    "out",
		GradientMode: "over_element",
		Colors:       []config.Gradient{{{Color: "#00ff00"}}, nil},
	})
	require.NoError(t, err)
	assert.Equal(t, whirlpool.Out, hc.Direction)
	assert.Equal(t, whirlpool.OverElement, hc.GradientMode)
	assert.Len(t, hc.Colors, 1)
}

func TestSourcesLoadMarks(t *testing.T) {
	c := small()
	c.Marks.File = filepath.Join(t.TempDir(), "marks.yaml")
	require.NoError(t, os.WriteFile(c.Marks.File, []byte("name: beats\nmarks:\n  - {t_ms: 0, text: \"0\"}\n  - {t_ms: 400, text: \"100\"}\n"), 0o644))
	a, m, err := Sources(c)
	require.NoError(t, err)
	assert.Nil(t, a)
	require.NotNil(t, m)
	assert.Len(t, m.MarksInRange(0, c.Duration()), 2)
}

func TestOpenOutput(t *testing.T) {
	c := small()
	l := Layout(c)

	out, name, err := OpenOutput(c, l)
	require.NoError(t, err)
	assert.Equal(t, "sim", name)
	assert.IsType(t, &fake.Driver{}, out)

	c.Output = config.OutputCfg{Driver: "png", PNGDir: t.TempDir(), PNGScale: 2}
	out, name, err = OpenOutput(c, l)
	require.NoError(t, err)
	assert.Equal(t, "png", name)
	require.IsType(t, &snapshot.Driver{}, out)
	assert.Equal(t, 2, out.(*snapshot.Driver).Scale)

	c.Output.Driver = "laser"
	_, _, err = OpenOutput(c, l)
	assert.Error(t, err)
}
