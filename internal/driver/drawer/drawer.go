// Package drawer writes frames to a periph display.Drawer: an nrzled strip
// on SPI, or a terminal screen when no SPI port is available.
package drawer

import (
	"errors"
	"fmt"
	"image"
	"image/color"

	"github.com/rs/zerolog/log"
	"periph.io/x/conn/v3/display"
	"periph.io/x/conn/v3/physic"
	"periph.io/x/conn/v3/spi"
	"periph.io/x/conn/v3/spi/spireg"
	"periph.io/x/devices/v3/nrzled"
	"periph.io/x/extra/devices/screen"

	"github.com/coreman2200/lumisweep/internal/render"
)

// DefaultFreq is the nrzled SPI clock.
const DefaultFreq = 2500 * physic.KiloHertz

type Driver struct {
	dev display.Drawer
	img *image.NRGBA
	// SPI reports whether frames go to a real strip.
	SPI bool
}

// New wraps dev. Frames are drawn as a single row of n pixels.
func New(dev display.Drawer, n int) (*Driver, error) {
	if dev == nil {
		return nil, errors.New("drawer: nil device")
	}
	if n <= 0 {
		return nil, errors.New("drawer: invalid pixel count")
	}
	return &Driver{dev: dev, img: image.NewNRGBA(image.Rect(0, 0, n, 1))}, nil
}

// NewSPI drives n pixels through an nrzled encoder on port.
func NewSPI(port spi.Port, n int, freq physic.Frequency) (*Driver, error) {
	if freq <= 0 {
		freq = DefaultFreq
	}
	dev, err := nrzled.NewSPI(port, &nrzled.Opts{NumPixels: n, Channels: 3, Freq: freq})
	if err != nil {
		return nil, fmt.Errorf("nrzled: %w", err)
	}
	if err := dev.Halt(); err != nil {
		return nil, err
	}
	d, err := New(dev, n)
	if err != nil {
		return nil, err
	}
	d.SPI = true
	return d, nil
}

// NewScreen prints n pixels at the terminal.
func NewScreen(n int) (*Driver, error) {
	return New(screen.New(n), n)
}

// Open uses the named SPI port ("" for the first one) and falls back to the
// terminal when none can be opened. The host must be initialized first.
func Open(name string, n int, freq physic.Frequency) (*Driver, error) {
	port, err := spireg.Open(name)
	if err != nil {
		log.Warn().Err(err).Msg("no SPI port, printing at the console")
		return NewScreen(n)
	}
	d, err := NewSPI(port, n, freq)
	if err != nil {
		port.Close()
		return nil, err
	}
	return d, nil
}

func (d *Driver) Write(buf []render.Color) error {
	w := d.img.Rect.Dx()
	for i := 0; i < w; i++ {
		var c render.Color
		if i < len(buf) {
			c = buf[i]
		}
		r, g, b := c.RGB8()
		d.img.SetNRGBA(i, 0, color.NRGBA{R: r, G: g, B: b, A: 255})
	}
	return d.dev.Draw(d.dev.Bounds(), d.img, image.Point{})
}

// Close blanks the output.
func (d *Driver) Close() error { return d.dev.Halt() }
