// Package snapshot saves frames as PNG images, one panel per column block,
// scaled up so single LEDs are visible.
package snapshot

import (
	"fmt"
	"image"
	"image/color"
	"image/png"
	"os"
	"path/filepath"

	xdraw "golang.org/x/image/draw"

	"github.com/coreman2200/lumisweep/internal/layout"
	"github.com/coreman2200/lumisweep/internal/render"
)

type Driver struct {
	Layout layout.Layout
	Dir    string
	Scale  int // pixels per LED, default 8
	Every  int // keep every Nth frame, default 1

	frame int
	src   *image.NRGBA
	dst   *image.NRGBA
}

func New(l layout.Layout, dir string) (*Driver, error) {
	if l.Count() <= 0 {
		return nil, fmt.Errorf("snapshot: empty layout %+v", l.Dim)
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, err
	}
	return &Driver{Layout: l, Dir: dir}, nil
}

// Image lays the panels of buf side by side, y growing downward.
func (d *Driver) Image(buf []render.Color) *image.NRGBA {
	dim := d.Layout.Dim
	if d.src == nil {
		d.src = image.NewNRGBA(image.Rect(0, 0, dim.X*dim.Z, dim.Y))
	}
	for z := 0; z < dim.Z; z++ {
		for y := 0; y < dim.Y; y++ {
			for x := 0; x < dim.X; x++ {
				var c render.Color
				if i := d.Layout.Index(x, y, z); i < len(buf) {
					c = buf[i]
				}
				r, g, b := c.RGB8()
				d.src.SetNRGBA(z*dim.X+x, dim.Y-1-y, color.NRGBA{R: r, G: g, B: b, A: 255})
			}
		}
	}
	return d.src
}

// Path is the file written for a frame number.
func (d *Driver) Path(frame int) string {
	return filepath.Join(d.Dir, fmt.Sprintf("frame-%05d.png", frame))
}

func (d *Driver) Write(buf []render.Color) error {
	n := d.frame
	d.frame++
	if d.Every > 1 && n%d.Every != 0 {
		return nil
	}
	src := d.Image(buf)
	scale := d.Scale
	if scale <= 0 {
		scale = 8
	}
	if d.dst == nil {
		d.dst = image.NewNRGBA(image.Rect(0, 0, src.Rect.Dx()*scale, src.Rect.Dy()*scale))
	}
	xdraw.NearestNeighbor.Scale(d.dst, d.dst.Rect, src, src.Rect, xdraw.Src, nil)

	f, err := os.Create(d.Path(n))
	if err != nil {
		return err
	}
	defer func() {
		_ = f.Close()
	}()
	return png.Encode(f, d.dst)
}

func (d *Driver) Close() error { return nil }
