package render

import (
	"context"
	"errors"
	"sort"

	"github.com/lucasb-eyer/go-colorful"
)

// Color is a linear RGB triple, nominally 0..1 per channel.
type Color struct{ R, G, B float32 }

// FromColorful converts a go-colorful color.
func FromColorful(c colorful.Color) Color {
	return Color{R: float32(c.R), G: float32(c.G), B: float32(c.B)}
}

func (c Color) Colorful() colorful.Color {
	return colorful.Color{R: float64(c.R), G: float64(c.G), B: float64(c.B)}
}

// RGB8 clamps and quantizes the color to 8 bits per channel.
func (c Color) RGB8() (r, g, b uint8) {
	q := func(v float32) uint8 { return uint8(clamp01(v)*255 + 0.5) }
	return q(c.R), q(c.G), q(c.B)
}

// Renderer produces one frame of element colors. Prepare runs once before
// the first frame with the total frame count; dst is indexed by element
// output index.
type Renderer interface {
	Name() string
	Prepare(ctx context.Context, frames int) error
	Render(ctx context.Context, frame int, dst []Color) error
}

type Registry struct{ m map[string]Renderer }

func NewRegistry() *Registry { return &Registry{m: map[string]Renderer{}} }

func (r *Registry) Register(rr Renderer) {
	if rr == nil {
		return
	}
	r.m[rr.Name()] = rr
}

func (r *Registry) Get(name string) (Renderer, bool) { rr, ok := r.m[name]; return rr, ok }

// MustGet is Get returning an error for unknown names.
func (r *Registry) MustGet(name string) (Renderer, error) {
	if r == nil {
		return nil, errors.New("registry is nil")
	}
	rr, ok := r.m[name]
	if !ok {
		return nil, errors.New("renderer not found: " + name)
	}
	return rr, nil
}

func (r *Registry) List() []string {
	out := make([]string, 0, len(r.m))
	for k := range r.m {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}
