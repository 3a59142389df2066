package fake

import (
	"sync"

	"github.com/rs/zerolog/log"

	"github.com/coreman2200/lumisweep/internal/render"
)

// Driver logs a compact summary of each frame (first element and average)
// and keeps the last frame, useful for headless runs and tests.
type Driver struct {
	mu    sync.Mutex
	Count int
	last  []render.Color
}

func (d *Driver) Write(buf []render.Color) error {
	d.mu.Lock()
	d.Count++
	d.last = append(d.last[:0], buf...)
	n := d.Count
	d.mu.Unlock()

	var r, g, b float64
	for i := range buf {
		r += float64(buf[i].R)
		g += float64(buf[i].G)
		b += float64(buf[i].B)
	}
	cnt := float64(max(1, len(buf)))
	ev := log.Debug().Int("frame", n).
		Float64("avg_r", r/cnt).Float64("avg_g", g/cnt).Float64("avg_b", b/cnt)
	if len(buf) > 0 {
		ev = ev.Float32("first_r", buf[0].R).Float32("first_g", buf[0].G).Float32("first_b", buf[0].B)
	}
	ev.Msg("fake frame")
	return nil
}

// Last returns a copy of the most recent frame.
func (d *Driver) Last() []render.Color {
	d.mu.Lock()
	defer d.mu.Unlock()
	return append([]render.Color(nil), d.last...)
}

func (d *Driver) Close() error { return nil }
