package render

// Lerp blends c toward o by alpha (0..1). Channels are linear.
func (c Color) Lerp(o Color, alpha float32) Color {
	return Color{
		R: c.R + (o.R-c.R)*alpha,
		G: c.G + (o.G-c.G)*alpha,
		B: c.B + (o.B-c.B)*alpha,
	}
}

// Mix blends two framebuffers (a,b) into dst using alpha (0..1).
func Mix(dst, a, b []Color, alpha float64) {
	if alpha <= 0 {
		copy(dst, a)
		return
	}
	if alpha >= 1 {
		copy(dst, b)
		return
	}
	af := float32(alpha)
	for i := range dst {
		dst[i] = a[i].Lerp(b[i], af)
	}
}
