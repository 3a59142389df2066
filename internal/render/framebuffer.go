package render

// FrameBuffer is a 2-D pixel canvas. Pixels never written this frame read
// as unset so a renderer can composite only what it drew.
type FrameBuffer struct {
	W, H int
	Pix  []Color
	set  []bool
}

func NewFrameBuffer(w, h int) *FrameBuffer {
	w, h = max(w, 0), max(h, 0)
	return &FrameBuffer{W: w, H: h, Pix: make([]Color, w*h), set: make([]bool, w*h)}
}

// Clear marks every pixel unset and black.
func (f *FrameBuffer) Clear() {
	clear(f.Pix)
	clear(f.set)
}

// Set writes a pixel. Coordinates outside the canvas are ignored.
func (f *FrameBuffer) Set(x, y int, c Color) {
	if x < 0 || y < 0 || x >= f.W || y >= f.H {
		return
	}
	i := y*f.W + x
	f.Pix[i] = c
	f.set[i] = true
}

// At returns the pixel and whether it was written since the last Clear.
func (f *FrameBuffer) At(x, y int) (Color, bool) {
	if x < 0 || y < 0 || x >= f.W || y >= f.H {
		return Color{}, false
	}
	i := y*f.W + x
	return f.Pix[i], f.set[i]
}

// Lit counts the pixels written since the last Clear.
func (f *FrameBuffer) Lit() int {
	n := 0
	for _, s := range f.set {
		if s {
			n++
		}
	}
	return n
}
