package render

import "math"

// Power holds the output shaping parameters. Zero values mean defaults.
type Power struct {
	WhiteCap   float64 // per-LED R+G+B cap in linear space, default 3 (no cap)
	ChanMA     float64 // mA per channel at full scale, default 20 (WS2812)
	BudgetMA   float64 // global budget; 0 disables the budget stage
	Knee       float64 // fraction of budget where soft limiting begins, default 0.9
	ExposureEV float64
	Gamma      float64 // output gamma for the preview path, default 2.2
	Preview    bool    // bypass the limiter
}

// FilmicToneMap applies exposure, an ACES approximation and output gamma.
func FilmicToneMap(buf []Color, p Power) {
	gamma := 2.2
	if p.Gamma > 0 {
		gamma = p.Gamma
	}
	exposure := float32(math.Pow(2.0, p.ExposureEV))

	for i := range buf {
		r := acesApprox(buf[i].R * exposure)
		g := acesApprox(buf[i].G * exposure)
		b := acesApprox(buf[i].B * exposure)

		if gamma != 1.0 {
			ig := 1.0 / gamma
			r = powf(r, ig)
			g = powf(g, ig)
			b = powf(b, ig)
		}

		buf[i].R = clamp01(r)
		buf[i].G = clamp01(g)
		buf[i].B = clamp01(b)
	}
}

// DefaultLimiter applies a two-stage limiter:
// 1) Per-LED "white cap": scales (R,G,B) so R+G+B <= WhiteCap
// 2) Global current budget: estimates current and scales the whole frame to stay under BudgetMA
func DefaultLimiter(buf []Color, p Power) {
	if p.Preview {
		return
	}
	whiteCap := 3.0
	chanmA := 20.0
	knee := 0.9
	if p.WhiteCap > 0 {
		whiteCap = p.WhiteCap
	}
	if p.ChanMA > 0 {
		chanmA = p.ChanMA
	}
	if p.Knee > 0 && p.Knee < 1 {
		knee = p.Knee
	}

	wc := float32(whiteCap)
	for i := range buf {
		s := buf[i].R + buf[i].G + buf[i].B
		if s > wc && s > 0 {
			scale := wc / s
			buf[i].R *= scale
			buf[i].G *= scale
			buf[i].B *= scale
		}
	}

	if p.BudgetMA <= 0 {
		return
	}
	total := EstimateCurrent(buf, chanmA)
	if total <= 0 {
		return
	}
	ratio := total / p.BudgetMA
	if ratio <= 1.0 {
		if ratio <= knee {
			return
		}
		// map ratio in [knee,1] to scale in [1, budget/total]
		minS := p.BudgetMA / total
		t := (ratio - knee) / (1.0 - knee)
		applyGlobalScale(buf, float32(1.0-t*(1.0-minS)))
		return
	}
	applyGlobalScale(buf, float32(p.BudgetMA/total))
}

// EstimateCurrent is the limiter's current model in mA.
func EstimateCurrent(buf []Color, chanmA float64) float64 {
	var total float64
	for i := range buf {
		total += float64(buf[i].R+buf[i].G+buf[i].B) * chanmA
	}
	return total
}

// ApplyLED does exposure as a linear scale, then the limiter and a clamp.
// No tone curve: LEDs want linear 0..1.
func ApplyLED(buf []Color, p Power) {
	if p.ExposureEV != 0 {
		applyGlobalScale(buf, float32(math.Pow(2, p.ExposureEV)))
	}
	DefaultLimiter(buf, p)
	for i := range buf {
		buf[i] = Color{R: clamp01(buf[i].R), G: clamp01(buf[i].G), B: clamp01(buf[i].B)}
	}
}

func applyGlobalScale(buf []Color, s float32) {
	if s == 1.0 {
		return
	}
	for i := range buf {
		buf[i].R *= s
		buf[i].G *= s
		buf[i].B *= s
	}
}

func clamp01(x float32) float32 {
	if x < 0 {
		return 0
	}
	if x > 1 {
		return 1
	}
	return x
}

func powf(x float32, p float64) float32 {
	return float32(math.Pow(float64(x), p))
}

// Approximate ACES filmic curve (Narkowicz 2015).
func acesApprox(x float32) float32 {
	a := float32(2.51)
	b := float32(0.03)
	c := float32(2.43)
	d := float32(0.59)
	e := float32(0.14)
	return clamp01((x * (a*x + b)) / (x*(c*x+d) + e))
}
