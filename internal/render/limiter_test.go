package render

import "testing"

func TestDefaultLimiterBudgetClamp(t *testing.T) {
	// 10 voxels all white
	buf := make([]Color, 10)
	for i := range buf {
		buf[i] = Color{1, 1, 1}
	}
	p := Power{ChanMA: 20, BudgetMA: 300, WhiteCap: 3.0, Knee: 0.9}

	// pre-limit current would be 10 * 60 = 600 mA
	DefaultLimiter(buf, p)
	if cur := EstimateCurrent(buf, 20); cur > 300.1 {
		t.Fatalf("expected <= 300mA after limit, got %.2f mA", cur)
	}
}

func TestWhiteCap(t *testing.T) {
	buf := []Color{{1, 1, 1}} // sum=3
	DefaultLimiter(buf, Power{WhiteCap: 1.5})
	if sum := buf[0].R + buf[0].G + buf[0].B; sum > 1.5001 {
		t.Fatalf("expected sum <= 1.5, got %f", sum)
	}
}

func TestPreviewBypassesLimiter(t *testing.T) {
	buf := []Color{{1, 1, 1}}
	DefaultLimiter(buf, Power{WhiteCap: 1, Preview: true})
	if buf[0].R != 1 {
		t.Fatalf("preview should not limit, got %#v", buf[0])
	}
}

func TestApplyLEDExposure(t *testing.T) {
	buf := []Color{{0.25, 0.25, 0.8}}
	ApplyLED(buf, Power{ExposureEV: 1})
	if buf[0].R < 0.49 || buf[0].R > 0.51 || buf[0].B != 1 {
		t.Fatalf("expected doubled and clamped, got %#v", buf[0])
	}
}

func TestFilmicStaysInRange(t *testing.T) {
	buf := []Color{{4, 0, 0.5}}
	FilmicToneMap(buf, Power{})
	for _, v := range []float32{buf[0].R, buf[0].G, buf[0].B} {
		if v < 0 || v > 1 {
			t.Fatalf("out of range %#v", buf[0])
		}
	}
}
