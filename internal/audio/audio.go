// Package audio turns a decoded audio stream into a loudness lookup. Levels
// are in dBFS, 0 being full scale and Floor the quietest reported value.
package audio

import (
	"errors"
	"fmt"
	"math"
	"os"
	"time"

	"github.com/gopxl/beep"
	"github.com/gopxl/beep/effects"
	"github.com/gopxl/beep/wav"
)

// Floor is the level reported for silence.
const Floor = -100.0

// Source answers loudness queries at a time offset in milliseconds.
type Source interface {
	VolumeAtTime(ms int) float64
}

// Func adapts a plain function to Source.
type Func func(ms int) float64

func (f Func) VolumeAtTime(ms int) float64 { return f(ms) }

// Options tune the analysis. Gain is added to unity (0 leaves the signal
// untouched). Attack and decay smooth the envelope; zero disables smoothing.
type Options struct {
	Gain      float64
	Attack    time.Duration
	Decay     time.Duration
	Normalize bool
	Window    time.Duration // default 1ms
}

// Analyzer holds a precomputed level per analysis window.
type Analyzer struct {
	window time.Duration
	levels []float64
}

// Open decodes a WAV file and analyzes the part between start and
// start+length. A zero length reads to the end of the stream.
func Open(path string, start, length time.Duration, opt Options) (*Analyzer, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	s, format, err := wav.Decode(f)
	if err != nil {
		f.Close()
		return nil, fmt.Errorf("decode %s: %w", path, err)
	}
	defer s.Close()
	return Analyze(s, format, start, length, opt)
}

// Analyze consumes s and builds the level table.
func Analyze(s beep.Streamer, format beep.Format, start, length time.Duration, opt Options) (*Analyzer, error) {
	if s == nil {
		return nil, errors.New("nil streamer")
	}
	if format.SampleRate <= 0 {
		return nil, fmt.Errorf("invalid sample rate %d", format.SampleRate)
	}
	window := opt.Window
	if window <= 0 {
		window = time.Millisecond
	}
	perWindow := max(1, format.SampleRate.N(window))

	var src beep.Streamer = s
	if opt.Gain != 0 {
		src = &effects.Gain{Streamer: s, Gain: opt.Gain}
	}

	buf := make([][2]float64, 512)
	if skip := format.SampleRate.N(start); skip > 0 {
		for skip > 0 {
			n, ok := src.Stream(buf[:min(skip, len(buf))])
			skip -= n
			if !ok {
				break
			}
		}
	}

	limit := -1
	if length > 0 {
		limit = format.SampleRate.N(length)
	}

	var peaks []float64
	win := make([][2]float64, perWindow)
	read := 0
	for limit < 0 || read < limit {
		want := perWindow
		if limit >= 0 && limit-read < want {
			want = limit - read
		}
		n, ok := src.Stream(win[:want])
		if n > 0 {
			peak := 0.0
			for _, smp := range win[:n] {
				peak = math.Max(peak, math.Max(math.Abs(smp[0]), math.Abs(smp[1])))
			}
			peaks = append(peaks, peak)
			read += n
		}
		if !ok {
			break
		}
	}
	if err := src.Err(); err != nil {
		return nil, err
	}

	envelope(peaks, window, opt.Attack, opt.Decay)
	if opt.Normalize {
		normalize(peaks)
	}
	levels := make([]float64, len(peaks))
	for i, p := range peaks {
		levels[i] = toDB(p)
	}
	return &Analyzer{window: window, levels: levels}, nil
}

// VolumeAtTime returns the level of the window holding ms. Times outside
// the analyzed range are silent.
func (a *Analyzer) VolumeAtTime(ms int) float64 {
	if a == nil || ms < 0 {
		return Floor
	}
	i := int(time.Duration(ms) * time.Millisecond / a.window)
	if i >= len(a.levels) {
		return Floor
	}
	return a.levels[i]
}

// Len is the number of analysis windows.
func (a *Analyzer) Len() int { return len(a.levels) }

func coeff(window, tc time.Duration) float64 {
	if tc <= 0 {
		return 1
	}
	return 1 - math.Exp(-float64(window)/float64(tc))
}

// envelope smooths peaks in place with separate rise/fall time constants.
func envelope(peaks []float64, window, attack, decay time.Duration) {
	up, down := coeff(window, attack), coeff(window, decay)
	env := 0.0
	for i, p := range peaks {
		if p > env {
			env += (p - env) * up
		} else {
			env += (p - env) * down
		}
		peaks[i] = env
	}
}

func normalize(peaks []float64) {
	top := 0.0
	for _, p := range peaks {
		top = math.Max(top, p)
	}
	if top <= 0 {
		return
	}
	for i := range peaks {
		peaks[i] /= top
	}
}

func toDB(v float64) float64 {
	if v <= 0 {
		return Floor
	}
	db := 20 * math.Log10(v)
	if db < Floor {
		return Floor
	}
	if db > 0 {
		return 0
	}
	return db
}
