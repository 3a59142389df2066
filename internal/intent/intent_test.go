package intent

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/lucasb-eyer/go-colorful"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/coreman2200/lumisweep/internal/layout"
)

var red = colorful.Color{R: 1}

func el(name string) layout.Element {
	return layout.Element{ID: uuid.NewSHA1(uuid.NameSpaceOID, []byte(name)), Name: name, Pos: layout.Point{X: 1, Y: 1}}
}

func ramp(start, dur int) Intent {
	return Intent{
		Start:    time.Duration(start) * time.Millisecond,
		Duration: time.Duration(dur) * time.Millisecond,
		From:     Light{Color: red, Level: 0},
		To:       Light{Color: red, Level: 1},
	}
}

func TestIntentAt(t *testing.T) {
	it := ramp(100, 100)
	assert.Equal(t, 0.0, it.At(0).Level)
	assert.InDelta(t, 0.5, it.At(150*time.Millisecond).Level, 1e-9)
	assert.Equal(t, 1.0, it.At(time.Second).Level)
	assert.Equal(t, 200*time.Millisecond, it.End())
}

func TestCommandSetOffset(t *testing.T) {
	cs := NewCommandSet(el("a"))
	cs.Add(ramp(0, 50))
	cs.Add(ramp(10, 0))
	require.Equal(t, 1, cs.Len(), "zero length intents are dropped")

	cs.OffsetAllCommandsByTime(250 * time.Millisecond)
	first, ok := cs.First()
	require.True(t, ok)
	assert.Equal(t, 250*time.Millisecond, first.Start)
	assert.Equal(t, 1.0, cs.Peak().Level)
}

func TestEffectIntentsMerges(t *testing.T) {
	a, b := el("a"), el("b")
	e := New()

	cs := NewCommandSet(b)
	cs.Add(ramp(300, 10))
	e.Add(cs)

	cs = NewCommandSet(a)
	cs.Add(ramp(0, 10))
	e.Add(cs)

	cs = NewCommandSet(b)
	cs.Add(ramp(100, 10))
	e.Add(cs)

	e.Add(NewCommandSet(a))

	require.Equal(t, 3, e.Len(), "adding never replaces")
	entries := e.Entries()
	require.Len(t, entries, 3)
	assert.Equal(t, b.ID, entries[0].Element.ID)
	assert.Equal(t, 100*time.Millisecond, entries[0].Intent.Start)
	assert.Equal(t, 300*time.Millisecond, entries[1].Intent.Start)
	assert.Equal(t, a.ID, entries[2].Element.ID)
	assert.Equal(t, 310*time.Millisecond, e.End())

	other := New()
	cs = NewCommandSet(a)
	cs.Add(ramp(500, 10))
	other.Add(cs)
	e.Merge(other)
	assert.Equal(t, 4, e.Len())
	assert.Len(t, e.Elements(), 2)
}

func TestLightAtHighestWins(t *testing.T) {
	a := el("a")
	e := New()
	cs := NewCommandSet(a)
	cs.Add(ramp(0, 100))
	cs.Add(Intent{Start: 0, Duration: 100 * time.Millisecond, From: Light{Color: red, Level: 0.8}, To: Light{Color: red, Level: 0.8}})
	e.Add(cs)

	l, ok := e.LightAt(a.ID, 10*time.Millisecond)
	require.True(t, ok)
	assert.Equal(t, 0.8, l.Level)
	l, _ = e.LightAt(a.ID, 90*time.Millisecond)
	assert.InDelta(t, 0.9, l.Level, 1e-9)

	_, ok = e.LightAt(a.ID, 100*time.Millisecond)
	assert.False(t, ok)
	_, ok = e.LightAt(uuid.New(), 0)
	assert.False(t, ok)
}

func TestClipTo(t *testing.T) {
	a := el("a")
	e := New()
	cs := NewCommandSet(a)
	cs.Add(ramp(0, 100))
	cs.Add(ramp(80, 40))
	cs.Add(ramp(150, 10))
	e.Add(cs)

	e.ClipTo(100 * time.Millisecond)
	its := e.For(a.ID)
	require.Len(t, its, 2)
	assert.Equal(t, 20*time.Millisecond, its[1].Duration)
	assert.InDelta(t, 0.5, its[1].To.Level, 1e-9)
	assert.LessOrEqual(t, e.End(), 100*time.Millisecond)
}
