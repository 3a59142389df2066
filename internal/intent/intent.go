// Package intent holds the command stream produced by an effect render: per
// element linear light ramps keyed by absolute start time.
package intent

import (
	"sort"
	"time"

	"github.com/google/uuid"
	"github.com/lucasb-eyer/go-colorful"

	"github.com/coreman2200/lumisweep/internal/layout"
)

// Light is a color at a level in [0,1].
type Light struct {
	Color colorful.Color
	Level float64
}

// Scaled returns the light's color multiplied by its level.
func (l Light) Scaled() colorful.Color {
	return colorful.Color{R: l.Color.R * l.Level, G: l.Color.G * l.Level, B: l.Color.B * l.Level}
}

// Intent ramps linearly from From to To over [Start, Start+Duration).
type Intent struct {
	Start    time.Duration
	Duration time.Duration
	From, To Light
}

func (it Intent) End() time.Duration { return it.Start + it.Duration }

// At returns the interpolated light at absolute time t. Times outside the
// intent clamp to its ends.
func (it Intent) At(t time.Duration) Light {
	if it.Duration <= 0 || t <= it.Start {
		return it.From
	}
	if t >= it.End() {
		return it.To
	}
	f := float64(t-it.Start) / float64(it.Duration)
	return Light{
		Color: it.From.Color.BlendRgb(it.To.Color, f),
		Level: it.From.Level + (it.To.Level-it.From.Level)*f,
	}
}

// CommandSet is the ordered intents of one element.
type CommandSet struct {
	Element layout.Element
	Intents []Intent
}

// NewCommandSet returns an empty set for el.
func NewCommandSet(el layout.Element) CommandSet {
	return CommandSet{Element: el}
}

// Add appends an intent. Zero length intents are dropped.
func (cs *CommandSet) Add(it Intent) {
	if it.Duration <= 0 {
		return
	}
	cs.Intents = append(cs.Intents, it)
}

// OffsetAllCommandsByTime shifts every intent by d.
func (cs *CommandSet) OffsetAllCommandsByTime(d time.Duration) {
	for i := range cs.Intents {
		cs.Intents[i].Start += d
	}
}

func (cs CommandSet) Len() int { return len(cs.Intents) }

// First returns the earliest intent.
func (cs CommandSet) First() (Intent, bool) {
	if len(cs.Intents) == 0 {
		return Intent{}, false
	}
	first := cs.Intents[0]
	for _, it := range cs.Intents[1:] {
		if it.Start < first.Start {
			first = it
		}
	}
	return first, true
}

// Last returns the intent ending latest.
func (cs CommandSet) Last() (Intent, bool) {
	if len(cs.Intents) == 0 {
		return Intent{}, false
	}
	last := cs.Intents[0]
	for _, it := range cs.Intents[1:] {
		if it.End() > last.End() {
			last = it
		}
	}
	return last, true
}

// Peak returns the brightest light reached by any intent.
func (cs CommandSet) Peak() Light {
	var p Light
	for _, it := range cs.Intents {
		if it.From.Level > p.Level {
			p = it.From
		}
		if it.To.Level > p.Level {
			p = it.To
		}
	}
	return p
}

// Entry is one (element, intent) pair of a stream.
type Entry struct {
	Element layout.Element
	Intent  Intent
}

// EffectIntents accumulates command sets. It only ever grows: adding a set
// for an element that already has intents appends to them.
type EffectIntents struct {
	order []uuid.UUID
	sets  map[uuid.UUID]*CommandSet
}

func New() *EffectIntents {
	return &EffectIntents{sets: map[uuid.UUID]*CommandSet{}}
}

// Add merges cs into the stream.
func (e *EffectIntents) Add(cs CommandSet) {
	if len(cs.Intents) == 0 {
		return
	}
	cur, ok := e.sets[cs.Element.ID]
	if !ok {
		cur = &CommandSet{Element: cs.Element}
		e.sets[cs.Element.ID] = cur
		e.order = append(e.order, cs.Element.ID)
	}
	cur.Intents = append(cur.Intents, cs.Intents...)
}

// Merge adds every set of o.
func (e *EffectIntents) Merge(o *EffectIntents) {
	if o == nil {
		return
	}
	for _, id := range o.order {
		e.Add(*o.sets[id])
	}
}

// Len is the total number of intents.
func (e *EffectIntents) Len() int {
	n := 0
	for _, cs := range e.sets {
		n += len(cs.Intents)
	}
	return n
}

// Elements returns the elements with intents, in the order first added.
func (e *EffectIntents) Elements() []layout.Element {
	out := make([]layout.Element, 0, len(e.order))
	for _, id := range e.order {
		out = append(out, e.sets[id].Element)
	}
	return out
}

// For returns the intents of one element, ordered by start.
func (e *EffectIntents) For(id uuid.UUID) []Intent {
	cs, ok := e.sets[id]
	if !ok {
		return nil
	}
	out := make([]Intent, len(cs.Intents))
	copy(out, cs.Intents)
	sortIntents(out)
	return out
}

// Entries lists every intent ordered by element (first added first) then
// start time.
func (e *EffectIntents) Entries() []Entry {
	out := make([]Entry, 0, e.Len())
	for _, id := range e.order {
		cs := e.sets[id]
		for _, it := range e.For(id) {
			out = append(out, Entry{Element: cs.Element, Intent: it})
		}
	}
	return out
}

// End is the latest end time across all intents.
func (e *EffectIntents) End() time.Duration {
	var end time.Duration
	for _, cs := range e.sets {
		for _, it := range cs.Intents {
			end = max(end, it.End())
		}
	}
	return end
}

// LightAt resolves the element's light at t. Overlapping intents combine
// highest level wins.
func (e *EffectIntents) LightAt(id uuid.UUID, t time.Duration) (Light, bool) {
	cs, ok := e.sets[id]
	if !ok {
		return Light{}, false
	}
	var (
		best  Light
		found bool
	)
	for _, it := range cs.Intents {
		if t < it.Start || t >= it.End() {
			continue
		}
		l := it.At(t)
		if !found || l.Level > best.Level {
			best, found = l, true
		}
	}
	return best, found
}

// ClipTo drops intents starting at or after window and truncates those
// running past it, interpolating the end state.
func (e *EffectIntents) ClipTo(window time.Duration) {
	for _, cs := range e.sets {
		kept := cs.Intents[:0]
		for _, it := range cs.Intents {
			if it.Start >= window {
				continue
			}
			if it.End() > window {
				it.To = it.At(window)
				it.Duration = window - it.Start
			}
			kept = append(kept, it)
		}
		cs.Intents = kept
	}
}

func sortIntents(its []Intent) {
	sort.SliceStable(its, func(i, j int) bool { return its[i].Start < its[j].Start })
}
