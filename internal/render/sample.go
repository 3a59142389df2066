package render

import (
	"time"

	"github.com/coreman2200/lumisweep/internal/intent"
)

// SampleIntents resolves every element of s at time t into dst by output
// index. Elements without an active intent, or without a slot in dst, are
// left untouched.
func SampleIntents(s *intent.EffectIntents, t time.Duration, dst []Color) {
	if s == nil {
		return
	}
	for _, el := range s.Elements() {
		if el.Index < 0 || el.Index >= len(dst) {
			continue
		}
		if l, ok := s.LightAt(el.ID, t); ok {
			dst[el.Index] = FromColorful(l.Scaled())
		}
	}
}
