// Package wipe sweeps a pulse across positioned elements. Elements are
// bucketed into ordered steps by a shape metric, then a movement mode walks
// the steps over the effect window and emits one pulse per element visit.
package wipe

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/rs/zerolog/log"

	"github.com/coreman2200/lumisweep/internal/audio"
	"github.com/coreman2200/lumisweep/internal/intent"
	"github.com/coreman2200/lumisweep/internal/layout"
	"github.com/coreman2200/lumisweep/internal/mark"
	"github.com/coreman2200/lumisweep/internal/pulse"
)

// Effect is one wipe instance over one window.
type Effect struct {
	Config Config

	Duration  time.Duration
	StartTime time.Duration // window start on the show clock, used for marks
	Elements  []layout.Element

	Audio audio.Source
	Marks mark.Source
	Pulse pulse.Renderer
}

type run struct {
	cfg   Config
	e     *Effect
	pulse pulse.Renderer
	plan  Plan
	out   *intent.EffectIntents
}

// Render partitions the elements and schedules the pulses. On cancellation
// the partial stream is returned with ctx.Err().
func (e *Effect) Render(ctx context.Context) (*intent.EffectIntents, error) {
	out := intent.New()
	if err := checkIDs(e.Elements); err != nil {
		return out, err
	}
	cfg := e.Config.withDefaults()
	plan, err := Partition(ctx, e.Elements, cfg)
	if err != nil {
		return out, err
	}
	if len(plan.Groups) == 0 || e.Duration <= 0 {
		log.Debug().Str("shape", cfg.Shape.String()).Msg("wipe: nothing to render")
		return out, nil
	}

	r := &run{cfg: cfg, e: e, pulse: e.Pulse, plan: plan, out: out}
	if r.pulse == nil {
		r.pulse = pulse.Sampler{}
	}
	switch cfg.Movement {
	case Count:
		err = r.count(ctx)
	case PulseLength:
		err = r.pulseLength(ctx)
	default:
		err = r.movement(ctx)
	}
	if err != nil {
		return out, err
	}
	out.ClipTo(e.Duration)

	log.Debug().
		Str("shape", cfg.Shape.String()).
		Str("movement", cfg.Movement.String()).
		Int("groups", len(plan.Groups)).
		Int("intents", out.Len()).
		Msg("wipe rendered")
	return out, nil
}

// checkIDs rejects located elements without an ID or sharing one, since the
// intent stream is keyed by element ID.
func checkIDs(els []layout.Element) error {
	seen := make(map[uuid.UUID]string, len(els))
	for _, el := range els {
		if !el.Located() {
			continue
		}
		if el.ID == uuid.Nil {
			return fmt.Errorf("wipe: element %q at %v has no id", el.Name, el.Pos)
		}
		if prev, ok := seen[el.ID]; ok {
			return fmt.Errorf("wipe: elements %q and %q share id %s", prev, el.Name, el.ID)
		}
		seen[el.ID] = el.Name
	}
	return nil
}
