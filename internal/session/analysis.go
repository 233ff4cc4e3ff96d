package session

import (
	"context"
	"sync"

	"solo-persona/backend/internal/models"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/sync/errgroup"
)

const instrumentationName = "solo-persona/backend/session"

var (
	instrumentsOnce sync.Once
	cyclesCounter   metric.Int64Counter
	matchesCounter  metric.Int64Counter
)

func instruments() (metric.Int64Counter, metric.Int64Counter) {
	instrumentsOnce.Do(func() {
		meter := otel.Meter(instrumentationName)
		cyclesCounter, _ = meter.Int64Counter("solo_persona.analysis.cycles",
			metric.WithDescription("Analysis cycles started, by kind."))
		matchesCounter, _ = meter.Int64Counter("solo_persona.match.checks",
			metric.WithDescription("Compatibility checks started."))
	})
	return cyclesCounter, matchesCounter
}

// startCycle launches profile-then-portraits in the background. Caller holds the lock.
func (c *Controller) startCycle(regenerate bool) {
	c.abortCycle()
	gen := c.cycleGen
	ctx, cancel := context.WithCancel(c.ctx)
	c.cycleCancel = cancel

	traits, gender := c.s.Traits, c.s.Gender
	kind := "initial"
	if regenerate {
		kind = "regenerate"
	}
	cycles, _ := instruments()
	if cycles != nil {
		cycles.Add(ctx, 1, metric.WithAttributes(attribute.String("kind", kind)))
	}

	c.wg.Add(1)
	go func() {
		defer c.wg.Done()
		defer cancel()
		c.runCycle(ctx, gen, kind, traits, gender)
	}()
}

func (c *Controller) runCycle(ctx context.Context, gen uint64, kind string, traits models.UserTraits, gender models.Gender) {
	ctx, span := otel.Tracer(instrumentationName).Start(ctx, "analysis.cycle",
		trace.WithAttributes(
			attribute.String("session.id", c.id),
			attribute.String("cycle.kind", kind),
		))
	defer span.End()

	profile := c.deps.Profiles.AnalyzePersonality(ctx, traits, gender)

	c.mu.Lock()
	if gen != c.cycleGen {
		c.mu.Unlock()
		span.AddEvent("discarded")
		return
	}
	c.s.Profile = &profile
	c.s.State = StateResult
	c.s.Regenerating = false
	c.s.SelfPortrait = nil
	c.s.PartnerPortrait = nil
	if kind == "regenerate" {
		c.abortMatch()
	}
	c.s.GeneratingImages = profile.VisualDescription != ""
	c.changed()
	c.mu.Unlock()

	if profile.VisualDescription == "" {
		return
	}

	// Each portrait fills its own slot as soon as it arrives.
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		p := c.deps.Portraits.GeneratePortrait(gctx, profile.VisualDescription, gender)
		c.setPortrait(gen, SlotSelf, p)
		return nil
	})
	g.Go(func() error {
		p := c.deps.Portraits.GeneratePortrait(gctx, profile.IdealPartnerVisualDescription, gender.Opposite())
		c.setPortrait(gen, SlotPartner, p)
		return nil
	})
	_ = g.Wait()

	c.mu.Lock()
	defer c.mu.Unlock()
	if gen != c.cycleGen {
		return
	}
	c.s.GeneratingImages = false
	c.changed()
}

func (c *Controller) setPortrait(gen uint64, slot Slot, p *models.Portrait) {
	if p == nil {
		return
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	if gen != c.cycleGen {
		return
	}
	if slot == SlotSelf {
		c.s.SelfPortrait = p
	} else {
		c.s.PartnerPortrait = p
	}
	c.changed()
}

// startMatch runs a compatibility check in the background. Caller holds the lock.
func (c *Controller) startMatch(profile models.CharacterProfile, partner string) {
	gen := c.matchGen
	ctx, cancel := context.WithCancel(c.ctx)
	c.matchCancel = cancel

	_, matches := instruments()
	if matches != nil {
		matches.Add(ctx, 1)
	}

	c.wg.Add(1)
	go func() {
		defer c.wg.Done()
		defer cancel()

		ctx, span := otel.Tracer(instrumentationName).Start(ctx, "match.check",
			trace.WithAttributes(attribute.String("session.id", c.id)))
		defer span.End()

		result := c.deps.Matches.AnalyzeMatch(ctx, profile, partner)

		c.mu.Lock()
		defer c.mu.Unlock()
		if gen != c.matchGen {
			span.AddEvent("discarded")
			return
		}
		c.s.Match = &result
		c.s.Matching = false
		c.matchCancel = nil
		c.changed()
	}()
}
