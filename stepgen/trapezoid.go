package stepgen

import (
	"github.com/csdexter/grbl/block"
	"github.com/csdexter/grbl/system"
)

// advanceTrapezoid runs the velocity state machine for one step event
// that is not the block's last, following original_source/stepper.c's
// de/ac-celeration branch. It either continues a feed-hold
// deceleration, accelerates toward the block's nominal rate, holds
// that rate, or decelerates toward the block's final rate, each on the
// ACCELERATION_TICKS_PER_SECOND cadence enforced by
// iterateTrapezoidCycleCounter.
func (g *Generator) advanceTrapezoid(b *block.Block) {
	cyclesPerStepEvent := g.cyclesPerStepEvent()

	if g.sys.FeedHold() {
		// NOTE: the tick counter is not reset here so the deceleration
		// stays smooth no matter where in a block the hold began, even
		// if it spans multiple blocks.
		if !g.iterateTrapezoidCycleCounter(cyclesPerStepEvent) {
			return
		}
		if g.trapezoidAdjustedRate <= b.RateDelta {
			g.goIdle()
			g.sys.SetCycleStart(false)
			g.sys.Execute(system.ExecCycleStop)
			return
		}
		g.trapezoidAdjustedRate -= b.RateDelta
		g.setStepEventsPerMinute(g.trapezoidAdjustedRate)
		return
	}

	switch {
	case g.stepsDone < b.AccelerateUntil:
		if g.iterateTrapezoidCycleCounter(cyclesPerStepEvent) {
			g.trapezoidAdjustedRate += b.RateDelta
			if g.trapezoidAdjustedRate >= b.NominalRate {
				g.trapezoidAdjustedRate = b.NominalRate
			}
			g.setStepEventsPerMinute(g.trapezoidAdjustedRate)
		}

	case g.stepsDone >= b.DecelerateAfter:
		if g.stepsDone == b.DecelerateAfter {
			g.trapezoidTickCycleCounter = g.cfg.CyclesPerAccelerationTick / 2
			return
		}
		if g.iterateTrapezoidCycleCounter(cyclesPerStepEvent) {
			if g.trapezoidAdjustedRate > g.minSafeRate {
				g.trapezoidAdjustedRate -= b.RateDelta
			} else {
				g.trapezoidAdjustedRate /= 2
			}
			if g.trapezoidAdjustedRate < b.FinalRate {
				g.trapezoidAdjustedRate = b.FinalRate
			}
			g.setStepEventsPerMinute(g.trapezoidAdjustedRate)
		}

	default:
		if g.trapezoidAdjustedRate != b.NominalRate {
			g.trapezoidAdjustedRate = b.NominalRate
			g.setStepEventsPerMinute(g.trapezoidAdjustedRate)
		}
	}
}
