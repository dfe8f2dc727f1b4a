package planner

import "github.com/csdexter/grbl/block"

// estimateAccelerationDistance returns the number of step events
// needed to go from initialRate to targetRate at the given
// steps/min^2 acceleration, by the standard constant-acceleration
// relation v^2 = v0^2 + 2*a*d solved for d in step-event units.
func estimateAccelerationDistance(initialRate, targetRate, acceleration float32) float32 {
	if acceleration == 0 {
		return 0
	}
	return (targetRate*targetRate - initialRate*initialRate) / (2 * acceleration)
}

// calculateTrapezoid fills in b's initial/final rate and the
// accelerate_until/decelerate_after step-event boundaries from its
// (already-settled) entry speed and the given exit speed, per spec.md
// §4.1's "standard constant-acceleration equations" note.
func calculateTrapezoid(b *block.Block, exitSpeed float32, cfg Config) {
	stepsPerMM := float32(b.StepEventCount) / b.Millimeters

	initialRate := ceilf(b.EntrySpeed * stepsPerMM)
	finalRate := ceilf(exitSpeed * stepsPerMM)

	initialRate = clampRate(initialRate, cfg.MinimumStepsPerMinute)
	finalRate = clampRate(finalRate, cfg.MinimumStepsPerMinute)

	accelerationPerMinute := float32(b.RateDelta) * cfg.AccelerationTicksPerSecond * 60

	accelerateSteps := ceilf(estimateAccelerationDistance(initialRate, float32(b.NominalRate), accelerationPerMinute))
	decelerateSteps := floorf(estimateAccelerationDistance(float32(b.NominalRate), finalRate, -accelerationPerMinute))

	if accelerateSteps < 0 {
		accelerateSteps = 0
	}
	if decelerateSteps < 0 {
		decelerateSteps = 0
	}

	plateauSteps := float32(b.StepEventCount) - accelerateSteps - decelerateSteps

	if plateauSteps < 0 {
		// No room for a cruise phase: split the event count between
		// accelerate and decelerate so the trapezoid degenerates into
		// a triangle that still ends exactly at step_event_count.
		accelerateSteps = ceilf((accelerateSteps - decelerateSteps + float32(b.StepEventCount)) / 2)
		if accelerateSteps > float32(b.StepEventCount) {
			accelerateSteps = float32(b.StepEventCount)
		}
		decelerateSteps = float32(b.StepEventCount) - accelerateSteps
		plateauSteps = 0
	}

	b.InitialRate = uint32(initialRate)
	b.FinalRate = uint32(finalRate)
	b.AccelerateUntil = uint32(accelerateSteps)
	b.DecelerateAfter = uint32(accelerateSteps + plateauSteps)
}

func clampRate(rate, floor float32) float32 {
	if rate < floor {
		return floor
	}
	return rate
}

func ceilf(x float32) float32 {
	i := float32(int32(x))
	if x > i {
		return i + 1
	}
	return i
}

func floorf(x float32) float32 {
	i := float32(int32(x))
	if x < i {
		return i - 1
	}
	return i
}
