package planner

import "github.com/orsinium-labs/tinymath"

// recalculate runs the reverse and forward look-ahead sweeps over the
// buffered blocks from the head back to the buffer's persisted
// next-to-plan cursor (spec.md §4.1), rather than all the way to the
// tail every time: everything below that cursor was already settled by
// an earlier call and the reverse pass's own early-break condition
// would stop there again anyway. The tail itself — index 0 in buf's
// logical numbering — is left alone while anything else is queued: it
// may already be executing. A lone block only gets its trapezoid.
func (p *Planner) recalculate() {
	count := p.buf.Count()
	if count < 2 {
		if count == 1 {
			// Nothing follows it yet: start from rest and plan to
			// arrive at MinimumPlannerSpeed.
			calculateTrapezoid(p.buf.At(0), p.cfg.MinimumPlannerSpeed, p.cfg)
		}
		return
	}

	// floor is the boundary an earlier call already settled down to;
	// the reverse pass never revisits it, only what was queued above
	// it since. A fresh buffer (nothing settled yet) reports 0, which
	// makes the pass below cover the entire queue above the tail.
	floor := p.buf.PlannedIndex()
	if floor > count-1 {
		floor = count - 1
	}

	// Reverse pass: head -> floor+1 (logical indices count-1 down to
	// floor+1). stop holds the new boundary: it stays at floor if the
	// pass runs to exhaustion without finding anything to change, or
	// moves up to wherever an unchanged nominal-length block breaks it
	// early.
	stop := floor
	for i := count - 1; i > floor; i-- {
		b := p.buf.At(i)
		var successorEntry float32
		if i == count-1 {
			successorEntry = p.cfg.MinimumPlannerSpeed
		} else {
			successorEntry = p.buf.At(i + 1).EntrySpeed
		}

		if b.NominalLengthFlag {
			newEntry := reachableEntrySpeed(b.MaxEntrySpeed, successorEntry, b.Millimeters, p.cfg.Acceleration)
			if newEntry == b.EntrySpeed {
				// Unchanged: everything below this point in the queue
				// is already settled.
				stop = i
				break
			}
		}

		b.EntrySpeed = reachableEntrySpeed(b.MaxEntrySpeed, successorEntry, b.Millimeters, p.cfg.Acceleration)
		if b.EntrySpeed < p.cfg.MinimumPlannerSpeed {
			b.EntrySpeed = p.cfg.MinimumPlannerSpeed
		}
		b.NominalLengthFlag = b.EntrySpeed >= b.NominalSpeed-epsilon
	}
	if stop < 1 {
		stop = 1 // index 0 is the tail; it is never recalculated.
	}
	p.buf.SetPlannedIndex(stop)

	// Forward pass: stop -> head (logical indices stop .. count-1).
	for i := stop; i < count; i++ {
		b := p.buf.At(i)
		pred := p.buf.At(i - 1)
		if pred.NominalLengthFlag {
			continue
		}
		limit := reachableEntrySpeed(largeSpeed, pred.EntrySpeed, pred.Millimeters, p.cfg.Acceleration)
		if b.EntrySpeed > limit {
			b.EntrySpeed = limit
		}
	}

	// Recompute trapezoid parameters from stop to the head. The newest
	// block assumes it will be the last one ever queued and plans to
	// arrive at MinimumPlannerSpeed; if another block is inserted
	// afterward this pass runs again and corrects it.
	for i := stop; i < count; i++ {
		b := p.buf.At(i)
		var exitSpeed float32
		if i == count-1 {
			exitSpeed = p.cfg.MinimumPlannerSpeed
		} else {
			exitSpeed = p.buf.At(i + 1).EntrySpeed
		}
		calculateTrapezoid(b, exitSpeed, p.cfg)
	}
}

// reachableEntrySpeed is spec.md §4.1's `sqrt(v_next^2 + 2*a*d)`,
// capped by ceiling (either a block's max_entry_speed in the reverse
// pass, or largeSpeed — i.e. no extra cap — in the forward pass).
func reachableEntrySpeed(ceiling, nextSpeed, millimeters, acceleration float32) float32 {
	reachable := sqrtf(nextSpeed*nextSpeed + 2*acceleration*millimeters)
	if reachable > ceiling {
		return ceiling
	}
	return reachable
}

const epsilon = 1e-4

// sqrtf wraps tinymath.Sqrt under a name that reads naturally next to
// the other float32 helpers in this file.
func sqrtf(x float32) float32 {
	return tinymath.Sqrt(x)
}
