// Package runtime implements the single-byte asynchronous command
// dispatcher of spec.md §4.4: a small set of bits set by the input
// context (or by the step generator at block end) and drained, in
// priority order, at every planner wait point, every dwell step, and
// the top of every parsed line.
//
// This package depends only on system.State and on interfaces it
// defines itself, so it can sit underneath both the planner (which
// polls it while blocked) and the step generator (which implements
// those interfaces) without an import cycle.
package runtime

import "github.com/csdexter/grbl/system"

// StepGenerator is the subset of the step generator's control surface
// the dispatcher drives. A concrete *stepgen.Generator satisfies this
// interface structurally.
type StepGenerator interface {
	FeedHold()
	CycleStart()
	CycleReinitialize()
	Reset()
}

// StatusReporter emits a machine/work position report, e.g. to the
// serial console, on EXEC_STATUS_REPORT.
type StatusReporter interface {
	Report()
}

// Resetter is satisfied by any collaborator whose state must return to
// its power-on defaults as part of a RESET runtime command. A concrete
// *block.Buffer, *planner.Planner, or *gcode.Interpreter each satisfy
// this structurally; the dispatcher never imports those packages
// directly, so this stays the narrow seam between them.
type Resetter interface {
	Reset()
}

// Dispatcher holds the collaborators execute_runtime touches.
// StepGen and Reporter may be nil; a nil StepGen makes
// FEED_HOLD/CYCLE_START/CYCLE_STOP no-ops (useful before the step
// generator has been wired up), and a nil Reporter silently drops
// STATUS_REPORT requests. Buffer, Planner, and Interp are likewise
// optional and are each reset in turn on RESET, ahead of Sys itself.
type Dispatcher struct {
	Sys      *system.State
	StepGen  StepGenerator
	Reporter StatusReporter

	Buffer  Resetter
	Planner Resetter
	Interp  Resetter
}

// NewDispatcher returns a Dispatcher over sys. StepGen and Reporter
// can be attached afterward via the exported fields, since the step
// generator is typically constructed after the dispatcher it will be
// plugged into.
func NewDispatcher(sys *system.State) *Dispatcher {
	return &Dispatcher{Sys: sys}
}

// Dispatch drains and handles every pending bit, in the priority order
// spec.md §4.4 specifies: RESET, STATUS_REPORT, FEED_HOLD, CYCLE_STOP,
// CYCLE_START. RESET runs its own full cancel sequence and returns
// immediately; there is nothing else useful to do in the same pass
// once every subsystem has just been put back to its defaults.
func (d *Dispatcher) Dispatch() {
	pending := d.Sys.ExecuteSnapshot()
	if pending == 0 {
		return
	}

	if pending&system.ExecReset != 0 {
		d.reset()
		return
	}

	if pending&system.ExecStatusReport != 0 {
		if d.Reporter != nil {
			d.Reporter.Report()
		}
		d.Sys.ExecuteClear(system.ExecStatusReport)
	}

	if pending&system.ExecFeedHold != 0 {
		if d.StepGen != nil {
			d.StepGen.FeedHold()
		}
		d.Sys.ExecuteClear(system.ExecFeedHold)
	}

	if pending&system.ExecCycleStop != 0 {
		if d.StepGen != nil {
			d.StepGen.CycleReinitialize()
		}
		d.Sys.ExecuteClear(system.ExecCycleStop)
	}

	if pending&system.ExecCycleStart != 0 {
		if d.StepGen != nil {
			d.StepGen.CycleStart()
		}
		d.Sys.SetAutoStart(true)
		d.Sys.ExecuteClear(system.ExecCycleStart)
	}
}

// reset runs spec.md's "RESET is the universal cancel" sequence: the
// block buffer is emptied, the step generator is forced to idle at its
// next tick, and the planner's queue tip and the interpreter's modal
// state both return to their defaults.
//
// abort is left latched rather than cleared here: a planner or motion
// call already blocked in a wait loop (BufferLine, Synchronize, Dwell)
// polls Dispatch and then checks Sys.Abort itself, so the latch has to
// survive this call long enough for that unwind to observe it and bail
// out with ErrAborted instead of resuming against state that was just
// pulled out from under it. The console clears it, exactly once, after
// it has used the latch to discard whatever line was in flight — that
// is what lets the console "silently re-arm" for the next line instead
// of staying bricked.
func (d *Dispatcher) reset() {
	if d.Buffer != nil {
		d.Buffer.Reset()
	}
	if d.StepGen != nil {
		d.StepGen.Reset()
	}
	if d.Planner != nil {
		d.Planner.Reset()
	}
	if d.Interp != nil {
		d.Interp.Reset()
	}
	d.Sys.ExecuteClear(system.ExecReset)
	d.Sys.SetFeedHold(false)
	d.Sys.SetCycleStart(false)
	d.Sys.SetAutoStart(true)
	d.Sys.SetAbort(true)
}
