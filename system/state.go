// Package system holds the process-wide machine state shared between
// the main (planning/interpreting) goroutine and the step-rate
// goroutine, per spec.md §3 and §5. Every field that crosses the
// goroutine boundary is accessed through an atomic or mutex-guarded
// accessor; there is no raw shared pointer between the two sides.
package system

import (
	"sync"
	"sync/atomic"
)

// ExecFlags is the 8-bit bitfield of pending asynchronous events,
// written by the input context and by the step generator at block
// end, and observed by the main loop at every runtime-dispatch call.
type ExecFlags uint8

const (
	ExecReset ExecFlags = 1 << iota
	ExecFeedHold
	ExecCycleStart
	ExecCycleStop
	ExecStatusReport
)

// Axis indexes the three linear axes.
type Axis int

const (
	AxisX Axis = iota
	AxisY
	AxisZ
	NumAxes = 3
)

// State is the global machine-state record. The zero value is not
// ready for use; call New.
type State struct {
	position  [NumAxes]atomic.Int32
	execute   atomic.Uint32
	abort     atomic.Bool
	feedHold  atomic.Bool
	autoStart atomic.Bool
	cycleStart atomic.Bool

	mu          sync.Mutex
	coordSystem [6][NumAxes]float32 // G54-G59
	coordSelect int
	coordOffset [NumAxes]float32 // G92
}

// New returns a freshly reset machine state.
func New() *State {
	s := &State{}
	s.Reset()
	return s
}

// Reset restores the state a RESET runtime command produces: position
// is left untouched (a stepper controller has no way to know it moved
// during reset), but all flags and the pending-event bitfield are
// cleared and auto-start is re-armed.
func (s *State) Reset() {
	s.execute.Store(0)
	s.abort.Store(false)
	s.feedHold.Store(false)
	s.cycleStart.Store(false)
	s.autoStart.Store(true)
}

// Position returns a snapshot of the machine position in steps.
func (s *State) Position() [NumAxes]int32 {
	var p [NumAxes]int32
	for i := range p {
		p[i] = s.position[i].Load()
	}
	return p
}

// SetPosition overwrites a single axis, e.g. when homing zeroes it.
func (s *State) SetPosition(axis Axis, steps int32) {
	s.position[axis].Store(steps)
}

// StepPosition adjusts a single axis by +1 or -1, called only from the
// step-rate goroutine's Bresenham tick.
func (s *State) StepPosition(axis Axis, delta int32) {
	s.position[axis].Add(delta)
}

// Execute ORs bits into the pending-event bitfield. Safe to call from
// either goroutine.
func (s *State) Execute(bits ExecFlags) {
	for {
		old := s.execute.Load()
		neu := old | uint32(bits)
		if s.execute.CompareAndSwap(old, neu) {
			return
		}
	}
}

// ExecuteClear clears bits from the pending-event bitfield.
func (s *State) ExecuteClear(bits ExecFlags) {
	for {
		old := s.execute.Load()
		neu := old &^ uint32(bits)
		if s.execute.CompareAndSwap(old, neu) {
			return
		}
	}
}

// ExecuteSnapshot returns the currently pending event bits without
// clearing them.
func (s *State) ExecuteSnapshot() ExecFlags {
	return ExecFlags(s.execute.Load())
}

// Abort reports whether a RESET has been latched.
func (s *State) Abort() bool { return s.abort.Load() }

// SetAbort sets or clears the abort latch.
func (s *State) SetAbort(v bool) { s.abort.Store(v) }

// FeedHold reports whether a feed hold is in progress.
func (s *State) FeedHold() bool { return s.feedHold.Load() }

// SetFeedHold sets or clears the feed-hold latch.
func (s *State) SetFeedHold(v bool) { s.feedHold.Store(v) }

// AutoStart reports whether the planner should cycle-start
// automatically after a successful buffer_line.
func (s *State) AutoStart() bool { return s.autoStart.Load() }

// SetAutoStart sets or clears auto-start.
func (s *State) SetAutoStart(v bool) { s.autoStart.Store(v) }

// CycleStart reports whether the step generator believes it is
// running (or should start running).
func (s *State) CycleStart() bool { return s.cycleStart.Load() }

// SetCycleStart sets or clears the cycle-start latch.
func (s *State) SetCycleStart(v bool) { s.cycleStart.Store(v) }

// WorkOffset returns the effective work-coordinate offset for axis:
// the selected G54-G59 system plus the G92 offset.
func (s *State) WorkOffset(axis Axis) float32 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.coordSystem[s.coordSelect][axis] + s.coordOffset[axis]
}

// SelectCoordSystem chooses among the six work systems (0 = G54 .. 5 = G59).
func (s *State) SelectCoordSystem(index int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.coordSelect = index
}

// SetCoordSystem stores an axis origin for one of the six work systems.
func (s *State) SetCoordSystem(index int, axis Axis, value float32) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.coordSystem[index][axis] = value
}

// SetCoordOffset stores the G92 offset for an axis.
func (s *State) SetCoordOffset(axis Axis, value float32) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.coordOffset[axis] = value
}

// ClearCoordOffset resets the G92 offset to zero on all axes.
func (s *State) ClearCoordOffset() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.coordOffset = [NumAxes]float32{}
}
