// Package planner implements the look-ahead motion planner of
// spec.md §4.1: it inserts straight-line moves at the head of a
// block.Buffer, maintains the junction-speed invariant across the
// queued window on every insertion, and derives each block's
// trapezoid parameters for the step generator to execute.
package planner

import (
	"errors"
	"math"
	"time"

	"github.com/orsinium-labs/tinymath"

	"github.com/csdexter/grbl/block"
	"github.com/csdexter/grbl/runtime"
	"github.com/csdexter/grbl/system"
)

// dispatchPollInterval bounds how long BufferLine/Synchronize wait on
// a block.Buffer.Cond before re-checking runtime.Dispatch, so a
// runtime command unrelated to buffer occupancy (e.g. a RESET typed
// at the console) is still observed promptly.
const dispatchPollInterval = 5 * time.Millisecond

// ErrAborted is returned by BufferLine and Synchronize when a RESET
// runtime command was observed while they were waiting.
var ErrAborted = errors.New("planner: aborted")

// Planner owns the block buffer and the bookkeeping needed to plan
// into it: the cartesian position of the tip of the queue (which may
// be well ahead of the machine's actual, currently-executing
// position) and the unit vector of the most recently queued move, for
// the next junction-speed computation.
type Planner struct {
	cfg  Config
	buf  *block.Buffer
	sys  *system.State
	disp *runtime.Dispatcher

	queueTip    [3]float32
	lastUnit    [3]float32
}

// New returns a planner over buf, reading runtime commands from disp
// while it waits on a full buffer.
func New(cfg Config, buf *block.Buffer, sys *system.State, disp *runtime.Dispatcher) *Planner {
	return &Planner{cfg: cfg, buf: buf, sys: sys, disp: disp}
}

// Buffer exposes the underlying ring, mainly so the step generator can
// be constructed against it.
func (p *Planner) Buffer() *block.Buffer { return p.buf }

// SetPosition resets the planner's notion of "where the queue tip is"
// to an absolute position, without touching the buffer. Used after
// homing and after a RESET, when the queue has been drained and the
// next move must plan from the machine's actual position.
func (p *Planner) SetPosition(pos [3]float32) {
	p.queueTip = pos
	p.lastUnit = [3]float32{}
}

// Position returns the planner's current queue-tip position.
func (p *Planner) Position() [3]float32 { return p.queueTip }

// Reset resyncs the queue tip to the machine's actual position and
// forgets the last queued direction, satisfying runtime.Resetter for a
// RESET runtime command. The buffer is emptied by the dispatcher
// separately; whatever the queue tip was planning toward is gone along
// with it, so the next move must plan from where the machine actually
// is, not from the discarded queue's notion of where it was headed.
func (p *Planner) Reset() {
	steps := p.sys.Position()
	var pos [3]float32
	for axis := 0; axis < 3; axis++ {
		pos[axis] = float32(steps[axis]) / p.cfg.StepsPerMM[axis]
	}
	p.SetPosition(pos)
}

// BufferLine queues one straight-line move to target (absolute
// cartesian mm), blocking while the buffer is full and cooperatively
// draining runtime commands meanwhile. A zero-length move is dropped
// silently, matching spec.md §4.1.
func (p *Planner) BufferLine(target [3]float32, feedRate float32, invertFeedRate bool) error {
	for p.buf.Full() {
		p.disp.Dispatch()
		if p.sys.Abort() {
			return ErrAborted
		}
		p.buf.WaitForChange(dispatchPollInterval)
	}

	delta := [3]float32{
		target[0] - p.queueTip[0],
		target[1] - p.queueTip[1],
		target[2] - p.queueTip[2],
	}

	var steps [3]uint32
	var dir block.DirBits
	for axis := 0; axis < 3; axis++ {
		s := roundHalfToEven(delta[axis] * p.cfg.StepsPerMM[axis])
		if s < 0 {
			dir |= 1 << uint(axis)
			s = -s
		}
		steps[axis] = uint32(s)
	}

	stepEventCount := maxU32(steps[0], steps[1], steps[2])
	if stepEventCount == 0 {
		return nil // zero-length move
	}

	millimeters := tinymath.Sqrt(delta[0]*delta[0] + delta[1]*delta[1] + delta[2]*delta[2])
	if millimeters == 0 {
		return nil
	}

	var nominalSpeed float32
	if invertFeedRate {
		nominalSpeed = millimeters * feedRate
	} else {
		nominalSpeed = minf(feedRate, tinymath.Sqrt(2*p.cfg.Acceleration*millimeters))
	}
	if nominalSpeed < p.cfg.MinimumPlannerSpeed {
		nominalSpeed = p.cfg.MinimumPlannerSpeed
	}

	rateDelta := (p.cfg.Acceleration * float32(stepEventCount) / millimeters) / p.cfg.AccelerationTicksPerSecond
	nominalRate := ceilf(nominalSpeed * float32(stepEventCount) / millimeters)
	if nominalRate < p.cfg.MinimumStepsPerMinute {
		nominalRate = p.cfg.MinimumStepsPerMinute
	}

	unit := [3]float32{delta[0] / millimeters, delta[1] / millimeters, delta[2] / millimeters}

	maxEntry := junctionSpeed(p.lastUnit, unit, p.cfg)
	if maxEntry > nominalSpeed {
		maxEntry = nominalSpeed
	}

	b := p.buf.Reserve()
	*b = block.Block{
		Steps:             steps,
		Direction:         dir,
		StepEventCount:    stepEventCount,
		Millimeters:       millimeters,
		NominalSpeed:      nominalSpeed,
		NominalRate:       uint32(nominalRate),
		MaxEntrySpeed:     maxEntry,
		EntrySpeed:        0,
		RateDelta:         uint32(rateDelta),
		RecalculateFlag:   true,
		NominalLengthFlag: false,
	}
	b.SetUnitVector(unit)
	p.buf.Commit()

	p.queueTip = target
	p.lastUnit = unit

	p.recalculate()

	return nil
}

// Synchronize blocks until the buffer is empty and the step generator
// has gone idle (cycle start cleared), cooperatively draining runtime
// commands meanwhile.
func (p *Planner) Synchronize() error {
	for !p.buf.Empty() || p.sys.CycleStart() {
		p.disp.Dispatch()
		if p.sys.Abort() {
			return ErrAborted
		}
		p.buf.WaitForChange(dispatchPollInterval)
	}
	return nil
}

// CycleReinitialize is called by the step generator (via its
// runtime.StepGenerator.CycleReinitialize hook) when a feed hold has
// finished decelerating. remainingEvents is the step-event count left
// in the block the generator was executing when the hold completed;
// that block's trapezoid is replanned to start from rest over the
// remaining distance, and the rest of the queue is then fully
// re-planned against it.
func (p *Planner) CycleReinitialize(remainingEvents uint32) {
	tail := p.buf.Tail()
	if tail == nil {
		return
	}

	tail.Millimeters = tail.Millimeters * float32(remainingEvents) / float32(tail.StepEventCount)
	tail.StepEventCount = remainingEvents
	tail.EntrySpeed = 0
	tail.NominalLengthFlag = false
	tail.RecalculateFlag = true

	p.recalculate()

	exitSpeed := p.cfg.MinimumPlannerSpeed
	if p.buf.Count() > 1 {
		exitSpeed = p.buf.At(1).EntrySpeed
	}
	calculateTrapezoid(tail, exitSpeed, p.cfg)
}

func roundHalfToEven(x float32) int32 {
	return int32(math.RoundToEven(float64(x)))
}

func maxU32(vals ...uint32) uint32 {
	m := vals[0]
	for _, v := range vals[1:] {
		if v > m {
			m = v
		}
	}
	return m
}

func minf(a, b float32) float32 {
	if a < b {
		return a
	}
	return b
}
