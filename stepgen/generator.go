// Package stepgen is the step-pulse generator of spec.md §4.2: it
// drains the tail of a block.Buffer at a variable rate set by each
// block's trapezoid parameters, pulsing the step/direction GPIOs with
// a Bresenham line tracer and adjusting the rate on a fixed tick so
// the speed profile follows the planned trapezoid.
//
// The original firmware (original_source/stepper.c) runs this as two
// cooperating hardware-timer interrupts: one fires at the current
// step rate and does the Bresenham work, the other fires once per
// step to reset the pulse after a fixed pulse width. Generator plays
// the same role against the hal.Timer abstraction, so the same
// algorithm runs whether the timer is a real peripheral or
// hal.SimTimer's goroutine-driven stand-in.
package stepgen

import (
	"sync/atomic"

	"github.com/csdexter/grbl/block"
	"github.com/csdexter/grbl/hal"
	"github.com/csdexter/grbl/planner"
	"github.com/csdexter/grbl/system"
)

// Generator owns the Bresenham and trapezoid state the tick handler
// advances. The zero value is not ready for use; call New.
type Generator struct {
	cfg Config

	gpio  hal.GPIO
	timer hal.Timer
	clock hal.Clock

	buf *block.Buffer
	sys *system.State
	pl  *planner.Planner

	busy atomic.Bool

	currentBlock *block.Block
	counter      [3]int32
	eventCount   uint32
	stepsDone    uint32

	trapezoidAdjustedRate     uint32
	trapezoidTickCycleCounter uint32
	minSafeRate               uint32

	// pendingDir/pendingStep are the bits Bresenham computed during the
	// previous tick, emitted at the top of this one: direction must be
	// stable at least one tick before the matching step edge, per
	// spec.md §4.2, independent of the step-rate interrupt's jitter.
	pendingDir   block.DirBits
	pendingStep  block.DirBits
	havePending  bool
}

// New returns a step generator wired against gpio/timer/clock, reading
// from buf and reporting position into sys. pl is the planner whose
// CycleReinitialize a completed feed hold replans against.
func New(cfg Config, gpio hal.GPIO, timer hal.Timer, clock hal.Clock, buf *block.Buffer, sys *system.State, pl *planner.Planner) *Generator {
	return &Generator{cfg: cfg, gpio: gpio, timer: timer, clock: clock, buf: buf, sys: sys, pl: pl}
}

// Init configures the GPIO directions and timer lines and leaves the
// generator idle, mirroring st_init.
func (g *Generator) Init() {
	for _, p := range g.cfg.StepPins {
		g.gpio.Configure(p, hal.PinOutput)
	}
	for _, p := range g.cfg.DirPins {
		g.gpio.Configure(p, hal.PinOutput)
	}
	if g.cfg.EnablePin != nil {
		g.gpio.Configure(*g.cfg.EnablePin, hal.PinOutput)
		g.setEnabled(false)
	}
	g.resetPulsePins()

	g.timer.SetPrescaler(g.cfg.timerID(), 0)
	g.timer.EnableCTC(g.cfg.timerID())

	g.timer.SetPrescaler(g.cfg.pulseTimerID(), 0)
	g.timer.EnableInterrupt(g.cfg.pulseTimerID(), hal.InterruptCompareA, g.resetPulsePins)

	g.Reset()
	g.goIdle()
}

// Reset clears the Bresenham and trapezoid state, mirroring st_reset.
// Called once at startup and after an abort.
func (g *Generator) Reset() {
	g.currentBlock = nil
	g.counter = [3]int32{}
	g.eventCount = 0
	g.stepsDone = 0
	g.trapezoidAdjustedRate = 0
	g.trapezoidTickCycleCounter = 0
	g.minSafeRate = 0
	g.pendingDir = 0
	g.pendingStep = 0
	g.havePending = false
	g.busy.Store(false)
	g.setStepEventsPerMinute(g.cfg.MinimumStepsPerMinute)
}

// goIdle disables the step-rate interrupt and, after the idle-lock
// delay, de-energizes the drivers. Mirrors st_go_idle.
func (g *Generator) goIdle() {
	g.timer.DisableInterrupt(g.cfg.timerID(), hal.InterruptCompareA)
	if g.cfg.EnablePin != nil {
		if g.cfg.StepperIdleLockMS > 0 && g.clock != nil {
			g.clock.DelayMS(g.cfg.StepperIdleLockMS)
		}
		g.setEnabled(false)
	}
}

func (g *Generator) setEnabled(on bool) {
	if g.cfg.EnablePin == nil {
		return
	}
	g.gpio.Write(*g.cfg.EnablePin, on != g.cfg.InvertEnable)
}

// wakeUp arms the drivers and the step-rate interrupt. Mirrors
// st_wake_up.
func (g *Generator) wakeUp() {
	g.setEnabled(true)
	g.timer.EnableInterrupt(g.cfg.timerID(), hal.InterruptCompareA, g.tick)
}

// CycleStart begins executing the buffer if it is not already running
// or decelerating for a feed hold. Mirrors st_cycle_start, and
// satisfies runtime.StepGenerator.
func (g *Generator) CycleStart() {
	if g.sys.CycleStart() || g.sys.FeedHold() {
		return
	}
	g.sys.SetCycleStart(true)
	g.wakeUp()
}

// FeedHold arms a deceleration-to-stop at the current rate_delta, only
// while a cycle is actually running. Mirrors st_feed_hold, and
// satisfies runtime.StepGenerator.
func (g *Generator) FeedHold() {
	if g.sys.FeedHold() || !g.sys.CycleStart() {
		return
	}
	g.sys.SetAutoStart(false)
	g.sys.SetFeedHold(true)
}

// CycleReinitialize replans the in-progress block from its current
// position after a feed hold has fully decelerated, and resumes from
// rest. Mirrors st_cycle_reinitialize, and satisfies
// runtime.StepGenerator.
func (g *Generator) CycleReinitialize() {
	if g.currentBlock != nil {
		g.pl.CycleReinitialize(g.currentBlock.StepEventCount - g.stepsDone)
		g.trapezoidAdjustedRate = 0
		g.setStepEventsPerMinute(g.trapezoidAdjustedRate)
		g.trapezoidTickCycleCounter = g.cfg.CyclesPerAccelerationTick / 2
		g.stepsDone = 0
	}
	g.sys.SetFeedHold(false)
}

func (g *Generator) setStepEventsPerMinute(stepsPerMinute uint32) {
	if stepsPerMinute < g.cfg.MinimumStepsPerMinute {
		stepsPerMinute = g.cfg.MinimumStepsPerMinute
	}
	reload := g.cfg.FOSC * 60 / stepsPerMinute
	g.timer.SetReload(g.cfg.timerID(), reload)
}

// iterateTrapezoidCycleCounter accumulates elapsed step-rate cycles
// and reports whether a full acceleration tick has elapsed, following
// the midpoint rule (original_source/stepper.c).
func (g *Generator) iterateTrapezoidCycleCounter(cyclesPerStepEvent uint32) bool {
	g.trapezoidTickCycleCounter += cyclesPerStepEvent
	if g.trapezoidTickCycleCounter > g.cfg.CyclesPerAccelerationTick {
		g.trapezoidTickCycleCounter -= g.cfg.CyclesPerAccelerationTick
		return true
	}
	return false
}

func (g *Generator) cyclesPerStepEvent() uint32 {
	rate := g.trapezoidAdjustedRate
	if rate < g.cfg.MinimumStepsPerMinute {
		rate = g.cfg.MinimumStepsPerMinute
	}
	return g.cfg.FOSC * 60 / rate
}

// tick is the step-rate timer handler: it pops a block if none is
// current, advances the Bresenham counters by one step event, and
// runs the trapezoid state machine. It is the Go counterpart of
// original_source/stepper.c's ISR(TIMER1_COMPA_vect).
func (g *Generator) tick() {
	if !g.busy.CompareAndSwap(false, true) {
		return
	}
	defer g.busy.Store(false)

	if g.havePending {
		g.writePins(g.pendingDir, g.pendingStep)
		g.havePending = false
	}

	if g.currentBlock == nil {
		g.currentBlock = g.buf.Tail()
		if g.currentBlock == nil {
			g.goIdle()
			g.sys.SetCycleStart(false)
			g.sys.Execute(system.ExecCycleStop)
			return
		}
		if !g.sys.FeedHold() {
			g.trapezoidAdjustedRate = g.currentBlock.InitialRate
			g.setStepEventsPerMinute(g.trapezoidAdjustedRate)
			g.trapezoidTickCycleCounter = g.cfg.CyclesPerAccelerationTick / 2
		}
		g.minSafeRate = g.currentBlock.RateDelta + g.currentBlock.RateDelta/2
		g.counter[0] = -int32(g.currentBlock.StepEventCount >> 1)
		g.counter[1] = g.counter[0]
		g.counter[2] = g.counter[0]
		g.eventCount = g.currentBlock.StepEventCount
		g.stepsDone = 0
	}

	b := g.currentBlock
	dirBits := b.Direction
	var stepBits block.DirBits
	for axis := 0; axis < 3; axis++ {
		g.counter[axis] += int32(b.Steps[axis])
		if g.counter[axis] > 0 {
			stepBits |= 1 << uint(axis)
			g.counter[axis] -= int32(g.eventCount)
			if dirBits.Negative(system.Axis(axis)) {
				g.sys.StepPosition(system.Axis(axis), -1)
			} else {
				g.sys.StepPosition(system.Axis(axis), 1)
			}
		}
	}
	g.pendingDir = dirBits
	g.pendingStep = stepBits
	g.havePending = true

	g.stepsDone++

	if g.stepsDone < b.StepEventCount {
		g.advanceTrapezoid(b)
	} else {
		g.currentBlock = nil
		g.buf.Discard()
	}
}

func (g *Generator) writePins(dirBits, stepBits block.DirBits) {
	for axis := 0; axis < 3; axis++ {
		level := dirBits.Negative(system.Axis(axis)) != g.cfg.InvertDir.Negative(system.Axis(axis))
		g.gpio.Write(g.cfg.DirPins[axis], level)
	}
	any := false
	for axis := 0; axis < 3; axis++ {
		set := stepBits&(1<<uint(axis)) != 0
		level := set != g.cfg.InvertStep.Negative(system.Axis(axis))
		g.gpio.Write(g.cfg.StepPins[axis], level)
		any = any || set
	}
	if any {
		g.timer.SetCompare(g.cfg.pulseTimerID(), 0, g.cfg.pulseCycles())
	}
}

// resetPulsePins drives every step pin back to its inactive level; it
// is the step-pulse timer's compare handler, called once per step
// after PulseMicroseconds has elapsed.
func (g *Generator) resetPulsePins() {
	for axis := 0; axis < 3; axis++ {
		level := g.cfg.InvertStep.Negative(system.Axis(axis))
		g.gpio.Write(g.cfg.StepPins[axis], level)
	}
}
