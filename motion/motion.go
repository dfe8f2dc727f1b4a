// Package motion is the high-level motion front-end of spec.md §4.3:
// the one gateway every line motion (including arc segments) passes
// through before reaching the planner, plus the axillary machine
// functions (dwell, homing, coolant, spindle, charge pump) grounded on
// original_source/motion_control.c, limits.c, coolant_control.c,
// spindle_control.c and cpump.c.
package motion

import (
	"github.com/csdexter/grbl/hal"
	"github.com/csdexter/grbl/nvsettings"
	"github.com/csdexter/grbl/planner"
	"github.com/csdexter/grbl/system"
)

// Limits clips a target position to the machine's soft travel
// extents, when enabled. A zero-value Limits (Enabled: false)
// performs no clipping, matching a build without LIMIT_SOFT defined.
type Limits struct {
	Enabled bool
	Min     [3]float32
	Max     [3]float32
}

func (l Limits) clip(target [3]float32) [3]float32 {
	if !l.Enabled {
		return target
	}
	for axis := 0; axis < 3; axis++ {
		if target[axis] < l.Min[axis] {
			target[axis] = l.Min[axis]
		}
		if target[axis] > l.Max[axis] {
			target[axis] = l.Max[axis]
		}
	}
	return target
}

// Front is the motion-control front-end: mc_line/mc_arc/mc_dwell and
// the auxiliary machine functions, all funneling through one Planner.
type Front struct {
	Planner  *planner.Planner
	Sys      *system.State
	Settings *nvsettings.Settings
	Limits   Limits

	GPIO       hal.GPIO
	Clock      hal.Clock
	ChargePump hal.ChargePump

	pins Pins

	coolantMode  CoolantMode
	spindleState spindleState
}

// Pins names the GPIO lines motion drives directly (outside the step
// generator's own step/dir boundary): limit switch inputs, coolant
// and spindle relays, and the charge pump output.
type Pins struct {
	LimitX, LimitY, LimitZ hal.Pin
	StepX, StepY, StepZ    hal.Pin
	DirX, DirY, DirZ       hal.Pin
	Mist, Flood            hal.Pin
	SpindleEnable          hal.Pin
	SpindleDirection       hal.Pin
	ChargePump             hal.Pin
}

// NewFront wires a motion front-end and configures the GPIO pins it
// owns directly.
func NewFront(pl *planner.Planner, sys *system.State, settings *nvsettings.Settings, limits Limits, gpio hal.GPIO, clock hal.Clock, pump hal.ChargePump, pins Pins) *Front {
	f := &Front{
		Planner:    pl,
		Sys:        sys,
		Settings:   settings,
		Limits:     limits,
		GPIO:       gpio,
		Clock:      clock,
		ChargePump: pump,
		pins:       pins,
	}
	f.GPIO.Configure(pins.LimitX, hal.PinInput)
	f.GPIO.Configure(pins.LimitY, hal.PinInput)
	f.GPIO.Configure(pins.LimitZ, hal.PinInput)
	f.GPIO.Configure(pins.StepX, hal.PinOutput)
	f.GPIO.Configure(pins.StepY, hal.PinOutput)
	f.GPIO.Configure(pins.StepZ, hal.PinOutput)
	f.GPIO.Configure(pins.DirX, hal.PinOutput)
	f.GPIO.Configure(pins.DirY, hal.PinOutput)
	f.GPIO.Configure(pins.DirZ, hal.PinOutput)
	f.GPIO.Configure(pins.Mist, hal.PinOutput)
	f.GPIO.Configure(pins.Flood, hal.PinOutput)
	f.GPIO.Configure(pins.SpindleEnable, hal.PinOutput)
	f.GPIO.Configure(pins.SpindleDirection, hal.PinOutput)
	f.Stop()
	return f
}

// Line queues a straight-line move, the single gateway every line
// motion (direct or arc-segmented) passes through, mirroring mc_line.
// It clips to the soft limits, hands off to the planner, and honors
// auto-start the way mc_line calls st_cycle_start.
func (f *Front) Line(target [3]float32, feedRate float32, invertFeedRate bool) error {
	target = f.Limits.clip(target)
	if err := f.Planner.BufferLine(target, feedRate, invertFeedRate); err != nil {
		return err
	}
	if f.Sys.AutoStart() {
		f.Sys.Execute(system.ExecCycleStart)
	}
	return nil
}

// Dwell pauses motion for the given duration, synchronizing the
// buffer first and then sleeping in dwellTimeStepMS steps, mirroring
// mc_dwell. Between steps it checks the abort latch and returns early
// once it is set; it does not run the runtime dispatcher itself.
func (f *Front) Dwell(seconds float32) error {
	if err := f.Planner.Synchronize(); err != nil {
		return err
	}
	var remainingMS uint32
	if seconds > 0 {
		remainingMS = uint32(seconds * 1000)
	}
	for remainingMS > dwellTimeStepMS {
		if f.Sys.Abort() {
			return nil
		}
		f.Clock.DelayMS(dwellTimeStepMS)
		remainingMS -= dwellTimeStepMS
	}
	if remainingMS > 0 {
		f.Clock.DelayMS(remainingMS)
	}
	return nil
}

const (
	dwellTimeStepMS      = 50
	dwellTimeStepSeconds = dwellTimeStepMS / 1000.0
)
