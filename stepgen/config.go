package stepgen

import (
	"github.com/csdexter/grbl/block"
	"github.com/csdexter/grbl/hal"
)

// Config holds the hardware wiring and timing constants the step
// generator needs. Rates are in steps/minute to match block.Block;
// FOSC is the notional oscillator frequency the Timer implementation
// counts cycles against.
type Config struct {
	StepPins [3]hal.Pin
	DirPins  [3]hal.Pin

	// InvertStep and InvertDir flip the active level of the
	// corresponding pins, mirroring settings.invert.masks.stepdir.
	InvertStep block.DirBits
	InvertDir  block.DirBits

	FOSC                     uint32
	PulseMicroseconds        uint32
	CyclesPerAccelerationTick uint32
	MinimumStepsPerMinute    uint32

	// StepperIdleLockMS holds the axes energized for this long after a
	// cycle ends before disabling drivers, so residual inertia doesn't
	// drift the final position.
	StepperIdleLockMS uint32

	// EnablePin, if non-nil, is driven active while a cycle runs and
	// released StepperIdleLockMS after it ends.
	EnablePin       *hal.Pin
	InvertEnable    bool

	// TimerID and PulseTimerID select which of the Timer
	// implementation's lines drive the step-rate ticker and the
	// step-pulse reset, respectively.
	TimerID      int
	PulseTimerID int
}

func (c Config) timerID() int {
	if c.TimerID == 0 {
		return 1
	}
	return c.TimerID
}

func (c Config) pulseTimerID() int {
	if c.PulseTimerID == 0 {
		return 2
	}
	return c.PulseTimerID
}

func (c Config) pulseCycles() uint32 {
	if c.FOSC == 0 {
		return 1
	}
	cycles := uint64(c.FOSC) * uint64(c.PulseMicroseconds) / 1000000
	if cycles == 0 {
		cycles = 1
	}
	return uint32(cycles)
}
