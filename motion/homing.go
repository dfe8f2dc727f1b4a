package motion

import "github.com/csdexter/grbl/system"

// AxisMask selects a subset of axes for Home.
type AxisMask uint8

const (
	AxisMaskX AxisMask = 1 << iota
	AxisMaskY
	AxisMaskZ
)

// Home runs the two-phase homing cycle of limits_go_home: approach
// each limit switch at the seek rate, then back off at the feed rate
// until the switch releases, and declare that position machine zero.
// Z homes alone first so the tool clears the work before X/Y move.
func (f *Front) Home(axes AxisMask) error {
	if !f.Settings.HomingEnable {
		return nil
	}
	if err := f.Planner.Synchronize(); err != nil {
		return err
	}

	if axes&AxisMaskZ != 0 {
		f.homingCycle(false, false, true, false, f.Settings.HomingSeek)
	}
	if axes&(AxisMaskX|AxisMaskY) != 0 {
		f.homingCycle(axes&AxisMaskX != 0, axes&AxisMaskY != 0, false, false, f.Settings.HomingSeek)
	}
	f.homingCycle(axes&AxisMaskX != 0, axes&AxisMaskY != 0, axes&AxisMaskZ != 0, true, f.Settings.HomingFeed)

	if axes&AxisMaskX != 0 {
		f.Sys.SetPosition(system.AxisX, 0)
	}
	if axes&AxisMaskY != 0 {
		f.Sys.SetPosition(system.AxisY, 0)
	}
	if axes&AxisMaskZ != 0 {
		f.Sys.SetPosition(system.AxisZ, 0)
	}
	f.Planner.Reset()
	return nil
}

// homingCycle pulses the named axes' step pins directly, bypassing
// the planner and step generator entirely the way homing_cycle does:
// homing moves are not look-ahead planned, so a fixed conservative
// rate is driven straight onto the GPIO boundary instead. dirX/Y/Z
// pins are set once up front (reverse flips them for the pull-off
// pass); each axis drops out of the loop as soon as its limit switch
// reaches the state that direction implies.
//
// This does not apply the settings invert mask to the direction or
// limit-switch polarity the way the original does — a simplification
// acceptable here because the HAL boundary's Sim implementation has
// no concept of active-low wiring to begin with.
func (f *Front) homingCycle(x, y, z, reverse bool, feedRateMMPerMin float32) {
	if !(x || y || z) {
		return
	}

	f.GPIO.Write(f.pins.DirX, !reverse)
	f.GPIO.Write(f.pins.DirY, !reverse)
	f.GPIO.Write(f.pins.DirZ, !reverse)

	period := feedratePeriod(feedRateMMPerMin, f.Settings.StepsPerMM[0])
	pulse := f.Settings.PulseMicroseconds
	var stepDelay uint32
	if period > pulse {
		stepDelay = period - pulse
	}

	for x || y || z {
		if x {
			f.GPIO.Write(f.pins.StepX, true)
		}
		if y {
			f.GPIO.Write(f.pins.StepY, true)
		}
		if z {
			f.GPIO.Write(f.pins.StepZ, true)
		}
		f.Clock.DelayUS(pulse)
		if x {
			f.GPIO.Write(f.pins.StepX, false)
		}
		if y {
			f.GPIO.Write(f.pins.StepY, false)
		}
		if z {
			f.GPIO.Write(f.pins.StepZ, false)
		}
		f.Clock.DelayUS(stepDelay)

		active := f.limitSwitchesActive(reverse)
		if x && active[0] {
			x = false
		}
		if y && active[1] {
			y = false
		}
		if z && active[2] {
			z = false
		}
	}
}

// limitSwitchesActive reads the three limit inputs, applying the
// reverse-direction polarity flip homing_cycle uses when leaving a
// switch (the sense of "tripped" inverts once travel reverses).
func (f *Front) limitSwitchesActive(reverse bool) [3]bool {
	x := f.GPIO.Read(f.pins.LimitX)
	y := f.GPIO.Read(f.pins.LimitY)
	z := f.GPIO.Read(f.pins.LimitZ)
	if reverse {
		x, y, z = !x, !y, !z
	}
	return [3]bool{x, y, z}
}

// feedratePeriod converts a feed rate in mm/min to a step period in
// microseconds at the given axis resolution, mirroring
// FEEDRATE_TO_PERIOD_US.
func feedratePeriod(feedRateMMPerMin, stepsPerMM float32) uint32 {
	if feedRateMMPerMin <= 0 || stepsPerMM <= 0 {
		return 1000
	}
	return uint32(60.0 / (feedRateMMPerMin * stepsPerMM) * 1e6)
}
