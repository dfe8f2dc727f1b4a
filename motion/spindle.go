package motion

// SpindleDirection is the M3/M4/M5 selection.
type SpindleDirection int8

const (
	SpindleStopped   SpindleDirection = 0
	SpindleClockwise SpindleDirection = 1
	SpindleCCW       SpindleDirection = -1
)

type spindleState struct {
	direction SpindleDirection
}

// Spindle sets the spindle enable/direction relays, synchronizing the
// buffer first whenever the direction changes, mirroring
// spindle_run. rpm is accepted for interface symmetry with a future
// PWM-speed spindle; this HAL boundary only exposes on/off plus
// direction.
func (f *Front) Spindle(direction SpindleDirection, rpm uint32) error {
	if direction == f.spindleState.direction {
		return nil
	}
	if err := f.Planner.Synchronize(); err != nil {
		return err
	}
	if direction == SpindleStopped {
		f.GPIO.Write(f.pins.SpindleEnable, false)
	} else {
		f.GPIO.Write(f.pins.SpindleDirection, direction < 0)
		f.GPIO.Write(f.pins.SpindleEnable, true)
	}
	f.spindleState.direction = direction
	return nil
}
