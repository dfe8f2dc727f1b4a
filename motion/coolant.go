package motion

// CoolantMode is the bitmask the M7/M8/M9 words select, mirroring
// coolant_control.c's COOLANT_MIST/COOLANT_FLOOD bits.
type CoolantMode uint8

const (
	CoolantOff   CoolantMode = 0
	CoolantMist  CoolantMode = 1 << 0
	CoolantFlood CoolantMode = 1 << 1
)

// Coolant sets the coolant relays to mode, synchronizing the buffer
// first whenever the mode actually changes so the previous moves
// finish under the old coolant state, mirroring coolant_run.
func (f *Front) Coolant(mode CoolantMode) error {
	if mode == f.coolantMode {
		return nil
	}
	if err := f.Planner.Synchronize(); err != nil {
		return err
	}
	if mode == CoolantOff {
		f.GPIO.Write(f.pins.Mist, false)
		f.GPIO.Write(f.pins.Flood, false)
	} else {
		f.GPIO.Write(f.pins.Mist, mode&CoolantMist != 0)
		f.GPIO.Write(f.pins.Flood, mode&CoolantFlood != 0)
	}
	f.coolantMode = mode
	return nil
}

// CoolantModeOr returns the coolant mode that results from adding bit
// to whatever is currently running, for M7/M8's "mist and flood can
// combine" semantics.
func (f *Front) CoolantModeOr(bit CoolantMode) CoolantMode {
	return f.coolantMode | bit
}

// Stop turns off coolant and spindle unconditionally, e.g. on
// RESET, without waiting for the buffer to drain.
func (f *Front) Stop() {
	f.GPIO.Write(f.pins.Mist, false)
	f.GPIO.Write(f.pins.Flood, false)
	f.coolantMode = CoolantOff

	f.GPIO.Write(f.pins.SpindleEnable, false)
	f.spindleState = spindleState{}
}
