package motion

import "github.com/csdexter/grbl/hal"

// chargePumpFrequencyHz is the fixed output frequency cpump_init
// starts the charge pump at.
const chargePumpFrequencyHz = 12500

// StartChargePump starts the periodic liveness signal external servo
// drive controllers watch for, mirroring cpump_init. Called once at
// system startup.
func (f *Front) StartChargePump() {
	if f.ChargePump == nil {
		return
	}
	f.ChargePump.Start(f.pins.ChargePump, chargePumpFrequencyHz, hal.WaveformSquare)
}

// StopChargePump halts the charge pump. Nothing in this module calls
// it: a RESET/abort leaves the pump running.
func (f *Front) StopChargePump() {
	if f.ChargePump == nil {
		return
	}
	f.ChargePump.Stop()
}
