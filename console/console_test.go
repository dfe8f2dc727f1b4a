package console

import (
	"bytes"
	"testing"

	qt "github.com/frankban/quicktest"

	"github.com/csdexter/grbl/block"
	"github.com/csdexter/grbl/gcode"
	"github.com/csdexter/grbl/hal"
	"github.com/csdexter/grbl/motion"
	"github.com/csdexter/grbl/nvsettings"
	"github.com/csdexter/grbl/planner"
	"github.com/csdexter/grbl/runtime"
	"github.com/csdexter/grbl/system"
)

func newTestConsole() (*Console, *hal.SimSerial, *bytes.Buffer, *system.State) {
	sys := system.New()
	disp := runtime.NewDispatcher(sys)
	buf := block.NewBuffer(16)
	disp.Buffer = buf
	pl := planner.New(planner.DefaultConfig(), buf, sys, disp)
	disp.Planner = pl
	settings := nvsettings.Default()

	gpio := hal.NewSimGPIO()
	clock := &hal.SimClock{Speedup: 10000}
	pump := &hal.SimChargePump{}
	pins := motion.Pins{
		LimitX: 10, LimitY: 11, LimitZ: 12,
		StepX: 0, StepY: 1, StepZ: 2,
		DirX: 3, DirY: 4, DirZ: 5,
		Mist: 6, Flood: 7,
		SpindleEnable: 8, SpindleDirection: 9,
		ChargePump: 13,
	}
	front := motion.NewFront(pl, sys, &settings, motion.Limits{}, gpio, clock, pump, pins)
	interp := gcode.New(front, sys)
	disp.Interp = interp

	serial := hal.NewSimSerial(256)
	var out bytes.Buffer
	con := New(serial, sys, disp, interp, &settings, &out)
	return con, serial, &out, sys
}

func TestConsoleValidLineRespondsOk(t *testing.T) {
	c := qt.New(t)
	con, serial, out, _ := newTestConsole()

	serial.Feed([]byte("G21 G90 G1 X10 F600\n"))
	con.Service()

	c.Assert(out.String(), qt.Equals, "ok\r\n")
}

func TestConsoleBadLineRespondsError(t *testing.T) {
	c := qt.New(t)
	con, serial, out, _ := newTestConsole()

	serial.Feed([]byte("Q5\n"))
	con.Service()

	c.Assert(out.String(), qt.Matches, `error:.*\r\n`)
}

func TestConsoleBlankLineProducesNoResponse(t *testing.T) {
	c := qt.New(t)
	con, serial, out, _ := newTestConsole()

	serial.Feed([]byte("\n"))
	con.Service()

	c.Assert(out.String(), qt.Equals, "")
}

func TestConsoleBlockDeleteStripsSlashPrefix(t *testing.T) {
	c := qt.New(t)
	con, serial, out, _ := newTestConsole()

	serial.Feed([]byte("/G21 G90 G1 X10 F600\n"))
	con.Service()

	c.Assert(out.String(), qt.Equals, "ok\r\n")
}

func TestConsoleDollarLineGoesToSettings(t *testing.T) {
	c := qt.New(t)
	con, serial, out, _ := newTestConsole()

	serial.Feed([]byte("$7=20\n"))
	con.Service()

	c.Assert(out.String(), qt.Equals, "ok\r\n")
	c.Assert(con.Settings.Acceleration, qt.Equals, float32(20*3600))
}

func TestConsoleBareDollarDumpsSettings(t *testing.T) {
	c := qt.New(t)
	con, serial, out, _ := newTestConsole()

	serial.Feed([]byte("$\n"))
	con.Service()

	c.Assert(out.String(), qt.Contains, "$0 = 250 (steps/mm x)\r\n")
	c.Assert(out.String(), qt.Contains, "ok\r\n")
}

func TestConsoleQuestionMarkTriggersStatusReportRequestImmediately(t *testing.T) {
	c := qt.New(t)
	con, serial, _, sys := newTestConsole()

	serial.Feed([]byte("?"))
	con.Service()

	c.Assert(sys.ExecuteSnapshot()&system.ExecStatusReport != 0, qt.IsTrue)
}

func TestConsoleRuntimeCommandsAreNotBufferedIntoLine(t *testing.T) {
	c := qt.New(t)
	con, serial, out, _ := newTestConsole()

	// '!' (feed hold) arrives mid-line; it must not become part of the
	// accumulated G-code line.
	serial.Feed([]byte("G1 X10!F600\n"))
	con.Service()

	c.Assert(out.String(), qt.Not(qt.Matches), `(?s).*!.*`)
}

// A RESET byte sets the pending bit asynchronously; the dispatcher only
// drains it at the top of the next parsed line, so that line is the one
// spec.md's cancel sequence "discards" — it must get a bare ok without
// any of its G-code taking effect. Critically, the console must then
// re-arm: the line after that has to run normally, not be swallowed
// too.
func TestConsoleResetDiscardsNextLineThenReArms(t *testing.T) {
	c := qt.New(t)
	con, serial, out, _ := newTestConsole()
	buf := con.Interp.Motion.Planner.Buffer()

	serial.Feed([]byte{0x18})
	con.Service()

	serial.Feed([]byte("G1 X10 F600\n"))
	con.Service()
	c.Assert(out.String(), qt.Equals, "ok\r\n")
	c.Assert(buf.Count(), qt.Equals, 0)
	c.Assert(con.Sys.Abort(), qt.IsFalse)

	out.Reset()
	serial.Feed([]byte("G1 X10 F600\n"))
	con.Service()
	c.Assert(out.String(), qt.Equals, "ok\r\n")
	c.Assert(buf.Count(), qt.Equals, 1)
}

func TestConsoleRunawayLineIsDiscarded(t *testing.T) {
	c := qt.New(t)
	con, serial, out, _ := newTestConsole()

	serial.Feed(bytes.Repeat([]byte("X"), lineBufferSize+10))
	con.Service()

	c.Assert(out.String(), qt.Contains, "error: line too long\r\n")
}
