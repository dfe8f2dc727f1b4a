package gcode

import (
	"testing"

	qt "github.com/frankban/quicktest"

	"github.com/csdexter/grbl/block"
	"github.com/csdexter/grbl/hal"
	"github.com/csdexter/grbl/motion"
	"github.com/csdexter/grbl/nvsettings"
	"github.com/csdexter/grbl/planner"
	"github.com/csdexter/grbl/runtime"
	"github.com/csdexter/grbl/system"
)

func newTestInterpreter() *Interpreter {
	sys := system.New()
	disp := runtime.NewDispatcher(sys)
	// Nothing drains this buffer, so it must hold every arc segment a
	// test queues.
	buf := block.NewBuffer(512)
	pl := planner.New(planner.DefaultConfig(), buf, sys, disp)
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
	return New(front, sys)
}

func TestTokenizeSplitsWordsAndStripsComments(t *testing.T) {
	c := qt.New(t)

	toks, err := Tokenize("G1 X10.5 Y-2 (move to corner) F600")
	c.Assert(err, qt.IsNil)
	c.Assert(toks, qt.HasLen, 4)
	c.Assert(toks[0], qt.Equals, Word{'G', 1})
	c.Assert(toks[1], qt.Equals, Word{'X', 10.5})
	c.Assert(toks[2], qt.Equals, Word{'Y', -2})
	c.Assert(toks[3], qt.Equals, Word{'F', 600})
}

func TestTokenizeSemicolonComment(t *testing.T) {
	c := qt.New(t)
	toks, err := Tokenize("G0 X1 ; rapid to start")
	c.Assert(err, qt.IsNil)
	c.Assert(toks, qt.HasLen, 2)
}

func TestTokenizeRejectsScientificNotation(t *testing.T) {
	c := qt.New(t)
	_, err := Tokenize("G1X1E3")
	c.Assert(err, qt.Not(qt.IsNil))
	pe, ok := err.(*ParseError)
	c.Assert(ok, qt.IsTrue)
	c.Assert(pe.Kind, qt.Equals, BadNumberFormat)
}

func TestTokenizeRejectsMissingValue(t *testing.T) {
	c := qt.New(t)
	_, err := Tokenize("G1 X")
	c.Assert(err, qt.Not(qt.IsNil))
}

func TestModalGroupViolationRejectsTwoMotionWords(t *testing.T) {
	c := qt.New(t)
	it := newTestInterpreter()

	err := it.Execute("G0 G1 X10")
	c.Assert(err, qt.Not(qt.IsNil))
	pe, ok := err.(*ParseError)
	c.Assert(ok, qt.IsTrue)
	c.Assert(pe.Kind, qt.Equals, ModalGroupViolation)
}

func TestParseErrorLeavesModalStateUntouched(t *testing.T) {
	c := qt.New(t)
	it := newTestInterpreter()

	c.Assert(it.Execute("G91"), qt.IsNil)
	c.Assert(it.Modal.Distance, qt.Equals, DistanceIncremental)

	err := it.Execute("G1 X")
	c.Assert(err, qt.Not(qt.IsNil))
	c.Assert(it.Modal.Distance, qt.Equals, DistanceIncremental)
}

func TestLinearMoveAdvancesMachinePosition(t *testing.T) {
	c := qt.New(t)
	it := newTestInterpreter()

	c.Assert(it.Execute("G21 G90 G1 X10 Y5 F600"), qt.IsNil)
	c.Assert(it.machinePos, qt.Equals, [3]float32{10, 5, 0})
	c.Assert(it.Modal.Motion, qt.Equals, MotionLinear)
}

func TestMotionModeIsModalAcrossLines(t *testing.T) {
	c := qt.New(t)
	it := newTestInterpreter()

	c.Assert(it.Execute("G1 X10 F600"), qt.IsNil)
	c.Assert(it.Execute("X20"), qt.IsNil)
	c.Assert(it.machinePos[0], qt.Equals, float32(20))
}

func TestIncrementalDistanceAccumulates(t *testing.T) {
	c := qt.New(t)
	it := newTestInterpreter()

	c.Assert(it.Execute("G91 G1 X10 F600"), qt.IsNil)
	c.Assert(it.Execute("X10"), qt.IsNil)
	c.Assert(it.machinePos[0], qt.Equals, float32(20))
}

func TestInchUnitsConvertToMillimeters(t *testing.T) {
	c := qt.New(t)
	it := newTestInterpreter()

	c.Assert(it.Execute("G20 G1 X1 F10"), qt.IsNil)
	c.Assert(it.machinePos[0], qt.Equals, float32(25.4))
}

func TestG92SetsWorkOffsetWithoutMoving(t *testing.T) {
	c := qt.New(t)
	it := newTestInterpreter()

	c.Assert(it.Execute("G1 X10 F600"), qt.IsNil)
	before := it.machinePos
	c.Assert(it.Execute("G92 X0"), qt.IsNil)
	c.Assert(it.machinePos, qt.Equals, before) // G92 doesn't move the machine
	c.Assert(it.Sys.WorkOffset(system.AxisX), qt.Equals, float32(10))
}

func TestUnknownWordLetterIsUnsupportedStatement(t *testing.T) {
	c := qt.New(t)
	it := newTestInterpreter()

	err := it.Execute("Q5")
	c.Assert(err, qt.Not(qt.IsNil))
	pe, ok := err.(*ParseError)
	c.Assert(ok, qt.IsTrue)
	c.Assert(pe.Kind, qt.Equals, UnsupportedStatement)
}

func TestArcIJOffsetHalfCircleReturnsToPlaneAndEndsAtTarget(t *testing.T) {
	c := qt.New(t)
	it := newTestInterpreter()

	c.Assert(it.Execute("G21 G90 G17 G1 X10 Y0 F600"), qt.IsNil)
	c.Assert(it.Execute("G2 X-10 Y0 I-10 J0"), qt.IsNil)
	c.Assert(closeEnoughF(it.machinePos[0], -10, 0.01), qt.IsTrue)
	c.Assert(closeEnoughF(it.machinePos[1], 0, 0.01), qt.IsTrue)
}

func TestArcRadiusFormatMinorArcEndsAtTarget(t *testing.T) {
	c := qt.New(t)
	it := newTestInterpreter()

	c.Assert(it.Execute("G21 G90 G17 G1 X10 Y0 F600"), qt.IsNil)
	c.Assert(it.Execute("G3 X0 Y10 R10"), qt.IsNil)
	c.Assert(closeEnoughF(it.machinePos[0], 0, 0.01), qt.IsTrue)
	c.Assert(closeEnoughF(it.machinePos[1], 10, 0.01), qt.IsTrue)
}

func TestArcWithoutOffsetOrRadiusIsInvalidCommand(t *testing.T) {
	c := qt.New(t)
	it := newTestInterpreter()

	c.Assert(it.Execute("G1 X10 F600"), qt.IsNil)
	err := it.Execute("G2 X0 Y0")
	c.Assert(err, qt.Not(qt.IsNil))
	pe, ok := err.(*ParseError)
	c.Assert(ok, qt.IsTrue)
	c.Assert(pe.Kind, qt.Equals, InvalidCommand)
}

func closeEnoughF(a, b, tolerance float32) bool {
	diff := a - b
	if diff < 0 {
		diff = -diff
	}
	return diff <= tolerance
}
