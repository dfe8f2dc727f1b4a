package planner

import (
	"testing"

	qt "github.com/frankban/quicktest"

	"github.com/csdexter/grbl/block"
	"github.com/csdexter/grbl/runtime"
	"github.com/csdexter/grbl/system"
)

const floatTolerance = 0.01

func newTestPlanner() (*Planner, *block.Buffer) {
	sys := system.New()
	disp := runtime.NewDispatcher(sys)
	buf := block.NewBuffer(16)
	return New(DefaultConfig(), buf, sys, disp), buf
}

// "G21 G90 G1 X10 F600" queues one block whose step count and nominal
// speed follow directly from the feed rate and the default steps/mm.
func TestBufferLineSingleMove(t *testing.T) {
	c := qt.New(t)
	pl, buf := newTestPlanner()

	err := pl.BufferLine([3]float32{10, 0, 0}, 600, false)
	c.Assert(err, qt.IsNil)
	c.Assert(buf.Count(), qt.Equals, 1)

	b := buf.At(0)
	c.Assert(b.Steps[0], qt.Equals, uint32(2500))
	c.Assert(b.NominalSpeed, qt.Equals, float32(600))
}

func TestBufferLineZeroLengthMoveDropped(t *testing.T) {
	c := qt.New(t)
	pl, buf := newTestPlanner()

	err := pl.BufferLine([3]float32{}, 600, false)
	c.Assert(err, qt.IsNil)
	c.Assert(buf.Count(), qt.Equals, 0)
}

func TestBufferLineSingleStepBlock(t *testing.T) {
	c := qt.New(t)
	pl, buf := newTestPlanner()

	// One step at 250 steps/mm is 1/250 mm.
	err := pl.BufferLine([3]float32{1.0 / 250, 0, 0}, 100, false)
	c.Assert(err, qt.IsNil)
	c.Assert(buf.Count(), qt.Equals, 1)
	c.Assert(buf.At(0).StepEventCount, qt.Equals, uint32(1))
}

// Two collinear moves impose no junction constraint of their own, so
// the second move's queued entry speed reaches its own nominal speed
// (limited only by how far it can accelerate over its own length).
func TestBufferLineCollinearMovesReachNominalSpeed(t *testing.T) {
	c := qt.New(t)
	pl, buf := newTestPlanner()

	c.Assert(pl.BufferLine([3]float32{10, 0, 0}, 600, false), qt.IsNil)
	c.Assert(pl.BufferLine([3]float32{20, 0, 0}, 600, false), qt.IsNil)
	c.Assert(buf.Count(), qt.Equals, 2)

	second := buf.At(1)
	c.Assert(closeEnough(second.EntrySpeed, second.NominalSpeed, floatTolerance), qt.IsTrue)
}

func TestSynchronizeReturnsImmediatelyOnEmptyBuffer(t *testing.T) {
	c := qt.New(t)
	pl, _ := newTestPlanner()
	c.Assert(pl.Synchronize(), qt.IsNil)
}

// Three collinear moves at the same feed rate: once the middle block
// settles at its nominal speed, recalculate's reverse pass should stop
// revisiting it on every later insertion, and buf.PlannedIndex should
// track that settled boundary instead of staying at 0 forever.
func TestRecalculateAdvancesPlannedIndex(t *testing.T) {
	c := qt.New(t)
	pl, buf := newTestPlanner()

	c.Assert(pl.BufferLine([3]float32{10, 0, 0}, 600, false), qt.IsNil)
	c.Assert(buf.PlannedIndex(), qt.Equals, 0) // count < 2: no look-ahead pass, index unchanged

	c.Assert(pl.BufferLine([3]float32{20, 0, 0}, 600, false), qt.IsNil)
	c.Assert(buf.PlannedIndex(), qt.Equals, 1)

	c.Assert(pl.BufferLine([3]float32{30, 0, 0}, 600, false), qt.IsNil)
	c.Assert(buf.PlannedIndex(), qt.Equals, 1)
}

func TestSetPositionResetsQueueTipAndLastUnit(t *testing.T) {
	c := qt.New(t)
	pl, _ := newTestPlanner()

	c.Assert(pl.BufferLine([3]float32{10, 0, 0}, 600, false), qt.IsNil)
	pl.SetPosition([3]float32{5, 5, 5})
	c.Assert(pl.Position(), qt.Equals, [3]float32{5, 5, 5})
}
