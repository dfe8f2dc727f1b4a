package runtime

import (
	"testing"

	qt "github.com/frankban/quicktest"

	"github.com/csdexter/grbl/system"
)

type fakeStepGen struct {
	feedHeld, started, reinitialized, reset bool
}

func (f *fakeStepGen) FeedHold()          { f.feedHeld = true }
func (f *fakeStepGen) CycleStart()        { f.started = true }
func (f *fakeStepGen) CycleReinitialize() { f.reinitialized = true }
func (f *fakeStepGen) Reset()             { f.reset = true }

type fakeReporter struct{ reported bool }

func (f *fakeReporter) Report() { f.reported = true }

type fakeResetter struct{ reset bool }

func (f *fakeResetter) Reset() { f.reset = true }

func TestDispatchNoopWhenNothingPending(t *testing.T) {
	c := qt.New(t)
	sys := system.New()
	d := NewDispatcher(sys)

	d.Dispatch() // must not panic with nil StepGen/Reporter
	c.Assert(sys.Abort(), qt.IsFalse)
}

func TestDispatchResetTakesPriorityAndLatchesAbort(t *testing.T) {
	c := qt.New(t)
	sys := system.New()
	d := NewDispatcher(sys)
	gen := &fakeStepGen{}
	d.StepGen = gen

	sys.Execute(system.ExecReset | system.ExecCycleStart)
	d.Dispatch()

	c.Assert(sys.Abort(), qt.IsTrue)
	c.Assert(gen.started, qt.IsFalse) // RESET short-circuits everything else
	c.Assert(gen.reset, qt.IsTrue)
	c.Assert(sys.ExecuteSnapshot()&system.ExecReset, qt.Equals, system.ExecFlags(0))
}

func TestDispatchResetResetsBufferPlannerAndInterp(t *testing.T) {
	c := qt.New(t)
	sys := system.New()
	d := NewDispatcher(sys)
	buf := &fakeResetter{}
	pl := &fakeResetter{}
	interp := &fakeResetter{}
	d.Buffer = buf
	d.Planner = pl
	d.Interp = interp

	sys.Execute(system.ExecReset)
	d.Dispatch()

	c.Assert(buf.reset, qt.IsTrue)
	c.Assert(pl.reset, qt.IsTrue)
	c.Assert(interp.reset, qt.IsTrue)
}

func TestDispatchStatusReportCallsReporterAndClearsBit(t *testing.T) {
	c := qt.New(t)
	sys := system.New()
	d := NewDispatcher(sys)
	rep := &fakeReporter{}
	d.Reporter = rep

	sys.Execute(system.ExecStatusReport)
	d.Dispatch()

	c.Assert(rep.reported, qt.IsTrue)
	c.Assert(sys.ExecuteSnapshot()&system.ExecStatusReport, qt.Equals, system.ExecFlags(0))
}

func TestDispatchFeedHoldCallsStepGen(t *testing.T) {
	c := qt.New(t)
	sys := system.New()
	d := NewDispatcher(sys)
	gen := &fakeStepGen{}
	d.StepGen = gen

	sys.Execute(system.ExecFeedHold)
	d.Dispatch()

	c.Assert(gen.feedHeld, qt.IsTrue)
}

func TestDispatchCycleStartSetsAutoStart(t *testing.T) {
	c := qt.New(t)
	sys := system.New()
	d := NewDispatcher(sys)
	gen := &fakeStepGen{}
	d.StepGen = gen
	sys.SetAutoStart(false)

	sys.Execute(system.ExecCycleStart)
	d.Dispatch()

	c.Assert(gen.started, qt.IsTrue)
	c.Assert(sys.AutoStart(), qt.IsTrue)
}

func TestDispatchMissingCollaboratorsAreNoops(t *testing.T) {
	c := qt.New(t)
	sys := system.New()
	d := NewDispatcher(sys)

	sys.Execute(system.ExecFeedHold | system.ExecCycleStart | system.ExecCycleStop)
	d.Dispatch() // nil StepGen: must not panic

	c.Assert(sys.ExecuteSnapshot(), qt.Equals, system.ExecFlags(0))
}
