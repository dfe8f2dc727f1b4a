package console

import (
	"fmt"
	"io"

	"github.com/csdexter/grbl/nvsettings"
	"github.com/csdexter/grbl/system"
)

// StatusReport emits machine and work positions on demand, satisfying
// runtime.StatusReporter. Grounded on runtime.c's runtime_status_report;
// the line has the form "<MPos:x,y,z,WPos:x,y,z>", each value in
// millimeters to three decimals.
type StatusReport struct {
	Sys      *system.State
	Settings *nvsettings.Settings
	Out      io.Writer
}

// Report writes one status line to Out.
func (r *StatusReport) Report() {
	steps := r.Sys.Position()
	var mpos [3]float32
	for axis := 0; axis < 3; axis++ {
		mpos[axis] = float32(steps[axis]) / r.Settings.StepsPerMM[axis]
	}
	var wpos [3]float32
	for axis := 0; axis < 3; axis++ {
		wpos[axis] = mpos[axis] - r.Sys.WorkOffset(system.Axis(axis))
	}
	fmt.Fprintf(r.Out, "<MPos:%.3f,%.3f,%.3f,WPos:%.3f,%.3f,%.3f>\r\n",
		mpos[0], mpos[1], mpos[2], wpos[0], wpos[1], wpos[2])
}
