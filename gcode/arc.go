package gcode

import (
	"github.com/csdexter/grbl/system"
	"github.com/orsinium-labs/tinymath"
)

// planeAxes returns the two axes the active plane's arc lies in
// (axis0, axis1) and the third, helical axis, per RS-274: G17 is
// XY with Z linear, G18 is ZX with Y linear, G19 is YZ with X linear.
func (it *Interpreter) planeAxes() (axis0, axis1, axisLinear int) {
	switch it.Modal.Plane {
	case PlaneZX:
		return int(system.AxisZ), int(system.AxisX), int(system.AxisY)
	case PlaneYZ:
		return int(system.AxisY), int(system.AxisZ), int(system.AxisX)
	default:
		return int(system.AxisX), int(system.AxisY), int(system.AxisZ)
	}
}

// planeLetters returns the I/J/K letters in axis0/axis1 order for the
// active plane, mirroring the axis order planeAxes reports.
func (it *Interpreter) planeLetters() (l0, l1 byte) {
	switch it.Modal.Plane {
	case PlaneZX:
		return 'K', 'I'
	case PlaneYZ:
		return 'J', 'K'
	default:
		return 'I', 'J'
	}
}

// dispatchArc implements G2/G3: a circular move from start to target
// in the active plane. The center is given either as an I/J/K offset
// from start, or as an R radius (which takes precedence when both are
// present), converted to the equivalent offset by the standard two-point/known-
// radius construction. original_source/motion_control.c's mc_arc
// takes the offset as already computed and has no R-format path at
// all; R-format is this interpreter's own addition, since spec.md §6
// requires it and no machine dialect in the corpus omits it.
func (it *Interpreter) dispatchArc(w words, start, target [3]float32) error {
	axis0, axis1, axisLinear := it.planeAxes()
	l0, l1 := it.planeLetters()
	clockwise := it.Modal.Motion == MotionArcCW

	var offset [3]float32
	if r, ok := w.get('R'); ok {
		o, err := it.offsetFromRadius(start, target, it.toMM(r), axis0, axis1, clockwise)
		if err != nil {
			return err
		}
		offset[axis0], offset[axis1] = o[0], o[1]
	} else {
		v0, has0 := w.get(l0)
		v1, has1 := w.get(l1)
		if !has0 && !has1 {
			return errf(InvalidCommand, "arc move needs R or an offset word")
		}
		offset[axis0] = it.toMM(v0)
		offset[axis1] = it.toMM(v1)
	}

	invert := it.Modal.FeedMode == FeedInverseTime
	return it.Motion.Arc(start, target, offset, axis0, axis1, axisLinear, it.feedFor(it.Modal.Motion), invert, clockwise)
}

// offsetFromRadius solves for the vector from start to the arc center
// given the known radius, the standard construction used when a line
// supplies R instead of an I/J/K offset: the center lies on the
// perpendicular bisector of the start/target chord, at a distance
// along it set by the chord's half-length and the radius. The sign of
// that distance picks the major or minor arc, and clockwise vs.
// negative radius (per RS-274, R<0 requests the major arc) picks
// which side of the chord the center falls on.
func (it *Interpreter) offsetFromRadius(start, target [3]float32, r float32, axis0, axis1 int, clockwise bool) ([2]float32, error) {
	x := target[axis0] - start[axis0]
	y := target[axis1] - start[axis1]

	halfChord := tinymath.Sqrt(x*x+y*y) / 2
	majorArc := r < 0
	if majorArc {
		r = -r
	}
	if halfChord > r {
		return [2]float32{}, errf(FloatingPointError, "radius %g too small for the requested move", r)
	}

	h := tinymath.Sqrt(r*r - halfChord*halfChord)
	// Unit vector along the chord, rotated 90 degrees to point from
	// the chord's midpoint toward the center.
	chordLen := tinymath.Sqrt(x*x + y*y)
	if chordLen == 0 {
		return [2]float32{}, errf(FloatingPointError, "zero-length arc needs I/J/K, not R")
	}
	ux, uy := -y/chordLen, x/chordLen

	sign := float32(1)
	if clockwise != majorArc {
		sign = -1
	}

	midX, midY := x/2, y/2
	centerX := midX + sign*h*ux
	centerY := midY + sign*h*uy

	return [2]float32{centerX, centerY}, nil
}
