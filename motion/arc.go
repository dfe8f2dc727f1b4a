package motion

import (
	"math"

	"github.com/orsinium-labs/tinymath"
)

// arcCorrectionInterval bounds how many segments the small-angle
// vector-rotation recurrence runs before being re-anchored against an
// exact sin/cos, limiting numerical drift. Matches
// original_source/motion_control.c's N_ARC_CORRECTION.
const arcCorrectionInterval = 25

// Arc approximates a circular (or helical) move from the current
// position to target by a sequence of short line segments, following
// mc_arc's vector-rotation recurrence. axis0/axis1 select the plane
// the arc lies in (e.g. X/Y for G17), axisLinear is the third,
// helical axis. offset is the vector from position to the arc's
// center, on axis0/axis1 only.
func (f *Front) Arc(position, target, offset [3]float32, axis0, axis1, axisLinear int, feedRate float32, invertFeedRate bool, clockwise bool) error {
	centerAxis0 := position[axis0] + offset[axis0]
	centerAxis1 := position[axis1] + offset[axis1]
	linearTravel := target[axisLinear] - position[axisLinear]

	rAxis0 := -offset[axis0]
	rAxis1 := -offset[axis1]
	rtAxis0 := target[axis0] - centerAxis0
	rtAxis1 := target[axis1] - centerAxis1

	angularTravel := tinymath.Atan2(rAxis0*rtAxis1-rAxis1*rtAxis0, rAxis0*rtAxis0+rAxis1*rtAxis1)
	if clockwise {
		if angularTravel >= 0 {
			angularTravel -= 2 * math.Pi
		}
	} else {
		if angularTravel <= 0 {
			angularTravel += 2 * math.Pi
		}
	}

	radius := tinymath.Sqrt(rAxis0*rAxis0 + rAxis1*rAxis1)
	linearAbs := linearTravel
	if linearAbs < 0 {
		linearAbs = -linearAbs
	}
	millimetersOfTravel := tinymath.Sqrt(sq(angularTravel*radius) + sq(linearAbs))
	if millimetersOfTravel == 0 {
		return nil
	}

	segments := uint32(millimetersOfTravel / f.Settings.MMPerArcSegment)
	if segments == 0 {
		return f.Line(target, feedRate, invertFeedRate)
	}
	if invertFeedRate {
		feedRate *= float32(segments)
	}

	thetaPerSegment := angularTravel / float32(segments)
	linearPerSegment := linearTravel / float32(segments)

	cosT := float32(1) - 0.5*thetaPerSegment*thetaPerSegment
	sinT := thetaPerSegment

	var arcTarget [3]float32
	arcTarget[axisLinear] = position[axisLinear]

	count := 0
	for i := uint32(1); i < segments; i++ {
		if count < arcCorrectionInterval {
			rAxisI := rAxis0*sinT + rAxis1*cosT
			rAxis0 = rAxis0*cosT - rAxis1*sinT
			rAxis1 = rAxisI
			count++
		} else {
			angle := float32(i) * thetaPerSegment
			cosI, sinI := tinymath.Cos(angle), tinymath.Sin(angle)
			rAxis0 = -offset[axis0]*cosI + offset[axis1]*sinI
			rAxis1 = -offset[axis0]*sinI - offset[axis1]*cosI
			count = 0
		}

		arcTarget[axis0] = centerAxis0 + rAxis0
		arcTarget[axis1] = centerAxis1 + rAxis1
		arcTarget[axisLinear] += linearPerSegment

		if err := f.Line(arcTarget, feedRate, invertFeedRate); err != nil {
			return err
		}
	}

	return f.Line(target, feedRate, invertFeedRate)
}

func sq(x float32) float32 { return x * x }
