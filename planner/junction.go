package planner

import "github.com/orsinium-labs/tinymath"

// junctionSpeed computes the maximum speed (mm/min) the machine may
// carry through the corner between a move leaving along prevUnit and
// one arriving along unit, per spec.md §4.1's junction-deviation
// model. prevUnit is the zero vector for the first move in a freshly
// reset buffer, which this function treats as an unconstrained
// (straight-line) junction, matching the "nothing to brake against
// yet" case.
func junctionSpeed(prevUnit, unit [3]float32, cfg Config) float32 {
	if prevUnit == ([3]float32{}) {
		return largeSpeed
	}

	cosTheta := -(prevUnit[0]*unit[0] + prevUnit[1]*unit[1] + prevUnit[2]*unit[2])

	switch {
	case cosTheta > 0.999999:
		// Direction reverses essentially head-on: no speed survives the corner.
		return cfg.MinimumPlannerSpeed
	case cosTheta < -0.999999:
		// Collinear: the corner imposes no constraint of its own.
		return largeSpeed
	default:
		sinThetaD2 := tinymath.Sqrt(0.5 * (1.0 - cosTheta))
		v := tinymath.Sqrt((cfg.Acceleration * cfg.JunctionDeviation * sinThetaD2) / (1.0 - sinThetaD2))
		if v < cfg.MinimumPlannerSpeed {
			v = cfg.MinimumPlannerSpeed
		}
		return v
	}
}

// largeSpeed stands in for "unconstrained by this junction"; it is
// always above any real nominal_speed, so min(nominalSpeed, largeSpeed)
// collapses to nominalSpeed, matching spec.md's collinear case.
const largeSpeed = 1e9
