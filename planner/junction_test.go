package planner

import (
	"testing"

	qt "github.com/frankban/quicktest"
)

func TestJunctionSpeedCollinear(t *testing.T) {
	c := qt.New(t)
	cfg := DefaultConfig()

	v := junctionSpeed([3]float32{1, 0, 0}, [3]float32{1, 0, 0}, cfg)
	c.Assert(v, qt.Equals, float32(largeSpeed))
}

func TestJunctionSpeedHeadOnReversal(t *testing.T) {
	c := qt.New(t)
	cfg := DefaultConfig()

	v := junctionSpeed([3]float32{1, 0, 0}, [3]float32{-1, 0, 0}, cfg)
	c.Assert(v, qt.Equals, cfg.MinimumPlannerSpeed)
}

func TestJunctionSpeedOrthogonalMatchesFormula(t *testing.T) {
	c := qt.New(t)
	cfg := DefaultConfig()

	v := junctionSpeed([3]float32{1, 0, 0}, [3]float32{0, 1, 0}, cfg)

	// cosTheta = 0 for a perpendicular corner, so sin(theta/2) = sqrt(0.5).
	const sinThetaD2 = 0.70710678
	want := sqrtf(cfg.Acceleration * cfg.JunctionDeviation * sinThetaD2 / (1 - sinThetaD2))

	c.Assert(closeEnough(v, want, 0.01), qt.IsTrue)
}

func closeEnough(a, b, tolerance float32) bool {
	diff := a - b
	if diff < 0 {
		diff = -diff
	}
	return diff <= tolerance
}

func TestJunctionSpeedFirstMoveUnconstrained(t *testing.T) {
	c := qt.New(t)
	cfg := DefaultConfig()

	v := junctionSpeed([3]float32{}, [3]float32{1, 0, 0}, cfg)
	c.Assert(v, qt.Equals, float32(largeSpeed))
}
