package gcode

// Plane selects the arc/cutter-compensation plane (G17/G18/G19).
type Plane int

const (
	PlaneXY Plane = iota
	PlaneZX
	PlaneYZ
)

// Units selects inch or millimeter interpretation of axis words
// (G20/G21).
type Units int

const (
	UnitsMM Units = iota
	UnitsInch
)

// Distance selects absolute or incremental axis word interpretation
// (G90/G91).
type Distance int

const (
	DistanceAbsolute Distance = iota
	DistanceIncremental
)

// FeedMode selects units-per-minute or inverse-time feed
// interpretation (G93/G94).
type FeedMode int

const (
	FeedUnitsPerMinute FeedMode = iota
	FeedInverseTime
)

// MotionMode is the active G0/G1/G2/G3 mode, which — per RS-274 —
// persists across lines that omit a G-word but supply axis words.
type MotionMode int

const (
	MotionNone MotionMode = iota
	MotionRapid
	MotionLinear
	MotionArcCW
	MotionArcCCW
)

// State is the interpreter's modal record, spec.md §6. Reset restores
// the power-on defaults.
type State struct {
	Plane       Plane
	Units       Units
	Distance    Distance
	FeedMode    FeedMode
	WorkSystem  int // 0..5 for G54..G59
	Motion      MotionMode
	Feed        float32
	SpindleRPM  uint32
}

// Reset restores the modal defaults RESET re-arms: metric, absolute,
// units-per-minute, G54, no motion mode latched.
func (s *State) Reset() {
	*s = State{Plane: PlaneXY, Units: UnitsMM, Distance: DistanceAbsolute, FeedMode: FeedUnitsPerMinute}
}
