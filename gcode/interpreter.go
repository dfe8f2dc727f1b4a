package gcode

import (
	"errors"

	"github.com/csdexter/grbl/motion"
	"github.com/csdexter/grbl/system"
)

// Interpreter holds the modal state and dispatches one line at a time
// to a motion.Front. Units, distance mode, and the selected work
// system all shape how the axis words on a line are turned into the
// absolute machine-coordinate target motion.Front.Line expects.
type Interpreter struct {
	Modal  State
	Motion *motion.Front
	Sys    *system.State

	// machinePos is the last commanded target in machine-coordinate
	// millimeters; work-coordinate position is always machinePos minus
	// the active work offset, so there is nothing to keep in sync.
	machinePos [3]float32
}

// New returns an interpreter with modal state reset to power-on
// defaults.
func New(mot *motion.Front, sys *system.State) *Interpreter {
	it := &Interpreter{Motion: mot, Sys: sys}
	it.Modal.Reset()
	return it
}

// Reset restores modal defaults, e.g. on a RESET runtime command.
// Position is left untouched: a RESET doesn't move the machine.
func (it *Interpreter) Reset() {
	it.Modal.Reset()
}

// words holds the parsed values an Execute call needs, keyed by
// letter, so the dispatch functions don't each re-scan the slice.
type words struct {
	has   [26]bool
	value [26]float32
}

func (w *words) set(letter byte, value float32) {
	w.has[letter-'A'] = true
	w.value[letter-'A'] = value
}

func (w *words) get(letter byte) (float32, bool) {
	return w.value[letter-'A'], w.has[letter-'A']
}

// Execute parses and runs one line. A ParseError leaves modal state
// untouched and the line has no effect, per spec.md §7.
func (it *Interpreter) Execute(line string) (err error) {
	savedModal, savedPos := it.Modal, it.machinePos
	defer func() {
		var pe *ParseError
		if errors.As(err, &pe) {
			it.Modal, it.machinePos = savedModal, savedPos
			it.Sys.SelectCoordSystem(savedModal.WorkSystem)
		}
	}()

	toks, err := Tokenize(line)
	if err != nil {
		return err
	}
	if len(toks) == 0 {
		return nil
	}

	if err := checkModalGroups(toks); err != nil {
		return err
	}

	var w words
	var gWords, mWords []int
	for _, t := range toks {
		switch t.Letter {
		case 'G':
			gWords = append(gWords, int(t.Value))
		case 'M':
			mWords = append(mWords, int(t.Value))
		case 'X', 'Y', 'Z', 'I', 'J', 'K', 'R', 'F', 'P', 'S', 'N':
			w.set(t.Letter, t.Value)
		default:
			return errf(UnsupportedStatement, "unknown word %q", string(t.Letter))
		}
	}

	for _, g := range gWords {
		switch g {
		case 17:
			it.Modal.Plane = PlaneXY
		case 18:
			it.Modal.Plane = PlaneZX
		case 19:
			it.Modal.Plane = PlaneYZ
		case 20:
			it.Modal.Units = UnitsInch
		case 21:
			it.Modal.Units = UnitsMM
		case 90:
			it.Modal.Distance = DistanceAbsolute
		case 91:
			it.Modal.Distance = DistanceIncremental
		case 93:
			it.Modal.FeedMode = FeedInverseTime
		case 94:
			it.Modal.FeedMode = FeedUnitsPerMinute
		case 54, 55, 56, 57, 58, 59:
			it.Modal.WorkSystem = g - 54
			it.Sys.SelectCoordSystem(it.Modal.WorkSystem)
		}
	}

	for _, m := range mWords {
		if err := it.dispatchM(m); err != nil {
			return err
		}
	}

	if f, ok := w.get('F'); ok {
		it.Modal.Feed = it.toMM(f)
	}

	for _, g := range gWords {
		switch g {
		case 0:
			it.Modal.Motion = MotionRapid
		case 1:
			it.Modal.Motion = MotionLinear
		case 2:
			it.Modal.Motion = MotionArcCW
		case 3:
			it.Modal.Motion = MotionArcCCW
		case 4:
			p, _ := w.get('P')
			return it.Motion.Dwell(p)
		case 28:
			return it.Motion.Home(motion.AxisMaskX | motion.AxisMaskY | motion.AxisMaskZ)
		case 92:
			it.offsetAxes(w)
			return nil
		}
	}

	if !hasAxisWord(w) && it.Modal.Motion == MotionNone {
		return nil
	}

	start := it.machinePos
	target := it.resolveTarget(w)

	switch it.Modal.Motion {
	case MotionRapid, MotionLinear:
		invert := it.Modal.FeedMode == FeedInverseTime
		return it.Motion.Line(target, it.feedFor(it.Modal.Motion), invert)
	case MotionArcCW, MotionArcCCW:
		return it.dispatchArc(w, start, target)
	default:
		return errf(InvalidCommand, "no motion mode active")
	}
}

// feedFor returns the rate to plan at: a rapid traverse always uses
// the machine's default seek rate, a controlled move uses the
// currently commanded feed.
func (it *Interpreter) feedFor(mode MotionMode) float32 {
	if mode == MotionRapid {
		return it.Motion.Settings.DefaultSeekRate
	}
	return it.Modal.Feed
}

func hasAxisWord(w words) bool {
	for _, l := range [...]byte{'X', 'Y', 'Z'} {
		if _, ok := w.get(l); ok {
			return true
		}
	}
	return false
}

// toMM converts a value in the active Units to millimeters.
func (it *Interpreter) toMM(v float32) float32 {
	if it.Modal.Units == UnitsInch {
		return v * 25.4
	}
	return v
}

// resolveTarget computes the next machine-coordinate position from
// the X/Y/Z words present on the line, the active distance mode, and
// the selected work system's offset.
func (it *Interpreter) resolveTarget(w words) [3]float32 {
	target := it.machinePos
	axes := [...]struct {
		letter byte
		axis   system.Axis
	}{{'X', system.AxisX}, {'Y', system.AxisY}, {'Z', system.AxisZ}}

	for _, a := range axes {
		v, ok := w.get(a.letter)
		if !ok {
			continue
		}
		v = it.toMM(v)
		offset := it.Sys.WorkOffset(a.axis)
		switch it.Modal.Distance {
		case DistanceAbsolute:
			target[a.axis] = v + offset
		case DistanceIncremental:
			target[a.axis] = it.machinePos[a.axis] + v
		}
	}
	it.machinePos = target
	return target
}

// offsetAxes implements G92: redefine the work offset so the axis
// words' values become the new work-coordinate position, without
// moving the machine.
func (it *Interpreter) offsetAxes(w words) {
	axes := [...]struct {
		letter byte
		axis   system.Axis
	}{{'X', system.AxisX}, {'Y', system.AxisY}, {'Z', system.AxisZ}}
	for _, a := range axes {
		v, ok := w.get(a.letter)
		if !ok {
			continue
		}
		it.Sys.SetCoordOffset(a.axis, it.machinePos[a.axis]-it.toMM(v))
	}
}

func (it *Interpreter) dispatchM(m int) error {
	switch m {
	case 0, 1:
		return it.Motion.Planner.Synchronize()
	case 2, 30:
		if err := it.Motion.Planner.Synchronize(); err != nil {
			return err
		}
		it.Reset()
		return nil
	case 3:
		return it.Motion.Spindle(motion.SpindleClockwise, 0)
	case 4:
		return it.Motion.Spindle(motion.SpindleCCW, 0)
	case 5:
		return it.Motion.Spindle(motion.SpindleStopped, 0)
	case 7:
		return it.Motion.Coolant(it.Motion.CoolantModeOr(motion.CoolantMist))
	case 8:
		return it.Motion.Coolant(it.Motion.CoolantModeOr(motion.CoolantFlood))
	case 9:
		return it.Motion.Coolant(motion.CoolantOff)
	default:
		return errf(InvalidCommand, "unsupported M%d", m)
	}
}
