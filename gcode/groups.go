package gcode

// group identifies an RS-274 modal group; at most one word from each
// may appear on a line.
type group int

const (
	groupMotion group = iota
	groupPlane
	groupUnits
	groupDistance
	groupFeedMode
	groupWorkSystem
	groupNonModal
	groupProgramFlow
	groupSpindle
	groupCoolant
)

func gGroup(code int) (group, bool) {
	switch {
	case code == 0 || code == 1 || code == 2 || code == 3:
		return groupMotion, true
	case code == 17 || code == 18 || code == 19:
		return groupPlane, true
	case code == 20 || code == 21:
		return groupUnits, true
	case code == 90 || code == 91:
		return groupDistance, true
	case code == 93 || code == 94:
		return groupFeedMode, true
	case code >= 54 && code <= 59:
		return groupWorkSystem, true
	case code == 4 || code == 28 || code == 92:
		return groupNonModal, true
	default:
		return 0, false
	}
}

func mGroup(code int) (group, bool) {
	switch {
	case code == 0 || code == 1 || code == 2 || code == 30:
		return groupProgramFlow, true
	case code == 3 || code == 4 || code == 5:
		return groupSpindle, true
	case code == 7 || code == 8 || code == 9:
		return groupCoolant, true
	default:
		return 0, false
	}
}

// checkModalGroups rejects a line carrying two words from the same
// modal group, per spec.md §6's MODAL_GROUP_VIOLATION.
func checkModalGroups(toks []Word) error {
	seen := map[group]int{}
	for _, t := range toks {
		var g group
		var ok bool
		switch t.Letter {
		case 'G':
			g, ok = gGroup(int(t.Value))
		case 'M':
			g, ok = mGroup(int(t.Value))
		default:
			continue
		}
		if !ok {
			return errf(InvalidCommand, "unsupported %c%d", t.Letter, int(t.Value))
		}
		seen[g]++
		if seen[g] > 1 {
			return errf(ModalGroupViolation, "more than one word from the same modal group")
		}
	}
	return nil
}
