// Package block defines the planner's unit of work: an
// immutable-after-finalization straight-line motion segment, and the
// fixed-capacity ring buffer that queues them between the planner and
// the step generator.
package block

import "github.com/csdexter/grbl/system"

// DirBits packs the per-axis direction-of-travel flags: a set bit
// means that axis moves toward the negative machine direction.
type DirBits uint8

const (
	DirX DirBits = 1 << iota
	DirY
	DirZ
)

// Negative reports whether axis moves in the negative direction.
func (d DirBits) Negative(axis system.Axis) bool {
	return d&(1<<uint(axis)) != 0
}

// Block is one straight-line move with precomputed kinematic
// parameters. Every field is set once during BufferLine/look-ahead and
// is read-only from the moment the step generator begins executing it
// (spec.md §3 invariant 4), except EntrySpeed/trapezoid fields which
// the look-ahead pass may still revise while the block sits ahead of
// the tail.
type Block struct {
	Steps          [system.NumAxes]uint32
	Direction      DirBits
	StepEventCount uint32
	Millimeters    float32

	NominalSpeed float32 // mm/min
	NominalRate  uint32  // steps/min at NominalSpeed

	EntrySpeed    float32 // mm/min
	MaxEntrySpeed float32 // mm/min

	InitialRate uint32 // steps/min
	FinalRate   uint32 // steps/min
	RateDelta   uint32 // steps/min added per acceleration tick

	AccelerateUntil uint32 // step-event index
	DecelerateAfter uint32 // step-event index

	RecalculateFlag   bool
	NominalLengthFlag bool

	// unitVector is the cartesian unit vector of travel, used only by
	// the junction-speed computation of the *next* inserted block; it
	// is not part of the public execution contract.
	unitVector [system.NumAxes]float32
}

// UnitVector returns the cartesian unit vector of travel.
func (b *Block) UnitVector() [system.NumAxes]float32 { return b.unitVector }

// SetUnitVector stores the cartesian unit vector of travel; called
// once by the planner at insertion time.
func (b *Block) SetUnitVector(v [system.NumAxes]float32) { b.unitVector = v }
