// Package numeric holds small generic helpers; the settings store is
// currently its only user.
package numeric

import "golang.org/x/exp/constraints"

// Constrain clamps value to the inclusive range [lo, hi].
func Constrain[T constraints.Ordered](value, lo, hi T) T {
	if value < lo {
		return lo
	}
	if value > hi {
		return hi
	}
	return value
}
