package domain

import "time"

// Overlaps reports whether the half-open ranges [startA, endA) and
// [startB, endB) intersect. A range ending exactly when another begins
// does not overlap.
func Overlaps(startA, endA, startB, endB time.Time) bool {
	return startA.Before(endB) && startB.Before(endA)
}
