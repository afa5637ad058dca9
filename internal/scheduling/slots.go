package scheduling

import (
	"iter"
	"time"
)

// GenerateSlots yields start, start+length, start+2·length, ... up to and
// including the last instant not after end. The sequence is empty when
// start is after end or length is not positive, and can be ranged over
// any number of times.
func GenerateSlots(start, end time.Time, length time.Duration) iter.Seq[time.Time] {
	return func(yield func(time.Time) bool) {
		if length <= 0 {
			return
		}
		for t := start; !t.After(end); t = t.Add(length) {
			if !yield(t) {
				return
			}
		}
	}
}

// SlotCount returns how many instants GenerateSlots yields for the same arguments.
func SlotCount(start, end time.Time, length time.Duration) int {
	if length <= 0 || start.After(end) {
		return 0
	}
	return int(end.Sub(start)/length) + 1
}
