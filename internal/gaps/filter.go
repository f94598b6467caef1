package gaps

import "time"

// Exclude removes the items whose date falls inside any of the given
// gaps, boundaries included. Items outside every gap pass through in
// their original order, so applying the same gaps twice is a no-op.
func Exclude[T any](items []T, gapList []Gap, dateOf func(T) time.Time) []T {
	if len(gapList) == 0 {
		return items
	}

	out := make([]T, 0, len(items))
	for _, item := range items {
		if inAnyGap(dateOf(item), gapList) {
			continue
		}
		out = append(out, item)
	}
	return out
}

func inAnyGap(t time.Time, gapList []Gap) bool {
	for _, g := range gapList {
		if g.Contains(t) {
			return true
		}
	}
	return false
}
