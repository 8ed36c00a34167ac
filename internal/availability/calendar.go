package availability

import (
	"meetslot/internal/timerange"
)

// Merge collapses busy ranges into the minimal sorted list of disjoint
// ranges covering the same minutes. Duplicates are tolerated and empty
// ranges are dropped, since they block no time. The input slice is not
// modified.
func Merge(busy []timerange.TimeRange) []timerange.TimeRange {
	sorted := dedupe(busy)
	if len(sorted) == 0 {
		return nil
	}
	timerange.Sort(sorted)

	merged := make([]timerange.TimeRange, 0, len(sorted))
	current := sorted[0]
	for _, next := range sorted[1:] {
		if next.Overlaps(current) {
			// Never shrink: next may sit entirely inside current.
			if next.End() > current.End() {
				current = timerange.MustNew(current.Start(), next.End())
			}
			continue
		}
		merged = append(merged, current)
		current = next
	}
	merged = append(merged, current)

	return merged
}

// FreeGaps returns the complement of busy within the day, keeping only gaps
// of at least minDuration minutes, sorted ascending by start. With no busy
// ranges the whole day is the single candidate gap.
func FreeGaps(busy []timerange.TimeRange, minDuration int) []timerange.TimeRange {
	merged := Merge(busy)
	if len(merged) == 0 {
		return keepLongEnough([]timerange.TimeRange{timerange.WholeDay}, minDuration)
	}

	gaps := make([]timerange.TimeRange, 0, len(merged)+1)

	first := merged[0]
	if first.Start() > timerange.StartOfDay {
		gaps = append(gaps, timerange.MustNew(timerange.StartOfDay, first.Start()))
	}
	for i := 0; i+1 < len(merged); i++ {
		gaps = append(gaps, timerange.MustNew(merged[i].End(), merged[i+1].Start()))
	}
	last := merged[len(merged)-1]
	if last.End() < timerange.EndOfDay {
		gaps = append(gaps, timerange.MustNew(last.End(), timerange.EndOfDay))
	}

	gaps = keepLongEnough(gaps, minDuration)
	timerange.Sort(gaps)
	return gaps
}

func keepLongEnough(gaps []timerange.TimeRange, minDuration int) []timerange.TimeRange {
	out := make([]timerange.TimeRange, 0, len(gaps))
	for _, g := range gaps {
		// Zero-length gaps between touching busy ranges are never slots.
		if g.Duration() == 0 || g.Duration() < minDuration {
			continue
		}
		out = append(out, g)
	}
	return out
}

func dedupe(in []timerange.TimeRange) []timerange.TimeRange {
	seen := make(map[timerange.TimeRange]struct{}, len(in))
	out := make([]timerange.TimeRange, 0, len(in))
	for _, r := range in {
		if r.Duration() == 0 {
			continue
		}
		if _, ok := seen[r]; ok {
			continue
		}
		seen[r] = struct{}{}
		out = append(out, r)
	}
	return out
}
