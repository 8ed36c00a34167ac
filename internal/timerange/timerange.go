package timerange

import (
	"fmt"
	"slices"

	"meetslot/internal/apperr"
)

// Day bounds in minutes since midnight. EndOfDay is exclusive for every
// range except WholeDay.
const (
	StartOfDay = 0
	EndOfDay   = 24 * 60
)

// WholeDay spans the entire day. For point containment it is closed at
// EndOfDay: the last minute of the day belongs to the day.
var WholeDay = TimeRange{start: StartOfDay, end: EndOfDay}

// TimeRange is an immutable half-open interval [start, end) of minutes
// within a single day. The zero value is the empty range at midnight.
//
// TimeRange is comparable, so it can be used directly as a map key when
// deduplicating busy periods reported by several events.
type TimeRange struct {
	start int
	end   int
}

// New returns the range [start, end). It rejects start > end and bounds
// outside [StartOfDay, EndOfDay].
func New(start, end int) (TimeRange, error) {
	if start > end {
		return TimeRange{}, fmt.Errorf("%w: time range start %d is after end %d", apperr.ErrInvalidArgument, start, end)
	}
	if start < StartOfDay || end > EndOfDay {
		return TimeRange{}, fmt.Errorf("%w: time range [%d,%d) is outside the day", apperr.ErrInvalidArgument, start, end)
	}
	return TimeRange{start: start, end: end}, nil
}

// FromStartDuration returns [start, start+duration).
func FromStartDuration(start, duration int) (TimeRange, error) {
	if duration < 0 {
		return TimeRange{}, fmt.Errorf("%w: negative duration %d", apperr.ErrInvalidArgument, duration)
	}
	return New(start, start+duration)
}

// MustNew is like New but panics on invalid input. Intended for constants
// and tests.
func MustNew(start, end int) TimeRange {
	r, err := New(start, end)
	if err != nil {
		panic(err)
	}
	return r
}

func (r TimeRange) Start() int { return r.start }

func (r TimeRange) End() int { return r.end }

func (r TimeRange) Duration() int { return r.end - r.start }

// Overlaps reports whether the two half-open ranges intersect.
func (r TimeRange) Overlaps(other TimeRange) bool {
	return r.start < other.end && other.start < r.end
}

// Contains reports whether minute falls inside the range.
func (r TimeRange) Contains(minute int) bool {
	if r == WholeDay {
		return minute >= StartOfDay && minute <= EndOfDay
	}
	return minute >= r.start && minute < r.end
}

// ContainsRange reports whether other lies entirely within r.
func (r TimeRange) ContainsRange(other TimeRange) bool {
	return other.start >= r.start && other.end <= r.end
}

// Compare orders ranges by start, then by end. It returns -1, 0 or +1 and
// plugs straight into slices.SortFunc.
func Compare(a, b TimeRange) int {
	switch {
	case a.start < b.start:
		return -1
	case a.start > b.start:
		return 1
	case a.end < b.end:
		return -1
	case a.end > b.end:
		return 1
	default:
		return 0
	}
}

// Sort sorts ranges in place by Compare.
func Sort(ranges []TimeRange) {
	slices.SortFunc(ranges, Compare)
}

// String renders the range as "HH:MM-HH:MM".
func (r TimeRange) String() string {
	return clock(r.start) + "-" + clock(r.end)
}

func clock(minute int) string {
	return fmt.Sprintf("%02d:%02d", minute/60, minute%60)
}
