package ics

import (
	"time"

	appLog "meetslot/internal/log"
	"meetslot/internal/model"
	"meetslot/internal/timerange"
)

// DayBounds returns local midnight of day and of the following day in loc.
func DayBounds(day time.Time, loc *time.Location) (time.Time, time.Time) {
	d := day.In(loc)
	start := time.Date(d.Year(), d.Month(), d.Day(), 0, 0, 0, 0, loc)
	return start, start.AddDate(0, 0, 1)
}

// ProjectDay clips occurrences to the local day containing day and turns
// them into minute-based events. Transparent occurrences and occurrences
// outside the day are skipped. Busy time is rounded outwards to whole
// minutes.
func ProjectDay(occs []model.Occurrence, day time.Time, loc *time.Location) []model.Event {
	dayStart, dayEnd := DayBounds(day, loc)

	events := make([]model.Event, 0, len(occs))
	for _, occ := range occs {
		if occ.Transparent || !timeRangesOverlap(occ.Start, occ.End, dayStart, dayEnd) {
			continue
		}

		var when timerange.TimeRange
		if occ.AllDay && !occ.Start.After(dayStart) && !occ.End.Before(dayEnd) {
			when = timerange.WholeDay
		} else {
			start := minuteOfDay(maxTime(occ.Start, dayStart), dayStart, false)
			end := timerange.EndOfDay
			if occ.End.Before(dayEnd) {
				end = minuteOfDay(occ.End, dayStart, true)
			}
			if end < start {
				// Wall clock went backwards (DST fall-back) inside the event.
				end = start
			}
			r, err := timerange.New(start, end)
			if err != nil {
				appLog.Error("ics day projection skipped occurrence", err, "uid", occ.UID, "source", occ.SourceID)
				continue
			}
			when = r
		}

		events = append(events, model.NewEvent(occ.Summary, when, occ.Attendees...))
	}
	return events
}

// minuteOfDay returns the wall-clock minute of t, optionally rounding a
// partial minute up.
func minuteOfDay(t, dayStart time.Time, roundUp bool) int {
	t = t.In(dayStart.Location())
	m := t.Hour()*60 + t.Minute()
	if roundUp && (t.Second() > 0 || t.Nanosecond() > 0) {
		m++
	}
	if m > timerange.EndOfDay {
		m = timerange.EndOfDay
	}
	return m
}

func maxTime(a, b time.Time) time.Time {
	if a.After(b) {
		return a
	}
	return b
}
