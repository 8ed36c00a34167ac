package ics

import (
	"errors"
	"time"

	"github.com/teambition/rrule-go"

	appLog "meetslot/internal/log"
	"meetslot/internal/model"
)

const (
	defaultMaxOccurrencesPerEvent = 5000
)

// ExpandConfig controls how recurrence expansion is performed.
type ExpandConfig struct {
	// DisplayLocation is the timezone to which all occurrences will be converted.
	// If nil, time.Local is used.
	DisplayLocation *time.Location

	// RangeStart / RangeEnd define the half-open window [RangeStart,
	// RangeEnd) an occurrence must intersect to be returned.
	RangeStart time.Time
	RangeEnd   time.Time

	// MaxOccurrencesPerEvent is a safety cap to avoid infinite or extremely
	// large expansions. If zero, defaultMaxOccurrencesPerEvent is used.
	MaxOccurrencesPerEvent int
}

// ExpandResult wraps the list of expanded occurrences and information
// about truncation.
type ExpandResult struct {
	Occurrences []model.Occurrence
	// TruncatedEvents records UIDs that hit the MaxOccurrencesPerEvent cap.
	TruncatedEvents []string
}

// ExpandOccurrences expands parsed events into concrete occurrences that
// intersect the configured window. It handles single events, RRULE
// recurrence, EXDATE exceptions, RECURRENCE-ID overrides (including
// cancelled instances) and all-day events.
func ExpandOccurrences(events []ParsedEvent, cfg ExpandConfig) (ExpandResult, error) {
	var result ExpandResult

	if cfg.RangeEnd.Before(cfg.RangeStart) {
		return result, errors.New("expand: RangeEnd is before RangeStart")
	}
	if cfg.DisplayLocation == nil {
		cfg.DisplayLocation = time.Local
	}
	if cfg.MaxOccurrencesPerEvent <= 0 {
		cfg.MaxOccurrencesPerEvent = defaultMaxOccurrencesPerEvent
	}

	// Group base events and overrides by source and UID; UIDs are only
	// unique within one feed.
	type key struct{ source, uid string }
	var order []key
	baseByUID := make(map[key][]ParsedEvent)
	overridesByUID := make(map[key][]ParsedEvent)

	for _, ev := range events {
		k := key{ev.Source.ID, ev.UID}
		if ev.IsOverride && ev.Recurrence != nil {
			overridesByUID[k] = append(overridesByUID[k], ev)
			continue
		}
		if _, seen := baseByUID[k]; !seen {
			order = append(order, k)
		}
		baseByUID[k] = append(baseByUID[k], ev)
	}

	result.Occurrences = make([]model.Occurrence, 0)

	for _, k := range order {
		ov := overridesByUID[k]
		truncated := false

		for _, ev := range baseByUID[k] {
			if ev.Cancelled {
				continue
			}
			occ, hitCap := expandEvent(ev, ov, cfg)
			if hitCap {
				truncated = true
			}
			result.Occurrences = append(result.Occurrences, occ...)
		}

		if truncated {
			result.TruncatedEvents = append(result.TruncatedEvents, k.uid)
			appLog.Warn("expand: truncated occurrences for UID due to cap",
				"uid", k.uid,
				"source", k.source,
				"cap", cfg.MaxOccurrencesPerEvent,
			)
		}
	}

	return result, nil
}

func expandEvent(ev ParsedEvent, overrides []ParsedEvent, cfg ExpandConfig) ([]model.Occurrence, bool) {
	if ev.RawRRule == "" {
		return expandSingleEvent(ev, overrides, cfg), false
	}
	return expandRecurringEvent(ev, overrides, cfg)
}

func expandSingleEvent(ev ParsedEvent, overrides []ParsedEvent, cfg ExpandConfig) []model.Occurrence {
	o, ok := resolveInstance(ev, overrides, ev.Start, ev.End)
	if !ok {
		return nil
	}
	if o.AllDay {
		o = floatAllDay(o, cfg.DisplayLocation)
	}
	if !timeRangesOverlap(o.Start, o.End, cfg.RangeStart, cfg.RangeEnd) {
		return nil
	}
	return []model.Occurrence{makeOccurrence(o, cfg.DisplayLocation)}
}

func expandRecurringEvent(ev ParsedEvent, overrides []ParsedEvent, cfg ExpandConfig) ([]model.Occurrence, bool) {
	out := make([]model.Occurrence, 0)
	hitCap := false

	r, err := rrule.StrToRRule(ev.RawRRule)
	if err != nil {
		appLog.Error("expand: failed to parse RRULE", err, "uid", ev.UID, "rrule", ev.RawRRule)
		return out, false
	}
	r.DTStart(ev.Start)

	var set rrule.Set
	set.RRule(r)
	for _, ex := range ev.ExDates {
		set.ExDate(ex.In(ev.Start.Location()))
	}

	// Start the search one event-length early so instances that begin
	// before the window but run into it are found.
	dur := ev.End.Sub(ev.Start)
	rangeStart := cfg.RangeStart.Add(-dur)
	rangeEnd := cfg.RangeEnd
	if ev.AllDay {
		// Dates are pinned to the display zone after expansion, which can
		// move them up to a day either way.
		rangeStart = rangeStart.AddDate(0, 0, -1)
		rangeEnd = rangeEnd.AddDate(0, 0, 1)
	}
	rangeStart = rangeStart.In(ev.Start.Location())
	rangeEnd = rangeEnd.In(ev.Start.Location())

	occTimes := set.Between(rangeStart, rangeEnd, true)
	if len(occTimes) > cfg.MaxOccurrencesPerEvent {
		occTimes = occTimes[:cfg.MaxOccurrencesPerEvent]
		hitCap = true
	}

	for _, occStart := range occTimes {
		var occEnd time.Time
		if ev.AllDay {
			date := time.Date(occStart.Year(), occStart.Month(), occStart.Day(), 0, 0, 0, 0, occStart.Location())
			occStart = date
			occEnd = date.AddDate(0, 0, 1)
		} else {
			occEnd = occStart.Add(dur)
		}

		o, ok := resolveInstance(ev, overrides, occStart, occEnd)
		if !ok {
			continue
		}
		if o.AllDay {
			o = floatAllDay(o, cfg.DisplayLocation)
		}
		if !timeRangesOverlap(o.Start, o.End, cfg.RangeStart, cfg.RangeEnd) {
			continue
		}
		out = append(out, makeOccurrence(o, cfg.DisplayLocation))
	}

	return out, hitCap
}

// resolveInstance applies a matching RECURRENCE-ID override to the
// instance starting at start. It reports false if the instance was
// cancelled by its override.
func resolveInstance(base ParsedEvent, overrides []ParsedEvent, start, end time.Time) (ParsedEvent, bool) {
	for _, ov := range overrides {
		if ov.Recurrence == nil {
			continue
		}
		if ov.Recurrence.In(start.Location()).Equal(start) {
			return ov, !ov.Cancelled
		}
	}
	inst := base
	inst.Start = start
	inst.End = end
	return inst, true
}

// floatAllDay pins an all-day instance to its calendar dates in loc. DATE
// values carry no zone, so converting them with In would shift the day.
func floatAllDay(ev ParsedEvent, loc *time.Location) ParsedEvent {
	ev.Start = calendarDate(ev.Start, loc)
	ev.End = calendarDate(ev.End, loc)
	if !ev.End.After(ev.Start) {
		ev.End = ev.Start.AddDate(0, 0, 1)
	}
	return ev
}

func calendarDate(t time.Time, loc *time.Location) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, loc)
}

// makeOccurrence converts a resolved instance into a model.Occurrence
// normalized into displayLoc.
func makeOccurrence(ev ParsedEvent, displayLoc *time.Location) model.Occurrence {
	startLocal := ev.Start.In(displayLoc)

	return model.Occurrence{
		SourceID:    ev.Source.ID,
		UID:         ev.UID,
		InstanceKey: startLocal.Format(time.RFC3339Nano),
		Summary:     ev.Summary,
		Attendees:   append([]string(nil), ev.Attendees...),
		AllDay:      ev.AllDay,
		Transparent: ev.Transparent,
		Start:       startLocal,
		End:         ev.End.In(displayLoc),
	}
}

func timeRangesOverlap(aStart, aEnd, bStart, bEnd time.Time) bool {
	return aStart.Before(bEnd) && bStart.Before(aEnd)
}
