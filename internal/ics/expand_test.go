package ics

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func utc(day, hour, minute int) time.Time {
	return time.Date(2025, 3, day, hour, minute, 0, 0, time.UTC)
}

func dayWindow(day int) ExpandConfig {
	return ExpandConfig{
		DisplayLocation: time.UTC,
		RangeStart:      utc(day, 0, 0),
		RangeEnd:        utc(day+1, 0, 0),
	}
}

func recurring(uid, rule string, start, end time.Time) ParsedEvent {
	return ParsedEvent{
		Source:    Source{ID: "team"},
		UID:       uid,
		Summary:   uid,
		Attendees: []string{"alice@example.com"},
		Start:     start,
		End:       end,
		RawRRule:  rule,
	}
}

func TestExpandOccurrences_SingleEvent(t *testing.T) {
	quietLogs(t)
	events := []ParsedEvent{
		{Source: Source{ID: "team"}, UID: "inside", Start: utc(12, 9, 0), End: utc(12, 10, 0), Attendees: []string{"alice@example.com"}},
		{Source: Source{ID: "team"}, UID: "overnight", Start: utc(11, 23, 0), End: utc(12, 1, 0)},
		{Source: Source{ID: "team"}, UID: "yesterday", Start: utc(11, 9, 0), End: utc(11, 10, 0)},
		{Source: Source{ID: "team"}, UID: "ends-at-midnight", Start: utc(11, 23, 0), End: utc(12, 0, 0)},
		{Source: Source{ID: "team"}, UID: "cancelled", Start: utc(12, 9, 0), End: utc(12, 10, 0), Cancelled: true},
	}

	res, err := ExpandOccurrences(events, dayWindow(12))
	require.NoError(t, err)
	require.Len(t, res.Occurrences, 2)
	require.Equal(t, "inside", res.Occurrences[0].UID)
	require.Equal(t, []string{"alice@example.com"}, res.Occurrences[0].Attendees)
	require.Equal(t, "overnight", res.Occurrences[1].UID)
}

func TestExpandOccurrences_Recurring(t *testing.T) {
	quietLogs(t)
	daily := recurring("standup", "FREQ=DAILY;COUNT=5", utc(10, 8, 30), utc(10, 8, 45))

	res, err := ExpandOccurrences([]ParsedEvent{daily}, dayWindow(12))
	require.NoError(t, err)
	require.Len(t, res.Occurrences, 1)
	require.True(t, res.Occurrences[0].Start.Equal(utc(12, 8, 30)))
	require.True(t, res.Occurrences[0].End.Equal(utc(12, 8, 45)))

	// COUNT=5 ends on the 14th.
	res, err = ExpandOccurrences([]ParsedEvent{daily}, dayWindow(15))
	require.NoError(t, err)
	require.Empty(t, res.Occurrences)
}

func TestExpandOccurrences_ExDate(t *testing.T) {
	quietLogs(t)
	daily := recurring("standup", "FREQ=DAILY;COUNT=5", utc(10, 8, 30), utc(10, 8, 45))
	daily.ExDates = []time.Time{utc(12, 8, 30)}

	res, err := ExpandOccurrences([]ParsedEvent{daily}, dayWindow(12))
	require.NoError(t, err)
	require.Empty(t, res.Occurrences)
}

func TestExpandOccurrences_Overrides(t *testing.T) {
	quietLogs(t)
	daily := recurring("standup", "FREQ=DAILY;COUNT=5", utc(10, 8, 30), utc(10, 8, 45))

	moved := daily
	moved.RawRRule = ""
	rid := utc(12, 8, 30)
	moved.Recurrence = &rid
	moved.IsOverride = true
	moved.Start = utc(12, 15, 0)
	moved.End = utc(12, 15, 30)

	res, err := ExpandOccurrences([]ParsedEvent{daily, moved}, dayWindow(12))
	require.NoError(t, err)
	require.Len(t, res.Occurrences, 1)
	require.True(t, res.Occurrences[0].Start.Equal(utc(12, 15, 0)))

	cancelled := moved
	cancelled.Cancelled = true
	res, err = ExpandOccurrences([]ParsedEvent{daily, cancelled}, dayWindow(12))
	require.NoError(t, err)
	require.Empty(t, res.Occurrences)
}

func TestExpandOccurrences_RecurringOvernight(t *testing.T) {
	quietLogs(t)
	night := recurring("on-call", "FREQ=DAILY", utc(10, 23, 0), utc(11, 1, 0))

	res, err := ExpandOccurrences([]ParsedEvent{night}, dayWindow(12))
	require.NoError(t, err)
	require.Len(t, res.Occurrences, 2)
	require.True(t, res.Occurrences[0].Start.Equal(utc(11, 23, 0)))
	require.True(t, res.Occurrences[1].Start.Equal(utc(12, 23, 0)))
}

func TestExpandOccurrences_Cap(t *testing.T) {
	quietLogs(t)
	cfg := dayWindow(12)
	cfg.MaxOccurrencesPerEvent = 3
	every5 := recurring("tick", "FREQ=MINUTELY;INTERVAL=5", utc(12, 0, 0), utc(12, 0, 1))

	res, err := ExpandOccurrences([]ParsedEvent{every5}, cfg)
	require.NoError(t, err)
	require.Len(t, res.Occurrences, 3)
	require.Equal(t, []string{"tick"}, res.TruncatedEvents)
}

func TestExpandOccurrences_InvalidWindow(t *testing.T) {
	cfg := dayWindow(12)
	cfg.RangeStart, cfg.RangeEnd = cfg.RangeEnd, cfg.RangeStart

	_, err := ExpandOccurrences(nil, cfg)
	require.Error(t, err)
}
