package ics

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestParseICS(t *testing.T) {
	quietLogs(t)
	src := Source{ID: "team", URL: "https://calendar.example.com/team.ics", Attendee: "Owner@Example.com"}

	events, err := ParseICS(src, crlf(teamCalendar))
	require.NoError(t, err)
	require.Len(t, events, 4, "the VEVENT without UID is skipped")

	byUID := make(map[string]ParsedEvent, len(events))
	for _, ev := range events {
		byUID[ev.UID] = ev
	}

	planning := byUID["planning@example.com"]
	require.Equal(t, "Planning", planning.Summary)
	require.Equal(t, []string{"alice@example.com", "bob@example.com"}, planning.Attendees)
	require.True(t, planning.Start.Equal(time.Date(2025, 3, 12, 9, 0, 0, 0, time.UTC)))
	require.True(t, planning.End.Equal(time.Date(2025, 3, 12, 10, 0, 0, 0, time.UTC)))
	require.False(t, planning.AllDay)
	require.Equal(t, src, planning.Source)

	focus := byUID["focus@example.com"]
	require.True(t, focus.Transparent)
	require.Equal(t, []string{"owner@example.com"}, focus.Attendees)

	standup := byUID["standup@example.com"]
	require.Equal(t, "FREQ=DAILY;COUNT=5", standup.RawRRule)
	require.Len(t, standup.ExDates, 1)
	require.True(t, standup.ExDates[0].Equal(time.Date(2025, 3, 13, 8, 30, 0, 0, time.UTC)))

	require.True(t, byUID["offsite@example.com"].Cancelled)
}

func TestParseICS_EmptyBody(t *testing.T) {
	_, err := ParseICS(Source{ID: "x"}, nil)
	require.Error(t, err)
}

func TestAttendeeID(t *testing.T) {
	require.Equal(t, "alice@example.com", attendeeID("mailto:Alice@Example.com"))
	require.Equal(t, "alice@example.com", attendeeID(" MAILTO:alice@example.com "))
	require.Equal(t, "room-1", attendeeID("Room-1"))
	require.Equal(t, "", attendeeID(""))
}

func TestParseICSTime(t *testing.T) {
	ts, err := parseICSTime("20250101T090000Z")
	require.NoError(t, err)
	require.True(t, ts.Equal(time.Date(2025, 1, 1, 9, 0, 0, 0, time.UTC)))

	ts, err = parseICSTime("20250101")
	require.NoError(t, err)
	require.Equal(t, 2025, ts.Year())
	require.Equal(t, 0, ts.Hour())

	_, err = parseICSTime("")
	require.Error(t, err)
}

func TestRedactURL(t *testing.T) {
	require.Equal(t, "https://calendar.example.com/...(redacted)", redactURL("https://calendar.example.com/private/abc.ics?token=secret"))
	require.Equal(t, "ics://...(redacted)", redactURL("not a url"))
}
