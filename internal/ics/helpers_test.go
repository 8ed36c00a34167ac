package ics

import (
	"strings"
	"testing"

	"go.uber.org/zap"

	appLog "meetslot/internal/log"
)

const teamCalendar = `BEGIN:VCALENDAR
VERSION:2.0
PRODID:-//meetslot//test//EN
BEGIN:VEVENT
UID:planning@example.com
DTSTAMP:20250301T000000Z
DTSTART:20250312T090000Z
DTEND:20250312T100000Z
SUMMARY:Planning
ATTENDEE;CN=Alice:mailto:Alice@Example.com
ATTENDEE;CN=Bob:MAILTO:bob@example.com
ATTENDEE;CN=Alice again:mailto:alice@example.com
END:VEVENT
BEGIN:VEVENT
UID:focus@example.com
DTSTAMP:20250301T000000Z
DTSTART:20250312T130000Z
DTEND:20250312T140000Z
SUMMARY:Focus time
TRANSP:TRANSPARENT
END:VEVENT
BEGIN:VEVENT
UID:standup@example.com
DTSTAMP:20250301T000000Z
DTSTART:20250310T083000Z
DTEND:20250310T084500Z
SUMMARY:Standup
RRULE:FREQ=DAILY;COUNT=5
EXDATE:20250313T083000Z
END:VEVENT
BEGIN:VEVENT
UID:offsite@example.com
DTSTAMP:20250301T000000Z
DTSTART:20250312T150000Z
DTEND:20250312T160000Z
SUMMARY:Offsite
STATUS:CANCELLED
END:VEVENT
BEGIN:VEVENT
DTSTAMP:20250301T000000Z
DTSTART:20250312T170000Z
DTEND:20250312T180000Z
SUMMARY:No UID
END:VEVENT
END:VCALENDAR
`

// crlf converts a fixture to the line endings RFC 5545 mandates.
func crlf(s string) []byte {
	return []byte(strings.ReplaceAll(s, "\n", "\r\n"))
}

func quietLogs(t *testing.T) {
	t.Helper()
	appLog.SetLogger(zap.NewNop())
}
