package model

import (
	"fmt"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/samber/lo"

	"meetslot/internal/apperr"
	"meetslot/internal/timerange"
)

var validate = validator.New()

// Event is a named occurrence within a single day. Callers own events; the
// availability code only reads them.
type Event struct {
	Title string
	When  timerange.TimeRange
	// Attendees holds unique attendee identifiers. Order is irrelevant.
	Attendees []string
}

// NewEvent builds an Event, dropping duplicate and empty attendee
// identifiers. The attendee slice is copied.
func NewEvent(title string, when timerange.TimeRange, attendees ...string) Event {
	return Event{
		Title:     title,
		When:      when,
		Attendees: normalizeAttendees(attendees),
	}
}

// HasAnyAttendee reports whether at least one of the event's attendees is
// in set.
func (e Event) HasAnyAttendee(set map[string]struct{}) bool {
	if len(set) == 0 {
		return false
	}
	return lo.SomeBy(e.Attendees, func(a string) bool {
		_, ok := set[a]
		return ok
	})
}

// MeetingRequest describes the meeting to place: how long it lasts and who
// must or may attend. The two attendee sets may overlap or be empty.
type MeetingRequest struct {
	// Duration in minutes. Values above a full day are valid and simply
	// yield no slots.
	Duration          int      `validate:"gte=0"`
	Attendees         []string `validate:"dive,required"`
	OptionalAttendees []string `validate:"dive,required"`
}

// NewMeetingRequest validates and builds a MeetingRequest. Attendee slices
// are copied and deduplicated.
func NewMeetingRequest(duration int, attendees, optional []string) (MeetingRequest, error) {
	req := MeetingRequest{
		Duration:          duration,
		Attendees:         lo.Uniq(attendees),
		OptionalAttendees: lo.Uniq(optional),
	}
	if err := req.Validate(); err != nil {
		return MeetingRequest{}, err
	}
	return req, nil
}

// Validate rejects negative durations and empty attendee identifiers.
func (r MeetingRequest) Validate() error {
	if err := validate.Struct(r); err != nil {
		return fmt.Errorf("%w: meeting request: %v", apperr.ErrInvalidArgument, err)
	}
	return nil
}

// MandatorySet returns the mandatory attendees as a lookup set.
func (r MeetingRequest) MandatorySet() map[string]struct{} {
	return toSet(r.Attendees)
}

// OptionalSet returns the optional attendees as a lookup set.
func (r MeetingRequest) OptionalSet() map[string]struct{} {
	return toSet(r.OptionalAttendees)
}

// Occurrence is a single concrete instance of a feed event after
// recurrence expansion and timezone normalization. It still carries
// absolute times; ics.ProjectDay turns it into an Event.
type Occurrence struct {
	SourceID string // calendar source ID
	UID      string // iCalendar UID

	// InstanceKey uniquely identifies one occurrence of a recurring event,
	// derived from the local start time.
	InstanceKey string

	Summary   string
	Attendees []string

	AllDay bool
	// Transparent occurrences (TRANSP:TRANSPARENT) do not block time.
	Transparent bool

	// Start / End are in the configured display timezone.
	Start time.Time
	End   time.Time
}

func normalizeAttendees(in []string) []string {
	out := lo.Uniq(lo.Filter(in, func(a string, _ int) bool { return a != "" }))
	if out == nil {
		return []string{}
	}
	return out
}

func toSet(in []string) map[string]struct{} {
	set := make(map[string]struct{}, len(in))
	for _, a := range in {
		set[a] = struct{}{}
	}
	return set
}
