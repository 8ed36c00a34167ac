// Package api holds the JSON wire types shared by the HTTP server and the
// CLI, and their conversion to and from the domain model.
package api

import (
	"fmt"

	"meetslot/internal/apperr"
	"meetslot/internal/availability"
	"meetslot/internal/model"
	"meetslot/internal/timerange"
)

// EventDTO is one busy event, with start/end in minutes since midnight.
type EventDTO struct {
	Title     string   `json:"title,omitempty"`
	Start     int      `json:"start"`
	End       int      `json:"end"`
	Attendees []string `json:"attendees"`
}

// RequestDTO mirrors model.MeetingRequest.
type RequestDTO struct {
	Duration          int      `json:"duration"`
	Attendees         []string `json:"attendees"`
	OptionalAttendees []string `json:"optional_attendees"`
}

// QueryRequest is the body of POST /api/query and the input file of
// `meetslot query`.
type QueryRequest struct {
	Events  []EventDTO `json:"events"`
	Request RequestDTO `json:"request"`
}

// SlotDTO is one time range on the wire.
type SlotDTO struct {
	Start    int    `json:"start"`
	End      int    `json:"end"`
	Duration int    `json:"duration"`
	Label    string `json:"label"`
}

// QueryResponse is returned by both availability endpoints.
type QueryResponse struct {
	Slots         []SlotDTO `json:"slots"`
	Tier          string    `json:"tier"`
	MandatoryBusy []SlotDTO `json:"mandatory_busy,omitempty"`
	CombinedBusy  []SlotDTO `json:"combined_busy,omitempty"`

	// Set by GET /api/availability only.
	Date            string   `json:"date,omitempty"`
	DisplayTimeZone string   `json:"display_timezone,omitempty"`
	EventCount      int      `json:"event_count,omitempty"`
	FailedSources   int      `json:"failed_sources,omitempty"`
	TruncatedUIDs   []string `json:"truncated_uids,omitempty"`
}

// ErrorResponse is the JSON error body.
type ErrorResponse struct {
	Error string `json:"error"`
}

// Decode validates the request and converts it to domain values. At most
// maxEvents events are accepted; zero means no limit.
func (q QueryRequest) Decode(maxEvents int) ([]model.Event, model.MeetingRequest, error) {
	if maxEvents > 0 && len(q.Events) > maxEvents {
		return nil, model.MeetingRequest{}, fmt.Errorf("%w: %d events, limit is %d", apperr.ErrTooManyEvents, len(q.Events), maxEvents)
	}

	events := make([]model.Event, 0, len(q.Events))
	for i, e := range q.Events {
		when, err := timerange.New(e.Start, e.End)
		if err != nil {
			return nil, model.MeetingRequest{}, fmt.Errorf("event %d: %w", i, err)
		}
		events = append(events, model.NewEvent(e.Title, when, e.Attendees...))
	}

	req, err := model.NewMeetingRequest(q.Request.Duration, q.Request.Attendees, q.Request.OptionalAttendees)
	if err != nil {
		return nil, model.MeetingRequest{}, err
	}
	return events, req, nil
}

// NewQueryResponse converts a resolver result to its wire form.
func NewQueryResponse(res availability.Result) QueryResponse {
	return QueryResponse{
		Slots:         Slots(res.Slots),
		Tier:          string(res.Tier),
		MandatoryBusy: Slots(res.MandatoryBusy),
		CombinedBusy:  Slots(res.CombinedBusy),
	}
}

// Slots converts ranges to SlotDTOs. The result is never nil so it
// encodes as [] rather than null.
func Slots(ranges []timerange.TimeRange) []SlotDTO {
	out := make([]SlotDTO, 0, len(ranges))
	for _, r := range ranges {
		out = append(out, SlotDTO{
			Start:    r.Start(),
			End:      r.End(),
			Duration: r.Duration(),
			Label:    r.String(),
		})
	}
	return out
}
