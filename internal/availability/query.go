package availability

import (
	"meetslot/internal/model"
	"meetslot/internal/timerange"
)

// Tier names the attendee group the returned slots satisfy.
type Tier string

const (
	// TierEveryone: mandatory and optional attendees are all free.
	TierEveryone Tier = "everyone"
	// TierMandatoryOnly: optional attendees were dropped so the meeting
	// is still possible.
	TierMandatoryOnly Tier = "mandatory_only"
	// TierNone: no slot is long enough.
	TierNone Tier = "none"
)

// Result is the detailed outcome of Resolve.
type Result struct {
	Slots []timerange.TimeRange
	Tier  Tier

	// MandatoryBusy and CombinedBusy are the merged busy calendars the
	// slots were derived from. Both are nil on the shortcut paths.
	MandatoryBusy []timerange.TimeRange
	CombinedBusy  []timerange.TimeRange
}

// Query returns the candidate windows for req against events, sorted
// ascending by start. It is a pure function: events and req are only read.
func Query(events []model.Event, req model.MeetingRequest) []timerange.TimeRange {
	return Resolve(events, req).Slots
}

// Resolve is Query plus the bookkeeping behind the answer.
func Resolve(events []model.Event, req model.MeetingRequest) Result {
	if req.Duration > timerange.WholeDay.Duration() {
		return Result{Slots: []timerange.TimeRange{}, Tier: TierNone}
	}
	if len(events) == 0 {
		return wholeDay()
	}

	mandatory := req.MandatorySet()
	optional := req.OptionalSet()

	var mandatoryBusy, combinedBusy []timerange.TimeRange
	touched := false
	for _, ev := range events {
		inMandatory := ev.HasAnyAttendee(mandatory)
		inOptional := ev.HasAnyAttendee(optional)
		if inMandatory {
			mandatoryBusy = append(mandatoryBusy, ev.When)
		}
		if inMandatory || inOptional {
			combinedBusy = append(combinedBusy, ev.When)
			touched = true
		}
	}
	if !touched {
		return wholeDay()
	}

	freeRequired := FreeGaps(mandatoryBusy, req.Duration)
	freeAll := FreeGaps(combinedBusy, req.Duration)

	slots, tier := choose(freeAll, freeRequired)
	return Result{
		Slots:         slots,
		Tier:          tier,
		MandatoryBusy: Merge(mandatoryBusy),
		CombinedBusy:  Merge(combinedBusy),
	}
}

// choose is the single fallback point: prefer slots that suit everyone,
// otherwise settle for the mandatory attendees.
func choose(freeAll, freeRequired []timerange.TimeRange) ([]timerange.TimeRange, Tier) {
	switch {
	case len(freeAll) > 0:
		return freeAll, TierEveryone
	case len(freeRequired) > 0:
		return freeRequired, TierMandatoryOnly
	default:
		return []timerange.TimeRange{}, TierNone
	}
}

func wholeDay() Result {
	return Result{Slots: []timerange.TimeRange{timerange.WholeDay}, Tier: TierEveryone}
}
