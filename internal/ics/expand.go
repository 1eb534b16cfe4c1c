package ics

import (
	"errors"
	"sort"
	"time"

	"github.com/teambition/rrule-go"

	"fogtime/internal/calendar"
	appLog "fogtime/internal/log"
	"fogtime/internal/model"
)

// maxOccurrencesPerEvent caps expansion of a single recurring event so a
// malformed rule cannot produce an unbounded instance list.
const maxOccurrencesPerEvent = 5000

// occurrence is one concrete instance inside the collection window, still in
// time.Time form so the window filter and the final ordering stay exact.
type occurrence struct {
	id          string
	summary     string
	description string
	allDay      bool
	start       time.Time
	end         time.Time
}

// expand turns parsed events into wire records with start in [min, max),
// recurring rules expanded, ordered by start ascending — the same read
// contract the store-backed readers satisfy server-side.
func expand(events []parsedEvent, min, max time.Time) []calendar.RawEvent {
	// Group base events and overrides by UID.
	baseByUID := make(map[string][]parsedEvent)
	overridesByUID := make(map[string][]parsedEvent)
	for _, ev := range events {
		if ev.IsOverride && ev.Recurrence != nil {
			overridesByUID[ev.UID] = append(overridesByUID[ev.UID], ev)
		} else {
			baseByUID[ev.UID] = append(baseByUID[ev.UID], ev)
		}
	}

	occs := make([]occurrence, 0)
	for uid, baseEvents := range baseByUID {
		for _, ev := range baseEvents {
			if ev.RawRRule == "" {
				occs = append(occs, expandSingle(ev, overridesByUID[uid], min, max)...)
			} else {
				occs = append(occs, expandRecurring(ev, overridesByUID[uid], min, max)...)
			}
		}
	}

	sort.Slice(occs, func(i, j int) bool { return occs[i].start.Before(occs[j].start) })

	out := make([]calendar.RawEvent, 0, len(occs))
	for _, occ := range occs {
		out = append(out, toRawEvent(occ))
	}
	return out
}

func expandSingle(ev parsedEvent, overrides []parsedEvent, min, max time.Time) []occurrence {
	start, end := ev.Start, ev.End
	if o, ok := findOverrideForStart(overrides, start); ok {
		start, end = o.Start, o.End
		ev = o
	}
	if start.Before(min) || !start.Before(max) {
		return nil
	}
	return []occurrence{{
		id:          ev.UID,
		summary:     ev.Summary,
		description: ev.Description,
		allDay:      ev.AllDay,
		start:       start,
		end:         end,
	}}
}

func expandRecurring(ev parsedEvent, overrides []parsedEvent, min, max time.Time) []occurrence {
	r, err := rrule.StrToRRule(ev.RawRRule)
	if err != nil {
		appLog.Error("ics rrule parse failed", err, "uid", ev.UID, "rrule", ev.RawRRule)
		return nil
	}
	r.DTStart(ev.Start)

	var set rrule.Set
	set.RRule(r)
	for _, ex := range ev.ExDates {
		// Align EXDATE location with the event's start.
		set.ExDate(ex.In(ev.Start.Location()))
	}

	// Between is inclusive on both ends; the exclusive upper bound of the
	// window is enforced by the explicit start check below.
	loc := ev.Start.Location()
	occTimes := set.Between(min.In(loc), max.In(loc), true)
	if len(occTimes) > maxOccurrencesPerEvent {
		appLog.Error("ics recurrence truncated", errors.New("max occurrences reached"), "uid", ev.UID, "cap", maxOccurrencesPerEvent)
		occTimes = occTimes[:maxOccurrencesPerEvent]
	}

	dur := ev.End.Sub(ev.Start)
	out := make([]occurrence, 0, len(occTimes))
	for _, occStart := range occTimes {
		occEnd := occStart.Add(dur)
		if ev.AllDay {
			date := time.Date(occStart.Year(), occStart.Month(), occStart.Day(), 0, 0, 0, 0, occStart.Location())
			occStart = date
			occEnd = date.Add(24 * time.Hour)
		}

		instEv := ev
		if o, ok := findOverrideForStart(overrides, occStart); ok {
			occStart, occEnd = o.Start, o.End
			instEv = o
		}
		if occStart.Before(min) || !occStart.Before(max) {
			continue
		}

		out = append(out, occurrence{
			// Stable per-instance id: UID qualified by the instance start.
			id:          instEv.UID + "/" + occStart.UTC().Format(time.RFC3339),
			summary:     instEv.Summary,
			description: instEv.Description,
			allDay:      instEv.AllDay,
			start:       occStart,
			end:         occEnd,
		})
	}
	return out
}

// findOverrideForStart finds an override whose RECURRENCE-ID matches the
// given instance start with exact time equality.
func findOverrideForStart(overrides []parsedEvent, start time.Time) (parsedEvent, bool) {
	for _, ov := range overrides {
		if ov.Recurrence == nil {
			continue
		}
		if ov.Recurrence.In(start.Location()).Equal(start) {
			return ov, true
		}
	}
	return parsedEvent{}, false
}

// toRawEvent renders an occurrence in wire form: whole-day instances carry
// the date variant, timed instances the RFC 3339 date-time variant.
func toRawEvent(occ occurrence) calendar.RawEvent {
	raw := calendar.RawEvent{
		ID:          occ.id,
		Summary:     occ.summary,
		Description: occ.description,
	}
	if occ.allDay {
		raw.Start = model.Timestamp{Date: occ.start.Format("2006-01-02")}
		raw.End = model.Timestamp{Date: occ.end.Format("2006-01-02")}
	} else {
		raw.Start = model.Timestamp{DateTime: occ.start.Format(time.RFC3339)}
		raw.End = model.Timestamp{DateTime: occ.end.Format(time.RFC3339)}
	}
	return raw
}
