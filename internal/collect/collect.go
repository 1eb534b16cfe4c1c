// Package collect turns raw calendar records into canonical-id-keyed
// snapshots. All snapshots are rebuilt from live reads every cycle; nothing
// here survives across cycles.
package collect

import (
	"context"
	"fmt"

	"fogtime/internal/calendar"
	appLog "fogtime/internal/log"
	"fogtime/internal/model"
	"fogtime/internal/tag"
)

// Source pairs a calendar id with the reader serving it, so heterogeneous
// backends (Google calendars, ICS feeds) can be merged in one pass.
type Source struct {
	CalendarID string
	Reader     calendar.Reader
}

// Normalize converts a raw record into a canonical Event.
//
// The canonical id is the decoded tag when the description carries one, else
// the store-assigned id. When keepInfo is false, summary and description are
// dropped: placeholder collections compare on start/end only and carrying
// payload text would register spurious diffs.
func Normalize(raw calendar.RawEvent, keepInfo bool) model.Event {
	ev := model.Event{
		CanonicalID: raw.ID,
		ProviderID:  raw.ID,
		Start:       raw.Start,
		End:         raw.End,
	}
	if id, ok := tag.Decode(raw.Description); ok {
		ev.CanonicalID = id
	}
	if keepInfo {
		ev.Summary = raw.Summary
		ev.Description = raw.Description
	}
	return ev
}

// Events collects one calendar into a canonical-id-keyed map.
//
// keepInfo=false additionally excludes every raw record whose description
// already carries a tag. This is the primary loop-prevention filter on the
// forward path: a blocker mirrored onto an overlapping source calendar would
// otherwise be re-ingested as a new appointment.
func Events(ctx context.Context, r calendar.Reader, calendarID string, keepInfo bool) (map[string]model.Event, error) {
	raws, err := r.Events(ctx, calendarID)
	if err != nil {
		return nil, fmt.Errorf("list %s: %w", calendarID, err)
	}

	out := make(map[string]model.Event, len(raws))
	for _, raw := range raws {
		if !keepInfo && tag.Has(raw.Description) {
			continue
		}
		ev := Normalize(raw, keepInfo)
		out[ev.CanonicalID] = ev
	}
	return out, nil
}

// Merge collects several sources into one snapshot. On canonical-id
// collision the record from the later source overwrites the earlier one.
// That is a documented lossy policy, not an accident; it is logged so the
// loss is at least visible.
func Merge(ctx context.Context, sources []Source) (map[string]model.Event, error) {
	merged := make(map[string]model.Event)
	for _, src := range sources {
		events, err := Events(ctx, src.Reader, src.CalendarID, false)
		if err != nil {
			return nil, err
		}
		for id, ev := range events {
			if _, dup := merged[id]; dup {
				appLog.Info("canonical id collision, later source wins", "id", id, "source", src.CalendarID)
			}
			merged[id] = ev
		}
	}
	return merged, nil
}

// Blockers collects the placeholder records already present on the target
// calendar: records whose summary equals the placeholder label. Payload
// content is dropped (they carry the tag by construction, so no tag filter
// applies here).
func Blockers(ctx context.Context, r calendar.Reader, calendarID, label string) (map[string]model.Event, error) {
	raws, err := r.Events(ctx, calendarID)
	if err != nil {
		return nil, fmt.Errorf("list %s: %w", calendarID, err)
	}

	out := make(map[string]model.Event)
	for _, raw := range raws {
		if raw.Summary != label {
			continue
		}
		ev := Normalize(raw, false)
		out[ev.CanonicalID] = ev
	}
	return out, nil
}

// NotBlockers collects the genuine appointments on the target calendar: not
// a placeholder, and not carrying a tag. These form the reverse phase's
// desired set; the tag-absence check keeps previously mirrored output from
// being mistaken for new appointments.
func NotBlockers(ctx context.Context, r calendar.Reader, calendarID, label string) (map[string]model.Event, error) {
	raws, err := r.Events(ctx, calendarID)
	if err != nil {
		return nil, fmt.Errorf("list %s: %w", calendarID, err)
	}

	out := make(map[string]model.Event)
	for _, raw := range raws {
		if raw.Summary == label {
			continue
		}
		if tag.Has(raw.Description) {
			continue
		}
		ev := Normalize(raw, true)
		out[ev.CanonicalID] = ev
	}
	return out, nil
}

// Mirrors collects the previously mirrored records on the reverse-target
// calendar: exactly the records carrying a tag, payload kept for structural
// comparison against the freshly stamped desired set.
func Mirrors(ctx context.Context, r calendar.Reader, calendarID string) (map[string]model.Event, error) {
	raws, err := r.Events(ctx, calendarID)
	if err != nil {
		return nil, fmt.Errorf("list %s: %w", calendarID, err)
	}

	out := make(map[string]model.Event)
	for _, raw := range raws {
		if !tag.Has(raw.Description) {
			continue
		}
		ev := Normalize(raw, true)
		out[ev.CanonicalID] = ev
	}
	return out, nil
}
