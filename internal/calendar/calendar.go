// Package calendar defines the wire-level view of a calendar store and the
// read/write contracts the sync engine depends on. Concrete backends live in
// internal/gcal (Google Calendar) and internal/ics (read-only ICS feeds).
package calendar

import (
	"context"
	"time"

	"fogtime/internal/model"
)

// WindowDays is the collection horizon: readers return instances whose start
// falls within [now, now+WindowDays days).
const WindowDays = 90

// Window returns the [min, max) collection range anchored at now.
func Window(now time.Time) (time.Time, time.Time) {
	return now, now.AddDate(0, 0, WindowDays)
}

// RawEvent is a single event instance as exposed by a calendar store:
// recurring series already expanded, ID assigned by the store.
type RawEvent struct {
	ID          string
	Start       model.Timestamp
	End         model.Timestamp
	Summary     string
	Description string
}

// Payload is the writable portion of an event. Start/End must each populate
// exactly one of date/dateTime on the wire; the backend nulls the other
// variant explicitly so a patch can flip an event between timed and all-day.
type Payload struct {
	Summary     string
	Description string
	Start       model.Timestamp
	End         model.Timestamp
}

// Reader lists event instances of one calendar within the collection window,
// ordered by start time ascending.
type Reader interface {
	Events(ctx context.Context, calendarID string) ([]RawEvent, error)
}

// Writer mutates single records of a calendar. All three operations are one
// network call each with no local retry; failures propagate to the caller.
type Writer interface {
	Insert(ctx context.Context, calendarID string, p Payload) error
	Patch(ctx context.Context, calendarID, eventID string, p Payload) error
	Delete(ctx context.Context, calendarID, eventID string) error
}

// Client is a full read/write calendar store.
type Client interface {
	Reader
	Writer
}
