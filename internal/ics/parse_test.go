package ics

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func icsBody(lines ...string) []byte {
	all := append([]string{
		"BEGIN:VCALENDAR",
		"VERSION:2.0",
		"PRODID:-//fogtime tests//EN",
	}, lines...)
	all = append(all, "END:VCALENDAR", "")
	return []byte(strings.Join(all, "\r\n"))
}

func TestParseICSTimedEvent(t *testing.T) {
	body := icsBody(
		"BEGIN:VEVENT",
		"UID:uid-1",
		"DTSTAMP:20250101T000000Z",
		"DTSTART:20250110T090000Z",
		"DTEND:20250110T100000Z",
		"SUMMARY:Checkup",
		"DESCRIPTION:bring card",
		"END:VEVENT",
	)

	events, err := parseICS(Source{ID: "feed"}, body)
	require.NoError(t, err)
	require.Len(t, events, 1)

	ev := events[0]
	assert.Equal(t, "uid-1", ev.UID)
	assert.Equal(t, "Checkup", ev.Summary)
	assert.Equal(t, "bring card", ev.Description)
	assert.False(t, ev.AllDay)
	assert.True(t, ev.Start.Equal(time.Date(2025, 1, 10, 9, 0, 0, 0, time.UTC)))
	assert.True(t, ev.End.Equal(time.Date(2025, 1, 10, 10, 0, 0, 0, time.UTC)))
}

func TestParseICSAllDayEvent(t *testing.T) {
	body := icsBody(
		"BEGIN:VEVENT",
		"UID:uid-2",
		"DTSTAMP:20250101T000000Z",
		"DTSTART;VALUE=DATE:20250120",
		"DTEND;VALUE=DATE:20250121",
		"SUMMARY:Holiday",
		"END:VEVENT",
	)

	events, err := parseICS(Source{ID: "feed"}, body)
	require.NoError(t, err)
	require.Len(t, events, 1)
	assert.True(t, events[0].AllDay)
}

func TestParseICSRecurrenceFields(t *testing.T) {
	body := icsBody(
		"BEGIN:VEVENT",
		"UID:uid-3",
		"DTSTAMP:20250101T000000Z",
		"DTSTART:20250110T090000Z",
		"DTEND:20250110T100000Z",
		"RRULE:FREQ=DAILY;COUNT=5",
		"EXDATE:20250112T090000Z",
		"SUMMARY:Standup",
		"END:VEVENT",
	)

	events, err := parseICS(Source{ID: "feed"}, body)
	require.NoError(t, err)
	require.Len(t, events, 1)

	ev := events[0]
	assert.Equal(t, "FREQ=DAILY;COUNT=5", ev.RawRRule)
	require.Len(t, ev.ExDates, 1)
	assert.True(t, ev.ExDates[0].Equal(time.Date(2025, 1, 12, 9, 0, 0, 0, time.UTC)))
}

func TestParseICSSkipsEventWithoutUID(t *testing.T) {
	body := icsBody(
		"BEGIN:VEVENT",
		"DTSTAMP:20250101T000000Z",
		"DTSTART:20250110T090000Z",
		"DTEND:20250110T100000Z",
		"SUMMARY:No identity",
		"END:VEVENT",
		"BEGIN:VEVENT",
		"UID:uid-4",
		"DTSTAMP:20250101T000000Z",
		"DTSTART:20250111T090000Z",
		"DTEND:20250111T100000Z",
		"SUMMARY:Valid",
		"END:VEVENT",
	)

	events, err := parseICS(Source{ID: "feed"}, body)
	require.NoError(t, err)
	require.Len(t, events, 1)
	assert.Equal(t, "uid-4", events[0].UID)
}

func TestParseICSEmptyBody(t *testing.T) {
	_, err := parseICS(Source{ID: "feed"}, nil)
	assert.Error(t, err)
}
