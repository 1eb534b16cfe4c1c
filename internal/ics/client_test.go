package ics

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestClientEvents(t *testing.T) {
	body := icsBody(
		"BEGIN:VEVENT",
		"UID:uid-1",
		"DTSTAMP:20250101T000000Z",
		"DTSTART:20250110T090000Z",
		"DTEND:20250110T100000Z",
		"SUMMARY:Checkup",
		"END:VEVENT",
	)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "text/calendar")
		_, _ = w.Write(body)
	}))
	defer srv.Close()

	c := NewClient(t.TempDir(), []Source{{ID: "feed", URL: srv.URL}})
	c.now = func() time.Time { return time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC) }

	events, err := c.Events(context.Background(), "feed")
	require.NoError(t, err)
	require.Len(t, events, 1)
	assert.Equal(t, "uid-1", events[0].ID)
	assert.Equal(t, "Checkup", events[0].Summary)
	assert.Equal(t, "2025-01-10T09:00:00Z", events[0].Start.DateTime)
}

func TestClientEventsUnknownSource(t *testing.T) {
	c := NewClient(t.TempDir(), nil)

	_, err := c.Events(context.Background(), "nope")
	assert.Error(t, err)
}

func TestClientUsesCacheOnNetworkFailure(t *testing.T) {
	body := icsBody(
		"BEGIN:VEVENT",
		"UID:uid-1",
		"DTSTAMP:20250101T000000Z",
		"DTSTART:20250110T090000Z",
		"DTEND:20250110T100000Z",
		"SUMMARY:Checkup",
		"END:VEVENT",
	)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write(body)
	}))

	cacheDir := t.TempDir()
	c := NewClient(cacheDir, []Source{{ID: "feed", URL: srv.URL}})
	c.now = func() time.Time { return time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC) }

	_, err := c.Events(context.Background(), "feed")
	require.NoError(t, err)

	// Server gone; the cached body keeps the source readable.
	srv.Close()
	events, err := c.Events(context.Background(), "feed")
	require.NoError(t, err)
	require.Len(t, events, 1)
	assert.Equal(t, "uid-1", events[0].ID)
}
