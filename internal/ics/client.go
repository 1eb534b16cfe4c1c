package ics

import (
	"context"
	"fmt"
	"time"

	"fogtime/internal/calendar"
)

// Client serves a fixed set of ICS subscriptions through the calendar read
// contract, keyed by source id. ICS feeds are read-only: they can act as
// forward-phase sources but never as a write target.
type Client struct {
	fetcher *fetcher
	sources map[string]Source
	now     func() time.Time
}

// NewClient builds a Client for the given sources, caching fetched bodies
// under cacheDir.
func NewClient(cacheDir string, sources []Source) *Client {
	byID := make(map[string]Source, len(sources))
	for _, src := range sources {
		byID[src.ID] = src
	}
	return &Client{
		fetcher: newFetcher(cacheDir),
		sources: byID,
		now:     time.Now,
	}
}

// Events fetches, parses and expands the feed registered under calendarID,
// returning instances with start in the collection window ordered by start
// ascending.
func (c *Client) Events(ctx context.Context, calendarID string) ([]calendar.RawEvent, error) {
	src, ok := c.sources[calendarID]
	if !ok {
		return nil, fmt.Errorf("unknown ics source %q", calendarID)
	}

	body, err := c.fetcher.fetch(ctx, src)
	if err != nil {
		return nil, fmt.Errorf("fetch %s: %w", src.ID, err)
	}

	parsed, err := parseICS(src, body)
	if err != nil {
		return nil, fmt.Errorf("parse %s: %w", src.ID, err)
	}

	min, max := calendar.Window(c.now().UTC())
	return expand(parsed, min, max), nil
}
