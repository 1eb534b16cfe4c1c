// Package gcal implements the calendar store contract against the Google
// Calendar v3 API, authorized from OAuth client-secret and token files.
package gcal

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"time"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
	gcalendar "google.golang.org/api/calendar/v3"
	"google.golang.org/api/option"

	"fogtime/internal/calendar"
	appLog "fogtime/internal/log"
	"fogtime/internal/model"
)

// Client wraps the calendar/v3 service. It implements calendar.Client.
type Client struct {
	svc *gcalendar.Service
	now func() time.Time
}

// NewClient builds an authorized client from the OAuth client secret at
// credentialsPath and the authorized token at tokenPath. The token must
// already exist (written by a prior interactive authorization); this process
// never runs the browser flow itself. Expired access tokens refresh
// transparently through the token source.
func NewClient(ctx context.Context, credentialsPath, tokenPath string) (*Client, error) {
	secret, err := os.ReadFile(credentialsPath)
	if err != nil {
		return nil, fmt.Errorf("read credentials: %w", err)
	}
	conf, err := google.ConfigFromJSON(secret, gcalendar.CalendarScope)
	if err != nil {
		return nil, fmt.Errorf("parse credentials: %w", err)
	}

	tok, err := tokenFromFile(tokenPath)
	if err != nil {
		return nil, fmt.Errorf("read token (run the authorization flow first): %w", err)
	}

	svc, err := gcalendar.NewService(ctx, option.WithHTTPClient(conf.Client(ctx, tok)))
	if err != nil {
		return nil, fmt.Errorf("build calendar service: %w", err)
	}

	return &Client{svc: svc, now: time.Now}, nil
}

func tokenFromFile(path string) (*oauth2.Token, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	tok := &oauth2.Token{}
	if err := json.NewDecoder(f).Decode(tok); err != nil {
		return nil, err
	}
	return tok, nil
}

// Events lists all instances on calendarID with start in the collection
// window, recurring series expanded, ordered by start ascending.
func (c *Client) Events(ctx context.Context, calendarID string) ([]calendar.RawEvent, error) {
	min, max := calendar.Window(c.now().UTC())

	var out []calendar.RawEvent
	pageToken := ""
	for {
		call := c.svc.Events.List(calendarID).
			TimeMin(min.Format(time.RFC3339)).
			TimeMax(max.Format(time.RFC3339)).
			SingleEvents(true).
			OrderBy("startTime").
			Context(ctx)
		if pageToken != "" {
			call = call.PageToken(pageToken)
		}

		resp, err := call.Do()
		if err != nil {
			return nil, fmt.Errorf("events.list %s: %w", calendarID, err)
		}
		for _, item := range resp.Items {
			out = append(out, toRaw(item))
		}

		pageToken = resp.NextPageToken
		if pageToken == "" {
			break
		}
	}

	appLog.Debug("gcal list completed", "calendar", calendarID, "event_count", len(out))
	return out, nil
}

// Insert writes a new record. The store assigns the id; it is only observed
// on the next cycle's collection.
func (c *Client) Insert(ctx context.Context, calendarID string, p calendar.Payload) error {
	_, err := c.svc.Events.Insert(calendarID, toBody(p)).Context(ctx).Do()
	if err != nil {
		return fmt.Errorf("events.insert %s: %w", calendarID, err)
	}
	return nil
}

// Patch replaces the payload fields of the record identified by eventID.
func (c *Client) Patch(ctx context.Context, calendarID, eventID string, p calendar.Payload) error {
	_, err := c.svc.Events.Patch(calendarID, eventID, toBody(p)).Context(ctx).Do()
	if err != nil {
		return fmt.Errorf("events.patch %s/%s: %w", calendarID, eventID, err)
	}
	return nil
}

// Delete removes the record identified by eventID.
func (c *Client) Delete(ctx context.Context, calendarID, eventID string) error {
	if err := c.svc.Events.Delete(calendarID, eventID).Context(ctx).Do(); err != nil {
		return fmt.Errorf("events.delete %s/%s: %w", calendarID, eventID, err)
	}
	return nil
}

// toRaw maps an API event onto the wire record the engine consumes.
func toRaw(ev *gcalendar.Event) calendar.RawEvent {
	return calendar.RawEvent{
		ID:          ev.Id,
		Start:       toStamp(ev.Start),
		End:         toStamp(ev.End),
		Summary:     ev.Summary,
		Description: ev.Description,
	}
}

func toStamp(dt *gcalendar.EventDateTime) model.Timestamp {
	if dt == nil {
		return model.Timestamp{}
	}
	return model.Timestamp{Date: dt.Date, DateTime: dt.DateTime}
}

// toBody maps a write payload onto the API body. Each timestamp sets exactly
// one of date/dateTime and nulls the other so a patch can flip a record
// between all-day and timed.
func toBody(p calendar.Payload) *gcalendar.Event {
	return &gcalendar.Event{
		Summary:     p.Summary,
		Description: p.Description,
		Start:       fromStamp(p.Start),
		End:         fromStamp(p.End),
	}
}

func fromStamp(t model.Timestamp) *gcalendar.EventDateTime {
	if t.Date != "" {
		return &gcalendar.EventDateTime{Date: t.Date, NullFields: []string{"DateTime"}}
	}
	return &gcalendar.EventDateTime{DateTime: t.DateTime, NullFields: []string{"Date"}}
}
