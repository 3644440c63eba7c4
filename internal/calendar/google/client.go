package google

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	gcal "google.golang.org/api/calendar/v3"
	"google.golang.org/api/googleapi"
	"google.golang.org/api/option"

	"github.com/joseph-ayodele/shift-sync/internal/calendar"
)

// Client implements calendar.Service on the Google Calendar v3 API.
type Client struct {
	svc    *gcal.Service
	logger *slog.Logger
}

var _ calendar.Service = (*Client)(nil)

// New builds a Client. Callers pass option.WithHTTPClient with an authorized client,
// or option.WithEndpoint for a test server.
func New(ctx context.Context, logger *slog.Logger, opts ...option.ClientOption) (*Client, error) {
	if logger == nil {
		logger = slog.Default()
	}
	svc, err := gcal.NewService(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("calendar service: %w", err)
	}
	return &Client{svc: svc, logger: logger}, nil
}

func (c *Client) TimeZone(ctx context.Context, calendarID string) (string, error) {
	cal, err := c.svc.Calendars.Get(calendarID).Context(ctx).Do()
	if err != nil {
		return "", apiError(err)
	}
	return cal.TimeZone, nil
}

// Upsert inserts ev under its id. An existing event with that id (HTTP 409) is updated instead.
func (c *Client) Upsert(ctx context.Context, calendarID string, ev calendar.Event) (calendar.Event, error) {
	body := toAPI(ev)
	out, err := c.svc.Events.Insert(calendarID, body).Context(ctx).Do()
	if err == nil {
		c.logger.Debug("gcal.event.inserted", "event_id", ev.ID)
		return fromAPI(out), nil
	}
	var gerr *googleapi.Error
	if !errors.As(err, &gerr) || gerr.Code != http.StatusConflict {
		return calendar.Event{}, apiError(err)
	}

	// a previously deleted event keeps its id; confirming it restores it
	body.Status = "confirmed"
	out, err = c.svc.Events.Update(calendarID, ev.ID, body).Context(ctx).Do()
	if err != nil {
		return calendar.Event{}, apiError(err)
	}
	c.logger.Debug("gcal.event.updated", "event_id", ev.ID)
	return fromAPI(out), nil
}

func (c *Client) List(ctx context.Context, calendarID string, q calendar.ListQuery) ([]calendar.Event, error) {
	call := c.svc.Events.List(calendarID).
		TimeMin(q.From.Format(time.RFC3339)).
		TimeMax(q.To.Format(time.RFC3339)).
		SingleEvents(true).
		OrderBy("startTime").
		MaxResults(2500)

	var out []calendar.Event
	err := call.Pages(ctx, func(page *gcal.Events) error {
		for _, item := range page.Items {
			if q.Title != "" && item.Summary != q.Title {
				continue
			}
			out = append(out, fromAPI(item))
		}
		return nil
	})
	if err != nil {
		return nil, apiError(err)
	}
	return out, nil
}

func (c *Client) Delete(ctx context.Context, calendarID, eventID string) error {
	if err := c.svc.Events.Delete(calendarID, eventID).Context(ctx).Do(); err != nil {
		return apiError(err)
	}
	return nil
}

func toAPI(ev calendar.Event) *gcal.Event {
	return &gcal.Event{
		Id:          ev.ID,
		ICalUID:     ev.ICalUID,
		Summary:     ev.Summary,
		Description: ev.Description,
		Start: &gcal.EventDateTime{
			DateTime: ev.Start.Format(time.RFC3339),
			TimeZone: ev.TimeZone,
		},
		End: &gcal.EventDateTime{
			DateTime: ev.End.Format(time.RFC3339),
			TimeZone: ev.TimeZone,
		},
	}
}

func fromAPI(e *gcal.Event) calendar.Event {
	ev := calendar.Event{
		ID:          e.Id,
		ICalUID:     e.ICalUID,
		Summary:     e.Summary,
		Description: e.Description,
		HTMLLink:    e.HtmlLink,
	}
	if e.Start != nil {
		ev.Start, ev.TimeZone = parseDateTime(e.Start)
	}
	if e.End != nil {
		ev.End, _ = parseDateTime(e.End)
	}
	return ev
}

// parseDateTime reads timed and all-day values; all-day values have only Date set.
func parseDateTime(dt *gcal.EventDateTime) (time.Time, string) {
	if dt.DateTime != "" {
		t, _ := time.Parse(time.RFC3339, dt.DateTime)
		return t, dt.TimeZone
	}
	t, _ := time.Parse(time.DateOnly, dt.Date)
	return t, dt.TimeZone
}

func apiError(err error) error {
	var gerr *googleapi.Error
	if errors.As(err, &gerr) {
		return &calendar.APIError{Status: gerr.Code, Message: gerr.Message}
	}
	return err
}
