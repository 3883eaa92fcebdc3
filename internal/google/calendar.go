package google

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"calhook/internal/models"

	"golang.org/x/oauth2"
	"google.golang.org/api/calendar/v3"
	"google.golang.org/api/googleapi"
	"google.golang.org/api/option"
)

// DefaultEndpoint is the Calendar API v3 base URL.
const DefaultEndpoint = "https://www.googleapis.com/calendar/v3/"

// EventCreationError is returned when the Calendar API answers the insert
// with anything other than 200 or 201.
type EventCreationError struct {
	StatusCode int
	Body       string
}

func (e *EventCreationError) Error() string {
	return fmt.Sprintf("failed to create event: status %d: %s", e.StatusCode, e.Body)
}

// InternalError wraps transport failures and unreadable responses.
type InternalError struct {
	Err error
}

func (e *InternalError) Error() string { return e.Err.Error() }

func (e *InternalError) Unwrap() error { return e.Err }

// CalendarClient talks to a single Google calendar with a caller-supplied access token.
type CalendarClient struct {
	logger     *slog.Logger
	calendarID string
	endpoint   string
}

// NewClient creates a client for calendarID. An empty endpoint selects DefaultEndpoint.
func NewClient(logger *slog.Logger, calendarID, endpoint string) *CalendarClient {
	if endpoint == "" {
		endpoint = DefaultEndpoint
	}
	if !strings.HasSuffix(endpoint, "/") {
		endpoint += "/"
	}
	return &CalendarClient{logger: logger, calendarID: calendarID, endpoint: endpoint}
}

// CreateEvent posts payload, an event resource in JSON, unchanged to the
// events collection and returns the created event as sent back by Google.
func (c *CalendarClient) CreateEvent(ctx context.Context, accessToken string, payload []byte) (json.RawMessage, error) {
	urls := googleapi.ResolveRelative(c.endpoint, "calendars/{calendarId}/events")
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, urls, bytes.NewReader(payload))
	if err != nil {
		return nil, &InternalError{Err: fmt.Errorf("failed to build event request: %w", err)}
	}
	googleapi.Expand(req.URL, map[string]string{"calendarId": c.calendarID})
	req.Header.Set("Content-Type", "application/json")

	c.logger.Debug("Creating event", "calendarID", c.calendarID, "bytes", len(payload))
	resp, err := c.httpClient(ctx, accessToken).Do(req)
	if err != nil {
		return nil, &InternalError{Err: fmt.Errorf("failed to reach calendar API: %w", err)}
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &InternalError{Err: fmt.Errorf("failed to read calendar API response: %w", err)}
	}

	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusCreated {
		c.logger.Warn("Calendar API rejected event", "status", resp.StatusCode)
		return nil, &EventCreationError{StatusCode: resp.StatusCode, Body: string(body)}
	}
	if !json.Valid(body) {
		return nil, &InternalError{Err: fmt.Errorf("calendar API returned invalid JSON (status %d)", resp.StatusCode)}
	}

	c.logger.Info("Successfully created event", "calendarID", c.calendarID, "status", resp.StatusCode)
	return body, nil
}

// GetUpcomingEvents fetches the events of the next days days.
func (c *CalendarClient) GetUpcomingEvents(ctx context.Context, accessToken string, days int) ([]*models.Event, error) {
	service, err := calendar.NewService(ctx,
		option.WithHTTPClient(c.httpClient(ctx, accessToken)),
		option.WithEndpoint(c.endpoint),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create calendar service: %w", err)
	}

	c.logger.Debug("Fetching upcoming events", "calendarID", c.calendarID, "days", days)
	now := time.Now().UTC()
	tmax := now.Add(time.Duration(days) * 24 * time.Hour).Format(time.RFC3339)
	tmin := now.Format(time.RFC3339)

	events, err := service.Events.List(c.calendarID).
		ShowDeleted(false).
		SingleEvents(true).
		TimeMin(tmin).
		TimeMax(tmax).
		OrderBy("startTime").
		Context(ctx).
		Do()
	if err != nil {
		return nil, fmt.Errorf("failed to retrieve events: %w", err)
	}

	c.logger.Info("Successfully fetched events", "count", len(events.Items), "calendarID", c.calendarID)
	return toInternalEvents(events.Items, c.calendarID), nil
}

// httpClient returns a client that sends accessToken as a bearer token.
// The base transport honours oauth2.HTTPClient in ctx.
func (c *CalendarClient) httpClient(ctx context.Context, accessToken string) *http.Client {
	return oauth2.NewClient(ctx, oauth2.StaticTokenSource(&oauth2.Token{AccessToken: accessToken}))
}

// toInternalEvents converts Google Calendar events to the internal Event model.
func toInternalEvents(googleEvents []*calendar.Event, source string) []*models.Event {
	var internalEvents []*models.Event
	for _, item := range googleEvents {
		// All-day events carry a Date rather than a DateTime.
		if item.Start == nil || item.Start.DateTime == "" {
			continue
		}

		startTime, _ := time.Parse(time.RFC3339, item.Start.DateTime)
		var endTime time.Time
		if item.End != nil {
			endTime, _ = time.Parse(time.RFC3339, item.End.DateTime)
		}

		var reminders []int64
		if item.Reminders != nil {
			for _, r := range item.Reminders.Overrides {
				reminders = append(reminders, r.Minutes)
			}
		}

		event := &models.Event{
			ID:              item.Id,
			Title:           item.Summary,
			StartTime:       startTime,
			EndTime:         endTime,
			TimeZone:        item.Start.TimeZone,
			Location:        item.Location,
			ReminderMinutes: reminders,
			Link:            item.HtmlLink,
			Source:          fmt.Sprintf("google-%s", source),
		}
		if item.Organizer != nil {
			event.Organizer = item.Organizer.Email
		}
		internalEvents = append(internalEvents, event)
	}
	return internalEvents
}
