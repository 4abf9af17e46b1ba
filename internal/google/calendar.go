package google

import (
	"context"
	"fmt"
	"time"

	calendar "google.golang.org/api/calendar/v3"
	"google.golang.org/api/option"

	"github.com/capitalize-ai/workspace-assistant/internal/model"
)

const primaryCalendar = "primary"

// CalendarClient lists and creates events on the token holder's primary calendar.
type CalendarClient struct {
	opts []option.ClientOption
}

// NewCalendarClient creates a client. opts apply to every underlying service.
func NewCalendarClient(opts ...option.ClientOption) *CalendarClient {
	return &CalendarClient{opts: opts}
}

func (c *CalendarClient) service(ctx context.Context, token *model.AccessToken) (*calendar.Service, error) {
	svc, err := calendar.NewService(ctx, clientOptions(c.opts, token)...)
	if err != nil {
		return nil, fmt.Errorf("calendar service: %w", err)
	}
	return svc, nil
}

// ListEvents returns single (expanded) events in the window ordered by start.
func (c *CalendarClient) ListEvents(ctx context.Context, token *model.AccessToken, q model.EventQuery) ([]model.CalendarEventSummary, error) {
	svc, err := c.service(ctx, token)
	if err != nil {
		return nil, err
	}

	call := svc.Events.List(primaryCalendar).
		SingleEvents(true).
		OrderBy("startTime").
		TimeMin(q.TimeMin.Format(time.RFC3339)).
		TimeMax(q.TimeMax.Format(time.RFC3339)).
		Context(ctx)
	if q.Limit > 0 {
		call = call.MaxResults(int64(q.Limit))
	}

	resp, err := call.Do()
	if err != nil {
		return nil, fmt.Errorf("list events: %w", err)
	}

	events := make([]model.CalendarEventSummary, 0, len(resp.Items))
	for _, item := range resp.Items {
		if item.Status == "cancelled" {
			continue
		}
		events = append(events, summarizeEvent(item))
	}
	return events, nil
}

// CreateEvent inserts the event and returns the stored copy.
func (c *CalendarClient) CreateEvent(ctx context.Context, token *model.AccessToken, intent model.CreateEventIntent) (*model.CalendarEventSummary, error) {
	svc, err := c.service(ctx, token)
	if err != nil {
		return nil, err
	}

	event := &calendar.Event{
		Summary:     intent.Title,
		Location:    intent.Location,
		Description: intent.Description,
		Start:       eventTime(intent.Start, intent.AllDay),
		End:         eventTime(intent.End, intent.AllDay),
	}
	for _, addr := range intent.Attendees {
		event.Attendees = append(event.Attendees, &calendar.EventAttendee{Email: addr})
	}

	call := svc.Events.Insert(primaryCalendar, event).Context(ctx)
	if len(event.Attendees) > 0 {
		call = call.SendUpdates("all")
	}
	created, err := call.Do()
	if err != nil {
		return nil, fmt.Errorf("insert event: %w", err)
	}

	summary := summarizeEvent(created)
	return &summary, nil
}

// AccountEmail returns the primary calendar id, which is the owner's address.
func (c *CalendarClient) AccountEmail(ctx context.Context, token *model.AccessToken) (string, error) {
	svc, err := c.service(ctx, token)
	if err != nil {
		return "", err
	}
	cal, err := svc.Calendars.Get(primaryCalendar).Context(ctx).Do()
	if err != nil {
		return "", fmt.Errorf("get primary calendar: %w", err)
	}
	return cal.Id, nil
}

func eventTime(t time.Time, allDay bool) *calendar.EventDateTime {
	if allDay {
		return &calendar.EventDateTime{Date: t.Format(time.DateOnly)}
	}
	edt := &calendar.EventDateTime{DateTime: t.Format(time.RFC3339)}
	// The offset in DateTime is enough when the zone has no IANA name.
	if name := t.Location().String(); name != "Local" {
		edt.TimeZone = name
	}
	return edt
}

func summarizeEvent(item *calendar.Event) model.CalendarEventSummary {
	s := model.CalendarEventSummary{
		ID:       item.Id,
		Title:    defaultStr(item.Summary, "(untitled)"),
		Location: item.Location,
		Link:     item.HtmlLink,
	}
	s.Start, s.AllDay = parseEventTime(item.Start)
	s.End, _ = parseEventTime(item.End)
	return s
}

func parseEventTime(dt *calendar.EventDateTime) (time.Time, bool) {
	if dt == nil {
		return time.Time{}, false
	}
	if dt.DateTime != "" {
		t, err := time.Parse(time.RFC3339, dt.DateTime)
		if err == nil {
			return t, false
		}
	}
	if dt.Date != "" {
		loc := time.UTC
		if dt.TimeZone != "" {
			if l, err := time.LoadLocation(dt.TimeZone); err == nil {
				loc = l
			}
		}
		t, err := time.ParseInLocation(time.DateOnly, dt.Date, loc)
		if err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}
