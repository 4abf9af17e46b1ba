package model

import (
	"time"
)

// Service names a connectable Google service.
type Service string

const (
	ServiceGmail    Service = "gmail"
	ServiceCalendar Service = "calendar"
)

// Services lists every connectable service in prompt order.
var Services = []Service{ServiceGmail, ServiceCalendar}

// ParseService validates a service name from a URL or request body.
func ParseService(s string) (Service, bool) {
	for _, svc := range Services {
		if string(svc) == s {
			return svc, true
		}
	}
	return "", false
}

// SendEmailIntent is a structured request to send one email.
type SendEmailIntent struct {
	To      string `json:"to"`
	Subject string `json:"subject"`
	Body    string `json:"body"`
}

// Valid reports whether the intent carries a recipient and a subject.
func (i SendEmailIntent) Valid() bool {
	return i.To != "" && i.Subject != ""
}

// CreateEventIntent is a structured request to create one calendar event.
type CreateEventIntent struct {
	Title       string    `json:"title"`
	Start       time.Time `json:"start"`
	End         time.Time `json:"end"`
	AllDay      bool      `json:"all_day"`
	Location    string    `json:"location,omitempty"`
	Description string    `json:"description,omitempty"`
	Attendees   []string  `json:"attendees,omitempty"`
}

// Valid reports whether the intent carries a title and a start.
func (i CreateEventIntent) Valid() bool {
	return i.Title != "" && !i.Start.IsZero()
}

// StartString renders the start the way the Calendar API expects it:
// date-only for all-day events, RFC 3339 with zone otherwise.
func (i CreateEventIntent) StartString() string {
	if i.AllDay {
		return i.Start.Format(time.DateOnly)
	}
	return i.Start.Format(time.RFC3339)
}

// EndString renders the end like StartString.
func (i CreateEventIntent) EndString() string {
	if i.AllDay {
		return i.End.Format(time.DateOnly)
	}
	return i.End.Format(time.RFC3339)
}
