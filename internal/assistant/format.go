package assistant

import (
	"fmt"
	"strings"
	"time"

	"github.com/capitalize-ai/workspace-assistant/internal/model"
)

const (
	emailFetchLimit    = 10
	calendarFetchLimit = 15
	snippetWidth       = 80
)

// formatEmails renders messages as a markdown table capped at the fetch limit.
func formatEmails(emails []model.EmailSummary) string {
	var b strings.Builder
	if len(emails) == 0 {
		b.WriteString("RECENT EMAILS: none found.")
		return b.String()
	}
	if len(emails) > emailFetchLimit {
		emails = emails[:emailFetchLimit]
	}
	fmt.Fprintf(&b, "RECENT EMAILS (%d):\n", len(emails))
	b.WriteString("| # | From | Subject | Date | Snippet |\n|---|---|---|---|---|\n")
	for i, e := range emails {
		fmt.Fprintf(&b, "| %d | %s | %s | %s | %s |\n",
			i+1, cell(e.From, 40), cell(e.Subject, 60), cell(e.Date, 32), cell(e.Snippet, snippetWidth))
	}
	return strings.TrimRight(b.String(), "\n")
}

// formatEvents renders events as a markdown table capped at the fetch limit.
func formatEvents(events []model.CalendarEventSummary, window string) string {
	var b strings.Builder
	if len(events) == 0 {
		fmt.Fprintf(&b, "CALENDAR (%s): no events.", window)
		return b.String()
	}
	if len(events) > calendarFetchLimit {
		events = events[:calendarFetchLimit]
	}
	fmt.Fprintf(&b, "CALENDAR (%s, %d events):\n", window, len(events))
	b.WriteString("| # | Title | When | Location |\n|---|---|---|---|\n")
	for i, e := range events {
		fmt.Fprintf(&b, "| %d | %s | %s | %s |\n",
			i+1, cell(e.Title, 60), cell(eventWhen(e), 48), cell(e.Location, 40))
	}
	return strings.TrimRight(b.String(), "\n")
}

func eventWhen(e model.CalendarEventSummary) string {
	if e.AllDay {
		return e.Start.Format("Mon Jan 2") + " (all day)"
	}
	return e.Start.Format("Mon Jan 2 3:04 PM") + " - " + e.End.Format("3:04 PM")
}

// formatAction renders one action result. The first line carries the
// completion marker the duplicate guard looks for.
func formatAction(r model.ActionResult) string {
	var b strings.Builder
	b.WriteString("ACTION RESULT:\n")
	switch {
	case r.Type == model.ActionSendEmail && r.Email != nil:
		e := r.Email
		switch r.Kind {
		case model.ActionSuccess:
			fmt.Fprintf(&b, "✅ %s to %s | Subject: %s\n", EmailSentMarker, e.To, e.Subject)
			if r.ProviderID != "" {
				fmt.Fprintf(&b, "Message ID: %s\n", r.ProviderID)
			}
		case model.ActionSkipped:
			fmt.Fprintf(&b, "This email to %s (Subject: %s) was already sent earlier in this conversation. It was not sent again.\n", e.To, e.Subject)
		default:
			fmt.Fprintf(&b, "❌ Failed to send email to %s: %s\n", e.To, r.Error)
		}
	case r.Type == model.ActionCreateEvent && r.Event != nil:
		ev := r.Event
		switch r.Kind {
		case model.ActionSuccess:
			fmt.Fprintf(&b, "✅ %s: %s | %s\n", EventCreatedMarker, ev.Title, intentWhen(*ev))
			if ev.Location != "" {
				fmt.Fprintf(&b, "Location: %s\n", ev.Location)
			}
			if r.Link != "" {
				fmt.Fprintf(&b, "Link: %s\n", r.Link)
			}
		case model.ActionSkipped:
			fmt.Fprintf(&b, "The event %q at %s was already created earlier in this conversation. It was not created again.\n", ev.Title, intentWhen(*ev))
		default:
			fmt.Fprintf(&b, "❌ Failed to create event: %s\n", r.Error)
		}
	}
	return strings.TrimRight(b.String(), "\n")
}

// intentWhen renders the start in the notation EventKey matches first.
func intentWhen(i model.CreateEventIntent) string {
	if i.AllDay {
		return i.Start.Format(time.DateOnly) + " (all day)"
	}
	return i.Start.Format("2006-01-02T15:04") + " to " + i.End.Format("15:04") + " " + i.Start.Format("MST")
}

func cell(s string, width int) string {
	s = strings.Join(strings.Fields(s), " ")
	s = strings.ReplaceAll(s, "|", "/")
	if r := []rune(s); len(r) > width {
		return string(r[:width-1]) + "…"
	}
	if s == "" {
		return "-"
	}
	return s
}
