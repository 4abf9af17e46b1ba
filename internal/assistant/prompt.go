package assistant

import (
	"strings"
	"time"
)

const personaPreamble = `You are a helpful personal assistant with optional access to the user's Gmail and Google Calendar.

Guidelines:
- Answer using the email and calendar context below when it is present. Do not invent messages or events.
- Use compact markdown tables when listing several emails or events.
- To send an email, first show a draft with "To:", "Subject:" and "Body:" lines and ask the user to confirm. Only a confirmation sends it.
- To create an event, first show a draft starting with 📅 and "Title:", "Date:", "Time:" and optional "Location:" lines and ask the user to confirm.
- When an ACTION RESULT section is present, start your reply with its first line exactly as written, then summarize briefly.
- Never claim an email was sent or an event was created unless an ACTION RESULT says so.
- If a service is not connected, tell the user to connect it from the connectors menu.`

// promptSections are concatenated in this order.
type promptSections struct {
	Now           time.Time
	Statuses      []string
	Notices       []string
	EmailBlock    string
	CalendarBlock string
	ActionBlock   string
}

func buildSystemPrompt(s promptSections) string {
	var b strings.Builder
	b.WriteString(personaPreamble)
	b.WriteString("\n\nCurrent time: ")
	b.WriteString(s.Now.Format("Monday, January 2, 2006 3:04 PM MST"))

	if len(s.Statuses) > 0 {
		b.WriteString("\n\nCONNECTED SERVICES:\n")
		for _, line := range s.Statuses {
			b.WriteString("- ")
			b.WriteString(line)
			b.WriteString("\n")
		}
	}
	for _, n := range s.Notices {
		b.WriteString("\nNOTICE: ")
		b.WriteString(n)
		b.WriteString("\n")
	}
	for _, block := range []string{s.EmailBlock, s.CalendarBlock, s.ActionBlock} {
		if block == "" {
			continue
		}
		b.WriteString("\n")
		b.WriteString(block)
		b.WriteString("\n")
	}
	return strings.TrimRight(b.String(), "\n")
}
