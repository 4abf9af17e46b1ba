// Package assistant turns a chat transcript into Gmail and Calendar context
// and, at most once per confirmed request, into a side-effecting action.
package assistant

import (
	"strings"

	"github.com/capitalize-ai/workspace-assistant/internal/model"
)

// Domain is a family of workspace data the assistant can pull into a prompt.
type Domain string

const (
	DomainEmail    Domain = "email"
	DomainCalendar Domain = "calendar"
)

// DomainFor maps a connectable service to its gate domain.
func DomainFor(s model.Service) Domain {
	if s == model.ServiceCalendar {
		return DomainCalendar
	}
	return DomainEmail
}

var gateKeywords = map[Domain][]string{
	DomainEmail: {
		"email", "e-mail", "inbox", "unread", "latest", "mail", "message",
		"gmail", "sender", "reply",
	},
	DomainCalendar: {
		"calendar", "schedule", "meeting", "today", "agenda", "event",
		"appointment", "tomorrow", "this week", "next week", "busy", "free time",
	},
}

// ShouldFetch reports whether the latest user message asks for data from the
// domain. Assistant messages are ignored. The two domains are independent, so
// one message can open both gates.
func ShouldFetch(d Domain, t model.Transcript) bool {
	text := t.LastUserText()
	if text == "" {
		return false
	}
	for _, kw := range gateKeywords[d] {
		if strings.Contains(text, kw) {
			return true
		}
	}
	return false
}
