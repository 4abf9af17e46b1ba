package assistant

import (
	"strings"
	"time"

	"github.com/capitalize-ai/workspace-assistant/internal/model"
)

// Completion markers the assistant is instructed to echo after an action.
const (
	EmailSentMarker    = "EMAIL SENT"
	EventCreatedMarker = "EVENT CREATED"
)

var completionMarkers = map[model.ActionType]string{
	model.ActionSendEmail:   strings.ToLower(EmailSentMarker),
	model.ActionCreateEvent: strings.ToLower(EventCreatedMarker),
}

// IdentityKey identifies an action within a transcript. Subject must appear
// in the completion message together with at least one rendering of the
// discriminator.
type IdentityKey struct {
	Subject        string
	Discriminators []string
}

// String renders the key as "subject:discriminator", lower-cased.
func (k IdentityKey) String() string {
	d := ""
	if len(k.Discriminators) > 0 {
		d = k.Discriminators[0]
	}
	return strings.ToLower(k.Subject + ":" + d)
}

// EmailKey is recipient:subject.
func EmailKey(i model.SendEmailIntent) IdentityKey {
	return IdentityKey{Subject: i.To, Discriminators: []string{i.Subject}}
}

// EventKey is title:start. The start is matched in the notations the
// assistant is likely to echo back.
func EventKey(i model.CreateEventIntent) IdentityKey {
	s := i.Start
	var renderings []string
	if i.AllDay {
		renderings = []string{
			s.Format(time.DateOnly),
			s.Format("January 2, 2006"),
			s.Format("Jan 2, 2006"),
		}
	} else {
		renderings = []string{
			s.Format("2006-01-02T15:04"),
			s.Format("2006-01-02 15:04"),
			s.Format("January 2, 2006 at 3:04 PM"),
			s.Format("January 2, 2006, 3:04 PM"),
			s.Format("Jan 2, 2006 at 3:04 PM"),
		}
	}
	return IdentityKey{Subject: i.Title, Discriminators: renderings}
}

// AlreadyHandled reports whether some assistant message in the transcript
// already reported the action as completed. It is a text heuristic: the
// marker phrase plus the key's subject and one discriminator rendering,
// compared case-insensitively.
func AlreadyHandled(t model.Transcript, action model.ActionType, key IdentityKey) bool {
	marker, ok := completionMarkers[action]
	if !ok || key.Subject == "" {
		return false
	}
	subject := strings.ToLower(key.Subject)

	for _, msg := range t {
		if msg.Role != model.RoleAssistant {
			continue
		}
		text := strings.ToLower(msg.Content)
		if !strings.Contains(text, marker) || !strings.Contains(text, subject) {
			continue
		}
		if len(key.Discriminators) == 0 {
			return true
		}
		for _, d := range key.Discriminators {
			if d != "" && strings.Contains(text, strings.ToLower(d)) {
				return true
			}
		}
	}
	return false
}
