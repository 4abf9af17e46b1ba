package assistant

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/capitalize-ai/workspace-assistant/internal/model"
)

func user(text string) model.ChatMessage {
	return model.ChatMessage{Role: model.RoleUser, Content: text}
}

func assistantMsg(text string) model.ChatMessage {
	return model.ChatMessage{Role: model.RoleAssistant, Content: text}
}

func TestShouldFetch(t *testing.T) {
	tests := []struct {
		name     string
		t        model.Transcript
		email    bool
		calendar bool
	}{
		{"inbox request", model.Transcript{user("show me my recent emails")}, true, false},
		{"case insensitive", model.Transcript{user("Check my INBOX")}, true, false},
		{"agenda request", model.Transcript{user("What's on my agenda?")}, false, true},
		{"both domains", model.Transcript{user("any emails about the meeting tomorrow?")}, true, true},
		{"small talk", model.Transcript{user("hello there")}, false, false},
		{"no user message", model.Transcript{assistantMsg("your inbox has 3 unread emails")}, false, false},
		{"empty transcript", nil, false, false},
		{
			"assistant text ignored",
			model.Transcript{assistantMsg("your calendar is free today"), user("thanks, that is all")},
			false, false,
		},
		{
			"only the latest user message counts",
			model.Transcript{user("check my inbox"), assistantMsg("done"), user("how are you?")},
			false, false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.email, ShouldFetch(DomainEmail, tt.t), "email gate")
			assert.Equal(t, tt.calendar, ShouldFetch(DomainCalendar, tt.t), "calendar gate")
		})
	}
}

func TestShouldFetch_AddingTextKeepsGateOpen(t *testing.T) {
	base := "show me my unread mail"
	assert.True(t, ShouldFetch(DomainEmail, model.Transcript{user(base)}))

	for _, suffix := range []string{" please", " and nothing else", ", ignore the rest", " 123"} {
		assert.True(t, ShouldFetch(DomainEmail, model.Transcript{user(base + suffix)}), suffix)
	}
}

func TestDomainFor(t *testing.T) {
	assert.Equal(t, DomainEmail, DomainFor(model.ServiceGmail))
	assert.Equal(t, DomainCalendar, DomainFor(model.ServiceCalendar))
}
