package assistant

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/capitalize-ai/workspace-assistant/internal/model"
)

func TestExtractSendEmail_DirectRequest(t *testing.T) {
	tr := model.Transcript{user("send an email to a@b.com subject: Hello body: Hi there")}

	intent, ok := ExtractSendEmail(tr)
	require.True(t, ok)
	assert.Equal(t, model.SendEmailIntent{To: "a@b.com", Subject: "Hello", Body: "Hi there"}, intent)
}

func TestExtractSendEmail_ConfirmsDraft(t *testing.T) {
	tests := []struct {
		name  string
		draft string
		reply string
		want  model.SendEmailIntent
	}{
		{
			name:  "inline draft",
			draft: "Here you go. To: a@b.com Subject: Hello. Want me to send it?",
			reply: "yes",
			want:  model.SendEmailIntent{To: "a@b.com", Subject: "Hello", Body: "Regarding: Hello"},
		},
		{
			name:  "line draft with body",
			draft: "Here is the draft:\nTo: a@b.com\nSubject: Hello\nBody: Hi there\n\nShall I send it?",
			reply: "Send it!",
			want:  model.SendEmailIntent{To: "a@b.com", Subject: "Hello", Body: "Hi there"},
		},
		{
			name:  "markdown emphasis",
			draft: "**To:** a@b.com\n**Subject:** Quarterly numbers\n**Body:** Attached.\n\nConfirm?",
			reply: "OK.",
			want:  model.SendEmailIntent{To: "a@b.com", Subject: "Quarterly numbers", Body: "Attached."},
		},
		{
			name:  "explicit To line wins over other addresses",
			draft: "I found c@d.com in your inbox.\nTo: a@b.com\nSubject: Hello",
			reply: "go ahead",
			want:  model.SendEmailIntent{To: "a@b.com", Subject: "Hello", Body: "Regarding: Hello"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tr := model.Transcript{assistantMsg(tt.draft), user(tt.reply)}
			intent, ok := ExtractSendEmail(tr)
			require.True(t, ok)
			assert.Equal(t, tt.want, intent)
		})
	}
}

func TestExtractSendEmail_DefaultBody(t *testing.T) {
	intent, ok := ExtractSendEmail(model.Transcript{user("please send an email to a@b.com subject: Lunch")})
	require.True(t, ok)
	assert.Equal(t, "Regarding: Lunch", intent.Body)
}

func TestExtractSendEmail_QuotedSubject(t *testing.T) {
	intent, ok := ExtractSendEmail(model.Transcript{user(`send email to a@b.com subject: "Launch plan"`)})
	require.True(t, ok)
	assert.Equal(t, "Launch plan", intent.Subject)
}

func TestExtractSendEmail_LaterMessageOverwrites(t *testing.T) {
	tr := model.Transcript{
		user("send an email to a@b.com subject: One"),
		assistantMsg("Sure, anything else?"),
		user("actually send the email to c@d.com subject: Two"),
	}
	intent, ok := ExtractSendEmail(tr)
	require.True(t, ok)
	assert.Equal(t, "c@d.com", intent.To)
	assert.Equal(t, "Two", intent.Subject)
}

func TestExtractSendEmail_None(t *testing.T) {
	tests := []struct {
		name string
		t    model.Transcript
	}{
		{"no subject", model.Transcript{user("send an email to a@b.com saying hi")}},
		{"no recipient", model.Transcript{user("send an email subject: Hello")}},
		{"not a send request", model.Transcript{user("what did a@b.com say? subject: Hello")}},
		{"assistant draft without confirmation", model.Transcript{assistantMsg("To: a@b.com\nSubject: Hello")}},
		{"confirmation without draft", model.Transcript{user("yes")}},
		{"long reply is not a confirmation", model.Transcript{
			assistantMsg("To: a@b.com\nSubject: Hello"),
			user("yes but change the wording first"),
		}},
		{"request outside the window", model.Transcript{
			user("send an email to a@b.com subject: Hello"),
			assistantMsg("Drafted."),
			user("what time is it"),
			assistantMsg("Noon."),
			user("what day is it"),
			assistantMsg("Tuesday."),
			user("thank you"),
		}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, ok := ExtractSendEmail(tt.t)
			assert.False(t, ok)
		})
	}
}

func TestExtractSendEmail_Idempotent(t *testing.T) {
	tr := model.Transcript{
		assistantMsg("To: a@b.com\nSubject: Hello\nBody: Hi there"),
		user("yes"),
	}
	first, ok1 := ExtractSendEmail(tr)
	second, ok2 := ExtractSendEmail(tr)
	assert.Equal(t, ok1, ok2)
	assert.Equal(t, first, second)
}

func TestExtractSendEmail_AcknowledgementIsNotConfirmation(t *testing.T) {
	listing := "Your latest email is from bob@x.com, Subject: Lunch plans. He asks whether Friday works."
	for _, reply := range []string{"ok thanks", "sure", "yeah", "yep", "thank you", "confirmed"} {
		t.Run(reply, func(t *testing.T) {
			tr := model.Transcript{
				user("what's my latest email?"),
				assistantMsg(listing),
				user(reply),
			}
			_, ok := ExtractSendEmail(tr)
			assert.False(t, ok)
		})
	}
}
