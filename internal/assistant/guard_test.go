package assistant

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/capitalize-ai/workspace-assistant/internal/model"
)

var launchReview = model.CreateEventIntent{
	Title: "Launch Review",
	Start: time.Date(2026, 5, 15, 15, 0, 0, 0, time.UTC),
	End:   time.Date(2026, 5, 15, 16, 0, 0, 0, time.UTC),
}

func TestAlreadyHandled_Event(t *testing.T) {
	key := EventKey(launchReview)

	tests := []struct {
		name string
		t    model.Transcript
		want bool
	}{
		{
			name: "reported with machine notation",
			t:    model.Transcript{assistantMsg("✅ EVENT CREATED: Launch Review | 2026-05-15T15:00 to 16:00 UTC")},
			want: true,
		},
		{
			name: "reported in prose",
			t:    model.Transcript{assistantMsg("Event created: launch review on May 15, 2026 at 3:00 PM.")},
			want: true,
		},
		{
			name: "different title",
			t:    model.Transcript{assistantMsg("✅ EVENT CREATED: Budget Review | 2026-05-15T15:00 to 16:00 UTC")},
			want: false,
		},
		{
			name: "different start",
			t:    model.Transcript{assistantMsg("✅ EVENT CREATED: Launch Review | 2026-05-16T15:00 to 16:00 UTC")},
			want: false,
		},
		{
			name: "marker missing",
			t:    model.Transcript{assistantMsg("I can create Launch Review on 2026-05-15T15:00 if you confirm.")},
			want: false,
		},
		{
			name: "user text does not count",
			t:    model.Transcript{user("EVENT CREATED: Launch Review 2026-05-15T15:00")},
			want: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, AlreadyHandled(tt.t, model.ActionCreateEvent, key))
		})
	}
}

func TestAlreadyHandled_Email(t *testing.T) {
	intent := model.SendEmailIntent{To: "a@b.com", Subject: "Hello"}
	sent := model.Transcript{assistantMsg("✅ EMAIL SENT to a@b.com | Subject: Hello")}

	assert.True(t, AlreadyHandled(sent, model.ActionSendEmail, EmailKey(intent)))
	assert.False(t, AlreadyHandled(sent, model.ActionSendEmail, EmailKey(model.SendEmailIntent{To: "a@b.com", Subject: "Other"})))
	assert.False(t, AlreadyHandled(sent, model.ActionSendEmail, EmailKey(model.SendEmailIntent{To: "c@d.com", Subject: "Hello"})))
	// An email marker never vouches for an event.
	assert.False(t, AlreadyHandled(sent, model.ActionCreateEvent, EventKey(launchReview)))
}

func TestAlreadyHandled_EmptyKey(t *testing.T) {
	tr := model.Transcript{assistantMsg("✅ EMAIL SENT")}
	assert.False(t, AlreadyHandled(tr, model.ActionSendEmail, IdentityKey{}))
}

func TestIdentityKeyString(t *testing.T) {
	assert.Equal(t, "a@b.com:hello", EmailKey(model.SendEmailIntent{To: "A@b.com", Subject: "Hello"}).String())
	assert.Equal(t, "launch review:2026-05-15t15:00", EventKey(launchReview).String())

	allDay := model.CreateEventIntent{Title: "Offsite", Start: time.Date(2026, 6, 1, 0, 0, 0, 0, time.UTC), AllDay: true}
	assert.Equal(t, "offsite:2026-06-01", EventKey(allDay).String())
}
