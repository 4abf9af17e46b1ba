package assistant

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/capitalize-ai/workspace-assistant/internal/model"
)

func TestExtractCreateEvent_NamedEvent(t *testing.T) {
	tr := model.Transcript{user("create an event called Launch Review on May 15 2026 at 3pm")}

	intent, ok := ExtractCreateEvent(tr, refNow)
	require.True(t, ok)
	assert.Equal(t, "Launch Review", intent.Title)
	assert.Equal(t, time.Date(2026, 5, 15, 15, 0, 0, 0, time.UTC), intent.Start)
	assert.Equal(t, time.Date(2026, 5, 15, 16, 0, 0, 0, time.UTC), intent.End)
	assert.False(t, intent.AllDay)
	assert.Empty(t, intent.Location)
}

func TestExtractCreateEvent_AllDay(t *testing.T) {
	tr := model.Transcript{user("add an event called Company Offsite on 2026-06-01")}

	intent, ok := ExtractCreateEvent(tr, refNow)
	require.True(t, ok)
	assert.Equal(t, "Company Offsite", intent.Title)
	assert.True(t, intent.AllDay)
	assert.Equal(t, "2026-06-01", intent.StartString())
	assert.Equal(t, "2026-06-02", intent.EndString())
}

func TestExtractCreateEvent_CalendarPhraseLeftOutOfTitle(t *testing.T) {
	tests := map[string]string{
		"put Flight to Paris on the calendar for 2026-06-01": "Flight to Paris",
		"add Dentist to my calendar on 2026-06-01":           "Dentist",
		"put Flight to Paris on the calendar 2026-06-01":     "Flight to Paris",
	}
	for text, want := range tests {
		t.Run(text, func(t *testing.T) {
			intent, ok := ExtractCreateEvent(model.Transcript{user(text)}, refNow)
			require.True(t, ok)
			assert.Equal(t, want, intent.Title)
			assert.Equal(t, "2026-06-01", intent.StartString())
		})
	}
}

func TestExtractCreateEvent_Attendees(t *testing.T) {
	tr := model.Transcript{user("schedule a meeting with bob@example.com tomorrow at 2pm")}

	intent, ok := ExtractCreateEvent(tr, refNow)
	require.True(t, ok)
	assert.NotEmpty(t, intent.Title)
	assert.Equal(t, []string{"bob@example.com"}, intent.Attendees)
	assert.Equal(t, time.Date(2026, 3, 11, 14, 0, 0, 0, time.UTC), intent.Start)
}

func TestExtractCreateEvent_ConfirmsDraft(t *testing.T) {
	draft := "📅 Title: Team Sync\nDate: May 20, 2026\nTime: 10:00 AM\nLocation: Room 4\n\nShould I create this event?"
	tr := model.Transcript{
		user("put a team sync on my calendar"),
		assistantMsg(draft),
		user("yes"),
	}

	intent, ok := ExtractCreateEvent(tr, refNow)
	require.True(t, ok)
	assert.Equal(t, "Team Sync", intent.Title)
	assert.Equal(t, "Room 4", intent.Location)
	assert.Equal(t, time.Date(2026, 5, 20, 10, 0, 0, 0, time.UTC), intent.Start)
	assert.Equal(t, time.Date(2026, 5, 20, 11, 0, 0, 0, time.UTC), intent.End)
}

func TestExtractCreateEvent_LatestCandidateWins(t *testing.T) {
	tr := model.Transcript{
		user("create an event called Planning on 2026-04-01 at 9am"),
		assistantMsg("Done."),
		user("create an event called Retro on 2026-04-02 at 4pm"),
	}

	intent, ok := ExtractCreateEvent(tr, refNow)
	require.True(t, ok)
	assert.Equal(t, "Retro", intent.Title)
	assert.Equal(t, time.Date(2026, 4, 2, 16, 0, 0, 0, time.UTC), intent.Start)
}

func TestExtractCreateEvent_IncompleteLaterMessageKeepsEarlier(t *testing.T) {
	tr := model.Transcript{
		user("create an event called Planning on 2026-04-01 at 9am"),
		assistantMsg("Created."),
		user("now add another event"),
	}

	intent, ok := ExtractCreateEvent(tr, refNow)
	require.True(t, ok)
	assert.Equal(t, "Planning", intent.Title)
}

func TestExtractCreateEvent_None(t *testing.T) {
	tests := []struct {
		name string
		t    model.Transcript
	}{
		{"no date", model.Transcript{user("create an event called Standup")}},
		{"read-only question", model.Transcript{user("what meetings do I have tomorrow?")}},
		{"confirmation without draft", model.Transcript{user("yes")}},
		{"confirmation of an email draft", model.Transcript{
			assistantMsg("To: a@b.com\nSubject: Hello"),
			user("yes"),
		}},
		{"assistant text only", model.Transcript{assistantMsg("📅 Title: Sync\nDate: 2026-05-20")}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, ok := ExtractCreateEvent(tt.t, refNow)
			assert.False(t, ok)
		})
	}
}

func TestFinishTitle(t *testing.T) {
	assert.Equal(t, "Launch review", finishTitle("  the launch review, "))
	assert.Equal(t, "", finishTitle("on the"))
	assert.Equal(t, "Ölfest", finishTitle("ölfest"))
}

func TestCutPhrase(t *testing.T) {
	assert.Equal(t, "Design Sync", cutPhrase("Design Sync on Friday"))
	assert.Equal(t, "Design Sync", cutPhrase(`"Design Sync" tomorrow`))
	assert.Equal(t, "Standup", cutPhrase("Standup, daily"))
	assert.Equal(t, "Review", cutPhrase("Review May 15"))
}

func TestExtractCreateEvent_AcknowledgementIsNotConfirmation(t *testing.T) {
	listing := "You have 1 event tomorrow: Standup at 9am in Room 2."
	for _, reply := range []string{"ok thanks", "sure", "yeah", "yes please"} {
		t.Run(reply, func(t *testing.T) {
			tr := model.Transcript{
				user("what's on my calendar tomorrow?"),
				assistantMsg(listing),
				user(reply),
			}
			_, ok := ExtractCreateEvent(tr, refNow)
			assert.False(t, ok)
		})
	}
}

func TestIsAffirmative(t *testing.T) {
	for _, text := range []string{"yes", "Yes!", "send it", "Go ahead.", "confirm", "do it", "ok", "OKAY!!", "  yes  "} {
		assert.True(t, isAffirmative(text), text)
	}
	for _, text := range []string{"ok thanks", "sure", "yeah", "yep", "confirmed", "yes please", "yes, but later", "okay 👍"} {
		assert.False(t, isAffirmative(text), text)
	}
}
