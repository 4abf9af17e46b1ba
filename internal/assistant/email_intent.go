package assistant

import (
	"regexp"
	"strings"

	"github.com/capitalize-ai/workspace-assistant/internal/model"
)

var (
	sendTokenRe  = regexp.MustCompile(`(?i)\bsend`)
	emailTokenRe = regexp.MustCompile(`(?i)\b(?:e-?mail|mail)`)

	subjectRe = regexp.MustCompile(`(?i)\b(?:title|subject)\s*:\s*([^,.\n]+?)\s*(?:[,.\n]|\b(?:body|content|message)\s*:|$)`)
	bodyRe    = regexp.MustCompile(`(?is)\b(?:body|content|message)\s*:\s*(.+)`)

	draftToRe   = regexp.MustCompile(`(?i)\bto\s*:\s*<?([A-Za-z0-9._%+\-]+@[A-Za-z0-9.\-]+\.[A-Za-z]{2,})`)
	draftBodyRe = regexp.MustCompile(`(?is)\b(?:body|content|message)\s*:\s*(.+?)(?:\n\s*\n|$)`)
)

var firstAddressRule = patternRule{
	name: "first_address",
	apply: func(text string) partial {
		if addr := emailAddrRe.FindString(text); addr != "" {
			return partial{fieldTo: addr}
		}
		return nil
	},
}

var sendEmailRules = []patternRule{
	firstAddressRule,
	captureRule("subject_label", fieldSubject, subjectRe),
	captureRule("body_label", fieldBody, bodyRe),
}

var draftEmailRules = []patternRule{
	firstAddressRule,
	// An explicit "To:" line beats any other address mentioned in the draft.
	captureRule("draft_to", fieldTo, draftToRe),
	captureRule("draft_subject", fieldSubject, subjectRe),
	captureRule("draft_body", fieldBody, draftBodyRe),
}

// ExtractSendEmail looks for a send-email request in the recent transcript.
// A user message that says "send" and "email" contributes its fields
// directly; a short user confirmation adopts the fields of the assistant
// draft right before it. Later messages overwrite earlier fields.
func ExtractSendEmail(t model.Transcript) (model.SendEmailIntent, bool) {
	window := t.Window(intentWindow)
	fields := partial{}

	for i, msg := range window {
		if msg.Role != model.RoleUser {
			continue
		}
		switch {
		case isAffirmative(msg.Content):
			draft, ok := precedingAssistant(window, i)
			if !ok {
				continue
			}
			merge(fields, runRules(draftEmailRules, stripEmphasis(draft.Content)))
		case sendTokenRe.MatchString(msg.Content) && emailTokenRe.MatchString(msg.Content):
			merge(fields, runRules(sendEmailRules, msg.Content))
		}
	}

	intent := model.SendEmailIntent{
		To:      fields[fieldTo],
		Subject: cleanSubject(fields[fieldSubject]),
		Body:    strings.TrimSpace(fields[fieldBody]),
	}
	if !intent.Valid() {
		return model.SendEmailIntent{}, false
	}
	if intent.Body == "" {
		intent.Body = "Regarding: " + intent.Subject
	}
	return intent, true
}

func cleanSubject(s string) string {
	return strings.Trim(strings.TrimSpace(s), `"'`)
}
