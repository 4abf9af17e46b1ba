package assistant

import (
	"regexp"
	"strings"
	"time"
	"unicode"
	"unicode/utf8"

	"github.com/capitalize-ai/workspace-assistant/internal/model"
)

var (
	createVerbRe = regexp.MustCompile(`(?i)\b(?:create|add|schedule|make|set|put|remind me|new event)\b`)
	eventNounRe  = regexp.MustCompile(`(?i)\b(?:event|meeting|appointment|reminder|calendar)s?\b`)
	draftEventRe = regexp.MustCompile(`(?i)📅|🗓|\bevents?\b`)

	namedTitleRe = regexp.MustCompile(`(?i)\b(?:called|titled|named)\s+(.+)`)
	topicTitleRe = regexp.MustCompile(`(?i)\b(?:for|about)\s+(.+)`)
	eventTitleRe = regexp.MustCompile(`(?i)\bevent\s+(.+)`)
	draftTitleRe = regexp.MustCompile(`(?im)^[^\pL\n]*(?:(?:event\s+)?(?:title|name)|event|what)\s*:\s*(.+)$`)

	locationRe      = regexp.MustCompile(`(?i)(?:\b(?:at|in)\s+|\blocation\s*:\s*)([^,.\n]+)`)
	draftLocationRe = regexp.MustCompile(`(?im)^[^\pL\n]*(?:location|where)\s*:\s*(.+)$`)

	leadingVerbRe = regexp.MustCompile(`(?i)^\s*(?:please\s+|can you\s+|could you\s+|i want to\s+|i'd like to\s+)?(?:create|add|schedule|make|set up|set|put|remind me(?:\s+to)?|new event)\s+(?:me\s+)?(?:an?\s+|the\s+)?(?:new\s+)?(?:(?:calendar\s+)?(?:event|meeting|appointment|reminder)s?\s*)?(?:(?:called|titled|named|for|about|to)\s+)?`)
	calendarTailRe = regexp.MustCompile(`(?i)\s+(?:to|on|in|into)\s+(?:my|the)\s+calendar\b(?:\s+(?:for|on|at|from|by|starting))*[\s,]*$`)
)

// titleBoundaries end a title or a location phrase.
var titleBoundaries = map[string]bool{
	"on": true, "at": true, "in": true, "from": true, "for": true,
	"tomorrow": true, "today": true, "tonight": true, "next": true,
	"this": true, "with": true, "starting": true, "until": true,
	"till": true, "by": true, "every": true,
}

// connectorWords are trimmed from either end of a derived title.
var connectorWords = map[string]bool{
	"on": true, "at": true, "for": true, "to": true, "about": true,
	"called": true, "titled": true, "named": true, "a": true, "an": true,
	"the": true, "my": true, "and": true,
}

// ExtractCreateEvent looks for a create-event request in the recent
// transcript. Each qualifying user message yields a complete candidate
// (title and date) or nothing; the latest candidate wins. A short user
// confirmation after an assistant draft re-parses the draft.
func ExtractCreateEvent(t model.Transcript, now time.Time) (model.CreateEventIntent, bool) {
	window := t.Window(intentWindow)

	var (
		found  model.CreateEventIntent
		hasHit bool
	)
	for i, msg := range window {
		if msg.Role != model.RoleUser {
			continue
		}
		var (
			intent model.CreateEventIntent
			ok     bool
		)
		switch {
		case isAffirmative(msg.Content):
			draft, exists := precedingAssistant(window, i)
			if !exists || !draftEventRe.MatchString(draft.Content) {
				continue
			}
			intent, ok = parseEventDraft(stripEmphasis(draft.Content), now)
		case isEventRequest(msg.Content):
			intent, ok = parseEventRequest(msg.Content, now)
		}
		if ok {
			found, hasHit = intent, true
		}
	}
	return found, hasHit
}

func isEventRequest(text string) bool {
	if !createVerbRe.MatchString(text) {
		return false
	}
	return eventNounRe.MatchString(text) || MentionsDate(text)
}

func parseEventRequest(text string, now time.Time) (model.CreateEventIntent, bool) {
	dt, ok := ParseDateTime(text, now)
	if !ok {
		return model.CreateEventIntent{}, false
	}
	title := deriveTitle(text, dt.Span)
	if title == "" {
		return model.CreateEventIntent{}, false
	}
	return model.CreateEventIntent{
		Title:     title,
		Start:     dt.Start,
		End:       dt.End,
		AllDay:    dt.AllDay,
		Location:  deriveLocation(blankSpan(text, dt.Span)),
		Attendees: emailAddrRe.FindAllString(text, -1),
	}, true
}

func parseEventDraft(text string, now time.Time) (model.CreateEventIntent, bool) {
	dt, ok := ParseDateTime(text, now)
	if !ok {
		return model.CreateEventIntent{}, false
	}

	var title string
	if m := draftTitleRe.FindStringSubmatch(text); m != nil {
		title = finishTitle(strings.Trim(strings.TrimSpace(m[1]), `"'`))
	}
	if title == "" {
		title = deriveTitle(text, dt.Span)
	}
	if title == "" {
		return model.CreateEventIntent{}, false
	}

	location := ""
	if m := draftLocationRe.FindStringSubmatch(text); m != nil {
		location = strings.TrimSpace(m[1])
	} else {
		location = deriveLocation(blankSpan(text, dt.Span))
	}

	return model.CreateEventIntent{
		Title:    title,
		Start:    dt.Start,
		End:      dt.End,
		AllDay:   dt.AllDay,
		Location: location,
	}, true
}

// deriveTitle tries, in order: an explicit name ("called X"), the words
// between the event noun and the date, then the leading clause with the
// creation verb stripped.
func deriveTitle(text string, dateSpan [2]int) string {
	for _, re := range []*regexp.Regexp{namedTitleRe, topicTitleRe, eventTitleRe} {
		for _, m := range re.FindAllStringSubmatchIndex(text, -1) {
			if m[2] >= dateSpan[0] && m[2] < dateSpan[1] {
				continue
			}
			if title := finishTitle(cutPhrase(text[m[2]:m[3]])); title != "" {
				return title
			}
		}
	}

	if noun := eventNounRe.FindStringIndex(text); noun != nil && noun[1] <= dateSpan[0] {
		between := strings.TrimSpace(text[noun[1]:dateSpan[0]])
		between = strings.TrimSpace(calendarTailRe.ReplaceAllString(" "+between, ""))
		lower := strings.ToLower(between)
		if strings.HasPrefix(lower, "with ") {
			if title := finishTitle(text[noun[0]:noun[1]] + " " + between); title != "" {
				return title
			}
		} else if title := finishTitle(cutPhrase(between)); title != "" {
			return title
		}
	}

	lead := text[:dateSpan[0]]
	if i := strings.LastIndexAny(lead, ".!?\n"); i >= 0 {
		lead = lead[i+1:]
	}
	lead = leadingVerbRe.ReplaceAllString(lead, "")
	lead = calendarTailRe.ReplaceAllString(lead, "")
	return finishTitle(lead)
}

// deriveLocation returns the first "at X" / "in X" / "location: X" phrase
// that is not a time of day.
func deriveLocation(text string) string {
	for _, m := range locationRe.FindAllStringSubmatch(text, -1) {
		phrase := strings.TrimSpace(m[1])
		if phrase == "" {
			continue
		}
		first, _ := utf8.DecodeRuneInString(phrase)
		if unicode.IsDigit(first) {
			continue
		}
		lower := strings.ToLower(phrase)
		if strings.Contains(lower, "calendar") || strings.HasPrefix(lower, "the morning") ||
			strings.HasPrefix(lower, "the afternoon") || strings.HasPrefix(lower, "the evening") ||
			namedTimeRe.MatchString(lower) || monthWordRe.MatchString(firstWord(lower)) {
			continue
		}
		if loc := strings.TrimSpace(cutPhrase(phrase)); loc != "" {
			return loc
		}
	}
	return ""
}

// cutPhrase keeps words up to the first boundary word, date-like token or
// clause punctuation. A leading quoted string is returned whole.
func cutPhrase(s string) string {
	s = strings.TrimSpace(s)
	if s == "" {
		return ""
	}
	if q := s[0]; q == '"' || q == '\'' {
		if end := strings.IndexByte(s[1:], q); end > 0 {
			return s[1 : end+1]
		}
	}

	words := strings.Fields(s)
	kept := make([]string, 0, len(words))
	for i, w := range words {
		bare := strings.ToLower(strings.TrimRight(w, ",.;:!?"))
		if titleBoundaries[bare] || isDateToken(bare, words, i) {
			break
		}
		trimmed := strings.TrimRight(w, ",.;:!?")
		kept = append(kept, trimmed)
		if trimmed != w {
			break
		}
	}
	return strings.Join(kept, " ")
}

func isDateToken(word string, words []string, i int) bool {
	if word == "" {
		return false
	}
	first, _ := utf8.DecodeRuneInString(word)
	if unicode.IsDigit(first) && strings.ContainsAny(word, "/-:") {
		return true
	}
	if monthWordRe.MatchString(word) && monthWordRe.FindString(word) == word && i+1 < len(words) {
		next, _ := utf8.DecodeRuneInString(words[i+1])
		return unicode.IsDigit(next)
	}
	return false
}

// finishTitle trims connector words and punctuation and capitalizes the
// first letter. It returns "" when nothing meaningful is left.
func finishTitle(s string) string {
	words := strings.Fields(strings.Trim(strings.TrimSpace(s), `"',.;:!?`))
	for len(words) > 0 && connectorWords[strings.ToLower(words[0])] {
		words = words[1:]
	}
	for len(words) > 0 && connectorWords[strings.ToLower(words[len(words)-1])] {
		words = words[:len(words)-1]
	}
	if len(words) == 0 {
		return ""
	}
	title := strings.Join(words, " ")
	r, size := utf8.DecodeRuneInString(title)
	return string(unicode.ToUpper(r)) + title[size:]
}

func firstWord(s string) string {
	if f := strings.Fields(s); len(f) > 0 {
		return f[0]
	}
	return ""
}
