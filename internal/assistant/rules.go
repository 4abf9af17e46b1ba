package assistant

import (
	"regexp"
	"strings"

	"github.com/capitalize-ai/workspace-assistant/internal/model"
)

// intentWindow is how many trailing messages the extractors look at.
const intentWindow = 6

var (
	emailAddrRe = regexp.MustCompile(`[A-Za-z0-9._%+\-]+@[A-Za-z0-9.\-]+\.[A-Za-z]{2,}`)
	affirmRe    = regexp.MustCompile(`(?i)^(?:yes|send it|go ahead|confirm|do it|ok|okay)[.!]*$`)
	emphasisRe  = strings.NewReplacer("**", "", "__", "", "`", "")
)

// field names shared by the partial records rules produce.
const (
	fieldTo       = "to"
	fieldSubject  = "subject"
	fieldBody     = "body"
	fieldTitle    = "title"
	fieldLocation = "location"
)

// partial is what one pattern rule extracted from one message.
type partial map[string]string

// patternRule is a named extraction step. It returns a partial record or nil.
type patternRule struct {
	name  string
	apply func(text string) partial
}

// captureRule returns the trimmed first capture group of re.
func captureRule(name, field string, re *regexp.Regexp) patternRule {
	return patternRule{
		name: name,
		apply: func(text string) partial {
			m := re.FindStringSubmatch(text)
			if m == nil {
				return nil
			}
			v := strings.TrimSpace(m[1])
			if v == "" {
				return nil
			}
			return partial{field: v}
		},
	}
}

// runRules applies rules in order; later rules overwrite earlier fields.
func runRules(rules []patternRule, text string) partial {
	out := partial{}
	for _, r := range rules {
		for k, v := range r.apply(text) {
			if v != "" {
				out[k] = v
			}
		}
	}
	return out
}

// merge copies every non-empty field of src over dst.
func merge(dst, src partial) {
	for k, v := range src {
		if v != "" {
			dst[k] = v
		}
	}
}

// isAffirmative reports whether a whole message is a short confirmation.
// Acknowledgements such as "ok thanks" or "sure" do not count.
func isAffirmative(text string) bool {
	return affirmRe.MatchString(strings.TrimSpace(text))
}

// precedingAssistant returns the closest assistant message before index i.
func precedingAssistant(window model.Transcript, i int) (model.ChatMessage, bool) {
	for j := i - 1; j >= 0; j-- {
		if window[j].Role == model.RoleAssistant {
			return window[j], true
		}
	}
	return model.ChatMessage{}, false
}

func stripEmphasis(text string) string {
	return emphasisRe.Replace(text)
}
