package assistant

import (
	"regexp"
	"strconv"
	"strings"
	"time"
	"unicode"
)

const (
	defaultEventDuration  = time.Hour
	defaultAllDayDuration = 24 * time.Hour
)

const monthPattern = `(january|february|march|april|may|june|july|august|september|october|november|december|jan|feb|mar|apr|jun|jul|aug|sept|sep|oct|nov|dec)`

var monthByPrefix = map[string]time.Month{
	"jan": time.January, "feb": time.February, "mar": time.March,
	"apr": time.April, "may": time.May, "jun": time.June,
	"jul": time.July, "aug": time.August, "sep": time.September,
	"oct": time.October, "nov": time.November, "dec": time.December,
}

var (
	monthWordRe  = regexp.MustCompile(`(?i)\b` + monthPattern + `\b`)
	dayPrefixRe  = regexp.MustCompile(`(?i)\d{1,2}(?:st|nd|rd|th)?(?:\s+of)?\s*$`)
	timeRe       = regexp.MustCompile(`(?i)\b(\d{1,2})(?::([0-5]\d))?\s*(a\.m\.|p\.m\.|am|pm)?`)
	timeRangeRe  = regexp.MustCompile(`(?i)\b(\d{1,2})(?::([0-5]\d))?\s*(am|pm)?\s*(?:-|–|to|until|till)\s*(\d{1,2})(?::([0-5]\d))?\s*(am|pm)\b`)
	untilRe      = regexp.MustCompile(`(?i)\b(?:until|till)\s+(\d{1,2})(?::([0-5]\d))?\s*(am|pm)\b`)
	durationRe   = regexp.MustCompile(`(?i)\bfor\s+(\d{1,3})\s*(hours?|hrs?|minutes?|mins?)\b`)
	namedTimeRe  = regexp.MustCompile(`(?i)\b(noon|midnight)\b`)
	followTimeRe = regexp.MustCompile(`(?i)^\s*(?::|am\b|pm\b)`)
)

// DateTime is a resolved event time range.
type DateTime struct {
	Start  time.Time
	End    time.Time
	AllDay bool
	// Span holds the byte offsets of the date expression in the parsed text.
	Span [2]int
}

// dateRule resolves one date notation. Rules are tried in order and the first
// rule that produces a valid calendar date wins.
type dateRule struct {
	name    string
	re      *regexp.Regexp
	resolve func(m []string, now time.Time) (time.Time, bool)
	accept  func(text string, loc []int) bool
}

var dateRules = []dateRule{
	{
		name: "today",
		re:   regexp.MustCompile(`(?i)\b(?:today|tonight)\b`),
		resolve: func(_ []string, now time.Time) (time.Time, bool) {
			return midnight(now), true
		},
	},
	{
		name: "tomorrow",
		re:   regexp.MustCompile(`(?i)\btomorrow\b`),
		resolve: func(_ []string, now time.Time) (time.Time, bool) {
			return midnight(now).AddDate(0, 0, 1), true
		},
	},
	{
		name: "next_week",
		re:   regexp.MustCompile(`(?i)\bnext\s+week\b`),
		resolve: func(_ []string, now time.Time) (time.Time, bool) {
			return midnight(now).AddDate(0, 0, 7), true
		},
	},
	{
		name: "month_year",
		re:   regexp.MustCompile(`(?i)\b` + monthPattern + `\.?\s+(\d{4})\b`),
		resolve: func(m []string, now time.Time) (time.Time, bool) {
			return buildDate(m[2], monthByName(m[1]), "1", now.Location())
		},
		// "15 May 2026" belongs to day_month_year.
		accept: func(text string, loc []int) bool {
			return !dayPrefixRe.MatchString(text[:loc[0]])
		},
	},
	{
		name: "month_day_year",
		re:   regexp.MustCompile(`(?i)\b` + monthPattern + `\.?\s+(\d{1,2})(?:st|nd|rd|th)?,?\s+(\d{4})\b`),
		resolve: func(m []string, now time.Time) (time.Time, bool) {
			return buildDate(m[3], monthByName(m[1]), m[2], now.Location())
		},
	},
	{
		name: "day_month_year",
		re:   regexp.MustCompile(`(?i)\b(\d{1,2})(?:st|nd|rd|th)?\s+(?:of\s+)?` + monthPattern + `\.?,?\s+(\d{4})\b`),
		resolve: func(m []string, now time.Time) (time.Time, bool) {
			return buildDate(m[3], monthByName(m[2]), m[1], now.Location())
		},
	},
	{
		name: "iso",
		re:   regexp.MustCompile(`\b(\d{4})-(\d{2})-(\d{2})\b`),
		resolve: func(m []string, now time.Time) (time.Time, bool) {
			month, err := strconv.Atoi(m[2])
			if err != nil {
				return time.Time{}, false
			}
			return buildDate(m[1], time.Month(month), m[3], now.Location())
		},
	},
	{
		name: "us_numeric",
		re:   regexp.MustCompile(`\b(\d{1,2})/(\d{1,2})/(\d{4})\b`),
		resolve: func(m []string, now time.Time) (time.Time, bool) {
			month, err := strconv.Atoi(m[1])
			if err != nil {
				return time.Time{}, false
			}
			return buildDate(m[3], time.Month(month), m[2], now.Location())
		},
	},
	{
		name: "month_day",
		re:   regexp.MustCompile(`(?i)\b` + monthPattern + `\.?\s+(\d{1,2})(?:st|nd|rd|th)?\b`),
		resolve: func(m []string, now time.Time) (time.Time, bool) {
			d, ok := buildDate(strconv.Itoa(now.Year()), monthByName(m[1]), m[2], now.Location())
			if !ok {
				return time.Time{}, false
			}
			if d.Before(midnight(now)) {
				d = d.AddDate(1, 0, 0)
			}
			return d, true
		},
		// "May 3pm" or "May 3:30" is a time, not a day.
		accept: func(text string, loc []int) bool {
			return !followTimeRe.MatchString(text[loc[1]:])
		},
	},
}

// ParseDateTime resolves the first date expression in text relative to now.
// A date is required; a time of day is optional and turns the result into a
// timed event. Times are interpreted in now's location.
func ParseDateTime(text string, now time.Time) (DateTime, bool) {
	date, span, ok := findDate(text, now)
	if !ok {
		return DateTime{}, false
	}

	dt := DateTime{
		Start:  date,
		End:    date.Add(defaultAllDayDuration),
		AllDay: true,
		Span:   span,
	}

	// Digits inside the date expression must never be read as an hour.
	rest := blankSpan(text, span)
	applyTime(&dt, rest)
	return dt, true
}

// MentionsDate reports whether text names a month, today or tomorrow.
func MentionsDate(text string) bool {
	lower := strings.ToLower(text)
	if strings.Contains(lower, "today") || strings.Contains(lower, "tomorrow") {
		return true
	}
	return monthWordRe.MatchString(text)
}

func findDate(text string, now time.Time) (time.Time, [2]int, bool) {
	for _, rule := range dateRules {
		for _, loc := range rule.re.FindAllStringSubmatchIndex(text, -1) {
			if rule.accept != nil && !rule.accept(text, loc) {
				continue
			}
			m := submatches(text, loc)
			if d, ok := rule.resolve(m, now); ok {
				return d, [2]int{loc[0], loc[1]}, true
			}
		}
	}
	return time.Time{}, [2]int{}, false
}

func applyTime(dt *DateTime, text string) {
	if m := timeRangeRe.FindStringSubmatch(text); m != nil {
		endH, endM, ok := clock(m[4], m[5], m[6])
		if ok {
			startMeridiem := m[3]
			if startMeridiem == "" {
				startMeridiem = m[6]
			}
			if startH, startM, ok := clock(m[1], m[2], startMeridiem); ok {
				setClock(dt, startH, startM)
				end := atClock(dt.Start, endH, endM)
				if !end.After(dt.Start) {
					end = end.AddDate(0, 0, 1)
				}
				dt.End = end
				return
			}
		}
	}

	h, mi, ok := firstTime(text)
	if !ok {
		return
	}
	setClock(dt, h, mi)

	if m := untilRe.FindStringSubmatch(text); m != nil {
		if eh, em, ok := clock(m[1], m[2], m[3]); ok {
			end := atClock(dt.Start, eh, em)
			if !end.After(dt.Start) {
				end = end.AddDate(0, 0, 1)
			}
			dt.End = end
			return
		}
	}
	if m := durationRe.FindStringSubmatch(text); m != nil {
		n, err := strconv.Atoi(m[1])
		if err == nil && n > 0 {
			unit := time.Minute
			if strings.HasPrefix(strings.ToLower(m[2]), "h") {
				unit = time.Hour
			}
			dt.End = dt.Start.Add(time.Duration(n) * unit)
		}
	}
}

// firstTime returns the first unambiguous time of day in text. A bare number
// without am/pm could be a day of month and is skipped, as is an H:MM whose
// hour reads as either morning or afternoon.
func firstTime(text string) (int, int, bool) {
	for _, loc := range timeRe.FindAllStringSubmatchIndex(text, -1) {
		if loc[1] < len(text) {
			next := rune(text[loc[1]])
			if unicode.IsDigit(next) || unicode.IsLetter(next) {
				continue
			}
		}
		m := submatches(text, loc)
		if m[3] == "" && m[2] == "" {
			continue
		}
		if h, mi, ok := clock(m[1], m[2], m[3]); ok {
			return h, mi, true
		}
	}
	if m := namedTimeRe.FindStringSubmatch(text); m != nil {
		if strings.EqualFold(m[1], "noon") {
			return 12, 0, true
		}
		return 0, 0, true
	}
	return 0, 0, false
}

// clock converts hour, minute and an optional meridiem to 24-hour values.
func clock(hour, minute, meridiem string) (int, int, bool) {
	h, err := strconv.Atoi(hour)
	if err != nil {
		return 0, 0, false
	}
	mi := 0
	if minute != "" {
		if mi, err = strconv.Atoi(minute); err != nil || mi > 59 {
			return 0, 0, false
		}
	}

	switch strings.ReplaceAll(strings.ToLower(meridiem), ".", "") {
	case "pm":
		if h < 1 || h > 12 {
			return 0, 0, false
		}
		if h != 12 {
			h += 12
		}
	case "am":
		if h < 1 || h > 12 {
			return 0, 0, false
		}
		if h == 12 {
			h = 0
		}
	default:
		// Without a meridiem, 1 through 12 could be morning or afternoon.
		if h > 23 || (h >= 1 && h <= 12) {
			return 0, 0, false
		}
	}
	return h, mi, true
}

func setClock(dt *DateTime, h, mi int) {
	dt.Start = atClock(dt.Start, h, mi)
	dt.End = dt.Start.Add(defaultEventDuration)
	dt.AllDay = false
}

func atClock(day time.Time, h, mi int) time.Time {
	return time.Date(day.Year(), day.Month(), day.Day(), h, mi, 0, 0, day.Location())
}

func midnight(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
}

func buildDate(year string, month time.Month, day string, loc *time.Location) (time.Time, bool) {
	y, err := strconv.Atoi(year)
	if err != nil {
		return time.Time{}, false
	}
	d, err := strconv.Atoi(day)
	if err != nil {
		return time.Time{}, false
	}
	if month < time.January || month > time.December || d < 1 {
		return time.Time{}, false
	}
	t := time.Date(y, month, d, 0, 0, 0, 0, loc)
	if t.Month() != month || t.Day() != d {
		return time.Time{}, false
	}
	return t, true
}

func monthByName(name string) time.Month {
	lower := strings.ToLower(name)
	if len(lower) < 3 {
		return 0
	}
	return monthByPrefix[lower[:3]]
}

func submatches(text string, loc []int) []string {
	m := make([]string, len(loc)/2)
	for i := range m {
		if loc[2*i] >= 0 {
			m[i] = text[loc[2*i]:loc[2*i+1]]
		}
	}
	return m
}

func blankSpan(text string, span [2]int) string {
	return text[:span[0]] + strings.Repeat(" ", span[1]-span[0]) + text[span[1]:]
}
