package assistant

import (
	"strings"
	"time"
)

// calendarWindow infers the listing range from the user's wording.
func calendarWindow(text string, now time.Time) (time.Time, time.Time, string) {
	lower := strings.ToLower(text)
	today := midnight(now)

	switch {
	case strings.Contains(lower, "tomorrow"):
		start := today.AddDate(0, 0, 1)
		return start, start.AddDate(0, 0, 1), "tomorrow"
	case strings.Contains(lower, "today") || strings.Contains(lower, "tonight"):
		return now, today.AddDate(0, 0, 1), "today"
	case strings.Contains(lower, "next week"):
		start := startOfWeek(today).AddDate(0, 0, 7)
		return start, start.AddDate(0, 0, 7), "next week"
	case strings.Contains(lower, "this week"):
		return now, startOfWeek(today).AddDate(0, 0, 7), "this week"
	default:
		return now, today.AddDate(0, 0, 7), "next 7 days"
	}
}

// startOfWeek returns the Monday on or before day.
func startOfWeek(day time.Time) time.Time {
	offset := (int(day.Weekday()) + 6) % 7
	return day.AddDate(0, 0, -offset)
}

// emailQuery picks the Gmail search query for a read-only fetch.
func emailQuery(text string) string {
	if strings.Contains(strings.ToLower(text), "unread") {
		return "is:unread"
	}
	return "in:inbox"
}
