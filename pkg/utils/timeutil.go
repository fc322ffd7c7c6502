package utils

import (
	"fmt"
	"strings"
	"time"
)

// RoundUpToMinute drops seconds and sub-seconds and adds one minute, so the
// result is always strictly after t. Scheduler granularity is a minute and
// rounding down would cut the granted window short.
func RoundUpToMinute(t time.Time) time.Time {
	return t.Truncate(time.Minute).Add(time.Minute)
}

// HoursUntilMidnight returns the whole hours left until the next midnight in
// now's location.
func HoursUntilMidnight(now time.Time) int {
	y, m, d := now.Date()
	midnight := time.Date(y, m, d+1, 0, 0, 0, 0, now.Location())
	return int(midnight.Sub(now) / time.Hour)
}

// Plural returns the English plural of word unless n is 1.
func Plural(n int, word string) string {
	if n == 1 {
		return word
	}
	for _, suffix := range []string{"ch", "sh", "s", "x"} {
		if strings.HasSuffix(word, suffix) {
			return word + "es"
		}
	}
	return word + "s"
}

// FormatRemaining renders the hours and minutes of d, e.g. "1 hour and 5
// minutes". Zero components are omitted.
func FormatRemaining(d time.Duration) string {
	if d < 0 {
		d = 0
	}
	hours := int(d / time.Hour)
	minutes := int((d % time.Hour) / time.Minute)

	var parts []string
	if hours > 0 {
		parts = append(parts, fmt.Sprintf("%d %s", hours, Plural(hours, "hour")))
	}
	if minutes > 0 {
		parts = append(parts, fmt.Sprintf("%d %s", minutes, Plural(minutes, "minute")))
	}
	if len(parts) == 0 {
		return "less than a minute"
	}
	return strings.Join(parts, " and ")
}
