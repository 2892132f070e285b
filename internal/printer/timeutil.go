package printer

import (
	"fmt"
	"time"
)

// TimeAgo returns a human-readable time relative to now.
// Examples: "5 seconds ago", "1 minute ago", "3 days ago".
func TimeAgo(t, now time.Time) string {
	diff := now.Sub(t)
	if diff < 0 {
		return "in the future"
	}

	n, unit := int(diff.Seconds()), "second"
	switch {
	case diff >= 24*time.Hour:
		n, unit = int(diff.Hours()/24), "day"
	case diff >= time.Hour:
		n, unit = int(diff.Hours()), "hour"
	case diff >= time.Minute:
		n, unit = int(diff.Minutes()), "minute"
	}

	if n != 1 {
		unit += "s"
	}
	return fmt.Sprintf("%d %s ago", n, unit)
}

// FormatTimestamp returns the time in UTC using the "2006-01-02 15:04:05 UTC" layout.
func FormatTimestamp(t time.Time) string {
	return t.UTC().Format("2006-01-02 15:04:05 UTC")
}

// FormatElapsed returns a duration truncated to seconds, like "1m5s".
func FormatElapsed(d time.Duration) string {
	if d < 0 {
		d = 0
	}
	return d.Truncate(time.Second).String()
}
