// Package timeutil formats timestamps for API payloads. Persistence
// and wire timestamps are always UTC.
package timeutil

import (
	"fmt"
	"time"
)

// FormatRelative renders t relative to now, the way chat clients show
// message ages: "just now", "5 min ago", "yesterday", "3 w ago".
func FormatRelative(t time.Time) string {
	d := time.Since(t.UTC())
	if d < 0 {
		return future(-d)
	}
	return past(d)
}

func past(d time.Duration) string {
	switch {
	case d < time.Minute:
		return "just now"
	case d < time.Hour:
		return fmt.Sprintf("%d min ago", int(d.Minutes()))
	case d < 24*time.Hour:
		return fmt.Sprintf("%d h ago", int(d.Hours()))
	case d < 7*24*time.Hour:
		if days := int(d.Hours() / 24); days > 1 {
			return fmt.Sprintf("%d d ago", days)
		}
		return "yesterday"
	case d < 30*24*time.Hour:
		return fmt.Sprintf("%d w ago", int(d.Hours()/24/7))
	default:
		months := int(d.Hours() / 24 / 30)
		if months >= 12 {
			return fmt.Sprintf("%d y ago", months/12)
		}
		return fmt.Sprintf("%d mo ago", months)
	}
}

// Clock skew between the API and the database can put a fresh
// timestamp slightly in the future, so render those too.
func future(d time.Duration) string {
	switch {
	case d < time.Minute:
		return "now"
	case d < time.Hour:
		return fmt.Sprintf("in %d min", int(d.Minutes()))
	case d < 24*time.Hour:
		return fmt.Sprintf("in %d h", int(d.Hours()))
	default:
		if days := int(d.Hours() / 24); days > 1 {
			return fmt.Sprintf("in %d d", days)
		}
		return "tomorrow"
	}
}
