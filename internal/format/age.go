package format

import (
	"fmt"
	"time"
)

// FormatAge formats a duration as a compact age: "now", "5m", "2h", "3d",
// "2w", "3mo", "1y".
func FormatAge(d time.Duration) string {
	switch {
	case d < time.Minute:
		return "now"
	case d < time.Hour:
		return fmt.Sprintf("%dm", int(d.Minutes()))
	case d < 24*time.Hour:
		return fmt.Sprintf("%dh", int(d.Hours()))
	}

	days := int(d.Hours() / 24)
	switch {
	case days < 7:
		return fmt.Sprintf("%dd", days)
	case days < 30:
		return fmt.Sprintf("%dw", days/7)
	case days < 365:
		return fmt.Sprintf("%dmo", days/30)
	default:
		return fmt.Sprintf("%dy", days/365)
	}
}

// Ago renders t relative to now, e.g. "3d ago". The zero time renders as "never".
func Ago(t, now time.Time) string {
	if t.IsZero() {
		return "never"
	}
	age := FormatAge(now.Sub(t))
	if age == "now" {
		return "just now"
	}
	return age + " ago"
}
