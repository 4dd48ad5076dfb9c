package render

import (
	"fmt"
	"time"

	"github.com/dustin/go-humanize"
)

// FormatTime formats a message timestamp as HH:MM in local time
func FormatTime(t time.Time) string {
	return t.Local().Format("15:04")
}

// FormatHistoryDate labels a session date relative to now
func FormatHistoryDate(t, now time.Time) string {
	t = t.Local()
	now = now.Local()
	ty, tm, td := t.Date()
	ny, nm, nd := now.Date()
	if ty == ny && tm == nm && td == nd {
		return "Today"
	}
	yy, ym, yd := now.AddDate(0, 0, -1).Date()
	if ty == yy && tm == ym && td == yd {
		return "Yesterday"
	}
	return t.Format("Jan 2, 2006")
}

// FormatRelative returns a humanized age such as "3 minutes ago"
func FormatRelative(t, now time.Time) string {
	return humanize.RelTime(t, now, "ago", "from now")
}

// FormatFileSize formats a byte count for display
func FormatFileSize(size int64) string {
	if size <= 0 {
		return "0 B"
	}
	return humanize.Bytes(uint64(size))
}

// FormatMessageCount pluralises a message count
func FormatMessageCount(n int) string {
	if n == 1 {
		return "1 message"
	}
	return fmt.Sprintf("%d messages", n)
}
