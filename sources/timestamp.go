package sources

import (
	"math"
	"time"
)

const timestampLayout = "2006-01-02 15:04:05"

// FormatTimestamp renders Unix epoch seconds in the host's local time zone.
// Zero, which is what a missing or null created_utc decodes to, yields "".
func FormatTimestamp(epoch float64) string {
	return formatTimestampIn(epoch, time.Local)
}

func formatTimestampIn(epoch float64, loc *time.Location) string {
	if epoch == 0 || math.IsNaN(epoch) || math.IsInf(epoch, 0) {
		return ""
	}
	sec, frac := math.Modf(epoch)
	return time.Unix(int64(sec), int64(frac*1e9)).In(loc).Format(timestampLayout)
}

// ParseTimestamp reads back a value produced by FormatTimestamp.
func ParseTimestamp(s string) (time.Time, bool) {
	if s == "" {
		return time.Time{}, false
	}
	t, err := time.ParseInLocation(timestampLayout, s, time.Local)
	if err != nil {
		return time.Time{}, false
	}
	return t, true
}
