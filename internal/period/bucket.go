package period

import (
	"fmt"
	"time"

	"github.com/assolib/assolib-manager/internal/entity"
)

// BucketLabel maps a timestamp to its bucket label for the given granularity.
// Labels are stable map keys: two timestamps in the same calendar bucket
// always format identically. They are not zero-padded and do not sort
// lexically; consumers needing chronological output sort by BucketStart.
func BucketLabel(t time.Time, g entity.Granularity) string {
	switch g {
	case entity.GranularityDaily:
		return t.Format("2006-01-02")
	case entity.GranularityWeekly:
		_, week := t.ISOWeek()
		return fmt.Sprintf("Week %d", week)
	case entity.GranularityQuarterly:
		return fmt.Sprintf("Q%d %d", (int(t.Month())-1)/3+1, t.Year())
	case entity.GranularitySemiAnnual:
		return fmt.Sprintf("H%d %d", (int(t.Month())-1)/6+1, t.Year())
	case entity.GranularityAnnual, entity.GranularityAllTime:
		return fmt.Sprintf("%d", t.Year())
	default:
		return t.Format("Jan 2006")
	}
}

// BucketStart returns the first instant of the bucket containing t.
func BucketStart(t time.Time, g entity.Granularity) time.Time {
	loc := t.Location()
	switch g {
	case entity.GranularityDaily:
		return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, loc)
	case entity.GranularityWeekly:
		// ISO weeks start on Monday (Go: 0=Sun, 1=Mon)
		daysBack := (int(t.Weekday()) + 6) % 7
		return time.Date(t.Year(), t.Month(), t.Day()-daysBack, 0, 0, 0, 0, loc)
	case entity.GranularityQuarterly:
		firstMonth := time.Month(((int(t.Month())-1)/3)*3 + 1)
		return time.Date(t.Year(), firstMonth, 1, 0, 0, 0, 0, loc)
	case entity.GranularitySemiAnnual:
		firstMonth := time.Month(((int(t.Month())-1)/6)*6 + 1)
		return time.Date(t.Year(), firstMonth, 1, 0, 0, 0, 0, loc)
	case entity.GranularityAnnual, entity.GranularityAllTime:
		return time.Date(t.Year(), time.January, 1, 0, 0, 0, 0, loc)
	default:
		return time.Date(t.Year(), t.Month(), 1, 0, 0, 0, 0, loc)
	}
}
