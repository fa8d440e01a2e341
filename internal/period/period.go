package period

import (
	"errors"
	"fmt"
	"time"

	"github.com/assolib/assolib-manager/internal/entity"
)

// ErrInvalidPeriod is returned for malformed explicit date bounds. Unlike an
// unknown granularity, which intentionally falls back to monthly, a parse
// failure must never be silently defaulted.
var ErrInvalidPeriod = errors.New("invalid period bounds")

const dateLayout = "2006-01-02"

// epoch is the lower bound of the allTime window.
var epoch = time.Unix(0, 0).UTC()

// Resolve maps a granularity and optional explicit bounds to a concrete
// [start, end) interval, evaluated against the current time.
func Resolve(g entity.Granularity, startDate, endDate string) (entity.TimeRange, error) {
	return ResolveAt(g, startDate, endDate, time.Now())
}

// ResolveAt is Resolve with an explicit reference instant. Explicit bounds
// always win over granularity: when both are present the result is
// [startOfDay(startDate), endOfDay(endDate)) verbatim.
func ResolveAt(g entity.Granularity, startDate, endDate string, now time.Time) (entity.TimeRange, error) {
	if startDate != "" && endDate != "" {
		from, err := time.ParseInLocation(dateLayout, startDate, now.Location())
		if err != nil {
			return entity.TimeRange{}, fmt.Errorf("%w: start date %q", ErrInvalidPeriod, startDate)
		}
		to, err := time.ParseInLocation(dateLayout, endDate, now.Location())
		if err != nil {
			return entity.TimeRange{}, fmt.Errorf("%w: end date %q", ErrInvalidPeriod, endDate)
		}
		if to.Before(from) {
			return entity.TimeRange{}, fmt.Errorf("%w: end date precedes start date", ErrInvalidPeriod)
		}
		return entity.TimeRange{From: startOfDay(from), To: endOfDay(to)}, nil
	}
	if startDate != "" || endDate != "" {
		// a single explicit bound cannot form an interval
		return entity.TimeRange{}, fmt.Errorf("%w: both start and end dates are required", ErrInvalidPeriod)
	}

	to := endOfDay(now)
	var from time.Time
	switch g {
	case entity.GranularityDaily:
		from = now.AddDate(0, 0, -7)
	case entity.GranularityWeekly:
		from = now.AddDate(0, 0, -28)
	case entity.GranularityQuarterly:
		from = now.AddDate(0, -3, 0)
	case entity.GranularitySemiAnnual:
		from = now.AddDate(0, -6, 0)
	case entity.GranularityAnnual:
		from = now.AddDate(0, -12, 0)
	case entity.GranularityAllTime:
		return entity.TimeRange{From: epoch, To: to}, nil
	default:
		// monthly, and the intentional fallback for unknown granularities
		from = now.AddDate(0, -1, 0)
	}
	return entity.TimeRange{From: startOfDay(from), To: to}, nil
}

func startOfDay(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
}

// endOfDay returns the first instant after t's day, the exclusive end of a
// [start, end) interval.
func endOfDay(t time.Time) time.Time {
	return startOfDay(t).AddDate(0, 0, 1)
}
